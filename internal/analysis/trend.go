// Package analysis provides a statistical trend report over a price
// series: moving averages, momentum, volatility and a least-squares trend
// line. It is a read-only consumer of bar data.
package analysis

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/quantfarm/regime-trader/pkg/types"
)

const (
	shortMAWindow    = 20
	longMAWindow     = 50
	rocWindow        = 20
	rsiWindow        = 14
	volatilityWindow = 20
)

// TrendReport is the result of one analysis pass.
type TrendReport struct {
	GeneratedAt time.Time

	// Basic statistics
	Mean         float64
	StdDev       float64
	Min          float64
	Max          float64
	CurrentPrice float64
	LastChange   float64 // last bar-over-bar change, fractional

	// Trend line (least squares over bar index)
	Slope     float64
	RSquared  float64
	Direction string // "upward" or "downward"

	// Latest indicator values
	ShortMA    float64
	LongMA     float64
	ROC        float64 // percent change over rocWindow bars
	RSI        float64
	Volatility float64 // rolling std dev of close
}

// Analyze computes the report. It needs at least longMAWindow bars so
// every indicator has a defined latest value.
func Analyze(bars []types.OHLCV) (*TrendReport, error) {
	if len(bars) < longMAWindow {
		return nil, fmt.Errorf("trend analysis needs at least %d bars, got %d", longMAWindow, len(bars))
	}

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}

	r := &TrendReport{GeneratedAt: time.Now()}
	r.Mean, r.StdDev = meanStd(closes)
	r.Min, r.Max = minMax(closes)
	r.CurrentPrice = closes[len(closes)-1]
	prev := closes[len(closes)-2]
	if prev != 0 {
		r.LastChange = (r.CurrentPrice - prev) / prev
	}

	r.Slope, r.RSquared = linearTrend(closes)
	if r.Slope > 0 {
		r.Direction = "upward"
	} else {
		r.Direction = "downward"
	}

	r.ShortMA = tailMean(closes, shortMAWindow)
	r.LongMA = tailMean(closes, longMAWindow)
	base := closes[len(closes)-1-rocWindow]
	if base != 0 {
		r.ROC = (r.CurrentPrice - base) / base * 100
	}
	r.RSI = latestRSI(closes, rsiWindow)
	_, r.Volatility = meanStd(closes[len(closes)-volatilityWindow:])

	return r, nil
}

// Render formats the report for the console.
func (r *TrendReport) Render() string {
	var sb strings.Builder
	sb.WriteString("Market Trend Analysis Report\n")
	sb.WriteString("Generated on: " + r.GeneratedAt.Format("2006-01-02 15:04:05") + "\n\n")

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendRows([]table.Row{
		{"Current Price", fmt.Sprintf("$%.2f", r.CurrentPrice)},
		{"Last Change", fmt.Sprintf("%.2f%%", r.LastChange*100)},
		{"Average Price", fmt.Sprintf("$%.2f", r.Mean)},
		{"Price Range", fmt.Sprintf("$%.2f - $%.2f", r.Min, r.Max)},
		{"Overall Trend", strings.ToUpper(r.Direction)},
		{"Trend Strength (R²)", fmt.Sprintf("%.3f", r.RSquared)},
		{"Volatility (Std Dev)", fmt.Sprintf("$%.2f", r.Volatility)},
		{"RSI", fmt.Sprintf("%.2f", r.RSI)},
		{fmt.Sprintf("ROC (%d-bar)", rocWindow), fmt.Sprintf("%.2f%%", r.ROC)},
		{fmt.Sprintf("%d-bar MA", shortMAWindow), fmt.Sprintf("$%.2f", r.ShortMA)},
		{fmt.Sprintf("%d-bar MA", longMAWindow), fmt.Sprintf("$%.2f", r.LongMA)},
	})
	sb.WriteString(t.Render())
	sb.WriteString("\n\nMarket Signals\n")
	sb.WriteString("  RSI Signal: " + r.rsiSignal() + "\n")
	sb.WriteString("  MA Signal:  " + r.maSignal() + "\n")
	return sb.String()
}

func (r *TrendReport) rsiSignal() string {
	switch {
	case r.RSI > 70:
		return "Overbought"
	case r.RSI < 30:
		return "Oversold"
	default:
		return "Neutral"
	}
}

func (r *TrendReport) maSignal() string {
	if r.ShortMA > r.LongMA {
		return "Bullish"
	}
	return "Bearish"
}

func meanStd(values []float64) (mean, std float64) {
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	for _, v := range values {
		d := v - mean
		std += d * d
	}
	if len(values) > 1 {
		std = math.Sqrt(std / float64(len(values)-1))
	}
	return mean, std
}

func minMax(values []float64) (lo, hi float64) {
	lo, hi = values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

func tailMean(values []float64, window int) float64 {
	tail := values[len(values)-window:]
	sum := 0.0
	for _, v := range tail {
		sum += v
	}
	return sum / float64(window)
}

// linearTrend fits price against bar index by least squares and returns
// the slope and coefficient of determination.
func linearTrend(values []float64) (slope, rSquared float64) {
	n := float64(len(values))
	var sumX, sumY, sumXY, sumXX float64
	for i, v := range values {
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, 0
	}
	slope = (n*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / n

	meanY := sumY / n
	var ssRes, ssTot float64
	for i, v := range values {
		fit := intercept + slope*float64(i)
		ssRes += (v - fit) * (v - fit)
		ssTot += (v - meanY) * (v - meanY)
	}
	if ssTot == 0 {
		return slope, 0
	}
	return slope, 1 - ssRes/ssTot
}

// latestRSI computes the most recent RSI value over trailing mean gains
// and losses; a zero loss average saturates to 100.
func latestRSI(closes []float64, period int) float64 {
	if len(closes) < period+1 {
		return 0
	}
	tail := closes[len(closes)-period-1:]
	var gain, loss float64
	for i := 1; i < len(tail); i++ {
		delta := tail[i] - tail[i-1]
		if delta > 0 {
			gain += delta
		} else {
			loss -= delta
		}
	}
	gain /= float64(period)
	loss /= float64(period)
	if loss == 0 {
		return 100
	}
	rs := gain / loss
	return 100 - 100/(1+rs)
}
