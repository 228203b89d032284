package features

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/quantfarm/regime-trader/pkg/types"
)

// ErrNoValidRows is returned when every input row is lost to warm-up
// trimming and cleaning.
var ErrNoValidRows = errors.New("no valid feature rows after cleaning")

// FeatureDim is the number of columns fed to the regime model. Auxiliary
// series (ATR, volume average) are carried alongside for signal gating but
// are not part of the model input.
const FeatureDim = 8

// Config holds the lookback windows for the feature pipeline.
type Config struct {
	ShortSMAPeriod int     `json:"short_sma_period"`
	LongSMAPeriod  int     `json:"long_sma_period"`
	MACDFastSpan   int     `json:"macd_fast_span"`
	MACDSlowSpan   int     `json:"macd_slow_span"`
	RSIPeriod      int     `json:"rsi_period"`
	BollPeriod     int     `json:"boll_period"`
	BollStdDev     float64 `json:"boll_std_dev"`
	ATRPeriod      int     `json:"atr_period"`
	VolumeMAPeriod int     `json:"volume_ma_period"`
}

// DefaultConfig returns the standard window set.
func DefaultConfig() Config {
	return Config{
		ShortSMAPeriod: 5,
		LongSMAPeriod:  10,
		MACDFastSpan:   12,
		MACDSlowSpan:   26,
		RSIPeriod:      14,
		BollPeriod:     20,
		BollStdDev:     2.0,
		ATRPeriod:      14,
		VolumeMAPeriod: 20,
	}
}

// Validate checks the window configuration.
func (c Config) Validate() error {
	if c.ShortSMAPeriod < 2 || c.LongSMAPeriod < 2 {
		return fmt.Errorf("SMA periods must be at least 2, got %d/%d", c.ShortSMAPeriod, c.LongSMAPeriod)
	}
	if c.ShortSMAPeriod >= c.LongSMAPeriod {
		return fmt.Errorf("short SMA period (%d) must be less than long SMA period (%d)", c.ShortSMAPeriod, c.LongSMAPeriod)
	}
	if c.MACDFastSpan >= c.MACDSlowSpan {
		return fmt.Errorf("MACD fast span (%d) must be less than slow span (%d)", c.MACDFastSpan, c.MACDSlowSpan)
	}
	if c.RSIPeriod < 2 {
		return fmt.Errorf("RSI period must be at least 2, got %d", c.RSIPeriod)
	}
	if c.BollPeriod < 2 {
		return fmt.Errorf("Bollinger period must be at least 2, got %d", c.BollPeriod)
	}
	if c.BollStdDev <= 0 {
		return fmt.Errorf("Bollinger std dev multiple must be positive, got %.2f", c.BollStdDev)
	}
	if c.ATRPeriod < 2 {
		return fmt.Errorf("ATR period must be at least 2, got %d", c.ATRPeriod)
	}
	if c.VolumeMAPeriod < 2 {
		return fmt.Errorf("volume MA period must be at least 2, got %d", c.VolumeMAPeriod)
	}
	return nil
}

// Row is one cleaned feature row. Timestamps come from the source bars;
// downstream code must address rows by their position in the FeatureSet,
// never by raw bar index, because warm-up rows are trimmed.
type Row struct {
	Timestamp time.Time

	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64

	Return       float64
	VolumeChange float64
	SMAShort     float64
	SMALong      float64
	MACD         float64
	RSI          float64
	BollUpper    float64
	BollLower    float64

	// Gating-only series. VolumeSMA and ATRSMA have their own warm-up
	// within the cleaned frame; non-finite values simply fail the gates.
	ATR       float64
	VolumeSMA float64
	ATRSMA    float64
}

// FeatureSet is the aligned output of the pipeline.
type FeatureSet struct {
	Rows []Row
}

func (fs *FeatureSet) Len() int { return len(fs.Rows) }

// Matrix returns the model input: one FeatureDim-wide vector per row.
func (fs *FeatureSet) Matrix() [][]float64 {
	m := make([][]float64, len(fs.Rows))
	for i, r := range fs.Rows {
		m[i] = []float64{
			r.Return, r.VolumeChange,
			r.SMAShort, r.SMALong,
			r.MACD, r.RSI,
			r.BollUpper, r.BollLower,
		}
	}
	return m
}

// Pipeline turns raw bars into a cleaned feature table.
type Pipeline struct {
	cfg Config
}

// NewPipeline creates a pipeline with the given windows.
func NewPipeline(cfg Config) *Pipeline {
	return &Pipeline{cfg: cfg}
}

// Compute derives all feature series from the bars, fills gaps and trims
// the warm-up prefix. Missing intermediate values (division by zero,
// leading percent changes) are treated as gaps, not errors.
func (p *Pipeline) Compute(bars []types.OHLCV) (*FeatureSet, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("feature pipeline: %w", ErrNoValidRows)
	}

	n := len(bars)
	closes := make([]float64, n)
	volumes := make([]float64, n)
	for i, b := range bars {
		closes[i] = b.Close
		volumes[i] = b.Volume
	}

	ret := pctChange(closes)
	volChange := pctChange(volumes)
	smaShort := rollingMean(closes, p.cfg.ShortSMAPeriod)
	smaLong := rollingMean(closes, p.cfg.LongSMAPeriod)
	macd := macdLine(closes, p.cfg.MACDFastSpan, p.cfg.MACDSlowSpan)
	rsi := relativeStrength(closes, p.cfg.RSIPeriod)
	bollUpper, bollLower := bollingerBands(closes, p.cfg.BollPeriod, p.cfg.BollStdDev)
	atr := averageTrueRange(bars, p.cfg.ATRPeriod)

	columns := [][]float64{ret, volChange, smaShort, smaLong, macd, rsi, bollUpper, bollLower, atr}
	for _, col := range columns {
		forwardFill(col)
	}

	// The first usable row sits after the longest warm-up window; everything
	// before it is dropped so the output is a contiguous suffix of the input.
	firstValid := 0
	for _, col := range columns {
		if idx := firstFinite(col); idx > firstValid {
			firstValid = idx
		}
	}
	if firstValid >= n {
		return nil, fmt.Errorf("feature pipeline: %w", ErrNoValidRows)
	}
	for _, col := range columns {
		backFill(col[firstValid:])
	}

	// Gate-only averages are taken over the cleaned frame, so their warm-up
	// restarts at the trimmed origin.
	volumeSMA := rollingMean(volumes[firstValid:], p.cfg.VolumeMAPeriod)
	atrSMA := rollingMean(atr[firstValid:], p.cfg.VolumeMAPeriod)

	rows := make([]Row, 0, n-firstValid)
	for i := firstValid; i < n; i++ {
		row := Row{
			Timestamp:    bars[i].Timestamp,
			Open:         bars[i].Open,
			High:         bars[i].High,
			Low:          bars[i].Low,
			Close:        bars[i].Close,
			Volume:       bars[i].Volume,
			Return:       ret[i],
			VolumeChange: volChange[i],
			SMAShort:     smaShort[i],
			SMALong:      smaLong[i],
			MACD:         macd[i],
			RSI:          rsi[i],
			BollUpper:    bollUpper[i],
			BollLower:    bollLower[i],
			ATR:          atr[i],
			VolumeSMA:    volumeSMA[i-firstValid],
			ATRSMA:       atrSMA[i-firstValid],
		}
		if !row.finiteModelValues() {
			continue
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("feature pipeline: %w", ErrNoValidRows)
	}

	return &FeatureSet{Rows: rows}, nil
}

// finiteModelValues reports whether every value the model consumes is finite.
func (r Row) finiteModelValues() bool {
	for _, v := range []float64{r.Return, r.VolumeChange, r.SMAShort, r.SMALong, r.MACD, r.RSI, r.BollUpper, r.BollLower, r.ATR} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// macdLine is the difference of the fast and slow adjust-false EMAs.
func macdLine(closes []float64, fastSpan, slowSpan int) []float64 {
	fast := ema(closes, fastSpan)
	slow := ema(closes, slowSpan)
	out := make([]float64, len(closes))
	for i := range out {
		out[i] = fast[i] - slow[i]
	}
	return out
}

// relativeStrength computes RSI over trailing means of gains and losses.
// A zero loss average saturates the value to 0 rather than propagating a
// non-finite ratio.
func relativeStrength(closes []float64, period int) []float64 {
	n := len(closes)
	out := make([]float64, n)
	gains := make([]float64, n)
	losses := make([]float64, n)
	for i := 0; i < n; i++ {
		if i == 0 {
			gains[i] = math.NaN()
			losses[i] = math.NaN()
			continue
		}
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i] = delta
			losses[i] = 0
		} else {
			gains[i] = 0
			losses[i] = -delta
		}
	}

	avgGain := rollingMean(gains, period)
	avgLoss := rollingMean(losses, period)
	for i := 0; i < n; i++ {
		switch {
		case math.IsNaN(avgGain[i]) || math.IsNaN(avgLoss[i]):
			out[i] = math.NaN()
		case avgLoss[i] == 0:
			out[i] = 0
		default:
			rs := avgGain[i] / avgLoss[i]
			out[i] = 100 - (100 / (1 + rs))
		}
	}
	return out
}

// bollingerBands returns the upper and lower volatility bands.
func bollingerBands(closes []float64, window int, stdDevMultiple float64) (upper, lower []float64) {
	mean := rollingMean(closes, window)
	std := rollingStd(closes, window)
	upper = make([]float64, len(closes))
	lower = make([]float64, len(closes))
	for i := range closes {
		upper[i] = mean[i] + stdDevMultiple*std[i]
		lower[i] = mean[i] - stdDevMultiple*std[i]
	}
	return upper, lower
}

// averageTrueRange is the rolling mean of the true range.
func averageTrueRange(bars []types.OHLCV, period int) []float64 {
	tr := make([]float64, len(bars))
	for i, b := range bars {
		if i == 0 {
			tr[i] = b.High - b.Low
			continue
		}
		prevClose := bars[i-1].Close
		hl := b.High - b.Low
		hc := math.Abs(b.High - prevClose)
		lc := math.Abs(b.Low - prevClose)
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}
	return rollingMean(tr, period)
}
