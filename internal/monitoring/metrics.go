// Package monitoring exposes prometheus metrics and a health endpoint for
// the long-running live analyzer.
package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	signalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "regime_trader_signals_total",
			Help: "Gated signals emitted per side",
		},
		[]string{"symbol", "side"},
	)

	currentRegime = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "regime_trader_current_regime",
			Help: "Most recent decoded regime state label",
		},
		[]string{"symbol"},
	)

	currentPrice = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "regime_trader_current_price",
			Help: "Close price of the latest analyzed bar",
		},
		[]string{"symbol"},
	)

	fitDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "regime_trader_fit_duration_seconds",
			Help:    "Wall time of model fits",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
	)

	analysisErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "regime_trader_analysis_errors_total",
			Help: "Errors by stage (fetch, features, fit, decode, signals)",
		},
		[]string{"stage"},
	)
)

func init() {
	prometheus.MustRegister(signalsTotal)
	prometheus.MustRegister(currentRegime)
	prometheus.MustRegister(currentPrice)
	prometheus.MustRegister(fitDuration)
	prometheus.MustRegister(analysisErrors)
}

// RecordSignal counts one emitted signal.
func RecordSignal(symbol, side string) {
	signalsTotal.WithLabelValues(symbol, side).Inc()
}

// SetRegime records the latest decoded state for a symbol.
func SetRegime(symbol string, state int) {
	currentRegime.WithLabelValues(symbol).Set(float64(state))
}

// SetPrice records the close of the latest analyzed bar.
func SetPrice(symbol string, price float64) {
	currentPrice.WithLabelValues(symbol).Set(price)
}

// ObserveFitDuration records one model fit.
func ObserveFitDuration(seconds float64) {
	fitDuration.Observe(seconds)
}

// RecordError counts one failure in the given pipeline stage.
func RecordError(stage string) {
	analysisErrors.WithLabelValues(stage).Inc()
}

// Handler returns the prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
