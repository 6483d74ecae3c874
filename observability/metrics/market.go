package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// MarketMetrics tracks the marketplace call surface.
type MarketMetrics struct {
	calls        *prometheus.CounterVec
	failures     *prometheus.CounterVec
	settledTotal prometheus.Counter
}

var (
	marketOnce     sync.Once
	marketRegistry *MarketMetrics
)

// Market returns the process-wide marketplace metrics, registering them on
// first use.
func Market() *MarketMetrics {
	marketOnce.Do(func() {
		marketRegistry = &MarketMetrics{
			calls: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "market_calls_total",
				Help: "Count of dispatched marketplace calls by method.",
			}, []string{"method"}),
			failures: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "market_call_failures_total",
				Help: "Count of rejected marketplace calls by method.",
			}, []string{"method"}),
			settledTotal: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "market_settlements_total",
				Help: "Count of successfully settled trades (sales and accepted bids).",
			}),
		}
		prometheus.MustRegister(
			marketRegistry.calls,
			marketRegistry.failures,
			marketRegistry.settledTotal,
		)
	})
	return marketRegistry
}

// ObserveCall records one dispatched call and whether it was rejected.
func (m *MarketMetrics) ObserveCall(method string, failed bool) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(method).Inc()
	if failed {
		m.failures.WithLabelValues(method).Inc()
	}
}

// ObserveSettlement records one settled trade.
func (m *MarketMetrics) ObserveSettlement() {
	if m == nil {
		return
	}
	m.settledTotal.Inc()
}
