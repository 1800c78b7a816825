// Package metrics defines the server's Prometheus instrumentation: request
// counts, per-mode parse latency, and a gauge for the last analyzed block's
// transaction count.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blockforensics",
		Name:      "requests_total",
		Help:      "Total HTTP requests by route and status.",
	}, []string{"route", "status"})

	ParseDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "blockforensics",
		Name:      "parse_duration_seconds",
		Help:      "Parse/analyze latency by mode.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"mode"})

	LastBlockTxCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "blockforensics",
		Name:      "last_block_tx_count",
		Help:      "Transaction count of the most recently analyzed block.",
	})
)

func init() {
	prometheus.MustRegister(RequestsTotal, ParseDuration, LastBlockTxCount)
}
