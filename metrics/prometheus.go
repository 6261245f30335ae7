package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder exports events as oip_account_events_total and
// latencies as oip_account_latency_seconds, both labeled by coin.
type PrometheusRecorder struct {
	counters  *prometheus.CounterVec
	histogram *prometheus.HistogramVec
}

var (
	promOnce     sync.Once
	promRecorder *PrometheusRecorder
)

// NewPrometheusRecorder registers the collectors on the default registry.
// The collectors are created once; later calls return the same recorder, so
// building several accounts with metrics enabled is safe.
func NewPrometheusRecorder() Recorder {
	promOnce.Do(func() {
		counters := prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "oip_account",
				Name:      "events_total",
				Help:      "Count of account and payment events.",
			},
			[]string{"type", "coin"},
		)

		histogram := prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "oip_account",
				Name:      "latency_seconds",
				Help:      "Latency of payment pipeline operations.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation", "coin"},
		)

		prometheus.MustRegister(counters, histogram)

		promRecorder = &PrometheusRecorder{
			counters:  counters,
			histogram: histogram,
		}
	})
	return promRecorder
}

func (p *PrometheusRecorder) IncCounter(name string, labels map[string]string) {
	p.counters.With(prometheus.Labels{
		"type": name,
		"coin": labels["coin"],
	}).Inc()
}

func (p *PrometheusRecorder) ObserveLatency(name string, d time.Duration, labels map[string]string) {
	p.histogram.With(prometheus.Labels{
		"operation": name,
		"coin":      labels["coin"],
	}).Observe(d.Seconds())
}
