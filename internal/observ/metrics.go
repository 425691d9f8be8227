package observ

import (
	"github.com/VictoriaMetrics/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/atomic"
)

// Metrics bundles the counters/summaries an arrangement or operator
// reports, grounded on erigon-lib's kv/kv_interface.go package-level
// VictoriaMetrics declarations (DbCommitTotal, DbPgopsNewly, ...): one
// named metric per concern, created once and updated throughout the
// component's life rather than per-call allocation.
//
// DeferredQueue is a VictoriaMetrics pull-gauge (backed by a callback,
// not a settable value); deferredDepth is the atomic counter that
// callback reads, updated from operator code via
// SetDeferredQueueDepth. Using an atomic here (rather than a plain int)
// is what lets the gauge's callback — invoked from whatever goroutine
// scrapes metrics — read a value an operator's own single-threaded
// scheduling loop writes, without a data race.
type Metrics struct {
	BatchesSealed *metrics.Counter
	FuelApplied   *metrics.Counter
	DeferredQueue *metrics.Gauge
	MergeDuration *metrics.Summary

	deferredDepth atomic.Int64
}

// NewMetrics returns the metrics namespaced under the given
// arrangement/operator name (spec §6: "per-arrange 'name' for logging" —
// the same name doubles as the metric label here). A second call with a
// name already in use gets the already-registered counters, summary and
// gauge; that gauge keeps reading the first Metrics' deferred depth.
func NewMetrics(name string) *Metrics {
	m := &Metrics{
		BatchesSealed: metrics.GetOrCreateCounter(`ddflow_batches_sealed_total{name="` + name + `"}`),
		FuelApplied:   metrics.GetOrCreateCounter(`ddflow_fuel_applied_total{name="` + name + `"}`),
		MergeDuration: metrics.GetOrCreateSummary(`ddflow_merge_seconds{name="` + name + `"}`),
	}
	m.DeferredQueue = metrics.GetOrCreateGauge(`ddflow_deferred_queue_depth{name="`+name+`"}`, func() float64 {
		return float64(m.deferredDepth.Load())
	})
	return m
}

// SetDeferredQueueDepth records the current count of unprocessed
// deferred work items (join/reduce's per-side queues), read by the
// DeferredQueue gauge's callback on next scrape.
func (m *Metrics) SetDeferredQueueDepth(n int) {
	m.deferredDepth.Store(int64(n))
}

// PrometheusRegisterer wraps a prometheus.Registerer, for applications
// embedding ddflow into a codebase that otherwise scrapes via
// client_golang. It only forwards collectors the caller hands it; it
// does not re-expose the VictoriaMetrics default set, so ddflow's own
// counters stay in VictoriaMetrics' metrics package, the
// instrumentation surface components call into directly, following
// erigon-lib's own choice.
type PrometheusRegisterer struct {
	reg prometheus.Registerer
}

func NewPrometheusRegisterer(reg prometheus.Registerer) *PrometheusRegisterer {
	return &PrometheusRegisterer{reg: reg}
}

// RegisterCollector adds a prometheus.Collector (e.g. one built from a
// process or Go-runtime collector) to the wrapped registry. ddflow's
// VictoriaMetrics counters are not added to that registry.
func (p *PrometheusRegisterer) RegisterCollector(c prometheus.Collector) error {
	return p.reg.Register(c)
}
