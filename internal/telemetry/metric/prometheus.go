package metric

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "vftledger"

// Operation results used as the "result" label.
const (
	ResultOK     = "ok"
	ResultNoop   = "noop"
	ResultFailed = "failed"
)

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	// Ledger operations
	OpsTotal    *prometheus.CounterVec
	OpDuration  *prometheus.HistogramVec
	EventsTotal *prometheus.CounterVec

	// Shard growth
	ShardsAllocated *prometheus.CounterVec
	GrowthTicks     prometheus.Counter

	// Persistence
	SavesTotal        *prometheus.CounterVec
	SnapshotsTotal    prometheus.Counter
	SnapshotWriteTime prometheus.Histogram
}

// NewRegistry creates a registry with Go and process collectors attached.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{
		registry: reg,
		OpsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "operations_total",
			Help:      "Ledger operations by name and result",
		}, []string{"op", "result"}),
		OpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "operation_duration_seconds",
			Help:      "Ledger operation latency",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05},
		}, []string{"op"}),
		EventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "events_total",
			Help:      "Transfer and Approval events emitted",
		}, []string{"event"}),
		ShardsAllocated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "shards_allocated_total",
			Help:      "Shards allocated by the growth worker or operators",
		}, []string{"ledger"}),
		GrowthTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "growth",
			Name:      "ticks_total",
			Help:      "Growth worker evaluations",
		}),
		SavesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "store",
			Name:      "saves_total",
			Help:      "Ledger state saves by result",
		}, []string{"result"}),
		SnapshotsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "snapshot",
			Name:      "created_total",
			Help:      "Snapshot files written",
		}),
		SnapshotWriteTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "snapshot",
			Name:      "write_duration_seconds",
			Help:      "Time spent writing a snapshot file",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		r.OpsTotal,
		r.OpDuration,
		r.EventsTotal,
		r.ShardsAllocated,
		r.GrowthTicks,
		r.SavesTotal,
		r.SnapshotsTotal,
		r.SnapshotWriteTime,
	)
	return r
}

// Handler returns the /metrics handler for r.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Prometheus exposes the underlying registry so other components (the
// Badger engine, the ledger collector) can register their own metrics.
func (r *Registry) Prometheus() *prometheus.Registry {
	return r.registry
}

// ObserveOp records one completed ledger operation.
func (r *Registry) ObserveOp(op, result string, d time.Duration) {
	r.OpsTotal.WithLabelValues(op, result).Inc()
	r.OpDuration.WithLabelValues(op).Observe(d.Seconds())
}

// RecordEvent counts an emitted ledger event.
func (r *Registry) RecordEvent(name string) {
	r.EventsTotal.WithLabelValues(name).Inc()
}

// RecordShardAllocated counts a shard allocation on the named ledger.
func (r *Registry) RecordShardAllocated(ledger string) {
	r.ShardsAllocated.WithLabelValues(ledger).Inc()
}

// RecordSave counts a state save.
func (r *Registry) RecordSave(err error) {
	result := ResultOK
	if err != nil {
		result = ResultFailed
	}
	r.SavesTotal.WithLabelValues(result).Inc()
}

// ObserveSnapshot records a snapshot write.
func (r *Registry) ObserveSnapshot(d time.Duration) {
	r.SnapshotsTotal.Inc()
	r.SnapshotWriteTime.Observe(d.Seconds())
}
