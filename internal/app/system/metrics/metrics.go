// Package metrics holds the Prometheus instruments for dispatch operations.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name.
const Namespace = "guardian"

// Operation results.
const (
	ResultOK      = "ok"
	ResultError   = "error"
	ResultPartial = "partial"
)

// Dispatch records coordinator activity. A nil *Dispatch is valid and
// records nothing.
type Dispatch struct {
	operations      *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	conflicts       *prometheus.CounterVec
	publishFailures *prometheus.CounterVec
	bulkItems       *prometheus.CounterVec
	reconciled      *prometheus.CounterVec
}

// NewDispatch creates and registers the dispatch instruments on reg
// (prometheus.DefaultRegisterer if nil).
func NewDispatch(reg prometheus.Registerer) *Dispatch {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	d := &Dispatch{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "dispatch",
			Name:      "operations_total",
			Help:      "Coordinator operations by name and result (ok, error, partial).",
		}, []string{"op", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "dispatch",
			Name:      "operation_duration_seconds",
			Help:      "Latency of coordinator operations in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms .. ~2.5s
		}, []string{"op"}),
		conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "dispatch",
			Name:      "version_conflicts_total",
			Help:      "Optimistic concurrency conflicts by aggregate (officer, incident).",
		}, []string{"aggregate"}),
		publishFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "events",
			Name:      "publish_failures_total",
			Help:      "Events that did not reach every sink, by event name.",
		}, []string{"event"}),
		bulkItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "dispatch",
			Name:      "bulk_items_total",
			Help:      "Bulk assignment items by outcome (assigned, skipped, failed).",
		}, []string{"outcome"}),
		reconciled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "dispatch",
			Name:      "reconciled_summaries_total",
			Help:      "Incident summaries repaired by reconciliation, by change (added, removed).",
		}, []string{"change"}),
	}

	reg.MustRegister(d.operations, d.duration, d.conflicts, d.publishFailures, d.bulkItems, d.reconciled)
	return d
}

// Observe records one finished operation.
func (d *Dispatch) Observe(op, result string, elapsed time.Duration) {
	if d == nil {
		return
	}
	d.operations.WithLabelValues(op, result).Inc()
	d.duration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// VersionConflict counts a retried conditional write.
func (d *Dispatch) VersionConflict(aggregate string) {
	if d == nil {
		return
	}
	d.conflicts.WithLabelValues(aggregate).Inc()
}

// PublishFailure counts an event whose delivery failed.
func (d *Dispatch) PublishFailure(event string) {
	if d == nil {
		return
	}
	d.publishFailures.WithLabelValues(event).Inc()
}

// BulkItem counts one bulk assignment item by outcome.
func (d *Dispatch) BulkItem(outcome string) {
	if d == nil {
		return
	}
	d.bulkItems.WithLabelValues(outcome).Inc()
}

// Reconciled counts summaries added and removed by reconciliation.
func (d *Dispatch) Reconciled(added, removed int) {
	if d == nil {
		return
	}
	if added > 0 {
		d.reconciled.WithLabelValues("added").Add(float64(added))
	}
	if removed > 0 {
		d.reconciled.WithLabelValues("removed").Add(float64(removed))
	}
}

// BusStats is the view of the event bus exported as gauges.
type BusStats interface {
	Subscribers() int
	Dropped() uint64
	Published() uint64
}

// RegisterBus exports bus counters read at scrape time.
func RegisterBus(reg prometheus.Registerer, bus BusStats) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "events",
			Name:      "subscribers",
			Help:      "Current number of in-process event subscribers.",
		}, func() float64 { return float64(bus.Subscribers()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "events",
			Name:      "subscriber_drops_total",
			Help:      "Deliveries skipped because a subscriber buffer was full.",
		}, func() float64 { return float64(bus.Dropped()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Events accepted by the bus.",
		}, func() float64 { return float64(bus.Published()) }),
	)
}
