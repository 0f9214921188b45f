package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"stakehouse/core/events"
	"stakehouse/core/types"
)

type poolMetrics struct {
	operations *prometheus.CounterVec
	totals     *prometheus.GaugeVec
}

var (
	poolMetricsOnce sync.Once
	poolRegistry    *poolMetrics
)

// Pools returns the lazily-initialised metrics registry tracking pool
// operations.
func Pools() *poolMetrics {
	poolMetricsOnce.Do(func() {
		poolRegistry = &poolMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "stakehouse",
				Subsystem: "pool",
				Name:      "operations_total",
				Help:      "Count of pool operations segmented by pool and event type.",
			}, []string{"pool", "type"}),
			totals: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "stakehouse",
				Subsystem: "pool",
				Name:      "total_stake",
				Help:      "Last reported total stake per pool.",
			}, []string{"pool"}),
		}
		prometheus.MustRegister(poolRegistry.operations, poolRegistry.totals)
	})
	return poolRegistry
}

// RecordOperation increments the operation counter for a pool and event type.
func (m *poolMetrics) RecordOperation(pool, eventType string) {
	if m == nil {
		return
	}
	if pool == "" {
		pool = "unknown"
	}
	if eventType == "" {
		eventType = "unknown"
	}
	m.operations.WithLabelValues(pool, eventType).Inc()
}

// SetTotalStake records the current total stake for a pool.
func (m *poolMetrics) SetTotalStake(pool string, total float64) {
	if m == nil {
		return
	}
	if pool == "" {
		pool = "unknown"
	}
	m.totals.WithLabelValues(pool).Set(total)
}

// payloadEvent is implemented by events carrying structured attributes.
type payloadEvent interface {
	Event() *types.Event
}

// MetricsEmitter counts every emitted event in the pool metrics registry and
// forwards it to an optional downstream emitter.
type MetricsEmitter struct {
	next events.Emitter
}

// NewMetricsEmitter wraps next with metric recording. A nil next discards
// events after counting.
func NewMetricsEmitter(next events.Emitter) *MetricsEmitter {
	if next == nil {
		next = events.NoopEmitter{}
	}
	return &MetricsEmitter{next: next}
}

// Emit implements the events.Emitter interface.
func (m *MetricsEmitter) Emit(evt events.Event) {
	if m == nil || evt == nil {
		return
	}
	pool := ""
	if payload, ok := evt.(payloadEvent); ok {
		if e := payload.Event(); e != nil {
			pool = e.Attributes["pool"]
		}
	}
	Pools().RecordOperation(pool, evt.EventType())
	m.next.Emit(evt)
}
