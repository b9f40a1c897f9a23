package bridge

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks bridge delivery and dispatch statistics.
type Metrics struct {
	mu sync.RWMutex

	counts MetricsSnapshot

	// Prometheus collectors
	queuedTotal     prometheus.Counter
	deliveredTotal  *prometheus.CounterVec
	deliveryErrors  prometheus.Counter
	giveUpsTotal    prometheus.Counter
	pendingCurrent  prometheus.Gauge
	flushBatchHist  prometheus.Histogram
	pollAttemptHist prometheus.Histogram
	dispatchTotal   *prometheus.CounterVec

	registerer prometheus.Registerer
	registered bool
}

// MetricsSnapshot provides a point-in-time view of bridge metrics.
type MetricsSnapshot struct {
	CommandsQueued    uint64    `json:"commands_queued"`
	CommandsDelivered uint64    `json:"commands_delivered"`
	DeliveryErrors    uint64    `json:"delivery_errors"`
	GiveUps           uint64    `json:"give_ups"`
	PendingCurrent    uint64    `json:"pending_current"`
	CallbackHits      uint64    `json:"callback_hits"`
	CallbackMisses    uint64    `json:"callback_misses"`
	LastFlushAt       time.Time `json:"last_flush_at,omitempty"`
	LastFlushBatch    int       `json:"last_flush_batch"`
	CollectedAt       time.Time `json:"collected_at"`
}

func newBridgeCounter(subsystem, name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "jsbridge",
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	})
}

func newBridgeCounterVec(subsystem, name, help string, labels []string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jsbridge",
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
		},
		labels,
	)
}

// NewMetrics creates a new bridge metrics collector.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &Metrics{
		registerer:     registerer,
		queuedTotal:    newBridgeCounter("delivery", "queued_total", "Total number of commands enqueued while the host runtime was not ready"),
		deliveredTotal: newBridgeCounterVec("delivery", "delivered_total", "Total number of commands delivered to the transport", []string{"path"}),
		deliveryErrors: newBridgeCounter("delivery", "errors_total", "Total number of per-command delivery failures"),
		giveUpsTotal:   newBridgeCounter("delivery", "give_ups_total", "Total number of times the flusher exhausted its poll budget"),
		pendingCurrent: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "jsbridge",
			Subsystem: "delivery",
			Name:      "pending_current",
			Help:      "Current number of commands waiting for the host runtime",
		}),
		flushBatchHist: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "jsbridge",
			Subsystem: "delivery",
			Name:      "flush_batch_size",
			Help:      "Number of commands drained per flush",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100},
		}),
		pollAttemptHist: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "jsbridge",
			Subsystem: "delivery",
			Name:      "poll_attempts",
			Help:      "Readiness checks the flusher made before draining or giving up",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 150},
		}),
		dispatchTotal: newBridgeCounterVec("dispatch", "invocations_total", "Reverse dispatch attempts by result", []string{"result"}),
	}
}

// Register registers the Prometheus collectors. Safe to call multiple times.
func (m *Metrics) Register() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.registered {
		return nil
	}

	collectors := []prometheus.Collector{
		m.queuedTotal,
		m.deliveredTotal,
		m.deliveryErrors,
		m.giveUpsTotal,
		m.pendingCurrent,
		m.flushBatchHist,
		m.pollAttemptHist,
		m.dispatchTotal,
	}

	for _, c := range collectors {
		if err := m.registerer.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}

	m.registered = true
	return nil
}

// RecordQueued records a command entering the pending queue.
func (m *Metrics) RecordQueued(pending int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.counts.CommandsQueued++
	m.counts.PendingCurrent = uint64(pending)

	m.queuedTotal.Inc()
	m.pendingCurrent.Set(float64(pending))
}

// RecordDelivered records a successful delivery. path is "direct" for sends
// made while the handle was already ready and "flush" for drained commands.
func (m *Metrics) RecordDelivered(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.counts.CommandsDelivered++
	m.deliveredTotal.WithLabelValues(path).Inc()
}

// RecordDeliveryError records a per-command delivery failure.
func (m *Metrics) RecordDeliveryError() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.counts.DeliveryErrors++
	m.deliveryErrors.Inc()
}

// RecordFlush records a drain of the pending queue.
func (m *Metrics) RecordFlush(batch, attempts, pending int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.counts.LastFlushAt = time.Now()
	m.counts.LastFlushBatch = batch
	m.counts.PendingCurrent = uint64(pending)

	m.flushBatchHist.Observe(float64(batch))
	if attempts > 0 {
		m.pollAttemptHist.Observe(float64(attempts))
	}
	m.pendingCurrent.Set(float64(pending))
}

// RecordGiveUp records the flusher exhausting its poll budget.
func (m *Metrics) RecordGiveUp(attempts int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.counts.GiveUps++
	m.giveUpsTotal.Inc()
	m.pollAttemptHist.Observe(float64(attempts))
}

// RecordDispatch records a reverse dispatch attempt.
func (m *Metrics) RecordDispatch(hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hit {
		m.counts.CallbackHits++
		m.dispatchTotal.WithLabelValues("hit").Inc()
	} else {
		m.counts.CallbackMisses++
		m.dispatchTotal.WithLabelValues("miss").Inc()
	}
}

// Snapshot returns a point-in-time copy of the bridge metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := m.counts
	snapshot.CollectedAt = time.Now()
	return snapshot
}

// Reset resets all metrics (useful for testing).
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.counts = MetricsSnapshot{}
	m.deliveredTotal.Reset()
	m.dispatchTotal.Reset()
	m.pendingCurrent.Set(0)
}
