// Package metrics collects the simulator's operational counters on a
// dedicated Prometheus registry. Per-batch counters are labeled by batch
// number; run-level figures are gauges updated by the orchestrator.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics owns the registry and all collectors of one simulation run.
type Metrics struct {
	registry *prometheus.Registry

	eventsEmitted     *prometheus.CounterVec
	transfersExecuted *prometheus.CounterVec
	mortalityTotal    *prometheus.CounterVec
	feedConsumedKg    *prometheus.CounterVec

	batchesCompleted prometheus.Gauge
	batchesFailed    prometheus.Gauge
	wallSeconds      prometheus.Gauge
	workersBusy      prometheus.Gauge
	peakOccupancy    prometheus.Gauge

	mu   sync.Mutex
	busy int
	peak int
}

// New creates a metrics set on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		eventsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aquasim_events_emitted_total",
			Help: "Events emitted into the stream, per batch.",
		}, []string{"batch"}),
		transfersExecuted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aquasim_transfers_executed_total",
			Help: "Completed transfer actions, per batch.",
		}, []string{"batch"}),
		mortalityTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aquasim_mortality_total",
			Help: "Cumulative fish deaths, per batch.",
		}, []string{"batch"}),
		feedConsumedKg: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aquasim_feed_consumed_kg_total",
			Help: "Feed consumed in kilograms, per batch.",
		}, []string{"batch"}),
		batchesCompleted: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "aquasim_batches_completed",
			Help: "Batches that reached COMPLETED in this run.",
		}),
		batchesFailed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "aquasim_batches_failed",
			Help: "Batches that ended TERMINATED in this run.",
		}),
		wallSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "aquasim_run_wall_seconds",
			Help: "Wall-clock duration of the orchestrator run.",
		}),
		workersBusy: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "aquasim_workers_busy",
			Help: "Workers currently executing a batch.",
		}),
		peakOccupancy: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "aquasim_peak_worker_occupancy",
			Help: "Highest simultaneous worker count observed.",
		}),
	}
	m.registry.MustRegister(
		m.eventsEmitted, m.transfersExecuted, m.mortalityTotal, m.feedConsumedKg,
		m.batchesCompleted, m.batchesFailed, m.wallSeconds, m.workersBusy, m.peakOccupancy,
	)
	return m
}

// Registry exposes the backing registry for scrape handlers.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// AddEvents counts emitted events for a batch.
func (m *Metrics) AddEvents(batch string, n int) {
	m.eventsEmitted.WithLabelValues(batch).Add(float64(n))
}

// TransferExecuted counts one completed transfer action.
func (m *Metrics) TransferExecuted(batch string) {
	m.transfersExecuted.WithLabelValues(batch).Inc()
}

// AddMortality counts fish deaths for a batch.
func (m *Metrics) AddMortality(batch string, n int) {
	m.mortalityTotal.WithLabelValues(batch).Add(float64(n))
}

// AddFeedKg counts consumed feed for a batch.
func (m *Metrics) AddFeedKg(batch string, kg float64) {
	m.feedConsumedKg.WithLabelValues(batch).Add(kg)
}

// BatchCompleted records one batch finishing its full lifecycle.
func (m *Metrics) BatchCompleted() { m.batchesCompleted.Inc() }

// BatchFailed records one terminated batch.
func (m *Metrics) BatchFailed() { m.batchesFailed.Inc() }

// SetWallSeconds records the run duration.
func (m *Metrics) SetWallSeconds(s float64) { m.wallSeconds.Set(s) }

// WorkerStarted marks a worker picking up a batch and tracks the peak.
func (m *Metrics) WorkerStarted() {
	m.mu.Lock()
	m.busy++
	if m.busy > m.peak {
		m.peak = m.busy
		m.peakOccupancy.Set(float64(m.peak))
	}
	m.mu.Unlock()
	m.workersBusy.Inc()
}

// WorkerDone marks a worker returning its slot.
func (m *Metrics) WorkerDone() {
	m.mu.Lock()
	m.busy--
	m.mu.Unlock()
	m.workersBusy.Dec()
}

// Snapshot sums every metric across labels, keyed by metric name. The run
// summary report renders from this.
func (m *Metrics) Snapshot() (map[string]float64, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(families))
	for _, mf := range families {
		total := 0.0
		for _, metric := range mf.GetMetric() {
			if c := metric.GetCounter(); c != nil {
				total += c.GetValue()
			}
			if g := metric.GetGauge(); g != nil {
				total += g.GetValue()
			}
		}
		out[mf.GetName()] = total
	}
	return out, nil
}
