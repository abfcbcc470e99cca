package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusMetrics implements the Metrics interface using Prometheus.
type PrometheusMetrics struct {
	registry *prometheus.Registry

	// Block metrics
	blockHeight     prometheus.Gauge
	blocksCommitted prometheus.Counter
	blockSize       prometheus.Gauge

	// Round metrics
	currentRound     *prometheus.GaugeVec
	roundTransitions *prometheus.CounterVec
	roundDuration    *prometheus.HistogramVec

	// Timeout metrics
	timeoutsScheduled *prometheus.CounterVec
	timeoutsFired     *prometheus.CounterVec
	timeoutsCancelled prometheus.Counter
	timeoutsPending   prometheus.Gauge

	// Transaction metrics
	txsAccepted *prometheus.CounterVec
	txsRejected *prometheus.CounterVec
}

// NewPrometheusMetrics creates a new PrometheusMetrics instance.
func NewPrometheusMetrics(namespace string) *PrometheusMetrics {
	registry := prometheus.NewRegistry()

	m := &PrometheusMetrics{
		registry: registry,

		blockHeight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "block_height",
				Help:      "Height of the latest committed application block",
			},
		),
		blocksCommitted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "blocks_committed_total",
				Help:      "Total number of committed application blocks",
			},
		),
		blockSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "block_size_txs",
				Help:      "Number of transactions in the latest committed block",
			},
		),

		currentRound: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "current_round",
				Help:      "Set to 1 for the currently active round",
			},
			[]string{"round_id"},
		),
		roundTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "round_transitions_total",
				Help:      "Total number of round transitions by triggering event",
			},
			[]string{"event"},
		),
		roundDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "round_duration_seconds",
				Help:      "Block-time duration of completed rounds",
				Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
			},
			[]string{"round_id"},
		),

		timeoutsScheduled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "timeouts_scheduled_total",
				Help:      "Total number of scheduled round timeouts by event",
			},
			[]string{"event"},
		),
		timeoutsFired: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "timeouts_fired_total",
				Help:      "Total number of fired round timeouts by event",
			},
			[]string{"event"},
		),
		timeoutsCancelled: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "timeouts_cancelled_total",
				Help:      "Total number of cancelled round timeouts",
			},
		),
		timeoutsPending: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "timeouts_pending",
				Help:      "Number of scheduled timeouts not yet fired or cancelled",
			},
		),

		txsAccepted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "txs_accepted_total",
				Help:      "Total number of accepted transactions by payload type",
			},
			[]string{"tx_type"},
		),
		txsRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "txs_rejected_total",
				Help:      "Total number of rejected transactions by reason",
			},
			[]string{"reason"},
		),
	}

	registry.MustRegister(
		m.blockHeight,
		m.blocksCommitted,
		m.blockSize,
		m.currentRound,
		m.roundTransitions,
		m.roundDuration,
		m.timeoutsScheduled,
		m.timeoutsFired,
		m.timeoutsCancelled,
		m.timeoutsPending,
		m.txsAccepted,
		m.txsRejected,
	)

	return m
}

// Block metrics

func (m *PrometheusMetrics) SetBlockHeight(height int64) {
	m.blockHeight.Set(float64(height))
}

func (m *PrometheusMetrics) IncBlocksCommitted() {
	m.blocksCommitted.Inc()
}

func (m *PrometheusMetrics) SetBlockSize(txs int) {
	m.blockSize.Set(float64(txs))
}

// Round metrics

func (m *PrometheusMetrics) SetCurrentRound(roundID string) {
	m.currentRound.Reset()
	if roundID != "" {
		m.currentRound.WithLabelValues(roundID).Set(1)
	}
}

func (m *PrometheusMetrics) IncRoundTransitions(event string) {
	m.roundTransitions.WithLabelValues(event).Inc()
}

func (m *PrometheusMetrics) ObserveRoundDuration(roundID string, duration time.Duration) {
	m.roundDuration.WithLabelValues(roundID).Observe(duration.Seconds())
}

// Timeout metrics

func (m *PrometheusMetrics) IncTimeoutsScheduled(event string) {
	m.timeoutsScheduled.WithLabelValues(event).Inc()
}

func (m *PrometheusMetrics) IncTimeoutsFired(event string) {
	m.timeoutsFired.WithLabelValues(event).Inc()
}

func (m *PrometheusMetrics) IncTimeoutsCancelled() {
	m.timeoutsCancelled.Inc()
}

func (m *PrometheusMetrics) SetTimeoutsPending(count int) {
	m.timeoutsPending.Set(float64(count))
}

// Transaction metrics

func (m *PrometheusMetrics) IncTxsAccepted(txType string) {
	m.txsAccepted.WithLabelValues(txType).Inc()
}

func (m *PrometheusMetrics) IncTxsRejected(reason string) {
	m.txsRejected.WithLabelValues(reason).Inc()
}

// Handler returns an http.Handler serving the metrics registry.
func (m *PrometheusMetrics) Handler() any {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying Prometheus registry for custom
// collectors.
func (m *PrometheusMetrics) Registry() *prometheus.Registry {
	return m.registry
}
