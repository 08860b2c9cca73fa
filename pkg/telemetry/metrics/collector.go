package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/ganymede/pkg/breaker"
	"mercator-hq/ganymede/pkg/config"
)

// Collector owns every Prometheus metric the runtime emits. All recording
// methods are cheap no-ops when metrics are disabled, so call sites never
// guard on configuration themselves.
//
// Metrics:
//   - <ns>_<sub>_requests_total{provider,model,status}
//   - <ns>_<sub>_request_duration_seconds{provider,model}
//   - <ns>_<sub>_attempts_total{provider,model}
//   - <ns>_<sub>_errors_total{provider,kind}
//   - <ns>_<sub>_estimated_tokens_total{provider,model}
//   - <ns>_<sub>_limiter_wait_seconds
//   - <ns>_<sub>_gate_in_flight
//   - <ns>_<sub>_breaker_state{endpoint} (0 closed, 1 half-open, 2 open)
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	attemptsTotal   *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	estimatedTokens *prometheus.CounterVec
	limiterWait     prometheus.Histogram
	gateInFlight    prometheus.Gauge
	breakerState    *prometheus.GaugeVec
}

// NewCollector creates a collector and registers its metrics with the given
// Prometheus registry. A nil registry creates a private one, retrievable
// through Registry for mounting the scrape handler.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}
	if len(cfg.RequestDurationBuckets) == 0 {
		cfg.RequestDurationBuckets = []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0}
	}
	if len(cfg.LimiterWaitBuckets) == 0 {
		cfg.LimiterWaitBuckets = []float64{0.001, 0.01, 0.1, 0.5, 1.0, 5.0, 15.0, 60.0}
	}

	c := &Collector{
		config:   cfg,
		registry: registry,

		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "requests_total",
				Help:      "Total number of chat calls by final status",
			},
			[]string{"provider", "model", "status"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "request_duration_seconds",
				Help:      "End-to-end chat call duration in seconds",
				Buckets:   cfg.RequestDurationBuckets,
			},
			[]string{"provider", "model"},
		),

		attemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "attempts_total",
				Help:      "Total HTTP attempts including retries",
			},
			[]string{"provider", "model"},
		),

		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "errors_total",
				Help:      "Total failed chat calls by error kind",
			},
			[]string{"provider", "kind"},
		),

		estimatedTokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "estimated_tokens_total",
				Help:      "Total estimated prompt tokens admitted",
			},
			[]string{"provider", "model"},
		),

		limiterWait: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "limiter_wait_seconds",
				Help:      "Time spent waiting for rate-limit admission",
				Buckets:   cfg.LimiterWaitBuckets,
			},
		),

		gateInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "gate_in_flight",
				Help:      "Current number of in-flight HTTP attempts",
			},
		),

		breakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "breaker_state",
				Help:      "Circuit state per endpoint: 0 closed, 1 half-open, 2 open",
			},
			[]string{"endpoint"},
		),
	}

	registry.MustRegister(
		c.requestsTotal,
		c.requestDuration,
		c.attemptsTotal,
		c.errorsTotal,
		c.estimatedTokens,
		c.limiterWait,
		c.gateInFlight,
		c.breakerState,
	)

	return c
}

// RecordRequest records a completed chat call. Status is "success" or the
// error kind string.
func (c *Collector) RecordRequest(provider, model, status string, duration time.Duration, attempts, estimatedTokens int) {
	if !c.config.Enabled {
		return
	}

	c.requestsTotal.WithLabelValues(provider, model, status).Inc()
	c.requestDuration.WithLabelValues(provider, model).Observe(duration.Seconds())
	if attempts > 0 {
		c.attemptsTotal.WithLabelValues(provider, model).Add(float64(attempts))
	}
	if estimatedTokens > 0 {
		c.estimatedTokens.WithLabelValues(provider, model).Add(float64(estimatedTokens))
	}
}

// RecordError records a failed chat call by error kind.
func (c *Collector) RecordError(provider, kind string) {
	if !c.config.Enabled {
		return
	}
	c.errorsTotal.WithLabelValues(provider, kind).Inc()
}

// RecordLimiterWait records how long a call waited for rate-limit admission.
func (c *Collector) RecordLimiterWait(wait time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.limiterWait.Observe(wait.Seconds())
}

// GateAcquired and GateReleased track gate occupancy.
func (c *Collector) GateAcquired() {
	if !c.config.Enabled {
		return
	}
	c.gateInFlight.Inc()
}

// GateReleased decrements the occupancy gauge.
func (c *Collector) GateReleased() {
	if !c.config.Enabled {
		return
	}
	c.gateInFlight.Dec()
}

// BreakerStateChanged updates the endpoint's state gauge. Wired as the
// breaker board's onChange callback.
func (c *Collector) BreakerStateChanged(endpoint string, _, to breaker.State) {
	if !c.config.Enabled {
		return
	}
	c.breakerState.WithLabelValues(endpoint).Set(stateValue(to))
}

func stateValue(s breaker.State) float64 {
	switch s {
	case breaker.StateOpen:
		return 2
	case breaker.StateHalfOpen:
		return 1
	default:
		return 0
	}
}

// Registry returns the Prometheus registry backing this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
