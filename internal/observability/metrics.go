package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// EngineCollector bundles Prometheus metrics for the simulation engine
// and the HTTP surface, and provides a ready-made /metrics handler.
type EngineCollector struct {
	gatherer prometheus.Gatherer

	Runs           *prometheus.CounterVec
	RunDurations   *prometheus.HistogramVec
	StepsEvaluated prometheus.Counter
	ContactRatio   prometheus.Gauge
	ActiveRuns     prometheus.Gauge

	HTTPRequests  *prometheus.CounterVec
	HTTPDurations *prometheus.HistogramVec
}

// NewEngineCollector registers the engine metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewEngineCollector(reg prometheus.Registerer) (*EngineCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sim_runs_total",
		Help: "Completed simulation runs, labeled by beacon mode and outcome.",
	}, []string{"mode", "outcome"})
	runs, err := registerCounterVec(reg, runs, "sim_runs_total")
	if err != nil {
		return nil, err
	}

	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sim_run_duration_seconds",
		Help:    "Wall-clock duration of simulation runs in seconds.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
	}, []string{"mode"})
	durations, err = registerHistogramVec(reg, durations, "sim_run_duration_seconds")
	if err != nil {
		return nil, err
	}

	steps, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sim_steps_evaluated_total",
		Help: "Total member-steps evaluated across all runs.",
	}), "sim_steps_evaluated_total")
	if err != nil {
		return nil, err
	}
	ratio, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_contact_ratio",
		Help: "Contact steps over total steps for the most recent run's primary.",
	}), "sim_contact_ratio")
	if err != nil {
		return nil, err
	}
	active, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_active_runs",
		Help: "Runs currently executing or queued.",
	}), "sim_active_runs")
	if err != nil {
		return nil, err
	}

	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Handled HTTP requests, labeled by handler, method, and status code.",
	}, []string{"handler", "method", "code"})
	httpRequests, err = registerCounterVec(reg, httpRequests, "http_requests_total")
	if err != nil {
		return nil, err
	}

	httpDurations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"handler"})
	httpDurations, err = registerHistogramVec(reg, httpDurations, "http_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &EngineCollector{
		gatherer:       gatherer,
		Runs:           runs,
		RunDurations:   durations,
		StepsEvaluated: steps,
		ContactRatio:   ratio,
		ActiveRuns:     active,
		HTTPRequests:   httpRequests,
		HTTPDurations:  httpDurations,
	}, nil
}

// ObserveRunStart marks a run as active.
func (c *EngineCollector) ObserveRunStart() {
	if c == nil || c.ActiveRuns == nil {
		return
	}
	c.ActiveRuns.Inc()
}

// ObserveRunEnd records a finished run under the given beacon mode and
// outcome ("ok", "error", or "cancelled").
func (c *EngineCollector) ObserveRunEnd(mode, outcome string, duration time.Duration) {
	if c == nil {
		return
	}
	if c.ActiveRuns != nil {
		c.ActiveRuns.Dec()
	}
	if c.Runs != nil {
		c.Runs.WithLabelValues(mode, outcome).Inc()
	}
	if c.RunDurations != nil {
		c.RunDurations.WithLabelValues(mode).Observe(duration.Seconds())
	}
}

// AddStepsEvaluated accumulates member-steps from a completed run.
func (c *EngineCollector) AddStepsEvaluated(n int) {
	if c == nil || c.StepsEvaluated == nil || n <= 0 {
		return
	}
	c.StepsEvaluated.Add(float64(n))
}

// SetContactRatio publishes the primary contact ratio of the most
// recent run.
func (c *EngineCollector) SetContactRatio(r float64) {
	if c == nil || c.ContactRatio == nil {
		return
	}
	c.ContactRatio.Set(r)
}

// ObserveHTTP records one handled HTTP request.
func (c *EngineCollector) ObserveHTTP(handler, method, code string, duration time.Duration) {
	if c == nil {
		return
	}
	if c.HTTPRequests != nil {
		c.HTTPRequests.WithLabelValues(handler, method, code).Inc()
	}
	if c.HTTPDurations != nil {
		c.HTTPDurations.WithLabelValues(handler).Observe(duration.Seconds())
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *EngineCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
