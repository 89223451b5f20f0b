package metrics

import (
	"net/http"

	"fitlife-ai/internal/shared"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fitlife"

// Collectors holds the Prometheus instruments of the application. Each
// instance owns its registry so tests can create as many as they need.
type Collectors struct {
	registry *prometheus.Registry

	calls    *prometheus.CounterVec
	tokens   *prometheus.CounterVec
	duration *prometheus.HistogramVec
	requests *prometheus.CounterVec
}

// NewCollectors registers the application collectors plus the Go runtime
// and process collectors on a fresh registry.
func NewCollectors() *Collectors {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Collectors{
		registry: reg,
		calls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "calls_total",
			Help:      "Language model calls by agent and outcome",
		}, []string{"agent", "outcome"}),
		tokens: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "tokens_total",
			Help:      "Tokens consumed by agent and kind",
		}, []string{"agent", "kind"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "call_duration_seconds",
			Help:      "Language model call latency",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
		}, []string{"agent"}),
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code",
		}, []string{"route", "code"}),
	}
}

// ObserveCall records one model call.
func (c *Collectors) ObserveCall(meta shared.AgentMeta, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	c.calls.WithLabelValues(meta.AgentName, outcome).Inc()
	c.tokens.WithLabelValues(meta.AgentName, "prompt").Add(float64(meta.Usage.PromptTokens))
	c.tokens.WithLabelValues(meta.AgentName, "completion").Add(float64(meta.Usage.CompletionTokens))
	if meta.Latency > 0 {
		c.duration.WithLabelValues(meta.AgentName).Observe(meta.Latency.Seconds())
	}
}

// ObserveRequest counts one served HTTP request.
func (c *Collectors) ObserveRequest(route, code string) {
	c.requests.WithLabelValues(route, code).Inc()
}

// RegisterSessionGauge exposes the number of live sessions reported by fn.
func (c *Collectors) RegisterSessionGauge(fn func() float64) {
	promauto.With(c.registry).NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_sessions",
		Help:      "Sessions currently held in memory",
	}, fn)
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collectors) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Registry exposes the underlying registry, mainly for tests.
func (c *Collectors) Registry() *prometheus.Registry {
	return c.registry
}
