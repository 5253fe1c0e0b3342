package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusRecorder implements the Recorder interface using Prometheus metrics.
type PrometheusRecorder struct {
	requestsTotal   *prometheus.CounterVec
	tokensTotal     *prometheus.CounterVec
	costsTotal      *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	probesTotal     *prometheus.CounterVec
	probeDuration   prometheus.Histogram
}

// NewPrometheusRecorder creates a new Prometheus-based metrics recorder registered with reg.
// Pass prometheus.DefaultRegisterer to expose metrics on the default /metrics handler.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	factory := promauto.With(reg)
	return &PrometheusRecorder{
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_requests_total",
				Help: "Total number of LLM requests by model, agent, state, and status",
			},
			[]string{"model", "agent_id", "state", "status", "error_type"},
		),
		tokensTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_tokens_total",
				Help: "Total number of tokens used in LLM requests",
			},
			[]string{"model", "agent_id", "type"},
		),
		costsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_costs_total",
				Help: "Total cost in USD for LLM requests",
			},
			[]string{"model", "agent_id"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "llm_request_duration_seconds",
				Help:    "Duration of LLM requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"model", "state"},
		),
		probesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resource_probes_total",
				Help: "Total number of URL probes by outcome",
			},
			[]string{"outcome"},
		),
		probeDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "resource_probe_duration_seconds",
				Help:    "Duration of URL probes in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
		),
	}
}

// ObserveRequest records metrics for a completed LLM request.
func (p *PrometheusRecorder) ObserveRequest(req Request) {
	status := statusSuccess
	if !req.Success {
		status = statusError
	}

	p.requestsTotal.WithLabelValues(req.Model, req.AgentID, req.State, status, req.ErrorType).Inc()

	// Tokens and costs only on success
	if req.Success {
		p.tokensTotal.WithLabelValues(req.Model, req.AgentID, "prompt").Add(float64(req.PromptTokens))
		p.tokensTotal.WithLabelValues(req.Model, req.AgentID, "completion").Add(float64(req.CompletionTokens))
		p.costsTotal.WithLabelValues(req.Model, req.AgentID).Add(req.Cost)
	}

	p.requestDuration.WithLabelValues(req.Model, req.State).Observe(req.Duration.Seconds())
}

// ObserveProbe records the outcome of one URL probe.
func (p *PrometheusRecorder) ObserveProbe(outcome string, duration time.Duration) {
	p.probesTotal.WithLabelValues(outcome).Inc()
	p.probeDuration.Observe(duration.Seconds())
}
