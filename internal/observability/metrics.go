// Package observability records Prometheus metrics for vendor round-trips.
package observability

import (
	"context"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"llmconnector/internal/llmclient"
)

var (
	// RequestsTotal counts vendor calls by provider, model and outcome.
	// status is the HTTP status code, or "error" when no response arrived.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llmconnector_requests_total",
			Help: "Total number of requests sent to LLM providers",
		},
		[]string{"provider", "model", "status"},
	)

	// RequestDuration observes vendor call latency.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llmconnector_request_duration_seconds",
			Help:    "Duration of requests sent to LLM providers",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"provider", "model"},
	)
)

// OtherModel labels requests for models outside the allowed set.
const OtherModel = "other"

// NewPrometheusHooks returns hooks that feed RequestsTotal and RequestDuration.
// The model label is limited to allowedModels and every other model is
// recorded as OtherModel, so callers choosing a model per request cannot
// grow the series count. No allowedModels keeps the model as reported.
func NewPrometheusHooks(allowedModels ...string) llmclient.Hooks {
	allowed := make(map[string]struct{}, len(allowedModels))
	for _, m := range allowedModels {
		allowed[m] = struct{}{}
	}
	modelLabel := func(model string) string {
		if len(allowed) == 0 {
			return model
		}
		if _, ok := allowed[model]; ok {
			return model
		}
		return OtherModel
	}

	return llmclient.Hooks{
		OnRequestEnd: func(ctx context.Context, info llmclient.ResponseInfo) {
			status := "error"
			if info.StatusCode > 0 {
				status = strconv.Itoa(info.StatusCode)
			}
			model := modelLabel(info.Model)
			RequestsTotal.WithLabelValues(info.Provider, model, status).Inc()
			RequestDuration.WithLabelValues(info.Provider, model).Observe(info.Duration.Seconds())
		},
	}
}

// ResetMetrics clears every recorded series. Intended for tests.
func ResetMetrics() {
	RequestsTotal.Reset()
	RequestDuration.Reset()
}
