// Package metrics exposes Prometheus metrics for extractions and gateway
// calls on a private registry.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/leofalp/stylegate/core/client"
	"github.com/leofalp/stylegate/core/cost"
	"github.com/leofalp/stylegate/core/extract"
	"github.com/leofalp/stylegate/internal/utils"
	"github.com/leofalp/stylegate/providers/ai"
)

const namespace = "stylegate"

// Collector owns the registry and every stylegate metric.
type Collector struct {
	registry *prometheus.Registry

	extractionsTotal       *prometheus.CounterVec
	gatewayRequestsTotal   *prometheus.CounterVec
	gatewayRequestDuration *prometheus.HistogramVec
	gatewayTokensTotal     *prometheus.CounterVec
	gatewayCostTotal       *prometheus.CounterVec
}

var _ extract.Observer = (*Collector)(nil)

// NewCollector creates a Collector with its own registry, including the Go
// runtime and process collectors.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	register := func(c prometheus.Collector) { registry.MustRegister(c) }

	c := &Collector{registry: registry}

	c.extractionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extractions_total",
			Help:      "Structured extractions by outcome (parsed or the fallback reason).",
		},
		[]string{"outcome"},
	)

	c.gatewayRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_requests_total",
			Help:      "Model gateway calls by provider and status.",
		},
		[]string{"provider", "status"},
	)

	c.gatewayRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gateway_request_duration_seconds",
			Help:      "Model gateway call duration in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"provider"},
	)

	c.gatewayTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_tokens_total",
			Help:      "Tokens reported by the provider.",
		},
		[]string{"provider", "type"}, // type: prompt, completion
	)

	c.gatewayCostTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_cost_usd_total",
			Help:      "Estimated spend in USD for calls to priced models.",
		},
		[]string{"provider"},
	)

	register(c.extractionsTotal)
	register(c.gatewayRequestsTotal)
	register(c.gatewayRequestDuration)
	register(c.gatewayTokensTotal)
	register(c.gatewayCostTotal)
	register(collectors.NewGoCollector())
	register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return c
}

// Registry returns the private registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveExtraction implements extract.Observer.
func (c *Collector) ObserveExtraction(status extract.Status, reason extract.Reason) {
	outcome := string(status)
	if status == extract.StatusFallback && reason != extract.ReasonNone {
		outcome = string(reason)
	}
	c.extractionsTotal.WithLabelValues(outcome).Inc()
}

// Middleware returns a gateway middleware recording calls made to provider.
// Place it outermost to measure what callers experience, retries included.
// Calls to models found in prices also add to the cost counter; prices may be
// nil.
func (c *Collector) Middleware(provider string, prices cost.PriceTable) client.MiddlewareConfig {
	return client.MiddlewareConfig{
		Name: "metrics",
		Send: func(next client.SendFunc) client.SendFunc {
			return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
				start := time.Now()
				response, err := next(ctx, request)
				c.gatewayRequestDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
				c.gatewayRequestsTotal.WithLabelValues(provider, statusLabel(err)).Inc()

				if err == nil && response != nil && response.Usage != nil {
					c.gatewayTokensTotal.WithLabelValues(provider, "prompt").Add(float64(response.Usage.PromptTokens))
					c.gatewayTokensTotal.WithLabelValues(provider, "completion").Add(float64(response.Usage.CompletionTokens))
					if usd, ok := prices.Estimate(request.Model, response); ok {
						c.gatewayCostTotal.WithLabelValues(provider).Add(usd)
					}
				}
				return response, err
			}
		},
	}
}

// statusLabel maps a gateway error to a low-cardinality label.
func statusLabel(err error) string {
	if err == nil {
		return "ok"
	}

	var statusErr *utils.StatusError
	switch {
	case errors.As(err, &statusErr):
		return strconv.Itoa(statusErr.StatusCode)
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}
