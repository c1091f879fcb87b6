// Package metrics exports the navigator's Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "navigator"

// Fallback reasons.
const (
	ReasonTimeout     = "timeout"
	ReasonError       = "error"
	ReasonCircuitOpen = "circuit_open"
)

// Metrics holds every collector.
type Metrics struct {
	// HTTP
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Listing and stats
	FallbackTotal *prometheus.CounterVec
	BreakerState  *prometheus.GaugeVec

	// Redirect and clicks
	RedirectsTotal    *prometheus.CounterVec
	ClicksQueued      prometheus.Counter
	ClicksDropped     prometheus.Counter
	ClicksFlushed     prometheus.Counter
	ClickFlushErrors  prometheus.Counter
	ClickBufferLength prometheus.Gauge

	// Submission, admission control and moderation
	SubmissionsTotal  *prometheus.CounterVec
	RateLimitedTotal  *prometheus.CounterVec
	LoginAttempts     *prometheus.CounterVec
	ModerationActions *prometheus.CounterVec
	AuditWriteErrors  prometheus.Counter
}

// Provider owns a registry and the metrics registered on it. A nil
// *Provider is valid and records nothing.
type Provider struct {
	registry *prometheus.Registry
	Metrics  *Metrics
}

// NewProvider registers every metric plus the Go and process collectors on
// a fresh registry.
func NewProvider() *Provider {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Provider{registry: reg, Metrics: initMetrics(promauto.With(reg))}
}

func initMetrics(f promauto.Factory) *Metrics {
	m := &Metrics{}
	initHTTPMetrics(f, m)
	initListingMetrics(f, m)
	initClickMetrics(f, m)
	initAdminMetrics(f, m)
	return m
}

func initHTTPMetrics(f promauto.Factory, m *Metrics) {
	m.RequestsTotal = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	m.RequestDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"method", "route"})
}

func initListingMetrics(f promauto.Factory, m *Metrics) {
	m.FallbackTotal = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fallback_served_total",
		Help:      "Read requests answered from the built-in fallback dataset",
	}, []string{"endpoint", "reason"})

	m.BreakerState = f.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "store_breaker_state",
		Help:      "Store circuit breaker state (0 closed, 1 open, 2 half-open)",
	}, []string{"breaker"})
}

func initClickMetrics(f promauto.Factory, m *Metrics) {
	m.RedirectsTotal = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "redirects_total",
		Help:      "Redirect requests by outcome",
	}, []string{"outcome"})

	m.ClicksQueued = f.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "clicks_queued_total",
		Help:      "Consented clicks accepted into the buffer",
	})

	m.ClicksDropped = f.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "clicks_dropped_total",
		Help:      "Clicks dropped because the buffer was full",
	})

	m.ClicksFlushed = f.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "clicks_flushed_total",
		Help:      "Clicks written to the store",
	})

	m.ClickFlushErrors = f.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "click_flush_errors_total",
		Help:      "Failed click batch writes",
	})

	m.ClickBufferLength = f.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "click_buffer_length",
		Help:      "Clicks waiting to be flushed",
	})
}

func initAdminMetrics(f promauto.Factory, m *Metrics) {
	m.SubmissionsTotal = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "submissions_total",
		Help:      "Public submissions by outcome",
	}, []string{"outcome"})

	m.RateLimitedTotal = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Requests rejected by admission control",
	}, []string{"scope"})

	m.LoginAttempts = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "admin_login_attempts_total",
		Help:      "Admin login attempts by outcome",
	}, []string{"outcome"})

	m.ModerationActions = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "moderation_actions_total",
		Help:      "Moderation mutations by audit action",
	}, []string{"action"})

	m.AuditWriteErrors = f.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_write_errors_total",
		Help:      "Audit log writes that failed and were swallowed",
	})
}

// Handler serves the registry in the Prometheus text format.
func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

// Registry exposes the underlying registry.
func (p *Provider) Registry() *prometheus.Registry {
	return p.registry
}

// Middleware records request count and latency per matched route.
func (p *Provider) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if p == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		p.Metrics.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		p.Metrics.RequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// RecordFallback counts a degraded read.
func (p *Provider) RecordFallback(endpoint, reason string) {
	if p == nil {
		return
	}
	p.Metrics.FallbackTotal.WithLabelValues(endpoint, reason).Inc()
}

// SetBreakerState publishes a breaker state as a number.
func (p *Provider) SetBreakerState(name string, state int) {
	if p == nil {
		return
	}
	p.Metrics.BreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordRedirect counts a redirect outcome.
func (p *Provider) RecordRedirect(outcome string) {
	if p == nil {
		return
	}
	p.Metrics.RedirectsTotal.WithLabelValues(outcome).Inc()
}

func (p *Provider) RecordClickQueued() {
	if p == nil {
		return
	}
	p.Metrics.ClicksQueued.Inc()
}

func (p *Provider) RecordClickDropped() {
	if p == nil {
		return
	}
	p.Metrics.ClicksDropped.Inc()
}

// RecordClickFlush counts a batch write.
func (p *Provider) RecordClickFlush(n int, err error) {
	if p == nil {
		return
	}
	if err != nil {
		p.Metrics.ClickFlushErrors.Inc()
		return
	}
	p.Metrics.ClicksFlushed.Add(float64(n))
}

func (p *Provider) SetClickBufferLength(n int) {
	if p == nil {
		return
	}
	p.Metrics.ClickBufferLength.Set(float64(n))
}

func (p *Provider) RecordSubmission(outcome string) {
	if p == nil {
		return
	}
	p.Metrics.SubmissionsTotal.WithLabelValues(outcome).Inc()
}

func (p *Provider) RecordRateLimited(scope string) {
	if p == nil {
		return
	}
	p.Metrics.RateLimitedTotal.WithLabelValues(scope).Inc()
}

func (p *Provider) RecordLogin(outcome string) {
	if p == nil {
		return
	}
	p.Metrics.LoginAttempts.WithLabelValues(outcome).Inc()
}

func (p *Provider) RecordModeration(action string) {
	if p == nil {
		return
	}
	p.Metrics.ModerationActions.WithLabelValues(action).Inc()
}

func (p *Provider) RecordAuditWriteError() {
	if p == nil {
		return
	}
	p.Metrics.AuditWriteErrors.Inc()
}
