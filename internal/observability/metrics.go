// Package observability exports relay activity as Prometheus metrics.
package observability

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"fetchrelay/internal/core"
	"fetchrelay/internal/relay"
)

const namespace = "relay"

// Metrics holds the relay's collectors.
type Metrics struct {
	FetchTotal      *prometheus.CounterVec
	FetchBytes      prometheus.Histogram
	UploadTotal     *prometheus.CounterVec
	RunsStarted     prometheus.Counter
	RequestDuration *prometheus.HistogramVec
}

var (
	once   sync.Once
	global *Metrics
)

// Global returns the process-wide metrics, registered with the default registry.
func Global() *Metrics {
	once.Do(func() {
		global = NewMetrics(prometheus.DefaultRegisterer)
	})
	return global
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_total",
			Help:      "Total outbound fetches by outcome",
		}, []string{"outcome"}),
		FetchBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_bytes",
			Help:      "Size of successfully fetched resources",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 10),
		}),
		UploadTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_total",
			Help:      "Total uploads to OpenAI by outcome",
		}, []string{"outcome"}),
		RunsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_started_total",
			Help:      "Total assistant runs started after an upload",
		}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
	}
	reg.MustRegister(m.FetchTotal, m.FetchBytes, m.UploadTotal, m.RunsStarted, m.RequestDuration)
	return m
}

// Hooks returns relay hooks that record into m.
func (m *Metrics) Hooks() relay.Hooks {
	return relay.Hooks{
		OnFetch: func(_ context.Context, info relay.FetchInfo) {
			m.FetchTotal.WithLabelValues(Outcome(info.Err)).Inc()
			if info.Err == nil {
				m.FetchBytes.Observe(float64(info.SizeBytes))
			}
		},
		OnUpload: func(_ context.Context, info relay.UploadInfo) {
			m.UploadTotal.WithLabelValues(Outcome(info.Err)).Inc()
			if info.RunStarted {
				m.RunsStarted.Inc()
			}
		},
	}
}

// Middleware records request latency per route.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				var relayErr *core.RelayError
				var httpErr *echo.HTTPError
				switch {
				case errors.As(err, &relayErr):
					status = relayErr.HTTPStatusCode()
				case errors.As(err, &httpErr):
					status = httpErr.Code
				default:
					status = http.StatusInternalServerError
				}
			}

			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			m.RequestDuration.WithLabelValues(c.Request().Method, path, strconv.Itoa(status)).
				Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Outcome labels an error by its relay error type, or "success".
func Outcome(err error) string {
	if err == nil {
		return "success"
	}
	var relayErr *core.RelayError
	if errors.As(err, &relayErr) {
		return string(relayErr.Type)
	}
	return "internal_error"
}
