package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

type Metrics struct {
	HTTPRequests   metric.Int64Counter
	HTTPDuration   metric.Float64Histogram
	RepoOps        metric.Int64Counter
	RepoDuration   metric.Float64Histogram
	ActiveSessions metric.Int64UpDownCounter
}

// Setup exports through the default Prometheus registry and installs the global meter provider
func Setup(serviceName string) (*Metrics, http.Handler, error) {
	m, provider, err := build(serviceName, prometheus.DefaultRegisterer)
	if err != nil {
		return nil, nil, err
	}
	otel.SetMeterProvider(provider)
	return m, promhttp.Handler(), nil
}

// NewWithRegistry exports through reg only, leaving global state untouched
func NewWithRegistry(serviceName string, reg *prometheus.Registry) (*Metrics, http.Handler, error) {
	m, _, err := build(serviceName, reg)
	if err != nil {
		return nil, nil, err
	}
	return m, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), nil
}

func build(serviceName string, reg prometheus.Registerer) (*Metrics, *sdkmetric.MeterProvider, error) {
	exporter, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return nil, nil, err
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	meter := provider.Meter(serviceName)

	m := &Metrics{}

	m.HTTPRequests, err = meter.Int64Counter(
		"georef_http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.HTTPDuration, err = meter.Float64Histogram(
		"georef_http_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.RepoOps, err = meter.Int64Counter(
		"georef_repository_operations_total",
		metric.WithDescription("Total number of repository operations"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.RepoDuration, err = meter.Float64Histogram(
		"georef_repository_duration_seconds",
		metric.WithDescription("Repository operation duration in seconds"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.ActiveSessions, err = meter.Int64UpDownCounter(
		"georef_db_sessions_active",
		metric.WithDescription("Number of open per-request database sessions"),
	)
	if err != nil {
		return nil, nil, err
	}

	return m, provider, nil
}

func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, status int, duration time.Duration) {
	labels := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("path", path),
		attribute.Int("status", status),
	)

	m.HTTPRequests.Add(ctx, 1, labels)
	m.HTTPDuration.Record(ctx, duration.Seconds(), labels)
}

func (m *Metrics) RecordRepositoryOp(ctx context.Context, table, op string, success bool, duration time.Duration) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	labels := metric.WithAttributes(
		attribute.String("table", table),
		attribute.String("operation", op),
		attribute.String("outcome", outcome),
	)

	m.RepoOps.Add(ctx, 1, labels)
	m.RepoDuration.Record(ctx, duration.Seconds(), labels)
}

func (m *Metrics) SessionOpened(ctx context.Context) {
	m.ActiveSessions.Add(ctx, 1)
}

func (m *Metrics) SessionClosed(ctx context.Context) {
	m.ActiveSessions.Add(ctx, -1)
}
