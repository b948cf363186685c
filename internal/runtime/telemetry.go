package runtime

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/typeless-app/typeless-core/internal/config"
)

// setupTelemetry installs the global tracer and meter providers and
// returns a combined shutdown plus the handler serving /metrics. Traces
// go to OTLP when an endpoint is configured, stdout otherwise; metrics
// are always exposed through the Prometheus exporter.
func setupTelemetry(cfg config.Config, logger *slog.Logger) (func(context.Context) error, http.Handler, error) {
	ctx := context.Background()
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.RuntimeName),
			attribute.String("deployment.environment", cfg.Environment),
		),
	)
	if err != nil {
		return nil, nil, err
	}

	tracerProvider, err := newTracerProvider(ctx, cfg.Telemetry, res, logger)
	if err != nil {
		return nil, nil, err
	}
	otel.SetTracerProvider(tracerProvider)

	meterProvider, metricHandler := newMeterProvider(res, logger)
	otel.SetMeterProvider(meterProvider)

	shutdown := func(ctx context.Context) error {
		return errors.Join(
			meterProvider.Shutdown(ctx),
			tracerProvider.Shutdown(ctx),
		)
	}
	return shutdown, metricHandler, nil
}

func newTracerProvider(ctx context.Context, cfg config.TelemetryConfig, res *resource.Resource, logger *slog.Logger) (*sdktrace.TracerProvider, error) {
	var exporter sdktrace.SpanExporter
	var err error

	if endpoint := strings.TrimSpace(cfg.OTLPEndpoint); endpoint != "" {
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(endpoint)}
		if cfg.OTLPInsecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		if exporter, err = otlptracegrpc.New(ctx, opts...); err != nil {
			return nil, err
		}
		logger.Info("trace exporter initialized", slog.String("exporter", "otlp"), slog.String("endpoint", endpoint))
	} else {
		if exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint()); err != nil {
			return nil, err
		}
		logger.Info("trace exporter initialized", slog.String("exporter", "stdout"))
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	), nil
}

func newMeterProvider(res *resource.Resource, logger *slog.Logger) (*sdkmetric.MeterProvider, http.Handler) {
	options := []sdkmetric.Option{sdkmetric.WithResource(res)}
	options = append(options, latencyViews()...)

	promExporter, err := prometheus.New()
	if err != nil {
		// Metrics stay registered but unexported; the daemon still runs.
		logger.Warn("failed to initialize prometheus exporter", slog.String("error", err.Error()))
		return sdkmetric.NewMeterProvider(options...), nil
	}
	options = append(options, sdkmetric.WithReader(promExporter))
	return sdkmetric.NewMeterProvider(options...), promhttp.Handler()
}

// latencyViews pins histogram boundaries for the pipeline instruments.
// Transcription and refinement are network calls in the hundreds of
// milliseconds; a session spans the whole press-to-result dictation.
func latencyViews() []sdkmetric.Option {
	callBuckets := []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10}
	sessionBuckets := []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120}

	views := make([]sdkmetric.Option, 0, 3)
	for _, name := range []string{"typeless.stt.latency", "typeless.refine.latency"} {
		views = append(views, sdkmetric.WithView(sdkmetric.NewView(
			sdkmetric.Instrument{Name: name},
			sdkmetric.Stream{Aggregation: sdkmetric.AggregationExplicitBucketHistogram{
				Boundaries: callBuckets,
			}},
		)))
	}
	views = append(views, sdkmetric.WithView(sdkmetric.NewView(
		sdkmetric.Instrument{Name: "typeless.session.duration"},
		sdkmetric.Stream{Aggregation: sdkmetric.AggregationExplicitBucketHistogram{
			Boundaries: sessionBuckets,
		}},
	)))
	return views
}
