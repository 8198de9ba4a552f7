package observability

import (
	"context"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"

	"soundprint-mockup/logger"
)

// DefaultServiceName names spans and the OTel resource when none is configured.
const DefaultServiceName = "soundprint-mockup"

// TracingConfig selects where spans go.
type TracingConfig struct {
	Enabled     bool
	ServiceName string
	Environment string
	Version     string
	// Endpoint is an OTLP/HTTP collector host:port. Empty writes spans to stdout.
	Endpoint    string
	Insecure    bool
	SampleRatio float64
}

// InitTracing installs the global tracer provider and propagators. It returns the provider's
// shutdown, which flushes pending spans. When tracing is disabled the global no-op provider is
// left in place and the returned shutdown does nothing.
func InitTracing(ctx context.Context, log *logger.Logger, cfg TracingConfig) func(context.Context) error {
	log = logger.OrNop(log)
	if !cfg.Enabled {
		return func(context.Context) error { return nil }
	}

	exporter, err := newExporter(ctx, cfg, os.Stdout)
	if err != nil {
		// Tracing never blocks startup
		log.Warn("⚠️ OTel exporter init failed, spans are dropped", "error", err)
	} else if cfg.Endpoint == "" {
		log.Warn("⚠️ OTel using stdout exporter (no OTLP endpoint configured)")
	}

	tp := NewTracerProvider(ctx, log, cfg, exporter)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log.Info("✓ OTel tracing initialized", "service", serviceName(cfg), "endpoint", cfg.Endpoint, "ratio", cfg.SampleRatio)
	return tp.Shutdown
}

// NewTracerProvider builds a provider batching into exporter. A nil exporter still samples and
// propagates trace context but exports nothing.
func NewTracerProvider(ctx context.Context, log *logger.Logger, cfg TracingConfig, exporter sdktrace.SpanExporter) *sdktrace.TracerProvider {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName(cfg)),
			semconv.ServiceVersionKey.String(strings.TrimSpace(cfg.Version)),
			attribute.String("deployment.environment", strings.TrimSpace(cfg.Environment)),
		),
	)
	if err != nil {
		logger.OrNop(log).Warn("⚠️ OTel resource init failed (continuing)", "error", err)
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
		sdktrace.WithResource(res),
	}
	if exporter != nil {
		opts = append(opts, sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)))
	}
	return sdktrace.NewTracerProvider(opts...)
}

func newExporter(ctx context.Context, cfg TracingConfig, stdout io.Writer) (sdktrace.SpanExporter, error) {
	if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(ctx, opts...)
	}
	return stdouttrace.New(stdouttrace.WithWriter(stdout), stdouttrace.WithPrettyPrint())
}

// HTTPHandler wraps h so every request opens a server span named after its route.
func HTTPHandler(h http.Handler, cfg TracingConfig) http.Handler {
	return otelhttp.NewHandler(h, serviceName(cfg),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

func serviceName(cfg TracingConfig) string {
	if name := strings.TrimSpace(cfg.ServiceName); name != "" {
		return name
	}
	return DefaultServiceName
}
