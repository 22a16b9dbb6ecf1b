package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Config configures the per-session tracing subsystem. There is no "otlp"
// option: a collector would make this distributed tracing, which is out of
// scope (spans are local diagnostics only).
type Config struct {
	// Enabled controls whether tracing is active. When false, a no-op
	// tracer is returned with zero overhead.
	Enabled bool

	// FilePath is the traces.jsonl path under the session directory.
	FilePath string

	// Debug additionally mirrors spans to stdout for --debug runs.
	Debug bool

	// ServiceName identifies this process in exported spans.
	ServiceName string
}

// Provider wraps an sdktrace.TracerProvider and its exporters.
type Provider struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
	enabled  bool
}

// NewProvider builds a Provider from cfg. A disabled config returns a no-op
// tracer so callers never need to branch on Enabled() before creating spans.
func NewProvider(cfg Config) (*Provider, error) {
	if !cfg.Enabled {
		p := noop.NewTracerProvider()
		return &Provider{tracer: p.Tracer("noop"), enabled: false}, nil
	}

	var exporters []sdktrace.SpanExporter

	if cfg.FilePath != "" {
		fe, err := NewFileExporter(cfg.FilePath)
		if err != nil {
			return nil, fmt.Errorf("create file exporter: %w", err)
		}
		exporters = append(exporters, fe)
	}

	if cfg.Debug {
		se, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("create stdout exporter: %w", err)
		}
		exporters = append(exporters, se)
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "bob-orchestrator"
	}

	res := resource.NewSchemaless(attribute.String("service.name", serviceName))

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	}
	for _, exp := range exporters {
		opts = append(opts, sdktrace.WithBatcher(exp))
	}

	provider := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(provider)

	return &Provider{provider: provider, tracer: provider.Tracer(serviceName), enabled: true}, nil
}

// Tracer returns the tracer for creating spans; safe to call even when
// tracing is disabled.
func (p *Provider) Tracer() trace.Tracer { return p.tracer }

// Enabled reports whether tracing is active.
func (p *Provider) Enabled() bool { return p.enabled }

// Shutdown flushes and closes the underlying exporters.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.provider != nil {
		return p.provider.Shutdown(ctx)
	}
	return nil
}
