package middleware

import (
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/stratum-go/stratum/pkg/compose"
)

// Default tracer name for pipeline spans.
const defaultTracerName = "stratum"

// OTelConfig configures the OpenTelemetry observer.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "stratum").
	TracerName string

	// IncludeRoute includes the request path in spans. Enabled by default.
	IncludeRoute bool

	// AttributeExtractor extracts custom attributes from the request
	// context, called once per stage span.
	AttributeExtractor func(rc *compose.Ctx) []attribute.KeyValue

	// tracer is the resolved tracer instance.
	tracer trace.Tracer
}

// OTelOption configures the OpenTelemetry observer.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithIncludeRoute enables or disables the route attribute.
func WithIncludeRoute(include bool) OTelOption {
	return func(c *OTelConfig) {
		c.IncludeRoute = include
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(fn func(rc *compose.Ctx) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = fn
	}
}

// OTel creates an OpenTelemetry observer for composition pipelines. Each
// completed stage is recorded as a span parented on the request's context,
// with explicit start and end timestamps reconstructed from the stage
// duration.
func OTel(opts ...OTelOption) compose.Hooks {
	config := &OTelConfig{
		TracerName:   defaultTracerName,
		IncludeRoute: true,
	}
	for _, opt := range opts {
		opt(config)
	}
	config.tracer = otel.Tracer(config.TracerName)

	attrs := func(rc *compose.Ctx) []attribute.KeyValue {
		var out []attribute.KeyValue
		if config.IncludeRoute {
			out = append(out, attribute.String("stratum.route", rc.Path()))
		}
		if config.AttributeExtractor != nil {
			out = append(out, config.AttributeExtractor(rc)...)
		}
		return out
	}

	return compose.Hooks{
		OnStage: func(rc *compose.Ctx, stage compose.Stage, d time.Duration, err error) {
			end := time.Now()
			_, span := config.tracer.Start(rc.StdContext(), "stratum."+string(stage),
				trace.WithTimestamp(end.Add(-d)),
				trace.WithAttributes(attrs(rc)...),
			)
			if err != nil {
				span.SetStatus(codes.Error, err.Error())
				span.RecordError(err)
			}
			span.End(trace.WithTimestamp(end))
		},
		OnCacheLookup: func(rc *compose.Ctx, key string, hit bool) {
			span := trace.SpanFromContext(rc.StdContext())
			span.AddEvent("stratum.cache_lookup", trace.WithAttributes(
				attribute.Bool("stratum.cache.hit", hit),
			))
		},
		OnShortCircuit: func(rc *compose.Ctx, stage compose.Stage, kind compose.ResultKind) {
			span := trace.SpanFromContext(rc.StdContext())
			span.AddEvent("stratum.short_circuit", trace.WithAttributes(
				attribute.String("stratum.stage", string(stage)),
				attribute.String("stratum.kind", kind.String()),
			))
		},
	}
}
