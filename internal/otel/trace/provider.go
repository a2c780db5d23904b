package trace

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdkTrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/dynoinc/incidentreport/internal/otel/semconv"
)

type Config struct {
	// OTLP HTTP endpoint, e.g. http://localhost:4318. Spans are dropped when empty.
	Endpoint   string  `split_words:"true"`
	SampleRate float64 `split_words:"true" default:"0"`
}

// NewProvider returns a tracer provider. Callers own Shutdown.
func NewProvider(ctx context.Context, c Config) (*sdkTrace.TracerProvider, error) {
	opts := []sdkTrace.TracerProviderOption{sdkTrace.WithSampler(NewSampler(c.SampleRate))}
	if c.Endpoint != "" {
		exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(c.Endpoint))
		if err != nil {
			return nil, fmt.Errorf("creating OTLP exporter: %w", err)
		}
		opts = append(opts, sdkTrace.WithBatcher(exporter))
	}

	return sdkTrace.NewTracerProvider(opts...), nil
}

// sampler records every span started with semconv.ForceTraceKey set to true
// and leaves the rest to a parent-based ratio sampler.
type sampler struct {
	fallback sdkTrace.Sampler
}

func NewSampler(rate float64) sdkTrace.Sampler {
	return sampler{fallback: sdkTrace.ParentBased(sdkTrace.TraceIDRatioBased(rate))}
}

func (s sampler) ShouldSample(p sdkTrace.SamplingParameters) sdkTrace.SamplingResult {
	if forced(p.Attributes) {
		return sdkTrace.SamplingResult{
			Decision:   sdkTrace.RecordAndSample,
			Tracestate: trace.SpanContextFromContext(p.ParentContext).TraceState(),
		}
	}

	return s.fallback.ShouldSample(p)
}

func (s sampler) Description() string {
	return fmt.Sprintf("ForcedOr{%s}", s.fallback.Description())
}

func forced(attrs []attribute.KeyValue) bool {
	set := attribute.NewSet(attrs...)
	v, ok := set.Value(semconv.ForceTraceKey)
	return ok && v.AsBool()
}
