package observability

import (
	"context"
	"fmt"

	"github.com/aws/aws-xray-sdk-go/xray"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// EndFunc closes a span, recording err when it is non-nil
type EndFunc func(err error)

// Tracer starts spans around application operations. The Lambda build uses
// X-Ray subsegments, the local server uses OpenTelemetry.
type Tracer interface {
	StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, EndFunc)
}

// NoopTracer discards all spans
type NoopTracer struct{}

func (NoopTracer) StartSpan(ctx context.Context, _ string, _ map[string]string) (context.Context, EndFunc) {
	return ctx, func(error) {}
}

// XRayTracer records spans as X-Ray subsegments of the Lambda segment
type XRayTracer struct {
	serviceName string
}

// NewXRayTracer creates a new X-Ray tracer
func NewXRayTracer(serviceName string) *XRayTracer {
	return &XRayTracer{serviceName: serviceName}
}

func (t *XRayTracer) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, EndFunc) {
	// Without a parent segment (local runs, tests) the SDK would log noise
	if xray.GetSegment(ctx) == nil {
		return ctx, func(error) {}
	}

	ctx, seg := xray.BeginSubsegment(ctx, fmt.Sprintf("%s.%s", t.serviceName, name))
	for k, v := range attrs {
		_ = seg.AddAnnotation(k, v)
	}
	return ctx, func(err error) {
		seg.Close(err)
	}
}

// OTelTracer records spans through an OpenTelemetry tracer
type OTelTracer struct {
	tracer trace.Tracer
}

// NewOTelTracer wraps an OpenTelemetry tracer
func NewOTelTracer(tracer trace.Tracer) *OTelTracer {
	return &OTelTracer{tracer: tracer}
}

func (t *OTelTracer) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, EndFunc) {
	kv := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		kv = append(kv, attribute.String(k, v))
	}

	ctx, span := t.tracer.Start(ctx, name, trace.WithAttributes(kv...))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}
