package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys used by the workflow.
const (
	AttrProposalID = attribute.Key("proposal.id")
	AttrAction     = attribute.Key("workflow.action")
	AttrActorID    = attribute.Key("actor.id")
	AttrActorRole  = attribute.Key("actor.role")
	AttrFromStatus = attribute.Key("status.from")
	AttrToStatus   = attribute.Key("status.to")
	AttrErrorCode  = attribute.Key("error.code")
)

// StartSpan starts an internal span on tracer.
func StartSpan(ctx context.Context, tracer trace.Tracer, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error, attrs ...attribute.KeyValue) {
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
