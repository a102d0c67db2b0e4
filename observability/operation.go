package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/todoapi/logger"
)

// Operation is a traced and measured unit of work.
type Operation struct {
	service string
	name    string
	start   time.Time
	span    trace.Span
	metrics *Metrics
}

// StartOperation starts a span named name and marks the operation in
// flight. metrics may be nil.
func StartOperation(ctx context.Context, service, name string, metrics *Metrics) (context.Context, *Operation) {
	ctx, span := StartSpan(ctx, name)
	span.SetAttributes(
		attribute.String(AttrServiceName, service),
		attribute.String(AttrOperationName, name),
	)
	if id := logger.RequestIDFromContext(ctx); id != "" {
		span.SetAttributes(attribute.String(AttrRequestID, id))
	}
	if metrics != nil {
		metrics.operationActive.Add(ctx, 1)
	}
	return ctx, &Operation{
		service: service,
		name:    name,
		start:   time.Now(),
		span:    span,
		metrics: metrics,
	}
}

// SetUserID tags the span with the acting user.
func (o *Operation) SetUserID(id string) {
	o.span.SetAttributes(attribute.String(AttrUserID, id))
}

// End finishes the span and records the outcome. A non-nil err marks the
// span as failed.
func (o *Operation) End(ctx context.Context, status string, err error) {
	duration := time.Since(o.start)

	if err != nil {
		o.span.RecordError(err)
		o.span.SetStatus(codes.Error, status)
		o.span.SetAttributes(attribute.String(AttrErrorMessage, err.Error()))
	}
	o.span.SetAttributes(
		attribute.String(AttrStatus, status),
		attribute.Int64(AttrDurationMs, duration.Milliseconds()),
	)
	o.span.End()

	if o.metrics != nil {
		o.metrics.operationActive.Add(ctx, -1)
		o.metrics.RecordOperation(ctx, o.service, o.name, status, duration)
		if err != nil {
			o.metrics.RecordError(ctx, status, o.service)
		}
	}
}
