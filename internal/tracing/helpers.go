// Package tracing provides OpenTelemetry distributed tracing setup and utilities.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StartQuerySpan opens a client span around a read against table. The
// profile store never writes, so every span is a SELECT; query names the
// store method issuing it.
//
//	ctx, endSpan := tracing.StartQuerySpan(ctx, "ratings", "ratings_for")
//	defer func() { endSpan(err) }()
func StartQuerySpan(ctx context.Context, table, query string) (context.Context, func(error)) {
	ctx, span := otel.Tracer("skillmatch/db").Start(ctx, "SELECT "+table,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", "SELECT"),
			attribute.String("db.sql.table", table),
			attribute.String("db.query.name", query),
		),
	)
	return ctx, endFunc(span)
}

// StartSpan opens an internal span named after a recommendation stage.
func StartSpan(ctx context.Context, name string) (context.Context, func(error)) {
	ctx, span := otel.Tracer("skillmatch").Start(ctx, name)
	return ctx, endFunc(span)
}

func endFunc(span trace.Span) func(error) {
	return func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

// SetAttributes sets attributes on the span carried by ctx.
func SetAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).SetAttributes(attrs...)
}
