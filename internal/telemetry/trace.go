package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StartCommandSpan creates a span for a CLI command execution.
//
//	ctx, span := telemetry.StartCommandSpan(ctx, "run")
//	defer span.End()
func StartCommandSpan(ctx context.Context, cmdName string) (context.Context, trace.Span) {
	ctx, span := GetTracerProvider().Tracer("commands").Start(ctx, "command."+cmdName)
	span.SetAttributes(
		attribute.String("command", cmdName),
		attribute.String("component", "cli"),
	)
	return ctx, span
}

// StartBackendSpan creates a client span for one backend API call
func StartBackendSpan(ctx context.Context, method, path string) (context.Context, trace.Span) {
	ctx, span := GetTracerProvider().Tracer("backend").Start(ctx, "backend "+method+" "+path,
		trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		attribute.String("http.request.method", method),
		attribute.String("url.path", path),
		attribute.String("component", "backend"),
	)
	return ctx, span
}

// StartWizardSpan creates a span for a wizard step such as a phase load or a submission
func StartWizardSpan(ctx context.Context, step string) (context.Context, trace.Span) {
	ctx, span := GetTracerProvider().Tracer("wizard").Start(ctx, "wizard."+step)
	span.SetAttributes(attribute.String("component", "wizard"))
	return ctx, span
}

// RecordSuccess marks a span as successful with optional result attributes
func RecordSuccess(span trace.Span, attrs ...attribute.KeyValue) {
	span.SetAttributes(attrs...)
	span.SetStatus(codes.Ok, "")
}

// RecordError records an error in a span and sets error status
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(attribute.Bool("error", true))
}
