package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/composer/internal/commands/command"
	"github.com/zjrosen/composer/internal/commands/processor"
)

// NewTracingMiddleware creates a span per processed command named
// "command.process.<type>". A nil tracer makes the middleware a pass-through.
func NewTracingMiddleware(tracer trace.Tracer) processor.Middleware {
	if tracer == nil {
		return func(next processor.CommandHandler) processor.CommandHandler {
			return next
		}
	}

	return func(next processor.CommandHandler) processor.CommandHandler {
		return processor.HandlerFunc(func(ctx context.Context, cmd command.Command) (*command.CommandResult, error) {
			ctx = restoreSpanContext(ctx, cmd)

			ctx, span := tracer.Start(ctx, SpanPrefixCommand+cmd.Type().String(),
				trace.WithSpanKind(trace.SpanKindInternal),
			)
			defer span.End()

			span.SetAttributes(
				attribute.String(AttrCommandID, cmd.ID()),
				attribute.String(AttrCommandType, cmd.Type().String()),
			)
			if hasSource, ok := cmd.(interface{ Source() command.CommandSource }); ok {
				span.SetAttributes(attribute.String(AttrCommandSource, hasSource.Source().String()))
			}
			span.SetAttributes(commandAttributes(cmd)...)

			// The processed command carries its own span so logs can report the trace ID.
			if setter, ok := cmd.(interface{ SetSpanContext(trace.SpanContext) }); ok {
				setter.SetSpanContext(span.SpanContext())
			}

			result, err := next.Handle(ctx, cmd)

			switch {
			case err != nil:
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			case result != nil && !result.Success:
				if result.Error != nil {
					span.RecordError(result.Error)
					span.SetStatus(codes.Error, result.Error.Error())
				} else {
					span.SetStatus(codes.Error, "command failed without error details")
				}
			default:
				span.SetStatus(codes.Ok, "")
			}
			return result, err
		})
	}
}

func commandAttributes(cmd command.Command) []attribute.KeyValue {
	switch c := cmd.(type) {
	case *command.AddGroupCommand:
		if c.Definition != nil {
			return []attribute.KeyValue{attribute.String(AttrGroupID, c.Definition.ID().String())}
		}
	case *command.RemoveGroupCommand:
		return []attribute.KeyValue{attribute.String(AttrGroupID, c.Group.String())}
	case *command.DisconnectAllCommand:
		return []attribute.KeyValue{attribute.String(AttrGroupID, c.Group.String())}
	case *command.ConnectCommand:
		attrs := []attribute.KeyValue{
			attribute.String(AttrImportingID, c.Importing.String()),
			attribute.String(AttrExportingID, c.Exporting.String()),
		}
		if c.Import != nil {
			attrs = append(attrs, attribute.String(AttrContract, c.Import.ContractName()))
		}
		return attrs
	case *command.DisconnectCommand:
		return []attribute.KeyValue{
			attribute.String(AttrImportingID, c.Importing.String()),
			attribute.String(AttrExportingID, c.Exporting.String()),
		}
	}
	return nil
}

// restoreSpanContext parents the new span under a span context the command already carries.
func restoreSpanContext(ctx context.Context, cmd command.Command) context.Context {
	if hasSpanContext, ok := cmd.(interface{ SpanContext() trace.SpanContext }); ok {
		if sc := hasSpanContext.SpanContext(); sc.IsValid() {
			return trace.ContextWithRemoteSpanContext(ctx, sc)
		}
	}
	return ctx
}
