package processor

import (
	"context"
	"errors"
	"time"

	"github.com/zjrosen/composer/internal/commands/command"
	"github.com/zjrosen/composer/internal/log"
	"github.com/zjrosen/composer/internal/pubsub"
)

// Middleware wraps a CommandHandler to add additional behavior.
// Middleware functions are composed using ChainMiddleware.
type Middleware func(CommandHandler) CommandHandler

// ChainMiddleware applies middlewares to a handler in reverse order.
// The first middleware in the list will be the outermost wrapper:
// ChainMiddleware(handler, logging, timeout) results in logging(timeout(handler)).
func ChainMiddleware(handler CommandHandler, middlewares ...Middleware) CommandHandler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler
}

func traceIDOf(cmd command.Command) string {
	if hasTraceID, ok := cmd.(interface{ TraceID() string }); ok {
		return hasTraceID.TraceID()
	}
	return ""
}

func sourceOf(cmd command.Command) command.CommandSource {
	if hasSource, ok := cmd.(interface{ Source() command.CommandSource }); ok {
		return hasSource.Source()
	}
	return ""
}

// outcome folds a handler error and a failed result into one error.
func outcome(result *command.CommandResult, err error) error {
	if err != nil {
		return err
	}
	if result != nil && !result.Success {
		if result.Error != nil {
			return result.Error
		}
		return errUnspecified
	}
	return nil
}

var errUnspecified = errors.New("command failed without error details")

// NewLoggingMiddleware creates a middleware that logs command execution.
// Rejected commands are logged at warn level, successes at debug level.
func NewLoggingMiddleware() Middleware {
	return func(next CommandHandler) CommandHandler {
		return HandlerFunc(func(ctx context.Context, cmd command.Command) (*command.CommandResult, error) {
			start := time.Now()
			result, err := next.Handle(ctx, cmd)
			duration := time.Since(start)

			if failure := outcome(result, err); failure != nil {
				log.Warn(log.CatCommands, "command failed",
					"command_id", cmd.ID(),
					"command_type", cmd.Type().String(),
					"trace_id", traceIDOf(cmd),
					"duration", duration,
					"source", sourceOf(cmd),
					"error", failure.Error(),
				)
			} else {
				log.Debug(log.CatCommands, "command completed",
					"command_id", cmd.ID(),
					"command_type", cmd.Type().String(),
					"trace_id", traceIDOf(cmd),
					"duration", duration,
					"source", sourceOf(cmd),
				)
			}
			return result, err
		})
	}
}

// NewCommandLogMiddleware publishes a CommandLogEvent for each processed command.
// A nil bus makes the middleware a pass-through.
func NewCommandLogMiddleware(bus pubsub.Publisher[CommandLogEvent]) Middleware {
	return func(next CommandHandler) CommandHandler {
		if bus == nil {
			return next
		}
		return HandlerFunc(func(ctx context.Context, cmd command.Command) (*command.CommandResult, error) {
			start := time.Now()
			result, err := next.Handle(ctx, cmd)
			failure := outcome(result, err)

			bus.Publish(CommandLogEventType, CommandLogEvent{
				CommandID:   cmd.ID(),
				CommandType: cmd.Type(),
				Source:      sourceOf(cmd),
				Success:     failure == nil,
				Error:       failure,
				Duration:    time.Since(start),
				Timestamp:   time.Now(),
				TraceID:     traceIDOf(cmd),
			})
			return result, err
		})
	}
}

// DefaultSlowCommandThreshold is the default threshold for logging slow handler warnings.
const DefaultSlowCommandThreshold = 100 * time.Millisecond

// NewSlowCommandMiddleware logs a warning when a handler exceeds threshold.
// It only logs; the handler is never aborted.
func NewSlowCommandMiddleware(threshold time.Duration) Middleware {
	if threshold <= 0 {
		threshold = DefaultSlowCommandThreshold
	}
	return func(next CommandHandler) CommandHandler {
		return HandlerFunc(func(ctx context.Context, cmd command.Command) (*command.CommandResult, error) {
			start := time.Now()
			result, err := next.Handle(ctx, cmd)
			if duration := time.Since(start); duration > threshold {
				log.Warn(log.CatCommands, "handler exceeded time threshold",
					"command_id", cmd.ID(),
					"command_type", cmd.Type().String(),
					"trace_id", traceIDOf(cmd),
					"duration", duration,
					"threshold", threshold,
				)
			}
			return result, err
		})
	}
}
