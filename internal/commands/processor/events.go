package processor

import (
	"time"

	"github.com/zjrosen/composer/internal/commands/command"
	"github.com/zjrosen/composer/internal/pubsub"
)

// Event types published on the processor event bus.
const (
	CommandLogEventType   pubsub.EventType = "command.processed"
	CommandErrorEventType pubsub.EventType = "command.rejected"
)

// CommandLogEvent describes one processed or rejected command.
type CommandLogEvent struct {
	// CommandID is the unique identifier of the processed command.
	CommandID string
	// CommandType indicates the type of command that was processed.
	CommandType command.CommandType
	// Source indicates where the command originated.
	Source command.CommandSource
	// Success indicates whether the command executed successfully.
	Success bool
	// Error contains the error if the command failed (nil on success).
	Error error
	// Duration is how long the handler took.
	Duration time.Duration
	// Timestamp is when the command finished processing.
	Timestamp time.Time
	// TraceID is the distributed trace ID for correlation (empty if tracing disabled).
	TraceID string
}
