// Package commands wires the FIFO command processor to a composition layer and
// exposes it as composition.Commands.
package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/composer/internal/commands/command"
	"github.com/zjrosen/composer/internal/commands/handler"
	"github.com/zjrosen/composer/internal/commands/processor"
	"github.com/zjrosen/composer/internal/commands/tracing"
	"github.com/zjrosen/composer/internal/composition"
	"github.com/zjrosen/composer/internal/group"
	"github.com/zjrosen/composer/internal/log"
	"github.com/zjrosen/composer/internal/pubsub"
)

// ErrUnexpectedResult is returned when a handler result carries the wrong data type.
var ErrUnexpectedResult = errors.New("unexpected command result")

// Config configures a Service.
type Config struct {
	QueueCapacity int
	SlowThreshold time.Duration
	Source        command.CommandSource
	Tracer        trace.Tracer
	CommandLog    *pubsub.Broker[processor.CommandLogEvent]
}

// Service serializes every mutation of a composition.Layer through one processor goroutine.
type Service struct {
	layer     *composition.Layer
	processor *processor.CommandProcessor
	source    command.CommandSource
	cancel    context.CancelFunc
	done      chan struct{}
}

var _ composition.Commands = (*Service)(nil)

// New creates a Service over layer. Call Start before submitting commands.
func New(layer *composition.Layer, cfg Config) *Service {
	source := cfg.Source
	if source == "" {
		source = command.SourceInternal
	}
	opts := []processor.Option{
		processor.WithMiddleware(
			tracing.NewTracingMiddleware(cfg.Tracer),
			processor.NewLoggingMiddleware(),
			processor.NewCommandLogMiddleware(commandLog(cfg.CommandLog)),
			processor.NewSlowCommandMiddleware(cfg.SlowThreshold),
		),
	}
	if cfg.QueueCapacity > 0 {
		opts = append(opts, processor.WithQueueCapacity(cfg.QueueCapacity))
	}
	if cfg.CommandLog != nil {
		opts = append(opts, processor.WithEventBus(cfg.CommandLog))
	}
	p := processor.NewCommandProcessor(opts...)
	handler.Register(p, layer)
	return &Service{layer: layer, processor: p, source: source}
}

// commandLog avoids handing the middleware a typed nil interface.
func commandLog(b *pubsub.Broker[processor.CommandLogEvent]) pubsub.Publisher[processor.CommandLogEvent] {
	if b == nil {
		return nil
	}
	return b
}

// Start runs the processor until ctx is done or Close is called.
func (s *Service) Start(ctx context.Context) error {
	if s.done != nil {
		return nil
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		s.processor.Run(ctx)
	}()
	return s.processor.WaitForReady(ctx)
}

// Close processes the queued commands and stops the processor.
func (s *Service) Close() {
	if s.done == nil {
		return
	}
	s.processor.Drain()
	s.cancel()
	<-s.done
	log.Debug(log.CatCommands, "command service stopped", "processed", s.processor.ProcessedCount(), "errors", s.processor.ErrorCount())
}

// Layer returns the layer the service mutates. Reads may go to it directly.
func (s *Service) Layer() *composition.Layer { return s.layer }

// Processor exposes the underlying processor for metrics.
func (s *Service) Processor() *processor.CommandProcessor { return s.processor }

func (s *Service) submit(ctx context.Context, cmd command.Command) (*command.CommandResult, error) {
	result, err := s.processor.SubmitAndWait(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, result.Error
	}
	return result, nil
}

// Add instantiates def and returns its composition ID.
func (s *Service) Add(ctx context.Context, def *group.Definition) (composition.GroupCompositionID, error) {
	result, err := s.submit(ctx, command.NewAddGroupCommand(s.source, def))
	if err != nil {
		return composition.GroupCompositionID{}, err
	}
	id, ok := result.Data.(composition.GroupCompositionID)
	if !ok {
		return composition.GroupCompositionID{}, fmt.Errorf("%w: %T", ErrUnexpectedResult, result.Data)
	}
	return id, nil
}

// Remove disconnects and removes the group.
func (s *Service) Remove(ctx context.Context, id composition.GroupCompositionID) error {
	_, err := s.submit(ctx, command.NewRemoveGroupCommand(s.source, id))
	return err
}

// Connect satisfies imp on importing with the export of exporting.
func (s *Service) Connect(ctx context.Context, importing composition.GroupCompositionID, imp *group.ImportDefinition, exporting composition.GroupCompositionID) error {
	_, err := s.submit(ctx, command.NewConnectCommand(s.source, importing, imp, exporting))
	return err
}

// Disconnect removes every connection from importing to exporting.
func (s *Service) Disconnect(ctx context.Context, importing, exporting composition.GroupCompositionID) error {
	_, err := s.submit(ctx, command.NewDisconnectCommand(s.source, importing, exporting))
	return err
}

// DisconnectAll removes every connection of the group.
func (s *Service) DisconnectAll(ctx context.Context, id composition.GroupCompositionID) error {
	_, err := s.submit(ctx, command.NewDisconnectAllCommand(s.source, id))
	return err
}
