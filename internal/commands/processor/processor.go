// Package processor provides the FIFO command processor that serializes every
// mutation of the composition graph. A single goroutine handles commands in
// submission order, so handlers never run concurrently with each other.
package processor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/zjrosen/composer/internal/commands/command"
	"github.com/zjrosen/composer/internal/log"
	"github.com/zjrosen/composer/internal/pubsub"
)

// DefaultQueueCapacity is the default buffer size for the command queue.
const DefaultQueueCapacity = 1000

var (
	// ErrUnknownCommandType is returned when no handler is registered for a command type.
	ErrUnknownCommandType = errors.New("unknown command type")
	// ErrProcessorNotRunning is returned when submitting before Run or after Stop/Drain.
	ErrProcessorNotRunning = errors.New("command processor is not running")
	// ErrQueueFull is returned when the command queue has reached capacity.
	ErrQueueFull = command.ErrQueueFull
)

// CommandHandler is an alias for command.Handler.
type CommandHandler = command.Handler

// HandlerFunc is an alias for command.HandlerFunc.
type HandlerFunc = command.HandlerFunc

// Option configures the CommandProcessor.
type Option func(*CommandProcessor)

// WithQueueCapacity sets the command queue buffer capacity.
func WithQueueCapacity(capacity int) Option {
	return func(p *CommandProcessor) {
		if capacity > 0 {
			p.queueCapacity = capacity
		}
	}
}

// WithEventBus sets the broker that receives a CommandLogEvent per processed command.
func WithEventBus(bus *pubsub.Broker[CommandLogEvent]) Option {
	return func(p *CommandProcessor) {
		p.eventBus = bus
	}
}

// WithMiddleware adds middleware to be applied to all handlers.
// Middleware is applied in order: first middleware wraps outermost.
func WithMiddleware(middlewares ...Middleware) Option {
	return func(p *CommandProcessor) {
		p.middlewares = append(p.middlewares, middlewares...)
	}
}

// CommandProcessor processes commands sequentially in FIFO order.
type CommandProcessor struct {
	// Command queue (buffered channel)
	queue         chan queueItem
	queueCapacity int

	// Handler registry
	handlers map[command.CommandType]CommandHandler

	// Middleware chain applied to all handlers
	middlewares []Middleware

	eventBus *pubsub.Broker[CommandLogEvent]

	// Lifecycle management
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	submitMu sync.RWMutex // Guards queue close against concurrent sends

	// State tracking
	running  atomic.Bool
	started  atomic.Bool
	readyCh  chan struct{} // Closed when processor is ready to accept commands
	readyMu  sync.Mutex    // Protects readyCh initialization
	readySet bool          // True after readyCh is closed

	// Metrics
	processedCount atomic.Int64
	errorCount     atomic.Int64
}

// queueItem wraps a command with the submitter's context and an optional result channel.
type queueItem struct {
	ctx      context.Context
	cmd      command.Command
	resultCh chan *command.CommandResult // nil for fire-and-forget Submit
}

// NewCommandProcessor creates a new CommandProcessor with the given options.
func NewCommandProcessor(opts ...Option) *CommandProcessor {
	p := &CommandProcessor{
		queueCapacity: DefaultQueueCapacity,
		handlers:      make(map[command.CommandType]CommandHandler),
		readyCh:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.queue = make(chan queueItem, p.queueCapacity)
	return p
}

// RegisterHandler registers a handler for a command type.
// Must be called before Run() is called.
// The handler is wrapped with all configured middleware.
func (p *CommandProcessor) RegisterHandler(cmdType command.CommandType, handler CommandHandler) {
	p.handlers[cmdType] = ChainMiddleware(handler, p.middlewares...)
}

// Run starts the command processing loop.
// This method blocks until the context is cancelled, Stop() or Drain() is called.
// Run can only be called once - subsequent calls return immediately.
func (p *CommandProcessor) Run(ctx context.Context) {
	if !p.started.CompareAndSwap(false, true) {
		return
	}

	p.ctx, p.cancel = context.WithCancel(ctx)

	// Add to wait group BEFORE setting running to avoid race with Drain()
	p.wg.Add(1)
	p.running.Store(true)

	p.readyMu.Lock()
	if !p.readySet {
		close(p.readyCh)
		p.readySet = true
	}
	p.readyMu.Unlock()

	defer func() {
		p.running.Store(false)
		p.wg.Done()
	}()

	for {
		select {
		case <-p.ctx.Done():
			return
		case item, ok := <-p.queue:
			if !ok {
				// Queue closed during Drain
				return
			}
			p.processItem(item)
		}
	}
}

// WaitForReady blocks until the processor is ready to accept commands.
func (p *CommandProcessor) WaitForReady(ctx context.Context) error {
	select {
	case <-p.readyCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Submit adds a command to the queue for asynchronous processing.
// Returns ErrQueueFull if the queue is at capacity.
func (p *CommandProcessor) Submit(cmd command.Command) error {
	return p.enqueue(queueItem{ctx: context.Background(), cmd: cmd})
}

func (p *CommandProcessor) enqueue(item queueItem) error {
	p.submitMu.RLock()
	defer p.submitMu.RUnlock()

	if !p.running.Load() {
		return ErrProcessorNotRunning
	}
	select {
	case p.queue <- item:
		return nil
	default:
		return ErrQueueFull
	}
}

// SubmitAndWait adds a command to the queue and waits for the result.
// A context that is done when the command reaches the front of the queue
// makes the command fail with ctx.Err() without running its handler.
func (p *CommandProcessor) SubmitAndWait(ctx context.Context, cmd command.Command) (*command.CommandResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resultCh := make(chan *command.CommandResult, 1)
	if err := p.enqueue(queueItem{ctx: ctx, cmd: cmd, resultCh: resultCh}); err != nil {
		return nil, err
	}

	select {
	case result := <-resultCh:
		return result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.ctx.Done():
		// Processor is shutting down
		return nil, context.Canceled
	}
}

// Stop cancels the processing context and waits for shutdown.
// Any pending commands in the queue are NOT processed.
func (p *CommandProcessor) Stop() {
	p.running.Store(false)
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}

// Drain processes all remaining commands in the queue before stopping.
func (p *CommandProcessor) Drain() {
	p.submitMu.Lock()
	if !p.running.Load() {
		p.submitMu.Unlock()
		return
	}
	p.running.Store(false)
	close(p.queue)
	p.submitMu.Unlock()

	p.wg.Wait()
}

// IsRunning returns true if the processor is currently accepting commands.
func (p *CommandProcessor) IsRunning() bool {
	return p.running.Load()
}

// ProcessedCount returns the total number of commands processed.
func (p *CommandProcessor) ProcessedCount() int64 {
	return p.processedCount.Load()
}

// ErrorCount returns the total number of commands that resulted in errors.
func (p *CommandProcessor) ErrorCount() int64 {
	return p.errorCount.Load()
}

// QueueLength returns the current number of pending commands.
func (p *CommandProcessor) QueueLength() int {
	return len(p.queue)
}

func (p *CommandProcessor) processItem(item queueItem) {
	result := p.processCommand(item.ctx, item.cmd)

	p.processedCount.Add(1)
	if !result.Success {
		p.errorCount.Add(1)
	}

	if item.resultCh != nil {
		item.resultCh <- result
		close(item.resultCh)
	}
}

// processCommand executes the command processing pipeline.
// Errors are wrapped in the CommandResult, never returned separately.
func (p *CommandProcessor) processCommand(submitCtx context.Context, cmd command.Command) *command.CommandResult {
	// Abort before start only; an admitted handler always runs to completion.
	if err := submitCtx.Err(); err != nil {
		return p.fail(cmd, err)
	}

	if err := cmd.Validate(); err != nil {
		return p.fail(cmd, err)
	}

	handler, ok := p.handlers[cmd.Type()]
	if !ok {
		return p.fail(cmd, ErrUnknownCommandType)
	}

	result, err := handler.Handle(context.WithoutCancel(submitCtx), cmd)
	if err != nil {
		return p.fail(cmd, err)
	}
	if result == nil {
		result = &command.CommandResult{Success: true}
	}
	return result
}

func (p *CommandProcessor) fail(cmd command.Command, err error) *command.CommandResult {
	log.Debug(log.CatCommands, "command rejected", "command_id", cmd.ID(), "command_type", cmd.Type(), "error", err)
	if p.eventBus != nil {
		p.eventBus.Publish(CommandErrorEventType, CommandLogEvent{
			CommandID:   cmd.ID(),
			CommandType: cmd.Type(),
			Error:       err,
		})
	}
	return &command.CommandResult{Success: false, Error: err}
}
