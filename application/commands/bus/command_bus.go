package bus

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"go.uber.org/zap"

	pkgerrors "github.com/thismakesmehappy/NewApiTest-sub000/pkg/errors"
	"github.com/thismakesmehappy/NewApiTest-sub000/pkg/observability"
)

// Command represents a command that changes state
type Command interface {
	Validate() error
}

// CommandHandler handles a specific command type
type CommandHandler interface {
	Handle(ctx context.Context, cmd Command) error
}

// CommandHandlerFunc is an adapter to allow functions to be used as handlers
type CommandHandlerFunc func(ctx context.Context, cmd Command) error

// Handle implements CommandHandler
func (f CommandHandlerFunc) Handle(ctx context.Context, cmd Command) error {
	return f(ctx, cmd)
}

// Middleware wraps command handlers
type Middleware func(next CommandHandler) CommandHandler

var ErrHandlerNotFound = errors.New("command handler not found")

// CommandBus dispatches commands to their handlers
type CommandBus struct {
	handlers    map[reflect.Type]CommandHandler
	middlewares []Middleware
	mu          sync.RWMutex
}

// NewCommandBus creates a new command bus
func NewCommandBus(middlewares ...Middleware) *CommandBus {
	return &CommandBus{
		handlers:    make(map[reflect.Type]CommandHandler),
		middlewares: middlewares,
	}
}

// Register registers a handler for a command type
func (b *CommandBus) Register(cmdType Command, handler CommandHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := reflect.TypeOf(cmdType)
	if _, exists := b.handlers[t]; exists {
		return fmt.Errorf("handler already registered for command type %s", t.Name())
	}

	b.handlers[t] = handler
	return nil
}

// Send validates the command and dispatches it through the middleware chain.
// Validation runs before any handler so malformed input never reaches storage.
func (b *CommandBus) Send(ctx context.Context, cmd Command) error {
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("command validation failed: %w", err)
	}

	b.mu.RLock()
	handler, exists := b.handlers[reflect.TypeOf(cmd)]
	b.mu.RUnlock()

	if !exists {
		return fmt.Errorf("%w: %T", ErrHandlerNotFound, cmd)
	}

	for i := len(b.middlewares) - 1; i >= 0; i-- {
		handler = b.middlewares[i](handler)
	}

	if err := handler.Handle(ctx, cmd); err != nil {
		return fmt.Errorf("command handler failed: %w", err)
	}
	return nil
}

// Name returns the type name used in logs and metrics
func Name(cmd Command) string {
	t := reflect.TypeOf(cmd)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// LoggingMiddleware logs command execution
func LoggingMiddleware(logger *zap.Logger) Middleware {
	return func(next CommandHandler) CommandHandler {
		return CommandHandlerFunc(func(ctx context.Context, cmd Command) error {
			name := Name(cmd)
			logger.Debug("Executing command", zap.String("type", name))

			err := next.Handle(ctx, cmd)
			if err == nil {
				logger.Debug("Command succeeded", zap.String("type", name))
				return nil
			}
			if appErr := pkgerrors.GetAppError(err); appErr != nil && appErr.HTTPStatus < 500 {
				logger.Info("Command rejected", zap.String("type", name), zap.Error(err))
			} else {
				logger.Error("Command failed", zap.String("type", name), zap.Error(err))
			}
			return err
		})
	}
}

// MetricsMiddleware publishes command timings and access denials to CloudWatch
func MetricsMiddleware(metrics *observability.Metrics) Middleware {
	return func(next CommandHandler) CommandHandler {
		return CommandHandlerFunc(func(ctx context.Context, cmd Command) error {
			start := time.Now()
			err := next.Handle(ctx, cmd)

			name := Name(cmd)
			metrics.RecordCommandExecution(ctx, name, time.Since(start), err)
			if pkgerrors.IsForbidden(err) {
				metrics.RecordAccessDenied(ctx, name)
			}
			return err
		})
	}
}

// TracingMiddleware opens a span per command
func TracingMiddleware(tracer observability.Tracer) Middleware {
	return func(next CommandHandler) CommandHandler {
		return CommandHandlerFunc(func(ctx context.Context, cmd Command) error {
			ctx, end := tracer.StartSpan(ctx, "command."+Name(cmd), nil)
			err := next.Handle(ctx, cmd)
			end(err)
			return err
		})
	}
}
