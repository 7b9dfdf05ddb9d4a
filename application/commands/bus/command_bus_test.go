package bus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	pkgerrors "github.com/thismakesmehappy/NewApiTest-sub000/pkg/errors"
	"github.com/thismakesmehappy/NewApiTest-sub000/pkg/observability"
)

type renameCommand struct{ name string }

func (c renameCommand) Validate() error {
	if c.name == "" {
		return pkgerrors.NewValidationError("name is required")
	}
	return nil
}

type unknownCommand struct{}

func (unknownCommand) Validate() error { return nil }

func TestCommandBus_Send(t *testing.T) {
	var handled []string
	b := NewCommandBus(
		TracingMiddleware(observability.NoopTracer{}),
		LoggingMiddleware(zap.NewNop()),
		MetricsMiddleware(observability.NewMetrics("test", nil, zap.NewNop())),
	)
	require.NoError(t, b.Register(renameCommand{}, CommandHandlerFunc(func(_ context.Context, cmd Command) error {
		name := cmd.(renameCommand).name
		if name == "forbidden" {
			return pkgerrors.NewForbiddenError("not yours")
		}
		handled = append(handled, name)
		return nil
	})))

	t.Run("Should dispatch valid commands", func(t *testing.T) {
		require.NoError(t, b.Send(context.Background(), renameCommand{name: "a"}))
		assert.Equal(t, []string{"a"}, handled)
	})

	t.Run("Should keep the error type through wrapping", func(t *testing.T) {
		err := b.Send(context.Background(), renameCommand{name: "forbidden"})
		assert.True(t, pkgerrors.IsForbidden(err))
	})

	t.Run("Should validate before the handler runs", func(t *testing.T) {
		handled = nil
		err := b.Send(context.Background(), renameCommand{})
		assert.True(t, pkgerrors.IsValidation(err))
		assert.Empty(t, handled)
	})

	t.Run("Should report missing handlers", func(t *testing.T) {
		err := b.Send(context.Background(), unknownCommand{})
		assert.True(t, errors.Is(err, ErrHandlerNotFound))
	})

	t.Run("Should refuse duplicate registration", func(t *testing.T) {
		assert.Error(t, b.Register(renameCommand{}, CommandHandlerFunc(func(context.Context, Command) error { return nil })))
	})
}

func TestName(t *testing.T) {
	assert.Equal(t, "renameCommand", Name(renameCommand{}))
	assert.Equal(t, "renameCommand", Name(&renameCommand{}))
}
