package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/thismakesmehappy/NewApiTest-sub000/application/commands"
	"github.com/thismakesmehappy/NewApiTest-sub000/application/commands/bus"
	"github.com/thismakesmehappy/NewApiTest-sub000/application/ports"
	"github.com/thismakesmehappy/NewApiTest-sub000/application/services"
	pkgerrors "github.com/thismakesmehappy/NewApiTest-sub000/pkg/errors"
	"github.com/thismakesmehappy/NewApiTest-sub000/pkg/observability"
)

// DeleteItemHandler handles DeleteItemCommand
type DeleteItemHandler struct {
	items     ports.ItemRepository
	resolver  *services.ItemQueryResolver
	publisher ports.EventPublisher
	collector *observability.Collector
	logger    *zap.Logger
}

// NewDeleteItemHandler creates a new delete item handler
func NewDeleteItemHandler(
	items ports.ItemRepository,
	resolver *services.ItemQueryResolver,
	publisher ports.EventPublisher,
	collector *observability.Collector,
	logger *zap.Logger,
) *DeleteItemHandler {
	return &DeleteItemHandler{
		items:     items,
		resolver:  resolver,
		publisher: publisher,
		collector: collector,
		logger:    logger,
	}
}

// Handle implements bus.CommandHandler
func (h *DeleteItemHandler) Handle(ctx context.Context, c bus.Command) (err error) {
	cmd, ok := c.(commands.DeleteItemCommand)
	if !ok {
		return fmt.Errorf("unexpected command type %T", c)
	}
	defer func() { h.collector.RecordItemOperation("delete", err) }()

	item, err := h.resolver.Resolve(ctx, cmd.User, cmd.ItemID, services.OpDelete)
	if err != nil {
		return err
	}

	// the item lives in its owner's partition, not necessarily the caller's
	if err := h.items.Delete(ctx, item.UserID(), item.ID()); err != nil {
		return pkgerrors.Wrap(err, "delete item")
	}

	h.logger.Info("Item deleted",
		zap.String("itemID", item.ID().String()),
		zap.String("ownerID", item.UserID()),
		zap.String("deletedBy", cmd.User.ID()),
	)

	item.MarkDeleted(cmd.User.ID())
	publishEvents(ctx, h.publisher, h.logger, item)
	return nil
}
