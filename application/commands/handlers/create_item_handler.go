package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/thismakesmehappy/NewApiTest-sub000/application/commands"
	"github.com/thismakesmehappy/NewApiTest-sub000/application/commands/bus"
	"github.com/thismakesmehappy/NewApiTest-sub000/application/ports"
	"github.com/thismakesmehappy/NewApiTest-sub000/domain/core/entities"
	domainservices "github.com/thismakesmehappy/NewApiTest-sub000/domain/services"
	pkgerrors "github.com/thismakesmehappy/NewApiTest-sub000/pkg/errors"
	"github.com/thismakesmehappy/NewApiTest-sub000/pkg/observability"
)

// CreateItemHandler handles CreateItemCommand
type CreateItemHandler struct {
	items     ports.ItemRepository
	authz     *domainservices.AuthorizationService
	publisher ports.EventPublisher
	collector *observability.Collector
	logger    *zap.Logger
}

// NewCreateItemHandler creates a new handler instance
func NewCreateItemHandler(
	items ports.ItemRepository,
	authz *domainservices.AuthorizationService,
	publisher ports.EventPublisher,
	collector *observability.Collector,
	logger *zap.Logger,
) *CreateItemHandler {
	return &CreateItemHandler{
		items:     items,
		authz:     authz,
		publisher: publisher,
		collector: collector,
		logger:    logger,
	}
}

// Handle implements bus.CommandHandler
func (h *CreateItemHandler) Handle(ctx context.Context, c bus.Command) (err error) {
	cmd, ok := c.(commands.CreateItemCommand)
	if !ok {
		return fmt.Errorf("unexpected command type %T", c)
	}
	defer func() { h.collector.RecordItemOperation("create", err) }()

	level, teamID, err := cmd.ResolveAccess()
	if err != nil {
		return err
	}
	if level.IsTeam() && !h.authz.IsValidTeamAssignment(cmd.User, teamID) {
		return pkgerrors.NewInvalidAssignmentError("you are not a member of team " + teamID)
	}

	item, err := entities.NewItem(cmd.ItemID, cmd.User.ID(), cmd.Message, level, teamID)
	if err != nil {
		return err
	}

	if err := h.items.Create(ctx, item); err != nil {
		return pkgerrors.Wrap(err, "create item")
	}

	h.logger.Info("Item created",
		zap.String("itemID", item.ID().String()),
		zap.String("userID", cmd.User.ID()),
		zap.String("accessLevel", level.String()),
		zap.String("teamID", teamID),
	)

	publishEvents(ctx, h.publisher, h.logger, item)
	return nil
}
