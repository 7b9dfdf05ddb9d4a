package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/thismakesmehappy/NewApiTest-sub000/application/commands"
	"github.com/thismakesmehappy/NewApiTest-sub000/application/commands/bus"
	"github.com/thismakesmehappy/NewApiTest-sub000/application/ports"
	"github.com/thismakesmehappy/NewApiTest-sub000/application/services"
	domainservices "github.com/thismakesmehappy/NewApiTest-sub000/domain/services"
	pkgerrors "github.com/thismakesmehappy/NewApiTest-sub000/pkg/errors"
	"github.com/thismakesmehappy/NewApiTest-sub000/pkg/observability"
)

// UpdateItemHandler handles UpdateItemCommand
type UpdateItemHandler struct {
	items     ports.ItemRepository
	resolver  *services.ItemQueryResolver
	authz     *domainservices.AuthorizationService
	publisher ports.EventPublisher
	collector *observability.Collector
	logger    *zap.Logger
}

// NewUpdateItemHandler creates a new handler instance
func NewUpdateItemHandler(
	items ports.ItemRepository,
	resolver *services.ItemQueryResolver,
	authz *domainservices.AuthorizationService,
	publisher ports.EventPublisher,
	collector *observability.Collector,
	logger *zap.Logger,
) *UpdateItemHandler {
	return &UpdateItemHandler{
		items:     items,
		resolver:  resolver,
		authz:     authz,
		publisher: publisher,
		collector: collector,
		logger:    logger,
	}
}

// Handle implements bus.CommandHandler. The item is resolved for modify
// first, so a missing item is NOT_FOUND before any permission check.
func (h *UpdateItemHandler) Handle(ctx context.Context, c bus.Command) (err error) {
	cmd, ok := c.(commands.UpdateItemCommand)
	if !ok {
		return fmt.Errorf("unexpected command type %T", c)
	}
	defer func() { h.collector.RecordItemOperation("update", err) }()

	item, err := h.resolver.Resolve(ctx, cmd.User, cmd.ItemID, services.OpModify)
	if err != nil {
		return err
	}

	if cmd.ChangesAccess() {
		if !h.authz.CanUserChangeAccessLevel(cmd.User, item) {
			return pkgerrors.NewForbiddenError("only the owner can change the access level")
		}
		level, teamID, err := cmd.ResolveAccess(item)
		if err != nil {
			return err
		}
		if level.IsTeam() && teamID != item.TeamID() && !h.authz.IsValidTeamAssignment(cmd.User, teamID) {
			return pkgerrors.NewInvalidAssignmentError("you are not a member of team " + teamID)
		}
		if err := item.ChangeAccess(level, teamID); err != nil {
			return err
		}
	}

	if cmd.Message != nil {
		if err := item.UpdateMessage(*cmd.Message, cmd.User.ID()); err != nil {
			return err
		}
	}

	// conditional write; an item deleted meanwhile comes back as NOT_FOUND
	if err := h.items.Update(ctx, item); err != nil {
		return pkgerrors.Wrap(err, "update item")
	}

	h.logger.Info("Item updated",
		zap.String("itemID", item.ID().String()),
		zap.String("userID", cmd.User.ID()),
	)

	publishEvents(ctx, h.publisher, h.logger, item)
	return nil
}
