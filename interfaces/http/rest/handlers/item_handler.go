package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/thismakesmehappy/NewApiTest-sub000/application/commands"
	"github.com/thismakesmehappy/NewApiTest-sub000/application/commands/bus"
	"github.com/thismakesmehappy/NewApiTest-sub000/application/queries"
	querybus "github.com/thismakesmehappy/NewApiTest-sub000/application/queries/bus"
	"github.com/thismakesmehappy/NewApiTest-sub000/domain/core/entities"
	"github.com/thismakesmehappy/NewApiTest-sub000/domain/core/valueobjects"
	"github.com/thismakesmehappy/NewApiTest-sub000/interfaces/http/rest/middleware"
	"github.com/thismakesmehappy/NewApiTest-sub000/pkg/common"
	pkgerrors "github.com/thismakesmehappy/NewApiTest-sub000/pkg/errors"
	"github.com/thismakesmehappy/NewApiTest-sub000/pkg/utils"
)

// ItemHandler handles item-related HTTP requests
type ItemHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	errors     *pkgerrors.ErrorHandler
	logger     *zap.Logger
}

// NewItemHandler creates a new item handler
func NewItemHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	errHandler *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *ItemHandler {
	return &ItemHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		errors:     errHandler,
		logger:     logger,
	}
}

// CreateItemRequest represents the request body for creating an item.
// accessLevel defaults to TEAM when teamId is given, INDIVIDUAL otherwise.
type CreateItemRequest struct {
	Message     string `json:"message" validate:"required"`
	AccessLevel string `json:"accessLevel,omitempty"`
	TeamID      string `json:"teamId,omitempty" validate:"omitempty,max=128"`
}

// UpdateItemRequest represents the request body for updating an item. An
// empty teamId clears the team.
type UpdateItemRequest struct {
	Message     *string `json:"message,omitempty"`
	AccessLevel *string `json:"accessLevel,omitempty"`
	TeamID      *string `json:"teamId,omitempty" validate:"omitempty,max=128"`
}

// ListItemsResponse wraps the accessible items
type ListItemsResponse struct {
	Items []ItemResponse `json:"items"`
}

// CreateItem handles POST /items
func (h *ItemHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.PrincipalFromContext(r.Context())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	var req CreateItemRequest
	if err := common.ParseJSONBody(w, r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	itemID := valueobjects.NewItemID()
	cmd := commands.CreateItemCommand{
		ItemID:      itemID,
		User:        user,
		Message:     req.Message,
		AccessLevel: req.AccessLevel,
		TeamID:      req.TeamID,
	}
	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.logger.Debug("Failed to create item", zap.String("userID", user.ID()), zap.Error(err))
		h.errors.Handle(w, r, err)
		return
	}

	item, err := h.getItem(r, user, itemID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/v1/items/"+itemID.String())
	common.RespondJSON(w, r, http.StatusCreated, toItemResponse(item))
}

// ListItems handles GET /items. ?include=public adds PUBLIC items of others.
func (h *ItemHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.PrincipalFromContext(r.Context())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	query := queries.ListItemsQuery{
		User:          user,
		IncludePublic: includes(r, "public"),
	}
	items, err := querybus.AskAs[[]*entities.Item](r.Context(), h.queryBus, query)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondList(w, r, ListItemsResponse{Items: toItemResponses(items)}, len(items))
}

// GetItem handles GET /items/{itemID}
func (h *ItemHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	user, itemID, ok := h.itemRequest(w, r)
	if !ok {
		return
	}

	item, err := h.getItem(r, user, itemID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, r, http.StatusOK, toItemResponse(item))
}

// UpdateItem handles PUT /items/{itemID}
func (h *ItemHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	user, itemID, ok := h.itemRequest(w, r)
	if !ok {
		return
	}

	var req UpdateItemRequest
	if err := common.ParseJSONBody(w, r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	cmd := commands.UpdateItemCommand{
		ItemID:      itemID,
		User:        user,
		Message:     req.Message,
		AccessLevel: req.AccessLevel,
		TeamID:      req.TeamID,
	}
	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.logger.Debug("Failed to update item",
			zap.String("userID", user.ID()),
			zap.String("itemID", itemID.String()),
			zap.Error(err),
		)
		h.errors.Handle(w, r, err)
		return
	}

	item, err := h.getItem(r, user, itemID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, r, http.StatusOK, toItemResponse(item))
}

// DeleteItem handles DELETE /items/{itemID}
func (h *ItemHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	user, itemID, ok := h.itemRequest(w, r)
	if !ok {
		return
	}

	if err := h.commandBus.Send(r.Context(), commands.DeleteItemCommand{ItemID: itemID, User: user}); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondNoContent(w)
}

// itemRequest extracts the principal and the item id path parameter,
// rendering the error itself when either is missing.
func (h *ItemHandler) itemRequest(w http.ResponseWriter, r *http.Request) (*entities.User, valueobjects.ItemID, bool) {
	user, err := middleware.PrincipalFromContext(r.Context())
	if err != nil {
		h.errors.Handle(w, r, err)
		return nil, valueobjects.ItemID{}, false
	}

	itemID, err := valueobjects.NewItemIDFromString(chi.URLParam(r, "itemID"))
	if err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError(err.Error()))
		return nil, valueobjects.ItemID{}, false
	}
	return user, itemID, true
}

func (h *ItemHandler) getItem(r *http.Request, user *entities.User, itemID valueobjects.ItemID) (*entities.Item, error) {
	return querybus.AskAs[*entities.Item](r.Context(), h.queryBus, queries.GetItemQuery{User: user, ItemID: itemID})
}

// includes reports whether the comma separated include parameter names v
func includes(r *http.Request, v string) bool {
	for _, part := range strings.Split(r.URL.Query().Get("include"), ",") {
		if strings.EqualFold(strings.TrimSpace(part), v) {
			return true
		}
	}
	return false
}
