package handlers

import (
	"context"
	"fmt"

	"github.com/thismakesmehappy/NewApiTest-sub000/application/queries"
	"github.com/thismakesmehappy/NewApiTest-sub000/application/queries/bus"
	"github.com/thismakesmehappy/NewApiTest-sub000/application/services"
)

// GetItemHandler resolves a single item for reading
type GetItemHandler struct {
	resolver *services.ItemQueryResolver
}

func NewGetItemHandler(resolver *services.ItemQueryResolver) *GetItemHandler {
	return &GetItemHandler{resolver: resolver}
}

// Handle returns *entities.Item
func (h *GetItemHandler) Handle(ctx context.Context, q bus.Query) (interface{}, error) {
	query, ok := q.(queries.GetItemQuery)
	if !ok {
		return nil, fmt.Errorf("unexpected query type %T", q)
	}
	return h.resolver.Resolve(ctx, query.User, query.ItemID, services.OpRead)
}

// ListItemsHandler lists accessible items
type ListItemsHandler struct {
	resolver *services.ItemQueryResolver
}

func NewListItemsHandler(resolver *services.ItemQueryResolver) *ListItemsHandler {
	return &ListItemsHandler{resolver: resolver}
}

// Handle returns []*entities.Item
func (h *ListItemsHandler) Handle(ctx context.Context, q bus.Query) (interface{}, error) {
	query, ok := q.(queries.ListItemsQuery)
	if !ok {
		return nil, fmt.Errorf("unexpected query type %T", q)
	}
	return h.resolver.ListAccessible(ctx, query.User, services.ListOptions{IncludePublic: query.IncludePublic})
}
