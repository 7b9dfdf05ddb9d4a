package queries

import (
	"github.com/thismakesmehappy/NewApiTest-sub000/domain/core/entities"
	"github.com/thismakesmehappy/NewApiTest-sub000/domain/core/valueobjects"
	pkgerrors "github.com/thismakesmehappy/NewApiTest-sub000/pkg/errors"
)

// GetItemQuery fetches one item the user may read
type GetItemQuery struct {
	User   *entities.User
	ItemID valueobjects.ItemID
}

func (q GetItemQuery) Validate() error {
	if q.User == nil {
		return pkgerrors.NewUnauthorizedError("")
	}
	if q.ItemID.IsZero() {
		return pkgerrors.NewValidationError("item id is required")
	}
	return nil
}

// ListItemsQuery lists every item the user may read, newest first
type ListItemsQuery struct {
	User          *entities.User
	IncludePublic bool
}

func (q ListItemsQuery) Validate() error {
	if q.User == nil {
		return pkgerrors.NewUnauthorizedError("")
	}
	return nil
}
