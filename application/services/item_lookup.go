package services

import (
	"context"

	"github.com/thismakesmehappy/NewApiTest-sub000/application/ports"
	"github.com/thismakesmehappy/NewApiTest-sub000/domain/core/entities"
	"github.com/thismakesmehappy/NewApiTest-sub000/domain/core/valueobjects"
	pkgerrors "github.com/thismakesmehappy/NewApiTest-sub000/pkg/errors"
)

// ItemLookupStrategy is one step of the id lookup chain. A miss is reported
// as (nil, nil); errors are reserved for store failures.
type ItemLookupStrategy interface {
	Name() string
	Applies(user *entities.User) bool
	Lookup(ctx context.Context, user *entities.User, id valueobjects.ItemID) (*entities.Item, error)
}

// DefaultLookupChain returns the strategies in escalating scope:
// own partition, then the user's teams, then a full scan for ADMIN.
func DefaultLookupChain(items ports.ItemRepository) []ItemLookupStrategy {
	return []ItemLookupStrategy{
		&OwnPartitionStrategy{items: items},
		&TeamScopeStrategy{items: items},
		&AdminScanStrategy{items: items},
	}
}

// OwnPartitionStrategy looks in the requesting user's own partition
type OwnPartitionStrategy struct {
	items ports.ItemRepository
}

func (s *OwnPartitionStrategy) Name() string { return "own_partition" }

func (s *OwnPartitionStrategy) Applies(user *entities.User) bool {
	return user != nil && user.ID() != ""
}

func (s *OwnPartitionStrategy) Lookup(ctx context.Context, user *entities.User, id valueobjects.ItemID) (*entities.Item, error) {
	return missAsNil(s.items.GetByOwner(ctx, user.ID(), id))
}

// TeamScopeStrategy looks for a TEAM item in each of the user's teams
type TeamScopeStrategy struct {
	items ports.ItemRepository
}

func (s *TeamScopeStrategy) Name() string { return "team_scope" }

func (s *TeamScopeStrategy) Applies(user *entities.User) bool {
	return user != nil && user.HasTeams()
}

func (s *TeamScopeStrategy) Lookup(ctx context.Context, user *entities.User, id valueobjects.ItemID) (*entities.Item, error) {
	for _, teamID := range user.TeamIDs() {
		item, err := missAsNil(s.items.FindTeamItem(ctx, teamID, id))
		if err != nil {
			return nil, err
		}
		if item != nil {
			return item, nil
		}
	}
	return nil, nil
}

// AdminScanStrategy searches every partition; only ADMIN gets this far
type AdminScanStrategy struct {
	items ports.ItemRepository
}

func (s *AdminScanStrategy) Name() string { return "admin_scan" }

func (s *AdminScanStrategy) Applies(user *entities.User) bool {
	return user != nil && user.IsAdmin()
}

func (s *AdminScanStrategy) Lookup(ctx context.Context, _ *entities.User, id valueobjects.ItemID) (*entities.Item, error) {
	return missAsNil(s.items.FindByID(ctx, id))
}

func missAsNil(item *entities.Item, err error) (*entities.Item, error) {
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return item, nil
}
