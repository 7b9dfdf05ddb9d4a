package services

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/thismakesmehappy/NewApiTest-sub000/application/ports"
	"github.com/thismakesmehappy/NewApiTest-sub000/domain/core/entities"
	"github.com/thismakesmehappy/NewApiTest-sub000/domain/core/valueobjects"
	domainservices "github.com/thismakesmehappy/NewApiTest-sub000/domain/services"
	pkgerrors "github.com/thismakesmehappy/NewApiTest-sub000/pkg/errors"
	"github.com/thismakesmehappy/NewApiTest-sub000/pkg/observability"
)

// Operation is what the caller intends to do with a resolved item
type Operation int

const (
	OpRead Operation = iota
	OpModify
	OpDelete
)

func (o Operation) String() string {
	switch o {
	case OpModify:
		return "modify"
	case OpDelete:
		return "delete"
	default:
		return "read"
	}
}

// ListOptions tunes ListAccessible
type ListOptions struct {
	// IncludePublic adds other users' PUBLIC items to a non-admin listing
	IncludePublic bool
}

// ItemQueryResolver answers which items a user may see and resolves a single
// item by id for a given operation.
type ItemQueryResolver struct {
	items      ports.ItemRepository
	authz      *domainservices.AuthorizationService
	strategies []ItemLookupStrategy
	tracer     observability.Tracer
	collector  *observability.Collector
	logger     *zap.Logger
}

// NewItemQueryResolver creates a resolver using the default lookup chain
func NewItemQueryResolver(
	items ports.ItemRepository,
	authz *domainservices.AuthorizationService,
	tracer observability.Tracer,
	collector *observability.Collector,
	logger *zap.Logger,
) *ItemQueryResolver {
	if tracer == nil {
		tracer = observability.NoopTracer{}
	}
	return &ItemQueryResolver{
		items:      items,
		authz:      authz,
		strategies: DefaultLookupChain(items),
		tracer:     tracer,
		collector:  collector,
		logger:     logger,
	}
}

// WithStrategies replaces the lookup chain
func (r *ItemQueryResolver) WithStrategies(strategies ...ItemLookupStrategy) *ItemQueryResolver {
	r.strategies = strategies
	return r
}

// Resolve finds the item by walking the lookup chain and then checks the
// predicate for op. A missing item is NOT_FOUND; a denied one is FORBIDDEN.
func (r *ItemQueryResolver) Resolve(ctx context.Context, user *entities.User, id valueobjects.ItemID, op Operation) (item *entities.Item, err error) {
	if user == nil {
		return nil, pkgerrors.NewUnauthorizedError("")
	}

	ctx, end := r.tracer.StartSpan(ctx, "ItemQueryResolver.Resolve", map[string]string{
		"operation": op.String(),
		"item_id":   id.String(),
	})
	defer func() { end(err) }()

	item, err = r.lookup(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		r.collector.RecordAuthzDecision(op.String(), "not_found")
		return nil, pkgerrors.NewNotFoundError("item")
	}

	var allowed bool
	if op == OpRead {
		allowed = r.authz.CanUserAccessItem(user, item)
	} else {
		allowed = r.authz.CanUserModifyItem(user, item)
	}

	if !allowed {
		r.collector.RecordAuthzDecision(op.String(), "deny")
		r.logger.Info("Item access denied",
			zap.String("userID", user.ID()),
			zap.String("itemID", id.String()),
			zap.String("operation", op.String()),
		)
		return nil, pkgerrors.NewForbiddenError("you do not have permission to " + op.String() + " this item")
	}

	r.collector.RecordAuthzDecision(op.String(), "allow")
	return item, nil
}

func (r *ItemQueryResolver) lookup(ctx context.Context, user *entities.User, id valueobjects.ItemID) (*entities.Item, error) {
	for _, s := range r.strategies {
		if !s.Applies(user) {
			continue
		}
		item, err := s.Lookup(ctx, user, id)
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "item lookup (%s)", s.Name())
		}
		if item != nil {
			r.collector.RecordLookup(s.Name())
			return item, nil
		}
	}
	return nil, nil
}

// ListAccessible returns every item the user may read, newest first.
//
// ADMIN gets a full scan. Everyone else gets their own items plus the TEAM
// items of each of their teams, and optionally PUBLIC items. The union is
// de-duplicated and filtered through CanUserAccessItem before sorting.
func (r *ItemQueryResolver) ListAccessible(ctx context.Context, user *entities.User, opts ListOptions) (result []*entities.Item, err error) {
	if user == nil {
		return nil, pkgerrors.NewUnauthorizedError("")
	}

	ctx, end := r.tracer.StartSpan(ctx, "ItemQueryResolver.ListAccessible", map[string]string{
		"role": user.Role().String(),
	})
	defer func() { end(err) }()

	var candidates []*entities.Item
	if user.IsAdmin() {
		all, err := r.items.ListAll(ctx)
		if err != nil {
			return nil, pkgerrors.Wrap(err, "list all items")
		}
		candidates = all
	} else {
		own, err := r.items.ListByOwner(ctx, user.ID())
		if err != nil {
			return nil, pkgerrors.Wrap(err, "list own items")
		}
		candidates = append(candidates, own...)

		for _, teamID := range user.TeamIDs() {
			teamItems, err := r.items.ListByTeam(ctx, teamID)
			if err != nil {
				return nil, pkgerrors.Wrapf(err, "list items of team %s", teamID)
			}
			candidates = append(candidates, teamItems...)
		}

		if opts.IncludePublic {
			public, err := r.items.ListPublic(ctx)
			if err != nil {
				return nil, pkgerrors.Wrap(err, "list public items")
			}
			candidates = append(candidates, public...)
		}
	}

	seen := make(map[string]struct{}, len(candidates))
	result = make([]*entities.Item, 0, len(candidates))
	for _, item := range candidates {
		key := item.ID().String()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		if !r.authz.CanUserAccessItem(user, item) {
			// store returned something outside the user's scope
			r.logger.Warn("Dropping inaccessible item from listing",
				zap.String("userID", user.ID()),
				zap.String("itemID", key),
			)
			continue
		}
		result = append(result, item)
	}

	SortByUpdatedDesc(result)
	return result, nil
}

// SortByUpdatedDesc orders items newest first, ties by id
func SortByUpdatedDesc(items []*entities.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !a.UpdatedAt().Equal(b.UpdatedAt()) {
			return a.UpdatedAt().After(b.UpdatedAt())
		}
		return a.ID().String() < b.ID().String()
	})
}
