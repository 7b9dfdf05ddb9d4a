package ports

import (
	"context"

	"github.com/thismakesmehappy/NewApiTest-sub000/domain/core/entities"
	"github.com/thismakesmehappy/NewApiTest-sub000/domain/core/valueobjects"
	"github.com/thismakesmehappy/NewApiTest-sub000/domain/events"
)

// ItemRepository defines item persistence. Items live in their owner's
// partition; TEAM items are additionally reachable through their team.
//
// Lookups return a NOT_FOUND AppError when nothing matches.
type ItemRepository interface {
	// Create stores a new item; fails with CONFLICT if the id is taken
	Create(ctx context.Context, item *entities.Item) error

	// Update overwrites an existing item; NOT_FOUND if it vanished meanwhile
	Update(ctx context.Context, item *entities.Item) error

	// Delete removes an item from its owner's partition; NOT_FOUND if absent
	Delete(ctx context.Context, ownerID string, id valueobjects.ItemID) error

	// GetByOwner looks the item up in the owner's partition
	GetByOwner(ctx context.Context, ownerID string, id valueobjects.ItemID) (*entities.Item, error)

	// FindTeamItem looks up a TEAM item through its team
	FindTeamItem(ctx context.Context, teamID string, id valueobjects.ItemID) (*entities.Item, error)

	// FindByID searches every partition
	FindByID(ctx context.Context, id valueobjects.ItemID) (*entities.Item, error)

	// ListByOwner returns every item the user owns
	ListByOwner(ctx context.Context, ownerID string) ([]*entities.Item, error)

	// ListByTeam returns the TEAM items associated with a team
	ListByTeam(ctx context.Context, teamID string) ([]*entities.Item, error)

	// ListPublic returns every PUBLIC item
	ListPublic(ctx context.Context) ([]*entities.Item, error)

	// ListAll returns every item in the store
	ListAll(ctx context.Context) ([]*entities.Item, error)
}

// TeamRepository defines team persistence
type TeamRepository interface {
	// Save creates or replaces a team and its membership index
	Save(ctx context.Context, team *entities.Team) error

	// GetByID retrieves a team
	GetByID(ctx context.Context, teamID string) (*entities.Team, error)

	// ListByMember returns teams where the user is owner, admin or member
	ListByMember(ctx context.Context, userID string) ([]*entities.Team, error)

	// ListAll returns every team
	ListAll(ctx context.Context) ([]*entities.Team, error)
}

// UserProfileRepository stores administratively assigned roles
type UserProfileRepository interface {
	GetProfile(ctx context.Context, userID string) (*entities.UserProfile, error)
	SaveProfile(ctx context.Context, profile *entities.UserProfile) error
}

// DeveloperKeyRepository stores hashed developer keys
type DeveloperKeyRepository interface {
	// Create stores the key under its owner and its hash lookup
	Create(ctx context.Context, key *entities.DeveloperKey) error

	// GetByHash resolves a presented key by its hash
	GetByHash(ctx context.Context, hash string) (*entities.DeveloperKey, error)

	// Get returns one key of a user
	Get(ctx context.Context, userID, keyID string) (*entities.DeveloperKey, error)

	// ListByUser returns all keys of a user, revoked ones included
	ListByUser(ctx context.Context, userID string) ([]*entities.DeveloperKey, error)

	// Revoke marks the key revoked and drops its hash lookup
	Revoke(ctx context.Context, key *entities.DeveloperKey) error

	// TouchLastUsed records a successful authentication
	TouchLastUsed(ctx context.Context, key *entities.DeveloperKey) error
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// HealthChecker is implemented by stores that can report readiness
type HealthChecker interface {
	Ping(ctx context.Context) error
}
