package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/thismakesmehappy/NewApiTest-sub000/domain/core/entities"
	"github.com/thismakesmehappy/NewApiTest-sub000/domain/core/valueobjects"
	pkgerrors "github.com/thismakesmehappy/NewApiTest-sub000/pkg/errors"
)

type itemRecord struct {
	id          valueobjects.ItemID
	ownerID     string
	message     string
	teamID      string
	accessLevel valueobjects.AccessLevel
	createdBy   string
	createdAt   time.Time
	updatedAt   time.Time
}

type teamRecord struct {
	id, name, description, ownerID string
	memberIDs, adminIDs            []string
	active                         bool
	createdAt, updatedAt           time.Time
}

type keyRecord struct {
	id, userID, name, prefix, hash string
	createdAt                      time.Time
	lastUsedAt                     *time.Time
	revoked                        bool
}

// Store is an in-memory implementation of every repository port. Entities are
// copied in and out so callers never share state with the store.
type Store struct {
	mu       sync.RWMutex
	items    map[string]map[string]itemRecord // owner -> item id -> record
	teams    map[string]teamRecord
	profiles map[string]entities.UserProfile
	keys     map[string]keyRecord // key id -> record
	keyHash  map[string]string    // hash -> key id
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{
		items:    make(map[string]map[string]itemRecord),
		teams:    make(map[string]teamRecord),
		profiles: make(map[string]entities.UserProfile),
		keys:     make(map[string]keyRecord),
		keyHash:  make(map[string]string),
	}
}

// Ping always succeeds
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func toItemRecord(item *entities.Item) itemRecord {
	return itemRecord{
		id:          item.ID(),
		ownerID:     item.UserID(),
		message:     item.Message(),
		teamID:      item.TeamID(),
		accessLevel: item.AccessLevel(),
		createdBy:   item.CreatedBy(),
		createdAt:   item.CreatedAt(),
		updatedAt:   item.UpdatedAt(),
	}
}

func (r itemRecord) toEntity() *entities.Item {
	item, _ := entities.ReconstructItem(r.id, r.ownerID, r.message, r.accessLevel, r.teamID, r.createdBy, r.createdAt, r.updatedAt)
	return item
}

// Create stores a new item
func (s *Store) Create(ctx context.Context, item *entities.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, partition := range s.items {
		if _, exists := partition[item.ID().String()]; exists {
			return pkgerrors.NewConflictError("item already exists")
		}
	}

	partition, ok := s.items[item.UserID()]
	if !ok {
		partition = make(map[string]itemRecord)
		s.items[item.UserID()] = partition
	}
	partition[item.ID().String()] = toItemRecord(item)
	return nil
}

// Update replaces an existing item
func (s *Store) Update(ctx context.Context, item *entities.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	partition := s.items[item.UserID()]
	if _, exists := partition[item.ID().String()]; !exists {
		return pkgerrors.NewNotFoundError("item")
	}
	partition[item.ID().String()] = toItemRecord(item)
	return nil
}

// Delete removes an item from its owner's partition
func (s *Store) Delete(ctx context.Context, ownerID string, id valueobjects.ItemID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	partition := s.items[ownerID]
	if _, exists := partition[id.String()]; !exists {
		return pkgerrors.NewNotFoundError("item")
	}
	delete(partition, id.String())
	return nil
}

// GetByOwner retrieves an item from the owner's partition
func (s *Store) GetByOwner(ctx context.Context, ownerID string, id valueobjects.ItemID) (*entities.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.items[ownerID][id.String()]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("item")
	}
	return rec.toEntity(), nil
}

// FindTeamItem retrieves a TEAM item through its team
func (s *Store) FindTeamItem(ctx context.Context, teamID string, id valueobjects.ItemID) (*entities.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, partition := range s.items {
		if rec, ok := partition[id.String()]; ok && rec.accessLevel.IsTeam() && rec.teamID == teamID {
			return rec.toEntity(), nil
		}
	}
	return nil, pkgerrors.NewNotFoundError("item")
}

// FindByID searches every partition
func (s *Store) FindByID(ctx context.Context, id valueobjects.ItemID) (*entities.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, partition := range s.items {
		if rec, ok := partition[id.String()]; ok {
			return rec.toEntity(), nil
		}
	}
	return nil, pkgerrors.NewNotFoundError("item")
}

func (s *Store) ListByOwner(ctx context.Context, ownerID string) ([]*entities.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return collectItems(s.items[ownerID], nil), nil
}

func (s *Store) ListByTeam(ctx context.Context, teamID string) ([]*entities.Item, error) {
	return s.filterItems(func(r itemRecord) bool {
		return r.accessLevel.IsTeam() && r.teamID == teamID
	}), nil
}

func (s *Store) ListPublic(ctx context.Context) ([]*entities.Item, error) {
	return s.filterItems(func(r itemRecord) bool {
		return r.accessLevel.IsPublic()
	}), nil
}

func (s *Store) ListAll(ctx context.Context) ([]*entities.Item, error) {
	return s.filterItems(nil), nil
}

func (s *Store) filterItems(keep func(itemRecord) bool) []*entities.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*entities.Item
	for _, partition := range s.items {
		out = append(out, collectItems(partition, keep)...)
	}
	return out
}

func collectItems(partition map[string]itemRecord, keep func(itemRecord) bool) []*entities.Item {
	ids := make([]string, 0, len(partition))
	for id := range partition {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]*entities.Item, 0, len(ids))
	for _, id := range ids {
		rec := partition[id]
		if keep == nil || keep(rec) {
			out = append(out, rec.toEntity())
		}
	}
	return out
}
