package memory

import (
	"context"
	"sort"

	"github.com/thismakesmehappy/NewApiTest-sub000/domain/core/entities"
	pkgerrors "github.com/thismakesmehappy/NewApiTest-sub000/pkg/errors"
)

// Teams exposes the store through the TeamRepository port. Item and team
// ports share method names, so the team side lives on its own view.
func (s *Store) Teams() *TeamStore {
	return &TeamStore{s: s}
}

// TeamStore is the TeamRepository view of Store
type TeamStore struct {
	s *Store
}

func (t *TeamStore) Save(ctx context.Context, team *entities.Team) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	t.s.teams[team.ID()] = teamRecord{
		id:          team.ID(),
		name:        team.Name(),
		description: team.Description(),
		ownerID:     team.OwnerID(),
		memberIDs:   team.MemberIDs(),
		adminIDs:    team.AdminIDs(),
		active:      team.IsActive(),
		createdAt:   team.CreatedAt(),
		updatedAt:   team.UpdatedAt(),
	}
	return nil
}

func (t *TeamStore) GetByID(ctx context.Context, teamID string) (*entities.Team, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	rec, ok := t.s.teams[teamID]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("team")
	}
	return rec.toEntity()
}

func (t *TeamStore) ListByMember(ctx context.Context, userID string) ([]*entities.Team, error) {
	all, err := t.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	var out []*entities.Team
	for _, team := range all {
		if team.CanUserAccess(userID) {
			out = append(out, team)
		}
	}
	return out, nil
}

func (t *TeamStore) ListAll(ctx context.Context) ([]*entities.Team, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	ids := make([]string, 0, len(t.s.teams))
	for id := range t.s.teams {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]*entities.Team, 0, len(ids))
	for _, id := range ids {
		team, err := t.s.teams[id].toEntity()
		if err != nil {
			return nil, err
		}
		out = append(out, team)
	}
	return out, nil
}

func (r teamRecord) toEntity() (*entities.Team, error) {
	return entities.ReconstructTeam(r.id, r.name, r.description, r.ownerID, r.memberIDs, r.adminIDs, r.active, r.createdAt, r.updatedAt)
}

// GetProfile returns the stored profile of a user
func (s *Store) GetProfile(ctx context.Context, userID string) (*entities.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[userID]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("user profile")
	}
	return &p, nil
}

// SaveProfile creates or replaces a user profile
func (s *Store) SaveProfile(ctx context.Context, profile *entities.UserProfile) error {
	if profile == nil || profile.UserID == "" {
		return pkgerrors.NewValidationError("profile user id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.profiles[profile.UserID] = *profile
	return nil
}
