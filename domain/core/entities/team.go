package entities

import (
	"strings"
	"time"

	"github.com/thismakesmehappy/NewApiTest-sub000/domain/core/valueobjects"
	"github.com/thismakesmehappy/NewApiTest-sub000/domain/events"
	pkgerrors "github.com/thismakesmehappy/NewApiTest-sub000/pkg/errors"
)

// Team groups users that share TEAM items. A team always has exactly one
// owner; admins and members are kept as sets.
type Team struct {
	id          string
	name        string
	description string
	ownerID     string
	memberIDs   map[string]struct{}
	adminIDs    map[string]struct{}
	active      bool
	createdAt   time.Time
	updatedAt   time.Time

	events []events.DomainEvent
}

// NewTeam creates an active team owned by ownerID
func NewTeam(name, description, ownerID string) (*Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.NewValidationError("team name cannot be empty")
	}
	if len(name) > 100 {
		return nil, pkgerrors.NewValidationError("team name cannot exceed 100 characters")
	}
	if ownerID == "" {
		return nil, pkgerrors.NewValidationError("team owner cannot be empty")
	}

	now := time.Now().UTC()
	t := &Team{
		id:          valueobjects.NewTeamID(),
		name:        name,
		description: strings.TrimSpace(description),
		ownerID:     ownerID,
		memberIDs:   make(map[string]struct{}),
		adminIDs:    make(map[string]struct{}),
		active:      true,
		createdAt:   now,
		updatedAt:   now,
	}
	t.addEvent(events.NewTeamCreated(t.id, ownerID, name, now))
	return t, nil
}

// ReconstructTeam rebuilds a team from storage
func ReconstructTeam(
	id, name, description, ownerID string,
	memberIDs, adminIDs []string,
	active bool,
	createdAt, updatedAt time.Time,
) (*Team, error) {
	if id == "" {
		return nil, pkgerrors.NewValidationError("team id cannot be empty")
	}
	if ownerID == "" {
		return nil, pkgerrors.NewValidationError("team owner cannot be empty")
	}

	t := &Team{
		id:          id,
		name:        name,
		description: description,
		ownerID:     ownerID,
		memberIDs:   toSet(memberIDs),
		adminIDs:    toSet(adminIDs),
		active:      active,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
	return t, nil
}

func (t *Team) ID() string           { return t.id }
func (t *Team) Name() string         { return t.name }
func (t *Team) Description() string  { return t.description }
func (t *Team) OwnerID() string      { return t.ownerID }
func (t *Team) IsActive() bool       { return t.active }
func (t *Team) CreatedAt() time.Time { return t.createdAt }
func (t *Team) UpdatedAt() time.Time { return t.updatedAt }
func (t *Team) MemberIDs() []string  { return sortedKeys(t.memberIDs) }
func (t *Team) AdminIDs() []string   { return sortedKeys(t.adminIDs) }

// CanUserAccess reports whether userID is the owner, an admin or a member
func (t *Team) CanUserAccess(userID string) bool {
	if userID == "" {
		return false
	}
	if t.CanUserManage(userID) {
		return true
	}
	_, ok := t.memberIDs[userID]
	return ok
}

// CanUserManage reports whether userID is the owner or an admin
func (t *Team) CanUserManage(userID string) bool {
	if userID == "" {
		return false
	}
	if t.ownerID == userID {
		return true
	}
	_, ok := t.adminIDs[userID]
	return ok
}

// AllUserIDs returns the owner, admins and members without duplicates
func (t *Team) AllUserIDs() []string {
	all := make(map[string]struct{}, len(t.memberIDs)+len(t.adminIDs)+1)
	all[t.ownerID] = struct{}{}
	for id := range t.adminIDs {
		all[id] = struct{}{}
	}
	for id := range t.memberIDs {
		all[id] = struct{}{}
	}
	return sortedKeys(all)
}

// Touch bumps the modification time
func (t *Team) Touch() {
	t.updatedAt = time.Now().UTC()
}

func (t *Team) AddMember(userID string) error {
	if userID == "" {
		return pkgerrors.NewValidationError("member id cannot be empty")
	}
	if t.CanUserAccess(userID) {
		return nil
	}
	t.memberIDs[userID] = struct{}{}
	t.Touch()
	t.addEvent(events.NewTeamMemberAdded(t.id, userID, t.updatedAt))
	return nil
}

// RemoveMember drops a member or admin. The owner cannot be removed.
func (t *Team) RemoveMember(userID string) error {
	if userID == t.ownerID {
		return pkgerrors.NewValidationError("team owner cannot be removed")
	}
	_, isMember := t.memberIDs[userID]
	_, isAdmin := t.adminIDs[userID]
	if !isMember && !isAdmin {
		return pkgerrors.NewNotFoundError("team member")
	}
	delete(t.memberIDs, userID)
	delete(t.adminIDs, userID)
	t.Touch()
	t.addEvent(events.NewTeamMemberRemoved(t.id, userID, t.updatedAt))
	return nil
}

// PromoteAdmin turns a member into an admin
func (t *Team) PromoteAdmin(userID string) error {
	if userID == t.ownerID {
		return nil
	}
	if _, ok := t.memberIDs[userID]; !ok {
		if _, isAdmin := t.adminIDs[userID]; isAdmin {
			return nil
		}
		return pkgerrors.NewNotFoundError("team member")
	}
	delete(t.memberIDs, userID)
	t.adminIDs[userID] = struct{}{}
	t.Touch()
	return nil
}

// DemoteAdmin turns an admin back into a plain member
func (t *Team) DemoteAdmin(userID string) error {
	if _, ok := t.adminIDs[userID]; !ok {
		return pkgerrors.NewNotFoundError("team admin")
	}
	delete(t.adminIDs, userID)
	t.memberIDs[userID] = struct{}{}
	t.Touch()
	return nil
}

func (t *Team) Deactivate() {
	if !t.active {
		return
	}
	t.active = false
	t.Touch()
}

func (t *Team) GetUncommittedEvents() []events.DomainEvent {
	return t.events
}

func (t *Team) MarkEventsAsCommitted() {
	t.events = nil
}

func (t *Team) addEvent(e events.DomainEvent) {
	t.events = append(t.events, e)
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id != "" {
			set[id] = struct{}{}
		}
	}
	return set
}
