package events

import (
	"time"
)

// DomainEvent is the base interface for all domain events
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

const (
	EventTypeItemCreated       = "item.created"
	EventTypeItemUpdated       = "item.updated"
	EventTypeItemAccessChanged = "item.access_changed"
	EventTypeItemDeleted       = "item.deleted"
	EventTypeTeamCreated       = "team.created"
	EventTypeTeamMemberAdded   = "team.member_added"
	EventTypeTeamMemberRemoved = "team.member_removed"
)

// ItemCreated is raised when a new item is stored
type ItemCreated struct {
	BaseEvent
	ItemID      string `json:"item_id"`
	OwnerID     string `json:"owner_id"`
	TeamID      string `json:"team_id,omitempty"`
	AccessLevel string `json:"access_level"`
}

func NewItemCreated(itemID, ownerID, teamID, accessLevel string, at time.Time) ItemCreated {
	return ItemCreated{
		BaseEvent:   BaseEvent{AggregateID: itemID, EventType: EventTypeItemCreated, Timestamp: at, Version: 1},
		ItemID:      itemID,
		OwnerID:     ownerID,
		TeamID:      teamID,
		AccessLevel: accessLevel,
	}
}

// ItemUpdated is raised when an item's message changes
type ItemUpdated struct {
	BaseEvent
	ItemID    string `json:"item_id"`
	UpdatedBy string `json:"updated_by"`
}

func NewItemUpdated(itemID, updatedBy string, at time.Time) ItemUpdated {
	return ItemUpdated{
		BaseEvent: BaseEvent{AggregateID: itemID, EventType: EventTypeItemUpdated, Timestamp: at, Version: 1},
		ItemID:    itemID,
		UpdatedBy: updatedBy,
	}
}

// ItemAccessChanged is raised when the access level or team of an item changes
type ItemAccessChanged struct {
	BaseEvent
	ItemID         string `json:"item_id"`
	OldAccessLevel string `json:"old_access_level"`
	NewAccessLevel string `json:"new_access_level"`
	OldTeamID      string `json:"old_team_id,omitempty"`
	NewTeamID      string `json:"new_team_id,omitempty"`
}

func NewItemAccessChanged(itemID, oldLevel, newLevel, oldTeam, newTeam string, at time.Time) ItemAccessChanged {
	return ItemAccessChanged{
		BaseEvent:      BaseEvent{AggregateID: itemID, EventType: EventTypeItemAccessChanged, Timestamp: at, Version: 1},
		ItemID:         itemID,
		OldAccessLevel: oldLevel,
		NewAccessLevel: newLevel,
		OldTeamID:      oldTeam,
		NewTeamID:      newTeam,
	}
}

// ItemDeleted is raised after an item has been removed
type ItemDeleted struct {
	BaseEvent
	ItemID    string `json:"item_id"`
	OwnerID   string `json:"owner_id"`
	DeletedBy string `json:"deleted_by"`
}

func NewItemDeleted(itemID, ownerID, deletedBy string, at time.Time) ItemDeleted {
	return ItemDeleted{
		BaseEvent: BaseEvent{AggregateID: itemID, EventType: EventTypeItemDeleted, Timestamp: at, Version: 1},
		ItemID:    itemID,
		OwnerID:   ownerID,
		DeletedBy: deletedBy,
	}
}

// TeamCreated is raised when a team is created
type TeamCreated struct {
	BaseEvent
	TeamID  string `json:"team_id"`
	OwnerID string `json:"owner_id"`
	Name    string `json:"name"`
}

func NewTeamCreated(teamID, ownerID, name string, at time.Time) TeamCreated {
	return TeamCreated{
		BaseEvent: BaseEvent{AggregateID: teamID, EventType: EventTypeTeamCreated, Timestamp: at, Version: 1},
		TeamID:    teamID,
		OwnerID:   ownerID,
		Name:      name,
	}
}

// TeamMembershipChanged covers both member additions and removals
type TeamMembershipChanged struct {
	BaseEvent
	TeamID string `json:"team_id"`
	UserID string `json:"user_id"`
}

func NewTeamMemberAdded(teamID, userID string, at time.Time) TeamMembershipChanged {
	return TeamMembershipChanged{
		BaseEvent: BaseEvent{AggregateID: teamID, EventType: EventTypeTeamMemberAdded, Timestamp: at, Version: 1},
		TeamID:    teamID,
		UserID:    userID,
	}
}

func NewTeamMemberRemoved(teamID, userID string, at time.Time) TeamMembershipChanged {
	return TeamMembershipChanged{
		BaseEvent: BaseEvent{AggregateID: teamID, EventType: EventTypeTeamMemberRemoved, Timestamp: at, Version: 1},
		TeamID:    teamID,
		UserID:    userID,
	}
}
