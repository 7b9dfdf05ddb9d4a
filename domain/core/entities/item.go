package entities

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/thismakesmehappy/NewApiTest-sub000/domain/core/valueobjects"
	"github.com/thismakesmehappy/NewApiTest-sub000/domain/events"
	pkgerrors "github.com/thismakesmehappy/NewApiTest-sub000/pkg/errors"
)

// MaxMessageLength bounds the item message
const MaxMessageLength = 4000

// Item is a user-owned message with an access level. A TEAM item always
// carries a team id; other levels never do.
type Item struct {
	id          valueobjects.ItemID
	message     string
	userID      string
	teamID      string
	accessLevel valueobjects.AccessLevel
	createdBy   string
	createdAt   time.Time
	updatedAt   time.Time

	events []events.DomainEvent
}

// NewItem creates a new item owned by userID
func NewItem(
	id valueobjects.ItemID,
	userID, message string,
	level valueobjects.AccessLevel,
	teamID string,
) (*Item, error) {
	if id.IsZero() {
		id = valueobjects.NewItemID()
	}
	if strings.TrimSpace(userID) == "" {
		return nil, pkgerrors.NewValidationError("userID cannot be empty")
	}
	if err := validateMessage(message); err != nil {
		return nil, err
	}
	if err := ValidateAccessAssignment(level, teamID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	item := &Item{
		id:          id,
		message:     message,
		userID:      userID,
		teamID:      teamID,
		accessLevel: level,
		createdBy:   userID,
		createdAt:   now,
		updatedAt:   now,
	}
	item.addEvent(events.NewItemCreated(id.String(), userID, teamID, level.String(), now))
	return item, nil
}

// ReconstructItem rebuilds an item from storage with preserved timestamps
func ReconstructItem(
	id valueobjects.ItemID,
	userID, message string,
	level valueobjects.AccessLevel,
	teamID, createdBy string,
	createdAt, updatedAt time.Time,
) (*Item, error) {
	if id.IsZero() {
		return nil, pkgerrors.NewValidationError("item id cannot be empty")
	}
	if userID == "" {
		return nil, pkgerrors.NewValidationError("userID cannot be empty")
	}
	if level.IsZero() {
		level = valueobjects.AccessIndividual
	}
	if createdBy == "" {
		createdBy = userID
	}

	return &Item{
		id:          id,
		message:     message,
		userID:      userID,
		teamID:      teamID,
		accessLevel: level,
		createdBy:   createdBy,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}, nil
}

// ValidateAccessAssignment checks that the level and team id fit together
func ValidateAccessAssignment(level valueobjects.AccessLevel, teamID string) error {
	if level.IsZero() {
		return pkgerrors.NewValidationError("access level is required")
	}
	if level.IsTeam() && teamID == "" {
		return pkgerrors.NewInvalidAssignmentError("TEAM access level requires a teamId")
	}
	if !level.IsTeam() && teamID != "" {
		return pkgerrors.NewInvalidAssignmentError("teamId can only be set on TEAM items")
	}
	return nil
}

func validateMessage(message string) error {
	if strings.TrimSpace(message) == "" {
		return pkgerrors.NewValidationError("message cannot be empty")
	}
	if utf8.RuneCountInString(message) > MaxMessageLength {
		return pkgerrors.NewValidationError("message is too long")
	}
	return nil
}

func (i *Item) ID() valueobjects.ItemID               { return i.id }
func (i *Item) Message() string                       { return i.message }
func (i *Item) UserID() string                        { return i.userID }
func (i *Item) TeamID() string                        { return i.teamID }
func (i *Item) AccessLevel() valueobjects.AccessLevel { return i.accessLevel }
func (i *Item) CreatedBy() string                     { return i.createdBy }
func (i *Item) CreatedAt() time.Time                  { return i.createdAt }
func (i *Item) UpdatedAt() time.Time                  { return i.updatedAt }

// IsOwnedBy reports whether userID owns the item
func (i *Item) IsOwnedBy(userID string) bool {
	return userID != "" && i.userID == userID
}

// UpdateMessage replaces the message on behalf of editorID
func (i *Item) UpdateMessage(message, editorID string) error {
	if err := validateMessage(message); err != nil {
		return err
	}
	if message == i.message {
		return nil
	}
	i.message = message
	i.touch()
	i.addEvent(events.NewItemUpdated(i.id.String(), editorID, i.updatedAt))
	return nil
}

// ChangeAccess moves the item to another access level and team
func (i *Item) ChangeAccess(level valueobjects.AccessLevel, teamID string) error {
	if err := ValidateAccessAssignment(level, teamID); err != nil {
		return err
	}
	if level == i.accessLevel && teamID == i.teamID {
		return nil
	}
	oldLevel, oldTeam := i.accessLevel, i.teamID
	i.accessLevel = level
	i.teamID = teamID
	i.touch()
	i.addEvent(events.NewItemAccessChanged(i.id.String(), oldLevel.String(), level.String(), oldTeam, teamID, i.updatedAt))
	return nil
}

// MarkDeleted records the deletion event; storage removal happens separately
func (i *Item) MarkDeleted(deletedBy string) {
	i.addEvent(events.NewItemDeleted(i.id.String(), i.userID, deletedBy, time.Now().UTC()))
}

func (i *Item) touch() {
	now := time.Now().UTC()
	if !now.After(i.updatedAt) {
		now = i.updatedAt.Add(time.Millisecond)
	}
	i.updatedAt = now
}

func (i *Item) GetUncommittedEvents() []events.DomainEvent {
	return i.events
}

func (i *Item) MarkEventsAsCommitted() {
	i.events = nil
}

func (i *Item) addEvent(e events.DomainEvent) {
	i.events = append(i.events, e)
}
