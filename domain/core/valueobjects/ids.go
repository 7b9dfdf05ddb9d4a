package valueobjects

import (
	"errors"

	"github.com/google/uuid"
)

// ItemID is a value object representing a unique item identifier
type ItemID struct {
	value string
}

// NewItemID creates a new random ItemID
func NewItemID() ItemID {
	return ItemID{value: uuid.New().String()}
}

// NewItemIDFromString creates an ItemID from an existing string
func NewItemIDFromString(id string) (ItemID, error) {
	if id == "" {
		return ItemID{}, errors.New("item ID cannot be empty")
	}
	if !IsValidUUID(id) {
		return ItemID{}, errors.New("item ID must be a valid UUID")
	}
	return ItemID{value: id}, nil
}

func (id ItemID) String() string {
	return id.value
}

func (id ItemID) Equals(other ItemID) bool {
	return id.value == other.value
}

func (id ItemID) IsZero() bool {
	return id.value == ""
}

// NewTeamID returns a fresh team identifier
func NewTeamID() string {
	return uuid.New().String()
}

// IsValidUUID validates if a string is a valid UUID
func IsValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
