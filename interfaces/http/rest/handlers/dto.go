package handlers

import (
	"time"

	"github.com/thismakesmehappy/NewApiTest-sub000/domain/core/entities"
)

// ItemResponse is the wire shape of an item
type ItemResponse struct {
	ID          string    `json:"id"`
	Message     string    `json:"message"`
	UserID      string    `json:"userId"`
	TeamID      string    `json:"teamId,omitempty"`
	AccessLevel string    `json:"accessLevel"`
	CreatedBy   string    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toItemResponse(item *entities.Item) ItemResponse {
	return ItemResponse{
		ID:          item.ID().String(),
		Message:     item.Message(),
		UserID:      item.UserID(),
		TeamID:      item.TeamID(),
		AccessLevel: item.AccessLevel().String(),
		CreatedBy:   item.CreatedBy(),
		CreatedAt:   item.CreatedAt(),
		UpdatedAt:   item.UpdatedAt(),
	}
}

func toItemResponses(items []*entities.Item) []ItemResponse {
	out := make([]ItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toItemResponse(item))
	}
	return out
}

// TeamResponse is the wire shape of a team
type TeamResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	OwnerID     string    `json:"ownerId"`
	MemberIDs   []string  `json:"memberIds"`
	AdminIDs    []string  `json:"adminIds"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toTeamResponse(team *entities.Team) TeamResponse {
	return TeamResponse{
		ID:          team.ID(),
		Name:        team.Name(),
		Description: team.Description(),
		OwnerID:     team.OwnerID(),
		MemberIDs:   team.MemberIDs(),
		AdminIDs:    team.AdminIDs(),
		Active:      team.IsActive(),
		CreatedAt:   team.CreatedAt(),
		UpdatedAt:   team.UpdatedAt(),
	}
}

// KeyResponse never carries the secret; Key is set only on creation
type KeyResponse struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Prefix     string     `json:"prefix"`
	CreatedAt  time.Time  `json:"createdAt"`
	LastUsedAt *time.Time `json:"lastUsedAt,omitempty"`
	Revoked    bool       `json:"revoked"`
	Key        string     `json:"key,omitempty"`
}

func toKeyResponse(key *entities.DeveloperKey) KeyResponse {
	return KeyResponse{
		ID:         key.ID(),
		Name:       key.Name(),
		Prefix:     key.Prefix(),
		CreatedAt:  key.CreatedAt(),
		LastUsedAt: key.LastUsedAt(),
		Revoked:    key.IsRevoked(),
	}
}

// MeResponse describes the resolved principal
type MeResponse struct {
	UserID         string   `json:"userId"`
	Username       string   `json:"username,omitempty"`
	Email          string   `json:"email,omitempty"`
	Role           string   `json:"role"`
	TeamIDs        []string `json:"teamIds"`
	ManagedTeamIDs []string `json:"managedTeamIds"`
	AuthMethod     string   `json:"authMethod,omitempty"`
}
