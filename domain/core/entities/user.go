package entities

import (
	"sort"
	"time"

	"github.com/thismakesmehappy/NewApiTest-sub000/domain/core/valueobjects"
)

// User is the authenticated principal of a single request. It is built from
// identity claims plus team membership and is never persisted as a whole.
type User struct {
	id             string
	username       string
	email          string
	role           valueobjects.Role
	teamIDs        map[string]struct{}
	managedTeamIDs map[string]struct{}
}

// NewUser creates a principal with the given role and no teams
func NewUser(id, username, email string, role valueobjects.Role) *User {
	if role.IsZero() {
		role = valueobjects.RoleUser
	}
	return &User{
		id:             id,
		username:       username,
		email:          email,
		role:           role,
		teamIDs:        make(map[string]struct{}),
		managedTeamIDs: make(map[string]struct{}),
	}
}

func (u *User) ID() string                  { return u.id }
func (u *User) Username() string            { return u.username }
func (u *User) Email() string               { return u.email }
func (u *User) Role() valueobjects.Role     { return u.role }
func (u *User) IsAdmin() bool               { return u.role == valueobjects.RoleAdmin }
func (u *User) HasTeams() bool              { return len(u.teamIDs) > 0 }
func (u *User) SetRole(r valueobjects.Role) { u.role = r }

// JoinTeam records membership in a team
func (u *User) JoinTeam(teamID string) {
	if teamID == "" {
		return
	}
	u.teamIDs[teamID] = struct{}{}
}

// ManageTeam records that the user owns or administers a team. Managing
// implies membership.
func (u *User) ManageTeam(teamID string) {
	if teamID == "" {
		return
	}
	u.teamIDs[teamID] = struct{}{}
	u.managedTeamIDs[teamID] = struct{}{}
}

func (u *User) IsMemberOf(teamID string) bool {
	_, ok := u.teamIDs[teamID]
	return ok
}

func (u *User) Manages(teamID string) bool {
	_, ok := u.managedTeamIDs[teamID]
	return ok
}

// TeamIDs returns the user's teams in sorted order
func (u *User) TeamIDs() []string {
	return sortedKeys(u.teamIDs)
}

// ManagedTeamIDs returns the teams the user owns or administers, sorted
func (u *User) ManagedTeamIDs() []string {
	return sortedKeys(u.managedTeamIDs)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// UserProfile is the stored part of a user: an administratively assigned
// role that raises the role asserted by identity claims.
type UserProfile struct {
	UserID    string
	Username  string
	Email     string
	Role      valueobjects.Role
	UpdatedAt time.Time
}
