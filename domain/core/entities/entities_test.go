package entities

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thismakesmehappy/NewApiTest-sub000/domain/core/valueobjects"
	"github.com/thismakesmehappy/NewApiTest-sub000/domain/events"
	pkgerrors "github.com/thismakesmehappy/NewApiTest-sub000/pkg/errors"
)

func TestNewItem_AccessAssignment(t *testing.T) {
	tests := []struct {
		name    string
		level   valueobjects.AccessLevel
		teamID  string
		message string
		check   func(error) bool
	}{
		{"individual without team", valueobjects.AccessIndividual, "", "hello", nil},
		{"public without team", valueobjects.AccessPublic, "", "hello", nil},
		{"team with team", valueobjects.AccessTeam, "t1", "hello", nil},
		{"team without team", valueobjects.AccessTeam, "", "hello", pkgerrors.IsInvalidAssignment},
		{"individual with team", valueobjects.AccessIndividual, "t1", "hello", pkgerrors.IsInvalidAssignment},
		{"public with team", valueobjects.AccessPublic, "t1", "hello", pkgerrors.IsInvalidAssignment},
		{"blank message", valueobjects.AccessIndividual, "", "   ", pkgerrors.IsValidation},
		{"missing level", valueobjects.AccessLevel{}, "", "hello", pkgerrors.IsValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, err := NewItem(valueobjects.ItemID{}, "u1", tt.message, tt.level, tt.teamID)
			if tt.check == nil {
				require.NoError(t, err)
				assert.False(t, item.ID().IsZero())
				assert.Equal(t, "u1", item.UserID())
				assert.Equal(t, "u1", item.CreatedBy())
				assert.Equal(t, tt.level, item.AccessLevel())
				return
			}
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error type: %v", err)
		})
	}
}

func TestNewItem_RaisesCreatedEvent(t *testing.T) {
	item, err := NewItem(valueobjects.NewItemID(), "u1", "hello", valueobjects.AccessTeam, "t1")
	require.NoError(t, err)

	evts := item.GetUncommittedEvents()
	require.Len(t, evts, 1)
	assert.Equal(t, events.EventTypeItemCreated, evts[0].GetEventType())

	item.MarkEventsAsCommitted()
	assert.Empty(t, item.GetUncommittedEvents())
}

func TestItem_UpdateMessageBumpsUpdatedAt(t *testing.T) {
	past := time.Now().UTC().Add(-time.Hour)
	item, err := ReconstructItem(valueobjects.NewItemID(), "u1", "old", valueobjects.AccessIndividual, "", "", past, past)
	require.NoError(t, err)

	require.NoError(t, item.UpdateMessage("new", "u1"))

	assert.Equal(t, "new", item.Message())
	assert.True(t, item.UpdatedAt().After(past))
	assert.Equal(t, past, item.CreatedAt())
	assert.Equal(t, "u1", item.CreatedBy())
}

func TestNewItem_MessageLengthCountsCharacters(t *testing.T) {
	multiByte := strings.Repeat("é", MaxMessageLength)
	_, err := NewItem(valueobjects.NewItemID(), "u1", multiByte, valueobjects.AccessIndividual, "")
	assert.NoError(t, err, "%d two-byte characters fit the limit", MaxMessageLength)

	_, err = NewItem(valueobjects.NewItemID(), "u1", multiByte+"é", valueobjects.AccessIndividual, "")
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestItem_ChangeAccess(t *testing.T) {
	item, err := NewItem(valueobjects.NewItemID(), "u1", "hello", valueobjects.AccessIndividual, "")
	require.NoError(t, err)
	item.MarkEventsAsCommitted()

	err = item.ChangeAccess(valueobjects.AccessTeam, "")
	assert.True(t, pkgerrors.IsInvalidAssignment(err))

	require.NoError(t, item.ChangeAccess(valueobjects.AccessTeam, "t1"))
	assert.Equal(t, "t1", item.TeamID())
	require.Len(t, item.GetUncommittedEvents(), 1)
	assert.Equal(t, events.EventTypeItemAccessChanged, item.GetUncommittedEvents()[0].GetEventType())
}

func TestTeam_Predicates(t *testing.T) {
	team, err := ReconstructTeam("t1", "Core", "", "owner", []string{"member"}, []string{"admin"}, true, time.Now(), time.Now())
	require.NoError(t, err)

	tests := []struct {
		userID    string
		canAccess bool
		canManage bool
	}{
		{"owner", true, true},
		{"admin", true, true},
		{"member", true, false},
		{"stranger", false, false},
		{"", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.userID, func(t *testing.T) {
			assert.Equal(t, tt.canAccess, team.CanUserAccess(tt.userID))
			assert.Equal(t, tt.canManage, team.CanUserManage(tt.userID))
		})
	}
}

func TestTeam_MembershipChangesTouch(t *testing.T) {
	past := time.Now().UTC().Add(-time.Hour)
	team, err := ReconstructTeam("t1", "Core", "", "owner", nil, nil, true, past, past)
	require.NoError(t, err)

	require.NoError(t, team.AddMember("m1"))
	assert.True(t, team.UpdatedAt().After(past))
	assert.True(t, team.CanUserAccess("m1"))

	require.NoError(t, team.PromoteAdmin("m1"))
	assert.True(t, team.CanUserManage("m1"))

	require.NoError(t, team.DemoteAdmin("m1"))
	assert.False(t, team.CanUserManage("m1"))

	require.NoError(t, team.RemoveMember("m1"))
	assert.False(t, team.CanUserAccess("m1"))

	assert.True(t, pkgerrors.IsValidation(team.RemoveMember("owner")))
	assert.True(t, pkgerrors.IsNotFound(team.RemoveMember("ghost")))
	assert.Equal(t, []string{"owner"}, team.AllUserIDs())
}

func TestNewTeam_Validation(t *testing.T) {
	_, err := NewTeam("  ", "", "owner")
	assert.True(t, pkgerrors.IsValidation(err))

	team, err := NewTeam("Platform", "infra people", "owner")
	require.NoError(t, err)
	assert.True(t, team.IsActive())
	assert.True(t, team.CanUserManage("owner"))
}

func TestUser_ManageImpliesMembership(t *testing.T) {
	u := NewUser("u1", "alice", "a@example.com", valueobjects.RoleUser)
	u.ManageTeam("t2")
	u.JoinTeam("t1")

	assert.Equal(t, []string{"t1", "t2"}, u.TeamIDs())
	assert.Equal(t, []string{"t2"}, u.ManagedTeamIDs())
	assert.True(t, u.IsMemberOf("t2"))
	assert.False(t, u.Manages("t1"))
}
