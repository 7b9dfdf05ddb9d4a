package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thismakesmehappy/NewApiTest-sub000/domain/core/entities"
	"github.com/thismakesmehappy/NewApiTest-sub000/domain/core/valueobjects"
)

func newItem(t *testing.T, owner string, level valueobjects.AccessLevel, teamID string) *entities.Item {
	t.Helper()
	item, err := entities.NewItem(valueobjects.NewItemID(), owner, "message", level, teamID)
	require.NoError(t, err)
	return item
}

func newUser(id string, role valueobjects.Role, teams ...string) *entities.User {
	u := entities.NewUser(id, id, id+"@example.com", role)
	for _, t := range teams {
		u.JoinTeam(t)
	}
	return u
}

func TestCanUserAccessItem(t *testing.T) {
	svc := NewAuthorizationService()

	individual := newItem(t, "alice", valueobjects.AccessIndividual, "")
	teamItem := newItem(t, "alice", valueobjects.AccessTeam, "T")
	public := newItem(t, "alice", valueobjects.AccessPublic, "")

	alice := newUser("alice", valueobjects.RoleUser)
	bob := newUser("bob", valueobjects.RoleUser, "T")
	carol := newUser("carol", valueobjects.RoleUser)
	dave := newUser("dave", valueobjects.RoleUser, "OTHER")
	root := newUser("root", valueobjects.RoleAdmin)

	tests := []struct {
		name string
		user *entities.User
		item *entities.Item
		want bool
	}{
		{"owner reads individual", alice, individual, true},
		{"stranger cannot read individual", carol, individual, false},
		{"team member cannot read individual", bob, individual, false},
		{"team member reads team item", bob, teamItem, true},
		{"member of other team cannot read team item", dave, teamItem, false},
		{"stranger reads public", carol, public, true},
		{"admin reads individual", root, individual, true},
		{"admin reads team item", root, teamItem, true},
		{"nil user", nil, individual, false},
		{"nil item", alice, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, svc.CanUserAccessItem(tt.user, tt.item))
			// pure: second call gives the same answer
			assert.Equal(t, tt.want, svc.CanUserAccessItem(tt.user, tt.item))
		})
	}
}

func TestCanUserModifyItem(t *testing.T) {
	svc := NewAuthorizationService()

	teamItem := newItem(t, "alice", valueobjects.AccessTeam, "T")
	public := newItem(t, "alice", valueobjects.AccessPublic, "")
	individual := newItem(t, "alice", valueobjects.AccessIndividual, "")

	bob := newUser("bob", valueobjects.RoleUser, "T")
	teamAdminRole := newUser("tara", valueobjects.RoleTeamAdmin, "T")
	teamAdminElsewhere := newUser("tom", valueobjects.RoleTeamAdmin, "OTHER")
	manager := newUser("mia", valueobjects.RoleUser)
	manager.ManageTeam("T")
	carol := newUser("carol", valueobjects.RoleUser)
	root := newUser("root", valueobjects.RoleAdmin)
	alice := newUser("alice", valueobjects.RoleUser)

	tests := []struct {
		name string
		user *entities.User
		item *entities.Item
		want bool
	}{
		{"owner modifies team item", alice, teamItem, true},
		{"owner modifies public", alice, public, true},
		{"owner modifies individual", alice, individual, true},
		{"plain member cannot modify team item", bob, teamItem, false},
		{"TEAM_ADMIN member modifies team item", teamAdminRole, teamItem, true},
		{"TEAM_ADMIN of another team cannot modify", teamAdminElsewhere, teamItem, false},
		{"team manager modifies team item", manager, teamItem, true},
		{"public grants no modify", carol, public, false},
		{"TEAM_ADMIN cannot modify foreign public", teamAdminRole, public, false},
		{"admin modifies anything", root, individual, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, svc.CanUserModifyItem(tt.user, tt.item))
		})
	}
}

func TestIndividualItem_OnlyOwnerReads(t *testing.T) {
	svc := NewAuthorizationService()
	alice := newUser("alice", valueobjects.RoleUser)
	bob := newUser("bob", valueobjects.RoleUser)
	x := newItem(t, "alice", valueobjects.AccessIndividual, "")

	assert.True(t, svc.CanUserAccessItem(alice, x))
	assert.False(t, svc.CanUserAccessItem(bob, x))
}

func TestTeamItem_MembersReadTeamAdminsModify(t *testing.T) {
	svc := NewAuthorizationService()
	team, err := entities.ReconstructTeam("T", "team", "", "alice", []string{"bob"}, nil, true, time.Now(), time.Now())
	require.NoError(t, err)
	y := newItem(t, "alice", valueobjects.AccessTeam, "T")

	bob := newUser("bob", valueobjects.RoleUser, "T")
	assert.True(t, svc.CanUserAccessItem(bob, y))
	assert.False(t, svc.CanUserModifyItem(bob, y))

	require.NoError(t, team.PromoteAdmin("bob"))
	promoted := newUser("bob", valueobjects.RoleUser)
	if team.CanUserManage("bob") {
		promoted.ManageTeam("T")
	}
	assert.True(t, svc.CanUserModifyItem(promoted, y))
}

func TestPublicItem_ReadableNotModifiable(t *testing.T) {
	svc := NewAuthorizationService()
	carol := newUser("carol", valueobjects.RoleUser)
	z := newItem(t, "alice", valueobjects.AccessPublic, "")

	assert.True(t, svc.CanUserAccessItem(carol, z))
	assert.False(t, svc.CanUserModifyItem(carol, z))
}

func TestIsValidTeamAssignment(t *testing.T) {
	svc := NewAuthorizationService()

	assert.True(t, svc.IsValidTeamAssignment(newUser("u", valueobjects.RoleUser, "T1"), "T1"))
	assert.False(t, svc.IsValidTeamAssignment(newUser("u", valueobjects.RoleUser, "T1"), "T2"))
	assert.True(t, svc.IsValidTeamAssignment(newUser("root", valueobjects.RoleAdmin), "T2"))
	assert.False(t, svc.IsValidTeamAssignment(newUser("u", valueobjects.RoleUser, "T1"), ""))
	assert.False(t, svc.IsValidTeamAssignment(nil, "T1"))
}

func TestCreateUserFromJWT(t *testing.T) {
	svc := NewAuthorizationService()

	u := svc.CreateUserFromJWT("sub-1", "alice", "alice@example.com")

	assert.Equal(t, "sub-1", u.ID())
	assert.Equal(t, "alice", u.Username())
	assert.Equal(t, "alice@example.com", u.Email())
	assert.Equal(t, valueobjects.RoleUser, u.Role())
	assert.Empty(t, u.TeamIDs())
}

func TestTeamPermissions(t *testing.T) {
	svc := NewAuthorizationService()
	team, err := entities.ReconstructTeam("T", "team", "", "owner", []string{"member"}, []string{"admin"}, true, time.Now(), time.Now())
	require.NoError(t, err)

	assert.True(t, svc.CanUserManageTeam(newUser("owner", valueobjects.RoleUser), team))
	assert.True(t, svc.CanUserManageTeam(newUser("admin", valueobjects.RoleUser), team))
	assert.False(t, svc.CanUserManageTeam(newUser("member", valueobjects.RoleUser), team))
	assert.True(t, svc.CanUserManageTeam(newUser("root", valueobjects.RoleAdmin), team))

	assert.True(t, svc.CanUserViewTeam(newUser("member", valueobjects.RoleUser), team))
	assert.False(t, svc.CanUserViewTeam(newUser("stranger", valueobjects.RoleUser), team))
}
