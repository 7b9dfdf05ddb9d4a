package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/thismakesmehappy/NewApiTest-sub000/application/ports/mocks"
	"github.com/thismakesmehappy/NewApiTest-sub000/domain/core/valueobjects"
	"github.com/thismakesmehappy/NewApiTest-sub000/domain/events"
	domainservices "github.com/thismakesmehappy/NewApiTest-sub000/domain/services"
	"github.com/thismakesmehappy/NewApiTest-sub000/infrastructure/persistence/memory"
	pkgerrors "github.com/thismakesmehappy/NewApiTest-sub000/pkg/errors"
)

func TestTeamService_CreateAndManage(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	publisher := new(mocks.MockEventPublisher)
	publisher.On("PublishBatch", mock.Anything, mock.Anything).Return(nil)

	svc := NewTeamService(store.Teams(), domainservices.NewAuthorizationService(), publisher, zap.NewNop())
	owner := userWithTeams("owner", valueobjects.RoleUser)

	team, err := svc.Create(ctx, owner, "Platform", "infra folks")
	require.NoError(t, err)
	assert.Equal(t, "owner", team.OwnerID())
	assert.Empty(t, team.GetUncommittedEvents())

	team, err = svc.AddMember(ctx, owner, team.ID(), "bob", false)
	require.NoError(t, err)
	assert.True(t, team.CanUserAccess("bob"))
	assert.False(t, team.CanUserManage("bob"))

	team, err = svc.PromoteAdmin(ctx, owner, team.ID(), "bob")
	require.NoError(t, err)
	assert.True(t, team.CanUserManage("bob"))

	// bob now manages the team and can add others
	bob := userWithTeams("bob", valueobjects.RoleUser)
	_, err = svc.AddMember(ctx, bob, team.ID(), "carol", true)
	require.NoError(t, err)

	stored, err := store.Teams().GetByID(ctx, team.ID())
	require.NoError(t, err)
	assert.True(t, stored.CanUserManage("carol"))

	publisher.AssertCalled(t, "PublishBatch", mock.Anything, mock.MatchedBy(func(evts []events.DomainEvent) bool {
		return len(evts) > 0 && evts[0].GetEventType() == events.EventTypeTeamCreated
	}))
}

func TestTeamService_Permissions(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewTeamService(store.Teams(), domainservices.NewAuthorizationService(), nil, zap.NewNop())

	owner := userWithTeams("owner", valueobjects.RoleUser)
	team, err := svc.Create(ctx, owner, "Core", "")
	require.NoError(t, err)
	_, err = svc.AddMember(ctx, owner, team.ID(), "member", false)
	require.NoError(t, err)

	member := userWithTeams("member", valueobjects.RoleUser)
	stranger := userWithTeams("stranger", valueobjects.RoleUser)
	admin := userWithTeams("root", valueobjects.RoleAdmin)

	_, err = svc.Get(ctx, member, team.ID())
	assert.NoError(t, err)
	_, err = svc.Get(ctx, stranger, team.ID())
	assert.True(t, pkgerrors.IsForbidden(err))
	_, err = svc.Get(ctx, admin, team.ID())
	assert.NoError(t, err)
	_, err = svc.Get(ctx, member, "missing")
	assert.True(t, pkgerrors.IsNotFound(err))

	_, err = svc.AddMember(ctx, member, team.ID(), "stranger", false)
	assert.True(t, pkgerrors.IsForbidden(err))

	_, err = svc.RemoveMember(ctx, owner, team.ID(), "owner")
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = svc.RemoveMember(ctx, admin, team.ID(), "member")
	assert.NoError(t, err)
}

func TestTeamService_ListMine(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewTeamService(store.Teams(), domainservices.NewAuthorizationService(), nil, zap.NewNop())

	alice := userWithTeams("alice", valueobjects.RoleUser)
	_, err := svc.Create(ctx, alice, "A", "")
	require.NoError(t, err)
	_, err = svc.Create(ctx, userWithTeams("bob", valueobjects.RoleUser), "B", "")
	require.NoError(t, err)

	mine, err := svc.ListMine(ctx, alice)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "A", mine[0].Name())

	all, err := svc.ListMine(ctx, userWithTeams("root", valueobjects.RoleAdmin))
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestTeamService_PublishFailureDoesNotFailWrite(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	publisher := new(mocks.MockEventPublisher)
	publisher.On("PublishBatch", mock.Anything, mock.Anything).Return(errors.New("bus down"))

	svc := NewTeamService(store.Teams(), domainservices.NewAuthorizationService(), publisher, zap.NewNop())
	team, err := svc.Create(ctx, userWithTeams("owner", valueobjects.RoleUser), "Core", "")
	require.NoError(t, err)

	_, err = store.Teams().GetByID(ctx, team.ID())
	assert.NoError(t, err)
}
