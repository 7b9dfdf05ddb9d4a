package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/thismakesmehappy/NewApiTest-sub000/domain/core/entities"
	"github.com/thismakesmehappy/NewApiTest-sub000/domain/core/valueobjects"
	pkgerrors "github.com/thismakesmehappy/NewApiTest-sub000/pkg/errors"
	"github.com/thismakesmehappy/NewApiTest-sub000/pkg/observability"
)

var testConfig = Config{TableName: "items-test", IndexName: "GSI1"}

func newItem(t *testing.T, owner string, level valueobjects.AccessLevel, team string) *entities.Item {
	t.Helper()
	item, err := entities.NewItem(valueobjects.NewItemID(), owner, "message from "+owner, level, team)
	require.NoError(t, err)
	return item
}

func TestItemRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	fake := newFakeTable()
	repo := NewItemRepository(fake, testConfig, observability.NewCollector("test"), zap.NewNop())

	item := newItem(t, "alice", valueobjects.AccessIndividual, "")
	require.NoError(t, repo.Create(ctx, item))

	err := repo.Create(ctx, item)
	assert.True(t, pkgerrors.IsConflict(err), "got %v", err)

	got, err := repo.GetByOwner(ctx, "alice", item.ID())
	require.NoError(t, err)
	assert.Equal(t, item.ID(), got.ID())
	assert.Equal(t, item.Message(), got.Message())
	assert.True(t, item.CreatedAt().Equal(got.CreatedAt()))

	_, err = repo.GetByOwner(ctx, "bob", item.ID())
	assert.True(t, pkgerrors.IsNotFound(err))

	require.NoError(t, got.UpdateMessage("edited", "alice"))
	require.NoError(t, repo.Update(ctx, got))

	require.NoError(t, repo.Delete(ctx, "alice", item.ID()))
	assert.True(t, pkgerrors.IsNotFound(repo.Delete(ctx, "alice", item.ID())))
	assert.True(t, pkgerrors.IsNotFound(repo.Update(ctx, got)), "update of a vanished item must be NOT_FOUND")
}

func TestItemRepository_OwnerReadsAreConsistent(t *testing.T) {
	ctx := context.Background()
	fake := newFakeTable()
	repo := NewItemRepository(fake, testConfig, observability.NewCollector("test"), zap.NewNop())

	item := newItem(t, "alice", valueobjects.AccessIndividual, "")
	require.NoError(t, repo.Create(ctx, item))

	got, err := repo.GetByOwner(ctx, "alice", item.ID())
	require.NoError(t, err)
	assert.Equal(t, item.ID(), got.ID())
	require.Len(t, fake.gets, 1)
	assert.True(t, aws.ToBool(fake.gets[0].ConsistentRead), "GetItem after a write must be strongly consistent")

	_, err = repo.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	require.NotEmpty(t, fake.queries)
	assert.True(t, aws.ToBool(fake.queries[len(fake.queries)-1].ConsistentRead))
}

func TestItemRepository_TeamIndex(t *testing.T) {
	ctx := context.Background()
	fake := newFakeTable()
	repo := NewItemRepository(fake, testConfig, nil, zap.NewNop())

	teamItem := newItem(t, "alice", valueobjects.AccessTeam, "T1")
	private := newItem(t, "alice", valueobjects.AccessIndividual, "")
	otherTeam := newItem(t, "bob", valueobjects.AccessTeam, "T2")
	for _, it := range []*entities.Item{teamItem, private, otherTeam} {
		require.NoError(t, repo.Create(ctx, it))
	}

	row := fake.row(BuildUserPK("alice"), BuildItemSK(private.ID().String()))
	assert.NotContains(t, row, attrGSI1PK, "non-team items stay out of the team index")

	found, err := repo.FindTeamItem(ctx, "T1", teamItem.ID())
	require.NoError(t, err)
	assert.Equal(t, "alice", found.UserID())

	_, err = repo.FindTeamItem(ctx, "T2", teamItem.ID())
	assert.True(t, pkgerrors.IsNotFound(err))

	listed, err := repo.ListByTeam(ctx, "T1")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, teamItem.ID(), listed[0].ID())
	assert.Equal(t, "GSI1", aws.ToString(fake.queries[len(fake.queries)-1].IndexName))

	// moving the item to INDIVIDUAL drops it from the index
	require.NoError(t, found.ChangeAccess(valueobjects.AccessIndividual, ""))
	require.NoError(t, repo.Update(ctx, found))
	listed, err = repo.ListByTeam(ctx, "T1")
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestItemRepository_ListsFollowPages(t *testing.T) {
	ctx := context.Background()
	fake := newFakeTable()
	fake.pageSize = 2
	repo := NewItemRepository(fake, testConfig, nil, zap.NewNop())

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, newItem(t, "alice", valueobjects.AccessIndividual, "")))
	}
	require.NoError(t, repo.Create(ctx, newItem(t, "bob", valueobjects.AccessPublic, "")))

	owned, err := repo.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, owned, 5)
	assert.GreaterOrEqual(t, len(fake.queries), 3)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 6)

	public, err := repo.ListPublic(ctx)
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, "bob", public[0].UserID())

	found, err := repo.FindByID(ctx, public[0].ID())
	require.NoError(t, err)
	assert.Equal(t, "bob", found.UserID())

	_, err = repo.FindByID(ctx, valueobjects.NewItemID())
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestItemRepository_StoreFailure(t *testing.T) {
	fake := newFakeTable()
	fake.failWith = errors.New("connection reset")
	repo := NewItemRepository(fake, testConfig, nil, zap.NewNop())

	_, err := repo.GetByOwner(context.Background(), "alice", valueobjects.NewItemID())
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeDatabase))
	assert.False(t, pkgerrors.IsNotFound(err))

	assert.Error(t, repo.Ping(context.Background()))
}

func TestTeamRepository_MembershipIndex(t *testing.T) {
	ctx := context.Background()
	fake := newFakeTable()
	repo := NewTeamRepository(fake, testConfig, nil, zap.NewNop())

	team, err := entities.NewTeam("Platform", "", "owner")
	require.NoError(t, err)
	require.NoError(t, team.AddMember("alice"))
	require.NoError(t, team.AddMember("bob"))
	require.NoError(t, repo.Save(ctx, team))

	assert.NotNil(t, fake.row(BuildUserPK("bob"), BuildTeamPK(team.ID())))

	teams, err := repo.ListByMember(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, teams, 1)
	assert.Equal(t, "Platform", teams[0].Name())

	require.NoError(t, team.RemoveMember("bob"))
	require.NoError(t, repo.Save(ctx, team))
	assert.Nil(t, fake.row(BuildUserPK("bob"), BuildTeamPK(team.ID())), "membership row of a removed member is deleted")

	teams, err = repo.ListByMember(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, teams)

	owned, err := repo.ListByMember(ctx, "owner")
	require.NoError(t, err)
	assert.Len(t, owned, 1)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = repo.GetByID(ctx, "missing")
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestTeamRepository_LargeTeamSpansTransactions(t *testing.T) {
	ctx := context.Background()
	fake := newFakeTable()
	repo := NewTeamRepository(fake, testConfig, nil, zap.NewNop())

	team, err := entities.NewTeam("Everyone", "", "owner")
	require.NoError(t, err)
	for i := 0; i < 150; i++ {
		require.NoError(t, team.AddMember(fmt.Sprintf("user-%03d", i)))
	}
	require.NoError(t, repo.Save(ctx, team))

	assert.Equal(t, 2, fake.transactions)
	assert.NotNil(t, fake.row(BuildUserPK("user-149"), BuildTeamPK(team.ID())))
}

func TestProfileRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewProfileRepository(newFakeTable(), testConfig, nil)

	_, err := repo.GetProfile(ctx, "alice")
	assert.True(t, pkgerrors.IsNotFound(err))

	require.NoError(t, repo.SaveProfile(ctx, &entities.UserProfile{UserID: "alice", Role: valueobjects.RoleTeamAdmin}))
	p, err := repo.GetProfile(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, valueobjects.RoleTeamAdmin, p.Role)
	assert.False(t, p.UpdatedAt.IsZero())

	assert.True(t, pkgerrors.IsValidation(repo.SaveProfile(ctx, &entities.UserProfile{})))
}

func TestDeveloperKeyRepository(t *testing.T) {
	ctx := context.Background()
	fake := newFakeTable()
	repo := NewDeveloperKeyRepository(fake, testConfig, nil)

	key, err := entities.NewDeveloperKey("k1", "alice", "ci", "itk_abcdefgh", "deadbeef")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, key))
	assert.True(t, pkgerrors.IsConflict(repo.Create(ctx, key)))

	got, err := repo.GetByHash(ctx, "deadbeef")
	require.NoError(t, err)
	assert.Equal(t, "k1", got.ID())
	assert.Equal(t, "alice", got.UserID())

	got.MarkUsed(time.Now().UTC())
	require.NoError(t, repo.TouchLastUsed(ctx, got))
	reloaded, err := repo.Get(ctx, "alice", "k1")
	require.NoError(t, err)
	require.NotNil(t, reloaded.LastUsedAt())

	require.NoError(t, repo.Revoke(ctx, got))
	_, err = repo.GetByHash(ctx, "deadbeef")
	assert.True(t, pkgerrors.IsNotFound(err))

	keys, err := repo.ListByUser(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.True(t, keys[0].IsRevoked())

	ghost := entities.ReconstructDeveloperKey("k9", "alice", "ghost", "", "cafe", time.Now(), nil, false)
	assert.True(t, pkgerrors.IsNotFound(repo.Revoke(ctx, ghost)))
}

func TestClassifyError(t *testing.T) {
	conflict := pkgerrors.NewConflictError("taken")

	tests := []struct {
		name     string
		err      error
		expected pkgerrors.ErrorType
	}{
		{"conditional check", &types.ConditionalCheckFailedException{}, pkgerrors.ErrorTypeConflict},
		{"wrapped conditional check", fmt.Errorf("put: %w", &types.ConditionalCheckFailedException{}), pkgerrors.ErrorTypeConflict},
		{"cancelled transaction", &types.TransactionCanceledException{CancellationReasons: []types.CancellationReason{
			{Code: aws.String("None")}, {Code: aws.String("ConditionalCheckFailed")},
		}}, pkgerrors.ErrorTypeConflict},
		{"throttled", &smithy.GenericAPIError{Code: "ThrottlingException"}, pkgerrors.ErrorTypeUnavailable},
		{"throughput", &types.ProvisionedThroughputExceededException{}, pkgerrors.ErrorTypeUnavailable},
		{"deadline", context.DeadlineExceeded, pkgerrors.ErrorTypeUnavailable},
		{"anything else", errors.New("boom"), pkgerrors.ErrorTypeDatabase},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyError("op", tt.err, pkgerrors.NewConflictError(conflict.Message))
			assert.True(t, pkgerrors.IsType(err, tt.expected), "got %v", err)
		})
	}

	assert.NoError(t, classifyError("op", nil, conflict))
	assert.True(t, pkgerrors.IsType(classifyError("op", &types.ConditionalCheckFailedException{}, nil), pkgerrors.ErrorTypeDatabase))
}
