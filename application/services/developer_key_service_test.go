package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/thismakesmehappy/NewApiTest-sub000/domain/core/valueobjects"
	"github.com/thismakesmehappy/NewApiTest-sub000/infrastructure/persistence/memory"
	"github.com/thismakesmehappy/NewApiTest-sub000/pkg/auth"
	pkgerrors "github.com/thismakesmehappy/NewApiTest-sub000/pkg/errors"
)

func TestDeveloperKeyService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	svc := NewDeveloperKeyService(memory.NewStore().Keys(), zap.NewNop())
	alice := userWithTeams("alice", valueobjects.RoleUser)

	key, plaintext, err := svc.Create(ctx, alice, "ci pipeline")
	require.NoError(t, err)
	assert.True(t, auth.LooksLikeDeveloperKey(plaintext))
	assert.Equal(t, auth.HashKey(plaintext), key.Hash())
	assert.Equal(t, plaintext[:12], key.Prefix())

	identity, used, err := svc.Authenticate(ctx, plaintext)
	require.NoError(t, err)
	assert.Equal(t, "alice", identity.UserID)
	assert.NotNil(t, used.LastUsedAt())

	listed, err := svc.List(ctx, alice)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.NotNil(t, listed[0].LastUsedAt())

	require.NoError(t, svc.Revoke(ctx, alice, "", key.ID()))
	_, _, err = svc.Authenticate(ctx, plaintext)
	assert.True(t, pkgerrors.IsUnauthorized(err))

	// revoking twice is a no-op
	assert.NoError(t, svc.Revoke(ctx, alice, "", key.ID()))
}

func TestDeveloperKeyService_AuthenticateRejectsUnknownKeys(t *testing.T) {
	svc := NewDeveloperKeyService(memory.NewStore().Keys(), zap.NewNop())

	generated, err := auth.GenerateDeveloperKey()
	require.NoError(t, err)

	for _, presented := range []string{"", "itk_tooshort", generated.Plaintext} {
		_, _, err := svc.Authenticate(context.Background(), presented)
		assert.True(t, pkgerrors.IsUnauthorized(err), "key %q", presented)
	}
}

func TestDeveloperKeyService_RevokePermissions(t *testing.T) {
	ctx := context.Background()
	svc := NewDeveloperKeyService(memory.NewStore().Keys(), zap.NewNop())
	alice := userWithTeams("alice", valueobjects.RoleUser)

	key, _, err := svc.Create(ctx, alice, "laptop")
	require.NoError(t, err)

	err = svc.Revoke(ctx, userWithTeams("bob", valueobjects.RoleUser), "alice", key.ID())
	assert.True(t, pkgerrors.IsForbidden(err))

	// bob looking in his own partition simply finds nothing
	err = svc.Revoke(ctx, userWithTeams("bob", valueobjects.RoleUser), "", key.ID())
	assert.True(t, pkgerrors.IsNotFound(err))

	err = svc.Revoke(ctx, userWithTeams("root", valueobjects.RoleAdmin), "alice", key.ID())
	assert.NoError(t, err)
}

func TestDeveloperKeyService_CreateValidatesName(t *testing.T) {
	svc := NewDeveloperKeyService(memory.NewStore().Keys(), zap.NewNop())
	_, _, err := svc.Create(context.Background(), userWithTeams("alice", valueobjects.RoleUser), "   ")
	assert.True(t, pkgerrors.IsValidation(err))
}
