package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/thismakesmehappy/NewApiTest-sub000/application/ports"
	"github.com/thismakesmehappy/NewApiTest-sub000/domain/core/entities"
	"github.com/thismakesmehappy/NewApiTest-sub000/pkg/auth"
	pkgerrors "github.com/thismakesmehappy/NewApiTest-sub000/pkg/errors"
)

// DeveloperKeyService issues, lists, revokes and authenticates developer keys
type DeveloperKeyService struct {
	keys   ports.DeveloperKeyRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewDeveloperKeyService(keys ports.DeveloperKeyRepository, logger *zap.Logger) *DeveloperKeyService {
	return &DeveloperKeyService{keys: keys, logger: logger, now: time.Now}
}

// Create stores a new key for the user and returns it with the plaintext.
// The plaintext is not recoverable afterwards.
func (s *DeveloperKeyService) Create(ctx context.Context, user *entities.User, name string) (*entities.DeveloperKey, string, error) {
	if user == nil {
		return nil, "", pkgerrors.NewUnauthorizedError("")
	}

	generated, err := auth.GenerateDeveloperKey()
	if err != nil {
		return nil, "", pkgerrors.NewInternalError("failed to generate key").WithCause(err)
	}

	key, err := entities.NewDeveloperKey(uuid.NewString(), user.ID(), name, generated.Prefix, generated.Hash)
	if err != nil {
		return nil, "", err
	}
	if err := s.keys.Create(ctx, key); err != nil {
		return nil, "", pkgerrors.Wrap(err, "store developer key")
	}

	s.logger.Info("Developer key created", zap.String("userID", user.ID()), zap.String("keyID", key.ID()))
	return key, generated.Plaintext, nil
}

// List returns the user's keys, revoked ones included
func (s *DeveloperKeyService) List(ctx context.Context, user *entities.User) ([]*entities.DeveloperKey, error) {
	if user == nil {
		return nil, pkgerrors.NewUnauthorizedError("")
	}
	return s.keys.ListByUser(ctx, user.ID())
}

// Revoke disables a key. ADMIN may revoke another user's key by passing
// ownerID; everyone else can only revoke their own.
func (s *DeveloperKeyService) Revoke(ctx context.Context, user *entities.User, ownerID, keyID string) error {
	if user == nil {
		return pkgerrors.NewUnauthorizedError("")
	}
	if ownerID == "" {
		ownerID = user.ID()
	}
	if ownerID != user.ID() && !user.IsAdmin() {
		return pkgerrors.NewForbiddenError("you can only revoke your own keys")
	}

	key, err := s.keys.Get(ctx, ownerID, keyID)
	if err != nil {
		return err
	}
	if key.IsRevoked() {
		return nil
	}
	key.Revoke()
	if err := s.keys.Revoke(ctx, key); err != nil {
		return pkgerrors.Wrap(err, "revoke developer key")
	}

	s.logger.Info("Developer key revoked",
		zap.String("keyID", keyID),
		zap.String("ownerID", ownerID),
		zap.String("revokedBy", user.ID()),
	)
	return nil
}

// Authenticate resolves a presented plaintext key to the identity of its
// owner. Unknown and revoked keys are UNAUTHORIZED.
func (s *DeveloperKeyService) Authenticate(ctx context.Context, plaintext string) (Identity, *entities.DeveloperKey, error) {
	if !auth.LooksLikeDeveloperKey(plaintext) {
		return Identity{}, nil, pkgerrors.NewUnauthorizedError("invalid developer key")
	}

	key, err := s.keys.GetByHash(ctx, auth.HashKey(plaintext))
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return Identity{}, nil, pkgerrors.NewUnauthorizedError("invalid developer key")
		}
		return Identity{}, nil, err
	}
	if key.IsRevoked() {
		return Identity{}, nil, pkgerrors.NewUnauthorizedError("developer key has been revoked")
	}

	key.MarkUsed(s.now().UTC())
	if err := s.keys.TouchLastUsed(ctx, key); err != nil {
		s.logger.Warn("Failed to record key usage", zap.String("keyID", key.ID()), zap.Error(err))
	}

	return Identity{UserID: key.UserID()}, key, nil
}
