package memory

import (
	"context"
	"sort"

	"github.com/thismakesmehappy/NewApiTest-sub000/domain/core/entities"
	pkgerrors "github.com/thismakesmehappy/NewApiTest-sub000/pkg/errors"
)

// Keys exposes the store through the DeveloperKeyRepository port
func (s *Store) Keys() *KeyStore {
	return &KeyStore{s: s}
}

// KeyStore is the DeveloperKeyRepository view of Store
type KeyStore struct {
	s *Store
}

func (k *KeyStore) Create(ctx context.Context, key *entities.DeveloperKey) error {
	k.s.mu.Lock()
	defer k.s.mu.Unlock()

	if _, exists := k.s.keys[key.ID()]; exists {
		return pkgerrors.NewConflictError("developer key already exists")
	}
	if _, exists := k.s.keyHash[key.Hash()]; exists {
		return pkgerrors.NewConflictError("developer key already exists")
	}
	k.s.keys[key.ID()] = toKeyRecord(key)
	k.s.keyHash[key.Hash()] = key.ID()
	return nil
}

func (k *KeyStore) GetByHash(ctx context.Context, hash string) (*entities.DeveloperKey, error) {
	k.s.mu.RLock()
	defer k.s.mu.RUnlock()

	id, ok := k.s.keyHash[hash]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("developer key")
	}
	return k.s.keys[id].toEntity(), nil
}

func (k *KeyStore) Get(ctx context.Context, userID, keyID string) (*entities.DeveloperKey, error) {
	k.s.mu.RLock()
	defer k.s.mu.RUnlock()

	rec, ok := k.s.keys[keyID]
	if !ok || rec.userID != userID {
		return nil, pkgerrors.NewNotFoundError("developer key")
	}
	return rec.toEntity(), nil
}

func (k *KeyStore) ListByUser(ctx context.Context, userID string) ([]*entities.DeveloperKey, error) {
	k.s.mu.RLock()
	defer k.s.mu.RUnlock()

	var out []*entities.DeveloperKey
	for _, rec := range k.s.keys {
		if rec.userID == userID {
			out = append(out, rec.toEntity())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt().After(out[j].CreatedAt())
	})
	return out, nil
}

func (k *KeyStore) Revoke(ctx context.Context, key *entities.DeveloperKey) error {
	k.s.mu.Lock()
	defer k.s.mu.Unlock()

	rec, ok := k.s.keys[key.ID()]
	if !ok {
		return pkgerrors.NewNotFoundError("developer key")
	}
	rec.revoked = true
	k.s.keys[key.ID()] = rec
	delete(k.s.keyHash, rec.hash)
	return nil
}

func (k *KeyStore) TouchLastUsed(ctx context.Context, key *entities.DeveloperKey) error {
	k.s.mu.Lock()
	defer k.s.mu.Unlock()

	rec, ok := k.s.keys[key.ID()]
	if !ok {
		return pkgerrors.NewNotFoundError("developer key")
	}
	rec.lastUsedAt = key.LastUsedAt()
	k.s.keys[key.ID()] = rec
	return nil
}

func toKeyRecord(key *entities.DeveloperKey) keyRecord {
	return keyRecord{
		id:         key.ID(),
		userID:     key.UserID(),
		name:       key.Name(),
		prefix:     key.Prefix(),
		hash:       key.Hash(),
		createdAt:  key.CreatedAt(),
		lastUsedAt: key.LastUsedAt(),
		revoked:    key.IsRevoked(),
	}
}

func (r keyRecord) toEntity() *entities.DeveloperKey {
	return entities.ReconstructDeveloperKey(r.id, r.userID, r.name, r.prefix, r.hash, r.createdAt, r.lastUsedAt, r.revoked)
}
