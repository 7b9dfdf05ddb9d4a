package entities

import (
	"strings"
	"time"

	pkgerrors "github.com/thismakesmehappy/NewApiTest-sub000/pkg/errors"
)

// DeveloperKey is a long-lived API key owned by a user. Only the hash of the
// secret is kept.
type DeveloperKey struct {
	id         string
	userID     string
	name       string
	prefix     string
	hash       string
	createdAt  time.Time
	lastUsedAt *time.Time
	revoked    bool
}

// NewDeveloperKey creates a key record for an already generated secret
func NewDeveloperKey(id, userID, name, prefix, hash string) (*DeveloperKey, error) {
	name = strings.TrimSpace(name)
	if userID == "" {
		return nil, pkgerrors.NewValidationError("userID cannot be empty")
	}
	if name == "" {
		return nil, pkgerrors.NewValidationError("key name cannot be empty")
	}
	if len(name) > 64 {
		return nil, pkgerrors.NewValidationError("key name cannot exceed 64 characters")
	}
	if id == "" || hash == "" {
		return nil, pkgerrors.NewValidationError("key id and hash are required")
	}

	return &DeveloperKey{
		id:        id,
		userID:    userID,
		name:      name,
		prefix:    prefix,
		hash:      hash,
		createdAt: time.Now().UTC(),
	}, nil
}

// ReconstructDeveloperKey rebuilds a key from storage
func ReconstructDeveloperKey(id, userID, name, prefix, hash string, createdAt time.Time, lastUsedAt *time.Time, revoked bool) *DeveloperKey {
	return &DeveloperKey{
		id:         id,
		userID:     userID,
		name:       name,
		prefix:     prefix,
		hash:       hash,
		createdAt:  createdAt,
		lastUsedAt: lastUsedAt,
		revoked:    revoked,
	}
}

func (k *DeveloperKey) ID() string             { return k.id }
func (k *DeveloperKey) UserID() string         { return k.userID }
func (k *DeveloperKey) Name() string           { return k.name }
func (k *DeveloperKey) Prefix() string         { return k.prefix }
func (k *DeveloperKey) Hash() string           { return k.hash }
func (k *DeveloperKey) CreatedAt() time.Time   { return k.createdAt }
func (k *DeveloperKey) LastUsedAt() *time.Time { return k.lastUsedAt }
func (k *DeveloperKey) IsRevoked() bool        { return k.revoked }

func (k *DeveloperKey) Revoke() {
	k.revoked = true
}

func (k *DeveloperKey) MarkUsed(at time.Time) {
	k.lastUsedAt = &at
}
