package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
)

// DeveloperKeyPrefix starts every plaintext developer key
const DeveloperKeyPrefix = "itk_"

// displayPrefixLen is how much of the plaintext is kept for display
const displayPrefixLen = 12

// GeneratedKey is a freshly generated developer key
type GeneratedKey struct {
	Plaintext string
	Prefix    string
	Hash      string
}

// GenerateDeveloperKey creates "itk_" followed by 32 URL-safe random characters
func GenerateDeveloperKey() (GeneratedKey, error) {
	b := make([]byte, 24) // 24 bytes -> 32 base64url chars
	if _, err := rand.Read(b); err != nil {
		return GeneratedKey{}, fmt.Errorf("generating random bytes: %w", err)
	}

	plaintext := DeveloperKeyPrefix + base64.RawURLEncoding.EncodeToString(b)
	return GeneratedKey{
		Plaintext: plaintext,
		Prefix:    plaintext[:displayPrefixLen],
		Hash:      HashKey(plaintext),
	}, nil
}

// HashKey returns the hex-encoded SHA-256 hash of the given plaintext key
func HashKey(plaintext string) string {
	h := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(h[:])
}

// LooksLikeDeveloperKey is a cheap shape check before hitting storage
func LooksLikeDeveloperKey(s string) bool {
	return strings.HasPrefix(s, DeveloperKeyPrefix) && len(s) == len(DeveloperKeyPrefix)+32
}
