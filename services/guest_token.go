package services

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	// GuestTokenCost is the bcrypt cost for manage-link tokens. Tokens are
	// high-entropy random values, so the minimum cost is sufficient.
	GuestTokenCost = bcrypt.MinCost
)

// NewManageToken generates the plaintext token embedded in a guest's manage
// link. It is returned to the guest exactly once; only the hash is stored.
func NewManageToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate manage token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashManageToken hashes a manage token for storage
func HashManageToken(token string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(token), GuestTokenCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash manage token: %w", err)
	}
	return string(hash), nil
}

// VerifyManageToken checks a presented token against the stored hash
func VerifyManageToken(hash, token string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)) == nil
}
