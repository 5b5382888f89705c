// Package auth checks the shared moderator secret.
package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// SecretChecker validates candidate secrets against a bcrypt hash of the
// configured moderator secret. The plaintext is not retained.
type SecretChecker struct {
	hash []byte
}

// NewSecretChecker hashes secret with the given bcrypt cost.
func NewSecretChecker(secret string, cost int) (*SecretChecker, error) {
	if secret == "" {
		return nil, fmt.Errorf("moderator secret is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return nil, fmt.Errorf("hash moderator secret: %w", err)
	}
	return &SecretChecker{hash: hash}, nil
}

// CheckModerator reports whether candidate matches the moderator secret.
func (c *SecretChecker) CheckModerator(candidate string) bool {
	if candidate == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword(c.hash, []byte(candidate)) == nil
}
