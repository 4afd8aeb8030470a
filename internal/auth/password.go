// Package auth holds the bcrypt password hasher behind the
// services.PasswordHasher interface.
package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/ashmortar/htmx-kit/services"
)

// BcryptPasswordHasher hashes passwords with bcrypt at a fixed cost.
type BcryptPasswordHasher struct {
	cost int
}

// NewBcryptPasswordHasher builds a hasher for the given cost, typically the
// BCRYPT_COST setting. Zero and negative mean bcrypt.DefaultCost; values
// outside bcrypt's supported range are clamped into it, so a misconfigured
// cost can weaken hashing at most to bcrypt.MinCost, never break it.
func NewBcryptPasswordHasher(cost int) *BcryptPasswordHasher {
	switch {
	case cost <= 0:
		cost = bcrypt.DefaultCost
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	return &BcryptPasswordHasher{cost: cost}
}

// Hash derives a bcrypt hash of the password. bcrypt rejects inputs over 72
// bytes; the error propagates so registration surfaces it instead of
// silently truncating.
func (h *BcryptPasswordHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// Verify returns nil when the plaintext matches the hash.
func (h *BcryptPasswordHasher) Verify(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

var _ services.PasswordHasher = (*BcryptPasswordHasher)(nil)
