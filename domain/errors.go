package domain

import "errors"

var (
	// ErrNotFound is returned by repositories when no row matches.
	ErrNotFound = errors.New("not found")

	// ErrInvalidCredentials covers both "no such account" and "wrong
	// password". Callers must not distinguish the two.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrDuplicateIdentity maps a unique-constraint violation on
	// (credential type, external id). The database constraint, not the
	// advisory existence check, is the source of truth here.
	ErrDuplicateIdentity = errors.New("duplicate identity")

	// ErrEmailTaken is the registration-facing form of ErrDuplicateIdentity.
	ErrEmailTaken = errors.New("email already registered")

	ErrInvalidToken   = errors.New("invalid token")
	ErrSessionExpired = errors.New("session expired")
	ErrSessionRevoked = errors.New("session revoked")
)
