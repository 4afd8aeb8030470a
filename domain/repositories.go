package domain

import (
	"context"
	"time"
)

// IdentityRepository persists the User/Credential/Pii aggregate.
//
// CreateIdentity and UpsertIdentity each run as one atomic transaction so a
// partial PII update is never visible without the corresponding credential
// state. The find methods preceding them are advisory only; the unique
// constraints on (credentials.type, credentials.external_id) and
// (pii.type, pii.user_id) are authoritative and surface as
// ErrDuplicateIdentity when a racing writer wins.
type IdentityRepository interface {
	// FindUserByCredential matches the owner of the credential with the
	// given (type, external id).
	FindUserByCredential(ctx context.Context, credType CredentialType, externalID string) (*User, error)

	// FindUserByEmail matches a user owning a PII row of type email with
	// the given value. The match is type-scoped on purpose: a display_name
	// that happens to look like an email must not match. Callers resolve
	// credential matches first; the email match is only a fallback.
	FindUserByEmail(ctx context.Context, email string) (*User, error)

	// GetCredential looks up a credential by its unique (type, external id).
	GetCredential(ctx context.Context, credType CredentialType, externalID string) (*Credential, error)

	// GetIdentity loads the full aggregate for a user, picking the
	// credential of the given type.
	GetIdentity(ctx context.Context, userID string, credType CredentialType) (*Identity, error)

	// GetUserWithPii loads a user and its PII rows without any credential;
	// this is the shape session resolution needs.
	GetUserWithPii(ctx context.Context, userID string) (*User, []Pii, error)

	// CreateIdentity inserts a new user together with its initial PII rows
	// and credential in one transaction.
	CreateIdentity(ctx context.Context, user *User, pii []PiiAttr, cred *Credential) (*Identity, error)

	// UpsertIdentity, for an existing user, upserts every PII attribute by
	// (type, user_id) and the credential by (type, external_id) in one
	// transaction.
	UpsertIdentity(ctx context.Context, userID string, pii []PiiAttr, cred *Credential) (*Identity, error)
}

// SessionRepository persists server-side login records.
type SessionRepository interface {
	Create(ctx context.Context, session *Session) error
	GetByID(ctx context.Context, id string) (*Session, error)
	Revoke(ctx context.Context, id string, at time.Time) error
	// DeleteExpired removes sessions past their expiry; returns rows removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// LoginAttemptRepository records local sign-in attempts for audit.
type LoginAttemptRepository interface {
	Record(ctx context.Context, attempt *LoginAttempt) error
}

// VerificationTokenRepository persists single-use account verification tokens.
type VerificationTokenRepository interface {
	Create(ctx context.Context, token *VerificationToken) error
	// Consume marks the token used and flips the owning user to verified.
	Consume(ctx context.Context, token string, now time.Time) (*User, error)
}

// RoleRepository reads and writes the user/role/permission graph.
type RoleRepository interface {
	AssignRole(ctx context.Context, userID, roleName string) error
	RolesForUser(ctx context.Context, userID string) ([]Role, error)
	PermissionsForUser(ctx context.Context, userID string) ([]Permission, error)
}
