package domain

import "time"

// CredentialType identifies the authentication method a credential represents.
type CredentialType string

const (
	CredentialTypePassword CredentialType = "password"
	CredentialTypeGoogle   CredentialType = "google"
)

// Credential is one authentication method bound to a User.
//
// (Type, ExternalID) is unique across the whole table: at most one credential
// per provider identity. For password credentials ExternalID is the email and
// Value is the bcrypt hash; for OAuth credentials ExternalID is the
// provider-scoped subject and Value is the current access token.
type Credential struct {
	ID           string
	UserID       string
	Type         CredentialType
	ExternalID   string
	Value        string
	RefreshToken *string
	ExpiresAt    time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Expired reports whether the credential is past its expiry at the given time.
func (c *Credential) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}
