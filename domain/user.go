package domain

import "time"

// UserStatus defines the possible statuses of a user account.
type UserStatus string

const (
	UserStatusUnverified UserStatus = "unverified"
	UserStatusVerified   UserStatus = "verified"
)

// User is the identity anchor. Everything else (credentials, PII, sessions,
// roles) hangs off a single User row via foreign key.
type User struct {
	ID        string
	Status    UserStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Identity is the aggregate returned by reconciliation: the user, the
// credential that authenticated it, and all current PII rows.
type Identity struct {
	User       User
	Credential Credential
	PII        []Pii
}

// PiiValue returns the value of the first PII row of the given type,
// or the empty string when the user has none.
func (i *Identity) PiiValue(t PiiType) string {
	for _, p := range i.PII {
		if p.Type == t {
			return p.Value
		}
	}
	return ""
}

// Email is a convenience accessor for the email PII row.
func (i *Identity) Email() string { return i.PiiValue(PiiTypeEmail) }

// DisplayName returns the friendliest name available for rendering.
func (i *Identity) DisplayName() string {
	if v := i.PiiValue(PiiTypeDisplayName); v != "" {
		return v
	}
	if v := i.PiiValue(PiiTypeFirstName); v != "" {
		return v
	}
	return i.Email()
}
