package domain

import "time"

// PiiType is the kind of personal-data attribute a Pii row holds.
type PiiType string

const (
	PiiTypeEmail           PiiType = "email"
	PiiTypeFirstName       PiiType = "first_name"
	PiiTypeLastName        PiiType = "last_name"
	PiiTypeDisplayName     PiiType = "display_name"
	PiiTypeProfilePhotoURL PiiType = "profile_photo_url"
)

// Pii is one typed personal-data attribute of a User. (Type, UserID) is
// unique: a user has at most one value per PII type, so inbound provider
// data is always an upsert, never an append.
type Pii struct {
	ID        string
	UserID    string
	Type      PiiType
	Value     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PiiAttr is an inbound (type, value) pair before it is bound to a user.
type PiiAttr struct {
	Type  PiiType
	Value string
}
