package domain

import "time"

// VerificationToken is a single-use token minted at registration. Delivery
// and the unverified->verified transition are driven by an external flow.
type VerificationToken struct {
	ID         string
	UserID     string
	Token      string
	ExpiresAt  time.Time
	ConsumedAt *time.Time
	CreatedAt  time.Time
}
