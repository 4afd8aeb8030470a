package domain

import "time"

// LoginAttempt records one local sign-in attempt, successful or not.
// UserID is nil when the email did not resolve to an account.
type LoginAttempt struct {
	ID        string
	UserID    *string
	Email     string
	Success   bool
	CreatedAt time.Time
}
