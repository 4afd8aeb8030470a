package domain

import "time"

// Session is a server-side login record. The signed JWT handed to the client
// carries the session id in its `sub` claim; resolving a session yields the
// owning user plus all current PII rows.
type Session struct {
	ID        string
	UserID    string
	UserAgent string
	IP        string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

// Active reports whether the session is neither revoked nor expired.
func (s *Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
