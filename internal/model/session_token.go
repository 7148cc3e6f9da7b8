package model

import "time"

// SessionToken is a DB-backed bearer credential tied to one teacher. A
// teacher holds at most one active token; issuing a new one removes the rest.
type SessionToken struct {
	ID        uint64
	TeacherID uint64
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
	IsActive  bool
}

// IsValid reports whether the token can still authenticate requests at the
// given instant. Anything else is treated as invalid and purged on lookup.
func (t SessionToken) IsValid(now time.Time) bool {
	return t.IsActive && t.ExpiresAt.After(now)
}
