package domain

import "time"

// ResetCode represents a single-use password reset code (stored as a hash).
// A user may accumulate historical codes, but at most one of them is valid
// (unused and unexpired) at any moment: issuing a new code invalidates the
// rest in the same transaction.
type ResetCode struct {
	ID        string
	UserID    string
	CodeHash  string
	Used      bool
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired reports whether the code has elapsed its validity window.
func (c ResetCode) IsExpired(at time.Time) bool {
	return !c.ExpiresAt.After(at)
}

// IsValid reports whether the code can still be redeemed.
func (c ResetCode) IsValid(at time.Time) bool {
	return !c.Used && !c.IsExpired(at)
}

// Consume marks the code as used.
// Returns true when the code transitions from unused to used.
func (c *ResetCode) Consume() bool {
	if c.Used {
		return false
	}
	c.Used = true
	return true
}
