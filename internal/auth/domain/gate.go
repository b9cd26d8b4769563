package domain

import "time"

// GateCode is a one-time passcode gating a named switch. For a given gate id
// at most one unconsumed record exists at any committed point in time; the
// gate service serializes all generate/validate calls per gate to keep it
// that way.
type GateCode struct {
	ID         string
	GateID     string
	Code       string
	ExpiresAt  time.Time
	Consumed   bool
	ConsumedAt *time.Time
	CreatedAt  time.Time
}

// Expired reports whether the code's validity window has passed.
func (c GateCode) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
