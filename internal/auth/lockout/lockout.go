// Package lockout holds the brute-force lockout state machine. It is pure
// decision logic over (failed_attempts, locked_until); persistence belongs to
// the caller.
package lockout

import "time"

const (
	DefaultThreshold    = 5
	DefaultLockDuration = 15 * time.Minute
)

// Policy configures when an account locks and for how long.
type Policy struct {
	Threshold    int
	LockDuration time.Duration
}

// DefaultPolicy returns the reference behavior: 5 attempts, 15 minutes.
func DefaultPolicy() Policy {
	return Policy{Threshold: DefaultThreshold, LockDuration: DefaultLockDuration}
}

// State is the per-principal lockout state.
type State struct {
	FailedAttempts int
	LockedUntil    *time.Time
}

// Locked reports whether the state refuses authentication at the given time.
// The lock is time-gated: once locked_until passes, the account is usable
// again regardless of the attempt counter.
func (p Policy) Locked(s State, now time.Time) bool {
	return s.LockedUntil != nil && now.Before(*s.LockedUntil)
}

// OnFailure returns the state after a failed verification. The counter
// increments on every failure; the lock window is set exactly when the count
// first reaches the threshold.
func (p Policy) OnFailure(s State, now time.Time) State {
	next := State{
		FailedAttempts: s.FailedAttempts + 1,
		LockedUntil:    s.LockedUntil,
	}
	if next.FailedAttempts >= p.Threshold && !p.Locked(s, now) {
		until := now.Add(p.LockDuration)
		next.LockedUntil = &until
	}
	return next
}

// OnSuccess returns the state after a successful verification: counter reset,
// lock cleared.
func (p Policy) OnSuccess() State {
	return State{}
}

// RetryAfter returns how long until the lock expires, or zero when unlocked.
func (p Policy) RetryAfter(s State, now time.Time) time.Duration {
	if !p.Locked(s, now) {
		return 0
	}
	return s.LockedUntil.Sub(now)
}
