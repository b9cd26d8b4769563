package lockout

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOnFailure_Monotonicity(t *testing.T) {
	t.Parallel()

	p := DefaultPolicy()
	now := time.Now()

	s := State{}
	for i := 1; i <= 4; i++ {
		s = p.OnFailure(s, now)
		require.Equal(t, i, s.FailedAttempts)
		require.Nil(t, s.LockedUntil, "lock must not engage before the threshold")
	}

	s = p.OnFailure(s, now)
	require.Equal(t, 5, s.FailedAttempts)
	require.NotNil(t, s.LockedUntil, "lock engages exactly at the threshold")
	require.WithinDuration(t, now.Add(15*time.Minute), *s.LockedUntil, time.Second)
}

func TestOnSuccess_Resets(t *testing.T) {
	t.Parallel()

	p := DefaultPolicy()
	now := time.Now()

	s := State{}
	for range 7 {
		s = p.OnFailure(s, now)
	}

	s = p.OnSuccess()
	require.Zero(t, s.FailedAttempts)
	require.Nil(t, s.LockedUntil)
}

func TestLocked_IsTimeGated(t *testing.T) {
	t.Parallel()

	p := DefaultPolicy()
	now := time.Now()

	until := now.Add(10 * time.Minute)
	s := State{FailedAttempts: 5, LockedUntil: &until}

	require.True(t, p.Locked(s, now))
	require.True(t, p.Locked(s, until.Add(-time.Second)))
	require.False(t, p.Locked(s, until.Add(time.Second)),
		"an expired lock no longer refuses, even with a high counter")
}

func TestOnFailure_AfterLockExpiry(t *testing.T) {
	t.Parallel()

	p := DefaultPolicy()
	now := time.Now()

	until := now.Add(-time.Minute) // lock already expired
	s := State{FailedAttempts: 5, LockedUntil: &until}

	s = p.OnFailure(s, now)
	require.Equal(t, 6, s.FailedAttempts)
	require.NotNil(t, s.LockedUntil)
	require.True(t, s.LockedUntil.After(now), "a failure past the threshold re-locks")
}

func TestRetryAfter(t *testing.T) {
	t.Parallel()

	p := DefaultPolicy()
	now := time.Now()

	require.Zero(t, p.RetryAfter(State{}, now))

	until := now.Add(7 * time.Minute)
	s := State{FailedAttempts: 5, LockedUntil: &until}
	require.Equal(t, 7*time.Minute, p.RetryAfter(s, now))
}

func TestCustomPolicy(t *testing.T) {
	t.Parallel()

	p := Policy{Threshold: 3, LockDuration: time.Minute}
	now := time.Now()

	s := State{}
	s = p.OnFailure(s, now)
	s = p.OnFailure(s, now)
	require.Nil(t, s.LockedUntil)

	s = p.OnFailure(s, now)
	require.NotNil(t, s.LockedUntil)
	require.WithinDuration(t, now.Add(time.Minute), *s.LockedUntil, time.Second)
}
