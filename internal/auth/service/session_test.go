package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cobaltlane/sentinel/internal/auth/domain"
	"github.com/cobaltlane/sentinel/internal/auth/lockout"
	"github.com/cobaltlane/sentinel/internal/auth/store"
	"github.com/cobaltlane/sentinel/internal/auth/store/drivers/sqlite"
	"github.com/cobaltlane/sentinel/pkg/cryptox"
	"github.com/cobaltlane/sentinel/pkg/idx"
	"github.com/cobaltlane/sentinel/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

var testDevice = DeviceContext{UserAgent: "test-agent", IPAddress: "10.0.0.1"}

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func newSessionService(t *testing.T, st store.Store) *SessionService {
	t.Helper()

	signer, err := jwtx.NewSigner("sentinel-test",
		[]byte(strings.Repeat("a", 32)),
		[]byte(strings.Repeat("r", 32)),
	)
	require.NoError(t, err)

	return &SessionService{
		Store:      st,
		Tokens:     signer,
		Policy:     lockout.DefaultPolicy(),
		RefreshTTL: 7 * 24 * time.Hour,
	}
}

func createPrincipal(t *testing.T, st store.Store, email, password string) domain.Principal {
	t.Helper()

	hash, err := cryptox.HashPasswordWithParams(password, cryptox.Params{
		// Low-cost parameters keep the hashing-heavy login tests fast.
		Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16,
	})
	require.NoError(t, err)

	p := domain.Principal{
		ID:           idx.New().String(),
		Email:        email,
		PasswordHash: hash,
		Roles:        []string{"admin"},
		IsActive:     true,
	}
	require.NoError(t, st.Principals().CreatePrincipal(context.Background(), p))
	return p
}

func TestLogin_Success(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newSessionService(t, st)
	createPrincipal(t, st, "admin@x.com", "right-pw")

	result, err := svc.Login(ctx, "admin@x.com", "right-pw", testDevice)
	require.NoError(t, err)
	require.NotEmpty(t, result.AccessToken)
	require.NotEmpty(t, result.RefreshToken)
	require.Equal(t, 3600, result.ExpiresIn)
	require.Equal(t, "Bearer", result.TokenType)

	require.Equal(t, "admin@x.com", result.Principal.Email)
	require.NotNil(t, result.Principal.LastLoginAt)

	// The access token carries the role snapshot.
	claims, err := svc.Tokens.VerifyAccess(result.AccessToken)
	require.NoError(t, err)
	require.Equal(t, []string{"admin"}, claims.Roles)

	sessions, err := svc.Sessions(ctx, result.Principal.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.Equal(t, "test-agent", sessions[0].UserAgent)
	require.Equal(t, "10.0.0.1", sessions[0].IPAddress)
}

func TestLogin_UnknownIdentifier(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newSessionService(t, st)

	_, err := svc.Login(ctx, "nobody@x.com", "whatever", testDevice)
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_IdentifierIsCaseSensitive(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newSessionService(t, st)
	createPrincipal(t, st, "admin@x.com", "right-pw")

	_, err := svc.Login(ctx, "Admin@X.com", "right-pw", testDevice)
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_LockoutProgression(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newSessionService(t, st)
	p := createPrincipal(t, st, "admin@x.com", "right-pw")

	// Four wrong attempts: counter climbs, no lock yet.
	for i := 1; i <= 4; i++ {
		_, err := svc.Login(ctx, "admin@x.com", "wrong-pw", testDevice)
		require.ErrorIs(t, err, ErrInvalidCredentials)

		stored, err := st.Principals().GetPrincipalByID(ctx, p.ID)
		require.NoError(t, err)
		require.Equal(t, i, stored.FailedAttempts)
		require.Nil(t, stored.LockedUntil)
	}

	// Fifth wrong attempt engages the lock.
	_, err := svc.Login(ctx, "admin@x.com", "wrong-pw", testDevice)
	require.ErrorIs(t, err, ErrInvalidCredentials)

	stored, err := st.Principals().GetPrincipalByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, 5, stored.FailedAttempts)
	require.NotNil(t, stored.LockedUntil)
	require.WithinDuration(t, time.Now().Add(15*time.Minute), *stored.LockedUntil, 5*time.Second)

	// The lock is time-gated: even the correct password is refused now.
	_, err = svc.Login(ctx, "admin@x.com", "right-pw", testDevice)
	require.ErrorIs(t, err, ErrAccountLocked)
}

func TestLogin_SuccessResetsLockout(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newSessionService(t, st)
	p := createPrincipal(t, st, "admin@x.com", "right-pw")

	for range 3 {
		_, err := svc.Login(ctx, "admin@x.com", "wrong-pw", testDevice)
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}

	_, err := svc.Login(ctx, "admin@x.com", "right-pw", testDevice)
	require.NoError(t, err)

	stored, err := st.Principals().GetPrincipalByID(ctx, p.ID)
	require.NoError(t, err)
	require.Zero(t, stored.FailedAttempts)
	require.Nil(t, stored.LockedUntil)
}

func TestLogin_Deactivated(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newSessionService(t, st)
	p := createPrincipal(t, st, "admin@x.com", "right-pw")
	require.NoError(t, st.Principals().SetActive(ctx, p.ID, false))

	_, err := svc.Login(ctx, "admin@x.com", "right-pw", testDevice)
	require.ErrorIs(t, err, ErrAccountDeactivated)
}

func TestLogin_TokenHistoryBounded(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newSessionService(t, st)
	p := createPrincipal(t, st, "admin@x.com", "right-pw")

	for i := range 7 {
		_, err := svc.Login(ctx, "admin@x.com", "right-pw", DeviceContext{
			UserAgent: "device-" + string(rune('a'+i)),
		})
		require.NoError(t, err)
	}

	sessions, err := svc.Sessions(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, sessions, domain.MaxActiveTokens, "history is FIFO-bounded")

	// The two oldest records were evicted; the newest five remain in order.
	require.Equal(t, "device-c", sessions[0].UserAgent)
	require.Equal(t, "device-g", sessions[len(sessions)-1].UserAgent)
}

func TestRefresh_RotationInvalidatesPrevious(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newSessionService(t, st)
	createPrincipal(t, st, "admin@x.com", "right-pw")

	login, err := svc.Login(ctx, "admin@x.com", "right-pw", testDevice)
	require.NoError(t, err)

	first, err := svc.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, login.RefreshToken, first.RefreshToken)

	// The login-issued refresh token was rotated out and is now dead.
	_, err = svc.Refresh(ctx, login.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefresh)

	// The rotated-in token is accepted exactly once more.
	second, err := svc.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, first.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefresh)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)
}

func TestRefresh_RejectsGarbageAndAccessTokens(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newSessionService(t, st)
	createPrincipal(t, st, "admin@x.com", "right-pw")

	login, err := svc.Login(ctx, "admin@x.com", "right-pw", testDevice)
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, "not-a-token")
	require.ErrorIs(t, err, ErrInvalidRefresh)

	// An access token must not pass as a refresh token.
	_, err = svc.Refresh(ctx, login.AccessToken)
	require.ErrorIs(t, err, ErrInvalidRefresh)
}

func TestRefresh_ServerSideExpiry(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newSessionService(t, st)
	p := createPrincipal(t, st, "admin@x.com", "right-pw")

	login, err := svc.Login(ctx, "admin@x.com", "right-pw", testDevice)
	require.NoError(t, err)

	// Expire the stored refresh token server-side; the signed claim is still
	// valid for days, which must not matter.
	past := time.Now().UTC().Add(-time.Minute)
	require.NoError(t, st.Principals().UpdateRefreshToken(ctx, p.ID, login.RefreshToken, &past))

	_, err = svc.Refresh(ctx, login.RefreshToken)
	require.ErrorIs(t, err, ErrRefreshExpired)
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newSessionService(t, st)
	p := createPrincipal(t, st, "admin@x.com", "right-pw")

	login, err := svc.Login(ctx, "admin@x.com", "right-pw", testDevice)
	require.NoError(t, err)

	t.Run("unknown principal", func(t *testing.T) {
		err := svc.ChangePassword(ctx, idx.New().String(), "right-pw", "new-pw")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("wrong current password", func(t *testing.T) {
		err := svc.ChangePassword(ctx, p.ID, "wrong-pw", "new-pw")
		require.ErrorIs(t, err, ErrPasswordIncorrect)
	})

	t.Run("success invalidates every session", func(t *testing.T) {
		require.NoError(t, svc.ChangePassword(ctx, p.ID, "right-pw", "new-pw"))

		_, err := svc.Refresh(ctx, login.RefreshToken)
		require.ErrorIs(t, err, ErrInvalidRefresh, "old refresh token must be rejected")

		sessions, err := svc.Sessions(ctx, p.ID)
		require.NoError(t, err)
		require.Empty(t, sessions, "token history is cleared")

		_, err = svc.Login(ctx, "admin@x.com", "right-pw", testDevice)
		require.ErrorIs(t, err, ErrInvalidCredentials)

		_, err = svc.Login(ctx, "admin@x.com", "new-pw", testDevice)
		require.NoError(t, err)

		stored, err := st.Principals().GetPrincipalByID(ctx, p.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.PasswordChangedAt)
	})
}

func TestLogout_Idempotent(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newSessionService(t, st)
	p := createPrincipal(t, st, "admin@x.com", "right-pw")

	login, err := svc.Login(ctx, "admin@x.com", "right-pw", testDevice)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, p.ID))

	_, err = svc.Refresh(ctx, login.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefresh)

	sessions, err := svc.Sessions(ctx, p.ID)
	require.NoError(t, err)
	require.Empty(t, sessions)

	// A second logout, and a logout for an unknown principal, succeed.
	require.NoError(t, svc.Logout(ctx, p.ID))
	require.NoError(t, svc.Logout(ctx, idx.New().String()))
}

func TestLogin_SecondDeviceInvalidatesFirstRefresh(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newSessionService(t, st)
	createPrincipal(t, st, "admin@x.com", "right-pw")

	deviceA, err := svc.Login(ctx, "admin@x.com", "right-pw", DeviceContext{UserAgent: "device-a"})
	require.NoError(t, err)
	deviceB, err := svc.Login(ctx, "admin@x.com", "right-pw", DeviceContext{UserAgent: "device-b"})
	require.NoError(t, err)

	// Single-refresh model: the second login overwrote device A's refresh
	// token, while both access tokens stay in the history.
	_, err = svc.Refresh(ctx, deviceA.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefresh)

	_, err = svc.Refresh(ctx, deviceB.RefreshToken)
	require.NoError(t, err)

	sessions, err := svc.Sessions(ctx, deviceA.Principal.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 3) // two logins + one refresh
}

func TestLogin_PerPrincipalTokenTTL(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newSessionService(t, st)

	hash, err := cryptox.HashPasswordWithParams("right-pw", cryptox.Params{
		Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16,
	})
	require.NoError(t, err)

	p := domain.Principal{
		ID:              idx.New().String(),
		Email:           "short@x.com",
		PasswordHash:    hash,
		IsActive:        true,
		TokenTTLSeconds: 120,
	}
	require.NoError(t, st.Principals().CreatePrincipal(ctx, p))

	result, err := svc.Login(ctx, "short@x.com", "right-pw", testDevice)
	require.NoError(t, err)
	require.Equal(t, 120, result.ExpiresIn)
}
