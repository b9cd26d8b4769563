package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"time"

	"github.com/cobaltlane/sentinel/internal/auth/domain"
	"github.com/cobaltlane/sentinel/internal/auth/lockout"
	"github.com/cobaltlane/sentinel/internal/auth/store"
	"github.com/cobaltlane/sentinel/pkg/cryptox"
	"github.com/cobaltlane/sentinel/pkg/idx"
	"github.com/cobaltlane/sentinel/pkg/jwtx"
	"github.com/cobaltlane/sentinel/pkg/slogx"
)

const defaultAccessTTL = time.Hour

// SessionService composes the lockout policy, secret hasher, token issuer and
// principal store into the login, refresh, change-password and logout flows.
type SessionService struct {
	Store      store.Store
	Tokens     *jwtx.Signer
	Policy     lockout.Policy
	RefreshTTL time.Duration
}

// DeviceContext describes the caller's device for session visibility.
type DeviceContext struct {
	UserAgent string
	IPAddress string
}

// LoginResult is the token pair plus a redacted view of the principal.
type LoginResult struct {
	domain.TokenPair
	Principal domain.PrincipalView `json:"principal"`
}

// Login authenticates a principal by identifier and password.
//
// The lockout guard runs before verification so a locked account never spends
// hashing work and never reveals whether the password was right. A failed
// verification commits its counter increment even though the call fails.
func (s *SessionService) Login(ctx context.Context, email, password string, device DeviceContext) (*LoginResult, error) {
	now := time.Now().UTC()
	l := slogx.FromContext(ctx)

	p, err := s.Store.Principals().GetPrincipalByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Indistinguishable from a wrong password on purpose.
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	state := lockout.State{FailedAttempts: p.FailedAttempts, LockedUntil: p.LockedUntil}
	if s.Policy.Locked(state, now) {
		l.Info("login refused: account locked", slog.String("principal_id", p.ID))
		return nil, ErrAccountLocked
	}

	if !p.IsActive {
		return nil, ErrAccountDeactivated
	}

	if err := cryptox.VerifyPassword(password, p.PasswordHash); err != nil {
		next := s.Policy.OnFailure(state, now)
		// The failed attempt must be recorded even though the login fails;
		// the single-row update commits atomically.
		if err := s.Store.Principals().UpdateLockout(ctx, p.ID, next.FailedAttempts, next.LockedUntil); err != nil {
			l.Error("failed to persist lockout state", slog.Any("error", err), slog.String("principal_id", p.ID))
			return nil, err
		}
		l.Info("login failed: bad password",
			slog.String("principal_id", p.ID),
			slog.Int("failed_attempts", next.FailedAttempts),
		)
		return nil, ErrInvalidCredentials
	}

	pair, record, refreshExp, err := s.issueTokens(p, device, now)
	if err != nil {
		return nil, err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		reset := s.Policy.OnSuccess()
		if err := tx.Principals().UpdateLockout(ctx, p.ID, reset.FailedAttempts, reset.LockedUntil); err != nil {
			return err
		}
		if err := tx.TokenRecords().CreateTokenRecord(ctx, record); err != nil {
			return err
		}
		if err := tx.TokenRecords().TrimTokenRecords(ctx, p.ID, domain.MaxActiveTokens); err != nil {
			return err
		}
		if err := tx.Principals().UpdateRefreshToken(ctx, p.ID, pair.RefreshToken, &refreshExp); err != nil {
			return err
		}
		return tx.Principals().UpdateLastLogin(ctx, p.ID, now)
	})
	if err != nil {
		return nil, err
	}

	p.LastLoginAt = &now
	return &LoginResult{TokenPair: pair, Principal: p.View()}, nil
}

// Refresh exchanges a valid refresh token for a new token pair, rotating the
// refresh token. The previous refresh token is dead the moment the rotation
// commits.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	now := time.Now().UTC()

	claims, err := s.Tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefresh
	}

	p, err := s.Store.Principals().GetPrincipalByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidRefresh
		}
		return nil, err
	}

	// A rotated-out or logged-out token no longer matches the stored one.
	if p.RefreshToken == "" ||
		subtle.ConstantTimeCompare([]byte(p.RefreshToken), []byte(refreshToken)) != 1 {
		return nil, ErrInvalidRefresh
	}

	// Server-side expiry is enforced independently of the signed claim.
	if p.RefreshTokenExpiresAt == nil || now.After(*p.RefreshTokenExpiresAt) {
		return nil, ErrRefreshExpired
	}

	pair, record, refreshExp, err := s.issueTokens(p, DeviceContext{}, now)
	if err != nil {
		return nil, err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.TokenRecords().CreateTokenRecord(ctx, record); err != nil {
			return err
		}
		if err := tx.TokenRecords().TrimTokenRecords(ctx, p.ID, domain.MaxActiveTokens); err != nil {
			return err
		}
		return tx.Principals().UpdateRefreshToken(ctx, p.ID, pair.RefreshToken, &refreshExp)
	})
	if err != nil {
		return nil, err
	}

	return &pair, nil
}

// ChangePassword verifies the current password, stores the new hash, and
// clears every live token so all devices must re-authenticate.
func (s *SessionService) ChangePassword(ctx context.Context, principalID, currentPassword, newPassword string) error {
	p, err := s.Store.Principals().GetPrincipalByID(ctx, principalID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	if err := cryptox.VerifyPassword(currentPassword, p.PasswordHash); err != nil {
		return ErrPasswordIncorrect
	}

	newHash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return err
	}

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Principals().UpdatePasswordHash(ctx, p.ID, newHash); err != nil {
			return err
		}
		if err := tx.TokenRecords().DeleteTokenRecords(ctx, p.ID); err != nil {
			return err
		}
		return tx.Principals().UpdateRefreshToken(ctx, p.ID, "", nil)
	})
}

// Logout clears every live token for the principal. Logging out an already
// logged-out principal is not an error.
func (s *SessionService) Logout(ctx context.Context, principalID string) error {
	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.TokenRecords().DeleteTokenRecords(ctx, principalID); err != nil {
			return err
		}
		err := tx.Principals().UpdateRefreshToken(ctx, principalID, "", nil)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	})
}

// Sessions lists the principal's bounded access-token history, oldest first.
func (s *SessionService) Sessions(ctx context.Context, principalID string) ([]domain.SessionView, error) {
	records, err := s.Store.TokenRecords().ListTokenRecords(ctx, principalID)
	if err != nil {
		return nil, err
	}
	views := make([]domain.SessionView, 0, len(records))
	for _, rec := range records {
		views = append(views, rec.View())
	}
	return views, nil
}

func (s *SessionService) issueTokens(p domain.Principal, device DeviceContext, now time.Time) (domain.TokenPair, domain.TokenRecord, time.Time, error) {
	accessTTL := defaultAccessTTL
	if p.TokenTTLSeconds > 0 {
		accessTTL = time.Duration(p.TokenTTLSeconds) * time.Second
	}

	accessToken, err := s.Tokens.SignAccess(p.ID, p.Roles, accessTTL, now)
	if err != nil {
		return domain.TokenPair{}, domain.TokenRecord{}, time.Time{}, err
	}
	refreshToken, err := s.Tokens.SignRefresh(p.ID, s.RefreshTTL, now)
	if err != nil {
		return domain.TokenPair{}, domain.TokenRecord{}, time.Time{}, err
	}

	pair := domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(accessTTL.Seconds()),
	}
	record := domain.TokenRecord{
		ID:          idx.New().String(),
		PrincipalID: p.ID,
		Token:       accessToken,
		IssuedAt:    now,
		ExpiresAt:   now.Add(accessTTL),
		UserAgent:   device.UserAgent,
		IPAddress:   device.IPAddress,
	}
	return pair, record, now.Add(s.RefreshTTL), nil
}
