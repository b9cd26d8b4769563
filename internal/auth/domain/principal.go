package domain

import "time"

// Principal is the authenticable identity record. It owns the credential
// hash, the brute-force lockout counters and the single live refresh token.
type Principal struct {
	ID             string
	Email          string // login identifier, matched case-sensitively
	PasswordHash   string // argon2id encoded
	Roles          []string
	IsActive       bool
	FailedAttempts int
	LockedUntil    *time.Time

	// Only one live refresh token per principal: a login or refresh on a
	// second device overwrites it, while access tokens on the first device
	// keep working until they expire.
	RefreshToken          string
	RefreshTokenExpiresAt *time.Time

	// TokenTTLSeconds is the per-principal access token lifetime.
	TokenTTLSeconds int

	PasswordChangedAt *time.Time
	LastLoginAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// PrincipalView is the redacted shape returned to callers: no hash, no token
// list, no lockout internals.
type PrincipalView struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Roles       []string   `json:"roles,omitempty"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// View returns the redacted representation of p.
func (p Principal) View() PrincipalView {
	return PrincipalView{
		ID:          p.ID,
		Email:       p.Email,
		Roles:       p.Roles,
		LastLoginAt: p.LastLoginAt,
	}
}
