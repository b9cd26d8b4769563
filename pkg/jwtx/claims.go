package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenTypeRefresh is the discriminator carried in refresh token claims so a
// refresh token presented to an access-protected endpoint is rejected even
// before the key mismatch is noticed.
const TokenTypeRefresh = "refresh"

// AccessClaims are the claims embedded in short-lived access tokens: the
// principal id as subject plus a snapshot of its roles at issue time.
type AccessClaims struct {
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// RefreshClaims are the claims embedded in refresh tokens. The expiry here is
// advisory; the server-side stored expiry is enforced independently.
type RefreshClaims struct {
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

func newRegisteredClaims(issuer, subject string, ttl time.Duration, now time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   subject,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}
