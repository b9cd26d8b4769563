package jwtx

import (
	"bytes"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("jwtx: invalid token")

	errKeyTooShort = errors.New("jwtx: signing key must be at least 32 bytes")
	errKeysEqual   = errors.New("jwtx: access and refresh keys must differ")
)

// Signer mints and verifies HS256 access and refresh tokens. The two token
// kinds are signed with different keys so neither can ever validate as the
// other.
type Signer struct {
	issuer     string
	accessKey  []byte
	refreshKey []byte
}

func NewSigner(issuer string, accessKey, refreshKey []byte) (*Signer, error) {
	if len(accessKey) < 32 || len(refreshKey) < 32 {
		return nil, errKeyTooShort
	}
	if bytes.Equal(accessKey, refreshKey) {
		return nil, errKeysEqual
	}
	return &Signer{
		issuer:     issuer,
		accessKey:  accessKey,
		refreshKey: refreshKey,
	}, nil
}

// SignAccess mints an access token for the principal carrying a role snapshot.
func (s *Signer) SignAccess(principalID string, roles []string, ttl time.Duration, now time.Time) (string, error) {
	claims := AccessClaims{
		Roles:            roles,
		RegisteredClaims: newRegisteredClaims(s.issuer, principalID, ttl, now),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.accessKey)
}

// SignRefresh mints a refresh token for the principal.
func (s *Signer) SignRefresh(principalID string, ttl time.Duration, now time.Time) (string, error) {
	claims := RefreshClaims{
		TokenType:        TokenTypeRefresh,
		RegisteredClaims: newRegisteredClaims(s.issuer, principalID, ttl, now),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.refreshKey)
}

// VerifyAccess validates the signature, issuer and expiry of an access token
// and returns its claims.
func (s *Signer) VerifyAccess(token string) (*AccessClaims, error) {
	var claims AccessClaims
	if err := s.parse(token, &claims, s.accessKey); err != nil {
		return nil, err
	}
	return &claims, nil
}

// VerifyRefresh validates a refresh token, including its type discriminator.
func (s *Signer) VerifyRefresh(token string) (*RefreshClaims, error) {
	var claims RefreshClaims
	if err := s.parse(token, &claims, s.refreshKey); err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypeRefresh {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

func (s *Signer) parse(token string, claims jwt.Claims, key []byte) error {
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (any, error) { return key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return ErrInvalidToken
	}
	return nil
}
