package service

import "errors"

// Expected, user-facing outcomes. Anything else bubbling out of a service
// call is an internal storage or signing failure and is logged, never shown.
var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrAccountLocked      = errors.New("account_locked")
	ErrAccountDeactivated = errors.New("account_deactivated")
	ErrInvalidRefresh     = errors.New("invalid_refresh_token")
	ErrRefreshExpired     = errors.New("refresh_token_expired")
	ErrPasswordIncorrect  = errors.New("current_password_incorrect")
	ErrNotFound           = errors.New("not_found")

	ErrInvalidSharedSecret  = errors.New("invalid_shared_secret")
	ErrInvalidOrExpiredCode = errors.New("invalid_or_expired_code")
)
