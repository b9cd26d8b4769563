package store

import (
	"context"
	"errors"
	"time"

	"github.com/cobaltlane/sentinel/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for now)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable.
type Store interface {
	Principals() Principals
	TokenRecords() TokenRecords
	GateCodes() GateCodes
	Settings() Settings

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error, the
	// transaction is rolled back; otherwise it is committed. This is the
	// recommended way to run multi-step updates that must be atomic
	// (refresh rotation, gate code consumption).
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds
// Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Principals interface {
	// GetPrincipalByID returns a principal by id.
	GetPrincipalByID(ctx context.Context, id string) (domain.Principal, error)

	// GetPrincipalByEmail matches the stored identifier case-sensitively.
	GetPrincipalByEmail(ctx context.Context, email string) (domain.Principal, error)

	// CreatePrincipal inserts a new principal (id is provided by app via ULID).
	// Provisioning is out-of-band; this exists for bootstrap and tests.
	CreatePrincipal(ctx context.Context, p domain.Principal) error

	// UpdateLockout persists the lockout counters in one atomic write.
	UpdateLockout(ctx context.Context, id string, failedAttempts int, lockedUntil *time.Time) error

	// UpdateRefreshToken overwrites the single stored refresh token and its
	// server-side expiry. Empty token with nil expiry clears it.
	UpdateRefreshToken(ctx context.Context, id string, token string, expiresAt *time.Time) error

	// UpdatePasswordHash sets the password_hash and bumps password_changed_at.
	UpdatePasswordHash(ctx context.Context, id string, newHash string) error

	// UpdateLastLogin sets last_login_at.
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error

	// SetActive flips the is_active flag.
	SetActive(ctx context.Context, id string, active bool) error
}

type TokenRecords interface {
	// CreateTokenRecord appends an access token record to the history.
	CreateTokenRecord(ctx context.Context, rec domain.TokenRecord) error

	// ListTokenRecords returns a principal's records oldest first.
	ListTokenRecords(ctx context.Context, principalID string) ([]domain.TokenRecord, error)

	// TrimTokenRecords deletes all but the newest keep records (FIFO eviction).
	TrimTokenRecords(ctx context.Context, principalID string, keep int) error

	// DeleteTokenRecords clears the whole history (logout, secret change).
	DeleteTokenRecords(ctx context.Context, principalID string) error

	// DeleteExpiredTokenRecords is housekeeping.
	DeleteExpiredTokenRecords(ctx context.Context) error
}

type GateCodes interface {
	// CreateGateCode stores a freshly minted unconsumed code.
	CreateGateCode(ctx context.Context, c domain.GateCode) error

	// GetActiveGateCode returns the most recently created unconsumed record
	// for the gate, expired or not.
	GetActiveGateCode(ctx context.Context, gateID string) (domain.GateCode, error)

	// FindUnconsumedGateCode returns the most recent unconsumed record
	// matching gate and code exactly.
	FindUnconsumedGateCode(ctx context.Context, gateID, code string) (domain.GateCode, error)

	// MarkGateCodeConsumed flips consumed and records the consumption time.
	MarkGateCodeConsumed(ctx context.Context, id string, at time.Time) error

	// DeleteGateCode removes a single record by id.
	DeleteGateCode(ctx context.Context, id string) error

	// DeleteExpiredUnconsumedGateCodes removes expired never-consumed records
	// for a gate (defensive cleanup during generation).
	DeleteExpiredUnconsumedGateCodes(ctx context.Context, gateID string, now time.Time) error

	// DeleteOldestConsumedGateCode removes at most one consumed record for
	// the gate, oldest first, never touching excludeID.
	DeleteOldestConsumedGateCode(ctx context.Context, gateID, excludeID string) error

	// DeleteUnconsumedGateCodes removes any outstanding unconsumed records
	// for the gate (post-toggle clear).
	DeleteUnconsumedGateCodes(ctx context.Context, gateID string) error

	// PurgeConsumedGateCodesBefore is housekeeping over consumed records.
	PurgeConsumedGateCodesBefore(ctx context.Context, cutoff time.Time) error
}

// Settings is the external configuration key/value collaborator. Only boolean
// gate flags are consumed here.
type Settings interface {
	// GetFlag reads a named flag; an absent flag reads as enabled.
	GetFlag(ctx context.Context, name string) (bool, error)

	// SetFlag writes a named flag.
	SetFlag(ctx context.Context, name string, value bool) error
}
