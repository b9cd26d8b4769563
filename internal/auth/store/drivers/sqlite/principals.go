package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/cobaltlane/sentinel/internal/auth/domain"
)

type principalsRepo struct {
	db dbtx
}

const principalColumns = `id, email, password_hash, roles, is_active,
	failed_attempts, locked_until, refresh_token, refresh_token_expires_at,
	token_ttl_seconds, password_changed_at, last_login_at, created_at, updated_at`

func (r *principalsRepo) GetPrincipalByID(ctx context.Context, id string) (domain.Principal, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+principalColumns+` FROM principals WHERE id = ?`, id)
	return scanPrincipal(row)
}

func (r *principalsRepo) GetPrincipalByEmail(ctx context.Context, email string) (domain.Principal, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+principalColumns+` FROM principals WHERE email = ?`, email)
	return scanPrincipal(row)
}

func (r *principalsRepo) CreatePrincipal(ctx context.Context, p domain.Principal) error {
	now := time.Now().UTC()
	ttl := p.TokenTTLSeconds
	if ttl <= 0 {
		ttl = 3600
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO principals (
			id, email, password_hash, roles, is_active, failed_attempts,
			locked_until, refresh_token, refresh_token_expires_at,
			token_ttl_seconds, password_changed_at, last_login_at,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Email, p.PasswordHash, joinFields(p.Roles), p.IsActive,
		p.FailedAttempts, mapOptionalTime(p.LockedUntil), p.RefreshToken,
		mapOptionalTime(p.RefreshTokenExpiresAt), ttl,
		mapOptionalTime(p.PasswordChangedAt), mapOptionalTime(p.LastLoginAt),
		now, now,
	)
	return err
}

func (r *principalsRepo) UpdateLockout(ctx context.Context, id string, failedAttempts int, lockedUntil *time.Time) error {
	return r.exec(ctx, `
		UPDATE principals
		SET failed_attempts = ?, locked_until = ?, updated_at = ?
		WHERE id = ?`,
		failedAttempts, mapOptionalTime(lockedUntil), time.Now().UTC(), id)
}

func (r *principalsRepo) UpdateRefreshToken(ctx context.Context, id string, token string, expiresAt *time.Time) error {
	return r.exec(ctx, `
		UPDATE principals
		SET refresh_token = ?, refresh_token_expires_at = ?, updated_at = ?
		WHERE id = ?`,
		token, mapOptionalTime(expiresAt), time.Now().UTC(), id)
}

func (r *principalsRepo) UpdatePasswordHash(ctx context.Context, id string, newHash string) error {
	now := time.Now().UTC()
	return r.exec(ctx, `
		UPDATE principals
		SET password_hash = ?, password_changed_at = ?, updated_at = ?
		WHERE id = ?`,
		newHash, now, now, id)
}

func (r *principalsRepo) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.exec(ctx, `
		UPDATE principals SET last_login_at = ?, updated_at = ? WHERE id = ?`,
		at, time.Now().UTC(), id)
}

func (r *principalsRepo) SetActive(ctx context.Context, id string, active bool) error {
	return r.exec(ctx, `
		UPDATE principals SET is_active = ?, updated_at = ? WHERE id = ?`,
		active, time.Now().UTC(), id)
}

// exec runs an UPDATE that must match exactly one principal.
func (r *principalsRepo) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return mapNotFound(sql.ErrNoRows)
	}
	return nil
}

func scanPrincipal(row *sql.Row) (domain.Principal, error) {
	var (
		p           domain.Principal
		roles       string
		lockedUntil sql.NullTime
		refreshExp  sql.NullTime
		pwChanged   sql.NullTime
		lastLogin   sql.NullTime
	)

	err := row.Scan(
		&p.ID, &p.Email, &p.PasswordHash, &roles, &p.IsActive,
		&p.FailedAttempts, &lockedUntil, &p.RefreshToken, &refreshExp,
		&p.TokenTTLSeconds, &pwChanged, &lastLogin, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return domain.Principal{}, mapNotFound(err)
	}

	p.Roles = splitFields(roles)
	p.LockedUntil = mapNullTimePtr(lockedUntil)
	p.RefreshTokenExpiresAt = mapNullTimePtr(refreshExp)
	p.PasswordChangedAt = mapNullTimePtr(pwChanged)
	p.LastLoginAt = mapNullTimePtr(lastLogin)
	return p, nil
}
