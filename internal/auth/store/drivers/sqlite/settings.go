package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type settingsRepo struct {
	db dbtx
}

// GetFlag reads a named boolean flag. An absent flag reads as enabled, which
// keeps a fresh deployment open by default.
func (r *settingsRepo) GetFlag(ctx context.Context, name string) (bool, error) {
	var value bool
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE name = ?`, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return value, nil
}

func (r *settingsRepo) SetFlag(ctx context.Context, name string, value bool) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settings (name, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		name, value, time.Now().UTC())
	return err
}
