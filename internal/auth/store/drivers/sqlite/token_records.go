package sqlite

import (
	"context"
	"time"

	"github.com/cobaltlane/sentinel/internal/auth/domain"
)

type tokenRecordsRepo struct {
	db dbtx
}

func (r *tokenRecordsRepo) CreateTokenRecord(ctx context.Context, rec domain.TokenRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO token_records (id, principal_id, token, issued_at, expires_at, user_agent, ip_address)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.PrincipalID, rec.Token, rec.IssuedAt, rec.ExpiresAt,
		rec.UserAgent, rec.IPAddress)
	return err
}

func (r *tokenRecordsRepo) ListTokenRecords(ctx context.Context, principalID string) ([]domain.TokenRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, principal_id, token, issued_at, expires_at, user_agent, ip_address
		FROM token_records
		WHERE principal_id = ?
		ORDER BY issued_at ASC, id ASC`, principalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.TokenRecord
	for rows.Next() {
		var rec domain.TokenRecord
		if err := rows.Scan(&rec.ID, &rec.PrincipalID, &rec.Token,
			&rec.IssuedAt, &rec.ExpiresAt, &rec.UserAgent, &rec.IPAddress); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// TrimTokenRecords keeps the newest keep records and drops the rest, oldest
// first. ULID ids break ties for records issued within the same instant.
func (r *tokenRecordsRepo) TrimTokenRecords(ctx context.Context, principalID string, keep int) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM token_records
		WHERE principal_id = ?
		  AND id NOT IN (
			SELECT id FROM token_records
			WHERE principal_id = ?
			ORDER BY issued_at DESC, id DESC
			LIMIT ?
		  )`, principalID, principalID, keep)
	return err
}

func (r *tokenRecordsRepo) DeleteTokenRecords(ctx context.Context, principalID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM token_records WHERE principal_id = ?`, principalID)
	return err
}

func (r *tokenRecordsRepo) DeleteExpiredTokenRecords(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM token_records WHERE expires_at < ?`, time.Now().UTC())
	return err
}
