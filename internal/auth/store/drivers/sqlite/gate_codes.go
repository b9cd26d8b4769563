package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/cobaltlane/sentinel/internal/auth/domain"
)

type gateCodesRepo struct {
	db dbtx
}

const gateCodeColumns = `id, gate_id, code, expires_at, consumed, consumed_at, created_at`

func (r *gateCodesRepo) CreateGateCode(ctx context.Context, c domain.GateCode) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO gate_codes (id, gate_id, code, expires_at, consumed, consumed_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.GateID, c.Code, c.ExpiresAt, c.Consumed,
		mapOptionalTime(c.ConsumedAt), c.CreatedAt)
	return err
}

func (r *gateCodesRepo) GetActiveGateCode(ctx context.Context, gateID string) (domain.GateCode, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+gateCodeColumns+`
		FROM gate_codes
		WHERE gate_id = ? AND consumed = 0
		ORDER BY id DESC
		LIMIT 1`, gateID)
	return scanGateCode(row)
}

func (r *gateCodesRepo) FindUnconsumedGateCode(ctx context.Context, gateID, code string) (domain.GateCode, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+gateCodeColumns+`
		FROM gate_codes
		WHERE gate_id = ? AND code = ? AND consumed = 0
		ORDER BY id DESC
		LIMIT 1`, gateID, code)
	return scanGateCode(row)
}

func (r *gateCodesRepo) MarkGateCodeConsumed(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE gate_codes SET consumed = 1, consumed_at = ? WHERE id = ? AND consumed = 0`,
		at, id)
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

func (r *gateCodesRepo) DeleteGateCode(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM gate_codes WHERE id = ?`, id)
	return err
}

func (r *gateCodesRepo) DeleteExpiredUnconsumedGateCodes(ctx context.Context, gateID string, now time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM gate_codes
		WHERE gate_id = ? AND consumed = 0 AND expires_at < ?`, gateID, now)
	return err
}

// DeleteOldestConsumedGateCode bounds consumed-record growth inline: at most
// one row goes per call, oldest first, and the row being validated is never
// touched.
func (r *gateCodesRepo) DeleteOldestConsumedGateCode(ctx context.Context, gateID, excludeID string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM gate_codes
		WHERE id IN (
			SELECT id FROM gate_codes
			WHERE gate_id = ? AND consumed = 1 AND id != ?
			ORDER BY id ASC
			LIMIT 1
		)`, gateID, excludeID)
	return err
}

func (r *gateCodesRepo) DeleteUnconsumedGateCodes(ctx context.Context, gateID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM gate_codes WHERE gate_id = ? AND consumed = 0`, gateID)
	return err
}

func (r *gateCodesRepo) PurgeConsumedGateCodesBefore(ctx context.Context, cutoff time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM gate_codes WHERE consumed = 1 AND consumed_at < ?`, cutoff)
	return err
}

func scanGateCode(row *sql.Row) (domain.GateCode, error) {
	var (
		c          domain.GateCode
		consumedAt sql.NullTime
	)
	err := row.Scan(&c.ID, &c.GateID, &c.Code, &c.ExpiresAt, &c.Consumed,
		&consumedAt, &c.CreatedAt)
	if err != nil {
		return domain.GateCode{}, mapNotFound(err)
	}
	c.ConsumedAt = mapNullTimePtr(consumedAt)
	return c, nil
}
