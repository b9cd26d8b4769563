package sqlite

import (
	"context"
	"database/sql"

	"github.com/cobaltlane/sentinel/internal/auth/store"
)

type txStore struct {
	tx *sql.Tx
}

func newTx(tx *sql.Tx) *txStore {
	return &txStore{tx: tx}
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

func (t *txStore) Close() error { return nil } // outer DB stays open; caller commits or rolls back

// Ping is a no-op for transactions; the connection already exists.
func (t *txStore) Ping(ctx context.Context) error { return nil }

func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	// Nested tx not supported; could emulate with SAVEPOINT if needed.
	return nil, sql.ErrTxDone
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return sql.ErrTxDone
}

func (t *txStore) ApplyMigrations() error { return sql.ErrTxDone } // apply before starting a tx

func (t *txStore) Principals() store.Principals     { return &principalsRepo{db: t.tx} }
func (t *txStore) TokenRecords() store.TokenRecords { return &tokenRecordsRepo{db: t.tx} }
func (t *txStore) GateCodes() store.GateCodes       { return &gateCodesRepo{db: t.tx} }
func (t *txStore) Settings() store.Settings         { return &settingsRepo{db: t.tx} }
