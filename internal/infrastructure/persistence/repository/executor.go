package repository

import (
	"context"
	"database/sql"

	"github.com/homeshine/conflict-engine/internal/infrastructure/persistence/sqlite"
)

// executor interface covers both *sql.DB and *sql.Tx
type executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// getExecutor routes statements through the ambient transaction when one is
// carried in the context, otherwise straight to the pool.
func getExecutor(ctx context.Context, db *sql.DB) executor {
	if tx := sqlite.TxFromContext(ctx); tx != nil {
		return tx
	}
	return db
}

// appealOpenCondition matches appeals in any non-terminal status.
const appealOpenCondition = "status NOT IN ('approved', 'partially_approved', 'denied')"

// adjustmentPendingCondition matches adjustment cases in any non-terminal
// status. Expiry is derived at read time, so expired-but-unresolved rows
// still match here.
const adjustmentPendingCondition = "status NOT IN ('approved', 'denied', 'owner_approved', 'owner_denied', 'expired')"
