package core

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultLockTimeout bounds how long a write transaction may wait on a row
// lock before the operation aborts with a ContentionError.
const DefaultLockTimeout = 5 * time.Second

// beginWriteTx opens a transaction with a bounded lock wait. Row locks taken
// inside it (FOR UPDATE, guarded UPDATEs) fail with SQLSTATE 55P03 once the
// bound elapses, which mapPgError surfaces as a ContentionError.
func beginWriteTx(ctx context.Context, pool *pgxpool.Pool, lockTimeout time.Duration) (pgx.Tx, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, mapPgError("begin transaction", err)
	}
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", lockTimeout.Milliseconds())); err != nil {
		_ = tx.Rollback(ctx)
		return nil, mapPgError("set lock timeout", err)
	}
	return tx, nil
}
