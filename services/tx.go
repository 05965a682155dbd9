package services

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/cafe-pos/apperrors"
	"github.com/yeremiapane/cafe-pos/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultTxTimeout = 5 * time.Second

// retryBackoffs holds the base wait before each retry attempt.
var retryBackoffs = []time.Duration{0, 100 * time.Millisecond, 200 * time.Millisecond}

// runTx runs fn in a transaction bounded by timeout. Errors that are not
// already typed come back as InternalError.
func runTx(ctx context.Context, db *gorm.DB, timeout time.Duration, fn func(tx *gorm.DB) error) error {
	if timeout <= 0 {
		timeout = defaultTxTimeout
	}
	txCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := db.WithContext(txCtx).Transaction(fn)
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(txCtx.Err(), context.DeadlineExceeded) {
		return apperrors.NewInternal("transaction timed out", err)
	}
	return apperrors.Wrap(err, "transaction failed")
}

// runTxWithRetry retries runTx while the database reports a deadlock or a
// serialization failure.
func runTxWithRetry(ctx context.Context, db *gorm.DB, timeout time.Duration, op string, fn func(tx *gorm.DB) error) error {
	maxAttempts := len(retryBackoffs)
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = runTx(ctx, db, timeout, fn)
		if err == nil || !isRetryableError(err) {
			return err
		}
		if attempt == maxAttempts {
			break
		}

		wait := backoff(attempt)
		utils.InfoLogger.WithFields(logrus.Fields{
			"op":          op,
			"attempt":     attempt,
			"maxAttempts": maxAttempts,
			"wait":        wait,
		}).Warn("retryable database error, retrying")

		select {
		case <-ctx.Done():
			return apperrors.NewInternal(op+" cancelled", ctx.Err())
		case <-time.After(wait):
		}
	}
	return apperrors.NewInternal(op+": max retries exceeded", err)
}

// backoff returns the wait before the attempt after the given one, with
// +/-20% jitter.
func backoff(attempt int) time.Duration {
	base := retryBackoffs[attempt]
	if base == 0 {
		return 0
	}
	jitter := 0.8 + rand.Float64()*0.4
	return time.Duration(float64(base) * jitter)
}

// isRetryableError detects MySQL deadlock/lock wait timeout and Postgres
// deadlock/serialization failures.
func isRetryableError(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1213 || mysqlErr.Number == 1205
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40P01" || pgErr.Code == "40001"
	}
	return false
}

// forUpdate adds SELECT ... FOR UPDATE where the driver supports it. SQLite
// serialises writers on its own.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
