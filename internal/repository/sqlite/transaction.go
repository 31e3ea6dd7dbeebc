package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"modernc.org/sqlite"

	"scriptorium/internal/domain/repositories"
)

// Executor is the subset of *sql.DB and *sql.Tx used by repositories
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txContextKey struct{}

// GetExecutor returns the transaction stored in ctx, or db when there is none
func GetExecutor(ctx context.Context, db *sql.DB) Executor {
	if tx, ok := ctx.Value(txContextKey{}).(*sql.Tx); ok {
		return tx
	}
	return db
}

// TransactionManager implements repositories.TransactionManager on database/sql
type TransactionManager struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewTransactionManager creates a new transaction manager
func NewTransactionManager(db *sql.DB, logger *slog.Logger) repositories.TransactionManager {
	return &TransactionManager{db: db, logger: logger}
}

// ExecTx executes fn within a transaction. The pool holds a single connection,
// so fn must pass the ctx it receives to every repository call.
func (tm *TransactionManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	if _, ok := ctx.Value(txContextKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	tx, err := tm.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			tm.logger.Warn("rollback failed", "error", err)
		}
	}()

	if err := fn(context.WithValue(ctx, txContextKey{}, tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// RepositoryConfig holds configuration for repository implementations
type RepositoryConfig struct {
	DB     *sql.DB
	Logger *slog.Logger
}

// SQLITE_CONSTRAINT primary result code
const sqliteConstraint = 19

// IsUniqueError checks if err is a UNIQUE or PRIMARY KEY violation
func IsUniqueError(err error) bool {
	return isConstraint(err, "UNIQUE") || isConstraint(err, "PRIMARY KEY")
}

// IsForeignKeyError checks if err is a foreign key violation
func IsForeignKeyError(err error) bool {
	return isConstraint(err, "FOREIGN KEY")
}

func isConstraint(err error, kind string) bool {
	var sqlErr *sqlite.Error
	if !errors.As(err, &sqlErr) {
		return false
	}
	return sqlErr.Code()&0xff == sqliteConstraint && strings.Contains(sqlErr.Error(), kind)
}

// ToMillis encodes a timestamp for INTEGER columns
func ToMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// FromMillis decodes an INTEGER timestamp column as UTC
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
