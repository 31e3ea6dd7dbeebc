package sqlite

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
)

func TestTransactionManager_RollbackOnError(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, filepath.Join(t.TempDir(), "tx.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	tm := NewTransactionManager(db, slog.New(slog.NewTextHandler(io.Discard, nil)))
	boom := errors.New("boom")

	err = tm.ExecTx(ctx, func(txCtx context.Context) error {
		if _, err := GetExecutor(txCtx, db).ExecContext(txCtx,
			`INSERT INTO analytics_events (document_id, event_key) VALUES ('d', 'k')`); err != nil {
			return err
		}
		// Nested calls join the outer transaction
		return tm.ExecTx(txCtx, func(context.Context) error { return boom })
	})
	if !errors.Is(err, boom) {
		t.Fatalf("ExecTx() error = %v, want boom", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM analytics_events`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("rows after rollback = %d, want 0", count)
	}

	err = tm.ExecTx(ctx, func(txCtx context.Context) error {
		_, err := GetExecutor(txCtx, db).ExecContext(txCtx,
			`INSERT INTO analytics_events (document_id, event_key) VALUES ('d', 'k')`)
		return err
	})
	if err != nil {
		t.Fatalf("ExecTx() error = %v", err)
	}

	_, err = db.ExecContext(ctx, `INSERT INTO analytics_events (document_id, event_key) VALUES ('d', 'k')`)
	if !IsUniqueError(err) {
		t.Errorf("IsUniqueError(%v) = false, want true", err)
	}
}
