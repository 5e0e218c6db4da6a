package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/capirelay-lab/project-capirelay/internal/core/storage"
)

// AuditAdapter implements storage.AuditStore for PostgreSQL.
type AuditAdapter struct {
	db         *sql.DB
	stmtInsert *sql.Stmt
	stmtPrune  *sql.Stmt
}

// NewAuditAdapter prepares the audit statements on the shared connection.
// Returns (nil, nil) when the tracking_log table does not exist: the audit
// log is an optional installation and the recorder treats a nil store as
// a no-op.
func NewAuditAdapter(db *sql.DB) (*AuditAdapter, error) {
	var exists bool
	if err := db.QueryRow(queryAuditTableExists).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check tracking_log table: %w", err)
	}
	if !exists {
		slog.Warn("[Postgres] tracking_log table missing, audit logging disabled")
		return nil, nil
	}

	stmtInsert, err := db.Prepare(queryInsertSendRecord)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insertSendRecord statement: %w", err)
	}

	stmtPrune, err := db.Prepare(queryPruneSendRecords)
	if err != nil {
		stmtInsert.Close()
		return nil, fmt.Errorf("failed to prepare pruneSendRecords statement: %w", err)
	}

	return &AuditAdapter{
		db:         db,
		stmtInsert: stmtInsert,
		stmtPrune:  stmtPrune,
	}, nil
}

// InsertSendRecord appends one audit entry.
func (a *AuditAdapter) InsertSendRecord(ctx context.Context, rec *storage.SendRecord) error {
	_, err := a.stmtInsert.ExecContext(ctx,
		rec.UID,
		rec.EventName,
		rec.IPAddress,
		rec.UserAgent,
		rec.SourceURL,
		rec.FBP,
		rec.FBC,
		rec.UserData,
		rec.CustomData,
		rec.EventData,
		rec.ResponseData,
		rec.Created,
	)
	if err != nil {
		return fmt.Errorf("failed to insert send record: %w", err)
	}

	slog.Debug("[Postgres] Saved send record",
		"uid", rec.UID,
		"event_name", rec.EventName)
	return nil
}

// PruneSendRecords deletes up to limit records created before the cutoff.
func (a *AuditAdapter) PruneSendRecords(ctx context.Context, before time.Time, limit int) (int64, error) {
	res, err := a.stmtPrune.ExecContext(ctx, before, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to prune send records: %w", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read pruned row count: %w", err)
	}
	return deleted, nil
}

// Close closes the prepared statements.
func (a *AuditAdapter) Close() error {
	var firstErr error

	if err := a.stmtInsert.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("failed to close insertSendRecord statement: %w", err)
	}

	if err := a.stmtPrune.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("failed to close pruneSendRecords statement: %w", err)
	}

	return firstErr
}
