package storage

import (
	"context"
	"errors"
	"time"

	"github.com/capirelay-lab/project-capirelay/internal/commerce"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("entity not found")

// CatalogStore resolves product variations for client-initiated triggers.
type CatalogStore interface {
	// GetVariation loads a product variation by id.
	// Returns ErrNotFound when no such variation exists.
	GetVariation(ctx context.Context, id int64) (*commerce.ProductVariation, error)
}

// SendRecord is one redacted audit entry for a dispatched conversion event.
type SendRecord struct {
	UID          int64
	EventName    string
	IPAddress    string
	UserAgent    string
	SourceURL    string
	FBP          string
	FBC          string
	UserData     []byte // JSON snapshot
	CustomData   []byte // JSON snapshot
	EventData    []byte // JSON snapshot of the full event
	ResponseData []byte // JSON, mode-dependent; nil when unavailable
	Created      time.Time
}

// AuditStore persists send records for dispatched events.
type AuditStore interface {
	// InsertSendRecord appends one audit entry.
	InsertSendRecord(ctx context.Context, rec *SendRecord) error

	// PruneSendRecords deletes up to limit records created before the cutoff.
	// Returns the number of rows removed.
	PruneSendRecords(ctx context.Context, before time.Time, limit int) (int64, error)
}
