// Package audit persists a redacted trail of dispatched conversion events.
// Audit failures are reported through logging only: by the time a record is
// written, the external send has already succeeded, and the pipeline never
// turns a logging failure into a dispatch failure.
package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	v1 "github.com/capirelay-lab/project-capirelay/internal/api/v1"
	"github.com/capirelay-lab/project-capirelay/internal/commerce"
	"github.com/capirelay-lab/project-capirelay/internal/core/storage"
)

// Recorder writes send records through an AuditStore. A nil store makes
// every call a no-op, which is how an installation without the audit table
// runs.
type Recorder struct {
	store storage.AuditStore
	nowFn func() time.Time
}

// NewRecorder creates a recorder. store may be nil.
func NewRecorder(store storage.AuditStore) *Recorder {
	return &Recorder{store: store, nowFn: time.Now}
}

// RecordSend persists one redacted record of a sent event together with
// whatever response data the push mode produced (may be nil). Any failure
// is logged and swallowed.
func (r *Recorder) RecordSend(ctx context.Context, account *commerce.Account, event *v1.Event, responseData interface{}) {
	if r.store == nil || event == nil {
		return
	}

	rec := &storage.SendRecord{
		EventName: string(event.EventName),
		SourceURL: event.EventSourceURL,
		Created:   r.nowFn().UTC(),
	}

	if account != nil {
		rec.UID = account.ID
	}

	if event.UserData != nil {
		rec.IPAddress = event.UserData.ClientIPAddress
		rec.UserAgent = event.UserData.ClientUserAgent
		rec.FBP = event.UserData.FBP
		rec.FBC = event.UserData.FBC
	}

	rec.UserData = marshalSnapshot("user_data", event.UserData)
	rec.CustomData = marshalSnapshot("custom_data", event.CustomData)
	rec.EventData = marshalSnapshot("event_data", event)
	if responseData != nil {
		rec.ResponseData = marshalSnapshot("response_data", responseData)
	}

	if err := r.store.InsertSendRecord(ctx, rec); err != nil {
		slog.Error("An error occurred while inserting the event log record",
			"error", err,
			"event_name", rec.EventName)
	}
}

// marshalSnapshot serializes a snapshot field, logging rather than failing
// on marshal errors.
func marshalSnapshot(field string, v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("Failed to marshal audit snapshot", "field", field, "error", err)
		return nil
	}
	return data
}
