package dispatch

import (
	"context"
	"log/slog"

	v1 "github.com/capirelay-lab/project-capirelay/internal/api/v1"
	"github.com/capirelay-lab/project-capirelay/internal/commerce"
	"github.com/capirelay-lab/project-capirelay/internal/core/config"
)

// Result is the dispatch outcome surfaced to trigger callers. Nothing else
// propagates: transport failures are terminal for the one event and reported
// through logging only.
type Result struct {
	Sent bool
}

// Auditor records a redacted trail of sent events. The dispatcher hands it
// whatever response data the push mode makes available, which may be nil.
type Auditor interface {
	RecordSend(ctx context.Context, account *commerce.Account, event *v1.Event, responseData interface{})
}

// Dispatcher sends built events to the Conversions API under the configured
// push mode.
type Dispatcher struct {
	client  *Client
	auditor Auditor
}

// NewDispatcher creates a dispatcher. auditor must not be nil; use a no-op
// recorder when audit storage is absent.
func NewDispatcher(client *Client, auditor Auditor) *Dispatcher {
	if client == nil {
		panic("dispatch: client must not be nil")
	}
	if auditor == nil {
		panic("dispatch: auditor must not be nil")
	}
	return &Dispatcher{client: client, auditor: auditor}
}

// Dispatch sends one event. A nil event or missing pixel id / access token
// returns not-sent without contacting the API.
//
// Push modes:
//   - sync: block for the full response; receipt metadata is logged.
//   - async: fire and forget; the send completes on its own goroutine with
//     no join point. A process exit before the call lands loses the event,
//     an accepted tradeoff of this mode. No response data ever exists, so
//     the audit log is not written (matching the event's pre-send shape
//     would record a send that may not have happened).
//   - async_await: start the send, then join on it before returning; the
//     raw response body becomes available for the audit log.
func (d *Dispatcher) Dispatch(ctx context.Context, account *commerce.Account, event *v1.Event, cfg config.TrackingConfig) Result {
	if event == nil {
		slog.Warn("The event is empty. Nothing has been sent to the Conversions API.")
		return Result{Sent: false}
	}

	if cfg.PixelID == "" || cfg.AccessToken == "" {
		slog.Warn("Pixel ID and/or access token are missing. Event not sent.",
			"pixel_id_set", cfg.PixelID != "",
			"access_token_set", cfg.AccessToken != "")
		return Result{Sent: false}
	}

	testEventCode := ""
	if cfg.TestEvents && cfg.TestEventCode != "" {
		testEventCode = cfg.TestEventCode
	}

	switch cfg.PushMode {
	case config.PushModeAsync:
		return d.dispatchFireAndForget(account, event, cfg, testEventCode)
	case config.PushModeAsyncAwait:
		return d.dispatchAwaited(ctx, account, event, cfg, testEventCode)
	default:
		return d.dispatchSync(ctx, account, event, cfg, testEventCode)
	}
}

func (d *Dispatcher) dispatchSync(ctx context.Context, account *commerce.Account, event *v1.Event, cfg config.TrackingConfig, testEventCode string) Result {
	resp, err := d.client.Send(ctx, event, cfg.PixelID, cfg.AccessToken, testEventCode)
	if err != nil {
		slog.Error("Got an error while sending a request", "error", err, "event_name", event.EventName)
		return Result{Sent: false}
	}

	slog.Info("Event sent",
		"event_name", event.EventName,
		"events_received", resp.EventsReceived,
		"fbtrace_id", resp.FBTraceID)

	if cfg.LogEvents {
		d.auditor.RecordSend(ctx, account, event, map[string]interface{}{
			"events_received": resp.EventsReceived,
			"messages":        resp.Messages,
			"fbtrace_id":      resp.FBTraceID,
		})
	}

	return Result{Sent: true}
}

func (d *Dispatcher) dispatchFireAndForget(account *commerce.Account, event *v1.Event, cfg config.TrackingConfig, testEventCode string) Result {
	go func() {
		// Detached from the request context: the send outlives the
		// triggering request. The client's own timeout still bounds it.
		_, err := d.client.Send(context.Background(), event, cfg.PixelID, cfg.AccessToken, testEventCode)
		if err != nil {
			slog.Error("Got an error while sending a request", "error", err, "event_name", event.EventName)
		}
	}()

	return Result{Sent: true}
}

func (d *Dispatcher) dispatchAwaited(ctx context.Context, account *commerce.Account, event *v1.Event, cfg config.TrackingConfig, testEventCode string) Result {
	type outcome struct {
		resp *Response
		err  error
	}

	done := make(chan outcome, 1)
	go func() {
		resp, err := d.client.Send(ctx, event, cfg.PixelID, cfg.AccessToken, testEventCode)
		done <- outcome{resp: resp, err: err}
	}()

	out := <-done
	if out.err != nil {
		slog.Error("Got an error while sending a request", "error", out.err, "event_name", event.EventName)
		return Result{Sent: false}
	}

	if cfg.LogEvents {
		d.auditor.RecordSend(ctx, account, event, out.resp.RawBody)
	}

	return Result{Sent: true}
}
