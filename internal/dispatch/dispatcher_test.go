package dispatch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	v1 "github.com/capirelay-lab/project-capirelay/internal/api/v1"
	"github.com/capirelay-lab/project-capirelay/internal/commerce"
	"github.com/capirelay-lab/project-capirelay/internal/core/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// recordingAuditor is an in-memory Auditor test helper.
type recordingAuditor struct {
	mu    sync.Mutex
	calls []interface{}
}

func (a *recordingAuditor) RecordSend(_ context.Context, _ *commerce.Account, _ *v1.Event, responseData interface{}) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, responseData)
}

func (a *recordingAuditor) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.calls)
}

func testEvent() *v1.Event {
	return &v1.Event{
		EventName:      v1.EventNameViewContent,
		EventTime:      1767225600,
		EventID:        "evt-1",
		EventSourceURL: "https://shop.example.com/product/7",
		ActionSource:   v1.ActionSourceWebsite,
		UserData:       &v1.UserData{ClientIPAddress: "203.0.113.9"},
		CustomData: &v1.CustomData{
			Currency:    "EUR",
			Value:       decimal.RequireFromString("17.50"),
			ContentIDs:  []string{"SKU-42"},
			ContentType: v1.ContentTypeProduct,
		},
	}
}

func testConfig(pushMode string) config.TrackingConfig {
	return config.TrackingConfig{
		Enabled:     true,
		PixelID:     "123456",
		AccessToken: "token-abc",
		LogEvents:   true,
		PushMode:    pushMode,
	}
}

// newAPIServer returns an httptest server mimicking the conversions
// endpoint, plus a counter of received requests and a capture of the last
// request body and headers.
func newAPIServer(t *testing.T, status int, respBody string) (*httptest.Server, *int64, *sync.Map) {
	t.Helper()

	var calls int64
	captured := &sync.Map{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		body, _ := io.ReadAll(r.Body)
		captured.Store("body", string(body))
		captured.Store("auth", r.Header.Get("Authorization"))
		captured.Store("path", r.URL.Path)
		w.WriteHeader(status)
		w.Write([]byte(respBody))
	}))
	t.Cleanup(srv.Close)

	return srv, &calls, captured
}

const okBody = `{"events_received":1,"messages":[],"fbtrace_id":"trace-1"}`

func TestDispatch_MissingCredentialsNeverCallsAPI(t *testing.T) {
	srv, calls, _ := newAPIServer(t, http.StatusOK, okBody)

	for _, mode := range []string{config.PushModeSync, config.PushModeAsync, config.PushModeAsyncAwait} {
		t.Run(mode, func(t *testing.T) {
			d := NewDispatcher(NewClient(srv.URL, time.Second), &recordingAuditor{})

			cfg := testConfig(mode)
			cfg.AccessToken = ""
			res := d.Dispatch(context.Background(), nil, testEvent(), cfg)
			require.False(t, res.Sent)

			cfg = testConfig(mode)
			cfg.PixelID = ""
			res = d.Dispatch(context.Background(), nil, testEvent(), cfg)
			require.False(t, res.Sent)
		})
	}

	require.Equal(t, int64(0), atomic.LoadInt64(calls))
}

func TestDispatch_NilEventIsNotSent(t *testing.T) {
	srv, calls, _ := newAPIServer(t, http.StatusOK, okBody)
	d := NewDispatcher(NewClient(srv.URL, time.Second), &recordingAuditor{})

	res := d.Dispatch(context.Background(), nil, nil, testConfig(config.PushModeSync))
	require.False(t, res.Sent)
	require.Equal(t, int64(0), atomic.LoadInt64(calls))
}

func TestDispatch_SyncSuccessAudits(t *testing.T) {
	srv, calls, captured := newAPIServer(t, http.StatusOK, okBody)
	auditor := &recordingAuditor{}
	d := NewDispatcher(NewClient(srv.URL, time.Second), auditor)

	res := d.Dispatch(context.Background(), &commerce.Account{ID: 9}, testEvent(), testConfig(config.PushModeSync))
	require.True(t, res.Sent)
	require.Equal(t, int64(1), atomic.LoadInt64(calls))

	// Receipt metadata flows to the audit log in sync mode.
	require.Equal(t, 1, auditor.callCount())
	meta, ok := auditor.calls[0].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "trace-1", meta["fbtrace_id"])
	require.Equal(t, 1, meta["events_received"])

	auth, _ := captured.Load("auth")
	require.Equal(t, "Bearer token-abc", auth)
	path, _ := captured.Load("path")
	require.Equal(t, "/123456/events", path)

	body, _ := captured.Load("body")
	var envelope struct {
		Data          []*v1.Event `json:"data"`
		TestEventCode string      `json:"test_event_code"`
	}
	require.NoError(t, json.Unmarshal([]byte(body.(string)), &envelope))
	require.Len(t, envelope.Data, 1)
	require.Equal(t, v1.EventNameViewContent, envelope.Data[0].EventName)
	require.Empty(t, envelope.TestEventCode)
}

func TestDispatch_SyncWithoutLogEventsSkipsAudit(t *testing.T) {
	srv, _, _ := newAPIServer(t, http.StatusOK, okBody)
	auditor := &recordingAuditor{}
	d := NewDispatcher(NewClient(srv.URL, time.Second), auditor)

	cfg := testConfig(config.PushModeSync)
	cfg.LogEvents = false

	res := d.Dispatch(context.Background(), nil, testEvent(), cfg)
	require.True(t, res.Sent)
	require.Equal(t, 0, auditor.callCount())
}

func TestDispatch_TestEventCodeTagging(t *testing.T) {
	srv, _, captured := newAPIServer(t, http.StatusOK, okBody)
	d := NewDispatcher(NewClient(srv.URL, time.Second), &recordingAuditor{})

	cfg := testConfig(config.PushModeSync)
	cfg.TestEvents = true
	cfg.TestEventCode = "TEST1234"

	res := d.Dispatch(context.Background(), nil, testEvent(), cfg)
	require.True(t, res.Sent)

	body, _ := captured.Load("body")
	require.Contains(t, body.(string), `"test_event_code":"TEST1234"`)
}

func TestDispatch_TestEventCodeOmittedWhenDisabled(t *testing.T) {
	srv, _, captured := newAPIServer(t, http.StatusOK, okBody)
	d := NewDispatcher(NewClient(srv.URL, time.Second), &recordingAuditor{})

	// Code configured but the test-events switch is off.
	cfg := testConfig(config.PushModeSync)
	cfg.TestEvents = false
	cfg.TestEventCode = "TEST1234"

	res := d.Dispatch(context.Background(), nil, testEvent(), cfg)
	require.True(t, res.Sent)

	body, _ := captured.Load("body")
	require.NotContains(t, body.(string), "test_event_code")
}

func TestDispatch_TransportFailureIsCaught(t *testing.T) {
	srv, _, _ := newAPIServer(t, http.StatusInternalServerError, `{"error":{"message":"boom","fbtrace_id":"trace-9"}}`)
	auditor := &recordingAuditor{}
	d := NewDispatcher(NewClient(srv.URL, time.Second), auditor)

	res := d.Dispatch(context.Background(), nil, testEvent(), testConfig(config.PushModeSync))
	require.False(t, res.Sent)
	require.Equal(t, 0, auditor.callCount())
}

func TestDispatch_UnreachableEndpointIsCaught(t *testing.T) {
	// Closed port: the transport error must convert to not-sent.
	d := NewDispatcher(NewClient("http://127.0.0.1:1", 200*time.Millisecond), &recordingAuditor{})

	res := d.Dispatch(context.Background(), nil, testEvent(), testConfig(config.PushModeSync))
	require.False(t, res.Sent)
}

func TestDispatch_AwaitedJoinsAndAuditsRawBody(t *testing.T) {
	srv, calls, _ := newAPIServer(t, http.StatusOK, okBody)
	auditor := &recordingAuditor{}
	d := NewDispatcher(NewClient(srv.URL, time.Second), auditor)

	res := d.Dispatch(context.Background(), nil, testEvent(), testConfig(config.PushModeAsyncAwait))
	require.True(t, res.Sent)
	require.Equal(t, int64(1), atomic.LoadInt64(calls))

	require.Equal(t, 1, auditor.callCount())
	raw, ok := auditor.calls[0].(string)
	require.True(t, ok)
	require.JSONEq(t, okBody, raw)
}

func TestDispatch_AwaitedFailureIsNotSent(t *testing.T) {
	srv, _, _ := newAPIServer(t, http.StatusBadRequest, `{"error":{"message":"bad pixel"}}`)
	d := NewDispatcher(NewClient(srv.URL, time.Second), &recordingAuditor{})

	res := d.Dispatch(context.Background(), nil, testEvent(), testConfig(config.PushModeAsyncAwait))
	require.False(t, res.Sent)
}

func TestDispatch_FireAndForgetCompletesIndependently(t *testing.T) {
	srv, calls, _ := newAPIServer(t, http.StatusOK, okBody)
	auditor := &recordingAuditor{}
	d := NewDispatcher(NewClient(srv.URL, time.Second), auditor)

	res := d.Dispatch(context.Background(), nil, testEvent(), testConfig(config.PushModeAsync))
	require.True(t, res.Sent)

	require.Eventually(t, func() bool {
		return atomic.LoadInt64(calls) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// No response data ever exists in this mode, so no audit record.
	require.Equal(t, 0, auditor.callCount())
}
