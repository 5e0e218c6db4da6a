package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	v1 "github.com/capirelay-lab/project-capirelay/internal/api/v1"
)

// Response is the Conversions API acknowledgement for one send.
type Response struct {
	EventsReceived int      `json:"events_received"`
	Messages       []string `json:"messages"`
	FBTraceID      string   `json:"fbtrace_id"`

	// RawBody is the unparsed response body, kept for audit logging in
	// the awaited push mode.
	RawBody string `json:"-"`
}

type apiError struct {
	Error struct {
		Message   string `json:"message"`
		Type      string `json:"type"`
		Code      int    `json:"code"`
		FBTraceID string `json:"fbtrace_id"`
	} `json:"error"`
}

// eventRequest is the wire envelope: one event per call, optionally tagged
// with a test event code so the provider routes it to its test pipeline.
type eventRequest struct {
	Data          []*v1.Event `json:"data"`
	TestEventCode string      `json:"test_event_code,omitempty"`
}

// Client sends conversion events to the Conversions API endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an outbound API client. timeout bounds the whole send,
// including connection setup and reading the response.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Send posts one event to the pixel's events endpoint, authenticated with
// the bearer access token. Returns the parsed acknowledgement, or an error
// carrying the response body for non-2xx statuses.
func (c *Client) Send(ctx context.Context, event *v1.Event, pixelID, accessToken, testEventCode string) (*Response, error) {
	payload := eventRequest{
		Data:          []*v1.Event{event},
		TestEventCode: testEventCode,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/events", c.baseURL, pixelID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create event request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("event request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read event response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("conversions API returned %d: %s (trace %s)",
				resp.StatusCode, apiErr.Error.Message, apiErr.Error.FBTraceID)
		}
		return nil, fmt.Errorf("conversions API returned %d: %s", resp.StatusCode, respBody)
	}

	var parsed Response
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse event response: %w", err)
	}
	parsed.RawBody = string(respBody)

	return &parsed, nil
}
