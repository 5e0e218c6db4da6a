package v1

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// EventName identifies the conversion event kind on the wire.
type EventName string

const (
	EventNameViewContent EventName = "ViewContent"
	EventNameAddToCart   EventName = "AddToCart"
)

// ActionSourceWebsite is the only action source this pipeline produces:
// every event originates from storefront web activity.
const ActionSourceWebsite = "website"

// ContentTypeProduct is the fixed content_type for commerce payloads.
const ContentTypeProduct = "product"

// Event is the canonical conversion event sent to the Conversions API.
// It is constructed fresh per trigger and never mutated after being handed
// to the dispatcher; extension hooks mutate it only during construction.
type Event struct {
	// EventName is the trigger kind ("ViewContent", "AddToCart").
	EventName EventName `json:"event_name"`

	// EventTime is the server's request time in epoch seconds. It is never
	// client-supplied, to prevent spoofed attribution windows.
	EventTime int64 `json:"event_time"`

	// EventID is a server-assigned UUID the provider uses for deduplication
	// against browser-pixel copies of the same action.
	EventID string `json:"event_id,omitempty"`

	// EventSourceURL is the page the action happened on.
	EventSourceURL string `json:"event_source_url"`

	// ActionSource is always "website" for this pipeline.
	ActionSource string `json:"action_source"`

	UserData   *UserData   `json:"user_data"`
	CustomData *CustomData `json:"custom_data"`
}

// UserData carries the client identity signals used for ad-click matching.
type UserData struct {
	ClientIPAddress string `json:"client_ip_address,omitempty"`
	ClientUserAgent string `json:"client_user_agent,omitempty"`

	// FBP/FBC are the first-party browser and click identifier cookie values.
	FBP string `json:"fbp,omitempty"`
	FBC string `json:"fbc,omitempty"`

	// ExternalID and Email are populated only for authenticated callers.
	// Email holds the sha256 of the normalized address, never the raw value.
	ExternalID string `json:"external_id,omitempty"`
	Email      string `json:"em,omitempty"`

	// Optional fields left empty by the builder; extension hooks may set them.
	FirstName string `json:"fn,omitempty"`
	LastName  string `json:"ln,omitempty"`
	Phone     string `json:"ph,omitempty"`
}

// CustomData is the commerce payload of a conversion event.
type CustomData struct {
	Currency    string          `json:"currency"`
	Value       decimal.Decimal `json:"value"`
	ContentIDs  []string        `json:"content_ids"`
	ContentType string          `json:"content_type"`
	ContentName string          `json:"content_name,omitempty"`
	Contents    []Content       `json:"contents,omitempty"`
}

// Content is one line item inside CustomData.Contents.
type Content struct {
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// Validate ensures the event carries everything the Conversions API requires.
func (e *Event) Validate() error {
	if e.EventName != EventNameViewContent && e.EventName != EventNameAddToCart {
		return fmt.Errorf("unsupported event_name %q", e.EventName)
	}

	if e.EventTime <= 0 {
		return fmt.Errorf("event_time is required")
	}

	if e.ActionSource != ActionSourceWebsite {
		return fmt.Errorf("action_source must be %q", ActionSourceWebsite)
	}

	if e.UserData == nil {
		return fmt.Errorf("user_data is required")
	}

	if e.CustomData == nil {
		return fmt.Errorf("custom_data is required")
	}

	return nil
}
