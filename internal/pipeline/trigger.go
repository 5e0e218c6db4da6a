package pipeline

import (
	"github.com/capirelay-lab/project-capirelay/internal/commerce"
	"github.com/shopspring/decimal"
)

// TriggerKind tags the variant carried by a Trigger.
type TriggerKind int

const (
	TriggerUnknown TriggerKind = iota

	// TriggerVariationViewed carries a product variation; builds ViewContent.
	TriggerVariationViewed

	// TriggerOrderItemAdded carries an order item and a quantity; builds AddToCart.
	TriggerOrderItemAdded
)

// Trigger is the tagged variant the builder dispatches on.
type Trigger struct {
	Kind      TriggerKind
	Variation *commerce.ProductVariation
	OrderItem *commerce.OrderItem

	// Quantity is the added quantity for TriggerOrderItemAdded.
	Quantity decimal.Decimal
}

// Overrides are the optional caller-supplied build parameters.
type Overrides struct {
	// SourceURL replaces the request URL as the event source when non-empty.
	SourceURL string
}
