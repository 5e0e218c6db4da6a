// Package trigger connects commerce domain events to the conversion
// pipeline. Delivery is a plain ordered in-process call: the commerce layer
// invokes the Tracker, which gates, builds and dispatches. Callers only ever
// observe a boolean sent indicator; build and send failures stay inside the
// pipeline's logging.
package trigger

import (
	"context"
	"log/slog"

	"github.com/capirelay-lab/project-capirelay/internal/commerce"
	"github.com/capirelay-lab/project-capirelay/internal/core/config"
	"github.com/capirelay-lab/project-capirelay/internal/dispatch"
	"github.com/capirelay-lab/project-capirelay/internal/gating"
	"github.com/capirelay-lab/project-capirelay/internal/pipeline"
	"github.com/shopspring/decimal"
)

// Tracker orchestrates one conversion per commerce trigger.
type Tracker struct {
	policy     *gating.Policy
	builder    *pipeline.Builder
	dispatcher *dispatch.Dispatcher
	cfg        config.TrackingConfig
}

// NewTracker creates the trigger orchestrator. cfg is snapshotted per call
// so one event's construction and send run under a stable configuration.
func NewTracker(policy *gating.Policy, builder *pipeline.Builder, dispatcher *dispatch.Dispatcher, cfg config.TrackingConfig) *Tracker {
	if policy == nil {
		panic("trigger: policy must not be nil")
	}
	if builder == nil {
		panic("trigger: builder must not be nil")
	}
	if dispatcher == nil {
		panic("trigger: dispatcher must not be nil")
	}
	return &Tracker{
		policy:     policy,
		builder:    builder,
		dispatcher: dispatcher,
		cfg:        cfg,
	}
}

// Config returns the tracking configuration snapshot the tracker runs under.
func (t *Tracker) Config() config.TrackingConfig {
	return t.cfg
}

// Active reports whether tracking applies to the given request context.
func (t *Tracker) Active(rc pipeline.RequestContext) bool {
	return t.policy.Active(rc.Path, rc.Account, t.cfg)
}

// VariationViewed handles a product-variation-viewed trigger and sends a
// "ViewContent" event. sourceURL overrides the request URL when non-empty.
func (t *Tracker) VariationViewed(ctx context.Context, rc pipeline.RequestContext, variation *commerce.ProductVariation, sourceURL string) bool {
	if !t.Active(rc) {
		return false
	}

	event, err := t.builder.ViewContentEvent(rc, variation, pipeline.Overrides{SourceURL: sourceURL})
	if err != nil {
		slog.Error("Failed to build ViewContent event", "error", err)
		return false
	}

	return t.dispatcher.Dispatch(ctx, rc.Account, event, t.cfg).Sent
}

// OrderItemAdded handles an order-item-added trigger and sends an
// "AddToCart" event carrying the added quantity.
func (t *Tracker) OrderItemAdded(ctx context.Context, rc pipeline.RequestContext, item *commerce.OrderItem, quantity decimal.Decimal) bool {
	if !t.Active(rc) {
		return false
	}

	event, err := t.builder.AddToCartEvent(rc, item, quantity, pipeline.Overrides{})
	if err != nil {
		slog.Error("Failed to build AddToCart event", "error", err)
		return false
	}

	return t.dispatcher.Dispatch(ctx, rc.Account, event, t.cfg).Sent
}

// OrderItemUpdated handles an order-item-quantity-increased trigger. It
// computes the quantity delta between the new and original item state and
// sends an "AddToCart" event only when the delta is positive.
func (t *Tracker) OrderItemUpdated(ctx context.Context, rc pipeline.RequestContext, item, original *commerce.OrderItem) bool {
	if !t.Active(rc) {
		return false
	}

	if item == nil || original == nil {
		return false
	}

	delta := item.Quantity.Sub(original.Quantity)
	if delta.Sign() <= 0 {
		return false
	}

	event, err := t.builder.AddToCartEvent(rc, item, delta, pipeline.Overrides{})
	if err != nil {
		slog.Error("Failed to build AddToCart event", "error", err)
		return false
	}

	return t.dispatcher.Dispatch(ctx, rc.Account, event, t.cfg).Sent
}
