package pipeline

import (
	"fmt"

	v1 "github.com/capirelay-lab/project-capirelay/internal/api/v1"
	"github.com/capirelay-lab/project-capirelay/internal/commerce"
	"github.com/capirelay-lab/project-capirelay/internal/hooks"
	"github.com/capirelay-lab/project-capirelay/internal/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Builder composes canonical conversion events. Purely in-memory: no network
// or persistence side effects. All request state arrives via RequestContext.
type Builder struct {
	resolver *pricing.Resolver
	hooks    *hooks.Registry

	// adjustmentTypes selects which price adjustment kinds apply to the
	// event value.
	adjustmentTypes []string
}

// NewBuilder creates an event builder.
func NewBuilder(resolver *pricing.Resolver, registry *hooks.Registry, adjustmentTypes []string) *Builder {
	if resolver == nil {
		panic("pipeline: resolver must not be nil")
	}
	if registry == nil {
		panic("pipeline: hook registry must not be nil")
	}
	return &Builder{
		resolver:        resolver,
		hooks:           registry,
		adjustmentTypes: adjustmentTypes,
	}
}

// Event builds the event for a trigger, dispatching on its kind.
// A nil entity or an unsupported kind yields (nil, nil): "no event", which
// downstream treats as a no-op rather than an error.
func (b *Builder) Event(rc RequestContext, trigger Trigger, o Overrides) (*v1.Event, error) {
	switch trigger.Kind {
	case TriggerVariationViewed:
		if trigger.Variation == nil {
			return nil, nil
		}
		return b.ViewContentEvent(rc, trigger.Variation, o)
	case TriggerOrderItemAdded:
		if trigger.OrderItem == nil {
			return nil, nil
		}
		return b.AddToCartEvent(rc, trigger.OrderItem, trigger.Quantity, o)
	default:
		return nil, nil
	}
}

// ViewContentEvent builds the "ViewContent" event for a product variation.
func (b *Builder) ViewContentEvent(rc RequestContext, variation *commerce.ProductVariation, o Overrides) (*v1.Event, error) {
	if variation == nil {
		return nil, nil
	}

	sourceURL := b.sourceURL(rc, o)
	userData := ExtractUserSignals(rc, sourceURL)

	value, err := b.resolver.Resolve(variation, b.adjustmentTypes)
	if err != nil {
		return nil, fmt.Errorf("failed to price variation for ViewContent: %w", err)
	}

	customData := &v1.CustomData{
		Currency:    variation.Price.CurrencyCode,
		Value:       value,
		ContentIDs:  []string{variation.SKU},
		ContentType: v1.ContentTypeProduct,
		ContentName: variation.Title,
	}

	event := &v1.Event{
		EventName:      v1.EventNameViewContent,
		EventTime:      rc.Time.Unix(),
		EventID:        uuid.NewString(),
		EventSourceURL: sourceURL,
		ActionSource:   v1.ActionSourceWebsite,
	}

	b.hooks.ApplyViewContentUserData(userData, variation)
	b.hooks.ApplyViewContentCustomData(customData, variation)

	event.UserData = userData
	event.CustomData = customData

	b.hooks.ApplyViewContentEvent(event, variation)

	return event, nil
}

// AddToCartEvent builds the "AddToCart" event for an order item. quantity is
// the quantity added in this trigger, not the line item's running total.
func (b *Builder) AddToCartEvent(rc RequestContext, item *commerce.OrderItem, quantity decimal.Decimal, o Overrides) (*v1.Event, error) {
	if item == nil || item.Variation == nil {
		return nil, nil
	}

	sourceURL := b.sourceURL(rc, o)
	userData := ExtractUserSignals(rc, sourceURL)

	variation := item.Variation

	value, err := b.resolver.Resolve(variation, b.adjustmentTypes)
	if err != nil {
		return nil, fmt.Errorf("failed to price variation for AddToCart: %w", err)
	}

	customData := &v1.CustomData{
		Currency:    item.TotalPrice.CurrencyCode,
		Value:       value,
		ContentIDs:  []string{variation.SKU},
		ContentType: v1.ContentTypeProduct,
		ContentName: variation.Title,
		Contents: []v1.Content{
			{ProductID: variation.SKU, Quantity: quantity},
		},
	}

	event := &v1.Event{
		EventName:      v1.EventNameAddToCart,
		EventTime:      rc.Time.Unix(),
		EventID:        uuid.NewString(),
		EventSourceURL: sourceURL,
		ActionSource:   v1.ActionSourceWebsite,
	}

	b.hooks.ApplyAddToCartUserData(userData, item)
	b.hooks.ApplyAddToCartCustomData(customData, item)

	event.UserData = userData
	event.CustomData = customData

	b.hooks.ApplyAddToCartEvent(event, item)

	return event, nil
}

// sourceURL resolves the effective event source URL: override wins over the
// current request URL.
func (b *Builder) sourceURL(rc RequestContext, o Overrides) string {
	if o.SourceURL != "" {
		return o.SourceURL
	}
	return rc.RequestURL
}
