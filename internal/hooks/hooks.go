// Package hooks provides the typed extension points of the event pipeline.
//
// For each trigger kind the builder exposes three mutation targets, applied
// in a fixed order: user data, custom data, whole event. Subscribers are
// registered at composition-root setup and invoked synchronously in
// registration order; later subscribers observe earlier mutations.
package hooks

import (
	v1 "github.com/capirelay-lab/project-capirelay/internal/api/v1"
	"github.com/capirelay-lab/project-capirelay/internal/commerce"
)

// ViewContent hook signatures. Each receives the mutable in-progress object
// plus the product variation the event describes.
type (
	ViewContentUserDataFunc   func(u *v1.UserData, variation *commerce.ProductVariation)
	ViewContentCustomDataFunc func(c *v1.CustomData, variation *commerce.ProductVariation)
	ViewContentEventFunc      func(e *v1.Event, variation *commerce.ProductVariation)
)

// AddToCart hook signatures. Each receives the mutable in-progress object
// plus the order item the event describes.
type (
	AddToCartUserDataFunc   func(u *v1.UserData, item *commerce.OrderItem)
	AddToCartCustomDataFunc func(c *v1.CustomData, item *commerce.OrderItem)
	AddToCartEventFunc      func(e *v1.Event, item *commerce.OrderItem)
)

// Registry holds the ordered subscriber lists, one per (trigger kind x target).
// Registration is not synchronized: register everything during setup, before
// the pipeline starts serving triggers.
type Registry struct {
	viewContentUserData   []ViewContentUserDataFunc
	viewContentCustomData []ViewContentCustomDataFunc
	viewContentEvent      []ViewContentEventFunc

	addToCartUserData   []AddToCartUserDataFunc
	addToCartCustomData []AddToCartCustomDataFunc
	addToCartEvent      []AddToCartEventFunc
}

// NewRegistry creates an empty hook registry.
func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) OnViewContentUserData(fn ViewContentUserDataFunc) {
	r.viewContentUserData = append(r.viewContentUserData, fn)
}

func (r *Registry) OnViewContentCustomData(fn ViewContentCustomDataFunc) {
	r.viewContentCustomData = append(r.viewContentCustomData, fn)
}

func (r *Registry) OnViewContentEvent(fn ViewContentEventFunc) {
	r.viewContentEvent = append(r.viewContentEvent, fn)
}

func (r *Registry) OnAddToCartUserData(fn AddToCartUserDataFunc) {
	r.addToCartUserData = append(r.addToCartUserData, fn)
}

func (r *Registry) OnAddToCartCustomData(fn AddToCartCustomDataFunc) {
	r.addToCartCustomData = append(r.addToCartCustomData, fn)
}

func (r *Registry) OnAddToCartEvent(fn AddToCartEventFunc) {
	r.addToCartEvent = append(r.addToCartEvent, fn)
}

func (r *Registry) ApplyViewContentUserData(u *v1.UserData, variation *commerce.ProductVariation) {
	for _, fn := range r.viewContentUserData {
		fn(u, variation)
	}
}

func (r *Registry) ApplyViewContentCustomData(c *v1.CustomData, variation *commerce.ProductVariation) {
	for _, fn := range r.viewContentCustomData {
		fn(c, variation)
	}
}

func (r *Registry) ApplyViewContentEvent(e *v1.Event, variation *commerce.ProductVariation) {
	for _, fn := range r.viewContentEvent {
		fn(e, variation)
	}
}

func (r *Registry) ApplyAddToCartUserData(u *v1.UserData, item *commerce.OrderItem) {
	for _, fn := range r.addToCartUserData {
		fn(u, item)
	}
}

func (r *Registry) ApplyAddToCartCustomData(c *v1.CustomData, item *commerce.OrderItem) {
	for _, fn := range r.addToCartCustomData {
		fn(c, item)
	}
}

func (r *Registry) ApplyAddToCartEvent(e *v1.Event, item *commerce.OrderItem) {
	for _, fn := range r.addToCartEvent {
		fn(e, item)
	}
}
