package commerce

import "github.com/shopspring/decimal"

// Money is a currency amount. A zero CurrencyCode means "not priced".
type Money struct {
	Number       decimal.Decimal `json:"number"`
	CurrencyCode string          `json:"currency_code"`
}

// IsZero reports whether the money value carries no price at all.
func (m Money) IsZero() bool {
	return m.CurrencyCode == ""
}

// NewMoney builds a Money from a decimal string. Panics on malformed input;
// intended for literals in wiring and tests.
func NewMoney(number, currencyCode string) Money {
	return Money{
		Number:       decimal.RequireFromString(number),
		CurrencyCode: currencyCode,
	}
}

// Adjustment is a signed unit-price delta of a given kind (e.g. "promotion",
// "tax", "fee"). Adjustments are attached to the variation by the commerce
// domain; the pricing resolver decides which kinds to apply.
type Adjustment struct {
	Type   string          `json:"type"`
	Amount decimal.Decimal `json:"amount"`
}

// ProductVariation is the purchasable entity conversion events describe.
type ProductVariation struct {
	ID          int64        `json:"id"`
	ProductID   int64        `json:"product_id"`
	SKU         string       `json:"sku"`
	Title       string       `json:"title"`
	Price       Money        `json:"price"`
	Adjustments []Adjustment `json:"adjustments,omitempty"`
}

// OrderItem is a cart line item referencing a purchased variation.
type OrderItem struct {
	ID         int64             `json:"id"`
	Variation  *ProductVariation `json:"variation"`
	Quantity   decimal.Decimal   `json:"quantity"`
	TotalPrice Money             `json:"total_price"`
}

// Account is the acting caller. A zero ID means anonymous.
type Account struct {
	ID    int64
	Email string
	Roles []string
}

// Authenticated reports whether the account belongs to a signed-in user.
func (a *Account) Authenticated() bool {
	return a != nil && a.ID > 0
}

// HasAnyRole reports whether the account holds at least one of the given roles.
func (a *Account) HasAnyRole(roles []string) bool {
	if a == nil {
		return false
	}
	for _, held := range a.Roles {
		for _, want := range roles {
			if held == want {
				return true
			}
		}
	}
	return false
}
