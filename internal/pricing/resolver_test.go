package pricing

import (
	"testing"

	"github.com/capirelay-lab/project-capirelay/internal/commerce"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func variationWithAdjustments() *commerce.ProductVariation {
	return &commerce.ProductVariation{
		ID:    7,
		SKU:   "SKU-7",
		Title: "Lava lamp",
		Price: commerce.NewMoney("20.00", "EUR"),
		Adjustments: []commerce.Adjustment{
			{Type: "promotion", Amount: decimal.RequireFromString("-2.50")},
			{Type: "tax", Amount: decimal.RequireFromString("4.18")},
			{Type: "fee", Amount: decimal.RequireFromString("0.99")},
		},
	}
}

func TestResolve_AppliesOnlySelectedAdjustments(t *testing.T) {
	resolver := NewResolver(Context{StoreID: "default"})

	tests := []struct {
		name     string
		selected []string
		want     string
	}{
		{name: "none selected", selected: nil, want: "20.00"},
		{name: "promotion only", selected: []string{"promotion"}, want: "17.50"},
		{name: "promotion and tax", selected: []string{"promotion", "tax"}, want: "21.68"},
		{name: "all", selected: []string{"promotion", "tax", "fee"}, want: "22.67"},
		{name: "unknown kind ignored", selected: []string{"shipping"}, want: "20.00"},
		{name: "empty entries skipped", selected: []string{"", "tax"}, want: "24.18"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := resolver.Resolve(variationWithAdjustments(), tc.selected)
			require.NoError(t, err)
			require.True(t, got.Equal(decimal.RequireFromString(tc.want)),
				"want %s, got %s", tc.want, got)
		})
	}
}

func TestResolve_Deterministic(t *testing.T) {
	resolver := NewResolver(Context{})
	v := variationWithAdjustments()

	first, err := resolver.Resolve(v, []string{"promotion", "tax"})
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := resolver.Resolve(v, []string{"promotion", "tax"})
		require.NoError(t, err)
		require.True(t, first.Equal(again))
	}
}

func TestResolve_UnpricedIsFatal(t *testing.T) {
	resolver := NewResolver(Context{StoreID: "default"})

	_, err := resolver.Resolve(&commerce.ProductVariation{ID: 9, SKU: "SKU-9"}, nil)
	require.ErrorIs(t, err, ErrUnpriced)

	_, err = resolver.Resolve(nil, nil)
	require.ErrorIs(t, err, ErrUnpriced)
}
