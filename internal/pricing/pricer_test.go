package pricing

import (
	"errors"
	"testing"

	"github.com/seung7-arch/als-deli-website/internal/models"
)

func TestPricer_Quote(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		taxRate float64
		items   []models.LineItem
		want    Totals
		wantErr error
	}{
		{
			name:    "single item with tax",
			taxRate: 0.10,
			items: []models.LineItem{
				{Name: "The Reuben (only)", UnitPriceCents: 1400, Quantity: 1},
			},
			want: Totals{SubtotalCents: 1400, TaxCents: 140, TotalCents: 1540},
		},
		{
			name:    "tax rounds half up to the cent",
			taxRate: 0.10,
			items: []models.LineItem{
				// $36.36 subtotal; 10% is $3.636 which must round to $3.64.
				{Name: "Half Smoke", UnitPriceCents: 1212, Quantity: 3},
			},
			want: Totals{SubtotalCents: 3636, TaxCents: 364, TotalCents: 4000},
		},
		{
			name:    "multiple items and quantities",
			taxRate: 0.10,
			items: []models.LineItem{
				{Name: "Cheeseburger w/fries", UnitPriceCents: 1450, Quantity: 2},
				{Name: "Half Smoke", UnitPriceCents: 700, Quantity: 1},
			},
			want: Totals{SubtotalCents: 3600, TaxCents: 360, TotalCents: 3960},
		},
		{
			name:    "zero tax rate",
			taxRate: 0,
			items: []models.LineItem{
				{Name: "Half Smoke", UnitPriceCents: 700, Quantity: 1},
			},
			want: Totals{SubtotalCents: 700, TaxCents: 0, TotalCents: 700},
		},
		{
			name:    "empty cart",
			taxRate: 0.10,
			items:   nil,
			wantErr: ErrEmptyCart,
		},
		{
			name:    "non-positive price",
			taxRate: 0.10,
			items: []models.LineItem{
				{Name: "Half Smoke", UnitPriceCents: 0, Quantity: 1},
			},
			wantErr: ErrInvalidCart,
		},
		{
			name:    "zero quantity",
			taxRate: 0.10,
			items: []models.LineItem{
				{Name: "Half Smoke", UnitPriceCents: 700, Quantity: 0},
			},
			wantErr: ErrInvalidCart,
		},
		{
			name:    "missing name",
			taxRate: 0.10,
			items: []models.LineItem{
				{Name: "  ", UnitPriceCents: 700, Quantity: 1},
			},
			wantErr: ErrInvalidCart,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			pricer := NewPricer(tc.taxRate, 0)
			got, err := pricer.Quote(tc.items)

			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("Quote() error = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("Quote() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestPricer_Price_BelowMinimum(t *testing.T) {
	t.Parallel()

	// $8.00 total against a $10.00 minimum.
	pricer := NewPricer(0.10, 1000)
	items := []models.LineItem{
		{Name: "Half Smoke", UnitPriceCents: 727, Quantity: 1},
	}

	_, err := pricer.Price(items)

	var belowMin *BelowMinimumError
	if !errors.As(err, &belowMin) {
		t.Fatalf("Price() error = %v, want *BelowMinimumError", err)
	}
	if belowMin.MinimumCents != 1000 {
		t.Fatalf("MinimumCents = %d, want 1000", belowMin.MinimumCents)
	}
	if belowMin.TotalCents != 800 {
		t.Fatalf("TotalCents = %d, want 800", belowMin.TotalCents)
	}
}

func TestPricer_Price_MinimumDisabled(t *testing.T) {
	t.Parallel()

	pricer := NewPricer(0.10, 0)
	items := []models.LineItem{
		{Name: "Half Smoke", UnitPriceCents: 100, Quantity: 1},
	}

	if _, err := pricer.Price(items); err != nil {
		t.Fatalf("unexpected error with minimum disabled: %v", err)
	}
}

func TestSummary(t *testing.T) {
	t.Parallel()

	items := []models.LineItem{
		{Name: "The Reuben w/fries", UnitPriceCents: 1600, Quantity: 2, Modifiers: []string{"No Onions", "Extra Sauce"}},
		{Name: "Half Smoke", UnitPriceCents: 700, Quantity: 1},
	}

	got := Summary(items)
	want := "The Reuben w/fries ×2 (No Onions, Extra Sauce)\nHalf Smoke"
	if got != want {
		t.Fatalf("Summary() = %q, want %q", got, want)
	}
}
