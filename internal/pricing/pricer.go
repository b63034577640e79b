// Package pricing converts a cart into normalized totals. Totals are always
// recomputed server-side; client-submitted amounts are advisory only.
package pricing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/seung7-arch/als-deli-website/internal/models"
)

var ErrEmptyCart = errors.New("cart is empty")
var ErrInvalidCart = errors.New("invalid cart")

// BelowMinimumError signals the minimum-order policy rejected a cart. The
// caller is expected to fall back to the cashier path.
type BelowMinimumError struct {
	TotalCents   int64
	MinimumCents int64
}

func (e *BelowMinimumError) Error() string {
	return fmt.Sprintf("order total $%.2f is below the $%.2f minimum", float64(e.TotalCents)/100, float64(e.MinimumCents)/100)
}

type Totals struct {
	SubtotalCents int64
	TaxCents      int64
	TotalCents    int64
}

// Pricer computes subtotal, tax, and total for a cart. The tax rate and the
// optional minimum-order amount are jurisdiction/policy configuration, not
// constants.
type Pricer struct {
	taxRate      decimal.Decimal
	minimumCents int64
}

func NewPricer(taxRate float64, minimumCents int64) *Pricer {
	return &Pricer{
		taxRate:      decimal.NewFromFloat(taxRate),
		minimumCents: minimumCents,
	}
}

// Quote validates the cart and computes totals without applying the
// minimum-order policy. Tax is rounded half-up to the cent.
func (p *Pricer) Quote(items []models.LineItem) (Totals, error) {
	if len(items) == 0 {
		return Totals{}, ErrEmptyCart
	}

	var subtotal int64
	for i, item := range items {
		if strings.TrimSpace(item.Name) == "" {
			return Totals{}, fmt.Errorf("%w: item %d has no name", ErrInvalidCart, i)
		}
		if item.UnitPriceCents <= 0 {
			return Totals{}, fmt.Errorf("%w: item %q has non-positive price", ErrInvalidCart, item.Name)
		}
		if item.Quantity < 1 {
			return Totals{}, fmt.Errorf("%w: item %q has quantity below 1", ErrInvalidCart, item.Name)
		}
		subtotal += item.UnitPriceCents * item.Quantity
	}

	// decimal.Round rounds half away from zero, which for positive amounts
	// is the round-half-up-to-the-cent the tax authority expects.
	tax := decimal.NewFromInt(subtotal).Mul(p.taxRate).Round(0).IntPart()

	return Totals{
		SubtotalCents: subtotal,
		TaxCents:      tax,
		TotalCents:    subtotal + tax,
	}, nil
}

// Price is Quote plus the minimum-order policy.
func (p *Pricer) Price(items []models.LineItem) (Totals, error) {
	totals, err := p.Quote(items)
	if err != nil {
		return Totals{}, err
	}
	if p.minimumCents > 0 && totals.TotalCents < p.minimumCents {
		return Totals{}, &BelowMinimumError{TotalCents: totals.TotalCents, MinimumCents: p.minimumCents}
	}
	return totals, nil
}

// Summary renders a human-readable order summary, one line per item in cart
// order: name [×quantity] [(modifiers, comma-joined)].
func Summary(items []models.LineItem) string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		var b strings.Builder
		b.WriteString(item.Name)
		if item.Quantity > 1 {
			fmt.Fprintf(&b, " ×%d", item.Quantity)
		}
		if len(item.Modifiers) > 0 {
			fmt.Fprintf(&b, " (%s)", strings.Join(item.Modifiers, ", "))
		}
		lines = append(lines, b.String())
	}
	return strings.Join(lines, "\n")
}
