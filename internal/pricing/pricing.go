// Package pricing computes B2B cart totals. Values are kept at full decimal
// precision and rounded once, when a Quote is persisted or displayed.
package pricing

import (
	"fmt"

	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/apierror"

	"github.com/shopspring/decimal"
)

// CurrencyPlaces is the precision of persisted money columns.
const CurrencyPlaces = 2

var hundred = decimal.NewFromInt(100)

type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Total is UnitPrice × Quantity, unrounded.
func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Quote struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	Total          decimal.Decimal
}

// Price sums the cart and applies discountPercent. Any invalid line rejects
// the whole cart.
func Price(lines []Line, discountPercent decimal.Decimal) (Quote, error) {
	if len(lines) == 0 {
		return Quote{}, apierror.InvalidInput("cart is empty")
	}
	if discountPercent.IsNegative() || discountPercent.GreaterThan(hundred) {
		return Quote{}, apierror.InvalidInput(fmt.Sprintf("discount percent %s outside [0,100]", discountPercent))
	}

	subtotal := decimal.Zero
	for i, l := range lines {
		if !l.UnitPrice.IsPositive() {
			return Quote{}, apierror.InvalidInput(fmt.Sprintf("line %d: unit price must be greater than zero", i+1))
		}
		if l.Quantity <= 0 {
			return Quote{}, apierror.InvalidInput(fmt.Sprintf("line %d: quantity must be greater than zero", i+1))
		}
		subtotal = subtotal.Add(l.Total())
	}

	discount := subtotal.Mul(discountPercent).Div(hundred)
	return Quote{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		Total:          subtotal.Sub(discount),
	}, nil
}

// Rounded rounds to currency precision. Total is recomputed from the rounded
// parts so DiscountAmount + Total == Subtotal holds exactly on what is stored.
func (q Quote) Rounded() Quote {
	sub := q.Subtotal.Round(CurrencyPlaces)
	disc := q.DiscountAmount.Round(CurrencyPlaces)
	return Quote{
		Subtotal:       sub,
		DiscountAmount: disc,
		Total:          sub.Sub(disc),
	}
}
