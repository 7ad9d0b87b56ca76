// Package cart holds the cart snapshot types the offers engine calculates
// against. Lines are built fresh per calculation from the caller's in-memory
// cart and are never persisted by the engine itself.
package cart

import (
	"slices"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Sentinel errors for cart line validation.
var (
	ErrInvalidQuantity = errors.New("cart line quantity must be at least 1")
	ErrNegativePrice   = errors.New("cart line price must not be negative")
)

// Line is one distinct purchasable item in the customer's cart.
type Line struct {
	ItemID     string          `json:"item_id"`
	Name       string          `json:"name"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Quantity   int             `json:"quantity"`
	CategoryID string          `json:"category_id,omitempty"`
	Vegetarian bool            `json:"vegetarian,omitempty"`
}

// Total returns the line total (unit price times quantity).
func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Validate checks the line invariants: quantity >= 1, price >= 0.
func (l Line) Validate() error {
	if l.Quantity < 1 {
		return errors.Wrapf(ErrInvalidQuantity, "item %s", l.ItemID)
	}
	if l.UnitPrice.IsNegative() {
		return errors.Wrapf(ErrNegativePrice, "item %s", l.ItemID)
	}
	return nil
}

// Subtotal returns the sum of line totals across all lines, pre-discount.
func Subtotal(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Total())
	}
	return sum
}

// ItemQuantity returns the summed quantity of lines for the given item.
func ItemQuantity(lines []Line, itemID string) int {
	total := 0
	for _, l := range lines {
		if l.ItemID == itemID {
			total += l.Quantity
		}
	}
	return total
}

// CategoryQuantity returns the summed quantity of lines in the given category.
func CategoryQuantity(lines []Line, categoryID string) int {
	total := 0
	for _, l := range lines {
		if l.CategoryID == categoryID {
			total += l.Quantity
		}
	}
	return total
}

// CategorySubtotal returns the subtotal of lines whose category is in the
// given set. An empty set yields zero, not the full subtotal.
func CategorySubtotal(lines []Line, categories []string) decimal.Decimal {
	sum := decimal.Zero
	if len(categories) == 0 {
		return sum
	}
	for _, l := range lines {
		if slices.Contains(categories, l.CategoryID) {
			sum = sum.Add(l.Total())
		}
	}
	return sum
}
