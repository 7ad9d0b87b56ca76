// Package order implements order placement on top of the menu catalog and
// the offers engine.
package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/platewise/dineflow/internal/domain/cart"
	"github.com/platewise/dineflow/internal/domain/offer"
)

// Order is a completed customer order with its pricing snapshot: the cart
// lines as priced at placement time plus the full offer calculation outcome.
type Order struct {
	ID             string
	TableCode      string
	CustomerEmail  string
	CustomerPhone  string
	Lines          []cart.Line
	PromoCode      string
	OriginalAmount decimal.Decimal
	DiscountAmount decimal.Decimal
	TotalAmount    decimal.Decimal
	AppliedOffers  []offer.Applied
	FreeItems      []offer.FreeItem
	CreatedAt      time.Time
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, order *Order) error
}
