// Package offer implements the promotional offer engine: candidate retrieval
// filters, per-type eligibility rules, benefit application, and the
// aggregation that turns a cart snapshot into a calculation result.
package offer

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested offer does not exist.
var ErrNotFound = errors.New("offer not found")

// Type selects which eligibility and benefit logic branch applies to an offer.
type Type string

// Supported offer types. New types may be added without breaking the model;
// unknown condition or benefit keys are ignored at the repository boundary.
const (
	TypeCartPercentage        Type = "cart_percentage"
	TypeCartFlatAmount        Type = "cart_flat_amount"
	TypeCartThresholdFreeItem Type = "cart_threshold_free_item"
	TypeBuyGetFree            Type = "buy_x_get_y_free"
	TypeItemPercentage        Type = "item_percentage_discount"
	TypeComboMeal             Type = "combo_meal"
	TypeTimeBased             Type = "time_based"
	TypeCustomerSegment       Type = "customer_segment"
	TypePromoCode             Type = "promo_code"
)

// Known reports whether t is one of the supported offer types.
func (t Type) Known() bool {
	switch t {
	case TypeCartPercentage, TypeCartFlatAmount, TypeCartThresholdFreeItem,
		TypeBuyGetFree, TypeItemPercentage, TypeComboMeal,
		TypeTimeBased, TypeCustomerSegment, TypePromoCode:
		return true
	}
	return false
}

// Segment identifies a customer segment targeted by customer_segment offers.
type Segment string

const (
	// SegmentFirstTime targets customers with no prior orders.
	SegmentFirstTime Segment = "first_time"
	// SegmentLoyalty targets customers with at least MinOrdersCount prior orders.
	SegmentLoyalty Segment = "loyalty"
)

// Role tags an offer line item with its part in the offer mechanics.
type Role string

const (
	// RoleMustBuy marks an item or category the cart must contain.
	RoleMustBuy Role = "must_buy"
	// RoleFreeItem marks an item or category granted for free.
	RoleFreeItem Role = "free_item"
	// RoleDiscountTarget marks an item or category the discount is scoped to.
	RoleDiscountTarget Role = "discount_target"
)

// Conditions holds the typed interpretation of an offer's condition bag.
// Only the fields meaningful for the offer's Type are populated; the rest
// stay at their zero values.
type Conditions struct {
	MinAmount       decimal.Decimal
	ThresholdAmount decimal.Decimal
	MinOrdersCount  int
	TargetSegment   Segment
	Categories      []string
}

// Benefits holds the typed interpretation of an offer's benefit bag.
type Benefits struct {
	DiscountPercentage decimal.Decimal
	DiscountAmount     decimal.Decimal
	// MaxDiscountAmount is carried through decoding but not enforced in the
	// discount math; see the authoring notes before changing that.
	MaxDiscountAmount decimal.Decimal
	BuyQuantity       int
	GetQuantity       int
	GetSameItem       bool
	ComboPrice        decimal.Decimal
	MaxFreePrice      decimal.Decimal
}

// LineItem is one (item-or-category, role, quantity) entry on an offer.
// Exactly one of ItemID and CategoryID is normally set.
type LineItem struct {
	ItemID     string
	CategoryID string
	Name       string
	Quantity   int
	Role       Role
	UnitPrice  decimal.Decimal
}

// Definition is a promotional rule, immutable for the duration of one
// calculation. Authored through the admin surface, read-only to the engine.
type Definition struct {
	ID          string
	Name        string
	Description string
	Type        Type

	Active          bool
	Priority        int
	StartDate       *time.Time
	EndDate         *time.Time
	ValidHoursStart string // "HH:MM", empty when unset
	ValidHoursEnd   string
	ValidDays       []string // lowercase English weekday names
	UsageLimit      int      // 0 means unlimited
	UsageCount      int
	PromoCode       string

	Conditions Conditions
	Benefits   Benefits
	Items      []LineItem
}

// ItemsByRole returns the offer line items tagged with the given role,
// preserving their authored order.
func (d *Definition) ItemsByRole(role Role) []LineItem {
	var out []LineItem
	for _, li := range d.Items {
		if li.Role == role {
			out = append(out, li)
		}
	}
	return out
}

// CustomerRef identifies a customer for segment eligibility checks.
type CustomerRef struct {
	Email     string
	Phone     string
	TableCode string
}

// Known reports whether the reference carries enough identity to match
// prior orders. Table codes alone do not identify a returning customer.
func (c CustomerRef) Known() bool {
	return c.Email != "" || c.Phone != ""
}

// CustomerState is the resolved customer context passed to the pure
// eligibility check: identity presence plus the prior-order count looked up
// once per calculation.
type CustomerState struct {
	Known       bool
	PriorOrders int
}

// FreeItem is a single free-item grant. A resolved grant names a specific
// item; an open grant (Choice true) describes a choice the customer or
// front-of-house resolves later, optionally scoped to a category or capped
// by a maximum unit price.
type FreeItem struct {
	ItemID     string          `json:"item_id,omitempty"`
	Name       string          `json:"name,omitempty"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Choice     bool            `json:"choice,omitempty"`
	CategoryID string          `json:"category_id,omitempty"`
	MaxPrice   decimal.Decimal `json:"max_price,omitempty"`
}

// Applied is the engine's per-offer output: the offer identity, the computed
// discount (rounded to 2 places, never negative), and any free-item grants.
type Applied struct {
	OfferID   string          `json:"offer_id"`
	Name      string          `json:"name"`
	Type      Type            `json:"offer_type"`
	Discount  decimal.Decimal `json:"discount_amount"`
	FreeItems []FreeItem      `json:"free_items,omitempty"`
}

// Result is the aggregated outcome of one calculation. It is a pure value;
// the engine holds no state between calls.
type Result struct {
	OriginalAmount decimal.Decimal `json:"original_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	FinalAmount    decimal.Decimal `json:"final_amount"`
	Applied        []Applied       `json:"applied_offers"`
	FreeItems      []FreeItem      `json:"free_items"`
}

// UsageRecord is one row of post-commit usage bookkeeping.
type UsageRecord struct {
	OfferID        string
	OrderID        string
	CustomerEmail  string
	CustomerPhone  string
	DiscountAmount decimal.Decimal
	UsedAt         time.Time
}

// Repository provides offer candidate retrieval and usage bookkeeping.
//
// FetchCandidates returns offers that are structurally eligible at now:
// active, matching the promo code rules (a given code must equal the offer's
// code case-insensitively; no code returns only offers without one), within
// their date range and daily time window, on an allowed weekday, and under
// their usage cap. The cap check is soft: concurrent orders may exceed it by
// a small margin.
type Repository interface {
	FetchCandidates(ctx context.Context, now time.Time, promoCode string) ([]Definition, error)
	RecordUsage(ctx context.Context, records []UsageRecord) error
	IncrementUsageCount(ctx context.Context, offerID string) error
}

// OrderHistory looks up a customer's prior-order count for segment offers.
type OrderHistory interface {
	CountPriorOrders(ctx context.Context, customer CustomerRef) (int, error)
}

// Store provides authoring-side persistence for offer definitions, used by
// the admin surface. Create and Update callers run ValidateForAuthoring
// first; the store persists whatever it is given.
type Store interface {
	List(ctx context.Context) ([]Definition, error)
	Get(ctx context.Context, id string) (*Definition, error)
	Create(ctx context.Context, d *Definition) error
	Update(ctx context.Context, d *Definition) error
	Delete(ctx context.Context, id string) error
}
