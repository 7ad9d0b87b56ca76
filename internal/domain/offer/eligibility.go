package offer

import (
	"slices"

	"github.com/platewise/dineflow/internal/domain/cart"
)

// defaultLoyaltyOrders is the prior-order threshold used when a loyalty
// offer does not set min_orders_count.
const defaultLoyaltyOrders = 5

// Eligible reports whether the offer's conditions are satisfied by the cart.
// It is a pure function: activation-window filtering has already happened in
// the repository, and the customer's prior-order count has already been
// resolved into state by the caller.
func Eligible(d *Definition, lines []cart.Line, customer CustomerState) bool {
	switch d.Type {
	case TypeCartPercentage, TypeCartFlatAmount:
		return cart.Subtotal(lines).GreaterThanOrEqual(d.Conditions.MinAmount)

	case TypeCartThresholdFreeItem:
		threshold := d.Conditions.MinAmount.Add(d.Conditions.ThresholdAmount)
		return cart.Subtotal(lines).GreaterThanOrEqual(threshold)

	case TypeBuyGetFree:
		return eligibleBuyGet(d, lines)

	case TypeTimeBased:
		return eligibleTimeBased(d, lines)

	case TypeCustomerSegment:
		return eligibleSegment(d, customer)

	default:
		// item_percentage_discount, combo_meal, promo_code: no condition
		// beyond the activation filters already applied.
		return true
	}
}

// eligibleBuyGet requires at least one must-buy line item, and for every
// must-buy entry the matching cart quantity must reach buy_quantity.
func eligibleBuyGet(d *Definition, lines []cart.Line) bool {
	mustBuy := d.ItemsByRole(RoleMustBuy)
	if len(mustBuy) == 0 || d.Benefits.BuyQuantity <= 0 {
		return false
	}
	for _, li := range mustBuy {
		if matchedQuantity(li, lines) < d.Benefits.BuyQuantity {
			return false
		}
	}
	return true
}

func eligibleTimeBased(d *Definition, lines []cart.Line) bool {
	if len(d.Conditions.Categories) == 0 {
		return true
	}
	for _, l := range lines {
		if slices.Contains(d.Conditions.Categories, l.CategoryID) {
			return true
		}
	}
	return false
}

// eligibleSegment checks first_time / loyalty membership. An absent customer
// identity makes the offer ineligible for either sub-case.
func eligibleSegment(d *Definition, customer CustomerState) bool {
	if !customer.Known {
		return false
	}
	switch d.Conditions.TargetSegment {
	case SegmentFirstTime:
		return customer.PriorOrders == 0
	case SegmentLoyalty:
		minOrders := d.Conditions.MinOrdersCount
		if minOrders <= 0 {
			minOrders = defaultLoyaltyOrders
		}
		return customer.PriorOrders >= minOrders
	default:
		return false
	}
}

// matchedQuantity returns the cart quantity matching an offer line item:
// the item's own quantity for item references, the summed category quantity
// for category references.
func matchedQuantity(li LineItem, lines []cart.Line) int {
	if li.ItemID != "" {
		return cart.ItemQuantity(lines, li.ItemID)
	}
	if li.CategoryID != "" {
		return cart.CategoryQuantity(lines, li.CategoryID)
	}
	return 0
}
