package offer

import (
	"github.com/shopspring/decimal"

	"github.com/platewise/dineflow/internal/domain/cart"
)

var hundred = decimal.NewFromInt(100)

// ApplyBenefit computes the concrete effect of an eligible offer on the
// cart: a discount amount and/or free-item grants. It is deterministic and
// has no side effects; usage bookkeeping is a separate post-commit step.
func ApplyBenefit(d *Definition, lines []cart.Line) Applied {
	applied := Applied{
		OfferID:  d.ID,
		Name:     d.Name,
		Type:     d.Type,
		Discount: decimal.Zero,
	}

	subtotal := cart.Subtotal(lines)

	switch d.Type {
	case TypeCartPercentage:
		applied.Discount = percentageOf(subtotal, d.Benefits.DiscountPercentage)

	case TypeCartFlatAmount:
		// Never discount more than the cart is worth.
		applied.Discount = capAt(d.Benefits.DiscountAmount, subtotal)

	case TypePromoCode, TypeCustomerSegment:
		applied.Discount = wholeCartDiscount(d, subtotal)

	case TypeItemPercentage, TypeTimeBased:
		applied.Discount = scopedDiscount(d, lines)

	case TypeCartThresholdFreeItem:
		applied.FreeItems = thresholdFreeGrant(d)

	case TypeBuyGetFree:
		applied.FreeItems = buyGetGrants(d, lines)

	case TypeComboMeal:
		// Combo pricing is presented as a fixed bundle price by the menu
		// layer; the engine computes no discount for it.
	}

	return applied
}

// wholeCartDiscount prefers a percentage when set, then a flat amount capped
// at the subtotal, otherwise zero.
func wholeCartDiscount(d *Definition, subtotal decimal.Decimal) decimal.Decimal {
	if d.Benefits.DiscountPercentage.IsPositive() {
		return percentageOf(subtotal, d.Benefits.DiscountPercentage)
	}
	if d.Benefits.DiscountAmount.IsPositive() {
		return capAt(d.Benefits.DiscountAmount, subtotal)
	}
	return decimal.Zero
}

// scopedDiscount applies the offer's percentage or flat amount only to the
// subtotal of cart lines in the offer's condition categories. Without a
// category scope the discount is zero even though the offer still counts
// as applied.
func scopedDiscount(d *Definition, lines []cart.Line) decimal.Decimal {
	if len(d.Conditions.Categories) == 0 {
		return decimal.Zero
	}
	scoped := cart.CategorySubtotal(lines, d.Conditions.Categories)
	if d.Benefits.DiscountPercentage.IsPositive() {
		return percentageOf(scoped, d.Benefits.DiscountPercentage)
	}
	if d.Benefits.DiscountAmount.IsPositive() {
		return capAt(d.Benefits.DiscountAmount, scoped)
	}
	return decimal.Zero
}

// thresholdFreeGrant produces one open "choose 1 item up to max price" grant
// when the offer carries at least one free-item line entry.
func thresholdFreeGrant(d *Definition) []FreeItem {
	free := d.ItemsByRole(RoleFreeItem)
	if len(free) == 0 {
		return nil
	}
	return []FreeItem{{
		Quantity:   1,
		Choice:     true,
		CategoryID: free[0].CategoryID,
		MaxPrice:   d.Benefits.MaxFreePrice,
	}}
}

// buyGetGrants computes qualified sets per must-buy entry (taking the max
// across entries) and grants get_quantity free units per set: the same item
// when get_same_item is set, otherwise an open choice from the offer's
// free-item entries.
func buyGetGrants(d *Definition, lines []cart.Line) []FreeItem {
	buyQty := d.Benefits.BuyQuantity
	getQty := d.Benefits.GetQuantity
	if buyQty <= 0 || getQty <= 0 {
		return nil
	}

	sets := 0
	var qualifying *LineItem
	for i, li := range d.ItemsByRole(RoleMustBuy) {
		q := matchedQuantity(li, lines) / buyQty
		if q > sets {
			sets = q
		}
		if i == 0 {
			first := li
			qualifying = &first
		}
	}
	if sets == 0 || qualifying == nil {
		return nil
	}

	if d.Benefits.GetSameItem {
		return sameItemGrant(*qualifying, lines, sets*getQty)
	}

	grant := FreeItem{Quantity: sets * getQty, Choice: true}
	if free := d.ItemsByRole(RoleFreeItem); len(free) > 0 {
		grant.CategoryID = free[0].CategoryID
	}
	return []FreeItem{grant}
}

// sameItemGrant resolves a grant of the first matching must-buy item at its
// cart unit price.
func sameItemGrant(li LineItem, lines []cart.Line, quantity int) []FreeItem {
	grant := FreeItem{
		ItemID:   li.ItemID,
		Name:     li.Name,
		Quantity: quantity,
	}
	for _, l := range lines {
		match := (li.ItemID != "" && l.ItemID == li.ItemID) ||
			(li.ItemID == "" && li.CategoryID != "" && l.CategoryID == li.CategoryID)
		if match {
			grant.ItemID = l.ItemID
			grant.Name = l.Name
			grant.UnitPrice = l.UnitPrice
			break
		}
	}
	return []FreeItem{grant}
}

// percentageOf returns pct% of amount, rounded to 2 places and floored at zero.
func percentageOf(amount, pct decimal.Decimal) decimal.Decimal {
	return floorAtZero(amount.Mul(pct).Div(hundred)).Round(2)
}

// capAt returns min(amount, limit), rounded to 2 places and floored at zero.
func capAt(amount, limit decimal.Decimal) decimal.Decimal {
	return floorAtZero(decimal.Min(amount, limit)).Round(2)
}

// floorAtZero clamps negative values to zero.
func floorAtZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
