package offer

import (
	"fmt"
	"strings"
)

// weekdays are the accepted valid_days values.
var weekdays = map[string]struct{}{
	"monday": {}, "tuesday": {}, "wednesday": {}, "thursday": {},
	"friday": {}, "saturday": {}, "sunday": {},
}

// FieldError describes a single authoring-time validation failure.
type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ValidationErrors aggregates all field errors found in a definition.
type ValidationErrors []FieldError

func (e ValidationErrors) Error() string {
	reasons := make([]string, len(e))
	for i, fe := range e {
		reasons[i] = fe.Error()
	}
	return "invalid offer definition: " + strings.Join(reasons, "; ")
}

// ValidateForAuthoring checks that a definition carries every field its
// offer type requires, so records that would be silently skipped or behave
// as no-ops at calculation time are rejected at save time instead. It
// returns a ValidationErrors listing every problem found, or nil.
func ValidateForAuthoring(d *Definition) error {
	var errs ValidationErrors

	add := func(field, reason string) {
		errs = append(errs, FieldError{Field: field, Reason: reason})
	}

	if strings.TrimSpace(d.Name) == "" {
		add("name", "required")
	}
	if !d.Type.Known() {
		add("offer_type", fmt.Sprintf("unknown type %q", d.Type))
		return errs
	}

	validateActivation(d, add)
	validateBenefitsForType(d, add)

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func validateActivation(d *Definition, add func(field, reason string)) {
	if d.UsageLimit < 0 {
		add("usage_limit", "must not be negative")
	}
	if d.StartDate != nil && d.EndDate != nil && d.EndDate.Before(*d.StartDate) {
		add("end_date", "must not precede start_date")
	}

	// Time windows are lexical HH:MM comparisons, so a window crossing
	// midnight would never match; reject it here instead of letting it
	// silently disable the offer.
	switch {
	case d.ValidHoursStart == "" && d.ValidHoursEnd == "":
	case d.ValidHoursStart == "" || d.ValidHoursEnd == "":
		add("valid_hours", "start and end must be set together")
	default:
		if !validClock(d.ValidHoursStart) {
			add("valid_hours_start", `must be "HH:MM"`)
		}
		if !validClock(d.ValidHoursEnd) {
			add("valid_hours_end", `must be "HH:MM"`)
		}
		if validClock(d.ValidHoursStart) && validClock(d.ValidHoursEnd) &&
			d.ValidHoursStart > d.ValidHoursEnd {
			add("valid_hours", "window must not cross midnight")
		}
	}

	for _, day := range d.ValidDays {
		if _, ok := weekdays[strings.ToLower(day)]; !ok {
			add("valid_days", fmt.Sprintf("unknown weekday %q", day))
		}
	}
}

func validateBenefitsForType(d *Definition, add func(field, reason string)) {
	b := d.Benefits
	switch d.Type {
	case TypeCartPercentage, TypeItemPercentage:
		if !b.DiscountPercentage.IsPositive() {
			add("benefits.discount_percentage", "required and must be positive")
		} else if b.DiscountPercentage.GreaterThan(hundred) {
			add("benefits.discount_percentage", "must not exceed 100")
		}
		if d.Type == TypeItemPercentage && len(d.Conditions.Categories) == 0 {
			add("conditions.categories", "required for item discounts")
		}

	case TypeCartFlatAmount:
		if !b.DiscountAmount.IsPositive() {
			add("benefits.discount_amount", "required and must be positive")
		}

	case TypeCartThresholdFreeItem:
		if !b.MaxFreePrice.IsPositive() {
			add("benefits.max_price", "required and must be positive")
		}
		if len(d.ItemsByRole(RoleFreeItem)) == 0 {
			add("items", "at least one free_item entry required")
		}

	case TypeBuyGetFree:
		if b.BuyQuantity < 1 {
			add("benefits.buy_quantity", "required and must be at least 1")
		}
		if b.GetQuantity < 1 {
			add("benefits.get_quantity", "required and must be at least 1")
		}
		if len(d.ItemsByRole(RoleMustBuy)) == 0 {
			add("items", "at least one must_buy entry required")
		}
		if !b.GetSameItem && len(d.ItemsByRole(RoleFreeItem)) == 0 {
			add("items", "at least one free_item entry required when get_same_item is false")
		}

	case TypeTimeBased:
		if !b.DiscountPercentage.IsPositive() && !b.DiscountAmount.IsPositive() {
			add("benefits", "discount_percentage or discount_amount required")
		}

	case TypeCustomerSegment:
		switch d.Conditions.TargetSegment {
		case SegmentFirstTime, SegmentLoyalty:
		default:
			add("conditions.target", `must be "first_time" or "loyalty"`)
		}
		if !b.DiscountPercentage.IsPositive() && !b.DiscountAmount.IsPositive() {
			add("benefits", "discount_percentage or discount_amount required")
		}

	case TypePromoCode:
		if strings.TrimSpace(d.PromoCode) == "" {
			add("promo_code", "required")
		}
		if !b.DiscountPercentage.IsPositive() && !b.DiscountAmount.IsPositive() {
			add("benefits", "discount_percentage or discount_amount required")
		}

	case TypeComboMeal:
		if !b.ComboPrice.IsPositive() {
			add("benefits.combo_price", "required and must be positive")
		}
		if len(d.ItemsByRole(RoleMustBuy)) == 0 {
			add("items", "at least one must_buy entry required")
		}
	}
}

func validClock(s string) bool {
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	hh, mm := s[:2], s[3:]
	for _, c := range hh + mm {
		if c < '0' || c > '9' {
			return false
		}
	}
	return hh <= "23" && mm <= "59"
}
