package offer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validBase(typ Type) Definition {
	d := Definition{Name: "test offer", Type: typ, Active: true}
	switch typ {
	case TypeCartPercentage, TypeItemPercentage:
		d.Benefits.DiscountPercentage = dec("10")
		if typ == TypeItemPercentage {
			d.Conditions.Categories = []string{"mains"}
		}
	case TypeCartFlatAmount:
		d.Benefits.DiscountAmount = dec("50")
	case TypeCartThresholdFreeItem:
		d.Benefits.MaxFreePrice = dec("150")
		d.Items = []LineItem{{CategoryID: "desserts", Role: RoleFreeItem}}
	case TypeBuyGetFree:
		d.Benefits.BuyQuantity = 1
		d.Benefits.GetQuantity = 1
		d.Benefits.GetSameItem = true
		d.Items = []LineItem{{ItemID: "i1", Role: RoleMustBuy}}
	case TypeTimeBased, TypeCustomerSegment:
		d.Benefits.DiscountPercentage = dec("10")
		d.Conditions.TargetSegment = SegmentFirstTime
	case TypePromoCode:
		d.PromoCode = "SAVE10"
		d.Benefits.DiscountPercentage = dec("10")
	case TypeComboMeal:
		d.Benefits.ComboPrice = dec("399")
		d.Items = []LineItem{{ItemID: "i1", Role: RoleMustBuy}}
	}
	return d
}

func TestValidateForAuthoring_AcceptsCompleteDefinitions(t *testing.T) {
	for _, typ := range []Type{
		TypeCartPercentage, TypeCartFlatAmount, TypeCartThresholdFreeItem,
		TypeBuyGetFree, TypeItemPercentage, TypeComboMeal,
		TypeTimeBased, TypeCustomerSegment, TypePromoCode,
	} {
		d := validBase(typ)
		assert.NoError(t, ValidateForAuthoring(&d), "type %s", typ)
	}
}

func TestValidateForAuthoring_RejectsIncompleteDefinitions(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Definition)
		base      Type
		wantField string
	}{
		{
			name:      "missing name",
			base:      TypeCartPercentage,
			mutate:    func(d *Definition) { d.Name = " " },
			wantField: "name",
		},
		{
			name:      "percentage missing",
			base:      TypeCartPercentage,
			mutate:    func(d *Definition) { d.Benefits.DiscountPercentage = dec("0") },
			wantField: "benefits.discount_percentage",
		},
		{
			name:      "percentage above 100",
			base:      TypeCartPercentage,
			mutate:    func(d *Definition) { d.Benefits.DiscountPercentage = dec("150") },
			wantField: "benefits.discount_percentage",
		},
		{
			name:      "flat amount missing",
			base:      TypeCartFlatAmount,
			mutate:    func(d *Definition) { d.Benefits.DiscountAmount = dec("0") },
			wantField: "benefits.discount_amount",
		},
		{
			name:      "threshold offer without free item entries",
			base:      TypeCartThresholdFreeItem,
			mutate:    func(d *Definition) { d.Items = nil },
			wantField: "items",
		},
		{
			name:      "buy-get without must-buy entries",
			base:      TypeBuyGetFree,
			mutate:    func(d *Definition) { d.Items = nil },
			wantField: "items",
		},
		{
			name: "buy-get open choice without free item entries",
			base: TypeBuyGetFree,
			mutate: func(d *Definition) {
				d.Benefits.GetSameItem = false
			},
			wantField: "items",
		},
		{
			name:      "item discount without categories",
			base:      TypeItemPercentage,
			mutate:    func(d *Definition) { d.Conditions.Categories = nil },
			wantField: "conditions.categories",
		},
		{
			name:      "segment offer with unknown target",
			base:      TypeCustomerSegment,
			mutate:    func(d *Definition) { d.Conditions.TargetSegment = "vip" },
			wantField: "conditions.target",
		},
		{
			name:      "promo offer without code",
			base:      TypePromoCode,
			mutate:    func(d *Definition) { d.PromoCode = "" },
			wantField: "promo_code",
		},
		{
			name:      "combo without price",
			base:      TypeComboMeal,
			mutate:    func(d *Definition) { d.Benefits.ComboPrice = dec("0") },
			wantField: "benefits.combo_price",
		},
		{
			name:      "window crossing midnight",
			base:      TypeCartPercentage,
			mutate:    func(d *Definition) { d.ValidHoursStart = "22:00"; d.ValidHoursEnd = "02:00" },
			wantField: "valid_hours",
		},
		{
			name:      "half-open time window",
			base:      TypeCartPercentage,
			mutate:    func(d *Definition) { d.ValidHoursStart = "12:00" },
			wantField: "valid_hours",
		},
		{
			name:      "malformed clock value",
			base:      TypeCartPercentage,
			mutate:    func(d *Definition) { d.ValidHoursStart = "9am"; d.ValidHoursEnd = "17:00" },
			wantField: "valid_hours_start",
		},
		{
			name:      "unknown weekday",
			base:      TypeCartPercentage,
			mutate:    func(d *Definition) { d.ValidDays = []string{"funday"} },
			wantField: "valid_days",
		},
		{
			name:      "negative usage limit",
			base:      TypeCartPercentage,
			mutate:    func(d *Definition) { d.UsageLimit = -1 },
			wantField: "usage_limit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validBase(tt.base)
			tt.mutate(&d)

			err := ValidateForAuthoring(&d)
			require.Error(t, err)

			var verrs ValidationErrors
			require.ErrorAs(t, err, &verrs)
			fields := make([]string, len(verrs))
			for i, fe := range verrs {
				fields[i] = fe.Field
			}
			assert.Contains(t, fields, tt.wantField)
		})
	}
}

func TestValidateForAuthoring_UnknownType(t *testing.T) {
	d := Definition{Name: "mystery", Type: "mystery_meal"}
	err := ValidateForAuthoring(&d)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "offer_type")
}

func TestValidateForAuthoring_CollectsAllErrors(t *testing.T) {
	d := Definition{Type: TypeBuyGetFree}
	err := ValidateForAuthoring(&d)
	require.Error(t, err)

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.GreaterOrEqual(t, len(verrs), 3)
}
