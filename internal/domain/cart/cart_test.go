package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestSubtotal(t *testing.T) {
	lines := []Line{
		{ItemID: "i1", UnitPrice: dec("120.50"), Quantity: 2, CategoryID: "pizza"},
		{ItemID: "i2", UnitPrice: dec("60"), Quantity: 1, CategoryID: "drinks"},
	}

	assert.True(t, dec("301.00").Equal(Subtotal(lines)))
	assert.True(t, Subtotal(nil).IsZero())
}

func TestQuantityHelpers(t *testing.T) {
	lines := []Line{
		{ItemID: "i1", UnitPrice: dec("100"), Quantity: 2, CategoryID: "pizza"},
		{ItemID: "i1", UnitPrice: dec("100"), Quantity: 1, CategoryID: "pizza"},
		{ItemID: "i2", UnitPrice: dec("50"), Quantity: 4, CategoryID: "drinks"},
	}

	assert.Equal(t, 3, ItemQuantity(lines, "i1"))
	assert.Equal(t, 0, ItemQuantity(lines, "missing"))
	assert.Equal(t, 3, CategoryQuantity(lines, "pizza"))
	assert.Equal(t, 4, CategoryQuantity(lines, "drinks"))
}

func TestCategorySubtotal(t *testing.T) {
	lines := []Line{
		{ItemID: "i1", UnitPrice: dec("100"), Quantity: 2, CategoryID: "pizza"},
		{ItemID: "i2", UnitPrice: dec("50"), Quantity: 1, CategoryID: "drinks"},
	}

	assert.True(t, dec("200").Equal(CategorySubtotal(lines, []string{"pizza"})))
	assert.True(t, dec("250").Equal(CategorySubtotal(lines, []string{"pizza", "drinks"})))
	// No category scope means nothing is in scope.
	assert.True(t, CategorySubtotal(lines, nil).IsZero())
}

func TestLineValidate(t *testing.T) {
	ok := Line{ItemID: "i1", UnitPrice: dec("10"), Quantity: 1}
	require.NoError(t, ok.Validate())

	zeroQty := Line{ItemID: "i1", UnitPrice: dec("10"), Quantity: 0}
	assert.ErrorIs(t, zeroQty.Validate(), ErrInvalidQuantity)

	negative := Line{ItemID: "i1", UnitPrice: dec("-1"), Quantity: 1}
	assert.ErrorIs(t, negative.Validate(), ErrNegativePrice)

	free := Line{ItemID: "i1", UnitPrice: decimal.Zero, Quantity: 1}
	assert.NoError(t, free.Validate())
}
