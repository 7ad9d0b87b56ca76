package postgres

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/platewise/dineflow/internal/domain/offer"
)

// The conditions and benefits columns are open attribute bags: jsonb objects
// whose meaningful keys depend on the offer type. Decoding maps known keys
// onto the typed domain structs and skips everything else; numeric values
// may arrive as JSON numbers or as strings, since the authoring surface has
// historically produced both.

func decodeConditions(data []byte) (offer.Conditions, error) {
	var c offer.Conditions
	if len(data) == 0 {
		return c, nil
	}

	d := jx.DecodeBytes(data)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "min_amount":
			return decodeDecimal(d, &c.MinAmount)
		case "threshold_amount":
			return decodeDecimal(d, &c.ThresholdAmount)
		case "min_orders_count":
			return decodeInt(d, &c.MinOrdersCount)
		case "target":
			s, err := d.Str()
			c.TargetSegment = offer.Segment(s)
			return err
		case "categories":
			return d.Arr(func(d *jx.Decoder) error {
				s, err := d.Str()
				if err != nil {
					return err
				}
				c.Categories = append(c.Categories, s)
				return nil
			})
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return offer.Conditions{}, errors.Wrap(err, "decode conditions")
	}
	return c, nil
}

func decodeBenefits(data []byte) (offer.Benefits, error) {
	var b offer.Benefits
	if len(data) == 0 {
		return b, nil
	}

	d := jx.DecodeBytes(data)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "discount_percentage":
			return decodeDecimal(d, &b.DiscountPercentage)
		case "discount_amount":
			return decodeDecimal(d, &b.DiscountAmount)
		case "max_discount_amount":
			return decodeDecimal(d, &b.MaxDiscountAmount)
		case "buy_quantity":
			return decodeInt(d, &b.BuyQuantity)
		case "get_quantity":
			return decodeInt(d, &b.GetQuantity)
		case "get_same_item":
			v, err := d.Bool()
			b.GetSameItem = v
			return err
		case "combo_price":
			return decodeDecimal(d, &b.ComboPrice)
		case "max_price":
			return decodeDecimal(d, &b.MaxFreePrice)
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return offer.Benefits{}, errors.Wrap(err, "decode benefits")
	}
	return b, nil
}

func decodeDecimal(d *jx.Decoder, dst *decimal.Decimal) error {
	var raw string
	switch d.Next() {
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return err
		}
		raw = n.String()
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return err
		}
		raw = s
	case jx.Null:
		return d.Null()
	default:
		return errors.Errorf("unexpected token %v for decimal", d.Next())
	}

	v, err := decimal.NewFromString(raw)
	if err != nil {
		return errors.Wrapf(err, "parse decimal %q", raw)
	}
	*dst = v
	return nil
}

func decodeInt(d *jx.Decoder, dst *int) error {
	switch d.Next() {
	case jx.Number:
		v, err := d.Int()
		if err != nil {
			return err
		}
		*dst = v
		return nil
	case jx.Null:
		return d.Null()
	default:
		return errors.Errorf("unexpected token %v for integer", d.Next())
	}
}

func encodeConditions(c offer.Conditions) []byte {
	var e jx.Encoder
	e.ObjStart()
	encodeDecimalField(&e, "min_amount", c.MinAmount)
	encodeDecimalField(&e, "threshold_amount", c.ThresholdAmount)
	if c.MinOrdersCount > 0 {
		e.FieldStart("min_orders_count")
		e.Int(c.MinOrdersCount)
	}
	if c.TargetSegment != "" {
		e.FieldStart("target")
		e.Str(string(c.TargetSegment))
	}
	if len(c.Categories) > 0 {
		e.FieldStart("categories")
		e.ArrStart()
		for _, cat := range c.Categories {
			e.Str(cat)
		}
		e.ArrEnd()
	}
	e.ObjEnd()
	return e.Bytes()
}

func encodeBenefits(b offer.Benefits) []byte {
	var e jx.Encoder
	e.ObjStart()
	encodeDecimalField(&e, "discount_percentage", b.DiscountPercentage)
	encodeDecimalField(&e, "discount_amount", b.DiscountAmount)
	encodeDecimalField(&e, "max_discount_amount", b.MaxDiscountAmount)
	if b.BuyQuantity > 0 {
		e.FieldStart("buy_quantity")
		e.Int(b.BuyQuantity)
	}
	if b.GetQuantity > 0 {
		e.FieldStart("get_quantity")
		e.Int(b.GetQuantity)
	}
	if b.GetSameItem {
		e.FieldStart("get_same_item")
		e.Bool(true)
	}
	encodeDecimalField(&e, "combo_price", b.ComboPrice)
	encodeDecimalField(&e, "max_price", b.MaxFreePrice)
	e.ObjEnd()
	return e.Bytes()
}

// encodeDecimalField writes nothing for zero values: absent keys are the
// canonical form for unused fields in the bags.
func encodeDecimalField(e *jx.Encoder, key string, v decimal.Decimal) {
	if v.IsZero() {
		return
	}
	e.FieldStart(key)
	e.RawStr(v.String())
}
