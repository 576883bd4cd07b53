package service

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"bakery-shop-backend/internal/model"
)

// PricingPolicy holds the checkout constants. Delivery is free only when the
// subtotal is strictly greater than FreeDeliveryThreshold.
type PricingPolicy struct {
	FreeDeliveryThreshold decimal.Decimal
	DeliveryFee           decimal.Decimal
	TaxRate               decimal.Decimal
	PointsPerUnit         int64
}

func DefaultPricingPolicy() PricingPolicy {
	return PricingPolicy{
		FreeDeliveryThreshold: decimal.RequireFromString("50.00"),
		DeliveryFee:           decimal.RequireFromString("4.99"),
		TaxRate:               decimal.RequireFromString("0.08"),
		PointsPerUnit:         10,
	}
}

type Quote struct {
	Subtotal    decimal.Decimal
	DeliveryFee decimal.Decimal
	Tax         decimal.Decimal
	Total       decimal.Decimal
}

func (p PricingPolicy) Quote(items []model.OrderItem) Quote {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	fee := p.DeliveryFee
	if subtotal.GreaterThan(p.FreeDeliveryThreshold) {
		fee = decimal.Zero
	}
	tax := subtotal.Mul(p.TaxRate).Round(2)

	return Quote{
		Subtotal:    subtotal,
		DeliveryFee: fee,
		Tax:         tax,
		Total:       subtotal.Add(fee).Add(tax),
	}
}

var maxPoints = decimal.NewFromInt(math.MaxInt64)

// PointsAwarded is floor(total * PointsPerUnit). ok is false when the result
// does not fit in an int64.
func (p PricingPolicy) PointsAwarded(total decimal.Decimal) (points int64, ok bool) {
	v := total.Mul(decimal.NewFromInt(p.PointsPerUnit)).Floor()
	if v.GreaterThan(maxPoints) {
		return 0, false
	}
	return v.IntPart(), true
}

func FormatOrderNumber(year int, seq int64) string {
	return fmt.Sprintf("ORD-%d-%04d", year, seq)
}
