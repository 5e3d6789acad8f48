package core

import "github.com/shopspring/decimal"

// Normalization of the duck-typed fallbacks the hosted store accumulated
// over time. Each fallback is resolved here exactly once; call sites never
// re-derive them.

// OrderTotal is the canonical order amount used everywhere downstream:
// (final_amount ?? total_amount) minus the delivery fee, floored at zero.
// The delivery fee belongs to the delivery partner and is never part of
// revenue or profit.
func OrderTotal(o Order) decimal.Decimal {
	amount := o.TotalAmount
	if o.FinalAmount.Valid {
		amount = o.FinalAmount.Decimal
	}
	total := amount.Sub(o.DeliveryFee)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

// ItemCost returns the unit cost price, or zero when the row predates cost
// tracking. Callers that hit the zero fallback must surface the result as
// low-confidence.
func ItemCost(it OrderItem) (cost decimal.Decimal, known bool) {
	if it.UnitCostPrice.Valid {
		return it.UnitCostPrice.Decimal, true
	}
	return decimal.Zero, false
}

// ItemProfit is the margin contributed by one line: (sell − cost) × qty,
// floored at zero so a below-cost sale never subtracts from other lines.
func ItemProfit(it OrderItem) decimal.Decimal {
	cost, _ := ItemCost(it)
	qty := decimal.NewFromInt(int64(it.Quantity))
	p := it.UnitSellPrice.Sub(cost).Mul(qty)
	if p.IsNegative() {
		return decimal.Zero
	}
	return p
}
