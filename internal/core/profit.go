package core

import "github.com/shopspring/decimal"

// ProfitSplit is the outcome of splitting one order's profit between the
// employee who sold it and the business.
//
// Invariant: EmployeeProfit + BusinessProfit == TotalProfit, both shares ≥ 0.
type ProfitSplit struct {
	TotalProfit    decimal.Decimal
	EmployeeProfit decimal.Decimal
	BusinessProfit decimal.Decimal
	TotalRevenue   decimal.Decimal
	TotalCost      decimal.Decimal

	// LowConfidence is set when a cost price was missing or no profit rule
	// was configured, i.e. the split is computed from degraded inputs.
	LowConfidence bool

	// FromRecord is set when the split was read back from a persisted
	// ProfitRecord instead of being recomputed.
	FromRecord bool
}

// ComputeProfitSplit derives the profit split for one delivered order.
//
// Precedence: a persisted ProfitRecord is the source of truth. When one is
// supplied its stored amounts are returned verbatim, never recomputed.
// Otherwise the split is built from the order items and the employee's
// profit rule, with the business share clamped at zero.
//
// Returned or cancelled orders are excluded upstream; this function only
// ever sees delivered/completed orders.
func ComputeProfitSplit(items []OrderItem, emp Employee, existing *ProfitRecord) ProfitSplit {
	if existing != nil {
		return ProfitSplit{
			TotalProfit:    existing.ProfitAmount,
			EmployeeProfit: existing.EmployeeProfit,
			BusinessProfit: existing.BusinessProfit(),
			TotalRevenue:   existing.TotalRevenue,
			TotalCost:      existing.TotalCost,
			LowConfidence:  existing.LowConfidence,
			FromRecord:     true,
		}
	}

	var split ProfitSplit
	var totalItemProfit decimal.Decimal

	for _, it := range items {
		qty := decimal.NewFromInt(int64(it.Quantity))
		split.TotalRevenue = split.TotalRevenue.Add(it.UnitSellPrice.Mul(qty))

		cost, known := ItemCost(it)
		if !known {
			split.LowConfidence = true
		}
		split.TotalCost = split.TotalCost.Add(cost.Mul(qty))

		itemProfit := ItemProfit(it)
		totalItemProfit = totalItemProfit.Add(itemProfit)
		share, ok := employeeShare(it, itemProfit, emp.Rule)
		if !ok {
			split.LowConfidence = true
		}
		split.EmployeeProfit = split.EmployeeProfit.Add(share)
	}

	split.BusinessProfit = totalItemProfit.Sub(split.EmployeeProfit)
	if split.BusinessProfit.IsNegative() {
		// Rule misconfiguration (share exceeding the item profit) is
		// clamped, not propagated.
		split.BusinessProfit = decimal.Zero
	}
	split.TotalProfit = split.EmployeeProfit.Add(split.BusinessProfit)
	return split
}

// employeeShare applies the profit rule to one line. A per-product
// percentage on the item takes precedence over the employee-level rule.
// ok is false when no rule applied and the share fell back to zero.
func employeeShare(it OrderItem, itemProfit decimal.Decimal, rule ProfitRule) (share decimal.Decimal, ok bool) {
	hundred := decimal.NewFromInt(100)

	if it.ProfitPercent.Valid {
		return itemProfit.Mul(it.ProfitPercent.Decimal).Div(hundred), true
	}
	if !rule.Configured {
		return decimal.Zero, false
	}
	if rule.IsPercentage {
		return itemProfit.Mul(rule.Percentage).Div(hundred), true
	}
	return rule.FixedAmount.Mul(decimal.NewFromInt(int64(it.Quantity))), true
}
