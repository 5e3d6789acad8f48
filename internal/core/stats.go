package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// topEmployeeLimit caps the per-employee breakdown in summary stats.
const topEmployeeLimit = 5

// OrderProfit pairs a delivered order with its profit record for
// aggregation. Orders without a record yet contribute revenue only.
type OrderProfit struct {
	Order  Order
	Record *ProfitRecord
}

// EmployeeBreakdown is one row of the top-N employee table.
type EmployeeBreakdown struct {
	EmployeeID     int             `json:"employee_id"`
	EmployeeName   string          `json:"employee_name"`
	Orders         int             `json:"orders"`
	Revenue        decimal.Decimal `json:"revenue"`
	EmployeeProfit decimal.Decimal `json:"employee_profit"`
	BusinessProfit decimal.Decimal `json:"business_profit"`
}

// SettlementStats is the report-ready rollup over a filtered set of orders
// and profit records. All revenue figures exclude delivery fees.
type SettlementStats struct {
	TotalBusinessProfit decimal.Decimal     `json:"total_business_profit"`
	TotalEmployeeProfit decimal.Decimal     `json:"total_employee_profit"`
	TotalRevenue        decimal.Decimal     `json:"total_revenue"`
	PendingProfit       decimal.Decimal     `json:"pending_profit"`
	SettledProfit       decimal.Decimal     `json:"settled_profit"`
	TotalOrders         int                 `json:"total_orders"`
	AverageOrderValue   decimal.Decimal     `json:"average_order_value"`
	ProfitMargin        decimal.Decimal     `json:"profit_margin"`
	TopEmployees        []EmployeeBreakdown `json:"top_employees"`
}

// Summarize rolls up the given order/record pairs. It is a pure function:
// repeated runs over the same input produce identical output, so recomputing
// a report never drifts. employeeNames supplies display names for the
// breakdown; unknown employees keep an empty name rather than failing the
// batch.
func Summarize(entries []OrderProfit, employeeNames map[int]string) SettlementStats {
	stats := SettlementStats{
		AverageOrderValue: decimal.Zero,
		ProfitMargin:      decimal.Zero,
	}
	perEmployee := make(map[int]*EmployeeBreakdown)

	for _, e := range entries {
		orderTotal := OrderTotal(e.Order)
		stats.TotalRevenue = stats.TotalRevenue.Add(orderTotal)
		stats.TotalOrders++

		bd := perEmployee[e.Order.EmployeeID]
		if bd == nil {
			bd = &EmployeeBreakdown{
				EmployeeID:   e.Order.EmployeeID,
				EmployeeName: employeeNames[e.Order.EmployeeID],
			}
			perEmployee[e.Order.EmployeeID] = bd
		}
		bd.Orders++
		bd.Revenue = bd.Revenue.Add(orderTotal)

		if e.Record == nil {
			continue
		}
		business := e.Record.BusinessProfit()
		stats.TotalBusinessProfit = stats.TotalBusinessProfit.Add(business)
		stats.TotalEmployeeProfit = stats.TotalEmployeeProfit.Add(e.Record.EmployeeProfit)
		if e.Record.Status == StatusSettled {
			stats.SettledProfit = stats.SettledProfit.Add(business)
		} else {
			stats.PendingProfit = stats.PendingProfit.Add(business)
		}
		bd.EmployeeProfit = bd.EmployeeProfit.Add(e.Record.EmployeeProfit)
		bd.BusinessProfit = bd.BusinessProfit.Add(business)
	}

	if stats.TotalOrders > 0 {
		stats.AverageOrderValue = stats.TotalRevenue.
			Div(decimal.NewFromInt(int64(stats.TotalOrders))).Round(2)
	}
	if stats.TotalRevenue.IsPositive() {
		stats.ProfitMargin = stats.TotalBusinessProfit.
			Mul(decimal.NewFromInt(100)).Div(stats.TotalRevenue).Round(2)
	}

	breakdown := make([]EmployeeBreakdown, 0, len(perEmployee))
	for _, bd := range perEmployee {
		breakdown = append(breakdown, *bd)
	}
	// Descending by business profit; employee id breaks ties so repeated
	// runs order identically.
	sort.Slice(breakdown, func(i, j int) bool {
		if !breakdown[i].BusinessProfit.Equal(breakdown[j].BusinessProfit) {
			return breakdown[i].BusinessProfit.GreaterThan(breakdown[j].BusinessProfit)
		}
		return breakdown[i].EmployeeID < breakdown[j].EmployeeID
	})
	if len(breakdown) > topEmployeeLimit {
		breakdown = breakdown[:topEmployeeLimit]
	}
	stats.TopEmployees = breakdown
	return stats
}
