package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// SettlementStatus is the lifecycle state of a ProfitRecord, from creation
// after delivery confirmation through payout.
type SettlementStatus string

const (
	StatusPending             SettlementStatus = "pending"
	StatusInvoiceReceived     SettlementStatus = "invoice_received"
	StatusSettlementRequested SettlementStatus = "settlement_requested"
	StatusSettled             SettlementStatus = "settled"
)

// ProfitRule describes how an employee's share of an order's profit is
// derived: either a percentage of the item profit or a fixed amount per
// unit sold. Configured is false when no rule row exists for the employee,
// in which case the share falls back to zero and the computation is
// flagged low-confidence.
type ProfitRule struct {
	IsPercentage bool            `json:"is_percentage"`
	Percentage   decimal.Decimal `json:"percentage"`
	FixedAmount  decimal.Decimal `json:"fixed_amount"`
	Configured   bool            `json:"configured"`
}

type Employee struct {
	ID             int        `json:"id"`
	Code           string     `json:"code"`
	Name           string     `json:"name"`
	TelegramChatID *int64     `json:"telegram_chat_id,omitempty"`
	Rule           ProfitRule `json:"rule"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Order is owned by the order-management subsystem. The engine reads it and
// never mutates its delivery fields.
type Order struct {
	ID              int                 `json:"id"`
	OrderNumber     string              `json:"order_number"`
	EmployeeID      int                 `json:"employee_id"` // created_by
	CustomerName    string              `json:"customer_name"`
	Status          string              `json:"status"` // delivery lifecycle, external
	ReceiptReceived bool                `json:"receipt_received"`
	FinalAmount     decimal.NullDecimal `json:"final_amount"`
	TotalAmount     decimal.Decimal     `json:"total_amount"`
	DeliveryFee     decimal.Decimal     `json:"delivery_fee"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// OrderItem is immutable once the order is placed. UnitCostPrice may be
// missing on old rows; ProfitPercent is an optional per-product override of
// the employee's profit rule.
type OrderItem struct {
	ID            int                 `json:"id"`
	OrderID       int                 `json:"order_id"`
	ProductName   string              `json:"product_name"`
	UnitSellPrice decimal.Decimal     `json:"unit_sell_price"`
	UnitCostPrice decimal.NullDecimal `json:"unit_cost_price"`
	Quantity      int                 `json:"quantity"`
	ProfitPercent decimal.NullDecimal `json:"profit_percent"`
}

// ProfitRecord is one row per (order, employee): the computed profit split
// awaiting or having completed payout. At most one non-settled record exists
// per pair (partial unique index in the store). Records are never deleted;
// the terminal state is settled.
type ProfitRecord struct {
	ID             int              `json:"id"`
	OrderID        int              `json:"order_id"`
	EmployeeID     int              `json:"employee_id"`
	ProfitAmount   decimal.Decimal  `json:"profit_amount"`
	EmployeeProfit decimal.Decimal  `json:"employee_profit"`
	TotalRevenue   decimal.Decimal  `json:"total_revenue"`
	TotalCost      decimal.Decimal  `json:"total_cost"`
	LowConfidence  bool             `json:"low_confidence"`
	Status         SettlementStatus `json:"status"`
	SettledAt      *time.Time       `json:"settled_at,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// BusinessProfit is the business's retained share, clamped at zero so a
// misconfigured rule can never produce a negative business share.
func (r ProfitRecord) BusinessProfit() decimal.Decimal {
	bp := r.ProfitAmount.Sub(r.EmployeeProfit)
	if bp.IsNegative() {
		return decimal.Zero
	}
	return bp
}

// SettledOrder is one denormalized line of a SettlementInvoice snapshot,
// captured at payout time.
type SettledOrder struct {
	OrderID        int             `json:"order_id"`
	OrderNumber    string          `json:"order_number"`
	CustomerName   string          `json:"customer_name"`
	OrderTotal     decimal.Decimal `json:"order_total"`
	EmployeeProfit decimal.Decimal `json:"employee_profit"`
	OrderDate      time.Time       `json:"order_date"`
}

// SettlementInvoice is the immutable payout snapshot grouping one or more
// settled ProfitRecords for one employee. TotalAmount and SettledOrders are
// frozen at creation and never change, even if source orders are edited
// afterwards.
type SettlementInvoice struct {
	ID             int             `json:"id"`
	InvoiceNumber  string          `json:"invoice_number"`
	EmployeeID     int             `json:"employee_id"`
	EmployeeCode   string          `json:"employee_code"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	SettlementDate *time.Time      `json:"settlement_date,omitempty"`
	PaymentMethod  string          `json:"payment_method"`
	Notes          string          `json:"notes"`
	OrderIDs       []int           `json:"order_ids,omitempty"`
	SettledOrders  []SettledOrder  `json:"settled_orders"`
	CreatedAt      time.Time       `json:"created_at"`
}

// LegacyMetadata is the free-form metadata object carried by legacy
// expense rows.
type LegacyMetadata struct {
	EmployeeID   int    `json:"employee_id"`
	EmployeeName string `json:"employee_name"`
}

// LegacyExpense is a pre-existing generic ledger row repurposed as a
// historical settlement before the dedicated invoice table existed.
// Read-only: the engine never writes these rows.
type LegacyExpense struct {
	ID            string          `json:"id"`
	ReceiptNumber string          `json:"receipt_number,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Category      string          `json:"category"`
	ExpenseType   string          `json:"expense_type"`
	Status        string          `json:"status"`
	Metadata      LegacyMetadata  `json:"metadata"`
	CreatedAt     time.Time       `json:"created_at"`
}

// InvoiceSource tags which of the two historical sources a unified
// settlement entry came from.
type InvoiceSource string

const (
	SourceReal   InvoiceSource = "real"
	SourceLegacy InvoiceSource = "legacy"
)

// UnifiedInvoice is the merged reporting shape produced by the invoice
// aggregator. Date is settlement_date ?? created_at resolved once at merge
// time; a nil Date means the entry has no parseable date and is excluded
// from time-filtered views while remaining in the raw list.
type UnifiedInvoice struct {
	Source        InvoiceSource   `json:"source"`
	InvoiceNumber string          `json:"invoice_number"`
	EmployeeID    int             `json:"employee_id"`
	EmployeeCode  string          `json:"employee_code,omitempty"`
	EmployeeName  string          `json:"employee_name,omitempty"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Date          *time.Time      `json:"date,omitempty"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	Notes         string          `json:"notes,omitempty"`

	Real   *SettlementInvoice `json:"-"`
	Legacy *LegacyExpense     `json:"-"`
}
