package app

import "settlement-engine/internal/core"

// EmployeeResult is returned by GetEmployee.
type EmployeeResult struct {
	Employee *core.Employee
}

// EmployeeListResult is returned by ListEmployees.
type EmployeeListResult struct {
	Employees []core.Employee
}

// ProfitRecordResult is returned by single-record lifecycle operations.
type ProfitRecordResult struct {
	Record *core.ProfitRecord
}

// ProfitRecordListResult is returned by ListProfitRecords.
type ProfitRecordListResult struct {
	Records []core.ProfitRecord
}

// SettlementResult is returned by Settle.
type SettlementResult struct {
	Invoice *core.SettlementInvoice
}

// InvoiceListResult is returned by ListSettlementInvoices.
type InvoiceListResult struct {
	Invoices []core.UnifiedInvoice
}

// InvoiceDetailResult is returned by GetSettlementInvoice.
type InvoiceDetailResult struct {
	Invoice *core.UnifiedInvoice
	Orders  []core.SettledOrder
}

// StatsResult is returned by GetStats.
type StatsResult struct {
	Stats *core.SettlementStats
}

// DraftResult is returned by ParseOrderMessage.
type DraftResult struct {
	Draft *core.OrderDraft
}

// EmployeeSummaryResult is the per-employee rollup served to the Telegram bot.
type EmployeeSummaryResult struct {
	Employee *core.Employee
	Pending  []core.ProfitRecord
	Settled  []core.ProfitRecord
}
