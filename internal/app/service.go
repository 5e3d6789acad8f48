package app

import (
	"context"

	"settlement-engine/internal/core"
)

// ApplicationService is the single interface all adapters (Web, Telegram,
// CLI) call. It decouples presentation from business logic. Implementations
// must contain no fmt.Println, no ANSI codes, and no display logic of any kind.
type ApplicationService interface {
	// ListEmployees returns the employee directory with profit rules.
	ListEmployees(ctx context.Context) (*EmployeeListResult, error)

	// GetEmployee returns one employee by ID.
	GetEmployee(ctx context.Context, id int) (*EmployeeResult, error)

	// ListProfitRecords returns profit records filtered by employee and/or
	// status; zero values mean no filter.
	ListProfitRecords(ctx context.Context, req ListRecordsRequest) (*ProfitRecordListResult, error)

	// EnsureProfitRecord returns the profit record for (order, employee),
	// computing and persisting it when absent.
	EnsureProfitRecord(ctx context.Context, orderID, employeeID int) (*ProfitRecordResult, error)

	// MarkInvoiceReceived advances a pending record after the delivery
	// partner's receipt for its order has been ingested.
	MarkInvoiceReceived(ctx context.Context, recordID int) (*ProfitRecordResult, error)

	// RequestSettlement files the employee's payout request for a record.
	RequestSettlement(ctx context.Context, recordID int) (*ProfitRecordResult, error)

	// RejectSettlement sends a requested record back for correction.
	RejectSettlement(ctx context.Context, recordID int) (*ProfitRecordResult, error)

	// Settle pays out an employee's eligible records and returns the frozen
	// settlement invoice.
	Settle(ctx context.Context, req SettleRequest) (*SettlementResult, error)

	// ListSettlementInvoices returns the unified settlement history, newest
	// first, filtered by the requested time window.
	ListSettlementInvoices(ctx context.Context, req WindowRequest) (*InvoiceListResult, error)

	// GetSettlementInvoice returns one unified invoice with its resolved
	// order lines.
	GetSettlementInvoice(ctx context.Context, invoiceNumber string) (*InvoiceDetailResult, error)

	// GetStats returns the profit/settlement rollup for a time window.
	GetStats(ctx context.Context, req WindowRequest) (*StatsResult, error)

	// ExportSettlementsReport renders the unified settlement history for a
	// window as an xlsx workbook.
	ExportSettlementsReport(ctx context.Context, req WindowRequest) ([]byte, error)

	// ParseOrderMessage extracts a structured order draft from a free-text
	// sales message. The draft is returned for human confirmation, never
	// persisted directly.
	ParseOrderMessage(ctx context.Context, message string) (*DraftResult, error)

	// EmployeeSummary resolves a Telegram chat to an employee and returns
	// their pending/settled profit rollup.
	EmployeeSummary(ctx context.Context, chatID int64) (*EmployeeSummaryResult, error)

	// MigrateLegacySettlements runs the idempotent legacy-expense migration.
	MigrateLegacySettlements(ctx context.Context) (*core.MigrationResult, error)
}
