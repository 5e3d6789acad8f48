package app

import (
	"time"

	"settlement-engine/internal/core"
)

// ListRecordsRequest filters ListProfitRecords. Zero values mean no filter.
type ListRecordsRequest struct {
	EmployeeID int
	Status     core.SettlementStatus
}

// WindowRequest selects a reporting time window: either a canned period
// keyword (day, week, month, year, all) or an explicit from/to range.
// Explicit bounds win when either is present. Bare dates are interpreted in
// the business timezone.
type WindowRequest struct {
	Period string
	From   string
	To     string
}

// SettleRequest is the input for paying out an employee.
type SettleRequest struct {
	EmployeeID int
	// RecordIDs limits the payout to specific profit records; empty means
	// every record currently awaiting payout for the employee.
	RecordIDs []int
	// AdminOverride permits settling records that have not completed the
	// receipt/request flow.
	AdminOverride  bool
	PaymentMethod  string
	Notes          string
	SettlementDate time.Time
}
