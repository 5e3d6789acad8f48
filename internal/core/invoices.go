package core

import (
	"log"
	"sort"
	"strings"
	"time"
)

// Legacy settlement rows live in the generic expense ledger, tagged with a
// fixed Arabic category ("employee dues") before the dedicated invoice table
// existed. Only rows matching all three tags are treated as settlements.
const (
	LegacyDuesCategory  = "مستحقات الموظفين"
	legacyExpenseType   = "system"
	legacyApprovedState = "approved"
	legacyNumberPrefix  = "RY-"
)

// LegacyEligible reports whether a generic expense row qualifies as a
// historical settlement.
func LegacyEligible(e LegacyExpense) bool {
	return e.Category == LegacyDuesCategory &&
		e.ExpenseType == legacyExpenseType &&
		e.Status == legacyApprovedState
}

// LegacyInvoiceNumber derives the invoice number for a legacy expense row:
// its receipt number when present, otherwise a deterministic fallback built
// from the last six characters of the record id, uppercased. The same row
// always derives the same number, which is what makes the merge dedup and
// the one-time migration idempotent.
func LegacyInvoiceNumber(e LegacyExpense) string {
	if n := strings.TrimSpace(e.ReceiptNumber); n != "" {
		return n
	}
	id := e.ID
	if len(id) > 6 {
		id = id[len(id)-6:]
	}
	return legacyNumberPrefix + strings.ToUpper(id)
}

// MergeInvoices merges real settlement invoices with legacy expense-derived
// pseudo-invoices into one deduplicated list, newest first.
//
// Real invoices always win: a legacy entry whose derived number collides
// with any number already present is discarded (logged, never an error).
// Entries are sorted by settlement_date ?? created_at descending; entries
// with no date sort last but stay in the list; window filtering excludes
// them separately. The merge is a pure function of its inputs: running it
// twice over the same data yields an identical ordered list.
func MergeInvoices(real []SettlementInvoice, legacy []LegacyExpense) []UnifiedInvoice {
	merged := make([]UnifiedInvoice, 0, len(real)+len(legacy))
	seen := make(map[string]bool, len(real))

	for i := range real {
		inv := &real[i]
		date := inv.SettlementDate
		if date == nil && !inv.CreatedAt.IsZero() {
			created := inv.CreatedAt
			date = &created
		}
		merged = append(merged, UnifiedInvoice{
			Source:        SourceReal,
			InvoiceNumber: inv.InvoiceNumber,
			EmployeeID:    inv.EmployeeID,
			EmployeeCode:  inv.EmployeeCode,
			TotalAmount:   inv.TotalAmount,
			Date:          date,
			PaymentMethod: inv.PaymentMethod,
			Notes:         inv.Notes,
			Real:          inv,
		})
		seen[inv.InvoiceNumber] = true
	}

	for i := range legacy {
		exp := &legacy[i]
		if !LegacyEligible(*exp) {
			continue
		}
		number := LegacyInvoiceNumber(*exp)
		if seen[number] {
			log.Printf("invoice merge: discarding legacy expense %s (number %s already present)", exp.ID, number)
			continue
		}
		seen[number] = true

		var date *time.Time
		if !exp.CreatedAt.IsZero() {
			created := exp.CreatedAt
			date = &created
		}
		merged = append(merged, UnifiedInvoice{
			Source:        SourceLegacy,
			InvoiceNumber: number,
			EmployeeID:    exp.Metadata.EmployeeID,
			EmployeeName:  exp.Metadata.EmployeeName,
			TotalAmount:   exp.Amount,
			Date:          date,
			Legacy:        exp,
		})
	}

	sort.SliceStable(merged, func(i, j int) bool {
		a, b := merged[i], merged[j]
		switch {
		case a.Date == nil && b.Date == nil:
			return a.InvoiceNumber < b.InvoiceNumber
		case a.Date == nil:
			return false
		case b.Date == nil:
			return true
		case a.Date.Equal(*b.Date):
			return a.InvoiceNumber < b.InvoiceNumber
		default:
			return a.Date.After(*b.Date)
		}
	})
	return merged
}

// FilterInvoices returns the entries whose resolved date falls inside the
// window. Entries without a parseable date never appear in a windowed view.
func FilterInvoices(invoices []UnifiedInvoice, w Window) []UnifiedInvoice {
	out := make([]UnifiedInvoice, 0, len(invoices))
	for _, inv := range invoices {
		if w.ContainsDate(inv.Date) {
			out = append(out, inv)
		}
	}
	return out
}
