package core_test

import (
	"reflect"
	"testing"
	"time"

	"settlement-engine/internal/core"
)

func legacyRow(id, receipt string, amount int64, created time.Time) core.LegacyExpense {
	return core.LegacyExpense{
		ID:            id,
		ReceiptNumber: receipt,
		Amount:        dec(amount),
		Category:      core.LegacyDuesCategory,
		ExpenseType:   "system",
		Status:        "approved",
		CreatedAt:     created,
	}
}

func TestLegacyInvoiceNumber(t *testing.T) {
	tests := []struct {
		name string
		exp  core.LegacyExpense
		want string
	}{
		{
			name: "receipt number wins",
			exp:  core.LegacyExpense{ID: "abcdef123456", ReceiptNumber: "RY-XYZ789"},
			want: "RY-XYZ789",
		},
		{
			name: "fallback from last six of the id, uppercased",
			exp:  core.LegacyExpense{ID: "64f1a2b3c4d5e6f7a8b9c0d1"},
			want: "RY-B9C0D1",
		},
		{
			name: "short id used whole",
			exp:  core.LegacyExpense{ID: "ab12"},
			want: "RY-AB12",
		},
		{
			name: "blank receipt falls through",
			exp:  core.LegacyExpense{ID: "000000abc123", ReceiptNumber: "   "},
			want: "RY-ABC123",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := core.LegacyInvoiceNumber(tt.exp); got != tt.want {
				t.Errorf("LegacyInvoiceNumber = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMergeInvoices_RealWinsOverLegacy(t *testing.T) {
	day := time.Date(2025, 3, 10, 12, 0, 0, 0, core.BusinessZone)
	real := []core.SettlementInvoice{
		{InvoiceNumber: "RY-ABC123", EmployeeID: 1, TotalAmount: dec(50000), CreatedAt: day},
	}
	legacy := []core.LegacyExpense{
		legacyRow("x1", "RY-ABC123", 50000, day.Add(-time.Hour)),
	}

	merged := core.MergeInvoices(real, legacy)

	if len(merged) != 1 {
		t.Fatalf("merged length = %d, want 1", len(merged))
	}
	if merged[0].Source != core.SourceReal {
		t.Errorf("source = %s, want real", merged[0].Source)
	}
}

// Two legacy expenses and one real invoice sharing one number collapse to a
// single real entry.
func TestMergeInvoices_SharedNumberCollapses(t *testing.T) {
	day := time.Date(2025, 5, 1, 9, 0, 0, 0, core.BusinessZone)
	real := []core.SettlementInvoice{
		{InvoiceNumber: "RY-000042", EmployeeID: 3, TotalAmount: dec(75000), CreatedAt: day},
	}
	legacy := []core.LegacyExpense{
		legacyRow("a", "RY-000042", 75000, day.Add(-48*time.Hour)),
		legacyRow("b", "RY-000042", 75000, day.Add(-24*time.Hour)),
	}

	merged := core.MergeInvoices(real, legacy)

	if len(merged) != 1 {
		t.Fatalf("merged length = %d, want 1", len(merged))
	}
	if merged[0].Source != core.SourceReal || merged[0].InvoiceNumber != "RY-000042" {
		t.Errorf("unexpected survivor: %+v", merged[0])
	}
}

func TestMergeInvoices_OrderingAndFiltering(t *testing.T) {
	newest := time.Date(2025, 6, 30, 18, 0, 0, 0, core.BusinessZone)
	middle := newest.AddDate(0, 0, -10)
	oldest := newest.AddDate(0, -2, 0)

	real := []core.SettlementInvoice{
		{InvoiceNumber: "RY-MID", EmployeeID: 1, SettlementDate: &middle},
		{InvoiceNumber: "RY-NEW", EmployeeID: 2, SettlementDate: &newest},
	}
	legacy := []core.LegacyExpense{
		legacyRow("old-1", "RY-OLD", 10000, oldest),
		// Ineligible rows never enter the merge.
		{ID: "z9", Category: "rent", ExpenseType: "system", Status: "approved", CreatedAt: newest},
		// No parseable date: kept in the raw list, excluded from windows.
		legacyRow("nodate", "RY-RAW", 5000, time.Time{}),
	}

	merged := core.MergeInvoices(real, legacy)

	gotNumbers := make([]string, len(merged))
	for i, m := range merged {
		gotNumbers[i] = m.InvoiceNumber
	}
	want := []string{"RY-NEW", "RY-MID", "RY-OLD", "RY-RAW"}
	if !reflect.DeepEqual(gotNumbers, want) {
		t.Errorf("order = %v, want %v", gotNumbers, want)
	}

	w := core.WindowFor(core.PeriodYear, newest)
	filtered := core.FilterInvoices(merged, w)
	for _, f := range filtered {
		if f.InvoiceNumber == "RY-RAW" {
			t.Error("dateless entry leaked into a windowed view")
		}
	}
	if len(filtered) != 3 {
		t.Errorf("filtered length = %d, want 3", len(filtered))
	}
}

// merge(merge(A,B)) == merge(A,B): rerunning the aggregation over unchanged
// inputs yields an identical ordered list.
func TestMergeInvoices_Idempotent(t *testing.T) {
	day := time.Date(2025, 2, 14, 10, 30, 0, 0, core.BusinessZone)
	real := []core.SettlementInvoice{
		{InvoiceNumber: "RY-A", EmployeeID: 1, SettlementDate: &day},
		{InvoiceNumber: "RY-B", EmployeeID: 2, CreatedAt: day.Add(time.Hour)},
	}
	legacy := []core.LegacyExpense{
		legacyRow("l1", "", 1000, day.Add(2*time.Hour)),
		legacyRow("l2", "RY-A", 2000, day),
	}

	first := core.MergeInvoices(real, legacy)
	second := core.MergeInvoices(real, legacy)

	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].InvoiceNumber != second[i].InvoiceNumber || first[i].Source != second[i].Source {
			t.Errorf("entry %d drifted: %+v vs %+v", i, first[i], second[i])
		}
	}
}
