package app

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const reportSheet = "Settlements"

// ExportSettlementsReport renders the unified settlement history as an xlsx
// workbook: one row per settlement entry, real and legacy alike.
func (s *appService) ExportSettlementsReport(ctx context.Context, req WindowRequest) ([]byte, error) {
	list, err := s.ListSettlementInvoices(ctx, req)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(reportSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create report sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headers := []string{"Invoice Number", "Source", "Employee ID", "Employee", "Amount", "Date", "Payment Method", "Notes"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(reportSheet, cell, header)
	}

	for row, inv := range list.Invoices {
		name := inv.EmployeeName
		if name == "" {
			name = inv.EmployeeCode
		}
		amount, _ := inv.TotalAmount.Float64()
		date := ""
		if inv.Date != nil {
			date = inv.Date.Format("2006-01-02")
		}

		values := []any{inv.InvoiceNumber, string(inv.Source), inv.EmployeeID, name, amount, date, inv.PaymentMethod, inv.Notes}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(reportSheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render settlements workbook: %w", err)
	}
	return buf.Bytes(), nil
}
