package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// InvoiceService is the read-side projection over the two settlement
// sources. It performs several independent reads and must stay correct even
// when it observes a partially-updated store, so it never assumes a
// transactional snapshot: a failed read aborts the pass with the persisted
// rows untouched.
type InvoiceService interface {
	// ListInvoices returns the merged, deduplicated invoice list, newest
	// first, filtered to the window. Pass an unbounded window for the raw list.
	ListInvoices(ctx context.Context, w Window) ([]UnifiedInvoice, error)

	// GetInvoice returns one merged entry by invoice number.
	GetInvoice(ctx context.Context, invoiceNumber string) (*UnifiedInvoice, error)

	// InvoiceOrders resolves which orders belong to an invoice for a detail
	// view. Resolution precedence: explicit order_ids → denormalized
	// settled_orders snapshot → orders joined through settled ProfitRecords
	// by employee → all orders created by the employee. The first applicable
	// source is used exclusively; sources are never merged.
	InvoiceOrders(ctx context.Context, inv UnifiedInvoice) ([]SettledOrder, error)
}

type invoiceService struct {
	pool *pgxpool.Pool
}

func NewInvoiceService(pool *pgxpool.Pool) InvoiceService {
	return &invoiceService{pool: pool}
}

func (s *invoiceService) ListInvoices(ctx context.Context, w Window) ([]UnifiedInvoice, error) {
	real, err := s.loadRealInvoices(ctx)
	if err != nil {
		return nil, err
	}
	legacy, err := s.loadLegacyExpenses(ctx)
	if err != nil {
		return nil, err
	}

	merged := MergeInvoices(real, legacy)
	if !w.HasStart && !w.HasEnd {
		return merged, nil
	}
	return FilterInvoices(merged, w), nil
}

func (s *invoiceService) GetInvoice(ctx context.Context, invoiceNumber string) (*UnifiedInvoice, error) {
	merged, err := s.ListInvoices(ctx, Window{})
	if err != nil {
		return nil, err
	}
	for i := range merged {
		if merged[i].InvoiceNumber == invoiceNumber {
			return &merged[i], nil
		}
	}
	return nil, fmt.Errorf("settlement invoice %s not found", invoiceNumber)
}

func (s *invoiceService) InvoiceOrders(ctx context.Context, inv UnifiedInvoice) ([]SettledOrder, error) {
	if inv.Real != nil {
		if len(inv.Real.OrderIDs) > 0 {
			return s.ordersByIDs(ctx, inv.Real.OrderIDs, inv.Real.EmployeeID)
		}
		if len(inv.Real.SettledOrders) > 0 {
			return inv.Real.SettledOrders, nil
		}
	}
	if inv.EmployeeID != 0 {
		settled, err := s.ordersBySettledRecords(ctx, inv.EmployeeID)
		if err != nil {
			return nil, err
		}
		if len(settled) > 0 {
			return settled, nil
		}
		return s.ordersByEmployee(ctx, inv.EmployeeID)
	}
	return nil, nil
}

func (s *invoiceService) loadRealInvoices(ctx context.Context) ([]SettlementInvoice, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, invoice_number, employee_id, employee_code, total_amount,
		       settlement_date, payment_method, COALESCE(notes, ''),
		       COALESCE(order_ids, '{}'), COALESCE(settled_orders, '[]'), created_at
		FROM settlement_invoices
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query settlement invoices: %w", err)
	}
	defer rows.Close()

	var invoices []SettlementInvoice
	for rows.Next() {
		var inv SettlementInvoice
		if err := rows.Scan(
			&inv.ID, &inv.InvoiceNumber, &inv.EmployeeID, &inv.EmployeeCode, &inv.TotalAmount,
			&inv.SettlementDate, &inv.PaymentMethod, &inv.Notes,
			&inv.OrderIDs, &inv.SettledOrders, &inv.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan settlement invoice: %w", err)
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

func (s *invoiceService) loadLegacyExpenses(ctx context.Context) ([]LegacyExpense, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, COALESCE(receipt_number, ''), amount, category, expense_type, status,
		       COALESCE(metadata, '{}'), created_at
		FROM legacy_expenses
		WHERE category = $1 AND expense_type = $2 AND status = $3
		ORDER BY id
	`, LegacyDuesCategory, legacyExpenseType, legacyApprovedState)
	if err != nil {
		return nil, fmt.Errorf("failed to query legacy expenses: %w", err)
	}
	defer rows.Close()

	var expenses []LegacyExpense
	for rows.Next() {
		var e LegacyExpense
		if err := rows.Scan(
			&e.ID, &e.ReceiptNumber, &e.Amount, &e.Category, &e.ExpenseType, &e.Status,
			&e.Metadata, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan legacy expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// ordersByIDs fetches orders for an explicit order_ids array, paired with
// the employee profit stored on the matching ProfitRecord when one exists.
func (s *invoiceService) ordersByIDs(ctx context.Context, orderIDs []int, employeeID int) ([]SettledOrder, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT o.id, o.order_number, COALESCE(o.customer_name, ''),
		       COALESCE(o.final_amount, o.total_amount) - o.delivery_fee,
		       COALESCE(pr.employee_profit, 0), o.created_at
		FROM orders o
		LEFT JOIN profit_records pr ON pr.order_id = o.id AND pr.employee_id = $2
		WHERE o.id = ANY($1)
		ORDER BY o.created_at DESC
	`, orderIDs, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoice orders: %w", err)
	}
	defer rows.Close()
	return scanSettledOrders(rows)
}

// ordersBySettledRecords joins orders through settled ProfitRecords for the
// employee, the fallback when an invoice carries neither explicit ids nor
// a snapshot.
func (s *invoiceService) ordersBySettledRecords(ctx context.Context, employeeID int) ([]SettledOrder, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT o.id, o.order_number, COALESCE(o.customer_name, ''),
		       COALESCE(o.final_amount, o.total_amount) - o.delivery_fee,
		       pr.employee_profit, o.created_at
		FROM profit_records pr
		JOIN orders o ON o.id = pr.order_id
		WHERE pr.employee_id = $1 AND pr.status = $2
		ORDER BY o.created_at DESC
	`, employeeID, StatusSettled)
	if err != nil {
		return nil, fmt.Errorf("failed to query settled records: %w", err)
	}
	defer rows.Close()
	return scanSettledOrders(rows)
}

// ordersByEmployee is the last-resort source: every order the employee created.
func (s *invoiceService) ordersByEmployee(ctx context.Context, employeeID int) ([]SettledOrder, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT o.id, o.order_number, COALESCE(o.customer_name, ''),
		       COALESCE(o.final_amount, o.total_amount) - o.delivery_fee,
		       0::numeric, o.created_at
		FROM orders o
		WHERE o.employee_id = $1
		ORDER BY o.created_at DESC
	`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query employee orders: %w", err)
	}
	defer rows.Close()
	return scanSettledOrders(rows)
}

func scanSettledOrders(rows pgx.Rows) ([]SettledOrder, error) {
	var orders []SettledOrder
	for rows.Next() {
		var so SettledOrder
		if err := rows.Scan(&so.OrderID, &so.OrderNumber, &so.CustomerName,
			&so.OrderTotal, &so.EmployeeProfit, &so.OrderDate); err != nil {
			return nil, fmt.Errorf("failed to scan settled order: %w", err)
		}
		if so.OrderTotal.IsNegative() {
			so.OrderTotal = decimal.Zero
		}
		orders = append(orders, so)
	}
	return orders, rows.Err()
}
