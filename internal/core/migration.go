package core

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

// MigrationResult reports one run of the legacy migration hook.
type MigrationResult struct {
	Eligible int
	Migrated int
	Skipped  int
}

// MigrateLegacySettlements copies eligible legacy expense rows into real
// settlement invoices. The legacy rows are read-only input and are never
// modified or removed; idempotency comes from the deterministic invoice
// number derivation plus the unique constraint on invoice_number: a row
// that was already migrated (or whose number collides with a real invoice)
// is skipped, never duplicated.
func MigrateLegacySettlements(ctx context.Context, pool *pgxpool.Pool) (*MigrationResult, error) {
	rows, err := pool.Query(ctx, `
		SELECT id, COALESCE(receipt_number, ''), amount, category, expense_type, status,
		       COALESCE(metadata, '{}'), created_at
		FROM legacy_expenses
		WHERE category = $1 AND expense_type = $2 AND status = $3
		ORDER BY created_at
	`, LegacyDuesCategory, legacyExpenseType, legacyApprovedState)
	if err != nil {
		return nil, fmt.Errorf("failed to query legacy expenses: %w", err)
	}
	defer rows.Close()

	var expenses []LegacyExpense
	for rows.Next() {
		var e LegacyExpense
		if err := rows.Scan(&e.ID, &e.ReceiptNumber, &e.Amount, &e.Category,
			&e.ExpenseType, &e.Status, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan legacy expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("legacy expense iteration: %w", err)
	}

	result := &MigrationResult{Eligible: len(expenses)}
	for _, e := range expenses {
		number := LegacyInvoiceNumber(e)
		tag, err := pool.Exec(ctx, `
			INSERT INTO settlement_invoices
				(invoice_number, employee_id, employee_code, total_amount,
				 settlement_date, payment_method, notes, settled_orders)
			VALUES ($1, $2, '', $3, $4, 'legacy', $5, '[]')
			ON CONFLICT (invoice_number) DO NOTHING
		`, number, e.Metadata.EmployeeID, e.Amount, e.CreatedAt,
			fmt.Sprintf("migrated from legacy expense %s (%s)", e.ID, e.Metadata.EmployeeName))
		if err != nil {
			return nil, fmt.Errorf("failed to migrate legacy expense %s: %w", e.ID, err)
		}
		if tag.RowsAffected() == 0 {
			result.Skipped++
			continue
		}
		result.Migrated++
	}

	log.Printf("legacy settlement migration: %d eligible, %d migrated, %d skipped",
		result.Eligible, result.Migrated, result.Skipped)
	return result, nil
}
