package core_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"settlement-engine/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	// Set TEST_DATABASE_URL in your .env or environment to run integration tests.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	// Clean and seed test DB
	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE profit_records, settlement_invoices, order_items, orders, legacy_expenses, employees RESTART IDENTITY CASCADE;

		INSERT INTO employees (id, code, name, rule_is_percentage, rule_percentage, rule_configured) VALUES
		(1, 'EMP-001', 'Sara', true, 20, true),
		(2, 'EMP-002', 'Omar', true, NULL, false);
		SELECT setval('employees_id_seq', 10);

		INSERT INTO orders (id, order_number, employee_id, customer_name, status, receipt_received, final_amount, total_amount, delivery_fee) VALUES
		(1, 'ORD-1001', 1, 'Customer A', 'delivered', false, 120000, 118000, 5000),
		(2, 'ORD-1002', 1, 'Customer B', 'delivered', true, NULL, 60000, 5000),
		(3, 'ORD-1003', 2, 'Customer C', 'completed', true, 90000, 90000, 4000);
		SELECT setval('orders_id_seq', 10);

		INSERT INTO order_items (order_id, product_name, unit_sell_price, unit_cost_price, quantity) VALUES
		(1, 'Widget', 60000, 45000, 2),
		(2, 'Gadget', 30000, 20000, 2),
		(3, 'Gizmo', 45000, NULL, 2);
	`)
	if err != nil {
		t.Fatalf("Failed to seed test database: %v", err)
	}

	return pool
}

func newServices(pool *pgxpool.Pool) (core.OrderService, core.EmployeeService, core.SettlementService) {
	orders := core.NewOrderService(pool)
	employees := core.NewEmployeeService(pool)
	return orders, employees, core.NewSettlementService(pool, orders, employees)
}

func TestSettlement_EnsureProfitRecord(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	_, _, settlements := newServices(pool)
	ctx := context.Background()

	// Order 1: two units at 60000 sell / 45000 cost → 30000 item profit,
	// 20% rule → 6000 employee / 24000 business.
	rec, err := settlements.EnsureProfitRecord(ctx, 1, 1)
	if err != nil {
		t.Fatalf("EnsureProfitRecord failed: %v", err)
	}
	if rec.Status != core.StatusPending {
		t.Errorf("new record status = %s, want pending", rec.Status)
	}
	if rec.ProfitAmount.StringFixed(2) != "30000.00" {
		t.Errorf("ProfitAmount = %s, want 30000.00", rec.ProfitAmount)
	}
	if rec.EmployeeProfit.StringFixed(2) != "6000.00" {
		t.Errorf("EmployeeProfit = %s, want 6000.00", rec.EmployeeProfit)
	}
	if rec.BusinessProfit().StringFixed(2) != "24000.00" {
		t.Errorf("BusinessProfit = %s, want 24000.00", rec.BusinessProfit())
	}
	if rec.LowConfidence {
		t.Error("fully-costed order flagged low confidence")
	}

	// Second call must return the persisted row, not recompute one.
	again, err := settlements.EnsureProfitRecord(ctx, 1, 1)
	if err != nil {
		t.Fatalf("Repeat EnsureProfitRecord failed: %v", err)
	}
	if again.ID != rec.ID {
		t.Errorf("repeat call created a new record: id %d vs %d", again.ID, rec.ID)
	}

	// Stored amounts are authoritative even when inputs drift afterwards.
	if _, err := pool.Exec(ctx, "UPDATE order_items SET unit_cost_price = 10000 WHERE order_id = 1"); err != nil {
		t.Fatalf("Failed to tweak item cost: %v", err)
	}
	again, err = settlements.EnsureProfitRecord(ctx, 1, 1)
	if err != nil {
		t.Fatalf("Post-edit EnsureProfitRecord failed: %v", err)
	}
	if again.ProfitAmount.StringFixed(2) != "30000.00" {
		t.Errorf("persisted amount drifted after item edit: %s", again.ProfitAmount)
	}

	// Order 3 belongs to an employee with no rule and an item with no cost:
	// zero share, flagged low confidence.
	rec3, err := settlements.EnsureProfitRecord(ctx, 3, 2)
	if err != nil {
		t.Fatalf("EnsureProfitRecord for unruled employee failed: %v", err)
	}
	if !rec3.EmployeeProfit.IsZero() {
		t.Errorf("unruled employee share = %s, want 0", rec3.EmployeeProfit)
	}
	if !rec3.LowConfidence {
		t.Error("missing cost and missing rule must flag low confidence")
	}
}

func TestSettlement_LifecycleGuards(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	_, _, settlements := newServices(pool)
	ctx := context.Background()

	rec, err := settlements.EnsureProfitRecord(ctx, 1, 1)
	if err != nil {
		t.Fatalf("EnsureProfitRecord failed: %v", err)
	}

	// Order 1 has no delivery receipt yet: the first transition must refuse.
	if _, err := settlements.MarkInvoiceReceived(ctx, rec.ID); err == nil {
		t.Fatal("MarkInvoiceReceived succeeded without an ingested receipt")
	}

	// Jumping straight to a settlement request skips a state: invalid.
	if _, err := settlements.RequestSettlement(ctx, rec.ID); !errors.Is(err, core.ErrInvalidTransition) {
		t.Fatalf("RequestSettlement from pending: err = %v, want ErrInvalidTransition", err)
	}

	if _, err := pool.Exec(ctx, "UPDATE orders SET receipt_received = true WHERE id = 1"); err != nil {
		t.Fatalf("Failed to flag receipt: %v", err)
	}

	rec, err = settlements.MarkInvoiceReceived(ctx, rec.ID)
	if err != nil {
		t.Fatalf("MarkInvoiceReceived failed: %v", err)
	}
	if rec.Status != core.StatusInvoiceReceived {
		t.Errorf("status = %s, want invoice_received", rec.Status)
	}

	// Repeat is an idempotent no-op, not an error.
	rec, err = settlements.MarkInvoiceReceived(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Repeat MarkInvoiceReceived failed: %v", err)
	}
	if rec.Status != core.StatusInvoiceReceived {
		t.Errorf("repeat left status = %s", rec.Status)
	}

	rec, err = settlements.RequestSettlement(ctx, rec.ID)
	if err != nil {
		t.Fatalf("RequestSettlement failed: %v", err)
	}
	if rec.Status != core.StatusSettlementRequested {
		t.Errorf("status = %s, want settlement_requested", rec.Status)
	}
	if rec, err = settlements.RequestSettlement(ctx, rec.ID); err != nil {
		t.Fatalf("Repeat RequestSettlement failed: %v", err)
	}

	// Reject sends the request back for correction.
	rec, err = settlements.RejectSettlement(ctx, rec.ID)
	if err != nil {
		t.Fatalf("RejectSettlement failed: %v", err)
	}
	if rec.Status != core.StatusInvoiceReceived {
		t.Errorf("rejected status = %s, want invoice_received", rec.Status)
	}
	// A repeated reject races a concurrent one that already landed the record
	// on invoice_received: a no-op, same as the repeated forward transitions.
	rec, err = settlements.RejectSettlement(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Repeat RejectSettlement failed: %v", err)
	}
	if rec.Status != core.StatusInvoiceReceived {
		t.Errorf("repeat reject left status = %s, want invoice_received", rec.Status)
	}

	// Rejecting from any other state is still invalid.
	if _, err := pool.Exec(ctx, "UPDATE profit_records SET status = 'pending' WHERE id = $1", rec.ID); err != nil {
		t.Fatalf("Failed to reset record status: %v", err)
	}
	if _, err := settlements.RejectSettlement(ctx, rec.ID); !errors.Is(err, core.ErrInvalidTransition) {
		t.Fatalf("Reject from pending: err = %v, want ErrInvalidTransition", err)
	}
}

func TestSettlement_SettleCreatesInvoiceAtomically(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	_, _, settlements := newServices(pool)
	ctx := context.Background()

	rec, err := settlements.EnsureProfitRecord(ctx, 1, 1)
	if err != nil {
		t.Fatalf("EnsureProfitRecord failed: %v", err)
	}
	if _, err := pool.Exec(ctx, "UPDATE orders SET receipt_received = true WHERE id = 1"); err != nil {
		t.Fatalf("Failed to flag receipt: %v", err)
	}
	if _, err := settlements.MarkInvoiceReceived(ctx, rec.ID); err != nil {
		t.Fatalf("MarkInvoiceReceived failed: %v", err)
	}
	if _, err := settlements.RequestSettlement(ctx, rec.ID); err != nil {
		t.Fatalf("RequestSettlement failed: %v", err)
	}

	inv, err := settlements.Settle(ctx, core.SettleRequest{
		EmployeeID:    1,
		PaymentMethod: "cash",
		Notes:         "weekly payout",
	})
	if err != nil {
		t.Fatalf("Settle failed: %v", err)
	}
	if inv.InvoiceNumber == "" {
		t.Fatal("invoice has no number")
	}
	// Snapshot total is the normalized order value: final 120000 minus the
	// 5000 delivery fee.
	if inv.TotalAmount.StringFixed(2) != "115000.00" {
		t.Errorf("invoice total = %s, want 115000.00", inv.TotalAmount)
	}
	if len(inv.SettledOrders) != 1 || inv.SettledOrders[0].OrderID != 1 {
		t.Fatalf("snapshot = %+v, want single line for order 1", inv.SettledOrders)
	}
	if inv.SettledOrders[0].EmployeeProfit.StringFixed(2) != "6000.00" {
		t.Errorf("snapshot employee profit = %s, want 6000.00", inv.SettledOrders[0].EmployeeProfit)
	}

	updated, err := settlements.GetProfitRecord(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetProfitRecord failed: %v", err)
	}
	if updated.Status != core.StatusSettled || updated.SettledAt == nil {
		t.Errorf("record after settle = %s / settled_at %v", updated.Status, updated.SettledAt)
	}

	// A second settle finds nothing eligible and must not mint an invoice.
	if _, err := settlements.Settle(ctx, core.SettleRequest{EmployeeID: 1}); !errors.Is(err, core.ErrNothingToSettle) {
		t.Fatalf("Double settle: err = %v, want ErrNothingToSettle", err)
	}
	var invoices int
	if err := pool.QueryRow(ctx, "SELECT count(*) FROM settlement_invoices").Scan(&invoices); err != nil {
		t.Fatalf("Failed to count invoices: %v", err)
	}
	if invoices != 1 {
		t.Errorf("invoice count = %d, want 1", invoices)
	}

	// The settled record stays authoritative for the pair.
	again, err := settlements.EnsureProfitRecord(ctx, 1, 1)
	if err != nil {
		t.Fatalf("Post-settle EnsureProfitRecord failed: %v", err)
	}
	if again.ID != rec.ID || again.Status != core.StatusSettled {
		t.Errorf("post-settle lookup = id %d status %s", again.ID, again.Status)
	}
}

func TestSettlement_AdminOverride(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	_, _, settlements := newServices(pool)
	ctx := context.Background()

	// Order 2 stays pending; no receipt flow has run.
	rec, err := settlements.EnsureProfitRecord(ctx, 2, 1)
	if err != nil {
		t.Fatalf("EnsureProfitRecord failed: %v", err)
	}

	// Without the override nothing is eligible.
	if _, err := settlements.Settle(ctx, core.SettleRequest{EmployeeID: 1}); !errors.Is(err, core.ErrNothingToSettle) {
		t.Fatalf("Settle without override: err = %v, want ErrNothingToSettle", err)
	}

	inv, err := settlements.Settle(ctx, core.SettleRequest{
		EmployeeID:    1,
		RecordIDs:     []int{rec.ID},
		AdminOverride: true,
		PaymentMethod: "transfer",
	})
	if err != nil {
		t.Fatalf("Override settle failed: %v", err)
	}
	// No final amount on order 2: total falls back to 60000 minus the fee.
	if inv.TotalAmount.StringFixed(2) != "55000.00" {
		t.Errorf("invoice total = %s, want 55000.00", inv.TotalAmount)
	}
}

func TestMigrateLegacySettlements_Idempotent(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	_, err := pool.Exec(ctx, `
		INSERT INTO legacy_expenses (id, receipt_number, amount, category, expense_type, status, metadata, created_at) VALUES
		('64f1a2b3c4d5e6f7a8b9c0d1', NULL, 250000, 'مستحقات الموظفين', 'system', 'approved', '{"employee_id": 1, "employee_name": "Sara"}', '2024-06-01T10:00:00Z'),
		('64f1a2b3c4d5e6f7a8b9c0d2', 'RY-AABB01', 180000, 'مستحقات الموظفين', 'system', 'approved', '{"employee_id": 2, "employee_name": "Omar"}', '2024-07-01T10:00:00Z'),
		('64f1a2b3c4d5e6f7a8b9c0d3', NULL, 99000, 'إيجار', 'system', 'approved', '{}', '2024-07-02T10:00:00Z'),
		('64f1a2b3c4d5e6f7a8b9c0d4', NULL, 42000, 'مستحقات الموظفين', 'manual', 'approved', '{}', '2024-07-03T10:00:00Z');
	`)
	if err != nil {
		t.Fatalf("Failed to seed legacy expenses: %v", err)
	}

	result, err := core.MigrateLegacySettlements(ctx, pool)
	if err != nil {
		t.Fatalf("Migration failed: %v", err)
	}
	// Rent and manual rows are not settlements.
	if result.Eligible != 2 || result.Migrated != 2 || result.Skipped != 0 {
		t.Errorf("first run = %+v, want 2 eligible / 2 migrated / 0 skipped", result)
	}

	var number string
	err = pool.QueryRow(ctx,
		"SELECT invoice_number FROM settlement_invoices WHERE employee_id = 1").Scan(&number)
	if err != nil {
		t.Fatalf("Failed to fetch migrated invoice: %v", err)
	}
	if number != "RY-B9C0D1" {
		t.Errorf("derived number = %s, want RY-B9C0D1", number)
	}

	// Rerunning migrates nothing new.
	result, err = core.MigrateLegacySettlements(ctx, pool)
	if err != nil {
		t.Fatalf("Second migration run failed: %v", err)
	}
	if result.Migrated != 0 || result.Skipped != 2 {
		t.Errorf("second run = %+v, want 0 migrated / 2 skipped", result)
	}

	// The unified list collapses each settlement to one entry even though it
	// now exists in both tables.
	invoices := core.NewInvoiceService(pool)
	merged, err := invoices.ListInvoices(ctx, core.Window{})
	if err != nil {
		t.Fatalf("ListInvoices failed: %v", err)
	}
	if len(merged) != 2 {
		t.Fatalf("merged list len = %d, want 2: %+v", len(merged), merged)
	}
	for _, m := range merged {
		if m.Source != core.SourceReal {
			t.Errorf("entry %s source = %s, want real after migration", m.InvoiceNumber, m.Source)
		}
	}
}
