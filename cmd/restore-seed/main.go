// restore-seed is a one-shot tool that loads demo data into a development
// database: a few employees with profit rules, delivered orders with items,
// and a handful of legacy expense rows for the migration path.
//
// Usage: go run ./cmd/restore-seed
package main

import (
	"context"
	"log"

	"settlement-engine/internal/db"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer pool.Close()

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("Failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	log.Println("Clearing existing demo data...")
	_, err = tx.Exec(ctx, `
		TRUNCATE TABLE profit_records, settlement_invoices, order_items, orders, legacy_expenses, employees RESTART IDENTITY CASCADE;
	`)
	if err != nil {
		log.Fatalf("Failed to clear tables: %v", err)
	}

	log.Println("Seeding employees...")
	_, err = tx.Exec(ctx, `
		INSERT INTO employees (code, name, rule_is_percentage, rule_percentage, rule_fixed_amount, rule_configured) VALUES
		('EMP-001', 'Sara',  true,  20,   NULL, true),
		('EMP-002', 'Omar',  true,  15,   NULL, true),
		('EMP-003', 'Huda',  false, NULL, 2000, true),
		('EMP-004', 'Ali',   true,  NULL, NULL, false);
	`)
	if err != nil {
		log.Fatalf("Failed to seed employees: %v", err)
	}

	log.Println("Seeding orders...")
	_, err = tx.Exec(ctx, `
		INSERT INTO orders (order_number, employee_id, customer_name, status, receipt_received, final_amount, total_amount, delivery_fee) VALUES
		('ORD-1001', 1, 'Customer A', 'delivered', true,  120000, 118000, 5000),
		('ORD-1002', 1, 'Customer B', 'delivered', false, NULL,   60000,  5000),
		('ORD-1003', 2, 'Customer C', 'completed', true,  90000,  90000,  4000),
		('ORD-1004', 3, 'Customer D', 'delivered', true,  45000,  45000,  3000),
		('ORD-1005', 4, 'Customer E', 'pending',   false, NULL,   30000,  3000);

		INSERT INTO order_items (order_id, product_name, unit_sell_price, unit_cost_price, quantity) VALUES
		(1, 'Smart watch',  60000, 45000, 2),
		(2, 'Phone case',   30000, 20000, 2),
		(3, 'Headphones',   45000, NULL,  2),
		(4, 'Power bank',   45000, 30000, 1),
		(5, 'Charger',      30000, 18000, 1);
	`)
	if err != nil {
		log.Fatalf("Failed to seed orders: %v", err)
	}

	log.Println("Seeding legacy expenses...")
	_, err = tx.Exec(ctx, `
		INSERT INTO legacy_expenses (id, receipt_number, amount, category, expense_type, status, metadata, created_at) VALUES
		('64f1a2b3c4d5e6f7a8b9c0d1', NULL,        250000, 'مستحقات الموظفين', 'system', 'approved', '{"employee_id": 1, "employee_name": "Sara"}', now() - interval '90 days'),
		('64f1a2b3c4d5e6f7a8b9c0d2', 'RY-AABB01', 180000, 'مستحقات الموظفين', 'system', 'approved', '{"employee_id": 2, "employee_name": "Omar"}', now() - interval '60 days'),
		('64f1a2b3c4d5e6f7a8b9c0d3', NULL,         99000, 'إيجار',            'system', 'approved', '{}', now() - interval '30 days');
	`)
	if err != nil {
		log.Fatalf("Failed to seed legacy expenses: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("Failed to commit: %v", err)
	}
	log.Println("Seed restored.")
}
