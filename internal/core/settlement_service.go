package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ErrNothingToSettle is returned when a settle call finds no records in a
// settleable state. The second of two concurrent settle calls gets this
// instead of producing a duplicate invoice.
var ErrNothingToSettle = errors.New("no profit records to settle")

// SettleRequest describes one payout.
type SettleRequest struct {
	EmployeeID int
	// RecordIDs limits the payout to specific profit records; empty means
	// every record currently in settlement_requested for the employee.
	RecordIDs []int
	// AdminOverride permits the direct pending/invoice_received → settled
	// edges.
	AdminOverride  bool
	PaymentMethod  string
	Notes          string
	SettlementDate time.Time // zero value: now
}

// SettlementService owns the ProfitRecord lifecycle. Every transition is a
// single guard-checked conditional UPDATE (compare-and-set on the current
// status), never a separate read-then-write, so two concurrent calls cannot
// both pass a guard. Settling is atomic with invoice creation: a record can
// never sit in settled without an invoice entry referencing it.
type SettlementService interface {
	// EnsureProfitRecord returns the profit record for (order, employee),
	// computing and inserting it when absent. A persisted record is
	// authoritative and returned verbatim; recomputation never overwrites it.
	EnsureProfitRecord(ctx context.Context, orderID, employeeID int) (*ProfitRecord, error)

	GetProfitRecord(ctx context.Context, id int) (*ProfitRecord, error)

	// ListProfitRecords filters by employee and/or status; zero values mean
	// no filter.
	ListProfitRecords(ctx context.Context, employeeID int, status SettlementStatus) ([]ProfitRecord, error)

	// MarkInvoiceReceived records that the delivery partner's receipt for
	// the order has been ingested. Guard: record pending, order receipt flag set.
	MarkInvoiceReceived(ctx context.Context, recordID int) (*ProfitRecord, error)

	// RequestSettlement is the employee-initiated request. Idempotent:
	// a second call is a no-op.
	RequestSettlement(ctx context.Context, recordID int) (*ProfitRecord, error)

	// RejectSettlement returns a requested record to invoice_received.
	RejectSettlement(ctx context.Context, recordID int) (*ProfitRecord, error)

	// Settle transitions the eligible records to settled and creates the
	// immutable SettlementInvoice snapshot, both inside one transaction.
	Settle(ctx context.Context, req SettleRequest) (*SettlementInvoice, error)
}

type settlementService struct {
	pool      *pgxpool.Pool
	orders    OrderService
	employees EmployeeService
}

func NewSettlementService(pool *pgxpool.Pool, orders OrderService, employees EmployeeService) SettlementService {
	return &settlementService{pool: pool, orders: orders, employees: employees}
}

const profitRecordColumns = `
	id, order_id, employee_id, profit_amount, employee_profit,
	total_revenue, total_cost, low_confidence, status, settled_at,
	created_at, updated_at`

func scanProfitRecord(row pgx.Row) (*ProfitRecord, error) {
	var r ProfitRecord
	if err := row.Scan(
		&r.ID, &r.OrderID, &r.EmployeeID, &r.ProfitAmount, &r.EmployeeProfit,
		&r.TotalRevenue, &r.TotalCost, &r.LowConfidence, &r.Status, &r.SettledAt,
		&r.CreatedAt, &r.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *settlementService) GetProfitRecord(ctx context.Context, id int) (*ProfitRecord, error) {
	r, err := scanProfitRecord(s.pool.QueryRow(ctx,
		"SELECT "+profitRecordColumns+" FROM profit_records WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("profit record %d not found", id)
		}
		return nil, fmt.Errorf("failed to fetch profit record %d: %w", id, err)
	}
	return r, nil
}

func (s *settlementService) ListProfitRecords(ctx context.Context, employeeID int, status SettlementStatus) ([]ProfitRecord, error) {
	query := "SELECT " + profitRecordColumns + " FROM profit_records WHERE 1=1"
	var args []any
	if employeeID != 0 {
		args = append(args, employeeID)
		query += fmt.Sprintf(" AND employee_id = $%d", len(args))
	}
	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query profit records: %w", err)
	}
	defer rows.Close()

	var records []ProfitRecord
	for rows.Next() {
		r, err := scanProfitRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profit record: %w", err)
		}
		records = append(records, *r)
	}
	return records, rows.Err()
}

func (s *settlementService) EnsureProfitRecord(ctx context.Context, orderID, employeeID int) (*ProfitRecord, error) {
	// Source of truth wins over recomputation: an existing record for the
	// pair is returned as-is. The active record is preferred; a settled one
	// is still authoritative for its order.
	existing, err := s.findRecord(ctx, orderID, employeeID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	items, err := s.orders.GetOrderItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	emp, err := s.employees.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	_ = order // delivery lifecycle is checked upstream; the engine only computes

	split := ComputeProfitSplit(items, *emp, nil)

	// The partial unique index on active (order, employee) pairs makes the
	// insert race-safe: a concurrent insert wins and we read it back.
	r, err := scanProfitRecord(s.pool.QueryRow(ctx, `
		INSERT INTO profit_records
			(order_id, employee_id, profit_amount, employee_profit,
			 total_revenue, total_cost, low_confidence, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (order_id, employee_id) WHERE status <> 'settled' DO NOTHING
		RETURNING `+profitRecordColumns,
		orderID, employeeID, split.TotalProfit, split.EmployeeProfit,
		split.TotalRevenue, split.TotalCost, split.LowConfidence, StatusPending,
	))
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to insert profit record for order %d: %w", orderID, err)
	}

	existing, err = s.findRecord(ctx, orderID, employeeID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("profit record for order %d vanished after conflicting insert", orderID)
	}
	return existing, nil
}

func (s *settlementService) findRecord(ctx context.Context, orderID, employeeID int) (*ProfitRecord, error) {
	r, err := scanProfitRecord(s.pool.QueryRow(ctx, `
		SELECT `+profitRecordColumns+`
		FROM profit_records
		WHERE order_id = $1 AND employee_id = $2
		ORDER BY (status = 'settled'), id DESC
		LIMIT 1
	`, orderID, employeeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up profit record (order %d, employee %d): %w", orderID, employeeID, err)
	}
	return r, nil
}

func (s *settlementService) MarkInvoiceReceived(ctx context.Context, recordID int) (*ProfitRecord, error) {
	r, err := scanProfitRecord(s.pool.QueryRow(ctx, `
		UPDATE profit_records pr
		SET status = $2, updated_at = NOW()
		FROM orders o
		WHERE pr.id = $1
		  AND o.id = pr.order_id
		  AND pr.status = $3
		  AND o.receipt_received
		RETURNING pr.id, pr.order_id, pr.employee_id, pr.profit_amount, pr.employee_profit,
		          pr.total_revenue, pr.total_cost, pr.low_confidence, pr.status, pr.settled_at,
		          pr.created_at, pr.updated_at`,
		recordID, StatusInvoiceReceived, StatusPending,
	))
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to mark invoice received for record %d: %w", recordID, err)
	}

	// CAS missed: decide between idempotent no-op, a missing receipt, and an
	// illegal transition, without mutating anything.
	current, err := s.GetProfitRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if _, changed, terr := Transition(current.Status, StatusInvoiceReceived, false); terr != nil {
		return nil, terr
	} else if !changed {
		return current, nil
	}
	return nil, fmt.Errorf("record %d: delivery receipt for order %d not ingested yet", recordID, current.OrderID)
}

func (s *settlementService) RequestSettlement(ctx context.Context, recordID int) (*ProfitRecord, error) {
	return s.casTransition(ctx, recordID, StatusInvoiceReceived, StatusSettlementRequested)
}

func (s *settlementService) RejectSettlement(ctx context.Context, recordID int) (*ProfitRecord, error) {
	r, err := scanProfitRecord(s.pool.QueryRow(ctx, `
		UPDATE profit_records
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3
		RETURNING `+profitRecordColumns,
		recordID, StatusInvoiceReceived, StatusSettlementRequested,
	))
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to reject settlement for record %d: %w", recordID, err)
	}
	current, err := s.GetProfitRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	// A record already back at invoice_received means a concurrent reject
	// won the CAS; repeating the reject is a no-op, not an error.
	if current.Status == StatusInvoiceReceived {
		return current, nil
	}
	if _, rerr := Reject(current.Status); rerr != nil {
		return nil, rerr
	}
	return current, nil
}

// casTransition performs a single conditional status update. When the guard
// misses, the pure reducer decides whether that is an idempotent no-op or an
// invalid transition.
func (s *settlementService) casTransition(ctx context.Context, recordID int, from, to SettlementStatus) (*ProfitRecord, error) {
	r, err := scanProfitRecord(s.pool.QueryRow(ctx, `
		UPDATE profit_records
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3
		RETURNING `+profitRecordColumns,
		recordID, to, from,
	))
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to transition record %d to %s: %w", recordID, to, err)
	}

	current, err := s.GetProfitRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if _, _, terr := Transition(current.Status, to, false); terr != nil {
		return nil, terr
	}
	// Guard missed but the reducer permits or no-ops the move: either a
	// concurrent call already advanced the record, or this is an idempotent
	// repeat. Surface the current row rather than retrying blind.
	return current, nil
}

// NewInvoiceNumber generates a payout invoice number in the same RY-XXXXXX
// shape the legacy derivation produces, so both sources share one keyspace.
func NewInvoiceNumber() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return legacyNumberPrefix + strings.ToUpper(raw[:6])
}

func (s *settlementService) Settle(ctx context.Context, req SettleRequest) (*SettlementInvoice, error) {
	emp, err := s.employees.GetEmployee(ctx, req.EmployeeID)
	if err != nil {
		return nil, err
	}

	settleFrom := []SettlementStatus{StatusSettlementRequested}
	if req.AdminOverride {
		settleFrom = append(settleFrom, StatusPending, StatusInvoiceReceived)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin settle transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Each record is settled through its own compare-and-set; rows already
	// settled by a concurrent call simply miss the guard and drop out, so
	// the same order can never appear on two invoices.
	query := `
		UPDATE profit_records
		SET status = $1, settled_at = NOW(), updated_at = NOW()
		WHERE employee_id = $2 AND status = ANY($3)`
	args := []any{StatusSettled, req.EmployeeID, settleFrom}
	if len(req.RecordIDs) > 0 {
		args = append(args, req.RecordIDs)
		query += fmt.Sprintf(" AND id = ANY($%d)", len(args))
	}
	query += " RETURNING " + profitRecordColumns

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to settle profit records: %w", err)
	}
	var settled []ProfitRecord
	for rows.Next() {
		r, err := scanProfitRecord(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan settled record: %w", err)
		}
		settled = append(settled, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("settle update iteration: %w", err)
	}
	if len(settled) == 0 {
		return nil, ErrNothingToSettle
	}

	// Freeze the denormalized snapshot from the orders as they stand now.
	orderIDs := make([]int, 0, len(settled))
	byOrder := make(map[int]ProfitRecord, len(settled))
	for _, r := range settled {
		orderIDs = append(orderIDs, r.OrderID)
		byOrder[r.OrderID] = r
	}

	snapshot, total, err := s.snapshotOrdersTx(ctx, tx, orderIDs, byOrder)
	if err != nil {
		return nil, err
	}

	settlementDate := req.SettlementDate
	if settlementDate.IsZero() {
		settlementDate = time.Now().In(BusinessZone)
	}

	inv := SettlementInvoice{
		InvoiceNumber:  NewInvoiceNumber(),
		EmployeeID:     emp.ID,
		EmployeeCode:   emp.Code,
		TotalAmount:    total,
		SettlementDate: &settlementDate,
		PaymentMethod:  req.PaymentMethod,
		Notes:          req.Notes,
		OrderIDs:       orderIDs,
		SettledOrders:  snapshot,
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO settlement_invoices
			(invoice_number, employee_id, employee_code, total_amount,
			 settlement_date, payment_method, notes, order_ids, settled_orders)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`, inv.InvoiceNumber, inv.EmployeeID, inv.EmployeeCode, inv.TotalAmount,
		inv.SettlementDate, inv.PaymentMethod, inv.Notes, inv.OrderIDs, inv.SettledOrders,
	).Scan(&inv.ID, &inv.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create settlement invoice: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit settlement: %w", err)
	}
	return &inv, nil
}

// snapshotOrdersTx builds the immutable settled_orders lines inside the
// settle transaction. TotalAmount is the sum of the normalized order totals
// (delivery fees excluded) at creation time.
func (s *settlementService) snapshotOrdersTx(ctx context.Context, tx pgx.Tx, orderIDs []int, records map[int]ProfitRecord) ([]SettledOrder, decimal.Decimal, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, order_number, COALESCE(customer_name, ''),
		       final_amount, total_amount, delivery_fee, created_at
		FROM orders
		WHERE id = ANY($1)
		ORDER BY id
	`, orderIDs)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("failed to query orders for snapshot: %w", err)
	}
	defer rows.Close()

	var snapshot []SettledOrder
	total := decimal.Zero
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.OrderNumber, &o.CustomerName,
			&o.FinalAmount, &o.TotalAmount, &o.DeliveryFee, &o.CreatedAt); err != nil {
			return nil, decimal.Zero, fmt.Errorf("failed to scan snapshot order: %w", err)
		}
		orderTotal := OrderTotal(o)
		total = total.Add(orderTotal)
		snapshot = append(snapshot, SettledOrder{
			OrderID:        o.ID,
			OrderNumber:    o.OrderNumber,
			CustomerName:   o.CustomerName,
			OrderTotal:     orderTotal,
			EmployeeProfit: records[o.ID].EmployeeProfit,
			OrderDate:      o.CreatedAt,
		})
	}
	return snapshot, total, rows.Err()
}
