package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Delivery states under which an order's profit can be computed. The
// delivery lifecycle itself is owned by the order subsystem; the engine
// only reads it.
var profitEligibleStatuses = []string{"delivered", "completed"}

// OrderService is the read API over the external order subsystem. The
// engine never mutates delivery fields through it.
type OrderService interface {
	GetOrder(ctx context.Context, id int) (*Order, error)
	GetOrderItems(ctx context.Context, orderID int) ([]OrderItem, error)

	// ListDeliveredOrders returns delivered/completed orders paired with
	// their profit record when one exists, newest first. The window filter
	// is applied by the caller so that a single Window governs every view.
	ListDeliveredOrders(ctx context.Context) ([]OrderProfit, error)
}

type orderService struct {
	pool *pgxpool.Pool
}

func NewOrderService(pool *pgxpool.Pool) OrderService {
	return &orderService{pool: pool}
}

const orderColumns = `
	id, order_number, employee_id, COALESCE(customer_name, ''), status,
	receipt_received, final_amount, total_amount, delivery_fee,
	created_at, updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	if err := row.Scan(
		&o.ID, &o.OrderNumber, &o.EmployeeID, &o.CustomerName, &o.Status,
		&o.ReceiptReceived, &o.FinalAmount, &o.TotalAmount, &o.DeliveryFee,
		&o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *orderService) GetOrder(ctx context.Context, id int) (*Order, error) {
	o, err := scanOrder(s.pool.QueryRow(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("order %d not found", id)
		}
		return nil, fmt.Errorf("failed to fetch order %d: %w", id, err)
	}
	return o, nil
}

func (s *orderService) GetOrderItems(ctx context.Context, orderID int) ([]OrderItem, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, order_id, COALESCE(product_name, ''), unit_sell_price,
		       unit_cost_price, quantity, profit_percent
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query items for order %d: %w", orderID, err)
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductName, &it.UnitSellPrice,
			&it.UnitCostPrice, &it.Quantity, &it.ProfitPercent); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *orderService) ListDeliveredOrders(ctx context.Context) ([]OrderProfit, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT o.id, o.order_number, o.employee_id, COALESCE(o.customer_name, ''), o.status,
		       o.receipt_received, o.final_amount, o.total_amount, o.delivery_fee,
		       o.created_at, o.updated_at,
		       pr.id, pr.profit_amount, pr.employee_profit, pr.total_revenue,
		       pr.total_cost, pr.low_confidence, pr.status, pr.settled_at,
		       pr.created_at, pr.updated_at
		FROM orders o
		LEFT JOIN profit_records pr ON pr.order_id = o.id AND pr.employee_id = o.employee_id
		WHERE o.status = ANY($1)
		ORDER BY o.created_at DESC
	`, profitEligibleStatuses)
	if err != nil {
		return nil, fmt.Errorf("failed to query delivered orders: %w", err)
	}
	defer rows.Close()

	var entries []OrderProfit
	for rows.Next() {
		var e OrderProfit
		var recID *int
		var rec ProfitRecord
		var recProfit, recEmployee, recRevenue, recCost decimal.NullDecimal
		var recLowConfidence *bool
		var recStatus *SettlementStatus
		var recSettledAt, recCreatedAt, recUpdatedAt *time.Time

		if err := rows.Scan(
			&e.Order.ID, &e.Order.OrderNumber, &e.Order.EmployeeID, &e.Order.CustomerName, &e.Order.Status,
			&e.Order.ReceiptReceived, &e.Order.FinalAmount, &e.Order.TotalAmount, &e.Order.DeliveryFee,
			&e.Order.CreatedAt, &e.Order.UpdatedAt,
			&recID, &recProfit, &recEmployee, &recRevenue,
			&recCost, &recLowConfidence, &recStatus, &recSettledAt,
			&recCreatedAt, &recUpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan delivered order: %w", err)
		}

		if recID != nil {
			rec.ID = *recID
			rec.OrderID = e.Order.ID
			rec.EmployeeID = e.Order.EmployeeID
			rec.ProfitAmount = recProfit.Decimal
			rec.EmployeeProfit = recEmployee.Decimal
			rec.TotalRevenue = recRevenue.Decimal
			rec.TotalCost = recCost.Decimal
			if recLowConfidence != nil {
				rec.LowConfidence = *recLowConfidence
			}
			if recStatus != nil {
				rec.Status = *recStatus
			}
			rec.SettledAt = recSettledAt
			if recCreatedAt != nil {
				rec.CreatedAt = *recCreatedAt
			}
			if recUpdatedAt != nil {
				rec.UpdatedAt = *recUpdatedAt
			}
			e.Record = &rec
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
