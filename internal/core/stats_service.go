package core

import (
	"context"
	"fmt"
)

// StatsService produces the windowed settlement rollup. It is a pure
// read-side projection: it loads orders and records, applies the window in
// one place, and hands the rest to Summarize, so a failed read aborts the
// pass without touching persisted state.
type StatsService interface {
	GetStats(ctx context.Context, w Window) (*SettlementStats, error)
}

type statsService struct {
	orders    OrderService
	employees EmployeeService
}

func NewStatsService(orders OrderService, employees EmployeeService) StatsService {
	return &statsService{orders: orders, employees: employees}
}

func (s *statsService) GetStats(ctx context.Context, w Window) (*SettlementStats, error) {
	entries, err := s.orders.ListDeliveredOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats aggregation aborted: %w", err)
	}

	filtered := entries[:0:0]
	for _, e := range entries {
		created := e.Order.CreatedAt
		if !w.ContainsDate(&created) {
			continue
		}
		filtered = append(filtered, e)
	}

	names := make(map[int]string)
	employees, err := s.employees.ListEmployees(ctx)
	if err != nil {
		// Missing reference data degrades the breakdown (empty names), it
		// does not abort the batch.
		names = map[int]string{}
	} else {
		for _, emp := range employees {
			names[emp.ID] = emp.Name
		}
	}

	stats := Summarize(filtered, names)
	return &stats, nil
}
