package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EmployeeService is the employee directory: id → display name, code and
// profit rule. The engine treats it as a collaborator and never edits
// employees or their roles.
type EmployeeService interface {
	GetEmployee(ctx context.Context, id int) (*Employee, error)
	ListEmployees(ctx context.Context) ([]Employee, error)

	// ResolveProfitRule returns the employee's profit rule. A missing rule is
	// not an error: Configured=false comes back and the caller degrades the
	// computation to a zero share with a low-confidence flag.
	ResolveProfitRule(ctx context.Context, employeeID int) (ProfitRule, error)

	// EmployeeByChat resolves a Telegram chat to an employee, for the
	// intake/summary bot.
	EmployeeByChat(ctx context.Context, chatID int64) (*Employee, error)
}

type employeeService struct {
	pool *pgxpool.Pool
}

func NewEmployeeService(pool *pgxpool.Pool) EmployeeService {
	return &employeeService{pool: pool}
}

const employeeColumns = `
	id, code, name, telegram_chat_id,
	rule_is_percentage, COALESCE(rule_percentage, 0), COALESCE(rule_fixed_amount, 0),
	rule_configured, created_at`

func scanEmployee(row pgx.Row) (*Employee, error) {
	var e Employee
	if err := row.Scan(
		&e.ID, &e.Code, &e.Name, &e.TelegramChatID,
		&e.Rule.IsPercentage, &e.Rule.Percentage, &e.Rule.FixedAmount,
		&e.Rule.Configured, &e.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *employeeService) GetEmployee(ctx context.Context, id int) (*Employee, error) {
	e, err := scanEmployee(s.pool.QueryRow(ctx,
		"SELECT "+employeeColumns+" FROM employees WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("employee %d not found", id)
		}
		return nil, fmt.Errorf("failed to fetch employee %d: %w", id, err)
	}
	return e, nil
}

func (s *employeeService) ListEmployees(ctx context.Context) ([]Employee, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+employeeColumns+" FROM employees ORDER BY code")
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, *e)
	}
	return employees, rows.Err()
}

func (s *employeeService) ResolveProfitRule(ctx context.Context, employeeID int) (ProfitRule, error) {
	var rule ProfitRule
	err := s.pool.QueryRow(ctx, `
		SELECT rule_is_percentage, COALESCE(rule_percentage, 0),
		       COALESCE(rule_fixed_amount, 0), rule_configured
		FROM employees
		WHERE id = $1
	`, employeeID).Scan(&rule.IsPercentage, &rule.Percentage, &rule.FixedAmount, &rule.Configured)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ProfitRule{}, nil
		}
		return ProfitRule{}, fmt.Errorf("failed to resolve profit rule for employee %d: %w", employeeID, err)
	}
	return rule, nil
}

func (s *employeeService) EmployeeByChat(ctx context.Context, chatID int64) (*Employee, error) {
	e, err := scanEmployee(s.pool.QueryRow(ctx,
		"SELECT "+employeeColumns+" FROM employees WHERE telegram_chat_id = $1", chatID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("no employee linked to chat %d", chatID)
		}
		return nil, fmt.Errorf("failed to fetch employee by chat %d: %w", chatID, err)
	}
	return e, nil
}
