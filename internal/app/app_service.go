package app

import (
	"context"
	"fmt"
	"time"

	"settlement-engine/internal/ai"
	"settlement-engine/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
)

type appService struct {
	pool        *pgxpool.Pool
	employees   core.EmployeeService
	orders      core.OrderService
	settlements core.SettlementService
	invoices    core.InvoiceService
	stats       core.StatsService
	agent       *ai.Agent
}

// NewAppService constructs an appService that satisfies ApplicationService.
// agent may be nil when no OpenAI key is configured; ParseOrderMessage then
// reports intake as unavailable instead of panicking.
func NewAppService(
	pool *pgxpool.Pool,
	employees core.EmployeeService,
	orders core.OrderService,
	settlements core.SettlementService,
	invoices core.InvoiceService,
	stats core.StatsService,
	agent *ai.Agent,
) ApplicationService {
	return &appService{
		pool:        pool,
		employees:   employees,
		orders:      orders,
		settlements: settlements,
		invoices:    invoices,
		stats:       stats,
		agent:       agent,
	}
}

func (s *appService) ListEmployees(ctx context.Context) (*EmployeeListResult, error) {
	employees, err := s.employees.ListEmployees(ctx)
	if err != nil {
		return nil, err
	}
	return &EmployeeListResult{Employees: employees}, nil
}

func (s *appService) GetEmployee(ctx context.Context, id int) (*EmployeeResult, error) {
	emp, err := s.employees.GetEmployee(ctx, id)
	if err != nil {
		return nil, err
	}
	return &EmployeeResult{Employee: emp}, nil
}

func (s *appService) ListProfitRecords(ctx context.Context, req ListRecordsRequest) (*ProfitRecordListResult, error) {
	if req.Status != "" && !core.ValidStatus(req.Status) {
		return nil, fmt.Errorf("unknown settlement status %q", req.Status)
	}
	records, err := s.settlements.ListProfitRecords(ctx, req.EmployeeID, req.Status)
	if err != nil {
		return nil, err
	}
	return &ProfitRecordListResult{Records: records}, nil
}

func (s *appService) EnsureProfitRecord(ctx context.Context, orderID, employeeID int) (*ProfitRecordResult, error) {
	rec, err := s.settlements.EnsureProfitRecord(ctx, orderID, employeeID)
	if err != nil {
		return nil, err
	}
	return &ProfitRecordResult{Record: rec}, nil
}

func (s *appService) MarkInvoiceReceived(ctx context.Context, recordID int) (*ProfitRecordResult, error) {
	rec, err := s.settlements.MarkInvoiceReceived(ctx, recordID)
	if err != nil {
		return nil, err
	}
	return &ProfitRecordResult{Record: rec}, nil
}

func (s *appService) RequestSettlement(ctx context.Context, recordID int) (*ProfitRecordResult, error) {
	rec, err := s.settlements.RequestSettlement(ctx, recordID)
	if err != nil {
		return nil, err
	}
	return &ProfitRecordResult{Record: rec}, nil
}

func (s *appService) RejectSettlement(ctx context.Context, recordID int) (*ProfitRecordResult, error) {
	rec, err := s.settlements.RejectSettlement(ctx, recordID)
	if err != nil {
		return nil, err
	}
	return &ProfitRecordResult{Record: rec}, nil
}

func (s *appService) Settle(ctx context.Context, req SettleRequest) (*SettlementResult, error) {
	inv, err := s.settlements.Settle(ctx, core.SettleRequest{
		EmployeeID:     req.EmployeeID,
		RecordIDs:      req.RecordIDs,
		AdminOverride:  req.AdminOverride,
		PaymentMethod:  req.PaymentMethod,
		Notes:          req.Notes,
		SettlementDate: req.SettlementDate,
	})
	if err != nil {
		return nil, err
	}
	return &SettlementResult{Invoice: inv}, nil
}

// resolveWindow turns the request's period/from/to into a concrete window.
// An empty request means the unbounded "all" window.
func resolveWindow(req WindowRequest) (core.Window, error) {
	period := core.Period(req.Period)
	if req.Period == "" {
		period = core.PeriodAll
	}
	return core.ResolveWindow(period, req.From, req.To, time.Now())
}

func (s *appService) ListSettlementInvoices(ctx context.Context, req WindowRequest) (*InvoiceListResult, error) {
	w, err := resolveWindow(req)
	if err != nil {
		return nil, err
	}
	invoices, err := s.invoices.ListInvoices(ctx, w)
	if err != nil {
		return nil, err
	}
	return &InvoiceListResult{Invoices: invoices}, nil
}

func (s *appService) GetSettlementInvoice(ctx context.Context, invoiceNumber string) (*InvoiceDetailResult, error) {
	inv, err := s.invoices.GetInvoice(ctx, invoiceNumber)
	if err != nil {
		return nil, err
	}
	orders, err := s.invoices.InvoiceOrders(ctx, *inv)
	if err != nil {
		return nil, err
	}
	return &InvoiceDetailResult{Invoice: inv, Orders: orders}, nil
}

func (s *appService) GetStats(ctx context.Context, req WindowRequest) (*StatsResult, error) {
	w, err := resolveWindow(req)
	if err != nil {
		return nil, err
	}
	stats, err := s.stats.GetStats(ctx, w)
	if err != nil {
		return nil, err
	}
	return &StatsResult{Stats: stats}, nil
}

func (s *appService) ParseOrderMessage(ctx context.Context, message string) (*DraftResult, error) {
	if s.agent == nil {
		return nil, fmt.Errorf("order intake is not configured (missing OPENAI_API_KEY)")
	}
	draft, err := s.agent.ParseOrderMessage(ctx, message)
	if err != nil {
		return nil, err
	}
	return &DraftResult{Draft: draft}, nil
}

func (s *appService) EmployeeSummary(ctx context.Context, chatID int64) (*EmployeeSummaryResult, error) {
	emp, err := s.employees.EmployeeByChat(ctx, chatID)
	if err != nil {
		return nil, err
	}

	all, err := s.settlements.ListProfitRecords(ctx, emp.ID, "")
	if err != nil {
		return nil, err
	}
	result := &EmployeeSummaryResult{Employee: emp}
	for _, r := range all {
		if r.Status == core.StatusSettled {
			result.Settled = append(result.Settled, r)
		} else {
			result.Pending = append(result.Pending, r)
		}
	}
	return result, nil
}

func (s *appService) MigrateLegacySettlements(ctx context.Context) (*core.MigrationResult, error) {
	return core.MigrateLegacySettlements(ctx, s.pool)
}
