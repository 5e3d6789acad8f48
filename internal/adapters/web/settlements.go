package web

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"settlement-engine/internal/app"
	"settlement-engine/internal/core"
)

// listEmployees handles GET /api/employees.
func (h *Handler) listEmployees(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListEmployees(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Employees)
}

// getEmployee handles GET /api/employees/{id}.
func (h *Handler) getEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, "invalid employee id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	result, err := h.svc.GetEmployee(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Employee)
}

// listProfitRecords handles GET /api/profit-records?employee_id=&status=.
func (h *Handler) listProfitRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := app.ListRecordsRequest{Status: core.SettlementStatus(q.Get("status"))}
	if v := q.Get("employee_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, r, "invalid employee_id", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		req.EmployeeID = id
	}

	result, err := h.svc.ListProfitRecords(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Records)
}

// ensureProfitRecord handles POST /api/profit-records/ensure.
func (h *Handler) ensureProfitRecord(w http.ResponseWriter, r *http.Request) {
	var body struct {
		OrderID    int `json:"order_id"`
		EmployeeID int `json:"employee_id"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.OrderID == 0 || body.EmployeeID == 0 {
		writeError(w, r, "order_id and employee_id are required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	result, err := h.svc.EnsureProfitRecord(r.Context(), body.OrderID, body.EmployeeID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Record)
}

func (h *Handler) markInvoiceReceived(w http.ResponseWriter, r *http.Request) {
	h.recordTransition(w, r, h.svc.MarkInvoiceReceived)
}

func (h *Handler) requestSettlement(w http.ResponseWriter, r *http.Request) {
	h.recordTransition(w, r, h.svc.RequestSettlement)
}

func (h *Handler) rejectSettlement(w http.ResponseWriter, r *http.Request) {
	h.recordTransition(w, r, h.svc.RejectSettlement)
}

// recordTransition is the shared shape of the three single-record lifecycle
// endpoints.
func (h *Handler) recordTransition(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, recordID int) (*app.ProfitRecordResult, error)) {

	id, err := idParam(r)
	if err != nil {
		writeError(w, r, "invalid record id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	result, err := op(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Record)
}

// settle handles POST /api/settlements.
func (h *Handler) settle(w http.ResponseWriter, r *http.Request) {
	var body struct {
		EmployeeID     int    `json:"employee_id"`
		RecordIDs      []int  `json:"record_ids"`
		AdminOverride  bool   `json:"admin_override"`
		PaymentMethod  string `json:"payment_method"`
		Notes          string `json:"notes"`
		SettlementDate string `json:"settlement_date"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.EmployeeID == 0 {
		writeError(w, r, "employee_id is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	req := app.SettleRequest{
		EmployeeID:    body.EmployeeID,
		RecordIDs:     body.RecordIDs,
		AdminOverride: body.AdminOverride,
		PaymentMethod: body.PaymentMethod,
		Notes:         body.Notes,
	}
	if body.SettlementDate != "" {
		t, err := time.ParseInLocation("2006-01-02", body.SettlementDate, core.BusinessZone)
		if err != nil {
			writeError(w, r, "invalid settlement_date, want YYYY-MM-DD", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		req.SettlementDate = t
	}

	result, err := h.svc.Settle(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Invoice)
}
