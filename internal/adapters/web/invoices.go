package web

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// listInvoices handles GET /api/settlement-invoices?period=&from=&to=.
func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListSettlementInvoices(r.Context(), windowRequest(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Invoices)
}

// getInvoice handles GET /api/settlement-invoices/{number}.
func (h *Handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetSettlementInvoice(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Invoice)
}

// invoiceOrders handles GET /api/settlement-invoices/{number}/orders.
func (h *Handler) invoiceOrders(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetSettlementInvoice(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Orders)
}

// stats handles GET /api/stats?period=&from=&to=.
func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetStats(r.Context(), windowRequest(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Stats)
}

// settlementsReport handles GET /api/reports/settlements.xlsx.
func (h *Handler) settlementsReport(w http.ResponseWriter, r *http.Request) {
	data, err := h.svc.ExportSettlementsReport(r.Context(), windowRequest(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	filename := fmt.Sprintf("settlements-%s.xlsx", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	_, _ = w.Write(data)
}

// parseIntake handles POST /api/intake/parse.
func (h *Handler) parseIntake(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Message string `json:"message"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.Message == "" {
		writeError(w, r, "message is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	result, err := h.svc.ParseOrderMessage(r.Context(), body.Message)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Draft)
}
