package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"settlement-engine/internal/app"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc    app.ApplicationService
	router chi.Router
}

// NewHandler creates and wires the chi router with all routes.
// allowedOrigins is a comma-separated list from the ALLOWED_ORIGINS env
// variable; empty disables cross-origin access entirely.
func NewHandler(svc app.ApplicationService, allowedOrigins []string) http.Handler {
	h := &Handler{svc: svc}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	if len(allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   allowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/api/health", h.health)

	r.Group(func(r chi.Router) {
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB

		r.Get("/api/employees", h.listEmployees)
		r.Get("/api/employees/{id}", h.getEmployee)

		r.Get("/api/profit-records", h.listProfitRecords)
		r.Post("/api/profit-records/ensure", h.ensureProfitRecord)
		r.Post("/api/profit-records/{id}/invoice-received", h.markInvoiceReceived)
		r.Post("/api/profit-records/{id}/request-settlement", h.requestSettlement)
		r.Post("/api/profit-records/{id}/reject", h.rejectSettlement)

		r.Post("/api/settlements", h.settle)
		r.Get("/api/settlement-invoices", h.listInvoices)
		r.Get("/api/settlement-invoices/{number}", h.getInvoice)
		r.Get("/api/settlement-invoices/{number}/orders", h.invoiceOrders)

		r.Get("/api/stats", h.stats)
		r.Get("/api/reports/settlements.xlsx", h.settlementsReport)

		r.Post("/api/intake/parse", h.parseIntake)
	})

	h.router = r
	return r
}

// health returns service status.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status string `json:"status"`
	}
	writeJSON(w, response{Status: "ok"})
}

// idParam extracts a numeric {id} URL parameter.
func idParam(r *http.Request) (int, error) {
	return strconv.Atoi(chi.URLParam(r, "id"))
}

// windowRequest reads the shared period/from/to query parameters.
func windowRequest(r *http.Request) app.WindowRequest {
	q := r.URL.Query()
	return app.WindowRequest{
		Period: q.Get("period"),
		From:   q.Get("from"),
		To:     q.Get("to"),
	}
}

// decodeJSON decodes the request body into v and returns false + writes an
// appropriate error response on failure. Returns HTTP 413 when the body
// exceeds the size limit set by RequestBodyLimit middleware; HTTP 400 for
// all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}
