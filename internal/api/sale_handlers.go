package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/example/pos-backend/internal/api/middleware"
	"github.com/example/pos-backend/internal/domain/sale"
)

// Sale Handlers

func (h *Handlers) CreateSale(w http.ResponseWriter, r *http.Request) {
	var s sale.Sale
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := h.sales.Create(r.Context(), tenantID(r), middleware.GetUserID(r.Context()), &s)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, created)
}

func (h *Handlers) GetSales(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if status := q.Get("status"); status != "" {
		sales, err := h.sales.ListByStatus(r.Context(), tenantID(r), status)
		if err != nil {
			respondDomainError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, sales)
		return
	}

	if q.Get("from") != "" || q.Get("to") != "" {
		from, to, err := parseDateRange(q.Get("from"), q.Get("to"))
		if err != nil {
			respondJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		sales, err := h.sales.ListByDateRange(r.Context(), tenantID(r), from, to)
		if err != nil {
			respondDomainError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, sales)
		return
	}

	sales, err := h.sales.List(r.Context(), tenantID(r))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sales)
}

func (h *Handlers) GetSale(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/sales/")
	s, err := h.sales.Get(r.Context(), tenantID(r), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, s)
}

func (h *Handlers) UpdateSaleStatus(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(extractPathParam(r.URL.Path, "/sales/"), "/status")

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	updated, err := h.sales.UpdateStatus(r.Context(), tenantID(r), middleware.GetUserID(r.Context()), id, req.Status)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

// SyncOfflineSales replays a batch of offline-created sales. The
// response always carries HTTP 200 with per-record outcomes; a failed
// record never fails the batch.
func (h *Handlers) SyncOfflineSales(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Sales []*sale.Sale `json:"sales"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	result := h.sales.SyncOfflineSales(r.Context(), tenantID(r), middleware.GetUserID(r.Context()), req.Sales)
	respondJSON(w, http.StatusOK, result)
}

func (h *Handlers) GetDailyReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to, err := parseDateRange(q.Get("from"), q.Get("to"))
	if err != nil {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	report, err := h.sales.DailyReport(r.Context(), tenantID(r), from, to)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// parseDateRange parses from/to as YYYY-MM-DD. A missing from defaults
// to thirty days back, a missing to defaults to tomorrow so that the
// current day is included in the half-open range. Defaults are derived
// in UTC, the same location explicit dates parse in, so the window
// edges agree regardless of the server's local zone.
func parseDateRange(fromStr, toStr string) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	from := today.AddDate(0, 0, -30)
	to := today.AddDate(0, 0, 1)

	var err error
	if fromStr != "" {
		from, err = time.Parse("2006-01-02", fromStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if toStr != "" {
		to, err = time.Parse("2006-01-02", toStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		// The to date is inclusive on the wire.
		to = to.AddDate(0, 0, 1)
	}
	return from, to, nil
}
