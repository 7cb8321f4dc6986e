package httpx

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/PLManuel/Mitikas-sub000/internal/auth"
	"github.com/PLManuel/Mitikas-sub000/internal/backorder"
	"github.com/PLManuel/Mitikas-sub000/internal/fault"
)

type BackorderHandler struct {
	Svc *backorder.Service
}

func (h *BackorderHandler) Register(r *chi.Mux) {
	r.Post("/backorders", h.report)
	r.Get("/backorders/grouped", h.grouped)
	r.Get("/backorders/order/{id}", h.forOrder)
	r.Patch("/backorders/status", h.advance)
}

func (h *BackorderHandler) report(w http.ResponseWriter, r *http.Request) {
	id, err := auth.FromContext(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	var req struct {
		OrderID string            `json:"order_id"`
		Items   []backorder.Entry `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, r, fault.Invalid("invalid json"))
		return
	}
	ctx, cancel := reqCtx(r)
	defer cancel()

	created, err := h.Svc.Report(ctx, id, req.OrderID, req.Items)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"created": created})
}

func (h *BackorderHandler) grouped(w http.ResponseWriter, r *http.Request) {
	id, err := auth.FromContext(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	ctx, cancel := reqCtx(r)
	defer cancel()

	out, err := h.Svc.Grouped(ctx, id)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *BackorderHandler) forOrder(w http.ResponseWriter, r *http.Request) {
	id, err := auth.FromContext(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	ctx, cancel := reqCtx(r)
	defer cancel()

	out, err := h.Svc.ForOrder(ctx, id, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *BackorderHandler) advance(w http.ResponseWriter, r *http.Request) {
	id, err := auth.FromContext(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	var req struct {
		IDs        []string   `json:"ids"`
		Status     string     `json:"status"`
		ReceivedAt *time.Time `json:"received_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, r, fault.Invalid("invalid json"))
		return
	}
	status, err := backorder.ParseStatus(req.Status)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	ctx, cancel := reqCtx(r)
	defer cancel()

	if err := h.Svc.Advance(ctx, id, req.IDs, status, req.ReceivedAt); err != nil {
		writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
