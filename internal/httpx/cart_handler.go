package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/PLManuel/Mitikas-sub000/internal/auth"
	"github.com/PLManuel/Mitikas-sub000/internal/cart"
	"github.com/PLManuel/Mitikas-sub000/internal/fault"
)

type CartHandler struct {
	Svc *cart.Service
}

func (h *CartHandler) Register(r *chi.Mux) {
	r.Get("/cart", h.get)
	r.Post("/cart", h.add)
	r.Post("/cart/merge", h.merge)
	r.Put("/cart/{id}", h.setQuantity)
	r.Patch("/cart/{id}/promotion", h.applyPromotion)
	r.Delete("/cart/{id}", h.remove)
	r.Delete("/cart", h.clear)
}

func reqCtx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), 5*time.Second)
}

func itemID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, fault.Invalid("invalid cart item id")
	}
	return id, nil
}

func (h *CartHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := auth.FromContext(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	ctx, cancel := reqCtx(r)
	defer cancel()

	view, err := h.Svc.View(ctx, id.UserID)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *CartHandler) add(w http.ResponseWriter, r *http.Request) {
	id, err := auth.FromContext(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	var in cart.AddInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErr(w, r, fault.Invalid("invalid json"))
		return
	}
	ctx, cancel := reqCtx(r)
	defer cancel()

	it, err := h.Svc.Add(ctx, id.UserID, in)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

func (h *CartHandler) merge(w http.ResponseWriter, r *http.Request) {
	id, err := auth.FromContext(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	var req struct {
		Items []cart.AddInput `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, r, fault.Invalid("invalid json"))
		return
	}
	ctx, cancel := reqCtx(r)
	defer cancel()

	// 200 here is the client's signal that the local cart may be discarded
	if err := h.Svc.MergeLocal(ctx, id.UserID, req.Items); err != nil {
		writeErr(w, r, err)
		return
	}
	view, err := h.Svc.View(ctx, id.UserID)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *CartHandler) setQuantity(w http.ResponseWriter, r *http.Request) {
	id, err := auth.FromContext(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	item, err := itemID(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	var req struct {
		Quantity int32 `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, r, fault.Invalid("invalid json"))
		return
	}
	ctx, cancel := reqCtx(r)
	defer cancel()

	if err := h.Svc.SetQuantity(ctx, id.UserID, item, req.Quantity); err != nil {
		writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) applyPromotion(w http.ResponseWriter, r *http.Request) {
	id, err := auth.FromContext(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	item, err := itemID(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	var req struct {
		PromotionID *int64 `json:"promotion_id"` // null clears
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, r, fault.Invalid("invalid json"))
		return
	}
	ctx, cancel := reqCtx(r)
	defer cancel()

	if err := h.Svc.ApplyPromotion(ctx, id.UserID, item, req.PromotionID); err != nil {
		writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := auth.FromContext(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	item, err := itemID(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	ctx, cancel := reqCtx(r)
	defer cancel()

	if err := h.Svc.Remove(ctx, id.UserID, item); err != nil {
		writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) clear(w http.ResponseWriter, r *http.Request) {
	id, err := auth.FromContext(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	ctx, cancel := reqCtx(r)
	defer cancel()

	if err := h.Svc.Clear(ctx, id.UserID); err != nil {
		writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
