package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/PLManuel/Mitikas-sub000/internal/auth"
	"github.com/PLManuel/Mitikas-sub000/internal/checkout"
	"github.com/PLManuel/Mitikas-sub000/internal/fault"
	kafkax "github.com/PLManuel/Mitikas-sub000/internal/kafka"
	"github.com/PLManuel/Mitikas-sub000/internal/orders"
	"github.com/PLManuel/Mitikas-sub000/internal/redisx"
)

type OrdersHandler struct {
	Checkout    *checkout.Service
	Fulfillment *orders.Service
	Repo        *orders.Repo
	Placed      *kafkax.Producer
	Changed     *kafkax.Producer
	Redis       *redis.Client
	Service     string
}

type orderDetail struct {
	orders.Order
	Lines []orders.Line `json:"lines"`
}

type changeStatusReq struct {
	Status    string  `json:"status"`
	CourierID *string `json:"courier_id"`
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Post("/orders", h.placeOrder)
	r.Get("/orders", h.listAll)
	r.Get("/orders/mine", h.listMine)
	r.Get("/orders/{id}", h.getOrder)
	r.Get("/orders/{id}/status", h.getStatus)
	r.Patch("/orders/{id}/status", h.changeStatus)
}

func (h *OrdersHandler) placeOrder(w http.ResponseWriter, r *http.Request) {
	id, err := auth.FromContext(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	var in checkout.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	ctx, cancel := reqCtx(r)
	defer cancel()

	res, err := h.Checkout.PlaceOrder(ctx, id.UserID, in)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	h.cacheStatus(r, res.OrderID, orders.StatusSubmitted)

	h.publish(h.Placed, r, orders.EventOrderPlaced, res.OrderID, orders.OrderPlacedPayload{
		OrderID:         res.OrderID,
		UserID:          id.UserID,
		PaymentKind:     res.PaymentKind,
		Delivery:        in.DeliveryZoneID != nil,
		GrandTotalCents: res.GrandTotalCents,
	})

	writeJSON(w, http.StatusCreated, res)
}

func (h *OrdersHandler) listAll(w http.ResponseWriter, r *http.Request) {
	id, err := auth.FromContext(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if id.Role == auth.RoleCustomer {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "staff only"})
		return
	}
	ctx, cancel := reqCtx(r)
	defer cancel()

	out, err := h.Repo.ListAll(ctx)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrdersHandler) listMine(w http.ResponseWriter, r *http.Request) {
	id, err := auth.FromContext(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	ctx, cancel := reqCtx(r)
	defer cancel()

	out, err := h.Repo.ListByUser(ctx, id.UserID)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := auth.FromContext(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	ctx, cancel := reqCtx(r)
	defer cancel()

	o, err := h.Repo.Get(ctx, chi.URLParam(r, "id"))
	if errors.Is(err, orders.ErrNotFound) {
		writeErr(w, r, fault.NotFound("order not found"))
		return
	}
	if err != nil {
		writeErr(w, r, err)
		return
	}
	// customers see only their own orders
	if id.Role == auth.RoleCustomer && o.UserID != id.UserID {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "not your order"})
		return
	}
	lines, err := h.Repo.Lines(ctx, o.ID)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orderDetail{Order: o, Lines: lines})
}

// getStatus is the cheap polling endpoint: Redis first, DB as fallback.
func (h *OrdersHandler) getStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	ctx, cancel := reqCtx(r)
	defer cancel()

	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
		writeJSON(w, http.StatusOK, json.RawMessage(s))
		return
	}

	o, err := h.Repo.Get(ctx, orderID)
	if errors.Is(err, orders.ErrNotFound) {
		writeErr(w, r, fault.NotFound("order not found"))
		return
	}
	if err != nil {
		writeErr(w, r, err)
		return
	}
	h.cacheStatus(r, o.ID, o.Status)
	writeJSON(w, http.StatusOK, map[string]any{"status": o.Status})
}

func (h *OrdersHandler) changeStatus(w http.ResponseWriter, r *http.Request) {
	id, err := auth.FromContext(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	var req changeStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	target, err := orders.ParseTarget(req.Status)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	ctx, cancel := reqCtx(r)
	defer cancel()

	tr, err := h.Fulfillment.ChangeStatus(ctx, id, chi.URLParam(r, "id"), target, req.CourierID)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	h.cacheStatus(r, tr.OrderID, tr.To)
	h.publish(h.Changed, r, orders.EventOrderStatusChanged, tr.OrderID, orders.OrderStatusChangedPayload{
		OrderID: tr.OrderID,
		From:    tr.From,
		To:      tr.To,
		ByRole:  string(id.Role),
	})

	writeJSON(w, http.StatusOK, map[string]any{"order_id": tr.OrderID, "status": tr.To})
}

func (h *OrdersHandler) cacheStatus(r *http.Request, orderID string, s orders.Status) {
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	body, _ := json.Marshal(map[string]any{"status": s, "updated_at": time.Now().UTC()})
	_ = h.Redis.Set(r.Context(), key, body, redisx.TTLStatusCache).Err()
}

func (h *OrdersHandler) publish(p *kafkax.Producer, r *http.Request, eventType, orderID string, payload any) {
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       r.Header.Get("X-Request-Id"),
		CorrelationID: orderID,
	}
	ev.Payload = kafkax.MustMarshal(payload)
	p.Publish(orders.PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
