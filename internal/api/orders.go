package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/orientwatch/backend/internal/currency"
	"github.com/orientwatch/backend/internal/domain"
	"github.com/orientwatch/backend/internal/payme"
	"github.com/orientwatch/backend/internal/repository"
)

type orderItemPayload struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type orderPayload struct {
	Items           []orderItemPayload `json:"items"`
	Customer        json.RawMessage    `json:"customer"`
	DeliveryMethod  string             `json:"deliveryMethod"`
	PaymentMethod   string             `json:"paymentMethod"`
	DeliveryAddress json.RawMessage    `json:"deliveryAddress"`
	Subtotal        decimal.Decimal    `json:"subtotal"`
	Shipping        decimal.Decimal    `json:"shipping"`
	Total           decimal.Decimal    `json:"total"`
	Notes           string             `json:"notes"`
}

func generateOrderNumber(now time.Time) string {
	return "ORD-" + now.Format("20060102150405")
}

// CreateOrder is the public checkout endpoint.
func (h *Handlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var payload orderPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	if len(payload.Items) == 0 {
		h.writeError(w, http.StatusBadRequest, "order has no items")
		return
	}

	subtotal, err := currency.ToTiyin(payload.Subtotal)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	shipping, err := currency.ToTiyin(payload.Shipping)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	total, err := currency.ToTiyin(payload.Total)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, _ := json.Marshal(payload.Items)
	customer := string(payload.Customer)
	if customer == "" {
		customer = "{}"
	}

	order := &domain.Order{
		OrderNumber:     generateOrderNumber(time.Now()),
		Items:           string(items),
		Customer:        customer,
		DeliveryMethod:  payload.DeliveryMethod,
		PaymentMethod:   payload.PaymentMethod,
		DeliveryAddress: string(payload.DeliveryAddress),
		Subtotal:        subtotal,
		Shipping:        shipping,
		Total:           total,
		Status:          domain.OrderPending,
		Notes:           payload.Notes,
	}

	if err := h.orders.Insert(order); err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.notifier.NewOrder(order)

	h.writeJSON(w, http.StatusCreated, map[string]any{
		"message":     "Order created successfully",
		"orderNumber": order.OrderNumber,
		"id":          order.ID,
	})
}

func (h *Handlers) ListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.OrderFilter{
		Status: q.Get("status"),
		Page:   parseIntDefault(q.Get("page"), 1),
		Limit:  parseIntDefault(q.Get("limit"), 20),
	}

	orders, total, err := h.orders.List(filter)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"data": orders,
		"pagination": map[string]int{
			"page":  filter.Page,
			"limit": filter.Limit,
			"total": total,
		},
	})
}

func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	order, err := h.orders.GetByNumber(number)
	if errors.Is(err, sql.ErrNoRows) {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, order)
}

func (h *Handlers) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")

	var payload struct {
		Status domain.OrderStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	if !domain.ValidOrderStatus(payload.Status) {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", payload.Status))
		return
	}

	order, err := h.orders.GetByNumber(number)
	if errors.Is(err, sql.ErrNoRows) {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := h.orders.UpdateStatus(number, payload.Status); err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if order.Status != payload.Status {
		h.notifier.OrderStatusChanged(number, order.Status, payload.Status)
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "status updated"})
}

// --- payme init ---

type paymeInitPayload struct {
	OrderID string          `json:"order_id"`
	Amount  decimal.Decimal `json:"amount"`
}

// InitPaymePayment builds the hosted checkout URL for an order. The amount
// arrives in sums and is converted to tiyin for the gateway.
func (h *Handlers) InitPaymePayment(w http.ResponseWriter, r *http.Request) {
	var payload paymeInitPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}

	if _, err := h.orders.GetByNumber(payload.OrderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.writeError(w, http.StatusNotFound, "order not found")
			return
		}
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	amountTiyin, err := currency.ToTiyin(payload.Amount)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	returnURL := fmt.Sprintf("%s/order/%s", h.baseURL, payload.OrderID)
	url := payme.CheckoutURL(h.paymeCheckoutURL, h.paymeMerchantID,
		payload.OrderID, amountTiyin, returnURL)

	h.writeJSON(w, http.StatusOK, map[string]string{"checkout_url": url})
}

// ListTransactions exposes the payment ledger to the admin panel.
func (h *Handlers) ListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := parseIntDefault(q.Get("limit"), 50)
	page := parseIntDefault(q.Get("page"), 1)

	txns, err := h.txns.List(limit, (page-1)*limit)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"data": txns})
}
