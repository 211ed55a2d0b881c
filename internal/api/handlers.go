package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/orientwatch/backend/internal/domain"
	"github.com/orientwatch/backend/internal/repository"
)

// Notifier is the outbound notification sink. All calls are fire-and-forget.
type Notifier interface {
	NewOrder(o *domain.Order)
	OrderStatusChanged(orderNumber string, from, to domain.OrderStatus)
	NewBooking(b *domain.Booking)
	BookingStatusChanged(bookingNumber string, from, to domain.BookingStatus)
}

type nopNotifier struct{}

func (nopNotifier) NewOrder(*domain.Order)                                              {}
func (nopNotifier) OrderStatusChanged(string, domain.OrderStatus, domain.OrderStatus)   {}
func (nopNotifier) NewBooking(*domain.Booking)                                          {}
func (nopNotifier) BookingStatusChanged(string, domain.BookingStatus, domain.BookingStatus) {}

// Handlers groups all HTTP handler methods and their dependencies.
type Handlers struct {
	products    *repository.ProductRepo
	collections *repository.CollectionRepo
	orders      *repository.OrderRepo
	bookings    *repository.BookingRepo
	content     *repository.ContentRepo
	settings    *repository.SettingsRepo
	txns        *repository.TransactionRepo
	notifier    Notifier

	baseURL          string
	distDir          string
	paymeMerchantID  string
	paymeCheckoutURL string
	log              zerolog.Logger
}

// --- helpers ---

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("encode response")
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return def
	}
	return v
}

func parseInt64(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}
