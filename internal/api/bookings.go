package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/orientwatch/backend/internal/domain"
	"github.com/orientwatch/backend/internal/repository"
)

type bookingPayload struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Message  string `json:"message"`
	Boutique string `json:"boutique"`
	// Honeypot field rendered invisibly on the form; bots fill it in.
	WebsiteCheck string `json:"websiteCheck"`
}

func generateBookingNumber(now time.Time) string {
	return "BK-" + now.Format("20060102150405")
}

// CreateBooking is the public boutique appointment endpoint.
func (h *Handlers) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var payload bookingPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}

	if payload.WebsiteCheck != "" {
		// Pretend success so the bot moves on.
		h.writeJSON(w, http.StatusCreated, map[string]any{
			"message":       "Booking created successfully",
			"bookingNumber": "BOT-IGNORED",
			"id":            -1,
		})
		return
	}

	if payload.Name == "" || payload.Phone == "" || payload.Date == "" || payload.Time == "" {
		h.writeError(w, http.StatusBadRequest, "name, phone, date and time are required")
		return
	}

	boutique := payload.Boutique
	if boutique == "" {
		boutique = "Orient Ташкент"
	}

	booking := &domain.Booking{
		BookingNumber: generateBookingNumber(time.Now()),
		Name:          payload.Name,
		Phone:         payload.Phone,
		Email:         payload.Email,
		Date:          payload.Date,
		Time:          payload.Time,
		Message:       payload.Message,
		Boutique:      boutique,
		Status:        domain.BookingPending,
	}

	if err := h.bookings.Insert(booking); err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.notifier.NewBooking(booking)

	h.writeJSON(w, http.StatusCreated, map[string]any{
		"message":       "Booking created successfully",
		"bookingNumber": booking.BookingNumber,
		"id":            booking.ID,
	})
}

func (h *Handlers) ListBookings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.BookingFilter{
		Status: q.Get("status"),
		Page:   parseIntDefault(q.Get("page"), 1),
		Limit:  parseIntDefault(q.Get("limit"), 20),
	}

	bookings, total, err := h.bookings.List(filter)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"data": bookings,
		"pagination": map[string]int{
			"page":  filter.Page,
			"limit": filter.Limit,
			"total": total,
		},
	})
}

func (h *Handlers) UpdateBookingStatus(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")

	var payload struct {
		Status domain.BookingStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	if !domain.ValidBookingStatus(payload.Status) {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", payload.Status))
		return
	}

	booking, err := h.bookings.GetByNumber(number)
	if errors.Is(err, sql.ErrNoRows) {
		h.writeError(w, http.StatusNotFound, "booking not found")
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := h.bookings.UpdateStatus(number, payload.Status); err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if booking.Status != payload.Status {
		h.notifier.BookingStatusChanged(number, booking.Status, payload.Status)
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "status updated"})
}
