package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/orientwatch/backend/internal/domain"
)

type BookingRepo struct {
	db *sql.DB
}

func NewBookingRepo(db *sql.DB) *BookingRepo {
	return &BookingRepo{db: db}
}

func (r *BookingRepo) Insert(b *domain.Booking) error {
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now

	res, err := r.db.Exec(
		`INSERT INTO bookings
		 (booking_number, name, phone, email, date, time, message, boutique,
		  status, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		b.BookingNumber, b.Name, b.Phone, b.Email, b.Date, b.Time, b.Message,
		b.Boutique, string(b.Status),
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	b.ID, _ = res.LastInsertId()
	return nil
}

func (r *BookingRepo) GetByNumber(bookingNumber string) (*domain.Booking, error) {
	row := r.db.QueryRow(selectBooking+" WHERE booking_number = ?", bookingNumber)
	var b domain.Booking
	var status, createdAt, updatedAt string
	err := row.Scan(&b.ID, &b.BookingNumber, &b.Name, &b.Phone, &b.Email,
		&b.Date, &b.Time, &b.Message, &b.Boutique, &status, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	b.Status = domain.BookingStatus(status)
	b.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	b.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &b, nil
}

type BookingFilter struct {
	Status string
	Page   int
	Limit  int
}

func (r *BookingRepo) List(f BookingFilter) ([]domain.Booking, int, error) {
	var clauses []string
	var args []any
	if f.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, f.Status)
	}
	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	var total int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM bookings"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count: %w", err)
	}

	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	args = append(args, f.Limit, (f.Page-1)*f.Limit)

	rows, err := r.db.Query(selectBooking+where+" ORDER BY created_at DESC LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		var b domain.Booking
		var status, createdAt, updatedAt string
		if err := rows.Scan(&b.ID, &b.BookingNumber, &b.Name, &b.Phone, &b.Email,
			&b.Date, &b.Time, &b.Message, &b.Boutique, &status, &createdAt, &updatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan: %w", err)
		}
		b.Status = domain.BookingStatus(status)
		b.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		b.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		bookings = append(bookings, b)
	}
	return bookings, total, rows.Err()
}

func (r *BookingRepo) UpdateStatus(bookingNumber string, status domain.BookingStatus) error {
	res, err := r.db.Exec(
		`UPDATE bookings SET status = ?, updated_at = ? WHERE booking_number = ?`,
		string(status), time.Now().UTC().Format(time.RFC3339), bookingNumber,
	)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

const selectBooking = `SELECT id, booking_number, name, phone, email, date,
	time, message, boutique, status, created_at, updated_at FROM bookings`
