package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/orientwatch/backend/internal/domain"
)

type OrderRepo struct {
	db *sql.DB
}

func NewOrderRepo(db *sql.DB) *OrderRepo {
	return &OrderRepo{db: db}
}

func (r *OrderRepo) Insert(o *domain.Order) error {
	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now

	res, err := r.db.Exec(
		`INSERT INTO orders
		 (order_number, items, customer, delivery_method, payment_method,
		  delivery_address, subtotal, shipping, total, status, notes,
		  created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		o.OrderNumber, o.Items, o.Customer, o.DeliveryMethod, o.PaymentMethod,
		o.DeliveryAddress, o.Subtotal, o.Shipping, o.Total, string(o.Status),
		o.Notes, now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	o.ID, _ = res.LastInsertId()
	return nil
}

// GetByNumber fetches an order by its business-facing number (ORD-...).
// Returns sql.ErrNoRows when absent.
func (r *OrderRepo) GetByNumber(orderNumber string) (*domain.Order, error) {
	row := r.db.QueryRow(selectOrder+" WHERE order_number = ?", orderNumber)
	return scanOrder(row)
}

func (r *OrderRepo) GetByID(id int64) (*domain.Order, error) {
	row := r.db.QueryRow(selectOrder+" WHERE id = ?", id)
	return scanOrder(row)
}

type OrderFilter struct {
	Status string
	Page   int
	Limit  int
}

func (r *OrderRepo) List(f OrderFilter) ([]domain.Order, int, error) {
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
	if err := r.db.QueryRow("SELECT COUNT(*) FROM orders"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count: %w", err)
	}

	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	args = append(args, f.Limit, (f.Page-1)*f.Limit)

	rows, err := r.db.Query(selectOrder+where+" ORDER BY created_at DESC LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrderRows(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, total, rows.Err()
}

// UpdateStatus sets a new order status; the caller validates it.
func (r *OrderRepo) UpdateStatus(orderNumber string, status domain.OrderStatus) error {
	res, err := r.db.Exec(
		`UPDATE orders SET status = ?, updated_at = ? WHERE order_number = ?`,
		string(status), time.Now().UTC().Format(time.RFC3339), orderNumber,
	)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// --- helpers ---

const selectOrder = `SELECT id, order_number, items, customer, delivery_method,
	payment_method, delivery_address, subtotal, shipping, total, status, notes,
	created_at, updated_at FROM orders`

func scanOrder(row *sql.Row) (*domain.Order, error) {
	var o domain.Order
	var status, createdAt, updatedAt string
	err := row.Scan(&o.ID, &o.OrderNumber, &o.Items, &o.Customer,
		&o.DeliveryMethod, &o.PaymentMethod, &o.DeliveryAddress,
		&o.Subtotal, &o.Shipping, &o.Total, &status, &o.Notes,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	o.Status = domain.OrderStatus(status)
	o.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	o.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &o, nil
}

func scanOrderRows(rows *sql.Rows) (*domain.Order, error) {
	var o domain.Order
	var status, createdAt, updatedAt string
	err := rows.Scan(&o.ID, &o.OrderNumber, &o.Items, &o.Customer,
		&o.DeliveryMethod, &o.PaymentMethod, &o.DeliveryAddress,
		&o.Subtotal, &o.Shipping, &o.Total, &status, &o.Notes,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	o.Status = domain.OrderStatus(status)
	o.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	o.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &o, nil
}
