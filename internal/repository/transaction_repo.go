package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/orientwatch/backend/internal/domain"
)

// ErrPendingExists is returned when inserting a transaction for an order that
// already has one in the created state.
var ErrPendingExists = errors.New("order has a pending transaction")

// TransactionRepo persists the payment ledger. Writes that project an order
// status run inside a single sql transaction with the ledger write, so a
// performed transaction can never be committed with its order left behind.
type TransactionRepo struct {
	db *sql.DB
}

func NewTransactionRepo(db *sql.DB) *TransactionRepo {
	return &TransactionRepo{db: db}
}

// GetByPaymeID looks a transaction up by the gateway-assigned id. Returns
// sql.ErrNoRows when absent.
func (r *TransactionRepo) GetByPaymeID(paymeID string) (*domain.Transaction, error) {
	row := r.db.QueryRow(
		`SELECT id, payme_id, order_number, amount, state, create_time,
		        perform_time, cancel_time, reason, account
		 FROM transactions WHERE payme_id = ?`, paymeID)
	return scanTransaction(row)
}

// GetPendingByOrder returns the created-state transaction for an order, if
// any. Returns sql.ErrNoRows when there is none.
func (r *TransactionRepo) GetPendingByOrder(orderNumber string) (*domain.Transaction, error) {
	row := r.db.QueryRow(
		`SELECT id, payme_id, order_number, amount, state, create_time,
		        perform_time, cancel_time, reason, account
		 FROM transactions WHERE order_number = ? AND state = ?`,
		orderNumber, int(domain.StateCreated))
	return scanTransaction(row)
}

// Insert writes a new ledger entry and, in the same sql transaction, projects
// the given status onto the order. The partial unique index on
// (order_number, state=1) turns a lost race between two concurrent creates
// into ErrPendingExists for the loser.
func (r *TransactionRepo) Insert(t *domain.Transaction, orderStatus domain.OrderStatus) error {
	sqlTx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer sqlTx.Rollback()

	_, err = sqlTx.Exec(
		`INSERT INTO transactions
		 (id, payme_id, order_number, amount, state, create_time,
		  perform_time, cancel_time, reason, account)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		t.ID, t.PaymeID, t.OrderNumber, t.Amount, int(t.State), t.CreateTime,
		t.PerformTime, t.CancelTime, t.Reason, t.Account,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrPendingExists
		}
		return fmt.Errorf("insert transaction: %w", err)
	}

	if err := projectOrderStatus(sqlTx, t.OrderNumber, orderStatus); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// MarkPerformed moves a created transaction to the performed state and
// completes its order atomically.
func (r *TransactionRepo) MarkPerformed(t *domain.Transaction, performTime int64, orderStatus domain.OrderStatus) error {
	sqlTx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer sqlTx.Rollback()

	_, err = sqlTx.Exec(
		`UPDATE transactions SET state = ?, perform_time = ? WHERE id = ?`,
		int(domain.StatePerformed), performTime, t.ID,
	)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}

	if err := projectOrderStatus(sqlTx, t.OrderNumber, orderStatus); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	t.State = domain.StatePerformed
	t.PerformTime = performTime
	return nil
}

// MarkCancelled moves a transaction to the given cancelled state. Pass an
// empty orderStatus to leave the order untouched (timeout cancellations).
func (r *TransactionRepo) MarkCancelled(t *domain.Transaction, state domain.TransactionState, cancelTime int64, reason int, orderStatus domain.OrderStatus) error {
	sqlTx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer sqlTx.Rollback()

	_, err = sqlTx.Exec(
		`UPDATE transactions SET state = ?, cancel_time = ?, reason = ? WHERE id = ?`,
		int(state), cancelTime, reason, t.ID,
	)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}

	if err := projectOrderStatus(sqlTx, t.OrderNumber, orderStatus); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	t.State = state
	t.CancelTime = cancelTime
	t.Reason = reason
	return nil
}

// List returns ledger entries newest-first, for the admin panel.
func (r *TransactionRepo) List(limit, offset int) ([]domain.Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(
		`SELECT id, payme_id, order_number, amount, state, create_time,
		        perform_time, cancel_time, reason, account
		 FROM transactions ORDER BY create_time DESC LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		var state int
		if err := rows.Scan(&t.ID, &t.PaymeID, &t.OrderNumber, &t.Amount, &state,
			&t.CreateTime, &t.PerformTime, &t.CancelTime, &t.Reason, &t.Account); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		t.State = domain.TransactionState(state)
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

// --- helpers ---

func projectOrderStatus(sqlTx *sql.Tx, orderNumber string, status domain.OrderStatus) error {
	if status == "" {
		return nil
	}
	_, err := sqlTx.Exec(
		`UPDATE orders SET status = ?, updated_at = ? WHERE order_number = ?`,
		string(status), time.Now().UTC().Format(time.RFC3339), orderNumber,
	)
	if err != nil {
		return fmt.Errorf("project order status: %w", err)
	}
	return nil
}

func scanTransaction(row *sql.Row) (*domain.Transaction, error) {
	var t domain.Transaction
	var state int
	err := row.Scan(&t.ID, &t.PaymeID, &t.OrderNumber, &t.Amount, &state,
		&t.CreateTime, &t.PerformTime, &t.CancelTime, &t.Reason, &t.Account)
	if err != nil {
		return nil, err
	}
	t.State = domain.TransactionState(state)
	return &t, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
