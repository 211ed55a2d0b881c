package payme

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/orientwatch/backend/internal/domain"
	"github.com/orientwatch/backend/internal/repository"
)

// Notifier receives order status changes as a fire-and-forget side effect.
// Implementations must not block; a failed notification never affects the
// transaction commit.
type Notifier interface {
	OrderStatusChanged(orderNumber string, from, to domain.OrderStatus)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) OrderStatusChanged(string, domain.OrderStatus, domain.OrderStatus) {}

// Service is the payment transaction state machine. Every handler is safe to
// replay with identical parameters: the gateway delivers callbacks
// at-least-once.
type Service struct {
	txns      *repository.TransactionRepo
	orders    *repository.OrderRepo
	notifier  Notifier
	tolerance int64
	now       func() time.Time
	log       zerolog.Logger
}

func NewService(
	txns *repository.TransactionRepo,
	orders *repository.OrderRepo,
	notifier Notifier,
	tolerance int64,
	log zerolog.Logger,
) *Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Service{
		txns:      txns,
		orders:    orders,
		notifier:  notifier,
		tolerance: tolerance,
		now:       time.Now,
		log:       log,
	}
}

// SetClock overrides the wall clock, for tests.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

func (s *Service) nowMillis() int64 { return s.now().UnixMilli() }

// CheckPerform decides whether a payment for the given order and amount may
// proceed. Read-only.
func (s *Service) CheckPerform(p CheckPerformParams) (any, *Error) {
	if _, rpcErr := s.checkOrder(p.Account.OrderID, p.Amount); rpcErr != nil {
		return nil, rpcErr
	}
	return map[string]any{"allow": true}, nil
}

func (s *Service) checkOrder(orderNumber string, amount int64) (*domain.Order, *Error) {
	order, err := s.orders.GetByNumber(orderNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, newError(CodeOrderNotFound, "Order not found")
	}
	if err != nil {
		s.log.Error().Err(err).Str("order", orderNumber).Msg("order lookup failed")
		return nil, newError(CodeCannotPerform, "Internal error")
	}

	diff := amount - order.Total
	if diff < 0 {
		diff = -diff
	}
	if diff > s.tolerance {
		return nil, newError(CodeWrongAmount, "Wrong amount")
	}

	if order.Status == domain.OrderCompleted {
		return nil, newError(CodeCannotPerform, "Order already paid")
	}
	return order, nil
}

// Create registers a new transaction for an order, or idempotently replays a
// previous registration. CreateTime is taken from the gateway request so the
// 12-hour deadline is identical across retries.
func (s *Service) Create(p CreateParams) (any, *Error) {
	t, err := s.txns.GetByPaymeID(p.ID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		s.log.Error().Err(err).Str("payme_id", p.ID).Msg("transaction lookup failed")
		return nil, newError(CodeCannotPerform, "Internal error")
	}

	if t != nil {
		if t.Expired(s.nowMillis()) {
			if err := s.txns.MarkCancelled(t, domain.StateCancelled, s.nowMillis(), domain.ReasonTimeout, ""); err != nil {
				s.log.Error().Err(err).Str("payme_id", p.ID).Msg("timeout cancellation failed")
				return nil, newError(CodeCannotPerform, "Internal error")
			}
			return nil, newError(CodeCannotPerform, "Transaction expired")
		}
		// Replay: return the stored record untouched.
		return map[string]any{
			"create_time": t.CreateTime,
			"transaction": t.ID,
			"state":       int(t.State),
		}, nil
	}

	if _, rpcErr := s.checkOrder(p.Account.OrderID, p.Amount); rpcErr != nil {
		return nil, rpcErr
	}

	// A different transaction already pending for this order blocks creation.
	if _, err := s.txns.GetPendingByOrder(p.Account.OrderID); err == nil {
		return nil, newError(CodeOrderNotFound, "Order has a pending transaction")
	} else if !errors.Is(err, sql.ErrNoRows) {
		s.log.Error().Err(err).Str("order", p.Account.OrderID).Msg("pending lookup failed")
		return nil, newError(CodeCannotPerform, "Internal error")
	}

	account, _ := json.Marshal(p.Account)
	newTx := &domain.Transaction{
		ID:          uuid.NewString(),
		PaymeID:     p.ID,
		OrderNumber: p.Account.OrderID,
		Amount:      p.Amount,
		State:       domain.StateCreated,
		CreateTime:  p.Time,
		Account:     string(account),
	}

	err = s.txns.Insert(newTx, domain.OrderProcessing)
	if errors.Is(err, repository.ErrPendingExists) {
		// Lost a create race on the pending-order index.
		return nil, newError(CodeOrderNotFound, "Order has a pending transaction")
	}
	if err != nil {
		s.log.Error().Err(err).Str("payme_id", p.ID).Msg("transaction insert failed")
		return nil, newError(CodeCannotPerform, "Internal error")
	}

	s.notifier.OrderStatusChanged(newTx.OrderNumber, domain.OrderPending, domain.OrderProcessing)

	return map[string]any{
		"create_time": newTx.CreateTime,
		"transaction": newTx.ID,
		"state":       int(domain.StateCreated),
	}, nil
}

// Perform marks a created transaction as paid and completes its order.
func (s *Service) Perform(p PerformParams) (any, *Error) {
	t, err := s.txns.GetByPaymeID(p.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, newError(CodeTransactionNotFound, "Transaction not found")
	}
	if err != nil {
		s.log.Error().Err(err).Str("payme_id", p.ID).Msg("transaction lookup failed")
		return nil, newError(CodeCannotPerform, "Internal error")
	}

	switch t.State {
	case domain.StateCreated:
		if t.Expired(s.nowMillis()) {
			if err := s.txns.MarkCancelled(t, domain.StateCancelled, s.nowMillis(), domain.ReasonTimeout, ""); err != nil {
				s.log.Error().Err(err).Str("payme_id", p.ID).Msg("timeout cancellation failed")
			}
			return nil, newError(CodeCannotPerform, "Timeout")
		}

		if err := s.txns.MarkPerformed(t, s.nowMillis(), domain.OrderCompleted); err != nil {
			s.log.Error().Err(err).Str("payme_id", p.ID).Msg("perform failed")
			return nil, newError(CodeCannotPerform, "Internal error")
		}
		s.notifier.OrderStatusChanged(t.OrderNumber, domain.OrderProcessing, domain.OrderCompleted)
		return performResult(t), nil

	case domain.StatePerformed:
		// Replay: same perform_time, no clock advance.
		return performResult(t), nil

	default:
		return nil, newError(CodeCannotPerform, "Transaction cancelled")
	}
}

// Cancel cancels a transaction. Cancelling a performed transaction is the
// refund path and yields state -2, never -1.
func (s *Service) Cancel(p CancelParams) (any, *Error) {
	t, err := s.txns.GetByPaymeID(p.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, newError(CodeTransactionNotFound, "Transaction not found")
	}
	if err != nil {
		s.log.Error().Err(err).Str("payme_id", p.ID).Msg("transaction lookup failed")
		return nil, newError(CodeCannotPerform, "Internal error")
	}

	switch t.State {
	case domain.StateCreated:
		if err := s.txns.MarkCancelled(t, domain.StateCancelled, s.nowMillis(), p.Reason, domain.OrderCancelled); err != nil {
			s.log.Error().Err(err).Str("payme_id", p.ID).Msg("cancel failed")
			return nil, newError(CodeCannotPerform, "Internal error")
		}
		s.notifier.OrderStatusChanged(t.OrderNumber, domain.OrderProcessing, domain.OrderCancelled)
		return cancelResult(t), nil

	case domain.StatePerformed:
		if err := s.txns.MarkCancelled(t, domain.StateCancelledAfterPerform, s.nowMillis(), p.Reason, domain.OrderCancelled); err != nil {
			s.log.Error().Err(err).Str("payme_id", p.ID).Msg("refund cancel failed")
			return nil, newError(CodeCannotPerform, "Internal error")
		}
		s.notifier.OrderStatusChanged(t.OrderNumber, domain.OrderCompleted, domain.OrderCancelled)
		return cancelResult(t), nil

	default:
		// Replay: already cancelled, return the stored record.
		return cancelResult(t), nil
	}
}

// Check returns the full stored descriptor. Read-only.
func (s *Service) Check(p CheckParams) (any, *Error) {
	t, err := s.txns.GetByPaymeID(p.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, newError(CodeTransactionNotFound, "Transaction not found")
	}
	if err != nil {
		s.log.Error().Err(err).Str("payme_id", p.ID).Msg("transaction lookup failed")
		return nil, newError(CodeCannotPerform, "Internal error")
	}

	var reason any
	if t.Reason != 0 {
		reason = t.Reason
	}
	return map[string]any{
		"create_time":  t.CreateTime,
		"perform_time": t.PerformTime,
		"cancel_time":  t.CancelTime,
		"transaction":  t.ID,
		"state":        int(t.State),
		"reason":       reason,
	}, nil
}

func performResult(t *domain.Transaction) map[string]any {
	return map[string]any{
		"transaction":  t.ID,
		"perform_time": t.PerformTime,
		"state":        int(t.State),
	}
}

func cancelResult(t *domain.Transaction) map[string]any {
	return map[string]any{
		"transaction": t.ID,
		"cancel_time": t.CancelTime,
		"state":       int(t.State),
	}
}
