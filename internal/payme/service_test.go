package payme

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orientwatch/backend/internal/domain"
	"github.com/orientwatch/backend/internal/repository"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) OrderStatusChanged(orderNumber string, from, to domain.OrderStatus) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, orderNumber+":"+string(from)+">"+string(to))
}

func (n *recordingNotifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.events...)
}

type fixture struct {
	svc      *Service
	orders   *repository.OrderRepo
	txns     *repository.TransactionRepo
	notifier *recordingNotifier
	clock    *time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := repository.InitDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	orders := repository.NewOrderRepo(db)
	txns := repository.NewTransactionRepo(db)
	notifier := &recordingNotifier{}

	svc := NewService(txns, orders, notifier, 10, zerolog.Nop())

	now := time.UnixMilli(1_700_000_000_000)
	svc.SetClock(func() time.Time { return now })

	return &fixture{svc: svc, orders: orders, txns: txns, notifier: notifier, clock: &now}
}

func (f *fixture) advance(d time.Duration) {
	*f.clock = f.clock.Add(d)
}

func (f *fixture) addOrder(t *testing.T, number string, totalTiyin int64) {
	t.Helper()
	err := f.orders.Insert(&domain.Order{
		OrderNumber: number,
		Total:       totalTiyin,
		Status:      domain.OrderPending,
	})
	require.NoError(t, err)
}

func (f *fixture) orderStatus(t *testing.T, number string) domain.OrderStatus {
	t.Helper()
	o, err := f.orders.GetByNumber(number)
	require.NoError(t, err)
	return o.Status
}

// --- CheckPerformTransaction ---

func TestCheckPerform(t *testing.T) {
	t.Run("allows matching amount", func(t *testing.T) {
		f := newFixture(t)
		f.addOrder(t, "ORD-1", 15_000_000)

		res, rpcErr := f.svc.CheckPerform(CheckPerformParams{
			Amount: 15_000_000, Account: Account{OrderID: "ORD-1"},
		})
		require.Nil(t, rpcErr)
		assert.Equal(t, map[string]any{"allow": true}, res)
	})

	t.Run("allows within tolerance", func(t *testing.T) {
		f := newFixture(t)
		f.addOrder(t, "ORD-1", 15_000_000)

		_, rpcErr := f.svc.CheckPerform(CheckPerformParams{
			Amount: 15_000_010, Account: Account{OrderID: "ORD-1"},
		})
		assert.Nil(t, rpcErr)
	})

	t.Run("rejects amount beyond tolerance", func(t *testing.T) {
		f := newFixture(t)
		f.addOrder(t, "ORD-1", 15_000_000)

		_, rpcErr := f.svc.CheckPerform(CheckPerformParams{
			Amount: 15_001_000, Account: Account{OrderID: "ORD-1"},
		})
		require.NotNil(t, rpcErr)
		assert.Equal(t, CodeWrongAmount, rpcErr.Code)
	})

	t.Run("rejects unknown order", func(t *testing.T) {
		f := newFixture(t)

		_, rpcErr := f.svc.CheckPerform(CheckPerformParams{
			Amount: 100, Account: Account{OrderID: "ORD-404"},
		})
		require.NotNil(t, rpcErr)
		assert.Equal(t, CodeOrderNotFound, rpcErr.Code)
	})

	t.Run("rejects already paid order", func(t *testing.T) {
		f := newFixture(t)
		f.addOrder(t, "ORD-1", 15_000_000)
		require.NoError(t, f.orders.UpdateStatus("ORD-1", domain.OrderCompleted))

		_, rpcErr := f.svc.CheckPerform(CheckPerformParams{
			Amount: 15_000_000, Account: Account{OrderID: "ORD-1"},
		})
		require.NotNil(t, rpcErr)
		assert.Equal(t, CodeCannotPerform, rpcErr.Code)
	})
}

// --- CreateTransaction ---

func createParams(paymeID, order string, amount, createTime int64) CreateParams {
	return CreateParams{
		ID:      paymeID,
		Time:    createTime,
		Amount:  amount,
		Account: Account{OrderID: order},
	}
}

func TestCreate(t *testing.T) {
	t.Run("creates and moves order to processing", func(t *testing.T) {
		f := newFixture(t)
		f.addOrder(t, "ORD-1", 15_000_000)

		createTime := f.clock.UnixMilli() - 1000
		res, rpcErr := f.svc.Create(createParams("tx1", "ORD-1", 15_000_000, createTime))
		require.Nil(t, rpcErr)

		m := res.(map[string]any)
		assert.Equal(t, createTime, m["create_time"], "create_time must come from the gateway request")
		assert.Equal(t, int(domain.StateCreated), m["state"])
		assert.NotEmpty(t, m["transaction"])

		assert.Equal(t, domain.OrderProcessing, f.orderStatus(t, "ORD-1"))
		assert.Equal(t, []string{"ORD-1:pending>processing"}, f.notifier.all())
	})

	t.Run("replay returns identical result without mutation", func(t *testing.T) {
		f := newFixture(t)
		f.addOrder(t, "ORD-1", 15_000_000)

		p := createParams("tx1", "ORD-1", 15_000_000, f.clock.UnixMilli())
		first, rpcErr := f.svc.Create(p)
		require.Nil(t, rpcErr)

		f.advance(time.Hour)
		second, rpcErr := f.svc.Create(p)
		require.Nil(t, rpcErr)
		assert.Equal(t, first, second)

		// Only the first call projected a status change.
		assert.Len(t, f.notifier.all(), 1)
	})

	t.Run("propagates check errors", func(t *testing.T) {
		f := newFixture(t)
		f.addOrder(t, "ORD-1", 15_000_000)

		_, rpcErr := f.svc.Create(createParams("tx1", "ORD-1", 99, f.clock.UnixMilli()))
		require.NotNil(t, rpcErr)
		assert.Equal(t, CodeWrongAmount, rpcErr.Code)

		_, rpcErr = f.svc.Create(createParams("tx1", "ORD-404", 99, f.clock.UnixMilli()))
		require.NotNil(t, rpcErr)
		assert.Equal(t, CodeOrderNotFound, rpcErr.Code)
	})

	t.Run("rejects second pending transaction for same order", func(t *testing.T) {
		f := newFixture(t)
		f.addOrder(t, "ORD-1", 15_000_000)

		_, rpcErr := f.svc.Create(createParams("tx1", "ORD-1", 15_000_000, f.clock.UnixMilli()))
		require.Nil(t, rpcErr)

		_, rpcErr = f.svc.Create(createParams("tx2", "ORD-1", 15_000_000, f.clock.UnixMilli()))
		require.NotNil(t, rpcErr)
		assert.Equal(t, CodeOrderNotFound, rpcErr.Code)

		// Exactly one pending transaction exists.
		pending, err := f.txns.GetPendingByOrder("ORD-1")
		require.NoError(t, err)
		assert.Equal(t, "tx1", pending.PaymeID)
	})

	t.Run("expires a stale pending transaction on replay", func(t *testing.T) {
		f := newFixture(t)
		f.addOrder(t, "ORD-1", 15_000_000)

		p := createParams("tx1", "ORD-1", 15_000_000, f.clock.UnixMilli())
		_, rpcErr := f.svc.Create(p)
		require.Nil(t, rpcErr)

		f.advance(12*time.Hour + time.Minute)
		_, rpcErr = f.svc.Create(p)
		require.NotNil(t, rpcErr)
		assert.Equal(t, CodeCannotPerform, rpcErr.Code)

		stored, err := f.txns.GetByPaymeID("tx1")
		require.NoError(t, err)
		assert.Equal(t, domain.StateCancelled, stored.State)
		assert.Equal(t, domain.ReasonTimeout, stored.Reason)
	})
}

// --- PerformTransaction ---

func TestPerform(t *testing.T) {
	t.Run("performs and completes order", func(t *testing.T) {
		f := newFixture(t)
		f.addOrder(t, "ORD-1", 15_000_000)

		_, rpcErr := f.svc.Create(createParams("tx1", "ORD-1", 15_000_000, f.clock.UnixMilli()))
		require.Nil(t, rpcErr)

		f.advance(time.Minute)
		res, rpcErr := f.svc.Perform(PerformParams{ID: "tx1"})
		require.Nil(t, rpcErr)

		m := res.(map[string]any)
		assert.Equal(t, int(domain.StatePerformed), m["state"])
		assert.Equal(t, f.clock.UnixMilli(), m["perform_time"])
		assert.Equal(t, domain.OrderCompleted, f.orderStatus(t, "ORD-1"))
	})

	t.Run("replay keeps original perform_time", func(t *testing.T) {
		f := newFixture(t)
		f.addOrder(t, "ORD-1", 15_000_000)

		_, rpcErr := f.svc.Create(createParams("tx1", "ORD-1", 15_000_000, f.clock.UnixMilli()))
		require.Nil(t, rpcErr)

		first, rpcErr := f.svc.Perform(PerformParams{ID: "tx1"})
		require.Nil(t, rpcErr)

		f.advance(3 * time.Hour)
		second, rpcErr := f.svc.Perform(PerformParams{ID: "tx1"})
		require.Nil(t, rpcErr)
		assert.Equal(t, first, second)
	})

	t.Run("unknown transaction", func(t *testing.T) {
		f := newFixture(t)

		_, rpcErr := f.svc.Perform(PerformParams{ID: "tx404"})
		require.NotNil(t, rpcErr)
		assert.Equal(t, CodeTransactionNotFound, rpcErr.Code)
	})

	t.Run("expired transaction is cancelled with timeout reason", func(t *testing.T) {
		f := newFixture(t)
		f.addOrder(t, "ORD-1", 15_000_000)

		_, rpcErr := f.svc.Create(createParams("tx1", "ORD-1", 15_000_000, f.clock.UnixMilli()))
		require.Nil(t, rpcErr)

		f.advance(13 * time.Hour)
		_, rpcErr = f.svc.Perform(PerformParams{ID: "tx1"})
		require.NotNil(t, rpcErr)
		assert.Equal(t, CodeCannotPerform, rpcErr.Code)

		stored, err := f.txns.GetByPaymeID("tx1")
		require.NoError(t, err)
		assert.Equal(t, domain.StateCancelled, stored.State)
		assert.Equal(t, domain.ReasonTimeout, stored.Reason)
	})

	t.Run("cancelled transaction cannot be performed", func(t *testing.T) {
		f := newFixture(t)
		f.addOrder(t, "ORD-1", 15_000_000)

		_, rpcErr := f.svc.Create(createParams("tx1", "ORD-1", 15_000_000, f.clock.UnixMilli()))
		require.Nil(t, rpcErr)
		_, rpcErr = f.svc.Cancel(CancelParams{ID: "tx1", Reason: 3})
		require.Nil(t, rpcErr)

		_, rpcErr = f.svc.Perform(PerformParams{ID: "tx1"})
		require.NotNil(t, rpcErr)
		assert.Equal(t, CodeCannotPerform, rpcErr.Code)
	})
}

// --- CancelTransaction ---

func TestCancel(t *testing.T) {
	t.Run("cancels a created transaction", func(t *testing.T) {
		f := newFixture(t)
		f.addOrder(t, "ORD-1", 15_000_000)

		_, rpcErr := f.svc.Create(createParams("tx1", "ORD-1", 15_000_000, f.clock.UnixMilli()))
		require.Nil(t, rpcErr)

		res, rpcErr := f.svc.Cancel(CancelParams{ID: "tx1", Reason: 3})
		require.Nil(t, rpcErr)

		m := res.(map[string]any)
		assert.Equal(t, int(domain.StateCancelled), m["state"])
		assert.Equal(t, domain.OrderCancelled, f.orderStatus(t, "ORD-1"))
	})

	t.Run("cancel after perform is the refund path", func(t *testing.T) {
		f := newFixture(t)
		f.addOrder(t, "ORD-1", 15_000_000)

		_, rpcErr := f.svc.Create(createParams("tx1", "ORD-1", 15_000_000, f.clock.UnixMilli()))
		require.Nil(t, rpcErr)
		_, rpcErr = f.svc.Perform(PerformParams{ID: "tx1"})
		require.Nil(t, rpcErr)

		res, rpcErr := f.svc.Cancel(CancelParams{ID: "tx1", Reason: domain.ReasonRefund})
		require.Nil(t, rpcErr)

		m := res.(map[string]any)
		assert.Equal(t, int(domain.StateCancelledAfterPerform), m["state"],
			"cancel after perform must yield -2, never -1")
		assert.Equal(t, domain.OrderCancelled, f.orderStatus(t, "ORD-1"))
	})

	t.Run("replay returns stored record", func(t *testing.T) {
		f := newFixture(t)
		f.addOrder(t, "ORD-1", 15_000_000)

		_, rpcErr := f.svc.Create(createParams("tx1", "ORD-1", 15_000_000, f.clock.UnixMilli()))
		require.Nil(t, rpcErr)

		first, rpcErr := f.svc.Cancel(CancelParams{ID: "tx1", Reason: 3})
		require.Nil(t, rpcErr)

		f.advance(time.Hour)
		second, rpcErr := f.svc.Cancel(CancelParams{ID: "tx1", Reason: 5})
		require.Nil(t, rpcErr)
		assert.Equal(t, first, second)
	})

	t.Run("unknown transaction", func(t *testing.T) {
		f := newFixture(t)

		_, rpcErr := f.svc.Cancel(CancelParams{ID: "tx404", Reason: 3})
		require.NotNil(t, rpcErr)
		assert.Equal(t, CodeTransactionNotFound, rpcErr.Code)
	})
}

// --- CheckTransaction ---

func TestCheck(t *testing.T) {
	t.Run("returns the full descriptor", func(t *testing.T) {
		f := newFixture(t)
		f.addOrder(t, "ORD-1", 15_000_000)

		createTime := f.clock.UnixMilli()
		_, rpcErr := f.svc.Create(createParams("tx1", "ORD-1", 15_000_000, createTime))
		require.Nil(t, rpcErr)

		res, rpcErr := f.svc.Check(CheckParams{ID: "tx1"})
		require.Nil(t, rpcErr)

		m := res.(map[string]any)
		assert.Equal(t, createTime, m["create_time"])
		assert.Equal(t, int64(0), m["perform_time"])
		assert.Equal(t, int64(0), m["cancel_time"])
		assert.Equal(t, int(domain.StateCreated), m["state"])
		assert.Nil(t, m["reason"])
	})

	t.Run("reason appears after cancellation", func(t *testing.T) {
		f := newFixture(t)
		f.addOrder(t, "ORD-1", 15_000_000)

		_, rpcErr := f.svc.Create(createParams("tx1", "ORD-1", 15_000_000, f.clock.UnixMilli()))
		require.Nil(t, rpcErr)
		_, rpcErr = f.svc.Cancel(CancelParams{ID: "tx1", Reason: 3})
		require.Nil(t, rpcErr)

		res, rpcErr := f.svc.Check(CheckParams{ID: "tx1"})
		require.Nil(t, rpcErr)
		assert.Equal(t, 3, res.(map[string]any)["reason"])
	})

	t.Run("unknown transaction", func(t *testing.T) {
		f := newFixture(t)

		_, rpcErr := f.svc.Check(CheckParams{ID: "tx404"})
		require.NotNil(t, rpcErr)
		assert.Equal(t, CodeTransactionNotFound, rpcErr.Code)
	})
}

// Full happy-path lifecycle for one order.
func TestPaymentLifecycle(t *testing.T) {
	f := newFixture(t)
	f.addOrder(t, "ORD-1", 15_000_000)

	createTime := f.clock.UnixMilli()
	res, rpcErr := f.svc.Create(createParams("tx1", "ORD-1", 15_000_000, createTime))
	require.Nil(t, rpcErr)
	m := res.(map[string]any)
	assert.Equal(t, int(domain.StateCreated), m["state"])
	assert.Equal(t, createTime, m["create_time"])

	f.advance(5 * time.Minute)
	res, rpcErr = f.svc.Perform(PerformParams{ID: "tx1"})
	require.Nil(t, rpcErr)
	m = res.(map[string]any)
	assert.Equal(t, int(domain.StatePerformed), m["state"])
	assert.Equal(t, f.clock.UnixMilli(), m["perform_time"])

	assert.Equal(t, domain.OrderCompleted, f.orderStatus(t, "ORD-1"))
	assert.Equal(t, []string{
		"ORD-1:pending>processing",
		"ORD-1:processing>completed",
	}, f.notifier.all())
}
