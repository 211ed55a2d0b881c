package domain

// TransactionState follows the Payme merchant API state codes.
type TransactionState int

const (
	StateCreated               TransactionState = 1
	StatePerformed             TransactionState = 2
	StateCancelled             TransactionState = -1
	StateCancelledAfterPerform TransactionState = -2
)

// Terminal reports whether no further transition except idempotent replay is
// allowed from this state.
func (s TransactionState) Terminal() bool {
	return s == StateCancelled || s == StateCancelledAfterPerform
}

// Cancel reason codes defined by the Payme merchant API.
const (
	ReasonTimeout = 4
	ReasonRefund  = 5
)

// TimeoutMillis is the absolute deadline for a created transaction to be
// performed, per the Payme merchant API (12 hours).
const TimeoutMillis = 43_200_000

// Transaction is one entry in the payment ledger. PaymeID is the opaque id
// assigned by the gateway and is the correlation key for every callback
// method; ID is ours and is what the gateway sees as "transaction" in
// responses. Times are epoch milliseconds, zero until the corresponding
// transition fires. CreateTime comes from the gateway request, not our
// clock, so timeout checks stay stable across gateway retries.
type Transaction struct {
	ID          string           `json:"id"`
	PaymeID     string           `json:"payme_id"`
	OrderNumber string           `json:"order_number"`
	Amount      int64            `json:"amount"`
	State       TransactionState `json:"state"`
	CreateTime  int64            `json:"create_time"`
	PerformTime int64            `json:"perform_time"`
	CancelTime  int64            `json:"cancel_time"`
	Reason      int              `json:"reason"`
	Account     string           `json:"account,omitempty"`
}

// Expired reports whether a transaction still in StateCreated has passed the
// 12-hour deadline at the given wall-clock instant (epoch ms).
func (t *Transaction) Expired(nowMillis int64) bool {
	return t.State == StateCreated && nowMillis-t.CreateTime > TimeoutMillis
}
