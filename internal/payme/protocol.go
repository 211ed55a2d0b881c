// Package payme implements the Payme merchant API callback protocol:
// a JSON-RPC style envelope over HTTP POST driving the payment transaction
// state machine. See https://developer.help.paycom.uz/
package payme

import (
	"encoding/json"
	"fmt"
)

// Error codes the gateway interprets to decide whether to retry. These must
// match the merchant API exactly.
const (
	CodeParseError            = -32700
	CodeMethodNotFound        = -32601
	CodeInsufficientPrivilege = -32504
	CodeWrongAmount           = -31001
	CodeTransactionNotFound   = -31003
	CodeCannotPerform         = -31008
	CodeOrderNotFound         = -31050
)

// Error is the JSON-RPC error object returned to the gateway.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("payme error %d: %s", e.Code, e.Message)
}

func newError(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Request is the inbound callback envelope.
type Request struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
	ID     any             `json:"id"`
}

// Response carries either a result or an error, echoing the request id.
type Response struct {
	Result any    `json:"result,omitempty"`
	Error  *Error `json:"error,omitempty"`
	ID     any    `json:"id,omitempty"`
}

// Account identifies the order being paid for.
type Account struct {
	OrderID string `json:"order_id"`
}

type CheckPerformParams struct {
	Amount  int64   `json:"amount"`
	Account Account `json:"account"`
}

type CreateParams struct {
	ID      string  `json:"id"`
	Time    int64   `json:"time"`
	Amount  int64   `json:"amount"`
	Account Account `json:"account"`
}

type PerformParams struct {
	ID string `json:"id"`
}

type CancelParams struct {
	ID     string `json:"id"`
	Reason int    `json:"reason"`
}

type CheckParams struct {
	ID string `json:"id"`
}
