package payme

import (
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

var rpcRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "payme_rpc_requests_total",
		Help: "Payme callback requests by method and outcome.",
	},
	[]string{"method", "outcome"},
)

func init() {
	prometheus.MustRegister(rpcRequests)
}

// Credentials are the merchant API credentials the gateway authenticates
// with. The sandbox sends SandboxLogin in place of the merchant id.
type Credentials struct {
	MerchantID   string
	Key          string
	SandboxLogin string
}

// Dispatcher terminates the callback endpoint: it authenticates the caller,
// decodes the envelope and routes the method to the state machine. The
// credential check runs before any parameter parsing touches state.
type Dispatcher struct {
	svc   *Service
	creds Credentials
	log   zerolog.Logger
}

func NewDispatcher(svc *Service, creds Credentials, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{svc: svc, creds: creds, log: log}
}

// ServeHTTP handles POST /api/payme/callback. Every outcome, including
// errors, is an HTTP 200 with a JSON-RPC body; the gateway reads only the
// embedded code.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !d.authorized(r.Header.Get("Authorization")) {
		rpcRequests.WithLabelValues("unknown", "auth_failure").Inc()
		writeResponse(w, Response{Error: newError(CodeInsufficientPrivilege,
			"Insufficient privilege to perform this method")})
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rpcRequests.WithLabelValues("unknown", "parse_error").Inc()
		writeResponse(w, Response{Error: newError(CodeParseError, "Parse error")})
		return
	}

	result, rpcErr := d.dispatch(req)

	outcome := "ok"
	if rpcErr != nil {
		outcome = "error"
	}
	rpcRequests.WithLabelValues(req.Method, outcome).Inc()

	if rpcErr != nil {
		d.log.Warn().Str("method", req.Method).Int("code", rpcErr.Code).
			Str("message", rpcErr.Message).Msg("payme rpc error")
		writeResponse(w, Response{Error: rpcErr, ID: req.ID})
		return
	}
	writeResponse(w, Response{Result: result, ID: req.ID})
}

func (d *Dispatcher) dispatch(req Request) (any, *Error) {
	switch req.Method {
	case "CheckPerformTransaction":
		var p CheckPerformParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return nil, newError(CodeParseError, "Parse error")
		}
		return d.svc.CheckPerform(p)

	case "CreateTransaction":
		var p CreateParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return nil, newError(CodeParseError, "Parse error")
		}
		return d.svc.Create(p)

	case "PerformTransaction":
		var p PerformParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return nil, newError(CodeParseError, "Parse error")
		}
		return d.svc.Perform(p)

	case "CancelTransaction":
		var p CancelParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return nil, newError(CodeParseError, "Parse error")
		}
		return d.svc.Cancel(p)

	case "CheckTransaction":
		var p CheckParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return nil, newError(CodeParseError, "Parse error")
		}
		return d.svc.Check(p)

	case "ChangePassword":
		// The sandbox probes this; the key is managed in the merchant
		// cabinet, so just acknowledge.
		return map[string]any{"success": true}, nil

	default:
		return nil, newError(CodeMethodNotFound, "Method not found")
	}
}

// authorized verifies the Basic credential against the configured merchant
// id (or the sandbox login) and key.
func (d *Dispatcher) authorized(header string) bool {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Basic" {
		return false
	}

	decoded, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return false
	}
	login, key, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return false
	}

	validLogin := login == d.creds.MerchantID || login == d.creds.SandboxLogin
	validKey := subtle.ConstantTimeCompare([]byte(key), []byte(d.creds.Key)) == 1
	return validLogin && validKey
}

func writeResponse(w http.ResponseWriter, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}
