package payme

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, *fixture) {
	t.Helper()
	f := newFixture(t)
	d := NewDispatcher(f.svc, Credentials{
		MerchantID:   "merchant-1",
		Key:          "secret-key",
		SandboxLogin: "Paycom",
	}, zerolog.Nop())
	return d, f
}

func basicAuth(login, key string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(login+":"+key))
}

func callRaw(t *testing.T, d *Dispatcher, auth, body string) Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/payme/callback", strings.NewReader(body))
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	d.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, "gateway responses are always HTTP 200")

	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func call(t *testing.T, d *Dispatcher, method string, params any, id any) Response {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"method": method,
		"params": params,
		"id":     id,
	})
	require.NoError(t, err)
	return callRaw(t, d, basicAuth("merchant-1", "secret-key"), string(bytes.TrimSpace(body)))
}

func TestDispatcherAuth(t *testing.T) {
	t.Run("missing header", func(t *testing.T) {
		d, _ := newTestDispatcher(t)
		resp := callRaw(t, d, "", `{"method":"CheckTransaction","params":{"id":"x"},"id":1}`)
		require.NotNil(t, resp.Error)
		assert.Equal(t, CodeInsufficientPrivilege, resp.Error.Code)
	})

	t.Run("wrong key", func(t *testing.T) {
		d, _ := newTestDispatcher(t)
		resp := callRaw(t, d, basicAuth("merchant-1", "wrong"), `{}`)
		require.NotNil(t, resp.Error)
		assert.Equal(t, CodeInsufficientPrivilege, resp.Error.Code)
	})

	t.Run("wrong login", func(t *testing.T) {
		d, _ := newTestDispatcher(t)
		resp := callRaw(t, d, basicAuth("intruder", "secret-key"), `{}`)
		require.NotNil(t, resp.Error)
		assert.Equal(t, CodeInsufficientPrivilege, resp.Error.Code)
	})

	t.Run("sandbox login accepted", func(t *testing.T) {
		d, f := newTestDispatcher(t)
		f.addOrder(t, "ORD-1", 1000)

		resp := callRaw(t, d, basicAuth("Paycom", "secret-key"),
			`{"method":"CheckPerformTransaction","params":{"amount":1000,"account":{"order_id":"ORD-1"}},"id":7}`)
		require.Nil(t, resp.Error)
	})

	t.Run("auth failure causes no side effects", func(t *testing.T) {
		d, f := newTestDispatcher(t)
		f.addOrder(t, "ORD-1", 1000)

		callRaw(t, d, basicAuth("merchant-1", "wrong"),
			`{"method":"CreateTransaction","params":{"id":"tx1","time":1,"amount":1000,"account":{"order_id":"ORD-1"}},"id":1}`)

		_, err := f.txns.GetByPaymeID("tx1")
		assert.Error(t, err, "no transaction may be created on auth failure")
	})
}

func TestDispatcherEnvelope(t *testing.T) {
	t.Run("malformed body", func(t *testing.T) {
		d, _ := newTestDispatcher(t)
		resp := callRaw(t, d, basicAuth("merchant-1", "secret-key"), `{not json`)
		require.NotNil(t, resp.Error)
		assert.Equal(t, CodeParseError, resp.Error.Code)
	})

	t.Run("unknown method echoes id", func(t *testing.T) {
		d, _ := newTestDispatcher(t)
		resp := call(t, d, "ExplodeTransaction", map[string]any{}, 42)
		require.NotNil(t, resp.Error)
		assert.Equal(t, CodeMethodNotFound, resp.Error.Code)
		assert.Equal(t, float64(42), resp.ID)
	})

	t.Run("result echoes id", func(t *testing.T) {
		d, f := newTestDispatcher(t)
		f.addOrder(t, "ORD-1", 1000)

		resp := call(t, d, "CheckPerformTransaction",
			CheckPerformParams{Amount: 1000, Account: Account{OrderID: "ORD-1"}}, "req-9")
		require.Nil(t, resp.Error)
		assert.Equal(t, "req-9", resp.ID)

		result := resp.Result.(map[string]any)
		assert.Equal(t, true, result["allow"])
	})

	t.Run("change password acknowledged", func(t *testing.T) {
		d, _ := newTestDispatcher(t)
		resp := call(t, d, "ChangePassword", map[string]any{"password": "x"}, 1)
		require.Nil(t, resp.Error)
		assert.Equal(t, true, resp.Result.(map[string]any)["success"])
	})
}

func TestDispatcherLifecycleOverHTTP(t *testing.T) {
	d, f := newTestDispatcher(t)
	f.addOrder(t, "ORD-1", 15_000_000)

	createTime := f.clock.UnixMilli()
	resp := call(t, d, "CreateTransaction",
		CreateParams{ID: "tx1", Time: createTime, Amount: 15_000_000,
			Account: Account{OrderID: "ORD-1"}}, 1)
	require.Nil(t, resp.Error)
	result := resp.Result.(map[string]any)
	assert.Equal(t, float64(1), result["state"])
	assert.Equal(t, float64(createTime), result["create_time"])

	resp = call(t, d, "PerformTransaction", PerformParams{ID: "tx1"}, 2)
	require.Nil(t, resp.Error)
	result = resp.Result.(map[string]any)
	assert.Equal(t, float64(2), result["state"])

	resp = call(t, d, "CheckTransaction", CheckParams{ID: "tx1"}, 3)
	require.Nil(t, resp.Error)
	result = resp.Result.(map[string]any)
	assert.Equal(t, float64(2), result["state"])
	assert.NotEmpty(t, result["transaction"])
}
