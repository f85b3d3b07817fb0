package sandbox

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/chatex/pkg/chatex/models"
	"github.com/dmitrijs2005/chatex/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestServer(t *testing.T, mutate func(*Config)) (*Server, *httptest.Server, *testClock) {
	t.Helper()
	clk := &testClock{t: time.Unix(1_700_000_000, 0)}
	cfg := &Config{}
	cfg.LoadDefaults()
	cfg.Now = clk.Now
	if mutate != nil {
		mutate(cfg)
	}
	s := New(cfg, logging.NewNop())
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts, clk
}

func call(t *testing.T, ts *httptest.Server, method, path, token string, body any) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, ts.URL+path, r)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, b
}

func login(t *testing.T, ts *httptest.Server) models.AccessToken {
	t.Helper()
	status, body := call(t, ts, http.MethodPost, "/auth/access-token", "sandbox-secret", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	var tok models.AccessToken
	require.NoError(t, json.Unmarshal(body, &tok))
	return tok
}

func decode[T any](t *testing.T, b []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(b, &v), string(b))
	return v
}

func TestAccessToken(t *testing.T) {
	s, ts, clk := newTestServer(t, nil)

	status, _ := call(t, ts, http.MethodPost, "/auth/access-token", "wrong", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = call(t, ts, http.MethodPost, "/auth/access-token", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, int64(0), s.TokensIssued())

	tok := login(t, ts)
	assert.NotEmpty(t, tok.AccessToken)
	assert.Equal(t, clk.Now().Add(15*time.Minute).Unix(), tok.ExpiresAt)
	assert.Equal(t, int64(1), s.TokensIssued())

	assert.NotEqual(t, tok.AccessToken, login(t, ts).AccessToken)
}

func TestRequireAccessToken(t *testing.T) {
	_, ts, clk := newTestServer(t, nil)

	status, _ := call(t, ts, http.MethodGet, "/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = call(t, ts, http.MethodGet, "/me", "sandbox-secret", nil)
	assert.Equal(t, http.StatusUnauthorized, status, "the API secret is not an access token")

	tok := login(t, ts)
	status, body := call(t, ts, http.MethodGet, "/me", tok.AccessToken, nil)
	require.Equal(t, http.StatusOK, status)
	info := decode[models.BasicInfo](t, body)
	assert.Equal(t, OwnerID, info.ID)
	assert.Nil(t, info.MerchantInfo)

	clk.Advance(15 * time.Minute)
	status, _ = call(t, ts, http.MethodGet, "/me", tok.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestProfileAndCoins(t *testing.T) {
	_, ts, _ := newTestServer(t, nil)
	tok := login(t, ts).AccessToken

	status, body := call(t, ts, http.MethodGet, "/me/balance", tok, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[models.Balance](t, body), 3)

	status, body = call(t, ts, http.MethodGet, "/coins", tok, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[models.Coins](t, body), 10)

	status, body = call(t, ts, http.MethodGet, "/coins/ton_crystal", tok, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, models.Coin{Decimals: 9, FullName: "TON Crystal", Name: "ton_crystal"}, decode[models.Coin](t, body))

	status, _ = call(t, ts, http.MethodGet, "/coins/doge", tok, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestOrders(t *testing.T) {
	_, ts, _ := newTestServer(t, nil)
	tok := login(t, ts).AccessToken

	status, _ := call(t, ts, http.MethodGet, "/exchange/orders", tok, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body := call(t, ts, http.MethodGet, "/exchange/orders?pair=btc/usdt&offset=0&limit=50", tok, nil)
	require.Equal(t, http.StatusOK, status)
	market := decode[models.Orders](t, body)
	require.Len(t, market, 2)
	assert.Equal(t, "60000", market[0].Rate)

	status, body = call(t, ts, http.MethodGet, "/exchange/orders?pair=btc/usdt&offset=1&limit=1", tok, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, market[1].ID, decode[models.Orders](t, body)[0].ID)

	status, _ = call(t, ts, http.MethodGet, "/exchange/orders?pair=btc/usdt&limit=x", tok, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = call(t, ts, http.MethodPost, "/exchange/orders", tok,
		map[string]string{"pair": "btc/usdt", "amount": "0.25", "rate": "61000"})
	require.Equal(t, http.StatusCreated, status, string(body))
	mine := decode[models.Order](t, body)
	assert.Equal(t, models.OrderStatusActive, mine.Status)
	assert.Equal(t, "0.25", mine.InitialAmount)

	status, _ = call(t, ts, http.MethodPost, "/exchange/orders", tok,
		map[string]string{"pair": "btc/usdt", "amount": "-1", "rate": "61000"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = call(t, ts, http.MethodPost, "/exchange/orders", tok,
		map[string]string{"amount": "1", "rate": "1"})
	assert.Equal(t, http.StatusBadRequest, status)

	id := fmt.Sprint(mine.ID)

	status, body = call(t, ts, http.MethodGet, "/exchange/orders/my?status=active", tok, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[models.Orders](t, body), 1)

	status, body = call(t, ts, http.MethodPut, "/exchange/orders/"+id, tok, map[string]string{"rate": "62000"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "62000", decode[models.Order](t, body).Rate)

	status, body = call(t, ts, http.MethodPut, "/exchange/orders/"+id+"/deactivate", tok, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, models.OrderStatusInactive, decode[models.Order](t, body).Status)

	status, body = call(t, ts, http.MethodPut, "/exchange/orders/"+id+"/activate", tok, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, models.OrderStatusActive, decode[models.Order](t, body).Status)

	status, _ = call(t, ts, http.MethodPut, "/exchange/orders/1", tok, map[string]string{"rate": "1"})
	assert.Equal(t, http.StatusForbidden, status, "market orders belong to another account")

	status, _ = call(t, ts, http.MethodPost, "/exchange/orders/"+id+"/trades", tok, map[string]string{"amount": "0.1"})
	assert.Equal(t, http.StatusForbidden, status, "trading against an own order")

	status, _ = call(t, ts, http.MethodDelete, "/exchange/orders/"+id, tok, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = call(t, ts, http.MethodGet, "/exchange/orders/"+id, tok, nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = call(t, ts, http.MethodGet, "/exchange/orders/abc", tok, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestTrades(t *testing.T) {
	_, ts, _ := newTestServer(t, nil)
	tok := login(t, ts).AccessToken

	status, body := call(t, ts, http.MethodPost, "/exchange/orders/1/trades", tok, map[string]string{"amount": "0.2"})
	require.Equal(t, http.StatusCreated, status, string(body))
	tr := decode[models.Trade](t, body)
	assert.Equal(t, int64(1), tr.OrderID)
	assert.Equal(t, "0.2", tr.Amount)
	assert.Equal(t, models.TradeStatusCompleted, tr.Status)

	status, body = call(t, ts, http.MethodGet, "/exchange/orders/1", tok, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "0.3", decode[models.Order](t, body).Amount)

	status, _ = call(t, ts, http.MethodPost, "/exchange/orders/1/trades", tok, map[string]string{"amount": "1"})
	assert.Equal(t, http.StatusUnprocessableEntity, status, "more than available")

	status, _ = call(t, ts, http.MethodPost, "/exchange/orders/1/trades", tok, map[string]string{"amount": "0.1", "rate": "1"})
	assert.Equal(t, http.StatusUnprocessableEntity, status, "rate mismatch")

	status, body = call(t, ts, http.MethodPost, "/exchange/orders/1/trades", tok, map[string]string{"amount": "0.3"})
	require.Equal(t, http.StatusCreated, status)
	status, body = call(t, ts, http.MethodGet, "/exchange/orders/1", tok, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, models.OrderStatusCompleted, decode[models.Order](t, body).Status)

	status, body = call(t, ts, http.MethodGet, "/exchange/orders/trades?order_id=1", tok, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[models.Trades](t, body), 2)

	status, body = call(t, ts, http.MethodGet, "/exchange/orders/trades?order_id=3", tok, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, decode[models.Trades](t, body))

	status, body = call(t, ts, http.MethodGet, "/exchange/orders/trades/"+fmt.Sprint(tr.ID), tok, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, tr.ID, decode[models.Trade](t, body).ID)

	status, _ = call(t, ts, http.MethodGet, "/exchange/orders/trades/999", tok, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestInvoicesAndPaymentSystems(t *testing.T) {
	_, ts, _ := newTestServer(t, nil)
	tok := login(t, ts).AccessToken

	status, body := call(t, ts, http.MethodGet, "/payment-system/estimate?coin=btc&fiat=EUR&amount=0.01", tok, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	est := decode[models.FiatEstimations](t, body)
	require.Len(t, est, 1)
	assert.Equal(t, models.PaymentSystemID(1), est[0].PaymentSystemID)
	// 0.01 * 60000 * 0.92 * 1.01
	assert.Equal(t, "557.52", est[0].FiatAmount)

	status, _ = call(t, ts, http.MethodGet, "/payment-system/estimate?coin=btc&fiat=XXXX&amount=1", tok, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, body = call(t, ts, http.MethodGet, "/payment-system/2", tok, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "GBP", decode[models.PaymentSystem](t, body).Fiat)

	status, _ = call(t, ts, http.MethodGet, "/payment-system/42", tok, nil)
	assert.Equal(t, http.StatusNotFound, status)

	create := models.CreateInvoice{
		Coin: "usdt", Amount: "100", Fiat: "USD", CountryCode: "US",
		PaymentSystemID: 3, LangID: "en",
	}
	status, body = call(t, ts, http.MethodPost, "/invoices", tok, create)
	require.Equal(t, http.StatusCreated, status, string(body))
	created := decode[models.Invoices](t, body)
	require.Len(t, created, 1)
	inv := created[0]
	assert.NotEmpty(t, inv.ID)
	assert.Equal(t, "103.50", inv.FiatAmount)
	assert.Equal(t, models.InvoiceStatusActive, inv.Status)

	create.PaymentSystemID = 1
	status, _ = call(t, ts, http.MethodPost, "/invoices", tok, create)
	assert.Equal(t, http.StatusUnprocessableEntity, status, "fiat does not match payment system")

	status, body = call(t, ts, http.MethodGet, "/invoices/"+inv.ID, tok, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, inv.ID, decode[models.Invoice](t, body).ID)

	status, _ = call(t, ts, http.MethodGet, "/invoices/unknown", tok, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = call(t, ts, http.MethodGet, "/invoices?coins=usdt,btc&status=ACTIVE&offset=0&limit=50", tok, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[models.Invoices](t, body), 1)

	status, body = call(t, ts, http.MethodGet, "/invoices?fiat=EUR", tok, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, decode[models.Invoices](t, body))

	status, _ = call(t, ts, http.MethodGet, "/invoices?date_start=yesterday", tok, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestRateLimit(t *testing.T) {
	_, ts, clk := newTestServer(t, func(c *Config) {
		c.RateLimit = 0.5
		c.RateBurst = 2
	})
	tok := login(t, ts).AccessToken

	for i := 0; i < 2; i++ {
		status, _ := call(t, ts, http.MethodGet, "/me", tok, nil)
		require.Equal(t, http.StatusOK, status)
	}

	status, body := call(t, ts, http.MethodGet, "/me", tok, nil)
	require.Equal(t, http.StatusTooManyRequests, status)
	assert.JSONEq(t, `{"retryAfter":2}`, string(body))

	other := login(t, ts).AccessToken
	status, _ = call(t, ts, http.MethodGet, "/me", other, nil)
	assert.Equal(t, http.StatusOK, status, "limits are per token")

	clk.Advance(2 * time.Second)
	status, _ = call(t, ts, http.MethodGet, "/me", tok, nil)
	assert.Equal(t, http.StatusOK, status)
}
