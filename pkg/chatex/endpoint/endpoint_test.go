package endpoint

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/dmitrijs2005/chatex/pkg/chatex/coin"
	"github.com/dmitrijs2005/chatex/pkg/chatex/models"
	"github.com/dmitrijs2005/chatex/pkg/chatex/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
)

func mustBase(t *testing.T, raw string) BaseContext {
	t.Helper()
	b, err := NewBaseContext(raw)
	require.NoError(t, err)
	return b
}

func parseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func assertAuthorized(t *testing.T, req transport.Request, token string) {
	t.Helper()
	assert.Equal(t, "Bearer "+token, req.Header.Get(transport.HeaderAuthorization))
	assert.Equal(t, transport.MIMEApplicationJSON, req.Header.Get(transport.HeaderAccept))
}

func TestNewBaseContext(t *testing.T) {
	_, err := NewBaseContext("ftp://example.com")
	require.ErrorIs(t, err, ErrInvalidBaseURL)

	_, err = NewBaseContext("/relative")
	require.ErrorIs(t, err, ErrInvalidBaseURL)

	b := mustBase(t, "https://api.chatex.com/v1/?x=1")
	assert.Equal(t, "https://api.chatex.com/v1/", b.String())
}

func TestBaseContext_URL_AppendsEscapedSegments(t *testing.T) {
	b := mustBase(t, "https://api.chatex.com/v1/")

	assert.Equal(t, "https://api.chatex.com/v1/auth/access-token", b.URL("auth", "access-token").String())
	assert.Equal(t, "https://api.chatex.com/v1/invoices/a%2Fb", b.URL("invoices", "a/b").String())

	u := b.URL("me")
	u.Path = "/changed"
	assert.Equal(t, "https://api.chatex.com/v1/me", b.URL("me").String(), "base must not be mutated")
}

func TestProfile_AccessTokenCarriesSecretOnly(t *testing.T) {
	base := mustBase(t, "http://localhost:8080")
	p := NewProfile(base)
	api := NewApiContext(base, "SECRET")

	req := p.AccessToken(api)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "http://localhost:8080/auth/access-token", req.URL)
	assertAuthorized(t, req, "SECRET")
	assert.Empty(t, req.Body)
	assert.Empty(t, req.Header.Get(transport.HeaderContentType))

	me := p.Me("TOKEN")
	assert.Equal(t, http.MethodGet, me.Method)
	assert.Equal(t, "http://localhost:8080/me", me.URL)
	assertAuthorized(t, me, "TOKEN")

	bal := p.Balance("TOKEN")
	assert.Equal(t, "http://localhost:8080/me/balance", bal.URL)
}

func TestCoin_Endpoints(t *testing.T) {
	c := NewCoin(mustBase(t, "http://h"))

	assert.Equal(t, "http://h/coins", c.Coins("T").URL)

	req, err := c.Coin("T", coin.TON)
	require.NoError(t, err)
	assert.Equal(t, "http://h/coins/ton_crystal", req.URL)

	_, err = c.Coin("T", "")
	require.Error(t, err)
}

func TestExchange_Orders_DefaultsPagination(t *testing.T) {
	e := NewExchange(mustBase(t, "http://h"))

	req, err := e.Orders("T", coin.NewPair(coin.BTC, coin.USDT), models.Page{})
	require.NoError(t, err)

	u := parseURL(t, req.URL)
	assert.Equal(t, "/exchange/orders", u.Path)
	assert.Equal(t, "btc/usdt", u.Query().Get("pair"))
	assert.Equal(t, "0", u.Query().Get("offset"))
	assert.Equal(t, "50", u.Query().Get("limit"))
	assertAuthorized(t, req, "T")

	_, err = e.Orders("T", coin.Pair{}, models.Page{})
	require.Error(t, err)
}

func TestExchange_PostOrder_Body(t *testing.T) {
	e := NewExchange(mustBase(t, "http://h"))

	req, err := e.PostOrder("T", models.OrderRequest{
		Pair:   coin.NewPair("test", "test"),
		Amount: "37",
		Rate:   "13",
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "http://h/exchange/orders", req.URL)
	assert.Equal(t, transport.MIMEApplicationJSON, req.Header.Get(transport.HeaderContentType))
	assert.JSONEq(t, `{"pair":"test/test","amount":"37","rate":"13"}`, string(req.Body))
}

func TestExchange_MyOrdersAndTrades(t *testing.T) {
	e := NewExchange(mustBase(t, "http://h"))

	req := e.MyOrders("T", models.OrderFilter{
		Pair:   coin.NewPair(coin.ETH, coin.BTC),
		Status: models.OrderStatusActive,
		Page:   models.Page{Offset: 10, Limit: 5},
	})
	u := parseURL(t, req.URL)
	assert.Equal(t, "/exchange/orders/my", u.Path)
	assert.Equal(t, "eth/btc", u.Query().Get("pair"))
	assert.Equal(t, "ACTIVE", u.Query().Get("status"))
	assert.Equal(t, "10", u.Query().Get("offset"))
	assert.Equal(t, "5", u.Query().Get("limit"))

	req = e.MyOrders("T", models.OrderFilter{})
	u = parseURL(t, req.URL)
	assert.False(t, u.Query().Has("pair"))
	assert.False(t, u.Query().Has("status"))

	req = e.Trades("T", models.TradeFilter{OrderID: 42})
	u = parseURL(t, req.URL)
	assert.Equal(t, "/exchange/orders/trades", u.Path)
	assert.Equal(t, "42", u.Query().Get("order_id"))

	req = e.Trades("T", models.TradeFilter{})
	assert.False(t, parseURL(t, req.URL).Query().Has("order_id"))

	req, err := e.TradeByID("T", "7")
	require.NoError(t, err)
	assert.Equal(t, "http://h/exchange/orders/trades/7", req.URL)
}

func TestExchange_OrderByIDFamily(t *testing.T) {
	e := NewExchange(mustBase(t, "http://h"))

	tests := []struct {
		name   string
		build  func() (transport.Request, error)
		method string
		url    string
		body   string
	}{
		{
			name:   "get",
			build:  func() (transport.Request, error) { return e.OrderByID("T", "9") },
			method: http.MethodGet,
			url:    "http://h/exchange/orders/9",
		},
		{
			name: "update",
			build: func() (transport.Request, error) {
				return e.UpdateOrderByID("T", "9", models.UpdateOrder{Rate: "2.5"})
			},
			method: http.MethodPut,
			url:    "http://h/exchange/orders/9",
			body:   `{"rate":"2.5"}`,
		},
		{
			name:   "delete",
			build:  func() (transport.Request, error) { return e.DeleteOrderByID("T", "9") },
			method: http.MethodDelete,
			url:    "http://h/exchange/orders/9",
		},
		{
			name:   "activate",
			build:  func() (transport.Request, error) { return e.ActivateOrderByID("T", "9") },
			method: http.MethodPut,
			url:    "http://h/exchange/orders/9/activate",
		},
		{
			name:   "deactivate",
			build:  func() (transport.Request, error) { return e.DeactivateOrderByID("T", "9") },
			method: http.MethodPut,
			url:    "http://h/exchange/orders/9/deactivate",
		},
		{
			name: "trade",
			build: func() (transport.Request, error) {
				return e.CreateTradeForOrder("T", "9", models.CreateTradeRequest{Amount: "1", Rate: "3"})
			},
			method: http.MethodPost,
			url:    "http://h/exchange/orders/9/trades",
			body:   `{"amount":"1","rate":"3"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := tt.build()
			require.NoError(t, err)
			assert.Equal(t, tt.method, req.Method)
			assert.Equal(t, tt.url, req.URL)
			assertAuthorized(t, req, "T")
			if tt.body != "" {
				assert.JSONEq(t, tt.body, string(req.Body))
			} else {
				assert.Empty(t, req.Body)
			}
		})
	}
}

func TestExchange_RejectsEmptyIDs(t *testing.T) {
	e := NewExchange(mustBase(t, "http://h"))

	_, err := e.OrderByID("T", "")
	require.Error(t, err)
	_, err = e.TradeByID("T", "")
	require.Error(t, err)
	_, err = e.UpdateOrderByID("T", "1", models.UpdateOrder{})
	require.Error(t, err)
	_, err = e.CreateTradeForOrder("T", "1", models.CreateTradeRequest{})
	require.Error(t, err)
}

func TestInvoice_Invoices_QueryEncoding(t *testing.T) {
	i := NewInvoice(mustBase(t, "http://h"))

	start := time.Date(2021, 1, 2, 3, 4, 5, 0, time.FixedZone("EET", 2*3600))
	req := i.Invoices("T", models.InvoiceFilter{
		Coins:            []coin.Coin{coin.BTC, coin.ETH},
		Fiat:             []currency.Unit{currency.USD, currency.EUR},
		CountryCodes:     []language.Region{language.MustParseRegion("US"), language.MustParseRegion("EE")},
		PaymentSystemIDs: []models.PaymentSystemID{1, 22},
		LangIDs:          []language.Base{language.MustParseBase("en")},
		Statuses:         []models.InvoiceStatus{models.InvoiceStatusActive, models.InvoiceStatusExpired},
		DateStart:        start,
	})

	u := parseURL(t, req.URL)
	q := u.Query()
	assert.Equal(t, "/invoices", u.Path)
	assert.Equal(t, "btc,eth", q.Get("coins"))
	assert.Equal(t, "USD,EUR", q.Get("fiat"))
	assert.Equal(t, "US,EE", q.Get("country_code"))
	assert.Equal(t, "1,22", q.Get("payment_system_id"))
	assert.Equal(t, "en", q.Get("lang_id"))
	assert.Equal(t, "ACTIVE,EXPIRED", q.Get("status"))
	assert.Equal(t, "2021-01-02T01:04:05Z", q.Get("date_start"))
	assert.False(t, q.Has("date_end"))
	assert.Equal(t, "50", q.Get("limit"))
}

func TestInvoice_CreateAndGet(t *testing.T) {
	i := NewInvoice(mustBase(t, "http://h"))

	req, err := i.CreateInvoice("T", models.CreateInvoice{Coin: coin.BTC, Amount: "1", Fiat: "USD", PaymentSystemID: 2})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "http://h/invoices", req.URL)
	assert.Contains(t, string(req.Body), `"coin":"btc"`)

	req, err = i.InvoiceByID("T", "abc")
	require.NoError(t, err)
	assert.Equal(t, "http://h/invoices/abc", req.URL)

	_, err = i.InvoiceByID("T", "")
	require.Error(t, err)
}

func TestPaymentSystem_Endpoints(t *testing.T) {
	p := NewPaymentSystem(mustBase(t, "http://h"))

	req := p.Estimate("T", models.Estimate{Coin: coin.USDT, Fiat: "EUR", Amount: "100", CountryCode: "DE"})
	u := parseURL(t, req.URL)
	assert.Equal(t, "/payment-system/estimate", u.Path)
	assert.Equal(t, "usdt", u.Query().Get("coin"))
	assert.Equal(t, "EUR", u.Query().Get("fiat"))
	assert.Equal(t, "100", u.Query().Get("amount"))
	assert.Equal(t, "DE", u.Query().Get("country_code"))
	assert.False(t, u.Query().Has("lang_id"))

	req, err := p.PaymentSystemByID("T", 12)
	require.NoError(t, err)
	assert.Equal(t, "http://h/payment-system/12", req.URL)

	_, err = p.PaymentSystemByID("T", 0)
	require.Error(t, err)
}
