package endpoint

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dmitrijs2005/chatex/pkg/chatex/coin"
	"github.com/dmitrijs2005/chatex/pkg/chatex/models"
	"github.com/dmitrijs2005/chatex/pkg/chatex/transport"
)

const (
	segExchange = "exchange"
	segOrders   = "orders"
	segTrades   = "trades"
	segMy       = "my"
)

type Exchange struct {
	base BaseContext
}

func NewExchange(base BaseContext) *Exchange {
	return &Exchange{base: base}
}

func (e *Exchange) orders(extra ...string) *url.URL {
	return e.base.URL(append([]string{segExchange, segOrders}, extra...)...)
}

// Orders is GET /exchange/orders?pair=&offset=&limit=.
func (e *Exchange) Orders(token string, pair coin.Pair, page models.Page) (transport.Request, error) {
	if pair.Left == "" || pair.Right == "" {
		return transport.Request{}, errors.New("pair is required")
	}
	q := url.Values{}
	q.Set("pair", pair.String())
	setPage(q, page)
	return get(token, withQuery(e.orders(), q)), nil
}

// PostOrder is POST /exchange/orders.
func (e *Exchange) PostOrder(token string, order models.OrderRequest) (transport.Request, error) {
	if order.Pair.Left == "" || order.Pair.Right == "" {
		return transport.Request{}, errors.New("pair is required")
	}
	return withJSON(http.MethodPost, token, e.orders(), order)
}

// MyOrders is GET /exchange/orders/my.
func (e *Exchange) MyOrders(token string, f models.OrderFilter) transport.Request {
	q := url.Values{}
	if !f.Pair.IsZero() {
		q.Set("pair", f.Pair.String())
	}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	setPage(q, f.Page)
	return get(token, withQuery(e.orders(segMy), q))
}

// Trades is GET /exchange/orders/trades.
func (e *Exchange) Trades(token string, f models.TradeFilter) transport.Request {
	q := url.Values{}
	if f.OrderID > 0 {
		q.Set("order_id", strconv.FormatInt(f.OrderID, 10))
	}
	setPage(q, f.Page)
	return get(token, withQuery(e.orders(segTrades), q))
}

// TradeByID is GET /exchange/orders/trades/{id}.
func (e *Exchange) TradeByID(token, id string) (transport.Request, error) {
	if err := requireID("trade", id); err != nil {
		return transport.Request{}, err
	}
	return get(token, e.orders(segTrades, id)), nil
}

// OrderByID is GET /exchange/orders/{id}.
func (e *Exchange) OrderByID(token, id string) (transport.Request, error) {
	if err := requireID("order", id); err != nil {
		return transport.Request{}, err
	}
	return get(token, e.orders(id)), nil
}

// UpdateOrderByID is PUT /exchange/orders/{id}.
func (e *Exchange) UpdateOrderByID(token, id string, update models.UpdateOrder) (transport.Request, error) {
	if err := requireID("order", id); err != nil {
		return transport.Request{}, err
	}
	if update.Amount == "" && update.Rate == "" {
		return transport.Request{}, errors.New("nothing to update")
	}
	return withJSON(http.MethodPut, token, e.orders(id), update)
}

// DeleteOrderByID is DELETE /exchange/orders/{id}.
func (e *Exchange) DeleteOrderByID(token, id string) (transport.Request, error) {
	if err := requireID("order", id); err != nil {
		return transport.Request{}, err
	}
	return newRequest(http.MethodDelete, token, e.orders(id)), nil
}

// ActivateOrderByID is PUT /exchange/orders/{id}/activate.
func (e *Exchange) ActivateOrderByID(token, id string) (transport.Request, error) {
	if err := requireID("order", id); err != nil {
		return transport.Request{}, err
	}
	return newRequest(http.MethodPut, token, e.orders(id, "activate")), nil
}

// DeactivateOrderByID is PUT /exchange/orders/{id}/deactivate.
func (e *Exchange) DeactivateOrderByID(token, id string) (transport.Request, error) {
	if err := requireID("order", id); err != nil {
		return transport.Request{}, err
	}
	return newRequest(http.MethodPut, token, e.orders(id, "deactivate")), nil
}

// CreateTradeForOrder is POST /exchange/orders/{id}/trades.
func (e *Exchange) CreateTradeForOrder(token, id string, trade models.CreateTradeRequest) (transport.Request, error) {
	if err := requireID("order", id); err != nil {
		return transport.Request{}, err
	}
	if trade.Amount == "" {
		return transport.Request{}, errors.New("trade amount is required")
	}
	return withJSON(http.MethodPost, token, e.orders(id, segTrades), trade)
}
