package chatex

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/dmitrijs2005/chatex/pkg/chatex/coin"
	"github.com/dmitrijs2005/chatex/pkg/chatex/endpoint"
	"github.com/dmitrijs2005/chatex/pkg/chatex/models"
	"github.com/dmitrijs2005/chatex/pkg/chatex/transport"
)

// ExchangeClient manages orders and trades.
type ExchangeClient struct {
	base     *clientBase
	exchange *endpoint.Exchange
}

// GetAllOrders lists the public order book of pair.
func (c *ExchangeClient) GetAllOrders(ctx context.Context, pair coin.Pair, page models.Page) (models.Orders, error) {
	return execute(ctx, c.base, c.exchange,
		func(token string, e *endpoint.Exchange) (transport.Request, error) {
			return e.Orders(token, pair, page)
		},
		decodeJSON[models.Orders])
}

// CreateOrderRaw places an order with amount and rate passed through as the
// decimal strings the API expects.
func (c *ExchangeClient) CreateOrderRaw(ctx context.Context, pair coin.Pair, amount, rate string) (models.Order, error) {
	if amount == "" || rate == "" {
		return models.Order{}, validation(errors.New("amount and rate are required"))
	}
	order := models.OrderRequest{Pair: pair, Amount: amount, Rate: rate}
	return execute(ctx, c.base, c.exchange,
		func(token string, e *endpoint.Exchange) (transport.Request, error) {
			return e.PostOrder(token, order)
		},
		decodeJSON[models.Order])
}

// CreateOrder formats amount and rate with the shortest exact decimal
// representation and calls CreateOrderRaw.
func (c *ExchangeClient) CreateOrder(ctx context.Context, pair coin.Pair, amount, rate float64) (models.Order, error) {
	a, err := formatDecimal("amount", amount)
	if err != nil {
		return models.Order{}, err
	}
	r, err := formatDecimal("rate", rate)
	if err != nil {
		return models.Order{}, err
	}
	return c.CreateOrderRaw(ctx, pair, a, r)
}

func formatDecimal(name string, v float64) (string, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return "", validation(fmt.Errorf("%s must be a positive finite number, got %v", name, v))
	}
	return strconv.FormatFloat(v, 'f', -1, 64), nil
}

// GetMyOrders lists the caller's own orders.
func (c *ExchangeClient) GetMyOrders(ctx context.Context, filter models.OrderFilter) (models.Orders, error) {
	return execute(ctx, c.base, c.exchange,
		func(token string, e *endpoint.Exchange) (transport.Request, error) {
			return e.MyOrders(token, filter), nil
		},
		decodeJSON[models.Orders])
}

// GetTrades lists trades, optionally of a single order.
func (c *ExchangeClient) GetTrades(ctx context.Context, filter models.TradeFilter) (models.Trades, error) {
	return execute(ctx, c.base, c.exchange,
		func(token string, e *endpoint.Exchange) (transport.Request, error) {
			return e.Trades(token, filter), nil
		},
		decodeJSON[models.Trades])
}

func (c *ExchangeClient) GetTradeByID(ctx context.Context, id string) (models.Trade, error) {
	return execute(ctx, c.base, c.exchange,
		func(token string, e *endpoint.Exchange) (transport.Request, error) {
			return e.TradeByID(token, id)
		},
		decodeJSON[models.Trade])
}

func (c *ExchangeClient) GetOrderByID(ctx context.Context, id string) (models.Order, error) {
	return execute(ctx, c.base, c.exchange,
		func(token string, e *endpoint.Exchange) (transport.Request, error) {
			return e.OrderByID(token, id)
		},
		decodeJSON[models.Order])
}

func (c *ExchangeClient) UpdateOrderByID(ctx context.Context, id string, update models.UpdateOrder) (models.Order, error) {
	return execute(ctx, c.base, c.exchange,
		func(token string, e *endpoint.Exchange) (transport.Request, error) {
			return e.UpdateOrderByID(token, id, update)
		},
		decodeJSON[models.Order])
}

// DeleteOrderByID cancels the order.
func (c *ExchangeClient) DeleteOrderByID(ctx context.Context, id string) error {
	_, err := execute(ctx, c.base, c.exchange,
		func(token string, e *endpoint.Exchange) (transport.Request, error) {
			return e.DeleteOrderByID(token, id)
		},
		discardBody)
	return err
}

func (c *ExchangeClient) ActivateOrderByID(ctx context.Context, id string) (models.Order, error) {
	return execute(ctx, c.base, c.exchange,
		func(token string, e *endpoint.Exchange) (transport.Request, error) {
			return e.ActivateOrderByID(token, id)
		},
		decodeJSON[models.Order])
}

func (c *ExchangeClient) DeactivateOrderByID(ctx context.Context, id string) (models.Order, error) {
	return execute(ctx, c.base, c.exchange,
		func(token string, e *endpoint.Exchange) (transport.Request, error) {
			return e.DeactivateOrderByID(token, id)
		},
		decodeJSON[models.Order])
}

// CreateTradeForOrder fills (part of) someone else's order.
func (c *ExchangeClient) CreateTradeForOrder(ctx context.Context, id string, trade models.CreateTradeRequest) (models.Trade, error) {
	return execute(ctx, c.base, c.exchange,
		func(token string, e *endpoint.Exchange) (transport.Request, error) {
			return e.CreateTradeForOrder(token, id, trade)
		},
		decodeJSON[models.Trade])
}
