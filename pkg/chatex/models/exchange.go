package models

import (
	"time"

	"github.com/dmitrijs2005/chatex/pkg/chatex/coin"
)

// DefaultLimit is the page size used when Page.Limit is zero.
const DefaultLimit = 50

// Page selects a window of a list endpoint. The zero value means offset 0,
// limit DefaultLimit.
type Page struct {
	Offset int
	Limit  int
}

// EffectiveLimit returns Limit, or DefaultLimit when Limit is not positive.
func (p Page) EffectiveLimit() int {
	if p.Limit <= 0 {
		return DefaultLimit
	}
	return p.Limit
}

// EffectiveOffset returns Offset clamped to zero.
func (p Page) EffectiveOffset() int {
	if p.Offset < 0 {
		return 0
	}
	return p.Offset
}

type OrderStatus string

const (
	OrderStatusActive    OrderStatus = "ACTIVE"
	OrderStatusInactive  OrderStatus = "INACTIVE"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCanceled  OrderStatus = "CANCELED"
)

type Order struct {
	ID            int64       `json:"id"`
	Pair          coin.Pair   `json:"pair"`
	Amount        string      `json:"amount"`
	InitialAmount string      `json:"initial_amount"`
	Rate          string      `json:"rate"`
	Status        OrderStatus `json:"status"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

type Orders []Order

// OrderRequest is the body of POST /exchange/orders.
type OrderRequest struct {
	Pair   coin.Pair `json:"pair"`
	Amount string    `json:"amount"`
	Rate   string    `json:"rate"`
}

// UpdateOrder is the body of PUT /exchange/orders/{id}. Empty fields are left
// unchanged by the server.
type UpdateOrder struct {
	Amount string `json:"amount,omitempty"`
	Rate   string `json:"rate,omitempty"`
}

// OrderFilter narrows GET /exchange/orders/my. A zero Pair or empty Status
// means no filter.
type OrderFilter struct {
	Pair   coin.Pair
	Status OrderStatus
	Page
}

type TradeStatus string

const (
	TradeStatusPending   TradeStatus = "PENDING"
	TradeStatusCompleted TradeStatus = "COMPLETED"
	TradeStatusCanceled  TradeStatus = "CANCELED"
)

type Trade struct {
	ID        int64       `json:"id"`
	OrderID   int64       `json:"order_id"`
	Pair      coin.Pair   `json:"pair"`
	Amount    string      `json:"amount"`
	Rate      string      `json:"rate"`
	Status    TradeStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
}

type Trades []Trade

// CreateTradeRequest is the body of POST /exchange/orders/{id}/trades.
type CreateTradeRequest struct {
	Amount string `json:"amount"`
	Rate   string `json:"rate"`
}

// TradeFilter narrows GET /exchange/orders/trades. OrderID zero means trades
// of every order.
type TradeFilter struct {
	OrderID int64
	Page
}
