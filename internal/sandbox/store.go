package sandbox

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/chatex/pkg/chatex/coin"
	"github.com/dmitrijs2005/chatex/pkg/chatex/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	errNotFound  = errors.New("not found")
	errForbidden = errors.New("forbidden")
	errInvalid   = errors.New("validation failed")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errInvalid, fmt.Sprintf(format, args...))
}

const (
	// OwnerID is the account behind the sandbox API secret.
	OwnerID int64 = 1
	// MarketID owns the seeded market orders.
	MarketID int64 = 2
)

type order struct {
	models.Order
	owner int64
}

type trade struct {
	models.Trade
	taker int64
	maker int64
}

type store struct {
	mu  sync.Mutex
	now func() time.Time

	account        models.BasicInfo
	balance        models.Balance
	coins          models.Coins
	paymentSystems []models.PaymentSystem
	usdPrice       map[coin.Coin]decimal.Decimal
	fiatPerUSD     map[string]decimal.Decimal

	orders      map[int64]*order
	nextOrderID int64
	trades      map[int64]*trade
	nextTradeID int64
	invoices    map[string]*models.Invoice
}

func newStore(now func() time.Time) *store {
	email := "trader@sandbox.chatex.local"
	s := &store{
		now: now,
		account: models.BasicInfo{
			ID: OwnerID,
			Profile: models.Profile{
				CountryCode: "GB",
				Email:       &email,
				LangID:      "en",
				Limits: models.AML5Limits{
					CurrentTurnover:    "0",
					CurrentWithdraw:    "0",
					TurnoverLimit:      "10000",
					WithdrawLimit:      "5000",
					WithdrawLimitDaily: "1000",
				},
				Username:     "sandbox",
				Verification: models.Verification{CurrentLevel: "LEVEL_1"},
			},
		},
		balance: models.Balance{
			{Coin: "btc", Amount: "1.5", Held: "0"},
			{Coin: "eth", Amount: "10", Held: "0"},
			{Coin: "usdt", Amount: "25000", Held: "0"},
		},
		coins: models.Coins{
			{Decimals: 8, FullName: "Bitcoin", Name: "btc"},
			{Decimals: 8, FullName: "Litecoin", Name: "ltc"},
			{Decimals: 8, FullName: "Bitcoin Cash", Name: "bch"},
			{Decimals: 6, FullName: "Ripple", Name: "xrp"},
			{Decimals: 8, FullName: "Bitcoin Gold", Name: "btg"},
			{Decimals: 18, FullName: "Ethereum", Name: "eth"},
			{Decimals: 6, FullName: "Tron", Name: "trx"},
			{Decimals: 8, FullName: "Dash", Name: "dash"},
			{Decimals: 6, FullName: "USDT ERC20", Name: "usdt"},
			{Decimals: 9, FullName: "TON Crystal", Name: "ton_crystal"},
		},
		paymentSystems: []models.PaymentSystem{
			{ID: 1, Name: "SEPA", Fiat: "EUR", CountryCode: "DE", MinAmount: "10", MaxAmount: "10000", Fee: "0.01", IsActive: true},
			{ID: 2, Name: "Faster Payments", Fiat: "GBP", CountryCode: "GB", MinAmount: "10", MaxAmount: "5000", Fee: "0.015", IsActive: true},
			{ID: 3, Name: "Visa/Mastercard", Fiat: "USD", CountryCode: "US", MinAmount: "20", MaxAmount: "3000", Fee: "0.035", IsActive: true},
			{ID: 4, Name: "Wire", Fiat: "USD", CountryCode: "US", MinAmount: "100", MaxAmount: "100000", Fee: "0.005", IsActive: false},
		},
		usdPrice: map[coin.Coin]decimal.Decimal{
			coin.BTC:  decimal.RequireFromString("60000"),
			coin.ETH:  decimal.RequireFromString("3000"),
			coin.USDT: decimal.RequireFromString("1"),
			coin.TON:  decimal.RequireFromString("5"),
		},
		fiatPerUSD: map[string]decimal.Decimal{
			"USD": decimal.RequireFromString("1"),
			"EUR": decimal.RequireFromString("0.92"),
			"GBP": decimal.RequireFromString("0.79"),
		},
		orders:   map[int64]*order{},
		trades:   map[int64]*trade{},
		invoices: map[string]*models.Invoice{},
	}

	s.seedOrder(MarketID, coin.NewPair(coin.BTC, coin.USDT), "0.5", "60000")
	s.seedOrder(MarketID, coin.NewPair(coin.BTC, coin.USDT), "1.2", "60500")
	s.seedOrder(MarketID, coin.NewPair(coin.ETH, coin.USDT), "20", "3000")
	s.seedOrder(MarketID, coin.NewPair(coin.USDT, coin.BTC), "5000", "0.0000166")
	return s
}

func (s *store) seedOrder(owner int64, pair coin.Pair, amount, rate string) {
	now := s.now().UTC()
	s.nextOrderID++
	s.orders[s.nextOrderID] = &order{
		owner: owner,
		Order: models.Order{
			ID:            s.nextOrderID,
			Pair:          pair,
			Amount:        amount,
			InitialAmount: amount,
			Rate:          rate,
			Status:        models.OrderStatusActive,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
	}
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func positive(field, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, invalid("%s %q is not a number", field, value)
	}
	if !d.IsPositive() {
		return decimal.Decimal{}, invalid("%s must be positive", field)
	}
	return d, nil
}

func (s *store) Account() models.BasicInfo {
	return s.account
}

func (s *store) Balance() models.Balance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.balance)
}

func (s *store) Coins() models.Coins {
	return slices.Clone(s.coins)
}

func (s *store) Coin(name string) (models.Coin, error) {
	for _, c := range s.coins {
		if c.Name == name {
			return c, nil
		}
	}
	return models.Coin{}, errNotFound
}

func (s *store) sortedOrders(keep func(*order) bool) models.Orders {
	out := models.Orders{}
	for _, o := range s.orders {
		if keep(o) {
			out = append(out, o.Order)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Orders lists the active orders of other accounts on pair.
func (s *store) Orders(owner int64, pair coin.Pair, offset, limit int) models.Orders {
	s.mu.Lock()
	defer s.mu.Unlock()
	return paginate(s.sortedOrders(func(o *order) bool {
		return o.owner != owner && o.Pair == pair && o.Status == models.OrderStatusActive
	}), offset, limit)
}

func (s *store) MyOrders(owner int64, pair coin.Pair, status models.OrderStatus, offset, limit int) models.Orders {
	s.mu.Lock()
	defer s.mu.Unlock()
	return paginate(s.sortedOrders(func(o *order) bool {
		return o.owner == owner &&
			(pair.IsZero() || o.Pair == pair) &&
			(status == "" || o.Status == status)
	}), offset, limit)
}

func (s *store) Order(id int64) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return models.Order{}, errNotFound
	}
	return o.Order, nil
}

func (s *store) CreateOrder(owner int64, req models.OrderRequest) (models.Order, error) {
	amount, err := positive("amount", req.Amount)
	if err != nil {
		return models.Order{}, err
	}
	rate, err := positive("rate", req.Rate)
	if err != nil {
		return models.Order{}, err
	}
	if req.Pair.Left == req.Pair.Right {
		return models.Order{}, invalid("pair %s trades a coin for itself", req.Pair)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	s.nextOrderID++
	o := &order{
		owner: owner,
		Order: models.Order{
			ID:            s.nextOrderID,
			Pair:          req.Pair,
			Amount:        amount.String(),
			InitialAmount: amount.String(),
			Rate:          rate.String(),
			Status:        models.OrderStatusActive,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
	}
	s.orders[o.ID] = o
	return o.Order, nil
}

// owned returns the order if it exists and belongs to owner. s.mu must be held.
func (s *store) owned(owner, id int64) (*order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, errNotFound
	}
	if o.owner != owner {
		return nil, errForbidden
	}
	return o, nil
}

func closed(status models.OrderStatus) bool {
	return status == models.OrderStatusCompleted || status == models.OrderStatusCanceled
}

func (s *store) UpdateOrder(owner, id int64, upd models.UpdateOrder) (models.Order, error) {
	if upd.Amount == "" && upd.Rate == "" {
		return models.Order{}, invalid("nothing to update")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	o, err := s.owned(owner, id)
	if err != nil {
		return models.Order{}, err
	}
	if closed(o.Status) {
		return models.Order{}, invalid("order %d is %s", id, o.Status)
	}

	if upd.Amount != "" {
		amount, err := positive("amount", upd.Amount)
		if err != nil {
			return models.Order{}, err
		}
		o.Amount = amount.String()
	}
	if upd.Rate != "" {
		rate, err := positive("rate", upd.Rate)
		if err != nil {
			return models.Order{}, err
		}
		o.Rate = rate.String()
	}
	o.UpdatedAt = s.now().UTC()
	return o.Order, nil
}

func (s *store) DeleteOrder(owner, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.owned(owner, id); err != nil {
		return err
	}
	delete(s.orders, id)
	return nil
}

func (s *store) SetOrderActive(owner, id int64, active bool) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, err := s.owned(owner, id)
	if err != nil {
		return models.Order{}, err
	}
	if closed(o.Status) {
		return models.Order{}, invalid("order %d is %s", id, o.Status)
	}

	o.Status = models.OrderStatusInactive
	if active {
		o.Status = models.OrderStatusActive
	}
	o.UpdatedAt = s.now().UTC()
	return o.Order, nil
}

// CreateTrade fills part of another account's active order.
func (s *store) CreateTrade(taker, orderID int64, req models.CreateTradeRequest) (models.Trade, error) {
	amount, err := positive("amount", req.Amount)
	if err != nil {
		return models.Trade{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return models.Trade{}, errNotFound
	}
	if o.owner == taker {
		return models.Trade{}, errForbidden
	}
	if o.Status != models.OrderStatusActive {
		return models.Trade{}, invalid("order %d is %s", orderID, o.Status)
	}
	if req.Rate != "" {
		rate, err := positive("rate", req.Rate)
		if err != nil {
			return models.Trade{}, err
		}
		if !rate.Equal(decimal.RequireFromString(o.Rate)) {
			return models.Trade{}, invalid("rate %s does not match order rate %s", rate, o.Rate)
		}
	}

	left := decimal.RequireFromString(o.Amount)
	if amount.GreaterThan(left) {
		return models.Trade{}, invalid("amount %s exceeds available %s", amount, o.Amount)
	}

	now := s.now().UTC()
	left = left.Sub(amount)
	o.Amount = left.String()
	if left.IsZero() {
		o.Status = models.OrderStatusCompleted
	}
	o.UpdatedAt = now

	s.nextTradeID++
	t := &trade{
		taker: taker,
		maker: o.owner,
		Trade: models.Trade{
			ID:        s.nextTradeID,
			OrderID:   o.ID,
			Pair:      o.Pair,
			Amount:    amount.String(),
			Rate:      o.Rate,
			Status:    models.TradeStatusCompleted,
			CreatedAt: now,
		},
	}
	s.trades[t.ID] = t
	return t.Trade, nil
}

func (s *store) Trades(account, orderID int64, offset, limit int) models.Trades {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := models.Trades{}
	for _, t := range s.trades {
		if t.taker != account && t.maker != account {
			continue
		}
		if orderID > 0 && t.OrderID != orderID {
			continue
		}
		out = append(out, t.Trade)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, offset, limit)
}

func (s *store) Trade(account, id int64) (models.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.trades[id]
	if !ok || (t.taker != account && t.maker != account) {
		return models.Trade{}, errNotFound
	}
	return t.Trade, nil
}

func (s *store) PaymentSystem(id models.PaymentSystemID) (models.PaymentSystem, error) {
	for _, ps := range s.paymentSystems {
		if ps.ID == id {
			return ps, nil
		}
	}
	return models.PaymentSystem{}, errNotFound
}

// fiatAmount converts amount of c into fiat, fees included.
func (s *store) fiatAmount(c coin.Coin, fiat string, amount, fee decimal.Decimal) (rate, total decimal.Decimal, err error) {
	price, ok := s.usdPrice[c]
	if !ok {
		return decimal.Decimal{}, decimal.Decimal{}, invalid("coin %s has no fiat price", c)
	}
	perUSD, ok := s.fiatPerUSD[fiat]
	if !ok {
		return decimal.Decimal{}, decimal.Decimal{}, invalid("fiat %s is not supported", fiat)
	}
	rate = price.Mul(perUSD)
	total = amount.Mul(rate).Mul(decimal.NewFromInt(1).Add(fee)).Round(2)
	return rate, total, nil
}

// Estimate lists the active payment systems able to settle e.
func (s *store) Estimate(e models.Estimate) (models.FiatEstimations, error) {
	amount, err := positive("amount", e.Amount)
	if err != nil {
		return nil, err
	}

	out := models.FiatEstimations{}
	for _, ps := range s.paymentSystems {
		if !ps.IsActive || ps.Fiat != e.Fiat {
			continue
		}
		if e.CountryCode != "" && ps.CountryCode != e.CountryCode {
			continue
		}
		fee := decimal.RequireFromString(ps.Fee)
		rate, total, err := s.fiatAmount(e.Coin, e.Fiat, amount, fee)
		if err != nil {
			return nil, err
		}
		out = append(out, models.FiatEstimation{
			PaymentSystemID:   ps.ID,
			PaymentSystemName: ps.Name,
			Coin:              e.Coin,
			Amount:            amount.String(),
			Fiat:              e.Fiat,
			FiatAmount:        total.StringFixed(2),
			Rate:              rate.String(),
			Fee:               ps.Fee,
		})
	}
	return out, nil
}

func (s *store) CreateInvoice(req models.CreateInvoice) (models.Invoice, error) {
	if err := req.Validate(); err != nil {
		return models.Invoice{}, invalid("%v", err)
	}
	amount, err := positive("amount", req.Amount)
	if err != nil {
		return models.Invoice{}, err
	}
	ps, err := s.PaymentSystem(req.PaymentSystemID)
	if err != nil {
		return models.Invoice{}, invalid("payment system %d does not exist", req.PaymentSystemID)
	}
	if !ps.IsActive {
		return models.Invoice{}, invalid("payment system %d is not active", ps.ID)
	}
	if ps.Fiat != req.Fiat {
		return models.Invoice{}, invalid("payment system %d settles %s, not %s", ps.ID, ps.Fiat, req.Fiat)
	}
	_, total, err := s.fiatAmount(req.Coin, req.Fiat, amount, decimal.RequireFromString(ps.Fee))
	if err != nil {
		return models.Invoice{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	id := uuid.NewString()
	inv := &models.Invoice{
		ID:              id,
		Coin:            req.Coin,
		Amount:          amount.String(),
		Fiat:            req.Fiat,
		FiatAmount:      total.StringFixed(2),
		CountryCode:     req.CountryCode,
		PaymentSystemID: ps.ID,
		LangID:          req.LangID,
		Status:          models.InvoiceStatusActive,
		PaymentURL:      "https://pay.sandbox.chatex.local/invoices/" + id,
		CallbackURL:     req.CallbackURL,
		RedirectURL:     req.RedirectURL,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	s.invoices[id] = inv
	return *inv, nil
}

func (s *store) Invoice(id string) (models.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.invoices[id]
	if !ok {
		return models.Invoice{}, errNotFound
	}
	return *inv, nil
}

// invoiceQuery is the decoded filter of GET /invoices. Empty sets match all.
type invoiceQuery struct {
	coins     map[string]bool
	fiat      map[string]bool
	countries map[string]bool
	langs     map[string]bool
	systems   map[string]bool
	statuses  map[string]bool
	start     time.Time
	end       time.Time
	offset    int
	limit     int
}

func matches(set map[string]bool, v string) bool {
	return len(set) == 0 || set[v]
}

func (s *store) Invoices(q invoiceQuery) models.Invoices {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := models.Invoices{}
	for _, inv := range s.invoices {
		switch {
		case !matches(q.coins, inv.Coin.String()),
			!matches(q.fiat, inv.Fiat),
			!matches(q.countries, inv.CountryCode),
			!matches(q.langs, inv.LangID),
			!matches(q.systems, fmt.Sprint(inv.PaymentSystemID)),
			!matches(q.statuses, string(inv.Status)),
			!q.start.IsZero() && inv.CreatedAt.Before(q.start),
			!q.end.IsZero() && inv.CreatedAt.After(q.end):
			continue
		}
		out = append(out, *inv)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return paginate(out, q.offset, q.limit)
}
