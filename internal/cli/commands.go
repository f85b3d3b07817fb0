package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/chatex/pkg/chatex"
	"github.com/dmitrijs2005/chatex/pkg/chatex/coin"
	"github.com/dmitrijs2005/chatex/pkg/chatex/models"
)

var errUnknownCommand = errors.New("unknown command")

// usageError is returned when a command gets the wrong arguments.
type usageError string

func (u usageError) Error() string { return "usage: " + string(u) }

const helpText = `Available commands:
  me                                  account information
  balance                             balance summary
  coins                               available coins
  coin <name>                         one coin
  orders <pair> [offset] [limit]      active orders of a market
  my [pair] [status]                  your orders
  order <id>                          one order
  create <pair> <amount> <rate>       place an order
  update <id> <amount> <rate>         change an order
  delete <id>                         delete an order
  activate <id> | deactivate <id>     toggle an order
  trades [order_id]                   your trades
  trade <id>                          one trade
  buy <order_id> <amount>             trade against an order at its rate
  invoices                            your invoices
  invoice <id>                        one invoice
  estimate <coin> <fiat> <amount> [country] [lang]
                                      fiat estimates per payment system
  paysys <id>                         one payment system
  token                               current access token expiry
  exit | quit`

// call runs op through the rate-limit retry policy of the app.
func call[T any](ctx context.Context, a *App, op func(ctx context.Context) (T, error)) (any, error) {
	v, err := chatex.RetryRateLimited(ctx, a.retry, op)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func arity(args []string, lo, hi int, usage string) error {
	if len(args) < lo || len(args) > hi {
		return usageError(usage)
	}
	return nil
}

func parsePage(args []string) (models.Page, error) {
	var page models.Page
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 {
			return page, fmt.Errorf("invalid offset %q", args[0])
		}
		page.Offset = n
	}
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n <= 0 {
			return page, fmt.Errorf("invalid limit %q", args[1])
		}
		page.Limit = n
	}
	return page, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

type tokenInfo struct {
	ExpiresAt time.Time `json:"expires_at"`
	ExpiresIn string    `json:"expires_in"`
}

// exec runs one command and returns the value to print.
func (a *App) exec(ctx context.Context, cmd string, args []string) (any, error) {
	profile := a.client.Profile()
	exchange := a.client.Exchange()

	switch cmd {
	case "me":
		if err := arity(args, 0, 0, "me"); err != nil {
			return nil, err
		}
		return call(ctx, a, profile.GetAccountInformation)

	case "balance":
		if err := arity(args, 0, 0, "balance"); err != nil {
			return nil, err
		}
		return call(ctx, a, profile.GetBalanceSummary)

	case "coins":
		if err := arity(args, 0, 0, "coins"); err != nil {
			return nil, err
		}
		return call(ctx, a, a.client.Coin().GetAvailableCoins)

	case "coin":
		if err := arity(args, 1, 1, "coin <name>"); err != nil {
			return nil, err
		}
		name, err := coin.Parse(args[0])
		if err != nil {
			return nil, err
		}
		return call(ctx, a, func(ctx context.Context) (models.Coin, error) {
			return a.client.Coin().GetCoin(ctx, name)
		})

	case "orders":
		if err := arity(args, 1, 3, "orders <pair> [offset] [limit]"); err != nil {
			return nil, err
		}
		pair, err := coin.ParsePair(args[0])
		if err != nil {
			return nil, err
		}
		page, err := parsePage(args[1:])
		if err != nil {
			return nil, err
		}
		return call(ctx, a, func(ctx context.Context) (models.Orders, error) {
			return exchange.GetAllOrders(ctx, pair, page)
		})

	case "my":
		if err := arity(args, 0, 2, "my [pair] [status]"); err != nil {
			return nil, err
		}
		var filter models.OrderFilter
		if len(args) > 0 {
			pair, err := coin.ParsePair(args[0])
			if err != nil {
				return nil, err
			}
			filter.Pair = pair
		}
		if len(args) > 1 {
			filter.Status = models.OrderStatus(strings.ToUpper(args[1]))
		}
		return call(ctx, a, func(ctx context.Context) (models.Orders, error) {
			return exchange.GetMyOrders(ctx, filter)
		})

	case "order", "activate", "deactivate", "trade", "invoice":
		if err := arity(args, 1, 1, cmd+" <id>"); err != nil {
			return nil, err
		}
		return a.byID(ctx, cmd, args[0])

	case "delete":
		if err := arity(args, 1, 1, "delete <id>"); err != nil {
			return nil, err
		}
		id := args[0]
		return call(ctx, a, func(ctx context.Context) (map[string]string, error) {
			if err := exchange.DeleteOrderByID(ctx, id); err != nil {
				return nil, err
			}
			return map[string]string{"deleted": id}, nil
		})

	case "create":
		if err := arity(args, 3, 3, "create <pair> <amount> <rate>"); err != nil {
			return nil, err
		}
		pair, err := coin.ParsePair(args[0])
		if err != nil {
			return nil, err
		}
		return call(ctx, a, func(ctx context.Context) (models.Order, error) {
			return exchange.CreateOrderRaw(ctx, pair, args[1], args[2])
		})

	case "update":
		if err := arity(args, 3, 3, "update <id> <amount> <rate>"); err != nil {
			return nil, err
		}
		update := models.UpdateOrder{Amount: args[1], Rate: args[2]}
		return call(ctx, a, func(ctx context.Context) (models.Order, error) {
			return exchange.UpdateOrderByID(ctx, args[0], update)
		})

	case "trades":
		if err := arity(args, 0, 1, "trades [order_id]"); err != nil {
			return nil, err
		}
		var filter models.TradeFilter
		if len(args) > 0 {
			id, err := parseID(args[0])
			if err != nil {
				return nil, err
			}
			filter.OrderID = id
		}
		return call(ctx, a, func(ctx context.Context) (models.Trades, error) {
			return exchange.GetTrades(ctx, filter)
		})

	case "buy":
		if err := arity(args, 2, 2, "buy <order_id> <amount>"); err != nil {
			return nil, err
		}
		return call(ctx, a, func(ctx context.Context) (models.Trade, error) {
			order, err := exchange.GetOrderByID(ctx, args[0])
			if err != nil {
				return models.Trade{}, err
			}
			return exchange.CreateTradeForOrder(ctx, args[0], models.CreateTradeRequest{
				Amount: args[1],
				Rate:   order.Rate,
			})
		})

	case "invoices":
		if err := arity(args, 0, 0, "invoices"); err != nil {
			return nil, err
		}
		return call(ctx, a, func(ctx context.Context) (models.Invoices, error) {
			return a.client.Invoice().GetInvoices(ctx, models.InvoiceFilter{})
		})

	case "estimate":
		if err := arity(args, 3, 5, "estimate <coin> <fiat> <amount> [country] [lang]"); err != nil {
			return nil, err
		}
		c, err := coin.Parse(args[0])
		if err != nil {
			return nil, err
		}
		estimate := models.Estimate{Coin: c, Fiat: strings.ToUpper(args[1]), Amount: args[2]}
		if len(args) > 3 {
			estimate.CountryCode = strings.ToUpper(args[3])
		}
		if len(args) > 4 {
			estimate.LangID = strings.ToLower(args[4])
		}
		return call(ctx, a, func(ctx context.Context) (models.FiatEstimations, error) {
			return a.client.PaymentSystem().GetListOfEstimatedPaymentSystems(ctx, estimate)
		})

	case "paysys":
		if err := arity(args, 1, 1, "paysys <id>"); err != nil {
			return nil, err
		}
		id, err := parseID(args[0])
		if err != nil {
			return nil, err
		}
		return call(ctx, a, func(ctx context.Context) (models.PaymentSystem, error) {
			return a.client.PaymentSystem().GetPaymentSystemByID(ctx, models.PaymentSystemID(id))
		})

	case "token":
		if err := arity(args, 0, 0, "token"); err != nil {
			return nil, err
		}
		if _, err := call(ctx, a, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, a.client.Authenticate(ctx)
		}); err != nil {
			return nil, err
		}
		session := a.client.Session()
		return tokenInfo{
			ExpiresAt: session.ExpiresAt(),
			ExpiresIn: time.Until(session.ExpiresAt()).Truncate(time.Second).String(),
		}, nil
	}

	return nil, errUnknownCommand
}

func (a *App) byID(ctx context.Context, cmd, id string) (any, error) {
	exchange := a.client.Exchange()
	switch cmd {
	case "order":
		return call(ctx, a, func(ctx context.Context) (models.Order, error) {
			return exchange.GetOrderByID(ctx, id)
		})
	case "activate":
		return call(ctx, a, func(ctx context.Context) (models.Order, error) {
			return exchange.ActivateOrderByID(ctx, id)
		})
	case "deactivate":
		return call(ctx, a, func(ctx context.Context) (models.Order, error) {
			return exchange.DeactivateOrderByID(ctx, id)
		})
	case "trade":
		return call(ctx, a, func(ctx context.Context) (models.Trade, error) {
			return exchange.GetTradeByID(ctx, id)
		})
	case "invoice":
		return call(ctx, a, func(ctx context.Context) (models.Invoice, error) {
			return a.client.Invoice().GetInvoiceByID(ctx, id)
		})
	}
	return nil, errUnknownCommand
}
