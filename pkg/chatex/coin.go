package chatex

import (
	"context"

	"github.com/dmitrijs2005/chatex/pkg/chatex/coin"
	"github.com/dmitrijs2005/chatex/pkg/chatex/endpoint"
	"github.com/dmitrijs2005/chatex/pkg/chatex/models"
	"github.com/dmitrijs2005/chatex/pkg/chatex/transport"
)

type CoinClient struct {
	base *clientBase
	coin *endpoint.Coin
}

// GetAvailableCoins is GET /coins.
func (c *CoinClient) GetAvailableCoins(ctx context.Context) (models.Coins, error) {
	return execute(ctx, c.base, c.coin,
		func(token string, e *endpoint.Coin) (transport.Request, error) {
			return e.Coins(token), nil
		},
		decodeJSON[models.Coins])
}

// GetCoin is GET /coins/{name}.
func (c *CoinClient) GetCoin(ctx context.Context, name coin.Coin) (models.Coin, error) {
	if name == "" {
		return models.Coin{}, validation(coin.ErrEmptyCoin)
	}
	return execute(ctx, c.base, c.coin,
		func(token string, e *endpoint.Coin) (transport.Request, error) {
			return e.Coin(token, name)
		},
		decodeJSON[models.Coin])
}
