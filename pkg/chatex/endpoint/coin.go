package endpoint

import (
	"errors"
	"net/url"

	"github.com/dmitrijs2005/chatex/pkg/chatex/coin"
	"github.com/dmitrijs2005/chatex/pkg/chatex/transport"
)

type Coin struct {
	base  BaseContext
	coins *url.URL
}

func NewCoin(base BaseContext) *Coin {
	return &Coin{base: base, coins: base.URL("coins")}
}

// Coins is GET /coins.
func (c *Coin) Coins(token string) transport.Request {
	return get(token, c.coins)
}

// Coin is GET /coins/{name}.
func (c *Coin) Coin(token string, name coin.Coin) (transport.Request, error) {
	if name == "" {
		return transport.Request{}, errors.New("coin name is empty")
	}
	return get(token, c.base.URL("coins", name.String())), nil
}
