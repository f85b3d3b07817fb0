package endpoint

import (
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/chatex/pkg/chatex/transport"
)

type Profile struct {
	auth    *url.URL
	me      *url.URL
	balance *url.URL
}

func NewProfile(base BaseContext) *Profile {
	return &Profile{
		auth:    base.URL("auth", "access-token"),
		me:      base.URL("me"),
		balance: base.URL("me", "balance"),
	}
}

// AccessToken is POST /auth/access-token authorised with the API secret.
func (p *Profile) AccessToken(api ApiContext) transport.Request {
	return newRequest(http.MethodPost, api.secret, p.auth)
}

// Me is GET /me.
func (p *Profile) Me(token string) transport.Request {
	return get(token, p.me)
}

// Balance is GET /me/balance.
func (p *Profile) Balance(token string) transport.Request {
	return get(token, p.balance)
}
