package endpoint

import (
	"errors"
	"net/url"
	"strconv"

	"github.com/dmitrijs2005/chatex/pkg/chatex/models"
	"github.com/dmitrijs2005/chatex/pkg/chatex/transport"
)

type PaymentSystem struct {
	base BaseContext
}

func NewPaymentSystem(base BaseContext) *PaymentSystem {
	return &PaymentSystem{base: base}
}

// Estimate is GET /payment-system/estimate with the estimate as query.
func (p *PaymentSystem) Estimate(token string, e models.Estimate) transport.Request {
	q := url.Values{}
	q.Set("coin", e.Coin.String())
	q.Set("fiat", e.Fiat)
	q.Set("amount", e.Amount)
	if e.CountryCode != "" {
		q.Set("country_code", e.CountryCode)
	}
	if e.LangID != "" {
		q.Set("lang_id", e.LangID)
	}
	return get(token, withQuery(p.base.URL("payment-system", "estimate"), q))
}

// PaymentSystemByID is GET /payment-system/{id}.
func (p *PaymentSystem) PaymentSystemByID(token string, id models.PaymentSystemID) (transport.Request, error) {
	if id <= 0 {
		return transport.Request{}, errors.New("payment system id must be positive")
	}
	return get(token, p.base.URL("payment-system", strconv.FormatInt(int64(id), 10))), nil
}
