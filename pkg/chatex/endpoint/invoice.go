package endpoint

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/chatex/pkg/chatex/models"
	"github.com/dmitrijs2005/chatex/pkg/chatex/transport"
)

type Invoice struct {
	base BaseContext
}

func NewInvoice(base BaseContext) *Invoice {
	return &Invoice{base: base}
}

// Invoices is GET /invoices. List filters are sent comma-separated, dates as
// RFC 3339 in UTC.
func (i *Invoice) Invoices(token string, f models.InvoiceFilter) transport.Request {
	q := url.Values{}
	setList(q, "coins", f.Coins)
	setList(q, "fiat", f.Fiat)
	setList(q, "country_code", f.CountryCodes)
	setList(q, "lang_id", f.LangIDs)
	if len(f.PaymentSystemIDs) > 0 {
		ids := make([]string, len(f.PaymentSystemIDs))
		for n, id := range f.PaymentSystemIDs {
			ids[n] = strconv.FormatInt(int64(id), 10)
		}
		q.Set("payment_system_id", strings.Join(ids, ","))
	}
	if len(f.Statuses) > 0 {
		st := make([]string, len(f.Statuses))
		for n, s := range f.Statuses {
			st[n] = string(s)
		}
		q.Set("status", strings.Join(st, ","))
	}
	if !f.DateStart.IsZero() {
		q.Set("date_start", f.DateStart.UTC().Format(time.RFC3339))
	}
	if !f.DateEnd.IsZero() {
		q.Set("date_end", f.DateEnd.UTC().Format(time.RFC3339))
	}
	setPage(q, f.Page)
	return get(token, withQuery(i.base.URL("invoices"), q))
}

// CreateInvoice is POST /invoices.
func (i *Invoice) CreateInvoice(token string, inv models.CreateInvoice) (transport.Request, error) {
	return withJSON(http.MethodPost, token, i.base.URL("invoices"), inv)
}

// InvoiceByID is GET /invoices/{id}.
func (i *Invoice) InvoiceByID(token, id string) (transport.Request, error) {
	if err := requireID("invoice", id); err != nil {
		return transport.Request{}, err
	}
	return get(token, i.base.URL("invoices", id)), nil
}

func setList[T interface{ String() string }](q url.Values, key string, items []T) {
	if len(items) == 0 {
		return
	}
	parts := make([]string, len(items))
	for n, it := range items {
		parts[n] = it.String()
	}
	q.Set(key, strings.Join(parts, ","))
}
