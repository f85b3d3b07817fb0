package chatex

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/dmitrijs2005/chatex/pkg/chatex/endpoint"
	"github.com/dmitrijs2005/chatex/pkg/chatex/models"
	"github.com/dmitrijs2005/chatex/pkg/chatex/transport"
)

type InvoiceClient struct {
	base    *clientBase
	invoice *endpoint.Invoice
}

func (c *InvoiceClient) GetInvoices(ctx context.Context, filter models.InvoiceFilter) (models.Invoices, error) {
	return execute(ctx, c.base, c.invoice,
		func(token string, e *endpoint.Invoice) (transport.Request, error) {
			return e.Invoices(token, filter), nil
		},
		decodeJSON[models.Invoices])
}

// CreateInvoice validates inv locally, then creates it. The API answers with
// a list of invoices; a bare invoice object is accepted as a list of one.
func (c *InvoiceClient) CreateInvoice(ctx context.Context, inv models.CreateInvoice) (models.Invoices, error) {
	if err := inv.Validate(); err != nil {
		return nil, validation(err)
	}
	return execute(ctx, c.base, c.invoice,
		func(token string, e *endpoint.Invoice) (transport.Request, error) {
			return e.CreateInvoice(token, inv)
		},
		decodeInvoices)
}

func decodeInvoices(body io.Reader) (models.Invoices, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read invoices: %w", err)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '{' {
		inv, err := decodeJSON[models.Invoice](bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		return models.Invoices{inv}, nil
	}
	return decodeJSON[models.Invoices](bytes.NewReader(raw))
}

func (c *InvoiceClient) GetInvoiceByID(ctx context.Context, id string) (models.Invoice, error) {
	return execute(ctx, c.base, c.invoice,
		func(token string, e *endpoint.Invoice) (transport.Request, error) {
			return e.InvoiceByID(token, id)
		},
		decodeJSON[models.Invoice])
}
