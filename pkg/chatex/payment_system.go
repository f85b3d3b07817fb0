package chatex

import (
	"context"

	"github.com/dmitrijs2005/chatex/pkg/chatex/endpoint"
	"github.com/dmitrijs2005/chatex/pkg/chatex/models"
	"github.com/dmitrijs2005/chatex/pkg/chatex/transport"
)

type PaymentSystemClient struct {
	base          *clientBase
	paymentSystem *endpoint.PaymentSystem
}

// GetListOfEstimatedPaymentSystems returns the payment systems able to settle
// the estimate, with the fiat amount each would charge.
func (c *PaymentSystemClient) GetListOfEstimatedPaymentSystems(ctx context.Context, estimate models.Estimate) (models.FiatEstimations, error) {
	if err := estimate.Validate(); err != nil {
		return nil, validation(err)
	}
	return execute(ctx, c.base, c.paymentSystem,
		func(token string, e *endpoint.PaymentSystem) (transport.Request, error) {
			return e.Estimate(token, estimate), nil
		},
		decodeJSON[models.FiatEstimations])
}

func (c *PaymentSystemClient) GetPaymentSystemByID(ctx context.Context, id models.PaymentSystemID) (models.PaymentSystem, error) {
	return execute(ctx, c.base, c.paymentSystem,
		func(token string, e *endpoint.PaymentSystem) (transport.Request, error) {
			return e.PaymentSystemByID(token, id)
		},
		decodeJSON[models.PaymentSystem])
}
