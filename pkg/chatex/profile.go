package chatex

import (
	"context"

	"github.com/dmitrijs2005/chatex/pkg/chatex/endpoint"
	"github.com/dmitrijs2005/chatex/pkg/chatex/models"
	"github.com/dmitrijs2005/chatex/pkg/chatex/transport"
)

// ProfileClient reads the authenticated account.
type ProfileClient struct {
	base    *clientBase
	profile *endpoint.Profile
}

// CreateAccessToken mints a new token with the API secret. The token is
// returned to the caller and does not replace the client's cached one.
func (c *ProfileClient) CreateAccessToken(ctx context.Context) (models.AccessToken, error) {
	return callToEndpoint(ctx, c.base, c.profile.AccessToken(c.base.api), decodeJSON[models.AccessToken])
}

// GetAccountInformation is GET /me.
func (c *ProfileClient) GetAccountInformation(ctx context.Context) (models.BasicInfo, error) {
	return execute(ctx, c.base, c.profile,
		func(token string, p *endpoint.Profile) (transport.Request, error) {
			return p.Me(token), nil
		},
		decodeJSON[models.BasicInfo])
}

// GetBalanceSummary is GET /me/balance.
func (c *ProfileClient) GetBalanceSummary(ctx context.Context) (models.Balance, error) {
	return execute(ctx, c.base, c.profile,
		func(token string, p *endpoint.Profile) (transport.Request, error) {
			return p.Balance(token), nil
		},
		decodeJSON[models.Balance])
}
