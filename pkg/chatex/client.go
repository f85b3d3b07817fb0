package chatex

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/chatex/pkg/chatex/endpoint"
	"github.com/dmitrijs2005/chatex/pkg/chatex/transport"
	"github.com/dmitrijs2005/chatex/pkg/logging"
)

// Client is the entry point to the Chatex API. One Client owns one token
// cache; it is safe for concurrent use.
type Client struct {
	base          *clientBase
	profile       *ProfileClient
	coin          *CoinClient
	exchange      *ExchangeClient
	invoice       *InvoiceClient
	paymentSystem *PaymentSystemClient
}

type options struct {
	transport     transport.Transport
	transportOpts []transport.Option
	logger        logging.Logger
	store         TokenStore
	now           func() time.Time
}

type Option func(*options)

// WithTransport replaces the default resty transport.
func WithTransport(t transport.Transport) Option {
	return func(o *options) { o.transport = t }
}

// WithTransportOptions configures the default transport. Ignored when
// WithTransport is given.
func WithTransportOptions(opts ...transport.Option) Option {
	return func(o *options) { o.transportOpts = append(o.transportOpts, opts...) }
}

func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithTokenStore persists tokens across Client instances.
func WithTokenStore(s TokenStore) Option {
	return func(o *options) { o.store = s }
}

// WithClock replaces time.Now for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New creates a client for the API rooted at baseURL, authenticating with
// the API secret.
func New(baseURL, secret string, opts ...Option) (*Client, error) {
	if secret == "" {
		return nil, validation(errors.New("api secret is empty"))
	}
	base, err := endpoint.NewBaseContext(baseURL)
	if err != nil {
		return nil, validation(err)
	}

	o := options{logger: logging.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.transport == nil {
		o.transport = transport.New(o.transportOpts...)
	}

	profile := endpoint.NewProfile(base)
	accessOpts := []AccessOption{
		WithAccessLogger(o.logger.With("component", "access")),
		WithAccessClock(o.now),
	}
	if o.store != nil {
		accessOpts = append(accessOpts, WithAccessTokenStore(o.store))
	}

	cb := &clientBase{
		transport: o.transport,
		api:       endpoint.NewApiContext(base, secret),
		access:    NewAccessController(profile, accessOpts...),
		logger:    o.logger,
	}

	return &Client{
		base:          cb,
		profile:       &ProfileClient{base: cb, profile: profile},
		coin:          &CoinClient{base: cb, coin: endpoint.NewCoin(base)},
		exchange:      &ExchangeClient{base: cb, exchange: endpoint.NewExchange(base)},
		invoice:       &InvoiceClient{base: cb, invoice: endpoint.NewInvoice(base)},
		paymentSystem: &PaymentSystemClient{base: cb, paymentSystem: endpoint.NewPaymentSystem(base)},
	}, nil
}

func (c *Client) Profile() *ProfileClient             { return c.profile }
func (c *Client) Coin() *CoinClient                   { return c.coin }
func (c *Client) Exchange() *ExchangeClient           { return c.exchange }
func (c *Client) Invoice() *InvoiceClient             { return c.invoice }
func (c *Client) PaymentSystem() *PaymentSystemClient { return c.paymentSystem }

// Authenticate makes sure a valid access token is cached.
func (c *Client) Authenticate(ctx context.Context) error {
	_, err := c.base.accessToken(ctx)
	return err
}

// Session returns the cached access context, or nil before the first call.
func (c *Client) Session() *AccessContext {
	return c.base.access.Current()
}
