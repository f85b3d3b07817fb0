package chatex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrijs2005/chatex/pkg/chatex/endpoint"
	"github.com/dmitrijs2005/chatex/pkg/chatex/models"
	"github.com/dmitrijs2005/chatex/pkg/chatex/transport"
	"github.com/dmitrijs2005/chatex/pkg/logging"
	"golang.org/x/sync/singleflight"
)

// Tolerance is subtracted from the server-declared expiry: a token is treated
// as expired Tolerance before the server would reject it.
const Tolerance = 60 * time.Second

const refreshKey = "access-token"

// AccessContext is an access token together with the instant from which it
// is considered expired. It is never modified after construction.
type AccessContext struct {
	base      endpoint.BaseContext
	token     models.AccessToken
	expiresAt time.Time
}

func NewAccessContext(base endpoint.BaseContext, token models.AccessToken) *AccessContext {
	return &AccessContext{
		base:      base,
		token:     token,
		expiresAt: time.Unix(token.ExpiresAt, 0).Add(-Tolerance),
	}
}

func (a *AccessContext) Base() endpoint.BaseContext { return a.base }

// Token returns the bearer token.
func (a *AccessContext) Token() string { return a.token.AccessToken }

// ExpiresAt is the server expiry minus Tolerance.
func (a *AccessContext) ExpiresAt() time.Time { return a.expiresAt }

// Expired reports whether now is at or past ExpiresAt.
func (a *AccessContext) Expired(now time.Time) bool {
	return !now.Before(a.expiresAt)
}

// TokenStore persists access tokens between processes. Load returns false when
// nothing usable is stored.
type TokenStore interface {
	Load(ctx context.Context) (models.AccessToken, bool, error)
	Save(ctx context.Context, token models.AccessToken) error
}

// AccessController owns the cached AccessContext of one client and refreshes
// it when missing or expired. It is safe for concurrent use; concurrent
// callers that find no valid token share a single token request.
type AccessController struct {
	profile *endpoint.Profile
	logger  logging.Logger
	store   TokenStore
	now     func() time.Time

	mu      sync.RWMutex
	current *AccessContext

	group singleflight.Group
}

type AccessOption func(*AccessController)

func WithAccessLogger(l logging.Logger) AccessOption {
	return func(c *AccessController) { c.logger = l }
}

// WithAccessClock replaces time.Now, mostly for tests.
func WithAccessClock(now func() time.Time) AccessOption {
	return func(c *AccessController) { c.now = now }
}

// WithAccessTokenStore enables loading and saving tokens through s.
func WithAccessTokenStore(s TokenStore) AccessOption {
	return func(c *AccessController) { c.store = s }
}

func NewAccessController(profile *endpoint.Profile, opts ...AccessOption) *AccessController {
	c := &AccessController{
		profile: profile,
		logger:  logging.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Current returns the cached context, or nil.
func (c *AccessController) Current() *AccessContext {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

func (c *AccessController) valid() *AccessContext {
	ac := c.Current()
	if ac == nil || ac.Expired(c.now()) {
		return nil
	}
	return ac
}

func (c *AccessController) swap(ac *AccessContext) {
	c.mu.Lock()
	c.current = ac
	c.mu.Unlock()
}

// Invalidate drops the cached context if it still holds token. The server
// rejecting a token we considered valid means the cache is stale.
func (c *AccessController) Invalidate(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil && c.current.Token() == token {
		c.current = nil
	}
}

// AccessToken returns a valid bearer token, requesting a new one through t
// when none is cached. If ctx is done before the refresh finishes, ctx.Err()
// is returned and the refresh keeps running for later callers.
func (c *AccessController) AccessToken(ctx context.Context, api endpoint.ApiContext, t transport.Transport) (string, error) {
	if ac := c.valid(); ac != nil {
		return ac.Token(), nil
	}

	refreshCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(refreshKey, func() (any, error) {
		return c.refresh(refreshCtx, api, t)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(*AccessContext).Token(), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (c *AccessController) refresh(ctx context.Context, api endpoint.ApiContext, t transport.Transport) (*AccessContext, error) {
	// another caller may have finished a refresh between our check and here
	if ac := c.valid(); ac != nil {
		return ac, nil
	}

	if ac := c.loadStored(ctx, api); ac != nil {
		c.swap(ac)
		return ac, nil
	}

	c.logger.Info(ctx, "requesting access token")

	resp, err := t.Do(ctx, c.profile.AccessToken(api))
	if err != nil {
		return nil, unavailable(fmt.Errorf("request access token: %w", err))
	}
	if resp == nil {
		return nil, unavailable(fmt.Errorf("request access token: %w", errNoResponse))
	}
	if resp.Body == nil {
		resp.Body = http.NoBody
	}
	defer closeBody(resp.Body)

	if IsErrorCode(resp.StatusCode) {
		err := Classify(resp.StatusCode, resp.Body)
		c.logger.Warn(ctx, "access token request rejected", "status", resp.StatusCode, "error", err)
		return nil, err
	}

	var token models.AccessToken
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, decodeFailure(resp.StatusCode, fmt.Errorf("decode access token: %w", err))
	}
	if token.AccessToken == "" {
		return nil, decodeFailure(resp.StatusCode, errors.New("decode access token: empty access_token"))
	}

	ac := NewAccessContext(api.Base, token)
	if ac.Expired(c.now()) {
		c.logger.Warn(ctx, "server issued an access token inside the expiry tolerance", "expires_at", token.ExpiresAt)
	}
	c.swap(ac)
	c.logger.Info(ctx, "access token refreshed", "expires_at", ac.ExpiresAt())

	if c.store != nil {
		if err := c.store.Save(ctx, token); err != nil {
			c.logger.Warn(ctx, "failed to persist access token", "error", err)
		}
	}
	return ac, nil
}

func (c *AccessController) loadStored(ctx context.Context, api endpoint.ApiContext) *AccessContext {
	if c.store == nil || c.Current() != nil {
		return nil
	}
	token, ok, err := c.store.Load(ctx)
	if err != nil {
		c.logger.Warn(ctx, "failed to load stored access token", "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	ac := NewAccessContext(api.Base, token)
	if ac.Expired(c.now()) {
		return nil
	}
	c.logger.Debug(ctx, "using stored access token", "expires_at", ac.ExpiresAt())
	return ac
}

// closeBody drains what is left so the connection can be reused.
func closeBody(body io.ReadCloser) {
	if body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(body, maxErrorBody))
	_ = body.Close()
}
