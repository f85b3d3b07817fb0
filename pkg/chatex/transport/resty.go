package transport

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/dmitrijs2005/chatex/pkg/logging"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const DefaultTimeout = 30 * time.Second

// RestyTransport is the default Transport. Responses are returned unparsed so
// the body stays a single-use stream owned by the caller.
type RestyTransport struct {
	client      *resty.Client
	logger      logging.Logger
	metrics     MetricsCollector
	limiter     *rate.Limiter
	base        http.RoundTripper
	middlewares []Middleware
	timeout     time.Duration
}

type Option func(*RestyTransport)

// WithTimeout bounds every request, including reading the response headers.
func WithTimeout(d time.Duration) Option {
	return func(t *RestyTransport) { t.timeout = d }
}

func WithLogger(l logging.Logger) Option {
	return func(t *RestyTransport) { t.logger = l }
}

func WithMetricsCollector(m MetricsCollector) Option {
	return func(t *RestyTransport) { t.metrics = m }
}

// WithRateLimit paces outgoing requests to rps per second with the given
// burst, waiting (respecting the context) instead of failing.
func WithRateLimit(rps float64, burst int) Option {
	return func(t *RestyTransport) {
		if rps <= 0 {
			t.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		t.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRoundTripper replaces the underlying http.RoundTripper.
func WithRoundTripper(rt http.RoundTripper) Option {
	return func(t *RestyTransport) { t.base = rt }
}

// WithMiddleware wraps the round tripper; the first middleware added is the
// outermost.
func WithMiddleware(mw Middleware) Option {
	return func(t *RestyTransport) { t.middlewares = append(t.middlewares, mw) }
}

func New(opts ...Option) *RestyTransport {
	t := &RestyTransport{
		logger:  logging.NewNop(),
		metrics: NoopMetricsCollector{},
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(t)
	}

	rt := t.base
	if rt == nil {
		rt = http.DefaultTransport
	}
	for i := len(t.middlewares) - 1; i >= 0; i-- {
		rt = t.middlewares[i](rt)
	}

	t.client = resty.New().
		SetTransport(rt).
		SetTimeout(t.timeout).
		SetRetryCount(0)

	return t
}

func (t *RestyTransport) Do(ctx context.Context, req Request) (*Response, error) {
	path := pathOf(req.URL)

	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			t.metrics.RecordRequestError(req.Method, path)
			return nil, fmt.Errorf("[transport][resty][Do] rate limiter: %w", err)
		}
	}

	r := t.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true)
	for k, vs := range req.Header {
		for _, v := range vs {
			r.Header.Add(k, v)
		}
	}
	if len(req.Body) > 0 {
		r.SetBody(req.Body)
	}

	start := time.Now()
	resp, err := r.Execute(req.Method, req.URL)
	duration := time.Since(start)
	if err != nil {
		t.metrics.RecordRequestError(req.Method, path)
		t.logger.Warn(ctx, "request failed", "method", req.Method, "path", path, "error", err)
		return nil, fmt.Errorf("[transport][resty][Do] %s %s: %w", req.Method, path, err)
	}

	t.metrics.RecordRequestDuration(req.Method, path, resp.StatusCode(), duration)
	t.metrics.RecordRequestCount(req.Method, path, resp.StatusCode())

	return &Response{
		StatusCode: resp.StatusCode(),
		Header:     resp.Header(),
		Body:       resp.RawBody(),
	}, nil
}

func pathOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Path
}
