package chatex

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/chatex/pkg/chatex/endpoint"
	"github.com/dmitrijs2005/chatex/pkg/chatex/transport"
	"github.com/stretchr/testify/require"
)

const (
	testBaseURL = "https://api.chatex.test/v1"
	testSecret  = "SECRET"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Unix(1_600_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func jsonResponse(status int, body string) *transport.Response {
	return &transport.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

// fakeAPI answers POST /auth/access-token with sequential tokens TOKEN,
// TOKEN2, ... valid for ttl, and passes every other request to handle.
type fakeAPI struct {
	clock *fakeClock
	ttl   time.Duration

	mu         sync.Mutex
	tokenCalls int
	requests   []transport.Request

	// gate, when set, blocks token requests until it is closed.
	gate   chan struct{}
	handle func(req transport.Request) (*transport.Response, error)
}

func newFakeAPI(clock *fakeClock) *fakeAPI {
	return &fakeAPI{clock: clock, ttl: time.Hour}
}

func (f *fakeAPI) Do(ctx context.Context, req transport.Request) (*transport.Response, error) {
	u, err := url.Parse(req.URL)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if strings.HasSuffix(u.Path, "/auth/access-token") {
		if f.gate != nil {
			<-f.gate
		}
		f.mu.Lock()
		f.tokenCalls++
		n := f.tokenCalls
		f.mu.Unlock()

		token := "TOKEN"
		if n > 1 {
			token += strconv.Itoa(n)
		}
		exp := f.clock.Now().Add(f.ttl).Unix()
		return jsonResponse(http.StatusOK, `{"access_token":"`+token+`","expires_at":`+strconv.FormatInt(exp, 10)+`}`), nil
	}

	if f.handle == nil {
		return jsonResponse(http.StatusNotFound, `{"message":"not found"}`), nil
	}
	return f.handle(req)
}

func (f *fakeAPI) TokenCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tokenCalls
}

func (f *fakeAPI) Requests() []transport.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]transport.Request(nil), f.requests...)
}

func newTestClient(t *testing.T, api transport.Transport, clock *fakeClock, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithTransport(api), WithClock(clock.Now)}, opts...)
	c, err := New(testBaseURL, testSecret, opts...)
	require.NoError(t, err)
	return c
}

func testAPIContext(t *testing.T) (endpoint.ApiContext, *endpoint.Profile) {
	t.Helper()
	base, err := endpoint.NewBaseContext(testBaseURL)
	require.NoError(t, err)
	return endpoint.NewApiContext(base, testSecret), endpoint.NewProfile(base)
}
