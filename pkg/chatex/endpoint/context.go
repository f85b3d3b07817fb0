// Package endpoint builds Chatex requests as plain transport.Request values.
//
// Builders are pure: they take the bearer token and the call arguments and
// return the method, URL, headers and body. They never talk to the network
// and never see the API secret, except Profile.AccessToken which is the one
// request allowed to carry it.
package endpoint

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var ErrInvalidBaseURL = errors.New("invalid base url")

// BaseContext holds the API root URL. It is immutable and safe to share.
type BaseContext struct {
	root url.URL
}

// NewBaseContext parses raw as an absolute http(s) URL.
func NewBaseContext(raw string) (BaseContext, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return BaseContext{}, fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return BaseContext{}, fmt.Errorf("%w: scheme must be http or https, got %q", ErrInvalidBaseURL, u.Scheme)
	}
	if u.Host == "" {
		return BaseContext{}, fmt.Errorf("%w: missing host", ErrInvalidBaseURL)
	}
	u.RawQuery = ""
	u.Fragment = ""
	return BaseContext{root: *u}, nil
}

// URL returns a new URL with the escaped segments appended to the root path.
func (b BaseContext) URL(segments ...string) *url.URL {
	u := b.root
	escaped := strings.TrimSuffix(b.root.EscapedPath(), "/")
	plain := strings.TrimSuffix(b.root.Path, "/")
	for _, s := range segments {
		escaped += "/" + url.PathEscape(s)
		plain += "/" + s
	}
	u.Path = plain
	u.RawPath = escaped
	return &u
}

func (b BaseContext) String() string {
	return b.root.String()
}

// ApiContext is BaseContext plus the long-lived API secret used to mint
// access tokens.
type ApiContext struct {
	Base   BaseContext
	secret string
}

func NewApiContext(base BaseContext, secret string) ApiContext {
	return ApiContext{Base: base, secret: secret}
}

// HasSecret reports whether a secret was configured.
func (a ApiContext) HasSecret() bool {
	return a.secret != ""
}
