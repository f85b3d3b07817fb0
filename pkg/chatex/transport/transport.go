// Package transport sends fully built Chatex requests over HTTP.
//
// Requests are plain values assembled by the endpoint builders; a Transport
// only moves them over the wire and hands back the status, headers and an
// unread body. Classification of the status and decoding of the body belong
// to the caller.
package transport

//go:generate mockgen -destination mocks/transport_mock.go -package mocks github.com/dmitrijs2005/chatex/pkg/chatex/transport Transport

import (
	"context"
	"io"
	"net/http"
)

const (
	HeaderAccept        = "Accept"
	HeaderAuthorization = "Authorization"
	HeaderContentType   = "Content-Type"

	MIMEApplicationJSON = "application/json"
)

// Request is a complete description of one HTTP call.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Response carries the status and the body as a single-use stream. The
// receiver must close Body.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}

// Transport is anything that can send a Request and return a Response.
// A non-nil error means no HTTP response was received.
type Transport interface {
	Do(ctx context.Context, req Request) (*Response, error)
}

// Func adapts a plain function to Transport.
type Func func(ctx context.Context, req Request) (*Response, error)

func (f Func) Do(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}

// Bearer formats an Authorization header value.
func Bearer(token string) string {
	return "Bearer " + token
}
