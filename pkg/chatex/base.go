package chatex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/chatex/pkg/chatex/endpoint"
	"github.com/dmitrijs2005/chatex/pkg/chatex/transport"
	"github.com/dmitrijs2005/chatex/pkg/logging"
)

// clientBase is shared by all resource clients of one Client.
type clientBase struct {
	transport transport.Transport
	api       endpoint.ApiContext
	access    *AccessController
	logger    logging.Logger
}

func (b *clientBase) accessToken(ctx context.Context) (string, error) {
	return b.access.AccessToken(ctx, b.api, b.transport)
}

// createRequest obtains a valid token and only then builds the request. A
// build failure is reported as a validation error.
func createRequest[E any](ctx context.Context, b *clientBase, e E, build func(token string, e E) (transport.Request, error)) (transport.Request, error) {
	token, err := b.accessToken(ctx)
	if err != nil {
		return transport.Request{}, err
	}
	req, err := build(token, e)
	if err != nil {
		return transport.Request{}, validation(err)
	}
	return req, nil
}

// callToEndpoint sends req and either decodes a 200/201 body with decode or
// classifies the error status. The response body is always closed.
func callToEndpoint[T any](ctx context.Context, b *clientBase, req transport.Request, decode func(body io.Reader) (T, error)) (T, error) {
	var zero T

	resp, err := b.transport.Do(ctx, req)
	if err != nil {
		b.logger.Warn(ctx, "request failed", "method", req.Method, "url", req.URL, "error", err)
		return zero, unavailable(err)
	}
	if resp == nil {
		b.logger.Warn(ctx, "request failed", "method", req.Method, "url", req.URL, "error", errNoResponse)
		return zero, unavailable(errNoResponse)
	}
	if resp.Body == nil {
		resp.Body = http.NoBody
	}
	defer closeBody(resp.Body)

	if IsErrorCode(resp.StatusCode) {
		err := Classify(resp.StatusCode, resp.Body)
		if errors.Is(err, ErrUnauthorized) {
			if token, ok := bearerOf(req); ok {
				b.access.Invalidate(token)
			}
		}
		b.logger.Debug(ctx, "request returned error status", "method", req.Method, "url", req.URL, "status", resp.StatusCode)
		return zero, err
	}

	v, err := decode(resp.Body)
	if err != nil {
		b.logger.Error(ctx, "failed to decode response", "method", req.Method, "url", req.URL, "error", err)
		return zero, decodeFailure(resp.StatusCode, err)
	}
	return v, nil
}

// execute is createRequest followed by callToEndpoint.
func execute[E, T any](ctx context.Context, b *clientBase, e E, build func(token string, e E) (transport.Request, error), decode func(body io.Reader) (T, error)) (T, error) {
	req, err := createRequest(ctx, b, e, build)
	if err != nil {
		var zero T
		return zero, err
	}
	return callToEndpoint(ctx, b, req, decode)
}

// decodeJSON is the decoder used for every JSON payload.
func decodeJSON[T any](body io.Reader) (T, error) {
	var v T
	if err := json.NewDecoder(body).Decode(&v); err != nil {
		return v, fmt.Errorf("decode %T: %w", v, err)
	}
	return v, nil
}

// discardBody is the decoder for endpoints whose success body carries nothing
// the caller needs.
func discardBody(body io.Reader) (struct{}, error) {
	_, err := io.Copy(io.Discard, body)
	return struct{}{}, err
}

func bearerOf(req transport.Request) (string, bool) {
	return strings.CutPrefix(req.Header.Get(transport.HeaderAuthorization), "Bearer ")
}
