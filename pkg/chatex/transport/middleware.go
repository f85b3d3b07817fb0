package transport

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/chatex/pkg/logging"
)

// Middleware wraps the http.RoundTripper used by the resty transport.
type Middleware func(http.RoundTripper) http.RoundTripper

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// LoggingMiddleware logs every round trip at debug level. Credentials in the
// Authorization header are never written out.
func LoggingMiddleware(logger logging.Logger) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			ctx := req.Context()
			start := time.Now()

			logger.Debug(ctx, "http request started",
				"method", req.Method,
				"url", req.URL.String(),
				"headers", redactHeaders(req.Header))

			resp, err := next.RoundTrip(req)
			duration := time.Since(start)
			if err != nil {
				logger.Warn(ctx, "http request failed",
					"method", req.Method,
					"url", req.URL.String(),
					"error", err,
					"duration", duration)
				return resp, err
			}

			logger.Debug(ctx, "http response received",
				"method", req.Method,
				"url", req.URL.String(),
				"status", resp.StatusCode,
				"duration", duration)
			return resp, nil
		})
	}
}

func redactHeaders(h http.Header) http.Header {
	out := h.Clone()
	if out.Get(HeaderAuthorization) != "" {
		out.Set(HeaderAuthorization, "Bearer [REDACTED]")
	}
	return out
}
