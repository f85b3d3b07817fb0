package chatex

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Kind is the closed set of failures a Chatex call can end with.
type Kind uint8

const (
	KindInternalServerError Kind = iota
	KindBadRequest
	KindUnauthorized
	KindPermissionDenied
	KindNotFound
	KindUnprocessableEntity
	KindRateLimited
	KindValidation
	// KindUnavailable means no HTTP response was received. It is an
	// InternalServerError-class failure.
	KindUnavailable
	// KindDecode means the server answered 200/201 with a body that could not
	// be decoded. It is an InternalServerError-class failure.
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad request"
	case KindUnauthorized:
		return "unauthorized"
	case KindPermissionDenied:
		return "permission denied"
	case KindNotFound:
		return "not found"
	case KindUnprocessableEntity:
		return "unprocessable entity"
	case KindRateLimited:
		return "rate limited"
	case KindValidation:
		return "validation error"
	case KindUnavailable:
		return "server unavailable"
	case KindDecode:
		return "malformed response"
	default:
		return "internal server error"
	}
}

// Error is returned by every client call that fails.
type Error struct {
	Kind       Kind
	StatusCode int
	// RetryAfter is the server's back-off hint in seconds; set only for
	// KindRateLimited.
	RetryAfter int64
	// Body is a trimmed copy of the error response body, if any.
	Body string
	Err  error
}

func (e *Error) Error() string {
	msg := "chatex: " + e.Kind.String()
	if e.Kind == KindRateLimited {
		msg = fmt.Sprintf("%s (retry after %d seconds)", msg, e.RetryAfter)
	}
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s [%d]", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches sentinels by kind. Unavailable and Decode also match
// ErrInternalServerError.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind == e.Kind {
		return true
	}
	return t.Kind == KindInternalServerError && (e.Kind == KindUnavailable || e.Kind == KindDecode)
}

var (
	ErrBadRequest          = newSentinel(KindBadRequest)
	ErrUnauthorized        = newSentinel(KindUnauthorized)
	ErrPermissionDenied    = newSentinel(KindPermissionDenied)
	ErrNotFound            = newSentinel(KindNotFound)
	ErrUnprocessableEntity = newSentinel(KindUnprocessableEntity)
	ErrRateLimited         = newSentinel(KindRateLimited)
	ErrValidation          = newSentinel(KindValidation)
	ErrInternalServerError = newSentinel(KindInternalServerError)
	ErrUnavailable         = newSentinel(KindUnavailable)
	ErrDecode              = newSentinel(KindDecode)
)

func newSentinel(k Kind) *Error { return &Error{Kind: k} }

const (
	maxErrorBody  = 64 << 10
	maxBodyDetail = 512
)

// IsErrorCode reports whether status must go through Classify. Only 200 and
// 201 are successful answers.
func IsErrorCode(status int) bool {
	return status != http.StatusOK && status != http.StatusCreated
}

type rateLimitBody struct {
	RetryAfter *int64 `json:"retryAfter"`
}

// Classify maps an error status and its body to an *Error. The body is read
// once; a 429 whose body has no parseable retryAfter becomes an internal
// server error.
func Classify(status int, body io.Reader) error {
	var raw []byte
	if body != nil {
		raw, _ = io.ReadAll(io.LimitReader(body, maxErrorBody))
	}

	e := &Error{StatusCode: status, Body: detail(raw)}
	switch status {
	case http.StatusBadRequest:
		e.Kind = KindBadRequest
	case http.StatusUnauthorized:
		e.Kind = KindUnauthorized
	case http.StatusForbidden:
		e.Kind = KindPermissionDenied
	case http.StatusNotFound:
		e.Kind = KindNotFound
	case http.StatusUnprocessableEntity:
		e.Kind = KindUnprocessableEntity
	case http.StatusTooManyRequests:
		var rl rateLimitBody
		if err := json.Unmarshal(raw, &rl); err != nil {
			e.Kind = KindInternalServerError
			e.Err = fmt.Errorf("decode rate limit body: %w", err)
			break
		}
		if rl.RetryAfter == nil {
			e.Kind = KindInternalServerError
			e.Err = errors.New("rate limit body has no retryAfter")
			break
		}
		e.Kind = KindRateLimited
		e.RetryAfter = *rl.RetryAfter
	default:
		e.Kind = KindInternalServerError
	}
	return e
}

func detail(raw []byte) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) > maxBodyDetail {
		raw = raw[:maxBodyDetail]
	}
	return string(raw)
}

// errNoResponse is reported when a Transport returns neither a response nor
// an error.
var errNoResponse = errors.New("transport returned no response")

func unavailable(err error) *Error {
	return &Error{Kind: KindUnavailable, Err: err}
}

func decodeFailure(status int, err error) *Error {
	return &Error{Kind: KindDecode, StatusCode: status, Err: err}
}

func validation(err error) *Error {
	return &Error{Kind: KindValidation, Err: err}
}

// RetryAfter extracts the rate-limit hint from err.
func RetryAfter(err error) (int64, bool) {
	var e *Error
	if errors.As(err, &e) && e.Kind == KindRateLimited {
		return e.RetryAfter, true
	}
	return 0, false
}
