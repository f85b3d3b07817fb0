package endpoint

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dmitrijs2005/chatex/pkg/chatex/models"
	"github.com/dmitrijs2005/chatex/pkg/chatex/transport"
)

func defaultHeader(token string) http.Header {
	h := make(http.Header, 3)
	h.Set(transport.HeaderAccept, transport.MIMEApplicationJSON)
	h.Set(transport.HeaderAuthorization, transport.Bearer(token))
	return h
}

func newRequest(method, token string, u *url.URL) transport.Request {
	return transport.Request{
		Method: method,
		URL:    u.String(),
		Header: defaultHeader(token),
	}
}

func get(token string, u *url.URL) transport.Request {
	return newRequest(http.MethodGet, token, u)
}

// withJSON builds a request carrying v as its JSON body.
func withJSON(method, token string, u *url.URL, v any) (transport.Request, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return transport.Request{}, fmt.Errorf("encode %s %s body: %w", method, u.Path, err)
	}
	req := newRequest(method, token, u)
	req.Header.Set(transport.HeaderContentType, transport.MIMEApplicationJSON)
	req.Body = body
	return req, nil
}

func setPage(q url.Values, p models.Page) {
	q.Set("offset", strconv.Itoa(p.EffectiveOffset()))
	q.Set("limit", strconv.Itoa(p.EffectiveLimit()))
}

func withQuery(u *url.URL, q url.Values) *url.URL {
	u.RawQuery = q.Encode()
	return u
}

func requireID(kind, id string) error {
	if id == "" {
		return fmt.Errorf("%s id is empty", kind)
	}
	return nil
}
