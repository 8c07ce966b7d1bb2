package client

import "net/http"

// BearerTransport adds "Authorization: Bearer <token>" when the session has a
// token and leaves the request untouched otherwise. It never fails a request
// on its own.
type BearerTransport struct {
	Session *Session
	Base    http.RoundTripper
}

func (t *BearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	tok := ""
	if t.Session != nil {
		tok = t.Session.Token()
	}
	if tok == "" {
		return base.RoundTrip(req)
	}
	// RoundTrippers must not modify the caller's request.
	r := req.Clone(req.Context())
	r.Header.Set("Authorization", "Bearer "+tok)
	return base.RoundTrip(r)
}
