package auth

import (
	"net/http"
)

// Transport authorizes requests with a Provider's token. A 401 response
// triggers one forced refresh and one retry.
type Transport struct {
	Provider *Provider
	// Base defaults to http.DefaultTransport
	Base http.RoundTripper
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// RoundTrip implements http.RoundTripper
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	tok, err := t.Provider.ValidToken(ctx)
	if err != nil {
		return nil, err
	}

	first := req.Clone(ctx)
	tok.SetAuthHeader(first)
	resp, err := t.base().RoundTrip(first)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	retry := req.Clone(ctx)
	if req.Body != nil && req.Body != http.NoBody {
		if req.GetBody == nil {
			return resp, nil
		}
		body, err := req.GetBody()
		if err != nil {
			return resp, nil
		}
		retry.Body = body
	}

	tok, err = t.Provider.Refresh(ctx)
	if err != nil {
		return resp, nil
	}
	resp.Body.Close()

	tok.SetAuthHeader(retry)
	return t.base().RoundTrip(retry)
}
