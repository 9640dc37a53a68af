package tesla

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
)

const userAgent = "teslaowner-go/1.0"

// buildRequest 根据端点描述构造 HTTP 请求，不执行任何 I/O
func buildRequest(ctx context.Context, baseURL string, ep Endpoint, token *Token) (*http.Request, error) {
	u, err := url.Parse(baseURL + ep.Path)
	if err != nil {
		return nil, &Error{Kind: KindInvalidURL, Err: err}
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, &Error{Kind: KindInvalidURL}
	}

	if q, ok := ep.Params.(QueryParams); ok && len(q) > 0 {
		values := u.Query()
		for k, v := range q {
			values.Set(k, v)
		}
		u.RawQuery = values.Encode()
	}

	if ep.RequiresAuth && token == nil {
		return nil, &Error{Kind: KindUnauthenticated}
	}

	var body *bytes.Reader
	if b, ok := ep.Params.(BodyParams); ok && len(b) > 0 {
		body = bytes.NewReader(b)
	}

	var req *http.Request
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, ep.Method, u.String(), body)
	} else {
		req, err = http.NewRequestWithContext(ctx, ep.Method, u.String(), nil)
	}
	if err != nil {
		return nil, &Error{Kind: KindInvalidURL, Err: err}
	}

	for k, v := range ep.Headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if ep.RequiresAuth {
		req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	}

	return req, nil
}
