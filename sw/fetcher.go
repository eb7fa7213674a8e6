package sw

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// HTTPFetcher performs live fetches against an upstream origin.
// Relative request URLs are resolved against Base; absolute URLs
// (the asset list's cross-origin entries) are fetched as-is.
type HTTPFetcher struct {
	Client *http.Client // nil means http.DefaultClient
	Base   *url.URL     // upstream origin for relative keys
}

// Fetch implements Fetcher. The response is captured whole so it can
// be stored or replayed; an error status is not an error here, it is
// the live result the page would have seen.
func (f *HTTPFetcher) Fetch(ctx context.Context, req *Request) (*Response, error) {
	target, err := f.resolve(req.URL)
	if err != nil {
		return nil, fmt.Errorf("sw fetcher: %w", err)
	}
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, fmt.Errorf("sw fetcher: %w", err)
	}
	for k, v := range req.Header {
		httpReq.Header[k] = v
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	httpResp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sw fetcher: %s: %w", target, err)
	}
	defer httpResp.Body.Close()
	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("sw fetcher: read %s: %w", target, err)
	}
	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header.Clone(),
		Body:       body,
	}, nil
}

func (f *HTTPFetcher) resolve(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if u.IsAbs() {
		return u.String(), nil
	}
	if f.Base == nil {
		return "", fmt.Errorf("relative url %q without a base origin", raw)
	}
	return f.Base.ResolveReference(u).String(), nil
}
