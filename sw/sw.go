/*
Package sw implements the offline asset cache worker for the map viewer.

The worker mirrors a service worker's lifecycle: on install it opens a
named cache bucket and populates it with a fixed asset list (all entries
or none), on activate it takes control of already-open clients, and for
every intercepted request it answers cache-first with network fallback.

The cache bucket, client registry, and network fetcher are injected, so
hosts can run the worker against persistent storage (see the cachestore
package) or entirely in memory.
*/
package sw

import (
	"context"
	"net/http"
	"net/url"
	"path"
	"strings"
)

// Request is an intercepted request. It is observed at runtime and
// never persisted.
type Request struct {
	Method string      // HTTP method; empty means GET
	URL    string      // relative path or absolute URL
	Header http.Header // optional request headers
}

// Response is a captured response: enough of an HTTP exchange to be
// replayed verbatim to a client.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Clone returns a deep copy so that callers cannot mutate a cached
// response in place.
func (r *Response) Clone() *Response {
	if r == nil {
		return nil
	}
	c := Response{
		StatusCode: r.StatusCode,
		Header:     make(http.Header, len(r.Header)),
		Body:       append([]byte(nil), r.Body...),
	}
	for k, v := range r.Header {
		c.Header[k] = append([]string(nil), v...)
	}
	return &c
}

// Entry pairs a cache key with its captured response.
type Entry struct {
	Key      string
	Response Response
}

// Bucket is a named key→response store. Only install writes to it, so
// implementations need not guard against concurrent writers, but Match
// must be safe to call from concurrent fetch events.
type Bucket interface {
	// Match looks up the response stored under key. The boolean
	// reports whether a match exists.
	Match(ctx context.Context, key string) (*Response, bool, error)

	// AddAll stores every entry, or none of them. A failed AddAll
	// must leave previously stored entries untouched.
	AddAll(ctx context.Context, entries []Entry) error
}

// Storage opens named buckets, creating them if absent.
type Storage interface {
	Open(ctx context.Context, name string) (Bucket, error)
}

// Fetcher performs a live network fetch.
type Fetcher interface {
	Fetch(ctx context.Context, req *Request) (*Response, error)
}

// Clients is the hosting environment's registry of open pages.
type Clients interface {
	// Claim takes control of all currently open pages. The worker
	// awaits its completion during activation.
	Claim(ctx context.Context) error
}

// Lifecycle is the environment's version-promotion control.
type Lifecycle interface {
	// SkipWaiting asks the environment to promote this worker as
	// soon as install completes instead of waiting for old
	// instances to close.
	SkipWaiting()
}

// CanonicalKey normalizes an asset list entry or request URL into the
// key scheme used by the cache bucket. Absolute URLs are kept whole;
// everything else becomes a cleaned, rooted path. The same
// normalization runs at install and at match time, so a request for
// "./index.html" finds the entry stored for "/index.html".
func CanonicalKey(raw string) string {
	if u, err := url.Parse(raw); err == nil && u.IsAbs() {
		return u.String()
	}
	p := strings.TrimPrefix(raw, ".")
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	// path.Clean drops the trailing slash that distinguishes a
	// directory request, except at the root.
	trailing := strings.HasSuffix(p, "/") && p != "/"
	p = path.Clean(p)
	if trailing {
		p += "/"
	}
	return p
}
