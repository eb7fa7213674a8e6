package main

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/idealab/indoormap/sw"
)

// controller is the gateway's stand-in for the hosting environment:
// it records the worker's skip-waiting request and flips the gateway
// into intercepting mode when the worker claims its clients. Until
// then requests pass straight through to the network, the same as
// pages not yet controlled by a worker.
type controller struct {
	active  atomic.Bool
	skipped atomic.Bool
}

func newController() *controller {
	return &controller{}
}

// Claim implements sw.Clients.
func (c *controller) Claim(ctx context.Context) error {
	c.active.Store(true)
	return nil
}

// SkipWaiting implements sw.Lifecycle.
func (c *controller) SkipWaiting() {
	c.skipped.Store(true)
}

// Active reports whether the worker has taken over request handling.
func (c *controller) Active() bool {
	return c.active.Load()
}

// hop-by-hop headers are connection metadata, not part of a captured
// response.
var hopByHop = []string{"Connection", "Keep-Alive", "Proxy-Connection", "Transfer-Encoding", "Upgrade", "Te", "Trailer"}

// gatewayHandler adapts HTTP requests into worker fetch events. A
// request arriving before activation goes straight to the network; a
// network failure surfaces as 502, the closest a gateway gets to
// letting the page see the failed fetch.
func gatewayHandler(worker *sw.Worker, ctrl *controller, fetcher sw.Fetcher) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := &sw.Request{
			Method: r.Method,
			URL:    requestKey(r),
			Header: requestHeader(r),
		}
		var (
			resp *sw.Response
			err  error
		)
		if ctrl.Active() {
			resp, err = worker.OnFetch(r.Context(), req)
		} else {
			resp, err = fetcher.Fetch(r.Context(), req)
		}
		if err != nil {
			log.Printf("gateway: %s %s: %s", r.Method, req.URL, err)
			http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
			return
		}
		writeResponse(w, resp)
	})
}

// requestKey yields the worker's cache key for an incoming request:
// the full URL for proxy-form requests to third-party assets, the
// path and query for same-origin requests. The query stays in the key
// so a querystring request never matches a query-less precached entry,
// and versioned assets precached with a query can be matched at all.
func requestKey(r *http.Request) string {
	if r.URL.IsAbs() {
		return r.URL.String()
	}
	return r.URL.RequestURI()
}

func requestHeader(r *http.Request) http.Header {
	h := r.Header.Clone()
	for _, k := range hopByHop {
		h.Del(k)
	}
	h.Del("Host")
	return h
}

func writeResponse(w http.ResponseWriter, resp *sw.Response) {
	for k, v := range resp.Header {
		skip := false
		for _, hh := range hopByHop {
			if http.CanonicalHeaderKey(hh) == http.CanonicalHeaderKey(k) {
				skip = true
				break
			}
		}
		if !skip {
			w.Header()[http.CanonicalHeaderKey(k)] = v
		}
	}
	// The body length is authoritative; a stored Content-Length may
	// predate gzip middleware.
	w.Header().Set("Content-Length", strconv.Itoa(len(resp.Body)))
	w.WriteHeader(resp.StatusCode)
	if _, err := w.Write(resp.Body); err != nil {
		log.Printf("gateway: write: %s", err)
	}
}
