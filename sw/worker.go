package sw

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
)

var (
	// ErrNotInstalled is returned by OnActivate when no successful
	// install has completed.
	ErrNotInstalled = errors.New("sw: worker is not installed")

	// ErrBadStatus is wrapped into install errors when a precache
	// fetch returns an error status.
	ErrBadStatus = errors.New("sw: unexpected response status")
)

// Config carries the deploy-time values of a worker: the versioned
// cache bucket name and the fixed asset list. Bump CacheName to
// invalidate everything at once.
type Config struct {
	// CacheName is the version-tagged bucket name, e.g. "indoor-map-v1".
	CacheName string

	// Assets lists every URL required for the page to work offline.
	Assets []string

	// Verify, when set, is called with each precached body before it
	// is committed. Returning an error fails the whole install.
	Verify func(key string, body []byte) error

	// Lifecycle, when set, receives the skip-waiting request after a
	// successful install.
	Lifecycle Lifecycle
}

// Worker is the offline asset cache worker. A host drives it through
// the three hooks: OnInstall, OnActivate, and OnFetch. The host must
// run OnInstall to completion before OnActivate; fetch events may run
// concurrently with each other.
type Worker struct {
	storage Storage
	clients Clients
	fetcher Fetcher
	cfg     Config

	mu     sync.RWMutex
	bucket Bucket
}

// New creates a worker over the given storage, client registry, and
// network fetcher.
func New(storage Storage, clients Clients, fetcher Fetcher, cfg Config) *Worker {
	return &Worker{
		storage: storage,
		clients: clients,
		fetcher: fetcher,
		cfg:     cfg,
	}
}

// OnInstall opens the configured cache bucket and populates it with
// every asset list entry. The population is all-or-nothing: if any
// fetch, verification, or store fails, no partial cache is committed
// and the previous install (if any) remains authoritative.
//
// On success the worker requests immediate promotion via the
// configured Lifecycle.
func (w *Worker) OnInstall(ctx context.Context) error {
	bucket, err := w.storage.Open(ctx, w.cfg.CacheName)
	if err != nil {
		return fmt.Errorf("sw install: open %q: %w", w.cfg.CacheName, err)
	}
	entries := make([]Entry, 0, len(w.cfg.Assets))
	for _, asset := range w.cfg.Assets {
		key := CanonicalKey(asset)
		resp, err := w.fetcher.Fetch(ctx, &Request{Method: http.MethodGet, URL: key})
		if err != nil {
			return fmt.Errorf("sw install: fetch %q: %w", asset, err)
		}
		if resp.StatusCode >= http.StatusBadRequest {
			return fmt.Errorf("sw install: fetch %q: status %d: %w", asset, resp.StatusCode, ErrBadStatus)
		}
		if w.cfg.Verify != nil {
			if err := w.cfg.Verify(key, resp.Body); err != nil {
				return fmt.Errorf("sw install: verify %q: %w", asset, err)
			}
		}
		entries = append(entries, Entry{Key: key, Response: *resp})
	}
	if err := bucket.AddAll(ctx, entries); err != nil {
		return fmt.Errorf("sw install: store: %w", err)
	}

	w.mu.Lock()
	w.bucket = bucket
	w.mu.Unlock()

	if w.cfg.Lifecycle != nil {
		w.cfg.Lifecycle.SkipWaiting()
	}
	return nil
}

// OnActivate takes control of all currently open pages. The returned
// error is the completion signal the environment awaits; activation is
// not finished until Claim has finished. No cache cleanup happens
// here, so buckets from prior cache names stay behind until an
// operator removes them.
func (w *Worker) OnActivate(ctx context.Context) error {
	w.mu.RLock()
	installed := w.bucket != nil
	w.mu.RUnlock()
	if !installed {
		return ErrNotInstalled
	}
	if err := w.clients.Claim(ctx); err != nil {
		return fmt.Errorf("sw activate: %w", err)
	}
	return nil
}

// OnFetch answers one intercepted request, cache-first with network
// fallback. A cached match is returned verbatim without consulting
// the network. On a miss, exactly one live fetch runs and its result,
// success or failure, is returned unmodified; the result is never
// written back into the bucket. Requests other than GET and HEAD
// bypass the cache entirely.
func (w *Worker) OnFetch(ctx context.Context, req *Request) (*Response, error) {
	if cacheable(req.Method) {
		w.mu.RLock()
		bucket := w.bucket
		w.mu.RUnlock()
		if bucket != nil {
			resp, ok, err := bucket.Match(ctx, CanonicalKey(req.URL))
			if err != nil {
				return nil, fmt.Errorf("sw fetch: match %q: %w", req.URL, err)
			}
			if ok {
				return resp.Clone(), nil
			}
		}
	}
	return w.fetcher.Fetch(ctx, req)
}

// cacheable reports whether the bucket can answer this method. The
// platform cache the original worker runs on only matches GET; HEAD
// is answered from the same stored entry.
func cacheable(method string) bool {
	return method == "" || method == http.MethodGet || method == http.MethodHead
}
