package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/idealab/indoormap/sw"
)

func testUpstream(t *testing.T, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/", "/index.html":
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte("<html>viewer</html>"))
		case "/idealab_floor_plan.svg":
			w.Header().Set("Content-Type", "image/svg+xml")
			w.Write([]byte("<svg/>"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func installedGateway(t *testing.T, upstream *httptest.Server) (http.Handler, *controller) {
	t.Helper()
	base, err := url.Parse(upstream.URL)
	if err != nil {
		t.Fatal(err)
	}
	ctrl := newController()
	fetcher := &sw.HTTPFetcher{Client: upstream.Client(), Base: base}
	worker := sw.New(sw.NewMemoryStorage(), ctrl, fetcher, sw.Config{
		CacheName: "indoor-map-v1",
		Assets:    []string{"/", "/index.html", "/idealab_floor_plan.svg"},
		Lifecycle: ctrl,
	})
	if err := worker.OnInstall(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := worker.OnActivate(context.Background()); err != nil {
		t.Fatal(err)
	}
	return gatewayHandler(worker, ctrl, fetcher), ctrl
}

func TestGatewayServesFromCache(t *testing.T) {
	var hits atomic.Int64
	upstream := testUpstream(t, &hits)
	handler, _ := installedGateway(t, upstream)
	installHits := hits.Load()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/idealab_floor_plan.svg", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status %d", rec.Code)
	}
	if rec.Body.String() != "<svg/>" {
		t.Errorf("body %q", rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "image/svg+xml" {
		t.Errorf("content type %q", got)
	}
	if hits.Load() != installHits {
		t.Errorf("cached request reached the upstream: %d hits, expected %d", hits.Load(), installHits)
	}
}

func TestGatewayFallsBackToNetwork(t *testing.T) {
	var hits atomic.Int64
	upstream := testUpstream(t, &hits)
	handler, _ := installedGateway(t, upstream)
	installHits := hits.Load()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/c.png", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status %d, expected the live 404 to pass through", rec.Code)
	}
	if hits.Load() != installHits+1 {
		t.Errorf("expected exactly one network call, got %d", hits.Load()-installHits)
	}
}

func TestGatewayQueryStringIsPartOfKey(t *testing.T) {
	var hits atomic.Int64
	upstream := testUpstream(t, &hits)
	base, err := url.Parse(upstream.URL)
	if err != nil {
		t.Fatal(err)
	}
	ctrl := newController()
	fetcher := &sw.HTTPFetcher{Client: upstream.Client(), Base: base}
	worker := sw.New(sw.NewMemoryStorage(), ctrl, fetcher, sw.Config{
		CacheName: "indoor-map-v1",
		Assets:    []string{"/index.html", "/idealab_floor_plan.svg?v=2"},
		Lifecycle: ctrl,
	})
	if err := worker.OnInstall(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := worker.OnActivate(context.Background()); err != nil {
		t.Fatal(err)
	}
	handler := gatewayHandler(worker, ctrl, fetcher)
	installHits := hits.Load()

	// A querystring request must not match the query-less cached entry.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/index.html?x=1", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status %d", rec.Code)
	}
	if hits.Load() != installHits+1 {
		t.Errorf("expected /index.html?x=1 to fall through to the network (1 call), got %d calls", hits.Load()-installHits)
	}

	// An asset cached under a versioned URL is matched query and all.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/idealab_floor_plan.svg?v=2", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status %d", rec.Code)
	}
	if rec.Body.String() != "<svg/>" {
		t.Errorf("body %q", rec.Body.String())
	}
	if hits.Load() != installHits+1 {
		t.Errorf("versioned asset reached the upstream: %d extra calls", hits.Load()-installHits-1)
	}
}

func TestGatewayServesOffline(t *testing.T) {
	var hits atomic.Int64
	upstream := testUpstream(t, &hits)
	handler, _ := installedGateway(t, upstream)
	upstream.Close()

	// Precached assets keep working with the origin gone.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/index.html", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status %d with origin down", rec.Code)
	}

	// Anything else surfaces the network failure.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/c.png", nil))
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status %d, expected 502 for a failed fallback", rec.Code)
	}
}

func TestGatewayPassesThroughBeforeActivation(t *testing.T) {
	var hits atomic.Int64
	upstream := testUpstream(t, &hits)
	base, _ := url.Parse(upstream.URL)
	ctrl := newController()
	fetcher := &sw.HTTPFetcher{Client: upstream.Client(), Base: base}
	worker := sw.New(sw.NewMemoryStorage(), ctrl, fetcher, sw.Config{
		CacheName: "indoor-map-v1",
		Assets:    []string{"/index.html"},
		Lifecycle: ctrl,
	})
	if err := worker.OnInstall(context.Background()); err != nil {
		t.Fatal(err)
	}
	handler := gatewayHandler(worker, ctrl, fetcher)
	installHits := hits.Load()

	// Not yet activated: even a precached asset goes to the network.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/index.html", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status %d", rec.Code)
	}
	if hits.Load() != installHits+1 {
		t.Error("uncontrolled request should pass through to the network")
	}

	if err := worker.OnActivate(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !ctrl.Active() {
		t.Fatal("activation did not claim the gateway")
	}
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/index.html", nil))
	if hits.Load() != installHits+1 {
		t.Error("controlled request should be served from cache")
	}
}
