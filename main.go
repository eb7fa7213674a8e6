package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/facebookgo/flagenv"

	"github.com/idealab/indoormap/cachestore"
	"github.com/idealab/indoormap/manifest"
	"github.com/idealab/indoormap/sw"
)

// main is the offline gateway for the indoor map viewer: precache the
// asset list on startup, then serve everything cache-first with
// network fallback.
func main() {
	// Setup flags
	var (
		fPort              = flag.Int("port", 8080, "Port to listen on.")
		fReadTimeout       = flag.Duration("readtimeout", 10*time.Second, "HTTP server read timeout.")
		fReadHeaderTimeout = flag.Duration("readheadertimeout", 5*time.Second, "HTTP server read header timeout.")
		fWriteTimeout      = flag.Duration("writetimeout", 30*time.Second, "HTTP server write timeout.")
		fUpstream          = flag.String("upstream", "http://127.0.0.1:9000", "Origin server for the viewer site.")
		fManifest          = flag.String("manifest", "precache.toml", "Precache manifest file.")
		fCacheDir          = flag.String("cachedir", "cache", "Directory holding cache bucket snapshots.")
	)
	flag.Parse()
	flagenv.Parse()

	// Create HTTP server
	var srv = http.Server{
		Addr:              fmt.Sprintf(":%d", *fPort),
		ReadTimeout:       *fReadTimeout,
		WriteTimeout:      *fWriteTimeout,
		ReadHeaderTimeout: *fReadHeaderTimeout,
	}

	// Load the precache manifest
	m, err := manifest.Load(*fManifest)
	if err != nil {
		log.Printf("Cannot load precache manifest %q: %s", *fManifest, err)
		os.Exit(1)
	}
	log.Printf("Precache manifest %q: bucket %q, %d assets", *fManifest, m.Cache, len(m.Files))

	upstream, err := url.Parse(*fUpstream)
	if err != nil || !upstream.IsAbs() {
		log.Printf("Invalid upstream %q: %s", *fUpstream, err)
		os.Exit(1)
	}

	// Open cache bucket storage
	storage, err := cachestore.New(*fCacheDir)
	if err != nil {
		log.Printf("Cannot open cache storage: %s", err)
		os.Exit(1)
	}
	if names, err := storage.Names(); err == nil && len(names) > 0 {
		log.Printf("Existing cache buckets: %v", names)
	}

	// Create the worker
	ctrl := newController()
	fetcher := &sw.HTTPFetcher{Base: upstream}
	worker := sw.New(storage, ctrl, fetcher, sw.Config{
		CacheName: m.Cache,
		Assets:    m.Files,
		Verify:    m.Verifier(),
		Lifecycle: ctrl,
	})

	// Install: all assets are cached, or this version does not serve.
	if err := worker.OnInstall(context.Background()); err != nil {
		log.Printf("Install failed, previous cache remains authoritative: %s", err)
		os.Exit(2)
	}
	log.Printf("Installed cache bucket %q", m.Cache)

	if err := worker.OnActivate(context.Background()); err != nil {
		log.Printf("Activation failed: %s", err)
		os.Exit(3)
	}
	log.Print("Activated; serving cache-first")

	// Setup handlers
	http.Handle("/", gziphandler.GzipHandler(gatewayHandler(worker, ctrl, fetcher)))

	// Create signal handler for graceful shutdown
	go func() {
		sigint := make(chan os.Signal, 1)

		// interrupt signal sent from terminal
		signal.Notify(sigint, os.Interrupt)
		// sigterm signal sent from kubernetes
		signal.Notify(sigint, syscall.SIGTERM)

		<-sigint

		// We received an interrupt signal, shut down.
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			// Error from closing listeners, or context timeout:
			log.Printf("HTTP server Shutdown: %v", err)
		}
	}()

	// Listen for requests
	log.Print("Listening for requests")
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		log.Printf("HTTP server: %v", err)
	} else {
		log.Print("Goodbye.")
	}
}
