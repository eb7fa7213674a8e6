// Command mapserver is the origin server for the indoor map viewer:
// cached static file serving for the viewer assets, rendered Markdown
// documentation pages, and the PWA files (web app manifest and worker
// registration script) with the headers they require.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/ancientlore/cachefs"
	"github.com/facebookgo/flagenv"
	"github.com/golang/groupcache"

	"github.com/idealab/indoormap/web"
)

func main() {
	// Setup flags
	var (
		fPort              = flag.Int("port", 9000, "Port to listen on.")
		fReadTimeout       = flag.Duration("readtimeout", 10*time.Second, "HTTP server read timeout.")
		fReadHeaderTimeout = flag.Duration("readheadertimeout", 5*time.Second, "HTTP server read header timeout.")
		fWriteTimeout      = flag.Duration("writetimeout", 30*time.Second, "HTTP server write timeout.")
		fRoot              = flag.String("root", ".", "Root of the viewer site.")
		fCacheSize         = flag.Int64("cachesize", 10*1024*1024, "Size of the file cache in bytes.")
		fCacheDuration     = flag.Duration("cacheduration", 10*time.Second, "Expiration of cached files.")
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

	// Switch to site folder
	err := os.Chdir(*fRoot)
	if err != nil {
		log.Printf("Cannot switch to root %q: %s", *fRoot, err)
		os.Exit(1)
	}
	log.Printf("Changed to %q directory", *fRoot)

	// Site configuration
	cfg, err := loadSiteConfig(".")
	if err != nil {
		log.Printf("Cannot load viewer.cfg: %s", err)
		os.Exit(2)
	}

	// Parse documentation templates
	err = loadTemplates()
	if err != nil {
		log.Printf("Cannot parse templates: %s", err)
		os.Exit(3)
	}
	log.Printf("Loaded templates: %s", tpl.DefinedTemplates())

	// Setup groupcache (no peers) and the cached file system
	groupcache.RegisterPeerPicker(func() groupcache.PeerPicker { return groupcache.NoPeers{} })
	initDocCache(*fCacheSize, *fCacheDuration)
	cachedFileSystem := cachefs.New(os.DirFS("."), &cachefs.Config{
		GroupName:   "site",
		SizeInBytes: *fCacheSize,
		Duration:    *fCacheDuration,
	})

	// Setup handlers
	fileServer := web.ErrorHandler(http.FileServer(http.FS(cachedFileSystem)), cachedFileSystem)
	http.Handle("/sw.js", web.ServiceWorkerHandler(cachedFileSystem, "sw.js"))
	http.Handle("/manifest.webmanifest", web.ManifestHandler(cachedFileSystem, "manifest.webmanifest"))
	http.Handle("/docs/", gziphandler.GzipHandler(docsHandler(fileServer)))
	http.Handle("/", web.HeaderHandler(
		web.ExpiresHandler(
			gziphandler.GzipHandler(fileServer),
			time.Duration(cfg.Expires),
			time.Duration(cfg.StaticExpires),
		),
		cfg.Headers))
	log.Print("Created handlers")

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
