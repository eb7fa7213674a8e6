package web

import (
	"io/fs"
	"log"
	"net/http"
)

// ServiceWorkerHandler serves the worker registration script. It must
// be mounted at the site root so the worker's scope covers the whole
// origin, and it must never be cached so updates roll out on the next
// page load.
func ServiceWorkerHandler(fsys fs.FS, name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, err := fs.ReadFile(fsys, name)
		if err != nil {
			log.Printf("serviceworker: %s", err)
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/javascript")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Service-Worker-Allowed", "/")
		w.Write(b)
	})
}

// ManifestHandler serves the web app manifest with its registered
// media type.
func ManifestHandler(fsys fs.FS, name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, err := fs.ReadFile(fsys, name)
		if err != nil {
			log.Printf("manifest: %s", err)
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/manifest+json")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Write(b)
	})
}
