// Package web holds the HTTP middleware shared by the map viewer's
// origin server and offline gateway.
package web

import (
	"net/http"
	"path"
	"strings"
	"time"
)

var gmtZone *time.Location

func init() {
	var err error
	gmtZone, err = time.LoadLocation("GMT")
	if err != nil {
		gmtZone = time.UTC
	}
}

// HeaderHandler returns an http.Handler that adds the given headers to
// every response.
func HeaderHandler(h http.Handler, headers map[string]string) http.Handler {
	if len(headers) == 0 {
		return h
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for k, v := range headers {
			w.Header().Set(k, v)
		}
		h.ServeHTTP(w, r)
	})
}

// staticExts are the viewer assets that change only on redeploy: the
// floor plan, the generated graph, icons, and stylesheets.
var staticExts = map[string]bool{
	".svg":         true,
	".png":         true,
	".ico":         true,
	".css":         true,
	".js":          true,
	".json":        true,
	".webmanifest": true,
}

// ExpiresHandler adds an Expires header, using expires for pages and
// staticExpires for bundled viewer assets. A zero duration leaves the
// response alone.
func ExpiresHandler(h http.Handler, expires, staticExpires time.Duration) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		expiry := expires
		if staticExts[path.Ext(r.URL.Path)] && !strings.HasSuffix(r.URL.Path, "/") {
			expiry = staticExpires
		}
		if expiry != 0 {
			w.Header().Set("Expires", time.Now().Add(expiry).In(gmtZone).Format(time.RFC1123))
		}
		h.ServeHTTP(w, r)
	})
}
