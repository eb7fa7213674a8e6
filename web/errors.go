package web

import (
	"io/fs"
	"net/http"
	"strconv"
)

// errorPages maps the statuses the viewer ships friendly pages for to
// their file names in the site root.
var errorPages = map[int]string{
	http.StatusNotFound:            "404.html",
	http.StatusInternalServerError: "500.html",
}

// ErrorHandler captures 404 and 500 responses from the wrapped handler
// and serves the matching error page from the site file system, when
// one exists. Other statuses pass through untouched.
func ErrorHandler(h http.Handler, fsys fs.FS) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.ServeHTTP(&errorWriter{ResponseWriter: w, fsys: fsys}, r)
	})
}

type errorWriter struct {
	http.ResponseWriter
	fsys     fs.FS
	replaced bool
	err      error
}

func (w *errorWriter) Write(b []byte) (int, error) {
	if w.replaced {
		// The original body is discarded; the error page was
		// already written.
		return len(b), w.err
	}
	return w.ResponseWriter.Write(b)
}

func (w *errorWriter) WriteHeader(statusCode int) {
	if file, ok := errorPages[statusCode]; ok {
		if b, err := fs.ReadFile(w.fsys, file); err == nil {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Header().Set("Content-Length", strconv.Itoa(len(b)))
			w.Header().Del("X-Content-Type-Options")
			w.ResponseWriter.WriteHeader(statusCode)
			w.replaced = true
			_, w.err = w.ResponseWriter.Write(b)
			return
		}
	}
	w.ResponseWriter.WriteHeader(statusCode)
}
