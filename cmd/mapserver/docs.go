package main

import (
	"bytes"
	"errors"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/russross/blackfriday/v2"
)

// pageInfo has information about the current page.
type pageInfo struct {
	Path     string
	Filename string
}

// docData is what is passed to documentation templates.
type docData struct {
	FrontMatter frontMatter
	Page        pageInfo
	Content     template.HTML
}

var gmtZone *time.Location

func init() {
	var err error
	gmtZone, err = time.LoadLocation("GMT")
	if err != nil {
		log.Printf("Cannot load GMT, using UTC instead: %s", err)
		gmtZone = time.UTC
	}
}

// docsHandler renders the viewer's documentation pages from Markdown
// files under docs/. Requests with a non-Markdown extension fall
// through to the default handler.
func docsHandler(defaultHandler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fn := docPath(r.URL.Path)
		ext := path.Ext(fn)
		if ext != ".md" {
			defaultHandler.ServeHTTP(w, r)
			return
		}
		front, content, modTime, err := cachedRenderDoc(fn)
		if errors.Is(err, fs.ErrNotExist) {
			defaultHandler.ServeHTTP(w, r)
			return
		} else if err != nil {
			log.Printf("docs: %s", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if front.Redirect != "" {
			http.Redirect(w, r, front.Redirect, http.StatusFound)
			return
		}
		// Don't render until the publish date has passed.
		if time.Now().Before(front.Date) {
			defaultHandler.ServeHTTP(w, r)
			return
		}
		templateName := "default"
		if front.Template != "" {
			templateName = front.Template
		}
		_, bn := path.Split(r.URL.Path)
		var out bytes.Buffer
		err = tpl.ExecuteTemplate(&out, templateName, docData{
			FrontMatter: *front,
			Page: pageInfo{
				Path:     r.URL.Path,
				Filename: bn,
			},
			Content: content,
		})
		if err != nil {
			log.Printf("docs: %s", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if front.Expires != 0 {
			w.Header().Set("Expires", time.Now().Add(time.Duration(front.Expires)).In(gmtZone).Format(time.RFC1123))
		}
		http.ServeContent(w, r, "", modTime, bytes.NewReader(out.Bytes()))
	})
}

// docPath converts a /docs/ URL path into the Markdown file backing it.
func docPath(urlPath string) string {
	if strings.HasSuffix(urlPath, "/") {
		urlPath += "index.md"
	}
	fn := strings.TrimPrefix(path.Clean(urlPath), "/")
	if path.Ext(fn) == "" {
		fn += ".md"
	}
	return fn
}

// renderDoc reads a Markdown file and renders it to HTML, returning
// its front matter and modification time.
func renderDoc(filename string) (*frontMatter, template.HTML, time.Time, error) {
	s, err := os.Stat(filename)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	x, err := os.ReadFile(filename)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	fm, rst := extractFrontMatter(x)
	var front frontMatter
	if len(fm) > 0 {
		if err := toml.Unmarshal(fm, &front); err != nil {
			return nil, "", time.Time{}, err
		}
	}
	y := blackfriday.Run(rst)
	return &front, template.HTML(y), s.ModTime(), nil
}
