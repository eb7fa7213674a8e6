package manifest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Discover builds a precache file list by fetching the viewer's HTML
// entry point and collecting every static reference it makes: script
// sources, stylesheet and icon links, images, and media sources.
// Same-origin references become rooted paths; cross-origin references
// keep their absolute URL. The root document and the entry page
// itself lead the list so the page shell is always precached.
func Discover(ctx context.Context, client *http.Client, entry string) ([]string, error) {
	base, err := url.Parse(entry)
	if err != nil {
		return nil, fmt.Errorf("manifest discover: %w", err)
	}
	if !base.IsAbs() {
		return nil, fmt.Errorf("manifest discover: entry %q is not an absolute URL", entry)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, entry, nil)
	if err != nil {
		return nil, fmt.Errorf("manifest discover: %w", err)
	}
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("manifest discover: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("manifest discover: fetch %s: status %d", entry, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("manifest discover: parse %s: %w", entry, err)
	}

	files := []string{"/"}
	seen := map[string]bool{"/": true}
	add := func(ref string) {
		ref = strings.TrimSpace(ref)
		if ref == "" || strings.HasPrefix(ref, "data:") || strings.HasPrefix(ref, "#") {
			return
		}
		u, err := url.Parse(ref)
		if err != nil {
			return
		}
		resolved := base.ResolveReference(u)
		var key string
		if resolved.Scheme == base.Scheme && resolved.Host == base.Host {
			key = resolved.Path
			if key == "" {
				key = "/"
			}
		} else {
			key = resolved.String()
		}
		if !seen[key] {
			seen[key] = true
			files = append(files, key)
		}
	}

	// The entry page itself.
	add(base.Path)

	// One pass in document order, so the file list reads like the page.
	doc.Find("script[src], link[href], img[src], source[src]").Each(func(_ int, s *goquery.Selection) {
		if goquery.NodeName(s) == "link" {
			// Stylesheets, icons, and the web app manifest; skip
			// preconnect/dns-prefetch hints which name origins, not files.
			rel, _ := s.Attr("rel")
			switch strings.ToLower(rel) {
			case "preconnect", "dns-prefetch", "canonical", "alternate":
				return
			}
			href, _ := s.Attr("href")
			add(href)
			return
		}
		src, _ := s.Attr("src")
		add(src)
	})

	return files, nil
}
