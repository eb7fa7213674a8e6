/*
Package manifest loads and builds the precache manifest: the versioned
cache bucket name and the fixed list of URLs the offline worker stores
at install time.

The manifest is a TOML file:

	cache = "indoor-map-v1"
	files = [
		"/",
		"/index.html",
		"/idealab_floor_plan.svg",
		"/manifest.webmanifest",
		"/logo.png",
		"https://unpkg.com/leaflet@1.9.4/dist/leaflet.js",
		"https://unpkg.com/leaflet@1.9.4/dist/leaflet.css",
	]

	[integrity]
	"/index.html" = "<blake3 hex digest>"

The integrity table is optional. When present, the worker verifies
each listed body during install; a mismatch fails the install.
*/
package manifest

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"lukechampine.com/blake3"

	"github.com/idealab/indoormap/sw"
)

var (
	// ErrNoCacheName means the manifest has an empty cache name.
	ErrNoCacheName = errors.New("manifest: missing cache name")

	// ErrNoFiles means the manifest lists nothing to precache.
	ErrNoFiles = errors.New("manifest: empty file list")

	// ErrUnknownIntegrity means an integrity digest refers to a URL
	// that is not in the file list.
	ErrUnknownIntegrity = errors.New("manifest: integrity digest for unlisted file")

	// ErrDigestMismatch is returned by a Verifier when a fetched
	// body does not match its recorded digest.
	ErrDigestMismatch = errors.New("manifest: digest mismatch")
)

// Manifest is the deploy-time configuration of the offline worker.
type Manifest struct {
	Cache     string            `toml:"cache"`
	Files     []string          `toml:"files"`
	Integrity map[string]string `toml:"integrity,omitempty"`
}

// Parse decodes and validates a TOML manifest.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Load reads and parses the manifest file at name.
func Load(name string) (*Manifest, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	return Parse(data)
}

// Marshal renders the manifest back to TOML.
func (m *Manifest) Marshal() ([]byte, error) {
	data, err := toml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	return data, nil
}

func (m *Manifest) validate() error {
	if m.Cache == "" {
		return ErrNoCacheName
	}
	if len(m.Files) == 0 {
		return ErrNoFiles
	}
	if len(m.Integrity) > 0 {
		keys := make(map[string]bool, len(m.Files))
		for _, f := range m.Files {
			keys[sw.CanonicalKey(f)] = true
		}
		for f := range m.Integrity {
			if !keys[sw.CanonicalKey(f)] {
				return fmt.Errorf("%w: %q", ErrUnknownIntegrity, f)
			}
		}
	}
	return nil
}

// Verifier returns an install-time verification hook for the worker,
// or nil when the manifest carries no integrity digests. Files
// without a digest pass unchecked.
func (m *Manifest) Verifier() func(key string, body []byte) error {
	if len(m.Integrity) == 0 {
		return nil
	}
	digests := make(map[string]string, len(m.Integrity))
	for f, d := range m.Integrity {
		digests[sw.CanonicalKey(f)] = d
	}
	return func(key string, body []byte) error {
		want, ok := digests[key]
		if !ok {
			return nil
		}
		if got := Fingerprint(body); got != want {
			return fmt.Errorf("%w: %s: got %s want %s", ErrDigestMismatch, key, got, want)
		}
		return nil
	}
}

// Fingerprint returns the BLAKE3 digest of data in hex.
func Fingerprint(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Fingerprints fetches every file through f and returns its digest
// keyed by canonical URL. Used when generating a manifest with an
// integrity table.
func Fingerprints(ctx context.Context, f sw.Fetcher, files []string) (map[string]string, error) {
	digests := make(map[string]string, len(files))
	for _, file := range files {
		key := sw.CanonicalKey(file)
		resp, err := f.Fetch(ctx, &sw.Request{URL: key})
		if err != nil {
			return nil, fmt.Errorf("manifest: fingerprint %q: %w", file, err)
		}
		digests[key] = Fingerprint(resp.Body)
	}
	return digests, nil
}
