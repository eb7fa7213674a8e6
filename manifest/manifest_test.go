package manifest_test

import (
	"errors"
	"testing"

	"github.com/idealab/indoormap/manifest"
)

const validManifest = `
cache = "indoor-map-v1"
files = [
	"/",
	"/index.html",
	"/idealab_floor_plan.svg",
	"https://unpkg.com/leaflet@1.9.4/dist/leaflet.js",
]
`

func TestParse(t *testing.T) {
	m, err := manifest.Parse([]byte(validManifest))
	if err != nil {
		t.Fatal(err)
	}
	if m.Cache != "indoor-map-v1" {
		t.Errorf("cache %q", m.Cache)
	}
	if len(m.Files) != 4 {
		t.Errorf("expected 4 files, got %d", len(m.Files))
	}
}

func TestParseErrors(t *testing.T) {
	var (
		tests = []string{
			`files = ["/"]`,
			`cache = "v1"`,
			"cache = \"v1\"\nfiles = [\"/a\"]\n[integrity]\n\"/b\" = \"00\"",
		}
		expect = []error{
			manifest.ErrNoCacheName,
			manifest.ErrNoFiles,
			manifest.ErrUnknownIntegrity,
		}
	)
	for i := range tests {
		_, err := manifest.Parse([]byte(tests[i]))
		if !errors.Is(err, expect[i]) {
			t.Errorf("case %d: expected %v but got %v", i, expect[i], err)
		}
	}
}

func TestVerifier(t *testing.T) {
	body := []byte("<html>map</html>")
	m := &manifest.Manifest{
		Cache: "indoor-map-v1",
		Files: []string{"/index.html", "/logo.png"},
		Integrity: map[string]string{
			"/index.html": manifest.Fingerprint(body),
		},
	}
	verify := m.Verifier()
	if verify == nil {
		t.Fatal("expected a verifier")
	}
	if err := verify("/index.html", body); err != nil {
		t.Errorf("matching digest rejected: %v", err)
	}
	if err := verify("/index.html", []byte("tampered")); !errors.Is(err, manifest.ErrDigestMismatch) {
		t.Errorf("expected ErrDigestMismatch, got %v", err)
	}
	// Files without a digest pass unchecked.
	if err := verify("/logo.png", []byte("anything")); err != nil {
		t.Errorf("undigested file rejected: %v", err)
	}
}

func TestVerifierAbsentWithoutIntegrity(t *testing.T) {
	m, err := manifest.Parse([]byte(validManifest))
	if err != nil {
		t.Fatal(err)
	}
	if m.Verifier() != nil {
		t.Error("expected no verifier without an integrity table")
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	m, err := manifest.Parse([]byte(validManifest))
	if err != nil {
		t.Fatal(err)
	}
	data, err := m.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	m2, err := manifest.Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if m2.Cache != m.Cache || len(m2.Files) != len(m.Files) {
		t.Errorf("round trip changed the manifest: %+v", m2)
	}
}
