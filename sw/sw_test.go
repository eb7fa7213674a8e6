package sw_test

import (
	"testing"

	"github.com/idealab/indoormap/sw"
)

func TestCanonicalKey(t *testing.T) {
	var (
		tests = []string{
			"./",
			"/",
			"./index.html",
			"index.html",
			"/maps/floor1.svg",
			"/maps/./floor1.svg",
			"/maps/",
			"https://unpkg.com/leaflet@1.9.4/dist/leaflet.js",
			"https://unpkg.com/leaflet@1.9.4/dist/leaflet.css",
		}
		expect = []string{
			"/",
			"/",
			"/index.html",
			"/index.html",
			"/maps/floor1.svg",
			"/maps/floor1.svg",
			"/maps/",
			"https://unpkg.com/leaflet@1.9.4/dist/leaflet.js",
			"https://unpkg.com/leaflet@1.9.4/dist/leaflet.css",
		}
	)
	for i := range tests {
		if got := sw.CanonicalKey(tests[i]); got != expect[i] {
			t.Errorf("CanonicalKey(%q): expected %q but got %q", tests[i], expect[i], got)
		}
	}
}
