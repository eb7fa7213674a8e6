// Command precachegen builds a precache manifest for the offline
// gateway by walking the viewer's HTML entry point, optionally
// recording a content digest per asset.
package main

import (
	"context"
	"flag"
	"log"
	"net/url"
	"os"

	"github.com/idealab/indoormap/manifest"
	"github.com/idealab/indoormap/sw"
)

func main() {
	var (
		fEntry     = flag.String("entry", "http://127.0.0.1:9000/index.html", "Viewer entry page to walk.")
		fCache     = flag.String("cache", "indoor-map-v1", "Cache bucket name to record.")
		fOut       = flag.String("out", "precache.toml", "Manifest file to write.")
		fIntegrity = flag.Bool("integrity", false, "Fetch every asset and record its digest.")
	)
	flag.Parse()

	files, err := manifest.Discover(context.Background(), nil, *fEntry)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("Discovered %d assets from %s", len(files), *fEntry)

	m := &manifest.Manifest{Cache: *fCache, Files: files}
	if *fIntegrity {
		base, err := url.Parse(*fEntry)
		if err != nil {
			log.Fatal(err)
		}
		m.Integrity, err = manifest.Fingerprints(context.Background(), &sw.HTTPFetcher{Base: base}, files)
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("Recorded %d digests", len(m.Integrity))
	}

	data, err := m.Marshal()
	if err != nil {
		log.Fatal(err)
	}
	if err := os.WriteFile(*fOut, data, 0o644); err != nil {
		log.Fatal(err)
	}
	log.Printf("Wrote %s", *fOut)
}
