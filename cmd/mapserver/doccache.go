package main

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"hash/fnv"
	"html/template"
	"net/url"
	"strconv"
	"time"

	"github.com/golang/groupcache"
)

// cachedDoc is the gob-encoded value stored per rendered page.
type cachedDoc struct {
	FrontMatter frontMatter
	Content     template.HTML
	ModTime     time.Time
}

var (
	docCache         *groupcache.Group
	docCacheDuration time.Duration
)

func initDocCache(cacheBytes int64, cacheDuration time.Duration) {
	docCacheDuration = cacheDuration
	docCache = groupcache.NewGroup("renderDoc", cacheBytes, groupcache.GetterFunc(
		func(ctx context.Context, key string, dest groupcache.Sink) error {
			q, err := url.ParseQuery(key)
			if err != nil {
				return fmt.Errorf("renderDoc group: %w", err)
			}
			var (
				d   cachedDoc
				buf bytes.Buffer
			)
			front, content, modTime, err := renderDoc(q.Get("filename"))
			if err != nil {
				return err
			}
			d.FrontMatter = *front
			d.Content = content
			d.ModTime = modTime
			enc := gob.NewEncoder(&buf)
			err = enc.Encode(d)
			if err != nil {
				return fmt.Errorf("renderDoc group: %w", err)
			}
			dest.SetBytes(buf.Bytes())
			return nil
		}))
}

// cachedRenderDoc renders a documentation page through the cache.
// Keys carry a quantized timestamp so entries expire around the
// configured duration.
func cachedRenderDoc(filename string) (*frontMatter, template.HTML, time.Time, error) {
	var (
		data []byte
		q    = make(url.Values, 2)
		d    cachedDoc
	)
	q.Set("filename", filename)
	t := quantize(time.Now(), docCacheDuration, filename)
	q.Set("t", strconv.FormatInt(t, 10))
	err := docCache.Get(context.Background(), q.Encode(), groupcache.AllocatingByteSliceSink(&data))
	if err != nil {
		return nil, "", d.ModTime, err
	}
	dec := gob.NewDecoder(bytes.NewReader(data))
	err = dec.Decode(&d)
	if err != nil {
		return nil, "", d.ModTime, fmt.Errorf("cachedRenderDoc: %w", err)
	}
	return &d.FrontMatter, d.Content, d.ModTime, nil
}

// quantize buckets t into duration-sized windows, offset per name so
// that cache entries don't all expire at the same instant. A zero
// duration disables expiration.
func quantize(t time.Time, d time.Duration, name string) int64 {
	if d <= 0 {
		return 0
	}
	h := fnv.New64a()
	h.Write([]byte(name))
	offset := int64(h.Sum64() % uint64(d))
	return (t.UnixNano() + offset) / int64(d)
}
