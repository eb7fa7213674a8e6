/*
Package cachestore is the durable cache bucket storage used by the
offline gateway. Each bucket is one gob-encoded snapshot file named
after the bucket, decoded into memory when opened.

A bucket's AddAll writes a complete new snapshot to a temporary file
and renames it into place, so a torn install can never be observed as
a populated bucket: the previous snapshot stays authoritative until
the new one is fully on disk.

Buckets left behind by prior cache-name versions are not removed;
Names reports them so an operator can clean up by hand.
*/
package cachestore

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/idealab/indoormap/sw"
)

const snapshotExt = ".cache"

// Storage implements sw.Storage over a directory of snapshot files.
type Storage struct {
	dir string

	mu      sync.Mutex
	buckets map[string]*bucket
}

// New creates a Storage rooted at dir, creating the directory if
// needed.
func New(dir string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cachestore: %w", err)
	}
	return &Storage{
		dir:     dir,
		buckets: make(map[string]*bucket),
	}, nil
}

// Open returns the named bucket, loading its snapshot from disk if one
// exists. A bucket with no snapshot starts empty.
func (s *Storage) Open(_ context.Context, name string) (sw.Bucket, error) {
	if name == "" {
		return nil, errors.New("cachestore: empty bucket name")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.buckets[name]; ok {
		return b, nil
	}
	b := &bucket{
		path:    filepath.Join(s.dir, url.PathEscape(name)+snapshotExt),
		entries: make(map[string]sw.Response),
	}
	if err := b.load(); err != nil {
		return nil, fmt.Errorf("cachestore: open %q: %w", name, err)
	}
	s.buckets[name] = b
	return b, nil
}

// Names lists every bucket that has a snapshot on disk, including
// leftovers from prior cache-name versions.
func (s *Storage) Names() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("cachestore: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), snapshotExt) {
			continue
		}
		name, err := url.PathUnescape(strings.TrimSuffix(e.Name(), snapshotExt))
		if err != nil {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

type bucket struct {
	path string

	mu      sync.RWMutex
	entries map[string]sw.Response
}

func (b *bucket) load() error {
	data, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	} else if err != nil {
		return err
	}
	dec := gob.NewDecoder(bytes.NewReader(data))
	var entries map[string]sw.Response
	if err := dec.Decode(&entries); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	b.entries = entries
	return nil
}

// Match implements sw.Bucket.
func (b *bucket) Match(_ context.Context, key string) (*sw.Response, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	resp, ok := b.entries[key]
	if !ok {
		return nil, false, nil
	}
	return resp.Clone(), true, nil
}

// AddAll implements sw.Bucket. The merged snapshot is written to a
// temporary file and renamed over the old one; only after the rename
// succeeds does the in-memory view switch to the new entries.
func (b *bucket) AddAll(_ context.Context, entries []sw.Entry) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	merged := make(map[string]sw.Response, len(b.entries)+len(entries))
	for k, v := range b.entries {
		merged[k] = v
	}
	for _, e := range entries {
		merged[e.Key] = *e.Response.Clone()
	}

	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(merged); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(b.path), filepath.Base(b.path)+".tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), b.path); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	b.entries = merged
	return nil
}
