package sw

import (
	"context"
	"sync"
)

// MemoryStorage is an in-process Storage. It backs small deployments
// that can afford to reinstall on restart, and doubles as the test
// seam for the worker.
type MemoryStorage struct {
	mu      sync.Mutex
	buckets map[string]*memoryBucket
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{buckets: make(map[string]*memoryBucket)}
}

// Open returns the named bucket, creating it if absent.
func (s *MemoryStorage) Open(_ context.Context, name string) (Bucket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.buckets[name]
	if !ok {
		b = &memoryBucket{entries: make(map[string]Response)}
		s.buckets[name] = b
	}
	return b, nil
}

// Names lists the buckets currently held, in no particular order.
func (s *MemoryStorage) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.buckets))
	for name := range s.buckets {
		names = append(names, name)
	}
	return names
}

type memoryBucket struct {
	mu      sync.RWMutex
	entries map[string]Response
}

func (b *memoryBucket) Match(_ context.Context, key string) (*Response, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	resp, ok := b.entries[key]
	if !ok {
		return nil, false, nil
	}
	return resp.Clone(), true, nil
}

// AddAll inserts every entry under a single lock acquisition, so
// readers observe either the old contents or all new entries.
func (b *memoryBucket) AddAll(_ context.Context, entries []Entry) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, e := range entries {
		b.entries[e.Key] = *e.Response.Clone()
	}
	return nil
}
