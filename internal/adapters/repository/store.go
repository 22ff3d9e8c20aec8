// Package repository holds the read-through cache of cleaned datasets.
package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/campaignboard/internal/domain/model"
	"github.com/okian/campaignboard/pkg/metrics"
)

// Invalidation reasons reported to metrics.
const (
	ReasonManual = "manual"
	ReasonWatch  = "watch"
	ReasonStale  = "stale"
)

// LoadFunc loads the dataset at an absolute source path.
type LoadFunc func(ctx context.Context, path string) (*model.Dataset, error)

// Stats is a point-in-time view of the cache counters.
type Stats struct {
	Entries       int   `json:"entries"`
	Hits          int64 `json:"hits"`
	Misses        int64 `json:"misses"`
	Invalidations int64 `json:"invalidations"`
}

// entry is one cached load. done is closed once ds or err is set.
type entry struct {
	ds   *model.Dataset
	err  error
	done chan struct{}
}

// Store caches one Dataset per source path. Loads for the same path are
// shared between concurrent callers and failed loads are not kept.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry

	hits          atomic.Int64
	misses        atomic.Int64
	invalidations atomic.Int64

	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopChan chan struct{}
}

// NewStore constructs an empty store and starts its metrics updater.
func NewStore(ctx context.Context, opts ...Option) *Store {
	s := &Store{
		entries:               make(map[string]*entry),
		metricsUpdateInterval: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.stopChan = make(chan struct{})
	s.startMetricsUpdater(ctx)
	return s
}

// Key returns the cache key for path: its cleaned absolute form.
func Key(path string) (string, error) {
	if path == "" {
		return "", ErrEmptyPath
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	return filepath.Clean(abs), nil
}

// Get returns the cached dataset for path, calling load on a miss. The load
// runs detached from ctx so that a caller giving up does not fail the others
// waiting on the same entry.
func (s *Store) Get(ctx context.Context, path string, load LoadFunc) (*model.Dataset, error) {
	key, err := Key(path)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		e = &entry{done: make(chan struct{})}
		s.entries[key] = e
	}
	s.mu.Unlock()

	if !ok {
		s.misses.Add(1)
		metrics.RecordCacheMiss()
		go s.fill(context.WithoutCancel(ctx), key, e, load)
	}

	select {
	case <-e.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if e.err != nil {
		return nil, e.err
	}
	if ok {
		s.hits.Add(1)
		metrics.RecordCacheHit()
	}
	return e.ds, nil
}

func (s *Store) fill(ctx context.Context, key string, e *entry, load LoadFunc) {
	defer close(e.done)

	e.ds, e.err = load(ctx, key)
	if e.err != nil {
		s.mu.Lock()
		if s.entries[key] == e {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return
	}
	metrics.UpdateCacheEntries(s.Len())
}

// Invalidate drops the entry for path. It reports whether one was cached.
func (s *Store) Invalidate(path string) bool {
	key, err := Key(path)
	if err != nil {
		return false
	}
	return s.invalidate(key, ReasonManual)
}

func (s *Store) invalidate(key, reason string) bool {
	s.mu.Lock()
	_, ok := s.entries[key]
	delete(s.entries, key)
	n := len(s.entries)
	s.mu.Unlock()

	if !ok {
		return false
	}
	s.invalidations.Add(1)
	metrics.RecordCacheInvalidation(reason)
	metrics.UpdateCacheEntries(n)
	return true
}

// Contains reports whether key is cached or loading.
func (s *Store) Contains(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[key]
	return ok
}

// Paths returns the cached keys in lexical order.
func (s *Store) Paths() []string {
	s.mu.Lock()
	out := make([]string, 0, len(s.entries))
	for k := range s.entries {
		out = append(out, k)
	}
	s.mu.Unlock()
	sort.Strings(out)
	return out
}

// Len returns the number of cached or loading entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Stats returns the cache counters.
func (s *Store) Stats() Stats {
	return Stats{
		Entries:       s.Len(),
		Hits:          s.hits.Load(),
		Misses:        s.misses.Load(),
		Invalidations: s.invalidations.Load(),
	}
}

// Revalidate drops every loaded entry whose source file changed size or
// modification time, or can no longer be read. It returns the dropped keys.
func (s *Store) Revalidate(ctx context.Context) ([]string, error) {
	type loaded struct {
		key string
		ds  *model.Dataset
	}
	var ready []loaded
	s.mu.Lock()
	for k, e := range s.entries {
		select {
		case <-e.done:
			if e.err == nil {
				ready = append(ready, loaded{key: k, ds: e.ds})
			}
		default:
		}
	}
	s.mu.Unlock()

	var dropped []string
	for _, l := range ready {
		if err := ctx.Err(); err != nil {
			return dropped, err
		}
		info, err := os.Stat(l.key)
		if err == nil && info.ModTime().Equal(l.ds.ModTime) && info.Size() == l.ds.Size {
			continue
		}
		if s.dropIfSame(l.key, l.ds) {
			dropped = append(dropped, l.key)
		}
	}
	sort.Strings(dropped)
	return dropped, nil
}

// dropIfSame invalidates key only while it still holds ds, so a reload that
// raced with Revalidate is kept.
func (s *Store) dropIfSame(key string, ds *model.Dataset) bool {
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok || e.ds != ds {
		s.mu.Unlock()
		return false
	}
	s.mu.Unlock()
	return s.invalidate(key, ReasonStale)
}

// Close stops the metrics updater.
func (s *Store) Close() error {
	select {
	case <-s.stopChan:
	default:
		close(s.stopChan)
	}
	s.wg.Wait()
	return nil
}

func (s *Store) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				metrics.UpdateCacheEntries(s.Len())
			}
		}
	}()
}
