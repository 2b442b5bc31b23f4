// Package store keeps the latest normalized snapshot of every series for the
// read API. Each refresh replaces a series wholesale; readers never observe a
// partially updated series.
package store

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/Nguyen-Quoc-Vu/covid-19-vietnam/internal/domain"
	"github.com/Nguyen-Quoc-Vu/covid-19-vietnam/internal/observability"
)

// ErrNotFound is returned when no snapshot of a series has been loaded.
var ErrNotFound = errors.New("series not found")

// Store holds one immutable Series per key. Writes are serialized and publish
// a fresh map, so Get is lock-free.
type Store struct {
	mu      sync.Mutex
	series  atomic.Pointer[map[string]domain.Series]
	metrics *observability.Metrics
}

// New creates an empty Store.
func New(metrics *observability.Metrics) *Store {
	s := &Store{metrics: metrics}
	empty := map[string]domain.Series{}
	s.series.Store(&empty)
	return s
}

// LoadBatch implements pipeline.BatchLoader. Later snapshots of the same
// series within a batch win.
func (s *Store) LoadBatch(_ context.Context, snapshots []domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := maps.Clone(*s.series.Load())
	for _, snap := range snapshots {
		for _, sr := range snap.Series {
			// Points are shared with the transformer's views and are read-only.
			key := sr.Key()
			next[key] = sr
			s.metrics.SeriesPoints.WithLabelValues(key).Set(float64(len(sr.Points)))
			if !sr.Metadata.LastUpdated.IsZero() {
				s.metrics.SeriesUpdated.WithLabelValues(key).Set(float64(sr.Metadata.LastUpdated.Unix()))
			}
		}
	}
	s.series.Store(&next)
	return nil
}

// Get returns the latest snapshot of the series with the given key.
func (s *Store) Get(key string) (domain.Series, error) {
	sr, ok := (*s.series.Load())[key]
	if !ok {
		return domain.Series{}, ErrNotFound
	}
	return sr, nil
}

// Keys lists the loaded series keys in sorted order.
func (s *Store) Keys() []string {
	return slices.Sorted(maps.Keys(*s.series.Load()))
}

// Len reports the number of loaded series.
func (s *Store) Len() int {
	return len(*s.series.Load())
}
