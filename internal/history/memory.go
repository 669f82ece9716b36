package history

import (
	"context"
	"sort"
	"sync"
	"time"
)

// memoryStore keeps the timestamp log in process memory.
type memoryStore struct {
	mu      sync.RWMutex
	entries map[string][]time.Time
}

// NewMemoryStore creates an empty in-memory timestamp log.
func NewMemoryStore() Store {
	return &memoryStore{entries: make(map[string][]time.Time)}
}

func key(location, incidentType string) string {
	return location + "_" + incidentType
}

func (s *memoryStore) RecordIncident(_ context.Context, location, incidentType string, ts time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(location, incidentType)
	list := append(s.entries[k], ts)
	// Appends usually arrive in order; re-sort only when this one did not.
	if n := len(list); n > 1 && list[n-1].Before(list[n-2]) {
		sort.Slice(list, func(i, j int) bool { return list[i].Before(list[j]) })
	}
	s.entries[k] = list
	return nil
}

func (s *memoryStore) Timestamps(_ context.Context, location, incidentType string) ([]time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.entries[key(location, incidentType)]
	out := make([]time.Time, len(list))
	copy(out, list)
	return out, nil
}

func (s *memoryStore) Prune(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for k, list := range s.entries {
		// Ascending order: the first kept index bounds the removal.
		i := sort.Search(len(list), func(i int) bool { return !list[i].Before(before) })
		if i == 0 {
			continue
		}
		removed += int64(i)
		if i == len(list) {
			delete(s.entries, k)
			continue
		}
		s.entries[k] = append([]time.Time(nil), list[i:]...)
	}
	return removed, nil
}

func (s *memoryStore) Close() error { return nil }
