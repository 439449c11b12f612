package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/MKhiriev/go-study-sync/models"
	"github.com/jonboulle/clockwork"
)

type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]models.CacheEntry
	clock   clockwork.Clock
}

// NewMemoryCache returns a process-local [LocalCache]. It never fails and
// forgets everything on exit.
func NewMemoryCache(clock clockwork.Clock) LocalCache {
	return &memoryCache{entries: make(map[string]models.CacheEntry), clock: clock}
}

func (m *memoryCache) Get(_ context.Context, key string) (models.CacheEntry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[key]
	if !ok {
		return models.CacheEntry{}, false
	}
	return cloneEntry(e), true
}

func (m *memoryCache) Put(_ context.Context, key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = models.CacheEntry{Key: key, Data: cloneBytes(data), Timestamp: m.clock.Now().UnixMilli()}
}

func (m *memoryCache) Delete(_ context.Context, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
}

func (m *memoryCache) Prune(_ context.Context, maxAgeDays int) int {
	if maxAgeDays < 0 {
		return 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.clock.Now().Add(-time.Duration(maxAgeDays) * day).UnixMilli()
	removed := 0
	for k, e := range m.entries {
		if e.Timestamp < cutoff {
			delete(m.entries, k)
			removed++
		}
	}
	return removed
}

func (m *memoryCache) Keys(_ context.Context) []models.CacheEntryInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]models.CacheEntryInfo, 0, len(m.entries))
	for _, e := range m.entries {
		infos = append(infos, models.CacheEntryInfo{Key: e.Key, Size: e.Size(), Timestamp: e.Timestamp})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos
}
