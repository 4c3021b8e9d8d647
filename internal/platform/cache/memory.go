package cache

import (
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryCache is a Backend held in process memory. Expired entries are
// dropped on read and by a periodic sweep, which also trims the cache down
// to maxSize by evicting the entries closest to expiry.
type MemoryCache struct {
	data    sync.Map
	maxSize int
	now     func() time.Time
	stopCh  chan struct{}
	once    sync.Once
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryCache starts a MemoryCache that sweeps every cleanupInterval.
// A non-positive maxSize means unbounded.
func NewMemoryCache(maxSize int, cleanupInterval time.Duration) *MemoryCache {
	mc := &MemoryCache{
		maxSize: maxSize,
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go mc.cleanupLoop(cleanupInterval)
	}
	return mc
}

func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	val, ok := m.data.Load(key)
	if !ok {
		return nil, false, nil
	}
	entry := val.(*memoryEntry)
	if !m.now().Before(entry.expiresAt) {
		m.data.CompareAndDelete(key, val)
		return nil, false, nil
	}
	return entry.value, true, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.data.Store(key, &memoryEntry{
		value:     slices.Clone(value),
		expiresAt: m.now().Add(ttl),
	})
	return nil
}

func (m *MemoryCache) Delete(_ context.Context, key string) error {
	m.data.Delete(key)
	return nil
}

// Close stops the sweep goroutine. It is safe to call more than once.
func (m *MemoryCache) Close() error {
	m.once.Do(func() { close(m.stopCh) })
	return nil
}

func (m *MemoryCache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.cleanup()
		}
	}
}

type liveEntry struct {
	key       string
	value     any
	expiresAt time.Time
}

func (m *MemoryCache) cleanup() {
	m.trim(m.sweep())
}

// sweep drops expired entries and returns the live ones as loaded.
func (m *MemoryCache) sweep() []liveEntry {
	now := m.now()
	var live []liveEntry

	m.data.Range(func(key, value any) bool {
		k := key.(string)
		entry := value.(*memoryEntry)
		if !now.Before(entry.expiresAt) {
			m.data.CompareAndDelete(k, value)
		} else {
			live = append(live, liveEntry{key: k, value: value, expiresAt: entry.expiresAt})
		}
		return true
	})
	return live
}

// trim evicts the entries closest to expiry until at most maxSize remain.
// An entry replaced since it was swept is left alone.
func (m *MemoryCache) trim(live []liveEntry) {
	if m.maxSize <= 0 || len(live) <= m.maxSize {
		return
	}
	slices.SortFunc(live, func(a, b liveEntry) int { return a.expiresAt.Compare(b.expiresAt) })
	for _, e := range live[:len(live)-m.maxSize] {
		m.data.CompareAndDelete(e.key, e.value)
	}
}
