package cache

import (
	"context"
	"sync"
	"time"
)

// ParkedSales holds encoded item lists of sales set aside mid-entry.
type ParkedSales interface {
	Park(ctx context.Context, parkID string, itemBlob string, ttl time.Duration) error
	// Take returns and removes a parked blob. ok is false when the id is
	// unknown or expired.
	Take(ctx context.Context, parkID string) (itemBlob string, ok bool, err error)
}

type parkedEntry struct {
	blob      string
	expiresAt time.Time
}

// MemoryParkedSales is the single-process fallback used when Redis is not
// configured.
type MemoryParkedSales struct {
	mu      sync.Mutex
	entries map[string]parkedEntry
	now     func() time.Time
}

func NewMemoryParkedSales() *MemoryParkedSales {
	return &MemoryParkedSales{
		entries: make(map[string]parkedEntry),
		now:     time.Now,
	}
}

func (m *MemoryParkedSales) Park(_ context.Context, parkID string, itemBlob string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.evictExpired()
	entry := parkedEntry{blob: itemBlob}
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}
	m.entries[parkID] = entry
	return nil
}

func (m *MemoryParkedSales) Take(_ context.Context, parkID string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.evictExpired()
	entry, ok := m.entries[parkID]
	if !ok {
		return "", false, nil
	}
	delete(m.entries, parkID)
	return entry.blob, true, nil
}

func (m *MemoryParkedSales) evictExpired() {
	now := m.now()
	for id, entry := range m.entries {
		if !entry.expiresAt.IsZero() && !now.Before(entry.expiresAt) {
			delete(m.entries, id)
		}
	}
}
