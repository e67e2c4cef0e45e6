package store

import (
	"sync"
	"time"
)

// MemoryLive is the in-memory LiveStore: one current record per token.
type MemoryLive struct {
	mu   sync.RWMutex
	data map[string]LiveRecord
}

func NewMemoryLive() *MemoryLive {
	return &MemoryLive{data: make(map[string]LiveRecord)}
}

func (m *MemoryLive) Report(token string, lat, lng float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[token] = LiveRecord{Lat: lat, Lng: lng, Ts: time.Now()}
}

func (m *MemoryLive) Poll(token string) (LiveRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.data[token]
	return rec, ok
}
