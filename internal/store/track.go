package store

import (
	"strings"
	"sync"

	"github.com/dbaidya811/phone-location-app/internal/token"
)

// MemoryTrack is the in-memory TrackStore.
type MemoryTrack struct {
	mu   sync.RWMutex
	data map[string]*TrackEntry
}

func NewMemoryTrack() *MemoryTrack {
	return &MemoryTrack{data: make(map[string]*TrackEntry)}
}

// NormalizeTarget ensures the redirect target carries a scheme so the
// eventual Location header is absolute.
func NormalizeTarget(target string) string {
	t := strings.TrimSpace(target)
	if t == "" {
		return t
	}
	if !strings.Contains(t, "://") {
		t = "http://" + t
	}
	return t
}

func (m *MemoryTrack) Create(target string) string {
	tok := token.NewTrack()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[tok] = &TrackEntry{
		Token:  tok,
		Target: NormalizeTarget(target),
	}
	return tok
}

func (m *MemoryTrack) Target(tok string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.data[tok]
	if !ok {
		return "", false
	}
	return e.Target, true
}

func (m *MemoryTrack) Append(tok string, h Hit) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.data[tok]
	if !ok {
		return false
	}
	e.Hits = append(e.Hits, h)
	return true
}

func (m *MemoryTrack) Entry(tok string) (TrackEntry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.data[tok]
	if !ok {
		return TrackEntry{}, false
	}
	out := TrackEntry{Token: e.Token, Target: e.Target}
	out.Hits = append(out.Hits, e.Hits...)
	return out, true
}
