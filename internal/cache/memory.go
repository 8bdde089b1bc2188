package cache

import (
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// Memory is the in-process L1 layer in front of redis. It holds hot,
// short-TTL values (product catalog, dashboard counts) so repeated reads
// within the TTL never leave the process.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

func NewMemory() *Memory {
	m := &Memory{
		entries: make(map[string]memoryEntry),
	}

	go m.janitor()

	return m
}

func (m *Memory) Set(key string, value string, expiration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = memoryEntry{
		value:     value,
		expiresAt: time.Now().Add(expiration),
	}
}

func (m *Memory) Get(key string) (string, bool) {
	m.mu.RLock()
	entry, found := m.entries[key]
	m.mu.RUnlock()

	if !found {
		return "", false
	}

	if time.Now().After(entry.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return "", false
	}

	return entry.value, true
}

func (m *Memory) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
}

func (m *Memory) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()

		m.mu.Lock()
		for key, entry := range m.entries {
			if now.After(entry.expiresAt) {
				delete(m.entries, key)
			}
		}
		m.mu.Unlock()
	}
}
