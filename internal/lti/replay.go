package lti

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// ReplayProtector gives single-use semantics to a (kind, value) pair, used
// here to consume each oauth_nonce once per consumer key (RFC 5849 section
// 3.3). Implementations must be atomic and honor the TTL hint.
type ReplayProtector interface {
	// Use consumes (kind,value) for ttl. It returns true on first sight
	// (or after the previous entry expired) and false on reuse.
	Use(kind, value string, ttl time.Duration) (bool, error)
}

// InMemoryReplay tracks consumed values in a process-local map, which is
// all a single-process demo provider needs. Safe for concurrent use;
// expired entries are swept every purgeN writes rather than by a
// background goroutine.
type InMemoryReplay struct {
	mu      sync.Mutex
	entries map[string]time.Time

	useCount uint64
	purgeN   uint64
}

// NewInMemoryReplay creates the cache. purgeEvery sets how many Use calls
// pass between sweeps of expired entries; <= 0 picks 1024.
func NewInMemoryReplay(purgeEvery int) *InMemoryReplay {
	if purgeEvery <= 0 {
		purgeEvery = 1024
	}
	return &InMemoryReplay{
		entries: make(map[string]time.Time, 1024),
		purgeN:  uint64(purgeEvery),
	}
}

func (m *InMemoryReplay) Use(kind, value string, ttl time.Duration) (bool, error) {
	kind = strings.TrimSpace(strings.ToLower(kind))
	value = strings.TrimSpace(value)
	if kind == "" || value == "" {
		return false, fmt.Errorf("replay: kind and value are required")
	}
	now := time.Now()
	k := kind + "|" + value

	m.mu.Lock()
	defer m.mu.Unlock()

	m.useCount++
	if m.useCount%m.purgeN == 0 {
		m.sweepLocked(now)
	}

	if until, ok := m.entries[k]; ok && until.After(now) {
		return false, nil // still live -> replay
	}
	m.entries[k] = now.Add(ttl)
	return true, nil
}

func (m *InMemoryReplay) sweepLocked(now time.Time) {
	for k, until := range m.entries {
		if !until.After(now) {
			delete(m.entries, k)
		}
	}
}

// NoopReplay accepts every value; it stands in where replay protection is
// switched off.
type NoopReplay struct{}

func (NoopReplay) Use(kind, value string, ttl time.Duration) (bool, error) { return true, nil }
