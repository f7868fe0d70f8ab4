// Package registry provides the long-lived key/value store that emulates
// cache and old-generation retention pressure during a harness run.
package registry

import (
	"math/rand"
	"sync"
	"time"

	"github.com/spaolacci/murmur3"
)

// Entry is a single long-lived payload held by the registry.
type Entry struct {
	Key       string
	Payload   []byte
	Checksum  uint64
	CreatedAt time.Time
}

// Registry is a concurrent key/value store. Keys are unique; re-insertion
// with an existing key overwrites payload and timestamp only.
// Put may run concurrently with EvictRandom; the exact surviving set under
// concurrent mutation is unspecified.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	rng     *rand.Rand
}

// New creates an empty registry.
func New() *Registry {
	return NewWithSeed(time.Now().UnixNano())
}

// NewWithSeed creates an empty registry with a fixed eviction seed for tests.
func NewWithSeed(seed int64) *Registry {
	return &Registry{
		entries: make(map[string]*Entry),
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// Put inserts or overwrites the entry for key. O(1) expected.
func (r *Registry) Put(key string, payload []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.entries[key]; ok {
		existing.Payload = payload
		existing.Checksum = murmur3.Sum64(payload)
		existing.CreatedAt = time.Now()
		return
	}
	r.entries[key] = &Entry{
		Key:       key,
		Payload:   payload,
		Checksum:  murmur3.Sum64(payload),
		CreatedAt: time.Now(),
	}
}

// Get returns the entry for key, or nil if absent.
func (r *Registry) Get(key string) *Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries[key]
}

// Len returns the current entry count.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// EvictRandom removes each entry independently with probability fraction
// and returns the number removed. Fractions outside [0,1] are clamped.
func (r *Registry) EvictRandom(fraction float64) int {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for key := range r.entries {
		if r.rng.Float64() < fraction {
			delete(r.entries, key)
			removed++
		}
	}
	return removed
}

// Keys returns a snapshot of the current key set.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.entries))
	for key := range r.entries {
		keys = append(keys, key)
	}
	return keys
}

// PayloadBytes returns the total payload size held by the registry.
func (r *Registry) PayloadBytes() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var total int64
	for _, entry := range r.entries {
		total += int64(len(entry.Payload))
	}
	return total
}
