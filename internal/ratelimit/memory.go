package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore держит метки запросов в памяти процесса.
type MemoryStore struct {
	mu     sync.Mutex
	hits   map[string][]time.Time
	lastGC time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{hits: make(map[string][]time.Time)}
}

func (m *MemoryStore) Allow(_ context.Context, key string, limit int, window time.Duration, now time.Time) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cut := now.Add(-window)
	// GC чужих ключей не чаще раза за окно
	if now.Sub(m.lastGC) >= window {
		for k, ts := range m.hits {
			if len(ts) == 0 || !ts[len(ts)-1].After(cut) {
				delete(m.hits, k)
			}
		}
		m.lastGC = now
	}

	ts := trim(m.hits[key], cut)
	if len(ts) >= limit {
		m.hits[key] = ts
		return denied(limit, ts[0], window, now), nil
	}
	ts = append(ts, now)
	m.hits[key] = ts
	return Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - len(ts),
		Reset:     ts[0].Add(window),
	}, nil
}

// Len: число отслеживаемых ключей.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.hits)
}

// trim отбрасывает метки не новее cut; ts отсортирован по времени.
func trim(ts []time.Time, cut time.Time) []time.Time {
	i := 0
	for i < len(ts) && !ts[i].After(cut) {
		i++
	}
	return ts[i:]
}
