package store

import (
	"sync"

	"github.com/Navin-04/transcriptions/internal/domain/model"
)

// Memory is the in-memory fallback medium. It is constructed explicitly and
// injected into the Store; nothing here is package state. A byte budget
// bounds it so the both-mediums-full failure mode is reachable.
type Memory struct {
	mu       sync.Mutex
	maxBytes int
	data     map[string][]byte
}

// NewMemory creates a fallback store. maxBytes <= 0 means unbounded.
func NewMemory(maxBytes int) *Memory {
	return &Memory{maxBytes: maxBytes, data: make(map[string][]byte)}
}

func (m *Memory) Load(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[key]
	return b, ok
}

// Save stores the payload, or reports false when the byte budget would be
// exceeded.
func (m *Memory) Save(key string, payload []byte) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.maxBytes > 0 {
		used := 0
		for k, v := range m.data {
			if k == key {
				continue
			}
			used += len(v)
		}
		if used+len(payload) > m.maxBytes {
			return false
		}
	}
	m.data[key] = append([]byte(nil), payload...)
	return true
}

func (m *Memory) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
}

// Reset drops everything, returning the fallback to its initial state.
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string][]byte)
}

// RetentionPolicy is the single capacity policy for job collections: both
// the evict-before-write cap and the advisory probe consult it.
type RetentionPolicy struct {
	Limit int
}

// Apply trims the collection to the newest Limit records. Records are stored
// newest first, so eviction drops from the tail.
func (p RetentionPolicy) Apply(jobs []*model.TranscriptionJob) (kept []*model.TranscriptionJob, evicted int) {
	if p.Limit <= 0 || len(jobs) <= p.Limit {
		return jobs, 0
	}
	return jobs[:p.Limit], len(jobs) - p.Limit
}
