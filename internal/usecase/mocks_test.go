// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/Navin-04/transcriptions/internal/domain"
	"github.com/Navin-04/transcriptions/internal/domain/model"
	"github.com/Navin-04/transcriptions/internal/domain/ports/adapter"
	"github.com/Navin-04/transcriptions/internal/domain/ports/repository"
	red "github.com/Navin-04/transcriptions/internal/infra/redis"
)

// memJobStore is a small in-memory JobStore used by unit tests.
type memJobStore struct {
	mu      sync.Mutex
	byUser  map[string][]*model.TranscriptionJob
	limit   int
	saveErr error // used by tests to simulate save failures
}

func newMemJobStore() *memJobStore {
	return &memJobStore{byUser: make(map[string][]*model.TranscriptionJob), limit: 10}
}

func (m *memJobStore) Save(ctx context.Context, job *model.TranscriptionJob) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	// store a copy: the real store persists decoded copies, never the
	// caller's pointer
	cp := *job
	jobs := append([]*model.TranscriptionJob{&cp}, m.byUser[job.UserID]...)
	if m.limit > 0 && len(jobs) > m.limit {
		jobs = jobs[:m.limit]
	}
	m.byUser[job.UserID] = jobs
	return nil
}

func (m *memJobStore) ListByUser(ctx context.Context, userID string) ([]*model.TranscriptionJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*model.TranscriptionJob(nil), m.byUser[userID]...), nil
}

func (m *memJobStore) FindByID(ctx context.Context, userID, id string) (*model.TranscriptionJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, j := range m.byUser[userID] {
		if j.ID == id {
			return j, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memJobStore) UpdateStatus(ctx context.Context, userID, id string, status model.JobStatus, upd *repository.JobUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, j := range m.byUser[userID] {
		if j.ID != id || j.Terminal() {
			continue
		}
		if status == model.JobStatusCompleted {
			var transcript string
			var utterances []model.Utterance
			if upd != nil {
				transcript = upd.Transcript
				utterances = upd.Utterances
			}
			return j.Complete(transcript, utterances)
		}
		return j.Fail()
	}
	return nil
}

func (m *memJobStore) Delete(ctx context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	jobs := m.byUser[userID]
	kept := jobs[:0]
	for _, j := range jobs {
		if j.ID != id {
			kept = append(kept, j)
		}
	}
	m.byUser[userID] = kept
	return nil
}

func (m *memJobStore) Clear(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byUser, userID)
	return nil
}

func (m *memJobStore) Probe(ctx context.Context) (bool, bool) { return true, false }

// fakeAdapter returns a scripted result or error and counts calls.
type fakeAdapter struct {
	name   string
	result *model.RecognitionResult
	err    error
	calls  int
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) Recognize(ctx context.Context, audio []byte, mimeType string, opts adapter.RecognizeOptions) (*model.RecognitionResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

// fakeArchive records archived jobs.
type fakeArchive struct {
	mu       sync.Mutex
	archived []*model.TranscriptionJob
}

func (f *fakeArchive) Archive(ctx context.Context, job *model.TranscriptionJob, provider, aiModel string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.archived = append(f.archived, job)
	return nil
}

func (f *fakeArchive) ListByUser(ctx context.Context, userID string, limit int) ([]*model.TranscriptionJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*model.TranscriptionJob(nil), f.archived...), nil
}

func (f *fakeArchive) FindByID(ctx context.Context, userID, id string) (*model.TranscriptionJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, j := range f.archived {
		if j.ID == id {
			return j, nil
		}
	}
	return nil, domain.ErrNotFound
}

// mapRedis backs the real job store with a plain map for tests that need the
// full JSON round trip.
type mapRedis struct {
	mu   sync.Mutex
	data map[string]string
}

func newMapRedis() *mapRedis { return &mapRedis{data: make(map[string]string)} }

func (f *mapRedis) Ping(ctx context.Context) error { return nil }

func (f *mapRedis) Set(ctx context.Context, key string, value interface{}, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	return nil
}

func (f *mapRedis) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return "", red.Nil
	}
	return v, nil
}

func (f *mapRedis) Incr(ctx context.Context, key string) (int64, error) { return 1, nil }

func (f *mapRedis) Expire(ctx context.Context, key string, _ time.Duration) error { return nil }

func (f *mapRedis) Del(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *mapRedis) Close() error { return nil }
