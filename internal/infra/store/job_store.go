package store

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Navin-04/transcriptions/internal/domain"
	"github.com/Navin-04/transcriptions/internal/domain/model"
	"github.com/Navin-04/transcriptions/internal/domain/ports/repository"
	"github.com/Navin-04/transcriptions/internal/infra/metrics"
	red "github.com/Navin-04/transcriptions/internal/infra/redis"
	"github.com/Navin-04/transcriptions/internal/infra/security"
)

var _ repository.JobStore = (*Store)(nil)

const probeKey = "jobs:__probe__"

// Encryptor is the optional at-rest transcript cipher.
type Encryptor interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

var _ Encryptor = (*security.EncryptionService)(nil)

// Store keeps each user's job records as a JSON array under one key,
// redis-primary with an injected in-memory fallback. A write that fails on
// the primary medium gets one evict-and-retry, after which the store runs
// degraded (memory only) for the rest of the process. All read-modify-write
// sequences are serialized by a single mutex, so concurrent saves against
// the same store never lose updates.
type Store struct {
	mu         sync.Mutex
	client     red.RedisClient
	mem        *Memory
	policy     RetentionPolicy
	probeBytes int
	enc        Encryptor
	log        *zerolog.Logger
	degraded   bool
}

func New(client red.RedisClient, mem *Memory, policy RetentionPolicy, probeBytes int, enc Encryptor, log *zerolog.Logger) *Store {
	if probeBytes <= 0 {
		probeBytes = 100 * 1024
	}
	return &Store{
		client:     client,
		mem:        mem,
		policy:     policy,
		probeBytes: probeBytes,
		enc:        enc,
		log:        log,
	}
}

func jobsKey(userID string) string { return "jobs:" + userID }

// Degraded reports whether the store has permanently switched to the
// in-memory fallback.
func (s *Store) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

func (s *Store) Save(ctx context.Context, job *model.TranscriptionJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs, err := s.load(ctx, job.UserID)
	if err != nil {
		return err
	}
	jobs = append([]*model.TranscriptionJob{job}, jobs...)
	// Capacity is enforced before the write, never after.
	jobs, evicted := s.policy.Apply(jobs)
	metrics.AddEvictions(evicted)
	return s.persist(ctx, job.UserID, jobs)
}

func (s *Store) ListByUser(ctx context.Context, userID string) ([]*model.TranscriptionJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx, userID)
}

func (s *Store) FindByID(ctx context.Context, userID, id string) (*model.TranscriptionJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, j := range jobs {
		if j.ID == id {
			return j, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *Store) UpdateStatus(ctx context.Context, userID, id string, status model.JobStatus, upd *repository.JobUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	found := false
	for _, j := range jobs {
		if j.ID != id {
			continue
		}
		if j.Terminal() {
			// status transitions happen exactly once
			return nil
		}
		switch status {
		case model.JobStatusCompleted:
			var transcript string
			var utterances []model.Utterance
			if upd != nil {
				transcript = upd.Transcript
				utterances = upd.Utterances
			}
			if err := j.Complete(transcript, utterances); err != nil {
				return err
			}
		case model.JobStatusFailed:
			if err := j.Fail(); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: status %q", domain.ErrInvalidArgument, status)
		}
		found = true
		break
	}
	if !found {
		// unknown id is a no-op, not an error
		return nil
	}
	return s.persist(ctx, userID, jobs)
}

func (s *Store) Delete(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	kept := jobs[:0]
	for _, j := range jobs {
		if j.ID != id {
			kept = append(kept, j)
		}
	}
	if len(kept) == len(jobs) {
		return nil
	}
	return s.persist(ctx, userID, kept)
}

func (s *Store) Clear(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mem.Delete(jobsKey(userID))
	if s.degraded {
		return nil
	}
	if err := s.client.Del(ctx, jobsKey(userID)); err != nil {
		return fmt.Errorf("clear jobs: %w", err)
	}
	return nil
}

// Probe writes and deletes a throwaway payload to warn callers about low
// capacity. It never changes store state beyond the throwaway key.
func (s *Store) Probe(ctx context.Context) (bool, bool) {
	s.mu.Lock()
	degraded := s.degraded
	s.mu.Unlock()
	if degraded {
		return false, true
	}

	junk := make([]byte, s.probeBytes)
	_, _ = rand.Read(junk)
	if err := s.client.Set(ctx, probeKey, junk, 0); err != nil {
		s.log.Warn().Err(err).Msg("capacity probe write failed")
		return false, false
	}
	_ = s.client.Del(ctx, probeKey)
	return true, false
}

// ---- internals; callers hold s.mu ----

func (s *Store) load(ctx context.Context, userID string) ([]*model.TranscriptionJob, error) {
	var raw []byte
	if s.degraded {
		b, ok := s.mem.Load(jobsKey(userID))
		if !ok {
			return nil, nil
		}
		raw = b
	} else {
		v, err := s.client.Get(ctx, jobsKey(userID))
		if err != nil {
			if errors.Is(err, red.Nil) {
				return nil, nil
			}
			return nil, fmt.Errorf("load jobs: %w", err)
		}
		raw = []byte(v)
	}

	var jobs []*model.TranscriptionJob
	if err := json.Unmarshal(raw, &jobs); err != nil {
		return nil, fmt.Errorf("decode jobs: %w", err)
	}
	if s.enc != nil {
		for _, j := range jobs {
			if j.Transcript == "" {
				continue
			}
			pt, err := s.enc.Decrypt(j.Transcript)
			if err != nil {
				return nil, fmt.Errorf("decrypt transcript %s: %w", j.ID, err)
			}
			j.Transcript = pt
		}
	}
	return jobs, nil
}

func (s *Store) persist(ctx context.Context, userID string, jobs []*model.TranscriptionJob) error {
	payload, err := s.encode(jobs)
	if err != nil {
		return err
	}

	if !s.degraded {
		if err := s.client.Set(ctx, jobsKey(userID), payload, 0); err == nil {
			metrics.IncStoreWrite("redis")
			return nil
		} else if !isCapacityErr(err) {
			return fmt.Errorf("persist jobs: %w", err)
		}

		// One evict-and-retry against the primary medium.
		trimmed, evicted := s.policy.Apply(jobs)
		metrics.AddEvictions(evicted)
		payload, err = s.encode(trimmed)
		if err != nil {
			return err
		}
		if err := s.client.Set(ctx, jobsKey(userID), payload, 0); err == nil {
			metrics.IncStoreWrite("redis")
			return nil
		}

		// Primary medium is out for the rest of the process.
		s.degraded = true
		metrics.SetStoreDegraded(true)
		s.log.Warn().Str("user_id", userID).Msg("primary store rejected write twice; switching to in-memory fallback")
	}

	if !s.mem.Save(jobsKey(userID), payload) {
		return domain.ErrStorageFull
	}
	metrics.IncStoreWrite("memory")
	return nil
}

func (s *Store) encode(jobs []*model.TranscriptionJob) ([]byte, error) {
	if s.enc != nil {
		enc := make([]*model.TranscriptionJob, len(jobs))
		for i, j := range jobs {
			cp := *j
			if cp.Transcript != "" {
				ct, err := s.enc.Encrypt(cp.Transcript)
				if err != nil {
					return nil, fmt.Errorf("encrypt transcript %s: %w", cp.ID, err)
				}
				cp.Transcript = ct
			}
			enc[i] = &cp
		}
		jobs = enc
	}
	b, err := json.Marshal(jobs)
	if err != nil {
		return nil, fmt.Errorf("encode jobs: %w", err)
	}
	return b, nil
}

func isCapacityErr(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToUpper(err.Error())
	return strings.Contains(msg, "OOM") || strings.Contains(msg, "MAXMEMORY")
}
