package repository

import (
	"context"

	"github.com/Navin-04/transcriptions/internal/domain/model"
)

// JobUpdate is the payload merged into a record by UpdateStatus.
type JobUpdate struct {
	Transcript string
	Utterances []model.Utterance
}

// JobStore holds per-user transcription job records, newest first, capped by
// a retention limit. Implementations must serialize read-modify-write
// sequences so concurrent saves never lose updates.
type JobStore interface {
	// Save prepends the job to the user's collection, evicting the oldest
	// entries beyond the retention limit before the write. Returns
	// domain.ErrStorageFull when both the primary medium and the in-memory
	// fallback reject the write.
	Save(ctx context.Context, job *model.TranscriptionJob) error
	// ListByUser returns the user's records in stored order (newest first).
	ListByUser(ctx context.Context, userID string) ([]*model.TranscriptionJob, error)
	FindByID(ctx context.Context, userID, id string) (*model.TranscriptionJob, error)
	// UpdateStatus merges the update into the matching record; a missing id
	// is a no-op, not an error.
	UpdateStatus(ctx context.Context, userID, id string, status model.JobStatus, upd *JobUpdate) error
	Delete(ctx context.Context, userID, id string) error
	// Clear removes every record for the user on both mediums.
	Clear(ctx context.Context, userID string) error
	// Probe attempts a throwaway write to warn about low capacity. Advisory
	// only; it gates nothing.
	Probe(ctx context.Context) (ok bool, degraded bool)
}

// TranscriptArchive is the optional durable history of completed jobs.
type TranscriptArchive interface {
	Archive(ctx context.Context, job *model.TranscriptionJob, provider, aiModel string) error
	ListByUser(ctx context.Context, userID string, limit int) ([]*model.TranscriptionJob, error)
	FindByID(ctx context.Context, userID, id string) (*model.TranscriptionJob, error)
}
