// File: internal/infra/db/postgres/transcript_archive_repo.go
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/Navin-04/transcriptions/internal/domain"
	"github.com/Navin-04/transcriptions/internal/domain/model"
	"github.com/Navin-04/transcriptions/internal/domain/ports/repository"
)

var _ repository.TranscriptArchive = (*transcriptArchiveRepo)(nil)

// transcriptArchiveRepo keeps a durable history of completed transcriptions,
// independent of the capped job store the dashboard reads.
type transcriptArchiveRepo struct {
	pool *pgxpool.Pool
}

func NewTranscriptArchiveRepo(pool *pgxpool.Pool) *transcriptArchiveRepo {
	return &transcriptArchiveRepo{pool: pool}
}

const uniqueViolation = "23505"

func (r *transcriptArchiveRepo) Archive(ctx context.Context, job *model.TranscriptionJob, provider, aiModel string) error {
	completedAt := time.Now()
	if job.CompletedAt != nil {
		completedAt = *job.CompletedAt
	}

	const q = `
INSERT INTO transcripts (id, user_id, file_name, file_size, duration, transcript, provider, model, uploaded_at, completed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);`

	_, err := r.pool.Exec(ctx, q,
		job.ID, job.UserID, job.FileName, job.FileSize, job.Duration,
		job.Transcript, provider, aiModel, job.UploadDate, completedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			// ids are never reused, so a replay of the same job is a no-op
			return nil
		}
		return err
	}
	return nil
}

func (r *transcriptArchiveRepo) ListByUser(ctx context.Context, userID string, limit int) ([]*model.TranscriptionJob, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
SELECT id, user_id, file_name, file_size, duration, transcript, uploaded_at, completed_at
FROM transcripts
WHERE user_id = $1
ORDER BY completed_at DESC
LIMIT $2;`

	rows, err := r.pool.Query(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.TranscriptionJob
	for rows.Next() {
		j, err := scanTranscript(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (r *transcriptArchiveRepo) FindByID(ctx context.Context, userID, id string) (*model.TranscriptionJob, error) {
	const q = `
SELECT id, user_id, file_name, file_size, duration, transcript, uploaded_at, completed_at
FROM transcripts
WHERE user_id = $1 AND id = $2;`

	row := r.pool.QueryRow(ctx, q, userID, id)
	j, err := scanTranscript(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return j, nil
}

func scanTranscript(row pgx.Row) (*model.TranscriptionJob, error) {
	var j model.TranscriptionJob
	var completedAt time.Time
	err := row.Scan(&j.ID, &j.UserID, &j.FileName, &j.FileSize, &j.Duration,
		&j.Transcript, &j.UploadDate, &completedAt)
	if err != nil {
		return nil, err
	}
	j.Status = model.JobStatusCompleted
	j.CompletedAt = &completedAt
	return &j, nil
}
