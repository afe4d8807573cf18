// File: internal/usecase/upload_uc.go
package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/Navin-04/transcriptions/internal/domain/model"
	"github.com/Navin-04/transcriptions/internal/domain/ports/repository"
	"github.com/Navin-04/transcriptions/internal/infra/audio"
	"github.com/Navin-04/transcriptions/internal/infra/logging"
)

var _ UploadUseCase = (*uploadUC)(nil)

// UploadUseCase owns the upload flow: validate, create the processing
// record, hand the audio to the gateway, and report the outcome.
type UploadUseCase interface {
	Upload(ctx context.Context, userID, fileName string, data []byte, mimeType string) (*model.TranscriptionJob, *model.RecognitionResult, error)
	List(ctx context.Context, userID string) ([]*model.TranscriptionJob, error)
	Find(ctx context.Context, userID, id string) (*model.TranscriptionJob, error)
	Delete(ctx context.Context, userID, id string) error
	Clear(ctx context.Context, userID string) error
}

type uploadUC struct {
	store repository.JobStore
	gw    TranscriptionUseCase
	log   *zerolog.Logger
}

func NewUploadUseCase(store repository.JobStore, gw TranscriptionUseCase, logger *zerolog.Logger) *uploadUC {
	return &uploadUC{store: store, gw: gw, log: logger}
}

// Upload validates before any record exists, so a rejected file leaves no
// trace. After the record is saved the gateway owns the terminal update.
func (u *uploadUC) Upload(ctx context.Context, userID, fileName string, data []byte, mimeType string) (*model.TranscriptionJob, *model.RecognitionResult, error) {
	if err := u.gw.Validate(mimeType, int64(len(data))); err != nil {
		return nil, nil, err
	}

	seconds, _ := audio.ProbeDurationSeconds(data, mimeType)
	job := model.NewTranscriptionJob(
		userID,
		fileName,
		model.FormatFileSize(int64(len(data))),
		model.FormatDuration(seconds),
	)
	if err := u.store.Save(ctx, job); err != nil {
		return nil, nil, err
	}
	logging.With(ctx, u.log).Info().
		Str("job_id", job.ID).
		Str("file", fileName).
		Str("size", job.FileSize).
		Msg("upload accepted")

	// the gateway marks job terminal, success or failure
	res, err := u.gw.Run(ctx, job, data, mimeType)
	if err != nil {
		return job, nil, err
	}
	return job, res, nil
}

func (u *uploadUC) List(ctx context.Context, userID string) ([]*model.TranscriptionJob, error) {
	return u.store.ListByUser(ctx, userID)
}

func (u *uploadUC) Find(ctx context.Context, userID, id string) (*model.TranscriptionJob, error) {
	return u.store.FindByID(ctx, userID, id)
}

func (u *uploadUC) Delete(ctx context.Context, userID, id string) error {
	return u.store.Delete(ctx, userID, id)
}

func (u *uploadUC) Clear(ctx context.Context, userID string) error {
	return u.store.Clear(ctx, userID)
}
