// File: internal/usecase/transcription_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Navin-04/transcriptions/internal/domain"
	"github.com/Navin-04/transcriptions/internal/domain/model"
	"github.com/Navin-04/transcriptions/internal/domain/ports/adapter"
	"github.com/Navin-04/transcriptions/internal/domain/ports/repository"
	"github.com/Navin-04/transcriptions/internal/infra/logging"
	"github.com/Navin-04/transcriptions/internal/infra/metrics"
)

// Compile-time check
var _ TranscriptionUseCase = (*transcriptionUC)(nil)

// MaxUploadBytes is the hard cap on a single audio upload.
const MaxUploadBytes = 25 * 1024 * 1024

// allowedMimeTypes is the upload allow-list.
var allowedMimeTypes = map[string]struct{}{
	"audio/mpeg":  {},
	"audio/wav":   {},
	"audio/x-wav": {},
	"audio/mp4":   {},
	"audio/m4a":   {},
	"audio/x-m4a": {},
	"audio/webm":  {},
	"audio/ogg":   {},
}

// TranscriptionUseCase is the provider-fallback gateway. Run drives the
// ordered adapter chain for one upload and performs exactly one terminal
// store update, success or failure.
type TranscriptionUseCase interface {
	Validate(mimeType string, size int64) error
	Run(ctx context.Context, job *model.TranscriptionJob, audio []byte, mimeType string) (*model.RecognitionResult, error)
}

type transcriptionUC struct {
	chain    []adapter.SpeechToTextAdapter // priority order, first success wins
	demo     adapter.SpeechToTextAdapter   // nil disables the placeholder policy
	store    repository.JobStore
	archive  repository.TranscriptArchive // optional
	maxBytes int64
	log      *zerolog.Logger
}

func NewTranscriptionUseCase(
	chain []adapter.SpeechToTextAdapter,
	demo adapter.SpeechToTextAdapter,
	store repository.JobStore,
	archive repository.TranscriptArchive,
	maxBytes int64,
	logger *zerolog.Logger,
) *transcriptionUC {
	if maxBytes <= 0 {
		maxBytes = MaxUploadBytes
	}
	return &transcriptionUC{
		chain:    chain,
		demo:     demo,
		store:    store,
		archive:  archive,
		maxBytes: maxBytes,
		log:      logger,
	}
}

// Validate runs the fail-fast checks. It must be called before any record
// is created or any network call is made.
func (u *transcriptionUC) Validate(mimeType string, size int64) error {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	if _, ok := allowedMimeTypes[mt]; !ok {
		metrics.IncValidationReject("format")
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, mimeType)
	}
	if size > u.maxBytes {
		metrics.IncValidationReject("size")
		return fmt.Errorf("%w: %d bytes (limit %d)", domain.ErrFileTooLarge, size, u.maxBytes)
	}
	return nil
}

// Run tries each adapter in order. Empty transcripts and unreachable
// providers are recoverable (next candidate); a definitive vendor failure or
// poll timeout is terminal. Exhaustion falls back to the demo placeholder
// when that policy is enabled, and the placeholder is returned as a genuine
// completion, distinguishable only by its provider tag.
func (u *transcriptionUC) Run(ctx context.Context, job *model.TranscriptionJob, audio []byte, mimeType string) (*model.RecognitionResult, error) {
	log := logging.With(logging.WithJobID(ctx, job.ID), u.log)
	defer logging.TraceDuration(log, "TranscriptionUC.Run")()

	opts := adapter.RecognizeOptions{FileName: job.FileName, Diarize: true}

	for _, cand := range u.chain {
		if ctx.Err() != nil {
			return nil, u.fail(ctx, job, ctx.Err())
		}

		start := time.Now()
		res, err := cand.Recognize(ctx, audio, mimeType, opts)
		latency := int(time.Since(start).Milliseconds())

		if err == nil {
			metrics.ObserveAttempt(res.Provider, res.Model, "success", latency)
			metrics.AddAudioSeconds(res.Provider, res.DurationSeconds)
			return res, u.complete(ctx, job, res)
		}

		switch {
		case errors.Is(err, domain.ErrNoSpeech):
			metrics.ObserveAttempt(cand.Name(), "", "empty", latency)
			log.Debug().Str("provider", cand.Name()).Msg("empty transcript; trying next candidate")
		case errors.Is(err, domain.ErrProviderUnavailable):
			metrics.ObserveAttempt(cand.Name(), "", "error", latency)
			// recovered locally; only the terminal outcome is observable
			log.Warn().Err(err).Str("provider", cand.Name()).Msg("provider attempt failed; trying next candidate")
		default:
			metrics.ObserveAttempt(cand.Name(), "", "error", latency)
			log.Error().Err(err).Str("provider", cand.Name()).Msg("provider reported terminal failure")
			return nil, u.fail(ctx, job, err)
		}
	}

	if u.demo != nil {
		res, err := u.demo.Recognize(ctx, audio, mimeType, opts)
		if err != nil {
			return nil, u.fail(ctx, job, err)
		}
		metrics.IncDemoFallback()
		log.Info().Msg("providers exhausted; returning demo placeholder")
		return res, u.complete(ctx, job, res)
	}

	err := fmt.Errorf("%w: %d candidates tried", domain.ErrProvidersExhausted, len(u.chain))
	log.Error().Err(err).Msg("providers exhausted")
	return nil, u.fail(ctx, job, err)
}

func (u *transcriptionUC) complete(ctx context.Context, job *model.TranscriptionJob, res *model.RecognitionResult) error {
	// Mark the caller's record first: the store applies the transition to its
	// own decoded copy, and the archive below reads the transcript from this
	// one.
	if err := job.Complete(res.Text, res.Utterances); err != nil {
		return err
	}
	upd := &repository.JobUpdate{Transcript: res.Text, Utterances: res.Utterances}
	if err := u.store.UpdateStatus(ctx, job.UserID, job.ID, model.JobStatusCompleted, upd); err != nil {
		return err
	}
	if u.archive != nil && res.Genuine() {
		if err := u.archive.Archive(ctx, job, res.Provider, res.Model); err != nil {
			// history is best-effort; the store record is authoritative
			logging.With(ctx, u.log).Warn().Err(err).Str("job_id", job.ID).Msg("archive write failed")
		}
	}
	return nil
}

func (u *transcriptionUC) fail(ctx context.Context, job *model.TranscriptionJob, cause error) error {
	_ = job.Fail()
	// the terminal update must land even when the request died mid-chain
	ctx = context.WithoutCancel(ctx)
	if err := u.store.UpdateStatus(ctx, job.UserID, job.ID, model.JobStatusFailed, nil); err != nil {
		logging.With(ctx, u.log).Error().Err(err).Str("job_id", job.ID).Msg("failed-status update failed")
	}
	return cause
}
