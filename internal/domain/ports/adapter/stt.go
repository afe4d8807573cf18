package adapter

import (
	"context"

	"github.com/Navin-04/transcriptions/internal/domain/model"
)

// RecognizeOptions tune a single recognition call.
type RecognizeOptions struct {
	FileName string // original upload name; some vendors require one
	Language string // "" lets the provider detect
	Diarize  bool   // request speaker labels where supported
}

// SpeechToTextAdapter is the port every speech vendor implements. Recognize
// must return domain.ErrNoSpeech for empty/whitespace-only transcripts so
// the caller can move on to the next candidate instead of failing hard.
type SpeechToTextAdapter interface {
	Name() string
	Recognize(ctx context.Context, audio []byte, mimeType string, opts RecognizeOptions) (*model.RecognitionResult, error)
}
