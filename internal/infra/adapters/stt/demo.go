package stt

import (
	"context"
	"fmt"

	"github.com/Navin-04/transcriptions/internal/domain/model"
	"github.com/Navin-04/transcriptions/internal/domain/ports/adapter"
)

var _ adapter.SpeechToTextAdapter = (*DemoAdapter)(nil)

const DemoModel = "demo-echo-v1"

// DemoAdapter synthesizes a placeholder result when no real provider
// succeeds, so the upload flow stays non-blocking. Callers tell it apart
// from genuine output by the provider/model tags; it never fails.
type DemoAdapter struct{}

func NewDemoAdapter() *DemoAdapter { return &DemoAdapter{} }

func (d *DemoAdapter) Name() string { return model.ProviderDemo }

func (d *DemoAdapter) Recognize(ctx context.Context, audio []byte, mimeType string, opts adapter.RecognizeOptions) (*model.RecognitionResult, error) {
	name := opts.FileName
	if name == "" {
		name = "your recording"
	}
	text := fmt.Sprintf(
		"This is a demo transcription of %q (%s, %s). No speech-to-text provider is configured or reachable right now; connect a provider credential to see real transcripts.",
		name, model.FormatFileSize(int64(len(audio))), mimeType,
	)
	return &model.RecognitionResult{
		Text:     text,
		Language: "en",
		Provider: model.ProviderDemo,
		Model:    DemoModel,
		Segments: []model.Segment{{StartSec: 0, EndSec: 0, Text: text}},
	}, nil
}
