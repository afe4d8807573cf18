package stt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/Navin-04/transcriptions/internal/domain"
	"github.com/Navin-04/transcriptions/internal/domain/model"
	"github.com/Navin-04/transcriptions/internal/domain/ports/adapter"
)

var _ adapter.SpeechToTextAdapter = (*OpenAIAdapter)(nil)

// OpenAIAdapter transcribes through the audio transcriptions endpoint using
// the official SDK.
type OpenAIAdapter struct {
	client openai.Client
	model  string
}

func NewOpenAIAdapter(apiKey, aiModel string) (*OpenAIAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key empty")
	}
	if aiModel == "" {
		aiModel = string(openai.AudioModelWhisper1)
	}
	return &OpenAIAdapter{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  aiModel,
	}, nil
}

func (o *OpenAIAdapter) Name() string { return model.ProviderOpenAI }

func (o *OpenAIAdapter) Recognize(ctx context.Context, audio []byte, mimeType string, opts adapter.RecognizeOptions) (*model.RecognitionResult, error) {
	name := opts.FileName
	if name == "" {
		name = "upload.audio"
	}
	params := openai.AudioTranscriptionNewParams{
		Model: openai.AudioModel(o.model),
		File:  openai.File(bytes.NewReader(audio), name, mimeType),
	}
	if opts.Language != "" {
		params.Language = openai.String(opts.Language)
	}

	resp, err := o.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%w: openai %s: %v", domain.ErrProviderUnavailable, o.model, err)
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: openai %s", domain.ErrNoSpeech, o.model)
	}
	return &model.RecognitionResult{
		Text:     text,
		Language: opts.Language,
		Provider: model.ProviderOpenAI,
		Model:    o.model,
	}, nil
}
