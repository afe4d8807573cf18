// File: internal/infra/adapters/stt/gemini.go
package stt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/Navin-04/transcriptions/internal/domain"
	"github.com/Navin-04/transcriptions/internal/domain/model"
	"github.com/Navin-04/transcriptions/internal/domain/ports/adapter"
)

var _ adapter.SpeechToTextAdapter = (*GeminiAdapter)(nil)

const geminiPrompt = "Transcribe this audio recording verbatim. Reply with the transcript text only."

// GeminiAdapter sends the audio inline to a multimodal Gemini model and
// treats the reply as the transcript.
type GeminiAdapter struct {
	client *genai.Client
	model  string
}

func NewGeminiAdapter(ctx context.Context, apiKey, aiModel string) (*GeminiAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: empty api key")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	if aiModel == "" {
		aiModel = "gemini-2.0-flash"
	}
	return &GeminiAdapter{client: c, model: aiModel}, nil
}

func (g *GeminiAdapter) Name() string { return model.ProviderGemini }

func (g *GeminiAdapter) Recognize(ctx context.Context, audio []byte, mimeType string, opts adapter.RecognizeOptions) (*model.RecognitionResult, error) {
	prompt := geminiPrompt
	if opts.Language != "" {
		prompt = fmt.Sprintf("%s The audio is in %q.", geminiPrompt, opts.Language)
	}
	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
		genai.NewPartFromBytes(audio, mimeType),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: gemini %s: %v", domain.ErrProviderUnavailable, g.model, err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, fmt.Errorf("%w: gemini %s", domain.ErrNoSpeech, g.model)
	}
	return &model.RecognitionResult{
		Text:     text,
		Language: opts.Language,
		Provider: model.ProviderGemini,
		Model:    g.model,
	}, nil
}
