// File: internal/infra/adapters/stt/huggingface.go
package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Navin-04/transcriptions/internal/domain"
	"github.com/Navin-04/transcriptions/internal/domain/model"
	"github.com/Navin-04/transcriptions/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.SpeechToTextAdapter = (*HuggingFaceAdapter)(nil)

// HuggingFaceAdapter runs one inference-API model. The gateway chains one
// instance per candidate model, in priority order.
type HuggingFaceAdapter struct {
	apiKey string
	base   string // e.g., https://api-inference.huggingface.co
	model  string
	client *http.Client
}

// WellFormedHFKey reports whether the credential looks like a Hugging Face
// token. A malformed key means the whole provider is skipped, not an error.
func WellFormedHFKey(key string) bool {
	return strings.HasPrefix(key, "hf_")
}

func NewHuggingFaceAdapter(apiKey, model string) (*HuggingFaceAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("huggingface api key empty")
	}
	if model == "" {
		return nil, errors.New("huggingface model empty")
	}
	return &HuggingFaceAdapter{
		apiKey: apiKey,
		base:   "https://api-inference.huggingface.co",
		model:  model,
		client: &http.Client{Timeout: 2 * time.Minute},
	}, nil
}

func (h *HuggingFaceAdapter) Name() string { return model.ProviderHuggingFace }

type hfChunk struct {
	Timestamp [2]float64 `json:"timestamp"`
	Text      string     `json:"text"`
}

type hfResp struct {
	Text   string    `json:"text"`
	Chunks []hfChunk `json:"chunks"`
}

func (h *HuggingFaceAdapter) Recognize(ctx context.Context, audio []byte, mimeType string, opts adapter.RecognizeOptions) (*model.RecognitionResult, error) {
	url := h.base + "/models/" + h.model
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(audio))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+h.apiKey)
	req.Header.Set("Content-Type", mimeType)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: huggingface %s: %v", domain.ErrProviderUnavailable, h.model, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		// 503 while the model container warms up is the common case; the
		// caller moves on to the next candidate either way.
		return nil, fmt.Errorf("%w: huggingface %s http %d: %s",
			domain.ErrProviderUnavailable, h.model, resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var hr hfResp
	if err := json.NewDecoder(resp.Body).Decode(&hr); err != nil {
		return nil, fmt.Errorf("%w: huggingface %s: decode: %v", domain.ErrProviderUnavailable, h.model, err)
	}
	text := strings.TrimSpace(hr.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: huggingface %s", domain.ErrNoSpeech, h.model)
	}

	res := &model.RecognitionResult{
		Text:     text,
		Language: opts.Language,
		Provider: model.ProviderHuggingFace,
		Model:    h.model,
	}
	for _, c := range hr.Chunks {
		res.Segments = append(res.Segments, model.Segment{
			StartSec: c.Timestamp[0],
			EndSec:   c.Timestamp[1],
			Text:     strings.TrimSpace(c.Text),
		})
	}
	if n := len(res.Segments); n > 0 {
		res.DurationSeconds = res.Segments[n-1].EndSec
	}
	return res, nil
}
