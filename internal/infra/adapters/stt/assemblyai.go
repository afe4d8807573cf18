// File: internal/infra/adapters/stt/assemblyai.go
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

var _ adapter.SpeechToTextAdapter = (*AssemblyAIAdapter)(nil)

// AssemblyAIAdapter drives the vendor's asynchronous job API: upload the
// audio, create a transcript job, then poll its status on a fixed interval
// up to a fixed ceiling. The poll loop blocks the calling request for its
// whole duration; ctx cancellation is the only abort.
type AssemblyAIAdapter struct {
	apiKey       string
	base         string // e.g., https://api.assemblyai.com/v2
	pollInterval time.Duration
	pollAttempts int
	client       *http.Client
	sleep        func(ctx context.Context, d time.Duration) error
}

func NewAssemblyAIAdapter(apiKey string, pollInterval time.Duration, pollAttempts int) (*AssemblyAIAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("assemblyai api key empty")
	}
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	if pollAttempts <= 0 {
		pollAttempts = 60
	}
	return &AssemblyAIAdapter{
		apiKey:       apiKey,
		base:         "https://api.assemblyai.com/v2",
		pollInterval: pollInterval,
		pollAttempts: pollAttempts,
		client:       &http.Client{Timeout: time.Minute},
		sleep:        sleepCtx,
	}, nil
}

func (a *AssemblyAIAdapter) Name() string { return model.ProviderAssemblyAI }

type aaiWord struct {
	Text       string  `json:"text"`
	Start      int64   `json:"start"`
	End        int64   `json:"end"`
	Confidence float64 `json:"confidence"`
	Speaker    string  `json:"speaker"`
}

type aaiUtterance struct {
	Speaker string `json:"speaker"`
	Start   int64  `json:"start"`
	End     int64  `json:"end"`
	Text    string `json:"text"`
}

type aaiTranscript struct {
	ID            string         `json:"id"`
	Status        string         `json:"status"` // queued|processing|completed|error
	Text          string         `json:"text"`
	LanguageCode  string         `json:"language_code"`
	AudioDuration float64        `json:"audio_duration"`
	Confidence    float64        `json:"confidence"`
	Words         []aaiWord      `json:"words"`
	Utterances    []aaiUtterance `json:"utterances"`
	Error         string         `json:"error"`
}

func (a *AssemblyAIAdapter) Recognize(ctx context.Context, audio []byte, mimeType string, opts adapter.RecognizeOptions) (*model.RecognitionResult, error) {
	uploadURL, err := a.upload(ctx, audio)
	if err != nil {
		return nil, err
	}
	id, err := a.createTranscript(ctx, uploadURL, opts)
	if err != nil {
		return nil, err
	}
	tr, err := a.poll(ctx, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(tr.Text) == "" {
		return nil, fmt.Errorf("%w: assemblyai transcript %s", domain.ErrNoSpeech, id)
	}
	return a.toResult(tr), nil
}

func (a *AssemblyAIAdapter) upload(ctx context.Context, audio []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.base+"/upload", bytes.NewReader(audio))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", a.apiKey)
	req.Header.Set("Content-Type", "application/octet-stream")

	var out struct {
		UploadURL string `json:"upload_url"`
	}
	if err := a.do(req, &out); err != nil {
		return "", fmt.Errorf("%w: assemblyai upload: %v", domain.ErrProviderUnavailable, err)
	}
	if out.UploadURL == "" {
		return "", fmt.Errorf("%w: assemblyai upload returned no url", domain.ErrProviderUnavailable)
	}
	return out.UploadURL, nil
}

func (a *AssemblyAIAdapter) createTranscript(ctx context.Context, audioURL string, opts adapter.RecognizeOptions) (string, error) {
	body := map[string]any{
		"audio_url":      audioURL,
		"speaker_labels": opts.Diarize,
	}
	if opts.Language != "" {
		body["language_code"] = opts.Language
	} else {
		body["language_detection"] = true
	}
	b, _ := json.Marshal(body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.base+"/transcript", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", a.apiKey)
	req.Header.Set("Content-Type", "application/json")

	var out aaiTranscript
	if err := a.do(req, &out); err != nil {
		return "", fmt.Errorf("%w: assemblyai submit: %v", domain.ErrProviderUnavailable, err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("%w: assemblyai submit returned no id", domain.ErrProviderUnavailable)
	}
	return out.ID, nil
}

func (a *AssemblyAIAdapter) poll(ctx context.Context, id string) (*aaiTranscript, error) {
	for attempt := 0; attempt < a.pollAttempts; attempt++ {
		if attempt > 0 {
			if err := a.sleep(ctx, a.pollInterval); err != nil {
				return nil, err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.base+"/transcript/"+id, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", a.apiKey)

		var tr aaiTranscript
		if err := a.do(req, &tr); err != nil {
			return nil, fmt.Errorf("%w: assemblyai poll: %v", domain.ErrProviderUnavailable, err)
		}
		switch tr.Status {
		case "completed":
			return &tr, nil
		case "error":
			// a definitive vendor verdict, not a recoverable blip
			return nil, fmt.Errorf("%w: assemblyai: %s", domain.ErrTranscriptFailed, tr.Error)
		}
	}
	return nil, fmt.Errorf("%w: assemblyai transcript %s", domain.ErrPollTimeout, id)
}

func (a *AssemblyAIAdapter) toResult(tr *aaiTranscript) *model.RecognitionResult {
	res := &model.RecognitionResult{
		Text:            strings.TrimSpace(tr.Text),
		Language:        tr.LanguageCode,
		DurationSeconds: tr.AudioDuration,
		Confidence:      tr.Confidence,
		Provider:        model.ProviderAssemblyAI,
		Model:           "assemblyai-universal",
	}
	for _, w := range tr.Words {
		res.Words = append(res.Words, model.Word{
			Text:       w.Text,
			StartMs:    w.Start,
			EndMs:      w.End,
			Confidence: w.Confidence,
		})
	}
	for _, u := range tr.Utterances {
		res.Utterances = append(res.Utterances, model.Utterance{
			Speaker: u.Speaker,
			StartMs: u.Start,
			EndMs:   u.End,
			Text:    u.Text,
		})
		res.Segments = append(res.Segments, model.Segment{
			StartSec: float64(u.Start) / 1000,
			EndSec:   float64(u.End) / 1000,
			Text:     u.Text,
			Speaker:  u.Speaker,
		})
	}
	return res
}

func (a *AssemblyAIAdapter) do(req *http.Request, out any) error {
	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
