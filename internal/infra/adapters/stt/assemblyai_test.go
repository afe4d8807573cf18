package stt

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Navin-04/transcriptions/internal/domain"
	"github.com/Navin-04/transcriptions/internal/domain/model"
	"github.com/Navin-04/transcriptions/internal/domain/ports/adapter"
)

// aaiFixture serves the three-endpoint job API with scripted poll responses.
type aaiFixture struct {
	t         *testing.T
	polls     []aaiTranscript // one per GET, last repeats
	pollCount int
	created   map[string]any // body of the transcript-create request
}

func (f *aaiFixture) handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/upload":
		if r.Header.Get("Authorization") != "aai_test" {
			f.t.Errorf("upload auth = %q", r.Header.Get("Authorization"))
		}
		_, _ = w.Write([]byte(`{"upload_url": "https://cdn.example/audio/42"}`))
	case r.Method == http.MethodPost && r.URL.Path == "/transcript":
		_ = json.NewDecoder(r.Body).Decode(&f.created)
		_, _ = w.Write([]byte(`{"id": "tr_1", "status": "queued"}`))
	case r.Method == http.MethodGet && r.URL.Path == "/transcript/tr_1":
		i := f.pollCount
		if i >= len(f.polls) {
			i = len(f.polls) - 1
		}
		f.pollCount++
		_ = json.NewEncoder(w).Encode(f.polls[i])
	default:
		f.t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	}
}

func newAAITestAdapter(t *testing.T, fix *aaiFixture, attempts int) (*AssemblyAIAdapter, *int) {
	t.Helper()
	fix.t = t
	srv := httptest.NewServer(http.HandlerFunc(fix.handler))
	t.Cleanup(srv.Close)

	a, err := NewAssemblyAIAdapter("aai_test", time.Second, attempts)
	if err != nil {
		t.Fatalf("NewAssemblyAIAdapter: %v", err)
	}
	a.base = srv.URL
	sleeps := 0
	a.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps++
		return ctx.Err()
	}
	return a, &sleeps
}

func TestAssemblyAIRecognize(t *testing.T) {
	fix := &aaiFixture{polls: []aaiTranscript{
		{ID: "tr_1", Status: "processing"},
		{ID: "tr_1", Status: "processing"},
		{
			ID: "tr_1", Status: "completed",
			Text:          "Two speakers talked.",
			LanguageCode:  "en",
			AudioDuration: 7.5,
			Confidence:    0.93,
			Words: []aaiWord{
				{Text: "Two", Start: 0, End: 300, Confidence: 0.99},
				{Text: "speakers", Start: 300, End: 900, Confidence: 0.95},
			},
			Utterances: []aaiUtterance{
				{Speaker: "A", Start: 0, End: 4000, Text: "Two speakers"},
				{Speaker: "B", Start: 4000, End: 7500, Text: "talked."},
			},
		},
	}}
	a, sleeps := newAAITestAdapter(t, fix, 10)

	res, err := a.Recognize(context.Background(), []byte("audio"), "audio/mpeg", adapter.RecognizeOptions{Diarize: true})
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if res.Text != "Two speakers talked." || res.Language != "en" {
		t.Errorf("result = %q (%s)", res.Text, res.Language)
	}
	if res.Provider != model.ProviderAssemblyAI {
		t.Errorf("provider = %q", res.Provider)
	}
	if res.DurationSeconds != 7.5 || res.Confidence != 0.93 {
		t.Errorf("duration/confidence = %v/%v", res.DurationSeconds, res.Confidence)
	}
	if len(res.Words) != 2 || res.Words[1].EndMs != 900 {
		t.Errorf("words = %+v", res.Words)
	}
	if len(res.Utterances) != 2 || res.Utterances[1].Speaker != "B" {
		t.Errorf("utterances = %+v", res.Utterances)
	}
	if len(res.Segments) != 2 || res.Segments[0].EndSec != 4.0 {
		t.Errorf("segments = %+v", res.Segments)
	}

	if fix.pollCount != 3 {
		t.Errorf("polls = %d, want 3", fix.pollCount)
	}
	if *sleeps != 2 {
		t.Errorf("sleeps = %d, want 2 (none before the first poll)", *sleeps)
	}
	if fix.created["speaker_labels"] != true {
		t.Errorf("speaker_labels = %v", fix.created["speaker_labels"])
	}
	if fix.created["language_detection"] != true {
		t.Errorf("language_detection = %v (no language was requested)", fix.created["language_detection"])
	}
}

func TestAssemblyAIRequestedLanguage(t *testing.T) {
	fix := &aaiFixture{polls: []aaiTranscript{
		{ID: "tr_1", Status: "completed", Text: "hola", LanguageCode: "es"},
	}}
	a, _ := newAAITestAdapter(t, fix, 10)

	if _, err := a.Recognize(context.Background(), []byte("audio"), "audio/mpeg", adapter.RecognizeOptions{Language: "es"}); err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if fix.created["language_code"] != "es" {
		t.Errorf("language_code = %v", fix.created["language_code"])
	}
	if _, ok := fix.created["language_detection"]; ok {
		t.Error("language_detection sent alongside an explicit language")
	}
}

func TestAssemblyAIErrorStatusIsTerminal(t *testing.T) {
	fix := &aaiFixture{polls: []aaiTranscript{
		{ID: "tr_1", Status: "processing"},
		{ID: "tr_1", Status: "error", Error: "file does not appear to contain audio"},
	}}
	a, _ := newAAITestAdapter(t, fix, 10)

	_, err := a.Recognize(context.Background(), []byte("audio"), "audio/mpeg", adapter.RecognizeOptions{})
	if !errors.Is(err, domain.ErrTranscriptFailed) {
		t.Fatalf("Recognize = %v, want ErrTranscriptFailed", err)
	}
	// polling must stop at the verdict, not run out the ceiling
	if fix.pollCount != 2 {
		t.Errorf("polls = %d, want 2", fix.pollCount)
	}
}

func TestAssemblyAIPollCeiling(t *testing.T) {
	fix := &aaiFixture{polls: []aaiTranscript{{ID: "tr_1", Status: "processing"}}}
	a, sleeps := newAAITestAdapter(t, fix, 3)

	_, err := a.Recognize(context.Background(), []byte("audio"), "audio/mpeg", adapter.RecognizeOptions{})
	if !errors.Is(err, domain.ErrPollTimeout) {
		t.Fatalf("Recognize = %v, want ErrPollTimeout", err)
	}
	if fix.pollCount != 3 {
		t.Errorf("polls = %d, want 3", fix.pollCount)
	}
	if *sleeps != 2 {
		t.Errorf("sleeps = %d, want 2", *sleeps)
	}
}

func TestAssemblyAICancellationAbortsPolling(t *testing.T) {
	fix := &aaiFixture{polls: []aaiTranscript{{ID: "tr_1", Status: "processing"}}}
	a, _ := newAAITestAdapter(t, fix, 60)

	ctx, cancel := context.WithCancel(context.Background())
	a.sleep = func(sctx context.Context, d time.Duration) error {
		cancel()
		return sctx.Err()
	}

	_, err := a.Recognize(ctx, []byte("audio"), "audio/mpeg", adapter.RecognizeOptions{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Recognize = %v, want context.Canceled", err)
	}
	if fix.pollCount != 1 {
		t.Errorf("polls = %d, want 1", fix.pollCount)
	}
}

func TestAssemblyAIEmptyTranscript(t *testing.T) {
	fix := &aaiFixture{polls: []aaiTranscript{
		{ID: "tr_1", Status: "completed", Text: "  "},
	}}
	a, _ := newAAITestAdapter(t, fix, 10)

	_, err := a.Recognize(context.Background(), []byte("audio"), "audio/mpeg", adapter.RecognizeOptions{})
	if !errors.Is(err, domain.ErrNoSpeech) {
		t.Fatalf("Recognize = %v, want ErrNoSpeech", err)
	}
}

func TestAssemblyAIUploadFailureIsRecoverable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	a, err := NewAssemblyAIAdapter("aai_test", time.Second, 3)
	if err != nil {
		t.Fatalf("NewAssemblyAIAdapter: %v", err)
	}
	a.base = srv.URL

	_, err = a.Recognize(context.Background(), []byte("audio"), "audio/mpeg", adapter.RecognizeOptions{})
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Fatalf("Recognize = %v, want ErrProviderUnavailable", err)
	}
}

func TestDemoAdapterEchoesUploadMetadata(t *testing.T) {
	d := NewDemoAdapter()
	res, err := d.Recognize(context.Background(), make([]byte, 2048), "audio/ogg", adapter.RecognizeOptions{FileName: "note.ogg"})
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if res.Provider != model.ProviderDemo || res.Model != DemoModel {
		t.Errorf("provenance = %q/%q", res.Provider, res.Model)
	}
	if res.Genuine() {
		t.Error("demo result claims to be genuine")
	}
	for _, want := range []string{"note.ogg", "2.0 KB", "audio/ogg"} {
		if !strings.Contains(res.Text, want) {
			t.Errorf("placeholder text missing %q: %s", want, res.Text)
		}
	}
}
