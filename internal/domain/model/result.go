package model

// Segment is a timestamped slice of the transcript.
type Segment struct {
	StartSec float64 `json:"start"`
	EndSec   float64 `json:"end"`
	Text     string  `json:"text"`
	Speaker  string  `json:"speaker,omitempty"`
}

// Word carries word-level timing when the provider reports it.
type Word struct {
	Text       string  `json:"text"`
	StartMs    int64   `json:"start_ms"`
	EndMs      int64   `json:"end_ms"`
	Confidence float64 `json:"confidence,omitempty"`
}

// RecognitionResult is the normalized output of every speech-to-text
// provider. Provider and Model identify where the text came from; the demo
// placeholder is distinguishable only through them.
type RecognitionResult struct {
	Text            string      `json:"text"`
	Language        string      `json:"language"`
	DurationSeconds float64     `json:"duration"`
	Segments        []Segment   `json:"segments,omitempty"`
	Words           []Word      `json:"words,omitempty"`
	Utterances      []Utterance `json:"utterances,omitempty"`
	Confidence      float64     `json:"confidence,omitempty"`
	Provider        string      `json:"service"`
	Model           string      `json:"model"`
}

const (
	ProviderHuggingFace = "huggingface"
	ProviderAssemblyAI  = "assemblyai"
	ProviderOpenAI      = "openai"
	ProviderGemini      = "gemini"
	ProviderDemo        = "demo"
)

// Genuine reports whether the result came from a real provider rather than
// the placeholder path.
func (r *RecognitionResult) Genuine() bool {
	return r.Provider != ProviderDemo
}
