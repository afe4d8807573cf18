package audio

import (
	"bytes"
	"strings"

	"github.com/go-audio/wav"
)

// Assumed compressed bitrate when the container carries no timing info.
const estimateBytesPerSecond = 16000 // 128 kbps

// ProbeDurationSeconds derives the clip length from the audio payload. WAV
// headers are decoded exactly; other formats get a byte-rate estimate, which
// only feeds the human-readable mm:ss shown on the dashboard.
func ProbeDurationSeconds(data []byte, mimeType string) (seconds float64, exact bool) {
	if isWav(mimeType) {
		dec := wav.NewDecoder(bytes.NewReader(data))
		if dec.IsValidFile() {
			if d, err := dec.Duration(); err == nil && d > 0 {
				return d.Seconds(), true
			}
		}
	}
	return float64(len(data)) / estimateBytesPerSecond, false
}

func isWav(mimeType string) bool {
	mt := strings.ToLower(mimeType)
	return mt == "audio/wav" || mt == "audio/x-wav" || mt == "audio/wave"
}
