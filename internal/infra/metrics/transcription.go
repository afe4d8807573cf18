// File: internal/infra/metrics/transcription.go
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		sttAttemptsTotal,
		sttAttemptLatencyMs,
		sttFallbacksTotal,
		sttValidationRejects,
		sttAudioSeconds,
	)
}

var (
	sttAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stt_attempts_total",
			Help: "Recognition attempts per provider/model and outcome.",
		},
		[]string{"provider", "model", "outcome"}, // outcome: success|empty|error
	)

	sttAttemptLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stt_attempt_latency_ms",
			Help:    "Recognition call latency distribution in milliseconds.",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 15000, 60000, 300000},
		},
		[]string{"provider", "model", "success"},
	)

	sttFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stt_demo_fallbacks_total",
			Help: "Uploads answered by the demo placeholder after provider exhaustion.",
		},
	)

	sttValidationRejects = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stt_validation_rejects_total",
			Help: "Uploads rejected before any provider call.",
		},
		[]string{"reason"}, // format|size
	)

	sttAudioSeconds = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stt_audio_seconds_total",
			Help: "Sum of transcribed audio seconds per provider.",
		},
		[]string{"provider"},
	)
)

func ObserveAttempt(provider, model, outcome string, latencyMs int) {
	sttAttemptsTotal.WithLabelValues(norm(provider), norm(model), norm(outcome)).Inc()
	sttAttemptLatencyMs.WithLabelValues(norm(provider), norm(model),
		strconv.FormatBool(outcome == "success")).Observe(float64(latencyMs))
}

func IncDemoFallback() { sttFallbacksTotal.Inc() }

func IncValidationReject(reason string) {
	sttValidationRejects.WithLabelValues(norm(reason)).Inc()
}

func AddAudioSeconds(provider string, seconds float64) {
	if seconds > 0 {
		sttAudioSeconds.WithLabelValues(norm(provider)).Add(seconds)
	}
}
