package model

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

type JobStatus string

const (
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Utterance is one diarized span of speech. Only providers with speaker
// labels populate these.
type Utterance struct {
	Speaker string `json:"speaker"`
	StartMs int64  `json:"start_ms"`
	EndMs   int64  `json:"end_ms"`
	Text    string `json:"text"`
}

// TranscriptionJob is the persisted record of one upload's lifecycle.
// Status moves from processing to exactly one of completed/failed and is
// terminal after that.
type TranscriptionJob struct {
	ID         string      `json:"id"`
	FileName   string      `json:"fileName"`
	FileSize   string      `json:"fileSize"` // human-formatted, e.g. "3.2 MB"
	Duration   string      `json:"duration"` // mm:ss
	UploadDate time.Time   `json:"uploadDate"`
	Status     JobStatus   `json:"status"`
	Transcript string      `json:"transcript"`
	Utterances []Utterance `json:"utterances,omitempty"`
	UserID     string      `json:"userId"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// NewJobID returns a ULID: millisecond timestamp plus random suffix, so ids
// sort by creation time and never collide.
func NewJobID(now time.Time) string {
	return ulid.MustNew(ulid.Timestamp(now), rand.Reader).String()
}

func NewTranscriptionJob(userID, fileName, fileSize, duration string) *TranscriptionJob {
	now := time.Now()
	return &TranscriptionJob{
		ID:         NewJobID(now),
		FileName:   fileName,
		FileSize:   fileSize,
		Duration:   duration,
		UploadDate: now,
		Status:     JobStatusProcessing,
		UserID:     userID,
	}
}

// Complete attaches the result and marks the job terminal. It is an error to
// complete a job twice.
func (j *TranscriptionJob) Complete(transcript string, utterances []Utterance) error {
	if j.Status != JobStatusProcessing {
		return fmt.Errorf("job %s already terminal (%s)", j.ID, j.Status)
	}
	now := time.Now()
	j.Status = JobStatusCompleted
	j.Transcript = transcript
	j.Utterances = utterances
	j.CompletedAt = &now
	return nil
}

func (j *TranscriptionJob) Fail() error {
	if j.Status != JobStatusProcessing {
		return fmt.Errorf("job %s already terminal (%s)", j.ID, j.Status)
	}
	j.Status = JobStatusFailed
	return nil
}

func (j *TranscriptionJob) Terminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// FormatFileSize renders a byte count the way the dashboard shows it.
func FormatFileSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}

// FormatDuration renders seconds as mm:ss.
func FormatDuration(seconds float64) string {
	if seconds <= 0 {
		return "00:00"
	}
	total := int(seconds + 0.5)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
