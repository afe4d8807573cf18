package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Navin-04/transcriptions/internal/domain"
	"github.com/Navin-04/transcriptions/internal/domain/model"
	"github.com/Navin-04/transcriptions/internal/infra/logging"
	"github.com/Navin-04/transcriptions/internal/infra/metrics"
)

// transcribeResponse is the wire shape of a finished transcription,
// placeholder successes included.
type transcribeResponse struct {
	ID       string          `json:"id"`
	Text     string          `json:"text"`
	Language string          `json:"language"`
	Duration float64         `json:"duration"`
	Segments []model.Segment `json:"segments,omitempty"`
	Words    []model.Word    `json:"words,omitempty"`
	Model    string          `json:"model"`
	Service  string          `json:"service,omitempty"`
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	userID := logging.UserID(r.Context())

	// A little headroom over the payload cap so the multipart framing of an
	// exactly-at-limit file doesn't trip the transport limit first; the
	// gateway enforces the real cap.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxBytes+1024*1024)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.reply(w, "transcribe", http.StatusRequestEntityTooLarge, errorBody{Error: "audio file exceeds the 25MB limit"})
			return
		}
		s.reply(w, "transcribe", http.StatusBadRequest, errorBody{Error: `multipart field "file" is required`})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.reply(w, "transcribe", http.StatusBadRequest, errorBody{Error: "could not read upload"})
		return
	}
	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Upload.RequestTimeout)
	defer cancel()

	job, res, err := s.uploadUC.Upload(ctx, userID, header.Filename, data, mimeType)
	if err != nil {
		s.replyUploadError(w, err)
		return
	}

	s.reply(w, "transcribe", http.StatusOK, transcribeResponse{
		ID:       job.ID,
		Text:     res.Text,
		Language: res.Language,
		Duration: res.DurationSeconds,
		Segments: res.Segments,
		Words:    res.Words,
		Model:    res.Model,
		Service:  res.Provider,
	})
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.uploadUC.List(r.Context(), logging.UserID(r.Context()))
	if err != nil {
		s.reply(w, "jobs", http.StatusInternalServerError, errorBody{Error: "could not load jobs"})
		return
	}
	if jobs == nil {
		jobs = []*model.TranscriptionJob{}
	}
	s.reply(w, "jobs", http.StatusOK, jobs)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.uploadUC.Find(r.Context(), logging.UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.reply(w, "jobs", http.StatusNotFound, errorBody{Error: "job not found"})
			return
		}
		s.reply(w, "jobs", http.StatusInternalServerError, errorBody{Error: "could not load job"})
		return
	}
	s.reply(w, "jobs", http.StatusOK, job)
}

func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	if err := s.uploadUC.Delete(r.Context(), logging.UserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		s.reply(w, "jobs", http.StatusInternalServerError, errorBody{Error: "could not delete job"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
	metrics.IncHTTPRequest("jobs", http.StatusNoContent)
}

func (s *Server) handleClearJobs(w http.ResponseWriter, r *http.Request) {
	if err := s.uploadUC.Clear(r.Context(), logging.UserID(r.Context())); err != nil {
		s.reply(w, "jobs", http.StatusInternalServerError, errorBody{Error: "could not clear jobs"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
	metrics.IncHTTPRequest("jobs", http.StatusNoContent)
}

func (s *Server) handleStorageProbe(w http.ResponseWriter, r *http.Request) {
	ok, degraded := s.probe.Probe(r.Context())
	body := struct {
		OK       bool   `json:"ok"`
		Degraded bool   `json:"degraded"`
		Warning  string `json:"warning,omitempty"`
	}{OK: ok, Degraded: degraded}
	if degraded {
		body.Warning = "persistent storage unavailable; records survive only until restart"
	} else if !ok {
		body.Warning = "storage is near capacity; older transcriptions may be evicted"
	}
	s.reply(w, "storage", http.StatusOK, body)
}

func (s *Server) handleArchiveList(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		s.reply(w, "archive", http.StatusServiceUnavailable, errorBody{Error: "transcript archive is not configured"})
		return
	}
	jobs, err := s.archive.ListByUser(r.Context(), logging.UserID(r.Context()), 50)
	if err != nil {
		s.reply(w, "archive", http.StatusInternalServerError, errorBody{Error: "could not load archive"})
		return
	}
	if jobs == nil {
		jobs = []*model.TranscriptionJob{}
	}
	s.reply(w, "archive", http.StatusOK, jobs)
}

func (s *Server) handleArchiveGet(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		s.reply(w, "archive", http.StatusServiceUnavailable, errorBody{Error: "transcript archive is not configured"})
		return
	}
	job, err := s.archive.FindByID(r.Context(), logging.UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.reply(w, "archive", http.StatusNotFound, errorBody{Error: "transcript not found"})
			return
		}
		s.reply(w, "archive", http.StatusInternalServerError, errorBody{Error: "could not load transcript"})
		return
	}
	s.reply(w, "archive", http.StatusOK, job)
}

// handleDevSession mints a session locally; in production the external
// credential provider issues tokens with the same secret.
func (s *Server) handleDevSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.UserID) == "" {
		s.reply(w, "session", http.StatusBadRequest, errorBody{Error: "user_id is required"})
		return
	}
	tok, err := s.sessions.Mint(w, req.UserID)
	if err != nil {
		s.reply(w, "session", http.StatusInternalServerError, errorBody{Error: "could not mint session"})
		return
	}
	s.reply(w, "session", http.StatusOK, map[string]string{"token": tok})
}

// ===== error mapping and response helpers =====

type errorBody struct {
	Error        string `json:"error"`
	Status       string `json:"status,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

func (s *Server) replyUploadError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnsupportedFormat):
		s.reply(w, "transcribe", http.StatusBadRequest, errorBody{
			Error:        err.Error(),
			Instructions: "upload one of: mp3, wav, mp4, m4a, webm, ogg",
		})
	case errors.Is(err, domain.ErrFileTooLarge):
		s.reply(w, "transcribe", http.StatusRequestEntityTooLarge, errorBody{
			Error:        err.Error(),
			Instructions: "compress the audio or trim it below 25MB",
		})
	case errors.Is(err, domain.ErrStorageFull):
		s.reply(w, "transcribe", http.StatusInsufficientStorage, errorBody{
			Error: "cannot save file metadata: storage full on primary and fallback medium",
		})
	case errors.Is(err, domain.ErrProvidersExhausted):
		s.reply(w, "transcribe", http.StatusBadGateway, errorBody{
			Error:        err.Error(),
			Status:       "exhausted",
			Instructions: "configure providers.huggingface_key or providers.assemblyai_key, or enable providers.demo_fallback",
		})
	case errors.Is(err, domain.ErrPollTimeout):
		s.reply(w, "transcribe", http.StatusBadGateway, errorBody{
			Error:  err.Error(),
			Status: "timeout",
		})
	case errors.Is(err, domain.ErrTranscriptFailed):
		s.reply(w, "transcribe", http.StatusBadGateway, errorBody{
			Error:  err.Error(),
			Status: "failed",
		})
	case errors.Is(err, context.DeadlineExceeded):
		s.reply(w, "transcribe", http.StatusGatewayTimeout, errorBody{
			Error: "transcription did not finish within the request deadline",
		})
	default:
		s.reply(w, "transcribe", http.StatusInternalServerError, errorBody{Error: "transcription failed"})
	}
}

func (s *Server) reply(w http.ResponseWriter, route string, code int, body any) {
	metrics.IncHTTPRequest(route, code)
	writeJSON(w, code, body)
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorBody{Error: msg})
}
