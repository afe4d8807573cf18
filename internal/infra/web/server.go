package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Navin-04/transcriptions/internal/config"
	"github.com/Navin-04/transcriptions/internal/domain/ports/repository"
	"github.com/Navin-04/transcriptions/internal/infra/logging"
	"github.com/Navin-04/transcriptions/internal/infra/metrics"
	red "github.com/Navin-04/transcriptions/internal/infra/redis"
	"github.com/Navin-04/transcriptions/internal/usecase"
)

type Server struct {
	uploadUC usecase.UploadUseCase
	archive  repository.TranscriptArchive // nil when database.url is unset
	probe    Prober
	sessions *SessionManager
	limiter  *red.RateLimiter
	cfg      *config.Config
	log      *zerolog.Logger
	server   *http.Server
}

// Prober is the advisory storage-capacity check the dashboard calls.
type Prober interface {
	Probe(ctx context.Context) (ok bool, degraded bool)
}

func NewServer(
	uploadUC usecase.UploadUseCase,
	archive repository.TranscriptArchive,
	probe Prober,
	sessions *SessionManager,
	limiter *red.RateLimiter,
	cfg *config.Config,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		uploadUC: uploadUC,
		archive:  archive,
		probe:    probe,
		sessions: sessions,
		limiter:  limiter,
		cfg:      cfg,
		log:      logger,
	}
}

// Router builds the full route tree. Split out from Start so tests can mount
// it on httptest servers.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(s.requestID)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(api chi.Router) {
		if s.cfg.Runtime.Dev {
			api.Post("/session", s.handleDevSession)
		}

		api.Group(func(pr chi.Router) {
			pr.Use(s.requireSession)
			pr.With(s.rateLimit).Post("/transcribe", s.handleTranscribe)
			pr.Get("/jobs", s.handleListJobs)
			pr.Get("/jobs/{id}", s.handleGetJob)
			pr.Delete("/jobs/{id}", s.handleDeleteJob)
			pr.Delete("/jobs", s.handleClearJobs)
			pr.Get("/storage/probe", s.handleStorageProbe)
			pr.Get("/archive", s.handleArchiveList)
			pr.Get("/archive/{id}", s.handleArchiveGet)
		})
	})
	return r
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler: s.Router(),
		// WriteTimeout must outlive the secondary provider's poll ceiling;
		// killing the response writer is the only abort for that loop.
		ReadTimeout:  time.Minute,
		WriteTimeout: s.cfg.Upload.RequestTimeout + time.Minute,
	}
	s.log.Info().Int("port", s.cfg.Server.Port).Msg("http server listening")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// ===== middleware =====

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r.WithContext(logging.WithRequestID(r.Context(), id)))
	})
}

// requireSession trusts the external credential provider: a valid token
// means an authenticated user, nothing more is checked here.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.sessions.ParseFromRequest(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r.WithContext(logging.WithUserID(r.Context(), claims.UserID)))
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter == nil {
			next.ServeHTTP(w, r)
			return
		}
		userID := logging.UserID(r.Context())
		ok, err := s.limiter.Allow(r.Context(), red.UploadKey(userID), s.cfg.Upload.RateLimit, s.cfg.Upload.RateWindow)
		if err != nil {
			// the limiter failing open beats blocking every upload
			s.log.Warn().Err(err).Msg("rate limiter unavailable")
			next.ServeHTTP(w, r)
			return
		}
		if !ok {
			metrics.IncHTTPRequest("transcribe", http.StatusTooManyRequests)
			writeError(w, http.StatusTooManyRequests, "upload limit reached, try again shortly")
			return
		}
		next.ServeHTTP(w, r)
	})
}
