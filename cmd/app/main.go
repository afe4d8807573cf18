// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Navin-04/transcriptions/internal/config"
	"github.com/Navin-04/transcriptions/internal/domain/ports/adapter"
	"github.com/Navin-04/transcriptions/internal/domain/ports/repository"
	"github.com/Navin-04/transcriptions/internal/infra/adapters/stt"
	pg "github.com/Navin-04/transcriptions/internal/infra/db/postgres"
	"github.com/Navin-04/transcriptions/internal/infra/logging"
	"github.com/Navin-04/transcriptions/internal/infra/metrics"
	red "github.com/Navin-04/transcriptions/internal/infra/redis"
	"github.com/Navin-04/transcriptions/internal/infra/security"
	"github.com/Navin-04/transcriptions/internal/infra/store"
	"github.com/Navin-04/transcriptions/internal/infra/web"
	"github.com/Navin-04/transcriptions/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, local session minting)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("dev mode enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Redis (primary job-store medium) ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	limiter := red.NewRateLimiter(redisClient)

	// ---- Encryption (optional transcript-at-rest) ----
	var enc store.Encryptor
	if cfg.Security.EncryptionKey != "" {
		svc, err := security.NewEncryptionService(cfg.Security.EncryptionKey)
		if err != nil {
			logger.Fatal().Err(err).Msg("encryption")
		}
		enc = svc
	}

	// ---- Job store: redis primary, injected in-memory fallback ----
	fallback := store.NewMemory(0)
	jobStore := store.New(redisClient, fallback,
		store.RetentionPolicy{Limit: cfg.Store.RetentionLimit},
		cfg.Store.ProbeBytes, enc, logger)

	// ---- Transcript archive (optional) ----
	var archive repository.TranscriptArchive
	if cfg.Database.URL != "" {
		pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres")
		}
		defer pool.Close()
		archive = pg.NewTranscriptArchiveRepo(pool)
	}

	// ---- Provider chain (priority order, first success wins) ----
	var chain []adapter.SpeechToTextAdapter
	if key := cfg.Providers.HuggingFaceKey; key != "" {
		if stt.WellFormedHFKey(key) {
			for _, m := range cfg.Providers.HuggingFaceModels {
				hf, err := stt.NewHuggingFaceAdapter(key, m)
				if err != nil {
					logger.Fatal().Err(err).Msg("huggingface adapter")
				}
				chain = append(chain, hf)
			}
			logger.Info().Strs("models", cfg.Providers.HuggingFaceModels).Msg("provider: huggingface")
		} else {
			logger.Warn().Msg("providers.huggingface_key is malformed; skipping hugging face")
		}
	}
	if key := cfg.Providers.AssemblyAIKey; key != "" {
		aai, err := stt.NewAssemblyAIAdapter(key, cfg.Providers.PollInterval, cfg.Providers.PollAttempts)
		if err != nil {
			logger.Fatal().Err(err).Msg("assemblyai adapter")
		}
		chain = append(chain, aai)
		logger.Info().Msg("provider: assemblyai")
	}
	if key := cfg.Providers.OpenAIKey; key != "" {
		oai, err := stt.NewOpenAIAdapter(key, cfg.Providers.OpenAIModel)
		if err != nil {
			logger.Fatal().Err(err).Msg("openai adapter")
		}
		chain = append(chain, oai)
		logger.Info().Str("model", cfg.Providers.OpenAIModel).Msg("provider: openai")
	}
	if key := cfg.Providers.GeminiKey; key != "" {
		gem, err := stt.NewGeminiAdapter(ctx, key, cfg.Providers.GeminiModel)
		if err != nil {
			logger.Fatal().Err(err).Msg("gemini adapter")
		}
		chain = append(chain, gem)
		logger.Info().Str("model", cfg.Providers.GeminiModel).Msg("provider: gemini")
	}

	var demo adapter.SpeechToTextAdapter
	if cfg.Providers.DemoFallbackEnabled() {
		demo = stt.NewDemoAdapter()
	}
	if len(chain) == 0 {
		logger.Warn().Msg("no speech providers configured; uploads will get demo placeholders")
	}

	// ---- Use cases ----
	gw := usecase.NewTranscriptionUseCase(chain, demo, jobStore, archive, cfg.Upload.MaxBytes, logger)
	uploadUC := usecase.NewUploadUseCase(jobStore, gw, logger)

	// ---- HTTP ----
	sessions := web.NewSessionManager(cfg.Auth.Secret, cfg.Auth.CookieName, cfg.Auth.SessionTTL)
	srv := web.NewServer(uploadUC, archive, jobStore, sessions, limiter, cfg, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errCh:
		logger.Error().Err(err).Msg("http server stopped")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown")
	}
}
