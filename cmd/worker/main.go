package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"vibecoder/internal/adapter/repo"
	"vibecoder/internal/agents"
	"vibecoder/internal/credits"
	"vibecoder/internal/domain"
	"vibecoder/internal/infra"
	"vibecoder/internal/infra/credentials"
	"vibecoder/internal/orchestrator"
	"vibecoder/internal/shadow"
	"vibecoder/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	sqlRunner := infra.NewSQLRunner(pool, logger)
	jobStore := repo.NewJobStore(sqlRunner)
	ledger := credits.NewLedger(sqlRunner)

	storagePath := cfg.StoragePath
	if !filepath.IsAbs(storagePath) {
		if abs, err := filepath.Abs(storagePath); err == nil {
			storagePath = abs
		}
	}
	fileStore, err := storage.NewFileStore(storagePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure storage")
	}

	client := newCompletionClient(ctx, cfg, sqlRunner, logger)
	architect := agents.NewArchitect(client, logger)
	builder := agents.NewBuilder(client, logger)
	tester := shadow.NewTester(nil, cfg.ShadowBuildTimeout, logger)

	pipeline := orchestrator.NewRunner(
		jobStore, ledger, architect, builder, tester, fileStore,
		cfg.GenerationCost, logger,
	)

	logger.Info().
		Str("model", client.Model()).
		Dur("poll_interval", cfg.JobPollInterval).
		Msg("worker: started")

	pollLoop(ctx, cfg.JobPollInterval, jobStore, pipeline, logger)
	logger.Info().Msg("worker: stopped")
}

func pollLoop(ctx context.Context, interval time.Duration, store *repo.JobStore, pipeline *orchestrator.Runner, logger infra.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		for {
			job, err := store.Claim(ctx, "Generation started")
			if err != nil {
				if !errors.Is(err, domain.ErrNotFound) && ctx.Err() == nil {
					logger.Error().Err(err).Msg("worker: claim failed")
				}
				break
			}
			logger.Info().Str("job_id", job.ID).Str("project_id", job.ProjectID).Msg("worker: job claimed")
			pipeline.Execute(ctx, job)
			if ctx.Err() != nil {
				return
			}
		}
	}
}

func newCompletionClient(ctx context.Context, cfg *infra.Config, runner *infra.SQLRunner, logger infra.Logger) agents.CompletionClient {
	credStore := credentials.NewStore(runner)
	httpClient := &http.Client{Timeout: 120 * time.Second}
	switch strings.ToLower(cfg.AgentProvider) {
	case "openai":
		key := strings.TrimSpace(cfg.OpenAIAPIKey)
		if key == "" {
			key, _ = credStore.OpenAIAPIKey(ctx)
		}
		if key == "" {
			logger.Warn().Msg("worker: openai api key missing, using static generation")
			return agents.NewStaticClient()
		}
		return agents.NewOpenAIClient(agents.OpenAIOptions{
			APIKey:     key,
			Model:      cfg.OpenAIModel,
			BaseURL:    cfg.OpenAIBaseURL,
			HTTPClient: httpClient,
		})
	default:
		key := strings.TrimSpace(cfg.GeminiAPIKey)
		if key == "" {
			key, _ = credStore.GeminiAPIKey(ctx)
		}
		if key == "" {
			logger.Warn().Msg("worker: gemini api key missing, using static generation")
			return agents.NewStaticClient()
		}
		return agents.NewGeminiClient(agents.GeminiOptions{
			APIKey:     key,
			Model:      cfg.GeminiModel,
			BaseURL:    cfg.GeminiBaseURL,
			HTTPClient: httpClient,
		})
	}
}
