package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"vibecoder/internal/adapter/repo"
	"vibecoder/internal/agents"
	"vibecoder/internal/credits"
	"vibecoder/internal/database"
	"vibecoder/internal/http/handlers"
	httpapi "vibecoder/internal/http/httpapi"
	"vibecoder/internal/infra"
	"vibecoder/internal/infra/credentials"
	"vibecoder/internal/infra/geoip"
	"vibecoder/internal/middleware"
	"vibecoder/internal/orchestrator"
	"vibecoder/internal/policy"
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

	migrator, err := database.NewMigrator(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: migrator setup failed")
	}
	if err := migrator.Run(); err != nil {
		logger.Fatal().Err(err).Msg("api: migrations failed")
	}
	_ = migrator.Close()

	ctx := context.Background()
	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: db connection failed")
	}
	defer pool.Close()

	runner := infra.NewSQLRunner(pool, logger)
	jobStore := repo.NewJobStore(runner)
	ledger := credits.NewLedger(runner)
	guard := policy.NewGuard(policy.DefaultRules)

	fileStore, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: storage setup failed")
	}

	client := newCompletionClient(ctx, cfg, runner, logger)
	healer := agents.NewHealer(client, logger)
	tester := shadow.NewTester(nil, cfg.ShadowBuildTimeout, logger)

	service := orchestrator.NewService(jobStore, guard, cfg.DefaultModelID, logger)
	watcher := orchestrator.NewWatcher(pool, jobStore, logger)

	watchCtx, stopWatcher := context.WithCancel(ctx)
	defer stopWatcher()
	go watcher.Run(watchCtx)

	var countries middleware.CountryLookup
	if resolver, err := geoip.NewResolver(cfg.GeoIPDBPath); err != nil {
		logger.Warn().Err(err).Msg("api: geoip resolver unavailable")
	} else if resolver != nil {
		countries = resolver.CountryCode
	}

	app := &handlers.App{
		Service: service,
		Watcher: watcher,
		Guard:   guard,
		Tester:  tester,
		Healer:  healer,
		Ledger:  ledger,
		Files:   fileStore,
	}

	router := httpapi.NewRouter(app, cfg, countries, logger)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

// newCompletionClient picks the configured backend. A missing API key falls
// back to the keyless static client so the service stays usable in
// development.
func newCompletionClient(ctx context.Context, cfg *infra.Config, runner *infra.SQLRunner, logger infra.Logger) agents.CompletionClient {
	credStore := credentials.NewStore(runner)
	switch strings.ToLower(cfg.AgentProvider) {
	case "openai":
		key := strings.TrimSpace(cfg.OpenAIAPIKey)
		if key == "" {
			key, _ = credStore.OpenAIAPIKey(ctx)
		}
		if key == "" {
			logger.Warn().Msg("openai api key missing, using static generation")
			return agents.NewStaticClient()
		}
		return agents.NewOpenAIClient(agents.OpenAIOptions{
			APIKey:  key,
			Model:   cfg.OpenAIModel,
			BaseURL: cfg.OpenAIBaseURL,
		})
	default:
		key := strings.TrimSpace(cfg.GeminiAPIKey)
		if key == "" {
			key, _ = credStore.GeminiAPIKey(ctx)
		}
		if key == "" {
			logger.Warn().Msg("gemini api key missing, using static generation")
			return agents.NewStaticClient()
		}
		return agents.NewGeminiClient(agents.GeminiOptions{
			APIKey:  key,
			Model:   cfg.GeminiModel,
			BaseURL: cfg.GeminiBaseURL,
		})
	}
}
