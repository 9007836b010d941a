package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"podvid-server/internal/http/handlers"
	httpapi "podvid-server/internal/http/httpapi"
	"podvid-server/internal/infra"
	"podvid-server/internal/infra/credentials"
	"podvid-server/internal/ledger"
	"podvid-server/internal/pipeline"
	"podvid-server/internal/providers/heygen"
	"podvid-server/internal/staging"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()

	// The database is optional: without one the usage ledger is disabled and
	// the HeyGen key must come from the environment.
	var led *ledger.Ledger
	var creds *credentials.Store
	if cfg.DatabaseURL != "" {
		dbpool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer dbpool.Close()
		runner := infra.NewSQLRunner(dbpool, logger)
		led = ledger.New(runner, logger)
		creds = credentials.NewStore(runner)
	}

	apiKey := cfg.HeyGenAPIKey
	if apiKey == "" && creds != nil {
		key, err := creds.HeyGenAPIKey(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to read heygen api key from store")
		}
		apiKey = key
	}
	if apiKey == "" {
		logger.Fatal().Msg("HEYGEN_API_KEY is not set and no stored key was found")
	}

	stager, err := staging.NewMinIOStager(staging.Options{
		Endpoint:  cfg.MinIOEndpoint,
		AccessKey: cfg.MinIOAccessKey,
		SecretKey: cfg.MinIOSecretKey,
		Bucket:    cfg.MinIOBucket,
		UseSSL:    cfg.MinIOUseSSL,
		URLExpiry: cfg.StagedURLTTL,
		Logger:    logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build staging client")
	}

	client := heygen.NewClient(heygen.Options{
		BaseURL:  cfg.HeyGenBaseURL,
		APIKey:   apiKey,
		TestMode: cfg.HeyGenTestMode,
	})
	poller := pipeline.NewPoller(client, cfg.PollInterval, cfg.PollMaxAttempts, logger)
	orc := pipeline.NewOrchestrator(stager, client, poller, cfg.PipelineBudget,
		heygen.Dimension{Width: cfg.VideoWidth, Height: cfg.VideoHeight}, logger)

	app := handlers.NewApp(orc, pipeline.NewRegistry(), led, logger)
	router := httpapi.NewRouter(app, cfg, logger)
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

	// Leave in-flight generations room to finish cleanup before exiting.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
