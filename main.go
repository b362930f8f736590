package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/dyncarl8-oss/signalix-ai/config"
	"github.com/dyncarl8-oss/signalix-ai/internal/ai/llm"
	"github.com/dyncarl8-oss/signalix-ai/internal/api"
	"github.com/dyncarl8-oss/signalix-ai/internal/auth"
	"github.com/dyncarl8-oss/signalix-ai/internal/cache"
	"github.com/dyncarl8-oss/signalix-ai/internal/credits"
	"github.com/dyncarl8-oss/signalix-ai/internal/database"
	"github.com/dyncarl8-oss/signalix-ai/internal/logging"
	"github.com/dyncarl8-oss/signalix-ai/internal/market"
	"github.com/dyncarl8-oss/signalix-ai/internal/predictor"
	"github.com/dyncarl8-oss/signalix-ai/internal/vault"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.New(cfg.LoggingConfig.Level, cfg.LoggingConfig.JSONFormat)
	logger.Info().Msg("starting signalix-ai")

	db, err := database.NewDB(cfg.DatabaseConfig, logger.With().Str("component", "database").Logger())
	if err != nil {
		logger.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.RunMigrations(migrateCtx); err != nil {
		cancelMigrate()
		logger.Fatal().Err(err).Msg("migrations failed")
	}
	cancelMigrate()

	repo := database.NewRepository(db)

	var cacheService *cache.CacheService
	if cfg.RedisConfig.Enabled {
		cacheService, err = cache.NewCacheService(cfg.RedisConfig, logger.With().Str("component", "cache").Logger())
		if err != nil {
			logger.Warn().Err(err).Msg("cache disabled")
			cacheService = nil
		} else {
			defer cacheService.Close()
		}
	}

	ledger := credits.NewService(repo, cacheService, logger.With().Str("component", "credits").Logger())

	vaultClient, err := vault.NewClient(cfg.VaultConfig, logger.With().Str("component", "vault").Logger())
	if err != nil {
		logger.Fatal().Err(err).Msg("vault client failed")
	}

	keysCtx, cancelKeys := context.WithTimeout(context.Background(), 10*time.Second)
	aiKeys := vaultClient.ResolveAIKeys(keysCtx, vault.AIKeys{
		AnthropicAPIKey: cfg.AIConfig.AnthropicAPIKey,
		OpenAIAPIKey:    cfg.AIConfig.OpenAIAPIKey,
	})
	cancelKeys()

	engine := buildEngine(cfg.AIConfig, aiKeys, logger)

	marketClient := market.NewClient(cfg.MarketConfig.BaseURL, time.Duration(cfg.MarketConfig.TimeoutSeconds)*time.Second)
	provider := market.NewProvider(marketClient, cfg.MarketConfig.CandleInterval, logger.With().Str("component", "market").Logger())

	orchestrator := predictor.NewOrchestrator(ledger, provider, engine, logger.With().Str("component", "predictor").Logger())

	verifier := auth.NewVerifier(cfg.AuthConfig)

	server := api.NewServer(cfg.ServerConfig, cfg.AuthConfig, ledger, orchestrator, verifier, logger.With().Str("component", "api").Logger())

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatal().Err(err).Msg("server exited")
		}
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ServerConfig.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown failed")
	}
	logger.Info().Msg("stopped")
}

// buildEngine assembles the decision chain: the primary model first, then the
// fallback with the identical prompt.
func buildEngine(aiCfg config.AIConfig, keys vault.AIKeys, logger zerolog.Logger) *predictor.Engine {
	timeout := time.Duration(aiCfg.TimeoutSeconds) * time.Second

	engine := predictor.NewEngine(logger.With().Str("component", "engine").Logger())

	engine.AddSource("claude", llm.NewClient(&llm.ClientConfig{
		Provider:    llm.ProviderClaude,
		APIKey:      keys.AnthropicAPIKey,
		Model:       aiCfg.PrimaryModel,
		MaxTokens:   aiCfg.MaxTokens,
		Temperature: aiCfg.Temperature,
		Timeout:     timeout,
	}))

	engine.AddSource("openai", llm.NewClient(&llm.ClientConfig{
		Provider:    llm.ProviderOpenAI,
		APIKey:      keys.OpenAIAPIKey,
		Model:       aiCfg.FallbackModel,
		MaxTokens:   aiCfg.MaxTokens,
		Temperature: aiCfg.Temperature,
		Timeout:     timeout,
	}))

	return engine
}
