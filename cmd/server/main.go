package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"github.com/gaoxing-kai/douyin-ai-assistant/internal/ai"
	"github.com/gaoxing-kai/douyin-ai-assistant/internal/config"
	"github.com/gaoxing-kai/douyin-ai-assistant/internal/database"
	"github.com/gaoxing-kai/douyin-ai-assistant/internal/domain"
	"github.com/gaoxing-kai/douyin-ai-assistant/internal/live"
	"github.com/gaoxing-kai/douyin-ai-assistant/internal/pipeline"
	"github.com/gaoxing-kai/douyin-ai-assistant/internal/platform/logging"
	"github.com/gaoxing-kai/douyin-ai-assistant/internal/redis"
	"github.com/gaoxing-kai/douyin-ai-assistant/internal/server"
	"github.com/gaoxing-kai/douyin-ai-assistant/internal/settings"
	"github.com/gaoxing-kai/douyin-ai-assistant/internal/websocket"
)

const settingsCacheTTL = 10 * time.Second

func setupConfig() *config.Config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := database.RunMigrations(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	if err := database.Bootstrap(ctx, pool, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		slog.Error("Failed to bootstrap admin account", "error", err)
		os.Exit(1)
	}

	return pool
}

func setupRedis(cfg *config.Config) *goredis.Client {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

// setupAI selects real upstream clients when API keys are configured and the
// built-in simulators otherwise, so the dashboard works out of the box.
func setupAI(cfg *config.Config) (domain.TextGenerator, domain.SpeechSynthesizer) {
	var textgen domain.TextGenerator = ai.SimulatedTextGen{}
	if cfg.DeepSeekAPIKey != "" {
		textgen = ai.NewTextGenClient(cfg.DeepSeekAPIURL, cfg.DeepSeekAPIKey, cfg.DeepSeekModel, cfg.AIReplyTimeout)
	} else {
		slog.Info("No text-generation API key configured, using simulated replies")
	}

	var speech domain.SpeechSynthesizer = ai.SimulatedSpeech{}
	if cfg.TTSAPIKey != "" && cfg.TTSAPIURL != "" {
		speech = ai.NewSpeechClient(cfg.TTSAPIURL, cfg.TTSAPIKey, cfg.AIReplyTimeout)
	} else {
		slog.Info("No TTS API key configured, using simulated audio")
	}

	return textgen, speech
}

func runGracefulShutdown(srv *server.Server, pl *pipeline.Pipeline, hub *websocket.Hub) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		pl.Stop()
		hub.Stop()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.Init(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	pool := setupDB(cfg)
	defer pool.Close()

	redisClient := setupRedis(cfg)
	defer func() { _ = redisClient.Close() }()

	userRepo := database.NewUserRepo(pool)
	keyRepo := database.NewInviteKeyRepo(pool)
	settingsRepo := database.NewSettingsRepo(pool)
	registrar := database.NewRegistrar(pool)

	settingsCache := settings.NewCache(settingsRepo, settingsCacheTTL, clock)
	history := redis.NewHistoryStore(redisClient)

	hub := websocket.NewHub(clock)
	sink := live.NewEventSink(hub, history)

	textgen, speech := setupAI(cfg)

	registry := live.NewRegistry(sink, live.NewFixtureSource(), clock)
	pl := pipeline.New(settingsCache, textgen, speech, sink, clock, cfg.AnalyzeWorkers)

	srv := server.NewServer(cfg, server.Deps{
		Users:        userRepo,
		Registrar:    registrar,
		InviteKeys:   keyRepo,
		SettingsRepo: settingsRepo,
		Settings:     settingsCache,
		Registry:     registry,
		Pipeline:     pl,
		Hub:          hub,
		History:      history,
		Pool:         pool,
		Redis:        redisClient,
		Clock:        clock,
	})

	done := runGracefulShutdown(srv, pl, hub)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
