package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/mkaryagin/voxquest/internal/catalog"
	"github.com/mkaryagin/voxquest/internal/config"
	"github.com/mkaryagin/voxquest/internal/gamestate"
	"github.com/mkaryagin/voxquest/internal/llm"
	"github.com/mkaryagin/voxquest/internal/prompt"
	"github.com/mkaryagin/voxquest/internal/recognizer"
	"github.com/mkaryagin/voxquest/internal/transport"
)

func main() {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	cfg := config.Load()

	log := newLogger(cfg.Debug)
	defer log.Sync()

	log.Info("starting voxquest command recognition service",
		zap.String("service", cfg.ServiceName),
		zap.String("ollama_host", cfg.OllamaHost),
		zap.String("ollama_model", cfg.OllamaModel),
		zap.Float64("confidence_threshold", cfg.ConfidenceThreshold))

	// Load and validate the intent catalog. A broken prompt file must
	// abort startup, not produce silently broken prompts at request time.
	registry, err := catalog.Load()
	if err != nil {
		log.Fatal("failed to load intent catalog", zap.Error(err))
	}
	composer := prompt.NewComposer(registry)
	if err := composer.Validate(); err != nil {
		log.Fatal("intent catalog validation failed", zap.Error(err))
	}
	log.Info("intent catalog loaded",
		zap.Int("specialists", len(registry.Specialists())))

	// Session game-state store: Redis when configured, in-memory otherwise.
	var store gamestate.Store
	if cfg.RedisURL != "" {
		redisStore, err := gamestate.NewRedisStore(cfg.RedisURL, cfg.SessionTTL)
		if err != nil {
			log.Fatal("failed to connect to Redis", zap.Error(err))
		}
		defer redisStore.Close()
		store = redisStore
		log.Info("using Redis session store")
	} else {
		store = gamestate.NewMemoryStore()
		log.Info("using in-memory session store")
	}

	sessions, err := gamestate.NewManager(store, cfg.SessionCacheSize, log)
	if err != nil {
		log.Fatal("failed to create session manager", zap.Error(err))
	}

	client, err := llm.NewOllamaClient(cfg.OllamaHost, cfg.OllamaModel, cfg.OllamaTimeout, cfg.OllamaRPS)
	if err != nil {
		log.Fatal("failed to create completion client", zap.Error(err))
	}

	rec := recognizer.New(registry, composer, client, llm.Options{
		Model:       cfg.OllamaModel,
		Temperature: cfg.OllamaTemperature,
		MaxTokens:   cfg.OllamaMaxTokens,
	}, cfg.ConfidenceThreshold, log)

	// NATS transport
	natsTransport, err := transport.NewNATSTransport(cfg, rec, sessions, log)
	if err != nil {
		log.Fatal("failed to initialize NATS transport", zap.Error(err))
	}
	defer natsTransport.Close()

	if err := natsTransport.Start(); err != nil {
		log.Fatal("failed to start NATS transport", zap.Error(err))
	}

	// HTTP + WebSocket transport
	httpServer := transport.NewHTTPServer(cfg.HTTPAddr, rec, sessions, cfg.RequestTimeout, cfg.Debug, log)
	go func() {
		if err := httpServer.Start(); err != nil {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	log.Info("service is running",
		zap.String("http_addr", cfg.HTTPAddr),
		zap.String("nats_subject", cfg.NatsRequestSubject))

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info("shutting down", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown error", zap.Error(err))
	}
	if err := natsTransport.Close(); err != nil {
		log.Warn("nats shutdown error", zap.Error(err))
	}

	log.Info("service stopped",
		zap.Int("active_sessions", sessions.ActiveSessions()))
}

func newLogger(debug bool) *zap.Logger {
	var log *zap.Logger
	var err error
	if debug {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	return log
}
