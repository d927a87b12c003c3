package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"perfume-chat/internal/api"
	"perfume-chat/internal/catalog/sqlite"
	"perfume-chat/internal/config"
	"perfume-chat/internal/llm"
	"perfume-chat/internal/llm/ollama"
	"perfume-chat/internal/llm/openai"
	"perfume-chat/internal/pagination"
	"perfume-chat/internal/repository/file"
	"perfume-chat/internal/repository/memory"
	"perfume-chat/internal/repository/redis"
	"perfume-chat/internal/service"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load .env file - try multiple locations
	for _, p := range []string{".env", "../.env", "../../.env"} {
		if err := godotenv.Load(p); err == nil {
			break
		}
	}

	// Setup logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if level, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	log.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("catalog", cfg.Catalog.Path).
		Msg("Starting perfume chat API server")

	// Open the perfume catalog
	catalog, err := sqlite.Open(context.Background(), cfg.Catalog.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open catalog")
	}
	defer catalog.Close()

	// Pagination state stores
	resultStore, err := file.NewResultStore(cfg.Storage.Dir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open result store")
	}
	cursorStore, err := file.NewCursorStore(cfg.Storage.Dir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open cursor store")
	}
	engine := pagination.NewEngine(resultStore, cursorStore)

	// Conversation sessions
	sessions := memory.NewSessionRegistry(llm.SystemPrompt, cfg.Chat.SessionTTL)

	// LLM providers
	llmRouter := llm.NewRouter(cfg.LLM.DefaultProvider)
	log.Info().Msgf("Initializing LLM providers. Default: %s", cfg.LLM.DefaultProvider)

	if cfg.LLM.OpenAI.APIKey != "" {
		llmRouter.RegisterProvider(openai.NewProvider(cfg.LLM.OpenAI.APIKey, cfg.LLM.OpenAI.Model))
	}
	if cfg.LLM.Ollama.Host != "" {
		log.Info().Str("host", cfg.LLM.Ollama.Host).Msg("Registering Ollama provider")
		llmRouter.RegisterProvider(ollama.NewProvider(cfg.LLM.Ollama.Host, cfg.LLM.Ollama.DefaultModel))
	}
	if len(llmRouter.ListProviders()) == 0 {
		log.Warn().Msg("No LLM provider configured, chat requests will fail")
	}

	chatService := service.NewChatService(
		catalog,
		sessions,
		engine,
		llmRouter,
		cfg.Chat.PageSize,
		cfg.Chat.HistoryLimit,
	)

	// Optional Redis for rate limiting
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = redis.NewClient(cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisClient.Close()
	}

	// Initialize router
	router := api.NewRouter(cfg, catalog, chatService, redisClient)

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
