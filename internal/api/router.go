package api

import (
	"net/http"

	"perfume-chat/internal/api/handler"
	customMiddleware "perfume-chat/internal/api/middleware"
	"perfume-chat/internal/config"
	"perfume-chat/internal/domain"
	"perfume-chat/internal/repository/redis"
	"perfume-chat/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates and configures the HTTP router. redisClient may be nil;
// rate limiting is skipped without it.
func NewRouter(
	cfg *config.Config,
	catalog domain.CatalogRepository,
	chatService *service.ChatService,
	redisClient *redis.Client,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	chatHandler := handler.NewChatHandler(chatService)
	perfumeHandler := handler.NewPerfumeHandler(chatService)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handler.HealthCheck)
		r.Get("/ready", handler.ReadyCheck(catalog))

		r.Group(func(r chi.Router) {
			if redisClient != nil {
				rateLimiter := redis.NewRateLimiter(
					redisClient,
					cfg.Redis.RateLimit.RequestsPerMinute,
					cfg.Redis.RateLimit.Burst,
				)
				r.Use(customMiddleware.NewRateLimitMiddleware(rateLimiter).Limit)
			}

			r.Post("/chat", chatHandler.Chat)
			r.Get("/perfume/{name}", perfumeHandler.Get)
		})
	})

	return r
}
