package api

import (
	"net/http"

	"github.com/dkarlsen/taskpilot/internal/ai"
	"github.com/dkarlsen/taskpilot/internal/ai/gemini"
	"github.com/dkarlsen/taskpilot/internal/ai/remote"
	"github.com/dkarlsen/taskpilot/internal/api/handler"
	customMiddleware "github.com/dkarlsen/taskpilot/internal/api/middleware"
	"github.com/dkarlsen/taskpilot/internal/config"
	"github.com/dkarlsen/taskpilot/internal/repository/postgres"
	"github.com/dkarlsen/taskpilot/internal/repository/redis"
	"github.com/dkarlsen/taskpilot/internal/security"
	"github.com/dkarlsen/taskpilot/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// NewRouter creates and configures the HTTP router
func NewRouter(
	cfg *config.Config,
	db *postgres.DB,
	redisClient *redis.Client,
	chatStorage service.ChatStateStorage,
	logger zerolog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Server.MiddlewareTimeout))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	jwtManager := security.NewJWTManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenTTL,
		cfg.Auth.RefreshTokenTTL,
	)

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	projectRepo := postgres.NewProjectRepository(db)
	todoRepo := postgres.NewTodoRepository(db)

	rateLimiter := redis.NewRateLimiter(
		redisClient,
		cfg.Security.RateLimit.RequestsPerMinute,
		cfg.Security.RateLimit.Burst,
	)

	// AI providers
	aiRouter := ai.NewRouter(cfg.AI.DefaultProvider)
	logger.Info().Str("default", cfg.AI.DefaultProvider).Msg("Initializing AI providers")

	if cfg.AI.Remote.Host != "" {
		logger.Info().Str("host", cfg.AI.Remote.Host).Msg("Registering remote provider")
		aiRouter.RegisterProvider(remote.NewProvider(cfg.AI.Remote.Host, cfg.AI.Remote.Model, cfg.AI.Remote.Timeout))
	}
	if cfg.AI.Gemini.APIKey != "" {
		logger.Info().Str("model", cfg.AI.Gemini.Model).Msg("Registering Gemini provider")
		aiRouter.RegisterProvider(gemini.NewProvider(cfg.AI.Gemini))
	} else {
		logger.Warn().Msg("Gemini API key is empty, skipping registration")
	}

	// Services
	authService := service.NewAuthService(userRepo, jwtManager)
	projectService := service.NewProjectService(projectRepo)
	todoService := service.NewTodoService(todoRepo)
	aiService := service.NewAIService(aiRouter, todoRepo, logger)
	chatService := service.NewChatService(chatStorage, aiService, todoRepo, logger)

	// Handlers
	authHandler := handler.NewAuthHandler(authService)
	projectHandler := handler.NewProjectHandler(projectService)
	todoHandler := handler.NewTodoHandler(todoService)
	aiHandler := handler.NewAIHandler(aiService)
	chatHandler := handler.NewChatHandler(chatService)

	authMiddleware := customMiddleware.NewAuthMiddleware(jwtManager)
	rateLimitMiddleware := customMiddleware.NewRateLimitMiddleware(rateLimiter)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handler.HealthCheck)
		r.Get("/ready", handler.ReadyCheck(db))

		// Auth routes (public)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Use(rateLimitMiddleware.Limit)

			r.Get("/me", authHandler.Me)
			r.Get("/ai-providers", handler.ListProviders(aiService))

			r.Route("/projects", func(r chi.Router) {
				r.Get("/", projectHandler.List)
				r.Post("/", projectHandler.Create)

				r.Route("/{projectID}", func(r chi.Router) {
					r.Get("/", projectHandler.Get)
					r.Patch("/", projectHandler.Update)
					r.Delete("/", projectHandler.Delete)
				})
			})

			r.Route("/todos", func(r chi.Router) {
				r.Get("/", todoHandler.List)
				r.Post("/", todoHandler.Create)

				r.Route("/{todoID}", func(r chi.Router) {
					r.Get("/", todoHandler.Get)
					r.Patch("/", todoHandler.Update)
					r.Delete("/", todoHandler.Delete)
					r.Get("/subtasks", todoHandler.Subtasks)
				})
			})

			r.Route("/ai", func(r chi.Router) {
				r.Post("/subtasks", aiHandler.GenerateSubtasks)
				r.Post("/suggestions", aiHandler.SuggestTodos)
				r.Post("/optimize", aiHandler.OptimizeTask)
				r.Post("/analyze", aiHandler.AnalyzeFile)
			})

			r.Route("/assistant", func(r chi.Router) {
				r.Get("/chat", chatHandler.State)
				r.Post("/chat", chatHandler.Send)
				r.Post("/chat/clear", chatHandler.Clear)

				r.Route("/sessions", func(r chi.Router) {
					r.Post("/", chatHandler.NewSession)
					r.Post("/{sessionID}/activate", chatHandler.SwitchSession)
					r.Delete("/{sessionID}", chatHandler.DeleteSession)
				})
			})
		})
	})

	return r
}
