// cmd/main.go
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lmittmann/tint"
	"github.com/rs/cors"

	"go_5_roadmap_keep/internal/config"
	"go_5_roadmap_keep/internal/handlers"
	"go_5_roadmap_keep/internal/llm"
	"go_5_roadmap_keep/internal/middleware"
	"go_5_roadmap_keep/internal/model"
	"go_5_roadmap_keep/internal/repository"
	"go_5_roadmap_keep/internal/service"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

func main() {
	// 設定ファイル読み込み用の一時的なロガー設定
	tempLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(tempLogger)
	log.Println("Log Config Loading...")

	// Configを読み込み
	if err := config.LoadConfig("../configs"); err != nil {
		slog.Error("Error loading configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// === 設定に基づいて slog ロガーを初期化 ===
	logLevel := new(slog.LevelVar)
	switch strings.ToLower(config.Cfg.Log.Level) {
	case "debug":
		logLevel.Set(slog.LevelDebug)
	case "info":
		logLevel.Set(slog.LevelInfo)
	case "warn", "warning":
		logLevel.Set(slog.LevelWarn)
	case "error":
		logLevel.Set(slog.LevelError)
	default:
		logLevel.Set(slog.LevelInfo)
		slog.Warn("Unknown log level specified in config, defaulting to INFO", slog.String("level", config.Cfg.Log.Level))
	}

	var handler slog.Handler
	appEnv := os.Getenv("APP_ENV")
	if strings.ToLower(appEnv) == "dev" {
		// 開発時は色付きのtintハンドラを使う
		tintOpts := &tint.Options{
			Level:      logLevel,
			TimeFormat: time.RFC3339,
		}
		handler = tint.NewHandler(os.Stderr, tintOpts)
		tempLogger.Info("Using TINT log handler", slog.String("APP_ENV", appEnv))
	} else {
		jsonOpts := &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}
		handler = slog.NewJSONHandler(os.Stderr, jsonOpts)
		tempLogger.Info("Using JSON log handler", slog.String("APP_ENV", appEnv))
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	slog.Info("Application starting...")

	// 2. Initialize Database Connection (GORM)
	db, err := repository.NewDB(config.Cfg.Database.URL, logger)
	if err != nil {
		slog.Error("Error initializing database", slog.Any("error", err))
		os.Exit(1)
	}
	sqlDB, err := db.DB()
	if err != nil {
		slog.Error("Error getting underlying sql.DB from GORM", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			slog.Error("Error closing database connection", slog.Any("error", err))
		} else {
			slog.Info("Database connection closed.")
		}
	}()

	if err := db.AutoMigrate(
		&model.User{},
		&model.Identity{},
		&model.UserVerificationToken{},
		&model.PasswordResetToken{},
		&model.Project{},
		&model.Roadmap{},
		&model.QuizResult{},
		&model.ChatMessage{},
	); err != nil {
		slog.Error("Error migrating database schema", slog.Any("error", err))
		os.Exit(1)
	}

	// 3. Dependency Injection
	userRepo := repository.NewGormUserRepository()
	identityRepo := repository.NewGormIdentityRepository()
	tokenRepo := repository.NewGormTokenRepository()
	projectRepo := repository.NewGormProjectRepository()
	roadmapRepo := repository.NewGormRoadmapRepository()
	quizRepo := repository.NewGormQuizResultRepository()
	chatRepo := repository.NewGormChatRepository()

	mailer := service.NewMailer(&config.Cfg)

	var llmOpts []llm.OpenAIOption
	if config.Cfg.LLM.BaseURL != "" {
		llmOpts = append(llmOpts, llm.WithBaseURL(config.Cfg.LLM.BaseURL))
	}
	llmProvider := llm.NewOpenAIProvider(config.Cfg.LLM.APIKey, llmOpts...)
	llmClient := llm.NewClient(llmProvider, config.Cfg.LLM.Model)

	authService := service.NewAuthService(db, userRepo, identityRepo, tokenRepo, mailer, &config.Cfg)
	userService := service.NewUserService(db, userRepo)
	projectService := service.NewProjectService(db, projectRepo)
	roadmapService := service.NewRoadmapService(db, roadmapRepo, projectRepo, quizRepo, chatRepo, llmClient, &config.Cfg)
	quizService := service.NewQuizService(db, roadmapRepo, quizRepo, userRepo, llmClient, &config.Cfg)
	chatService := service.NewChatService(db, chatRepo, roadmapRepo, llmClient, &config.Cfg)
	editorService := service.NewEditorService(db, roadmapRepo)

	authHandler := handlers.NewAuthHandler(authService, logger)
	userHandler := handlers.NewUserHandler(userService, logger)
	projectHandler := handlers.NewProjectHandler(projectService, logger)
	roadmapHandler := handlers.NewRoadmapHandler(roadmapService, logger)
	quizHandler := handlers.NewQuizHandler(quizService, logger)
	chatHandler := handlers.NewChatHandler(chatService, logger)
	editorHandler := handlers.NewEditorHandler(editorService, logger)

	// 4. Setup Router
	r := chi.NewRouter()

	// Middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.LoggingMiddleware(logger))

	// CORS 設定と適用 (設定ファイルから読み込んだ値を使用)
	corsOptions := cors.Options{
		AllowedOrigins:   config.Cfg.CORS.AllowedOrigins,
		AllowedMethods:   config.Cfg.CORS.AllowedMethods,
		AllowedHeaders:   config.Cfg.CORS.AllowedHeaders,
		ExposedHeaders:   config.Cfg.CORS.ExposedHeaders,
		AllowCredentials: config.Cfg.CORS.AllowCredentials,
		MaxAge:           config.Cfg.CORS.MaxAge,
		Debug:            false,
	}
	corsHandler := cors.New(corsOptions)
	r.Use(corsHandler.Handler)

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// API Routes
	r.Route("/api/v1", func(r chi.Router) {
		// --- Public routes ---
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.PostRegister)
			r.Get("/verify", authHandler.GetVerify)
			r.Post("/login", authHandler.PostLogin)
			r.Post("/password/forgot", authHandler.PostForgotPassword)
			r.Post("/password/reset", authHandler.PostResetPassword)
		})

		// --- Protected routes ---
		r.Group(func(r chi.Router) {
			if strings.ToLower(appEnv) == "dev" && os.Getenv("DEV_SKIP_AUTH") == "true" {
				slog.Warn("Applying DEV auth middleware: X-User-ID header is trusted as-is")
				r.Use(middleware.DevUserContextMiddleware)
			} else {
				slog.Info("Applying JWT authentication middleware")
				r.Use(middleware.JWTAuthMiddleware(&config.Cfg))
			}

			// User routes
			r.Route("/users/me", func(r chi.Router) {
				r.Get("/", userHandler.GetMe)
				r.Post("/activity", userHandler.PostActivity)
			})

			// Project routes
			r.Route("/projects", func(r chi.Router) {
				r.Post("/", projectHandler.PostProject)
				r.Get("/", projectHandler.GetProjects)
				r.Route("/{project_id}", func(r chi.Router) {
					r.Get("/", projectHandler.GetProject)
					r.Put("/", projectHandler.PutProject)
					r.Delete("/", projectHandler.DeleteProject)

					r.Post("/roadmaps/generate", roadmapHandler.PostGenerate)
					r.Get("/roadmaps", roadmapHandler.GetRoadmaps)
				})
			})

			// Roadmap routes
			r.Route("/roadmaps/{roadmap_id}", func(r chi.Router) {
				r.Get("/", roadmapHandler.GetRoadmap)
				r.Put("/", roadmapHandler.PutRoadmap)
				r.Delete("/", roadmapHandler.DeleteRoadmap)
				r.Get("/progress", roadmapHandler.GetProgress)

				// Quiz routes
				r.Route("/nodes/{node_id}/quiz", func(r chi.Router) {
					r.Post("/", quizHandler.PostGenerateQuiz)
					r.Put("/result", quizHandler.PutQuizResult)
					r.Get("/result", quizHandler.GetQuizResult)
				})

				// Mentor chat routes
				r.Route("/messages", func(r chi.Router) {
					r.Post("/", chatHandler.PostMessage)
					r.Get("/", chatHandler.GetMessages)
				})

				// Editor session routes
				r.Route("/editor", func(r chi.Router) {
					r.Post("/open", editorHandler.PostOpen)
					r.Post("/action", editorHandler.PostAction)
					r.Post("/commit", editorHandler.PostCommit)
					r.Delete("/", editorHandler.DeleteSession)
				})
			})
		})
	})

	// Health Check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sqlDB, err := db.DB()
		if err != nil {
			slog.ErrorContext(ctx, "Health check failed: could not get DB object", slog.Any("error", err))
			http.Error(w, "Health check failed", http.StatusInternalServerError)
			return
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			slog.ErrorContext(ctx, "Health check failed: could not ping DB", slog.Any("error", err))
			http.Error(w, "Health check failed", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// 5. Start Server
	server := &http.Server{
		Addr:         config.Cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second, // LLM生成APIは応答に時間がかかる
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("Server listening", slog.String("port", config.Cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Could not listen on port", slog.String("port", config.Cfg.Server.Port), slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", slog.Any("error", err))
	}

	log.Println("Server exiting")
}
