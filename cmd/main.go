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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"gorm.io/gorm"

	"lingo_leitner/internal/config"
	"lingo_leitner/internal/handlers"
	"lingo_leitner/internal/middleware"
	"lingo_leitner/internal/reminder"
	"lingo_leitner/internal/repository"
	"lingo_leitner/internal/service"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

func main() {
	// 設定ファイル読み込み用の一時的なロガー
	tempLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(tempLogger)
	log.Println("Log Config Loading...")

	configDir := os.Getenv("APP_CONFIG_DIR")
	if configDir == "" {
		configDir = "./configs"
	}
	if err := config.LoadConfig(configDir); err != nil {
		slog.Error("Error loading configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := newLogger(tempLogger)
	slog.SetDefault(logger)
	slog.Info("Application starting...", slog.String("app", config.Cfg.App.Name))

	// 1. データベース
	db, err := repository.NewDB(config.Cfg.Database, logger)
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
	if err := repository.Migrate(db); err != nil {
		slog.Error("Error migrating database", slog.Any("error", err))
		os.Exit(1)
	}

	// 2. Dependency Injection
	userRepo := repository.NewGormUserRepository()
	cardRepo := repository.NewGormCardRepository()

	quotaStore, closeQuota, err := newQuotaStore(db, userRepo)
	if err != nil {
		slog.Error("Error initializing quota store", slog.Any("error", err))
		os.Exit(1)
	}
	defer closeQuota()

	cardService := service.NewCardService(db, cardRepo, quotaStore, &config.Cfg)
	reviewService := service.NewReviewService(db, cardRepo, &config.Cfg)
	authService := service.NewAuthService(db, userRepo, cardRepo, &config.Cfg)

	authHandler := handlers.NewAuthHandler(authService, logger)
	cardHandler := handlers.NewCardHandler(cardService, logger)
	reviewHandler := handlers.NewReviewHandler(reviewService, logger)

	// 3. Reminder
	if config.Cfg.Reminder.Enabled {
		reminderScheduler := reminder.NewScheduler(db, userRepo, reviewService, reminder.LogNotifier{Logger: logger}, logger)
		if err := reminderScheduler.Start(config.Cfg.Reminder.Cron); err != nil {
			slog.Error("Error starting reminder scheduler", slog.Any("error", err))
			os.Exit(1)
		}
		defer reminderScheduler.Stop()
	}

	// 4. Setup Router
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.LoggingMiddleware(logger))
	r.Use(middleware.MetricsMiddleware)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   config.Cfg.CORS.AllowedOrigins,
		AllowedMethods:   config.Cfg.CORS.AllowedMethods,
		AllowedHeaders:   config.Cfg.CORS.AllowedHeaders,
		ExposedHeaders:   config.Cfg.CORS.ExposedHeaders,
		AllowCredentials: config.Cfg.CORS.AllowCredentials,
		MaxAge:           config.Cfg.CORS.MaxAge,
		Debug:            false,
	})
	r.Use(corsHandler.Handler)

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Route("/api/v1", func(r chi.Router) {
		// --- Public routes ---
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)

		// --- Protected routes ---
		r.Group(func(r chi.Router) {
			if config.Cfg.Auth.Enabled {
				slog.Info("Applying JWT authentication middleware")
				r.Use(middleware.JWTAuthMiddleware(&config.Cfg))
			} else {
				slog.Warn("Authentication is DISABLED, using X-User-ID header (development only)")
				r.Use(middleware.DevUserContextMiddleware)
			}

			r.Get("/me", authHandler.GetMe)
			r.Delete("/me", authHandler.DeleteMe)

			r.Route("/cards", func(r chi.Router) {
				r.Post("/", cardHandler.PostCard)
				r.Get("/", cardHandler.GetCards)
				r.Get("/{card_id}", cardHandler.GetCard)
				r.Delete("/{card_id}", cardHandler.DeleteCard)
			})
			r.Get("/quota", cardHandler.GetQuota)

			r.Route("/reviews", func(r chi.Router) {
				r.Get("/", reviewHandler.GetDueCards)
				r.Post("/{card_id}/result", reviewHandler.PostReviewResult)
			})
			r.Route("/boxes", func(r chi.Router) {
				r.Get("/", reviewHandler.GetBoxes)
				r.Get("/{box}/cards", reviewHandler.GetBoxCards)
			})
			r.Get("/stats", reviewHandler.GetStats)
		})
	})

	r.Get("/health", healthHandler(db))
	r.Handle("/metrics", promhttp.Handler())

	// 5. Start Server
	server := &http.Server{
		Addr:         config.Cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
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

// newLogger は log.level と APP_ENV に従って slog ロガーを作ります。
func newLogger(tempLogger *slog.Logger) *slog.Logger {
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
		handler = tint.NewHandler(os.Stderr, &tint.Options{
			Level:      logLevel,
			TimeFormat: time.RFC3339,
		})
		tempLogger.Info("Using TINT log handler", slog.String("APP_ENV", appEnv))
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		})
		tempLogger.Info("Using JSON log handler", slog.String("APP_ENV", appEnv))
	}
	log.Println("Log Config Loaded...")
	return slog.New(handler)
}

// newQuotaStore は quota.backend に応じてカウンタの保存先を選びます。返す関数で接続を閉じます。
func newQuotaStore(db *gorm.DB, userRepo repository.UserRepository) (repository.QuotaStore, func(), error) {
	switch config.Cfg.Quota.Backend {
	case config.QuotaBackendRedis:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		client, err := repository.NewRedisClient(ctx, config.Cfg.Redis.URL)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("Using Redis quota store")
		return repository.NewRedisQuotaStore(client, db, userRepo), func() {
			if err := client.Close(); err != nil {
				slog.Error("Error closing redis connection", slog.Any("error", err))
			}
		}, nil
	default:
		slog.Info("Using database quota store")
		return repository.NewGormQuotaStore(db), func() {}, nil
	}
}

func healthHandler(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
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
	}
}
