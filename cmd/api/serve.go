package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/d-alshehri/VeriCV-v2/internal/config"
	"github.com/d-alshehri/VeriCV-v2/internal/handlers"
	"github.com/d-alshehri/VeriCV-v2/internal/repositories"
	"github.com/d-alshehri/VeriCV-v2/internal/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API (default command)",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := config.InitDatabase(cfg, log)
	if err != nil {
		return err
	}

	docRepo := repositories.NewDocumentRepository(db)
	assessmentRepo := repositories.NewAssessmentRepository(db)
	log.Info("✅ Repositories initialized successfully")

	store := services.NewTempStore(cfg.Storage.UploadPath, cfg.Storage.MaxFileSize)
	if err := store.EnsureDir(); err != nil {
		return err
	}

	recognizer, err := services.NewRecognizer(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize OCR: %w", err)
	}
	extractor := services.NewExtractorService(store, recognizer, cfg.Storage.TextLimit, log)

	generator, err := services.NewGenerator(ctx, cfg.LLM)
	if err != nil {
		return fmt.Errorf("failed to initialize %s generator: %w", cfg.LLM.Provider, err)
	}
	client := services.NewModelClient(generator, cfg.LLM, log)
	log.Info("✅ Model client initialized", zap.String("provider", cfg.LLM.Provider), zap.String("model", generator.Model()))

	cache := newQuestionCache(ctx, cfg.Cache, log)

	resumeService := services.NewResumeService(docRepo, extractor, store)
	quizService := services.NewQuizService(client, cache, assessmentRepo, cfg, log)
	matchService := services.NewMatchService(client, assessmentRepo, cfg.LLM, log)
	assessmentService := services.NewAssessmentService(assessmentRepo)
	log.Info("✅ Services initialized successfully")

	var verifier handlers.TokenVerifier
	if cfg.Auth.JWTSecret != "" {
		verifier = handlers.NewJWTVerifier(cfg.Auth.JWTSecret)
	} else {
		log.Warn("⚠️ JWT_SECRET is not set, trusting the X-User-ID header")
	}

	app := fiber.New(fiber.Config{
		AppName:      "VeriCV API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.LLM.QuizTimeout*time.Duration(cfg.LLM.MaxAttempts) + cfg.LLM.RetryBackoff*time.Duration(cfg.LLM.MaxAttempts) + 10*time.Second,
		BodyLimit:    int(cfg.Storage.MaxFileSize) + 1<<20,
		ErrorHandler: handlers.ErrorHandler(log),
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-User-ID",
	}))

	handlers.Register(app, handlers.Handlers{
		Quiz:        handlers.NewQuizHandler(quizService, resumeService),
		Match:       handlers.NewMatchHandler(matchService, resumeService),
		Assessments: handlers.NewAssessmentHandler(assessmentService),
		Verifier:    verifier,
	})

	go func() {
		<-ctx.Done()
		log.Info("🛑 Shutting down server...")
		if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
			log.Error("❌ Server forced to shutdown", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Info("🚀 Server starting", zap.String("addr", addr))

	if err := app.Listen(addr); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// newQuestionCache uses redis when configured and reachable, and a no-op cache otherwise.
func newQuestionCache(ctx context.Context, cfg config.CacheConfig, log *zap.Logger) services.QuestionCache {
	if cfg.RedisAddr == "" {
		return services.NewNoopQuestionCache()
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Warn("⚠️ Redis unreachable, question cache disabled", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		_ = rdb.Close()
		return services.NewNoopQuestionCache()
	}

	log.Info("✅ Question cache connected", zap.String("addr", cfg.RedisAddr), zap.Duration("ttl", cfg.TTL))
	return services.NewRedisQuestionCache(rdb, cfg.TTL, log)
}
