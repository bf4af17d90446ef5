package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/docchat/backend/internal/api/handlers"
	redisCache "github.com/docchat/backend/internal/cache/redis"
	"github.com/docchat/backend/internal/chat"
	"github.com/docchat/backend/internal/extract"
	"github.com/docchat/backend/internal/ingestion"
	"github.com/docchat/backend/internal/llm"
	"github.com/docchat/backend/internal/metrics"
	"github.com/docchat/backend/internal/storage"
	storagememory "github.com/docchat/backend/internal/storage/memory"
	"github.com/docchat/backend/internal/storage/sqlite"
	"github.com/docchat/backend/internal/vector"
	vectormemory "github.com/docchat/backend/internal/vector/memory"
	"github.com/docchat/backend/internal/vector/milvus"
	"github.com/docchat/backend/internal/voice"
	"github.com/docchat/backend/pkg/config"
	"github.com/docchat/backend/pkg/logger"
)

type repositories interface {
	storage.ChatRepository
	storage.FileRepository
	storage.ReportRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	log := logger.GetLogger()
	ctx := context.Background()

	var repos repositories
	var closeStorage func() error
	switch cfg.Storage.Driver {
	case "sqlite":
		client, err := sqlite.NewClient(cfg.SQLite.Path, log)
		if err != nil {
			log.Fatal("Failed to initialize storage", zap.Error(err))
		}
		repos = client
		closeStorage = client.Close
	case "memory":
		repos = storagememory.NewStore()
		log.Warn("Using in-memory storage; data will not survive restarts")
	default:
		log.Fatal("Unknown storage driver", zap.String("driver", cfg.Storage.Driver))
	}
	if closeStorage != nil {
		defer closeStorage()
	}

	var index vector.Store
	switch cfg.Vector.Backend {
	case "milvus":
		client, err := milvus.NewClient(ctx, cfg.Milvus, log)
		if err != nil {
			log.Fatal("Failed to initialize vector index", zap.Error(err))
		}
		defer client.Close()
		index = client
	case "memory":
		index = vectormemory.NewIndex()
		log.Warn("Using in-process vector index; embeddings will not survive restarts")
	default:
		log.Fatal("Unknown vector backend", zap.String("backend", cfg.Vector.Backend))
	}

	var cache vector.EmbeddingCache
	if cfg.Redis.Enabled {
		client, err := redisCache.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			log.Fatal("Failed to initialize embedding cache", zap.Error(err))
		}
		defer client.Close()
		cache = client
	}

	llmClient, err := llm.NewClient(ctx, cfg.Gemini, log)
	if err != nil {
		log.Fatal("Failed to initialize LLM client", zap.Error(err))
	}
	defer llmClient.Close()

	vectorService := vector.NewService(index, llmClient, cache, log)
	extractor := extract.NewExtractor()
	processor := ingestion.NewProcessor(extractor, vectorService, repos,
		cfg.Storage.UploadDir, cfg.Retrieval.ChunkSize, cfg.Retrieval.ChunkOverlap, log)
	chatService := chat.NewService(repos, repos, vectorService, llmClient, cfg.Retrieval.TopK, log)
	voiceService := voice.NewService(log)

	chatHandler := handlers.NewChatHandler(chatService, log)
	fileHandler := handlers.NewFileHandler(processor, log)
	voiceHandler := handlers.NewVoiceHandler(voiceService, log)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(fiberlogger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", metrics.Handler())
	app.Static("/uploads", cfg.Storage.UploadDir)

	api := app.Group("/api")

	chatGroup := api.Group("/chat")
	chatGroup.Post("/message", chatHandler.PostMessage)
	chatGroup.Get("/history", chatHandler.GetHistory)
	chatGroup.Post("/feedback", chatHandler.SubmitFeedback)
	chatGroup.Post("/session/end", chatHandler.EndSession)

	filesGroup := api.Group("/files")
	filesGroup.Post("/upload", fileHandler.Upload)
	filesGroup.Get("/", fileHandler.List)
	filesGroup.Delete("/:id", fileHandler.Delete)

	voiceGroup := api.Group("/voice")
	voiceGroup.Post("/stt", voiceHandler.SpeechToText)
	voiceGroup.Post("/tts", voiceHandler.TextToSpeech)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		log.Info("Server starting", zap.String("addr", addr))
		if err := app.Listen(addr); err != nil {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}
	log.Info("Server stopped")
}
