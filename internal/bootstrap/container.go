package bootstrap

import (
	"context"
	"log"
	"time"

	"ai-mangagen-be/internal/config"
	"ai-mangagen-be/internal/controller"
	"ai-mangagen-be/internal/handler"
	"ai-mangagen-be/internal/pkg/logger"
	"ai-mangagen-be/internal/pkg/mailer"
	"ai-mangagen-be/internal/repository/memory"
	"ai-mangagen-be/internal/repository/unitofwork"
	"ai-mangagen-be/internal/service"
	"ai-mangagen-be/internal/websocket"
	"ai-mangagen-be/pkg/embedding"
	"ai-mangagen-be/pkg/llm/factory"
	"ai-mangagen-be/pkg/manga"
	"ai-mangagen-be/pkg/pipeline"

	pktNats "ai-mangagen-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	PipelineController controller.IPipelineController

	// Background Services (Exposed for main.go to run)
	RelayService service.IRelayService

	// WebSockets
	ProgressHandler *handler.ProgressHandler
	WebSocketHub    *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
	)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Pipeline Engine
	executors := manga.Executors(llmProvider)
	pipelineCfg := pipeline.Config{
		PhaseCount:       manga.PhaseCount,
		HITLPhases:       pipeline.PhaseSet(cfg.Pipeline.HITLPhases),
		CriticalPhases:   pipeline.PhaseSet(cfg.Pipeline.CriticalPhases),
		FeedbackTimeout:  time.Duration(cfg.Pipeline.FeedbackTimeout) * time.Second,
		MaxAttempts:      cfg.Pipeline.MaxAttempts,
		QualityThreshold: cfg.Pipeline.QualityMin,
	}
	broker := pipeline.NewBroker()
	snapshotRepo := memory.NewSnapshotRepository()

	// 5. Infrastructure
	// NATS (terminal event export; the engine runs without it)
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/pipeline.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 6. Services
	publisherService := service.NewPublisherService(cfg.Keys.EventsTopic, pubSub)
	referenceService := service.NewReferenceService(uowFactory, embeddingProvider, sysLogger)

	pipelineService := service.NewPipelineService(
		uowFactory,
		executors,
		pipelineCfg,
		broker,
		snapshotRepo,
		referenceService,
		publisherService,
		sysLogger,
	)

	relayService := service.NewRelayService(
		pubSub,
		cfg.Keys.EventsTopic,
		wsHub, // Hub implements EventDelivery
		natsPub,
		emailService,
		uowFactory,
	)

	// 7. Handlers & Controllers
	progressHandler := handler.NewProgressHandler(pipelineService, wsHub, wsLogger)

	return &Container{
		PipelineController: controller.NewPipelineController(pipelineService),
		RelayService:       relayService,
		ProgressHandler:    progressHandler,
		WebSocketHub:       wsHub,
	}
}
