package bootstrap

import (
	"context"
	"log"

	"screentosong-be/internal/config"
	"screentosong-be/internal/controller"
	"screentosong-be/internal/handler"
	"screentosong-be/internal/pkg/logger"
	"screentosong-be/internal/repository/memory"
	"screentosong-be/internal/service"
	"screentosong-be/internal/websocket"
	"screentosong-be/pkg/llm"
	"screentosong-be/pkg/llm/factory"
	"screentosong-be/pkg/lyrics"
	"screentosong-be/pkg/media"
	"screentosong-be/pkg/tts/elevenlabs"
	"screentosong-be/pkg/vision"

	pktNats "screentosong-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

// feedTopic is the in-process bus topic all domain events travel on.
const feedTopic = "SCREEN_TO_SONG_FEED"

type Container struct {
	// Controllers
	HealthController   controller.IHealthController
	FrameController    controller.IFrameController
	LyricsController   controller.ILyricsController
	RenderController   controller.IRenderController
	PipelineController controller.IPipelineController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets
	FeedHandler  *handler.FeedHandler
	WebSocketHub *websocket.Hub
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. External Providers
	classifier, err := vision.NewProvider(cfg.Ai.VisionProvider, cfg.Keys.Anthropic, cfg.Keys.OpenAI, cfg.Ai.RequestTimeout)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize vision provider: %v", err)
	}
	log.Printf("[INFO] Using vision provider: %s", cfg.Ai.VisionProvider)

	llmKey := cfg.Keys.Anthropic
	if cfg.Ai.LLMProvider == "openai" {
		llmKey = cfg.Keys.OpenAI
	}
	llmProvider, err := factory.NewProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		llmKey,
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.RequestTimeout,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM provider: %v", err)
	}
	log.Printf("[INFO] Using LLM provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	ttsClient := elevenlabs.NewClient(cfg.Keys.ElevenLabs)
	if cfg.Render.VoiceID != "" {
		ttsClient.VoiceID = cfg.Render.VoiceID
	}
	if cfg.Ai.RequestTimeout > 0 {
		ttsClient.HTTP.Timeout = cfg.Ai.RequestTimeout
	}
	ffmpeg := media.NewFFmpeg(
		media.WithBinary(cfg.Render.FFmpegPath),
		media.WithProbeBinary(cfg.Render.FFprobePath),
	)

	// Initialize In-Memory Session Storage
	sessionRepo := memory.NewSessionRepository(cfg.App.SessionTTL)

	// 3.5 Infrastructure
	// NATS (optional, warn-and-continue)
	var natsPub *pktNats.Publisher
	if cfg.App.NatsURL != "" {
		natsPub, err = pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
			natsPub = nil
		}
	}

	// Redis (optional; the hub runs single-instance without it)
	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{
				Addr: cfg.App.RedisURL,
			}
		}
		rdb = redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/feed.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	publisherService := service.NewPublisherService(feedTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		feedTopic,
		wsHub,
		natsPub,
	)

	// 4. Domain Services
	sceneService := service.NewSceneService(
		sessionRepo,
		classifier,
		cfg.Scene.ChangeThreshold,
		cfg.Scene.ScreenshotDir,
		cfg.Scene.ScreenshotKeep,
		sysLogger,
	)
	lyricsService := service.NewLyricsService(
		sessionRepo,
		lyrics.NewGenerator(llmProvider),
		publisherService,
		sysLogger,
	)
	renderService := service.NewRenderService(
		ttsClient,
		ffmpeg,
		sceneService,
		sessionRepo,
		publisherService,
		cfg.Render.OutputDir,
		cfg.Render.RenderTimeout,
		sysLogger,
	)

	var critic llm.Provider
	if cfg.Ai.CritiqueEnable {
		critic = llmProvider
	}

	feedHandler := handler.NewFeedHandler(wsHub, wsLogger)

	// 5. Controllers
	return &Container{
		HealthController:   controller.NewHealthController(cfg),
		FrameController:    controller.NewFrameController(sceneService),
		LyricsController:   controller.NewLyricsController(lyricsService),
		RenderController:   controller.NewRenderController(renderService),
		PipelineController: controller.NewPipelineController(sceneService, lyricsService, renderService, critic),

		ConsumerService: consumerService,

		FeedHandler:  feedHandler,
		WebSocketHub: wsHub,
	}
}
