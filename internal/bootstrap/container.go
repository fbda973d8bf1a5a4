package bootstrap

import (
	"context"
	"log"

	"ai-studyquiz-be/internal/config"
	"ai-studyquiz-be/internal/controller"
	"ai-studyquiz-be/internal/handler"
	"ai-studyquiz-be/internal/pkg/logger"
	"ai-studyquiz-be/internal/repository/unitofwork"
	"ai-studyquiz-be/internal/service"
	internalWS "ai-studyquiz-be/internal/websocket"
	"ai-studyquiz-be/pkg/llm/factory"
	pktNats "ai-studyquiz-be/pkg/nats"
	"ai-studyquiz-be/pkg/study/condenser"
	"ai-studyquiz-be/pkg/study/essay"
	"ai-studyquiz-be/pkg/study/fallback"
	"ai-studyquiz-be/pkg/study/importance"
	"ai-studyquiz-be/pkg/study/quizgen"
	"ai-studyquiz-be/pkg/study/summarizer"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	DocumentController controller.IDocumentController
	QuizController     controller.IQuizController
	EssayController    controller.IEssayController
	AIController       controller.IAIController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets
	ProgressHandler *handler.ProgressHandler
	ProgressHub     *internalWS.Hub

	closers []func()
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	c := &Container{}

	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	usageLogger := logger.NewIsolatedLogger(cfg.App.UsageLogFilePath)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Infrastructure
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	var eventPublisher service.EventPublisher
	if natsPub != nil {
		eventPublisher = natsPub
		c.closers = append(c.closers, natsPub.Close)
	}
	if natsSub != nil {
		c.closers = append(c.closers, natsSub.Close)
	}

	// Quota flag backend
	var quotaState fallback.State
	if cfg.Pipeline.FallbackBackend == "redis" {
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
		quotaState = fallback.NewRedisState(rdb, "", cfg.Pipeline.QuotaResetAfter)
		log.Printf("[INFO] AI quota state backend: REDIS")
	} else {
		quotaState = fallback.NewMemoryState(cfg.Pipeline.QuotaResetAfter)
		log.Printf("[INFO] AI quota state backend: MEMORY")
	}

	// 4. AI pipeline
	llmProvider, err := factory.NewLLMProvider(factory.Settings{
		Provider: cfg.Ai.Provider,
		Model:    cfg.Ai.Model,
		BaseURL:  cfg.Ai.BaseURL,
		APIKey:   cfg.Ai.APIKey,
		Timeout:  cfg.Ai.Timeout,
	})
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.Provider, cfg.Ai.Model)

	guardOpts := []fallback.GuardOption{
		fallback.WithUsageLogger(usageLogger),
		fallback.WithProbeInterval(cfg.Pipeline.QuotaProbeInterval),
	}

	var quotaSync *service.QuotaSync
	if natsPub != nil {
		quotaSync = service.NewQuotaSync(
			pktNats.NewBroadcaster(natsPub.Conn(), pktNats.QuotaSubject),
			quotaState,
			sysLogger,
		)
		stop, err := quotaSync.Start()
		if err != nil {
			log.Printf("[WARN] Failed to listen for quota broadcasts: %v", err)
			quotaSync = nil
		} else {
			c.closers = append(c.closers, stop)
			guardOpts = append(guardOpts, fallback.WithNotifier(quotaSync))
		}
	}

	guard := fallback.NewGuard(llmProvider, quotaState, sysLogger, guardOpts...)
	extractor := importance.NewExtractor(guard, sysLogger, cfg.Pipeline.ExtractionMaxChars)
	docCondenser := condenser.New(guard, extractor, sysLogger, condenser.Config{
		TargetRatio:    cfg.Pipeline.CondenseTargetRatio,
		MinGuidedChars: cfg.Pipeline.GuidedMinChars,
		MaxInputChars:  cfg.Pipeline.ExtractionMaxChars,
	})
	generator := quizgen.NewGenerator(guard, extractor, sysLogger, cfg.Pipeline.MaxChunkSize)
	grader, err := essay.NewGrader(guard, sysLogger, cfg.Pipeline.GradingCacheSize)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize essay grader: %v", err)
	}
	docSummarizer := summarizer.New(guard, sysLogger, cfg.Pipeline.ExtractionMaxChars)

	// 5. Services
	publisherService := service.NewPublisherService(cfg.Pipeline.CondensationTopic, pubSub)
	c.ConsumerService = service.NewConsumerService(
		pubSub,
		publisherService,
		cfg.Pipeline.CondensationTopic,
		uowFactory,
		docCondenser,
		quotaState,
		eventPublisher,
		sysLogger,
		service.ConsumerConfig{MaxAttempts: cfg.Pipeline.CondenseMaxAttempts},
	)

	documentService := service.NewDocumentService(uowFactory, publisherService, docSummarizer, sysLogger, cfg.Pipeline.CondenseMinChars)
	quizService := service.NewQuizService(uowFactory, generator, eventPublisher, sysLogger)
	essayService := service.NewEssayService(uowFactory, grader, eventPublisher, sysLogger)
	aiStatusService := service.NewAIStatusService(quotaState, quotaSync, cfg.Ai.Provider, cfg.Ai.Model, sysLogger)

	// Activity log (Worker)
	if natsSub != nil {
		activityLogger := logger.NewIsolatedLogger("logs/activity.log")
		activityLog := service.NewActivityLogService(natsSub, activityLogger)
		if err := activityLog.Start(); err != nil {
			log.Printf("[WARN] Failed to start activity log: %v", err)
		}
	}

	// Progress push: every instance sees every event and serves its own connections
	hubCtx, stopHub := context.WithCancel(context.Background())
	c.closers = append(c.closers, stopHub)
	c.ProgressHub = internalWS.NewHub(logger.NewIsolatedLogger("logs/progress.log"))
	go c.ProgressHub.Run(hubCtx)
	if natsSub != nil {
		stop, err := natsSub.Fanout(pktNats.Subject(">"), c.ProgressHub.Deliver)
		if err != nil {
			log.Printf("[WARN] Failed to subscribe progress hub: %v", err)
		} else {
			c.closers = append(c.closers, stop)
		}
	}
	c.ProgressHandler = handler.NewProgressHandler(c.ProgressHub)

	// 6. Controllers
	c.DocumentController = controller.NewDocumentController(documentService)
	c.QuizController = controller.NewQuizController(quizService)
	c.EssayController = controller.NewEssayController(essayService)
	c.AIController = controller.NewAIController(aiStatusService)

	return c
}

// Close releases broker connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}
