package bootstrap

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"policylens-be/internal/config"
	"policylens-be/internal/controller"
	"policylens-be/internal/handler"
	"policylens-be/internal/pkg/logger"
	"policylens-be/internal/repository/unitofwork"
	"policylens-be/internal/service"
	"policylens-be/internal/websocket"
	"policylens-be/pkg/llm/factory"
	pktNats "policylens-be/pkg/nats"
	"policylens-be/pkg/policy/classifier"
	"policylens-be/pkg/policy/composer"
	"policylens-be/pkg/policy/course"
	policyEvents "policylens-be/pkg/policy/events"
	"policylens-be/pkg/policy/facts"
	"policylens-be/pkg/policy/fallback"
	"policylens-be/pkg/watch"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	SystemController controller.ISystemController
	QueryController  controller.IQueryController
	CourseController controller.ICourseController
	AdminController  controller.IAdminController

	// WebSockets
	QueryStreamHandler *handler.QueryStreamHandler
	WebSocketHub       *websocket.Hub

	// Background Services (Exposed for main.go to run)
	ConsumerService     service.IConsumerService
	CourseService       service.ICourseService
	ReloadSignalService *service.ReloadSignalService
	Watcher             *watch.DocumentWatcher
	NatsSubscriber      *pktNats.Subscriber

	Logger logger.ILogger

	closers []func()
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	uowFactory := unitofwork.NewRepositoryFactory(db)

	registry, err := course.Discover(cfg.Policy.DataDir, cfg.Policy.CatalogFile, cfg.Policy.DefaultCourse)
	if err != nil {
		log.Fatalf("[FATAL] Failed to discover courses in %s: %v", cfg.Policy.DataDir, err)
	}
	if len(registry.List()) == 0 {
		log.Printf("[WARN] No courses found in %s", cfg.Policy.DataDir)
	}
	log.Printf("[INFO] Courses: %d (default: %s)", len(registry.List()), registry.Default())

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Pipeline
	loader := course.FileLoader{}
	factsStore := facts.NewStore(loader, sysLogger)
	searcher := fallback.NewSearcher(loader, sysLogger)

	llmBaseURL, llmAPIKey := cfg.Ai.OllamaBaseURL, ""
	if cfg.Ai.LLMProvider == "huggingface" || cfg.Ai.LLMProvider == "openai" {
		llmBaseURL, llmAPIKey = cfg.Ai.HuggingFaceBaseURL, cfg.Ai.HuggingFaceAPIKey
	}
	llmProvider, err := factory.NewLLMProvider(cfg.Ai.LLMProvider, cfg.Ai.LLMModel, llmBaseURL, llmAPIKey)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	router := classifier.New(llmProvider, classifier.Config{
		Model:       cfg.Ai.LLMModel,
		Temperature: cfg.Ai.Temperature,
		Timeout:     cfg.Ai.ClassifierTimeout,
	}, sysLogger)
	queryComposer := composer.New(registry, router, factsStore, searcher, sysLogger)

	// 4. Infrastructure
	var closers []func()

	// NATS
	var natsPub *pktNats.Publisher
	var natsSub *pktNats.Subscriber
	if cfg.App.NatsURL != "" {
		if natsPub, err = pktNats.NewPublisher(cfg.App.NatsURL); err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
			natsPub = nil
		} else {
			closers = append(closers, natsPub.Close)
		}
		if natsSub, err = pktNats.NewSubscriber(cfg.App.NatsURL); err != nil {
			log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
			natsSub = nil
		} else {
			closers = append(closers, natsSub.Close)
		}
	}
	var eventBus policyEvents.BusPublisher
	if natsPub != nil {
		eventBus = natsPub
	}
	eventPublisher := policyEvents.NewNatsPublisher(eventBus, sysLogger)

	// Redis
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
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if _, err := rdb.Ping(pingCtx).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v. Reloads stay local", err)
			rdb.Close()
			rdb = nil
		} else {
			closers = append(closers, func() { rdb.Close() })
		}
		cancel()
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger(filepath.Join(filepath.Dir(cfg.App.LogFilePath), "sessions.log"))
	wsHub := websocket.NewHub(rdb, wsLogger)

	// 5. Services
	calLocation, err := time.LoadLocation(cfg.Policy.CalendarTimezone)
	if err != nil {
		log.Printf("[WARN] Unknown calendar timezone %q, using UTC", cfg.Policy.CalendarTimezone)
		calLocation = time.UTC
	}
	courseService := service.NewCourseService(registry, factsStore, searcher, service.CalendarOptions{
		Year:     cfg.Policy.CalendarYear,
		Location: calLocation,
	}, sysLogger)
	queryService := service.NewQueryService(queryComposer, eventPublisher, uowFactory, sysLogger)
	adminService := service.NewAdminService(courseService, wsHub, sysLogger, sysLogger)

	publisherService := service.NewPublisherService(service.DocumentChangedTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		service.DocumentChangedTopic,
		courseService,
		wsHub,
		sysLogger,
	)
	reloadSignals := service.NewReloadSignalService(publisherService, sysLogger)
	wsHub.OnReload(reloadSignals.HandleClusterReload)

	var watcher *watch.DocumentWatcher
	if cfg.Policy.WatchDocuments {
		watcher, err = watch.NewDocumentWatcher(cfg.Policy.DataDir, cfg.Policy.WatchDebounce, reloadSignals.HandleFileChange, sysLogger)
		if err != nil {
			log.Printf("[WARN] Document watcher unavailable: %v", err)
			watcher = nil
		}
	}

	// 6. Controllers
	checks := map[string]controller.HealthCheck{
		"nats":     func() bool { return natsPub != nil },
		"redis":    func() bool { return rdb != nil },
		"database": func() bool { return db != nil },
	}

	return &Container{
		SystemController: controller.NewSystemController(cfg.Ai.LLMProvider, cfg.Ai.LLMModel, cfg.Ai.Temperature, checks),
		QueryController:  controller.NewQueryController(queryService),
		CourseController: controller.NewCourseController(courseService),
		AdminController:  controller.NewAdminController(adminService, courseService, queryService, wsHub, cfg.App.JWTSecret),

		QueryStreamHandler: handler.NewQueryStreamHandler(queryService, wsHub, wsLogger),
		WebSocketHub:       wsHub,

		ConsumerService:     consumerService,
		CourseService:       courseService,
		ReloadSignalService: reloadSignals,
		Watcher:             watcher,
		NatsSubscriber:      natsSub,

		Logger:  sysLogger,
		closers: closers,
	}
}

// Close releases bus and cache connections.
func (c *Container) Close() {
	if c.Watcher != nil {
		c.Watcher.Stop()
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}
