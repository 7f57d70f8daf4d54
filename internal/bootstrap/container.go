package bootstrap

import (
	"context"
	"fmt"

	"screening-onboarding-be/internal/config"
	"screening-onboarding-be/internal/controller"
	"screening-onboarding-be/internal/dto"
	"screening-onboarding-be/internal/handler"
	"screening-onboarding-be/internal/pkg/logger"
	"screening-onboarding-be/internal/service"
	"screening-onboarding-be/internal/websocket"
	"screening-onboarding-be/pkg/rag/index"
	"screening-onboarding-be/pkg/workflow/catalog"

	pktNats "screening-onboarding-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ThreadController controller.IThreadController
	CorpusController controller.ICorpusController

	// Background Services (Exposed for main.go to run)
	ConsumerService    service.IConsumerService
	CorpusService      service.ICorpusService
	ThreadEventHandler *handler.ThreadEventHandler
	WebSocketHub       *websocket.Hub

	Logger    logger.ILogger
	Retrieval *Retrieval

	closers []func()
}

// NewContainer wires every component. db may be nil when no component is
// configured to use postgres.
func NewContainer(db *gorm.DB, cfg *config.Config) (*Container, error) {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	c := &Container{Logger: sysLogger}

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 16},
		watermillLogger,
	)
	c.closers = append(c.closers, func() { pubSub.Close() })

	// 3. Infrastructure
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		sysLogger.Warn("BOOTSTRAP", "Failed to connect to NATS Publisher, thread events are dropped", map[string]interface{}{"error": err.Error()})
	} else {
		c.closers = append(c.closers, natsPub.Close)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		sysLogger.Warn("BOOTSTRAP", "Failed to connect to NATS Subscriber", map[string]interface{}{"error": err.Error()})
	} else {
		c.closers = append(c.closers, natsSub.Close)
	}
	// A typed nil publisher must not reach the services as a non-nil interface.
	var eventPublisher service.EventPublisher
	if natsPub != nil {
		eventPublisher = natsPub
	}

	rdb := NewRedisClient(cfg.App.RedisURL, sysLogger)
	if rdb != nil {
		c.closers = append(c.closers, func() { rdb.Close() })
	}

	// 4. AI and Retrieval
	model, err := NewLLM(cfg)
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}
	retrieval, err := NewRetrieval(cfg, db, sysLogger)
	if err != nil {
		return nil, err
	}
	c.Retrieval = retrieval
	c.closers = append(c.closers, func() { retrieval.Index.Close() })

	deps := NewWorkflowDeps(cfg, model, retrieval, sysLogger)
	workflows, err := catalog.New(deps, sysLogger)
	if err != nil {
		return nil, err
	}

	// 5. Services
	threadRepo, err := NewThreadRepository(cfg, db, rdb, sysLogger)
	if err != nil {
		return nil, err
	}
	threadService := service.NewThreadService(workflows, threadRepo, eventPublisher, cfg.Workflow.Locale, sysLogger)

	publisherService := service.NewPublisherService(pubSub, service.CorpusBuildTopic)
	c.CorpusService = service.NewCorpusService(retrieval.Index, retrieval.Search, deps.Files, cfg.Index.DocsDir, publisherService, sysLogger)
	c.ConsumerService = service.NewConsumerService(pubSub, service.CorpusBuildTopic, retrieval.Index, eventPublisher, sysLogger)

	// 6. WebSockets
	wsLogger := logger.NewIsolatedLogger(cfg.App.WsLogFilePath)
	c.WebSocketHub = websocket.NewHub(rdb, wsLogger)
	if natsSub != nil {
		c.ThreadEventHandler = handler.NewThreadEventHandler(natsSub, c.WebSocketHub, wsLogger)
	}

	// 7. Controllers
	c.ThreadController = controller.NewThreadController(threadService, c.WebSocketHub)
	c.CorpusController = controller.NewCorpusController(c.CorpusService)

	return c, nil
}

// Start launches the background workers and, when configured, queues a
// build of the documentation corpus.
func (c *Container) Start(ctx context.Context, cfg *config.Config) error {
	go c.WebSocketHub.Run(ctx)
	if c.ThreadEventHandler != nil {
		c.ThreadEventHandler.Start(ctx)
	}

	if err := c.ConsumerService.Consume(ctx); err != nil {
		return fmt.Errorf("corpus consumer: %w", err)
	}

	if cfg.Index.WarmOnBoot {
		if _, err := c.CorpusService.RequestBuild(ctx, index.Documentation, &dto.RebuildCorpusRequest{}); err != nil {
			c.Logger.Warn("BOOTSTRAP", "Failed to queue documentation build", map[string]interface{}{"error": err.Error()})
		}
	}
	return nil
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.Logger.Sync()
}
