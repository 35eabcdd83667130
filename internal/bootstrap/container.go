package bootstrap

import (
	"context"
	"log"

	"github.com/hari-334/interest-buddies/internal/config"
	"github.com/hari-334/interest-buddies/internal/controller"
	"github.com/hari-334/interest-buddies/internal/handler"
	"github.com/hari-334/interest-buddies/internal/pkg/logger"
	"github.com/hari-334/interest-buddies/internal/repository/unitofwork"
	"github.com/hari-334/interest-buddies/internal/service"
	"github.com/hari-334/interest-buddies/internal/websocket"

	pkgNats "github.com/hari-334/interest-buddies/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController  controller.IAuthController
	GroupController controller.IGroupController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets & Chat
	ChatHandler  *handler.ChatHandler
	WebSocketHub *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 2.5 Infrastructure
	// NATS
	natsPub, err := pkgNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pkgNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
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
		rdb = nil
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/chat.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 3. Services
	publisherService := service.NewPublisherService(cfg.Chat.EventsTopic, pubSub)
	consumerService := service.NewConsumerService(pubSub, cfg.Chat.EventsTopic, natsPub)

	authService := service.NewAuthService(uowFactory)
	groupService := service.NewGroupService(uowFactory)
	membershipService := service.NewMembershipService(uowFactory, publisherService)

	chatGateway := service.NewChatGateway(uowFactory, membershipService, wsHub, publisherService, wsLogger)

	// Audit worker tails the durable stream
	if natsSub != nil {
		auditService := service.NewAuditService(natsSub, sysLogger)
		if err := auditService.Start(); err != nil {
			log.Printf("[WARN] Failed to start audit consumer: %v", err)
		}
	}

	chatHandler := handler.NewChatHandler(wsHub, chatGateway, wsLogger)

	// 4. Controllers
	return &Container{
		AuthController:  controller.NewAuthController(authService),
		GroupController: controller.NewGroupController(groupService, membershipService, cfg.Chat),

		ConsumerService: consumerService,

		ChatHandler:  chatHandler,
		WebSocketHub: wsHub,
	}
}
