package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"chitchat/config"
	"chitchat/internal/events"
	"chitchat/internal/handler"
	"chitchat/internal/live"
	"chitchat/internal/notifications"
	"chitchat/internal/proxy"
	"chitchat/internal/push"
	chitchatredis "chitchat/internal/redis"
	"chitchat/internal/repository"
	"chitchat/internal/server"
	"chitchat/internal/services"
	"chitchat/internal/websocket"
	"chitchat/pkg/database"
	"chitchat/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()

	l := logger.New(cfg.LogMode)
	logger.SetGlobalLogger(l)
	defer l.Sync()

	if err := cfg.Validate(); err != nil {
		l.Logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gormDB, err := database.Connect(cfg)
	if err != nil {
		l.Logger.Fatal("failed to connect to database", zap.Error(err))
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		l.Logger.Fatal("failed to get sql.DB", zap.Error(err))
	}
	defer sqlDB.Close()

	if err := database.MigrateUp(sqlDB); err != nil {
		l.Logger.Fatal("failed to apply migrations", zap.Error(err))
	}

	bus := events.NewBus(events.Options{
		BufferSize: cfg.Bus.BufferSize,
		Policy:     events.Policy(cfg.Bus.SlowConsumerMode),
		Logger:     l.Named("event_bus"),
	}, events.DefaultTopics()...)
	if err := live.CheckTopics(bus); err != nil {
		l.Logger.Fatal("live channels cannot start", zap.Error(err))
	}

	var publisher events.Publisher = bus
	relay, err := newRelay(ctx, cfg, bus, l)
	if err != nil {
		l.Logger.Fatal("failed to start event relay", zap.Error(err))
	}
	if relay != nil {
		defer relay.Close()
		publisher = relay
		l.Logger.Info("event relay started", zap.String("broker", cfg.Broker.Kind), zap.String("node_id", relay.NodeID()))
	}

	dispatcher := push.NewDispatcher(newPushSender(cfg, l), cfg.Push.Workers, cfg.Push.QueueSize, l.Logger)
	dispatcher.Start(ctx)
	defer func() {
		if err := dispatcher.Stop(); err != nil {
			l.Logger.Warn("push dispatcher stopped with error", zap.Error(err))
		}
	}()

	userRepo := repository.NewUserRepository(gormDB)
	followRepo := repository.NewFollowRepository(gormDB)
	postRepo := repository.NewPostRepository(gormDB)
	chatRepo := repository.NewChatRepository(gormDB)
	access := proxy.NewAccessControl(chatRepo, postRepo)

	authService := services.NewAuthService(cfg.JWTSecret, 0)
	messageService := services.NewMessageService(chatRepo, userRepo, access, publisher, dispatcher, cfg.MessagePageSize, l.Logger)
	postService := services.NewPostService(postRepo, userRepo, publisher, dispatcher, l.Logger)
	followService := services.NewFollowService(followRepo, userRepo, publisher, dispatcher, cfg.FollowerLimit, l.Logger)
	aggregator := notifications.NewAggregator(repository.NewNotificationRepository(sqlDB), cfg.NotificationPageSize, l.Logger).
		WithMaxPage(cfg.NotificationMaxPage)

	hub := websocket.NewHub(bus, websocket.NewChannelAuthorizer(access), l.Logger)
	defer hub.Shutdown()

	srv := server.New(cfg, l)
	srv.SetupRoutes(&server.Handlers{
		Health:        handler.NewHealthHandler(sqlDB),
		Messages:      handler.NewMessageHandler(messageService),
		Posts:         handler.NewPostHandler(postService),
		Users:         handler.NewUserHandler(followService),
		Notifications: handler.NewNotificationHandler(aggregator),
		Live:          websocket.NewHandler(authService, hub),
	}, authService)

	if err := srv.Run(ctx); err != nil {
		l.Logger.Error("server exited", zap.Error(err))
		os.Exit(1)
	}
}

// newRelay connects the configured broker. It returns nil when the node runs
// standalone.
func newRelay(ctx context.Context, cfg *config.Config, bus *events.Bus, l *logger.Logger) (*events.Relay, error) {
	var broker events.Broker
	switch cfg.Broker.Kind {
	case config.BrokerRedis:
		client, err := chitchatredis.NewClient(ctx, chitchatredis.Config{
			Host:     cfg.Broker.RedisHost,
			Port:     cfg.Broker.RedisPort,
			Password: cfg.Broker.RedisPassword,
			DB:       cfg.Broker.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		broker = chitchatredis.NewBroker(client, cfg.Broker.Subject)
	case config.BrokerNATS:
		nb, err := events.NewNATSBroker(cfg.Broker.NATSURL, cfg.Broker.Subject)
		if err != nil {
			return nil, err
		}
		broker = nb
	default:
		return nil, nil
	}

	relay := events.NewRelay(bus, broker, l.Logger)
	if err := relay.Start(ctx); err != nil {
		_ = relay.Close()
		return nil, err
	}
	return relay, nil
}

func newPushSender(cfg *config.Config, l *logger.Logger) push.Sender {
	if cfg.Push.Sender == config.PushSenderKafka {
		l.Logger.Info("push notifications go to kafka",
			zap.Strings("brokers", cfg.Push.KafkaBrokers),
			zap.String("topic", cfg.Push.KafkaTopic),
			zap.Int("workers", cfg.Push.Workers),
		)
		return push.NewKafkaSender(push.KafkaConfig{Brokers: cfg.Push.KafkaBrokers, Topic: cfg.Push.KafkaTopic})
	}
	return push.NewLogSender(l.Logger)
}
