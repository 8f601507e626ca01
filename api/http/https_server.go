package http

import (
	"errors"
	"strings"
	"time"

	"MediaHub/internal/config"
	"MediaHub/internal/initial"
	jwtMiddleware "MediaHub/internal/middleware/jwt"
	"MediaHub/internal/middleware/requestid"
	chatService "MediaHub/internal/modules/chat/application/service"
	chatRepository "MediaHub/internal/modules/chat/domain/repository"
	"MediaHub/internal/modules/chat/infrastructure/hotstore"
	chatPersistence "MediaHub/internal/modules/chat/infrastructure/persistence"
	chatHandler "MediaHub/internal/modules/chat/interface/http"
	deviceService "MediaHub/internal/modules/device/application/service"
	devicePersistence "MediaHub/internal/modules/device/infrastructure/persistence"
	deviceHandler "MediaHub/internal/modules/device/interface/http"
	notificationService "MediaHub/internal/modules/notification/application/service"
	"MediaHub/internal/modules/notification/infrastructure/mq"
	"MediaHub/internal/modules/notification/infrastructure/mq/kafka"
	notificationPersistence "MediaHub/internal/modules/notification/infrastructure/persistence"
	notificationHandler "MediaHub/internal/modules/notification/interface/http"
	presenceService "MediaHub/internal/modules/presence/application/service"
	presenceRepository "MediaHub/internal/modules/presence/domain/repository"
	"MediaHub/internal/modules/presence/infrastructure/cache"
	presencePersistence "MediaHub/internal/modules/presence/infrastructure/persistence"
	presenceHandler "MediaHub/internal/modules/presence/interface/http"
	pushService "MediaHub/internal/modules/push/application/service"
	pushDomain "MediaHub/internal/modules/push/domain"
	"MediaHub/internal/modules/push/infrastructure/fcm"
	"MediaHub/pkg/ssl"
	"MediaHub/pkg/ws"
	"MediaHub/pkg/zlog"

	cors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Server 组合根：持有路由以及需要在退出时收尾的组件
type Server struct {
	Engine *gin.Engine
	Hub    *ws.Hub

	// Dispatcher 同步派发，kafka 消费者也使用它
	Dispatcher notificationService.Notifier
	Archiver   chatService.ChatArchiver
	Recorder   *notificationService.PushLogRecorder

	publisher mq.Publisher
}

// Deps 构建 Server 需要的外部依赖
type Deps struct {
	DB          *gorm.DB
	Redis       *goredis.Client
	HotStore    chatRepository.HotChatStore
	Multicaster pushDomain.Multicaster
	// Publisher 非空时聊天消息的通知经 kafka 异步派发
	Publisher mq.Publisher
}

// NewServer 使用 Infra 中的连接组装服务，配置了 kafka broker 时创建发布者
func NewServer(conf *config.Config, infra *initial.Infra) (*Server, error) {
	if infra == nil || infra.DB == nil || infra.Mongo == nil {
		return nil, errors.New("infra not ready")
	}
	deps := Deps{
		DB:          infra.DB,
		Redis:       infra.Redis,
		HotStore:    hotstore.NewMongoChatStore(infra.Mongo, conf.MongoConfig.ThreadCollection, conf.MongoConfig.MessageCollection),
		Multicaster: infra.Multicaster,
	}
	if len(conf.KafkaConfig.Brokers) > 0 {
		pub, err := kafka.NewPublisher(kafka.PublisherConfig{Brokers: conf.KafkaConfig.Brokers, ClientID: conf.KafkaConfig.ClientID})
		if err != nil {
			return nil, err
		}
		deps.Publisher = pub
	}
	return Build(conf, deps), nil
}

func Build(conf *config.Config, deps Deps) *Server {
	gin.SetMode(ginMode(conf))
	ge := gin.New()
	ge.Use(gin.Logger(), gin.Recovery(), requestid.RequestID())
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Internal-Key", requestid.Header}
	ge.Use(cors.New(corsConfig))
	ge.Use(ssl.TlsHandler(ssl.Options{
		Host:          conf.MainConfig.Host,
		Port:          conf.MainConfig.Port,
		RedirectHTTPS: conf.MainConfig.EnableTLS,
		IsDevelopment: !conf.MainConfig.EnableTLS,
	}))

	wsHub := ws.NewHub()

	// 设备
	deviceUow := devicePersistence.NewDeviceUnitOfWork(deps.DB)
	bindingRepo := devicePersistence.NewUserDeviceRepository(deps.DB)
	registry := deviceService.NewDeviceRegistry(deviceUow, bindingRepo, conf.DeviceConfig.MaxDevicesPerUser)

	// 在线状态
	var presenceCache presenceRepository.PresenceCache
	if deps.Redis != nil {
		presenceCache = cache.NewRedisPresenceCache(deps.Redis)
	}
	presence := presenceService.NewPresenceTracker(
		presencePersistence.NewPresenceRepository(deps.DB),
		presenceCache,
		time.Duration(conf.NotificationConfig.PresenceStaleSeconds)*time.Second,
	)

	// 推送
	mc := deps.Multicaster
	if mc == nil {
		mc = fcm.NewDisabledMulticaster()
	}
	gateway := pushService.NewPushGateway(mc, pushService.GatewayConfig{
		BatchSize:      conf.PushConfig.BatchSize,
		MaxConcurrency: conf.PushConfig.MaxConcurrency,
		MaxErrors:      conf.PushConfig.MaxErrors,
		RatePerSecond:  conf.PushConfig.RatePerSecond,
	})

	// 通知
	notifRepo := notificationPersistence.NewUserNotificationRepository(deps.DB)
	recorder := notificationService.NewPushLogRecorder(notificationPersistence.NewPushLogRepository(deps.DB))
	artists := chatPersistence.NewArtistDirectory(deps.DB)
	dispatcher := notificationService.NewNotificationDispatcher(
		notifRepo,
		chatService.NewRecipientResolver(artists),
		presence,
		registry,
		gateway,
		recorder,
		notificationService.RecordPolicy{
			PushOnlyKinds: conf.NotificationConfig.PushOnlyKinds,
			CoalesceKinds: conf.NotificationConfig.CoalesceKinds,
		},
		wsHub,
	)
	history := notificationService.NewNotificationHistory(notifRepo)
	broadcast := notificationService.NewBroadcastService(registry, gateway, recorder)

	chatNotifier := dispatcher
	topic := strings.TrimSpace(conf.KafkaConfig.NotifyTopic)
	if deps.Publisher != nil && topic != "" {
		chatNotifier = notificationService.NewQueuedNotifier(deps.Publisher, topic)
		zlog.Info("chat notifications go through kafka", zap.String("topic", topic))
	}

	// 聊天
	archive := chatPersistence.NewChatArchiveRepository(deps.DB)
	chatSvc := chatService.NewChatService(deps.HotStore, archive, artists, chatNotifier)
	archiver := chatService.NewChatArchiver(deps.HotStore, archive, conf.ArchiveConfig.PageSize)
	realtimeSvc := chatService.NewRealtimeService(presence, chatSvc, wsHub)

	deviceH := deviceHandler.NewDeviceHandler(registry)
	presenceH := presenceHandler.NewPresenceHandler(presence)
	notificationH := notificationHandler.NewNotificationHandler(history, dispatcher, broadcast)
	chatH := chatHandler.NewChatHandler(chatSvc, archiver, conf.ArchiveConfig.MaxAgeHours)
	wsH := chatHandler.NewWsHandler(wsHub, realtimeSvc)

	ge.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "online": wsHub.OnlineCount()})
	})
	ge.GET("/wss", wsH.Connect)

	authed := ge.Group("/")
	authed.Use(jwtMiddleware.Auth())
	authed.GET("/auth/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"user_id":  c.GetInt64(jwtMiddleware.ContextUserID),
			"username": c.GetString("username"),
		})
	})
	authed.POST("/device/register", deviceH.Register)
	authed.POST("/device/deregister", deviceH.Deregister)
	authed.POST("/device/list", deviceH.ListDevices)
	authed.POST("/presence/update", presenceH.Update)
	authed.POST("/notification/list", notificationH.List)
	authed.POST("/notification/unreadCount", notificationH.UnreadCount)
	authed.POST("/notification/read", notificationH.MarkRead)
	authed.POST("/notification/readAll", notificationH.MarkAllRead)
	authed.POST("/chat/send", chatH.SendMessage)
	authed.POST("/chat/archived", chatH.ListArchived)
	authed.POST("/chat/read", chatH.ReadThread)

	internal := ge.Group("/internal")
	internal.Use(jwtMiddleware.InternalAuth(conf.MainConfig.InternalKey))
	internal.POST("/device/tokens", deviceH.GetTokens)
	internal.POST("/notification/notify", notificationH.Notify)
	internal.POST("/notification/send", notificationH.SendBatch)
	internal.POST("/chat/archive", chatH.Archive)

	return &Server{
		Engine:     ge,
		Hub:        wsHub,
		Dispatcher: dispatcher,
		Archiver:   archiver,
		Recorder:   recorder,
		publisher:  deps.Publisher,
	}
}

// Close 先断开 ws 连接和 kafka 发布者，不再产生新的推送，再等待推送日志写完
func (s *Server) Close() {
	if s.Hub != nil {
		s.Hub.CloseAll()
	}
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			zlog.Warn("close kafka publisher failed", zap.Error(err))
		}
	}
	if s.Recorder != nil {
		s.Recorder.Close()
	}
}

func ginMode(conf *config.Config) string {
	if strings.EqualFold(conf.LogConfig.Level, "debug") {
		return gin.DebugMode
	}
	return gin.ReleaseMode
}
