package bootstrap

import (
	"context"
	"fmt"
	"time"

	"tempnote-be/internal/config"
	"tempnote-be/internal/controller"
	"tempnote-be/internal/handler"
	"tempnote-be/internal/pkg/logger"
	"tempnote-be/internal/pkg/mailer"
	"tempnote-be/internal/realtime"
	"tempnote-be/internal/repository/memory"
	"tempnote-be/internal/repository/unitofwork"
	"tempnote-be/internal/service"
	"tempnote-be/internal/session"
	"tempnote-be/internal/view"
	"tempnote-be/internal/websocket"
	pktNats "tempnote-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const oauthStateTTL = 10 * time.Minute

type Container struct {
	Config *config.Config
	Logger logger.ILogger

	// Controllers
	NoteController    controller.INoteController
	CleanupController controller.ICleanupController
	AuthController    controller.IAuthController
	OAuthController   controller.IOAuthController

	// WebSockets
	ViewHandler  *handler.ViewHandler
	WebSocketHub *websocket.Hub

	// Exposed for main.go and tests
	Tokens      *session.Tokens
	NoteService service.INoteService
	Sweeper     service.ISweeperService
	Feed        *realtime.Feed

	relay   *realtime.RedisRelay
	rdb     *redis.Client
	natsPub *pktNats.Publisher
	natsSub *pktNats.Subscriber
}

type Option func(*options)

type options struct {
	logger         logger.ILogger
	realtimeLogger logger.ILogger
	now            func() time.Time
}

// WithLogger replaces both the system and realtime loggers.
func WithLogger(log logger.ILogger) Option {
	return func(o *options) {
		o.logger = log
		o.realtimeLogger = log
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// NewContainer wires the application. A nil db selects the in-memory store.
func NewContainer(db *gorm.DB, cfg *config.Config, opts ...Option) *Container {
	o := &options{now: time.Now}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	}
	if o.realtimeLogger == nil {
		o.realtimeLogger = logger.NewIsolatedLogger(cfg.App.RealtimeLogFilePath)
	}
	sysLogger := o.logger

	// 1. Store
	var uowFactory unitofwork.RepositoryFactory
	if db != nil {
		uowFactory = unitofwork.NewRepositoryFactory(db)
	} else {
		sysLogger.Warn("Bootstrap", "Using in-memory note store; data is lost on restart", nil)
		uowFactory = unitofwork.NewMemoryRepositoryFactory(memory.NewStore(o.now))
	}

	// 2. Infrastructure
	var natsPub *pktNats.Publisher
	var natsSub *pktNats.Subscriber
	var eventPublisher service.EventPublisher
	if cfg.App.NatsURL != "" {
		var err error
		natsPub, err = pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			sysLogger.Warn("Bootstrap", "Failed to connect to NATS Publisher", map[string]interface{}{"error": err})
		} else {
			eventPublisher = natsPub
		}
		natsSub, err = pktNats.NewSubscriber(cfg.App.NatsURL)
		if err != nil {
			sysLogger.Warn("Bootstrap", "Failed to connect to NATS Subscriber", map[string]interface{}{"error": err})
		}
	}

	feed := realtime.NewFeed(
		realtime.NewPubSub(watermill.NopLogger{}),
		realtime.DefaultTopic,
		uuid.NewString(),
		o.realtimeLogger,
	)

	var rdb *redis.Client
	var relay *realtime.RedisRelay
	if cfg.App.RedisURL != "" {
		rdb = NewRedisClient(cfg.App.RedisURL, sysLogger)
		relay = realtime.NewRedisRelay(rdb, realtime.DefaultRelayChannel, feed, o.realtimeLogger)
		feed.SetRelay(relay)
	}

	var emailService mailer.IEmailService
	if cfg.SMTP.Host != "" {
		emailService = mailer.NewEmailService(
			cfg.SMTP.Host,
			cfg.SMTP.Port,
			cfg.SMTP.Email,
			cfg.SMTP.Password,
			cfg.SMTP.SenderName,
			cfg.App.BaseURL,
		)
	}

	// 3. Services
	tokens := session.NewTokens(cfg.Auth.JwtSecret, cfg.Auth.TokenTTL)
	noteService := service.NewNoteService(uowFactory, feed, eventPublisher, sysLogger,
		service.WithClock(o.now),
		service.WithExpiryWindow(cfg.Notes.ExpiryWindow),
	)
	sweeper := service.NewSweeperService(uowFactory, feed, eventPublisher, sysLogger, o.now)
	authService := service.NewAuthService(uowFactory, tokens, emailService, eventPublisher, sysLogger)
	oauthService := service.NewOAuthService(uowFactory, authService, memory.NewOAuthStateRepository(oauthStateTTL), cfg.OAuth, sysLogger)

	// 4. Views
	wsHub := websocket.NewHub(o.realtimeLogger)
	viewServer := websocket.NewViewServer(wsHub, noteService, tokens, view.Options{
		BaseURL: cfg.App.BaseURL,
		Now:     o.now,
	}, o.realtimeLogger)

	return &Container{
		Config: cfg,
		Logger: sysLogger,

		NoteController:    controller.NewNoteController(noteService, cfg.App.BaseURL, o.now),
		CleanupController: controller.NewCleanupController(sweeper),
		AuthController:    controller.NewAuthController(authService),
		OAuthController:   controller.NewOAuthController(oauthService, cfg.App.BaseURL, sysLogger),

		ViewHandler:  handler.NewViewHandler(viewServer, o.realtimeLogger),
		WebSocketHub: wsHub,

		Tokens:      tokens,
		NoteService: noteService,
		Sweeper:     sweeper,
		Feed:        feed,

		relay:   relay,
		rdb:     rdb,
		natsPub: natsPub,
		natsSub: natsSub,
	}
}

// NewRedisClient accepts a redis:// URL or a bare host:port.
func NewRedisClient(url string, log logger.ILogger) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Warn("Bootstrap", "Failed to parse Redis URL, using it as an address", map[string]interface{}{"error": err})
		opt = &redis.Options{Addr: url}
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("Bootstrap", "Failed to connect to Redis; change relay will retry", map[string]interface{}{"error": err})
	}
	return rdb
}

// Start launches the background workers. They stop when ctx is cancelled.
func (c *Container) Start(ctx context.Context) error {
	go c.WebSocketHub.Run(ctx)

	if err := c.Feed.Start(ctx); err != nil {
		return fmt.Errorf("start change feed: %w", err)
	}
	if c.relay != nil {
		go c.relay.Run(ctx)
	}

	go c.Sweeper.Run(ctx, c.Config.Notes.SweepInterval)

	if c.natsSub != nil {
		if err := c.Sweeper.ListenForTriggers(c.natsSub); err != nil {
			c.Logger.Warn("Bootstrap", "Sweep trigger listener not started", map[string]interface{}{"error": err})
		}
	}
	return nil
}

func (c *Container) Close() {
	if c.natsSub != nil {
		c.natsSub.Close()
	}
	if c.natsPub != nil {
		c.natsPub.Close()
	}
	if c.rdb != nil {
		_ = c.rdb.Close()
	}
	_ = c.Logger.Sync()
}
