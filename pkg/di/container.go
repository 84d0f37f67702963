package di

import (
	"context"
	"fmt"
	"time"

	"reactor/backend/internal/api"
	"reactor/backend/internal/ledger"
	"reactor/backend/internal/models"
	"reactor/backend/internal/repository"
	"reactor/backend/internal/service"
	"reactor/backend/pkg/cache"
	"reactor/backend/pkg/config"
	"reactor/backend/pkg/health"
	"reactor/backend/pkg/logger"
	"reactor/backend/pkg/resilience"
	"reactor/backend/pkg/validator"
	sessions "reactor/backend/shared/redis"

	"gorm.io/gorm"
)

// Container holds all the dependencies for the application
type Container struct {
	DB        *gorm.DB
	Store     *repository.GormStore
	Redis     *sessions.RedisClient
	Breaker   *resilience.Breaker
	Logger    *logger.Logger
	ChatCache *cache.Cache[*models.Chat]
	Settings  *service.ChatSettings
	Ledger    *ledger.Ledger
	Markups   *service.MarkupService
	Posts     *service.PostService
	Reactions *service.ReactionService
	Replies   *service.ReplyService
	Sessions  *service.SessionService
	Health    *health.Checker
	Handler   *api.Handler
	Validator *validator.OpenAPIValidator
}

// Config holds the configuration for the container
type Config struct {
	LoggerConfig      logger.Config
	Limits            ledger.Limits
	ChatDefaults      models.ChatDefaults
	BotUsername       string
	SessionTTL        time.Duration
	MediaGroupTTL     time.Duration
	RecentButtonsTTL  time.Duration
	CacheEnabled      bool
	CacheOptions      cache.Options
	HealthCheckPeriod time.Duration
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		LoggerConfig: logger.DefaultConfig(),
		Limits:       ledger.DefaultLimits(),
		ChatDefaults: models.ChatDefaults{
			Buttons:      []string{"👍", "👎"},
			Columns:      4,
			AllowedTypes: []string{"photo", "video", "animation", "link", "forward"},
		},
		SessionTTL:       time.Hour,
		MediaGroupTTL:    time.Minute,
		RecentButtonsTTL: 30 * 24 * time.Hour,
		CacheEnabled:     true,
		CacheOptions: cache.Options{
			TTL:             time.Minute,
			MaxItems:        1000,
			CleanupInterval: 10 * time.Minute,
		},
		HealthCheckPeriod: 30 * time.Second,
	}
}

// ConfigFrom maps the environment configuration onto the container
// configuration. Unknown message kinds in the allowed types are rejected.
func ConfigFrom(cfg *config.Config) (*Config, error) {
	for _, t := range cfg.Reactions.DefaultTypes {
		if _, ok := models.ParseMessageKind(t); !ok {
			return nil, fmt.Errorf("DEFAULT_ALLOWED_TYPES: unknown message kind %q", t)
		}
	}

	c := DefaultConfig()
	c.LoggerConfig.Level = cfg.Logging.Level
	c.LoggerConfig.JSON = cfg.Logging.Format != "text"
	c.Limits = ledger.Limits{
		MaxButtons:  cfg.Reactions.MaxButtons,
		MaxLabelLen: cfg.Reactions.MaxButtonLen,
	}
	c.ChatDefaults = models.ChatDefaults{
		Buttons:      cfg.Reactions.DefaultButtons,
		Columns:      cfg.Reactions.DefaultColumns,
		AllowedTypes: cfg.Reactions.DefaultTypes,
	}
	c.BotUsername = cfg.Reactions.BotUsername
	c.SessionTTL = cfg.Redis.SessionTTL
	c.MediaGroupTTL = cfg.Redis.MediaGroupTTL
	c.RecentButtonsTTL = cfg.Redis.RecentButtonsTTL
	c.CacheEnabled = cfg.Cache.Enabled
	c.CacheOptions = cache.Options{
		TTL:             cfg.Cache.TTL,
		MaxItems:        cfg.Cache.MaxSize,
		CleanupInterval: cfg.Cache.PurgeWindow,
	}
	c.HealthCheckPeriod = cfg.Reactions.HealthCheckTick
	return c, nil
}

// New creates a new dependency injection container
func New(db *gorm.DB, rc *sessions.RedisClient, config *Config) (*Container, error) {
	if config == nil {
		config = DefaultConfig()
	}

	// Initialize the logger
	log := logger.New(config.LoggerConfig)

	v, err := validator.NewOpenAPIValidator(api.OpenAPISchema)
	if err != nil {
		return nil, fmt.Errorf("failed to load api schema: %w", err)
	}

	breaker := resilience.New(resilience.DefaultConfig("redis"), log)
	rc.WithBreaker(breaker)

	store := repository.NewGormStore(db)
	l, err := ledger.New(store, config.Limits)
	if err != nil {
		return nil, fmt.Errorf("failed to create ledger: %w", err)
	}

	var chats *cache.Cache[*models.Chat]
	if config.CacheEnabled {
		chats = cache.New[*models.Chat](config.CacheOptions)
	}

	settings := service.NewChatSettings(store, chats, config.ChatDefaults)
	markups := service.NewMarkupService(l, settings, config.BotUsername)
	classifier := service.NewClassifier(sessions.NewMediaGroups(rc, config.MediaGroupTTL))

	posts := service.NewPostService(l, settings, markups, classifier, log)
	reactions := service.NewReactionService(l, markups, log)
	replies := service.NewReplyService(l, settings, markups, log)
	sessionService := service.NewSessionService(
		l,
		markups,
		sessions.NewSessionStore(rc, config.SessionTTL),
		sessions.NewRecentButtons(rc, config.RecentButtonsTTL, 3),
		log,
	)

	checker := health.NewChecker(log, config.HealthCheckPeriod)
	checker.RegisterDatabaseCheck(store.Ping)
	checker.RegisterRedisCheck(rc.Ping)
	checker.RegisterCheck("redis_breaker", false, func(context.Context) (health.Status, string, error) {
		if snap := breaker.Snapshot(); snap.State != resilience.StateClosed {
			return health.StatusDegraded, fmt.Sprintf("Session calls short-circuited (%d rejected)", snap.Rejected), nil
		}
		return health.StatusUp, "Session calls pass through", nil
	})

	return &Container{
		DB:        db,
		Store:     store,
		Redis:     rc,
		Breaker:   breaker,
		Logger:    log,
		ChatCache: chats,
		Settings:  settings,
		Ledger:    l,
		Markups:   markups,
		Posts:     posts,
		Reactions: reactions,
		Replies:   replies,
		Sessions:  sessionService,
		Health:    checker,
		Handler:   api.NewHandler(posts, reactions, replies, sessionService, markups),
		Validator: v,
	}, nil
}

// Close releases the resources the container owns
func (c *Container) Close(ctx context.Context) error {
	if c.ChatCache != nil {
		c.ChatCache.Stop()
	}
	if err := c.Redis.Close(); err != nil {
		return fmt.Errorf("close redis: %w", err)
	}
	if sqlDB, err := c.DB.WithContext(ctx).DB(); err == nil {
		return sqlDB.Close()
	}
	return nil
}
