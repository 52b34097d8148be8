package container

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gdugdh24/guildmatch/internal/config"
	"github.com/gdugdh24/guildmatch/internal/delivery/discord"
	deliveryhttp "github.com/gdugdh24/guildmatch/internal/delivery/http"
	"github.com/gdugdh24/guildmatch/internal/delivery/http/handler"
	"github.com/gdugdh24/guildmatch/internal/delivery/http/middleware"
	"github.com/gdugdh24/guildmatch/internal/events"
	"github.com/gdugdh24/guildmatch/internal/infrastructure/database"
	"github.com/gdugdh24/guildmatch/internal/infrastructure/server"
	"github.com/gdugdh24/guildmatch/internal/repository"
	"github.com/gdugdh24/guildmatch/internal/repository/memory"
	"github.com/gdugdh24/guildmatch/internal/repository/postgres"
	"github.com/gdugdh24/guildmatch/internal/repository/sqlite"
	"github.com/gdugdh24/guildmatch/internal/usecase/auth"
	"github.com/gdugdh24/guildmatch/internal/usecase/feed"
	"github.com/gdugdh24/guildmatch/internal/usecase/profile"
	"github.com/gdugdh24/guildmatch/internal/usecase/swipe"
	"github.com/gdugdh24/guildmatch/internal/usecase/txn"
	"github.com/redis/go-redis/v9"
)

// Container holds all application dependencies
type Container struct {
	Config    *config.Config
	Logger    *slog.Logger
	Store     repository.Store
	Redis     *redis.Client
	Bus       *events.Bus
	Publisher events.Publisher
	Runner    *txn.Runner
	Profiles  *profile.ProfileUseCase
	Feed      *feed.FeedUseCase
	Swipes    *swipe.SwipeUseCase
}

// NewContainer opens the store and builds the use cases shared by every binary.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	policies, err := cfg.Policies()
	if err != nil {
		return nil, fmt.Errorf("failed to load guild policies: %w", err)
	}

	store, err := newStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	logger.Info("store ready", "driver", cfg.Store.Driver)

	c := &Container{
		Config: cfg,
		Logger: logger,
		Store:  store,
		Bus:    events.NewBus(logger),
	}

	// Initialize Redis
	c.Publisher = c.Bus
	if cfg.Redis.Enabled {
		redisClient, err := database.NewRedisClient(ctx, &cfg.Redis, cfg.Store.QueryTimeout)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to initialize redis: %w", err)
		}
		c.Redis = redisClient
		c.Publisher = events.NewRedisPublisher(redisClient, cfg.Redis.EventsChannel)
	}

	c.Runner = txn.NewRunner(store, logger,
		txn.WithTimeout(cfg.Store.QueryTimeout),
		txn.WithBackoff(cfg.Store.RetryBackoff),
	)

	// Initialize use cases
	c.Profiles = profile.NewProfileUseCase(c.Runner, policies, c.Publisher, logger)
	c.Feed = feed.NewFeedUseCase(c.Runner, cfg.Matching.CandidatePageSize, logger)
	c.Swipes = swipe.NewSwipeUseCase(c.Runner, c.Publisher, logger)

	return c, nil
}

func newStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		db, err := database.NewPostgresDB(ctx, &cfg.Database, cfg.Store.QueryTimeout)
		if err != nil {
			return nil, err
		}
		store := postgres.NewStore(db)
		if cfg.Store.AutoMigrate {
			if err := store.Migrate(ctx); err != nil {
				_ = store.Close()
				return nil, err
			}
		}
		return store, nil

	case config.StoreDriverSQLite:
		if cfg.Store.AutoMigrate {
			return sqlite.Open(ctx, cfg.Store.SQLitePath)
		}
		db, err := database.NewSQLiteDB(cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		return sqlite.NewStore(db), nil

	case config.StoreDriverMemory:
		return memory.NewStore(), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

// NewHTTPServer builds the REST API server.
func (c *Container) NewHTTPServer() (*server.Server, error) {
	if err := c.Config.RequireJWT(); err != nil {
		return nil, err
	}
	tokens := auth.NewTokenUseCase(c.Config.JWT.AccessSecret, time.Duration(c.Config.JWT.AccessExpiryMin)*time.Minute)

	router := deliveryhttp.NewRouter(
		handler.NewAuthHandler(),
		handler.NewProfileHandler(c.Profiles),
		handler.NewFeedHandler(c.Feed),
		handler.NewSwipeHandler(c.Swipes),
		middleware.NewAuthMiddleware(tokens),
		c.Logger,
	)

	return server.NewServer(&c.Config.Server, router.Setup(), c.Logger), nil
}

// NewBot builds the Discord bot and subscribes its DM notifier to the bus.
func (c *Container) NewBot() (*discord.Bot, error) {
	if err := c.Config.RequireDiscord(); err != nil {
		return nil, err
	}
	bot, err := discord.NewBot(
		c.Config.Discord.Token,
		c.Config.Discord.AppID,
		c.Config.Discord.GuildID,
		c.Profiles,
		c.Feed,
		c.Swipes,
		c.Logger,
	)
	if err != nil {
		return nil, err
	}
	c.Bus.Subscribe(bot.Notifier().Dispatch)
	return bot, nil
}

// RelayEvents feeds events published through Redis, by this or any other
// process, into the local bus. It returns at once when Redis is disabled.
func (c *Container) RelayEvents(ctx context.Context) error {
	if c.Redis == nil {
		return nil
	}
	sub := events.NewRedisSubscriber(c.Redis, c.Config.Redis.EventsChannel, c.Logger)
	return sub.Run(ctx, c.Bus)
}

// Close closes all connections
func (c *Container) Close() error {
	var errs []error
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis: %w", err))
		}
	}
	if c.Store != nil {
		if err := c.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close store: %w", err))
		}
	}
	return errors.Join(errs...)
}
