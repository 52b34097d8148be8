package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/gdugdh24/guildmatch/internal/domain"
	"github.com/spf13/viper"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"
	StoreDriverMemory   = "memory"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Store     StoreConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Discord   DiscordConfig
	Matching  MatchingConfig
	Logging   LoggingConfig
	Sentry    SentryConfig
	Telemetry TelemetryConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string

	MaxOpenConns int
	MaxIdleConns int
}

type StoreConfig struct {
	Driver       string
	SQLitePath   string
	QueryTimeout time.Duration
	RetryBackoff time.Duration
	AutoMigrate  bool
}

type RedisConfig struct {
	Enabled       bool
	Host          string
	Port          int
	Password      string
	DB            int
	EventsChannel string
}

type JWTConfig struct {
	AccessSecret    string
	AccessExpiryMin int
}

type DiscordConfig struct {
	Token   string
	AppID   string
	GuildID string
}

type MatchingConfig struct {
	MinAge            int
	MaxAge            int
	BioMaxLength      int
	CandidatePageSize int
	GuildPolicyFile   string
}

type LoggingConfig struct {
	Level string
}

type SentryConfig struct {
	DSN string
}

type TelemetryConfig struct {
	OTLPEndpoint string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("ENV", "development")
	v.SetDefault("SERVER_READ_TIMEOUT", "15s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "15s")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "guildmatch")
	v.SetDefault("DB_NAME", "guildmatch")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("STORE_DRIVER", StoreDriverPostgres)
	v.SetDefault("SQLITE_PATH", "guildmatch.db")
	v.SetDefault("STORE_QUERY_TIMEOUT", "5s")
	v.SetDefault("STORE_RETRY_BACKOFF", "100ms")
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_EVENTS_CHANNEL", "guildmatch:match-events")

	v.SetDefault("JWT_ACCESS_EXPIRY_MIN", 60)

	v.SetDefault("MATCH_MIN_AGE", domain.DefaultMinAge)
	v.SetDefault("MATCH_MAX_AGE", domain.DefaultMaxAge)
	v.SetDefault("MATCH_BIO_MAX_LENGTH", domain.DefaultBioMaxLength)
	v.SetDefault("MATCH_CANDIDATE_PAGE_SIZE", 50)

	v.SetDefault("LOG_LEVEL", "info")
}

// Load loads configuration from environment variables or .env file
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	setDefaults(v)

	// Try to read from .env file, but don't fail if it doesn't exist
	_ = v.ReadInConfig()

	config := &Config{
		Server: ServerConfig{
			Host:         v.GetString("SERVER_HOST"),
			Port:         v.GetInt("SERVER_PORT"),
			Env:          v.GetString("ENV"),
			ReadTimeout:  v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout: v.GetDuration("SERVER_WRITE_TIMEOUT"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetInt("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSL_MODE"),

			MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		},
		Store: StoreConfig{
			Driver:       strings.ToLower(v.GetString("STORE_DRIVER")),
			SQLitePath:   v.GetString("SQLITE_PATH"),
			QueryTimeout: v.GetDuration("STORE_QUERY_TIMEOUT"),
			RetryBackoff: v.GetDuration("STORE_RETRY_BACKOFF"),
			AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
		},
		Redis: RedisConfig{
			Enabled:       v.GetBool("REDIS_ENABLED"),
			Host:          v.GetString("REDIS_HOST"),
			Port:          v.GetInt("REDIS_PORT"),
			Password:      v.GetString("REDIS_PASSWORD"),
			DB:            v.GetInt("REDIS_DB"),
			EventsChannel: v.GetString("REDIS_EVENTS_CHANNEL"),
		},
		JWT: JWTConfig{
			AccessSecret:    v.GetString("JWT_ACCESS_SECRET"),
			AccessExpiryMin: v.GetInt("JWT_ACCESS_EXPIRY_MIN"),
		},
		Discord: DiscordConfig{
			Token:   v.GetString("DISCORD_TOKEN"),
			AppID:   v.GetString("DISCORD_APP_ID"),
			GuildID: v.GetString("DISCORD_GUILD_ID"),
		},
		Matching: MatchingConfig{
			MinAge:            v.GetInt("MATCH_MIN_AGE"),
			MaxAge:            v.GetInt("MATCH_MAX_AGE"),
			BioMaxLength:      v.GetInt("MATCH_BIO_MAX_LENGTH"),
			CandidatePageSize: v.GetInt("MATCH_CANDIDATE_PAGE_SIZE"),
			GuildPolicyFile:   v.GetString("GUILD_POLICY_FILE"),
		},
		Logging: LoggingConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
		Sentry: SentryConfig{
			DSN: v.GetString("SENTRY_DSN"),
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
		},
	}

	// Validate critical configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates critical configuration values
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreDriverPostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.DBName == "" {
			return fmt.Errorf("database name is required")
		}
	case StoreDriverSQLite:
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite store")
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}
	if c.Store.QueryTimeout <= 0 {
		return fmt.Errorf("STORE_QUERY_TIMEOUT must be positive")
	}
	if c.Store.RetryBackoff < 0 {
		return fmt.Errorf("STORE_RETRY_BACKOFF must not be negative")
	}
	if c.Matching.MinAge <= 0 || c.Matching.MaxAge < c.Matching.MinAge {
		return fmt.Errorf("MATCH_MIN_AGE and MATCH_MAX_AGE must form a valid range")
	}
	if c.Matching.BioMaxLength <= 0 {
		return fmt.Errorf("MATCH_BIO_MAX_LENGTH must be positive")
	}
	if c.Matching.CandidatePageSize <= 0 {
		return fmt.Errorf("MATCH_CANDIDATE_PAGE_SIZE must be positive")
	}
	return nil
}

// RequireJWT checks the settings the HTTP API cannot start without.
func (c *Config) RequireJWT() error {
	if c.JWT.AccessSecret == "" {
		return fmt.Errorf("JWT access secret is required")
	}
	if len(c.JWT.AccessSecret) < 32 {
		return fmt.Errorf("JWT access secret must be at least 32 characters")
	}
	return nil
}

// RequireDiscord checks the settings the bot cannot start without.
func (c *Config) RequireDiscord() error {
	if c.Discord.Token == "" {
		return fmt.Errorf("DISCORD_TOKEN is required")
	}
	if c.Discord.AppID == "" {
		return fmt.Errorf("DISCORD_APP_ID is required")
	}
	return nil
}

// GetDSN returns PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// GetAddr returns Redis address
func (c *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
