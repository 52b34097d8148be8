package container

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gdugdh24/guildmatch/internal/config"
	"github.com/gdugdh24/guildmatch/internal/domain"
	"github.com/gdugdh24/guildmatch/internal/repository/memory"
	"github.com/gdugdh24/guildmatch/internal/repository/sqlite"
)

func testConfig(driver string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 0},
		Store: config.StoreConfig{
			Driver:       driver,
			QueryTimeout: time.Second,
			AutoMigrate:  true,
		},
		JWT:      config.JWTConfig{AccessExpiryMin: 60},
		Matching: config.MatchingConfig{MinAge: 18, MaxAge: 120, BioMaxLength: 1000, CandidatePageSize: 10},
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMemoryContainer(t *testing.T) {
	t.Parallel()
	c, err := NewContainer(context.Background(), testConfig(config.StoreDriverMemory), testLogger())
	if err != nil {
		t.Fatalf("NewContainer() error = %v", err)
	}
	defer c.Close()

	if _, ok := c.Store.(*memory.Store); !ok {
		t.Fatalf("store = %T, want *memory.Store", c.Store)
	}
	if c.Publisher != c.Bus {
		t.Fatal("publisher should be the local bus when redis is disabled")
	}
	if err := c.RelayEvents(context.Background()); err != nil {
		t.Fatalf("RelayEvents() error = %v", err)
	}

	attrs := domain.ProfileAttrs{Age: 30, Gender: domain.GenderTrans, Bio: "hi", AttractedGenders: []domain.Gender{domain.GenderMale}}
	if _, err := c.Profiles.CreateProfile(context.Background(), "g", "u", attrs); err != nil {
		t.Fatalf("CreateProfile() error = %v", err)
	}
}

func TestSQLiteContainer(t *testing.T) {
	t.Parallel()
	cfg := testConfig(config.StoreDriverSQLite)
	cfg.Store.SQLitePath = filepath.Join(t.TempDir(), "guildmatch.db")

	c, err := NewContainer(context.Background(), cfg, testLogger())
	if err != nil {
		t.Fatalf("NewContainer() error = %v", err)
	}
	defer c.Close()

	if _, ok := c.Store.(*sqlite.Store); !ok {
		t.Fatalf("store = %T, want *sqlite.Store", c.Store)
	}
	if _, found, err := c.Feed.NextCandidate(context.Background(), "g", "nobody"); err == nil || found {
		t.Fatalf("NextCandidate() = %v, %v, want profile not found", found, err)
	}
}

func TestHTTPServerRequiresSecret(t *testing.T) {
	t.Parallel()
	cfg := testConfig(config.StoreDriverMemory)
	c, err := NewContainer(context.Background(), cfg, testLogger())
	if err != nil {
		t.Fatalf("NewContainer() error = %v", err)
	}
	defer c.Close()

	if _, err := c.NewHTTPServer(); err == nil {
		t.Fatal("expected error without JWT secret")
	}
	cfg.JWT.AccessSecret = strings.Repeat("s", 32)
	if _, err := c.NewHTTPServer(); err != nil {
		t.Fatalf("NewHTTPServer() error = %v", err)
	}
}

func TestBotRequiresDiscordSettings(t *testing.T) {
	t.Parallel()
	cfg := testConfig(config.StoreDriverMemory)
	c, err := NewContainer(context.Background(), cfg, testLogger())
	if err != nil {
		t.Fatalf("NewContainer() error = %v", err)
	}
	defer c.Close()

	if _, err := c.NewBot(); err == nil {
		t.Fatal("expected error without discord token")
	}
	cfg.Discord = config.DiscordConfig{Token: "token", AppID: "123"}
	bot, err := c.NewBot()
	if err != nil {
		t.Fatalf("NewBot() error = %v", err)
	}
	if bot.Notifier() == nil {
		t.Fatal("bot notifier is nil")
	}
}

func TestUnknownDriver(t *testing.T) {
	t.Parallel()
	if _, err := NewContainer(context.Background(), testConfig("mongo"), testLogger()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
