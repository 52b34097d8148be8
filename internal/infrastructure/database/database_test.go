package database

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gdugdh24/guildmatch/internal/config"
)

func TestNewPostgresDBReportsUnreachableServer(t *testing.T) {
	t.Parallel()
	cfg := &config.DatabaseConfig{Host: "127.0.0.1", Port: 1, User: "u", Password: "p", DBName: "gm", SSLMode: "disable", MaxOpenConns: 2}

	_, err := NewPostgresDB(context.Background(), cfg, time.Second)
	if err == nil {
		t.Fatal("expected error for unreachable postgres")
	}
	if !strings.Contains(err.Error(), "127.0.0.1:1/gm") {
		t.Fatalf("error = %v, want the target address", err)
	}
}

func TestNewRedisClientReportsUnreachableServer(t *testing.T) {
	t.Parallel()
	cfg := &config.RedisConfig{Host: "127.0.0.1", Port: 1}

	_, err := NewRedisClient(context.Background(), cfg, time.Second)
	if err == nil {
		t.Fatal("expected error for unreachable redis")
	}
	if !strings.Contains(err.Error(), "127.0.0.1:1") {
		t.Fatalf("error = %v, want the target address", err)
	}
}

func TestNewSQLiteDB(t *testing.T) {
	t.Parallel()
	if _, err := NewSQLiteDB(" "); err == nil {
		t.Fatal("expected error for empty path")
	}

	db, err := NewSQLiteDB(filepath.Join(t.TempDir(), "guildmatch.db"))
	if err != nil {
		t.Fatalf("NewSQLiteDB() error = %v", err)
	}
	defer db.Close()

	var mode string
	if err := db.Get(&mode, "PRAGMA journal_mode"); err != nil {
		t.Fatalf("journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Fatalf("journal_mode = %q, want wal", mode)
	}
}
