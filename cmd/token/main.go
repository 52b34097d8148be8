// Command token issues an API bearer token for a Discord user id.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/gdugdh24/guildmatch/internal/config"
	"github.com/gdugdh24/guildmatch/internal/usecase/auth"
)

func main() {
	userID := flag.String("user", "", "Discord user id the token is issued for")
	ttl := flag.Duration("ttl", 0, "token lifetime (default JWT_ACCESS_EXPIRY_MIN)")
	flag.Parse()

	if err := run(*userID, *ttl); err != nil {
		fmt.Fprintf(os.Stderr, "token: %v\n", err)
		os.Exit(1)
	}
}

func run(userID string, ttl time.Duration) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.RequireJWT(); err != nil {
		return err
	}

	tokens := auth.NewTokenUseCase(cfg.JWT.AccessSecret, time.Duration(cfg.JWT.AccessExpiryMin)*time.Minute)
	resp, err := tokens.IssueToken(userID, ttl)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}
