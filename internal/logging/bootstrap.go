package logging

import (
	"io"
	"log/slog"

	"github.com/gdugdh24/guildmatch/internal/config"
)

// FromConfig initialises Sentry when a DSN is configured and returns the
// process logger. flush must be called before exit.
func FromConfig(w io.Writer, cfg *config.Config) (logger *slog.Logger, flush func(), err error) {
	flush, err = InitSentry(cfg.Sentry.DSN, cfg.Server.Env)
	if err != nil {
		return nil, flush, err
	}

	var extra []slog.Handler
	if cfg.Sentry.DSN != "" {
		extra = append(extra, NewSentryHandler(nil))
	}
	return Setup(w, cfg.Logging.Level, extra...), flush, nil
}
