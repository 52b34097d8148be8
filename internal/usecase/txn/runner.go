// Package txn runs store operations with a per-attempt timeout, one retry on
// transient failures, and a tracing span per operation.
package txn

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gdugdh24/guildmatch/internal/domain"
	"github.com/gdugdh24/guildmatch/internal/repository"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultTimeout = 5 * time.Second
	DefaultBackoff = 100 * time.Millisecond

	// maxTries is the first attempt plus one retry.
	maxTries = 2

	tracerName = "github.com/gdugdh24/guildmatch/internal/usecase/txn"
)

type Runner struct {
	store   repository.Store
	logger  *slog.Logger
	tracer  trace.Tracer
	timeout time.Duration
	backoff time.Duration
}

type Option func(*Runner)

func WithTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func WithBackoff(d time.Duration) Option {
	return func(r *Runner) {
		if d >= 0 {
			r.backoff = d
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(r *Runner) {
		if t != nil {
			r.tracer = t
		}
	}
}

func NewRunner(store repository.Store, logger *slog.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{
		store:   store,
		logger:  logger,
		tracer:  otel.Tracer(tracerName),
		timeout: DefaultTimeout,
		backoff: DefaultBackoff,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Do runs fn inside a transaction. fn may run twice, so it must not have
// side effects outside the transaction.
func (r *Runner) Do(ctx context.Context, op string, fn func(ctx context.Context, tx repository.Tx) error) error {
	return r.run(ctx, op, func(ctx context.Context) error {
		return r.store.WithinTx(ctx, fn)
	})
}

// Read runs fn against the store without a transaction.
func (r *Runner) Read(ctx context.Context, op string, fn func(ctx context.Context, repos repository.Tx) error) error {
	return r.run(ctx, op, func(ctx context.Context) error {
		return fn(ctx, r.store)
	})
}

func (r *Runner) run(ctx context.Context, op string, attempt func(ctx context.Context) error) error {
	ctx, span := r.tracer.Start(ctx, "store."+op)
	defer span.End()

	tries := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		tries++
		attemptCtx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()

		err := attempt(attemptCtx)
		switch {
		case err == nil:
			return struct{}{}, nil
		case domain.IsTransient(err):
			return struct{}{}, err
		case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
			// Only the attempt deadline fired; the caller is still waiting.
			return struct{}{}, &domain.TransientStoreError{Op: op, Err: err}
		default:
			return struct{}{}, backoff.Permanent(err)
		}
	},
		backoff.WithBackOff(r.newBackOff()),
		backoff.WithMaxTries(maxTries),
		backoff.WithNotify(func(err error, next time.Duration) {
			r.logger.Warn("retrying store operation",
				"op", op,
				"error", err,
				"backoff", next,
			)
		}),
	)

	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Unwrap()
	}

	span.SetAttributes(
		attribute.String("store.op", op),
		attribute.Int("store.attempts", tries),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logFailure(ctx, op, err)
	}
	return err
}

func (r *Runner) logFailure(ctx context.Context, op string, err error) {
	var violation *domain.ConsistencyViolation
	switch {
	case errors.As(err, &violation):
		r.logger.ErrorContext(ctx, "consistency violation",
			"op", op,
			"guild_id", violation.GuildID,
			"user_id", violation.UserID,
			"detail", violation.Detail,
		)
	case domain.IsTransient(err):
		r.logger.WarnContext(ctx, "store operation failed after retry", "op", op, "error", err)
	}
}

func (r *Runner) newBackOff() backoff.BackOff {
	if r.backoff == 0 {
		return &backoff.ZeroBackOff{}
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.backoff
	b.MaxInterval = 4 * r.backoff
	return b
}
