package txn

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/gdugdh24/guildmatch/internal/domain"
	"github.com/gdugdh24/guildmatch/internal/repository"
	"github.com/gdugdh24/guildmatch/internal/repository/memory"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type recordHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *recordHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r)
	return nil
}

func (h *recordHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordHandler) WithGroup(string) slog.Handler      { return h }

func (h *recordHandler) count(level slog.Level) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, r := range h.records {
		if r.Level == level {
			n++
		}
	}
	return n
}

func newRunner(t *testing.T, opts ...Option) (*Runner, *recordHandler) {
	t.Helper()
	h := &recordHandler{}
	opts = append([]Option{WithBackoff(0)}, opts...)
	return NewRunner(memory.NewStore(), slog.New(h), opts...), h
}

func TestDoRetriesTransientOnce(t *testing.T) {
	t.Parallel()
	runner, logs := newRunner(t)

	calls := 0
	err := runner.Do(context.Background(), "test", func(ctx context.Context, tx repository.Tx) error {
		calls++
		if calls == 1 {
			return &domain.TransientStoreError{Op: "test", Err: errors.New("connection reset")}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v, want nil", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
	if logs.count(slog.LevelWarn) != 1 {
		t.Fatalf("warn logs = %d, want 1", logs.count(slog.LevelWarn))
	}
}

func TestDoGivesUpAfterSecondTransient(t *testing.T) {
	t.Parallel()
	runner, _ := newRunner(t)

	calls := 0
	err := runner.Do(context.Background(), "test", func(ctx context.Context, tx repository.Tx) error {
		calls++
		return &domain.TransientStoreError{Op: "test", Err: errors.New("deadlock")}
	})
	if !domain.IsTransient(err) {
		t.Fatalf("Do() error = %v, want transient", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestDoDoesNotRetryPermanentErrors(t *testing.T) {
	t.Parallel()
	runner, _ := newRunner(t)

	calls := 0
	err := runner.Do(context.Background(), "test", func(ctx context.Context, tx repository.Tx) error {
		calls++
		return domain.ErrProfileNotFound
	})
	if !errors.Is(err, domain.ErrProfileNotFound) {
		t.Fatalf("Do() error = %v, want %v", err, domain.ErrProfileNotFound)
	}
	if err != domain.ErrProfileNotFound {
		t.Fatalf("Do() error = %#v, want the bare sentinel", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestConsistencyViolationIsLoggedAndNotRetried(t *testing.T) {
	t.Parallel()
	runner, logs := newRunner(t)

	calls := 0
	err := runner.Do(context.Background(), "unmatch", func(ctx context.Context, tx repository.Tx) error {
		calls++
		return &domain.ConsistencyViolation{GuildID: "g1", UserID: "a", Detail: "asymmetric match"}
	})
	if !domain.IsConsistencyViolation(err) {
		t.Fatalf("Do() error = %v, want consistency violation", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if logs.count(slog.LevelError) != 1 {
		t.Fatalf("error logs = %d, want 1", logs.count(slog.LevelError))
	}
}

func TestAttemptTimeoutIsRetried(t *testing.T) {
	t.Parallel()
	runner, _ := newRunner(t, WithTimeout(20*time.Millisecond))

	calls := 0
	err := runner.Read(context.Background(), "slow", func(ctx context.Context, _ repository.Tx) error {
		calls++
		if calls == 1 {
			<-ctx.Done()
			return ctx.Err()
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Read() error = %v, want nil", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestCallerCancellationIsNotRetried(t *testing.T) {
	t.Parallel()
	runner, _ := newRunner(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := runner.Read(ctx, "cancelled", func(ctx context.Context, _ repository.Tx) error {
		calls++
		return ctx.Err()
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Read() error = %v, want %v", err, context.Canceled)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestRunnerRecordsSpan(t *testing.T) {
	t.Parallel()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	runner, _ := newRunner(t, WithTracer(provider.Tracer("test")))

	calls := 0
	err := runner.Do(context.Background(), "swipe", func(ctx context.Context, tx repository.Tx) error {
		calls++
		if calls == 1 {
			return &domain.TransientStoreError{Op: "swipe", Err: errors.New("serialization failure")}
		}
		return domain.ErrAlreadyMatched
	})
	if !errors.Is(err, domain.ErrAlreadyMatched) {
		t.Fatalf("Do() error = %v, want %v", err, domain.ErrAlreadyMatched)
	}

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("spans = %d, want 1", len(spans))
	}
	span := spans[0]
	if span.Name() != "store.swipe" {
		t.Fatalf("span name = %q, want store.swipe", span.Name())
	}
	if span.Status().Code != codes.Error {
		t.Fatalf("span status = %v, want error", span.Status().Code)
	}
	var attempts int64
	for _, kv := range span.Attributes() {
		if kv.Key == "store.attempts" {
			attempts = kv.Value.AsInt64()
		}
	}
	if attempts != 2 {
		t.Fatalf("store.attempts = %d, want 2", attempts)
	}
}
