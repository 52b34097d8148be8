package sqlite

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/gdugdh24/guildmatch/internal/domain"
	"github.com/gdugdh24/guildmatch/internal/repository"
	"github.com/gdugdh24/guildmatch/internal/repository/storetest"
	msqlite "modernc.org/sqlite"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "guildmatch.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreContract(t *testing.T) {
	t.Parallel()
	storetest.Run(t, func(t *testing.T) repository.Store { return openTestStore(t) })
}

func TestMigrateIsIdempotent(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	var applied int
	if err := store.db.Get(&applied, `SELECT COUNT(*) FROM schema_migrations`); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if applied != 1 {
		t.Fatalf("applied = %d, want 1", applied)
	}
}

func TestGenderCheckConstraint(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)
	p := storetest.NewProfile("g1", "a", 25, domain.Gender("Robot"), domain.GenderFemale)
	err := store.Profiles().Create(context.Background(), p)
	if err == nil {
		t.Fatal("expected check constraint failure")
	}
	if domain.IsTransient(err) || errors.Is(err, domain.ErrProfileAlreadyExists) {
		t.Fatalf("error = %v, want a permanent constraint error", err)
	}
}

func TestGenderEncoding(t *testing.T) {
	t.Parallel()
	genders := []domain.Gender{domain.GenderMale, domain.GenderNonBinary}
	encoded := encodeGenders(genders)
	if encoded != ",Male,Non-Binary," {
		t.Fatalf("encoded = %q, want %q", encoded, ",Male,Non-Binary,")
	}
	decoded := decodeGenders(encoded)
	if len(decoded) != 2 || decoded[0] != domain.GenderMale || decoded[1] != domain.GenderNonBinary {
		t.Fatalf("decoded = %v, want %v", decoded, genders)
	}
	if got := decodeGenders(""); len(got) != 0 {
		t.Fatalf("decode empty = %v, want empty", got)
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()
	if classify("op", nil) != nil {
		t.Fatal("classify(nil) should be nil")
	}
	if err := classify("op", context.DeadlineExceeded); !domain.IsTransient(err) {
		t.Fatalf("deadline exceeded = %v, want transient", err)
	}
	if err := classify("op", fmt.Errorf("wrapped: %w", &msqlite.Error{})); domain.IsTransient(err) {
		t.Fatalf("generic sqlite error = %v, want permanent", err)
	}
	if err := classify("op", errors.New("syntax")); domain.IsTransient(err) {
		t.Fatalf("plain error = %v, want permanent", err)
	}
}
