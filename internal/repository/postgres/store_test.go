package postgres

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gdugdh24/guildmatch/internal/domain"
	"github.com/gdugdh24/guildmatch/internal/repository"
	"github.com/gdugdh24/guildmatch/internal/repository/storetest"
	"github.com/jmoiron/sqlx"
)

// testDSNEnv names a key/value Postgres DSN, for example
// "host=localhost port=5432 user=guildmatch password=secret dbname=guildmatch sslmode=disable".
const testDSNEnv = "GUILDMATCH_TEST_POSTGRES_DSN"

var schemaSeq atomic.Int64

// openTestStore migrates a fresh schema and drops it when the test ends.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv(testDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", testDSNEnv)
	}
	ctx := context.Background()

	admin, err := sqlx.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open admin connection: %v", err)
	}
	t.Cleanup(func() { _ = admin.Close() })

	schema := fmt.Sprintf("guildmatch_test_%d_%d", time.Now().UnixNano(), schemaSeq.Add(1))
	if _, err := admin.ExecContext(ctx, "CREATE SCHEMA "+schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	t.Cleanup(func() { _, _ = admin.ExecContext(context.Background(), "DROP SCHEMA "+schema+" CASCADE") })

	db, err := sqlx.Open("postgres", dsn+" search_path="+schema)
	if err != nil {
		t.Fatalf("open store connection: %v", err)
	}
	store := NewStore(db)
	t.Cleanup(func() { _ = store.Close() })
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store
}

func TestStoreContract(t *testing.T) {
	t.Parallel()
	storetest.Run(t, func(t *testing.T) repository.Store { return openTestStore(t) })
}

func TestGetForUpdateWaitsForLockHolder(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)
	ctx := context.Background()
	if err := store.Profiles().Create(ctx, storetest.NewProfile("g1", "a", 25, domain.GenderMale, domain.GenderFemale)); err != nil {
		t.Fatalf("create: %v", err)
	}

	locked := make(chan struct{})
	release := make(chan struct{})
	holder := make(chan error, 1)
	go func() {
		holder <- store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
			if _, err := tx.Profiles().GetForUpdate(ctx, "g1", "a"); err != nil {
				close(locked)
				return err
			}
			close(locked)
			<-release
			partner := "b"
			return tx.Profiles().SetMatchedWith(ctx, "g1", "a", &partner)
		})
	}()
	<-locked

	waitCtx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	err := store.WithinTx(waitCtx, func(ctx context.Context, tx repository.Tx) error {
		_, err := tx.Profiles().GetForUpdate(ctx, "g1", "a")
		return err
	})
	cancel()
	if err == nil {
		t.Fatal("second lock should wait for the first transaction")
	}
	if !domain.IsTransient(err) {
		t.Fatalf("lock wait error = %v, want transient", err)
	}

	close(release)
	if err := <-holder; err != nil {
		t.Fatalf("holder transaction: %v", err)
	}

	var seen *domain.Profile
	err = store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		p, err := tx.Profiles().GetForUpdate(ctx, "g1", "a")
		seen = p
		return err
	})
	if err != nil {
		t.Fatalf("lock after commit: %v", err)
	}
	if !seen.IsMatchedWith("b") {
		t.Fatalf("locked read = %+v, want the committed match", seen.MatchedWith)
	}
}

func TestRecordUsesDatabaseClock(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)
	ctx := context.Background()

	before := time.Now().Add(-time.Minute)
	first := &domain.Swipe{GuildID: "g1", SwiperID: "a", SwipedID: "b", RightSwipe: true}
	if err := store.Swipes().Record(ctx, first); err != nil {
		t.Fatalf("record: %v", err)
	}
	if first.ID == 0 || first.Timestamp.Before(before) {
		t.Fatalf("recorded = %+v, want id and database timestamp", first)
	}

	second := &domain.Swipe{GuildID: "g1", SwiperID: "a", SwipedID: "b"}
	if err := store.Swipes().Record(ctx, second); err != nil {
		t.Fatalf("record: %v", err)
	}
	latest, err := store.Swipes().Latest(ctx, "g1", "a", "b")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.ID != second.ID || latest.RightSwipe {
		t.Fatalf("latest = %+v, want the second swipe", latest)
	}
	if !latest.Timestamp.Equal(second.Timestamp) {
		t.Fatalf("latest timestamp = %v, want %v", latest.Timestamp, second.Timestamp)
	}
}
