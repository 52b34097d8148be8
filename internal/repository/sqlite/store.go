// Package sqlite stores profiles and swipes in a single SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/gdugdh24/guildmatch/internal/domain"
	"github.com/gdugdh24/guildmatch/internal/infrastructure/database"
	"github.com/gdugdh24/guildmatch/internal/repository"
	"github.com/gdugdh24/guildmatch/internal/repository/sqlite/migrations"
	"github.com/jmoiron/sqlx"
)

// Store is the SQLite implementation of repository.Store. The database is
// expected to allow a single open connection, which serializes transactions.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Open opens path, applies migrations and returns a ready store.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := database.NewSQLiteDB(path)
	if err != nil {
		return nil, err
	}
	store := NewStore(db)
	if err := store.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) Migrate(ctx context.Context) error {
	return database.ApplyMigrations(ctx, s.db, migrations.FS)
}

func (s *Store) Profiles() repository.ProfileRepository {
	return &profileRepository{db: s.db, now: s.now}
}

func (s *Store) Swipes() repository.SwipeRepository {
	return &swipeRepository{db: s.db, now: s.now}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return classify("begin transaction", err)
	}

	if err := fn(ctx, &txRepos{tx: tx, now: s.now}); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return classify("commit transaction", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type txRepos struct {
	tx  *sqlx.Tx
	now func() time.Time
}

func (t *txRepos) Profiles() repository.ProfileRepository {
	return &profileRepository{db: t.tx, now: t.now}
}

func (t *txRepos) Swipes() repository.SwipeRepository {
	return &swipeRepository{db: t.tx, now: t.now}
}

// encodeGenders stores a set as ",Male,Female," so membership can be tested with LIKE.
func encodeGenders(genders []domain.Gender) string {
	if len(genders) == 0 {
		return ""
	}
	parts := make([]string, 0, len(genders))
	for _, g := range genders {
		parts = append(parts, string(g))
	}
	return "," + strings.Join(parts, ",") + ","
}

func decodeGenders(raw string) []domain.Gender {
	var out []domain.Gender
	for _, part := range strings.Split(strings.Trim(raw, ","), ",") {
		if part != "" {
			out = append(out, domain.Gender(part))
		}
	}
	return out
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func nullToPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func ptrToNull(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}
