package postgres

import (
	"context"
	"database/sql"

	"github.com/gdugdh24/guildmatch/internal/infrastructure/database"
	"github.com/gdugdh24/guildmatch/internal/repository"
	"github.com/gdugdh24/guildmatch/internal/repository/postgres/migrations"
	"github.com/jmoiron/sqlx"
)

// Store is the PostgreSQL implementation of repository.Store.
type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Migrate applies the embedded schema migrations.
func (s *Store) Migrate(ctx context.Context) error {
	return database.ApplyMigrations(ctx, s.db, migrations.FS)
}

func (s *Store) Profiles() repository.ProfileRepository {
	return &profileRepository{db: s.db}
}

func (s *Store) Swipes() repository.SwipeRepository {
	return &swipeRepository{db: s.db}
}

// WithinTx runs fn in a read-committed transaction. Row locks taken through
// GetForUpdate are held until fn returns.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return classify("begin transaction", err)
	}

	if err := fn(ctx, &txRepos{tx: tx}); err != nil {
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
	tx *sqlx.Tx
}

func (t *txRepos) Profiles() repository.ProfileRepository {
	return &profileRepository{db: t.tx, locking: true}
}

func (t *txRepos) Swipes() repository.SwipeRepository {
	return &swipeRepository{db: t.tx}
}
