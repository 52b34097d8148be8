package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/gdugdh24/guildmatch/internal/domain"
	"github.com/jmoiron/sqlx"
)

type swipeRow struct {
	ID         int64     `db:"id"`
	GuildID    string    `db:"guild_id"`
	SwiperID   string    `db:"swiper_id"`
	SwipedID   string    `db:"swiped_id"`
	RightSwipe bool      `db:"right_swipe"`
	Timestamp  time.Time `db:"timestamp"`
}

func (r swipeRow) toDomain() *domain.Swipe {
	return &domain.Swipe{
		ID:         r.ID,
		GuildID:    r.GuildID,
		SwiperID:   r.SwiperID,
		SwipedID:   r.SwipedID,
		RightSwipe: r.RightSwipe,
		Timestamp:  r.Timestamp,
	}
}

type swipeRepository struct {
	db sqlx.ExtContext
}

// Record stamps the swipe with the database clock unless the caller set a
// timestamp, so processes with skewed clocks still agree on ordering.
func (r *swipeRepository) Record(ctx context.Context, swipe *domain.Swipe) error {
	var at *time.Time
	if !swipe.Timestamp.IsZero() {
		ts := swipe.Timestamp
		at = &ts
	}
	query := `
		INSERT INTO swipes (guild_id, swiper_id, swiped_id, right_swipe, timestamp)
		VALUES ($1, $2, $3, $4, COALESCE($5::timestamptz, clock_timestamp()))
		RETURNING id, timestamp
	`
	var stamped time.Time
	err := r.db.QueryRowxContext(ctx, query,
		swipe.GuildID, swipe.SwiperID, swipe.SwipedID, swipe.RightSwipe, at,
	).Scan(&swipe.ID, &stamped)
	if err != nil {
		return classify("record swipe", err)
	}
	swipe.Timestamp = stamped.UTC()
	return nil
}

func (r *swipeRepository) Latest(ctx context.Context, guildID, swiperID, swipedID string) (*domain.Swipe, error) {
	query := `
		SELECT id, guild_id, swiper_id, swiped_id, right_swipe, timestamp
		FROM swipes
		WHERE guild_id = $1 AND swiper_id = $2 AND swiped_id = $3
		ORDER BY timestamp DESC, id DESC
		LIMIT 1
	`
	var row swipeRow
	if err := sqlx.GetContext(ctx, r.db, &row, query, guildID, swiperID, swipedID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSwipeNotFound
		}
		return nil, classify("latest swipe", err)
	}
	return row.toDomain(), nil
}

func (r *swipeRepository) HasAny(ctx context.Context, guildID, swiperID, swipedID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM swipes WHERE guild_id = $1 AND swiper_id = $2 AND swiped_id = $3
		)
	`
	var exists bool
	if err := sqlx.GetContext(ctx, r.db, &exists, query, guildID, swiperID, swipedID); err != nil {
		return false, classify("check swipe", err)
	}
	return exists, nil
}

func (r *swipeRepository) DeleteByUser(ctx context.Context, guildID, userID string) (int64, error) {
	query := `DELETE FROM swipes WHERE guild_id = $1 AND (swiper_id = $2 OR swiped_id = $2)`
	result, err := r.db.ExecContext(ctx, query, guildID, userID)
	if err != nil {
		return 0, classify("delete swipes", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, classify("delete swipes", err)
	}
	return rows, nil
}
