package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/gdugdh24/guildmatch/internal/domain"
	"github.com/jmoiron/sqlx"
)

type swipeRow struct {
	ID         int64  `db:"id"`
	GuildID    string `db:"guild_id"`
	SwiperID   string `db:"swiper_id"`
	SwipedID   string `db:"swiped_id"`
	RightSwipe bool   `db:"right_swipe"`
	Timestamp  int64  `db:"timestamp"`
}

type swipeRepository struct {
	db  sqlx.ExtContext
	now func() time.Time
}

func (r *swipeRepository) Record(ctx context.Context, swipe *domain.Swipe) error {
	if swipe.Timestamp.IsZero() {
		swipe.Timestamp = r.now()
	}
	swipe.Timestamp = fromMillis(toMillis(swipe.Timestamp))
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO swipes (guild_id, swiper_id, swiped_id, right_swipe, timestamp) VALUES (?, ?, ?, ?, ?)`,
		swipe.GuildID, swipe.SwiperID, swipe.SwipedID, swipe.RightSwipe, toMillis(swipe.Timestamp))
	if err != nil {
		return classify("record swipe", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return classify("record swipe", err)
	}
	swipe.ID = id
	return nil
}

func (r *swipeRepository) Latest(ctx context.Context, guildID, swiperID, swipedID string) (*domain.Swipe, error) {
	query := `
		SELECT id, guild_id, swiper_id, swiped_id, right_swipe, timestamp
		FROM swipes
		WHERE guild_id = ? AND swiper_id = ? AND swiped_id = ?
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
	return &domain.Swipe{
		ID:         row.ID,
		GuildID:    row.GuildID,
		SwiperID:   row.SwiperID,
		SwipedID:   row.SwipedID,
		RightSwipe: row.RightSwipe,
		Timestamp:  fromMillis(row.Timestamp),
	}, nil
}

func (r *swipeRepository) HasAny(ctx context.Context, guildID, swiperID, swipedID string) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, r.db, &exists,
		`SELECT EXISTS (SELECT 1 FROM swipes WHERE guild_id = ? AND swiper_id = ? AND swiped_id = ?)`,
		guildID, swiperID, swipedID)
	if err != nil {
		return false, classify("check swipe", err)
	}
	return exists, nil
}

func (r *swipeRepository) DeleteByUser(ctx context.Context, guildID, userID string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM swipes WHERE guild_id = ? AND (swiper_id = ? OR swiped_id = ?)`,
		guildID, userID, userID)
	if err != nil {
		return 0, classify("delete swipes", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, classify("delete swipes", err)
	}
	return rows, nil
}
