package repository

import (
	"context"

	"github.com/gdugdh24/guildmatch/internal/domain"
)

// CandidateQuery selects unmatched profiles in a guild whose age falls inside
// the requester's window and that the requester never swiped on.
type CandidateQuery struct {
	GuildID     string
	RequesterID string
	MinAge      int
	MaxAge      int
	Limit       int
	Offset      int
}

type ProfileRepository interface {
	Create(ctx context.Context, profile *domain.Profile) error
	Update(ctx context.Context, profile *domain.Profile) error
	Upsert(ctx context.Context, profile *domain.Profile) error
	Get(ctx context.Context, guildID, userID string) (*domain.Profile, error)
	// GetForUpdate reads the profile and holds a row lock until the
	// surrounding transaction ends.
	GetForUpdate(ctx context.Context, guildID, userID string) (*domain.Profile, error)
	Delete(ctx context.Context, guildID, userID string) error
	SetMatchedWith(ctx context.Context, guildID, userID string, partnerID *string) error
	ListCandidates(ctx context.Context, q CandidateQuery) ([]*domain.Profile, error)
}

type SwipeRepository interface {
	Record(ctx context.Context, swipe *domain.Swipe) error
	Latest(ctx context.Context, guildID, swiperID, swipedID string) (*domain.Swipe, error)
	HasAny(ctx context.Context, guildID, swiperID, swipedID string) (bool, error)
	DeleteByUser(ctx context.Context, guildID, userID string) (int64, error)
}

// Tx exposes repositories bound to one transaction, or to the plain
// connection pool when returned by a Store.
type Tx interface {
	Profiles() ProfileRepository
	Swipes() SwipeRepository
}

type Store interface {
	Tx
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Close() error
}
