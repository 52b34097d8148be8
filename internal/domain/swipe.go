package domain

import "time"

type Swipe struct {
	ID         int64     `json:"id"`
	GuildID    string    `json:"guild_id"`
	SwiperID   string    `json:"swiper_id"`
	SwipedID   string    `json:"swiped_id"`
	RightSwipe bool      `json:"right_swipe"`
	Timestamp  time.Time `json:"timestamp"`
}

// After reports whether s is more recent than other, breaking timestamp ties by ID.
func (s *Swipe) After(other *Swipe) bool {
	if other == nil {
		return true
	}
	if !s.Timestamp.Equal(other.Timestamp) {
		return s.Timestamp.After(other.Timestamp)
	}
	return s.ID > other.ID
}

type PairState string

const (
	PairUnswiped      PairState = "unswiped"
	PairOneSidedRight PairState = "one_sided_right"
	PairMutual        PairState = "mutual"
	PairRejected      PairState = "rejected"
)

// ResolvePairState derives the pair state from the latest swipe in each direction.
// Either argument may be nil when that side never swiped.
func ResolvePairState(ab, ba *Swipe) PairState {
	switch {
	case ab == nil && ba == nil:
		return PairUnswiped
	case (ab != nil && !ab.RightSwipe) || (ba != nil && !ba.RightSwipe):
		return PairRejected
	case ab != nil && ba != nil:
		return PairMutual
	default:
		return PairOneSidedRight
	}
}

// CanonicalPair orders two user IDs so row locks are always taken in the same order.
func CanonicalPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}
