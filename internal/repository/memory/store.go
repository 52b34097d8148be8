// Package memory provides an in-process Store used by tests and local runs.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gdugdh24/guildmatch/internal/domain"
	"github.com/gdugdh24/guildmatch/internal/repository"
)

type profileKey struct {
	guildID string
	userID  string
}

type state struct {
	profiles      map[profileKey]*domain.Profile
	swipes        []*domain.Swipe
	nextProfileID int64
	nextSwipeID   int64
}

func (s *state) clone() *state {
	cp := &state{
		profiles:      make(map[profileKey]*domain.Profile, len(s.profiles)),
		swipes:        append([]*domain.Swipe(nil), s.swipes...),
		nextProfileID: s.nextProfileID,
		nextSwipeID:   s.nextSwipeID,
	}
	for k, p := range s.profiles {
		cp.profiles[k] = p.Clone()
	}
	return cp
}

// Store keeps all data behind one mutex. Transactions run on a copy of the
// data that replaces the original only when fn succeeds.
type Store struct {
	mu   sync.Mutex
	data *state
	now  func() time.Time
}

func NewStore() *Store {
	return &Store{
		data: &state{profiles: make(map[profileKey]*domain.Profile)},
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Profiles() repository.ProfileRepository {
	return &profileRepository{store: s}
}

func (s *Store) Swipes() repository.SwipeRepository {
	return &swipeRepository{store: s}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.data.clone()
	if err := fn(ctx, &tx{store: s, data: working}); err != nil {
		return err
	}
	s.data = working
	return nil
}

func (s *Store) Close() error {
	return nil
}

type tx struct {
	store *Store
	data  *state
}

func (t *tx) Profiles() repository.ProfileRepository {
	return &profileRepository{store: t.store, data: t.data}
}

func (t *tx) Swipes() repository.SwipeRepository {
	return &swipeRepository{store: t.store, data: t.data}
}

// view runs fn against the transaction copy when bound to one, otherwise
// against the live data under the store lock.
func view(ctx context.Context, store *Store, data *state, fn func(*state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if data != nil {
		return fn(data)
	}
	store.mu.Lock()
	defer store.mu.Unlock()
	return fn(store.data)
}

type profileRepository struct {
	store *Store
	data  *state
}

func (r *profileRepository) Create(ctx context.Context, profile *domain.Profile) error {
	return view(ctx, r.store, r.data, func(st *state) error {
		key := profileKey{profile.GuildID, profile.UserID}
		if _, ok := st.profiles[key]; ok {
			return domain.ErrProfileAlreadyExists
		}
		now := r.store.now()
		st.nextProfileID++
		profile.ID = st.nextProfileID
		profile.CreatedAt = now
		profile.UpdatedAt = now
		st.profiles[key] = profile.Clone()
		return nil
	})
}

func (r *profileRepository) Update(ctx context.Context, profile *domain.Profile) error {
	return view(ctx, r.store, r.data, func(st *state) error {
		existing, ok := st.profiles[profileKey{profile.GuildID, profile.UserID}]
		if !ok {
			return domain.ErrProfileNotFound
		}
		existing.Apply(profile.Attrs())
		existing.UpdatedAt = r.store.now()
		copyStored(profile, existing)
		return nil
	})
}

func (r *profileRepository) Upsert(ctx context.Context, profile *domain.Profile) error {
	return view(ctx, r.store, r.data, func(st *state) error {
		key := profileKey{profile.GuildID, profile.UserID}
		now := r.store.now()
		existing, ok := st.profiles[key]
		if !ok {
			st.nextProfileID++
			profile.ID = st.nextProfileID
			profile.MatchedWith = nil
			profile.CreatedAt = now
			profile.UpdatedAt = now
			st.profiles[key] = profile.Clone()
			return nil
		}
		existing.Apply(profile.Attrs())
		existing.UpdatedAt = now
		copyStored(profile, existing)
		return nil
	})
}

// copyStored refreshes the store-owned fields of dst from the stored row.
func copyStored(dst, stored *domain.Profile) {
	cp := stored.Clone()
	dst.ID = cp.ID
	dst.MatchedWith = cp.MatchedWith
	dst.CreatedAt = cp.CreatedAt
	dst.UpdatedAt = cp.UpdatedAt
}

func (r *profileRepository) Get(ctx context.Context, guildID, userID string) (*domain.Profile, error) {
	var out *domain.Profile
	err := view(ctx, r.store, r.data, func(st *state) error {
		p, ok := st.profiles[profileKey{guildID, userID}]
		if !ok {
			return domain.ErrProfileNotFound
		}
		out = p.Clone()
		return nil
	})
	return out, err
}

// GetForUpdate needs no extra locking: transactions already hold the store mutex.
func (r *profileRepository) GetForUpdate(ctx context.Context, guildID, userID string) (*domain.Profile, error) {
	return r.Get(ctx, guildID, userID)
}

func (r *profileRepository) Delete(ctx context.Context, guildID, userID string) error {
	return view(ctx, r.store, r.data, func(st *state) error {
		key := profileKey{guildID, userID}
		if _, ok := st.profiles[key]; !ok {
			return domain.ErrProfileNotFound
		}
		delete(st.profiles, key)
		return nil
	})
}

func (r *profileRepository) SetMatchedWith(ctx context.Context, guildID, userID string, partnerID *string) error {
	return view(ctx, r.store, r.data, func(st *state) error {
		p, ok := st.profiles[profileKey{guildID, userID}]
		if !ok {
			return domain.ErrProfileNotFound
		}
		if partnerID == nil {
			p.MatchedWith = nil
		} else {
			partner := *partnerID
			p.MatchedWith = &partner
		}
		p.UpdatedAt = r.store.now()
		return nil
	})
}

func (r *profileRepository) ListCandidates(ctx context.Context, q repository.CandidateQuery) ([]*domain.Profile, error) {
	var out []*domain.Profile
	err := view(ctx, r.store, r.data, func(st *state) error {
		swiped := make(map[string]bool)
		for _, s := range st.swipes {
			if s.GuildID == q.GuildID && s.SwiperID == q.RequesterID {
				swiped[s.SwipedID] = true
			}
		}

		var matches []*domain.Profile
		for _, p := range st.profiles {
			if p.GuildID != q.GuildID || p.UserID == q.RequesterID || p.IsMatched() {
				continue
			}
			if p.Age < q.MinAge || p.Age > q.MaxAge || swiped[p.UserID] {
				continue
			}
			matches = append(matches, p)
		}
		sort.Slice(matches, func(i, j int) bool {
			if !matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
				return matches[i].CreatedAt.Before(matches[j].CreatedAt)
			}
			return matches[i].ID < matches[j].ID
		})

		if q.Offset >= len(matches) {
			return nil
		}
		matches = matches[q.Offset:]
		if q.Limit > 0 && len(matches) > q.Limit {
			matches = matches[:q.Limit]
		}
		for _, p := range matches {
			out = append(out, p.Clone())
		}
		return nil
	})
	return out, err
}

type swipeRepository struct {
	store *Store
	data  *state
}

func (r *swipeRepository) Record(ctx context.Context, swipe *domain.Swipe) error {
	return view(ctx, r.store, r.data, func(st *state) error {
		st.nextSwipeID++
		swipe.ID = st.nextSwipeID
		if swipe.Timestamp.IsZero() {
			swipe.Timestamp = r.store.now()
		}
		cp := *swipe
		st.swipes = append(st.swipes, &cp)
		return nil
	})
}

func (r *swipeRepository) Latest(ctx context.Context, guildID, swiperID, swipedID string) (*domain.Swipe, error) {
	var latest *domain.Swipe
	err := view(ctx, r.store, r.data, func(st *state) error {
		for _, s := range st.swipes {
			if s.GuildID != guildID || s.SwiperID != swiperID || s.SwipedID != swipedID {
				continue
			}
			if s.After(latest) {
				latest = s
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if latest == nil {
		return nil, domain.ErrSwipeNotFound
	}
	cp := *latest
	return &cp, nil
}

func (r *swipeRepository) HasAny(ctx context.Context, guildID, swiperID, swipedID string) (bool, error) {
	_, err := r.Latest(ctx, guildID, swiperID, swipedID)
	if err == domain.ErrSwipeNotFound {
		return false, nil
	}
	return err == nil, err
}

func (r *swipeRepository) DeleteByUser(ctx context.Context, guildID, userID string) (int64, error) {
	var removed int64
	err := view(ctx, r.store, r.data, func(st *state) error {
		kept := st.swipes[:0:0]
		for _, s := range st.swipes {
			if s.GuildID == guildID && (s.SwiperID == userID || s.SwipedID == userID) {
				removed++
				continue
			}
			kept = append(kept, s)
		}
		st.swipes = kept
		return nil
	})
	return removed, err
}
