package swipe

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gdugdh24/guildmatch/internal/domain"
	"github.com/gdugdh24/guildmatch/internal/repository"
	"github.com/gdugdh24/guildmatch/internal/repository/memory"
	"github.com/gdugdh24/guildmatch/internal/repository/storetest"
	"github.com/gdugdh24/guildmatch/internal/usecase/feed"
	"github.com/gdugdh24/guildmatch/internal/usecase/txn"
)

type recorder struct {
	mu     sync.Mutex
	events []domain.MatchEvent
	err    error
}

func (r *recorder) Publish(_ context.Context, e domain.MatchEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.err
}

func (r *recorder) count(t domain.MatchEventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

// commitFailStore fails the commit of the first n transactions after fn ran.
type commitFailStore struct {
	repository.Store
	remaining int32
}

func (s *commitFailStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	return s.Store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if err := fn(ctx, tx); err != nil {
			return err
		}
		if atomic.AddInt32(&s.remaining, -1) >= 0 {
			return &domain.TransientStoreError{Op: "commit transaction", Err: errors.New("connection reset")}
		}
		return nil
	})
}

type fixture struct {
	store  *memory.Store
	swipes *SwipeUseCase
	feed   *feed.FeedUseCase
	events *recorder
}

func newFixture(t *testing.T, store repository.Store) *fixture {
	t.Helper()
	mem := memory.NewStore()
	if store == nil {
		store = mem
	} else if cf, ok := store.(*commitFailStore); ok {
		cf.Store = mem
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	runner := txn.NewRunner(store, logger, txn.WithBackoff(0))
	rec := &recorder{}
	return &fixture{
		store:  mem,
		swipes: NewSwipeUseCase(runner, rec, logger),
		feed:   feed.NewFeedUseCase(runner, 10, logger),
		events: rec,
	}
}

// seedScenario creates A (25, Male, into Female 20-30) and B (27, Female, into Male 22-28).
func (f *fixture) seedScenario(t *testing.T) {
	t.Helper()
	a := storetest.NewProfile("g1", "A", 25, domain.GenderMale, domain.GenderFemale)
	a.PreferredMinAge, a.PreferredMaxAge = 20, 30
	b := storetest.NewProfile("g1", "B", 27, domain.GenderFemale, domain.GenderMale)
	b.PreferredMinAge, b.PreferredMaxAge = 22, 28
	f.create(t, a, b)
}

func (f *fixture) create(t *testing.T, profiles ...*domain.Profile) {
	t.Helper()
	for _, p := range profiles {
		if err := f.store.Profiles().Create(context.Background(), p); err != nil {
			t.Fatalf("create %s: %v", p.UserID, err)
		}
	}
}

func (f *fixture) profile(t *testing.T, userID string) *domain.Profile {
	t.Helper()
	p, err := f.store.Profiles().Get(context.Background(), "g1", userID)
	if err != nil {
		t.Fatalf("get %s: %v", userID, err)
	}
	return p
}

func (f *fixture) swipe(t *testing.T, swiper, swiped string, right bool) *domain.SwipeResult {
	t.Helper()
	res, err := f.swipes.Swipe(context.Background(), "g1", swiper, swiped, right)
	if err != nil {
		t.Fatalf("Swipe(%s -> %s) error = %v", swiper, swiped, err)
	}
	return res
}

func TestMutualRightSwipesFormMatch(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	f.seedScenario(t)
	ctx := context.Background()

	next, found, err := f.feed.NextCandidate(ctx, "g1", "A")
	if err != nil || !found || next.UserID != "B" {
		t.Fatalf("NextCandidate(A) = %v, %v, %v, want B", next, found, err)
	}

	res := f.swipe(t, "A", "B", true)
	if res.Outcome != domain.OutcomePending {
		t.Fatalf("A right outcome = %s, want %s", res.Outcome, domain.OutcomePending)
	}
	if state, _ := f.swipes.PairState(ctx, "g1", "A", "B"); state != domain.PairOneSidedRight {
		t.Fatalf("pair state = %s, want %s", state, domain.PairOneSidedRight)
	}

	res = f.swipe(t, "B", "A", true)
	if res.Outcome != domain.OutcomeMatchFormed || res.PartnerID != "A" {
		t.Fatalf("B right = %+v, want match with A", res)
	}
	if !f.profile(t, "A").IsMatchedWith("B") || !f.profile(t, "B").IsMatchedWith("A") {
		t.Fatal("match should be symmetric")
	}
	if state, _ := f.swipes.PairState(ctx, "g1", "A", "B"); state != domain.PairMutual {
		t.Fatalf("pair state = %s, want %s", state, domain.PairMutual)
	}

	if f.events.count(domain.EventMatchFormed) != 1 {
		t.Fatalf("match events = %d, want 1", f.events.count(domain.EventMatchFormed))
	}
	e := f.events.events[0]
	if e.GuildID != "g1" || e.UserID != "B" || e.PartnerID != "A" || e.ID == "" {
		t.Fatalf("event = %+v, want B matched with A", e)
	}

	if _, err := f.swipes.Swipe(ctx, "g1", "B", "A", true); !errors.Is(err, domain.ErrAlreadyMatched) {
		t.Fatalf("repeat swipe error = %v, want %v", err, domain.ErrAlreadyMatched)
	}
	if f.events.count(domain.EventMatchFormed) != 1 {
		t.Fatal("a repeated swipe must not emit a second match")
	}
}

func TestLeftSwipeExcludesCandidate(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	f.seedScenario(t)
	ctx := context.Background()

	res := f.swipe(t, "A", "B", false)
	if res.Outcome != domain.OutcomeNoMatch {
		t.Fatalf("outcome = %s, want %s", res.Outcome, domain.OutcomeNoMatch)
	}
	if _, found, _ := f.feed.NextCandidate(ctx, "g1", "A"); found {
		t.Fatal("B should no longer be offered to A")
	}

	res = f.swipe(t, "B", "A", true)
	if res.Outcome != domain.OutcomePending {
		t.Fatalf("outcome = %s, want %s", res.Outcome, domain.OutcomePending)
	}
	if state, _ := f.swipes.PairState(ctx, "g1", "A", "B"); state != domain.PairRejected {
		t.Fatalf("pair state = %s, want %s", state, domain.PairRejected)
	}
}

func TestLatestSwipeWins(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	f.seedScenario(t)

	f.swipe(t, "A", "B", false)
	f.swipe(t, "A", "B", true)
	res := f.swipe(t, "B", "A", true)
	if res.Outcome != domain.OutcomeMatchFormed {
		t.Fatalf("outcome = %s, want %s", res.Outcome, domain.OutcomeMatchFormed)
	}
}

func TestSwipeRejectsInvalidRequests(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	f.seedScenario(t)
	ctx := context.Background()

	if _, err := f.swipes.Swipe(ctx, "g1", "A", "A", true); !domain.IsValidation(err) {
		t.Fatalf("self swipe error = %v, want ValidationError", err)
	}
	if _, err := f.swipes.Swipe(ctx, "g1", "A", "ghost", true); !errors.Is(err, domain.ErrProfileNotFound) {
		t.Fatalf("unknown target error = %v, want %v", err, domain.ErrProfileNotFound)
	}
	if _, err := f.swipes.Swipe(ctx, "g2", "A", "B", true); !errors.Is(err, domain.ErrProfileNotFound) {
		t.Fatalf("other guild error = %v, want %v", err, domain.ErrProfileNotFound)
	}
}

func TestRightSwipeOnMatchedTargetStaysPending(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	f.seedScenario(t)
	f.create(t, storetest.NewProfile("g1", "C", 26, domain.GenderMale, domain.GenderFemale))

	f.swipe(t, "B", "A", true)
	f.swipe(t, "B", "C", true)
	f.swipe(t, "A", "B", true)

	res := f.swipe(t, "C", "B", true)
	if res.Outcome != domain.OutcomePending {
		t.Fatalf("outcome = %s, want %s", res.Outcome, domain.OutcomePending)
	}
	if f.profile(t, "C").IsMatched() || !f.profile(t, "B").IsMatchedWith("A") {
		t.Fatal("existing match must not change")
	}
}

func TestUnmatchClearsBothSidesAndRejectsPair(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	f.seedScenario(t)
	ctx := context.Background()
	f.swipe(t, "A", "B", true)
	f.swipe(t, "B", "A", true)

	partner, err := f.swipes.Unmatch(ctx, "g1", "A")
	if err != nil {
		t.Fatalf("Unmatch() error = %v", err)
	}
	if partner != "B" {
		t.Fatalf("partner = %q, want B", partner)
	}
	if f.profile(t, "A").IsMatched() || f.profile(t, "B").IsMatched() {
		t.Fatal("both sides should be unmatched")
	}
	if state, _ := f.swipes.PairState(ctx, "g1", "A", "B"); state != domain.PairRejected {
		t.Fatalf("pair state = %s, want %s", state, domain.PairRejected)
	}
	if _, found, _ := f.feed.NextCandidate(ctx, "g1", "B"); found {
		t.Fatal("former partner should stay excluded")
	}
	if f.events.count(domain.EventUnmatched) != 1 {
		t.Fatalf("unmatch events = %d, want 1", f.events.count(domain.EventUnmatched))
	}

	if _, err := f.swipes.Unmatch(ctx, "g1", "A"); !errors.Is(err, domain.ErrNotMatched) {
		t.Fatalf("second Unmatch() error = %v, want %v", err, domain.ErrNotMatched)
	}

	for _, dir := range [][2]string{{"A", "B"}, {"B", "A"}} {
		latest, err := f.store.Swipes().Latest(ctx, "g1", dir[0], dir[1])
		if err != nil || latest.RightSwipe {
			t.Fatalf("latest %s->%s = %+v, %v, want a left swipe", dir[0], dir[1], latest, err)
		}
	}
}

func TestRematchAfterUnmatchNeedsBothSides(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	f.seedScenario(t)
	ctx := context.Background()
	f.swipe(t, "A", "B", true)
	f.swipe(t, "B", "A", true)
	if _, err := f.swipes.Unmatch(ctx, "g1", "A"); err != nil {
		t.Fatalf("Unmatch() error = %v", err)
	}

	res := f.swipe(t, "A", "B", true)
	if res.Outcome != domain.OutcomePending {
		t.Fatalf("A right after unmatch = %s, want %s", res.Outcome, domain.OutcomePending)
	}
	if f.events.count(domain.EventMatchFormed) != 1 {
		t.Fatal("the old right swipe from B must not re-form the match")
	}

	res = f.swipe(t, "B", "A", true)
	if res.Outcome != domain.OutcomeMatchFormed {
		t.Fatalf("B right after unmatch = %s, want %s", res.Outcome, domain.OutcomeMatchFormed)
	}
	if !f.profile(t, "A").IsMatchedWith("B") || !f.profile(t, "B").IsMatchedWith("A") {
		t.Fatal("match should be symmetric")
	}
}

func TestUnmatchPair(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	f.seedScenario(t)
	ctx := context.Background()

	if err := f.swipes.UnmatchPair(ctx, "g1", "A", "B"); !errors.Is(err, domain.ErrNotMatched) {
		t.Fatalf("UnmatchPair() on unmatched pair = %v, want %v", err, domain.ErrNotMatched)
	}

	f.swipe(t, "A", "B", true)
	f.swipe(t, "B", "A", true)
	if err := f.swipes.UnmatchPair(ctx, "g1", "B", "A"); err != nil {
		t.Fatalf("UnmatchPair() error = %v", err)
	}
	if f.profile(t, "A").IsMatched() || f.profile(t, "B").IsMatched() {
		t.Fatal("both sides should be unmatched")
	}
	latest, err := f.store.Swipes().Latest(ctx, "g1", "B", "A")
	if err != nil || latest.RightSwipe {
		t.Fatalf("latest B->A = %+v, %v, want a left swipe", latest, err)
	}
}

func TestUnmatchDetectsAsymmetricMatch(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	f.seedScenario(t)
	ctx := context.Background()

	partner := "B"
	if err := f.store.Profiles().SetMatchedWith(ctx, "g1", "A", &partner); err != nil {
		t.Fatalf("SetMatchedWith() error = %v", err)
	}

	_, err := f.swipes.Unmatch(ctx, "g1", "A")
	if !domain.IsConsistencyViolation(err) {
		t.Fatalf("Unmatch() error = %v, want consistency violation", err)
	}
	if !f.profile(t, "A").IsMatchedWith("B") {
		t.Fatal("state must not be self-healed")
	}
	if has, _ := f.store.Swipes().HasAny(ctx, "g1", "A", "B"); has {
		t.Fatal("no swipe should be written by an aborted unmatch")
	}
	if len(f.events.events) != 0 {
		t.Fatalf("events = %d, want 0", len(f.events.events))
	}
}

func TestUnmatchWithMissingPartnerIsAConsistencyViolation(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	f.seedScenario(t)
	ctx := context.Background()

	partner := "gone"
	if err := f.store.Profiles().SetMatchedWith(ctx, "g1", "A", &partner); err != nil {
		t.Fatalf("SetMatchedWith() error = %v", err)
	}
	if _, err := f.swipes.Unmatch(ctx, "g1", "A"); !domain.IsConsistencyViolation(err) {
		t.Fatalf("Unmatch() error = %v, want consistency violation", err)
	}
}

func TestSwipeRetriesTransientCommitFailure(t *testing.T) {
	t.Parallel()
	f := newFixture(t, &commitFailStore{remaining: 1})
	f.seedScenario(t)
	ctx := context.Background()

	if err := f.store.Swipes().Record(ctx, &domain.Swipe{GuildID: "g1", SwiperID: "B", SwipedID: "A", RightSwipe: true}); err != nil {
		t.Fatalf("record: %v", err)
	}

	res, err := f.swipes.Swipe(ctx, "g1", "A", "B", true)
	if err != nil {
		t.Fatalf("Swipe() error = %v", err)
	}
	if res.Outcome != domain.OutcomeMatchFormed {
		t.Fatalf("outcome = %s, want %s", res.Outcome, domain.OutcomeMatchFormed)
	}
	if f.events.count(domain.EventMatchFormed) != 1 {
		t.Fatalf("match events = %d, want 1", f.events.count(domain.EventMatchFormed))
	}
	removed, err := f.store.Swipes().DeleteByUser(ctx, "g1", "A")
	if err != nil {
		t.Fatalf("DeleteByUser() error = %v", err)
	}
	if removed != 2 {
		t.Fatalf("swipes involving A = %d, want 2 (the failed attempt must roll back)", removed)
	}
}

func TestPublishFailureKeepsMatch(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	f.events.err = errors.New("redis down")
	f.seedScenario(t)

	f.swipe(t, "A", "B", true)
	res := f.swipe(t, "B", "A", true)
	if res.Outcome != domain.OutcomeMatchFormed {
		t.Fatalf("outcome = %s, want %s", res.Outcome, domain.OutcomeMatchFormed)
	}
	if !f.profile(t, "A").IsMatchedWith("B") {
		t.Fatal("match must survive a publish failure")
	}
}

func TestConcurrentSwipesFormOneMatch(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	f.create(t,
		storetest.NewProfile("g1", "A", 25, domain.GenderMale, domain.GenderFemale),
		storetest.NewProfile("g1", "B", 25, domain.GenderFemale, domain.GenderMale),
		storetest.NewProfile("g1", "C", 25, domain.GenderFemale, domain.GenderMale),
	)
	f.swipe(t, "B", "A", true)
	f.swipe(t, "C", "A", true)

	var wg sync.WaitGroup
	var formed int32
	for i := 0; i < 10; i++ {
		for _, target := range []string{"B", "C"} {
			wg.Add(1)
			go func(target string) {
				defer wg.Done()
				res, err := f.swipes.Swipe(context.Background(), "g1", "A", target, true)
				if err != nil {
					if !errors.Is(err, domain.ErrAlreadyMatched) {
						t.Errorf("Swipe() error = %v", err)
					}
					return
				}
				if res.Outcome == domain.OutcomeMatchFormed {
					atomic.AddInt32(&formed, 1)
				}
			}(target)
		}
	}
	wg.Wait()

	if formed != 1 {
		t.Fatalf("matches formed = %d, want 1", formed)
	}
	a := f.profile(t, "A")
	if !a.IsMatched() {
		t.Fatal("A should be matched")
	}
	partner := f.profile(t, *a.MatchedWith)
	if !partner.IsMatchedWith("A") {
		t.Fatal("match should be symmetric")
	}
	if f.events.count(domain.EventMatchFormed) != 1 {
		t.Fatalf("match events = %d, want 1", f.events.count(domain.EventMatchFormed))
	}
}
