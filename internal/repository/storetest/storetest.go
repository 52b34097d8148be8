// Package storetest holds behaviour checks shared by every repository.Store
// implementation.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gdugdh24/guildmatch/internal/domain"
	"github.com/gdugdh24/guildmatch/internal/repository"
)

// Factory returns an empty store. It is called once per subtest.
type Factory func(t *testing.T) repository.Store

// Run exercises the repository contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("profile lifecycle", func(t *testing.T) { testProfileLifecycle(t, newStore(t)) })
	t.Run("upsert keeps match", func(t *testing.T) { testUpsertKeepsMatch(t, newStore(t)) })
	t.Run("list candidates", func(t *testing.T) { testListCandidates(t, newStore(t)) })
	t.Run("latest swipe", func(t *testing.T) { testLatestSwipe(t, newStore(t)) })
	t.Run("delete swipes by user", func(t *testing.T) { testDeleteByUser(t, newStore(t)) })
	t.Run("rollback", func(t *testing.T) { testRollback(t, newStore(t)) })
}

// NewProfile builds a valid profile for tests.
func NewProfile(guildID, userID string, age int, gender domain.Gender, attracted ...domain.Gender) *domain.Profile {
	return &domain.Profile{
		GuildID:          guildID,
		UserID:           userID,
		Age:              age,
		Gender:           gender,
		Bio:              "bio of " + userID,
		LookingFor:       domain.LookingForDating,
		AttractedGenders: attracted,
		PreferredMinAge:  domain.DefaultMinAge,
		PreferredMaxAge:  domain.DefaultMaxAge,
	}
}

func testProfileLifecycle(t *testing.T, store repository.Store) {
	ctx := context.Background()
	profiles := store.Profiles()

	p := NewProfile("g1", "alice", 25, domain.GenderFemale, domain.GenderMale, domain.GenderNonBinary)
	if err := profiles.Create(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.ID == 0 {
		t.Fatal("expected id to be assigned")
	}
	if p.CreatedAt.IsZero() {
		t.Fatal("expected created_at to be set")
	}

	dup := NewProfile("g1", "alice", 30, domain.GenderFemale, domain.GenderMale)
	if err := profiles.Create(ctx, dup); !errors.Is(err, domain.ErrProfileAlreadyExists) {
		t.Fatalf("duplicate create error = %v, want %v", err, domain.ErrProfileAlreadyExists)
	}

	other := NewProfile("g2", "alice", 30, domain.GenderFemale, domain.GenderMale)
	if err := profiles.Create(ctx, other); err != nil {
		t.Fatalf("create in second guild: %v", err)
	}

	got, err := profiles.Get(ctx, "g1", "alice")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Age != 25 || got.Gender != domain.GenderFemale || got.LookingFor != domain.LookingForDating {
		t.Fatalf("get = %+v, want stored attributes", got)
	}
	if len(got.AttractedGenders) != 2 || got.AttractedGenders[1] != domain.GenderNonBinary {
		t.Fatalf("attracted genders = %v, want [Male Non-Binary]", got.AttractedGenders)
	}
	if got.MatchedWith != nil {
		t.Fatalf("matched_with = %v, want nil", *got.MatchedWith)
	}

	got.Age = 26
	got.Bio = "updated"
	if err := profiles.Update(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	reread, err := profiles.Get(ctx, "g1", "alice")
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if reread.Age != 26 || reread.Bio != "updated" {
		t.Fatalf("after update = %+v", reread)
	}

	missing := NewProfile("g1", "nobody", 30, domain.GenderMale, domain.GenderFemale)
	if err := profiles.Update(ctx, missing); !errors.Is(err, domain.ErrProfileNotFound) {
		t.Fatalf("update missing error = %v, want %v", err, domain.ErrProfileNotFound)
	}

	if err := profiles.Delete(ctx, "g1", "alice"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := profiles.Get(ctx, "g1", "alice"); !errors.Is(err, domain.ErrProfileNotFound) {
		t.Fatalf("get after delete error = %v, want %v", err, domain.ErrProfileNotFound)
	}
	if err := profiles.Delete(ctx, "g1", "alice"); !errors.Is(err, domain.ErrProfileNotFound) {
		t.Fatalf("second delete error = %v, want %v", err, domain.ErrProfileNotFound)
	}
	if _, err := profiles.Get(ctx, "g2", "alice"); err != nil {
		t.Fatalf("profile in other guild should survive: %v", err)
	}
}

func testUpsertKeepsMatch(t *testing.T, store repository.Store) {
	ctx := context.Background()
	profiles := store.Profiles()

	a := NewProfile("g1", "a", 25, domain.GenderMale, domain.GenderFemale)
	if err := profiles.Upsert(ctx, a); err != nil {
		t.Fatalf("upsert insert: %v", err)
	}
	firstID := a.ID
	partner := "b"
	if err := profiles.SetMatchedWith(ctx, "g1", "a", &partner); err != nil {
		t.Fatalf("set matched_with: %v", err)
	}

	a.Age = 40
	a.MatchedWith = nil
	if err := profiles.Upsert(ctx, a); err != nil {
		t.Fatalf("upsert replace: %v", err)
	}
	if a.ID != firstID {
		t.Fatalf("id = %d, want %d", a.ID, firstID)
	}
	if !a.IsMatchedWith("b") {
		t.Fatalf("matched_with after upsert = %v, want b", a.MatchedWith)
	}

	if err := profiles.SetMatchedWith(ctx, "g1", "a", nil); err != nil {
		t.Fatalf("clear matched_with: %v", err)
	}
	got, err := profiles.Get(ctx, "g1", "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.IsMatched() || got.Age != 40 {
		t.Fatalf("got = %+v, want unmatched age 40", got)
	}
	if err := profiles.SetMatchedWith(ctx, "g1", "ghost", &partner); !errors.Is(err, domain.ErrProfileNotFound) {
		t.Fatalf("set on missing error = %v, want %v", err, domain.ErrProfileNotFound)
	}
}

func testListCandidates(t *testing.T, store repository.Store) {
	ctx := context.Background()
	profiles := store.Profiles()

	for _, p := range []*domain.Profile{
		NewProfile("g1", "me", 25, domain.GenderMale, domain.GenderFemale),
		NewProfile("g1", "c1", 22, domain.GenderFemale, domain.GenderMale),
		NewProfile("g1", "c2", 40, domain.GenderFemale, domain.GenderMale),
		NewProfile("g1", "c3", 24, domain.GenderFemale, domain.GenderMale),
		NewProfile("g1", "c4", 26, domain.GenderFemale, domain.GenderMale),
		NewProfile("g1", "c5", 27, domain.GenderFemale, domain.GenderMale),
		NewProfile("g2", "c6", 25, domain.GenderFemale, domain.GenderMale),
	} {
		if err := profiles.Create(ctx, p); err != nil {
			t.Fatalf("create %s: %v", p.UserID, err)
		}
	}
	partner := "someone"
	if err := profiles.SetMatchedWith(ctx, "g1", "c4", &partner); err != nil {
		t.Fatalf("set matched_with: %v", err)
	}
	if err := store.Swipes().Record(ctx, &domain.Swipe{GuildID: "g1", SwiperID: "me", SwipedID: "c3"}); err != nil {
		t.Fatalf("record: %v", err)
	}
	// A swipe in the other direction does not exclude.
	if err := store.Swipes().Record(ctx, &domain.Swipe{GuildID: "g1", SwiperID: "c5", SwipedID: "me", RightSwipe: true}); err != nil {
		t.Fatalf("record: %v", err)
	}

	q := repository.CandidateQuery{GuildID: "g1", RequesterID: "me", MinAge: 20, MaxAge: 30, Limit: 10}
	got, err := profiles.ListCandidates(ctx, q)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if ids := userIDs(got); !equal(ids, []string{"c1", "c5"}) {
		t.Fatalf("candidates = %v, want [c1 c5]", ids)
	}

	q.Limit = 1
	q.Offset = 1
	got, err = profiles.ListCandidates(ctx, q)
	if err != nil {
		t.Fatalf("list page: %v", err)
	}
	if ids := userIDs(got); !equal(ids, []string{"c5"}) {
		t.Fatalf("second page = %v, want [c5]", ids)
	}

	q.Offset = 5
	got, err = profiles.ListCandidates(ctx, q)
	if err != nil {
		t.Fatalf("list past end: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("past end = %v, want empty", userIDs(got))
	}
}

func testLatestSwipe(t *testing.T, store repository.Store) {
	ctx := context.Background()
	swipes := store.Swipes()

	if _, err := swipes.Latest(ctx, "g1", "a", "b"); !errors.Is(err, domain.ErrSwipeNotFound) {
		t.Fatalf("latest on empty error = %v, want %v", err, domain.ErrSwipeNotFound)
	}
	has, err := swipes.HasAny(ctx, "g1", "a", "b")
	if err != nil || has {
		t.Fatalf("has any = %v, %v, want false", has, err)
	}

	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	first := &domain.Swipe{GuildID: "g1", SwiperID: "a", SwipedID: "b", RightSwipe: true, Timestamp: ts}
	second := &domain.Swipe{GuildID: "g1", SwiperID: "a", SwipedID: "b", RightSwipe: false, Timestamp: ts}
	for _, s := range []*domain.Swipe{first, second} {
		if err := swipes.Record(ctx, s); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	if second.ID <= first.ID {
		t.Fatalf("ids = %d, %d, want increasing", first.ID, second.ID)
	}

	latest, err := swipes.Latest(ctx, "g1", "a", "b")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.ID != second.ID || latest.RightSwipe {
		t.Fatalf("latest = %+v, want the left swipe with the higher id", latest)
	}
	if !latest.Timestamp.Equal(ts) {
		t.Fatalf("timestamp = %v, want %v", latest.Timestamp, ts)
	}

	has, err = swipes.HasAny(ctx, "g1", "a", "b")
	if err != nil || !has {
		t.Fatalf("has any = %v, %v, want true", has, err)
	}
	has, err = swipes.HasAny(ctx, "g1", "b", "a")
	if err != nil || has {
		t.Fatalf("reverse has any = %v, %v, want false", has, err)
	}

	stamped := &domain.Swipe{GuildID: "g1", SwiperID: "b", SwipedID: "a", RightSwipe: true}
	if err := swipes.Record(ctx, stamped); err != nil {
		t.Fatalf("record: %v", err)
	}
	if stamped.Timestamp.IsZero() {
		t.Fatal("expected record to stamp the current time")
	}
}

func testDeleteByUser(t *testing.T, store repository.Store) {
	ctx := context.Background()
	swipes := store.Swipes()
	for _, s := range []*domain.Swipe{
		{GuildID: "g1", SwiperID: "a", SwipedID: "b"},
		{GuildID: "g1", SwiperID: "c", SwipedID: "a"},
		{GuildID: "g1", SwiperID: "b", SwipedID: "c"},
		{GuildID: "g2", SwiperID: "a", SwipedID: "b"},
	} {
		if err := swipes.Record(ctx, s); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	removed, err := swipes.DeleteByUser(ctx, "g1", "a")
	if err != nil {
		t.Fatalf("delete by user: %v", err)
	}
	if removed != 2 {
		t.Fatalf("removed = %d, want 2", removed)
	}
	for _, pair := range [][2]string{{"a", "b"}, {"c", "a"}} {
		if has, _ := swipes.HasAny(ctx, "g1", pair[0], pair[1]); has {
			t.Fatalf("swipe %v should be gone", pair)
		}
	}
	if has, _ := swipes.HasAny(ctx, "g1", "b", "c"); !has {
		t.Fatal("unrelated swipe should remain")
	}
	if has, _ := swipes.HasAny(ctx, "g2", "a", "b"); !has {
		t.Fatal("swipe in other guild should remain")
	}
}

func testRollback(t *testing.T, store repository.Store) {
	ctx := context.Background()
	a := NewProfile("g1", "a", 25, domain.GenderMale, domain.GenderFemale)
	if err := store.Profiles().Create(ctx, a); err != nil {
		t.Fatalf("create: %v", err)
	}

	boom := errors.New("boom")
	err := store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		partner := "b"
		if err := tx.Profiles().SetMatchedWith(ctx, "g1", "a", &partner); err != nil {
			return err
		}
		if err := tx.Swipes().Record(ctx, &domain.Swipe{GuildID: "g1", SwiperID: "a", SwipedID: "b"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("within tx error = %v, want %v", err, boom)
	}

	got, err := store.Profiles().Get(ctx, "g1", "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.IsMatched() {
		t.Fatal("match should have been rolled back")
	}
	if has, _ := store.Swipes().HasAny(ctx, "g1", "a", "b"); has {
		t.Fatal("swipe should have been rolled back")
	}

	err = store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		partner := "b"
		locked, err := tx.Profiles().GetForUpdate(ctx, "g1", "a")
		if err != nil {
			return err
		}
		if locked.UserID != "a" {
			t.Errorf("locked = %s, want a", locked.UserID)
		}
		return tx.Profiles().SetMatchedWith(ctx, "g1", "a", &partner)
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	got, err = store.Profiles().Get(ctx, "g1", "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.IsMatchedWith("b") {
		t.Fatalf("matched_with = %v, want b", got.MatchedWith)
	}
}

func userIDs(profiles []*domain.Profile) []string {
	ids := make([]string, 0, len(profiles))
	for _, p := range profiles {
		ids = append(ids, p.UserID)
	}
	return ids
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
