package swipe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gdugdh24/guildmatch/internal/domain"
	"github.com/gdugdh24/guildmatch/internal/events"
	"github.com/gdugdh24/guildmatch/internal/repository"
	"github.com/gdugdh24/guildmatch/internal/usecase/profile"
	"github.com/gdugdh24/guildmatch/internal/usecase/txn"
)

type SwipeUseCase struct {
	runner    *txn.Runner
	publisher events.Publisher
	logger    *slog.Logger
}

func NewSwipeUseCase(runner *txn.Runner, publisher events.Publisher, logger *slog.Logger) *SwipeUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &SwipeUseCase{
		runner:    runner,
		publisher: publisher,
		logger:    logger,
	}
}

// Swipe records a decision and forms a match when interest is mutual.
func (uc *SwipeUseCase) Swipe(ctx context.Context, guildID, swiperID, swipedID string, right bool) (*domain.SwipeResult, error) {
	if swiperID == swipedID {
		return nil, domain.ErrCannotSwipeSelf
	}

	var result *domain.SwipeResult
	err := uc.runner.Do(ctx, "swipe", func(ctx context.Context, tx repository.Tx) error {
		r, err := resolveSwipe(ctx, tx, guildID, swiperID, swipedID, right)
		result = r
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.logger.InfoContext(ctx, "swipe recorded",
		"guild_id", guildID,
		"swiper_id", swiperID,
		"swiped_id", swipedID,
		"right", right,
		"outcome", result.Outcome,
	)
	if result.Outcome == domain.OutcomeMatchFormed {
		uc.publish(ctx, events.NewMatchEvent(domain.EventMatchFormed, guildID, swiperID, swipedID, ""))
	}
	return result, nil
}

func resolveSwipe(ctx context.Context, tx repository.Tx, guildID, swiperID, swipedID string, right bool) (*domain.SwipeResult, error) {
	swiper, target, err := profile.LockPair(ctx, tx, guildID, swiperID, swipedID)
	if err != nil {
		return nil, err
	}
	if swiper.IsMatched() {
		return nil, domain.ErrAlreadyMatched
	}
	if target.IsMatchedWith(swiperID) {
		return nil, &domain.ConsistencyViolation{GuildID: guildID, UserID: swipedID,
			Detail: fmt.Sprintf("%s is matched with %s but not the reverse", swipedID, swiperID)}
	}

	swipe := &domain.Swipe{
		GuildID:    guildID,
		SwiperID:   swiperID,
		SwipedID:   swipedID,
		RightSwipe: right,
	}
	if err := tx.Swipes().Record(ctx, swipe); err != nil {
		return nil, fmt.Errorf("failed to record swipe: %w", err)
	}

	result := &domain.SwipeResult{Outcome: domain.OutcomeNoMatch, Swipe: swipe}
	if !right {
		return result, nil
	}

	result.Outcome = domain.OutcomePending
	reciprocal, err := tx.Swipes().Latest(ctx, guildID, swipedID, swiperID)
	if errors.Is(err, domain.ErrSwipeNotFound) {
		return result, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read reciprocal swipe: %w", err)
	}
	if !reciprocal.RightSwipe || target.IsMatched() {
		return result, nil
	}

	if err := profile.SetMatch(ctx, tx, guildID, swiperID, swipedID); err != nil {
		return nil, err
	}
	result.Outcome = domain.OutcomeMatchFormed
	result.PartnerID = swipedID
	return result, nil
}

// Unmatch clears the user's current match and returns the former partner.
func (uc *SwipeUseCase) Unmatch(ctx context.Context, guildID, userID string) (string, error) {
	var partnerID string
	err := uc.runner.Do(ctx, "unmatch", func(ctx context.Context, tx repository.Tx) error {
		p, err := tx.Profiles().Get(ctx, guildID, userID)
		if err != nil {
			return err
		}
		if !p.IsMatched() {
			return domain.ErrNotMatched
		}
		partnerID = *p.MatchedWith

		err = clearAndReject(ctx, tx, guildID, userID, partnerID)
		switch {
		case errors.Is(err, domain.ErrProfileNotFound):
			return &domain.ConsistencyViolation{GuildID: guildID, UserID: userID,
				Detail: fmt.Sprintf("matched with missing profile %s", partnerID)}
		case errors.Is(err, domain.ErrNotMatched):
			// Cleared concurrently after the unlocked read.
			return &domain.TransientStoreError{Op: "unmatch", Err: err}
		}
		return err
	})
	if err != nil {
		return "", err
	}

	uc.unmatched(ctx, guildID, userID, partnerID)
	return partnerID, nil
}

// UnmatchPair clears the match between a and b, with a as the initiator.
func (uc *SwipeUseCase) UnmatchPair(ctx context.Context, guildID, a, b string) error {
	if a == b {
		return domain.ErrNotMatched
	}
	err := uc.runner.Do(ctx, "unmatch_pair", func(ctx context.Context, tx repository.Tx) error {
		return clearAndReject(ctx, tx, guildID, a, b)
	})
	if err != nil {
		return err
	}

	uc.unmatched(ctx, guildID, a, b)
	return nil
}

// clearAndReject unlinks the pair and records a left swipe in both
// directions, so matching again takes a new right swipe from each side.
func clearAndReject(ctx context.Context, tx repository.Tx, guildID, initiator, partner string) error {
	if err := profile.ClearMatch(ctx, tx, guildID, initiator, partner); err != nil {
		return err
	}
	for _, pair := range [][2]string{{initiator, partner}, {partner, initiator}} {
		left := &domain.Swipe{GuildID: guildID, SwiperID: pair[0], SwipedID: pair[1]}
		if err := tx.Swipes().Record(ctx, left); err != nil {
			return fmt.Errorf("failed to record unmatch swipe: %w", err)
		}
	}
	return nil
}

func (uc *SwipeUseCase) unmatched(ctx context.Context, guildID, userID, partnerID string) {
	uc.logger.InfoContext(ctx, "match cleared", "guild_id", guildID, "user_id", userID, "partner_id", partnerID)
	uc.publish(ctx, events.NewMatchEvent(domain.EventUnmatched, guildID, userID, partnerID, domain.UnmatchReasonRequested))
}

// PairState reports the state derived from the latest swipe in each direction.
func (uc *SwipeUseCase) PairState(ctx context.Context, guildID, a, b string) (domain.PairState, error) {
	var state domain.PairState
	err := uc.runner.Read(ctx, "pair_state", func(ctx context.Context, repos repository.Tx) error {
		ab, err := latestOrNil(ctx, repos, guildID, a, b)
		if err != nil {
			return err
		}
		ba, err := latestOrNil(ctx, repos, guildID, b, a)
		if err != nil {
			return err
		}
		state = domain.ResolvePairState(ab, ba)
		return nil
	})
	return state, err
}

func latestOrNil(ctx context.Context, repos repository.Tx, guildID, swiperID, swipedID string) (*domain.Swipe, error) {
	s, err := repos.Swipes().Latest(ctx, guildID, swiperID, swipedID)
	if errors.Is(err, domain.ErrSwipeNotFound) {
		return nil, nil
	}
	return s, err
}

// publish never fails the caller: the state change is already committed.
func (uc *SwipeUseCase) publish(ctx context.Context, event domain.MatchEvent) {
	if err := uc.publisher.Publish(ctx, event); err != nil {
		uc.logger.ErrorContext(ctx, "failed to publish match event",
			"event_id", event.ID,
			"type", event.Type,
			"error", err,
		)
	}
}
