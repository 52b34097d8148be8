package feed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gdugdh24/guildmatch/internal/domain"
	"github.com/gdugdh24/guildmatch/internal/repository"
	"github.com/gdugdh24/guildmatch/internal/usecase/txn"
)

const DefaultPageSize = 50

type FeedUseCase struct {
	runner   *txn.Runner
	pageSize int
	logger   *slog.Logger
}

func NewFeedUseCase(runner *txn.Runner, pageSize int, logger *slog.Logger) *FeedUseCase {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FeedUseCase{
		runner:   runner,
		pageSize: pageSize,
		logger:   logger,
	}
}

// NextCandidate returns the oldest compatible profile the user has not swiped
// on yet. found is false when the pool is exhausted.
func (uc *FeedUseCase) NextCandidate(ctx context.Context, guildID, userID string) (*domain.Profile, bool, error) {
	var candidate *domain.Profile
	err := uc.runner.Read(ctx, "next_candidate", func(ctx context.Context, repos repository.Tx) error {
		candidate = nil
		requester, err := repos.Profiles().Get(ctx, guildID, userID)
		if err != nil {
			return err
		}
		if requester.IsMatched() {
			return domain.ErrAlreadyMatched
		}

		c, err := uc.scan(ctx, repos, requester)
		if err != nil {
			return err
		}
		candidate = c
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return candidate, candidate != nil, nil
}

func (uc *FeedUseCase) scan(ctx context.Context, repos repository.Tx, requester *domain.Profile) (*domain.Profile, error) {
	query := repository.CandidateQuery{
		GuildID:     requester.GuildID,
		RequesterID: requester.UserID,
		MinAge:      requester.PreferredMinAge,
		MaxAge:      requester.PreferredMaxAge,
		Limit:       uc.pageSize,
	}

	scanned := 0
	for {
		page, err := repos.Profiles().ListCandidates(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("failed to list candidates: %w", err)
		}
		for _, c := range page {
			scanned++
			if !domain.Compatible(requester, c) {
				continue
			}
			// Storage already excludes swiped profiles; this catches a swipe
			// recorded after the page was read.
			swiped, err := repos.Swipes().HasAny(ctx, requester.GuildID, requester.UserID, c.UserID)
			if err != nil {
				return nil, fmt.Errorf("failed to check swipe history: %w", err)
			}
			if swiped {
				continue
			}
			return c, nil
		}
		if len(page) < query.Limit {
			break
		}
		query.Offset += query.Limit
	}

	uc.logger.DebugContext(ctx, "candidate pool exhausted",
		"guild_id", requester.GuildID,
		"user_id", requester.UserID,
		"scanned", scanned,
	)
	return nil, nil
}
