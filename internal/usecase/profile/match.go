package profile

import (
	"context"
	"fmt"

	"github.com/gdugdh24/guildmatch/internal/domain"
	"github.com/gdugdh24/guildmatch/internal/repository"
)

// LockPair locks both profiles in canonical order and returns them in argument order.
func LockPair(ctx context.Context, tx repository.Tx, guildID, a, b string) (*domain.Profile, *domain.Profile, error) {
	first, second := domain.CanonicalPair(a, b)

	p1, err := tx.Profiles().GetForUpdate(ctx, guildID, first)
	if err != nil {
		return nil, nil, err
	}
	p2, err := tx.Profiles().GetForUpdate(ctx, guildID, second)
	if err != nil {
		return nil, nil, err
	}
	if first == a {
		return p1, p2, nil
	}
	return p2, p1, nil
}

// SetMatch links a and b. Both rows must already be locked by the caller.
func SetMatch(ctx context.Context, tx repository.Tx, guildID, a, b string) error {
	if err := tx.Profiles().SetMatchedWith(ctx, guildID, a, &b); err != nil {
		return fmt.Errorf("failed to set match for %s: %w", a, err)
	}
	if err := tx.Profiles().SetMatchedWith(ctx, guildID, b, &a); err != nil {
		return fmt.Errorf("failed to set match for %s: %w", b, err)
	}
	return nil
}

// ClearMatch locks both profiles and unlinks them. A one-sided link is a
// ConsistencyViolation and nothing is written.
func ClearMatch(ctx context.Context, tx repository.Tx, guildID, a, b string) error {
	pa, pb, err := LockPair(ctx, tx, guildID, a, b)
	if err != nil {
		return err
	}

	aToB, bToA := pa.IsMatchedWith(b), pb.IsMatchedWith(a)
	switch {
	case !aToB && !bToA:
		return domain.ErrNotMatched
	case !aToB:
		return &domain.ConsistencyViolation{GuildID: guildID, UserID: a,
			Detail: fmt.Sprintf("%s is matched with %s but not the reverse", b, a)}
	case !bToA:
		return &domain.ConsistencyViolation{GuildID: guildID, UserID: b,
			Detail: fmt.Sprintf("%s is matched with %s but not the reverse", a, b)}
	}

	if err := tx.Profiles().SetMatchedWith(ctx, guildID, a, nil); err != nil {
		return fmt.Errorf("failed to clear match for %s: %w", a, err)
	}
	if err := tx.Profiles().SetMatchedWith(ctx, guildID, b, nil); err != nil {
		return fmt.Errorf("failed to clear match for %s: %w", b, err)
	}
	return nil
}
