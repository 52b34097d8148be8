package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gdugdh24/guildmatch/internal/domain"
	"github.com/gdugdh24/guildmatch/internal/events"
	"github.com/gdugdh24/guildmatch/internal/repository"
	"github.com/gdugdh24/guildmatch/internal/usecase/txn"
)

type ProfileUseCase struct {
	runner    *txn.Runner
	policies  domain.PolicySet
	validator *Validator
	publisher events.Publisher
	logger    *slog.Logger
}

func NewProfileUseCase(
	runner *txn.Runner,
	policies domain.PolicySet,
	publisher events.Publisher,
	logger *slog.Logger,
) *ProfileUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileUseCase{
		runner:    runner,
		policies:  policies,
		validator: NewValidator(),
		publisher: publisher,
		logger:    logger,
	}
}

func (uc *ProfileUseCase) prepare(guildID string, attrs domain.ProfileAttrs) (domain.ProfileAttrs, error) {
	policy := uc.policies.For(guildID)
	attrs = Normalize(attrs, policy)
	if err := uc.validator.Validate(attrs, policy); err != nil {
		return attrs, err
	}
	return attrs, nil
}

func newProfile(guildID, userID string, attrs domain.ProfileAttrs) *domain.Profile {
	p := &domain.Profile{GuildID: guildID, UserID: userID}
	p.Apply(attrs)
	return p
}

// CreateProfile registers a new profile; it fails if one already exists.
func (uc *ProfileUseCase) CreateProfile(ctx context.Context, guildID, userID string, attrs domain.ProfileAttrs) (*domain.Profile, error) {
	attrs, err := uc.prepare(guildID, attrs)
	if err != nil {
		return nil, err
	}

	var profile *domain.Profile
	err = uc.runner.Do(ctx, "create_profile", func(ctx context.Context, tx repository.Tx) error {
		profile = newProfile(guildID, userID, attrs)
		return tx.Profiles().Create(ctx, profile)
	})
	if err != nil {
		return nil, err
	}

	uc.logger.InfoContext(ctx, "profile created", "guild_id", guildID, "user_id", userID)
	return profile, nil
}

// UpdateProfile merges patch into the stored profile and validates the result.
func (uc *ProfileUseCase) UpdateProfile(ctx context.Context, guildID, userID string, patch domain.ProfilePatch) (*domain.Profile, error) {
	var profile *domain.Profile
	err := uc.runner.Do(ctx, "update_profile", func(ctx context.Context, tx repository.Tx) error {
		existing, err := tx.Profiles().GetForUpdate(ctx, guildID, userID)
		if err != nil {
			return err
		}
		attrs, err := uc.prepare(guildID, existing.Attrs().Merge(patch))
		if err != nil {
			return err
		}
		existing.Apply(attrs)
		if err := tx.Profiles().Update(ctx, existing); err != nil {
			return err
		}
		profile = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// UpsertProfile inserts the profile or replaces its attributes. An existing
// match is kept.
func (uc *ProfileUseCase) UpsertProfile(ctx context.Context, guildID, userID string, attrs domain.ProfileAttrs) (*domain.Profile, error) {
	attrs, err := uc.prepare(guildID, attrs)
	if err != nil {
		return nil, err
	}

	var profile *domain.Profile
	err = uc.runner.Do(ctx, "upsert_profile", func(ctx context.Context, tx repository.Tx) error {
		profile = newProfile(guildID, userID, attrs)
		return tx.Profiles().Upsert(ctx, profile)
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func (uc *ProfileUseCase) GetProfile(ctx context.Context, guildID, userID string) (*domain.Profile, error) {
	var profile *domain.Profile
	err := uc.runner.Read(ctx, "get_profile", func(ctx context.Context, repos repository.Tx) error {
		p, err := repos.Profiles().Get(ctx, guildID, userID)
		profile = p
		return err
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// DeleteProfile removes the profile and every swipe involving the user in
// the guild. A matched partner is released and notified.
func (uc *ProfileUseCase) DeleteProfile(ctx context.Context, guildID, userID string) error {
	var partnerID string
	err := uc.runner.Do(ctx, "delete_profile", func(ctx context.Context, tx repository.Tx) error {
		partnerID = ""
		existing, err := tx.Profiles().Get(ctx, guildID, userID)
		if err != nil {
			return err
		}

		if existing.IsMatched() {
			partnerID = *existing.MatchedWith
			if err := releasePartner(ctx, tx, guildID, userID, partnerID); err != nil {
				return err
			}
		} else {
			locked, err := tx.Profiles().GetForUpdate(ctx, guildID, userID)
			if err != nil {
				return err
			}
			if locked.IsMatched() {
				// A match formed between the unlocked read and the lock.
				return &domain.TransientStoreError{Op: "delete_profile", Err: domain.ErrAlreadyMatched}
			}
		}

		if _, err := tx.Swipes().DeleteByUser(ctx, guildID, userID); err != nil {
			return fmt.Errorf("failed to delete swipes: %w", err)
		}
		return tx.Profiles().Delete(ctx, guildID, userID)
	})
	if err != nil {
		return err
	}

	uc.logger.InfoContext(ctx, "profile deleted", "guild_id", guildID, "user_id", userID)
	if partnerID != "" {
		event := events.NewMatchEvent(domain.EventUnmatched, guildID, userID, partnerID, domain.UnmatchReasonProfileDeleted)
		if err := uc.publisher.Publish(ctx, event); err != nil {
			uc.logger.ErrorContext(ctx, "failed to publish unmatch event", "event_id", event.ID, "error", err)
		}
	}
	return nil
}

// releasePartner clears the match between a user being deleted and partnerID.
func releasePartner(ctx context.Context, tx repository.Tx, guildID, userID, partnerID string) error {
	err := ClearMatch(ctx, tx, guildID, userID, partnerID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrProfileNotFound):
		return &domain.ConsistencyViolation{GuildID: guildID, UserID: userID,
			Detail: fmt.Sprintf("matched with missing profile %s", partnerID)}
	case errors.Is(err, domain.ErrNotMatched):
		// The match changed between the unlocked read and the lock.
		return &domain.TransientStoreError{Op: "delete_profile", Err: err}
	}
	return err
}
