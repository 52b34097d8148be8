// Package discord is the Discord front end: slash commands, swipe buttons and
// direct-message notifications.
package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/gdugdh24/guildmatch/internal/domain"
	"github.com/gdugdh24/guildmatch/internal/usecase/feed"
	"github.com/gdugdh24/guildmatch/internal/usecase/profile"
	"github.com/gdugdh24/guildmatch/internal/usecase/swipe"
)

const interactionTimeout = 10 * time.Second

type Bot struct {
	session  *discordgo.Session
	appID    string
	guildID  string
	profiles *profile.ProfileUseCase
	feed     *feed.FeedUseCase
	swipes   *swipe.SwipeUseCase
	notifier *Notifier
	logger   *slog.Logger
}

// NewBot creates the session. Commands are registered globally unless
// guildID is set, in which case they go to that guild only.
func NewBot(
	token, appID, guildID string,
	profiles *profile.ProfileUseCase,
	feedUseCase *feed.FeedUseCase,
	swipes *swipe.SwipeUseCase,
	logger *slog.Logger,
) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsDirectMessages

	b := &Bot{
		session:  session,
		appID:    appID,
		guildID:  guildID,
		profiles: profiles,
		feed:     feedUseCase,
		swipes:   swipes,
		notifier: NewNotifier(session, logger),
		logger:   logger,
	}
	session.AddHandler(b.onReady)
	session.AddHandler(b.onInteraction)
	return b, nil
}

// Notifier returns the DM notifier bound to the bot's session.
func (b *Bot) Notifier() *Notifier {
	return b.notifier
}

// Open connects to the gateway and registers the slash commands.
func (b *Bot) Open() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	registered, err := b.session.ApplicationCommandBulkOverwrite(b.appID, b.guildID, Commands())
	if err != nil {
		_ = b.session.Close()
		return fmt.Errorf("failed to register commands: %w", err)
	}
	b.logger.Info("slash commands registered", "count", len(registered), "guild_id", b.guildID)
	return nil
}

// Close waits for pending notifications, then closes the session.
func (b *Bot) Close() error {
	b.notifier.Wait()
	return b.session.Close()
}

func (b *Bot) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	b.logger.Info("discord bot ready",
		"user", r.User.Username,
		"user_id", r.User.ID,
		"guilds", len(r.Guilds),
	)
}

func (b *Bot) onInteraction(s *discordgo.Session, ic *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
	defer cancel()

	resp := b.handle(ctx, ic.Interaction)
	if resp == nil {
		return
	}
	if err := s.InteractionRespond(ic.Interaction, resp); err != nil {
		b.logger.ErrorContext(ctx, "failed to respond to interaction",
			"interaction_id", ic.ID,
			"guild_id", ic.GuildID,
			"error", err,
		)
	}
}

func interactionUser(i *discordgo.Interaction) string {
	switch {
	case i.Member != nil && i.Member.User != nil:
		return i.Member.User.ID
	case i.User != nil:
		return i.User.ID
	}
	return ""
}

// handle builds the reply for one interaction; nil means no reply.
func (b *Bot) handle(ctx context.Context, i *discordgo.Interaction) *discordgo.InteractionResponse {
	userID := interactionUser(i)
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		if i.GuildID == "" || userID == "" {
			return ephemeral(msgGuildOnly)
		}
		return b.handleCommand(ctx, i.GuildID, userID, i.ApplicationCommandData())
	case discordgo.InteractionMessageComponent:
		if i.GuildID == "" || userID == "" {
			return ephemeral(msgGuildOnly)
		}
		return b.handleComponent(ctx, i.GuildID, userID, i.MessageComponentData())
	}
	return nil
}

func (b *Bot) handleCommand(ctx context.Context, guildID, userID string, data discordgo.ApplicationCommandInteractionData) *discordgo.InteractionResponse {
	opts := newOptionSet(data.Options)
	switch data.Name {
	case cmdCreateProfile:
		if _, err := b.profiles.CreateProfile(ctx, guildID, userID, attrsFromOptions(opts)); err != nil {
			return b.failure(ctx, data.Name, err)
		}
		return ephemeral(msgProfileCreated)

	case cmdUpdateProfile:
		patch, changed := patchFromOptions(opts)
		if !changed {
			return ephemeral(msgNothingToUpdate)
		}
		if _, err := b.profiles.UpdateProfile(ctx, guildID, userID, patch); err != nil {
			return b.failure(ctx, data.Name, err)
		}
		return ephemeral(msgProfileUpdated)

	case cmdDeleteProfile:
		err := b.profiles.DeleteProfile(ctx, guildID, userID)
		if errors.Is(err, domain.ErrProfileNotFound) {
			return ephemeral(msgNoProfileDelete)
		}
		if err != nil {
			return b.failure(ctx, data.Name, err)
		}
		return ephemeral(msgProfileDeleted)

	case cmdProfile:
		target := userID
		if v, ok := opts.str(optUser); ok && v != "" {
			target = v
		}
		p, err := b.profiles.GetProfile(ctx, guildID, target)
		if errors.Is(err, domain.ErrProfileNotFound) && target != userID {
			return ephemeral(msgMemberNoProfile)
		}
		if err != nil {
			return b.failure(ctx, data.Name, err)
		}
		return ephemeral("", profileEmbed(p))

	case cmdStartMatching:
		candidate, found, err := b.feed.NextCandidate(ctx, guildID, userID)
		if err != nil {
			return b.failure(ctx, data.Name, err)
		}
		if !found {
			return ephemeral(msgOutOfCandidates)
		}
		resp := ephemeral(msgSwipePrompt, candidateEmbed(candidate))
		resp.Data.Components = swipeButtons(candidate.UserID)
		return resp

	case cmdUnmatch:
		if _, err := b.swipes.Unmatch(ctx, guildID, userID); err != nil {
			return b.failure(ctx, data.Name, err)
		}
		return ephemeral(msgUnmatched)
	}

	b.logger.WarnContext(ctx, "unknown command", "command", data.Name)
	return nil
}

func (b *Bot) handleComponent(ctx context.Context, guildID, userID string, data discordgo.MessageComponentInteractionData) *discordgo.InteractionResponse {
	targetID, right, ok := parseSwipeCustomID(data.CustomID)
	if !ok {
		return update(msgUnknownComponent, nil, nil)
	}

	result, err := b.swipes.Swipe(ctx, guildID, userID, targetID, right)
	if errors.Is(err, domain.ErrProfileNotFound) && b.hasProfile(ctx, guildID, userID) {
		return update(msgTargetGone, nil, nil)
	}
	if err != nil {
		return update(b.failureMessage(ctx, "swipe", err), nil, nil)
	}
	if result.Outcome == domain.OutcomeMatchFormed {
		return update(matchMessage(result.PartnerID), nil, nil)
	}

	candidate, found, err := b.feed.NextCandidate(ctx, guildID, userID)
	if err != nil {
		return update(b.failureMessage(ctx, "next_candidate", err), nil, nil)
	}
	if !found {
		return update(msgOutOfCandidates, nil, nil)
	}
	return update(msgSwipePrompt, candidateEmbed(candidate), swipeButtons(candidate.UserID))
}

func (b *Bot) hasProfile(ctx context.Context, guildID, userID string) bool {
	_, err := b.profiles.GetProfile(ctx, guildID, userID)
	return err == nil
}

func (b *Bot) failure(ctx context.Context, command string, err error) *discordgo.InteractionResponse {
	return ephemeral(b.failureMessage(ctx, command, err))
}

func (b *Bot) failureMessage(ctx context.Context, command string, err error) string {
	msg, internal := userMessage(err)
	if internal {
		b.logger.ErrorContext(ctx, "command failed", "command", command, "error", err)
	}
	return msg
}
