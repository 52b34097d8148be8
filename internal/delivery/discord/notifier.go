package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/gdugdh24/guildmatch/internal/domain"
)

// DirectMessenger is the part of *discordgo.Session the notifier uses.
type DirectMessenger interface {
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

const notifyTimeout = 30 * time.Second

// Notifier sends match events to the affected users by direct message.
type Notifier struct {
	dm       DirectMessenger
	logger   *slog.Logger
	inflight sync.WaitGroup
}

func NewNotifier(dm DirectMessenger, logger *slog.Logger) *Notifier {
	return &Notifier{dm: dm, logger: logger}
}

type notification struct {
	recipient string
	content   string
}

func notificationsFor(event domain.MatchEvent) []notification {
	switch event.Type {
	case domain.EventMatchFormed:
		return []notification{
			{recipient: event.UserID, content: "It's a match! You matched with " + mention(event.PartnerID) + "."},
			{recipient: event.PartnerID, content: "It's a match! You matched with " + mention(event.UserID) + "."},
		}
	case domain.EventUnmatched:
		content := mention(event.UserID) + " ended your match. You are back in the matching pool."
		if event.Reason == domain.UnmatchReasonProfileDeleted {
			content = "Your match deleted their profile. You are back in the matching pool."
		}
		return []notification{{recipient: event.PartnerID, content: content}}
	}
	return nil
}

// Dispatch is an events.Handler that delivers in the background, so an
// interaction reply never waits on Discord's DM endpoints.
func (n *Notifier) Dispatch(ctx context.Context, event domain.MatchEvent) {
	n.inflight.Add(1)
	go func() {
		defer n.inflight.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()
		n.Handle(ctx, event)
	}()
}

// Wait blocks until every dispatched delivery has finished.
func (n *Notifier) Wait() {
	n.inflight.Wait()
}

// Handle delivers synchronously. Failures are logged; users who block DMs
// simply miss the message.
func (n *Notifier) Handle(ctx context.Context, event domain.MatchEvent) {
	for _, msg := range notificationsFor(event) {
		if err := n.send(ctx, msg); err != nil {
			n.logger.WarnContext(ctx, "failed to deliver match notification",
				"event_id", event.ID,
				"type", event.Type,
				"recipient", msg.recipient,
				"error", err,
			)
		}
	}
}

func (n *Notifier) send(ctx context.Context, msg notification) error {
	if msg.recipient == "" {
		return errors.New("empty recipient")
	}
	channel, err := n.dm.UserChannelCreate(msg.recipient, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to open dm channel: %w", err)
	}
	if _, err := n.dm.ChannelMessageSend(channel.ID, msg.content, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to send dm: %w", err)
	}
	return nil
}
