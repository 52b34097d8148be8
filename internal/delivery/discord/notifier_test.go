package discord

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/gdugdh24/guildmatch/internal/domain"
	"github.com/gdugdh24/guildmatch/internal/events"
)

type fakeDM struct {
	mu      sync.Mutex
	sent    map[string][]string
	blocked map[string]bool
}

func newFakeDM() *fakeDM {
	return &fakeDM{sent: make(map[string][]string), blocked: make(map[string]bool)}
}

func (f *fakeDM) UserChannelCreate(recipientID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	if f.blocked[recipientID] {
		return nil, errors.New("cannot send messages to this user")
	}
	return &discordgo.Channel{ID: "dm-" + recipientID}, nil
}

func (f *fakeDM) ChannelMessageSend(channelID string, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	recipient := strings.TrimPrefix(channelID, "dm-")
	f.sent[recipient] = append(f.sent[recipient], content)
	return &discordgo.Message{ChannelID: channelID, Content: content}, nil
}

func TestNotificationsFor(t *testing.T) {
	t.Parallel()

	formed := notificationsFor(events.NewMatchEvent(domain.EventMatchFormed, "g", "a", "b", ""))
	if len(formed) != 2 || formed[0].recipient != "a" || formed[1].recipient != "b" {
		t.Fatalf("match formed notifications = %+v", formed)
	}

	unmatched := notificationsFor(events.NewMatchEvent(domain.EventUnmatched, "g", "a", "b", domain.UnmatchReasonRequested))
	if len(unmatched) != 1 || unmatched[0].recipient != "b" || !strings.Contains(unmatched[0].content, mention("a")) {
		t.Fatalf("unmatched notifications = %+v", unmatched)
	}

	deleted := notificationsFor(events.NewMatchEvent(domain.EventUnmatched, "g", "a", "b", domain.UnmatchReasonProfileDeleted))
	if len(deleted) != 1 || strings.Contains(deleted[0].content, mention("a")) {
		t.Fatalf("profile deleted notifications = %+v", deleted)
	}

	if got := notificationsFor(domain.MatchEvent{Type: "other"}); got != nil {
		t.Fatalf("unknown event notifications = %+v, want none", got)
	}
}

func TestNotifierContinuesAfterFailure(t *testing.T) {
	t.Parallel()
	dm := newFakeDM()
	dm.blocked["a"] = true
	n := NewNotifier(dm, slog.New(slog.NewTextHandler(io.Discard, nil)))

	n.Handle(context.Background(), events.NewMatchEvent(domain.EventMatchFormed, "g", "a", "b", ""))

	if len(dm.sent["a"]) != 0 {
		t.Fatalf("blocked user received %v", dm.sent["a"])
	}
	if len(dm.sent["b"]) != 1 {
		t.Fatalf("dm to b = %v, want one message", dm.sent["b"])
	}
}

func TestDispatchOutlivesCallerContext(t *testing.T) {
	t.Parallel()
	dm := newFakeDM()
	n := NewNotifier(dm, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	n.Dispatch(ctx, events.NewMatchEvent(domain.EventUnmatched, "g", "a", "b", domain.UnmatchReasonRequested))
	cancel()
	n.Wait()

	if len(dm.sent["b"]) != 1 {
		t.Fatalf("dm to b = %v, want one message", dm.sent["b"])
	}
}
