// Package events delivers match notifications from the core to adapters.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gdugdh24/guildmatch/internal/domain"
	"github.com/google/uuid"
)

// Publisher accepts committed match events.
type Publisher interface {
	Publish(ctx context.Context, event domain.MatchEvent) error
}

// Handler consumes a delivered event.
type Handler func(ctx context.Context, event domain.MatchEvent)

// NewMatchEvent builds an event with a fresh id.
func NewMatchEvent(eventType domain.MatchEventType, guildID, userID, partnerID, reason string) domain.MatchEvent {
	return domain.MatchEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		GuildID:    guildID,
		UserID:     userID,
		PartnerID:  partnerID,
		Reason:     reason,
		OccurredAt: time.Now().UTC(),
	}
}

func Encode(event domain.MatchEvent) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to encode match event: %w", err)
	}
	return payload, nil
}

func Decode(payload []byte) (domain.MatchEvent, error) {
	var event domain.MatchEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return domain.MatchEvent{}, fmt.Errorf("failed to decode match event: %w", err)
	}
	switch event.Type {
	case domain.EventMatchFormed, domain.EventUnmatched:
	default:
		return domain.MatchEvent{}, fmt.Errorf("unknown match event type %q", event.Type)
	}
	if event.GuildID == "" || event.UserID == "" || event.PartnerID == "" {
		return domain.MatchEvent{}, fmt.Errorf("match event %s is missing ids", event.ID)
	}
	return event, nil
}

// Bus fans events out to in-process handlers synchronously.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
	logger   *slog.Logger
}

func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{logger: logger}
}

func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

func (b *Bus) Publish(ctx context.Context, event domain.MatchEvent) error {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers...)
	b.mu.RUnlock()

	b.logger.DebugContext(ctx, "dispatching match event",
		"event_id", event.ID,
		"type", event.Type,
		"guild_id", event.GuildID,
		"handlers", len(handlers),
	)
	for _, h := range handlers {
		h(ctx, event)
	}
	return nil
}
