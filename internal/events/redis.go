package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gdugdh24/guildmatch/internal/domain"
	"github.com/redis/go-redis/v9"
)

const DefaultChannel = "guildmatch:match-events"

// RedisPublisher sends events over Redis pub/sub so another process, such as
// the Discord bot, can deliver them.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, event domain.MatchEvent) error {
	payload, err := Encode(event)
	if err != nil {
		return err
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish match event to redis: %w", err)
	}
	return nil
}

// RedisSubscriber relays events from a Redis channel to a local publisher.
type RedisSubscriber struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger
}

func NewRedisSubscriber(client *redis.Client, channel string, logger *slog.Logger) *RedisSubscriber {
	if channel == "" {
		channel = DefaultChannel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisSubscriber{client: client, channel: channel, logger: logger}
}

// Run blocks until ctx is done, forwarding every decodable message to sink.
func (s *RedisSubscriber) Run(ctx context.Context, sink Publisher) error {
	sub := s.client.Subscribe(ctx, s.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", s.channel, err)
	}
	s.logger.Info("subscribed to match events", "channel", s.channel)

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return errors.New("redis subscription closed")
			}
			s.relay(ctx, msg.Payload, sink)
		}
	}
}

func (s *RedisSubscriber) relay(ctx context.Context, payload string, sink Publisher) {
	event, err := Decode([]byte(payload))
	if err != nil {
		s.logger.Warn("dropping malformed match event", "error", err)
		return
	}
	if err := sink.Publish(ctx, event); err != nil {
		s.logger.Error("failed to deliver match event", "event_id", event.ID, "error", err)
	}
}
