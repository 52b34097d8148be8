package events

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/gdugdh24/guildmatch/internal/domain"
	"github.com/redis/go-redis/v9"
)

func TestRedisSubscriberRelay(t *testing.T) {
	t.Parallel()
	sub := NewRedisSubscriber(nil, "", nil)
	if sub.channel != DefaultChannel {
		t.Fatalf("channel = %q, want %q", sub.channel, DefaultChannel)
	}

	var got []domain.MatchEvent
	bus := NewBus(nil)
	bus.Subscribe(func(_ context.Context, e domain.MatchEvent) { got = append(got, e) })

	event := NewMatchEvent(domain.EventMatchFormed, "g1", "a", "b", "")
	payload, err := Encode(event)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	sub.relay(context.Background(), "garbage", bus)
	sub.relay(context.Background(), string(payload), bus)

	if len(got) != 1 || got[0].ID != event.ID {
		t.Fatalf("relayed = %+v, want only %s", got, event.ID)
	}
}

func TestRedisPublisherReportsConnectionErrors(t *testing.T) {
	t.Parallel()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	pub := NewRedisPublisher(client, "")
	err := pub.Publish(context.Background(), NewMatchEvent(domain.EventMatchFormed, "g1", "a", "b", ""))
	if err == nil || !strings.Contains(err.Error(), "failed to publish match event to redis") {
		t.Fatalf("Publish() error = %v, want wrapped connection error", err)
	}
}
