package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const channelPrefix = "research:events:"

// RedisRelay publishes events through Redis pub/sub so every instance sharing the
// Redis server delivers them to its local subscribers.
type RedisRelay struct {
	client *redis.Client
	local  *Broker
}

func NewRedisRelay(client *redis.Client, local *Broker) *RedisRelay {
	return &RedisRelay{client: client, local: local}
}

// Publish sends the event to Redis. When Redis is unreachable the event is
// delivered to local subscribers only.
func (r *RedisRelay) Publish(topic string, ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("failed to encode event")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.client.Publish(ctx, channelPrefix+topic, payload).Err(); err != nil {
		log.Warn().Err(err).Str("topic", topic).Msg("redis publish failed, delivering locally")
		r.local.Publish(topic, ev)
	}
}

// Start subscribes to the given topics and forwards their events to the local
// broker until ctx is done. It returns once the subscription is confirmed.
func (r *RedisRelay) Start(ctx context.Context, topics ...string) error {
	channels := make([]string, len(topics))
	for i, t := range topics {
		channels[i] = channelPrefix + t
	}

	pubsub := r.client.Subscribe(ctx, channels...)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return fmt.Errorf("failed to subscribe to redis channels: %w", err)
	}

	go func() {
		defer pubsub.Close()
		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					log.Warn().Err(err).Str("channel", msg.Channel).Msg("dropping malformed event")
					continue
				}
				r.local.Publish(strings.TrimPrefix(msg.Channel, channelPrefix), ev)
			}
		}
	}()
	return nil
}
