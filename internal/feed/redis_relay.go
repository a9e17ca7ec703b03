package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisRelay carries notices over a Redis pub/sub channel.
type RedisRelay struct {
	client  *redis.Client
	channel string
	logger  zerolog.Logger
}

// NewRedisRelay connects to the Redis server at url (redis://...) and
// verifies it with a ping.
func NewRedisRelay(ctx context.Context, url, channel string, logger zerolog.Logger) (*RedisRelay, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisRelay{
		client:  client,
		channel: channel,
		logger:  logger.With().Str("component", "redis-relay").Str("channel", channel).Logger(),
	}, nil
}

// Publish sends a notice to every subscribed instance.
func (r *RedisRelay) Publish(ctx context.Context, n Notice) error {
	body, err := n.encode()
	if err != nil {
		return err
	}
	if err := r.client.Publish(ctx, r.channel, body).Err(); err != nil {
		return fmt.Errorf("failed to publish notice: %w", err)
	}
	return nil
}

// Subscribe receives notices until ctx ends or the subscription drops.
func (r *RedisRelay) Subscribe(ctx context.Context, handle func(Notice)) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	// Receive blocks until the server confirms the subscription.
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	r.logger.Info().Msg("consuming change notices")

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return errors.New("subscription channel closed")
			}
			n, err := decodeNotice([]byte(msg.Payload))
			if err != nil {
				r.logger.Warn().Err(err).Msg("dropping malformed notice")
				continue
			}
			handle(n)
		}
	}
}

// Close releases the client connections.
func (r *RedisRelay) Close() error {
	return r.client.Close()
}
