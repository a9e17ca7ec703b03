package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Notice is a change notification exchanged between server instances.
type Notice struct {
	Origin       string    `json:"origin"`
	RestaurantID int64     `json:"restaurant_id"`
	At           time.Time `json:"at"`
}

func (n Notice) encode() ([]byte, error) {
	return json.Marshal(n)
}

func decodeNotice(body []byte) (Notice, error) {
	var n Notice
	if err := json.Unmarshal(body, &n); err != nil {
		return Notice{}, fmt.Errorf("failed to decode notice: %w", err)
	}
	return n, nil
}

// Relay carries notices between instances of the server.
type Relay interface {
	Publish(ctx context.Context, n Notice) error
	// Subscribe delivers notices to handle until ctx ends or the
	// underlying transport fails.
	Subscribe(ctx context.Context, handle func(Notice)) error
	Close() error
}

// Broadcaster notifies the local hub and forwards every change to other
// instances through a relay. It implements the service change notifier.
type Broadcaster struct {
	// RetryDelay separates resubscription attempts.
	RetryDelay time.Duration
	// PublishTimeout bounds one relay publish.
	PublishTimeout time.Duration

	hub     *Hub
	relay   Relay
	origin  string
	pending sync.WaitGroup
	logger  zerolog.Logger
}

// NewBroadcaster creates a broadcaster. A nil relay keeps notifications local.
func NewBroadcaster(hub *Hub, relay Relay, logger zerolog.Logger) *Broadcaster {
	return &Broadcaster{
		RetryDelay:     2 * time.Second,
		PublishTimeout: 5 * time.Second,
		hub:            hub,
		relay:          relay,
		origin:         uuid.NewString(),
		logger:         logger.With().Str("component", "feed-broadcaster").Logger(),
	}
}

// Origin identifies this instance in relayed notices.
func (b *Broadcaster) Origin() string {
	return b.origin
}

// Notify wakes local subscribers, then publishes to the relay in the
// background. The publish outlives the caller's context, so a write that
// has committed is relayed even when its request is gone. Relay failures
// are logged; local delivery has already happened.
func (b *Broadcaster) Notify(ctx context.Context, restaurantID int64) {
	b.hub.Notify(ctx, restaurantID)

	if b.relay == nil {
		return
	}

	notice := Notice{Origin: b.origin, RestaurantID: restaurantID, At: time.Now().UTC()}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.PublishTimeout)

	b.pending.Add(1)
	go func() {
		defer b.pending.Done()
		defer cancel()

		if err := b.relay.Publish(pubCtx, notice); err != nil {
			b.logger.Warn().Err(err).Int64("restaurant_id", restaurantID).Msg("failed to relay change notice")
		}
	}()
}

// Wait blocks until every background publish has finished.
func (b *Broadcaster) Wait() {
	b.pending.Wait()
}

// Run forwards notices from other instances to the local hub until ctx
// ends. A dropped subscription is re-established after RetryDelay.
func (b *Broadcaster) Run(ctx context.Context) error {
	if b.relay == nil {
		<-ctx.Done()
		return nil
	}

	b.logger.Info().Str("origin", b.origin).Msg("relay subscriber started")

	for {
		err := b.relay.Subscribe(ctx, func(n Notice) {
			if n.Origin == b.origin {
				return
			}
			b.hub.Notify(ctx, n.RestaurantID)
		})
		if ctx.Err() != nil {
			return nil
		}

		b.logger.Warn().Err(err).Dur("retry_in", b.RetryDelay).Msg("relay subscription ended")

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(b.RetryDelay):
		}
	}
}
