// Package livesync runs the per-connection loop that keeps a kitchen
// display in sync with its restaurant's active orders.
package livesync

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"qr-kitchen/internal/model"

	"github.com/gin-contrib/sse"
	"github.com/rs/zerolog"
)

// Event names understood by kitchen displays.
const (
	EventInitialState = "initial_state"
	EventOrdersUpdate = "orders_update"
)

const heartbeatFrame = ": keep-alive\n\n"

// State is the lifecycle of one streaming session.
type State int

const (
	StateConnecting State = iota
	StateStreaming
	StateClosed
	StateDegraded
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	case StateClosed:
		return "closed"
	case StateDegraded:
		return "degraded"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Sink is the transport a session writes events to.
type Sink interface {
	io.Writer
	Flush() error
}

// Snapshotter produces the active-order snapshot of a restaurant.
type Snapshotter interface {
	Poll(ctx context.Context, restaurantID int64, since time.Time) ([]model.Order, error)
}

// Subscriber hands out change notification channels.
type Subscriber interface {
	Subscribe(restaurantID int64) (<-chan struct{}, func())
}

// Config holds session timings.
type Config struct {
	PollInterval      time.Duration
	HeartbeatInterval time.Duration
	RetryHint         time.Duration
}

// Gateway serves streaming sessions.
type Gateway struct {
	snapshots Snapshotter
	changes   Subscriber
	cfg       Config
	active    atomic.Int64
	logger    zerolog.Logger
}

// NewGateway creates a gateway. changes may be nil, in which case sessions
// rely on polling alone.
func NewGateway(snapshots Snapshotter, changes Subscriber, cfg Config, logger zerolog.Logger) *Gateway {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = 500 * time.Millisecond
	}
	if cfg.RetryHint <= 0 {
		cfg.RetryHint = 5 * time.Second
	}
	return &Gateway{
		snapshots: snapshots,
		changes:   changes,
		cfg:       cfg,
		logger:    logger.With().Str("component", "livesync").Logger(),
	}
}

// Active returns the number of open sessions.
func (g *Gateway) Active() int64 {
	return g.active.Load()
}

// Serve streams the restaurant's active orders to sink until ctx ends, a
// write fails, or the store errors. It returns the terminal state; the
// error is nil only for a client disconnect.
func (g *Gateway) Serve(ctx context.Context, sink Sink, restaurantID int64) (State, error) {
	s := &session{
		gw:           g,
		sink:         sink,
		restaurantID: restaurantID,
		state:        StateConnecting,
		logger:       g.logger.With().Int64("restaurant_id", restaurantID).Logger(),
	}

	g.active.Add(1)
	defer g.active.Add(-1)

	err := s.run(ctx)
	s.logger.Info().
		Str("state", s.state.String()).
		AnErr("reason", err).
		Dur("duration", time.Since(s.started)).
		Msg("stream ended")
	return s.state, err
}

type session struct {
	gw           *Gateway
	sink         Sink
	restaurantID int64
	state        State
	started      time.Time
	lastSent     time.Time
	logger       zerolog.Logger
}

func (s *session) run(ctx context.Context) error {
	s.started = time.Now()

	var changes <-chan struct{}
	if s.gw.changes != nil {
		ch, cancel := s.gw.changes.Subscribe(s.restaurantID)
		defer cancel()
		changes = ch
	}

	if err := s.push(ctx, EventInitialState, true); err != nil {
		return err
	}
	s.state = StateStreaming
	s.logger.Info().Msg("stream opened")

	poll := time.NewTicker(s.gw.cfg.PollInterval)
	defer poll.Stop()
	heartbeat := time.NewTicker(s.gw.cfg.HeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			s.state = StateClosed
			return nil

		case <-poll.C:
			if err := s.push(ctx, EventOrdersUpdate, false); err != nil {
				return err
			}

		case <-changes:
			if err := s.push(ctx, EventOrdersUpdate, true); err != nil {
				return err
			}

		case <-heartbeat.C:
			if _, err := io.WriteString(s.sink, heartbeatFrame); err != nil {
				return s.writeFailed(err)
			}
			if err := s.sink.Flush(); err != nil {
				return s.writeFailed(err)
			}
		}
	}
}

// push reads a snapshot and writes it as event. Unless always is set an
// empty snapshot is not sent.
func (s *session) push(ctx context.Context, event string, always bool) error {
	since := s.lastSent
	orders, err := s.gw.snapshots.Poll(ctx, s.restaurantID, since)
	if err != nil {
		if ctx.Err() != nil {
			s.state = StateClosed
			return nil
		}
		s.state = StateDegraded
		return fmt.Errorf("snapshot failed: %w", err)
	}

	if len(orders) == 0 && !always {
		return nil
	}
	if orders == nil {
		orders = []model.Order{}
	}

	msg := sse.Event{Event: event, Data: orders}
	if event == EventInitialState {
		msg.Retry = uint(s.gw.cfg.RetryHint / time.Millisecond)
	}

	if err := sse.Encode(s.sink, msg); err != nil {
		return s.writeFailed(err)
	}
	if err := s.sink.Flush(); err != nil {
		return s.writeFailed(err)
	}

	s.lastSent = time.Now()
	return nil
}

func (s *session) writeFailed(err error) error {
	s.state = StateClosed
	return fmt.Errorf("stream write failed: %w", err)
}
