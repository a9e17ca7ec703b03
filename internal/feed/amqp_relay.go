package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// redialInterval is the minimum gap between dial attempts after the
// broker connection is lost.
const redialInterval = time.Second

// AMQPRelay carries notices over a RabbitMQ fanout exchange. Every
// instance binds its own exclusive queue, so each one sees every notice.
// A lost connection is dialled again on the next Publish or Subscribe.
type AMQPRelay struct {
	url      string
	exchange string

	mu       sync.Mutex
	conn     *amqp.Connection
	publish  *amqp.Channel
	lastDial time.Time
	closed   bool

	logger zerolog.Logger
}

// NewAMQPRelay dials RabbitMQ and declares the fanout exchange.
func NewAMQPRelay(url, exchange string, logger zerolog.Logger) (*AMQPRelay, error) {
	r := &AMQPRelay{
		url:      url,
		exchange: exchange,
		logger:   logger.With().Str("component", "amqp-relay").Str("exchange", exchange).Logger(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.connectLocked(); err != nil {
		return nil, err
	}
	return r, nil
}

// connectLocked returns a live connection and publish channel, dialling
// again when either has been closed. r.mu must be held.
func (r *AMQPRelay) connectLocked() (*amqp.Connection, error) {
	if r.closed {
		return nil, amqp.ErrClosed
	}

	if r.conn != nil && !r.conn.IsClosed() {
		if r.publish != nil && !r.publish.IsClosed() {
			return r.conn, nil
		}
		ch, err := r.conn.Channel()
		if err == nil {
			r.publish = ch
			return r.conn, nil
		}
		r.logger.Warn().Err(err).Msg("failed to reopen publish channel, redialling")
		r.conn.Close()
	}

	if wait := redialInterval - time.Since(r.lastDial); !r.lastDial.IsZero() && wait > 0 {
		return nil, fmt.Errorf("rabbitmq connection lost, next dial in %s", wait.Round(time.Millisecond))
	}
	r.lastDial = time.Now()

	conn, err := amqp.Dial(r.url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declareExchange(ch, r.exchange); err != nil {
		conn.Close()
		return nil, err
	}

	if r.conn != nil {
		r.logger.Info().Msg("reconnected to RabbitMQ")
	}
	r.conn = conn
	r.publish = ch
	return conn, nil
}

func declareExchange(ch *amqp.Channel, exchange string) error {
	err := ch.ExchangeDeclare(
		exchange, // name
		"fanout", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}
	return nil
}

// Publish sends a notice to every bound instance.
func (r *AMQPRelay) Publish(ctx context.Context, n Notice) error {
	body, err := n.encode()
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.connectLocked(); err != nil {
		return err
	}

	err = r.publish.PublishWithContext(ctx,
		r.exchange, // exchange
		"",         // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Timestamp:   n.At,
			Body:        body,
		})
	if err != nil {
		return fmt.Errorf("failed to publish notice: %w", err)
	}
	return nil
}

// Subscribe consumes notices from a server-named exclusive queue until ctx
// ends or the broker closes the delivery channel.
func (r *AMQPRelay) Subscribe(ctx context.Context, handle func(Notice)) error {
	r.mu.Lock()
	conn, err := r.connectLocked()
	r.mu.Unlock()
	if err != nil {
		return err
	}

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if err := declareExchange(ch, r.exchange); err != nil {
		return err
	}

	q, err := ch.QueueDeclare(
		"",    // name (let server generate)
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, "", r.exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	deliveries, err := ch.Consume(
		q.Name, // queue
		"",     // consumer
		true,   // auto-ack
		true,   // exclusive
		false,  // no-local
		false,  // no-wait
		nil,    // args
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming notices: %w", err)
	}

	r.logger.Info().Str("queue", q.Name).Msg("consuming change notices")

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			n, err := decodeNotice(d.Body)
			if err != nil {
				r.logger.Warn().Err(err).Msg("dropping malformed notice")
				continue
			}
			handle(n)
		}
	}
}

// Close closes the connection and every channel on it. The relay does not
// reconnect afterwards.
func (r *AMQPRelay) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	if r.conn == nil || r.conn.IsClosed() {
		return nil
	}
	return r.conn.Close()
}
