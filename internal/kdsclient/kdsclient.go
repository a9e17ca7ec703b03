// Package kdsclient is a kitchen display consumer. It follows the order
// stream and falls back to polling the order list when the stream fails.
package kdsclient

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"qr-kitchen/internal/model"

	"github.com/rs/zerolog"
)

// Mode is the update source currently in use. Exactly one is active.
type Mode int32

const (
	ModeStreaming Mode = iota
	ModePolling
)

func (m Mode) String() string {
	if m == ModePolling {
		return "polling"
	}
	return "streaming"
}

// ErrUnauthorised is returned when the server rejects the credential.
// Neither source can recover from it.
var ErrUnauthorised = errors.New("credential rejected by server")

// Update is one snapshot of the active orders.
type Update struct {
	Orders []model.Order
	Source Mode
	Event  string
	At     time.Time
}

// Config configures a Client.
type Config struct {
	BaseURL string
	Token   string

	// PollInterval is the fallback polling cadence.
	PollInterval time.Duration
	// RetryStreamAfter returns from polling to streaming after this long
	// in polling mode. Zero keeps polling for the rest of the run.
	RetryStreamAfter time.Duration
	// IdleTimeout ends a stream that has been silent this long.
	IdleTimeout time.Duration

	HTTPClient *http.Client
}

// Client consumes order updates for one restaurant.
type Client struct {
	cfg    Config
	http   *http.Client
	mode   atomic.Int32
	logger zerolog.Logger
}

// New creates a client. Zero durations select the defaults.
func New(cfg Config, logger zerolog.Logger) *Client {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 15 * time.Second
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &Client{
		cfg:    cfg,
		http:   client,
		logger: logger.With().Str("component", "kdsclient").Logger(),
	}
}

// Mode returns the source currently feeding updates.
func (c *Client) Mode() Mode {
	return Mode(c.mode.Load())
}

// Run delivers updates to handle until ctx ends. It starts on the stream,
// switches to polling when the stream fails, and optionally retries the
// stream later. Sources run one after the other, never together.
func (c *Client) Run(ctx context.Context, handle func(Update)) error {
	mode := ModeStreaming
	for {
		c.mode.Store(int32(mode))

		var err error
		switch mode {
		case ModeStreaming:
			err = c.stream(ctx, handle)
		case ModePolling:
			err = c.pollUntilRetry(ctx, handle)
		}

		if ctx.Err() != nil {
			return nil
		}
		if errors.Is(err, ErrUnauthorised) {
			return err
		}

		switch mode {
		case ModeStreaming:
			c.logger.Warn().Err(err).Msg("stream failed, falling back to polling")
			mode = ModePolling
		case ModePolling:
			c.logger.Info().Msg("retrying stream")
			mode = ModeStreaming
		}
	}
}

// stream follows the event stream until it fails.
func (c *Client) stream(ctx context.Context, handle func(Update)) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	endpoint := c.cfg.BaseURL + "/api/orders/stream?token=" + url.QueryEscape(c.cfg.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to open stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorised
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stream returned status %d", resp.StatusCode)
	}

	c.logger.Info().Msg("stream opened")

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		err := scanner.Err()
		if err == nil {
			err = io.EOF
		}
		readErr <- err
	}()

	idle := time.NewTimer(c.cfg.IdleTimeout)
	defer idle.Stop()

	var event string
	var data strings.Builder
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-readErr:
			return fmt.Errorf("stream ended: %w", err)

		case <-idle.C:
			return fmt.Errorf("stream silent for %s", c.cfg.IdleTimeout)

		case line := <-lines:
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(c.cfg.IdleTimeout)

			field, value, _ := strings.Cut(line, ":")
			value = strings.TrimPrefix(value, " ")

			switch {
			case line == "":
				if data.Len() > 0 {
					c.dispatch(event, data.String(), handle)
				}
				event = ""
				data.Reset()
			case field == "":
				// Comment, used for heartbeats.
			case field == "event":
				event = value
			case field == "data":
				if data.Len() > 0 {
					data.WriteByte('\n')
				}
				data.WriteString(value)
			}
		}
	}
}

func (c *Client) dispatch(event, data string, handle func(Update)) {
	var orders []model.Order
	if err := json.Unmarshal([]byte(data), &orders); err != nil {
		c.logger.Warn().Err(err).Str("event", event).Msg("ignoring malformed event")
		return
	}
	if orders == nil {
		orders = []model.Order{}
	}
	handle(Update{Orders: orders, Source: ModeStreaming, Event: event, At: time.Now()})
}

// pollUntilRetry polls at a fixed interval until ctx ends or it is time to
// retry the stream.
func (c *Client) pollUntilRetry(ctx context.Context, handle func(Update)) error {
	var retry <-chan time.Time
	if c.cfg.RetryStreamAfter > 0 {
		timer := time.NewTimer(c.cfg.RetryStreamAfter)
		defer timer.Stop()
		retry = timer.C
	}

	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		orders, err := c.FetchActive(ctx)
		switch {
		case errors.Is(err, ErrUnauthorised):
			return err
		case err != nil:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn().Err(err).Msg("poll failed")
		default:
			handle(Update{Orders: orders, Source: ModePolling, At: time.Now()})
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-retry:
			return nil
		case <-ticker.C:
		}
	}
}

// FetchActive lists the pending, preparing and ready orders.
func (c *Client) FetchActive(ctx context.Context) ([]model.Order, error) {
	statuses := make([]string, len(model.ActiveStatuses))
	for i, s := range model.ActiveStatuses {
		statuses[i] = string(s)
	}

	var orders []model.Order
	path := "/api/orders?status=" + strings.Join(statuses, ",")
	if err := c.do(ctx, http.MethodGet, path, nil, &orders); err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []model.Order{}
	}
	return orders, nil
}

// UpdateStatus moves an order to status.
func (c *Client) UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus) (string, error) {
	var resp model.MessageResponse
	body := model.StatusUpdateRequest{Status: string(status)}
	if err := c.do(ctx, http.MethodPatch, "/api/orders/"+url.PathEscape(orderID)+"/status", body, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Login exchanges restaurant credentials for a token.
func (c *Client) Login(ctx context.Context, email, password string) (*model.AuthResponse, error) {
	var resp model.AuthResponse
	body := model.LoginRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorised
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr model.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %d %s", method, path, resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
