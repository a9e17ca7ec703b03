package handler

import (
	"errors"
	"net/http"
	"time"

	"qr-kitchen/internal/livesync"
	"qr-kitchen/internal/model"

	"github.com/rs/zerolog"
)

// StreamHandler serves the kitchen display event stream.
type StreamHandler struct {
	gateway *livesync.Gateway
	logger  zerolog.Logger
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(gateway *livesync.Gateway, logger zerolog.Logger) *StreamHandler {
	return &StreamHandler{
		gateway: gateway,
		logger:  logger.With().Str("handler", "stream").Logger(),
	}
}

// responseSink adapts a ResponseWriter to livesync.Sink.
type responseSink struct {
	http.ResponseWriter
	rc *http.ResponseController
}

func (s responseSink) Flush() error {
	return s.rc.Flush()
}

// Stream handles GET /api/orders/stream?token=. Authentication is checked
// before any stream bytes are written.
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	tc := tenantFrom(r)
	if !tc.Authenticated {
		writeError(w, r, http.StatusUnauthorized, model.ErrCodeUnauthorised, "authentication required", h.logger)
		return
	}

	rc := http.NewResponseController(w)
	// Streams outlive the server's write timeout.
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		h.logger.Warn().Err(err).Msg("failed to clear write deadline")
	}

	header := w.Header()
	header.Set("Content-Type", "text/event-stream; charset=utf-8")
	header.Set("Cache-Control", "no-cache, no-store")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	state, err := h.gateway.Serve(r.Context(), responseSink{ResponseWriter: w, rc: rc}, tc.TenantID)
	if err != nil {
		h.logger.Warn().
			Err(err).
			Str("state", state.String()).
			Int64("restaurant_id", tc.TenantID).
			Msg("stream terminated")
	}
}
