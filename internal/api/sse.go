package api

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/poj1738/satellite-communication-simulator/internal/logging"
)

// sseWriteDeadline is renewed before every write so long-lived streams
// survive the server's WriteTimeout.
const sseWriteDeadline = 30 * time.Second

// sseClient manages one event-stream connection's write side.
type sseClient struct {
	w       http.ResponseWriter
	flusher http.Flusher
	rc      *http.ResponseController
	log     logging.Logger
}

// newSSEClient prepares w for streaming. It returns false when the
// underlying writer cannot flush, in which case nothing was written.
func newSSEClient(w http.ResponseWriter, log logging.Logger) (*sseClient, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, false
	}
	return &sseClient{
		w:       w,
		flusher: flusher,
		rc:      http.NewResponseController(w),
		log:     log,
	}, true
}

// begin sends the stream headers plus a jittered retry hint so
// reconnecting clients spread out after a restart.
func (c *sseClient) begin(ctx context.Context) {
	c.w.Header().Set("Content-Type", "text/event-stream")
	c.w.Header().Set("Cache-Control", "no-cache")
	c.w.Header().Set("Connection", "keep-alive")
	c.w.Header().Set("X-Accel-Buffering", "no")
	c.w.WriteHeader(http.StatusOK)
	c.flusher.Flush()

	if err := c.rc.SetWriteDeadline(time.Time{}); err != nil {
		c.log.Debug(ctx, "could not clear write deadline", logging.Err(err))
	}

	retryMs := 3000 + rand.Intn(4000)
	fmt.Fprintf(c.w, "retry: %d\n\n", retryMs)
	c.flusher.Flush()
}

// sendJSON marshals v and writes it as one "data:" message.
func (c *sseClient) sendJSON(ctx context.Context, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("sse marshal: %w", err)
	}

	if err := c.rc.SetWriteDeadline(time.Now().Add(sseWriteDeadline)); err != nil {
		c.log.Debug(ctx, "could not set write deadline", logging.Err(err))
	}
	if _, err := fmt.Fprintf(c.w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("sse write: %w", err)
	}
	c.flusher.Flush()
	return nil
}

// sendKeepalive writes an SSE comment line.
func (c *sseClient) sendKeepalive(ctx context.Context) error {
	if err := c.rc.SetWriteDeadline(time.Now().Add(sseWriteDeadline)); err != nil {
		c.log.Debug(ctx, "could not set write deadline", logging.Err(err))
	}
	if _, err := fmt.Fprint(c.w, ":\n\n"); err != nil {
		return fmt.Errorf("sse keepalive: %w", err)
	}
	c.flusher.Flush()
	return nil
}

// Stream payload types.

type progressMessage struct {
	Type     string  `json:"type"`
	RunID    string  `json:"run_id"`
	Done     int     `json:"done"`
	Total    int     `json:"total"`
	Fraction float64 `json:"fraction"`
}

type terminalMessage struct {
	Type  string `json:"type"`
	RunID string `json:"run_id"`
	State string `json:"state"`
	Error string `json:"error,omitempty"`
}

type frameMessage struct {
	Type           string  `json:"type"`
	Step           int     `json:"step"`
	Linked         bool    `json:"linked"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
}
