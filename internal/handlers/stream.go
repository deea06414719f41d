package handlers

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/tubescribe/tubescribe/internal/pipeline"
	"github.com/tubescribe/tubescribe/internal/types"
)

// StreamHandler runs an acquisition over a WebSocket, pushing each stage
// attempt to the client as it happens and the final result at the end.
// Useful for UIs that want to show which strategy is currently being tried.
type StreamHandler struct {
	pipe    *pipeline.Pipeline
	timeout time.Duration
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(pipe *pipeline.Pipeline, timeout time.Duration) *StreamHandler {
	return &StreamHandler{pipe: pipe, timeout: timeout}
}

type streamEvent struct {
	Event   string                   `json:"event"` // "attempt" | "result" | "error"
	Attempt *types.ExtractionAttempt `json:"attempt,omitempty"`
	Result  *types.TranscriptResult  `json:"result,omitempty"`
	Error   string                   `json:"error,omitempty"`
}

// wsSink forwards attempt records onto the connection. Acquire runs stages
// sequentially in this goroutine, so writes never interleave.
type wsSink struct {
	conn *websocket.Conn
}

func (s wsSink) Record(attempt types.ExtractionAttempt) {
	s.send(streamEvent{Event: "attempt", Attempt: &attempt})
}

func (s wsSink) send(ev streamEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		log.Printf("WebSocket write error: %v", err)
	}
}

// Handle reads a video URL as the first text message, then streams the
// acquisition.
func (h *StreamHandler) Handle(c *websocket.Conn) {
	defer c.Close()

	messageType, message, err := c.ReadMessage()
	if err != nil {
		log.Printf("WebSocket read error: %v", err)
		return
	}
	if messageType != websocket.TextMessage || len(message) == 0 {
		wsSink{c}.send(streamEvent{Event: "error", Error: "expected a video URL as a text message"})
		return
	}

	input := string(message)
	log.Printf("WebSocket acquisition started for %q", input)

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	sink := wsSink{c}
	result, err := h.pipe.WithSinks(sink).Acquire(ctx, input)
	if err != nil {
		sink.send(streamEvent{Event: "error", Error: err.Error()})
		return
	}

	sink.send(streamEvent{Event: "result", Result: result})
}
