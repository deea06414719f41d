// Package handlers holds the fiber HTTP handlers.
package handlers

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/tubescribe/tubescribe/internal/pipeline"
	"github.com/tubescribe/tubescribe/internal/video"
)

// TranscriptHandler serves synchronous acquisitions.
type TranscriptHandler struct {
	pipe    *pipeline.Pipeline
	timeout time.Duration
}

// NewTranscriptHandler creates a new transcript handler.
func NewTranscriptHandler(pipe *pipeline.Pipeline, timeout time.Duration) *TranscriptHandler {
	return &TranscriptHandler{pipe: pipe, timeout: timeout}
}

// Handle runs the pipeline for ?url= or ?videoId= and returns the result.
// Only unusable input is a client error; everything else degrades inside the
// pipeline.
func (h *TranscriptHandler) Handle(c *fiber.Ctx) error {
	input := c.Query("url")
	if input == "" {
		input = c.Query("videoId")
	}
	if input == "" {
		return c.Status(400).JSON(fiber.Map{
			"error": "url or videoId query parameter is required",
			"code":  "ERR_NO_URL",
		})
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	result, err := h.pipe.Acquire(ctx, input)
	if err != nil {
		if errors.Is(err, video.ErrInvalidInput) {
			return c.Status(400).JSON(fiber.Map{
				"error": err.Error(),
				"code":  "ERR_INVALID_VIDEO",
			})
		}
		log.Printf("Acquire failed for %q: %v", input, err)
		return c.Status(500).JSON(fiber.Map{
			"error": "transcript acquisition failed",
			"code":  "ERR_ACQUIRE",
		})
	}

	return c.JSON(result)
}
