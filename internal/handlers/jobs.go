package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tubescribe/tubescribe/internal/queue"
	"github.com/tubescribe/tubescribe/internal/storage"
	"github.com/tubescribe/tubescribe/internal/types"
	"github.com/tubescribe/tubescribe/internal/video"
)

// JobsHandler serves asynchronous acquisitions: submit now, poll later.
type JobsHandler struct {
	workerPool *queue.WorkerPool
	store      *storage.AttemptStore
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(workerPool *queue.WorkerPool, store *storage.AttemptStore) *JobsHandler {
	return &JobsHandler{workerPool: workerPool, store: store}
}

// SubmitRequest represents the request body.
type SubmitRequest struct {
	URL string `json:"url"`
}

// Submit validates the input and enqueues an acquisition job.
func (h *JobsHandler) Submit(c *fiber.Ctx) error {
	var req SubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid request body",
			"code":  "ERR_INVALID_BODY",
		})
	}

	if req.URL == "" {
		return c.Status(400).JSON(fiber.Map{
			"error": "URL is required",
			"code":  "ERR_NO_URL",
		})
	}

	// Reject unusable input up front rather than queueing a doomed job.
	if _, err := video.Locate(req.URL); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": err.Error(),
			"code":  "ERR_INVALID_VIDEO",
		})
	}

	job := h.workerPool.Enqueue(req.URL)

	return c.JSON(fiber.Map{
		"job_id":  job.ID,
		"status":  job.Status,
		"message": "Acquisition started",
	})
}

// Status returns a job's state, result, and the stage attempts recorded for
// it so far.
func (h *JobsHandler) Status(c *fiber.Ctx) error {
	jobID := c.Params("id")

	job, ok := h.workerPool.Get(jobID)
	if !ok {
		return c.Status(404).JSON(fiber.Map{
			"error": "Job not found",
			"code":  "ERR_JOB_NOT_FOUND",
		})
	}

	attempts, err := h.store.ByRequest(jobID)
	if err != nil {
		attempts = nil // diagnostics are best effort
	}
	if attempts == nil {
		attempts = []types.ExtractionAttempt{}
	}

	return c.JSON(fiber.Map{
		"job":      job,
		"attempts": attempts,
	})
}

// Attempts returns recent diagnostics for a video across all requests.
func (h *JobsHandler) Attempts(c *fiber.Ctx) error {
	videoID := c.Query("videoId")
	if videoID == "" {
		return c.Status(400).JSON(fiber.Map{
			"error": "videoId query parameter is required",
			"code":  "ERR_NO_VIDEO_ID",
		})
	}

	limit := c.QueryInt("limit", 50)
	attempts, err := h.store.RecentByVideo(videoID, limit)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to load attempts",
			"code":  "ERR_ATTEMPTS",
		})
	}
	if attempts == nil {
		attempts = []types.ExtractionAttempt{}
	}

	return c.JSON(attempts)
}
