package queue

import (
	"time"

	"github.com/tubescribe/tubescribe/internal/types"
)

// Job tracks one asynchronous acquisition request.
type Job struct {
	ID          string                  `json:"job_id"`
	Input       string                  `json:"input"`
	Status      string                  `json:"status"`
	Result      *types.TranscriptResult `json:"result,omitempty"`
	Error       string                  `json:"error,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
	CompletedAt time.Time               `json:"completed_at,omitzero"`
}
