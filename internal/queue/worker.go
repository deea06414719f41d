// Package queue runs acquisitions asynchronously on a small worker pool.
// Job state lives in memory only; a restart forgets unfinished jobs, which
// is acceptable because callers can simply resubmit a URL.
package queue

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tubescribe/tubescribe/internal/pipeline"
	"github.com/tubescribe/tubescribe/internal/types"
)

// WorkerPool manages workers that pull acquisition jobs off a queue.
type WorkerPool struct {
	jobQueue    chan *Job
	workerCount int
	pipe        *pipeline.Pipeline
	timeout     time.Duration

	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewWorkerPool creates a pool. timeout caps a single acquisition end to
// end, audio transcription included.
func NewWorkerPool(workerCount int, pipe *pipeline.Pipeline, timeout time.Duration) *WorkerPool {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &WorkerPool{
		jobQueue:    make(chan *Job, 100), // Buffer of 100 jobs
		workerCount: workerCount,
		pipe:        pipe,
		timeout:     timeout,
		jobs:        make(map[string]*Job),
	}
}

// Start launches the workers.
func (wp *WorkerPool) Start() {
	log.Printf("Starting worker pool with %d workers", wp.workerCount)
	for i := 0; i < wp.workerCount; i++ {
		go wp.worker(i)
	}
}

// Enqueue registers a job for the given URL or id and queues it.
func (wp *WorkerPool) Enqueue(input string) *Job {
	job := &Job{
		ID:        uuid.New().String(),
		Input:     input,
		Status:    types.StatusQueued,
		CreatedAt: time.Now(),
	}

	wp.mu.Lock()
	wp.jobs[job.ID] = job
	wp.mu.Unlock()

	wp.jobQueue <- job
	log.Printf("Job %s enqueued (input: %s)", job.ID, input)
	return wp.snapshot(job)
}

// Get returns a point-in-time copy of a job's state.
func (wp *WorkerPool) Get(id string) (*Job, bool) {
	wp.mu.RLock()
	job, ok := wp.jobs[id]
	wp.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return wp.snapshot(job), true
}

func (wp *WorkerPool) snapshot(job *Job) *Job {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	copied := *job
	return &copied
}

func (wp *WorkerPool) update(job *Job, fn func(*Job)) {
	wp.mu.Lock()
	fn(job)
	wp.mu.Unlock()
}

// worker processes jobs from the queue.
func (wp *WorkerPool) worker(id int) {
	log.Printf("Worker %d started", id)

	for job := range wp.jobQueue {
		// Panic recovery
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("Worker %d: PANIC processing job %s: %v\n%s",
						id, job.ID, r, string(debug.Stack()))
					wp.update(job, func(j *Job) {
						j.Status = types.StatusFailed
						j.Error = fmt.Sprintf("worker panic: %v", r)
						j.CompletedAt = time.Now()
					})
				}
			}()

			wp.processJob(id, job)
		}()
	}
}

// processJob runs the pipeline for one job.
func (wp *WorkerPool) processJob(workerID int, job *Job) {
	log.Printf("Worker %d: Processing job %s", workerID, job.ID)
	wp.update(job, func(j *Job) { j.Status = types.StatusProcessing })

	ctx, cancel := context.WithTimeout(context.Background(), wp.timeout)
	defer cancel()

	// The job id doubles as the pipeline request id so recorded attempts can
	// be looked up per job.
	result, err := wp.pipe.AcquireRequest(ctx, job.Input, job.ID)
	if err != nil {
		log.Printf("Worker %d: Job %s failed: %v", workerID, job.ID, err)
		wp.update(job, func(j *Job) {
			j.Status = types.StatusFailed
			j.Error = err.Error()
			j.CompletedAt = time.Now()
		})
		return
	}

	wp.update(job, func(j *Job) {
		j.Status = types.StatusCompleted
		j.Result = result
		j.CompletedAt = time.Now()
	})
	log.Printf("Worker %d: Job %s completed (method: %s, %d chars)",
		workerID, job.ID, result.SourceMethod, len(result.Text))
}
