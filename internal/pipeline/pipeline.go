// Package pipeline runs the extraction stages as an ordered fallback chain.
//
// Stages are tried one at a time in the configured order; the first success
// wins. Every failure is absorbed, logged, and recorded, and the metadata
// fallback at the end guarantees the pipeline always produces text. The only
// error a caller ever sees is an unresolvable input.
package pipeline

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/tubescribe/tubescribe/internal/types"
	"github.com/tubescribe/tubescribe/internal/video"
)

// ErrStageNotConfigured marks a stage skipped for lack of a credential.
// Skips are cheaper than failures: no network call was made.
var ErrStageNotConfigured = errors.New("stage not configured")

// Stage is one extraction strategy. Attempt returns the transcript text or
// an error; every error is soft from the pipeline's point of view.
type Stage interface {
	Name() string
	Method() string
	Attempt(ctx context.Context, videoID string) (string, error)
}

// Summarizer is the terminal fallback. It cannot fail.
type Summarizer interface {
	Summarize(ctx context.Context, videoID string) string
}

// AttemptSink receives a record of every stage attempt, for diagnostics.
type AttemptSink interface {
	Record(attempt types.ExtractionAttempt)
}

// Pipeline orchestrates the stages for one video at a time. It holds no
// mutable state, so a single Pipeline serves concurrent requests.
type Pipeline struct {
	stages   []Stage
	fallback Summarizer
	sinks    []AttemptSink
}

// New assembles a pipeline from ordered stages, the unconditional metadata
// fallback, and zero or more attempt sinks.
func New(stages []Stage, fallback Summarizer, sinks ...AttemptSink) *Pipeline {
	return &Pipeline{stages: stages, fallback: fallback, sinks: sinks}
}

// WithSinks returns a pipeline sharing this one's stages but reporting
// attempts to the extra sinks as well. Used to stream progress for a single
// request without touching the shared pipeline.
func (p *Pipeline) WithSinks(extra ...AttemptSink) *Pipeline {
	sinks := make([]AttemptSink, 0, len(p.sinks)+len(extra))
	sinks = append(sinks, p.sinks...)
	sinks = append(sinks, extra...)
	return &Pipeline{stages: p.stages, fallback: p.fallback, sinks: sinks}
}

// Acquire resolves the input to a video id and walks the stage chain.
// Returns video.ErrInvalidInput when the input cannot be resolved; every
// other condition degrades into the result's warning field.
func (p *Pipeline) Acquire(ctx context.Context, urlOrID string) (*types.TranscriptResult, error) {
	return p.AcquireRequest(ctx, urlOrID, uuid.New().String())
}

// AcquireRequest is Acquire with a caller-chosen request id, so recorded
// attempts can be correlated with the caller's own tracking (job ids).
func (p *Pipeline) AcquireRequest(ctx context.Context, urlOrID, requestID string) (*types.TranscriptResult, error) {
	id, err := video.Locate(urlOrID)
	if err != nil {
		return nil, err
	}

	var lastFailure string

	for _, stage := range p.stages {
		started := time.Now()
		text, err := stage.Attempt(ctx, id)
		elapsed := time.Since(started)

		if err == nil && text != "" {
			log.Printf("Pipeline %s: stage %s succeeded for %s in %s", requestID, stage.Name(), id, elapsed.Round(time.Millisecond))
			p.record(requestID, id, stage, types.OutcomeSuccess, "", elapsed)
			return &types.TranscriptResult{
				VideoID:      id,
				Text:         text,
				SourceMethod: stage.Method(),
			}, nil
		}

		if err == nil {
			err = errors.New("stage returned empty text")
		}

		if errors.Is(err, ErrStageNotConfigured) {
			log.Printf("Pipeline %s: stage %s skipped for %s: %v", requestID, stage.Name(), id, err)
			p.record(requestID, id, stage, types.OutcomeSkipped, err.Error(), elapsed)
			continue
		}

		if ctx.Err() != nil {
			// Caller aborted; stop burning money on further stages.
			p.record(requestID, id, stage, types.OutcomeFailure, ctx.Err().Error(), elapsed)
			return nil, ctx.Err()
		}

		log.Printf("Pipeline %s: stage %s failed for %s: %v", requestID, stage.Name(), id, err)
		p.record(requestID, id, stage, types.OutcomeFailure, err.Error(), elapsed)
		lastFailure = err.Error()
	}

	return p.metadataResult(ctx, requestID, id, lastFailure), nil
}

// metadataResult runs the unconditional fallback and tags the degradation.
func (p *Pipeline) metadataResult(ctx context.Context, requestID, id, lastFailure string) *types.TranscriptResult {
	started := time.Now()
	text := p.fallback.Summarize(ctx, id)
	p.record(requestID, id, fallbackStage{}, types.OutcomeSuccess, "", time.Since(started))

	warning := lastFailure
	if warning == "" {
		warning = "no extraction stage produced a transcript"
	}

	log.Printf("Pipeline %s: using metadata fallback for %s (%s)", requestID, id, warning)
	return &types.TranscriptResult{
		VideoID:      id,
		Text:         text,
		SourceMethod: types.MethodMetadataFallback,
		Warning:      warning,
	}
}

func (p *Pipeline) record(requestID, id string, stage Stage, outcome, detail string, elapsed time.Duration) {
	attempt := types.ExtractionAttempt{
		RequestID: requestID,
		VideoID:   id,
		Stage:     stage.Name(),
		Method:    stage.Method(),
		Outcome:   outcome,
		Detail:    detail,
		Duration:  elapsed,
		At:        time.Now(),
	}
	for _, sink := range p.sinks {
		sink.Record(attempt)
	}
}

// fallbackStage exists only so fallback attempts fit the record shape.
type fallbackStage struct{}

func (fallbackStage) Name() string   { return "metadata" }
func (fallbackStage) Method() string { return types.MethodMetadataFallback }
func (fallbackStage) Attempt(ctx context.Context, id string) (string, error) {
	return "", errors.New("not an extraction stage")
}
