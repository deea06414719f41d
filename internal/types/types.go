package types

import "time"

// Job status constants
const (
	StatusQueued     = "QUEUED"
	StatusProcessing = "PROCESSING"
	StatusCompleted  = "COMPLETED"
	StatusFailed     = "FAILED"
)

// Source method constants. Each extraction stage tags its output with one of
// these so the consumer knows how the text was produced.
const (
	MethodManualScraping     = "manual_scraping"
	MethodLibraryTranscript  = "library_transcript"
	MethodThirdPartyAPI      = "third_party_api"
	MethodAudioTranscription = "audio_transcription"
	MethodMetadataFallback   = "metadata_fallback"
)

// Attempt outcome constants
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeSkipped = "skipped"
)

// TranscriptResult is the pipeline's output: the extracted text, which
// strategy produced it, and an optional warning describing degradation.
// Text is always non-empty; the metadata fallback guarantees this.
type TranscriptResult struct {
	VideoID      string `json:"videoId"`
	Text         string `json:"transcript"`
	SourceMethod string `json:"type"`
	Warning      string `json:"warning,omitempty"`
}

// ExtractionAttempt records one stage invocation for diagnostics. Never
// surfaced verbatim to the caller unless every stage fails.
type ExtractionAttempt struct {
	RequestID string        `json:"request_id"`
	VideoID   string        `json:"video_id"`
	Stage     string        `json:"stage"`
	Method    string        `json:"method"`
	Outcome   string        `json:"outcome"`
	Detail    string        `json:"detail,omitempty"`
	Duration  time.Duration `json:"duration_ms"`
	At        time.Time     `json:"at"`
}

// CaptionTrack describes one subtitle stream exposed by the watch page.
type CaptionTrack struct {
	BaseURL      string
	Name         string
	LanguageCode string
	Kind         string // "asr" for auto-generated, empty for manual
}

// Auto reports whether the track is auto-generated speech recognition.
func (t CaptionTrack) Auto() bool {
	return t.Kind == "asr"
}

// Segment is one timed piece of transcript text.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	Dur   float64 `json:"dur"`
}
