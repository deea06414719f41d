package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/tubescribe/tubescribe/internal/audio"
	"github.com/tubescribe/tubescribe/internal/provider"
	"github.com/tubescribe/tubescribe/internal/scrape"
	"github.com/tubescribe/tubescribe/internal/types"
)

// Stage name constants, as used in configuration.
const (
	StageCaptions  = "captions"
	StageInnertube = "innertube"
	StageProvider  = "provider"
	StageAudio     = "audio"
)

// CaptionStage scrapes caption tracks off the watch page and fetches the
// best one's timed text. Cheapest strategy; tried first by default.
type CaptionStage struct {
	Client *scrape.Client
}

func (s CaptionStage) Name() string   { return StageCaptions }
func (s CaptionStage) Method() string { return types.MethodManualScraping }
func (s CaptionStage) Attempt(ctx context.Context, id string) (string, error) {
	return s.Client.Transcript(ctx, id)
}

// InnertubeStage asks YouTube's internal get_transcript endpoint, which
// sometimes works when the timed-text URLs are blocked.
type InnertubeStage struct {
	Client *scrape.Client
}

func (s InnertubeStage) Name() string   { return StageInnertube }
func (s InnertubeStage) Method() string { return types.MethodLibraryTranscript }
func (s InnertubeStage) Attempt(ctx context.Context, id string) (string, error) {
	return s.Client.TranscriptViaInnertube(ctx, id)
}

// ProviderStage delegates to the external transcript-scraping service.
type ProviderStage struct {
	Client *provider.Client
}

func (s ProviderStage) Name() string   { return StageProvider }
func (s ProviderStage) Method() string { return types.MethodThirdPartyAPI }
func (s ProviderStage) Attempt(ctx context.Context, id string) (string, error) {
	text, err := s.Client.Fetch(ctx, id)
	if errors.Is(err, provider.ErrNotConfigured) {
		return "", fmt.Errorf("%v: %w", err, ErrStageNotConfigured)
	}
	return text, err
}

// AudioStage resolves an audio stream and runs speech-to-text. Most
// expensive strategy; penultimate fallback by default, but the order is a
// configuration decision since no single order wins under every blocking
// condition upstream.
type AudioStage struct {
	Transcriber *audio.Transcriber
}

func (s AudioStage) Name() string   { return StageAudio }
func (s AudioStage) Method() string { return types.MethodAudioTranscription }
func (s AudioStage) Attempt(ctx context.Context, id string) (string, error) {
	text, err := s.Transcriber.Transcribe(ctx, id)
	if errors.Is(err, audio.ErrNotConfigured) {
		return "", fmt.Errorf("%v: %w", err, ErrStageNotConfigured)
	}
	return text, err
}

// StageSet holds the constructed stage implementations so a configured
// ordering can be turned into a stage list.
type StageSet struct {
	Scrape      *scrape.Client
	Provider    *provider.Client
	Transcriber *audio.Transcriber
}

// DefaultOrder is cheapest-first: direct scraping before the paid provider
// before paid audio transcription.
var DefaultOrder = []string{StageCaptions, StageInnertube, StageProvider, StageAudio}

// Select maps configured stage names onto stage implementations, preserving
// order. Unknown names are a configuration error.
func (s StageSet) Select(names []string) ([]Stage, error) {
	if len(names) == 0 {
		names = DefaultOrder
	}

	stages := make([]Stage, 0, len(names))
	for _, name := range names {
		switch name {
		case StageCaptions:
			stages = append(stages, CaptionStage{Client: s.Scrape})
		case StageInnertube:
			stages = append(stages, InnertubeStage{Client: s.Scrape})
		case StageProvider:
			stages = append(stages, ProviderStage{Client: s.Provider})
		case StageAudio:
			stages = append(stages, AudioStage{Transcriber: s.Transcriber})
		default:
			return nil, fmt.Errorf("unknown pipeline stage %q", name)
		}
	}

	return stages, nil
}
