// Package audio turns a video into text the expensive way: resolve a direct
// audio stream and hand it to a speech-to-text service.
package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	youtube "github.com/kkdai/youtube/v2"
)

var ErrNoAudioFormat = errors.New("video exposes no audio-only rendition")

// StreamResolver resolves direct audio stream URLs for videos.
type StreamResolver struct {
	client youtube.Client
}

// NewStreamResolver creates a resolver with its own timeout-bounded client.
func NewStreamResolver(timeout time.Duration) *StreamResolver {
	return &StreamResolver{
		client: youtube.Client{
			HTTPClient: &http.Client{Timeout: timeout},
		},
	}
}

// audioFormat picks the lowest-bitrate audio-only rendition. Transcript
// fidelity, not audio quality, is the goal, so the cheapest stream wins.
func audioFormat(formats youtube.FormatList) (*youtube.Format, error) {
	var best *youtube.Format
	for i := range formats {
		f := &formats[i]
		if !strings.HasPrefix(f.MimeType, "audio/") {
			continue
		}
		if best == nil || f.Bitrate < best.Bitrate {
			best = f
		}
	}

	if best == nil {
		return nil, ErrNoAudioFormat
	}
	return best, nil
}

// AudioStreamURL resolves a direct URL for the cheapest audio rendition.
func (r *StreamResolver) AudioStreamURL(ctx context.Context, id string) (string, error) {
	v, err := r.client.GetVideoContext(ctx, id)
	if err != nil {
		return "", fmt.Errorf("resolving video %q: %w", id, err)
	}

	format, err := audioFormat(v.Formats)
	if err != nil {
		return "", fmt.Errorf("video %q: %w", id, err)
	}

	url, err := r.client.GetStreamURLContext(ctx, v, format)
	if err != nil {
		return "", fmt.Errorf("stream URL for %q: %w", id, err)
	}

	return url, nil
}

// Download writes the cheapest audio rendition to path. The caller owns the
// file and is responsible for deleting it.
func (r *StreamResolver) Download(ctx context.Context, id, path string) error {
	v, err := r.client.GetVideoContext(ctx, id)
	if err != nil {
		return fmt.Errorf("resolving video %q: %w", id, err)
	}

	format, err := audioFormat(v.Formats)
	if err != nil {
		return fmt.Errorf("video %q: %w", id, err)
	}

	stream, _, err := r.client.GetStreamContext(ctx, v, format)
	if err != nil {
		return fmt.Errorf("opening audio stream for %q: %w", id, err)
	}
	defer stream.Close()

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating audio file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, stream); err != nil {
		return fmt.Errorf("downloading audio for %q: %w", id, err)
	}

	return nil
}
