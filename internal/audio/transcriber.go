package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotConfigured        = errors.New("speech-to-text credential not configured")
	ErrTranscriptionFailed  = errors.New("speech-to-text service reported an error")
	ErrTranscriptionTimeout = errors.New("speech-to-text polling attempts exhausted")
)

// streamSource resolves audio for a video. Satisfied by *StreamResolver; a
// narrow interface keeps the transcriber testable without network access.
type streamSource interface {
	AudioStreamURL(ctx context.Context, id string) (string, error)
	Download(ctx context.Context, id, path string) error
}

// Transcriber submits a video's audio to an AssemblyAI-compatible
// speech-to-text API and awaits the result.
type Transcriber struct {
	source  streamSource
	baseURL string
	apiKey  string
	http    *http.Client

	tempDir       string
	downloadFirst bool
	pollInterval  time.Duration
	maxPolls      int
}

// TranscriberConfig holds the knobs for a Transcriber.
type TranscriberConfig struct {
	BaseURL       string
	APIKey        string
	Timeout       time.Duration
	TempDir       string
	DownloadFirst bool // download audio locally and upload, instead of passing the stream URL
	PollInterval  time.Duration
	MaxPolls      int
}

// NewTranscriber creates a transcriber. An empty APIKey is allowed;
// Transcribe then fails with ErrNotConfigured without touching the network.
func NewTranscriber(source streamSource, cfg TranscriberConfig) *Transcriber {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 3 * time.Second
	}
	if cfg.MaxPolls <= 0 {
		cfg.MaxPolls = 40
	}
	if cfg.TempDir == "" {
		cfg.TempDir = "temp"
	}
	return &Transcriber{
		source:        source,
		baseURL:       cfg.BaseURL,
		apiKey:        cfg.APIKey,
		http:          &http.Client{Timeout: cfg.Timeout},
		tempDir:       cfg.TempDir,
		downloadFirst: cfg.DownloadFirst,
		pollInterval:  cfg.PollInterval,
		maxPolls:      cfg.MaxPolls,
	}
}

// Configured reports whether a credential is present.
func (t *Transcriber) Configured() bool {
	return t.apiKey != ""
}

// Transcribe resolves the video's cheapest audio rendition and runs it
// through speech-to-text with automatic language detection.
func (t *Transcriber) Transcribe(ctx context.Context, id string) (string, error) {
	if !t.Configured() {
		return "", ErrNotConfigured
	}

	audioURL, err := t.resolveAudio(ctx, id)
	if err != nil {
		return "", err
	}

	transcriptID, err := t.submit(ctx, audioURL)
	if err != nil {
		return "", err
	}

	return t.await(ctx, transcriptID)
}

// resolveAudio produces a URL the speech-to-text service can fetch: either
// the direct stream URL, or (when configured to download first) an upload of
// a locally buffered copy. The temp file is removed on every exit path.
func (t *Transcriber) resolveAudio(ctx context.Context, id string) (string, error) {
	if !t.downloadFirst {
		return t.source.AudioStreamURL(ctx, id)
	}

	tempPath := filepath.Join(t.tempDir, fmt.Sprintf("audio_%s.m4a", uuid.New().String()))
	defer func() {
		if err := os.Remove(tempPath); err != nil && !os.IsNotExist(err) {
			log.Printf("Failed to cleanup temp audio %s: %v", tempPath, err)
		}
	}()

	if err := t.source.Download(ctx, id, tempPath); err != nil {
		return "", err
	}

	return t.upload(ctx, tempPath)
}

// upload pushes a local audio file to the service and returns its hosted URL.
func (t *Transcriber) upload(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading audio file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/v2/upload", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("building upload request: %w", err)
	}
	req.Header.Set("Authorization", t.apiKey)
	req.Header.Set("Content-Type", "application/octet-stream")

	var res struct {
		UploadURL string `json:"upload_url"`
	}
	if err := t.do(req, &res); err != nil {
		return "", fmt.Errorf("uploading audio: %w", err)
	}

	if res.UploadURL == "" {
		return "", fmt.Errorf("upload response missing url: %w", ErrTranscriptionFailed)
	}

	return res.UploadURL, nil
}

// submit creates a transcript job for an audio URL.
func (t *Transcriber) submit(ctx context.Context, audioURL string) (string, error) {
	payload, err := json.Marshal(map[string]any{
		"audio_url":          audioURL,
		"language_detection": true,
	})
	if err != nil {
		return "", fmt.Errorf("encoding transcript request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/v2/transcript", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("building transcript request: %w", err)
	}
	req.Header.Set("Authorization", t.apiKey)
	req.Header.Set("Content-Type", "application/json")

	var res transcriptStatus
	if err := t.do(req, &res); err != nil {
		return "", fmt.Errorf("submitting transcript job: %w", err)
	}

	if res.Status == "error" {
		return "", fmt.Errorf("%s: %w", res.Error, ErrTranscriptionFailed)
	}

	return res.ID, nil
}

type transcriptStatus struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Text   string `json:"text"`
	Error  string `json:"error"`
}

// await polls the transcript job until it completes, errors, or the attempt
// budget runs out.
func (t *Transcriber) await(ctx context.Context, transcriptID string) (string, error) {
	for attempt := 0; attempt < t.maxPolls; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"/v2/transcript/"+transcriptID, nil)
		if err != nil {
			return "", fmt.Errorf("building poll request: %w", err)
		}
		req.Header.Set("Authorization", t.apiKey)

		var res transcriptStatus
		if err := t.do(req, &res); err != nil {
			return "", fmt.Errorf("polling transcript %q: %w", transcriptID, err)
		}

		switch res.Status {
		case "completed":
			return res.Text, nil
		case "error":
			return "", fmt.Errorf("%s: %w", res.Error, ErrTranscriptionFailed)
		}

		select {
		case <-time.After(t.pollInterval):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	return "", ErrTranscriptionTimeout
}

func (t *Transcriber) do(req *http.Request, out any) error {
	res, err := t.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("status %d: %q", res.StatusCode, string(body))
	}

	return json.Unmarshal(body, out)
}
