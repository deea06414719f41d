// Package provider calls an external transcript-scraping service. The
// service runs its own proxy network to get past YouTube's anti-bot
// measures, which makes it a useful alternative when direct scraping is
// blocked.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tubescribe/tubescribe/internal/types"
	"github.com/tubescribe/tubescribe/internal/video"
)

var ErrNotConfigured = errors.New("transcript provider credential not configured")

// Error carries the provider's HTTP status and response body so failed calls
// can be diagnosed after the fact.
type Error struct {
	Status int
	Body   string
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("transcript provider: %s", e.Body)
	}
	return fmt.Sprintf("transcript provider responded %d: %s", e.Status, e.Body)
}

// Client is a credentialed client for the transcript provider API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a provider client. An empty apiKey is allowed; Fetch then
// fails with ErrNotConfigured without making a network call.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// Configured reports whether a credential is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

type fetchRequest struct {
	VideoURL string `json:"videoUrl"`
}

// Fetch requests the transcript for a video and joins the returned timed
// segments with single spaces. Non-success responses and empty segment sets
// both yield a *Error.
func (c *Client) Fetch(ctx context.Context, id string) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	payload, err := json.Marshal(fetchRequest{VideoURL: video.WatchURL(id)})
	if err != nil {
		return "", fmt.Errorf("encoding provider request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transcripts", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("building provider request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("provider request: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("reading provider response: %w", err)
	}

	if res.StatusCode != http.StatusOK {
		return "", &Error{Status: res.StatusCode, Body: string(body)}
	}

	var segments []types.Segment
	if err := json.Unmarshal(body, &segments); err != nil {
		return "", fmt.Errorf("decoding provider response: %w", err)
	}

	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}

	if len(parts) == 0 {
		return "", &Error{Status: res.StatusCode, Body: "empty segment list"}
	}

	return strings.Join(parts, " "), nil
}
