// Package scrape extracts caption data directly from YouTube watch pages.
//
// The watch page embeds its player state as JSON inside script text, so
// extraction is a mix of marker searches and a small balanced-brace scanner.
// YouTube serves a degraded page to generic clients, hence the spoofed
// desktop browser headers on every request.
package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36"

// Client fetches watch pages and timed-text payloads.
type Client struct {
	http *http.Client
	lang string

	// Overridable in tests.
	watchBase     string
	innertubeBase string
}

// NewClient creates a scrape client. lang is the preferred caption language
// code ("en" when empty).
func NewClient(timeout time.Duration, lang string) *Client {
	if lang == "" {
		lang = "en"
	}
	return &Client{
		http:          &http.Client{Timeout: timeout},
		lang:          lang,
		watchBase:     "https://www.youtube.com",
		innertubeBase: "https://www.youtube.com",
	}
}

// get performs a GET with browser-like headers and returns the body.
func (c *Client) get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("building request for %q: %w", url, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	res, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("requesting %q: %w", url, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("reading response body: %w", err)
	}

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("got status %d from %q", res.StatusCode, url)
	}

	return string(body), nil
}

// WatchPage fetches the public watch page HTML for a video id.
func (c *Client) WatchPage(ctx context.Context, id string) (string, error) {
	html, err := c.get(ctx, c.watchBase+"/watch?v="+id)
	if err != nil {
		return "", err
	}

	if strings.Contains(html, `class="g-recaptcha"`) {
		return "", fmt.Errorf("watch page for %q served a captcha: %w", id, ErrTooManyRequests)
	}

	return html, nil
}
