// Package video normalizes user-supplied video URLs and identifiers.
package video

import (
	"errors"
	"fmt"
	"regexp"
)

var ErrInvalidInput = errors.New("not a recognizable video URL or id")

// Ordered by how often each shape shows up in practice.
var urlPatterns = []*regexp.Regexp{
	regexp.MustCompile(`youtube\.com/watch\?(?:[^&\s]*&)*v=([0-9A-Za-z_-]{11})`),
	regexp.MustCompile(`youtu\.be/([0-9A-Za-z_-]{11})`),
	regexp.MustCompile(`youtube\.com/embed/([0-9A-Za-z_-]{11})`),
	regexp.MustCompile(`youtube\.com/shorts/([0-9A-Za-z_-]{11})`),
}

var bareID = regexp.MustCompile(`^[0-9A-Za-z_-]{11}$`)

// Locate extracts the canonical 11-character video id from a URL in any of
// the supported shapes, or validates a bare id. Pure, no side effects.
func Locate(urlOrID string) (string, error) {
	for _, p := range urlPatterns {
		if m := p.FindStringSubmatch(urlOrID); m != nil {
			return m[1], nil
		}
	}

	if bareID.MatchString(urlOrID) {
		return urlOrID, nil
	}

	return "", fmt.Errorf("locate %q: %w", urlOrID, ErrInvalidInput)
}

// WatchURL returns the canonical watch page URL for a video id.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}
