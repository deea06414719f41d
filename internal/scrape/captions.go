package scrape

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"

	"github.com/tubescribe/tubescribe/internal/types"
)

var (
	ErrNoCaptions      = errors.New("no caption tracks")
	ErrEmptyTranscript = errors.New("caption payload decoded to empty text")
	ErrTooManyRequests = errors.New("too many requests")
)

// resTrack mirrors the caption track objects embedded in the player JSON.
type resTrack struct {
	BaseURL string `json:"baseUrl"`
	Name    struct {
		SimpleText string `json:"simpleText"`
	} `json:"name"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

// resPlayerResponse outlines just the part of ytInitialPlayerResponse we use.
type resPlayerResponse struct {
	Captions struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []resTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

// ResolveTracks fetches the watch page once and extracts the available
// caption tracks. Two strategies are tried in order: a direct search for the
// captionTracks array literal, then a full parse of the embedded player
// response. The page intermittently omits the shortcut the first strategy
// relies on.
func (c *Client) ResolveTracks(ctx context.Context, id string) ([]types.CaptionTrack, error) {
	html, err := c.WatchPage(ctx, id)
	if err != nil {
		return nil, err
	}
	return c.tracksFromHTML(id, html)
}

func (c *Client) tracksFromHTML(id, html string) ([]types.CaptionTrack, error) {
	tracks := tracksFromArrayLiteral(html)
	if len(tracks) == 0 {
		tracks = tracksFromPlayerResponse(html)
	}
	if len(tracks) == 0 {
		return nil, fmt.Errorf("video %q: %w", id, ErrNoCaptions)
	}
	return tracks, nil
}

func tracksFromArrayLiteral(html string) []types.CaptionTrack {
	raw, err := jsonAfter(html, `"captionTracks":`)
	if err != nil {
		return nil
	}

	var res []resTrack
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return nil
	}

	return convertTracks(res)
}

func tracksFromPlayerResponse(html string) []types.CaptionTrack {
	raw, err := jsonAfter(html, "var ytInitialPlayerResponse = ")
	if err != nil {
		return nil
	}

	var res resPlayerResponse
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return nil
	}

	return convertTracks(res.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks)
}

func convertTracks(res []resTrack) []types.CaptionTrack {
	tracks := make([]types.CaptionTrack, 0, len(res))
	for _, t := range res {
		if t.BaseURL == "" {
			continue
		}
		tracks = append(tracks, types.CaptionTrack{
			BaseURL:      t.BaseURL,
			Name:         t.Name.SimpleText,
			LanguageCode: t.LanguageCode,
			Kind:         t.Kind,
		})
	}
	return tracks
}

// BestTrack selects the track to fetch: a manual track in the preferred
// language, then auto-generated in the preferred language, then any track
// whose code starts with the preferred language, then the first available.
// This favors transcript fidelity over coverage.
func BestTrack(tracks []types.CaptionTrack, lang string) (types.CaptionTrack, bool) {
	for _, t := range tracks {
		if t.LanguageCode == lang && !t.Auto() {
			return t, true
		}
	}

	for _, t := range tracks {
		if t.LanguageCode == lang {
			return t, true
		}
	}

	for _, t := range tracks {
		if strings.HasPrefix(t.LanguageCode, lang) {
			return t, true
		}
	}

	if len(tracks) > 0 {
		return tracks[0], true
	}

	return types.CaptionTrack{}, false
}

// timedText matches the <text start dur> elements of a timed-text payload.
type timedText struct {
	Entries []struct {
		Text  string  `xml:",chardata"`
		Start float64 `xml:"start,attr"`
		Dur   float64 `xml:"dur,attr"`
	} `xml:"text"`
}

var entityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
)

// FetchText downloads a track's timed-text payload and decodes it into plain
// text: segment texts joined by single spaces, the five standard entities
// decoded, result trimmed.
func (c *Client) FetchText(ctx context.Context, track types.CaptionTrack) (string, error) {
	body, err := c.get(ctx, track.BaseURL)
	if err != nil {
		return "", fmt.Errorf("timed-text fetch: %w", err)
	}
	return DecodeTimedText(body)
}

// DecodeTimedText converts a timed-text XML document into plain text.
// Caption payloads double-escape entities, so one more decode pass runs
// after the XML parse.
func DecodeTimedText(payload string) (string, error) {
	var doc timedText
	if err := xml.Unmarshal([]byte(payload), &doc); err != nil {
		return "", fmt.Errorf("parsing timed-text xml: %w", err)
	}

	parts := make([]string, 0, len(doc.Entries))
	for _, e := range doc.Entries {
		text := entityReplacer.Replace(e.Text)
		text = strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
		if text != "" {
			parts = append(parts, text)
		}
	}

	out := strings.TrimSpace(strings.Join(parts, " "))
	if out == "" {
		return "", ErrEmptyTranscript
	}

	return out, nil
}

// Transcript resolves the best caption track for a video and fetches its
// text in one call. This is the cheapest extraction strategy.
func (c *Client) Transcript(ctx context.Context, id string) (string, error) {
	tracks, err := c.ResolveTracks(ctx, id)
	if err != nil {
		return "", err
	}

	track, ok := BestTrack(tracks, c.lang)
	if !ok {
		return "", fmt.Errorf("video %q: %w", id, ErrNoCaptions)
	}

	return c.FetchText(ctx, track)
}
