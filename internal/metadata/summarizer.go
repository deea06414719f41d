// Package metadata synthesizes substitute text from a video's title and
// description. It is the pipeline's terminal fallback and never fails: when
// nothing can be extracted it still emits a block with placeholder values.
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36"

// Summarizer extracts watch-page metadata.
type Summarizer struct {
	http *http.Client

	// Overridable in tests.
	watchBase  string
	oembedBase string
}

// NewSummarizer creates a summarizer with a timeout-bounded client.
func NewSummarizer(timeout time.Duration) *Summarizer {
	return &Summarizer{
		http:       &http.Client{Timeout: timeout},
		watchBase:  "https://www.youtube.com",
		oembedBase: "https://www.youtube.com",
	}
}

// videoMeta is what we manage to scrape for one video.
type videoMeta struct {
	Title       string
	Description string
	Keywords    []string
}

// Summarize produces the metadata-only substitute text for a video. The
// returned string is always non-empty.
func (s *Summarizer) Summarize(ctx context.Context, id string) string {
	meta := s.collect(ctx, id)

	if meta.Title == "" {
		meta.Title = "Unknown Video"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "VIDEO TITLE: %s\n\n", meta.Title)
	fmt.Fprintf(&b, "DESCRIPTION: %s\n\n", meta.Description)
	if len(meta.Keywords) > 0 {
		fmt.Fprintf(&b, "KEYWORDS: %s\n\n", strings.Join(meta.Keywords, ", "))
	}
	b.WriteString("NOTE: No transcript could be extracted for this video. The text above is metadata only, not actual spoken content.")

	return b.String()
}

// collect tries the watch page first, then the oEmbed endpoint. Either may
// fail; partial results are fine.
func (s *Summarizer) collect(ctx context.Context, id string) videoMeta {
	meta, err := s.fromWatchPage(ctx, id)
	if err == nil && meta.Title != "" {
		return meta
	}

	if oe, err := s.fromOEmbed(ctx, id); err == nil && oe.Title != "" {
		return oe
	}

	return meta
}

var (
	titlePattern       = regexp.MustCompile(`"title"\s*:\s*"((?:[^"\\]|\\.)*)"`)
	descriptionPattern = regexp.MustCompile(`"shortDescription"\s*:\s*"((?:[^"\\]|\\.)*)"`)
	keywordsPattern    = regexp.MustCompile(`"keywords"\s*:\s*(\[[^\]]*\])`)
)

// fromWatchPage pulls title, description, and keywords out of the watch
// page. Depending on how the page was rendered the values live either in the
// embedded player JSON or in <meta> tags, so both representations are read.
func (s *Summarizer) fromWatchPage(ctx context.Context, id string) (videoMeta, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.watchBase+"/watch?v="+id, nil)
	if err != nil {
		return videoMeta{}, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	res, err := s.http.Do(req)
	if err != nil {
		return videoMeta{}, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return videoMeta{}, err
	}
	if res.StatusCode != http.StatusOK {
		return videoMeta{}, fmt.Errorf("watch page status %d", res.StatusCode)
	}

	html := string(body)
	meta := videoMeta{
		Title:       unescapeJSONString(firstGroup(titlePattern, html)),
		Description: unescapeJSONString(firstGroup(descriptionPattern, html)),
	}
	if raw := firstGroup(keywordsPattern, html); raw != "" {
		var kws []string
		if err := json.Unmarshal([]byte(raw), &kws); err == nil {
			meta.Keywords = kws
		}
	}

	// Meta tags fill whatever the embedded JSON did not provide.
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
		if meta.Title == "" {
			meta.Title = metaContent(doc, `meta[name="title"]`, `meta[property="og:title"]`)
		}
		if meta.Description == "" {
			meta.Description = metaContent(doc, `meta[name="description"]`, `meta[property="og:description"]`)
		}
		if len(meta.Keywords) == 0 {
			if kw := metaContent(doc, `meta[name="keywords"]`); kw != "" {
				for _, k := range strings.Split(kw, ",") {
					if k = strings.TrimSpace(k); k != "" {
						meta.Keywords = append(meta.Keywords, k)
					}
				}
			}
		}
	}

	return meta, nil
}

// fromOEmbed hits the lightweight oEmbed endpoint, which only knows the
// title but rarely gets blocked.
func (s *Summarizer) fromOEmbed(ctx context.Context, id string) (videoMeta, error) {
	endpoint := s.oembedBase + "/oembed?format=json&url=" + url.QueryEscape("https://www.youtube.com/watch?v="+id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return videoMeta{}, err
	}
	req.Header.Set("User-Agent", userAgent)

	res, err := s.http.Do(req)
	if err != nil {
		return videoMeta{}, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return videoMeta{}, fmt.Errorf("oembed status %d", res.StatusCode)
	}

	var payload struct {
		Title      string `json:"title"`
		AuthorName string `json:"author_name"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return videoMeta{}, err
	}

	meta := videoMeta{Title: payload.Title}
	if payload.AuthorName != "" {
		meta.Description = "By " + payload.AuthorName
	}
	return meta, nil
}

func firstGroup(p *regexp.Regexp, s string) string {
	if m := p.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return ""
}

// unescapeJSONString decodes backslash escapes captured from embedded JSON.
func unescapeJSONString(raw string) string {
	if raw == "" {
		return ""
	}
	if out, err := strconv.Unquote(`"` + raw + `"`); err == nil {
		return out
	}
	return raw
}

func metaContent(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if content, ok := doc.Find(sel).First().Attr("content"); ok {
			if content = strings.TrimSpace(content); content != "" {
				return content
			}
		}
	}
	return ""
}
