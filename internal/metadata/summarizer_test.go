package metadata

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSummarizer(t *testing.T, handler http.Handler) *Summarizer {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	s := NewSummarizer(5 * time.Second)
	s.watchBase = srv.URL
	s.oembedBase = srv.URL
	return s
}

func TestSummarizeFromWatchPage(t *testing.T) {
	s := testSummarizer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/watch", r.URL.Path)
		fmt.Fprint(w, `<html><body><script>
			var ytInitialPlayerResponse = {"videoDetails":{"title":"Test Video","shortDescription":"A video about testing\nwith newlines","keywords":["go","testing"]}};
		</script></body></html>`)
	}))

	got := s.Summarize(context.Background(), "dQw4w9WgXcQ")

	assert.Contains(t, got, "VIDEO TITLE: Test Video")
	assert.Contains(t, got, "DESCRIPTION: A video about testing\nwith newlines")
	assert.Contains(t, got, "KEYWORDS: go, testing")
	assert.Contains(t, got, "NOTE: No transcript could be extracted")
}

func TestSummarizeFromMetaTags(t *testing.T) {
	s := testSummarizer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head>
			<meta property="og:title" content="Tag Title">
			<meta name="description" content="Tag description">
			<meta name="keywords" content="one, two , ">
		</head><body></body></html>`)
	}))

	got := s.Summarize(context.Background(), "dQw4w9WgXcQ")

	assert.Contains(t, got, "VIDEO TITLE: Tag Title")
	assert.Contains(t, got, "DESCRIPTION: Tag description")
	assert.Contains(t, got, "KEYWORDS: one, two")
}

func TestSummarizeOEmbedFallback(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	})
	mux.HandleFunc("/oembed", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"title":"OEmbed Title","author_name":"Some Channel"}`)
	})
	s := testSummarizer(t, mux)

	got := s.Summarize(context.Background(), "dQw4w9WgXcQ")

	assert.Contains(t, got, "VIDEO TITLE: OEmbed Title")
	assert.Contains(t, got, "DESCRIPTION: By Some Channel")
}

func TestSummarizeNeverFails(t *testing.T) {
	s := testSummarizer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))

	got := s.Summarize(context.Background(), "dQw4w9WgXcQ")

	assert.Contains(t, got, "VIDEO TITLE: Unknown Video")
	assert.Contains(t, got, "NOTE: No transcript could be extracted")
}
