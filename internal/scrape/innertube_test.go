package scrape

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func innertubeSegments(texts ...string) string {
	segments := make([]map[string]any, len(texts))
	for i, text := range texts {
		segments[i] = map[string]any{
			"transcriptSegmentRenderer": map[string]any{
				"snippet": map[string]any{
					"runs": []map[string]string{{"text": text}},
				},
			},
		}
	}

	payload := map[string]any{
		"actions": []map[string]any{{
			"updateEngagementPanelAction": map[string]any{
				"content": map[string]any{
					"transcriptRenderer": map[string]any{
						"content": map[string]any{
							"transcriptSearchPanelRenderer": map[string]any{
								"body": map[string]any{
									"transcriptSegmentListRenderer": map[string]any{
										"initialSegments": segments,
									},
								},
							},
						},
					},
				},
			},
		}},
	}

	out, _ := json.Marshal(payload)
	return string(out)
}

func TestTranscriptViaInnertube(t *testing.T) {
	mux := http.NewServeMux()

	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html>ytcfg.set({"INNERTUBE_API_KEY":"test-key-123"});</html>`)
	})
	mux.HandleFunc("/youtubei/v1/get_transcript", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "test-key-123", r.URL.Query().Get("key"))

		var req innertubeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, innertubeClientName, req.Context.Client.ClientName)

		params, err := base64.StdEncoding.DecodeString(req.Params)
		require.NoError(t, err)
		assert.Equal(t, "\n\x0bdQw4w9WgXcQ", string(params))

		fmt.Fprint(w, innertubeSegments("never gonna", "give you up"))
	})

	c := testClient(t, mux)

	got, err := c.TranscriptViaInnertube(context.Background(), "dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, "never gonna give you up", got)
}

func TestTranscriptViaInnertubeNoSegments(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html></html>`)
	})
	mux.HandleFunc("/youtubei/v1/get_transcript", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"actions":[]}`)
	})

	c := testClient(t, mux)

	_, err := c.TranscriptViaInnertube(context.Background(), "dQw4w9WgXcQ")
	assert.ErrorIs(t, err, ErrNoTranscriptPanel)
}

func TestTranscriptViaInnertubeServerError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html></html>`)
	})
	mux.HandleFunc("/youtubei/v1/get_transcript", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	c := testClient(t, mux)

	_, err := c.TranscriptViaInnertube(context.Background(), "dQw4w9WgXcQ")
	assert.Error(t, err)
}
