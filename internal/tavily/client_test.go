package tavily

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient("test-key")
	c.client.SetBaseURL(srv.URL)
	c.client.SetRetryCount(0)
	return c
}

func TestSearch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "test-key", body["api_key"])
		assert.Equal(t, "advanced", body["search_depth"])

		w.Write([]byte(`{"results": [
			{"title": "Fed holds rates", "url": "https://example.com/fed", "content": "` + strings.Repeat("a", 300) + `", "score": 0.91}
		]}`))
	})

	events, err := c.Search(context.Background(), "Federal Reserve", 3)
	require.NoError(t, err)
	require.Len(t, events, 1)

	assert.Equal(t, "Fed holds rates", events[0].Title)
	assert.Equal(t, "Tavily: https://example.com/fed", events[0].Source)
	assert.Len(t, events[0].Content, 200)
	assert.Equal(t, 0.91, events[0].Score)
}

func TestSearchTruncatesOnRuneBoundary(t *testing.T) {
	// 100 three-byte runes: a 200-byte cut would land mid-rune.
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": [
			{"title": "t", "url": "https://e.com", "content": "` + strings.Repeat("日", 100) + `", "score": 0.5}
		]}`))
	})

	events, err := c.Search(context.Background(), "china", 3)
	require.NoError(t, err)
	require.Len(t, events, 1)

	assert.True(t, utf8.ValidString(events[0].Content))
	assert.Len(t, events[0].Content, 198)
}

func TestSearchAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.Search(context.Background(), "anything", 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestSearchMacroEventsTagsTopics(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": [{"title": "t", "url": "https://e.com", "content": "c", "score": 0.5}]}`))
	})

	events, err := c.SearchMacroEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 4)

	topics := []string{}
	for _, e := range events {
		topics = append(topics, e.Topic)
	}
	assert.Equal(t, []string{"fed_policy", "ecb_policy", "china_economy", "geopolitical"}, topics)
}

func TestSearchMacroEventsAllFail(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.SearchMacroEvents(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 4 macro event searches failed")
}
