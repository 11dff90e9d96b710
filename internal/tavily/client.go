// Package tavily provides news search via the Tavily API.
package tavily

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/quantbrief/oracle/internal/models"
)

const APIURL = "https://api.tavily.com"

// macroTopics are the fixed searches run for the geopolitical stage.
// Order is the order events appear in the aggregate state.
var macroTopics = []struct {
	Key   string
	Query string
}{
	{"fed_policy", "Federal Reserve monetary policy decision"},
	{"ecb_policy", "ECB European Central Bank policy"},
	{"china_economy", "China economic stimulus policy"},
	{"geopolitical", "geopolitical tensions markets impact"},
}

// Client provides search functionality via the Tavily API.
type Client struct {
	client *resty.Client
	apiKey string
}

// NewClient creates a new Tavily client.
func NewClient(apiKey string) *Client {
	return &Client{
		client: resty.New().
			SetBaseURL(APIURL).
			SetTimeout(30 * time.Second).
			SetRetryCount(2),
		apiKey: apiKey,
	}
}

type searchResponse struct {
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// Search performs a search query and maps results to news events.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]models.NewsEvent, error) {
	body := map[string]interface{}{
		"api_key":        c.apiKey,
		"query":          query,
		"search_depth":   "advanced",
		"max_results":    maxResults,
		"include_answer": true,
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post("/search")

	if err != nil {
		return nil, fmt.Errorf("tavily search failed: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("tavily API returned %d: %s", resp.StatusCode(), resp.String())
	}

	var result searchResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to parse tavily response: %w", err)
	}

	events := make([]models.NewsEvent, 0, len(result.Results))
	for _, item := range result.Results {
		events = append(events, models.NewsEvent{
			Title:   item.Title,
			URL:     item.URL,
			Content: truncate(item.Content, 200),
			Score:   item.Score,
			Source:  "Tavily: " + item.URL,
		})
	}

	return events, nil
}

// SearchMacroEvents runs the fixed macro topic searches. Per-topic
// failures are logged and skipped; an error is returned only when
// every topic fails.
func (c *Client) SearchMacroEvents(ctx context.Context) ([]models.NewsEvent, error) {
	var all []models.NewsEvent
	failures := 0

	for _, topic := range macroTopics {
		events, err := c.Search(ctx, topic.Query, 3)
		if err != nil {
			log.Warn().Err(err).Str("topic", topic.Key).Msg("Macro event search failed")
			failures++
			continue
		}
		for i := range events {
			events[i].Topic = topic.Key
		}
		all = append(all, events...)
	}

	if failures == len(macroTopics) {
		return nil, fmt.Errorf("all %d macro event searches failed", failures)
	}

	log.Debug().Int("events", len(all)).Msg("Macro event search complete")
	return all, nil
}

// truncate cuts s to at most maxLen bytes without splitting a rune.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	for maxLen > 0 && !utf8.RuneStart(s[maxLen]) {
		maxLen--
	}
	return s[:maxLen]
}
