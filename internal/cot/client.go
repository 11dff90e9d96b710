// Package cot ingests the CFTC Commitment of Traders futures-only
// feed into validated positioning records, with a two-tier cache
// (in-memory, then durable) in front of the weekly refresh.
package cot

import (
	"context"
	"encoding/csv"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/quantbrief/oracle/internal/models"
)

const FuturesOnlyURL = "https://www.cftc.gov/dea/newcot/deafut.txt"

// Client fetches, validates, and caches COT positioning data.
type Client struct {
	http   *resty.Client
	url    string
	store  CacheStore
	maxAge time.Duration
	now    func() time.Time

	mu        sync.Mutex
	cache     map[string]models.PositioningRecord
	cacheTime time.Time
}

// NewClient creates a new COT client. store may be nil, in which case
// only the in-memory tier is used.
func NewClient(store CacheStore, maxAge time.Duration) *Client {
	if maxAge <= 0 {
		maxAge = 7 * 24 * time.Hour
	}
	return &Client{
		http: resty.New().
			SetTimeout(30 * time.Second).
			SetRetryCount(2).
			SetHeader("User-Agent", "Oracle/1.0 (Market Research Tool)"),
		url:    FuturesOnlyURL,
		store:  store,
		maxAge: maxAge,
		now:    time.Now,
	}
}

// LatestReport returns the current validated positioning records,
// refreshing from the CFTC feed when both cache tiers are stale. The
// only fatal condition is a refresh that accepts zero rows.
func (c *Client) LatestReport(ctx context.Context) (map[string]models.PositioningRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.cache) == 0 && c.store != nil {
		if data, refreshedAt, err := c.store.LoadPositioningCache(ctx); err == nil && len(data) > 0 {
			c.cache = data
			c.cacheTime = refreshedAt
		}
	}

	if len(c.cache) > 0 && cacheValid(c.now(), c.cacheTime, c.maxAge) {
		return c.snapshot(), nil
	}

	if err := c.refresh(ctx); err != nil {
		return nil, err
	}

	return c.snapshot(), nil
}

// refresh fetches and parses the feed. Caller holds the mutex.
func (c *Client) refresh(ctx context.Context) error {
	raw, err := c.fetch(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch CFTC COT data: %w", err)
	}

	now := c.now()
	parsed := make(map[string]models.PositioningRecord)
	rejected := 0

	reader := csv.NewReader(strings.NewReader(raw))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	for {
		row, err := reader.Read()
		if err != nil {
			break
		}

		rec := parseRow(row, now)
		if rec == nil {
			rejected++
			continue
		}

		// First row seen per asset wins; later duplicates are dropped.
		if _, ok := parsed[rec.Asset]; ok {
			continue
		}
		parsed[rec.Asset] = DeriveSignal(*rec)
	}

	if len(parsed) == 0 {
		return fmt.Errorf("failed to parse any COT data from CFTC: the data format may have changed")
	}

	c.cache = parsed
	c.cacheTime = now

	if c.store != nil {
		if err := c.store.SavePositioningCache(ctx, parsed, now); err != nil {
			log.Warn().Err(err).Msg("Failed to persist COT cache")
		}
	}

	log.Info().Int("assets", len(parsed)).Msg("COT data refreshed")
	return nil
}

func (c *Client) fetch(ctx context.Context) (string, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get(c.url)

	if err != nil {
		return "", err
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("CFTC returned %d", resp.StatusCode())
	}
	return resp.String(), nil
}

// snapshot copies the cache so callers never alias internal state.
func (c *Client) snapshot() map[string]models.PositioningRecord {
	out := make(map[string]models.PositioningRecord, len(c.cache))
	for asset, rec := range c.cache {
		out[asset] = rec
	}
	return out
}

// PositioningSummary condenses the latest report for the synthesis
// prompt.
func (c *Client) PositioningSummary(ctx context.Context) (map[string]models.PositioningSummary, error) {
	data, err := c.LatestReport(ctx)
	if err != nil {
		return nil, err
	}

	summary := make(map[string]models.PositioningSummary, len(data))
	for asset, rec := range data {
		summary[asset] = models.PositioningSummary{
			Positioning: rec.Positioning,
			Signal:      rec.Signal,
			SpecNetPct:  rec.SpecNetPct,
			Date:        rec.Date,
			Source:      rec.Source,
		}
	}
	return summary, nil
}

// CrowdedTrades lists assets where speculative positioning sits at a
// contrarian extreme.
func (c *Client) CrowdedTrades(ctx context.Context) ([]models.CrowdedTrade, error) {
	data, err := c.LatestReport(ctx)
	if err != nil {
		return nil, err
	}

	var crowded []models.CrowdedTrade
	for asset, rec := range data {
		if !strings.Contains(rec.Positioning, "CROWDED") {
			continue
		}
		crowded = append(crowded, models.CrowdedTrade{
			Asset:       asset,
			Positioning: rec.Positioning,
			Signal:      rec.Signal,
			SpecNetPct:  rec.SpecNetPct,
			Risk:        "HIGH - Vulnerable to reversal",
			Date:        rec.Date,
		})
	}
	return crowded, nil
}
