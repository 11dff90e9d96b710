// Package fred provides a client for the FRED economic data API.
package fred

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/quantbrief/oracle/internal/models"
)

const BaseURL = "https://api.stlouisfed.org/fred"

// EconomicSeries are the indicators fetched for the full economic
// snapshot.
var EconomicSeries = []SeriesInfo{
	{"GDP", "Gross Domestic Product"},
	{"CPIAUCSL", "Consumer Price Index"},
	{"UNRATE", "Unemployment Rate"},
	{"FEDFUNDS", "Federal Funds Rate"},
	{"T10Y2Y", "10Y-2Y Treasury Spread"},
	{"T10Y3M", "10Y-3M Treasury Spread"},
	{"DGS10", "10-Year Treasury Rate"},
	{"DEXUSEU", "USD/EUR Exchange Rate"},
	{"DCOILWTICO", "WTI Crude Oil Price"},
	{"VIXCLS", "CBOE Volatility Index (VIX)"},
	{"BAMLC0A0CM", "ICE BofA US Corporate IG Spread"},
	{"BAMLH0A0HYM2", "ICE BofA US High Yield Spread"},
}

// RiskSeries are the subset of series used for the risk dashboard and
// the macro regime call.
var RiskSeries = []SeriesInfo{
	{"VIXCLS", "CBOE Volatility Index (VIX)"},
	{"BAMLC0A0CM", "ICE BofA US Corporate IG Spread"},
	{"BAMLH0A0HYM2", "ICE BofA US High Yield Spread"},
	{"T10Y2Y", "10Y-2Y Treasury Spread"},
	{"T10Y3M", "10Y-3M Treasury Spread"},
}

// SeriesInfo pairs a FRED series id with a display name.
type SeriesInfo struct {
	ID   string
	Name string
}

// Client provides access to FRED series observations.
type Client struct {
	client *resty.Client
	apiKey string
}

// NewClient creates a new FRED client.
func NewClient(apiKey string) *Client {
	return &Client{
		client: resty.New().
			SetBaseURL(BaseURL).
			SetTimeout(30 * time.Second).
			SetRetryCount(2),
		apiKey: apiKey,
	}
}

type observationsResponse struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
}

// GetSeries returns the latest observation and its prior for a series.
// Failures come back as an indicator carrying an error marker, never an
// error return: one bad series must not sink the stage.
func (c *Client) GetSeries(ctx context.Context, seriesID string) models.EconomicIndicator {
	ind := models.EconomicIndicator{
		SeriesID: seriesID,
		Source:   fmt.Sprintf("FRED (series: %s)", seriesID),
	}

	end := time.Now()
	start := end.AddDate(-1, 0, 0)

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"series_id":         seriesID,
			"api_key":           c.apiKey,
			"file_type":         "json",
			"observation_start": start.Format("2006-01-02"),
			"observation_end":   end.Format("2006-01-02"),
			"sort_order":        "desc",
			"limit":             "10",
		}).
		Get("/series/observations")

	if err != nil {
		ind.Err = err.Error()
		return ind
	}
	if resp.StatusCode() != 200 {
		ind.Err = fmt.Sprintf("FRED API returned %d", resp.StatusCode())
		return ind
	}

	var data observationsResponse
	if err := json.Unmarshal(resp.Body(), &data); err != nil {
		ind.Err = fmt.Sprintf("failed to parse FRED response: %v", err)
		return ind
	}

	if len(data.Observations) == 0 {
		ind.Err = "No observations"
		return ind
	}

	latest := data.Observations[0]
	ind.Date = latest.Date
	ind.Value = parseObservation(latest.Value)

	if len(data.Observations) > 1 {
		prior := data.Observations[1]
		ind.PriorDate = prior.Date
		ind.PriorValue = parseObservation(prior.Value)
	}

	if ind.Value != nil && ind.PriorValue != nil {
		change := *ind.Value - *ind.PriorValue
		ind.Change = &change
	}

	return ind
}

// EconomicSnapshot fetches the full economic indicator set.
func (c *Client) EconomicSnapshot(ctx context.Context) map[string]models.EconomicIndicator {
	return c.fetchAll(ctx, EconomicSeries)
}

// RiskIndicators fetches the risk dashboard series.
func (c *Client) RiskIndicators(ctx context.Context) map[string]models.EconomicIndicator {
	return c.fetchAll(ctx, RiskSeries)
}

func (c *Client) fetchAll(ctx context.Context, series []SeriesInfo) map[string]models.EconomicIndicator {
	results := make(map[string]models.EconomicIndicator, len(series))
	for _, s := range series {
		ind := c.GetSeries(ctx, s.ID)
		ind.Name = s.Name
		if ind.Err != "" {
			log.Warn().Str("series", s.ID).Str("error", ind.Err).Msg("FRED series unavailable")
		}
		results[s.ID] = ind
	}
	return results
}

// parseObservation converts a FRED observation value. FRED reports
// missing data points as ".".
func parseObservation(raw string) *float64 {
	if raw == "" || raw == "." {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}
