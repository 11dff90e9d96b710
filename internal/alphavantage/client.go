// Package alphavantage provides delayed quote data via the Alpha
// Vantage API.
package alphavantage

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/quantbrief/oracle/internal/models"
)

const BaseURL = "https://www.alphavantage.co"

// OverviewSymbols are the ETF proxies fetched for the market-data
// stage: equities, tech, rates, gold, oil.
var OverviewSymbols = []string{"SPY", "QQQ", "TLT", "GLD", "USO"}

// Client provides access to Alpha Vantage quotes.
type Client struct {
	client *resty.Client
	apiKey string
}

// NewClient creates a new Alpha Vantage client.
func NewClient(apiKey string) *Client {
	return &Client{
		client: resty.New().
			SetBaseURL(BaseURL).
			SetTimeout(30 * time.Second).
			SetRetryCount(2),
		apiKey: apiKey,
	}
}

type globalQuoteResponse struct {
	GlobalQuote map[string]string `json:"Global Quote"`
	Note        string            `json:"Note"`
}

// GetQuote fetches a single delayed quote. Failures are returned as a
// quote carrying an error marker.
func (c *Client) GetQuote(ctx context.Context, symbol string) models.Quote {
	quote := models.Quote{
		Symbol: symbol,
		Source: "Alpha Vantage (" + symbol + ")",
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"function": "GLOBAL_QUOTE",
			"symbol":   symbol,
			"apikey":   c.apiKey,
		}).
		Get("/query")

	if err != nil {
		quote.Err = err.Error()
		return quote
	}

	var data globalQuoteResponse
	if err := json.Unmarshal(resp.Body(), &data); err != nil {
		quote.Err = "failed to parse quote response: " + err.Error()
		return quote
	}

	if len(data.GlobalQuote) == 0 {
		if data.Note != "" {
			quote.Err = data.Note
		} else {
			quote.Err = "No data"
		}
		return quote
	}

	q := data.GlobalQuote
	quote.Price = parseFloat(q["05. price"])
	quote.Change = parseFloat(q["09. change"])
	quote.ChangePercent = q["10. change percent"]
	quote.Volume = parseInt(q["06. volume"])
	quote.LatestTradingDay = q["07. latest trading day"]

	return quote
}

// MarketOverview fetches quotes for the fixed ETF proxy set.
func (c *Client) MarketOverview(ctx context.Context) map[string]models.Quote {
	results := make(map[string]models.Quote, len(OverviewSymbols))
	for _, symbol := range OverviewSymbols {
		quote := c.GetQuote(ctx, symbol)
		if quote.Err != "" {
			log.Warn().Str("symbol", symbol).Str("error", quote.Err).Msg("Quote unavailable")
		}
		results[symbol] = quote
	}
	return results
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseInt(s string) int64 {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}
