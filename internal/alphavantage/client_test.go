package alphavantage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

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

func TestGetQuote(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GLOBAL_QUOTE", r.URL.Query().Get("function"))
		assert.Equal(t, "SPY", r.URL.Query().Get("symbol"))
		w.Write([]byte(`{"Global Quote": {
			"01. symbol": "SPY",
			"05. price": "580.25",
			"06. volume": "45123456",
			"07. latest trading day": "2025-08-22",
			"09. change": "-2.15",
			"10. change percent": "-0.37%"
		}}`))
	})

	quote := c.GetQuote(context.Background(), "SPY")

	assert.Empty(t, quote.Err)
	assert.Equal(t, 580.25, quote.Price)
	assert.Equal(t, -2.15, quote.Change)
	assert.Equal(t, "-0.37%", quote.ChangePercent)
	assert.Equal(t, int64(45123456), quote.Volume)
	assert.Equal(t, "2025-08-22", quote.LatestTradingDay)
	assert.Equal(t, "Alpha Vantage (SPY)", quote.Source)
}

func TestGetQuoteRateLimitNote(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Note": "Thank you for using Alpha Vantage! Our standard API rate limit is 25 requests per day."}`))
	})

	quote := c.GetQuote(context.Background(), "SPY")
	assert.Contains(t, quote.Err, "rate limit")
}

func TestGetQuoteEmptyPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	quote := c.GetQuote(context.Background(), "SPY")
	assert.Equal(t, "No data", quote.Err)
}

func TestMarketOverviewCoversAllSymbols(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Global Quote": {"05. price": "100.0"}}`))
	})

	overview := c.MarketOverview(context.Background())

	require.Len(t, overview, len(OverviewSymbols))
	for _, symbol := range OverviewSymbols {
		assert.Contains(t, overview, symbol)
	}
}
