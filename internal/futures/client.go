// Package futures provides futures market data and the gamma/dealer
// positioning analysis built on it.
package futures

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/quantbrief/oracle/internal/models"
)

const YahooChartBase = "https://query1.finance.yahoo.com/v8/finance/chart"

// contractNames maps clean symbols to display names.
var contractNames = map[string]string{
	"ES":  "E-mini S&P 500",
	"NQ":  "E-mini Nasdaq-100",
	"YM":  "E-mini Dow",
	"RTY": "E-mini Russell 2000",
	"VIX": "VIX Index",
	"ZN":  "10-Year T-Note",
	"ZB":  "30-Year T-Bond",
	"ZF":  "5-Year T-Note",
	"ZT":  "2-Year T-Note",
	"GC":  "Gold",
	"SI":  "Silver",
	"CL":  "Crude Oil WTI",
	"NG":  "Natural Gas",
}

// Overview buckets in fetch order.
const (
	BucketEquityIndex = "equity_index"
	BucketTreasury    = "treasury"
	BucketCommodities = "commodities"
	BucketVolatility  = "volatility"
)

var overviewBuckets = []struct {
	Name    string
	Symbols []string
}{
	{BucketEquityIndex, []string{"ES=F", "NQ=F", "YM=F", "RTY=F"}},
	{BucketTreasury, []string{"ZN=F", "ZB=F", "ZF=F", "ZT=F"}},
	{BucketCommodities, []string{"GC=F", "SI=F", "CL=F", "NG=F"}},
	{BucketVolatility, []string{"^VIX"}},
}

// Client fetches futures quotes from the Yahoo Finance chart API.
type Client struct {
	client *resty.Client
}

// NewClient creates a new futures data client.
func NewClient() *Client {
	return &Client{
		client: resty.New().
			SetBaseURL(YahooChartBase).
			SetTimeout(15 * time.Second).
			SetRetryCount(2).
			SetHeader("User-Agent", "Mozilla/5.0"),
	}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
	} `json:"chart"`
}

// Overview fetches the full futures complex, bucketed by asset class.
func (c *Client) Overview(ctx context.Context) map[string]map[string]models.FuturesQuote {
	overview := make(map[string]map[string]models.FuturesQuote, len(overviewBuckets))
	for _, bucket := range overviewBuckets {
		overview[bucket.Name] = c.fetchQuotes(ctx, bucket.Symbols)
	}
	return overview
}

func (c *Client) fetchQuotes(ctx context.Context, symbols []string) map[string]models.FuturesQuote {
	results := make(map[string]models.FuturesQuote, len(symbols))

	for _, symbol := range symbols {
		clean := strings.NewReplacer("^", "", "=F", "").Replace(symbol)
		name := contractNames[clean]
		if name == "" {
			name = clean
		}

		quote := models.FuturesQuote{
			Symbol: clean,
			Name:   name,
			Source: fmt.Sprintf("Yahoo Finance (%s)", symbol),
		}

		closes, err := c.fetchCloses(ctx, symbol)
		if err != nil {
			log.Debug().Err(err).Str("symbol", symbol).Msg("Could not fetch futures quote")
			quote.Err = err.Error()
			results[clean] = quote
			continue
		}

		// Latest non-null close, scanning backwards.
		for i := len(closes) - 1; i >= 0; i-- {
			if closes[i] != nil {
				quote.Price = closes[i]
				break
			}
		}
		// First non-null close before the last bar.
		for i := 0; i < len(closes)-1; i++ {
			if closes[i] != nil {
				if quote.Price != nil {
					change := *quote.Price - *closes[i]
					quote.Change = &change
				}
				break
			}
		}

		results[clean] = quote
	}

	return results
}

func (c *Client) fetchCloses(ctx context.Context, symbol string) ([]*float64, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"interval": "1d",
			"range":    "5d",
		}).
		Get("/" + symbol)

	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("yahoo chart API returned %d", resp.StatusCode())
	}

	var data chartResponse
	if err := json.Unmarshal(resp.Body(), &data); err != nil {
		return nil, fmt.Errorf("failed to parse chart response: %w", err)
	}
	if len(data.Chart.Result) == 0 || len(data.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("no chart data for %s", symbol)
	}

	return data.Chart.Result[0].Indicators.Quote[0].Close, nil
}

// VIXLevel extracts the VIX reading from an overview, if present.
func VIXLevel(overview map[string]map[string]models.FuturesQuote) *float64 {
	if vol, ok := overview[BucketVolatility]; ok {
		if vix, ok := vol["VIX"]; ok {
			return vix.Price
		}
	}
	return nil
}

// Positioning derives the futures positioning view from an overview
// and the gamma analysis.
func Positioning(overview map[string]map[string]models.FuturesQuote, gamma models.GammaAnalysis, now time.Time) models.FuturesPositioning {
	return models.FuturesPositioning{
		EquityIndexSentiment: sentiment(overview[BucketEquityIndex]),
		TreasuryPositioning:  treasuryPositioning(overview[BucketTreasury]),
		CommodityPositioning: commodityPositioning(overview[BucketCommodities]),
		CurrencyPositioning:  "NEUTRAL",
		DealerGamma:          gamma.DealerPositioning,
		GammaRegime:          gamma.Normalized,
		Seasonality:          Seasonality(now),
		GammaNotes:           gamma.Notes,
	}
}

// sentimentOrder fixes which contract decides the sentiment read when
// several carry usable changes. ES leads.
var sentimentOrder = []string{"ES", "NQ", "YM", "RTY"}

// sentiment reads direction off the first contract with a usable change.
func sentiment(bucket map[string]models.FuturesQuote) string {
	for _, symbol := range sentimentOrder {
		quote, ok := bucket[symbol]
		if !ok || quote.Price == nil || quote.Change == nil {
			continue
		}
		switch {
		case *quote.Change > 0.5:
			return "BULLISH"
		case *quote.Change < -0.5:
			return "BEARISH"
		default:
			return "NEUTRAL"
		}
	}
	return "NEUTRAL"
}

// treasuryPositioning: ZN below 108 means yields are high (bearish
// bias for bonds), above 112 the reverse.
func treasuryPositioning(bucket map[string]models.FuturesQuote) string {
	zn, ok := bucket["ZN"]
	if !ok || zn.Price == nil {
		return "NEUTRAL"
	}
	switch {
	case *zn.Price < 108:
		return "BEARISH_BIAS"
	case *zn.Price > 112:
		return "BULLISH_BIAS"
	default:
		return "NEUTRAL"
	}
}

func commodityPositioning(bucket map[string]models.FuturesQuote) string {
	var signals []string

	if gc, ok := bucket["GC"]; ok && gc.Price != nil {
		if *gc.Price > 2700 {
			signals = append(signals, "GOLD_BULLISH")
		} else if *gc.Price < 2400 {
			signals = append(signals, "GOLD_BEARISH")
		}
	}
	if cl, ok := bucket["CL"]; ok && cl.Price != nil {
		if *cl.Price > 75 {
			signals = append(signals, "CRUDE_BULLISH")
		} else if *cl.Price < 65 {
			signals = append(signals, "CRUDE_BEARISH")
		}
	}

	if len(signals) == 0 {
		return "NEUTRAL"
	}
	return strings.Join(signals, "_")
}

// Seasonality returns the month-of-year seasonal bias per complex.
func Seasonality(now time.Time) map[string]string {
	month := int(now.Month())
	seasonality := make(map[string]string, 3)

	switch month {
	case 1, 4, 5, 10, 11:
		seasonality["equity"] = "SEASONALLY_BULLISH"
	case 9:
		seasonality["equity"] = "SEASONALLY_BEARISH"
	default:
		seasonality["equity"] = "NEUTRAL"
	}

	switch month {
	case 1, 2, 6, 12:
		seasonality["treasury"] = "SEASONALLY_BULLISH"
	case 3, 8:
		seasonality["treasury"] = "SEASONALLY_BEARISH"
	default:
		seasonality["treasury"] = "NEUTRAL"
	}

	switch month {
	case 12, 1, 2:
		seasonality["energy"] = "SEASONALLY_STRONG_WINTER"
	case 6, 7, 8:
		seasonality["energy"] = "SEASONALLY_STRONG_SUMMER"
	default:
		seasonality["energy"] = "NEUTRAL"
	}

	return seasonality
}

// KeyLevels computes support/resistance bands from current prices: 2%
// steps for ES, 1% steps for ZN, fixed VIX band. Documented defaults
// apply when a price is unavailable so the report always carries
// levels.
func KeyLevels(overview map[string]map[string]models.FuturesQuote) models.KeyLevels {
	levels := models.KeyLevels{
		ESSupport:     []float64{5800, 5750, 5700},
		ESResistance:  []float64{5900, 5950, 6000},
		ZNSupport:     []float64{108.0, 106.0, 104.0},
		ZNResistance:  []float64{112.0, 114.0, 116.0},
		VIXSupport:    14.0,
		VIXResistance: 22.0,
	}

	if es, ok := overview[BucketEquityIndex]["ES"]; ok && es.Price != nil {
		p := *es.Price
		levels.ESCurrent = es.Price
		levels.ESSupport = []float64{math.Round(p * 0.98), math.Round(p * 0.96), math.Round(p * 0.94)}
		levels.ESResistance = []float64{math.Round(p * 1.02), math.Round(p * 1.04), math.Round(p * 1.06)}
	}

	if zn, ok := overview[BucketTreasury]["ZN"]; ok && zn.Price != nil {
		p := *zn.Price
		levels.ZNCurrent = zn.Price
		levels.ZNSupport = []float64{round1(p * 0.99), round1(p * 0.98), round1(p * 0.97)}
		levels.ZNResistance = []float64{round1(p * 1.01), round1(p * 1.02), round1(p * 1.03)}
	}

	levels.VIXCurrent = VIXLevel(overview)

	return levels
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
