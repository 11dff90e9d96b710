package cot

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quantbrief/oracle/internal/models"
)

// assetMapping pairs a CFTC market-name fragment with our canonical
// asset tag. The list is ordered: matching iterates top to bottom and
// the first entry contained in a row's market name wins, so exact
// exchange-qualified names sit above their bare fallbacks.
type assetMapping struct {
	Pattern string
	Asset   string
}

var assetMappings = []assetMapping{
	{"CRUDE OIL, LIGHT SWEET - NEW YORK MERCANTILE EXCHANGE", "Crude Oil"},
	{"GOLD - COMMODITY EXCHANGE INC.", "Gold"},
	{"EURO FX - CHICAGO MERCANTILE EXCHANGE", "EUR/USD"},
	{"E-MINI S&P 500 - CHICAGO MERCANTILE EXCHANGE", "S&P 500"},
	{"10-YEAR U.S. TREASURY NOTES - CHICAGO BOARD OF TRADE", "10-Year Treasury"},
	{"CRUDE OIL, LIGHT SWEET", "Crude Oil"},
	{"GOLD", "Gold"},
	{"EURO FX", "EUR/USD"},
	{"E-MINI S&P 500", "S&P 500"},
	{"10-YEAR U.S. TREASURY NOTES", "10-Year Treasury"},
	{"10 YEAR U.S. TREASURY NOTES", "10-Year Treasury"},
}

// canonicalAsset resolves a vendor market name to our asset tag, or ""
// when the market is not tracked.
func canonicalAsset(marketName string) string {
	lower := strings.ToLower(marketName)
	for _, m := range assetMappings {
		if strings.Contains(lower, strings.ToLower(m.Pattern)) {
			return m.Asset
		}
	}
	return ""
}

// Fixed column offsets in the CFTC futures-only feed.
const (
	colMarketName  = 0
	colReportDate  = 2
	colOpenInt     = 7
	colNoncommLong = 8
	colNoncommShrt = 9
	colCommLong    = 11
	colCommShort   = 12
)

// parseNumeric extracts an integer from a feed cell. Thousands
// separators and stray quotes are stripped; anything unparseable
// resolves to 0 rather than a parse failure.
func parseNumeric(s string) int64 {
	cleaned := strings.NewReplacer(",", "", "\"", "", " ", "").Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return 0
	}
	var n int64
	neg := false
	for i, r := range cleaned {
		if i == 0 && (r == '-' || r == '+') {
			neg = r == '-'
			continue
		}
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int64(r-'0')
	}
	if neg {
		return -n
	}
	return n
}

// parseRow turns one feed row into a PositioningRecord. Returns nil
// for header rows, untracked markets, and rows failing the integrity
// guards (non-positive open interest, net positions exceeding it).
func parseRow(row []string, now time.Time) *models.PositioningRecord {
	if len(row) < 10 {
		return nil
	}

	marketName := strings.TrimSpace(row[colMarketName])
	if marketName == "" || strings.HasPrefix(marketName, "Market") {
		return nil
	}

	asset := canonicalAsset(marketName)
	if asset == "" {
		return nil
	}

	reportDate := now.Format("2006-01-02")
	if dateStr := strings.TrimSpace(row[colReportDate]); dateStr != "" {
		if parsed, err := time.Parse("2006-01-02", dateStr); err == nil {
			reportDate = parsed.Format("2006-01-02")
		}
	}

	openInterest := parseNumeric(row[colOpenInt])
	noncommLong := parseNumeric(row[colNoncommLong])
	noncommShort := parseNumeric(row[colNoncommShrt])

	var commLong, commShort int64
	if len(row) > colCommLong {
		commLong = parseNumeric(row[colCommLong])
	}
	if len(row) > colCommShort {
		commShort = parseNumeric(row[colCommShort])
	}

	noncommNet := noncommLong - noncommShort
	commNet := commLong - commShort

	if openInterest <= 0 {
		log.Warn().Str("asset", asset).Int64("open_interest", openInterest).
			Msg("Skipping COT row: invalid open interest")
		return nil
	}
	if abs64(noncommNet) > openInterest {
		log.Warn().Str("asset", asset).Int64("noncommercial_net", noncommNet).
			Int64("open_interest", openInterest).
			Msg("Skipping COT row: noncommercial net exceeds open interest")
		return nil
	}
	if abs64(commNet) > openInterest {
		log.Warn().Str("asset", asset).Int64("commercial_net", commNet).
			Int64("open_interest", openInterest).
			Msg("Skipping COT row: commercial net exceeds open interest")
		return nil
	}

	return &models.PositioningRecord{
		Asset:              asset,
		CFTCName:           marketName,
		Date:               reportDate,
		OpenInterest:       openInterest,
		NoncommercialLong:  noncommLong,
		NoncommercialShort: noncommShort,
		NoncommercialNet:   noncommNet,
		CommercialLong:     commLong,
		CommercialShort:    commShort,
		CommercialNet:      commNet,
	}
}

func abs64(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
