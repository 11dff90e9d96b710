package cot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalAsset(t *testing.T) {
	tests := []struct {
		name   string
		market string
		want   string
	}{
		{"exchange qualified gold", "GOLD - COMMODITY EXCHANGE INC.", "Gold"},
		{"bare gold fallback", "GOLD - SOMEWHERE ELSE", "Gold"},
		{"case insensitive", "e-mini s&p 500 - chicago mercantile exchange", "S&P 500"},
		{"treasury space variant", "10 YEAR U.S. TREASURY NOTES - CBOT", "10-Year Treasury"},
		{"crude oil", "CRUDE OIL, LIGHT SWEET - NEW YORK MERCANTILE EXCHANGE", "Crude Oil"},
		{"untracked", "WHEAT-SRW - CHICAGO BOARD OF TRADE", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, canonicalAsset(tt.market))
		})
	}
}

func TestParseNumeric(t *testing.T) {
	assert.Equal(t, int64(123456), parseNumeric(`"123,456"`))
	assert.Equal(t, int64(-500), parseNumeric("-500"))
	assert.Equal(t, int64(500), parseNumeric("+500"))
	assert.Equal(t, int64(0), parseNumeric(""))
	assert.Equal(t, int64(0), parseNumeric("   "))
	assert.Equal(t, int64(0), parseNumeric("n/a"))
	assert.Equal(t, int64(42), parseNumeric(" 42 "))
}

func validRow() []string {
	return []string{
		"GOLD - COMMODITY EXCHANGE INC.", // 0 market name
		"250819",                         // 1
		"2025-08-19",                     // 2 report date
		"25", "COMEX", "088691", "GC",    // 3-6 filler
		"400000",           // 7 open interest
		"250000", "100000", // 8-9 noncomm long/short
		"0",                // 10 filler
		"100000", "200000", // 11-12 comm long/short
	}
}

func TestParseRow(t *testing.T) {
	now := time.Date(2025, 8, 25, 12, 0, 0, 0, time.UTC)

	t.Run("valid row", func(t *testing.T) {
		rec := parseRow(validRow(), now)
		require.NotNil(t, rec)
		assert.Equal(t, "Gold", rec.Asset)
		assert.Equal(t, "2025-08-19", rec.Date)
		assert.Equal(t, int64(400000), rec.OpenInterest)
		assert.Equal(t, int64(150000), rec.NoncommercialNet)
		assert.Equal(t, int64(-100000), rec.CommercialNet)
	})

	t.Run("header row skipped", func(t *testing.T) {
		row := validRow()
		row[0] = "Market and Exchange Names"
		assert.Nil(t, parseRow(row, now))
	})

	t.Run("untracked market skipped", func(t *testing.T) {
		row := validRow()
		row[0] = "WHEAT-SRW - CHICAGO BOARD OF TRADE"
		assert.Nil(t, parseRow(row, now))
	})

	t.Run("short row skipped", func(t *testing.T) {
		assert.Nil(t, parseRow(validRow()[:8], now))
	})

	t.Run("zero open interest rejected", func(t *testing.T) {
		row := validRow()
		row[colOpenInt] = "0"
		assert.Nil(t, parseRow(row, now))
	})

	t.Run("unparseable open interest rejected", func(t *testing.T) {
		row := validRow()
		row[colOpenInt] = "garbage"
		assert.Nil(t, parseRow(row, now))
	})

	t.Run("noncommercial net exceeding open interest rejected", func(t *testing.T) {
		row := validRow()
		row[colNoncommLong] = "900000"
		assert.Nil(t, parseRow(row, now))
	})

	t.Run("commercial net exceeding open interest rejected", func(t *testing.T) {
		row := validRow()
		row[colCommShort] = "900000"
		assert.Nil(t, parseRow(row, now))
	})

	t.Run("bad date falls back to run date", func(t *testing.T) {
		row := validRow()
		row[colReportDate] = "not-a-date"
		rec := parseRow(row, now)
		require.NotNil(t, rec)
		assert.Equal(t, "2025-08-25", rec.Date)
	})
}
