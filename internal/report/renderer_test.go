package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantbrief/oracle/internal/models"
)

func f(v float64) *float64 { return &v }

func fullState() *models.MarketState {
	state := models.NewMarketState(time.Date(2025, 8, 25, 14, 30, 0, 0, time.UTC))

	state.RiskIndicators = map[string]models.EconomicIndicator{
		"VIXCLS":       {SeriesID: "VIXCLS", Value: f(26.5), PriorValue: f(24.0), Change: f(2.5)},
		"BAMLH0A0HYM2": {SeriesID: "BAMLH0A0HYM2", Value: f(3.2), PriorValue: f(3.0), Change: f(0.2)},
		"T10Y2Y":       {SeriesID: "T10Y2Y", Value: f(-0.3), PriorValue: f(-0.2), Change: f(-0.1)},
	}

	state.Positioning = map[string]models.PositioningRecord{
		"Gold": {Asset: "Gold", SpecNetPct: 37.5, Signal: "BEARISH - Contrarian"},
	}

	state.Synthesis = models.SynthesisResult{
		ExecutiveSummary: "Vol is bid, stay small.",
		Regime: models.RegimeResult{
			Label:      models.RegimeRiskOff,
			Drivers:    []string{"VIX at 26.5, above 25 threshold"},
			Falsifiers: []string{"If VIX closes below 20, regime normalizes"},
		},
		Trades: []models.TradeIdea{
			{
				Name: "Short ES on Failed Bounce", Instrument: "ES (E-mini S&P 500)",
				Direction: "SHORT", Conviction: 4, Timeframe: "1-3 days",
				Entry: "5850-5870", Stop: "5910", Target: "5750",
				SizePct: 1.5, Catalyst: "CPI Thursday", Rationale: "Crowded longs unwinding.",
			},
			{
				// Missing stop and target: must be skipped.
				Name: "Half-formed Idea", Instrument: "ZN", Entry: "112",
			},
			{
				Name: "Long Gold Pullback", Instrument: "GC (COMEX Gold)",
				Direction: "LONG", Conviction: 3, Timeframe: "1-2 weeks",
				Entry: "2650", Stop: "2600", Target: "2750",
				SizePct: 1.0, Catalyst: "Real yields rolling over", Rationale: "Commercials covering shorts.",
			},
		},
		RiskFactors:       []string{"r1", "r2", "r3", "r4", "r5", "r6", "r7"},
		Confidence:        0.65,
		DataQualityIssues: nil,
	}

	state.Gamma = models.GammaAnalysis{
		VIXLevel: f(26.5), Regime: models.GammaNeutralSlightLong,
		Normalized: models.GammaNeutral, SputRisk: "LOW",
	}
	state.KeyLevels = models.KeyLevels{
		ESCurrent: f(5860), ESSupport: []float64{5800, 5750, 5700}, ESResistance: []float64{5900, 5950, 6000},
		ZNCurrent: f(110.5), ZNSupport: []float64{108, 106, 104}, ZNResistance: []float64{112, 114, 116},
		VIXCurrent: f(26.5),
	}
	state.FuturesPositioning = models.FuturesPositioning{
		EquityIndexSentiment: "BEARISH_MOMENTUM",
		TreasuryPositioning:  "BULLISH_BIAS - Flight to quality",
		Seasonality:          map[string]string{"equities": "September weakness ahead"},
	}

	return state
}

func TestRenderSectionsInOrder(t *testing.T) {
	md := Render(fullState())

	sections := []string{
		"# Daily Macro Brief - August 25, 2025",
		"## EXECUTIVE SUMMARY",
		"**Regime: RISK_OFF**",
		"## RISK DASHBOARD",
		"## POSITIONING (COT)",
		"## FUTURES TRADING LEVELS",
		"## TRADE IDEAS",
		"## RISK FACTORS",
		"## REGIME FALSIFIERS",
		"**Confidence: 6.5/10**",
		"*Data Quality Issues: None*",
		"*Report generated by Oracle - Macro Research Agent*",
	}

	last := -1
	for _, section := range sections {
		idx := strings.Index(md, section)
		require.GreaterOrEqual(t, idx, 0, "missing section %q", section)
		assert.Greater(t, idx, last, "section %q out of order", section)
		last = idx
	}
}

func TestRenderDeterministic(t *testing.T) {
	assert.Equal(t, Render(fullState()), Render(fullState()))
}

func TestRenderRiskDashboard(t *testing.T) {
	md := Render(fullState())

	assert.Contains(t, md, "| VIX | 26.50 | 24.00 | +2.50 | HIGH FEAR |")
	assert.Contains(t, md, "| HY Spread | 3.20 | 3.00 | +0.20 | WIDENING |")
	assert.Contains(t, md, "| 10Y-2Y | -0.30 | -0.20 | -0.10 | INVERTED |")
	// Series absent from the state render as placeholders.
	assert.Contains(t, md, "| IG Spread | N/A | N/A | N/A | - |")
	assert.Contains(t, md, "| 10Y-3M | N/A | N/A | N/A | - |")
}

func TestRenderSkipsIncompleteTrades(t *testing.T) {
	md := Render(fullState())

	assert.Contains(t, md, "### 1. Short ES on Failed Bounce")
	assert.NotContains(t, md, "Half-formed Idea")
	// Numbering stays consecutive across the skip.
	assert.Contains(t, md, "### 2. Long Gold Pullback")
	assert.NotContains(t, md, "### 3.")
}

func TestRenderNoTrades(t *testing.T) {
	state := fullState()
	state.Synthesis.Trades = nil
	assert.Contains(t, Render(state), "No valid trade ideas generated.")
}

func TestRenderRiskFactorsCapped(t *testing.T) {
	md := Render(fullState())
	assert.Contains(t, md, "5. r5")
	assert.NotContains(t, md, "6. r6")
}

func TestRenderPositioningFallback(t *testing.T) {
	// Without a synthesis positioning view, raw COT records render.
	md := Render(fullState())
	assert.Contains(t, md, "| Gold | 37.5% | - | - | BEARISH - Contrarian |")
}

func TestRenderPositioningPrefersSynthesis(t *testing.T) {
	state := fullState()
	pct := 92
	state.Synthesis.PositioningAnalysis = map[string]models.PositioningView{
		"Gold": {NetPct: f(37.5), Percentile: &pct, Signal: "CROWDED LONG", WowChange: "+2.3%"},
	}
	md := Render(state)
	assert.Contains(t, md, "| Gold | 37.5% | 92th | +2.3% | CROWDED LONG |")
}

func TestRenderFuturesLevels(t *testing.T) {
	md := Render(fullState())

	assert.Contains(t, md, "**Gamma Regime:** NEUTRAL  |  **SPUT Risk:** LOW")
	assert.Contains(t, md, "| ES (S&P 500) | 5860 | 5800-5700 | 5900-6000 | BEARISH_MOMENTUM |")
	// Treasury positioning containing LONG maps to a bearish price read.
	assert.Contains(t, md, "| ZN (10Y Note) | 110.5 | 108.0-104.0 | 112.0-116.0 | NEUTRAL |")
	assert.Contains(t, md, "| VIX | 26.5 | 14.0 | 22.0 | ELEVATED |")
	assert.Contains(t, md, "- Equities: September weakness ahead")
}

func TestRenderTreasurySentiment(t *testing.T) {
	state := fullState()
	state.FuturesPositioning.TreasuryPositioning = "CROWDED_LONG - Positioning stretched"
	assert.Contains(t, Render(state), "| ZN (10Y Note) | 110.5 | 108.0-104.0 | 112.0-116.0 | BEARISH |")
}

func TestRenderEmptyStateStillProducesReport(t *testing.T) {
	state := models.NewMarketState(time.Date(2025, 8, 25, 9, 0, 0, 0, time.UTC))
	md := Render(state)

	assert.Contains(t, md, "Analysis pending.")
	assert.Contains(t, md, "**Regime: TRANSITIONAL**")
	assert.Contains(t, md, "| No positioning data available | - | - | - | - |")
	assert.Contains(t, md, "No valid trade ideas generated.")
	assert.Contains(t, md, "**Confidence: 5.0/10**")
	// Default key levels fill the table when no quotes were fetched.
	assert.Contains(t, md, "| ES (S&P 500) | 5800 | 5800-5700 | 5900-6000 | NEUTRAL |")
}

func TestRenderDataQualityIssues(t *testing.T) {
	state := fullState()
	state.Synthesis.DataQualityIssues = []string{"COT feed stale", "No VIX reading"}
	assert.Contains(t, Render(state), "*Data Quality Issues: COT feed stale; No VIX reading*")
}
