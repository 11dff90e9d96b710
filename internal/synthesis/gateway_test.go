package synthesis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantbrief/oracle/internal/models"
)

type stubGenerator struct {
	response string
	err      error
	prompt   string
}

func (s *stubGenerator) Generate(ctx context.Context, prompt string, maxTokens int, temperature float32) (string, error) {
	s.prompt = prompt
	return s.response, s.err
}

func testState() *models.MarketState {
	return models.NewMarketState(time.Date(2025, 8, 25, 14, 0, 0, 0, time.UTC))
}

const goodResponse = `{
  "executive_summary": "Risk appetite is firm.",
  "regime": {"label": "RISK_ON", "drivers": ["VIX at 13"], "falsifiers": ["VIX above 20"]},
  "trades": [{
    "name": "Long ES on Dip",
    "instrument": "ES (E-mini S&P 500)",
    "direction": "LONG",
    "conviction": 4,
    "timeframe": "1-2 weeks",
    "entry": 5800,
    "stop": "5750",
    "target": "5950",
    "size_pct": 1.5,
    "catalyst": "FOMC minutes Wednesday",
    "rationale": "Positioning is clean."
  }],
  "risk_factors": ["CPI surprise"],
  "positioning_analysis": {"Gold": {"net_pct": 37.5, "percentile": 92, "signal": "CROWDED LONG", "wow_change": "+2.3%"}},
  "confidence": 0.75,
  "data_quality_issues": []
}`

func TestSynthesizeParsesResponse(t *testing.T) {
	gen := &stubGenerator{response: goodResponse}
	g := NewGateway(gen, 0, 0)

	result := g.Synthesize(context.Background(), testState())

	assert.Equal(t, models.RegimeRiskOn, result.Regime.Label)
	assert.Equal(t, 0.75, result.Confidence)
	require.Len(t, result.Trades, 1)
	// Numeric entry survives via the flexible string type.
	assert.Equal(t, "5800", result.Trades[0].Entry.String())
	assert.Equal(t, 4, result.Trades[0].Conviction)
	require.Contains(t, result.PositioningAnalysis, "Gold")
	assert.Equal(t, 92, *result.PositioningAnalysis["Gold"].Percentile)
}

func TestSynthesizePromptCarriesSchema(t *testing.T) {
	gen := &stubGenerator{response: goodResponse}
	g := NewGateway(gen, 0, 0)

	g.Synthesize(context.Background(), testState())

	assert.Contains(t, gen.prompt, "REQUIRED OUTPUT SCHEMA")
	assert.Contains(t, gen.prompt, "CRITICAL CONSTRAINTS")
	assert.Contains(t, gen.prompt, "COT POSITIONING DATA")
	assert.Contains(t, gen.prompt, `"label": "RISK_ON | RISK_OFF | TRANSITIONAL | CRISIS"`)
}

func TestSynthesizeDegradedOnGarbage(t *testing.T) {
	gen := &stubGenerator{response: "I am unable to comply."}
	g := NewGateway(gen, 0, 0)

	result := g.Synthesize(context.Background(), testState())

	assert.Equal(t, "Failed to parse LLM response", result.ExecutiveSummary)
	assert.Equal(t, models.RegimeTransitional, result.Regime.Label)
	assert.Empty(t, result.Trades)
	assert.Zero(t, result.Confidence)
	require.Len(t, result.DataQualityIssues, 1)
	assert.Contains(t, result.DataQualityIssues[0], "I am unable to comply.")
}

func TestSynthesizeDegradedTruncatesRawFragment(t *testing.T) {
	gen := &stubGenerator{response: strings.Repeat("x", 2000)}
	g := NewGateway(gen, 0, 0)

	result := g.Synthesize(context.Background(), testState())

	require.Len(t, result.DataQualityIssues, 1)
	prefix := "LLM response was not valid JSON: "
	assert.Len(t, result.DataQualityIssues[0], len(prefix)+500)
}

func TestSynthesizeDegradedFragmentKeepsValidUTF8(t *testing.T) {
	// A multibyte rune straddling the cut point must not be split.
	gen := &stubGenerator{response: strings.Repeat("x", 499) + strings.Repeat("日", 200)}
	g := NewGateway(gen, 0, 0)

	result := g.Synthesize(context.Background(), testState())

	require.Len(t, result.DataQualityIssues, 1)
	issue := result.DataQualityIssues[0]
	assert.True(t, utf8.ValidString(issue))
	assert.True(t, strings.HasSuffix(issue, "x"), "cut backs off to the last whole rune")
}

func TestSynthesizeDegradedOnTransportError(t *testing.T) {
	gen := &stubGenerator{err: errors.New("connection refused")}
	g := NewGateway(gen, 0, 0)

	result := g.Synthesize(context.Background(), testState())

	assert.Equal(t, models.RegimeTransitional, result.Regime.Label)
	require.Len(t, result.DataQualityIssues, 1)
	assert.Contains(t, result.DataQualityIssues[0], "connection refused")
}

func TestSynthesizeToleratesBadField(t *testing.T) {
	// conviction as a string breaks one trade list, not the run.
	response := `{
	  "executive_summary": "ok",
	  "regime": {"label": "RISK_OFF", "drivers": [], "falsifiers": []},
	  "trades": [{"name": "x", "conviction": "high"}],
	  "risk_factors": ["a"],
	  "confidence": 0.4
	}`
	gen := &stubGenerator{response: response}
	g := NewGateway(gen, 0, 0)

	result := g.Synthesize(context.Background(), testState())

	assert.Equal(t, models.RegimeRiskOff, result.Regime.Label)
	assert.Equal(t, 0.4, result.Confidence)
	assert.Empty(t, result.Trades)
	require.NotEmpty(t, result.DataQualityIssues)
	assert.Contains(t, result.DataQualityIssues[0], `"trades"`)
}

func TestSynthesizeMissingRegimeLabelDefaults(t *testing.T) {
	gen := &stubGenerator{response: `{"executive_summary": "thin", "confidence": 0.2}`}
	g := NewGateway(gen, 0, 0)

	result := g.Synthesize(context.Background(), testState())

	assert.Equal(t, models.RegimeTransitional, result.Regime.Label)
	assert.Equal(t, "thin", result.ExecutiveSummary)
}
