package synthesis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/quantbrief/oracle/internal/models"
)

// outputSchema is appended to every synthesis prompt. The field
// annotations double as instructions to the model; the renderer relies
// on the enum spellings matching exactly.
const outputSchema = `{
  "executive_summary": "string: 2-3 sentences for PM 30-second read",
  "regime": {
    "label": "RISK_ON | RISK_OFF | TRANSITIONAL | CRISIS",
    "drivers": ["string: bullet with metric + direction + evidence"],
    "falsifiers": ["string: If X happens, regime changes because Y"]
  },
  "trades": [
    {
      "name": "string: e.g. 'Short EUR/USD on Crowded Positioning Unwind'",
      "instrument": "string: e.g. '6E (CME Euro FX)' or 'EUR/USD spot'",
      "direction": "LONG | SHORT",
      "conviction": "integer 1-5",
      "timeframe": "string: e.g. '1-2 weeks'",
      "entry": "string: specific price level e.g. '1.0850-1.0900'",
      "stop": "string: specific price level e.g. '1.1050'",
      "target": "string: specific price level e.g. '1.0650'",
      "size_pct": "float 0.5-5.0: recommended position size as % of NAV",
      "catalyst": "string: specific event with date",
      "rationale": "string: data-driven reasoning with specific metrics"
    }
  ],
  "risk_factors": [
    "string: specific risk with trigger condition and affected positions"
  ],
  "positioning_analysis": {
    "asset_name": {
      "net_pct": "float: net position as % of open interest",
      "percentile": "integer 0-100: historical percentile",
      "signal": "CROWDED LONG | CROWDED SHORT | ELEVATED LONG | ELEVATED SHORT | NEUTRAL",
      "wow_change": "string: week-over-week change e.g. '+2.3%'"
    }
  },
  "confidence": "float 0.0-1.0",
  "data_quality_issues": ["string: any missing data or caveats"]
}`

// BuildResearchPrompt assembles the full synthesis prompt: role
// framing, the marshalled data sections in fixed order, the task
// instructions, the output schema, and the hard output constraints.
func BuildResearchPrompt(state *models.MarketState) string {
	var b strings.Builder

	b.WriteString(`You are the Chief Investment Strategist at a macro hedge fund. Your PM trades FUTURES and needs actionable intelligence.

## CRITICAL CONTEXT: FUTURES TRADER
- The trader primarily trades: Equity Index (ES, NQ, MES, MNQ), Treasury (ZN, ZF, ZT), Volatility (VIX), and Commodities (GC, CL, NG)
- Trades are primarily SHORT-TERM (day to few weeks)
- Position sizing is critical: recommend % of notional or contract count
- Key levels (support/resistance) are essential for trade execution
- Gamma regime and dealer positioning affects trade structure
`)

	section(&b, "MARKET DATA", state.MarketData)
	section(&b, "FUTURES DATA (Yahoo Finance)", state.FuturesData)
	section(&b, "FUTURES POSITIONING & SENTIMENT", state.FuturesPositioning)
	section(&b, "GAMMA/DEALER POSITIONING", state.Gamma)
	section(&b, "KEY TRADING LEVELS", state.KeyLevels)
	section(&b, "ECONOMIC INDICATORS (FRED)", map[string]any{
		"indicators":      state.EconomicIndicators,
		"risk_indicators": state.RiskIndicators,
		"regime_analysis": state.RegimeAnalysis,
	})
	section(&b, "GEOPOLITICAL EVENTS & NEWS", state.GeopoliticalEvents)
	section(&b, "COT POSITIONING DATA", state.Positioning)
	section(&b, "CROWDED TRADES", state.CrowdedTrades)

	b.WriteString(`
## YOUR TASK
Synthesize this data into institutional-quality futures trading research.

### REGIME ASSESSMENT
- Determine current market regime: RISK_ON, RISK_OFF, TRANSITIONAL, or CRISIS
- List 3-5 key drivers with specific metrics (e.g., "VIX at 18.5, below 20 threshold")
- List 2-3 falsifiers: conditions that would change your regime call

### FUTURES TRADE RECOMMENDATIONS
Generate 3-5 specific, actionable futures trades. For EACH trade you MUST specify:
- name: Descriptive trade name (e.g., "Long ES on Dip Below 5800")
- instrument: Exact futures contract (e.g., "ES (E-mini S&P 500)", "ZN (10Y T-Note)", "VIX")
- direction: LONG or SHORT
- conviction: 1-5 integer (5 = highest conviction)
- timeframe: Expected holding period (e.g., "intraday", "1-3 days", "1-2 weeks")
- entry: Specific entry price zone or range
- stop: Specific stop-loss level
- target: Specific profit target
- size_pct: Recommended position size as % of NAV (typically 0.5-3.0 for futures)
- catalyst: Specific upcoming event or technical trigger
- rationale: Data-driven reasoning citing specific metrics from the input data

### CRITICAL RULES FOR FUTURES
1. Entry/stop/target MUST be specific price levels near current market prices
2. Consider contract specifications (multiplier, tick size) in rationale
3. Account for gamma regime in trade structure (smaller size in high gamma)
4. Note any roll considerations for contracts near expiration
5. Include weekend risk assessment if holding overnight
6. conviction is INTEGER 1-5, not a string or decimal
7. size_pct is FLOAT between 0.5 and 3.0 (futures have leverage)
8. If data is missing for a field, set to null and add to data_quality_issues
9. Be specific: "ES at 5850" not "equities elevated"
10. Include both long and short ideas to show balanced view

## REQUIRED OUTPUT SCHEMA
You MUST output valid JSON matching this exact structure:
` + "```json\n" + outputSchema + "\n```" + `

## CRITICAL CONSTRAINTS
- Output ONLY valid JSON, no markdown, no explanation, no preamble
- Every field in the schema is required unless explicitly marked optional
- If you cannot determine a field value, set it to null and add explanation to data_quality_issues
- DO NOT invent data - use null for unknown values
- Numeric fields must be numbers, not strings
- conviction must be integer 1-5
- size_pct must be float 0.5-5.0
- regime.label must be exactly one of: RISK_ON, RISK_OFF, TRANSITIONAL, CRISIS
- direction must be exactly: LONG or SHORT
`)

	return b.String()
}

// section writes one marshalled data block. Marshal failures degrade
// to an empty object so one bad section never sinks the prompt.
func section(b *strings.Builder, title string, data any) {
	payload, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		payload = []byte("{}")
	}
	fmt.Fprintf(b, "\n## %s\n%s\n", title, payload)
}
