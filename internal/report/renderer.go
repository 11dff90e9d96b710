// Package report renders the aggregated market state into the daily
// macro brief. Rendering is pure: same state in, same markdown out.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quantbrief/oracle/internal/models"
)

// riskDashboardRows fixes the dashboard's row order.
var riskDashboardRows = []struct {
	SeriesID string
	Display  string
}{
	{"VIXCLS", "VIX"},
	{"BAMLC0A0CM", "IG Spread"},
	{"BAMLH0A0HYM2", "HY Spread"},
	{"T10Y2Y", "10Y-2Y"},
	{"T10Y3M", "10Y-3M"},
}

// Render produces the daily macro brief markdown for a completed run.
func Render(state *models.MarketState) string {
	var parts []string

	parts = append(parts,
		"# Daily Macro Brief - "+headerDate(state.Date),
		fmt.Sprintf("*Generated %s ET | Data as of market close*", headerTime(state.Timestamp)),
		"",
		"## EXECUTIVE SUMMARY",
		orDefault(state.Synthesis.ExecutiveSummary, "Analysis pending."),
		"",
		fmt.Sprintf("**Regime: %s**", orDefault(string(state.Synthesis.Regime.Label), string(models.RegimeTransitional))),
		"",
	)

	for _, driver := range state.Synthesis.Regime.Drivers {
		parts = append(parts, "- "+driver)
	}

	parts = append(parts, "", "---", "", "## RISK DASHBOARD", riskDashboard(state))
	parts = append(parts, "", "---", "", "## POSITIONING (COT)", positioningTable(state))
	parts = append(parts, "", "---", "", "## FUTURES TRADING LEVELS", futuresLevels(state))
	parts = append(parts, "", "---", "", "## TRADE IDEAS", trades(state))

	parts = append(parts, "", "---", "", "## RISK FACTORS")
	riskFactors := state.Synthesis.RiskFactors
	if len(riskFactors) > 5 {
		riskFactors = riskFactors[:5]
	}
	for i, risk := range riskFactors {
		parts = append(parts, fmt.Sprintf("%d. %s", i+1, risk))
	}

	if falsifiers := state.Synthesis.Regime.Falsifiers; len(falsifiers) > 0 {
		parts = append(parts, "", "---", "", "## REGIME FALSIFIERS")
		for _, falsifier := range falsifiers {
			parts = append(parts, "- "+falsifier)
		}
	}

	parts = append(parts, "", "---", "",
		fmt.Sprintf("**Confidence: %.1f/10**", state.Synthesis.Confidence*10),
		"",
	)

	if issues := state.Synthesis.DataQualityIssues; len(issues) > 0 {
		parts = append(parts, "*Data Quality Issues: "+strings.Join(issues, "; ")+"*")
	} else {
		parts = append(parts, "*Data Quality Issues: None*")
	}

	parts = append(parts, "", "---", "*Report generated by Oracle - Macro Research Agent*")

	return strings.Join(parts, "\n")
}

func riskDashboard(state *models.MarketState) string {
	lines := []string{
		"| Indicator | Value | Prior | Change | Signal |",
		"|-----------|-------|-------|--------|--------|",
	}

	for _, row := range riskDashboardRows {
		ind, ok := state.RiskIndicators[row.SeriesID]
		if !ok || ind.Err != "" {
			lines = append(lines, fmt.Sprintf("| %s | N/A | N/A | N/A | - |", row.Display))
			continue
		}

		lines = append(lines, fmt.Sprintf("| %s | %s | %s | %s | %s |",
			row.Display,
			floatCell(ind.Value),
			floatCell(ind.PriorValue),
			changeCell(ind.Change),
			riskSignal(row.SeriesID, ind.Value, ind.Change),
		))
	}

	return strings.Join(lines, "\n")
}

// riskSignal classifies one dashboard row. Thresholds per indicator
// family: VIX fear bands, spread momentum, curve shape.
func riskSignal(seriesID string, value, change *float64) string {
	if value == nil {
		return "-"
	}

	switch seriesID {
	case "VIXCLS":
		switch {
		case *value > 25:
			return "HIGH FEAR"
		case *value > 18:
			return "ELEVATED"
		case *value < 12:
			return "COMPLACENT"
		}
		return "NORMAL"
	case "BAMLC0A0CM", "BAMLH0A0HYM2":
		switch {
		case change != nil && *change > 0.1:
			return "WIDENING"
		case change != nil && *change < -0.1:
			return "TIGHTENING"
		}
		return "STABLE"
	case "T10Y2Y", "T10Y3M":
		switch {
		case *value < 0:
			return "INVERTED"
		case *value < 0.25:
			return "FLAT"
		}
		return "NORMAL"
	}
	return "-"
}

// positioningTable prefers the synthesis view and falls back to the
// raw COT records. Rows are sorted by asset for stable output.
func positioningTable(state *models.MarketState) string {
	lines := []string{
		"| Asset | Net % OI | Percentile | WoW Change | Signal |",
		"|-------|----------|------------|------------|--------|",
	}

	if len(state.Synthesis.PositioningAnalysis) > 0 {
		for _, asset := range sortedKeys(state.Synthesis.PositioningAnalysis) {
			view := state.Synthesis.PositioningAnalysis[asset]
			netPct := "-"
			if view.NetPct != nil {
				netPct = fmt.Sprintf("%.1f%%", *view.NetPct)
			}
			percentile := "-"
			if view.Percentile != nil {
				percentile = fmt.Sprintf("%dth", *view.Percentile)
			}
			lines = append(lines, fmt.Sprintf("| %s | %s | %s | %s | %s |",
				asset, netPct, percentile,
				orDefault(view.WowChange.String(), "-"),
				orDefault(view.Signal, "NEUTRAL"),
			))
		}
	} else {
		for _, asset := range sortedKeys(state.Positioning) {
			rec := state.Positioning[asset]
			lines = append(lines, fmt.Sprintf("| %s | %.1f%% | - | - | %s |",
				asset, rec.SpecNetPct, orDefault(rec.Signal, "NEUTRAL")))
		}
	}

	if len(lines) == 2 {
		lines = append(lines, "| No positioning data available | - | - | - | - |")
	}

	return strings.Join(lines, "\n")
}

func futuresLevels(state *models.MarketState) string {
	var lines []string

	gammaRegime := state.Gamma.Normalized
	if gammaRegime == "" {
		gammaRegime = models.GammaNeutral
	}
	sputRisk := orDefault(state.Gamma.SputRisk, "LOW")

	lines = append(lines,
		fmt.Sprintf("**Gamma Regime:** %s  |  **SPUT Risk:** %s", gammaRegime, sputRisk),
		"",
		"| Contract | Current | Support | Resistance | Sentiment |",
		"|----------|---------|---------|------------|-----------|",
	)

	levels := state.KeyLevels

	esSupport := defaultLevels(levels.ESSupport, []float64{5800, 5750, 5700})
	esResistance := defaultLevels(levels.ESResistance, []float64{5900, 5950, 6000})
	esCurrent := esSupport[0]
	if levels.ESCurrent != nil {
		esCurrent = *levels.ESCurrent
	}

	znSupport := defaultLevels(levels.ZNSupport, []float64{108, 106, 104})
	znResistance := defaultLevels(levels.ZNResistance, []float64{112, 114, 116})
	znCurrent := znSupport[0]
	if levels.ZNCurrent != nil {
		znCurrent = *levels.ZNCurrent
	}

	vixCurrent := 15.5
	if levels.VIXCurrent != nil {
		vixCurrent = *levels.VIXCurrent
	}

	equitySentiment := orDefault(state.FuturesPositioning.EquityIndexSentiment, "NEUTRAL")
	treasurySentiment := "NEUTRAL"
	if strings.Contains(state.FuturesPositioning.TreasuryPositioning, "LONG") {
		treasurySentiment = "BEARISH"
	}
	vixSentiment := "NORMAL"
	if vixCurrent > 18 {
		vixSentiment = "ELEVATED"
	}

	lines = append(lines,
		fmt.Sprintf("| ES (S&P 500) | %.0f | %s | %s | %s |",
			esCurrent, levelRange(esSupport, 0), levelRange(esResistance, 0), equitySentiment),
		fmt.Sprintf("| ZN (10Y Note) | %.1f | %s | %s | %s |",
			znCurrent, levelRange(znSupport, 1), levelRange(znResistance, 1), treasurySentiment),
		fmt.Sprintf("| VIX | %.1f | 14.0 | 22.0 | %s |", vixCurrent, vixSentiment),
		"",
	)

	if seasonality := state.FuturesPositioning.Seasonality; len(seasonality) > 0 {
		lines = append(lines, "**Seasonality:**")
		for _, market := range sortedKeys(seasonality) {
			lines = append(lines, fmt.Sprintf("- %s: %s", titleCase(market), seasonality[market]))
		}
	}

	return strings.Join(lines, "\n")
}

// trades renders only complete ideas, numbering them consecutively so
// a skipped idea leaves no gap.
func trades(state *models.MarketState) string {
	var lines []string
	count := 0

	for _, trade := range state.Synthesis.Trades {
		if !trade.Complete() {
			log.Warn().Strs("missing_fields", trade.MissingFields()).
				Str("trade", orDefault(trade.Name, "unnamed")).
				Msg("Skipping trade missing required fields")
			continue
		}

		count++
		lines = append(lines,
			fmt.Sprintf("### %d. %s", count, trade.Name),
			"",
			"| Field | Value |",
			"|-------|-------|",
			"| Instrument | "+trade.Instrument+" |",
			"| Direction | "+orDefault(trade.Direction, "N/A")+" |",
			"| Entry | "+trade.Entry.String()+" |",
			"| Stop | "+trade.Stop.String()+" |",
			"| Target | "+trade.Target.String()+" |",
			fmt.Sprintf("| Size | %g%% NAV |", trade.SizePct),
			"| Timeframe | "+orDefault(trade.Timeframe, "N/A")+" |",
			fmt.Sprintf("| Conviction | %d/5 |", trade.Conviction),
			"",
			"**Catalyst:** "+orDefault(trade.Catalyst, "Not specified"),
			"",
			"**Rationale:** "+orDefault(trade.Rationale, "Not specified"),
			"",
		)
	}

	if len(lines) == 0 {
		return "No valid trade ideas generated."
	}

	return strings.Join(lines, "\n")
}

func headerDate(date string) string {
	if t, err := time.Parse("2006-01-02", date); err == nil {
		return t.Format("January 2, 2006")
	}
	return date
}

func headerTime(timestamp string) string {
	if t, err := time.Parse("2006-01-02 15:04:05", timestamp); err == nil {
		return t.Format("15:04:05")
	}
	return timestamp
}

func floatCell(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", *v)
}

func changeCell(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%+.2f", *v)
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func defaultLevels(levels, fallback []float64) []float64 {
	if len(levels) == 0 {
		return fallback
	}
	return levels
}

// levelRange formats a band as "first-last" with the given precision.
func levelRange(levels []float64, decimals int) string {
	format := fmt.Sprintf("%%.%df-%%.%df", decimals, decimals)
	return fmt.Sprintf(format, levels[0], levels[len(levels)-1])
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
