// Package regime classifies the macro risk environment from economic
// and risk indicators.
package regime

import (
	"github.com/quantbrief/oracle/internal/models"
)

// Result is a macro regime call with its one-line narrative.
type Result struct {
	Label     models.RegimeLabel
	Narrative string
}

// ClassifyMacro runs the ordered macro regime waterfall. Rules are
// evaluated strictly top to bottom and the first match wins; a missing
// indicator never triggers a rule.
func ClassifyMacro(econ, risk map[string]models.EconomicIndicator) Result {
	vix := value(risk, "VIXCLS")
	hySpread := value(risk, "BAMLH0A0HYM2")
	curve := value(risk, "T10Y2Y")

	if vix != nil && *vix > 30 {
		return Result{models.RegimeCrisis, "CRISIS - VIX elevated, risk-off dominant"}
	}
	if hySpread != nil && *hySpread > 5.0 {
		return Result{models.RegimeRiskOff, "RISK_OFF - Credit stress, HY spreads widening"}
	}
	if curve != nil && *curve < -0.5 {
		return Result{models.RegimeRiskOff, "RISK_OFF - Yield curve deeply inverted"}
	}

	gdp := value(econ, "GDP")
	cpi := value(econ, "CPIAUCSL")
	unemployment := value(econ, "UNRATE")

	if cpi != nil && *cpi > 3.5 {
		if unemployment != nil && *unemployment < 4.5 {
			return Result{models.RegimeTransitional, "TRANSITIONAL - Late-cycle, inflationary pressures"}
		}
		return Result{models.RegimeRiskOff, "RISK_OFF - Stagflationary risk"}
	}

	if gdp != nil && *gdp > 2.5 {
		if vix != nil && *vix < 15 {
			return Result{models.RegimeRiskOn, "RISK_ON - Goldilocks, low vol expansion"}
		}
		return Result{models.RegimeRiskOn, "RISK_ON - Early-to-mid cycle expansion"}
	}

	return Result{models.RegimeTransitional, "TRANSITIONAL - Mixed signals"}
}

func value(indicators map[string]models.EconomicIndicator, seriesID string) *float64 {
	if ind, ok := indicators[seriesID]; ok {
		return ind.Value
	}
	return nil
}
