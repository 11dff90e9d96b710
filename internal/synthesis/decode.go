package synthesis

import (
	"encoding/json"
	"fmt"

	"github.com/quantbrief/oracle/internal/models"
)

// unmarshalLenient decodes the research payload field by field. A
// single malformed field keeps its zero value and is noted in
// data_quality_issues instead of rejecting the whole response. Only an
// unreadable top-level object is an error.
func unmarshalLenient(payload []byte, result *models.SynthesisResult) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return err
	}

	decode := func(key string, dst any) {
		raw, ok := fields[key]
		if !ok || string(raw) == "null" {
			return
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			result.DataQualityIssues = append(result.DataQualityIssues,
				fmt.Sprintf("field %q did not match schema: %v", key, err))
		}
	}

	// data_quality_issues goes first so schema-mismatch notes from the
	// other fields append after the model's own entries.
	decode("data_quality_issues", &result.DataQualityIssues)
	decode("executive_summary", &result.ExecutiveSummary)
	decode("regime", &result.Regime)
	decode("trades", &result.Trades)
	decode("risk_factors", &result.RiskFactors)
	decode("positioning_analysis", &result.PositioningAnalysis)
	decode("confidence", &result.Confidence)

	if result.Regime.Label == "" {
		result.Regime.Label = models.RegimeTransitional
	}
	return nil
}
