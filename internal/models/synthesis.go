package models

import (
	"encoding/json"
	"strconv"
)

// RegimeLabel is the macro risk posture enumeration.
type RegimeLabel string

const (
	RegimeRiskOn       RegimeLabel = "RISK_ON"
	RegimeRiskOff      RegimeLabel = "RISK_OFF"
	RegimeTransitional RegimeLabel = "TRANSITIONAL"
	RegimeCrisis       RegimeLabel = "CRISIS"
)

// GammaRegime classifies expected dealer hedging behavior.
type GammaRegime string

const (
	GammaShort             GammaRegime = "SHORT"
	GammaNeutralSlightShrt GammaRegime = "NEUTRAL_SLIGHT_SHORT"
	GammaNeutral           GammaRegime = "NEUTRAL"
	GammaNeutralSlightLong GammaRegime = "NEUTRAL_SLIGHT_LONG"
	GammaLong              GammaRegime = "LONG"
	GammaUnknown           GammaRegime = "UNKNOWN"
)

// GammaAnalysis holds the dealer-positioning classification derived
// from the VIX level, with an optional realized-vol adjustment.
type GammaAnalysis struct {
	VIXLevel          *float64    `bson:"vix_level" json:"vix_level"`
	Regime            GammaRegime `bson:"gamma_regime_raw" json:"gamma_regime_raw"`
	Normalized        GammaRegime `bson:"gamma_regime" json:"gamma_regime"`
	SputRisk          string      `bson:"sput_risk" json:"sput_risk"`
	DealerPositioning string      `bson:"dealer_positioning" json:"dealer_positioning"`
	Notes             []string    `bson:"notes" json:"notes"`
}

// FlexString accepts either a JSON string or a JSON number. LLM output
// occasionally emits price levels as bare numbers despite the schema
// asking for strings.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexString(s)
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(strconv.FormatFloat(n, 'f', -1, 64))
	return nil
}

func (f FlexString) String() string { return string(f) }

// TradeIdea is a single recommended futures trade from the synthesis
// gateway. Numeric ranges and enum membership are not enforced here;
// the renderer only checks field completeness.
type TradeIdea struct {
	Name       string     `bson:"name" json:"name"`
	Instrument string     `bson:"instrument" json:"instrument"`
	Direction  string     `bson:"direction" json:"direction"`
	Conviction int        `bson:"conviction" json:"conviction"`
	Timeframe  string     `bson:"timeframe" json:"timeframe"`
	Entry      FlexString `bson:"entry" json:"entry"`
	Stop       FlexString `bson:"stop" json:"stop"`
	Target     FlexString `bson:"target" json:"target"`
	SizePct    float64    `bson:"size_pct" json:"size_pct"`
	Catalyst   string     `bson:"catalyst" json:"catalyst"`
	Rationale  string     `bson:"rationale" json:"rationale"`
}

// Complete reports whether all fields required for rendering are
// non-empty.
func (t TradeIdea) Complete() bool {
	return t.Name != "" && t.Instrument != "" && t.Entry != "" && t.Stop != "" && t.Target != ""
}

// MissingFields lists the required rendering fields that are empty.
func (t TradeIdea) MissingFields() []string {
	var missing []string
	if t.Name == "" {
		missing = append(missing, "name")
	}
	if t.Instrument == "" {
		missing = append(missing, "instrument")
	}
	if t.Entry == "" {
		missing = append(missing, "entry")
	}
	if t.Stop == "" {
		missing = append(missing, "stop")
	}
	if t.Target == "" {
		missing = append(missing, "target")
	}
	return missing
}

// RegimeResult is the gateway's regime call with supporting evidence.
type RegimeResult struct {
	Label      RegimeLabel `bson:"label" json:"label"`
	Drivers    []string    `bson:"drivers" json:"drivers"`
	Falsifiers []string    `bson:"falsifiers" json:"falsifiers"`
}

// PositioningView is the gateway's per-asset positioning read.
type PositioningView struct {
	NetPct     *float64   `bson:"net_pct" json:"net_pct"`
	Percentile *int       `bson:"percentile" json:"percentile"`
	Signal     string     `bson:"signal" json:"signal"`
	WowChange  FlexString `bson:"wow_change" json:"wow_change"`
}

// SynthesisResult is the schema-shaped output of the synthesis gateway.
type SynthesisResult struct {
	ExecutiveSummary    string                     `bson:"executive_summary" json:"executive_summary"`
	Regime              RegimeResult               `bson:"regime" json:"regime"`
	Trades              []TradeIdea                `bson:"trades" json:"trades"`
	RiskFactors         []string                   `bson:"risk_factors" json:"risk_factors"`
	PositioningAnalysis map[string]PositioningView `bson:"positioning_analysis" json:"positioning_analysis"`
	Confidence          float64                    `bson:"confidence" json:"confidence"`
	DataQualityIssues   []string                   `bson:"data_quality_issues" json:"data_quality_issues"`
}
