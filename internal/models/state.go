package models

import "time"

// FuturesPositioning aggregates sentiment and dealer reads across the
// major futures complexes.
type FuturesPositioning struct {
	EquityIndexSentiment string            `bson:"equity_index_sentiment" json:"equity_index_sentiment"`
	TreasuryPositioning  string            `bson:"treasury_positioning" json:"treasury_positioning"`
	CommodityPositioning string            `bson:"commodity_positioning" json:"commodity_positioning"`
	CurrencyPositioning  string            `bson:"currency_positioning" json:"currency_positioning"`
	DealerGamma          string            `bson:"dealer_gamma" json:"dealer_gamma"`
	GammaRegime          GammaRegime       `bson:"gamma_regime" json:"gamma_regime"`
	Seasonality          map[string]string `bson:"seasonality" json:"seasonality"`
	GammaNotes           []string          `bson:"gamma_notes" json:"gamma_notes"`
}

// KeyLevels holds support/resistance bands for the contracts the
// report tracks.
type KeyLevels struct {
	ESCurrent    *float64  `bson:"es_current" json:"es_current"`
	ESSupport    []float64 `bson:"es_support" json:"es_support"`
	ESResistance []float64 `bson:"es_resistance" json:"es_resistance"`

	ZNCurrent    *float64  `bson:"zn_current" json:"zn_current"`
	ZNSupport    []float64 `bson:"zn_support" json:"zn_support"`
	ZNResistance []float64 `bson:"zn_resistance" json:"zn_resistance"`

	VIXCurrent    *float64 `bson:"vix_current" json:"vix_current"`
	VIXSupport    float64  `bson:"vix_support" json:"vix_support"`
	VIXResistance float64  `bson:"vix_resistance" json:"vix_resistance"`
}

// MarketState is the aggregate state for one pipeline run. It is
// created by the orchestrator, threaded through the stages in a fixed
// order, and read-only once it reaches the renderer. Each field group
// has exactly one writing stage:
//
//	economic      -> EconomicIndicators, RiskIndicators, RegimeAnalysis
//	geopolitical  -> GeopoliticalEvents
//	flow          -> Positioning, CrowdedTrades
//	market data   -> MarketData
//	futures       -> FuturesData, FuturesPositioning, Gamma, KeyLevels
//	synthesis     -> Synthesis
//	render        -> MarkdownReport
//
// Sources and FetchErrors are append-only across stages; the
// orchestrator deduplicates Sources before synthesis.
type MarketState struct {
	Date      string `json:"date"`
	Timestamp string `json:"timestamp"`

	EconomicIndicators map[string]EconomicIndicator `json:"economic_indicators"`
	RiskIndicators     map[string]EconomicIndicator `json:"risk_indicators"`
	RegimeAnalysis     string                       `json:"regime_analysis"`

	GeopoliticalEvents []NewsEvent `json:"geopolitical_events"`

	Positioning   map[string]PositioningRecord `json:"positioning"`
	CrowdedTrades []CrowdedTrade               `json:"crowded_trades"`

	MarketData map[string]Quote `json:"market_data"`

	FuturesData        map[string]map[string]FuturesQuote `json:"futures_data"`
	FuturesPositioning FuturesPositioning                 `json:"futures_positioning"`
	Gamma              GammaAnalysis                      `json:"gamma"`
	KeyLevels          KeyLevels                          `json:"key_levels"`

	Synthesis SynthesisResult `json:"synthesis"`

	MarkdownReport string   `json:"-"`
	Sources        []string `json:"sources"`
	FetchErrors    []string `json:"fetch_errors"`
}

// NewMarketState creates the aggregate state for a run starting now.
func NewMarketState(now time.Time) *MarketState {
	return &MarketState{
		Date:      now.Format("2006-01-02"),
		Timestamp: now.Format("2006-01-02 15:04:05"),
		Synthesis: SynthesisResult{
			Regime:     RegimeResult{Label: RegimeTransitional, Drivers: []string{}, Falsifiers: []string{}},
			Confidence: 0.5,
		},
	}
}

// AddSource appends a provenance entry. Duplicates are allowed here;
// the orchestrator deduplicates once per run.
func (s *MarketState) AddSource(source string) {
	if source != "" {
		s.Sources = append(s.Sources, source)
	}
}

// AddFetchError records a non-fatal adapter failure.
func (s *MarketState) AddFetchError(stage string, err error) {
	if err != nil {
		s.FetchErrors = append(s.FetchErrors, stage+": "+err.Error())
	}
}

// DedupeSources collapses the accumulated source list into a
// case-sensitive set, preserving first-seen order.
func (s *MarketState) DedupeSources() {
	seen := make(map[string]struct{}, len(s.Sources))
	out := s.Sources[:0]
	for _, src := range s.Sources {
		if _, ok := seen[src]; ok {
			continue
		}
		seen[src] = struct{}{}
		out = append(out, src)
	}
	s.Sources = out
}
