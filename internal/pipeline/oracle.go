// Package pipeline orchestrates a research run: data collection in a
// fixed stage order, synthesis, rendering, and persistence.
package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quantbrief/oracle/internal/futures"
	"github.com/quantbrief/oracle/internal/models"
	"github.com/quantbrief/oracle/internal/regime"
	"github.com/quantbrief/oracle/internal/report"
	"github.com/quantbrief/oracle/internal/storage"
)

// EconomicAnalyst supplies FRED economic and risk indicators. Failures
// surface as Err markers on individual indicators, never as errors.
type EconomicAnalyst interface {
	EconomicSnapshot(ctx context.Context) map[string]models.EconomicIndicator
	RiskIndicators(ctx context.Context) map[string]models.EconomicIndicator
}

// NewsSearcher supplies geopolitical and macro news events.
type NewsSearcher interface {
	SearchMacroEvents(ctx context.Context) ([]models.NewsEvent, error)
	Search(ctx context.Context, query string, maxResults int) ([]models.NewsEvent, error)
}

// FlowAnalyst supplies COT positioning data.
type FlowAnalyst interface {
	LatestReport(ctx context.Context) (map[string]models.PositioningRecord, error)
	CrowdedTrades(ctx context.Context) ([]models.CrowdedTrade, error)
}

// MarketDataProvider supplies delayed ETF proxy quotes.
type MarketDataProvider interface {
	MarketOverview(ctx context.Context) map[string]models.Quote
}

// FuturesProvider supplies front-month futures quotes.
type FuturesProvider interface {
	Overview(ctx context.Context) map[string]map[string]models.FuturesQuote
}

// Synthesizer produces the structured research output.
type Synthesizer interface {
	Synthesize(ctx context.Context, state *models.MarketState) models.SynthesisResult
}

// ReportSink persists finished reports.
type ReportSink interface {
	SaveReport(ctx context.Context, report *models.Report) error
}

// Oracle wires the research stages together.
type Oracle struct {
	economic   EconomicAnalyst
	news       NewsSearcher
	flow       FlowAnalyst
	marketData MarketDataProvider
	futures    FuturesProvider
	synthesis  Synthesizer
	sink       ReportSink
	reportsDir string
	now        func() time.Time
}

// NewOracle builds the orchestrator. sink may be nil, in which case
// reports are only archived to disk.
func NewOracle(
	economic EconomicAnalyst,
	news NewsSearcher,
	flow FlowAnalyst,
	marketData MarketDataProvider,
	futuresProvider FuturesProvider,
	synthesis Synthesizer,
	sink ReportSink,
	reportsDir string,
) *Oracle {
	return &Oracle{
		economic:   economic,
		news:       news,
		flow:       flow,
		marketData: marketData,
		futures:    futuresProvider,
		synthesis:  synthesis,
		sink:       sink,
		reportsDir: reportsDir,
		now:        time.Now,
	}
}

// RunDailyBrief executes the full pipeline and returns the final
// state. Individual stage failures degrade the report instead of
// aborting the run.
func (o *Oracle) RunDailyBrief(ctx context.Context) (*models.MarketState, error) {
	log.Info().Msg("Starting daily macro brief generation")
	state := models.NewMarketState(o.now())

	o.runEconomic(ctx, state)
	o.runGeopolitical(ctx, state)
	o.runFlow(ctx, state)
	o.runMarketData(ctx, state)
	o.runFutures(ctx, state)

	state.DedupeSources()
	state.Synthesis = o.synthesis.Synthesize(ctx, state)
	state.MarkdownReport = report.Render(state)

	o.persist(ctx, state, models.ReportDaily, "Daily Macro Brief - "+state.Date)

	log.Info().
		Str("regime", string(state.Synthesis.Regime.Label)).
		Float64("confidence", state.Synthesis.Confidence).
		Int("trades", len(state.Synthesis.Trades)).
		Int("sources", len(state.Sources)).
		Int("fetch_errors", len(state.FetchErrors)).
		Msg("Daily brief complete")

	return state, nil
}

// RunResearch executes a reduced pipeline for an ad-hoc query:
// economic and flow data plus a targeted news search, then synthesis.
func (o *Oracle) RunResearch(ctx context.Context, query string) (*models.MarketState, error) {
	log.Info().Str("query", query).Msg("Starting research run")
	state := models.NewMarketState(o.now())

	o.runEconomic(ctx, state)
	o.runFlow(ctx, state)

	if query != "" {
		events, err := o.news.Search(ctx, query, 5)
		if err != nil {
			state.AddFetchError("research_search", err)
		}
		state.GeopoliticalEvents = append(state.GeopoliticalEvents, events...)
		for _, event := range events {
			state.AddSource(event.Source)
		}
	}

	state.DedupeSources()
	state.Synthesis = o.synthesis.Synthesize(ctx, state)
	state.MarkdownReport = report.Render(state)

	o.persist(ctx, state, models.ReportResearch, "Research: "+query)

	return state, nil
}

func (o *Oracle) runEconomic(ctx context.Context, state *models.MarketState) {
	log.Info().Msg("Stage 1/5: Economic analysis")

	state.EconomicIndicators = o.economic.EconomicSnapshot(ctx)
	state.RiskIndicators = o.economic.RiskIndicators(ctx)

	for _, ind := range state.EconomicIndicators {
		if ind.Err == "" {
			state.AddSource(ind.Source)
		}
	}
	for _, ind := range state.RiskIndicators {
		if ind.Err == "" {
			state.AddSource(ind.Source)
		}
	}

	result := regime.ClassifyMacro(state.EconomicIndicators, state.RiskIndicators)
	state.RegimeAnalysis = result.Narrative
}

func (o *Oracle) runGeopolitical(ctx context.Context, state *models.MarketState) {
	log.Info().Msg("Stage 2/5: Geopolitical analysis")

	events, err := o.news.SearchMacroEvents(ctx)
	if err != nil {
		state.AddFetchError("geopolitical", err)
		return
	}

	state.GeopoliticalEvents = events
	for _, event := range events {
		state.AddSource(event.Source)
	}
}

func (o *Oracle) runFlow(ctx context.Context, state *models.MarketState) {
	log.Info().Msg("Stage 3/5: Flow analysis")

	positioning, err := o.flow.LatestReport(ctx)
	if err != nil {
		state.AddFetchError("flow", err)
		return
	}

	state.Positioning = positioning
	for _, rec := range positioning {
		state.AddSource(rec.Source)
	}

	crowded, err := o.flow.CrowdedTrades(ctx)
	if err != nil {
		state.AddFetchError("crowded_trades", err)
		return
	}
	state.CrowdedTrades = crowded
}

func (o *Oracle) runMarketData(ctx context.Context, state *models.MarketState) {
	log.Info().Msg("Stage 4/5: Market data")

	state.MarketData = o.marketData.MarketOverview(ctx)
	for _, quote := range state.MarketData {
		if quote.Err == "" {
			state.AddSource(quote.Source)
		}
	}
}

func (o *Oracle) runFutures(ctx context.Context, state *models.MarketState) {
	log.Info().Msg("Stage 5/5: Futures analysis")

	overview := o.futures.Overview(ctx)
	state.FuturesData = overview
	for _, bucket := range overview {
		for _, quote := range bucket {
			if quote.Err == "" {
				state.AddSource(quote.Source)
			}
		}
	}

	vix := futures.VIXLevel(overview)
	if vix == nil {
		if ind, ok := state.RiskIndicators["VIXCLS"]; ok && ind.Err == "" {
			vix = ind.Value
		}
	}

	if vix != nil {
		state.Gamma = futures.ClassifyGamma(*vix)
	} else {
		state.Gamma = futures.UnknownGamma()
		state.AddFetchError("futures", errNoVIX)
	}

	state.FuturesPositioning = futures.Positioning(overview, state.Gamma, o.now())
	state.KeyLevels = futures.KeyLevels(overview)
}

// persist writes the report to the durable store and the markdown
// archive. Persistence failures are logged, not fatal: the state is
// already complete and usable by the caller.
func (o *Oracle) persist(ctx context.Context, state *models.MarketState, reportType models.ReportType, title string) {
	if o.reportsDir != "" {
		if _, err := storage.WriteMarkdown(o.reportsDir, reportType, state.Date, state.MarkdownReport); err != nil {
			log.Error().Err(err).Msg("Failed to archive report markdown")
		}
	}

	if o.sink == nil {
		return
	}

	rec := &models.Report{
		Date:       state.Date,
		Type:       reportType,
		Title:      title,
		Markdown:   state.MarkdownReport,
		Regime:     state.Synthesis.Regime.Label,
		Confidence: state.Synthesis.Confidence,
		Sources:    state.Sources,
		CreatedAt:  o.now(),
	}
	if err := o.sink.SaveReport(ctx, rec); err != nil {
		log.Error().Err(err).Msg("Failed to save report")
	}
}
