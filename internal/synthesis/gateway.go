package synthesis

import (
	"context"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/quantbrief/oracle/internal/models"
)

// Gateway runs the synthesis stage: build the prompt, call the model,
// recover structured output. It never fails the pipeline: any
// transport or parse problem yields a degraded result instead.
type Gateway struct {
	gen         TextGenerator
	maxTokens   int
	temperature float32
}

// NewGateway wires a gateway around a text generator. Zero maxTokens
// and temperature fall back to the synthesis defaults.
func NewGateway(gen TextGenerator, maxTokens int, temperature float32) *Gateway {
	if maxTokens <= 0 {
		maxTokens = 8000
	}
	if temperature <= 0 {
		temperature = 0.3
	}
	return &Gateway{gen: gen, maxTokens: maxTokens, temperature: temperature}
}

// Synthesize produces the structured research output for a run.
// Decoded fields pass through as the model produced them; only the
// JSON shape is enforced, not field-level semantics.
func (g *Gateway) Synthesize(ctx context.Context, state *models.MarketState) models.SynthesisResult {
	prompt := BuildResearchPrompt(state)

	raw, err := g.gen.Generate(ctx, prompt, g.maxTokens, g.temperature)
	if err != nil {
		log.Error().Err(err).Msg("LLM generation failed")
		raw = "LLM Error: " + err.Error()
	}

	payload := ExtractJSON(raw)
	if payload == nil {
		log.Warn().Int("response_len", len(raw)).Msg("Could not extract JSON from LLM response")
		return degradedResult(raw)
	}

	var result models.SynthesisResult
	if err := unmarshalLenient(payload, &result); err != nil {
		log.Warn().Err(err).Msg("Extracted JSON did not match research schema")
		return degradedResult(raw)
	}

	log.Info().Str("regime", string(result.Regime.Label)).
		Int("trades", len(result.Trades)).
		Float64("confidence", result.Confidence).
		Msg("Synthesis complete")
	return result
}

// degradedResult is the canonical fallback when no usable JSON could
// be recovered. The raw response head is preserved for diagnosis.
func degradedResult(raw string) models.SynthesisResult {
	fragment := raw
	if len(fragment) > 500 {
		// Cut on a rune boundary so the fragment stays valid UTF-8.
		cut := 500
		for cut > 0 && !utf8.RuneStart(fragment[cut]) {
			cut--
		}
		fragment = fragment[:cut]
	}
	return models.SynthesisResult{
		ExecutiveSummary: "Failed to parse LLM response",
		Regime: models.RegimeResult{
			Label:      models.RegimeTransitional,
			Drivers:    []string{},
			Falsifiers: []string{},
		},
		Trades:              []models.TradeIdea{},
		RiskFactors:         []string{},
		PositioningAnalysis: map[string]models.PositioningView{},
		Confidence:          0.0,
		DataQualityIssues: []string{
			"LLM response was not valid JSON: " + fragment,
		},
	}
}
