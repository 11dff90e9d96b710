package cot

import (
	"math"

	"github.com/quantbrief/oracle/internal/models"
)

const cotSource = "CFTC Commitment of Traders Report"

// DeriveSignal fills the derived positioning fields on a validated
// record. Thresholds run in a fixed order: the speculative-extreme
// checks (30/15 percent of open interest, either sign) take precedence
// over the commercial smart-money check (10 percent of open interest).
func DeriveSignal(rec models.PositioningRecord) models.PositioningRecord {
	openInterest := rec.OpenInterest
	if openInterest == 0 {
		openInterest = 1
	}

	specNetPct := float64(rec.NoncommercialNet) / float64(openInterest) * 100
	commNet := rec.CommercialNet

	switch {
	case specNetPct > 30:
		rec.Positioning = "Speculative longs at extreme - CROWDED"
		rec.Signal = "BEARISH - Contrarian"
	case specNetPct > 15:
		rec.Positioning = "Speculative longs elevated"
		rec.Signal = "CAUTIOUS - Longs crowded"
	case specNetPct < -30:
		rec.Positioning = "Speculative shorts at extreme - CROWDED"
		rec.Signal = "BULLISH - Contrarian"
	case specNetPct < -15:
		rec.Positioning = "Speculative shorts elevated"
		rec.Signal = "CAUTIOUS - Shorts crowded"
	case commNet > 0 && abs64(commNet)*10 > openInterest:
		rec.Positioning = "Commercials net long - Smart money bullish"
		rec.Signal = "BULLISH"
	case commNet < 0 && abs64(commNet)*10 > openInterest:
		rec.Positioning = "Commercials net short - Smart money bearish"
		rec.Signal = "BEARISH"
	default:
		rec.Positioning = "Balanced positioning"
		rec.Signal = "NEUTRAL"
	}

	rec.SpecNetPct = math.Round(specNetPct*100) / 100
	rec.Source = cotSource

	return rec
}
