package futures

import (
	"fmt"

	"github.com/quantbrief/oracle/internal/models"
)

// Sput risk labels for short-put exposure.
const (
	SputLow     = "LOW"
	SputMedium  = "MEDIUM"
	SputHigh    = "HIGH"
	SputUnknown = "UNKNOWN"
)

// ClassifyGamma maps a VIX level to a dealer gamma regime. The
// waterfall runs on thresholds 12, 18, 25, 35; regimes with a SLIGHT
// lean normalize to NEUTRAL.
func ClassifyGamma(vix float64) models.GammaAnalysis {
	var (
		regime models.GammaRegime
		sput   string
		dealer string
		notes  []string
	)

	switch {
	case vix < 12:
		regime = models.GammaShort
		sput = SputHigh
		dealer = "SHORT_GAMMA"
		notes = append(notes,
			"VIX < 12: Options sellers dominating, short gamma regime",
			"Risk: Vol spike would cause rapid dealer hedging")

	case vix < 18:
		regime = models.GammaNeutralSlightShrt
		sput = SputMedium
		dealer = "FLAT_SLIGHT_SHORT"
		notes = append(notes, "VIX 12-18: Normal volatility, balanced positioning")

	case vix < 25:
		regime = models.GammaNeutral
		sput = SputMedium
		dealer = "FLAT"
		notes = append(notes, "VIX 18-25: Standard volatility environment")

	case vix < 35:
		regime = models.GammaNeutralSlightLong
		sput = SputLow
		dealer = "FLAT_SLIGHT_LONG"
		notes = append(notes, "VIX 25-35: Elevated volatility, some dealers long gamma")

	default:
		regime = models.GammaLong
		sput = SputLow
		dealer = "LONG_GAMMA"
		notes = append(notes, "VIX > 35: Crisis volatility, dealers likely long gamma (protection)")
	}

	level := vix
	return models.GammaAnalysis{
		VIXLevel:          &level,
		Regime:            regime,
		Normalized:        normalizeGamma(regime),
		SputRisk:          sput,
		DealerPositioning: dealer,
		Notes:             notes,
	}
}

// normalizeGamma collapses the five raw regimes to SHORT/NEUTRAL/LONG.
func normalizeGamma(regime models.GammaRegime) models.GammaRegime {
	switch regime {
	case models.GammaNeutralSlightShrt, models.GammaNeutralSlightLong:
		return models.GammaNeutral
	default:
		return regime
	}
}

// AdjustForRealizedVol applies the secondary realized-vs-implied
// adjustment. A NEUTRAL base can shift to SHORT when realized vol runs
// below 0.8x implied (options overpriced) or to LONG above 1.2x
// (options underpriced). Non-neutral base classifications are never
// overridden.
func AdjustForRealizedVol(analysis models.GammaAnalysis, realizedVol float64) models.GammaAnalysis {
	if analysis.VIXLevel == nil {
		return analysis
	}
	implied := *analysis.VIXLevel

	switch {
	case realizedVol < implied*0.8:
		analysis.Notes = append(analysis.Notes,
			fmt.Sprintf("Realized vol %.1f%% < implied %.1f%% - options overpriced", realizedVol, implied))
		if analysis.Normalized == models.GammaNeutral {
			analysis.Normalized = models.GammaShort
		}
	case realizedVol > implied*1.2:
		analysis.Notes = append(analysis.Notes,
			fmt.Sprintf("Realized vol %.1f%% > implied %.1f%% - options underpriced", realizedVol, implied))
		if analysis.Normalized == models.GammaNeutral {
			analysis.Normalized = models.GammaLong
		}
	}

	return analysis
}

// UnknownGamma is returned when no VIX reading is available.
func UnknownGamma() models.GammaAnalysis {
	return models.GammaAnalysis{
		Regime:            models.GammaUnknown,
		Normalized:        models.GammaUnknown,
		SputRisk:          SputUnknown,
		DealerPositioning: "UNKNOWN",
		Notes:             []string{"Could not fetch VIX data for gamma analysis"},
	}
}
