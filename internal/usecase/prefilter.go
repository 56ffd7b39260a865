package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/fairyhunter13/prediction-validator/internal/domain"
	"github.com/fairyhunter13/prediction-validator/pkg/textx"
)

// reasonQuoteLimit bounds how much of filter_validation_reasoning is quoted
// into a rejection reason (and thus into the persisted proof).
const reasonQuoteLimit = 200

// PreFilter re-applies the lease query's quality policy in memory and adds
// the reasoning keyword scan that SQL cannot express. The two must stay
// equivalent: every row the leaser returns passes the threshold checks here,
// so in practice only the keyword scan rejects.
type PreFilter struct {
	Params   Params
	Keywords []string // lower-cased substrings
}

// NewPreFilter constructs a PreFilter.
func NewPreFilter(p Params, keywords []string) *PreFilter {
	return &PreFilter{Params: p, Keywords: keywords}
}

// Check returns accepted=false and a human-readable reason when the leased
// tuple must not be validated. The reason becomes the proof of an invalid
// outcome, so it is phrased for end users.
func (f *PreFilter) Check(lp domain.LeasedPrediction, now time.Time) (bool, string) {
	d := lp.Details
	p := lp.Prediction

	if d.TimeframeEnd == nil || d.TimeframeEnd.After(now) {
		return false, "Prediction not matured"
	}
	if d.TimeframeStatus == domain.TimeframeStatusMissing {
		return false, "Timeframe status is missing"
	}
	if d.TimeframeStart != nil && d.TimeframeStart.After(*d.TimeframeEnd) {
		return false, "Timeframe starts after it ends"
	}
	if d.FilterValidationConfidence != nil && *d.FilterValidationConfidence < f.Params.MinFilterConfidence {
		return false, fmt.Sprintf("Filter confidence too low: %.2f (threshold: %.2f)",
			*d.FilterValidationConfidence, f.Params.MinFilterConfidence)
	}
	if p.PredictionQuality != nil && *p.PredictionQuality < f.Params.MinPredictionQuality {
		return false, fmt.Sprintf("Prediction quality too low: %.0f (threshold: %.0f)",
			*p.PredictionQuality, f.Params.MinPredictionQuality)
	}
	if p.LLMConfidence != nil && *p.LLMConfidence < f.Params.MinLLMConfidence {
		return false, fmt.Sprintf("LLM confidence too low: %.2f (threshold: %.2f)",
			*p.LLMConfidence, f.Params.MinLLMConfidence)
	}
	if p.Vagueness != nil && *p.Vagueness > f.Params.MaxVagueness {
		return false, fmt.Sprintf("Prediction too vague: %.2f (threshold: %.2f)",
			*p.Vagueness, f.Params.MaxVagueness)
	}
	if d.FilterValidationReasoning != nil {
		folded := strings.ToLower(*d.FilterValidationReasoning)
		for _, kw := range f.Keywords {
			if strings.Contains(folded, kw) {
				return false, fmt.Sprintf("Filter reasoning indicates invalid prediction (%q): %s",
					kw, textx.Truncate(*d.FilterValidationReasoning, reasonQuoteLimit))
			}
		}
	}
	return true, ""
}
