package usecase

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/fairyhunter13/prediction-validator/internal/domain"
	"github.com/fairyhunter13/prediction-validator/pkg/textx"
)

// MapOutcome translates a reconciled judgment into the persisted outcome.
func MapOutcome(j domain.Judgment, p Params) domain.Outcome {
	switch j.Decision {
	case domain.DecisionTrue:
		if j.Score >= p.TrueCut {
			return domain.OutcomeMaturedTrue
		}
		return domain.OutcomeMaturedMostlyTrue
	case domain.DecisionFalse:
		if j.Score <= p.FalseCut {
			return domain.OutcomeMaturedFalse
		}
		return domain.OutcomeMaturedMostlyFalse
	default:
		return domain.OutcomeMissingContext
	}
}

// BuildProof assembles summary, evidence and reasoning into the proof text,
// ellipsis-truncated to maxLen characters.
func BuildProof(j domain.Judgment, maxLen int) string {
	var b strings.Builder
	b.WriteString(j.Summary)
	if j.Evidence != "" {
		fmt.Fprintf(&b, "\n\n%s", j.Evidence)
	}
	if j.Reasoning != "" {
		fmt.Fprintf(&b, "\n\nReasoning: %s", j.Reasoning)
	}
	return textx.Truncate(b.String(), maxLen)
}

// PickSources selects up to max well-formed sources from the combined result
// set, preserving its order. An inconclusive decision yields no sources.
func PickSources(decision domain.Decision, combined []domain.SearchResult, max int) []domain.Source {
	if decision == domain.DecisionInconclusive {
		return nil
	}
	sources := make([]domain.Source, 0, max)
	for _, r := range combined {
		if !wellFormedURL(r.URL) {
			continue
		}
		sources = append(sources, r)
		if len(sources) == max {
			break
		}
	}
	return sources
}

func wellFormedURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
