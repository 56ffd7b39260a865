package usecase

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/fairyhunter13/prediction-validator/internal/domain"
	"github.com/fairyhunter13/prediction-validator/pkg/textx"
)

// Usage aggregates the external-call costs of one validation for the cost
// tracker.
type Usage struct {
	// GoalText is the extracted prediction text, logged alongside the costs.
	GoalText       string
	SearchCalls    int
	EnhancerInput  int
	EnhancerOutput int
	JudgeInput     int
	JudgeOutput    int
}

// Validator runs the full pipeline for one leased prediction:
// pre-filter -> goal extraction -> enhance -> fan-out -> judge ->
// optional refinement -> outcome mapping -> proof construction.
type Validator struct {
	PreFilter *PreFilter
	Enhancer  *Enhancer
	Judge     *Judge
	Search    domain.SearchClient
	Posts     domain.PostRepository
	Params    Params
}

// NewValidator wires the pipeline from its ports.
func NewValidator(chat domain.ChatClient, search domain.SearchClient, posts domain.PostRepository, keywords []string, p Params) *Validator {
	return &Validator{
		PreFilter: NewPreFilter(p, keywords),
		Enhancer:  NewEnhancer(chat, p),
		Judge:     NewJudge(chat, p),
		Search:    search,
		Posts:     posts,
		Params:    p,
	}
}

// Run always produces a result row: validation failures of any kind map to
// an invalid outcome with a diagnostic proof, so the prediction is not
// retried on the next sweep. The returned usage reflects whatever external
// calls were actually made.
func (v *Validator) Run(ctx domain.Context, lp domain.LeasedPrediction) (domain.ValidationResult, Usage) {
	var usage Usage

	outcome, proof, sources, err := v.run(ctx, lp, &usage)
	if err != nil {
		slog.Error("validation failed",
			slog.String("prediction_id", lp.Prediction.ID),
			slog.Any("error", err))
		outcome = domain.OutcomeInvalid
		proof = textx.Truncate("Validation error: "+err.Error(), v.Params.MaxProofLen)
		sources = nil
	}

	return domain.ValidationResult{
		ID:           uuid.New().String(),
		PredictionID: lp.Prediction.ID,
		Outcome:      outcome,
		Proof:        proof,
		Sources:      sources,
		CreatedAt:    time.Now().UTC(),
	}, usage
}

func (v *Validator) run(ctx domain.Context, lp domain.LeasedPrediction, usage *Usage) (domain.Outcome, string, []domain.Source, error) {
	now := time.Now().UTC()

	if ok, reason := v.PreFilter.Check(lp, now); !ok {
		slog.Info("prediction rejected by pre-filter",
			slog.String("prediction_id", lp.Prediction.ID),
			slog.String("reason", reason))
		return domain.OutcomeInvalid, textx.Truncate(reason, v.Params.MaxProofLen), nil, nil
	}

	text, err := ExtractGoalText(ctx, lp, v.Posts)
	if err != nil {
		return "", "", nil, err
	}
	if text == "" {
		return domain.OutcomeInvalid, "Unable to extract prediction text", nil, nil
	}
	text = textx.SanitizeText(text)
	usage.GoalText = text

	queries, in, out, err := v.Enhancer.Multiple(ctx, text, v.Params.InitialQueries)
	if err != nil {
		return "", "", nil, err
	}
	usage.EnhancerInput += in
	usage.EnhancerOutput += out

	combined, err := FanOutSearch(ctx, v.Search, queries, v.Params.ResultsPerQuery)
	if err != nil {
		return "", "", nil, err
	}
	usage.SearchCalls += len(queries)
	if len(combined) == 0 {
		return domain.OutcomeMissingContext, "No search results found", nil, nil
	}

	jm, err := v.Judge.Evaluate(ctx, text, combined)
	if err != nil {
		return "", "", nil, err
	}
	usage.JudgeInput += jm.InputTokens
	usage.JudgeOutput += jm.OutputTokens

	if !jm.Sufficient && len(combined) < v.Params.MaxTotalResults && v.Params.MaxRefinementIterations > 0 {
		attempts := make([]domain.QueryAttempt, 0, len(queries))
		for _, q := range queries {
			attempts = append(attempts, domain.QueryAttempt{
				Query:     q,
				Reasoning: jm.NextQuerySuggestion,
			})
		}
		refined, rin, rout, err := v.Enhancer.Refine(ctx, text, attempts)
		if err != nil {
			return "", "", nil, err
		}
		usage.EnhancerInput += rin
		usage.EnhancerOutput += rout

		more, err := FanOutSearch(ctx, v.Search, []string{refined}, v.Params.ResultsPerQuery)
		if err != nil {
			return "", "", nil, err
		}
		usage.SearchCalls++
		combined = append(combined, more...)

		jm, err = v.Judge.Evaluate(ctx, text, combined)
		if err != nil {
			return "", "", nil, err
		}
		usage.JudgeInput += jm.InputTokens
		usage.JudgeOutput += jm.OutputTokens
	}

	outcome := MapOutcome(jm, v.Params)
	proof := BuildProof(jm, v.Params.MaxProofLen)
	sources := PickSources(jm.Decision, combined, v.Params.MaxSources)
	return outcome, proof, sources, nil
}
