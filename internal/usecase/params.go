// Package usecase contains the validation pipeline: pre-filter, goal
// extraction, query enhancement, search fan-out, judgment and outcome
// mapping.
package usecase

import (
	"github.com/fairyhunter13/prediction-validator/internal/config"
)

// Params collects every pipeline tunable in one record so tests can
// override individual values.
type Params struct {
	InitialQueries          int
	ResultsPerQuery         int
	MaxTotalResults         int
	MaxRefinementIterations int

	MinFilterConfidence  float64
	MinPredictionQuality float64
	MinLLMConfidence     float64
	MaxVagueness         float64

	// Outcome cuts: TRUE with score >= TrueCut maps to matured_true, FALSE
	// with score <= FalseCut maps to matured_false.
	TrueCut  int
	FalseCut int

	MaxProofLen       int
	MaxSources        int
	EnhancerMaxTokens int
	JudgeMaxTokens    int

	EnhancerModel string
	JudgeModel    string
}

// DefaultParams returns the production defaults.
func DefaultParams() Params {
	return Params{
		InitialQueries:          2,
		ResultsPerQuery:         10,
		MaxTotalResults:         30,
		MaxRefinementIterations: 1,
		MinFilterConfidence:     0.85,
		MinPredictionQuality:    30,
		MinLLMConfidence:        0.50,
		MaxVagueness:            0.80,
		TrueCut:                 9,
		FalseCut:                2,
		MaxProofLen:             700,
		MaxSources:              2,
		EnhancerMaxTokens:       200,
		JudgeMaxTokens:          1024,
	}
}

// ParamsFromConfig overlays env-configured knobs onto the defaults.
func ParamsFromConfig(cfg config.Config) Params {
	p := DefaultParams()
	if cfg.InitialQueries > 0 {
		p.InitialQueries = cfg.InitialQueries
	}
	if cfg.ResultsPerQuery > 0 {
		p.ResultsPerQuery = cfg.ResultsPerQuery
	}
	if cfg.MaxTotalResults > 0 {
		p.MaxTotalResults = cfg.MaxTotalResults
	}
	// MAX_REFINEMENT_ITERATIONS is a design hook: only 0 and 1 are
	// implemented, higher values behave as 1.
	if cfg.MaxRefinementIterations >= 0 {
		p.MaxRefinementIterations = cfg.MaxRefinementIterations
	}
	p.EnhancerModel = cfg.EnhancerModel
	p.JudgeModel = cfg.JudgeModel
	return p
}
