// Package domain holds the core entities and ports of the
// prediction-validation engine. Adapters depend on this package, never the
// other way around.
package domain

import (
	"context"
	"errors"
	"time"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrUpstreamTimeout   = errors.New("upstream timeout")
	ErrUpstreamRateLimit = errors.New("upstream rate limit")
	ErrInternal          = errors.New("internal error")
)

// Outcome is the final label written to validation_result.
type Outcome string

const (
	OutcomeMaturedTrue        Outcome = "matured_true"
	OutcomeMaturedMostlyTrue  Outcome = "matured_mostly_true"
	OutcomeMaturedFalse       Outcome = "matured_false"
	OutcomeMaturedMostlyFalse Outcome = "matured_mostly_false"
	OutcomeMissingContext     Outcome = "missing_context"
	// OutcomeNotMatured is declared for schema compatibility; the engine
	// never writes it because the leaser only hands out matured rows.
	OutcomeNotMatured Outcome = "not_matured"
	OutcomeInvalid    Outcome = "invalid"
)

// TimeframeStatusMissing is the sentinel the upstream parser stores when it
// could not derive a timeframe for a prediction.
const TimeframeStatusMissing = "missing"

// GoalSlice is a half-open index range over a post's text identifying the
// claim substring. Offsets are Unicode code points. SourcePostID, when set,
// points at a post other than the prediction's own source post.
type GoalSlice struct {
	Start        int     `json:"start"`
	End          int     `json:"end"`
	SourcePostID *string `json:"source_post_id,omitempty"`
}

// Prediction is one parsed claim produced by the upstream pipeline.
// The engine only reads it.
type Prediction struct {
	ID                string
	SourcePostID      string
	GoalSlices        []GoalSlice
	LLMConfidence     *float64 // [0,1]
	PredictionQuality *float64 // [0,100]
	Vagueness         *float64 // [0,1]
}

// PredictionDetails carries per-prediction metadata from the upstream filter
// stage. All pointer fields may be nil.
type PredictionDetails struct {
	PredictionID               string
	PredictionContext          *string
	TimeframeStart             *time.Time
	TimeframeEnd               *time.Time
	TimeframeStatus            string
	FilterValidationConfidence *float64 // [0,1]
	FilterValidationReasoning  *string
}

// Post is the original scraped text a prediction slice may reference.
type Post struct {
	ID   string
	Text string
}

// LeasedPrediction is the tuple a worker receives from the job leaser: the
// prediction, its details and its source post, row-locked for the duration
// of the worker's transaction.
type LeasedPrediction struct {
	Prediction Prediction
	Details    PredictionDetails
	Post       Post
}

// SearchResult is one organic result from the web-search provider.
type SearchResult struct {
	URL     string `json:"url"`
	Title   string `json:"title,omitempty"`
	Excerpt string `json:"excerpt,omitempty"`
	PubDate string `json:"pub_date,omitempty"`
}

// Source is a SearchResult whose URL has been checked to be well-formed.
// Sources persisted with a result preserve the ordering of the combined
// search set they were drawn from.
type Source = SearchResult

// Decision is the judge's verdict before outcome mapping.
type Decision string

const (
	DecisionTrue         Decision = "TRUE"
	DecisionFalse        Decision = "FALSE"
	DecisionInconclusive Decision = "INCONCLUSIVE"
)

// Judgment is the parsed and score-reconciled reply of the result judge.
// Score is the source of truth; Decision is kept consistent with it.
type Judgment struct {
	Decision            Decision
	Score               int // [0,10]
	Summary             string
	Evidence            string
	Reasoning           string
	Sufficient          bool
	NextQuerySuggestion string
	InputTokens         int
	OutputTokens        int
}

// QueryAttempt records one prior search query for the refinement prompt.
type QueryAttempt struct {
	Query      string
	Successful bool
	Reasoning  string
}

// ValidationResult is the engine's output row.
// Invariants: at most one per prediction, Proof <= 700 chars,
// len(Sources) <= 2 and empty for invalid/missing-context outcomes.
type ValidationResult struct {
	ID           string
	PredictionID string
	Outcome      Outcome
	Proof        string
	Sources      []Source
	CreatedAt    time.Time
}

// CostLogEntry is one line of the append-only JSONL cost log. The field
// names mirror the log format consumed by the billing tooling, so do not
// rename the tags.
type CostLogEntry struct {
	PredictionID              string    `json:"prediction_id"`
	PredictionContext         string    `json:"prediction_context"`
	SearchAPICalls            int       `json:"searchApiCalls"`
	QueryEnhancerInputTokens  int       `json:"queryEnhancerInputTokens"`
	QueryEnhancerOutputTokens int       `json:"queryEnhancerOutputTokens"`
	ResultJudgeInputTokens    int       `json:"resultJudgeInputTokens"`
	ResultJudgeOutputTokens   int       `json:"resultJudgeOutputTokens"`
	TotalInputTokens          int       `json:"totalInputTokens"`
	TotalOutputTokens         int       `json:"totalOutputTokens"`
	Outcome                   Outcome   `json:"outcome"`
	Timestamp                 time.Time `json:"timestamp"`
}

// Ports

// ChatRequest is a single chat-completion call.
type ChatRequest struct {
	Model       string
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

// ChatResponse carries the model reply plus token usage.
type ChatResponse struct {
	Content      string
	InputTokens  int
	OutputTokens int
}

// ChatClient is the chat-completion endpoint port. Implementations must be
// safe for concurrent use; workers share one instance.
type ChatClient interface {
	Complete(ctx Context, req ChatRequest) (ChatResponse, error)
}

// SearchClient is the web-search endpoint port. A missing result list maps
// to an empty slice, not an error.
type SearchClient interface {
	Search(ctx Context, query string, num int) ([]SearchResult, error)
}

// PostRepository loads post text on demand during goal extraction.
type PostRepository interface {
	GetText(ctx Context, id string) (string, error)
}

// Context is an alias so the domain package stays decoupled from call sites.
type Context = context.Context
