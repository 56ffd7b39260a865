package postgres

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/prediction-validator/internal/domain"
)

// LeaseThresholds are the quality bounds applied inside the lease query.
// They must stay equivalent to the in-memory pre-filter: any row the leaser
// hands out has to pass it again.
type LeaseThresholds struct {
	MinFilterConfidence  float64
	MinPredictionQuality float64
	MinLLMConfidence     float64
	MaxVagueness         float64
}

// DefaultLeaseThresholds mirror the production policy.
func DefaultLeaseThresholds() LeaseThresholds {
	return LeaseThresholds{
		MinFilterConfidence:  0.85,
		MinPredictionQuality: 30,
		MinLLMConfidence:     0.50,
		MaxVagueness:         0.80,
	}
}

// Leaser selects and row-locks the next matured, unvalidated prediction.
type Leaser struct{ Thresholds LeaseThresholds }

// NewLeaser constructs a Leaser with the given thresholds.
func NewLeaser(t LeaseThresholds) *Leaser { return &Leaser{Thresholds: t} }

const leaseQuery = `SELECT p.id, p.source_post_id, p.goal_slices,
       p.llm_confidence, p.prediction_quality, p.vagueness,
       d.prediction_context, d.timeframe_start, d.timeframe_end, d.timeframe_status,
       d.filter_validation_confidence, d.filter_validation_reasoning,
       s.id, s.text
FROM parsed_prediction p
JOIN parsed_prediction_details d ON d.parsed_prediction_id = p.id
JOIN scraped_post s ON s.id = p.source_post_id
WHERE d.timeframe_end IS NOT NULL
  AND d.timeframe_end <= $1
  AND d.timeframe_status <> $2
  AND (d.timeframe_start IS NULL OR d.timeframe_start <= d.timeframe_end)
  AND (d.filter_validation_confidence IS NULL OR d.filter_validation_confidence >= $3)
  AND (p.prediction_quality IS NULL OR p.prediction_quality >= $4)
  AND (p.llm_confidence IS NULL OR p.llm_confidence >= $5)
  AND (p.vagueness IS NULL OR p.vagueness <= $6)
  AND NOT EXISTS (SELECT 1 FROM validation_result v WHERE v.parsed_prediction_id = p.id)
ORDER BY d.timeframe_end ASC
LIMIT 1
FOR UPDATE OF p SKIP LOCKED`

// Lease returns the oldest matured, unvalidated, quality-passing prediction
// together with its details and source post, or ok=false when the queue is
// empty. Must run inside a transaction: the row lock it takes (FOR UPDATE
// SKIP LOCKED) is what keeps parallel workers off the same row, and it is
// only released on commit or rollback.
func (l *Leaser) Lease(ctx domain.Context, q Querier, now time.Time) (domain.LeasedPrediction, bool, error) {
	tracer := otel.Tracer("repo.leaser")
	ctx, span := tracer.Start(ctx, "leaser.Lease")
	defer span.End()

	row := q.QueryRow(ctx, leaseQuery, now,
		domain.TimeframeStatusMissing,
		l.Thresholds.MinFilterConfidence,
		l.Thresholds.MinPredictionQuality,
		l.Thresholds.MinLLMConfidence,
		l.Thresholds.MaxVagueness,
	)

	var (
		lp        domain.LeasedPrediction
		rawSlices []byte
	)
	err := row.Scan(
		&lp.Prediction.ID, &lp.Prediction.SourcePostID, &rawSlices,
		&lp.Prediction.LLMConfidence, &lp.Prediction.PredictionQuality, &lp.Prediction.Vagueness,
		&lp.Details.PredictionContext, &lp.Details.TimeframeStart, &lp.Details.TimeframeEnd, &lp.Details.TimeframeStatus,
		&lp.Details.FilterValidationConfidence, &lp.Details.FilterValidationReasoning,
		&lp.Post.ID, &lp.Post.Text,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.LeasedPrediction{}, false, nil
		}
		return domain.LeasedPrediction{}, false, fmt.Errorf("op=leaser.lease: %w", err)
	}
	lp.Details.PredictionID = lp.Prediction.ID
	if len(rawSlices) > 0 {
		if err := json.Unmarshal(rawSlices, &lp.Prediction.GoalSlices); err != nil {
			return domain.LeasedPrediction{}, false, fmt.Errorf("op=leaser.decode_slices: %w", err)
		}
	}
	return lp, true, nil
}
