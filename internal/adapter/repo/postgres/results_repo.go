package postgres

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/prediction-validator/internal/domain"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique-constraint errors.
const uniqueViolation = "23505"

// ResultRepo writes validation results. Rows are insert-only and unique per
// prediction.
type ResultRepo struct{ Pool Querier }

// NewResultRepo constructs a ResultRepo with the given pool.
func NewResultRepo(p Querier) *ResultRepo { return &ResultRepo{Pool: p} }

// Insert stores a validation result, generating an id when empty. The insert
// is conditional on no prior row for the prediction; losing that race (via
// ON CONFLICT DO NOTHING or a unique violation) is not an error and reports
// inserted=false, because another worker already owns the result.
func (r *ResultRepo) Insert(ctx domain.Context, q Querier, res domain.ValidationResult) (bool, error) {
	tracer := otel.Tracer("repo.results")
	ctx, span := tracer.Start(ctx, "results.Insert")
	defer span.End()

	id := res.ID
	if id == "" {
		id = uuid.New().String()
	}
	createdAt := res.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	sources := res.Sources
	if sources == nil {
		sources = []domain.Source{}
	}
	rawSources, err := json.Marshal(sources)
	if err != nil {
		return false, fmt.Errorf("op=result.encode_sources: %w", err)
	}

	const stmt = `INSERT INTO validation_result (id, parsed_prediction_id, outcome, proof, sources, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (parsed_prediction_id) DO NOTHING`
	tag, err := q.Exec(ctx, stmt, id, res.PredictionID, string(res.Outcome), res.Proof, rawSources, createdAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return false, nil
		}
		return false, fmt.Errorf("op=result.insert: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Exists reports whether a validation result already exists for a prediction.
func (r *ResultRepo) Exists(ctx domain.Context, predictionID string) (bool, error) {
	tracer := otel.Tracer("repo.results")
	ctx, span := tracer.Start(ctx, "results.Exists")
	defer span.End()
	const stmt = `SELECT EXISTS(SELECT 1 FROM validation_result WHERE parsed_prediction_id=$1)`
	var exists bool
	if err := r.Pool.QueryRow(ctx, stmt, predictionID).Scan(&exists); err != nil {
		return false, fmt.Errorf("op=result.exists: %w", err)
	}
	return exists, nil
}
