// Package worker runs the claim loop: lease a prediction inside a
// transaction, validate it, persist the result, commit, account the cost.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fairyhunter13/prediction-validator/internal/adapter/observability"
	"github.com/fairyhunter13/prediction-validator/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/prediction-validator/internal/domain"
	"github.com/fairyhunter13/prediction-validator/internal/usecase"
)

// DB begins transactions; satisfied by *pgxpool.Pool and pgxmock.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Leaser hands out row-locked predictions within a transaction.
type Leaser interface {
	Lease(ctx domain.Context, q postgres.Querier, now time.Time) (domain.LeasedPrediction, bool, error)
}

// Pipeline validates one leased prediction. It never fails: errors surface
// as an invalid result.
type Pipeline interface {
	Run(ctx domain.Context, lp domain.LeasedPrediction) (domain.ValidationResult, usecase.Usage)
}

// ResultWriter persists results idempotently.
type ResultWriter interface {
	Insert(ctx domain.Context, q postgres.Querier, res domain.ValidationResult) (bool, error)
}

// Tracker receives worker activity and committed-validation costs.
type Tracker interface {
	MarkWorker(id int, activity string, active bool)
	Record(e domain.CostLogEntry)
}

// Worker is one long-running claim loop.
type Worker struct {
	ID         int
	DB         DB
	Leaser     Leaser
	Pipeline   Pipeline
	Results    ResultWriter
	Tracker    Tracker
	IdleSleep  time.Duration
	ErrorSleep time.Duration
}

// Run loops until ctx is done. The loop only checks for shutdown between
// iterations: an in-flight validation always runs to completion, which is
// why the work itself runs on a non-cancelable context.
func (w *Worker) Run(ctx context.Context) {
	slog.Info("worker started", slog.Int("worker_id", w.ID))
	for {
		select {
		case <-ctx.Done():
			w.Tracker.MarkWorker(w.ID, "Stopped", false)
			slog.Info("worker stopped", slog.Int("worker_id", w.ID))
			return
		default:
		}

		processed, err := w.runOnce(context.WithoutCancel(ctx))
		switch {
		case err != nil:
			slog.Error("worker iteration failed", slog.Int("worker_id", w.ID), slog.Any("error", err))
			w.Tracker.MarkWorker(w.ID, "Error (retrying)", false)
			sleepCtx(ctx, w.ErrorSleep)
		case !processed:
			w.Tracker.MarkWorker(w.ID, "Waiting (idle)", false)
			sleepCtx(ctx, w.IdleSleep)
		}
	}
}

// runOnce executes one lease-validate-persist cycle. It reports
// processed=false on an empty queue and returns errors only for transient
// DB trouble; validation failures are persisted as invalid outcomes and
// count as processed.
func (w *Worker) runOnce(ctx context.Context) (bool, error) {
	tx, err := w.DB.Begin(ctx)
	if err != nil {
		return false, err
	}

	lp, ok, err := w.Leaser.Lease(ctx, tx, time.Now().UTC())
	if err != nil {
		_ = tx.Rollback(ctx)
		return false, err
	}
	if !ok {
		_ = tx.Commit(ctx)
		return false, nil
	}

	w.Tracker.MarkWorker(w.ID, "Validating", true)
	start := time.Now()

	res, usage := w.Pipeline.Run(ctx, lp)

	inserted, err := w.Results.Insert(ctx, tx, res)
	if err != nil {
		_ = tx.Rollback(ctx)
		return false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, err
	}

	observability.ValidationDuration.Observe(time.Since(start).Seconds())

	// Account only the winning insert so a lost race never double-bills.
	if inserted {
		w.Tracker.Record(buildCostEntry(lp, res, usage))
	} else {
		slog.Info("result already present, skipping cost entry",
			slog.Int("worker_id", w.ID),
			slog.String("prediction_id", lp.Prediction.ID))
	}

	slog.Info("validation committed",
		slog.Int("worker_id", w.ID),
		slog.String("prediction_id", lp.Prediction.ID),
		slog.String("outcome", string(res.Outcome)),
		slog.Duration("took", time.Since(start)))
	return true, nil
}

func buildCostEntry(lp domain.LeasedPrediction, res domain.ValidationResult, u usecase.Usage) domain.CostLogEntry {
	return domain.CostLogEntry{
		PredictionID:              lp.Prediction.ID,
		PredictionContext:         u.GoalText,
		SearchAPICalls:            u.SearchCalls,
		QueryEnhancerInputTokens:  u.EnhancerInput,
		QueryEnhancerOutputTokens: u.EnhancerOutput,
		ResultJudgeInputTokens:    u.JudgeInput,
		ResultJudgeOutputTokens:   u.JudgeOutput,
		TotalInputTokens:          u.EnhancerInput + u.JudgeInput,
		TotalOutputTokens:         u.EnhancerOutput + u.JudgeOutput,
		Outcome:                   res.Outcome,
		Timestamp:                 time.Now().UTC(),
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
