package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/prediction-validator/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/prediction-validator/internal/domain"
	"github.com/fairyhunter13/prediction-validator/internal/usecase"
)

type fakeLeaser struct {
	mu    sync.Mutex
	lp    domain.LeasedPrediction
	ok    bool
	err   error
	calls int
}

func (f *fakeLeaser) Lease(_ domain.Context, _ postgres.Querier, _ time.Time) (domain.LeasedPrediction, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.lp, f.ok, f.err
}

type fakePipeline struct {
	res   domain.ValidationResult
	usage usecase.Usage
	calls int
}

func (f *fakePipeline) Run(_ domain.Context, _ domain.LeasedPrediction) (domain.ValidationResult, usecase.Usage) {
	f.calls++
	return f.res, f.usage
}

type fakeResults struct {
	inserted bool
	err      error
	calls    int
}

func (f *fakeResults) Insert(_ domain.Context, _ postgres.Querier, _ domain.ValidationResult) (bool, error) {
	f.calls++
	return f.inserted, f.err
}

type fakeTracker struct {
	mu       sync.Mutex
	marks    []string
	recorded []domain.CostLogEntry
}

func (f *fakeTracker) MarkWorker(_ int, activity string, _ bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marks = append(f.marks, activity)
}

func (f *fakeTracker) Record(e domain.CostLogEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded = append(f.recorded, e)
}

func (f *fakeTracker) recordedEntries() []domain.CostLogEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.CostLogEntry(nil), f.recorded...)
}

func leased() domain.LeasedPrediction {
	return domain.LeasedPrediction{
		Prediction: domain.Prediction{ID: "pred-1", SourcePostID: "post-1"},
		Post:       domain.Post{ID: "post-1", Text: "hello"},
	}
}

func newTestWorker(db DB, l Leaser, p Pipeline, r ResultWriter, tr Tracker) *Worker {
	return &Worker{
		ID:         1,
		DB:         db,
		Leaser:     l,
		Pipeline:   p,
		Results:    r,
		Tracker:    tr,
		IdleSleep:  time.Millisecond,
		ErrorSleep: time.Millisecond,
	}
}

func TestWorker_RunOnce_EmptyQueue(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	leaser := &fakeLeaser{ok: false}
	pipe := &fakePipeline{}
	tr := &fakeTracker{}
	w := newTestWorker(mock, leaser, pipe, &fakeResults{}, tr)

	processed, err := w.runOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, processed)
	assert.Zero(t, pipe.calls)
	assert.Empty(t, tr.recordedEntries())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorker_RunOnce_ProcessesAndRecords(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	leaser := &fakeLeaser{lp: leased(), ok: true}
	pipe := &fakePipeline{
		res: domain.ValidationResult{PredictionID: "pred-1", Outcome: domain.OutcomeMaturedTrue},
		usage: usecase.Usage{
			GoalText:       "hello",
			SearchCalls:    3,
			EnhancerInput:  20,
			EnhancerOutput: 10,
			JudgeInput:     100,
			JudgeOutput:    40,
		},
	}
	tr := &fakeTracker{}
	w := newTestWorker(mock, leaser, pipe, &fakeResults{inserted: true}, tr)

	processed, err := w.runOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, processed)

	entries := tr.recordedEntries()
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, "pred-1", e.PredictionID)
	assert.Equal(t, "hello", e.PredictionContext)
	assert.Equal(t, 3, e.SearchAPICalls)
	assert.Equal(t, 120, e.TotalInputTokens)
	assert.Equal(t, 50, e.TotalOutputTokens)
	assert.Equal(t, domain.OutcomeMaturedTrue, e.Outcome)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorker_RunOnce_LostRaceSkipsCost(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	tr := &fakeTracker{}
	w := newTestWorker(mock, &fakeLeaser{lp: leased(), ok: true}, &fakePipeline{}, &fakeResults{inserted: false}, tr)

	processed, err := w.runOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, processed, "the prediction is handled either way")
	assert.Empty(t, tr.recordedEntries(), "losing the insert race must not bill")
}

func TestWorker_RunOnce_LeaseErrorRollsBack(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("connection reset")
	w := newTestWorker(mock, &fakeLeaser{err: boom}, &fakePipeline{}, &fakeResults{}, &fakeTracker{})

	_, err = w.runOnce(context.Background())
	require.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorker_RunOnce_InsertErrorRollsBack(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("disk full")
	tr := &fakeTracker{}
	w := newTestWorker(mock, &fakeLeaser{lp: leased(), ok: true}, &fakePipeline{}, &fakeResults{err: boom}, tr)

	_, err = w.runOnce(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Empty(t, tr.recordedEntries())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorker_Run_StopsOnCancel(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	tr := &fakeTracker{}
	w := newTestWorker(mock, &fakeLeaser{}, &fakePipeline{}, &fakeResults{}, tr)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on canceled context")
	}
	assert.Contains(t, tr.marks, "Stopped")
}

func TestSupervisor_DrainsAllWorkers(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	tr := &fakeTracker{}
	sup := NewSupervisor(3, mock, &fakeLeaser{}, &fakePipeline{}, &fakeResults{}, tr, time.Millisecond, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	done := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("supervisor did not drain")
	}

	tr.mu.Lock()
	stopped := 0
	for _, m := range tr.marks {
		if m == "Stopped" {
			stopped++
		}
	}
	tr.mu.Unlock()
	assert.Equal(t, 3, stopped)
}
