package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Supervisor starts N workers and waits for them to drain. Shutdown is
// driven by the caller canceling ctx (wired to SIGINT/SIGTERM in main);
// each worker finishes the prediction it is on before exiting.
type Supervisor struct {
	workers []*Worker
}

// NewSupervisor builds count workers sharing the given collaborators.
func NewSupervisor(count int, db DB, leaser Leaser, pipeline Pipeline, results ResultWriter, tracker Tracker, idleSleep, errorSleep time.Duration) *Supervisor {
	ws := make([]*Worker, 0, count)
	for i := 1; i <= count; i++ {
		ws = append(ws, &Worker{
			ID:         i,
			DB:         db,
			Leaser:     leaser,
			Pipeline:   pipeline,
			Results:    results,
			Tracker:    tracker,
			IdleSleep:  idleSleep,
			ErrorSleep: errorSleep,
		})
	}
	return &Supervisor{workers: ws}
}

// Run blocks until every worker has exited.
func (s *Supervisor) Run(ctx context.Context) {
	slog.Info("supervisor starting workers", slog.Int("count", len(s.workers)))
	var wg sync.WaitGroup
	for _, w := range s.workers {
		wg.Add(1)
		go func(w *Worker) {
			defer wg.Done()
			w.Run(ctx)
		}(w)
	}
	wg.Wait()
	slog.Info("all workers drained")
}
