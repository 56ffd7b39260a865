package costs

import (
	"log/slog"
	"sync"
	"time"

	"github.com/fairyhunter13/prediction-validator/internal/adapter/observability"
	"github.com/fairyhunter13/prediction-validator/internal/domain"
)

// USD rates. Search pricing is plan-specific: the monthly plan buys 35k
// calls for $100. LLM pricing is per million tokens.
const (
	searchCostPerCall    = 100.0 / 35000.0
	inputCostPerMillion  = 0.30
	outputCostPerMillion = 2.50
)

// Counters is one counter set (session or historical).
type Counters struct {
	Validated    int64
	SearchCalls  int64
	InputTokens  int64
	OutputTokens int64
	Outcomes     map[domain.Outcome]int64
	StartedAt    time.Time
}

func newCounters(start time.Time) Counters {
	return Counters{Outcomes: make(map[domain.Outcome]int64), StartedAt: start}
}

func (c *Counters) add(e domain.CostLogEntry) {
	c.Validated++
	c.SearchCalls += int64(e.SearchAPICalls)
	c.InputTokens += int64(e.TotalInputTokens)
	c.OutputTokens += int64(e.TotalOutputTokens)
	c.Outcomes[e.Outcome]++
}

// SearchCostUSD is the derived spend on the search API.
func (c Counters) SearchCostUSD() float64 { return float64(c.SearchCalls) * searchCostPerCall }

// LLMCostUSD is the derived spend on chat tokens.
func (c Counters) LLMCostUSD() float64 {
	return float64(c.InputTokens)/1e6*inputCostPerMillion + float64(c.OutputTokens)/1e6*outputCostPerMillion
}

// TotalCostUSD is search plus LLM spend.
func (c Counters) TotalCostUSD() float64 { return c.SearchCostUSD() + c.LLMCostUSD() }

// WorkerStatus is the last reported activity of one worker.
type WorkerStatus struct {
	Activity   string    `json:"activity"`
	IsActive   bool      `json:"is_active"`
	LastUpdate time.Time `json:"last_update"`
}

// Tracker is the process-wide cost/telemetry singleton. It owns a session
// counter set (since start-up) and a historical set (seeded from the cost
// log), plus per-worker activity. All access is mutex-guarded; the dashboard
// pulls immutable snapshots.
type Tracker struct {
	mu         sync.Mutex
	session    Counters
	historical Counters
	workers    map[int]WorkerStatus
	log        *Log
}

// NewTracker constructs a Tracker around the given cost log.
func NewTracker(log *Log) *Tracker {
	now := time.Now().UTC()
	return &Tracker{
		session:    newCounters(now),
		historical: newCounters(now),
		workers:    make(map[int]WorkerStatus),
		log:        log,
	}
}

// LoadHistory seeds the historical counters by replaying the cost log.
func (t *Tracker) LoadHistory() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.log.Replay(func(e domain.CostLogEntry) {
		t.historical.add(e)
	})
}

// MarkWorker records a worker's current activity for the dashboard and
// keeps the active-worker gauge in step.
func (t *Tracker) MarkWorker(id int, activity string, active bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	prev, ok := t.workers[id]
	t.workers[id] = WorkerStatus{Activity: activity, IsActive: active, LastUpdate: time.Now().UTC()}
	switch {
	case active && (!ok || !prev.IsActive):
		observability.WorkersActive.Inc()
	case !active && ok && prev.IsActive:
		observability.WorkersActive.Dec()
	}
}

// Record accounts one committed validation: bumps both counter sets, the
// Prometheus collectors, and appends the entry to the cost log. Called only
// after the owning transaction has committed, and never for a lost insert
// race, so each prediction is billed exactly once.
func (t *Tracker) Record(e domain.CostLogEntry) {
	t.mu.Lock()
	t.session.add(e)
	t.historical.add(e)
	t.mu.Unlock()

	observability.ValidationsTotal.WithLabelValues(string(e.Outcome)).Inc()
	observability.SearchAPICallsTotal.Add(float64(e.SearchAPICalls))
	observability.LLMTokensTotal.WithLabelValues("enhancer", "input").Add(float64(e.QueryEnhancerInputTokens))
	observability.LLMTokensTotal.WithLabelValues("enhancer", "output").Add(float64(e.QueryEnhancerOutputTokens))
	observability.LLMTokensTotal.WithLabelValues("judge", "input").Add(float64(e.ResultJudgeInputTokens))
	observability.LLMTokensTotal.WithLabelValues("judge", "output").Add(float64(e.ResultJudgeOutputTokens))

	// Best effort: a failed append must not fail the validation.
	if err := t.log.Append(e); err != nil {
		slog.Error("cost log append failed", slog.Any("error", err))
	}
}

// CounterSnapshot is an immutable view of one counter set.
type CounterSnapshot struct {
	Validated     int64            `json:"validated"`
	SearchCalls   int64            `json:"search_api_calls"`
	InputTokens   int64            `json:"input_tokens"`
	OutputTokens  int64            `json:"output_tokens"`
	Outcomes      map[string]int64 `json:"outcomes"`
	SearchCostUSD float64          `json:"search_cost_usd"`
	LLMCostUSD    float64          `json:"llm_cost_usd"`
	TotalCostUSD  float64          `json:"total_cost_usd"`
	StartedAt     time.Time        `json:"started_at"`
}

// Snapshot is what the dashboard consumes.
type Snapshot struct {
	Session    CounterSnapshot      `json:"session"`
	Historical CounterSnapshot      `json:"historical"`
	Workers    map[int]WorkerStatus `json:"workers"`
}

func snapshotCounters(c Counters) CounterSnapshot {
	outcomes := make(map[string]int64, len(c.Outcomes))
	for k, v := range c.Outcomes {
		outcomes[string(k)] = v
	}
	return CounterSnapshot{
		Validated:     c.Validated,
		SearchCalls:   c.SearchCalls,
		InputTokens:   c.InputTokens,
		OutputTokens:  c.OutputTokens,
		Outcomes:      outcomes,
		SearchCostUSD: c.SearchCostUSD(),
		LLMCostUSD:    c.LLMCostUSD(),
		TotalCostUSD:  c.TotalCostUSD(),
		StartedAt:     c.StartedAt,
	}
}

// Snapshot returns a deep copy of the current state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	workers := make(map[int]WorkerStatus, len(t.workers))
	for k, v := range t.workers {
		workers[k] = v
	}
	return Snapshot{
		Session:    snapshotCounters(t.session),
		Historical: snapshotCounters(t.historical),
		Workers:    workers,
	}
}
