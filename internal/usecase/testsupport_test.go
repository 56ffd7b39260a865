package usecase

import (
	"fmt"
	"sync"
	"time"

	"github.com/fairyhunter13/prediction-validator/internal/domain"
)

func fptr(v float64) *float64 { return &v }

func sptr(s string) *string { return &s }

func tptr(t time.Time) *time.Time { return &t }

// matured returns a leased prediction that passes every pre-filter check.
func matured() domain.LeasedPrediction {
	end := time.Now().UTC().Add(-24 * time.Hour)
	return domain.LeasedPrediction{
		Prediction: domain.Prediction{
			ID:           "pred-1",
			SourcePostID: "post-1",
			GoalSlices:   []domain.GoalSlice{{Start: 0, End: 11}},
		},
		Details: domain.PredictionDetails{
			PredictionID:    "pred-1",
			TimeframeEnd:    tptr(end),
			TimeframeStatus: "explicit",
		},
		Post: domain.Post{ID: "post-1", Text: "hello world and more text"},
	}
}

type fakeChat struct {
	mu      sync.Mutex
	calls   []domain.ChatRequest
	handler func(req domain.ChatRequest) (domain.ChatResponse, error)
}

func (f *fakeChat) Complete(_ domain.Context, req domain.ChatRequest) (domain.ChatResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	if f.handler != nil {
		return f.handler(req)
	}
	return domain.ChatResponse{Content: "stub", InputTokens: 1, OutputTokens: 1}, nil
}

func (f *fakeChat) callsFor(model string) []domain.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.ChatRequest
	for _, c := range f.calls {
		if c.Model == model {
			out = append(out, c)
		}
	}
	return out
}

type fakeSearch struct {
	mu      sync.Mutex
	queries []string
	handler func(query string, num int) ([]domain.SearchResult, error)
}

func (f *fakeSearch) Search(_ domain.Context, query string, num int) ([]domain.SearchResult, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()
	if f.handler != nil {
		return f.handler(query, num)
	}
	return nil, nil
}

func (f *fakeSearch) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

type fakePosts struct {
	texts map[string]string
	calls int
}

func (f *fakePosts) GetText(_ domain.Context, id string) (string, error) {
	f.calls++
	text, ok := f.texts[id]
	if !ok {
		return "", fmt.Errorf("op=post.get_text: %w", domain.ErrNotFound)
	}
	return text, nil
}

func nResults(n int, prefix string) []domain.SearchResult {
	out := make([]domain.SearchResult, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.SearchResult{
			URL:   fmt.Sprintf("https://example.com/%s/%d", prefix, i),
			Title: fmt.Sprintf("%s result %d", prefix, i),
		})
	}
	return out
}
