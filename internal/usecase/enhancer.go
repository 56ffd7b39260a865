package usecase

import (
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/fairyhunter13/prediction-validator/internal/domain"
	"github.com/fairyhunter13/prediction-validator/pkg/textx"
)

// queryAngles are the fixed directives that diversify the initial queries.
// Only the first n are used; the current design never asks for more than 3.
var queryAngles = []string{
	"Write a direct factual query about the main claim of the prediction.",
	"Write a query targeting news coverage and reports about the predicted event.",
	"Write a query using synonyms and alternative keywords for the predicted event.",
}

// baseTemperature plus 0.1 per angle (or per past attempt for refinement)
// spreads the sampling so parallel calls do not collapse onto one query.
const baseTemperature = 0.7

// Enhancer turns prediction text into search queries via the chat port.
type Enhancer struct {
	Chat   domain.ChatClient
	Params Params
}

// NewEnhancer constructs an Enhancer.
func NewEnhancer(chat domain.ChatClient, p Params) *Enhancer {
	return &Enhancer{Chat: chat, Params: p}
}

// Multiple issues n chat calls in parallel, one per angle, and returns the
// normalized queries in angle order plus aggregated token counts.
func (e *Enhancer) Multiple(ctx domain.Context, text string, n int) ([]string, int, int, error) {
	if n <= 0 {
		return nil, 0, 0, fmt.Errorf("%w: query count must be positive", domain.ErrInvalidArgument)
	}
	if n > len(queryAngles) {
		n = len(queryAngles)
	}

	queries := make([]string, n)
	tokensIn := make([]int, n)
	tokensOut := make([]int, n)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			resp, err := e.Chat.Complete(gctx, domain.ChatRequest{
				Model:       e.Params.EnhancerModel,
				System:      enhancerSystemPrompt,
				User:        fmt.Sprintf("%s\n\nPrediction:\n%s", queryAngles[i], text),
				Temperature: baseTemperature + 0.1*float64(i),
				MaxTokens:   e.Params.EnhancerMaxTokens,
			})
			if err != nil {
				return err
			}
			queries[i] = textx.NormalizeQuery(resp.Content)
			tokensIn[i] = resp.InputTokens
			tokensOut[i] = resp.OutputTokens
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, 0, err
	}

	var in, out int
	for i := 0; i < n; i++ {
		in += tokensIn[i]
		out += tokensOut[i]
	}
	return queries, in, out, nil
}

// Refine asks for one more query informed by the failed attempts and the
// judge's suggestion, if any.
func (e *Enhancer) Refine(ctx domain.Context, text string, attempts []domain.QueryAttempt) (string, int, int, error) {
	var b strings.Builder
	b.WriteString("The following search queries did not surface enough evidence:\n")
	for _, a := range attempts {
		fmt.Fprintf(&b, "- %q", a.Query)
		if a.Reasoning != "" {
			fmt.Fprintf(&b, " (hint: %s)", a.Reasoning)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nWrite one new, different query.\n\nPrediction:\n%s", text)

	resp, err := e.Chat.Complete(ctx, domain.ChatRequest{
		Model:       e.Params.EnhancerModel,
		System:      enhancerSystemPrompt,
		User:        b.String(),
		Temperature: baseTemperature + 0.1*float64(len(attempts)),
		MaxTokens:   e.Params.EnhancerMaxTokens,
	})
	if err != nil {
		return "", 0, 0, err
	}
	return textx.NormalizeQuery(resp.Content), resp.InputTokens, resp.OutputTokens, nil
}
