package usecase

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/fairyhunter13/prediction-validator/internal/domain"
)

// defaultScore is used when the <score> tag cannot be parsed.
const defaultScore = 5

// Judge decides TRUE/FALSE/INCONCLUSIVE over the combined search results.
type Judge struct {
	Chat   domain.ChatClient
	Params Params
}

// NewJudge constructs a Judge.
func NewJudge(chat domain.ChatClient, p Params) *Judge {
	return &Judge{Chat: chat, Params: p}
}

// Evaluate posts the prediction plus up to MaxTotalResults results and
// parses the reply. The numeric score is the source of truth: the textual
// decision is reconciled against it before returning.
func (j *Judge) Evaluate(ctx domain.Context, text string, results []domain.SearchResult) (domain.Judgment, error) {
	if len(results) > j.Params.MaxTotalResults {
		results = results[:j.Params.MaxTotalResults]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Prediction:\n%s\n\nSearch results (%d):\n", text, len(results))
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s\n   %s\n", i+1, r.Title, r.URL)
		if r.Excerpt != "" {
			fmt.Fprintf(&b, "   %s\n", r.Excerpt)
		}
		if r.PubDate != "" {
			fmt.Fprintf(&b, "   (%s)\n", r.PubDate)
		}
	}

	resp, err := j.Chat.Complete(ctx, domain.ChatRequest{
		Model:       j.Params.JudgeModel,
		System:      judgeSystemPrompt,
		User:        b.String(),
		Temperature: 0.2,
		MaxTokens:   j.Params.JudgeMaxTokens,
	})
	if err != nil {
		return domain.Judgment{}, err
	}

	jm := parseJudgment(resp.Content)
	jm.InputTokens = resp.InputTokens
	jm.OutputTokens = resp.OutputTokens
	return jm, nil
}

var tagRe = regexp.MustCompile(`(?s)<(decision|score|summary|evidence|reasoning|sufficient|next_query)>(.*?)</`)

func extractTags(reply string) map[string]string {
	tags := map[string]string{}
	for _, m := range tagRe.FindAllStringSubmatch(reply, -1) {
		tags[m[1]] = strings.TrimSpace(m[2])
	}
	return tags
}

// parseJudgment tolerates sloppy model output: a missing score defaults to
// 5, an unknown decision to INCONCLUSIVE, and the decision is forced into
// the score's range afterwards.
func parseJudgment(reply string) domain.Judgment {
	tags := extractTags(reply)

	score := defaultScore
	if raw, ok := tags["score"]; ok {
		if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
			score = n
		}
	}
	if score < 0 {
		score = 0
	}
	if score > 10 {
		score = 10
	}

	decision := domain.DecisionInconclusive
	switch strings.ToUpper(tags["decision"]) {
	case "TRUE":
		decision = domain.DecisionTrue
	case "FALSE":
		decision = domain.DecisionFalse
	}
	decision = reconcileDecision(decision, score)

	sufficient := false
	switch strings.ToLower(tags["sufficient"]) {
	case "true", "yes":
		sufficient = true
	}

	return domain.Judgment{
		Decision:            decision,
		Score:               score,
		Summary:             tags["summary"],
		Evidence:            tags["evidence"],
		Reasoning:           tags["reasoning"],
		Sufficient:          sufficient,
		NextQuerySuggestion: tags["next_query"],
	}
}

// reconcileDecision forces the textual decision to agree with the score:
// score >= 7 means TRUE, score <= 3 means FALSE, anything between means
// INCONCLUSIVE.
func reconcileDecision(d domain.Decision, score int) domain.Decision {
	switch {
	case score >= 7:
		return domain.DecisionTrue
	case score <= 3:
		return domain.DecisionFalse
	default:
		return domain.DecisionInconclusive
	}
}
