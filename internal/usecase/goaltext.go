package usecase

import (
	"strings"

	"github.com/fairyhunter13/prediction-validator/internal/domain"
	"github.com/fairyhunter13/prediction-validator/pkg/textx"
)

// ExtractGoalText produces the prediction text fed to the LLMs. A
// pre-computed prediction_context wins; otherwise the goal slices are cut
// out of their posts and concatenated in order. Cross-referenced posts are
// fetched once per call and cached. An empty return means the prediction
// carries no usable text and must be marked invalid by the caller.
func ExtractGoalText(ctx domain.Context, lp domain.LeasedPrediction, posts domain.PostRepository) (string, error) {
	if c := lp.Details.PredictionContext; c != nil && strings.TrimSpace(*c) != "" {
		return *c, nil
	}

	cache := map[string]string{lp.Post.ID: lp.Post.Text}
	var b strings.Builder
	for _, s := range lp.Prediction.GoalSlices {
		text := lp.Post.Text
		if s.SourcePostID != nil && *s.SourcePostID != "" {
			cached, ok := cache[*s.SourcePostID]
			if !ok {
				fetched, err := posts.GetText(ctx, *s.SourcePostID)
				if err != nil {
					return "", err
				}
				cache[*s.SourcePostID] = fetched
				cached = fetched
			}
			text = cached
		}
		b.WriteString(textx.SliceRunes(text, s.Start, s.End))
	}
	return strings.TrimSpace(b.String()), nil
}
