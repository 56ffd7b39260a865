package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/prediction-validator/internal/domain"
)

func TestExtractGoalText_PrefersContext(t *testing.T) {
	lp := matured()
	lp.Details.PredictionContext = sptr("BTC will close above $100k in 2025")
	posts := &fakePosts{}

	got, err := ExtractGoalText(context.Background(), lp, posts)
	require.NoError(t, err)
	assert.Equal(t, "BTC will close above $100k in 2025", got)
	assert.Zero(t, posts.calls, "context short-circuits post fetches")
}

func TestExtractGoalText_BlankContextFallsThrough(t *testing.T) {
	lp := matured()
	lp.Details.PredictionContext = sptr("   ")

	got, err := ExtractGoalText(context.Background(), lp, &fakePosts{})
	require.NoError(t, err)
	assert.Equal(t, "hello world", got)
}

func TestExtractGoalText_ConcatenatesSlices(t *testing.T) {
	lp := matured()
	lp.Post.Text = "the market will crash before june"
	lp.Prediction.GoalSlices = []domain.GoalSlice{
		{Start: 0, End: 10},
		{Start: 10, End: 21},
	}

	got, err := ExtractGoalText(context.Background(), lp, &fakePosts{})
	require.NoError(t, err)
	assert.Equal(t, "the market will crash", got)
}

func TestExtractGoalText_CrossPostSlicesCached(t *testing.T) {
	lp := matured()
	lp.Post.Text = "unused"
	other := "other-post"
	lp.Prediction.GoalSlices = []domain.GoalSlice{
		{Start: 0, End: 4, SourcePostID: &other},
		{Start: 4, End: 8, SourcePostID: &other},
	}
	posts := &fakePosts{texts: map[string]string{"other-post": "abcdefgh"}}

	got, err := ExtractGoalText(context.Background(), lp, posts)
	require.NoError(t, err)
	assert.Equal(t, "abcdefgh", got)
	assert.Equal(t, 1, posts.calls, "cross-referenced post fetched once")
}

func TestExtractGoalText_LeasedPostCachedUpfront(t *testing.T) {
	lp := matured()
	own := lp.Post.ID
	lp.Prediction.GoalSlices = []domain.GoalSlice{{Start: 0, End: 5, SourcePostID: &own}}
	posts := &fakePosts{}

	got, err := ExtractGoalText(context.Background(), lp, posts)
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
	assert.Zero(t, posts.calls)
}

func TestExtractGoalText_Empty(t *testing.T) {
	lp := matured()
	lp.Prediction.GoalSlices = nil

	got, err := ExtractGoalText(context.Background(), lp, &fakePosts{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestExtractGoalText_FetchErrorPropagates(t *testing.T) {
	lp := matured()
	missing := "gone"
	lp.Prediction.GoalSlices = []domain.GoalSlice{{Start: 0, End: 4, SourcePostID: &missing}}

	_, err := ExtractGoalText(context.Background(), lp, &fakePosts{})
	require.ErrorIs(t, err, domain.ErrNotFound)
}
