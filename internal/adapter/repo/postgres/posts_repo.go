package postgres

import (
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/prediction-validator/internal/domain"
)

// PostRepo reads scraped posts. Goal extraction fetches cross-referenced
// posts through it on demand.
type PostRepo struct{ Pool Querier }

// NewPostRepo constructs a PostRepo with the given pool.
func NewPostRepo(p Querier) *PostRepo { return &PostRepo{Pool: p} }

// GetText loads a post's text by id.
func (r *PostRepo) GetText(ctx domain.Context, id string) (string, error) {
	tracer := otel.Tracer("repo.posts")
	ctx, span := tracer.Start(ctx, "posts.GetText")
	defer span.End()
	q := `SELECT text FROM scraped_post WHERE id=$1`
	var text string
	if err := r.Pool.QueryRow(ctx, q, id).Scan(&text); err != nil {
		if err == pgx.ErrNoRows {
			return "", fmt.Errorf("op=post.get_text: %w", domain.ErrNotFound)
		}
		return "", fmt.Errorf("op=post.get_text: %w", err)
	}
	return text, nil
}
