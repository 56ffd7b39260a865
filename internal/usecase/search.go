package usecase

import (
	"golang.org/x/sync/errgroup"

	"github.com/fairyhunter13/prediction-validator/internal/domain"
)

// FanOutSearch runs every query in parallel and concatenates the per-query
// result lists, preserving query order and each provider's internal order.
// Duplicates across queries are kept; the judge is expected to cope with
// them. Empty per-query results are fine, an adapter error fails the whole
// fan-out.
func FanOutSearch(ctx domain.Context, client domain.SearchClient, queries []string, perQuery int) ([]domain.SearchResult, error) {
	buckets := make([][]domain.SearchResult, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			res, err := client.Search(gctx, q, perQuery)
			if err != nil {
				return err
			}
			buckets[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var combined []domain.SearchResult
	for _, b := range buckets {
		combined = append(combined, b...)
	}
	return combined, nil
}
