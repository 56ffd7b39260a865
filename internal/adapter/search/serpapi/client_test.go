package serpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/prediction-validator/internal/config"
	"github.com/fairyhunter13/prediction-validator/internal/domain"
)

func testClient(url string) *Client {
	return New(config.Config{SerpAPIBaseURL: url, SerpAPIKey: "test-key"})
}

func TestClient_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "google", q.Get("engine"))
		assert.Equal(t, "bitcoin price december 2025", q.Get("q"))
		assert.Equal(t, "10", q.Get("num"))
		assert.Equal(t, "test-key", q.Get("api_key"))
		_, _ = w.Write([]byte(`{"organic_results":[
			{"link":"https://example.com/1","title":"first","snippet":"btc closed at 104k","date":"Dec 31, 2025"},
			{"link":"https://example.com/2","title":"second","snippet":"year-end recap"}
		]}`))
	}))
	defer srv.Close()

	results, err := testClient(srv.URL).Search(context.Background(), "bitcoin price december 2025", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, domain.SearchResult{
		URL:     "https://example.com/1",
		Title:   "first",
		Excerpt: "btc closed at 104k",
		PubDate: "Dec 31, 2025",
	}, results[0])
	assert.Empty(t, results[1].PubDate)
}

func TestClient_Search_NumClamped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "10", r.URL.Query().Get("num"))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.Search(context.Background(), "q", 50)
	require.NoError(t, err)
	_, err = c.Search(context.Background(), "q", 0)
	require.NoError(t, err)
}

func TestClient_Search_NoOrganicResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"search_metadata":{"status":"Success"}}`))
	}))
	defer srv.Close()

	results, err := testClient(srv.URL).Search(context.Background(), "obscure query", 10)
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestClient_Search_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Search(context.Background(), "q", 10)
	require.ErrorIs(t, err, domain.ErrUpstreamRateLimit)
}

func TestClient_Search_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Search(context.Background(), "q", 10)
	require.ErrorIs(t, err, domain.ErrInternal)
}
