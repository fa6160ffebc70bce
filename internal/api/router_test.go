package api_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/blevesearch/bleve/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"searxiv/internal/api"
	"searxiv/internal/api/handlers"
	"searxiv/internal/embedding"
	"searxiv/internal/searchengine"
	"searxiv/internal/searchindex"
)

func newTestEngine(t *testing.T) *searchengine.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	m, err := searchindex.NewMapping()
	require.NoError(t, err)
	idx, err := bleve.NewMemOnly(m)
	require.NoError(t, err)

	embedder := embedding.NewHashEmbedder(16)
	vecs, err := embedder.Embed(context.Background(), []string{"Neural networks for vision"})
	require.NoError(t, err)

	doc := searchindex.NewDocument(1, "https://export.arxiv.org/abs/1", "Neural networks for vision", "A survey.", "body text", "Alice", vecs[0])
	require.NoError(t, idx.Index(searchindex.Addr(1), doc))

	return searchengine.New(idx, embedder, nil, 10, nil)
}

func TestRouter_SearchAndIndexSize(t *testing.T) {
	engine := newTestEngine(t)
	router := api.NewRouter(engine, slog.Default())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/index-size", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/search?query=neural", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	var results []handlers.SearchResult
	require.NoError(t, json.Unmarshal(body, &results))
	require.Len(t, results, 1)
	require.Equal(t, "Neural networks for vision", results[0].Title)
}

func TestRouter_BannerAndHealth(t *testing.T) {
	engine := newTestEngine(t)
	router := api.NewRouter(engine, slog.Default())

	for _, path := range []string{"/", "/health", "/docs", "/api-docs/openapi.json"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code, path)
	}
}
