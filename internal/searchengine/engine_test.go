package searchengine

import (
	"context"
	"testing"

	"github.com/blevesearch/bleve/v2"
	"github.com/stretchr/testify/require"

	"searxiv/internal/embedding"
	"searxiv/internal/searchindex"
)

func newTestIndex(t *testing.T) bleve.Index {
	t.Helper()
	m, err := searchindex.NewMapping()
	require.NoError(t, err)
	idx, err := bleve.NewMemOnly(m)
	require.NoError(t, err)
	return idx
}

func indexPaper(t *testing.T, idx bleve.Index, embedder embedding.Embedder, id uint, title, authors string) {
	t.Helper()
	vecs, err := embedder.Embed(context.Background(), []string{title})
	require.NoError(t, err)
	doc := searchindex.NewDocument(id, "u", title, "", "", authors, vecs[0])
	require.NoError(t, idx.Index(searchindex.Addr(id), doc))
}

func TestEngineSearch_LexicalMatch(t *testing.T) {
	idx := newTestIndex(t)
	embedder := embedding.NewHashEmbedder(16)

	indexPaper(t, idx, embedder, 1, "Neural networks for vision", "Alice")
	indexPaper(t, idx, embedder, 2, "Graph databases at scale", "Bob")

	eng := New(idx, embedder, nil, 10, nil)
	results, err := eng.Search(context.Background(), "neural")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, uint(1), results[0].ID)
	require.Greater(t, results[0].Score, 0.0)
}

func TestEngineSearch_IdenticalDocsBothReturned(t *testing.T) {
	idx := newTestIndex(t)
	embedder := embedding.NewHashEmbedder(16)

	indexPaper(t, idx, embedder, 1, "widget widget widget", "A")
	indexPaper(t, idx, embedder, 2, "widget widget widget", "B")

	eng := New(idx, embedder, nil, 10, nil)
	results, err := eng.Search(context.Background(), "widget")
	require.NoError(t, err)
	require.Len(t, results, 2)
}

// Two docs with equal lexical score: the doc whose stored embedding
// matches the query's ranks first, the orthogonal one last.
func TestEngineSearch_EmbeddingRerankReorders(t *testing.T) {
	idx := newTestIndex(t)
	embedder := embedding.NewHashEmbedder(16)

	queryVecs, err := embedder.Embed(context.Background(), []string{"widget"})
	require.NoError(t, err)
	queryVec := queryVecs[0]

	orthogonal := make([]float32, len(queryVec))
	for i := range queryVec {
		if queryVec[i] == 0 {
			orthogonal[i] = 1
			break
		}
	}

	docB := searchindex.NewDocument(2, "uB", "widget study", "", "", "B", orthogonal)
	require.NoError(t, idx.Index(searchindex.Addr(2), docB))
	docA := searchindex.NewDocument(1, "uA", "widget study", "", "", "A", queryVec)
	require.NoError(t, idx.Index(searchindex.Addr(1), docA))

	eng := New(idx, embedder, nil, 10, nil)
	results, err := eng.Search(context.Background(), "widget")
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, uint(1), results[0].ID)
	require.Equal(t, uint(2), results[1].ID)
	require.Greater(t, results[0].Score, results[1].Score)
}

func TestParseWeightedTokens(t *testing.T) {
	tokens := parseWeightedTokens("machne machine^0.5 learning training^0.1")
	require.Equal(t, []weightedToken{
		{term: "machne", weight: 1},
		{term: "machine", weight: 0.5},
		{term: "learning", weight: 1},
		{term: "training", weight: 0.1},
	}, tokens)
	require.Equal(t, "machne machine learning training", joinTerms(tokens))
}

func TestEngineSearch_RequiresReadyState(t *testing.T) {
	idx := newTestIndex(t)
	embedder := embedding.NewHashEmbedder(16)
	eng := New(idx, embedder, nil, 10, nil)
	eng.mu.Lock()
	eng.state = Uninitialized
	eng.mu.Unlock()

	_, err := eng.Search(context.Background(), "neural")
	require.Error(t, err)
}

func TestEngineDocCount(t *testing.T) {
	idx := newTestIndex(t)
	embedder := embedding.NewHashEmbedder(16)
	indexPaper(t, idx, embedder, 1, "Paper one", "A")

	eng := New(idx, embedder, nil, 10, nil)
	n, err := eng.DocCount()
	require.NoError(t, err)
	require.Equal(t, uint64(1), n)
}
