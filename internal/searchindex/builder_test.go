package searchindex

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"searxiv/internal/embedding"
	"searxiv/internal/store"
)

func newBuilderGateway(t *testing.T) store.Gateway {
	t.Helper()
	db, err := store.Open(":memory:", slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return store.NewGateway(db)
}

// Building against a fresh directory indexes one document per stored
// paper; reopening the same directory skips the builder entirely.
func TestOpenOrBuild_DocCountMatchesStore(t *testing.T) {
	gw := newBuilderGateway(t)
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	const papers = 3
	for i := 1; i <= papers; i++ {
		_, err := gw.IngestPaperTx(ctx, store.NewPaper{
			URL:         fmt.Sprintf("https://export.arxiv.org/abs/%d", i),
			Title:       fmt.Sprintf("Paper %d", i),
			Description: "A study.",
			Body:        "body text",
		}, []string{fmt.Sprintf("Author %d", i)}, nil)
		require.NoError(t, err)
	}

	cfg := BuildConfig{DocstoreBlocksize: 100_000, WriterMemoryBudget: 100_000_000}
	dir := filepath.Join(t.TempDir(), "index")

	idx, err := OpenOrBuild(ctx, dir, gw, embedding.NewHashEmbedder(16), cfg, logger)
	require.NoError(t, err)

	stored, err := gw.CountPapers(ctx)
	require.NoError(t, err)
	docs, err := idx.DocCount()
	require.NoError(t, err)
	require.Equal(t, uint64(stored), docs)
	require.NoError(t, idx.Close())

	// A paper ingested after the build must not appear on reopen: the
	// existing directory is opened read-only, never rebuilt.
	_, err = gw.IngestPaperTx(ctx, store.NewPaper{URL: "https://export.arxiv.org/abs/late"}, nil, nil)
	require.NoError(t, err)

	idx, err = OpenOrBuild(ctx, dir, gw, embedding.NewHashEmbedder(16), cfg, logger)
	require.NoError(t, err)
	docs, err = idx.DocCount()
	require.NoError(t, err)
	require.Equal(t, uint64(papers), docs)
	require.NoError(t, idx.Close())
}

func TestFirstSentence(t *testing.T) {
	assert.Equal(t, "Neural networks.", firstSentence("Neural networks. A study of vision."))
	assert.Equal(t, "no terminator here", firstSentence("no terminator here"))
}

func TestGetDocID(t *testing.T) {
	id, ok := GetDocID("42")
	assert.True(t, ok)
	assert.Equal(t, uint(42), id)

	_, ok = GetDocID("not-a-number")
	assert.False(t, ok)
}

func TestEmbeddingRoundTrip(t *testing.T) {
	vec := []float32{0.5, -1.25, 3}
	encoded := encodeEmbedding(vec)
	decoded, err := decodeEmbedding(encoded)
	require.NoError(t, err)
	assert.Equal(t, vec, decoded)
}

func TestNewMapping(t *testing.T) {
	m, err := NewMapping()
	require.NoError(t, err)
	assert.Equal(t, DocumentType, m.DefaultType)
}
