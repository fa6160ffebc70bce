package searchindex

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"

	"searxiv/internal/embedding"
	"searxiv/internal/errs"
	"searxiv/internal/store"
)

// BuildConfig parameterizes the on-disk index store.
type BuildConfig struct {
	ZstdCompressionLevel int
	DocstoreBlocksize    int
	WriterMemoryBudget   int
}

// OpenOrBuild opens or builds the index exactly once: if path does not
// exist, it is created and built from the store; if it already exists,
// it is opened read-only and the builder is never re-entered.
func OpenOrBuild(ctx context.Context, path string, gw store.Gateway, embedder embedding.Embedder, cfg BuildConfig, logger *slog.Logger) (bleve.Index, error) {
	_, statErr := os.Stat(path)
	switch {
	case statErr == nil:
		logger.Info("opening existing index read-only", slog.String("path", path))
		idx, err := bleve.OpenUsing(path, map[string]interface{}{"read_only": true})
		if err != nil {
			return nil, errs.New(errs.Io, "OpenOrBuild", err)
		}
		return idx, nil
	case os.IsNotExist(statErr):
		return build(ctx, path, gw, embedder, cfg, logger)
	default:
		return nil, errs.New(errs.Io, "OpenOrBuild", statErr)
	}
}

// build creates path and performs the one-shot build: one document per
// paper, committed once at the end.
func build(ctx context.Context, path string, gw store.Gateway, embedder embedding.Embedder, cfg BuildConfig, logger *slog.Logger) (bleve.Index, error) {
	m, err := NewMapping()
	if err != nil {
		return nil, fmt.Errorf("build index mapping: %w", err)
	}

	// kvConfig tunes the scorch store's on-disk segment writer: Zstd
	// compression level, doc-value block size, and the writer's
	// in-memory batching budget before it flushes to a new segment.
	kvConfig := map[string]interface{}{
		"zstdCompressionLevel": cfg.ZstdCompressionLevel,
		"docValuesBlocksize":   cfg.DocstoreBlocksize,
		"memoryBudget":         cfg.WriterMemoryBudget,
	}

	idx, err := bleve.NewUsing(path, m, bleve.Config.DefaultIndexType, bleve.Config.DefaultKVStore, kvConfig)
	if err != nil {
		return nil, errs.New(errs.Io, "build", err)
	}

	papers, err := gw.GetAllPapers(ctx)
	if err != nil {
		_ = idx.Close()
		return nil, err
	}

	batch := idx.NewBatch()
	for _, p := range papers {
		select {
		case <-ctx.Done():
			_ = idx.Close()
			return nil, ctx.Err()
		default:
		}

		authorNames := make([]string, len(p.Authors))
		for i, a := range p.Authors {
			authorNames[i] = a.Name
		}
		authors := strings.Join(authorNames, " ")

		sentence := firstSentence(p.Title + ". " + p.Description)
		vecs, err := embedder.Embed(ctx, []string{sentence})
		if err != nil {
			_ = idx.Close()
			return nil, fmt.Errorf("embed paper %d: %w", p.ID, err)
		}

		doc := newDocument(p.ID, p.URL, p.Title, p.Description, p.Body, authors, vecs[0])
		if err := batch.Index(strconv.FormatUint(uint64(p.ID), 10), doc); err != nil {
			_ = idx.Close()
			return nil, errs.New(errs.Io, "build", err)
		}
	}

	if err := idx.Batch(batch); err != nil {
		_ = idx.Close()
		return nil, errs.New(errs.Io, "build", err)
	}

	logger.Info("index build complete", slog.Int("documents", len(papers)), slog.String("path", path))
	return idx, nil
}

// firstSentence returns the text up to and including the first
// sentence-ending punctuation, or the whole string if none is found.
func firstSentence(s string) string {
	for i, r := range s {
		if r == '.' || r == '!' || r == '?' {
			return s[:i+1]
		}
	}
	return s
}

// GetDocID returns the stored integer id at a result address. Absent
// or malformed addresses return (0, false) rather than an error.
func GetDocID(address string) (uint, bool) {
	id, err := strconv.ParseUint(address, 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

// DecodeEmbedding exposes decodeEmbedding to the search engine.
func DecodeEmbedding(s string) ([]float32, error) {
	return decodeEmbedding(s)
}

// EncodeEmbedding exposes encodeEmbedding to callers outside this
// package.
func EncodeEmbedding(vec []float32) string {
	return encodeEmbedding(vec)
}

// NewDocument exposes newDocument so tests can build index documents
// without duplicating the field-shaping logic.
func NewDocument(id uint, url, title, description, body, authors string, embedding []float32) Document {
	return newDocument(id, url, title, description, body, authors, embedding)
}

// Addr returns the bleve document address for a paper id, matching the
// address build uses when indexing (strconv.FormatUint base 10).
func Addr(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
