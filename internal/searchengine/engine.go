// Package searchengine parses a rewritten query, scores the corpus
// lexically via the shared index, and re-ranks the lexical top-K by
// cosine similarity against the query's sentence embedding.
package searchengine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"searxiv/internal/embedding"
	"searxiv/internal/errs"
	"searxiv/internal/rewrite"
	"searxiv/internal/searchindex"
)

// State is the engine lifecycle: Uninitialized -> Building -> Ready ->
// Serving. Transitions are one-way; only Ready and Serving accept
// queries.
type State int

const (
	Uninitialized State = iota
	Building
	Ready
	Serving
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Building:
		return "building"
	case Ready:
		return "ready"
	case Serving:
		return "serving"
	default:
		return "unknown"
	}
}

// lexicalTopK is the lexical retrieval depth, ahead of the embedding
// re-rank truncation to maxResults.
const lexicalTopK = 100

// fieldBoosts weight each field's contribution to the lexical score.
var fieldBoosts = map[string]float64{
	searchindex.FieldTitle:       3.0,
	searchindex.FieldAuthors:     1.0,
	searchindex.FieldDescription: 1.0,
	searchindex.FieldBody:        0.1,
}

// fuzzyFields are the only fields fuzzy matching (edit distance 1,
// transpositions, prefix-anchored) applies to.
var fuzzyFields = map[string]bool{
	searchindex.FieldTitle:       true,
	searchindex.FieldDescription: true,
}

// Result is one re-ranked hit, ready for HTTP/TUI presentation.
type Result struct {
	ID          uint
	URL         string
	Title       string
	Authors     string
	Description string
	Score       float64
}

// Engine runs the search pipeline. It is safe for concurrent queries:
// the bleve index is immutable after build and read concurrently; the
// embedder serializes its own encode calls.
type Engine struct {
	mu         sync.RWMutex
	state      State
	index      bleve.Index
	embedder   embedding.Embedder
	rewriter   *rewrite.Rewriter
	maxResults int
	logger     *slog.Logger
	queries    atomic.Int64
}

// New constructs an Engine around an already-open index. The caller is
// responsible for having built or opened idx via searchindex.OpenOrBuild
// (the Building state is the caller's concern during that call; the
// Engine itself starts Ready).
func New(idx bleve.Index, embedder embedding.Embedder, rewriter *rewrite.Rewriter, maxResults int, logger *slog.Logger) *Engine {
	if maxResults <= 0 {
		maxResults = 10
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		state:      Ready,
		index:      idx,
		embedder:   embedder,
		rewriter:   rewriter,
		maxResults: maxResults,
		logger:     logger,
	}
}

// State returns the engine's current lifecycle state.
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// DocCount returns the number of documents in the index.
func (e *Engine) DocCount() (uint64, error) {
	n, err := e.index.DocCount()
	if err != nil {
		return 0, errs.New(errs.Io, "Engine.DocCount", err)
	}
	return n, nil
}

// Search runs the full pipeline: strip quotes, rewrite, parse, lexical
// top-100, embedding re-rank, truncate to maxResults.
func (e *Engine) Search(ctx context.Context, rawQuery string) ([]Result, error) {
	e.mu.Lock()
	if e.state != Ready && e.state != Serving {
		e.mu.Unlock()
		return nil, fmt.Errorf("search engine not ready: state=%s", e.state)
	}
	e.state = Serving
	e.mu.Unlock()

	stripped := rewrite.StripQuotes(rawQuery)
	rewritten := stripped
	if e.rewriter != nil {
		rewritten = e.rewriter.Rewrite(stripped)
	}
	tokens := parseWeightedTokens(rewritten)

	q := buildQuery(tokens)
	req := bleve.NewSearchRequestOptions(q, lexicalTopK, 0, false)
	req.Fields = []string{
		searchindex.FieldID,
		searchindex.FieldURL,
		searchindex.FieldTitle,
		searchindex.FieldAuthors,
		searchindex.FieldDescription,
		searchindex.FieldEmbedding,
	}

	lexicalStart := time.Now()
	searchResult, err := e.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, errs.New(errs.Io, "Engine.Search", err)
	}
	lexicalDuration := time.Since(lexicalStart)

	// The re-rank encodes the rewritten query, with the ^-weight markers
	// stripped so they never reach the model as tokens.
	rerankStart := time.Now()
	queryVecs, err := e.embedder.Embed(ctx, []string{joinTerms(tokens)})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	queryVec := queryVecs[0]

	results := make([]Result, 0, len(searchResult.Hits))
	for _, hit := range searchResult.Hits {
		id, ok := searchindex.GetDocID(hit.ID)
		if !ok {
			continue
		}

		embeddingField, _ := hit.Fields[searchindex.FieldEmbedding].(string)
		docVec, err := searchindex.DecodeEmbedding(embeddingField)
		if err != nil {
			continue
		}

		cosine := embedding.CosineSimilarity(queryVec, docVec)
		results = append(results, Result{
			ID:          id,
			URL:         fieldString(hit.Fields, searchindex.FieldURL),
			Title:       fieldString(hit.Fields, searchindex.FieldTitle),
			Authors:     fieldString(hit.Fields, searchindex.FieldAuthors),
			Description: fieldString(hit.Fields, searchindex.FieldDescription),
			Score:       hit.Score * cosine,
		})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })

	if len(results) > e.maxResults {
		results = results[:e.maxResults]
	}

	e.logger.Debug("query served",
		slog.Int64("queries_total", e.queries.Add(1)),
		slog.Duration("lexical", lexicalDuration),
		slog.Duration("rerank", time.Since(rerankStart)),
		slog.Int("candidates", len(searchResult.Hits)),
		slog.Int("results", len(results)),
	)
	return results, nil
}

func fieldString(fields map[string]interface{}, name string) string {
	s, _ := fields[name].(string)
	return s
}

// weightedToken is one token of the rewritten query. The rewriter
// appends alternates as "<term>^<weight>"; the user's own tokens carry
// weight 1.
type weightedToken struct {
	term   string
	weight float64
}

func parseWeightedTokens(text string) []weightedToken {
	fields := strings.Fields(text)
	tokens := make([]weightedToken, 0, len(fields))
	for _, f := range fields {
		tok := weightedToken{term: f, weight: 1}
		if i := strings.LastIndex(f, "^"); i > 0 && i < len(f)-1 {
			if w, err := strconv.ParseFloat(f[i+1:], 64); err == nil {
				tok.term, tok.weight = f[:i], w
			}
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

func joinTerms(tokens []weightedToken) string {
	terms := make([]string, len(tokens))
	for i, tok := range tokens {
		terms[i] = tok.term
	}
	return strings.Join(terms, " ")
}

// buildQuery is the multi-field fuzzy query parser: every token
// matches every field, scored by the field boost times the token's
// rewrite weight, with fuzzy variants (edit distance 1, transpositions,
// prefix-anchored) on title and description only. Rewriter-added
// alternates (weight < 1) stay exact: fuzzing an already-approximate
// token would compound the two error budgets.
func buildQuery(tokens []weightedToken) query.Query {
	var disjuncts []query.Query
	for field, boost := range fieldBoosts {
		for _, tok := range tokens {
			mq := bleve.NewMatchQuery(tok.term)
			mq.SetField(field)
			mq.SetBoost(boost * tok.weight)
			disjuncts = append(disjuncts, mq)

			if fuzzyFields[field] && tok.weight == 1 {
				fq := bleve.NewMatchQuery(tok.term)
				fq.SetField(field)
				fq.SetFuzziness(1)
				fq.SetPrefix(1)
				fq.SetBoost(boost)
				disjuncts = append(disjuncts, fq)
			}
		}
	}

	return bleve.NewDisjunctionQuery(disjuncts...)
}
