package embedding

import (
	"context"
	"hash/fnv"
)

// HashEmbedder is a deterministic, model-free Embedder. It hashes
// whitespace-separated tokens into a fixed-width bag-of-features
// vector. It lets the index builder and search engine run without a
// model runtime: tests use it directly, and Select falls back to it
// when no embedding model is configured.
type HashEmbedder struct {
	dim int
}

// NewHashEmbedder returns a HashEmbedder producing vectors of width
// dim. dim must be positive.
func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = 32
	}
	return &HashEmbedder{dim: dim}
}

func (h *HashEmbedder) Dimension() int { return h.dim }

func (h *HashEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		out[i] = h.embedOne(text)
	}
	return out, nil
}

func (h *HashEmbedder) embedOne(text string) []float32 {
	vec := make([]float32, h.dim)
	var field []byte
	flush := func() {
		if len(field) == 0 {
			return
		}
		sum := fnv.New32a()
		_, _ = sum.Write(field)
		vec[int(sum.Sum32())%h.dim] += 1
		field = field[:0]
	}
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			flush()
			continue
		}
		field = append(field, c)
	}
	flush()
	return vec
}
