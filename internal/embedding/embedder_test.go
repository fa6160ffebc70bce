package embedding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashEmbedder_Deterministic(t *testing.T) {
	e := NewHashEmbedder(16)
	v1, err := e.Embed(context.Background(), []string{"neural networks for vision"})
	require.NoError(t, err)
	v2, err := e.Embed(context.Background(), []string{"neural networks for vision"})
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
	assert.Len(t, v1[0], 16)
}

func TestHashEmbedder_DifferentTextsDiffer(t *testing.T) {
	e := NewHashEmbedder(64)
	vecs, err := e.Embed(context.Background(), []string{"quantum computing", "culinary history"})
	require.NoError(t, err)
	assert.NotEqual(t, vecs[0], vecs[1])
}

func TestCosineSimilarity(t *testing.T) {
	a := []float32{1, 0, 0}
	b := []float32{1, 0, 0}
	assert.InDelta(t, 1.0, CosineSimilarity(a, b), 1e-6)

	orthogonal := []float32{0, 1, 0}
	assert.InDelta(t, 0.0, CosineSimilarity(a, orthogonal), 1e-6)

	scaled := []float32{5, 0, 0}
	assert.InDelta(t, 1.0, CosineSimilarity(a, scaled), 1e-6)
}

func TestCosineSimilarity_MismatchedLength(t *testing.T) {
	assert.Equal(t, 0.0, CosineSimilarity([]float32{1, 2}, []float32{1}))
}
