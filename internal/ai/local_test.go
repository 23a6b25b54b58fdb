package ai

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalEmbedderDeterministic(t *testing.T) {
	ctx := context.Background()
	e := NewLocalEmbedder(128)

	a, err := e.Embed(ctx, "senior python developer")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "senior python developer")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 128)
}

func TestLocalEmbedderNormalized(t *testing.T) {
	e := NewLocalEmbedder(64)
	v, err := e.Embed(context.Background(), "employees hired this year")
	require.NoError(t, err)

	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-5)
}

func TestLocalEmbedderBatchMatchesSingle(t *testing.T) {
	ctx := context.Background()
	e := NewLocalEmbedder(64)

	texts := []string{"alpha beta", "gamma delta"}
	batch, err := e.EmbedBatch(ctx, texts)
	require.NoError(t, err)
	require.Len(t, batch, 2)

	for i, text := range texts {
		single, err := e.Embed(ctx, text)
		require.NoError(t, err)
		assert.Equal(t, single, batch[i])
	}
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{1, 0, 2}, []float32{1, 0, 2}), 1e-6)
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-6)
	assert.Zero(t, Cosine(nil, []float32{1}))
	assert.Zero(t, Cosine([]float32{1, 2}, []float32{1}))
	assert.Zero(t, Cosine([]float32{0, 0}, []float32{1, 1}))
}

func TestNormalizeZeroVector(t *testing.T) {
	v := []float32{0, 0, 0}
	assert.Equal(t, []float32{0, 0, 0}, Normalize(v))
}
