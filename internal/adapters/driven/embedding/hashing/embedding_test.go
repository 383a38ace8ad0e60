package hashing

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func TestEmbed_DeterministicAndNormalised(t *testing.T) {
	svc := NewEmbeddingService(Config{})

	first, err := svc.Embed(context.Background(), []string{"The sky is blue."})
	require.NoError(t, err)
	second, err := svc.Embed(context.Background(), []string{"The sky is blue."})
	require.NoError(t, err)

	require.Len(t, first[0], DefaultDimensions)
	assert.Equal(t, first, second)
	assert.InDelta(t, 1.0, cosine(first[0], first[0]), 1e-5)
}

func TestEmbed_RelatedTextScoresHigher(t *testing.T) {
	svc := NewEmbeddingService(Config{})

	vecs, err := svc.Embed(context.Background(), []string{
		"What color is the sky?",
		"The sky is blue.",
		"Quarterly revenue grew by ten percent.",
	})
	require.NoError(t, err)

	assert.Greater(t, cosine(vecs[0], vecs[1]), cosine(vecs[0], vecs[2]))
}

func TestEmbed_StopwordsOnly(t *testing.T) {
	svc := NewEmbeddingService(Config{Dimensions: 8})

	vecs, err := svc.Embed(context.Background(), []string{"the and of"})

	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 0, 0, 0, 0, 0, 0}, vecs[0])
}

func TestEmbed_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEmbeddingService(Config{}).Embed(ctx, []string{"x"})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestMetadata(t *testing.T) {
	svc := NewEmbeddingService(Config{Dimensions: 128, Model: "hashing-128"})

	assert.Equal(t, 128, svc.Dimensions())
	assert.Equal(t, "hashing-128", svc.ModelName())
	assert.NoError(t, svc.Ping(context.Background()))
	assert.NoError(t, svc.Close())
}
