package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
)

func newTestProvider(t *testing.T, budget *ResourceBudget) (*EmbeddingProvider, *int, *[]*fakeEmbedding) {
	t.Helper()
	loads := 0
	var built []*fakeEmbedding
	factory := func() (driven.EmbeddingService, error) {
		loads++
		f := &fakeEmbedding{}
		built = append(built, f)
		return f, nil
	}
	return NewEmbeddingProvider(factory, budget, "fake", 10, nil), &loads, &built
}

func TestEmbeddingProvider_LazyLoad(t *testing.T) {
	budget := NewResourceBudget(nil, 100, nil)
	p, loads, _ := newTestProvider(t, budget)

	assert.Equal(t, "embedding:fake", p.Name())
	assert.False(t, p.Loaded())
	assert.Equal(t, 0, *loads)

	vectors, err := p.Embed(context.Background(), []string{"a", "bb"})
	require.NoError(t, err)
	assert.Len(t, vectors, 2)
	assert.True(t, p.Loaded())
	assert.True(t, budget.IsRegistered("embedding:fake"))

	_, err = p.Embed(context.Background(), []string{"c"})
	require.NoError(t, err)
	assert.Equal(t, 1, *loads)
}

func TestEmbeddingProvider_EmptyInput(t *testing.T) {
	p, loads, _ := newTestProvider(t, NewResourceBudget(nil, 100, nil))

	vectors, err := p.Embed(context.Background(), nil)

	require.NoError(t, err)
	assert.Nil(t, vectors)
	assert.Equal(t, 0, *loads)
}

func TestEmbeddingProvider_ReloadAfterEviction(t *testing.T) {
	budget := NewResourceBudget(nil, 100, nil)
	p, loads, built := newTestProvider(t, budget)

	_, err := p.Embed(context.Background(), []string{"a"})
	require.NoError(t, err)

	assert.Equal(t, []string{"embedding:fake"}, budget.CleanupUnusedModels())
	assert.False(t, p.Loaded())
	assert.True(t, (*built)[0].closed)

	_, err = p.Embed(context.Background(), []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, 2, *loads)
}

func TestEmbeddingProvider_Unload(t *testing.T) {
	budget := NewResourceBudget(nil, 100, nil)
	p, _, _ := newTestProvider(t, budget)

	require.NoError(t, p.Unload())

	_, err := p.Embed(context.Background(), []string{"a"})
	require.NoError(t, err)
	require.NoError(t, p.Unload())
	assert.False(t, p.Loaded())
	assert.False(t, budget.IsRegistered(p.Name()))
}

func TestEmbeddingProvider_FactoryError(t *testing.T) {
	factory := func() (driven.EmbeddingService, error) {
		return nil, errors.New("model missing")
	}
	p := NewEmbeddingProvider(factory, NewResourceBudget(nil, 100, nil), "broken", 1, nil)

	_, err := p.Embed(context.Background(), []string{"a"})

	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.Contains(t, err.Error(), "model missing")
}

func TestEmbeddingProvider_EvictsUnderPressure(t *testing.T) {
	probe := &fakeProbe{rss: 500}
	budget := NewResourceBudget(probe, 100, nil)
	evicted := false
	require.NoError(t, budget.RegisterModel("other", 50, func() { evicted = true }))
	p, _, _ := newTestProvider(t, budget)

	_, err := p.Embed(context.Background(), []string{"a"})

	require.NoError(t, err)
	assert.True(t, evicted)
	assert.False(t, budget.IsRegistered("other"))
}
