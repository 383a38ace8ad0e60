package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragdesk/internal/adapters/driven/generator/gemini"
	"github.com/custodia-labs/ragdesk/internal/adapters/driven/generator/local"
	"github.com/custodia-labs/ragdesk/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragdesk/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/ragdesk/internal/adapters/driven/tools"
	"github.com/custodia-labs/ragdesk/internal/adapters/driven/vector/chromem"
	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name      string
		settings  *domain.EmbeddingSettings
		wantModel string
		wantDims  int
		wantErr   error
	}{
		{
			name:     "nil settings",
			settings: nil,
			wantErr:  domain.ErrInvalidInput,
		},
		{
			name:     "unknown provider",
			settings: &domain.EmbeddingSettings{Provider: "bert"},
			wantErr:  domain.ErrUnsupportedType,
		},
		{
			name:     "openai without key",
			settings: &domain.EmbeddingSettings{Provider: domain.EmbeddingOpenAI},
			wantErr:  domain.ErrMissingAPIKey,
		},
		{
			name:      "hashing",
			settings:  &domain.EmbeddingSettings{Provider: domain.EmbeddingHashing, Model: "hashing-384"},
			wantModel: "hashing-384",
			wantDims:  384,
		},
		{
			name:      "ollama uses known dimensions",
			settings:  &domain.EmbeddingSettings{Provider: domain.EmbeddingOllama, Model: "nomic-embed-text"},
			wantModel: "nomic-embed-text",
			wantDims:  768,
		},
		{
			name: "openai",
			settings: &domain.EmbeddingSettings{
				Provider: domain.EmbeddingOpenAI,
				APIKey:   "test-key",
				Model:    "text-embedding-3-small",
			},
			wantModel: "text-embedding-3-small",
			wantDims:  1536,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(tt.settings)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, svc)
				return
			}
			require.NoError(t, err)
			defer svc.Close()
			assert.Equal(t, tt.wantModel, svc.ModelName())
			assert.Equal(t, tt.wantDims, svc.Dimensions())
		})
	}
}

func TestEmbeddingSizeMB(t *testing.T) {
	assert.Greater(t, EmbeddingSizeMB(domain.EmbeddingHashing), 0.0)
	assert.Zero(t, EmbeddingSizeMB("unknown"))
}

func TestValidateEmbedding_Hashing(t *testing.T) {
	err := ValidateEmbedding(context.Background(), &domain.EmbeddingSettings{Provider: domain.EmbeddingHashing})
	assert.NoError(t, err)
}

func TestValidateEmbedding_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	err := ValidateEmbedding(context.Background(), &domain.EmbeddingSettings{
		Provider: domain.EmbeddingOllama,
		BaseURL:  server.URL,
		Model:    "all-minilm",
	})
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestCreateVectorIndex(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		idx, err := CreateVectorIndex(domain.StoreMemory, VectorIndexOptions{}, nil)
		require.NoError(t, err)
		assert.IsType(t, &memory.VectorIndex{}, idx)
	})

	t.Run("chromem ephemeral", func(t *testing.T) {
		idx, err := CreateVectorIndex(domain.StoreChromem, VectorIndexOptions{Ephemeral: true, Collection: "test"}, nil)
		require.NoError(t, err)
		defer idx.Close()
		assert.IsType(t, &chromem.Index{}, idx)
	})

	t.Run("chromem persistent", func(t *testing.T) {
		dir := t.TempDir()
		idx, err := CreateVectorIndex(domain.StoreChromem, VectorIndexOptions{DataDir: dir}, nil)
		require.NoError(t, err)
		defer idx.Close()
		assert.DirExists(t, chromem.DefaultDir(dir))
	})

	t.Run("sqlite", func(t *testing.T) {
		store, err := sqlite.NewStore(t.TempDir())
		require.NoError(t, err)
		defer store.Close()

		idx, err := CreateVectorIndex(domain.StoreSQLite, VectorIndexOptions{Store: store}, nil)
		require.NoError(t, err)
		assert.IsType(t, &sqlite.VectorIndex{}, idx)
	})

	t.Run("sqlite without store", func(t *testing.T) {
		_, err := CreateVectorIndex(domain.StoreSQLite, VectorIndexOptions{}, nil)
		assert.ErrorIs(t, err, domain.ErrVectorIndexUnavailable)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := CreateVectorIndex("faiss", VectorIndexOptions{}, nil)
		assert.ErrorIs(t, err, domain.ErrUnsupportedType)
	})
}

func TestSelectGenerator_Local(t *testing.T) {
	sel := SelectGenerator(context.Background(),
		&domain.GeneratorSettings{Provider: domain.GeneratorLocal}, tools.NewExecutor(nil), nil, nil)

	assert.IsType(t, &local.Generator{}, sel.Generator)
	assert.False(t, sel.FellBack)
	assert.NoError(t, sel.Reason)
}

func TestSelectGenerator_MissingKeyFallsBack(t *testing.T) {
	sel := SelectGenerator(context.Background(),
		&domain.GeneratorSettings{Provider: domain.GeneratorAuto}, tools.NewExecutor(nil), nil, nil)

	assert.IsType(t, &local.Generator{}, sel.Generator)
	assert.True(t, sel.FellBack)
	assert.ErrorIs(t, sel.Reason, domain.ErrMissingAPIKey)
}

func TestSelectGenerator_ProbeFailureFallsBack(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	sel := SelectGenerator(context.Background(), &domain.GeneratorSettings{
		Provider: domain.GeneratorGemini,
		APIKey:   "k",
		BaseURL:  server.URL,
	}, tools.NewExecutor(nil), nil, nil)

	assert.IsType(t, &local.Generator{}, sel.Generator)
	assert.True(t, sel.FellBack)
	assert.ErrorIs(t, sel.Reason, domain.ErrGeneratorUnavailable)
	assert.Equal(t, 1, hits)
}

func TestSelectGenerator_Remote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{"parts": []any{map[string]any{"text": "Hi"}}},
			}},
		})
	}))
	defer server.Close()

	sel := SelectGenerator(context.Background(), &domain.GeneratorSettings{
		Provider: domain.GeneratorAuto,
		APIKey:   "k",
		BaseURL:  server.URL,
	}, tools.NewExecutor(nil), nil, nil)

	require.IsType(t, &gemini.Generator{}, sel.Generator)
	assert.False(t, sel.FellBack)
	assert.Equal(t, domain.GeneratorGemini, sel.Generator.Kind())
}
