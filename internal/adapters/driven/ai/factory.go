// Package ai provides factory functions for the embedding, vector index and
// response generator adapters selected by settings.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/ragdesk/internal/adapters/driven/embedding/hashing"
	ollamaembed "github.com/custodia-labs/ragdesk/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/ragdesk/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/ragdesk/internal/adapters/driven/generator/gemini"
	"github.com/custodia-labs/ragdesk/internal/adapters/driven/generator/local"
	"github.com/custodia-labs/ragdesk/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragdesk/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/ragdesk/internal/adapters/driven/vector/chromem"
	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/logger"
)

// pingTimeout bounds the one-time startup probe of a remote service.
const pingTimeout = 15 * time.Second

// Approximate resident footprint per embedding provider, in MB. Remote
// providers only hold an HTTP client.
var embeddingSizeMB = map[domain.EmbeddingProvider]float64{
	domain.EmbeddingHashing: 1,
	domain.EmbeddingOllama:  0.5,
	domain.EmbeddingOpenAI:  0.5,
}

// CreateEmbeddingService creates the embedding service named by settings.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, fmt.Errorf("embedding settings: %w", domain.ErrInvalidInput)
	}
	if !settings.IsConfigured() {
		if settings.Provider.RequiresAPIKey() {
			return nil, fmt.Errorf("%s embeddings: %w", settings.Provider, domain.ErrMissingAPIKey)
		}
		return nil, fmt.Errorf("embedding provider %q: %w", settings.Provider, domain.ErrUnsupportedType)
	}

	dimensions := settings.Dimensions
	if known := domain.EmbeddingDimensions()[settings.Model]; known > 0 {
		dimensions = known
	}

	switch settings.Provider {
	case domain.EmbeddingHashing:
		return hashing.NewEmbeddingService(hashing.Config{
			Model:      settings.Model,
			Dimensions: dimensions,
		}), nil

	case domain.EmbeddingOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: dimensions,
		}), nil

	case domain.EmbeddingOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: dimensions,
		})

	default:
		return nil, fmt.Errorf("embedding provider %q: %w", settings.Provider, domain.ErrUnsupportedType)
	}
}

// EmbeddingSizeMB estimates the memory held by a loaded embedding service.
func EmbeddingSizeMB(provider domain.EmbeddingProvider) float64 {
	return embeddingSizeMB[provider]
}

// ValidateEmbedding creates the configured service and pings it once.
func ValidateEmbedding(ctx context.Context, settings *domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	return nil
}

// VectorIndexOptions locates the storage of a vector index.
type VectorIndexOptions struct {
	// DataDir holds persistent indexes. Ignored when Ephemeral is set.
	DataDir string

	// Collection names the chromem collection.
	Collection string

	// Ephemeral keeps chromem in memory.
	Ephemeral bool

	// Store supplies the sqlite backend. Required for domain.StoreSQLite.
	Store *sqlite.Store
}

// CreateVectorIndex opens the vector index for backend.
func CreateVectorIndex(backend domain.StoreBackend, opts VectorIndexOptions, log *logger.Logger) (driven.VectorIndex, error) {
	switch backend {
	case domain.StoreChromem:
		cfg := chromem.Config{Collection: opts.Collection}
		if !opts.Ephemeral {
			cfg.Dir = chromem.DefaultDir(opts.DataDir)
		}
		return chromem.New(cfg, log)

	case domain.StoreSQLite:
		if opts.Store == nil {
			return nil, fmt.Errorf("%w: sqlite store not open", domain.ErrVectorIndexUnavailable)
		}
		return opts.Store.VectorIndex(), nil

	case domain.StoreMemory:
		return memory.NewVectorIndex(), nil

	default:
		return nil, fmt.Errorf("store backend %q: %w", backend, domain.ErrUnsupportedType)
	}
}

// GeneratorSelection reports which response generator is active.
type GeneratorSelection struct {
	Generator driven.ResponseGenerator

	// FellBack is true when a remote generator was requested but the local
	// one is in use.
	FellBack bool

	// Reason explains the fallback.
	Reason error
}

// SelectGenerator picks the response generator once per process. The remote
// generator is tried first unless settings ask for local; any failure to
// construct or probe it selects the local generator instead.
func SelectGenerator(
	ctx context.Context,
	settings *domain.GeneratorSettings,
	tools driven.ToolExecutor,
	entities driven.EntityRecognizer,
	log *logger.Logger,
) GeneratorSelection {
	fallback := func(reason error) GeneratorSelection {
		log.Warn("Using local generator: %v", reason)
		return GeneratorSelection{Generator: local.New(tools, entities, log), FellBack: true, Reason: reason}
	}

	if settings == nil || settings.Provider == domain.GeneratorLocal {
		log.Info("Using local generator")
		return GeneratorSelection{Generator: local.New(tools, entities, log)}
	}

	gen, err := gemini.New(gemini.Config{
		APIKey:            settings.APIKey,
		BaseURL:           settings.BaseURL,
		Model:             settings.Model,
		Temperature:       settings.Temperature,
		MaxOutputTokens:   settings.MaxOutputTokens,
		RequestsPerMinute: settings.RequestsPerMinute,
	}, tools, log)
	if err != nil {
		return fallback(err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := gen.Ping(pingCtx); err != nil {
		_ = gen.Close()
		return fallback(fmt.Errorf("%w: %w", domain.ErrGeneratorUnavailable, err))
	}

	log.Info("Google Gemini initialized with function calling support")
	return GeneratorSelection{Generator: gen}
}
