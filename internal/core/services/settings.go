package services

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyGenProvider     = "generator.provider"
	keyGenModel        = "generator.model"
	keyGenBaseURL      = "generator.base_url"
	keyGenAPIKey       = "generator.api_key"
	keyGenTemperature  = "generator.temperature"
	keyGenMaxTokens    = "generator.max_output_tokens"
	keyGenRPM          = "generator.requests_per_minute"
	keyEmbedProvider   = "embedding.provider"
	keyEmbedModel      = "embedding.model"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedAPIKey     = "embedding.api_key"
	keyEmbedDims       = "embedding.dimensions"
	keyStoreBackend    = "store.backend"
	keyStoreCollection = "store.collection"
	keyStoreBatchSize  = "store.batch_size"
	keyMemoryMax       = "memory.max_memory_mb"
	keyMemoryLazy      = "memory.lazy_loading"
	keyRetrievalDef    = "retrieval.default_results"
	keyRetrievalAgg    = "retrieval.aggregate_results"
	keyChunkSize       = "chunking.size"
	keyChunkOverlap    = "chunking.overlap"
	keyChunkMin        = "chunking.min_chunk"
	keyNLPGazetteer    = "nlp.gazetteer_path"
	keyLoggingFile     = "logging.file"
)

// EnvGeminiAPIKey overrides generator.api_key when set.
const EnvGeminiAPIKey = "GEMINI_API_KEY"

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
	kindBool
)

// settingKeys maps every recognised key to its value type.
var settingKeys = map[string]valueKind{
	keyGenProvider:     kindString,
	keyGenModel:        kindString,
	keyGenBaseURL:      kindString,
	keyGenAPIKey:       kindString,
	keyGenTemperature:  kindFloat,
	keyGenMaxTokens:    kindInt,
	keyGenRPM:          kindInt,
	keyEmbedProvider:   kindString,
	keyEmbedModel:      kindString,
	keyEmbedBaseURL:    kindString,
	keyEmbedAPIKey:     kindString,
	keyEmbedDims:       kindInt,
	keyStoreBackend:    kindString,
	keyStoreCollection: kindString,
	keyStoreBatchSize:  kindInt,
	keyMemoryMax:       kindInt,
	keyMemoryLazy:      kindBool,
	keyRetrievalDef:    kindInt,
	keyRetrievalAgg:    kindInt,
	keyChunkSize:       kindInt,
	keyChunkOverlap:    kindInt,
	keyChunkMin:        kindInt,
	keyNLPGazetteer:    kindString,
	keyLoggingFile:     kindBool,
}

// SettingsService maps the flat configuration store onto typed settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings with defaults applied.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Generator: domain.GeneratorSettings{
			Provider:          s.getGenerator(d.Generator.Provider),
			Model:             s.getString(keyGenModel, d.Generator.Model),
			BaseURL:           s.configStore.GetString(keyGenBaseURL),
			APIKey:            s.apiKey(),
			Temperature:       s.getFloat(keyGenTemperature, d.Generator.Temperature),
			MaxOutputTokens:   s.getInt(keyGenMaxTokens, d.Generator.MaxOutputTokens),
			RequestsPerMinute: s.getInt(keyGenRPM, d.Generator.RequestsPerMinute),
		},
		Embedding: domain.EmbeddingSettings{
			Provider: s.getEmbeddingProvider(d.Embedding.Provider),
			BaseURL:  s.configStore.GetString(keyEmbedBaseURL),
			APIKey:   s.configStore.GetString(keyEmbedAPIKey),
		},
		Store: domain.StoreSettings{
			Backend:    s.getBackend(d.Store.Backend),
			Collection: s.getString(keyStoreCollection, d.Store.Collection),
			BatchSize:  s.getInt(keyStoreBatchSize, d.Store.BatchSize),
		},
		Memory: domain.MemorySettings{
			MaxMemoryMB: s.getInt(keyMemoryMax, d.Memory.MaxMemoryMB),
			LazyLoading: s.getBool(keyMemoryLazy, d.Memory.LazyLoading),
		},
		Retrieval: domain.RetrievalSettings{
			DefaultResults:   s.getInt(keyRetrievalDef, d.Retrieval.DefaultResults),
			AggregateResults: s.getInt(keyRetrievalAgg, d.Retrieval.AggregateResults),
		},
		Chunking: domain.ChunkingSettings{
			Size:     s.getInt(keyChunkSize, d.Chunking.Size),
			Overlap:  s.getInt(keyChunkOverlap, d.Chunking.Overlap),
			MinChunk: s.getInt(keyChunkMin, d.Chunking.MinChunk),
		},
		NLP: domain.NLPSettings{
			GazetteerPath: s.configStore.GetString(keyNLPGazetteer),
		},
		Logging: domain.LoggingSettings{
			File: s.getBool(keyLoggingFile, d.Logging.File),
		},
	}

	// Model and dimensions follow the provider unless set explicitly.
	embedDefault := domain.DefaultEmbeddingModels()[settings.Embedding.Provider]
	settings.Embedding.Model = s.getString(keyEmbedModel, embedDefault)
	dims := d.Embedding.Dimensions
	if known, ok := domain.EmbeddingDimensions()[settings.Embedding.Model]; ok {
		dims = known
	}
	settings.Embedding.Dimensions = s.getInt(keyEmbedDims, dims)

	return settings, nil
}

// Set validates and stores a single key.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKeys[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	if err := validateEnum(key, value); err != nil {
		return err
	}

	var typed any
	switch kind {
	case kindString:
		typed = value
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: %s must be a non-negative integer", domain.ErrInvalidInput, key)
		}
		typed = n
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: %s must be a number", domain.ErrInvalidInput, key)
		}
		typed = f
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be true or false", domain.ErrInvalidInput, key)
		}
		typed = b
	}

	if err := s.configStore.Set(key, typed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// SetAPIKey stores the remote generator credential.
func (s *SettingsService) SetAPIKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("%w: API key is empty", domain.ErrInvalidInput)
	}
	if err := s.configStore.Set(keyGenAPIKey, key); err != nil {
		return fmt.Errorf("save generator api_key: %w", err)
	}
	return nil
}

func (s *SettingsService) apiKey() string {
	if key := strings.TrimSpace(os.Getenv(EnvGeminiAPIKey)); key != "" {
		return key
	}
	return s.configStore.GetString(keyGenAPIKey)
}

// Keys lists the recognised setting keys in sorted order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKeys))
	for k := range settingKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ConfigPath returns the configuration file path.
func (s *SettingsService) ConfigPath() string {
	return s.configStore.Path()
}

func validateEnum(key, value string) error {
	switch key {
	case keyGenProvider:
		if !domain.GeneratorKind(value).IsValid() {
			return fmt.Errorf("%w: generator provider must be auto, gemini or local", domain.ErrInvalidInput)
		}
	case keyEmbedProvider:
		if !domain.EmbeddingProvider(value).IsValid() {
			return fmt.Errorf("%w: embedding provider must be hashing, ollama or openai", domain.ErrInvalidInput)
		}
	case keyStoreBackend:
		if !domain.StoreBackend(value).IsValid() {
			return fmt.Errorf("%w: store backend must be chromem, sqlite or memory", domain.ErrInvalidInput)
		}
	}
	return nil
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getGenerator(defaultVal domain.GeneratorKind) domain.GeneratorKind {
	kind := domain.GeneratorKind(s.configStore.GetString(keyGenProvider))
	if !kind.IsValid() {
		return defaultVal
	}
	return kind
}

func (s *SettingsService) getEmbeddingProvider(defaultVal domain.EmbeddingProvider) domain.EmbeddingProvider {
	provider := domain.EmbeddingProvider(s.configStore.GetString(keyEmbedProvider))
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getBackend(defaultVal domain.StoreBackend) domain.StoreBackend {
	backend := domain.StoreBackend(s.configStore.GetString(keyStoreBackend))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}
