package domain

const unknownDescription = "Unknown"

// EmbeddingProvider identifies an embedding backend.
type EmbeddingProvider string

// Available embedding providers.
const (
	// EmbeddingHashing is the in-process feature-hashing embedder.
	EmbeddingHashing EmbeddingProvider = "hashing"

	// EmbeddingOllama is a local Ollama instance.
	EmbeddingOllama EmbeddingProvider = "ollama"

	// EmbeddingOpenAI is the OpenAI cloud API.
	EmbeddingOpenAI EmbeddingProvider = "openai"
)

// IsValid returns true if the provider is recognised.
func (p EmbeddingProvider) IsValid() bool {
	switch p {
	case EmbeddingHashing, EmbeddingOllama, EmbeddingOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p EmbeddingProvider) RequiresAPIKey() bool {
	return p == EmbeddingOpenAI
}

// IsLocal returns true if the model runs inside the process.
func (p EmbeddingProvider) IsLocal() bool {
	return p == EmbeddingHashing
}

// String returns the string representation.
func (p EmbeddingProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p EmbeddingProvider) Description() string {
	switch p {
	case EmbeddingHashing:
		return "Hashing (in-process)"
	case EmbeddingOllama:
		return "Ollama (local server)"
	case EmbeddingOpenAI:
		return "OpenAI (cloud)"
	default:
		return unknownDescription
	}
}

// StoreBackend identifies a vector index implementation.
type StoreBackend string

// Available vector index backends.
const (
	StoreChromem StoreBackend = "chromem"
	StoreSQLite  StoreBackend = "sqlite"
	StoreMemory  StoreBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b StoreBackend) IsValid() bool {
	switch b {
	case StoreChromem, StoreSQLite, StoreMemory:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b StoreBackend) String() string {
	return string(b)
}

// GeneratorSettings configures response generation.
type GeneratorSettings struct {
	// Provider is auto, gemini or local.
	Provider GeneratorKind

	// Model is the remote model name.
	Model string

	// BaseURL overrides the remote API endpoint.
	BaseURL string

	// APIKey is the remote credential. The GEMINI_API_KEY environment variable wins.
	APIKey string

	Temperature     float64
	MaxOutputTokens int

	// RequestsPerMinute paces calls to the remote API. Zero disables pacing.
	RequestsPerMinute int
}

// EmbeddingSettings configures the embedding provider.
type EmbeddingSettings struct {
	Provider   EmbeddingProvider
	Model      string
	BaseURL    string
	APIKey     string
	Dimensions int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// StoreSettings configures the chunk store.
type StoreSettings struct {
	Backend    StoreBackend
	Collection string
	BatchSize  int
}

// MemorySettings configures the resource budget.
type MemorySettings struct {
	// MaxMemoryMB is the resident-set ceiling above which models are evicted.
	MaxMemoryMB int

	// LazyLoading defers model construction until first use.
	LazyLoading bool
}

// RetrievalSettings configures retrieval width.
type RetrievalSettings struct {
	DefaultResults   int
	AggregateResults int
}

// ChunkingSettings configures document chunking.
type ChunkingSettings struct {
	Size     int
	Overlap  int
	MinChunk int
}

// NLPSettings configures the local generator.
type NLPSettings struct {
	// GazetteerPath is an optional newline-separated entity list.
	GazetteerPath string
}

// LoggingSettings configures log sinks.
type LoggingSettings struct {
	// File enables the daily JSON log under the data directory.
	File bool
}

// AppSettings holds all application settings.
type AppSettings struct {
	Generator GeneratorSettings
	Embedding EmbeddingSettings
	Store     StoreSettings
	Memory    MemorySettings
	Retrieval RetrievalSettings
	Chunking  ChunkingSettings
	NLP       NLPSettings
	Logging   LoggingSettings
}

// DefaultAppSettings returns settings with sensible defaults.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Generator: GeneratorSettings{
			Provider:          GeneratorAuto,
			Model:             "gemini-1.5-flash",
			Temperature:       0.3,
			MaxOutputTokens:   2048,
			RequestsPerMinute: 15,
		},
		Embedding: EmbeddingSettings{
			Provider:   EmbeddingHashing,
			Model:      DefaultEmbeddingModels()[EmbeddingHashing],
			Dimensions: 384,
		},
		Store: StoreSettings{
			Backend:    StoreChromem,
			Collection: "documents",
			BatchSize:  100,
		},
		Memory: MemorySettings{
			MaxMemoryMB: 2048,
			LazyLoading: true,
		},
		Retrieval: RetrievalSettings{
			DefaultResults:   5,
			AggregateResults: 8,
		},
		Chunking: ChunkingSettings{
			Size:     800,
			Overlap:  150,
			MinChunk: 50,
		},
		Logging: LoggingSettings{
			File: true,
		},
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[EmbeddingProvider]string {
	return map[EmbeddingProvider]string{
		EmbeddingHashing: "hashing-384",
		EmbeddingOllama:  "all-minilm",
		EmbeddingOpenAI:  "text-embedding-3-small",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"hashing-384":            384,
		"all-minilm":             384,
		"nomic-embed-text":       768,
		"mxbai-embed-large":      1024,
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
	}
}
