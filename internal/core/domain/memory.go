package domain

// MemoryUsage is a snapshot of process memory.
type MemoryUsage struct {
	RSSMB   float64 `json:"rss_mb"`
	VMSMB   float64 `json:"vms_mb"`
	Percent float64 `json:"percent"`
}

// LoadedModel describes a model tracked by the resource budget.
type LoadedModel struct {
	Name   string  `json:"name"`
	SizeMB float64 `json:"size_mb"`
	InUse  int     `json:"in_use"`
}

// Stats is a read-only snapshot of the question-answering core.
type Stats struct {
	DocumentChunks int           `json:"document_chunks"`
	ModelType      GeneratorKind `json:"model_type"`
	Features       []string      `json:"features"`
	Memory         MemoryUsage   `json:"memory"`
	LoadedModels   []LoadedModel `json:"loaded_models"`
}
