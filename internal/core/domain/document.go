package domain

import "fmt"

// Document is a processed input file ready for indexing.
// Documents are produced by ingestion and never mutated afterwards.
type Document struct {
	// Filename is the display name.
	Filename string

	// Filepath is the source location.
	Filepath string

	// FileHash is the content digest. Re-uploads of unchanged content share it.
	FileHash string

	// Chunks are the ordered text segments. Boundaries are deterministic
	// for a given file content so chunk identities stay stable.
	Chunks []string

	// FileSize is the size of the source file in bytes.
	FileSize int64
}

// ChunkCount returns the number of chunks.
func (d Document) ChunkCount() int {
	return len(d.Chunks)
}

// AvgChunkSize returns the mean chunk length in characters.
func (d Document) AvgChunkSize() float64 {
	if len(d.Chunks) == 0 {
		return 0
	}
	total := 0
	for _, c := range d.Chunks {
		total += len([]rune(c))
	}
	return float64(total) / float64(len(d.Chunks))
}

// ChunkID returns the content-addressed identity of a chunk.
func ChunkID(fileHash string, index int) string {
	return fmt.Sprintf("%s_%d", fileHash, index)
}

// Chunk is a unit of retrievable text stored in the vector index.
type Chunk struct {
	// ID is {file_hash}_{chunk_index}.
	ID string

	// Text is the raw chunk content.
	Text string

	// Metadata identifies the owning document.
	Metadata ChunkMetadata

	// Embedding is derived from Text and stored alongside it.
	Embedding []float32
}

// ChunkMetadata is stored with every chunk.
type ChunkMetadata struct {
	Filename   string `json:"filename"`
	Filepath   string `json:"filepath"`
	ChunkIndex int    `json:"chunk_index"`
	FileHash   string `json:"file_hash"`
}

// AddReport summarises one AddDocuments call.
type AddReport struct {
	Added   int
	Skipped int
	Failed  int
}
