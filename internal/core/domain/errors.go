package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown file type or backend name.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrEmptyQuestion indicates a query was submitted without text.
	ErrEmptyQuestion = errors.New("question is empty")

	// ErrMissingAPIKey indicates the remote generator has no credential.
	// This is a construction-time failure; the local generator is used instead.
	ErrMissingAPIKey = errors.New("API key not configured")

	// ErrGeneratorUnavailable indicates the remote generator failed its startup probe.
	ErrGeneratorUnavailable = errors.New("response generator unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service could not be loaded.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorIndexUnavailable indicates the vector index could not be opened.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrStoreClosed indicates an operation on a closed store.
	ErrStoreClosed = errors.New("store closed")

	// Resource budget errors.

	// ErrModelInUse indicates a model cannot be unloaded while handles are held.
	ErrModelInUse = errors.New("model in use")

	// ErrModelNotRegistered indicates the budget manager does not track the model.
	ErrModelNotRegistered = errors.New("model not registered")
)
