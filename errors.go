package curricula

import "errors"

var (
	// ErrDocumentNotFound is returned when a document ID or path does not exist.
	ErrDocumentNotFound = errors.New("curricula: document not found")

	// ErrParsingFailed is returned when standards extraction fails outright.
	ErrParsingFailed = errors.New("curricula: parsing failed")

	// ErrNoStandards is returned when a document yields zero standards even
	// after the fallback path.
	ErrNoStandards = errors.New("curricula: no standards extracted")

	// ErrStandardNotFound is returned when a standard row ID does not exist.
	ErrStandardNotFound = errors.New("curricula: standard not found")

	// ErrEmbeddingFailed is returned when embedding generation fails.
	ErrEmbeddingFailed = errors.New("curricula: embedding generation failed")

	// ErrLLMRequestFailed is returned when an LLM request fails after retries.
	ErrLLMRequestFailed = errors.New("curricula: LLM request failed")

	// ErrInvalidConfig is returned for invalid configuration values.
	ErrInvalidConfig = errors.New("curricula: invalid configuration")
)
