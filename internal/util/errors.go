package util

import "errors"

var (
	// ErrInvalidChunkConfig is fatal at startup: the chunking parameters can
	// never produce a well-formed chunk sequence.
	ErrInvalidChunkConfig = errors.New("invalid chunking configuration")

	// ErrNoExtractableText marks documents with no text layer (typically a
	// scanned-image PDF). Reported per file, never aborts a batch.
	ErrNoExtractableText = errors.New("no extractable text found in PDF")
)
