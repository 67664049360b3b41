package providers

import (
	"fmt"
	"strings"
)

// EmbedError wraps any failure of the embedding backend. It aborts the
// current ingestion or answer call and is surfaced verbatim to the user.
type EmbedError struct {
	Provider string
	Err      error
}

func (e *EmbedError) Error() string {
	return fmt.Sprintf("embedding service (%s): %v", e.Provider, e.Err)
}

func (e *EmbedError) Unwrap() error { return e.Err }

// GenerateError wraps a failure of the LLM backend. Local reports whether the
// backend is a locally hosted runtime, so the boundary can tell "start
// Ollama" apart from a remote API failure.
type GenerateError struct {
	Provider string
	Local    bool
	Err      error
}

func (e *GenerateError) Error() string {
	if e.Local {
		return fmt.Sprintf("local model runtime (%s) unavailable: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("remote LLM API (%s) failed: %v", e.Provider, e.Err)
}

func (e *GenerateError) Unwrap() error { return e.Err }

type ErrorType string

const (
	ErrorQuota     ErrorType = "quota"
	ErrorRate      ErrorType = "rate"
	ErrorTransient ErrorType = "transient"
	ErrorPermanent ErrorType = "permanent"
)

// ClassifyError buckets a provider failure by message. Provider APIs do not
// agree on error encodings, so substring matching is the common denominator.
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ""
	}
	e := strings.ToLower(err.Error())
	switch {
	case strings.Contains(e, "quota"), strings.Contains(e, "credit"), strings.Contains(e, "insufficient_quota"):
		return ErrorQuota
	case strings.Contains(e, "rate"), strings.Contains(e, "429"):
		return ErrorRate
	case strings.Contains(e, "timeout"), strings.Contains(e, "temporarily"), strings.Contains(e, "unavailable"):
		return ErrorTransient
	default:
		return ErrorPermanent
	}
}
