package providers

import (
	"fmt"
	"strings"

	"studybot/internal/config"
)

// NewEmbedder builds the process-wide embedding client from config. Called
// once at startup; the client is stateless and shared across requests.
func NewEmbedder(cfg config.Config) (Embedder, error) {
	switch strings.ToLower(cfg.EmbedProvider) {
	case "ollama":
		return NewOllamaClient(cfg.OllamaBaseURL, "", cfg.EmbedDim), nil
	case "openai":
		return NewOpenAIClient(cfg.LLMAPIKey, cfg.EmbedDim), nil
	case "mock":
		return NewMock(cfg.EmbedDim), nil
	default:
		return nil, fmt.Errorf("unsupported embed provider: %s", cfg.EmbedProvider)
	}
}

// NewGenerator builds the LLM client for the configured mode: a local Ollama
// runtime or the remote Groq API.
func NewGenerator(cfg config.Config) (Generator, error) {
	switch strings.ToLower(cfg.Mode) {
	case config.ModeLocal:
		return NewOllamaClient(cfg.OllamaBaseURL, "", cfg.EmbedDim), nil
	case config.ModeCloud:
		return NewGroqClient(cfg.LLMAPIKey, ""), nil
	default:
		return nil, fmt.Errorf("unsupported mode: %s", cfg.Mode)
	}
}
