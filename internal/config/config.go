package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"studybot/internal/util"
)

// Mode selects which LLM backend answers questions: a locally running Ollama
// instance or a remote API reached with LLM_API_KEY.
const (
	ModeLocal = "local"
	ModeCloud = "cloud"
)

type Config struct {
	APIAddr string
	Mode    string

	VectorStore       string // "pinecone" or "memory"
	VectorStoreAPIKey string
	VectorStoreRegion string
	IndexName         string
	IndexHost         string

	EmbedProvider string // "ollama" or "openai"
	EmbedDim      int
	OllamaBaseURL string
	LLMAPIKey     string

	ChunkSize       int
	ChunkOverlap    int
	TopK            int
	ContextChunks   int
	MaxContextChars int

	PostgresURL string
}

func Load() Config {
	return Config{
		APIAddr:           getenv("STUDYBOT_API_ADDR", ":8080"),
		Mode:              getenv("STUDYBOT_MODE", ModeLocal),
		VectorStore:       getenv("STUDYBOT_VECTOR_STORE", "pinecone"),
		VectorStoreAPIKey: os.Getenv("VECTOR_STORE_API_KEY"),
		VectorStoreRegion: getenv("VECTOR_STORE_REGION", "us-east-1"),
		IndexName:         getenv("STUDYBOT_INDEX_NAME", "rag-chatbot"),
		IndexHost:         os.Getenv("STUDYBOT_INDEX_HOST"),
		EmbedProvider:     getenv("STUDYBOT_EMBED_PROVIDER", "ollama"),
		EmbedDim:          getenvInt("STUDYBOT_EMBED_DIM", 768),
		OllamaBaseURL:     getenv("STUDYBOT_OLLAMA_BASE_URL", "http://localhost:11434"),
		LLMAPIKey:         os.Getenv("LLM_API_KEY"),
		ChunkSize:         getenvInt("STUDYBOT_CHUNK_SIZE", 800),
		ChunkOverlap:      getenvInt("STUDYBOT_CHUNK_OVERLAP", 150),
		TopK:              getenvInt("STUDYBOT_TOP_K", 6),
		ContextChunks:     getenvInt("STUDYBOT_CONTEXT_CHUNKS", 3),
		MaxContextChars:   getenvInt("STUDYBOT_MAX_CONTEXT_CHARS", 2000),
		PostgresURL:       os.Getenv("STUDYBOT_POSTGRES_URL"),
	}
}

// Validate runs once at startup. Any error here is fatal: a process with bad
// chunking parameters or an incoherent mode can never serve a request.
func (c Config) Validate() error {
	if c.ChunkSize <= 0 || c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunk_size=%d chunk_overlap=%d", util.ErrInvalidChunkConfig, c.ChunkSize, c.ChunkOverlap)
	}
	if c.EmbedDim <= 0 {
		return fmt.Errorf("embed dimension must be positive, got %d", c.EmbedDim)
	}
	if c.TopK <= 0 || c.ContextChunks <= 0 || c.MaxContextChars <= 0 {
		return fmt.Errorf("retrieval parameters must be positive: top_k=%d context_chunks=%d max_context_chars=%d",
			c.TopK, c.ContextChunks, c.MaxContextChars)
	}
	switch strings.ToLower(c.Mode) {
	case ModeLocal:
	case ModeCloud:
		if strings.TrimSpace(c.LLMAPIKey) == "" {
			return fmt.Errorf("cloud mode requires LLM_API_KEY")
		}
	default:
		return fmt.Errorf("unknown mode %q (want local or cloud)", c.Mode)
	}
	switch strings.ToLower(c.VectorStore) {
	case "memory":
	case "pinecone":
		if strings.TrimSpace(c.VectorStoreAPIKey) == "" {
			return fmt.Errorf("pinecone store requires VECTOR_STORE_API_KEY")
		}
		if strings.TrimSpace(c.IndexHost) == "" && (strings.TrimSpace(c.IndexName) == "" || strings.TrimSpace(c.VectorStoreRegion) == "") {
			return fmt.Errorf("pinecone store requires STUDYBOT_INDEX_HOST, or STUDYBOT_INDEX_NAME plus VECTOR_STORE_REGION")
		}
	default:
		return fmt.Errorf("unknown vector store %q (want pinecone or memory)", c.VectorStore)
	}
	switch strings.ToLower(c.EmbedProvider) {
	case "ollama", "openai", "mock":
	default:
		return fmt.Errorf("unknown embed provider %q", c.EmbedProvider)
	}
	return nil
}

func getenv(k, fallback string) string {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	return v
}

func getenvInt(k string, fallback int) int {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
