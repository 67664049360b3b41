package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OllamaClient talks to a locally running Ollama instance. Embeddings go
// through /api/embeddings one input at a time (the endpoint takes a single
// prompt). Generation walks a list of candidate models, skipping the ones the
// local install has not pulled.
type OllamaClient struct {
	baseURL    string
	embedModel string
	dim        int
	genModels  []string
	client     *http.Client
}

// Model candidates tried in order; a 404 means the model is not pulled and
// the next one is tried.
var defaultOllamaModels = []string{"llama3.2:latest", "gemma3:4b", "llama3.2", "llama2"}

func NewOllamaClient(baseURL, embedModel string, dim int) *OllamaClient {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "http://localhost:11434"
	}
	if strings.TrimSpace(embedModel) == "" {
		embedModel = "nomic-embed-text"
	}
	return &OllamaClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		embedModel: embedModel,
		dim:        dim,
		genModels:  defaultOllamaModels,
		client:     &http.Client{Timeout: 120 * time.Second},
	}
}

func (o *OllamaClient) Dimension() int { return o.dim }

func (o *OllamaClient) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := o.EmbedMany(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (o *OllamaClient) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, &EmbedError{Provider: "ollama", Err: fmt.Errorf("no embedding inputs")}
	}
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		payload, _ := json.Marshal(map[string]any{
			"model":  o.embedModel,
			"prompt": text,
		})
		httpReq, _ := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/embeddings", bytes.NewReader(payload))
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := o.client.Do(httpReq)
		if err != nil {
			return nil, &EmbedError{Provider: "ollama", Err: fmt.Errorf("embedding request failed: %w", err)}
		}
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if resp.StatusCode >= 400 {
			return nil, &EmbedError{Provider: "ollama", Err: fmt.Errorf("embedding error %d: %s", resp.StatusCode, string(body))}
		}
		var parsed struct {
			Embedding []float32 `json:"embedding"`
		}
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, &EmbedError{Provider: "ollama", Err: fmt.Errorf("decode embedding response: %w", err)}
		}
		if len(parsed.Embedding) == 0 {
			return nil, &EmbedError{Provider: "ollama", Err: fmt.Errorf("empty embedding returned")}
		}
		// A wrong-dimension vector would poison the whole index, not just
		// this document.
		if o.dim > 0 && len(parsed.Embedding) != o.dim {
			return nil, &EmbedError{Provider: "ollama", Err: fmt.Errorf("model %s returned %d-dim embedding, index expects %d", o.embedModel, len(parsed.Embedding), o.dim)}
		}
		out = append(out, parsed.Embedding)
	}
	return out, nil
}

func (o *OllamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	var lastStatus string
	for _, model := range o.genModels {
		payload, _ := json.Marshal(map[string]any{
			"model":  model,
			"prompt": prompt,
			"stream": false,
			"options": map[string]any{
				"temperature": 0.5,
				"num_predict": 256,
				"num_ctx":     2048,
			},
		})
		httpReq, _ := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewReader(payload))
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := o.client.Do(httpReq)
		if err != nil {
			return "", &GenerateError{Provider: "ollama", Local: true, Err: fmt.Errorf("generate request failed: %w", err)}
		}
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if resp.StatusCode == http.StatusNotFound {
			lastStatus = fmt.Sprintf("model %s not installed", model)
			continue
		}
		if resp.StatusCode >= 400 {
			return "", &GenerateError{Provider: "ollama", Local: true, Err: fmt.Errorf("generate error %d: %s", resp.StatusCode, string(body))}
		}
		var parsed struct {
			Response string `json:"response"`
		}
		if err := json.Unmarshal(body, &parsed); err != nil {
			return "", &GenerateError{Provider: "ollama", Local: true, Err: fmt.Errorf("decode generate response: %w", err)}
		}
		return parsed.Response, nil
	}
	return "", &GenerateError{
		Provider: "ollama",
		Local:    true,
		Err:      fmt.Errorf("none of the candidate models are installed (%s): %s", strings.Join(o.genModels, ", "), lastStatus),
	}
}
