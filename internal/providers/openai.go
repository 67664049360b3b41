package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const openaiBaseURL = "https://api.openai.com/v1"

// OpenAIClient serves as an alternate cloud backend: batch embeddings plus
// chat-completion generation over the standard OpenAI REST APIs.
type OpenAIClient struct {
	apiKey     string
	embedModel string
	chatModel  string
	dim        int
	baseURL    string
	client     *http.Client
}

func NewOpenAIClient(apiKey string, dim int) *OpenAIClient {
	return &OpenAIClient{
		apiKey:     apiKey,
		embedModel: "text-embedding-3-small",
		chatModel:  "gpt-4o-mini",
		dim:        dim,
		baseURL:    openaiBaseURL,
		client:     &http.Client{Timeout: 60 * time.Second},
	}
}

func (o *OpenAIClient) Dimension() int { return o.dim }

func (o *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := o.EmbedMany(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (o *OpenAIClient) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	if o.apiKey == "" {
		return nil, &EmbedError{Provider: "openai", Err: fmt.Errorf("api key missing")}
	}
	if len(texts) == 0 {
		return nil, &EmbedError{Provider: "openai", Err: fmt.Errorf("no embedding inputs")}
	}
	payload, _ := json.Marshal(map[string]any{
		"model":      o.embedModel,
		"input":      texts,
		"dimensions": o.dim,
	})
	httpReq, _ := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/embeddings", bytes.NewReader(payload))
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, &EmbedError{Provider: "openai", Err: fmt.Errorf("embedding request failed: %w", err)}
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return nil, &EmbedError{Provider: "openai", Err: fmt.Errorf("embedding error %d: %s", resp.StatusCode, string(body))}
	}
	var parsed struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &EmbedError{Provider: "openai", Err: fmt.Errorf("decode embedding response: %w", err)}
	}
	if len(parsed.Data) != len(texts) {
		return nil, &EmbedError{Provider: "openai", Err: fmt.Errorf("got %d embeddings for %d inputs", len(parsed.Data), len(texts))}
	}
	out := make([][]float32, 0, len(parsed.Data))
	for _, d := range parsed.Data {
		out = append(out, d.Embedding)
	}
	return out, nil
}

func (o *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	if o.apiKey == "" {
		return "", &GenerateError{Provider: "openai", Err: fmt.Errorf("api key missing")}
	}
	payload, _ := json.Marshal(map[string]any{
		"model": o.chatModel,
		"messages": []map[string]string{
			{"role": "system", "content": "You are a helpful study assistant. Answer questions based on the provided context from study materials and past papers."},
			{"role": "user", "content": prompt},
		},
	})
	httpReq, _ := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(payload))
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return "", &GenerateError{Provider: "openai", Err: fmt.Errorf("generate request failed: %w", err)}
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return "", &GenerateError{Provider: "openai", Err: fmt.Errorf("generate error %d: %s", resp.StatusCode, string(body))}
	}
	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &GenerateError{Provider: "openai", Err: fmt.Errorf("decode generate response: %w", err)}
	}
	if len(parsed.Choices) == 0 {
		return "", &GenerateError{Provider: "openai", Err: fmt.Errorf("empty choices returned")}
	}
	return parsed.Choices[0].Message.Content, nil
}
