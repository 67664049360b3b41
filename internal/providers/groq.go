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

const groqEndpoint = "https://api.groq.com/openai/v1/chat/completions"

// GroqClient generates answers through Groq's OpenAI-compatible chat API.
type GroqClient struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

func NewGroqClient(apiKey, model string) *GroqClient {
	if strings.TrimSpace(model) == "" {
		model = "llama-3.1-8b-instant"
	}
	return &GroqClient{
		apiKey:   apiKey,
		model:    model,
		endpoint: groqEndpoint,
		client:   &http.Client{Timeout: 60 * time.Second},
	}
}

func (g *GroqClient) Generate(ctx context.Context, prompt string) (string, error) {
	if g.apiKey == "" {
		return "", &GenerateError{Provider: "groq", Err: fmt.Errorf("api key missing")}
	}
	payload, _ := json.Marshal(map[string]any{
		"model": g.model,
		"messages": []map[string]string{
			{"role": "system", "content": "You are a helpful study assistant. Answer questions based on the provided context from study materials and past papers."},
			{"role": "user", "content": prompt},
		},
		"temperature": 0.7,
		"max_tokens":  512,
	})
	httpReq, _ := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(payload))
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", &GenerateError{Provider: "groq", Err: fmt.Errorf("generate request failed: %w", err)}
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return "", &GenerateError{Provider: "groq", Err: fmt.Errorf("generate error %d: %s", resp.StatusCode, string(body))}
	}
	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &GenerateError{Provider: "groq", Err: fmt.Errorf("decode generate response: %w", err)}
	}
	if len(parsed.Choices) == 0 {
		return "", &GenerateError{Provider: "groq", Err: fmt.Errorf("empty choices returned")}
	}
	return parsed.Choices[0].Message.Content, nil
}
