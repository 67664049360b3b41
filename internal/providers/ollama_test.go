package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOllamaGenerateFallsBackOnMissingModel(t *testing.T) {
	var tried []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model string `json:"model"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		tried = append(tried, req.Model)
		if req.Model != "llama3.2" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"response": "hello"})
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, "", 8)
	got, err := c.Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "hello" {
		t.Fatalf("unexpected response: %q", got)
	}
	if len(tried) != 3 || tried[2] != "llama3.2" {
		t.Fatalf("expected fallback through candidates, tried %v", tried)
	}
}

func TestOllamaGenerateNoModelsInstalled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, "", 8)
	_, err := c.Generate(context.Background(), "prompt")
	var genErr *GenerateError
	if !errors.As(err, &genErr) || !genErr.Local {
		t.Fatalf("expected local GenerateError, got %v", err)
	}
}

func TestOllamaGenerateUnreachable(t *testing.T) {
	c := NewOllamaClient("http://127.0.0.1:1", "", 8)
	_, err := c.Generate(context.Background(), "prompt")
	var genErr *GenerateError
	if !errors.As(err, &genErr) || !genErr.Local {
		t.Fatalf("expected local GenerateError, got %v", err)
	}
}

func TestOllamaEmbedMany(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"embedding": []float32{1, 2, 3, 4}})
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, "", 4)
	vecs, err := c.EmbedMany(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vecs) != 2 || len(vecs[0]) != 4 {
		t.Fatalf("unexpected vectors: %v", vecs)
	}
}

func TestOllamaEmbedDimensionMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"embedding": []float32{1, 2, 3}})
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, "", 8)
	_, err := c.EmbedMany(context.Background(), []string{"a"})
	var embedErr *EmbedError
	if !errors.As(err, &embedErr) {
		t.Fatalf("expected EmbedError on dimension mismatch, got %v", err)
	}
}
