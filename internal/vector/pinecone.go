package vector

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

// Pinecone is a minimal REST client against a single Pinecone index host.
// The index is expected to exist with the configured dimension and cosine
// metric; index management stays outside this service.
type Pinecone struct {
	host   string
	apiKey string
	client *http.Client
}

type PineconeConfig struct {
	APIKey    string
	IndexHost string // full index host URL; takes precedence when set
	IndexName string
	Region    string
	Timeout   time.Duration
}

// The upsert endpoint caps request sizes, so large ingests are paged.
const upsertBatchSize = 64

func NewPinecone(cfg PineconeConfig) *Pinecone {
	host := strings.TrimRight(strings.TrimSpace(cfg.IndexHost), "/")
	if host == "" {
		host = fmt.Sprintf("https://%s.svc.%s.pinecone.io", cfg.IndexName, cfg.Region)
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Pinecone{
		host:   host,
		apiKey: cfg.APIKey,
		client: &http.Client{Timeout: timeout},
	}
}

func (p *Pinecone) Upsert(ctx context.Context, entries []Entry) error {
	for start := 0; start < len(entries); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(entries) {
			end = len(entries)
		}
		body := map[string]any{"vectors": entries[start:end]}
		if err := p.post(ctx, "upsert", "/vectors/upsert", body, nil); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pinecone) Query(ctx context.Context, vector []float32, topK int) ([]Match, error) {
	if topK <= 0 {
		topK = 6
	}
	body := map[string]any{
		"vector":          vector,
		"topK":            topK,
		"includeMetadata": true,
	}
	var resp struct {
		Matches []Match `json:"matches"`
	}
	if err := p.post(ctx, "query", "/query", body, &resp); err != nil {
		return nil, err
	}
	return resp.Matches, nil
}

func (p *Pinecone) Stats(ctx context.Context) (Stats, error) {
	var resp struct {
		TotalVectorCount int     `json:"totalVectorCount"`
		Dimension        int     `json:"dimension"`
		IndexFullness    float64 `json:"indexFullness"`
	}
	if err := p.post(ctx, "stats", "/describe_index_stats", map[string]any{}, &resp); err != nil {
		return Stats{}, err
	}
	return Stats{
		TotalVectorCount: resp.TotalVectorCount,
		Dimension:        resp.Dimension,
		IndexFullness:    resp.IndexFullness,
	}, nil
}

func (p *Pinecone) post(ctx context.Context, op, path string, body any, out any) error {
	data, _ := json.Marshal(body)
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, p.host+path, bytes.NewReader(data))
	req.Header.Set("Api-Key", p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return &StoreError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return &StoreError{
			Op:    op,
			Quota: isQuotaRejection(resp.StatusCode, string(raw)),
			Err:   fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))),
		}
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return &StoreError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
		}
	}
	return nil
}

func isQuotaRejection(code int, body string) bool {
	if code == http.StatusPaymentRequired {
		return true
	}
	if code != http.StatusForbidden && code != http.StatusTooManyRequests {
		return false
	}
	low := strings.ToLower(body)
	return strings.Contains(low, "quota") ||
		strings.Contains(low, "limit") ||
		strings.Contains(low, "exceed") ||
		strings.Contains(low, "capacity")
}
