package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"studybot/internal/config"
	"studybot/internal/ingest"
	"studybot/internal/models"
	"studybot/internal/providers"
	"studybot/internal/rag"
	"studybot/internal/vector"
)

func newTestServer(t *testing.T) (*Server, *vector.Memory) {
	t.Helper()
	return newTestServerWithGenerator(t, providers.NewMock(8))
}

func newTestServerWithGenerator(t *testing.T, gen providers.Generator) (*Server, *vector.Memory) {
	t.Helper()
	cfg := config.Config{
		Mode:            config.ModeLocal,
		ChunkSize:       40,
		ChunkOverlap:    8,
		TopK:            6,
		ContextChunks:   3,
		MaxContextChars: 2000,
	}
	mock := providers.NewMock(8)
	store := vector.NewMemory(8)
	ing := ingest.New(cfg, mock, store, zerolog.Nop()).WithExtractor(func(path string) (string, error) {
		b, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(b), nil
	})
	answers := rag.New(cfg, mock, gen, store, zerolog.Nop())
	return NewServer(cfg, ing, answers, store, nil, nil, zerolog.Nop()), store
}

// failingGenerator always reports the given backend failure.
type failingGenerator struct {
	err error
}

func (g failingGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return "", g.err
}

func multipartUpload(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, content := range files {
		fw, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Equal(t, true, got["ok"])
}

func TestUploadAndAsk(t *testing.T) {
	srv, store := newTestServer(t)
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	body, contentType := multipartUpload(t, map[string]string{
		"notes.pdf": strings.Repeat("B-trees keep keys sorted for range scans. ", 6),
	})
	resp, err := http.Post(ts.URL+"/upload", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var up struct {
		Message string              `json:"message"`
		Results []models.FileResult `json:"results"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&up))
	require.Contains(t, up.Message, "from 1 file(s)")
	require.Len(t, up.Results, 1)
	require.Empty(t, up.Results[0].Error)
	require.Greater(t, up.Results[0].ChunksAdded, 0)

	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, up.Results[0].ChunksAdded, stats.TotalVectorCount)

	askBody, _ := json.Marshal(map[string]any{"question": "what are b-trees for?"})
	resp2, err := http.Post(ts.URL+"/ask", "application/json", bytes.NewReader(askBody))
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusOK, resp2.StatusCode)

	var ans models.Answer
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&ans))
	require.NotEmpty(t, ans.Text)
	require.Len(t, ans.Sources, 1)
	require.Equal(t, "notes.pdf", ans.Sources[0].Source)
}

func TestUploadReportsUnreadableFile(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	body, contentType := multipartUpload(t, map[string]string{
		"scanned.pdf": "   ",
		"good.pdf":    strings.Repeat("real text content here. ", 8),
	})
	resp, err := http.Post(ts.URL+"/upload", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var up struct {
		Message string              `json:"message"`
		Results []models.FileResult `json:"results"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&up))
	require.Contains(t, up.Message, "from 1 file(s)")

	byName := make(map[string]models.FileResult, len(up.Results))
	for _, r := range up.Results {
		byName[r.Filename] = r
	}
	require.Contains(t, byName["scanned.pdf"].Error, "OCR")
	require.Empty(t, byName["good.pdf"].Error)
}

func TestUploadRequiresFiles(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	body, contentType := multipartUpload(t, nil)
	resp, err := http.Post(ts.URL+"/upload", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAskValidation(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/ask", "application/json", strings.NewReader(`{"question":"  "}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var got struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Equal(t, "SB-API-4001", got.Error.Code)
	require.Contains(t, got.Error.Message, "question is required")
}

func TestAskEmptyIndex(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	askBody, _ := json.Marshal(map[string]any{"question": "anything"})
	resp, err := http.Post(ts.URL+"/ask", "application/json", bytes.NewReader(askBody))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var ans models.Answer
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ans))
	require.Equal(t, rag.NoContextAnswer, ans.Text)
	require.Empty(t, ans.Sources)
}

func askAfterUpload(t *testing.T, srv *Server) *http.Response {
	t.Helper()
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)

	body, contentType := multipartUpload(t, map[string]string{
		"notes.pdf": strings.Repeat("B-trees keep keys sorted for range scans. ", 6),
	})
	resp, err := http.Post(ts.URL+"/upload", contentType, body)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	askBody, _ := json.Marshal(map[string]any{"question": "what are b-trees for?"})
	resp, err = http.Post(ts.URL+"/ask", "application/json", bytes.NewReader(askBody))
	require.NoError(t, err)
	return resp
}

func decodeErrBody(t *testing.T, resp *http.Response) (code, message string) {
	t.Helper()
	var got struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	return got.Error.Code, got.Error.Message
}

func TestAskLocalGeneratorDown(t *testing.T) {
	genErr := &providers.GenerateError{Provider: "ollama", Local: true, Err: errors.New("connection refused")}
	srv, _ := newTestServerWithGenerator(t, failingGenerator{err: genErr})

	resp := askAfterUpload(t, srv)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)

	code, message := decodeErrBody(t, resp)
	require.Equal(t, "SB-LLM-5030", code)
	require.Contains(t, message, "Ollama")
}

func TestAskRemoteGeneratorRateLimited(t *testing.T) {
	genErr := &providers.GenerateError{Provider: "groq", Err: errors.New("generate error 429: rate limit reached")}
	srv, _ := newTestServerWithGenerator(t, failingGenerator{err: genErr})

	resp := askAfterUpload(t, srv)
	defer resp.Body.Close()
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	code, message := decodeErrBody(t, resp)
	require.Equal(t, "SB-API-4290", code)
	require.Contains(t, message, "limits")
}

func TestStats(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Equal(t, float64(0), got["total_vector_count"])
	require.Equal(t, float64(8), got["dimension"])
}

func TestHistoryDisabled(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	for _, path := range []string{"/history", "/documents"} {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/upload")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
