package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"studybot/internal/config"
	"studybot/internal/ingest"
	"studybot/internal/models"
	"studybot/internal/providers"
	"studybot/internal/rag"
	"studybot/internal/storage"
	"studybot/internal/util"
	"studybot/internal/vector"
)

// Server wires the ingest and answer pipelines behind the HTTP surface. The
// repos are nil when history logging is disabled; every handler checks.
type Server struct {
	cfg       config.Config
	ingest    *ingest.Pipeline
	rag       *rag.Pipeline
	store     vector.Store
	docs      *storage.DocumentRepo
	questions *storage.QuestionRepo
	log       zerolog.Logger
}

func NewServer(cfg config.Config, ing *ingest.Pipeline, answers *rag.Pipeline, store vector.Store, docs *storage.DocumentRepo, questions *storage.QuestionRepo, log zerolog.Logger) *Server {
	return &Server{
		cfg:       cfg,
		ingest:    ing,
		rag:       answers,
		store:     store,
		docs:      docs,
		questions: questions,
		log:       log,
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/upload", s.handleUpload)
	mux.HandleFunc("/ask", s.handleAsk)
	mux.HandleFunc("/stats", s.handleStats)
	mux.HandleFunc("/documents", s.handleDocuments)
	mux.HandleFunc("/history", s.handleHistory)
	return withCORS(mux)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "mode": s.cfg.Mode})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	if err := r.ParseMultipartForm(128 << 20); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("parse multipart: %w", err))
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("no files provided"))
		return
	}

	uploads := make([]ingest.Upload, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("open upload %q: %w", fh.Filename, err))
			return
		}
		defer f.Close()
		uploads = append(uploads, ingest.Upload{Filename: fh.Filename, Reader: f})
	}

	rep := s.ingest.Batch(r.Context(), uploads)
	for i := range rep.Results {
		rep.Results[i].Error = userMessage(rep.Results[i].Error)
	}
	s.recordDocuments(r, rep)

	writeJSON(w, http.StatusOK, map[string]any{
		"message": rep.Summary(),
		"results": rep.Results,
	})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	var req struct {
		Question string `json:"question"`
		TopK     int    `json:"top_k"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("question is required"))
		return
	}

	ans, err := s.rag.Answer(r.Context(), req.Question, rag.Options{TopK: req.TopK})
	if err != nil {
		writeErr(w, statusFor(err), err)
		return
	}

	if s.questions != nil {
		if _, err := s.questions.InsertQuestion(r.Context(), req.Question, ans); err != nil {
			s.log.Warn().Err(err).Msg("record question history")
		}
	}
	writeJSON(w, http.StatusOK, ans)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		writeErr(w, statusFor(err), err)
		return
	}
	resp := map[string]any{
		"total_vector_count": stats.TotalVectorCount,
		"dimension":          stats.Dimension,
		"index_fullness":     stats.IndexFullness,
	}
	if stats.Capacity != nil {
		resp["capacity"] = *stats.Capacity
	}
	if s.docs != nil {
		if n, err := s.docs.CountDocuments(r.Context()); err == nil {
			resp["documents"] = n
		} else {
			s.log.Warn().Err(err).Msg("count documents")
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	if s.docs == nil {
		writeErr(w, http.StatusNotFound, fmt.Errorf("history is not enabled"))
		return
	}
	docs, err := s.docs.ListDocuments(r.Context())
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	if s.questions == nil {
		writeErr(w, http.StatusNotFound, fmt.Errorf("history is not enabled"))
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid limit"))
			return
		}
		limit = n
	}
	questions, err := s.questions.ListQuestions(r.Context(), limit)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"questions": questions})
}

// recordDocuments mirrors the batch outcome into the history store. Failures
// here never fail the upload.
func (s *Server) recordDocuments(r *http.Request, rep ingest.Report) {
	if s.docs == nil {
		return
	}
	for _, res := range rep.Results {
		if res.DocID == "" {
			continue
		}
		rec := models.DocumentRecord{
			DocID:      res.DocID,
			Filename:   res.Filename,
			ChunkCount: res.ChunksAdded,
			Status:     "ingested",
			FailReason: res.Error,
		}
		if res.Error != "" {
			rec.Status = "failed"
		}
		if err := s.docs.UpsertDocument(r.Context(), rec); err != nil {
			s.log.Warn().Err(err).Str("file", res.Filename).Msg("record document history")
		}
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	apiErr := toAPIError(code, err)
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"code":    apiErr.Code,
			"message": apiErr.Message,
		},
	})
}

// statusFor maps pipeline failures onto response codes: provider and store
// outages are upstream problems, quota rejections are the caller's storage
// running out, and rate-limited or out-of-credit provider calls get 429 so
// clients back off instead of retrying a dead upstream.
func statusFor(err error) int {
	var storeErr *vector.StoreError
	if errors.As(err, &storeErr) {
		if storeErr.Quota {
			return http.StatusInsufficientStorage
		}
		return http.StatusBadGateway
	}
	var embedErr *providers.EmbedError
	var genErr *providers.GenerateError
	if errors.As(err, &embedErr) || errors.As(err, &genErr) {
		switch providers.ClassifyError(err) {
		case providers.ErrorQuota, providers.ErrorRate:
			return http.StatusTooManyRequests
		}
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

type apiError struct {
	Code    string
	Message string
}

func toAPIError(status int, err error) apiError {
	if m := userMessageErr(err); m != "" {
		code := "SB-API-5000"
		switch {
		case isQuotaErr(err):
			code = "SB-VEC-5070"
		case isLocalGenErr(err):
			code = "SB-LLM-5030"
		case status == http.StatusTooManyRequests:
			code = "SB-API-4290"
		case status == http.StatusBadGateway:
			code = "SB-API-5020"
		}
		return apiError{Code: code, Message: m}
	}

	msg := "Request failed."
	code := "SB-API-4000"
	raw := ""
	if err != nil {
		raw = strings.ToLower(err.Error())
	}

	switch {
	case status >= 500:
		switch {
		case strings.Contains(raw, "relation") && strings.Contains(raw, "does not exist"):
			return apiError{
				Code:    "SB-DB-5001",
				Message: "Database schema is not initialized. Run migrations and retry.",
			}
		case strings.Contains(raw, "connect"), strings.Contains(raw, "dial tcp"), strings.Contains(raw, "connection refused"):
			return apiError{
				Code:    "SB-DB-5002",
				Message: "A backing service is unreachable. Check local services and retry.",
			}
		default:
			return apiError{
				Code:    "SB-API-5000",
				Message: "Internal server error. Please retry or check service logs.",
			}
		}
	case status == http.StatusBadRequest:
		code = "SB-API-4001"
		msg = "Invalid request. Check inputs and retry."
	case status == http.StatusNotFound:
		code = "SB-API-4004"
		msg = "Requested resource was not found."
	case status == http.StatusMethodNotAllowed:
		code = "SB-API-4005"
		msg = "This endpoint does not support the requested method."
	}

	// For 4xx, keep user-safe validation context only.
	if status >= 400 && status < 500 && err != nil {
		low := strings.ToLower(err.Error())
		switch {
		case strings.Contains(low, "question is required"):
			msg = "A question is required."
		case strings.Contains(low, "no files provided"):
			msg = "No PDF files were provided."
		case strings.Contains(low, "invalid json"):
			msg = "Malformed JSON request body."
		case strings.Contains(low, "history is not enabled"):
			msg = "History is not enabled. Set STUDYBOT_POSTGRES_URL to record questions."
		case strings.Contains(low, "invalid limit"):
			msg = "Limit must be a non-negative integer."
		}
	}

	return apiError{Code: code, Message: msg}
}

// userMessageErr turns a typed pipeline failure into the actionable message
// shown to the user, or "" when the error needs the generic treatment.
func userMessageErr(err error) string {
	var storeErr *vector.StoreError
	if errors.As(err, &storeErr) {
		if storeErr.Quota {
			return "The vector index is full. Delete old documents or upgrade the index plan, then retry."
		}
		return "The vector store is unreachable. Check the index configuration and API key, then retry."
	}
	var genErr *providers.GenerateError
	if errors.As(err, &genErr) {
		if genErr.Local {
			return "Ollama is not reachable. Start it with `ollama serve` and make sure a chat model is pulled."
		}
		return "The hosted language model rejected the request. Check the API key and account limits, then retry."
	}
	var embedErr *providers.EmbedError
	if errors.As(err, &embedErr) {
		return "The embedding service failed. Check that the embedding model is available, then retry."
	}
	if errors.Is(err, util.ErrNoExtractableText) {
		return "No selectable text found in this PDF. Scanned or image-only documents need OCR before upload."
	}
	return ""
}

// userMessage rewrites a stored per-file error string when it matches a
// known failure, leaving unknown messages as-is.
func userMessage(raw string) string {
	if raw == "" {
		return ""
	}
	if strings.Contains(raw, util.ErrNoExtractableText.Error()) {
		return "No selectable text found in this PDF. Scanned or image-only documents need OCR before upload."
	}
	return raw
}

func isQuotaErr(err error) bool {
	var storeErr *vector.StoreError
	return errors.As(err, &storeErr) && storeErr.Quota
}

func isLocalGenErr(err error) bool {
	var genErr *providers.GenerateError
	return errors.As(err, &genErr) && genErr.Local
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
