package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"studybot/internal/config"
	"studybot/internal/extract"
	"studybot/internal/models"
	"studybot/internal/providers"
	"studybot/internal/util"
	"studybot/internal/vector"
)

// Upload is one file in a batch: the filename used as citation label plus its
// byte stream. The bytes are never retained past the ingest call.
type Upload struct {
	Filename string
	Reader   io.Reader
}

// Extractor turns a PDF on disk into plain text. Swappable so tests do not
// need real PDF fixtures.
type Extractor func(path string) (string, error)

// Report aggregates a batch: one result per file plus the totals the upload
// interface reports back.
type Report struct {
	Results     []models.FileResult `json:"results"`
	ChunksAdded int                 `json:"chunks_added"`
	FilesAdded  int                 `json:"files_added"`
}

func (r Report) Summary() string {
	return fmt.Sprintf("Successfully added %d chunks from %d file(s)", r.ChunksAdded, r.FilesAdded)
}

// Pipeline is the write side: extract, chunk, embed, upsert. Stateless across
// calls; safe to share between requests.
type Pipeline struct {
	chunkSize    int
	chunkOverlap int
	embedder     providers.Embedder
	store        vector.Store
	extract      Extractor
	log          zerolog.Logger
}

func New(cfg config.Config, embedder providers.Embedder, store vector.Store, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		chunkSize:    cfg.ChunkSize,
		chunkOverlap: cfg.ChunkOverlap,
		embedder:     embedder,
		store:        store,
		extract:      extract.PDFText,
		log:          log,
	}
}

// WithExtractor replaces the PDF text extractor, used by tests.
func (p *Pipeline) WithExtractor(fn Extractor) *Pipeline {
	p.extract = fn
	return p
}

// File ingests a single document. The upload is spooled to a temp file that
// is removed on every exit path; only chunk text and vectors survive the
// call. Chunk ids are derived from the document content hash and chunk
// index, so re-ingesting the same file overwrites rather than duplicates.
func (p *Pipeline) File(ctx context.Context, filename string, r io.Reader) (models.FileResult, error) {
	res := models.FileResult{Filename: filename}

	tmp, err := os.CreateTemp("", "studybot-upload-*.pdf")
	if err != nil {
		return res, fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	if _, err := io.Copy(tmp, r); err != nil {
		return res, fmt.Errorf("spool upload: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return res, fmt.Errorf("rewind temp file: %w", err)
	}
	docID, err := util.SHA256HexFromReader(tmp)
	if err != nil {
		return res, fmt.Errorf("hash upload: %w", err)
	}
	res.DocID = docID

	text, err := p.extract(tmp.Name())
	if err != nil {
		return res, err
	}

	parts, err := util.Chunks(text, p.chunkSize, p.chunkOverlap)
	if err != nil {
		return res, err
	}
	chunks := make([]models.Chunk, 0, len(parts))
	for i, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		chunkID := util.SHA256Hex([]byte(fmt.Sprintf("%s:%d:%s", docID, i, util.SHA256Hex([]byte(part)))))
		chunks = append(chunks, models.Chunk{
			ChunkID: chunkID,
			DocID:   docID,
			Source:  filename,
			Index:   i,
			Text:    part,
		})
	}
	if len(chunks) == 0 {
		return res, util.ErrNoExtractableText
	}

	texts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		texts = append(texts, c.Text)
	}
	vectors, err := p.embedder.EmbedMany(ctx, texts)
	if err != nil {
		return res, err
	}
	if len(vectors) != len(chunks) {
		return res, &providers.EmbedError{Provider: "batch", Err: fmt.Errorf("got %d vectors for %d chunks", len(vectors), len(chunks))}
	}

	entries := make([]vector.Entry, 0, len(chunks))
	for i, c := range chunks {
		entries = append(entries, vector.Entry{
			ID:       c.ChunkID,
			Values:   vectors[i],
			Metadata: vector.Metadata{Text: c.Text, Source: c.Source},
		})
	}
	if err := p.store.Upsert(ctx, entries); err != nil {
		return res, err
	}

	res.ChunksAdded = len(entries)
	p.log.Info().
		Str("file", filename).
		Str("doc_id", docID[:12]).
		Int("chunks", len(entries)).
		Msg("ingested document")
	return res, nil
}

// Batch ingests the files independently: one failure is reported in its
// result and the rest of the batch continues.
func (p *Pipeline) Batch(ctx context.Context, uploads []Upload) Report {
	rep := Report{Results: make([]models.FileResult, 0, len(uploads))}
	for _, u := range uploads {
		res, err := p.File(ctx, u.Filename, u.Reader)
		if err != nil {
			res.Error = err.Error()
			p.log.Warn().Err(err).Str("file", u.Filename).Msg("ingest failed")
		} else {
			rep.ChunksAdded += res.ChunksAdded
			rep.FilesAdded++
		}
		rep.Results = append(rep.Results, res)
	}
	return rep
}
