package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"studybot/internal/config"
	"studybot/internal/models"
	"studybot/internal/providers"
	"studybot/internal/util"
	"studybot/internal/vector"
)

// NoContextAnswer is returned verbatim when retrieval finds nothing, instead
// of letting the model answer from its own weights.
const NoContextAnswer = "I could not find anything relevant in the uploaded study materials. Try uploading the documents that cover this topic first."

const snippetRunes = 300

// Options bounds one retrieval: how many matches to fetch, how many of the
// best ones become prompt context, and the context character ceiling.
type Options struct {
	TopK            int
	ContextChunks   int
	MaxContextChars int
}

// Pipeline is the read side: embed the question, query the index, build a
// context-constrained prompt, generate and cite.
type Pipeline struct {
	embedder providers.Embedder
	gen      providers.Generator
	store    vector.Store
	defaults Options
	log      zerolog.Logger
}

func New(cfg config.Config, embedder providers.Embedder, gen providers.Generator, store vector.Store, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		embedder: embedder,
		gen:      gen,
		store:    store,
		defaults: Options{
			TopK:            cfg.TopK,
			ContextChunks:   cfg.ContextChunks,
			MaxContextChars: cfg.MaxContextChars,
		},
		log: log,
	}
}

// Answer runs the full question path. An empty index (or no matches) is not
// an error: the caller gets NoContextAnswer with no sources.
func (p *Pipeline) Answer(ctx context.Context, question string, opts Options) (models.Answer, error) {
	opts = p.fill(opts)

	qvec, err := p.embedder.Embed(ctx, question)
	if err != nil {
		return models.Answer{}, err
	}
	matches, err := p.store.Query(ctx, qvec, opts.TopK)
	if err != nil {
		return models.Answer{}, err
	}
	if len(matches) == 0 {
		return models.Answer{Text: NoContextAnswer, Sources: []models.Source{}}, nil
	}

	selected := matches
	if len(selected) > opts.ContextChunks {
		selected = selected[:opts.ContextChunks]
	}
	contextText := assembleContext(selected, opts.MaxContextChars)

	prompt := buildPrompt(question, contextText)
	text, err := p.gen.Generate(ctx, prompt)
	if err != nil {
		return models.Answer{}, err
	}

	p.log.Debug().
		Int("matches", len(matches)).
		Int("context_chunks", len(selected)).
		Int("context_chars", len(contextText)).
		Msg("answered question")
	return models.Answer{
		Text:    strings.TrimSpace(text),
		Sources: citations(selected, question),
	}, nil
}

func (p *Pipeline) fill(opts Options) Options {
	if opts.TopK <= 0 {
		opts.TopK = p.defaults.TopK
	}
	if opts.ContextChunks <= 0 {
		opts.ContextChunks = p.defaults.ContextChunks
	}
	if opts.MaxContextChars <= 0 {
		opts.MaxContextChars = p.defaults.MaxContextChars
	}
	return opts
}

// assembleContext joins whole chunks while they fit the budget. Only the
// first chunk is ever truncated mid-text, when it alone exceeds the budget;
// later oversized chunks are dropped whole so the prompt never contains a
// torn fragment after intact ones.
func assembleContext(matches []vector.Match, maxChars int) string {
	var b strings.Builder
	used := 0
	for i, m := range matches {
		text := m.Metadata.Text
		sep := 0
		if i > 0 {
			sep = 2
		}
		runes := []rune(text)
		if used+sep+len(runes) > maxChars {
			if i == 0 {
				b.WriteString(string(runes[:maxChars]))
			}
			break
		}
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(text)
		used += sep + len(runes)
	}
	return b.String()
}

func buildPrompt(question, contextText string) string {
	return fmt.Sprintf(`Use only the following context from the uploaded study materials to answer the question. If the context does not contain the answer, say you do not know rather than guessing.

Context:
%s

Question: %s

Answer:`, contextText, question)
}

// citations dedupes the selected matches by filename, keeping
// descending-score order, and attaches a short evidence preview from the
// best chunk of each file. Only chunks that made it into the prompt context
// are cited.
func citations(matches []vector.Match, question string) []models.Source {
	seen := make(map[string]bool, len(matches))
	out := make([]models.Source, 0, len(matches))
	for _, m := range matches {
		name := m.Metadata.Source
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, models.Source{
			Source:  name,
			Snippet: util.EvidenceSnippet(m.Metadata.Text, question, snippetRunes),
			Score:   m.Score,
		})
	}
	return out
}
