// Package rag answers questions about indexed filings by retrieving the
// closest chunks and handing them to a generator as context.
package rag

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/dgallion1/secgest/internal/chunker"
	"github.com/dgallion1/secgest/internal/embed"
	"github.com/dgallion1/secgest/internal/llm"
	"github.com/dgallion1/secgest/internal/vectorstore"
)

const (
	// SystemPrompt frames every answer.
	SystemPrompt = "You are an expert in SEC document analysis."

	// SummaryQuestion is asked of each filing when a pre-IPO summary is requested.
	SummaryQuestion = "What are the major risks, financials, and use of proceeds?"
)

var (
	ErrEmptyQuestion = errors.New("question cannot be empty")
	// ErrNoContext is returned when the index has nothing to retrieve.
	ErrNoContext = errors.New("no indexed content to answer from")
)

// Params tunes retrieval and generation for one question.
type Params struct {
	TopK          int     `json:"top_k"`
	ContextWindow int     `json:"context_window"` // token budget for retrieved text
	Temperature   float32 `json:"temperature"`
	TopP          float32 `json:"top_p"`
	MaxTokens     int     `json:"max_tokens"`
	Model         string  `json:"model,omitempty"` // empty uses the generator's default
}

// DefaultParams are used for any non-positive count field.
func DefaultParams() Params {
	return Params{TopK: 5, ContextWindow: 3000, Temperature: 0.2, TopP: 1.0, MaxTokens: 1024}
}

// Source is a retrieved chunk cited by an answer.
type Source struct {
	ID           string  `json:"id"`
	SectionTitle string  `json:"section_title"`
	FilingType   string  `json:"filing_type"`
	Score        float64 `json:"score"`
}

type Answer struct {
	Text    string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// Observer is told the outcome of every answered question.
type Observer interface {
	Answered(err error)
}

// Answerer wires the embedder, index and generator together. Safe for
// concurrent use.
type Answerer struct {
	embedder  embed.Embedder
	store     vectorstore.Store
	generator llm.Generator
	defaults  Params
	log       *slog.Logger
	observer  Observer
}

// Option configures an Answerer.
type Option func(*Answerer)

func WithDefaults(p Params) Option {
	return func(a *Answerer) { a.defaults = p }
}

func WithObserver(o Observer) Option {
	return func(a *Answerer) { a.observer = o }
}

func New(e embed.Embedder, s vectorstore.Store, g llm.Generator, log *slog.Logger, opts ...Option) *Answerer {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	a := &Answerer{embedder: e, store: s, generator: g, defaults: DefaultParams(), log: log}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Defaults returns the parameters used when a caller leaves fields unset.
func (a *Answerer) Defaults() Params { return a.defaults }

func (a *Answerer) resolve(p Params) Params {
	if p.TopK <= 0 {
		p.TopK = a.defaults.TopK
	}
	if p.ContextWindow <= 0 {
		p.ContextWindow = a.defaults.ContextWindow
	}
	if p.MaxTokens <= 0 {
		p.MaxTokens = a.defaults.MaxTokens
	}
	if p.Model == "" {
		p.Model = a.defaults.Model
	}
	return p
}

// Retrieve embeds the question and returns the closest chunks that fit the
// context window, best first.
func (a *Answerer) Retrieve(ctx context.Context, question string, p Params) ([]vectorstore.Match, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	p = a.resolve(p)

	vec, err := a.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	matches, err := a.store.Query(ctx, vec, p.TopK)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}
	matches = TrimToWindow(matches, p.ContextWindow)
	if len(matches) == 0 {
		return nil, ErrNoContext
	}
	return matches, nil
}

// Answer retrieves context and generates a complete answer.
func (a *Answerer) Answer(ctx context.Context, question string, p Params) (ans *Answer, err error) {
	defer func() { a.observe(err) }()

	p = a.resolve(p)
	matches, err := a.Retrieve(ctx, question, p)
	if err != nil {
		return nil, err
	}
	text, err := a.generator.Generate(ctx, a.request(question, matches, p))
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}
	a.log.Info("question answered", "context_chunks", len(matches), "answer_chars", len(text))
	return &Answer{Text: text, Sources: sources(matches)}, nil
}

// AnswerStream is Answer with the generated text delivered through onDelta.
// The sources are known before generation starts and are passed to
// onSources first.
func (a *Answerer) AnswerStream(ctx context.Context, question string, p Params, onSources func([]Source) error, onDelta func(string) error) (err error) {
	defer func() { a.observe(err) }()

	p = a.resolve(p)
	matches, err := a.Retrieve(ctx, question, p)
	if err != nil {
		return err
	}
	if onSources != nil {
		if err := onSources(sources(matches)); err != nil {
			return err
		}
	}
	if err := a.generator.Stream(ctx, a.request(question, matches, p), onDelta); err != nil {
		return fmt.Errorf("stream answer: %w", err)
	}
	return nil
}

func (a *Answerer) request(question string, matches []vectorstore.Match, p Params) llm.Request {
	req := llm.UserPrompt(SystemPrompt, BuildPrompt(question, matches))
	req.Model = p.Model
	req.Temperature = p.Temperature
	req.TopP = p.TopP
	req.MaxTokens = p.MaxTokens
	return req
}

func (a *Answerer) observe(err error) {
	if a.observer != nil {
		a.observer.Answered(err)
	}
}

// TrimToWindow keeps matches in order while their estimated token total
// fits the window. The best match is always kept.
func TrimToWindow(matches []vectorstore.Match, window int) []vectorstore.Match {
	total := 0
	for i, m := range matches {
		total += chunker.EstimateTokens(m.Text)
		if total > window && i > 0 {
			return matches[:i]
		}
	}
	return matches
}

// BuildPrompt lays out the retrieved context, labeled by filing type and
// section, followed by the question.
func BuildPrompt(question string, matches []vectorstore.Match) string {
	var sb strings.Builder
	sb.WriteString("You are a financial assistant analyzing SEC filings. Use only the provided context to answer the question.\n\n")
	sb.WriteString("Context:\n")
	for i, m := range matches {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "[%s | %s]\n%s", metaString(m.Metadata, "filing_type"), metaString(m.Metadata, "section_title"), m.Text)
	}
	sb.WriteString("\n\nQuestion:\n")
	sb.WriteString(strings.TrimSpace(question))
	sb.WriteString("\n")
	return sb.String()
}

func sources(matches []vectorstore.Match) []Source {
	out := make([]Source, len(matches))
	for i, m := range matches {
		out[i] = Source{
			ID:           m.ID,
			SectionTitle: metaString(m.Metadata, "section_title"),
			FilingType:   metaString(m.Metadata, "filing_type"),
			Score:        m.Score,
		}
	}
	return out
}

func metaString(md map[string]any, key string) string {
	if v, ok := md[key].(string); ok && v != "" {
		return v
	}
	return "UNKNOWN"
}
