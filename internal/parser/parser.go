package parser

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/dgallion1/secgest/internal/filing"
)

// Parser converts one raw filing into validated chunks. It holds no
// per-document state and is safe for concurrent use.
type Parser struct {
	log         *slog.Logger
	locator     *Locator
	builder     *Builder
	partitioner Partitioner
	observer    Observer
}

// Option configures a Parser.
type Option func(*Parser)

// WithPartitioner replaces the default block partitioner.
func WithPartitioner(p Partitioner) Option {
	return func(ps *Parser) { ps.partitioner = p }
}

// WithSectionObserver reports how many sections each strategy found.
func WithSectionObserver(o Observer) Option {
	return func(ps *Parser) { ps.observer = o }
}

// New creates a Parser. A nil logger discards output.
func New(log *slog.Logger, opts ...Option) *Parser {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	p := &Parser{log: log}
	for _, opt := range opts {
		opt(p)
	}
	var locOpts []LocatorOption
	if p.observer != nil {
		locOpts = append(locOpts, WithObserver(p.observer))
	}
	p.locator = NewLocator(log, locOpts...)
	p.builder = NewBuilder(log, p.partitioner)
	return p
}

// Result is a parsed filing with the facts gathered along the way.
type Result struct {
	Chunks     []filing.Chunk
	FilingType filing.FilingType
	Encoding   string
	Sections   []filing.Section
	Duration   time.Duration
}

// Parse decodes, cleans and chunks one filing. The only error is an
// undecodable input; every structural problem degrades to fewer chunks.
func (p *Parser) Parse(doc filing.RawDocument) ([]filing.Chunk, error) {
	res, err := p.ParseDetailed(doc)
	if err != nil {
		return nil, err
	}
	return res.Chunks, nil
}

// ParseDetailed is Parse plus the detected sections, encoding and timing.
func (p *Parser) ParseDetailed(doc filing.RawDocument) (*Result, error) {
	start := time.Now()
	log := p.log.With("source", doc.Locator)

	text, encoding, err := Decode(doc.Content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", doc.Locator, err)
	}

	clean := Normalize(text)
	ft := DetectFilingType(clean)
	if ft == filing.TypeUnknown {
		ft = FilingTypeFromLabel(doc.FormType)
	}

	sections := p.locator.Locate(clean)
	if len(sections) == 0 {
		log.Info("no sections found, chunking whole document")
	}

	chunks := ValidateChunks(p.builder.Build(sections, clean, ft))
	for i := range chunks {
		chunks[i].Source = doc.Locator
	}

	res := &Result{
		Chunks:     chunks,
		FilingType: ft,
		Encoding:   encoding,
		Sections:   sections,
		Duration:   time.Since(start),
	}
	log.Info("filing parsed",
		"filing_type", ft,
		"encoding", encoding,
		"sections", len(sections),
		"chunks", len(chunks),
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

// FilingTypeFromLabel maps a nominal form label or saved filename stem
// ("s-1", "s-1-a-2024-01-05", "final-prospectus", "424B4") to a filing
// type.
func FilingTypeFromLabel(label string) filing.FilingType {
	l := strings.ToUpper(strings.TrimSpace(label))
	switch {
	case l == "":
		return filing.TypeUnknown
	case strings.HasPrefix(l, "S-1/A"), strings.HasPrefix(l, "S-1-A"), strings.HasPrefix(l, "S1A"):
		return filing.TypeS1A
	case strings.HasPrefix(l, "S-1"), l == "S1":
		return filing.TypeS1
	case strings.HasPrefix(l, "424B4"), strings.HasPrefix(l, "FINAL-PROSPECTUS"):
		return filing.Type424B4
	case strings.Contains(l, "PROSPECTUS"):
		return filing.TypeProspectus
	}
	return filing.TypeUnknown
}
