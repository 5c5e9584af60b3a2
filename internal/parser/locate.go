package parser

import (
	"cmp"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/dgallion1/secgest/internal/filing"
)

// Document is a cleaned filing prepared once and shared by every strategy.
type Document struct {
	HTML  string
	Query *goquery.Document
	// Lines is the document text with one block element per line.
	Lines string
}

// NewDocument parses cleaned HTML for the locator strategies.
func NewDocument(cleanHTML string) (*Document, error) {
	q, err := goquery.NewDocumentFromReader(strings.NewReader(cleanHTML))
	if err != nil {
		return nil, fmt.Errorf("parse cleaned html: %w", err)
	}
	doc := &Document{HTML: cleanHTML, Query: q}
	if body := q.Find("body"); body.Length() > 0 {
		doc.Lines = nodeText(body.Nodes[0])
	} else if len(q.Nodes) > 0 {
		doc.Lines = nodeText(q.Nodes[0])
	}
	return doc, nil
}

// Strategy is one independent section-detection heuristic.
type Strategy struct {
	Name string
	Find func(doc *Document) ([]filing.Section, error)
}

// TOCEntry is a table-of-contents line naming a known section.
type TOCEntry struct {
	Title string
	Page  int
}

// Observer receives per-strategy section counts.
type Observer interface {
	SectionsFound(strategy string, n int)
}

// DefaultStrategies returns the built-in strategies in the order they run.
func DefaultStrategies() []Strategy {
	return []Strategy{
		{Name: "headings", Find: headingSections},
		{Name: "emphasis", Find: emphasisSections},
		{Name: "patterns", Find: patternSections},
		{Name: "outline", Find: outlineSections},
	}
}

// Locator finds known regulatory sections in cleaned filing HTML.
type Locator struct {
	log        *slog.Logger
	strategies []Strategy
	toc        func(doc *Document) ([]TOCEntry, error)
	observer   Observer
}

// LocatorOption configures a Locator.
type LocatorOption func(*Locator)

// WithStrategies replaces the default strategy set.
func WithStrategies(s ...Strategy) LocatorOption {
	return func(l *Locator) { l.strategies = s }
}

// WithObserver reports section counts per strategy.
func WithObserver(o Observer) LocatorOption {
	return func(l *Locator) { l.observer = o }
}

// NewLocator creates a Locator. A nil logger discards output.
func NewLocator(log *slog.Logger, opts ...LocatorOption) *Locator {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	l := &Locator{
		log:        log,
		strategies: DefaultStrategies(),
		toc:        tocEntries,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Locate runs every strategy over cleanHTML and returns the pooled sections
// sorted by (level, title) with duplicate titles removed.
func (l *Locator) Locate(cleanHTML string) []filing.Section {
	doc, err := NewDocument(cleanHTML)
	if err != nil {
		l.log.Warn("locate: document unreadable", "error", err)
		return nil
	}

	var pooled []filing.Section
	for _, s := range l.strategies {
		found, err := runStrategy(s, doc)
		if err != nil {
			l.log.Warn("section strategy failed", "strategy", s.Name, "error", err)
			continue
		}
		l.log.Debug("section strategy done", "strategy", s.Name, "sections", len(found))
		if l.observer != nil {
			l.observer.SectionsFound(s.Name, len(found))
		}
		pooled = append(pooled, found...)
	}

	sections := dedupSections(pooled)

	entries, err := l.toc(doc)
	if err != nil {
		l.log.Warn("table of contents unreadable", "error", err)
		return sections
	}
	return crossReferenceTOC(sections, entries)
}

// runStrategy isolates a strategy so that a panic costs only its sections.
func runStrategy(s Strategy, doc *Document) (found []filing.Section, err error) {
	defer func() {
		if r := recover(); r != nil {
			found, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return s.Find(doc)
}

// dedupSections stable-sorts by (level, title) and keeps the first section
// seen for each title.
func dedupSections(in []filing.Section) []filing.Section {
	sorted := slices.Clone(in)
	slices.SortStableFunc(sorted, func(a, b filing.Section) int {
		if c := cmp.Compare(a.Level, b.Level); c != 0 {
			return c
		}
		return strings.Compare(a.Title, b.Title)
	})

	seen := make(map[string]bool, len(sorted))
	out := sorted[:0]
	for _, s := range sorted {
		if seen[s.Title] {
			continue
		}
		seen[s.Title] = true
		out = append(out, s)
	}
	return out
}

// crossReferenceTOC annotates sections with the page number listed in the
// table of contents. It never adds, drops or reorders sections; confirming
// section boundaries against page numbers is not attempted.
func crossReferenceTOC(sections []filing.Section, entries []TOCEntry) []filing.Section {
	if len(entries) == 0 {
		return sections
	}
	pages := make(map[string]int, len(entries))
	for _, e := range entries {
		if _, ok := pages[e.Title]; !ok {
			pages[e.Title] = e.Page
		}
	}
	for i := range sections {
		if p, ok := pages[sections[i].Title]; ok && sections[i].PageNumber == 0 {
			sections[i].PageNumber = p
		}
	}
	return sections
}
