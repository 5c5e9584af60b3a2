package parser

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/secgest/internal/chunker"
	"github.com/dgallion1/secgest/internal/filing"
)

const (
	// MinChunkChars and MaxChunkChars bound every validated chunk.
	MinChunkChars = 30
	MaxChunkChars = 8000

	minElementChars = 50
)

// Builder turns located sections, or a whole document when none were
// found, into chunks carrying section and filing metadata.
type Builder struct {
	log         *slog.Logger
	partitioner Partitioner
	split       chunker.Config
}

// NewBuilder creates a Builder. A nil partitioner uses BlockPartitioner.
func NewBuilder(log *slog.Logger, p Partitioner) *Builder {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if p == nil {
		p = BlockPartitioner{}
	}
	return &Builder{
		log:         log,
		partitioner: p,
		split:       chunker.Config{MaxChars: MaxChunkChars},
	}
}

// Build emits one chunk per qualifying element of each section. With no
// sections it partitions fallbackHTML and labels chunks UNKNOWN.
func (b *Builder) Build(sections []filing.Section, fallbackHTML string, ft filing.FilingType) []filing.Chunk {
	if len(sections) == 0 {
		return b.buildFallback(fallbackHTML, ft)
	}

	var chunks []filing.Chunk
	for _, s := range sections {
		elements, err := partitionSafely(func() ([]Element, error) { return b.partitioner.Partition(s.Text) })
		if err != nil || len(elements) == 0 {
			if err != nil {
				b.log.Warn("section partition failed, keeping raw text", "section", s.Title, "error", err)
			}
			for _, piece := range chunker.Split(s.Text, b.split) {
				chunks = append(chunks, newChunk(piece, filing.ElementRawSection, s.Title, s.Level, ft))
			}
			continue
		}
		chunks = b.appendElements(chunks, elements, s.Title, s.Level, ft)
	}
	return chunks
}

func (b *Builder) buildFallback(cleanHTML string, ft filing.FilingType) []filing.Chunk {
	elements, err := partitionSafely(func() ([]Element, error) { return b.partitioner.PartitionHTML(cleanHTML) })
	if err != nil {
		b.log.Error("document partition failed", "error", err)
		return []filing.Chunk{}
	}
	return b.appendElements([]filing.Chunk{}, elements, filing.UnknownSection, 0, ft)
}

func (b *Builder) appendElements(chunks []filing.Chunk, elements []Element, title string, level int, ft filing.FilingType) []filing.Chunk {
	for _, el := range elements {
		text := strings.TrimSpace(el.Text)
		if utf8.RuneCountInString(text) < minElementChars {
			continue
		}
		typ := el.Type
		if typ == "" {
			typ = filing.ElementChunk
		}
		for _, piece := range chunker.Split(text, b.split) {
			chunks = append(chunks, newChunk(piece, typ, title, level, ft))
		}
	}
	return chunks
}

func partitionSafely(fn func() ([]Element, error)) (elements []Element, err error) {
	defer func() {
		if r := recover(); r != nil {
			elements, err = nil, fmt.Errorf("partition panic: %v", r)
		}
	}()
	return fn()
}

func newChunk(text, elementType, title string, level int, ft filing.FilingType) filing.Chunk {
	return filing.Chunk{
		Text:             text,
		ElementType:      elementType,
		SectionTitle:     title,
		SectionLevel:     level,
		FilingType:       ft,
		ChunkLength:      utf8.RuneCountInString(text),
		WordCount:        len(strings.Fields(text)),
		HasFinancialData: HasFinancialData(text),
	}
}
