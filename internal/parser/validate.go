package parser

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/secgest/internal/filing"
)

const minMeaningfulChars = 20

var (
	financialRe = regexp.MustCompile(`\$\s?\d[\d,]*(\.\d+)?|\d+(\.\d+)?\s?%|\d+\.\d+`)
	symbolRe    = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
)

// HasFinancialData reports dollar amounts, percentages or decimal numbers.
func HasFinancialData(text string) bool {
	return financialRe.MatchString(text)
}

// ValidateChunks collapses whitespace, drops chunks that are out of bounds
// or carry too little text, and recomputes derived fields. Order is kept and
// a second pass changes nothing.
func ValidateChunks(chunks []filing.Chunk) []filing.Chunk {
	out := make([]filing.Chunk, 0, len(chunks))
	for _, c := range chunks {
		text := collapseWhitespace(c.Text)
		n := utf8.RuneCountInString(text)
		if n < MinChunkChars || n > MaxChunkChars {
			continue
		}
		if utf8.RuneCountInString(strings.TrimSpace(symbolRe.ReplaceAllString(text, ""))) < minMeaningfulChars {
			continue
		}
		c.Text = text
		c.ChunkLength = n
		c.WordCount = len(strings.Fields(text))
		c.HasFinancialData = HasFinancialData(text)
		out = append(out, c)
	}
	return out
}
