package parser

import (
	"regexp"
	"slices"
	"unicode/utf8"

	"github.com/dgallion1/secgest/internal/filing"
)

const minPatternContent = 100

var (
	// A line of 10 to 80 upper-case letters, spaces and heading punctuation.
	capsLineRe = regexp.MustCompile(`(?m)^[ \t]*([A-Z][A-Z ,&'’.\-()]{9,79})[ \t]*$`)
	// A line starting with PART or ITEM and a numeral designator.
	partItemRe = regexp.MustCompile(`(?m)^[ \t]*((?:PART|Part|ITEM|Item)[ \t]+[IVXLC0-9]+[A-Z]?\b\.?[^\n]*)$`)
)

type titleMatch struct {
	start, end int
	title      string
}

// patternSections scans the line-rendered text for headings written as
// plain text. Content runs from the end of a heading line to the start of
// the next heading line of either pattern.
func patternSections(doc *Document) ([]filing.Section, error) {
	text := doc.Lines
	var matches []titleMatch
	for _, re := range []*regexp.Regexp{capsLineRe, partItemRe} {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			matches = append(matches, titleMatch{start: m[0], end: m[1], title: text[m[2]:m[3]]})
		}
	}
	slices.SortStableFunc(matches, func(a, b titleMatch) int { return a.start - b.start })

	// Both patterns can claim the same line; keep the first.
	merged := matches[:0]
	for _, m := range matches {
		if len(merged) > 0 && m.start < merged[len(merged)-1].end {
			continue
		}
		merged = append(merged, m)
	}

	var out []filing.Section
	for i, m := range merged {
		title := Canonicalize(m.title)
		if !IsTargetSection(title) {
			continue
		}
		end := len(text)
		if i+1 < len(merged) {
			end = merged[i+1].start
		}
		content := spanText(text, m.end, end)
		if utf8.RuneCountInString(content) <= minPatternContent {
			continue
		}
		out = append(out, filing.Section{Title: title, Text: content, Level: 1})
	}
	return out, nil
}
