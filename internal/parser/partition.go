package parser

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/dgallion1/secgest/internal/filing"
)

// Element is one structural piece of section text or of a whole document.
type Element struct {
	Type string // filing.ElementParagraph, ElementTitle, ElementListItem or ElementTable
	Text string
}

// Partitioner splits text into structural elements.
type Partitioner interface {
	// Partition splits extracted section text, one block per line.
	Partition(text string) ([]Element, error)
	// PartitionHTML splits a whole cleaned document.
	PartitionHTML(cleanHTML string) ([]Element, error)
}

// BlockPartitioner is the default Partitioner. It treats every leaf block
// element as one element and classifies it by shape.
type BlockPartitioner struct{}

var (
	listItemRe     = regexp.MustCompile(`^(?:[•●◦▪·\-*]|\(?(?:[a-z]|\d{1,2}|[ivx]{1,4})[.)])\s+`)
	numericTokenRe = regexp.MustCompile(`^[$(]*-?[\d,]*\d(\.\d+)?%?\)?$`)
)

const (
	maxTitleChars = 100
	// maxRowLabelChars bounds a single-cell line kept inside a table, such
	// as "Stockholders' equity:".
	maxRowLabelChars = 80
)

func (BlockPartitioner) Partition(text string) ([]Element, error) {
	var out []Element
	lines := strings.Split(text, "\n")
	for i := 0; i < len(lines); i++ {
		if isTableRow(lines[i]) {
			end := tableEnd(lines, i)
			rows := make([]string, 0, end-i)
			for _, l := range lines[i:end] {
				if l = collapseWhitespace(l); l != "" {
					rows = append(rows, l)
				}
			}
			out = append(out, Element{Type: filing.ElementTable, Text: strings.Join(rows, "\n")})
			i = end - 1
			continue
		}
		line := collapseWhitespace(lines[i])
		if line == "" {
			continue
		}
		out = append(out, Element{Type: classifyLine(line), Text: line})
	}
	return out, nil
}

// tableEnd returns the index just past the run of table rows starting at
// start. Short label lines between two rows stay in the table.
func tableEnd(lines []string, start int) int {
	end := start + 1
	for end < len(lines) {
		if isTableRow(lines[end]) {
			end++
			continue
		}
		label := collapseWhitespace(lines[end])
		if label != "" && utf8.RuneCountInString(label) <= maxRowLabelChars &&
			end+1 < len(lines) && isTableRow(lines[end+1]) {
			end += 2
			continue
		}
		break
	}
	return end
}

func (BlockPartitioner) PartitionHTML(cleanHTML string) ([]Element, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(cleanHTML))
	if err != nil {
		return nil, fmt.Errorf("partition html: %w", err)
	}
	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}
	if root.Length() == 0 {
		return nil, nil
	}

	var out []Element
	add := func(typ, text string) {
		if text != "" {
			out = append(out, Element{Type: typ, Text: text})
		}
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if t := collapseWhitespace(n.Data); t != "" {
				add(classifyLine(t), t)
			}
			return
		case html.ElementNode:
			switch {
			case n.Data == "head":
				return
			case isHeadingTag(n.Data):
				add(filing.ElementTitle, inlineText(n))
				return
			case n.Data == "table":
				add(filing.ElementTable, nodeText(n))
				return
			case n.Data == "li" && !hasBlockDescendant(n):
				add(filing.ElementListItem, inlineText(n))
				return
			case isBlock(n) && !hasBlockDescendant(n):
				if t := inlineText(n); t != "" {
					add(classifyLine(t), t)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root.Nodes[0])
	return out, nil
}

// classifyLine guesses the structural category of one rendered block.
func classifyLine(line string) string {
	switch {
	case listItemRe.MatchString(line):
		return filing.ElementListItem
	case looksTabular(line):
		return filing.ElementTable
	case looksLikeTitle(line):
		return filing.ElementTitle
	}
	return filing.ElementParagraph
}

// looksTabular reports rows dominated by numbers, as rendered from
// financial tables.
func looksTabular(line string) bool {
	fields := strings.Fields(line)
	numeric := 0
	for _, f := range fields {
		if numericTokenRe.MatchString(f) {
			numeric++
		}
	}
	return numeric >= 4 && numeric*5 >= len(fields)*2
}

func looksLikeTitle(line string) bool {
	if utf8.RuneCountInString(line) > maxTitleChars {
		return false
	}
	last, _ := utf8.DecodeLastRuneInString(line)
	if last == '.' || last == ':' || last == ';' || last == ',' {
		return false
	}
	if IsTargetSection(line) {
		return true
	}
	hasLetter := false
	for _, r := range line {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasLetter
}
