package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var (
	tocMarkerRe = regexp.MustCompile(`(?i)table of contents|\bindex\b`)
	// "<title> ...... <page>" or "<title> <page>" as rendered from a table row.
	tocLineRe = regexp.MustCompile(`^(.*?[A-Za-z].*?)(?:[ \t]*[.·_]{2,}[ \t]*|[ \t]+)(\d{1,4})$`)
)

// tocEntries reads page numbers from any table of contents in the filing.
// Entries whose title does not name a known section are skipped.
func tocEntries(doc *Document) ([]TOCEntry, error) {
	var entries []TOCEntry
	seen := make(map[*html.Node]bool)

	doc.Query.Find("body *").Each(func(_ int, s *goquery.Selection) {
		for c := s.Nodes[0].FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.TextNode || !tocMarkerRe.MatchString(c.Data) {
				continue
			}
			container := tocContainer(s)
			if container == nil || seen[container] {
				continue
			}
			seen[container] = true
			entries = append(entries, parseTOCLines(nodeText(container))...)
		}
	})
	return entries, nil
}

// tocContainer picks the element holding the entries for a marker: the
// enclosing table, else the next table after the marker's block, else the
// marker's parent.
func tocContainer(marker *goquery.Selection) *html.Node {
	if t := marker.Closest("table"); t.Length() > 0 {
		return t.Nodes[0]
	}
	block := marker
	for block.Length() > 0 && !isBlock(block.Nodes[0]) {
		block = block.Parent()
	}
	if block.Length() == 0 {
		return nil
	}
	if t := block.NextAllFiltered("table").First(); t.Length() > 0 {
		return t.Nodes[0]
	}
	if p := block.Parent(); p.Length() > 0 {
		return p.Nodes[0]
	}
	return block.Nodes[0]
}

func parseTOCLines(text string) []TOCEntry {
	var out []TOCEntry
	for _, line := range strings.Split(text, "\n") {
		m := tocLineRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		title := Canonicalize(m[1])
		if !IsTargetSection(title) {
			continue
		}
		page, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		out = append(out, TOCEntry{Title: title, Page: page})
	}
	return out
}
