package parser

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"github.com/dgallion1/secgest/internal/filing"
)

// headingSections finds h1..h4 elements naming a known section. Content is
// every following sibling up to the next heading with the same tag, and the
// structural level is the heading rank.
func headingSections(doc *Document) ([]filing.Section, error) {
	var out []filing.Section
	for level := 1; level <= 4; level++ {
		tag := fmt.Sprintf("h%d", level)
		doc.Query.Find(tag).Each(func(_ int, s *goquery.Selection) {
			n := s.Nodes[0]
			title := Canonicalize(inlineText(n))
			if !IsTargetSection(title) {
				return
			}
			text := siblingText(n, tag)
			if text == "" {
				return
			}
			out = append(out, filing.Section{Title: title, Text: text, Level: level})
		})
	}
	return out, nil
}
