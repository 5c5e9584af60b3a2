package parser

import (
	"regexp"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/dgallion1/secgest/internal/filing"
)

const (
	minEmphasisTitle   = 5   // raw title must be longer than this
	maxEmphasisTitle   = 120 // longer bold runs are prose, not headings
	minEmphasisContent = 100
)

var boldStyleRe = regexp.MustCompile(`(?i)font-weight\s*:\s*(bold|bolder|[6-9]00)`)

// emphasisSections finds bold pseudo-headings, which many issuers use in
// place of heading tags.
func emphasisSections(doc *Document) ([]filing.Section, error) {
	var out []filing.Section
	doc.Query.Find("b, strong, span, font").Each(func(_ int, s *goquery.Selection) {
		n := s.Nodes[0]
		title, ok := emphasisTitle(n)
		if !ok {
			return
		}
		text := forwardText(n, stopsEmphasis, maxEmphasisContent)
		if utf8.RuneCountInString(text) <= minEmphasisContent {
			return
		}
		out = append(out, filing.Section{Title: title, Text: text, Level: 2})
	})
	return out, nil
}

// emphasisTitle returns the canonical title of a bold element that names
// a known section.
func emphasisTitle(n *html.Node) (string, bool) {
	if !isEmphasis(n) {
		return "", false
	}
	raw := inlineText(n)
	if l := utf8.RuneCountInString(raw); l <= minEmphasisTitle || l > maxEmphasisTitle {
		return "", false
	}
	title := Canonicalize(raw)
	if !IsTargetSection(title) {
		return "", false
	}
	return title, true
}

func isEmphasis(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.Data {
	case "b", "strong":
		return true
	case "span", "font":
		for _, a := range n.Attr {
			if a.Key == "style" && boldStyleRe.MatchString(a.Val) {
				return true
			}
		}
	}
	return false
}

func stopsEmphasis(n *html.Node) bool {
	if isHeadingTag(n.Data) {
		return true
	}
	_, ok := emphasisTitle(n)
	return ok
}
