package parser

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// xbrlPrefixes are inline-XBRL namespaces whose tags wrap filing text.
var xbrlPrefixes = []string{"ix:", "us-gaap:", "dei:"}

// Normalize strips non-content markup from a filing and collapses
// whitespace in text nodes, keeping the element structure intact. It never
// fails: if the tree cannot be rendered the collapsed input is returned.
func Normalize(rawHTML string) string {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return collapseWhitespace(rawHTML)
	}

	cleanNode(doc)

	var sb strings.Builder
	if err := html.Render(&sb, doc); err != nil {
		return collapseWhitespace(rawHTML)
	}
	return sb.String()
}

func cleanNode(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		switch c.Type {
		case html.ElementNode:
			if isNonContent(c.Data) {
				n.RemoveChild(c)
				break
			}
			cleanNode(c)
			if isXBRLTag(c.Data) {
				next = unwrap(c)
			}
		case html.TextNode:
			if collapsed := collapseWhitespace(c.Data); collapsed != c.Data {
				c.Data = collapsed
			}
		case html.CommentNode:
			n.RemoveChild(c)
		}
		c = next
	}
}

func isNonContent(tag string) bool {
	switch tag {
	case "script", "style", "meta", "link":
		return true
	}
	return false
}

func isXBRLTag(tag string) bool {
	for _, p := range xbrlPrefixes {
		if strings.HasPrefix(tag, p) {
			return true
		}
	}
	return false
}

// unwrap moves n's children in front of n, removes n, and returns the node
// that followed n so iteration can continue.
func unwrap(n *html.Node) *html.Node {
	parent := n.Parent
	next := n.NextSibling
	for c := n.FirstChild; c != nil; {
		cn := c.NextSibling
		n.RemoveChild(c)
		parent.InsertBefore(c, n)
		c = cn
	}
	parent.RemoveChild(n)
	return next
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
