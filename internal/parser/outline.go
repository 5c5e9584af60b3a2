package parser

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/dgallion1/secgest/internal/filing"
)

// BuildOutline builds the heading hierarchy of an HTML document. Text that
// follows a heading attaches to it until the next heading of any rank.
func BuildOutline(doc *html.Node, fallbackTitle string) *filing.Outline {
	outline := &filing.Outline{Title: fallbackTitle}

	// Extract title from <title> tag if present.
	if t := findElement(doc, "title"); t != nil {
		if title := inlineText(t); title != "" {
			outline.Title = title
		}
	}

	type stackEntry struct {
		node *filing.OutlineNode
		rank int
	}
	root := &filing.OutlineNode{Title: outline.Title}
	stack := []stackEntry{{node: root, rank: 0}}
	var currentText strings.Builder

	flushText := func() {
		t := strings.TrimSpace(currentText.String())
		if t != "" {
			top := stack[len(stack)-1].node
			if top.Text != "" {
				top.Text += "\n" + t
			} else {
				top.Text = t
			}
		}
		currentText.Reset()
	}
	appendText := func(t string) {
		if t == "" {
			return
		}
		if currentText.Len() > 0 {
			currentText.WriteString("\n")
		}
		currentText.WriteString(t)
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			appendText(collapseWhitespace(n.Data))
			return
		case html.ElementNode:
			if rank := headingLevel(n.Data); rank > 0 {
				flushText()
				node := &filing.OutlineNode{Title: inlineText(n), Rank: rank}
				for len(stack) > 1 && stack[len(stack)-1].rank >= rank {
					stack = stack[:len(stack)-1]
				}
				parent := stack[len(stack)-1].node
				parent.Children = append(parent.Children, node)
				stack = append(stack, stackEntry{node: node, rank: rank})
				return
			}

			switch n.Data {
			case "head", "nav", "footer", "header":
				return
			}
			// Leaf blocks and whole tables are taken as one run of text.
			if n.Data == "table" || (isBlock(n) && !hasBlockDescendant(n)) {
				appendText(nodeText(n))
				return
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	if body := findElement(doc, "body"); body != nil {
		walk(body)
	} else {
		walk(doc)
	}
	flushText()

	outline.Children = root.Children
	if len(outline.Children) == 0 && root.Text != "" {
		outline.Children = []*filing.OutlineNode{{Text: root.Text}}
	}
	return outline
}

// outlineSections emits outline nodes naming a known section, with the
// text of the node and all of its descendants.
func outlineSections(doc *Document) ([]filing.Section, error) {
	if len(doc.Query.Nodes) == 0 {
		return nil, nil
	}
	outline := BuildOutline(doc.Query.Nodes[0], "")

	var out []filing.Section
	outline.Walk(func(n *filing.OutlineNode, depth int) {
		title := Canonicalize(n.Title)
		if !IsTargetSection(title) {
			return
		}
		text := subtreeText(n)
		if text == "" {
			return
		}
		out = append(out, filing.Section{Title: title, Text: text, Level: min(depth, 2)})
	})
	return out, nil
}

func subtreeText(n *filing.OutlineNode) string {
	parts := make([]string, 0, 1+len(n.Children))
	if n.Text != "" {
		parts = append(parts, n.Text)
	}
	for _, c := range n.Children {
		if c.Title != "" {
			parts = append(parts, c.Title)
		}
		if t := subtreeText(c); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n")
}

func hasBlockDescendant(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if isBlock(c) || hasBlockDescendant(c) {
			return true
		}
	}
	return false
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}
