package parser

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

const (
	// maxEmphasisContent caps forward collection after an emphasis heading.
	maxEmphasisContent = 10000
	// maxCellChars bounds a data cell; larger cells are page layout.
	maxCellChars = 400
)

var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"body": true, "br": true, "center": true, "dd": true, "div": true,
	"dl": true, "dt": true, "footer": true, "form": true, "h1": true,
	"h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "main": true, "ol": true,
	"p": true, "pre": true, "section": true, "table": true, "tbody": true,
	"thead": true, "tfoot": true, "title": true, "tr": true, "ul": true,
	"caption": true,
}

func isBlock(n *html.Node) bool {
	return n.Type == html.ElementNode && blockTags[n.Data]
}

// textWriter accumulates rendered text: inline text joined by single
// spaces, block boundaries as newlines. Table rows render as one line with
// data cells separated by tabs.
type textWriter struct {
	sb        strings.Builder
	runes     int
	cellDepth int
	cellBreak bool
}

func (w *textWriter) text(s string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}
	if w.sb.Len() > 0 && !w.endsWith('\n') {
		if w.cellBreak {
			w.sb.WriteByte('\t')
		} else {
			w.sb.WriteByte(' ')
		}
		w.runes++
	}
	w.cellBreak = false
	w.sb.WriteString(s)
	w.runes += utf8.RuneCountInString(s)
}

// block ends the current line, except inside a data cell where the whole
// cell stays on its row.
func (w *textWriter) block() {
	if w.cellDepth > 0 {
		return
	}
	w.cellBreak = false
	if w.sb.Len() > 0 && !w.endsWith('\n') {
		w.sb.WriteByte('\n')
		w.runes++
	}
}

// cell marks the start of a table cell; its text is tab-separated from the
// previous cell on the row.
func (w *textWriter) cell() {
	if w.cellDepth == 0 {
		w.cellBreak = true
	}
}

func (w *textWriter) endsWith(b byte) bool {
	s := w.sb.String()
	return len(s) > 0 && s[len(s)-1] == b
}

// String returns the rendered lines, each whitespace-collapsed, with empty
// lines dropped.
func (w *textWriter) String() string {
	return cleanLines(w.sb.String())
}

func cleanLines(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, l := range lines {
		if l = cleanRow(l); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

// cleanRow collapses whitespace within each tab-separated cell and drops
// empty cells. Currency and percent signs set in their own cells are
// joined to the figure they belong to.
func cleanRow(l string) string {
	if !strings.Contains(l, "\t") {
		return collapseWhitespace(l)
	}
	var out []string
	prefix := ""
	for _, c := range strings.Split(l, "\t") {
		c = collapseWhitespace(c)
		switch {
		case c == "":
			continue
		case c == "$":
			prefix += c
			continue
		case (c == "%" || c == ")" || c == "%)") && prefix == "" && len(out) > 0:
			out[len(out)-1] += c
			continue
		}
		out = append(out, prefix+c)
		prefix = ""
	}
	if prefix != "" {
		out = append(out, prefix)
	}
	return strings.Join(out, "\t")
}

// render writes n and its subtree into w.
func render(w *textWriter, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		w.text(n.Data)
		return
	case html.CommentNode, html.DoctypeNode:
		return
	}
	if isDataCell(n) {
		w.cell()
		w.cellDepth++
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			render(w, c)
		}
		w.cellDepth--
		return
	}
	block := isBlock(n)
	if block {
		w.block()
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		render(w, c)
	}
	if block {
		w.block()
	}
}

// isDataCell reports a td or th small enough to be a figure or label
// rather than a layout container.
func isDataCell(n *html.Node) bool {
	if n.Type != html.ElementNode || (n.Data != "td" && n.Data != "th") {
		return false
	}
	return !containsMatch(n, isHeadingNode) && textRunes(n) <= maxCellChars
}

func isHeadingNode(n *html.Node) bool {
	return isHeadingTag(n.Data)
}

func textRunes(n *html.Node) int {
	if n.Type == html.TextNode {
		return utf8.RuneCountInString(strings.TrimSpace(n.Data))
	}
	total := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		total += textRunes(c)
	}
	return total
}

// isTableRow reports a rendered line holding two or more data cells.
func isTableRow(line string) bool {
	return strings.Contains(line, "\t")
}

// nodeText renders the text of n with block elements on their own lines.
func nodeText(n *html.Node) string {
	var w textWriter
	render(&w, n)
	return w.String()
}

// inlineText renders the text of n on one line.
func inlineText(n *html.Node) string {
	return collapseWhitespace(strings.ReplaceAll(nodeText(n), "\n", " "))
}

// siblingText collects the text of the nodes following start at the same
// depth until an element with stopTag is reached.
func siblingText(start *html.Node, stopTag string) string {
	var w textWriter
	for n := start.NextSibling; n != nil; n = n.NextSibling {
		if n.Type == html.ElementNode && n.Data == stopTag {
			break
		}
		w.block()
		render(&w, n)
	}
	return w.String()
}

// following returns the next node in document order outside n's subtree.
func following(n *html.Node) *html.Node {
	for ; n != nil; n = n.Parent {
		if n.NextSibling != nil {
			return n.NextSibling
		}
	}
	return nil
}

// forwardText walks the document in order from just after start's subtree,
// collecting text until stop reports true for an element or limit
// characters have been gathered.
func forwardText(start *html.Node, stop func(*html.Node) bool, limit int) string {
	var w textWriter
	n := following(start)
	for n != nil && w.runes < limit {
		switch n.Type {
		case html.TextNode:
			w.text(n.Data)
			n = following(n)
			continue
		case html.ElementNode:
			if stop(n) {
				return truncateRunes(w.String(), limit)
			}
			if isDataCell(n) && !containsMatch(n, stop) {
				render(&w, n)
				n = following(n)
				continue
			}
			if isBlock(n) {
				w.block()
			}
		}
		if n.FirstChild != nil {
			n = n.FirstChild
			continue
		}
		n = following(n)
	}
	return truncateRunes(w.String(), limit)
}

func containsMatch(n *html.Node, match func(*html.Node) bool) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if (c.Type == html.ElementNode && match(c)) || containsMatch(c, match) {
			return true
		}
	}
	return false
}

// spanText slices the text between two byte offsets of a rendered document.
func spanText(text string, from, to int) string {
	if from < 0 {
		from = 0
	}
	if to > len(text) {
		to = len(text)
	}
	if from >= to {
		return ""
	}
	return strings.TrimSpace(text[from:to])
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:limit]))
}

func isHeadingTag(tag string) bool {
	return headingLevel(tag) > 0
}

func headingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}
