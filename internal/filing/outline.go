package filing

// Outline is the heading hierarchy of an HTML filing.
type Outline struct {
	Title    string         // From <title>, or the locator stem
	Children []*OutlineNode // Top-level headings
}

// OutlineNode is one heading and the text that follows it up to the next
// heading of the same or higher rank.
type OutlineNode struct {
	Title    string
	Rank     int // Heading rank, 1 for h1
	Text     string
	Children []*OutlineNode
}

// Walk visits every node depth-first, passing its depth (1 for top level).
func (o *Outline) Walk(fn func(n *OutlineNode, depth int)) {
	var walk func(nodes []*OutlineNode, depth int)
	walk = func(nodes []*OutlineNode, depth int) {
		for _, n := range nodes {
			fn(n, depth)
			walk(n.Children, depth+1)
		}
	}
	walk(o.Children, 1)
}
