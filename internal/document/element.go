package document

import (
	"strings"

	"golang.org/x/net/html"
)

// Element is a read-only handle to one element of the parsed tree.
type Element struct {
	node *html.Node
}

// Tag returns the lowercase tag name.
func (e Element) Tag() string {
	if e.node == nil {
		return ""
	}
	return e.node.Data
}

// Attr returns the value of the named attribute. Attribute names are
// matched case-insensitively.
func (e Element) Attr(name string) (string, bool) {
	if e.node == nil {
		return "", false
	}
	for _, a := range e.node.Attr {
		if strings.EqualFold(a.Key, name) {
			return a.Val, true
		}
	}
	return "", false
}

// Text returns the element's descendant text with whitespace collapsed.
// Text inside nested script and style elements is not rendered and is
// skipped.
func (e Element) Text() string {
	if e.node == nil {
		return ""
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n != e.node && n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(e.node)
	return collapseSpace(b.String())
}

// Node exposes the underlying parse tree node.
func (e Element) Node() *html.Node { return e.node }

// Heading is an h1..h6 element tagged with its numeric level.
type Heading struct {
	Level   int
	Text    string
	Element Element
}
