// Package document provides a read-only, lazily parsed view over one HTML
// page and the metadata declared for it.
//
// A Document never fails: empty or malformed markup degrades every derived
// view to nil or an empty collection. Derived views are computed at most once
// per Document and are safe to read from multiple goroutines.
package document

import (
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

// textPolicy strips every tag and drops the content of script, style and
// similar non-visible elements.
var textPolicy = bluemonday.StrictPolicy()

// Document is an immutable snapshot of one analyzable page.
type Document struct {
	id          string
	html        string
	title       string
	description string
	canonical   string
	robots      string
	hints       map[string]string

	parse func(io.Reader) (*html.Node, error)

	root      func() *html.Node
	query     func() *goquery.Document
	headings  func() []Heading
	byLevel   func() []Heading
	images    func() []Element
	anchors   func() []Element
	jsonLD    func() []string
	plainText func() string
}

// Option configures a Document at construction time.
type Option func(*Document)

// WithID sets the external identifier of the document (e.g. a post ID or URL).
func WithID(id string) Option {
	return func(d *Document) { d.id = id }
}

// WithTitle sets the declared title.
func WithTitle(title string) Option {
	return func(d *Document) { d.title = title }
}

// WithDescription sets the declared meta description.
func WithDescription(description string) Option {
	return func(d *Document) { d.description = description }
}

// WithCanonical sets the declared canonical URL.
func WithCanonical(canonical string) Option {
	return func(d *Document) { d.canonical = canonical }
}

// WithRobots sets the declared robots directive string.
func WithRobots(robots string) Option {
	return func(d *Document) { d.robots = robots }
}

// WithHint adds an environment-specific key/value pair, such as "site_url".
func WithHint(key, value string) Option {
	return func(d *Document) { d.hints[key] = value }
}

// WithHints merges all pairs from hints into the document's hint map.
func WithHints(hints map[string]string) Option {
	return func(d *Document) {
		for k, v := range hints {
			d.hints[k] = v
		}
	}
}

// New builds a Document from raw HTML. Nothing is parsed until a derived
// view is first requested.
func New(rawHTML string, opts ...Option) *Document {
	d := &Document{
		html:  rawHTML,
		hints: make(map[string]string),
		parse: html.Parse,
	}
	for _, opt := range opts {
		opt(d)
	}

	d.root = sync.OnceValue(d.parseTree)
	d.query = sync.OnceValue(d.buildQuery)
	d.headings = sync.OnceValue(d.collectHeadings)
	d.byLevel = sync.OnceValue(d.groupHeadings)
	d.images = sync.OnceValue(func() []Element { return d.collect("img") })
	d.anchors = sync.OnceValue(func() []Element { return d.collect("a") })
	d.jsonLD = sync.OnceValue(d.collectJSONLD)
	d.plainText = sync.OnceValue(d.extractText)

	return d
}

// ID returns the external identifier, or an empty string.
func (d *Document) ID() string { return d.id }

// HTML returns the raw markup the document was built from.
func (d *Document) HTML() string { return d.html }

// Title returns the declared title.
func (d *Document) Title() string { return d.title }

// Description returns the declared meta description.
func (d *Document) Description() string { return d.description }

// Canonical returns the declared canonical URL.
func (d *Document) Canonical() string { return d.canonical }

// Robots returns the declared robots directive string.
func (d *Document) Robots() string { return d.robots }

// Hint returns the hint stored under key.
func (d *Document) Hint(key string) (string, bool) {
	v, ok := d.hints[key]
	return v, ok
}

// Hints returns a copy of the hint map.
func (d *Document) Hints() map[string]string {
	out := make(map[string]string, len(d.hints))
	for k, v := range d.hints {
		out[k] = v
	}
	return out
}

// DOM returns the parsed tree, or nil when the HTML is empty or unparsable.
func (d *Document) DOM() *html.Node { return d.root() }

// Query returns a goquery document bound to the parsed tree, or nil when
// DOM is nil.
func (d *Document) Query() *goquery.Document { return d.query() }

// MetaContent finds the first <meta> whose attribute matches value, both
// compared case-insensitively, and returns its trimmed content attribute.
// The boolean is false when no such element exists.
func (d *Document) MetaContent(attribute, value string) (string, bool) {
	q := d.query()
	if q == nil {
		return "", false
	}

	var content string
	var found bool
	q.Find("meta").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !attrEquals(s.Nodes[0], attribute, value) {
			return true
		}
		content, _ = s.Attr("content")
		found = true
		return false
	})
	return strings.TrimSpace(content), found
}

// LinkHref finds the first <link> whose rel matches rel case-insensitively
// and returns its trimmed href.
func (d *Document) LinkHref(rel string) (string, bool) {
	q := d.query()
	if q == nil {
		return "", false
	}

	var href string
	var found bool
	q.Find("link").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !attrEquals(s.Nodes[0], "rel", rel) {
			return true
		}
		href, _ = s.Attr("href")
		found = true
		return false
	})
	return strings.TrimSpace(href), found
}

// HeadingsInOrder returns every h1..h6 element in document order.
func (d *Document) HeadingsInOrder() []Heading { return slices.Clone(d.headings()) }

// HeadingsByLevel returns the same headings sorted by ascending level.
// Headings of equal level keep their document order.
func (d *Document) HeadingsByLevel() []Heading { return slices.Clone(d.byLevel()) }

// Images returns every <img> element.
func (d *Document) Images() []Element { return slices.Clone(d.images()) }

// Anchors returns every <a> element.
func (d *Document) Anchors() []Element { return slices.Clone(d.anchors()) }

// JSONLDBlocks returns the text of every <script type="application/ld+json">.
func (d *Document) JSONLDBlocks() []string { return slices.Clone(d.jsonLD()) }

// PlainText returns the visible text of the page with tags stripped and
// whitespace collapsed.
func (d *Document) PlainText() string { return d.plainText() }

func (d *Document) parseTree() (root *html.Node) {
	if strings.TrimSpace(d.html) == "" {
		return nil
	}
	defer func() {
		if recover() != nil {
			root = nil
		}
	}()

	node, err := d.parse(strings.NewReader(d.html))
	if err != nil {
		return nil
	}
	return node
}

func (d *Document) buildQuery() *goquery.Document {
	root := d.root()
	if root == nil {
		return nil
	}
	return goquery.NewDocumentFromNode(root)
}

func (d *Document) collectHeadings() []Heading {
	q := d.query()
	if q == nil {
		return []Heading{}
	}

	headings := []Heading{}
	q.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		node := s.Nodes[0]
		headings = append(headings, Heading{
			Level:   headingLevel(node.Data),
			Text:    collapseSpace(s.Text()),
			Element: Element{node: node},
		})
	})
	return headings
}

func (d *Document) groupHeadings() []Heading {
	grouped := slices.Clone(d.headings())
	slices.SortStableFunc(grouped, func(a, b Heading) int { return a.Level - b.Level })
	return grouped
}

func (d *Document) collect(tag string) []Element {
	q := d.query()
	if q == nil {
		return []Element{}
	}

	elements := []Element{}
	q.Find(tag).Each(func(_ int, s *goquery.Selection) {
		elements = append(elements, Element{node: s.Nodes[0]})
	})
	return elements
}

func (d *Document) collectJSONLD() []string {
	q := d.query()
	if q == nil {
		return []string{}
	}

	blocks := []string{}
	q.Find("script").Each(func(_ int, s *goquery.Selection) {
		if attrEquals(s.Nodes[0], "type", "application/ld+json") {
			blocks = append(blocks, s.Text())
		}
	})
	return blocks
}

func (d *Document) extractText() string {
	if strings.TrimSpace(d.html) == "" {
		return ""
	}
	stripped := textPolicy.Sanitize(d.html)
	return collapseSpace(html.UnescapeString(stripped))
}

func attrEquals(n *html.Node, key, value string) bool {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) && strings.EqualFold(strings.TrimSpace(a.Val), value) {
			return true
		}
	}
	return false
}

func headingLevel(tag string) int {
	if len(tag) == 2 && (tag[0] == 'h' || tag[0] == 'H') && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
