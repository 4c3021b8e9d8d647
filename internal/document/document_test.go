package document

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"

	"golang.org/x/net/html"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
	<title>Sample</title>
	<meta name="Description" content="  A sample page  ">
	<meta property="og:title" content="Sample OG">
	<link rel="Canonical" href=" https://example.com/sample ">
	<script type="application/ld+json">{"@context":"https://schema.org","@type":"Article"}</script>
	<script>var hidden = "not text";</script>
</head>
<body>
	<h2>Intro</h2>
	<h1>Main   Title</h1>
	<h3>Detail</h3>
	<h2>Second</h2>
	<p>Hello &amp; welcome to the <a href="/about">about page</a>.</p>
	<img src="a.png" alt="first">
	<img src="b.png">
	<a href="https://other.com">elsewhere</a>
</body>
</html>`

func TestNew_EmptyHTML(t *testing.T) {
	for _, raw := range []string{"", "   \n\t "} {
		doc := New(raw)

		if doc.DOM() != nil {
			t.Errorf("DOM() for %q = non-nil, want nil", raw)
		}
		if doc.Query() != nil {
			t.Errorf("Query() for %q = non-nil, want nil", raw)
		}
		if got := doc.HeadingsInOrder(); len(got) != 0 {
			t.Errorf("HeadingsInOrder() = %v, want empty", got)
		}
		if got := doc.HeadingsByLevel(); len(got) != 0 {
			t.Errorf("HeadingsByLevel() = %v, want empty", got)
		}
		if got := doc.Images(); len(got) != 0 {
			t.Errorf("Images() = %v, want empty", got)
		}
		if got := doc.Anchors(); len(got) != 0 {
			t.Errorf("Anchors() = %v, want empty", got)
		}
		if got := doc.JSONLDBlocks(); len(got) != 0 {
			t.Errorf("JSONLDBlocks() = %v, want empty", got)
		}
		if got := doc.PlainText(); got != "" {
			t.Errorf("PlainText() = %q, want empty", got)
		}
		if _, ok := doc.MetaContent("name", "description"); ok {
			t.Error("MetaContent() found a value on empty HTML")
		}
		if _, ok := doc.LinkHref("canonical"); ok {
			t.Error("LinkHref() found a value on empty HTML")
		}
	}
}

func TestDOM_ParsesOnce(t *testing.T) {
	doc := New(samplePage)

	var calls int
	doc.parse = func(r io.Reader) (*html.Node, error) {
		calls++
		return html.Parse(r)
	}

	first := doc.DOM()
	second := doc.DOM()
	_ = doc.HeadingsInOrder()
	_ = doc.Images()

	if first == nil {
		t.Fatal("DOM() = nil, want parsed tree")
	}
	if first != second {
		t.Error("DOM() returned different trees on repeated calls")
	}
	if calls != 1 {
		t.Errorf("parse called %d times, want 1", calls)
	}
}

func TestDOM_ParseErrorYieldsNil(t *testing.T) {
	doc := New("<p>hi</p>")
	doc.parse = func(io.Reader) (*html.Node, error) {
		return nil, errors.New("boom")
	}

	if doc.DOM() != nil {
		t.Error("DOM() = non-nil after parse error, want nil")
	}
	if got := doc.HeadingsInOrder(); len(got) != 0 {
		t.Errorf("HeadingsInOrder() = %v, want empty", got)
	}
}

func TestDOM_ParsePanicYieldsNil(t *testing.T) {
	doc := New("<p>hi</p>")
	doc.parse = func(io.Reader) (*html.Node, error) {
		panic("parser exploded")
	}

	if doc.DOM() != nil {
		t.Error("DOM() = non-nil after parser panic, want nil")
	}
}

func TestMalformedHTML(t *testing.T) {
	doc := New(`<h1>Unclosed <h2>nested <img src=x alt=<<>`)

	if doc.DOM() == nil {
		t.Fatal("DOM() = nil, the HTML5 parser should recover malformed markup")
	}
	if got := len(doc.HeadingsInOrder()); got != 2 {
		t.Errorf("headings = %d, want 2", got)
	}
}

func TestMetaContent(t *testing.T) {
	doc := New(samplePage)

	tests := []struct {
		name      string
		attribute string
		value     string
		want      string
		wantOK    bool
	}{
		{name: "case-insensitive value", attribute: "name", value: "description", want: "A sample page", wantOK: true},
		{name: "case-insensitive attribute", attribute: "NAME", value: "DESCRIPTION", want: "A sample page", wantOK: true},
		{name: "property attribute", attribute: "property", value: "og:title", want: "Sample OG", wantOK: true},
		{name: "absent", attribute: "name", value: "keywords", want: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := doc.MetaContent(tt.attribute, tt.value)
			if ok != tt.wantOK {
				t.Fatalf("MetaContent() ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("MetaContent() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLinkHref(t *testing.T) {
	doc := New(samplePage)

	got, ok := doc.LinkHref("canonical")
	if !ok {
		t.Fatal("LinkHref(canonical) not found")
	}
	if got != "https://example.com/sample" {
		t.Errorf("LinkHref(canonical) = %q, want %q", got, "https://example.com/sample")
	}

	if _, ok := doc.LinkHref("alternate"); ok {
		t.Error("LinkHref(alternate) found, want absent")
	}
}

func TestHeadingsInOrder(t *testing.T) {
	doc := New(samplePage)

	got := doc.HeadingsInOrder()
	want := []struct {
		level int
		text  string
	}{
		{2, "Intro"},
		{1, "Main Title"},
		{3, "Detail"},
		{2, "Second"},
	}

	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Level != w.level || got[i].Text != w.text {
			t.Errorf("heading[%d] = (%d, %q), want (%d, %q)", i, got[i].Level, got[i].Text, w.level, w.text)
		}
	}
}

func TestHeadingsByLevel(t *testing.T) {
	doc := New(samplePage)

	got := doc.HeadingsByLevel()
	wantTexts := []string{"Main Title", "Intro", "Second", "Detail"}

	if len(got) != len(wantTexts) {
		t.Fatalf("len = %d, want %d", len(got), len(wantTexts))
	}
	for i, text := range wantTexts {
		if got[i].Text != text {
			t.Errorf("heading[%d] = %q, want %q", i, got[i].Text, text)
		}
	}
}

func TestHeadings_ReturnCopies(t *testing.T) {
	doc := New(samplePage)

	first := doc.HeadingsInOrder()
	first[0].Text = "mutated"

	if doc.HeadingsInOrder()[0].Text != "Intro" {
		t.Error("mutating a returned slice changed the document")
	}
}

func TestImagesAndAnchors(t *testing.T) {
	doc := New(samplePage)

	images := doc.Images()
	if len(images) != 2 {
		t.Fatalf("images = %d, want 2", len(images))
	}
	if alt, ok := images[0].Attr("alt"); !ok || alt != "first" {
		t.Errorf("images[0] alt = (%q, %v), want (first, true)", alt, ok)
	}
	if _, ok := images[1].Attr("alt"); ok {
		t.Error("images[1] should have no alt attribute")
	}

	anchors := doc.Anchors()
	if len(anchors) != 2 {
		t.Fatalf("anchors = %d, want 2", len(anchors))
	}
	if href, _ := anchors[0].Attr("HREF"); href != "/about" {
		t.Errorf("anchors[0] href = %q, want /about", href)
	}
	if text := anchors[0].Text(); text != "about page" {
		t.Errorf("anchors[0] text = %q, want %q", text, "about page")
	}
	if anchors[1].Tag() != "a" {
		t.Errorf("anchors[1] tag = %q, want a", anchors[1].Tag())
	}
}

func TestElementText_SkipsScriptAndStyle(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{name: "inline script", html: `<a href="/x"><script>track("x")</script></a>`, want: ""},
		{name: "inline style", html: `<a href="/x"><style>a{color:red}</style>Read  more</a>`, want: "Read more"},
		{name: "nested in span", html: `<a href="/x"><span>Go <script>var n = 1</script>home</span></a>`, want: "Go home"},
		{name: "plain text", html: `<a href="/x">About <b>us</b></a>`, want: "About us"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			anchors := New(tt.html).Anchors()
			if len(anchors) != 1 {
				t.Fatalf("anchors = %d, want 1", len(anchors))
			}
			if got := anchors[0].Text(); got != tt.want {
				t.Errorf("Text() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestJSONLDBlocks(t *testing.T) {
	doc := New(samplePage)

	blocks := doc.JSONLDBlocks()
	if len(blocks) != 1 {
		t.Fatalf("blocks = %d, want 1", len(blocks))
	}
	if blocks[0] != `{"@context":"https://schema.org","@type":"Article"}` {
		t.Errorf("block = %q", blocks[0])
	}
}

func TestPlainText(t *testing.T) {
	doc := New(`<div>
		<p>Hello &amp;   welcome</p>
		<script>var x = "hidden";</script>
		<style>.a { color: red }</style>
		<p>to   the page.</p>
	</div>`)

	want := "Hello & welcome to the page."
	if got := doc.PlainText(); got != want {
		t.Errorf("PlainText() = %q, want %q", got, want)
	}
}

func TestDeclaredMetadataAndHints(t *testing.T) {
	doc := New("",
		WithID("post-42"),
		WithTitle("Declared"),
		WithDescription("Desc"),
		WithCanonical("https://example.com/a"),
		WithRobots("noindex"),
		WithHint("site_url", "https://example.com"),
		WithHints(map[string]string{"locale": "en"}),
	)

	if doc.ID() != "post-42" || doc.Title() != "Declared" || doc.Description() != "Desc" {
		t.Errorf("declared fields = (%q, %q, %q)", doc.ID(), doc.Title(), doc.Description())
	}
	if doc.Canonical() != "https://example.com/a" || doc.Robots() != "noindex" {
		t.Errorf("canonical/robots = (%q, %q)", doc.Canonical(), doc.Robots())
	}
	if v, ok := doc.Hint("site_url"); !ok || v != "https://example.com" {
		t.Errorf("Hint(site_url) = (%q, %v)", v, ok)
	}

	hints := doc.Hints()
	hints["locale"] = "fr"
	if v, _ := doc.Hint("locale"); v != "en" {
		t.Error("Hints() should return a copy")
	}
}

func TestConcurrentAccess(t *testing.T) {
	doc := New(samplePage)

	var calls atomic.Int32
	doc.parse = func(r io.Reader) (*html.Node, error) {
		calls.Add(1)
		return html.Parse(r)
	}

	var wg sync.WaitGroup
	for range 50 {
		wg.Go(func() {
			_ = doc.DOM()
			_ = doc.HeadingsByLevel()
			_ = doc.Images()
			_ = doc.Anchors()
			_ = doc.JSONLDBlocks()
			_ = doc.PlainText()
			_, _ = doc.MetaContent("name", "description")
		})
	}
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("parse called %d times under concurrency, want 1", got)
	}
}
