package pageinsight

import (
	"errors"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// PageFacts holds the declared metadata and links found by a single
// tokenizer pass. Declared values are what the page says about itself;
// the checks judge them against the parsed document.
type PageFacts struct {
	HTMLVersion string
	Lang        string
	Title       string
	Description string
	Canonical   string
	Robots      string
	Links       []Link
}

// Link represents a URL found on the page with its classification.
type Link struct {
	URL        string
	IsInternal bool
}

// Parse performs a single-pass traversal of the HTML body. Only the first
// title, description, robots and canonical declarations count.
func Parse(body io.Reader, baseURL *url.URL) (*PageFacts, error) {
	facts := &PageFacts{HTMLVersion: "Unknown"}

	z := html.NewTokenizer(body)
	var inTitle, inSVG bool

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return facts, nil
			}
			return nil, z.Err()

		case html.DoctypeToken:
			facts.HTMLVersion = detectHTMLVersion(z.Token())

		case html.StartTagToken, html.SelfClosingTagToken:
			tn, hasAttr := z.TagName()
			tag := string(tn)
			var attrs map[string]string
			if hasAttr {
				attrs = tagAttrs(z)
			}

			switch tag {
			case "html":
				facts.Lang = strings.TrimSpace(attrs["lang"])
			case "svg":
				inSVG = tt == html.StartTagToken
			case "title":
				inTitle = !inSVG && facts.Title == ""
			case "meta":
				facts.applyMeta(attrs)
			case "link":
				if hasToken(attrs["rel"], "canonical") && facts.Canonical == "" {
					facts.Canonical = strings.TrimSpace(attrs["href"])
				}
			case "a":
				if href := attrs["href"]; href != "" {
					if link, ok := classifyLink(href, baseURL); ok {
						facts.Links = append(facts.Links, link)
					}
				}
			}

		case html.TextToken:
			if inTitle {
				facts.Title = strings.Join(strings.Fields(string(z.Text())), " ")
				inTitle = false
			}

		case html.EndTagToken:
			tn, _ := z.TagName()
			switch string(tn) {
			case "title":
				inTitle = false
			case "svg":
				inSVG = false
			}
		}
	}
}

func (f *PageFacts) applyMeta(attrs map[string]string) {
	content := strings.TrimSpace(attrs["content"])
	switch strings.ToLower(strings.TrimSpace(attrs["name"])) {
	case "description":
		if f.Description == "" {
			f.Description = content
		}
	case "robots":
		if f.Robots == "" {
			f.Robots = content
		}
	}
}

// tagAttrs drains the tokenizer's attributes for the current tag. Keys
// are lowercased by the tokenizer; the first occurrence of a key wins.
func tagAttrs(z *html.Tokenizer) map[string]string {
	attrs := make(map[string]string)
	for {
		key, val, more := z.TagAttr()
		if _, seen := attrs[string(key)]; !seen {
			attrs[string(key)] = string(val)
		}
		if !more {
			return attrs
		}
	}
}

func hasToken(list, token string) bool {
	for f := range strings.FieldsSeq(list) {
		if strings.EqualFold(f, token) {
			return true
		}
	}
	return false
}

func classifyLink(href string, baseURL *url.URL) (Link, bool) {
	parsed, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return Link{}, false
	}

	resolved := baseURL.ResolveReference(parsed)
	resolved.Fragment = ""

	// Skip non-http(s) schemes (mailto:, javascript:, tel:, etc.)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return Link{}, false
	}

	isInternal := strings.EqualFold(resolved.Host, baseURL.Host)
	return Link{URL: resolved.String(), IsInternal: isInternal}, true
}

func detectHTMLVersion(token html.Token) string {
	// The tokenizer stores the full doctype in token.Data.
	// HTML5: Data = "html"
	// Legacy: Data = `HTML PUBLIC "-//W3C//DTD HTML 4.01//EN" "..."`
	// https://www.w3.org/QA/2002/04/valid-dtd-list.html
	data := strings.ToLower(token.Data)

	if !strings.Contains(data, "public") {
		return "HTML5"
	}

	switch {
	case strings.Contains(data, "xhtml 1.1") || strings.Contains(data, "xhtml basic 1.1"):
		return "XHTML 1.1"
	case strings.Contains(data, "xhtml 1.0"):
		return "XHTML 1.0"
	case strings.Contains(data, "html 4.01"):
		return "HTML 4.01"
	default:
		return "Unknown"
	}
}
