package checks

import (
	"fmt"
	"strings"

	"github.com/Bahjat/content-insight/backend/internal/analysis"
	"github.com/Bahjat/content-insight/backend/internal/document"
)

// TitleLength classifies the SEO title length against Min and Max
// characters. The declared title wins over the <title> element.
type TitleLength struct {
	Min int
	Max int
}

func (TitleLength) ID() string    { return "title_length" }
func (TitleLength) Label() string { return "Title length" }
func (TitleLength) Description() string {
	return "Checks that the SEO title is present and within the recommended length."
}

func (c TitleLength) Run(doc *document.Document) analysis.Result {
	title := strings.TrimSpace(doc.Title())
	if title == "" {
		title = titleElement(doc)
	}
	return classifyLength(title, c.Min, c.Max, "title")
}

// MetaDescription classifies the meta description length.
type MetaDescription struct {
	Min int
	Max int
}

func (MetaDescription) ID() string    { return "meta_description" }
func (MetaDescription) Label() string { return "Meta description" }
func (MetaDescription) Description() string {
	return "Checks that a meta description is present and within the recommended length."
}

func (c MetaDescription) Run(doc *document.Document) analysis.Result {
	description := declaredOrMeta(doc.Description(), doc, "name", "description")
	return classifyLength(description, c.Min, c.Max, "meta description")
}

// ContentLength counts the words of visible text.
type ContentLength struct {
	MinWords int
}

func (ContentLength) ID() string    { return "content_length" }
func (ContentLength) Label() string { return "Content length" }
func (ContentLength) Description() string {
	return "Checks that the page carries enough visible text."
}

func (c ContentLength) Run(doc *document.Document) analysis.Result {
	words := len(strings.Fields(doc.PlainText()))
	details := analysis.Details{
		"word_count": analysis.Int(words),
		"min_words":  analysis.Int(c.MinWords),
	}

	switch {
	case words == 0:
		return analysis.Fail(details, "Add written content to the page.")
	case words < c.MinWords:
		return analysis.Warn(details, fmt.Sprintf("Expand the content to at least %d words (currently %d).", c.MinWords, words))
	default:
		return analysis.Pass(details)
	}
}

func classifyLength(value string, minLen, maxLen int, what string) analysis.Result {
	length := charCount(value)
	details := analysis.Details{
		"value":  analysis.String(value),
		"length": analysis.Int(length),
		"min":    analysis.Int(minLen),
		"max":    analysis.Int(maxLen),
	}

	switch {
	case length == 0:
		return analysis.Fail(details, fmt.Sprintf("Add a %s.", what))
	case length < minLen:
		return analysis.Warn(details, fmt.Sprintf("Lengthen the %s to at least %d characters (currently %d).", what, minLen, length))
	case maxLen > 0 && length > maxLen:
		return analysis.Warn(details, fmt.Sprintf("Shorten the %s to at most %d characters (currently %d).", what, maxLen, length))
	default:
		return analysis.Pass(details)
	}
}

func titleElement(doc *document.Document) string {
	q := doc.Query()
	if q == nil {
		return ""
	}
	return strings.TrimSpace(q.Find("head title").First().Text())
}
