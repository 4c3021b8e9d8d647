package checks

import (
	"encoding/json"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/Bahjat/content-insight/backend/internal/analysis"
	"github.com/Bahjat/content-insight/backend/internal/document"
)

// Canonical expects an absolute canonical URL.
type Canonical struct{}

func (Canonical) ID() string    { return "canonical" }
func (Canonical) Label() string { return "Canonical URL" }
func (Canonical) Description() string {
	return "Checks that the page declares an absolute canonical URL."
}

func (Canonical) Run(doc *document.Document) analysis.Result {
	canonical := strings.TrimSpace(doc.Canonical())
	if canonical == "" {
		canonical, _ = doc.LinkHref("canonical")
	}
	details := analysis.Details{"canonical": analysis.String(canonical)}

	if canonical == "" {
		return analysis.Warn(details, "Declare a canonical URL to avoid duplicate content.")
	}
	if !isAbsoluteURL(canonical) {
		return analysis.Fail(details, "Use an absolute http(s) URL as the canonical.")
	}
	return analysis.Pass(details)
}

// Robots flags robots directives that keep the page out of search.
type Robots struct{}

func (Robots) ID() string    { return "robots" }
func (Robots) Label() string { return "Robots directives" }
func (Robots) Description() string {
	return "Checks that robots directives allow indexing and link following."
}

func (Robots) Run(doc *document.Document) analysis.Result {
	raw := declaredOrMeta(doc.Robots(), doc, "name", "robots")
	directives := robotsDirectives(raw)
	details := analysis.Details{"directives": analysis.Strings(directives)}

	switch {
	case slices.Contains(directives, "noindex") || slices.Contains(directives, "none"):
		return analysis.Fail(details, "Remove noindex so search engines can index the page.")
	case slices.Contains(directives, "nofollow"):
		return analysis.Warn(details, "Remove nofollow so search engines follow the page's links.")
	default:
		return analysis.Pass(details)
	}
}

func robotsDirectives(raw string) []string {
	directives := []string{}
	for part := range strings.SplitSeq(raw, ",") {
		if d := strings.ToLower(strings.TrimSpace(part)); d != "" {
			directives = append(directives, d)
		}
	}
	return directives
}

// OpenGraph expects the og:title, og:description and og:image properties.
type OpenGraph struct{}

var openGraphProperties = []string{"og:title", "og:description", "og:image"}

func (OpenGraph) ID() string    { return "open_graph" }
func (OpenGraph) Label() string { return "Open Graph" }
func (OpenGraph) Description() string {
	return "Checks for the Open Graph tags used by social previews."
}

func (OpenGraph) Run(doc *document.Document) analysis.Result {
	missing := []string{}
	for _, prop := range openGraphProperties {
		if v, _ := doc.MetaContent("property", prop); v == "" {
			missing = append(missing, prop)
		}
	}
	details := analysis.Details{"missing": analysis.Strings(missing)}

	switch {
	case len(missing) == 0:
		return analysis.Pass(details)
	case len(missing) == len(openGraphProperties):
		return analysis.Fail(details, "Add Open Graph tags (og:title, og:description, og:image).")
	default:
		return analysis.Warn(details, "Add the missing Open Graph tags: "+strings.Join(missing, ", ")+".")
	}
}

// StructuredData validates JSON-LD blocks. Every block must parse, and
// every top-level entity needs a @context and a @type.
type StructuredData struct{}

func (StructuredData) ID() string    { return "structured_data" }
func (StructuredData) Label() string { return "Structured data" }
func (StructuredData) Description() string {
	return "Checks that JSON-LD structured data is present and well formed."
}

func (StructuredData) Run(doc *document.Document) analysis.Result {
	blocks := doc.JSONLDBlocks()

	var invalid, incomplete int
	types := []string{}
	for _, block := range blocks {
		var payload any
		if err := json.Unmarshal([]byte(block), &payload); err != nil {
			invalid++
			continue
		}
		for _, entity := range jsonLDEntities(payload) {
			t, ok := entity["@type"]
			_, hasContext := entity["@context"]
			if !ok || !hasContext {
				incomplete++
				continue
			}
			types = append(types, typeNames(t)...)
		}
	}

	details := analysis.Details{
		"blocks": analysis.Int(len(blocks)),
		"types":  analysis.Strings(types),
	}

	switch {
	case len(blocks) == 0:
		return analysis.Warn(details, "Add JSON-LD structured data describing the page.")
	case invalid > 0:
		details["invalid"] = analysis.Int(invalid)
		return analysis.Fail(details, fmt.Sprintf("Fix %d JSON-LD block(s) that are not valid JSON.", invalid))
	case incomplete > 0:
		details["incomplete"] = analysis.Int(incomplete)
		return analysis.Warn(details, "Give every JSON-LD entity both @context and @type.")
	default:
		return analysis.Pass(details)
	}
}

// jsonLDEntities returns the top-level entities of a JSON-LD payload. A
// @graph container passes its @context down to its members.
func jsonLDEntities(payload any) []map[string]any {
	switch v := payload.(type) {
	case map[string]any:
		graph, ok := v["@graph"].([]any)
		if !ok {
			return []map[string]any{v}
		}
		var entities []map[string]any
		for _, item := range graph {
			if m, ok := item.(map[string]any); ok {
				if _, has := m["@context"]; !has && v["@context"] != nil {
					m["@context"] = v["@context"]
				}
				entities = append(entities, m)
			}
		}
		return entities
	case []any:
		var entities []map[string]any
		for _, item := range v {
			entities = append(entities, jsonLDEntities(item)...)
		}
		return entities
	default:
		return []map[string]any{{}}
	}
}

func typeNames(t any) []string {
	switch v := t.(type) {
	case string:
		return []string{v}
	case []any:
		var names []string
		for _, item := range v {
			if s, ok := item.(string); ok {
				names = append(names, s)
			}
		}
		return names
	}
	return nil
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
