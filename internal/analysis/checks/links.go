package checks

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/Bahjat/content-insight/backend/internal/analysis"
	"github.com/Bahjat/content-insight/backend/internal/document"
)

// Document hints read by the link checks.
const (
	HintSiteURL      = "site_url"
	HintCheckedLinks = "checked_links"
	HintBrokenLinks  = "broken_links"
)

// InternalLinks expects at least one link to another page on the same
// site. The site host comes from the site_url hint, then the canonical.
type InternalLinks struct{}

func (InternalLinks) ID() string    { return "internal_links" }
func (InternalLinks) Label() string { return "Internal links" }
func (InternalLinks) Description() string {
	return "Checks that the content links to other pages on the same site."
}

func (InternalLinks) Run(doc *document.Document) analysis.Result {
	host := siteHost(doc)

	var internal, external, emptyText int
	for _, a := range doc.Anchors() {
		href, ok := a.Attr("href")
		if !ok {
			continue
		}
		u, navigable := linkTarget(href)
		if !navigable {
			continue
		}
		if u.Host == "" || strings.EqualFold(u.Hostname(), host) {
			internal++
		} else {
			external++
		}
		if a.Text() == "" {
			emptyText++
		}
	}

	details := analysis.Details{
		"internal":   analysis.Int(internal),
		"external":   analysis.Int(external),
		"empty_text": analysis.Int(emptyText),
	}

	switch {
	case internal == 0:
		return analysis.Warn(details, "Link to related content on your own site.")
	case emptyText > 0:
		return analysis.Warn(details, "Give every link descriptive anchor text.")
	default:
		return analysis.Pass(details)
	}
}

func siteHost(doc *document.Document) string {
	candidates := []string{doc.Canonical()}
	if site, ok := doc.Hint(HintSiteURL); ok {
		candidates = append([]string{site}, candidates...)
	}
	for _, c := range candidates {
		if u, err := url.Parse(strings.TrimSpace(c)); err == nil && u.Host != "" {
			return u.Hostname()
		}
	}
	return ""
}

// linkTarget parses href and reports whether it points at another page.
// Fragments and non-http schemes such as mailto: are skipped.
func linkTarget(href string) (*url.URL, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return nil, false
	}
	u, err := url.Parse(href)
	if err != nil {
		return nil, false
	}
	if u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https" {
		return nil, false
	}
	return u, true
}

// BrokenLinks reports outbound links that failed to respond. Probing is
// done by the content source, which records the counts as hints; pages
// analysed without probing pass with checked set to false.
type BrokenLinks struct{}

func (BrokenLinks) ID() string    { return "broken_links" }
func (BrokenLinks) Label() string { return "Broken links" }
func (BrokenLinks) Description() string {
	return "Checks that links on the page respond without errors."
}

func (BrokenLinks) Run(doc *document.Document) analysis.Result {
	checked, okChecked := intHint(doc, HintCheckedLinks)
	broken, okBroken := intHint(doc, HintBrokenLinks)
	if !okChecked || !okBroken {
		return analysis.Pass(analysis.Details{"checked": analysis.Bool(false)})
	}

	details := analysis.Details{
		"checked": analysis.Bool(true),
		"links":   analysis.Int(checked),
		"broken":  analysis.Int(broken),
	}

	switch {
	case broken == 0:
		return analysis.Pass(details)
	case broken*2 >= checked:
		return analysis.Fail(details, fmt.Sprintf("Fix or remove %d broken links.", broken))
	default:
		return analysis.Warn(details, fmt.Sprintf("Fix or remove %d broken link(s).", broken))
	}
}

func intHint(doc *document.Document, key string) (int, bool) {
	raw, ok := doc.Hint(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
