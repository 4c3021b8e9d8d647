package checks

import (
	"fmt"
	"strings"

	"github.com/Bahjat/content-insight/backend/internal/analysis"
	"github.com/Bahjat/content-insight/backend/internal/document"
)

// HeadingStructure expects exactly one H1 and no skipped levels when
// descending through the outline.
type HeadingStructure struct{}

func (HeadingStructure) ID() string    { return "heading_structure" }
func (HeadingStructure) Label() string { return "Heading structure" }
func (HeadingStructure) Description() string {
	return "Checks for a single H1 and a heading outline without skipped levels."
}

func (HeadingStructure) Run(doc *document.Document) analysis.Result {
	headings := doc.HeadingsInOrder()

	h1 := 0
	var skips []string
	for i, h := range headings {
		if h.Level == 1 {
			h1++
		}
		if i > 0 && h.Level > headings[i-1].Level+1 {
			skips = append(skips, fmt.Sprintf("h%d>h%d", headings[i-1].Level, h.Level))
		}
	}

	details := analysis.Details{
		"headings": analysis.Int(len(headings)),
		"h1_count": analysis.Int(h1),
	}
	if len(skips) > 0 {
		details["skipped_levels"] = analysis.Strings(skips)
	}

	switch {
	case h1 == 0:
		return analysis.Fail(details, "Add an H1 heading that describes the page.")
	case h1 > 1:
		return analysis.Warn(details, fmt.Sprintf("Use a single H1 heading (found %d).", h1))
	case len(skips) > 0:
		return analysis.Warn(details, "Do not skip heading levels: "+strings.Join(skips, ", ")+".")
	default:
		return analysis.Pass(details)
	}
}

// ImageAlt reports images without alternative text.
type ImageAlt struct{}

func (ImageAlt) ID() string    { return "image_alt" }
func (ImageAlt) Label() string { return "Image alt text" }
func (ImageAlt) Description() string {
	return "Checks that every image carries alternative text."
}

func (ImageAlt) Run(doc *document.Document) analysis.Result {
	images := doc.Images()

	missing := []string{}
	for _, img := range images {
		if alt, ok := img.Attr("alt"); ok && strings.TrimSpace(alt) != "" {
			continue
		}
		src, _ := img.Attr("src")
		missing = append(missing, src)
	}

	details := analysis.Details{
		"images":      analysis.Int(len(images)),
		"missing_alt": analysis.Int(len(missing)),
	}
	if len(missing) > 0 {
		details["sources"] = analysis.Strings(missing)
	}

	switch {
	case len(missing) == 0:
		return analysis.Pass(details)
	case len(missing) == len(images):
		return analysis.Fail(details, "Add alt text to all images.")
	default:
		return analysis.Warn(details, fmt.Sprintf("Add alt text to %d of %d images.", len(missing), len(images)))
	}
}
