// Package checks holds the built-in content checks and the default suite.
package checks

import (
	"strings"
	"unicode/utf8"

	"github.com/Bahjat/content-insight/backend/internal/analysis"
	"github.com/Bahjat/content-insight/backend/internal/document"
)

// Config holds the bounds used by the length-based checks.
type Config struct {
	TitleMinLength       int
	TitleMaxLength       int
	DescriptionMinLength int
	DescriptionMaxLength int
	MinWordCount         int
}

// DefaultConfig returns the bounds used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		TitleMinLength:       30,
		TitleMaxLength:       60,
		DescriptionMinLength: 50,
		DescriptionMaxLength: 160,
		MinWordCount:         300,
	}
}

// Default returns the built-in suite in its fixed run order.
func Default(cfg Config) []analysis.Check {
	return []analysis.Check{
		TitleLength{Min: cfg.TitleMinLength, Max: cfg.TitleMaxLength},
		MetaDescription{Min: cfg.DescriptionMinLength, Max: cfg.DescriptionMaxLength},
		HeadingStructure{},
		ImageAlt{},
		Canonical{},
		Robots{},
		StructuredData{},
		OpenGraph{},
		ContentLength{MinWords: cfg.MinWordCount},
		InternalLinks{},
		BrokenLinks{},
	}
}

// NewRegistry returns a registry holding the default suite.
func NewRegistry(cfg Config) (*analysis.Registry, error) {
	return analysis.NewRegistry(Default(cfg)...)
}

// declaredOrMeta prefers the declared value and falls back to the named
// <meta> element.
func declaredOrMeta(declared string, doc *document.Document, attribute, value string) string {
	if v := strings.TrimSpace(declared); v != "" {
		return v
	}
	v, _ := doc.MetaContent(attribute, value)
	return v
}

func charCount(s string) int {
	return utf8.RuneCountInString(s)
}
