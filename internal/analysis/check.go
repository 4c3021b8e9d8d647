// Package analysis runs content checks against a document and turns their
// verdicts into a report and a weighted score.
//
// A Check inspects a document.Document and returns one Result. The Registry
// holds the candidate checks in registration order; Resolve decides which of
// them run under a given configuration. The Analyzer executes the resolved
// checks and aggregates a Report, which the ScoreEngine reduces to a single
// 0-100 score and a status bucket.
package analysis

import "github.com/Bahjat/content-insight/backend/internal/document"

// Check is one independent content inspection.
//
// Implementations must be total over every Document, including empty ones,
// and must not perform I/O or keep state between runs.
type Check interface {
	// ID returns a stable identifier, unique within a Registry.
	ID() string

	// Label returns a short human-readable name.
	Label() string

	// Description explains what the check looks for.
	Description() string

	// Run inspects the document and returns its verdict.
	Run(doc *document.Document) Result
}

// Func adapts a plain function into a Check.
type Func struct {
	CheckID          string
	CheckLabel       string
	CheckDescription string
	RunFunc          func(doc *document.Document) Result
}

func (f Func) ID() string                        { return f.CheckID }
func (f Func) Label() string                     { return f.CheckLabel }
func (f Func) Description() string               { return f.CheckDescription }
func (f Func) Run(doc *document.Document) Result { return f.RunFunc(doc) }
