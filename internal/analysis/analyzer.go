package analysis

import (
	"fmt"
	"io"
	"log/slog"
	"maps"

	"github.com/Bahjat/content-insight/backend/internal/document"
)

const faultHint = "This check failed unexpectedly. Re-run the analysis and report the problem if it persists."

// Analyzer runs the enabled checks against a document and aggregates their
// verdicts.
type Analyzer struct {
	registry   *Registry
	configured map[string]bool
	hook       OverrideHook
	logger     *slog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithEnablement sets the stored check id to enabled map used by Resolve.
func WithEnablement(configured map[string]bool) Option {
	return func(a *Analyzer) { a.configured = maps.Clone(configured) }
}

// WithOverrideHook installs a host hook consulted on every analysis.
func WithOverrideHook(hook OverrideHook) Option {
	return func(a *Analyzer) { a.hook = hook }
}

// WithLogger sets the logger used to report faulty checks.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) { a.logger = logger }
}

// NewAnalyzer returns an Analyzer over the checks held by registry.
func NewAnalyzer(registry *Registry, opts ...Option) *Analyzer {
	a := &Analyzer{
		registry: registry,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze runs every enabled check in registration order and returns the
// aggregated report. A check that panics or returns an unknown status is
// recorded as a failure; the remaining checks still run.
func (a *Analyzer) Analyze(doc *document.Document) Report {
	if doc == nil {
		doc = document.New("")
	}

	var candidates []Check
	if a.registry != nil {
		candidates = a.registry.Checks()
	}
	enabled := Resolve(candidates, a.configured, a.hook, doc)

	report := Report{
		Checks: make(map[string]CheckReport, len(enabled)),
		Order:  make([]string, 0, len(enabled)),
	}
	for _, c := range enabled {
		cr := a.run(c, doc)

		report.Checks[cr.ID] = cr
		report.Order = append(report.Order, cr.ID)
		report.Summary.add(cr.Status)
	}
	report.Status = report.Summary.Status()

	return report
}

// run executes one check. Its descriptor is read under the same recover as
// Run, so a faulty Label or Description is contained like a faulty Run and
// the label falls back to the id.
func (a *Analyzer) run(c Check, doc *document.Document) (cr CheckReport) {
	cr.ID = c.ID()
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("check panicked", "check_id", cr.ID, "document_id", doc.ID(), "panic", r)
			if cr.Label == "" {
				cr.Label = cr.ID
			}
			cr.Result = Fail(Details{"error": String(fmt.Sprint(r))}, faultHint)
		}
	}()

	cr.Label = c.Label()
	cr.Description = c.Description()
	result := c.Run(doc)

	switch result.Status {
	case StatusPass, StatusWarn, StatusFail:
	default:
		a.logger.Error("check returned unknown status", "check_id", cr.ID, "status", string(result.Status))
		cr.Result = Fail(Details{"error": String(fmt.Sprintf("unknown status %q", result.Status))}, faultHint)
		return cr
	}

	if result.Details == nil {
		result.Details = Details{}
	}
	result.Weight = clampWeight(result.Weight)
	cr.Result = result
	return cr
}
