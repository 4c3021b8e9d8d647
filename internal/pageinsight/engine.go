package pageinsight

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Bahjat/content-insight/backend/internal/analysis"
	"github.com/Bahjat/content-insight/backend/internal/analysis/checks"
	"github.com/Bahjat/content-insight/backend/internal/document"
	"github.com/Bahjat/content-insight/backend/internal/model"
	"github.com/Bahjat/content-insight/backend/internal/platform/errs"
)

// Hints recorded on fetched documents in addition to the link hints.
const (
	HintHTMLVersion = "html_version"
	HintLang        = "lang"
	HintSourceURL   = "source_url"
)

// contentAnalyzer runs the check suite over one document.
type contentAnalyzer interface {
	Analyze(doc *document.Document) analysis.Report
}

// reportScorer turns a report into a score.
type reportScorer interface {
	Score(report analysis.Report, weights map[string]float64) analysis.Score
}

// linkProber validates link accessibility.
type linkProber interface {
	Probe(ctx context.Context, links []string) LinkReport
}

// Engine orchestrates page fetching, metadata extraction, link probing,
// analysis and scoring.
type Engine struct {
	fetcher      Fetcher
	analyzer     contentAnalyzer
	scorer       reportScorer
	prober       linkProber
	weights      map[string]float64
	allowPrivate bool
	now          func() time.Time
	newID        func() string
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithWeights sets the per-check weight overrides used for scoring.
func WithWeights(weights map[string]float64) EngineOption {
	return func(e *Engine) { e.weights = weights }
}

// WithLinkProber enables link probing for fetched pages.
func WithLinkProber(p linkProber) EngineOption {
	return func(e *Engine) { e.prober = p }
}

// WithPrivateTargetsAllowed lets URLs naming localhost or private IP
// literals through validation.
func WithPrivateTargetsAllowed(allow bool) EngineOption {
	return func(e *Engine) { e.allowPrivate = allow }
}

// NewEngine returns an Engine backed by the given Fetcher, analyzer and scorer.
func NewEngine(fetcher Fetcher, analyzer contentAnalyzer, scorer reportScorer, opts ...EngineOption) *Engine {
	e := &Engine{
		fetcher:  fetcher,
		analyzer: analyzer,
		scorer:   scorer,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

const invalidURLMessage = "Invalid URL format. Please ensure you entered a valid URL (e.g., https://example.com)."

// Analyze fetches a URL and analyzes the returned HTML.
func (e *Engine) Analyze(ctx context.Context, targetURL string) (*model.PageAnalysis, error) {
	parsed, err := e.validateURL(targetURL)
	if err != nil {
		return nil, err
	}

	body, statusCode, err := e.fetcher.Fetch(ctx, targetURL)
	if err != nil {
		return nil, fetchError(ctx, "The provided URL could not be reached. Check the address.", err)
	}
	defer func() { _ = body.Close() }()

	if statusCode >= 400 {
		return nil, &errs.AppError{
			Kind:           errs.Unreachable,
			UpstreamStatus: statusCode,
			Message:        "The provided URL returned an error status.",
		}
	}

	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, fetchError(ctx, "The page could not be read completely.", err)
	}

	facts, err := Parse(bytes.NewReader(raw), parsed)
	if err != nil {
		return nil, &errs.AppError{
			Kind:    errs.ParsingFailed,
			Message: "Failed to parse the HTML content.",
			Cause:   err,
		}
	}

	hints := map[string]string{
		checks.HintSiteURL: (&url.URL{Scheme: parsed.Scheme, Host: parsed.Host}).String(),
		HintSourceURL:      targetURL,
		HintHTMLVersion:    facts.HTMLVersion,
	}
	if facts.Lang != "" {
		hints[HintLang] = facts.Lang
	}

	stats, linkURLs := linkStats(facts.Links)
	if e.prober != nil {
		report := e.prober.Probe(ctx, linkURLs)
		stats.Inaccessible = len(report.Broken)
		hints[checks.HintCheckedLinks] = strconv.Itoa(report.Checked)
		hints[checks.HintBrokenLinks] = strconv.Itoa(len(report.Broken))
	}

	doc := document.New(string(raw),
		document.WithID(targetURL),
		document.WithTitle(facts.Title),
		document.WithDescription(facts.Description),
		document.WithCanonical(facts.Canonical),
		document.WithRobots(facts.Robots),
		document.WithHints(hints),
	)

	result := e.evaluate(doc)
	result.URL = targetURL
	result.HTMLVersion = facts.HTMLVersion
	result.Links = stats
	return result, nil
}

// AnalyzeHTML analyzes a document supplied by the caller. Declared fields
// left empty fall back to what the markup itself declares.
func (e *Engine) AnalyzeHTML(ctx context.Context, in model.HTMLInput) (*model.PageAnalysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, fetchError(ctx, "The analysis was cancelled.", err)
	}

	base := &url.URL{}
	if site, ok := in.Hints[checks.HintSiteURL]; ok {
		if u, err := url.Parse(site); err == nil {
			base = u
		}
	}

	facts, err := Parse(strings.NewReader(in.HTML), base)
	if err != nil {
		return nil, &errs.AppError{
			Kind:    errs.ParsingFailed,
			Message: "Failed to parse the HTML content.",
			Cause:   err,
		}
	}

	id := strings.TrimSpace(in.ID)
	if id == "" {
		id = e.newID()
	}

	doc := document.New(in.HTML,
		document.WithID(id),
		document.WithTitle(firstNonEmpty(in.Title, facts.Title)),
		document.WithDescription(firstNonEmpty(in.Description, facts.Description)),
		document.WithCanonical(firstNonEmpty(in.Canonical, facts.Canonical)),
		document.WithRobots(firstNonEmpty(in.Robots, facts.Robots)),
		document.WithHints(in.Hints),
		document.WithHint(HintHTMLVersion, facts.HTMLVersion),
	)

	result := e.evaluate(doc)
	result.HTMLVersion = facts.HTMLVersion
	result.Links, _ = linkStats(facts.Links)
	return result, nil
}

func (e *Engine) evaluate(doc *document.Document) *model.PageAnalysis {
	report := e.analyzer.Analyze(doc)
	score := e.scorer.Score(report, e.weights)

	ordered := make([]analysis.CheckReport, 0, len(report.Order))
	for _, id := range report.Order {
		ordered = append(ordered, report.Checks[id])
	}

	return &model.PageAnalysis{
		ID:              doc.ID(),
		Title:           doc.Title(),
		Score:           score.Score,
		Rating:          score.Status,
		Status:          report.Status,
		Summary:         report.Summary,
		Checks:          ordered,
		Recommendations: score.Recommendations,
		AnalyzedAt:      e.now().UTC(),
	}
}

func (e *Engine) validateURL(targetURL string) (*url.URL, error) {
	parsed, err := url.Parse(targetURL)
	if err != nil {
		return nil, &errs.AppError{Kind: errs.InvalidInput, Message: invalidURLMessage, Cause: err}
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, &errs.AppError{Kind: errs.InvalidInput, Message: invalidURLMessage}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, &errs.AppError{
			Kind:    errs.InvalidInput,
			Message: "Only http and https URLs are supported.",
		}
	}
	if !e.allowPrivate && literalBlocked(parsed.Hostname()) {
		return nil, &errs.AppError{
			Kind:    errs.InvalidInput,
			Message: "Analyzing local or private network addresses is not allowed.",
		}
	}
	return parsed, nil
}

// fetchError classifies a transport failure, reporting deadline expiry as
// a timeout.
func fetchError(ctx context.Context, message string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &errs.AppError{
			Kind:    errs.Timeout,
			Message: "Analysis timed out. The target URL may be slow to respond.",
			Cause:   err,
		}
	}
	return &errs.AppError{Kind: errs.Unreachable, Message: message, Cause: err}
}

// linkStats counts internal and external links and returns the URLs to probe.
func linkStats(links []Link) (model.LinkStats, []string) {
	var stats model.LinkStats
	urls := make([]string, 0, len(links))
	for _, link := range links {
		urls = append(urls, link.URL)
		if link.IsInternal {
			stats.Internal++
		} else {
			stats.External++
		}
	}
	return stats, urls
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
