package model

import (
	"time"

	"github.com/Bahjat/content-insight/backend/internal/analysis"
)

// PageAnalysis holds the scored analysis of one document.
type PageAnalysis struct {
	ID          string `json:"id"`
	URL         string `json:"url,omitempty"`
	HTMLVersion string `json:"html_version,omitempty"`
	Title       string `json:"title"`

	Score           int                    `json:"score"`
	Rating          analysis.Bucket        `json:"rating"`
	Status          analysis.Status        `json:"status"`
	Summary         analysis.Summary       `json:"summary"`
	Checks          []analysis.CheckReport `json:"checks"`
	Recommendations []string               `json:"recommendations"`
	Links           LinkStats              `json:"links"`
	AnalyzedAt      time.Time              `json:"analyzed_at"`
}

// LinkStats breaks down the links found on a fetched page.
type LinkStats struct {
	Internal     int `json:"internal_count"`
	External     int `json:"external_count"`
	Inaccessible int `json:"inaccessible_count"`
}

// HTMLInput is a document supplied directly instead of fetched. The
// declared fields mirror what a CMS stores next to the post body.
type HTMLInput struct {
	ID          string            `json:"id"`
	HTML        string            `json:"html"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Canonical   string            `json:"canonical"`
	Robots      string            `json:"robots"`
	Hints       map[string]string `json:"hints"`
}

// BatchAnalysis is the outcome of analyzing several URLs. Items keep the
// request order; a failed item carries Error instead of Analysis.
type BatchAnalysis struct {
	Items     []BatchItem `json:"items"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
}

// BatchItem is one URL's outcome within a batch.
type BatchItem struct {
	URL      string        `json:"url"`
	Analysis *PageAnalysis `json:"analysis,omitempty"`
	Error    *ItemError    `json:"error,omitempty"`
}

// ItemError describes why a batch item failed.
type ItemError struct {
	Kind           string `json:"kind"`
	Message        string `json:"message"`
	UpstreamStatus int    `json:"upstream_status,omitempty"`
}

// ErrorResponse is the JSON shape returned on failure.
type ErrorResponse struct {
	Error      string `json:"error"`
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
}
