package analyzer

import (
	"context"

	"github.com/Bahjat/content-insight/backend/internal/model"
)

// PageInsightProvider defines the contract for any analysis engine.
type PageInsightProvider interface {
	Analyze(ctx context.Context, targetURL string) (*model.PageAnalysis, error)
	AnalyzeHTML(ctx context.Context, in model.HTMLInput) (*model.PageAnalysis, error)
}

// BatchProvider analyzes several URLs, reporting failures per item.
type BatchProvider interface {
	Run(ctx context.Context, urls []string) *model.BatchAnalysis
}
