package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/Bahjat/content-insight/backend/internal/model"
	"github.com/Bahjat/content-insight/backend/internal/platform/errs"
	"github.com/Bahjat/content-insight/backend/internal/platform/requestid"
)

// Service orchestrates a PageInsightProvider and logs results. Concurrent
// analyses of the same URL share one fetch.
type Service struct {
	provider     PageInsightProvider
	batch        BatchProvider
	maxBatchSize int
	logger       *slog.Logger
	inflight     singleflight.Group
}

// NewService creates a Service backed by the given providers. Batches
// larger than maxBatchSize are rejected.
func NewService(provider PageInsightProvider, batch BatchProvider, maxBatchSize int, logger *slog.Logger) *Service {
	return &Service{
		provider:     provider,
		batch:        batch,
		maxBatchSize: maxBatchSize,
		logger:       logger,
	}
}

// Analyze delegates to the provider and logs the outcome. The shared fetch
// runs detached from any one caller, bounded by analyzeTimeout, so a caller
// that gives up only abandons its own wait.
func (s *Service) Analyze(ctx context.Context, targetURL string) (*model.PageAnalysis, error) {
	logger := s.logger.With(slog.String("url", targetURL), requestid.Attr(ctx))

	ch := s.inflight.DoChan(targetURL, func() (any, error) {
		sharedCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), analyzeTimeout)
		defer cancel()
		return s.provider.Analyze(sharedCtx, targetURL)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, s.failed(ctx, logger, ctx.Err())
	}
	if res.Shared {
		logger.Debug("singleflight: shared page analysis")
	}
	if res.Err != nil {
		return nil, s.failed(ctx, logger, res.Err)
	}

	result := res.Val.(*model.PageAnalysis)
	logger.Info("analysis complete",
		"title", result.Title,
		"html_version", result.HTMLVersion,
		"score", result.Score,
		"rating", result.Rating,
		"status", result.Status,
		"internal_links", result.Links.Internal,
		"external_links", result.Links.External,
		"inaccessible_links", result.Links.Inaccessible,
	)
	return result, nil
}

// AnalyzeHTML analyzes caller-supplied markup.
func (s *Service) AnalyzeHTML(ctx context.Context, in model.HTMLInput) (*model.PageAnalysis, error) {
	logger := s.logger.With(slog.String("document_id", in.ID), requestid.Attr(ctx))

	result, err := s.provider.AnalyzeHTML(ctx, in)
	if err != nil {
		return nil, s.failed(ctx, logger, err)
	}

	logger.Info("analysis complete",
		"document_id", result.ID,
		"score", result.Score,
		"rating", result.Rating,
		"status", result.Status,
	)
	return result, nil
}

// AnalyzeBatch validates the batch size and runs every URL, returning
// per-item failures inside the result.
func (s *Service) AnalyzeBatch(ctx context.Context, urls []string) (*model.BatchAnalysis, error) {
	if len(urls) == 0 {
		return nil, &errs.AppError{Kind: errs.InvalidInput, Message: "The \"urls\" field must list at least one URL."}
	}
	if s.maxBatchSize > 0 && len(urls) > s.maxBatchSize {
		return nil, &errs.AppError{
			Kind:    errs.InvalidInput,
			Message: fmt.Sprintf("A batch may contain at most %d URLs.", s.maxBatchSize),
		}
	}

	batch := s.batch.Run(ctx, urls)
	s.logger.Info("batch analysis complete",
		requestid.Attr(ctx),
		"urls", len(urls),
		"succeeded", batch.Succeeded,
		"failed", batch.Failed,
	)
	return batch, nil
}

func (s *Service) failed(ctx context.Context, logger *slog.Logger, err error) error {
	timedOut := errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded)
	if timedOut && errs.KindOf(err) != errs.Timeout {
		err = &errs.AppError{
			Kind:    errs.Timeout,
			Message: "Analysis timed out. The target URL may be slow to respond.",
			Cause:   err,
		}
	}

	attrs := []any{"error", err, "kind", errs.KindOf(err).String()}
	var appErr *errs.AppError
	if errors.As(err, &appErr) && appErr.UpstreamStatus != 0 {
		attrs = append(attrs, "target_status", appErr.UpstreamStatus)
	}
	logger.Error("analysis failed", attrs...)
	return err
}
