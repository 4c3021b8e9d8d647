package pageinsight

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Bahjat/content-insight/backend/internal/model"
	"github.com/Bahjat/content-insight/backend/internal/platform/errs"
)

// urlAnalyzer is anything that can analyze a single URL.
type urlAnalyzer interface {
	Analyze(ctx context.Context, targetURL string) (*model.PageAnalysis, error)
}

// BatchRunner analyzes many URLs with a bounded worker pool. Each item gets
// its own deadline; one failing item never fails the batch.
type BatchRunner struct {
	analyzer    urlAnalyzer
	concurrency int
	itemTimeout time.Duration
}

// NewBatchRunner returns a BatchRunner. A non-positive itemTimeout means
// items are bounded only by the batch context.
func NewBatchRunner(analyzer urlAnalyzer, concurrency int, itemTimeout time.Duration) *BatchRunner {
	return &BatchRunner{
		analyzer:    analyzer,
		concurrency: max(concurrency, 1),
		itemTimeout: itemTimeout,
	}
}

type batchResult struct {
	index int
	item  model.BatchItem
}

// Run analyzes urls and returns one item per input URL, in input order.
func (b *BatchRunner) Run(ctx context.Context, urls []string) *model.BatchAnalysis {
	batch := &model.BatchAnalysis{Items: make([]model.BatchItem, len(urls))}
	if len(urls) == 0 {
		return batch
	}

	jobs := make(chan int, len(urls))
	results := make(chan batchResult, len(urls))

	var wg sync.WaitGroup
	for range min(len(urls), b.concurrency) {
		wg.Go(func() {
			for i := range jobs {
				results <- batchResult{index: i, item: b.analyzeOne(ctx, urls[i])}
			}
		})
	}

	for i := range urls {
		jobs <- i
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	for r := range results {
		batch.Items[r.index] = r.item
		if r.item.Error != nil {
			batch.Failed++
		} else {
			batch.Succeeded++
		}
	}
	return batch
}

func (b *BatchRunner) analyzeOne(ctx context.Context, targetURL string) model.BatchItem {
	item := model.BatchItem{URL: targetURL}

	if err := ctx.Err(); err != nil {
		item.Error = itemError(fetchError(ctx, "The batch was cancelled before this URL was analyzed.", err))
		return item
	}

	itemCtx := ctx
	if b.itemTimeout > 0 {
		var cancel context.CancelFunc
		itemCtx, cancel = context.WithTimeout(ctx, b.itemTimeout)
		defer cancel()
	}

	result, err := b.analyzer.Analyze(itemCtx, targetURL)
	if err != nil {
		if errs.KindOf(err) != errs.Timeout && errors.Is(itemCtx.Err(), context.DeadlineExceeded) {
			err = fetchError(itemCtx, "", err)
		}
		item.Error = itemError(err)
		return item
	}
	item.Analysis = result
	return item
}

func itemError(err error) *model.ItemError {
	var appErr *errs.AppError
	if errors.As(err, &appErr) {
		return &model.ItemError{
			Kind:           appErr.Kind.String(),
			Message:        appErr.Message,
			UpstreamStatus: appErr.UpstreamStatus,
		}
	}
	return &model.ItemError{
		Kind:    errs.Unknown.String(),
		Message: "An unexpected error occurred.",
	}
}
