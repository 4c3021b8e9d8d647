package pageinsight

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Bahjat/content-insight/backend/internal/model"
	"github.com/Bahjat/content-insight/backend/internal/platform/errs"
)

// stubURLAnalyzer answers per URL and tracks peak concurrency.
type stubURLAnalyzer struct {
	errs   map[string]error
	delay  map[string]time.Duration
	active atomic.Int32
	peak   atomic.Int32

	mu   sync.Mutex
	seen []string
}

func (s *stubURLAnalyzer) Analyze(ctx context.Context, targetURL string) (*model.PageAnalysis, error) {
	n := s.active.Add(1)
	defer s.active.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}

	s.mu.Lock()
	s.seen = append(s.seen, targetURL)
	s.mu.Unlock()

	if d := s.delay[targetURL]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := s.errs[targetURL]; err != nil {
		return nil, err
	}
	return &model.PageAnalysis{URL: targetURL, Score: 100}, nil
}

func TestBatchRunner_PartialFailures(t *testing.T) {
	stub := &stubURLAnalyzer{
		errs: map[string]error{
			"https://b.example": &errs.AppError{Kind: errs.Unreachable, UpstreamStatus: 503, Message: "down"},
			"https://c.example": errors.New("boom"),
		},
	}
	urls := []string{"https://a.example", "https://b.example", "https://c.example", "https://d.example"}

	batch := NewBatchRunner(stub, 2, time.Second).Run(context.Background(), urls)

	if batch.Succeeded != 2 || batch.Failed != 2 {
		t.Errorf("succeeded=%d failed=%d, want 2/2", batch.Succeeded, batch.Failed)
	}
	for i, item := range batch.Items {
		if item.URL != urls[i] {
			t.Errorf("item %d URL = %q, want input order %q", i, item.URL, urls[i])
		}
	}

	b := batch.Items[1].Error
	if b == nil || b.Kind != "unreachable" || b.UpstreamStatus != 503 || b.Message != "down" {
		t.Errorf("item b error = %+v", b)
	}
	c := batch.Items[2].Error
	if c == nil || c.Kind != "unknown" {
		t.Errorf("item c error = %+v, want unknown kind", c)
	}
	if batch.Items[0].Analysis == nil || batch.Items[0].Error != nil {
		t.Errorf("item a = %+v, want analysis only", batch.Items[0])
	}
}

func TestBatchRunner_PerItemTimeout(t *testing.T) {
	stub := &stubURLAnalyzer{delay: map[string]time.Duration{"https://slow.example": time.Second}}

	batch := NewBatchRunner(stub, 2, 20*time.Millisecond).Run(context.Background(), []string{"https://slow.example", "https://fast.example"})

	slow := batch.Items[0]
	if slow.Error == nil || slow.Error.Kind != "timeout" {
		t.Errorf("slow item = %+v, want timeout error", slow)
	}
	if batch.Items[1].Analysis == nil {
		t.Error("fast item should succeed despite the slow one")
	}
}

func TestBatchRunner_BoundsConcurrency(t *testing.T) {
	delay := map[string]time.Duration{}
	var urls []string
	for i := range 12 {
		u := "https://example.com/" + string(rune('a'+i))
		urls = append(urls, u)
		delay[u] = 10 * time.Millisecond
	}
	stub := &stubURLAnalyzer{delay: delay}

	batch := NewBatchRunner(stub, 3, time.Second).Run(context.Background(), urls)

	if batch.Succeeded != len(urls) {
		t.Errorf("succeeded = %d, want %d", batch.Succeeded, len(urls))
	}
	if peak := stub.peak.Load(); peak > 3 {
		t.Errorf("peak concurrency = %d, want <= 3", peak)
	}
}

func TestBatchRunner_CancelledBatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stub := &stubURLAnalyzer{}
	batch := NewBatchRunner(stub, 2, time.Second).Run(ctx, []string{"https://a.example", "https://b.example"})

	if batch.Failed != 2 {
		t.Errorf("failed = %d, want 2", batch.Failed)
	}
	if len(stub.seen) != 0 {
		t.Errorf("analyzer called for %v after cancellation", stub.seen)
	}
}

func TestBatchRunner_Empty(t *testing.T) {
	batch := NewBatchRunner(&stubURLAnalyzer{}, 0, 0).Run(context.Background(), nil)

	if batch.Items == nil || len(batch.Items) != 0 || batch.Succeeded != 0 || batch.Failed != 0 {
		t.Errorf("batch = %+v, want empty", batch)
	}
}
