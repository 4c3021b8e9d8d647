package pageinsight

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"time"
)

const maxLinks = 1000

// LinkReport is the outcome of probing a page's links.
type LinkReport struct {
	Checked int
	Broken  []string
}

// LinkChecker probes link accessibility using a reusable HTTP client.
type LinkChecker struct {
	client      *http.Client
	concurrency int
}

// NewLinkChecker returns a LinkChecker with a 5s timeout that does not follow
// redirects. Unless allowPrivate is set it blocks connections to
// private/reserved IP ranges. The concurrency parameter controls the worker
// pool size.
func NewLinkChecker(concurrency int, allowPrivate bool) *LinkChecker {
	return newLinkChecker(concurrency, &http.Transport{
		DialContext:         newDialer(allowPrivate).DialContext,
		MaxConnsPerHost:     concurrency,
		MaxIdleConnsPerHost: concurrency,
		IdleConnTimeout:     90 * time.Second,
	})
}

func newLinkChecker(concurrency int, transport http.RoundTripper) *LinkChecker {
	return &LinkChecker{
		concurrency: max(concurrency, 1),
		client: &http.Client{
			Timeout:   5 * time.Second,
			Transport: transport,
			CheckRedirect: func(_ *http.Request, _ []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// checkLink performs a HEAD request and returns true if the link is broken.
// Servers that reject HEAD get a second chance with GET.
func (lc *LinkChecker) checkLink(ctx context.Context, link string) bool {
	status, err := lc.request(ctx, http.MethodHead, link)
	if err == nil && (status == http.StatusMethodNotAllowed || status == http.StatusNotImplemented) {
		status, err = lc.request(ctx, http.MethodGet, link)
	}
	if err != nil {
		return ctx.Err() == nil // broken only if context wasn't cancelled
	}
	return status >= 400
}

func (lc *LinkChecker) request(ctx context.Context, method, link string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, link, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := lc.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	return resp.StatusCode, nil
}

type probeResult struct {
	link   string
	broken bool
}

// Probe checks the unique links concurrently with a pool of worker
// goroutines sized by the configured concurrency. At most 1000 links are
// probed; Broken keeps the input order.
func (lc *LinkChecker) Probe(ctx context.Context, links []string) LinkReport {
	links = uniqueLinks(links)
	links = links[:min(len(links), maxLinks)]

	if len(links) == 0 {
		return LinkReport{Broken: []string{}}
	}

	jobs := make(chan string, len(links))
	results := make(chan probeResult, len(links))

	numWorkers := min(len(links), lc.concurrency)

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Go(func() {
			for link := range jobs {
				results <- probeResult{link: link, broken: lc.checkLink(ctx, link)}
			}
		})
	}

	for _, link := range links {
		jobs <- link
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	broken := make(map[string]bool)
	for r := range results {
		if r.broken {
			broken[r.link] = true
		}
	}

	report := LinkReport{Checked: len(links), Broken: []string{}}
	for _, link := range links {
		if broken[link] {
			report.Broken = append(report.Broken, link)
		}
	}
	return report
}

func uniqueLinks(links []string) []string {
	seen := make(map[string]struct{}, len(links))
	unique := make([]string, 0, len(links))
	for _, link := range links {
		if _, dup := seen[link]; dup {
			continue
		}
		seen[link] = struct{}{}
		unique = append(unique, link)
	}
	return slices.Clip(unique)
}
