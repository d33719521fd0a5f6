package runner

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cnosuke/judolhunter/scanner"
	"github.com/cnosuke/judolhunter/types"
)

const defaultMaxWorkers = 5

// Scanner scans a single URL.
type Scanner interface {
	Scan(ctx context.Context, url string, listeners ...scanner.Listener) *types.ScanResult
}

// Discoverer proposes subpages of a base URL.
type Discoverer interface {
	Discover(ctx context.Context, baseURL string) (*types.DiscoveryResult, error)
}

type Config struct {
	MaxWorkers int
	RateLimit  int // scans started per second, 0 = unlimited
	Crawl      bool
	CrawlLimit int // subpages kept per seed, 0 = all
}

// Runner scans batches of URLs with a bounded worker pool.
type Runner struct {
	cfg        Config
	scanner    Scanner
	discoverer Discoverer
}

// New creates a Runner. The discoverer is only used in crawl mode and may be nil otherwise.
func New(cfg Config, s Scanner, d Discoverer) *Runner {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = defaultMaxWorkers
	}
	return &Runner{cfg: cfg, scanner: s, discoverer: d}
}

// Targets returns the URLs a run will scan: the seeds, followed in crawl
// mode by the subpages discovered under each seed. Duplicates are dropped.
func (r *Runner) Targets(ctx context.Context, seeds []string) []string {
	seen := map[string]struct{}{}
	var targets []string
	add := func(u string) {
		if _, dup := seen[u]; !dup {
			seen[u] = struct{}{}
			targets = append(targets, u)
		}
	}
	for _, s := range seeds {
		add(s)
	}
	if !r.cfg.Crawl || r.discoverer == nil {
		return targets
	}

	for _, seed := range seeds {
		if ctx.Err() != nil {
			break
		}
		res, err := r.discoverer.Discover(ctx, seed)
		if err != nil {
			zap.S().Warnw("subpage discovery failed", "url", seed, "error", err)
			continue
		}
		urls := res.URLs()
		if r.cfg.CrawlLimit > 0 && len(urls) > r.cfg.CrawlLimit {
			urls = urls[:r.cfg.CrawlLimit]
		}
		zap.S().Infow("subpages discovered",
			"url", seed,
			"candidates", len(res.Candidates),
			"injected", res.InjectedCount(),
			"kept", len(urls))
		for _, u := range urls {
			add(u)
		}
	}
	return targets
}

// Run scans every target and returns the results in target order. Targets
// not started before ctx is cancelled are omitted.
func (r *Runner) Run(ctx context.Context, targets []string, listeners ...scanner.Listener) []*types.ScanResult {
	zap.S().Debugw("scanning URLs",
		"count", len(targets),
		"workers", r.cfg.MaxWorkers,
		"rate_limit", r.cfg.RateLimit)

	results := make([]*types.ScanResult, len(targets))

	var rateCh <-chan time.Time
	if r.cfg.RateLimit > 0 {
		ticker := time.NewTicker(time.Second / time.Duration(r.cfg.RateLimit))
		defer ticker.Stop()
		rateCh = ticker.C
	}

	type job struct {
		index int
		url   string
	}
	jobs := make(chan job)

	wg := &sync.WaitGroup{}
	for i := 0; i < min(r.cfg.MaxWorkers, max(len(targets), 1)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				if rateCh != nil {
					select {
					case <-ctx.Done():
						continue
					case <-rateCh:
					}
				}
				if ctx.Err() != nil {
					continue
				}
				zap.S().Debugw("initiating scan for URL", "url", j.url)
				results[j.index] = r.scanner.Scan(ctx, j.url, listeners...)
			}
		}()
	}

	for i, u := range targets {
		if ctx.Err() != nil {
			break
		}
		jobs <- job{index: i, url: u}
	}
	close(jobs)
	wg.Wait()

	out := make([]*types.ScanResult, 0, len(results))
	for _, res := range results {
		if res != nil {
			out = append(out, res)
		}
	}
	return out
}
