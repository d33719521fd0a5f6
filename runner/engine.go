package runner

import (
	"github.com/cnosuke/judolhunter/config"
	"github.com/cnosuke/judolhunter/discovery"
	"github.com/cnosuke/judolhunter/fetcher"
	ierrors "github.com/cnosuke/judolhunter/internal/errors"
	"github.com/cnosuke/judolhunter/scanner"
)

// Engine bundles the components built from one configuration.
type Engine struct {
	Scanner    *scanner.Scanner
	Discoverer *discovery.Discoverer
	Runner     *Runner
}

// NewEngine loads the pattern file named in cfg and wires the fetcher,
// scanner, discoverer and batch runner.
func NewEngine(cfg *config.Config) (*Engine, error) {
	p, err := config.LoadPatterns(cfg.Patterns.File)
	if err != nil {
		return nil, err
	}

	f, err := fetcher.NewHTTPFetcher(&fetcher.Config{
		Timeout:            cfg.Fetch.Timeout,
		GooglebotUserAgent: cfg.Fetch.GooglebotUserAgent,
		BrowserUserAgent:   cfg.Fetch.BrowserUserAgent,
		MaxRedirects:       cfg.Fetch.MaxRedirects,
		MaxBodyBytes:       cfg.Fetch.MaxBodyBytes,
		Sequential:         cfg.Fetch.Sequential,
	})
	if err != nil {
		return nil, ierrors.Wrap(err, "failed to create HTTP fetcher")
	}

	s := scanner.New(f, p, scanner.Options{
		SimilarityThreshold:    cfg.Detection.SimilarityThreshold,
		SimilarityPrefix:       cfg.Detection.SimilarityPrefix,
		KeywordVolumeThreshold: cfg.Detection.KeywordVolumeThreshold,
		ContextRadius:          cfg.Detection.ContextRadius,
	})
	d := discovery.New(f, discovery.Options{AssetExtensions: cfg.Discovery.AssetExtensions})
	r := New(Config{
		MaxWorkers: cfg.Runner.MaxWorkers,
		RateLimit:  cfg.Runner.RateLimit,
		Crawl:      cfg.Runner.Crawl,
		CrawlLimit: cfg.Runner.CrawlLimit,
	}, s, d)

	return &Engine{Scanner: s, Discoverer: d, Runner: r}, nil
}
