package scanner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cnosuke/judolhunter/cloaking"
	"github.com/cnosuke/judolhunter/detector"
	"github.com/cnosuke/judolhunter/extractor"
	"github.com/cnosuke/judolhunter/fetcher"
	"github.com/cnosuke/judolhunter/patterns"
	"github.com/cnosuke/judolhunter/types"
)

type Options struct {
	SimilarityThreshold    float64
	SimilarityPrefix       int
	KeywordVolumeThreshold int
	ContextRadius          int
}

// Scanner runs the full detection pipeline for single URLs. It holds no
// per-scan state and may be shared by concurrent scans.
type Scanner struct {
	fetcher    fetcher.Fetcher
	patterns   *patterns.Patterns
	comparator *cloaking.Comparator
	opts       Options

	newID func() string
	now   func() time.Time
}

// New creates a Scanner. A nil pattern set uses the built-in patterns.
func New(f fetcher.Fetcher, p *patterns.Patterns, opts Options) *Scanner {
	if p == nil {
		p = patterns.Default()
	}
	if opts.KeywordVolumeThreshold <= 0 {
		opts.KeywordVolumeThreshold = DefaultKeywordVolumeThreshold
	}
	if opts.ContextRadius <= 0 {
		opts.ContextRadius = detector.DefaultContextRadius
	}
	return &Scanner{
		fetcher:  f,
		patterns: p,
		comparator: cloaking.New(p, cloaking.Options{
			Threshold: opts.SimilarityThreshold,
			Prefix:    opts.SimilarityPrefix,
		}),
		opts:  opts,
		newID: uuid.NewString,
		now:   time.Now,
	}
}

// Scan fetches url as the crawler and as a browser, compares the responses,
// runs every detector and classifies the page. It always returns a result;
// fetch failures are reported inside it. Listener failures never affect the scan.
func (s *Scanner) Scan(ctx context.Context, url string, listeners ...Listener) *types.ScanResult {
	started := s.now()
	result := &types.ScanResult{
		ScanID:    s.newID(),
		URL:       url,
		Status:    types.StatusClean,
		RiskLevel: types.RiskLow,
		Issues:    []string{},
		StartedAt: started,
	}
	n := newNotifier(result.ScanID, listeners, s.now)
	// The final event carries the result, so it must be complete before delivery.
	finish := func() {
		result.DurationMs = s.now().Sub(started).Milliseconds()
	}

	zap.S().Infow("scan started", "scan_id", result.ScanID, "url", url)
	n.notify("Starting scan", map[string]any{"url": url})

	n.notify("Fetching page as Googlebot...", nil)
	n.notify("Fetching page as Browser...", nil)
	bot, browser := s.fetcher.FetchBoth(ctx, url)
	bot = orFailed(bot, types.IdentityGooglebot, url)
	browser = orFailed(browser, types.IdentityBrowser, url)
	n.notify(fetchMessage("Googlebot", bot), nil)
	n.notify(fetchMessage("Browser", browser), nil)

	result.FetchInfo = types.FetchInfo{
		Googlebot: summarize(bot),
		Browser:   summarize(browser),
	}

	if bot.Failed() && browser.Failed() {
		result.Status, result.RiskLevel = Classify(Signals{BothFailed: true}, s.opts.KeywordVolumeThreshold)
		result.ErrorMessage = fmt.Sprintf("googlebot: %s; browser: %s", bot.Error, browser.Error)
		zap.S().Warnw("scan failed, page unreachable for both identities",
			"scan_id", result.ScanID,
			"url", url,
			"error", result.ErrorMessage)
		finish()
		n.notify("Failed to fetch page", map[string]any{"result": result})
		return result
	}

	botDoc := extractor.Parse(bot.Body)
	browserDoc := extractor.Parse(browser.Body)

	n.notify("Analyzing cloaking...", nil)
	verdict := s.comparator.CompareText(bot, browser, botDoc.Text(), browserDoc.Text())
	result.Findings.Cloaking = verdict
	if verdict.IsCloaking {
		result.Issues = append(result.Issues, types.IssueCloaking)
		n.notify(fmt.Sprintf("Cloaking detected! Similarity: %.1f%%", verdict.Similarity*100), nil)
	}

	// The crawler view is what attackers target; fall back to the browser view.
	doc := botDoc
	if bot.Body == "" {
		doc = browserDoc
	}
	in := detector.Input{
		Doc:           doc,
		BaseURL:       url,
		Patterns:      s.patterns,
		ContextRadius: s.opts.ContextRadius,
	}

	n.notify("Running detectors...", nil)
	for _, r := range runDetectors(in) {
		r.Apply(&result.Findings)
		if r.Count() > 0 {
			result.Issues = append(result.Issues, r.Kind.Issue())
			n.notify(fmt.Sprintf("Found %d %s", r.Count(), r.Kind.Label()), nil)
		} else {
			n.notify(fmt.Sprintf("No %s found", r.Kind.Label()), nil)
		}
	}

	f := result.Findings
	result.Status, result.RiskLevel = Classify(Signals{
		IsCloaking:   verdict.IsCloaking,
		KeywordCount: len(f.GamblingKeywords),
		OtherFindings: len(f.SuspiciousLinks) > 0 ||
			len(f.HiddenElements) > 0 ||
			len(f.MetaInjection) > 0,
	}, s.opts.KeywordVolumeThreshold)

	zap.S().Infow("scan finished",
		"scan_id", result.ScanID,
		"url", url,
		"status", result.Status,
		"risk_level", result.RiskLevel,
		"issues", result.Issues)
	finish()
	n.notify(fmt.Sprintf("Scan complete: status %s, risk %s", result.Status, result.RiskLevel),
		map[string]any{"result": result})
	return result
}

// runDetectors runs every detector concurrently over the shared read-only
// input and returns the results in detector.Kinds order.
func runDetectors(in detector.Input) []detector.Result {
	results := make([]detector.Result, len(detector.Kinds))
	wg := &sync.WaitGroup{}
	for i, k := range detector.Kinds {
		wg.Add(1)
		go func(i int, k detector.Kind) {
			defer wg.Done()
			results[i] = detector.Run(k, in)
		}(i, k)
	}
	wg.Wait()
	return results
}

func fetchMessage(label string, r *types.FetchResult) string {
	if r.Failed() {
		return fmt.Sprintf("✗ %s: %s", label, r.Error)
	}
	mark := "✓"
	if r.StatusCode != 200 {
		mark = "✗"
	}
	return fmt.Sprintf("%s %s: HTTP %d", mark, label, r.StatusCode)
}

func orFailed(r *types.FetchResult, identity types.Identity, url string) *types.FetchResult {
	if r != nil {
		return r
	}
	return &types.FetchResult{Identity: identity, FinalURL: url, Error: "no response"}
}

func summarize(r *types.FetchResult) types.FetchSummary {
	redirects := r.RedirectChain
	if redirects == nil {
		redirects = []types.Hop{}
	}
	summary := types.FetchSummary{
		StatusCode: r.StatusCode,
		FinalURL:   r.FinalURL,
		Redirects:  redirects,
		Error:      r.Error,
	}
	if r.Body != "" {
		summary.Title = extractor.PageTitle(r.Body, r.FinalURL)
	}
	return summary
}
