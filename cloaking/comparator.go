package cloaking

import (
	"fmt"
	"math"

	"github.com/pmezard/go-difflib/difflib"
	"go.uber.org/zap"

	"github.com/cnosuke/judolhunter/extractor"
	"github.com/cnosuke/judolhunter/patterns"
	"github.com/cnosuke/judolhunter/types"
)

const (
	DefaultThreshold = 0.7
	DefaultPrefix    = 5000

	// DetailCrawlerOnlyGambling marks the asymmetric case: gambling text served
	// to the crawler and not to the browser.
	DetailCrawlerOnlyGambling = "Gambling content only appears in Googlebot response (cloaking detected)"
)

type Options struct {
	// Threshold is the similarity below which content counts as different.
	Threshold float64
	// Prefix is the number of characters of extracted text compared.
	Prefix int
}

// Comparator compares the crawler and browser responses for one URL.
type Comparator struct {
	patterns  *patterns.Patterns
	threshold float64
	prefix    int
}

// New creates a Comparator. Zero options fall back to defaults.
func New(p *patterns.Patterns, opts Options) *Comparator {
	if p == nil {
		p = patterns.Default()
	}
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.Prefix <= 0 {
		opts.Prefix = DefaultPrefix
	}
	return &Comparator{patterns: p, threshold: opts.Threshold, prefix: opts.Prefix}
}

// Compare extracts the text of both bodies and compares the responses.
func (c *Comparator) Compare(bot, browser *types.FetchResult) *types.CloakingVerdict {
	return c.CompareText(bot, browser, extractor.ExtractText(body(bot)), extractor.ExtractText(body(browser)))
}

// CompareText compares the responses using already extracted lowercase texts.
// Redirect and status checks only run when both identities got a response.
func (c *Comparator) CompareText(bot, browser *types.FetchResult, botText, browserText string) *types.CloakingVerdict {
	v := &types.CloakingVerdict{Similarity: 1.0, Details: []string{}}

	if !bot.Failed() && !browser.Failed() {
		if bot.FinalURL != browser.FinalURL {
			v.IsCloaking = true
			v.Details = append(v.Details, fmt.Sprintf("Different redirects: Googlebot -> %s, Browser -> %s", bot.FinalURL, browser.FinalURL))
		}
		if bot.StatusCode != browser.StatusCode {
			v.IsCloaking = true
			v.Details = append(v.Details, fmt.Sprintf("Different status codes: Googlebot=%d, Browser=%d", bot.StatusCode, browser.StatusCode))
		}
	}

	if body(bot) == "" || body(browser) == "" {
		return v
	}

	v.Similarity = Similarity(botText, browserText, c.prefix)
	zap.S().Debugw("content similarity computed",
		"url", bot.FinalURL,
		"similarity", v.Similarity,
		"threshold", c.threshold)

	if v.Similarity < c.threshold {
		v.IsCloaking = true
		v.Details = append(v.Details, fmt.Sprintf("Very different content (similarity: %.1f%%)", v.Similarity*100))
		if c.patterns.HasGambling(botText) && !c.patterns.HasGambling(browserText) {
			v.Details = append(v.Details, DetailCrawlerOnlyGambling)
		}
	}
	return v
}

// Similarity returns the matching-block ratio of the first prefix characters
// of a and b, rounded to three decimals. Two empty strings are identical.
func Similarity(a, b string, prefix int) float64 {
	if a == b {
		return 1.0
	}
	ra, rb := runes(a, prefix), runes(b, prefix)
	ratio := difflib.NewMatcher(ra, rb).Ratio()
	return math.Round(ratio*1000) / 1000
}

// runes splits s into single-character strings, keeping at most limit of them.
func runes(s string, limit int) []string {
	out := make([]string, 0, min(len(s), limit))
	for _, r := range s {
		if len(out) == limit {
			break
		}
		out = append(out, string(r))
	}
	return out
}

func body(r *types.FetchResult) string {
	if r == nil {
		return ""
	}
	return r.Body
}
