package discovery

import (
	"context"
	"net/url"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/cnosuke/judolhunter/extractor"
	"github.com/cnosuke/judolhunter/fetcher"
	ierrors "github.com/cnosuke/judolhunter/internal/errors"
	"github.com/cnosuke/judolhunter/types"
)

// DefaultAssetExtensions are path suffixes of static files that are never scan candidates.
var DefaultAssetExtensions = []string{
	".css", ".js", ".png", ".jpg", ".jpeg", ".gif", ".svg",
	".woff", ".woff2", ".ttf", ".ico", ".webp", ".mp4", ".mp3",
}

var pageExtensions = []string{".php", ".html", ".htm", ".asp", ".aspx"}

type Options struct {
	AssetExtensions []string
}

// Discoverer proposes subpages of a site for follow-up scans, putting pages
// linked only in the crawler view first.
type Discoverer struct {
	fetcher   fetcher.Fetcher
	assetExts []string
}

// New creates a Discoverer. Empty asset extensions fall back to DefaultAssetExtensions.
func New(f fetcher.Fetcher, opts Options) *Discoverer {
	exts := normalizeExts(opts.AssetExtensions)
	if len(exts) == 0 {
		exts = DefaultAssetExtensions
	}
	return &Discoverer{fetcher: f, assetExts: exts}
}

// Discover fetches baseURL under both identities and returns its internal
// pages: crawler-only links first, then links both identities see. Static
// assets and the base URL itself are skipped. An error is returned only
// when the crawler fetch failed.
func (d *Discoverer) Discover(ctx context.Context, baseURL string) (*types.DiscoveryResult, error) {
	result := &types.DiscoveryResult{BaseURL: baseURL, Candidates: []types.Candidate{}}

	bot, browser := d.fetcher.FetchBoth(ctx, baseURL)
	if bot.Failed() {
		return result, ierrors.Wrapf(ierrors.New(fetchError(bot)), "failed to fetch %s as googlebot", baseURL)
	}
	if bot.Body == "" {
		zap.S().Infow("crawler response is empty, nothing to discover", "url", baseURL)
		return result, nil
	}

	botLinks := extractor.InternalLinks(extractor.Parse(bot.Body), baseURL)
	browserLinks := map[string]struct{}{}
	browserOK := !browser.Failed()
	if browserOK {
		for _, u := range extractor.InternalLinks(extractor.Parse(browser.Body), baseURL) {
			browserLinks[u] = struct{}{}
		}
	} else {
		// Without a browser view every link would look injected.
		zap.S().Warnw("browser fetch failed, reporting all links as shared",
			"url", baseURL,
			"error", fetchError(browser))
	}

	seen := map[string]struct{}{strings.TrimRight(baseURL, "/"): {}}
	var injected, shared []types.Candidate
	for _, link := range botLinks {
		key := strings.TrimRight(link, "/")
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		p := linkPath(link)
		if d.isAsset(p) {
			continue
		}
		_, inBrowser := browserLinks[link]
		switch {
		case browserOK && !inBrowser:
			injected = append(injected, types.Candidate{URL: link, InjectedOnly: true})
		case isPage(p):
			shared = append(shared, types.Candidate{URL: link})
		}
	}

	result.Candidates = append(append(result.Candidates, injected...), shared...)
	zap.S().Infow("subpage discovery finished",
		"url", baseURL,
		"injected", len(injected),
		"shared", len(shared))
	return result, nil
}

func (d *Discoverer) isAsset(p string) bool {
	for _, ext := range d.assetExts {
		if strings.HasSuffix(p, ext) {
			return true
		}
	}
	return false
}

// isPage reports whether p looks like a document rather than a file download.
func isPage(p string) bool {
	if p == "" || strings.HasSuffix(p, "/") || !strings.Contains(path.Base(p), ".") {
		return true
	}
	for _, ext := range pageExtensions {
		if strings.HasSuffix(p, ext) {
			return true
		}
	}
	return false
}

func fetchError(r *types.FetchResult) string {
	if r == nil {
		return "no response"
	}
	return r.Error
}

func linkPath(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Path)
}

func normalizeExts(exts []string) []string {
	var out []string
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	return out
}
