package fetcher

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"

	ierrors "github.com/cnosuke/judolhunter/internal/errors"
	"github.com/cnosuke/judolhunter/types"
)

const (
	// DefaultGooglebotUserAgent is the smartphone Googlebot user agent.
	DefaultGooglebotUserAgent = "Mozilla/5.0 (Linux; Android 6.0.1; Nexus 5X Build/MMB29P) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.6778.69 " +
		"Mobile Safari/537.36 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"
	// DefaultBrowserUserAgent is a desktop Chrome user agent.
	DefaultBrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

	defaultTimeout      = 15 * time.Second
	defaultMaxRedirects = 10
	defaultMaxBodyBytes = 5 << 20
)

type Config struct {
	Timeout            int // seconds
	GooglebotUserAgent string
	BrowserUserAgent   string
	MaxRedirects       int
	MaxBodyBytes       int64
	Sequential         bool
}

// Fetcher defines the interface for fetching a URL under the crawler and browser identities.
// Failures are reported through FetchResult.Error and never as a Go error.
type Fetcher interface {
	// Fetch issues one GET for urlStr presenting the given identity.
	Fetch(ctx context.Context, urlStr string, identity types.Identity) *types.FetchResult

	// FetchBoth fetches urlStr under both identities and waits for both to finish.
	FetchBoth(ctx context.Context, urlStr string) (bot *types.FetchResult, browser *types.FetchResult)
}

// httpFetcher implements the Fetcher interface using HTTP.
type httpFetcher struct {
	client       *http.Client
	userAgents   map[types.Identity]string
	timeout      time.Duration
	maxRedirects int
	maxBodyBytes int64
	sequential   bool
}

// NewHTTPFetcher creates a new httpFetcher. Zero config values fall back to defaults.
func NewHTTPFetcher(cfg *Config) (Fetcher, error) {
	if cfg == nil {
		return nil, errors.New("fetcher config is required")
	}

	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxRedirects := cfg.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = defaultMaxRedirects
	}
	maxBodyBytes := cfg.MaxBodyBytes
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
	}
	googlebotUA := cfg.GooglebotUserAgent
	if googlebotUA == "" {
		googlebotUA = DefaultGooglebotUserAgent
	}
	browserUA := cfg.BrowserUserAgent
	if browserUA == "" {
		browserUA = DefaultBrowserUserAgent
	}

	zap.S().Infow("creating new HTTP fetcher",
		"timeout", timeout,
		"max_redirects", maxRedirects,
		"max_body_bytes", maxBodyBytes,
		"sequential", cfg.Sequential)

	// Target sites are adversarial and often misconfigured, so certificates are not verified.
	transport := &http.Transport{
		Proxy:           http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:   true,
		TLSHandshakeTimeout: timeout,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
	}

	return &httpFetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		userAgents: map[types.Identity]string{
			types.IdentityGooglebot: googlebotUA,
			types.IdentityBrowser:   browserUA,
		},
		timeout:      timeout,
		maxRedirects: maxRedirects,
		maxBodyBytes: maxBodyBytes,
		sequential:   cfg.Sequential,
	}, nil
}

// Fetch fetches urlStr under identity. It always returns a non-nil result.
func (f *httpFetcher) Fetch(ctx context.Context, urlStr string, identity types.Identity) *types.FetchResult {
	result, err := f.fetch(ctx, urlStr, identity)
	if err != nil {
		zap.S().Warnw("fetch failed",
			"url", urlStr,
			"identity", identity,
			"error", err)
		return &types.FetchResult{
			Identity:      identity,
			Headers:       map[string]string{},
			RedirectChain: []types.Hop{},
			FinalURL:      urlStr,
			Error:         err.Error(),
		}
	}
	return result
}

// FetchBoth fetches urlStr under both identities, in parallel unless configured otherwise.
func (f *httpFetcher) FetchBoth(ctx context.Context, urlStr string) (*types.FetchResult, *types.FetchResult) {
	if f.sequential {
		return f.Fetch(ctx, urlStr, types.IdentityGooglebot), f.Fetch(ctx, urlStr, types.IdentityBrowser)
	}

	var bot, browser *types.FetchResult
	wg := &sync.WaitGroup{}
	wg.Add(2)
	go func() {
		defer wg.Done()
		bot = f.Fetch(ctx, urlStr, types.IdentityGooglebot)
	}()
	go func() {
		defer wg.Done()
		browser = f.Fetch(ctx, urlStr, types.IdentityBrowser)
	}()
	wg.Wait()
	return bot, browser
}

func (f *httpFetcher) fetch(ctx context.Context, urlStr string, identity types.Identity) (*types.FetchResult, error) {
	ua, ok := f.userAgents[identity]
	if !ok {
		return nil, errors.Newf("unknown identity %q", identity)
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, ierrors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	// Each call gets its own redirect recorder; the transport is shared.
	chain := []types.Hop{}
	client := *f.client
	client.CheckRedirect = func(next *http.Request, via []*http.Request) error {
		if len(via) >= f.maxRedirects {
			return errors.Newf("stopped after %d redirects", f.maxRedirects)
		}
		hop := types.Hop{URL: via[len(via)-1].URL.String()}
		if next.Response != nil {
			hop.StatusCode = next.Response.StatusCode
		}
		chain = append(chain, hop)
		return nil
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, ierrors.Wrap(err, "failed to execute request")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes))
	if err != nil {
		return nil, ierrors.Wrap(err, "failed to read response body")
	}

	contentType := resp.Header.Get("Content-Type")
	body := decodeBody(raw, contentType)

	zap.S().Debugw(
		"response received",
		"url", urlStr,
		"identity", identity,
		"status", resp.StatusCode,
		"final_url", resp.Request.URL.String(),
		"redirects", len(chain),
		"bytes", len(raw),
		"content_type", contentType,
	)

	headers := make(map[string]string, len(resp.Header))
	for k, vs := range resp.Header {
		headers[strings.ToLower(k)] = strings.Join(vs, ", ")
	}

	return &types.FetchResult{
		Identity:      identity,
		StatusCode:    resp.StatusCode,
		Body:          body,
		Headers:       headers,
		RedirectChain: chain,
		FinalURL:      resp.Request.URL.String(),
	}, nil
}

// decodeBody converts body to UTF-8 using the Content-Type charset, a BOM or
// a <meta charset> declaration. Undecodable input is returned unchanged.
func decodeBody(raw []byte, contentType string) string {
	if len(raw) == 0 {
		return ""
	}
	enc, name, _ := charset.DetermineEncoding(raw, contentType)
	if name == "utf-8" || enc == nil {
		return string(raw)
	}
	decoded, err := io.ReadAll(enc.NewDecoder().Reader(bytes.NewReader(raw)))
	if err != nil {
		zap.S().Debugw("charset decode failed, using raw body", "charset", name, "error", err)
		return string(raw)
	}
	return string(decoded)
}
