package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cnosuke/judolhunter/types"
)

// --- Mock HTTP Server Setup ---

func isGooglebot(r *http.Request) bool {
	return strings.Contains(r.UserAgent(), "Googlebot")
}

func startMockServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func newTestFetcher(t *testing.T, cfg *Config) Fetcher {
	t.Helper()
	if cfg == nil {
		cfg = &Config{Timeout: 5}
	}
	f, err := NewHTTPFetcher(cfg)
	require.NoError(t, err, "Failed to create test fetcher")
	return f
}

// --- Test Cases ---

func TestNewHTTPFetcher_NilConfig(t *testing.T) {
	_, err := NewHTTPFetcher(nil)
	require.Error(t, err)
}

func TestHTTPFetcher_Fetch_IdentityUserAgent(t *testing.T) {
	server := startMockServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("X-Seen-UA", r.UserAgent())
		if isGooglebot(r) {
			_, _ = w.Write([]byte("<html><body>crawler view</body></html>"))
			return
		}
		_, _ = w.Write([]byte("<html><body>browser view</body></html>"))
	})
	f := newTestFetcher(t, nil)

	bot := f.Fetch(context.Background(), server.URL, types.IdentityGooglebot)
	require.False(t, bot.Failed())
	assert.Equal(t, types.IdentityGooglebot, bot.Identity)
	assert.Equal(t, http.StatusOK, bot.StatusCode)
	assert.Contains(t, bot.Body, "crawler view")
	assert.Equal(t, DefaultGooglebotUserAgent, bot.Headers["x-seen-ua"])
	assert.Contains(t, bot.Headers["content-type"], "text/html")

	browser := f.Fetch(context.Background(), server.URL, types.IdentityBrowser)
	require.False(t, browser.Failed())
	assert.Contains(t, browser.Body, "browser view")
	assert.Equal(t, DefaultBrowserUserAgent, browser.Headers["x-seen-ua"])
}

func TestHTTPFetcher_Fetch_CustomUserAgents(t *testing.T) {
	server := startMockServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.UserAgent()))
	})
	f := newTestFetcher(t, &Config{Timeout: 5, GooglebotUserAgent: "bot/1.0", BrowserUserAgent: "human/1.0"})

	assert.Equal(t, "bot/1.0", f.Fetch(context.Background(), server.URL, types.IdentityGooglebot).Body)
	assert.Equal(t, "human/1.0", f.Fetch(context.Background(), server.URL, types.IdentityBrowser).Body)
}

func TestHTTPFetcher_Fetch_RedirectChain(t *testing.T) {
	server := startMockServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/start":
			http.Redirect(w, r, "/middle", http.StatusMovedPermanently)
		case "/middle":
			http.Redirect(w, r, "/final", http.StatusFound)
		case "/final":
			_, _ = w.Write([]byte("landed"))
		default:
			http.NotFound(w, r)
		}
	})
	f := newTestFetcher(t, nil)

	res := f.Fetch(context.Background(), server.URL+"/start", types.IdentityBrowser)

	require.False(t, res.Failed(), res.Error)
	assert.Equal(t, server.URL+"/final", res.FinalURL)
	assert.Equal(t, "landed", res.Body)
	require.Len(t, res.RedirectChain, 2)
	assert.Equal(t, types.Hop{URL: server.URL + "/start", StatusCode: http.StatusMovedPermanently}, res.RedirectChain[0])
	assert.Equal(t, types.Hop{URL: server.URL + "/middle", StatusCode: http.StatusFound}, res.RedirectChain[1])
}

func TestHTTPFetcher_Fetch_TooManyRedirects(t *testing.T) {
	server := startMockServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/loop", http.StatusFound)
	})
	f := newTestFetcher(t, &Config{Timeout: 5, MaxRedirects: 3})

	res := f.Fetch(context.Background(), server.URL, types.IdentityGooglebot)

	assert.True(t, res.Failed())
	assert.Contains(t, res.Error, "stopped after 3 redirects")
	assert.Zero(t, res.StatusCode)
}

func TestHTTPFetcher_Fetch_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	target := server.URL
	server.Close()
	f := newTestFetcher(t, nil)

	res := f.Fetch(context.Background(), target, types.IdentityGooglebot)

	assert.True(t, res.Failed())
	assert.Contains(t, res.Error, "failed to execute request")
	assert.Zero(t, res.StatusCode)
	assert.Empty(t, res.Body)
	assert.Empty(t, res.RedirectChain)
	assert.Equal(t, target, res.FinalURL)
}

func TestHTTPFetcher_Fetch_Timeout(t *testing.T) {
	server := startMockServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	})
	f := newTestFetcher(t, &Config{Timeout: 1})

	start := time.Now()
	res := f.Fetch(context.Background(), server.URL, types.IdentityBrowser)

	assert.True(t, res.Failed())
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestHTTPFetcher_Fetch_SelfSignedTLS(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("secure"))
	}))
	t.Cleanup(server.Close)
	f := newTestFetcher(t, nil)

	res := f.Fetch(context.Background(), server.URL, types.IdentityGooglebot)

	require.False(t, res.Failed(), res.Error)
	assert.Equal(t, "secure", res.Body)
}

func TestHTTPFetcher_Fetch_BodyLimit(t *testing.T) {
	server := startMockServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("a", 1000)))
	})
	f := newTestFetcher(t, &Config{Timeout: 5, MaxBodyBytes: 100})

	res := f.Fetch(context.Background(), server.URL, types.IdentityBrowser)

	require.False(t, res.Failed())
	assert.Len(t, res.Body, 100)
}

func TestHTTPFetcher_FetchBoth_IndependentFailure(t *testing.T) {
	server := startMockServer(t, func(w http.ResponseWriter, r *http.Request) {
		if isGooglebot(r) {
			// Drop the connection without a response.
			if hj, ok := w.(http.Hijacker); ok {
				if conn, _, err := hj.Hijack(); err == nil {
					_ = conn.Close()
				}
			}
			return
		}
		_, _ = w.Write([]byte("<p>hello visitor</p>"))
	})

	for _, sequential := range []bool{false, true} {
		f := newTestFetcher(t, &Config{Timeout: 5, Sequential: sequential})

		bot, browser := f.FetchBoth(context.Background(), server.URL)

		require.NotNil(t, bot)
		require.NotNil(t, browser)
		assert.True(t, bot.Failed(), "sequential=%v", sequential)
		assert.Equal(t, types.IdentityGooglebot, bot.Identity)
		assert.False(t, browser.Failed(), "sequential=%v", sequential)
		assert.Equal(t, "<p>hello visitor</p>", browser.Body)
	}
}

func TestDecodeBody(t *testing.T) {
	tests := []struct {
		name        string
		raw         []byte
		contentType string
		expected    string
	}{
		{name: "empty", raw: nil, contentType: "text/html", expected: ""},
		{name: "utf-8 declared", raw: []byte("café"), contentType: "text/html; charset=utf-8", expected: "café"},
		{name: "latin-1 declared", raw: []byte{'c', 'a', 'f', 0xe9}, contentType: "text/html; charset=iso-8859-1", expected: "café"},
		{name: "undeclared ascii", raw: []byte("plain"), contentType: "", expected: "plain"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, decodeBody(tt.raw, tt.contentType))
		})
	}
}
