package scanner

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cnosuke/judolhunter/fetcher"
	"github.com/cnosuke/judolhunter/patterns"
	"github.com/cnosuke/judolhunter/types"
)

// --- Mock Fetcher ---

type mockFetcher struct {
	bot     *types.FetchResult
	browser *types.FetchResult
}

func (m *mockFetcher) Fetch(_ context.Context, _ string, identity types.Identity) *types.FetchResult {
	if identity == types.IdentityGooglebot {
		return m.bot
	}
	return m.browser
}

func (m *mockFetcher) FetchBoth(ctx context.Context, url string) (*types.FetchResult, *types.FetchResult) {
	return m.Fetch(ctx, url, types.IdentityGooglebot), m.Fetch(ctx, url, types.IdentityBrowser)
}

func page(identity types.Identity, body string) *types.FetchResult {
	return &types.FetchResult{
		Identity:      identity,
		StatusCode:    200,
		Body:          body,
		Headers:       map[string]string{},
		RedirectChain: []types.Hop{},
		FinalURL:      "https://sekolah.example/",
	}
}

func failed(identity types.Identity, msg string) *types.FetchResult {
	return &types.FetchResult{
		Identity:      identity,
		Headers:       map[string]string{},
		RedirectChain: []types.Hop{},
		FinalURL:      "https://sekolah.example/",
		Error:         msg,
	}
}

type recorder struct {
	mu     sync.Mutex
	events []types.ProgressEvent
}

func (r *recorder) OnProgress(e types.ProgressEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Message)
	}
	return out
}

const (
	cleanHTML    = `<html><head><title>SMA Negeri 1</title></head><body><h1>Selamat datang</h1><p>Informasi penerimaan siswa baru dan jadwal kegiatan sekolah.</p></body></html>`
	gamblingHTML = `<html><head><title>SLOT GACOR MAXWIN</title></head><body><h1>Daftar Slot Gacor</h1><p>Situs slot gacor dan togel online terpercaya, bonus member baru setiap hari.</p></body></html>`
)

// --- Test Cases ---

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		in     Signals
		status types.Status
		risk   types.RiskLevel
	}{
		{name: "both failed", in: Signals{BothFailed: true, IsCloaking: true, KeywordCount: 5}, status: types.StatusError, risk: types.RiskUnknown},
		{name: "cloaking with keywords", in: Signals{IsCloaking: true, KeywordCount: 1}, status: types.StatusInfected, risk: types.RiskCritical},
		{name: "cloaking with keyword volume", in: Signals{IsCloaking: true, KeywordCount: 4}, status: types.StatusInfected, risk: types.RiskCritical},
		{name: "cloaking alone", in: Signals{IsCloaking: true}, status: types.StatusSuspicious, risk: types.RiskHigh},
		{name: "keyword volume", in: Signals{KeywordCount: 3}, status: types.StatusSuspicious, risk: types.RiskHigh},
		{name: "few keywords", in: Signals{KeywordCount: 2}, status: types.StatusSuspicious, risk: types.RiskMedium},
		{name: "other findings", in: Signals{OtherFindings: true}, status: types.StatusSuspicious, risk: types.RiskMedium},
		{name: "nothing", in: Signals{}, status: types.StatusClean, risk: types.RiskLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, risk := Classify(tt.in, 3)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.risk, risk)
		})
	}
}

func TestClassify_CustomVolume(t *testing.T) {
	status, risk := Classify(Signals{KeywordCount: 3}, 5)
	assert.Equal(t, types.StatusSuspicious, status)
	assert.Equal(t, types.RiskMedium, risk)
}

func TestScan_CloakedGambling(t *testing.T) {
	s := New(&mockFetcher{
		bot:     page(types.IdentityGooglebot, gamblingHTML),
		browser: page(types.IdentityBrowser, cleanHTML),
	}, patterns.Default(), Options{})

	res := s.Scan(context.Background(), "https://sekolah.example/")

	require.NotNil(t, res.Findings.Cloaking)
	assert.True(t, res.Findings.Cloaking.IsCloaking)
	assert.Less(t, res.Findings.Cloaking.Similarity, 0.7)
	assert.Contains(t, res.Findings.Cloaking.Details, "Gambling content only appears in Googlebot response (cloaking detected)")
	assert.NotEmpty(t, res.Findings.GamblingKeywords)
	assert.Equal(t, types.StatusInfected, res.Status)
	assert.Equal(t, types.RiskCritical, res.RiskLevel)
	assert.Equal(t, types.IssueCloaking, res.Issues[0])
	assert.True(t, res.HasIssue(types.IssueGamblingKeywords))
	assert.True(t, res.HasIssue(types.IssueMetaInjection))
	assert.NotEmpty(t, res.ScanID)
	assert.Empty(t, res.ErrorMessage)
}

func TestScan_Clean(t *testing.T) {
	s := New(&mockFetcher{
		bot:     page(types.IdentityGooglebot, cleanHTML),
		browser: page(types.IdentityBrowser, cleanHTML),
	}, patterns.Default(), Options{})

	res := s.Scan(context.Background(), "https://sekolah.example/")

	assert.Equal(t, types.StatusClean, res.Status)
	assert.Equal(t, types.RiskLow, res.RiskLevel)
	require.NotNil(t, res.Findings.Cloaking)
	assert.False(t, res.Findings.Cloaking.IsCloaking)
	assert.Equal(t, 1.0, res.Findings.Cloaking.Similarity)
	assert.Empty(t, res.Issues)
	assert.Empty(t, res.Findings.GamblingKeywords)
	assert.Empty(t, res.Findings.SuspiciousLinks)
	assert.Equal(t, "SMA Negeri 1", res.FetchInfo.Googlebot.Title)
}

func TestScan_CrawlerFailedFallsBackToBrowser(t *testing.T) {
	s := New(&mockFetcher{
		bot:     failed(types.IdentityGooglebot, "context deadline exceeded"),
		browser: page(types.IdentityBrowser, cleanHTML),
	}, patterns.Default(), Options{})

	res := s.Scan(context.Background(), "https://sekolah.example/")

	assert.NotEqual(t, types.StatusError, res.Status)
	assert.Equal(t, types.StatusClean, res.Status)
	assert.Equal(t, types.RiskLow, res.RiskLevel)
	assert.Equal(t, "context deadline exceeded", res.FetchInfo.Googlebot.Error)
	assert.Zero(t, res.FetchInfo.Googlebot.StatusCode)
	assert.Equal(t, 200, res.FetchInfo.Browser.StatusCode)
}

func TestScan_CrawlerFailedBrowserGambling(t *testing.T) {
	s := New(&mockFetcher{
		bot:     failed(types.IdentityGooglebot, "connection reset"),
		browser: page(types.IdentityBrowser, gamblingHTML),
	}, patterns.Default(), Options{})

	res := s.Scan(context.Background(), "https://sekolah.example/")

	assert.NotEmpty(t, res.Findings.GamblingKeywords, "browser HTML is analysed when the crawler fetch failed")
	assert.Equal(t, types.StatusSuspicious, res.Status)
}

func TestScan_BothFailed(t *testing.T) {
	s := New(&mockFetcher{
		bot:     failed(types.IdentityGooglebot, "dns error"),
		browser: failed(types.IdentityBrowser, "dns error"),
	}, patterns.Default(), Options{})
	rec := &recorder{}

	res := s.Scan(context.Background(), "https://gone.example/", rec)

	assert.Equal(t, types.StatusError, res.Status)
	assert.Equal(t, types.RiskUnknown, res.RiskLevel)
	assert.Equal(t, "googlebot: dns error; browser: dns error", res.ErrorMessage)
	assert.Nil(t, res.Findings.Cloaking)
	assert.Empty(t, res.Findings.GamblingKeywords)
	assert.Empty(t, res.Findings.SuspiciousLinks)
	assert.Empty(t, res.Findings.HiddenElements)
	assert.Empty(t, res.Findings.MetaInjection)
	assert.Empty(t, res.Issues)

	msgs := rec.messages()
	assert.Equal(t, "Failed to fetch page", msgs[len(msgs)-1])
	assert.NotContains(t, msgs, "Analyzing cloaking...")
}

func TestScan_NilFetchResults(t *testing.T) {
	res := New(&mockFetcher{}, nil, Options{}).Scan(context.Background(), "https://x.example/")
	assert.Equal(t, types.StatusError, res.Status)
}

func TestScan_ProgressEvents(t *testing.T) {
	s := New(&mockFetcher{
		bot:     page(types.IdentityGooglebot, gamblingHTML),
		browser: page(types.IdentityBrowser, cleanHTML),
	}, patterns.Default(), Options{})
	rec := &recorder{}

	res := s.Scan(context.Background(), "https://sekolah.example/", rec)

	msgs := rec.messages()
	require.NotEmpty(t, msgs)
	assert.Equal(t, "Starting scan", msgs[0])
	assert.Contains(t, msgs, "✓ Googlebot: HTTP 200")
	assert.Contains(t, msgs, "✓ Browser: HTTP 200")
	assert.Contains(t, msgs, "Analyzing cloaking...")
	assert.Contains(t, msgs, "No hidden elements found")

	last := rec.events[len(rec.events)-1]
	assert.Equal(t, "Scan complete: status infected, risk critical", last.Message)
	assert.Same(t, res, last.Data["result"])
	for _, e := range rec.events {
		assert.Equal(t, res.ScanID, e.ScanID)
		assert.False(t, e.Timestamp.IsZero())
	}
}

func TestScan_FailingListenersAreIsolated(t *testing.T) {
	s := New(&mockFetcher{
		bot:     page(types.IdentityGooglebot, cleanHTML),
		browser: page(types.IdentityBrowser, cleanHTML),
	}, patterns.Default(), Options{})
	rec := &recorder{}
	erroring := ListenerFunc(func(types.ProgressEvent) error { return errors.New("client went away") })
	panicking := ListenerFunc(func(types.ProgressEvent) error { panic("boom") })

	var res *types.ScanResult
	require.NotPanics(t, func() {
		res = s.Scan(context.Background(), "https://sekolah.example/", erroring, panicking, nil, rec)
	})

	assert.Equal(t, types.StatusClean, res.Status)
	assert.NotEmpty(t, rec.messages())
}

func TestChannelListener(t *testing.T) {
	ch := make(chan types.ProgressEvent, 1)
	l := ChannelListener(ch)

	require.NoError(t, l.OnProgress(types.ProgressEvent{Message: "first"}))
	require.NoError(t, l.OnProgress(types.ProgressEvent{Message: "dropped"}))

	assert.Equal(t, "first", (<-ch).Message)
	assert.Empty(t, ch)
}

func TestScan_Deterministic(t *testing.T) {
	f := &mockFetcher{
		bot:     page(types.IdentityGooglebot, gamblingHTML),
		browser: page(types.IdentityBrowser, cleanHTML),
	}
	s := New(f, patterns.Default(), Options{})
	s.newID = func() string { return "fixed" }
	s.now = func() time.Time { return time.Unix(0, 0) }

	a := s.Scan(context.Background(), "https://sekolah.example/")
	b := s.Scan(context.Background(), "https://sekolah.example/")
	assert.Equal(t, a, b)
}

func TestScan_AgainstHTTPServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if strings.Contains(r.UserAgent(), "Googlebot") {
			_, _ = w.Write([]byte(gamblingHTML))
			return
		}
		_, _ = w.Write([]byte(cleanHTML))
	}))
	t.Cleanup(server.Close)

	f, err := fetcher.NewHTTPFetcher(&fetcher.Config{Timeout: 5})
	require.NoError(t, err)

	res := New(f, patterns.Default(), Options{}).Scan(context.Background(), server.URL)

	assert.Equal(t, types.StatusInfected, res.Status)
	assert.Equal(t, types.RiskCritical, res.RiskLevel)
	assert.Equal(t, server.URL, res.FetchInfo.Googlebot.FinalURL)
}
