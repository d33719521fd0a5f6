package detector

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cnosuke/judolhunter/extractor"
	"github.com/cnosuke/judolhunter/patterns"
	"github.com/cnosuke/judolhunter/types"
)

const base = "https://sekolah.example/"

func TestKeywords_CaseInsensitive(t *testing.T) {
	p := patterns.Default()
	upper := Keywords(extractor.ExtractText("<p>SLOT GACOR dan SLOT GACOR lagi</p>"), p, 0)
	lower := Keywords(extractor.ExtractText("<p>slot gacor dan slot gacor lagi</p>"), p, 0)

	require.Len(t, upper, 1)
	assert.Equal(t, "slot gacor", upper[0].Keyword)
	assert.Equal(t, 2, upper[0].Count)
	assert.Equal(t, upper, lower)

	// Raw mixed-case text is lowered before matching.
	raw := Keywords("Main Slot Gacor", p, 0)
	require.Len(t, raw, 1)
	assert.Equal(t, 1, raw[0].Count)
}

func TestKeywords_Context(t *testing.T) {
	p, err := patterns.New([]string{"togel online"}, nil, nil)
	require.NoError(t, err)

	text := strings.Repeat("a", 50) + " togel online " + strings.Repeat("b", 50)
	f := Keywords(text, p, 5)

	require.Len(t, f, 1)
	assert.Equal(t, "...aaaa togel online bbbb...", f[0].Context)

	f = Keywords("togel online", p, 40)
	assert.Equal(t, "...togel online...", f[0].Context)
}

func TestKeywords_MultibyteContext(t *testing.T) {
	p, err := patterns.New([]string{"judi online"}, nil, nil)
	require.NoError(t, err)

	f := Keywords("日本語日本語 judi online 日本語", p, 3)
	require.Len(t, f, 1)
	assert.Equal(t, "...本語 judi online 日本...", f[0].Context)
}

func TestKeywords_Empty(t *testing.T) {
	assert.Empty(t, Keywords("", patterns.Default(), 40))
	assert.Empty(t, Keywords("berita sekolah", patterns.Default(), 40))
}

func TestLinks(t *testing.T) {
	html := `
<a href="https://slotgacor88.com/daftar">daftar</a>
<a href="https://slotgacor88.com/daftar">duplicate</a>
<a href="https://promo.example/togel/hari-ini">togel</a>
<a href="https://bet.example/casino-live">live</a>
<a href="https://news.example/maxwin-tips">tips</a>
<a href="https://sekolah.example/slot-jadwal">same host</a>
<a href="/slot-relative">relative</a>
<a href="https://kemdikbud.example/">clean</a>`

	findings := Links(extractor.Parse(html), base, patterns.Default())

	require.Len(t, findings, 4)
	assert.Equal(t, types.LinkFinding{
		URL:    "https://slotgacor88.com/daftar",
		Domain: "slotgacor88.com",
		Reason: "Domain contains 'slotgacor'",
		Source: "<a href>",
	}, findings[0])
	assert.Equal(t, "URL contains pattern 'togel'", findings[1].Reason)
	assert.Equal(t, "URL contains pattern 'casino'", findings[2].Reason)
	assert.Equal(t, "URL contains keyword 'maxwin'", findings[3].Reason)
	for _, f := range findings {
		assert.NotEqual(t, "sekolah.example", f.Domain)
	}
}

func TestLinks_ObfuscatedScript(t *testing.T) {
	html := `<html><body><p>Selamat datang</p>
<script>var u = atob("aHR0cHM6Ly9zbG90Z2Fjb3IxMjMuY29t"); window.location = u;</script>
</body></html>`

	findings := Links(extractor.Parse(html), base, patterns.Default())

	require.Len(t, findings, 1)
	assert.Equal(t, "https://slotgacor123.com", findings[0].URL)
	assert.Contains(t, findings[0].Source, "obfuscated (base64)")
}

func TestLinks_AlwaysSources(t *testing.T) {
	html := `<head><link rel="amphtml" href="https://amp.cdn-host.example/p"></head>
<body><a href="https://sekolah.example/info">Klik JOKER123.online sekarang</a></body>`

	findings := Links(extractor.Parse(html), base, patterns.Default())

	require.Len(t, findings, 2)
	assert.Equal(t, "amp.cdn-host.example", findings[0].Domain)
	assert.Equal(t, "<link rel=amphtml>", findings[0].Source)
	assert.Contains(t, findings[0].Reason, "External <link rel=amphtml>")

	assert.Equal(t, "https://joker123.online", findings[1].URL)
	assert.Equal(t, "joker123.online", findings[1].Domain)
	assert.Equal(t, extractor.SourceAnchorText, findings[1].Source)
	assert.Equal(t, "Gambling domain named in anchor text: 'Klik JOKER123.online sekarang'", findings[1].Reason)
}

func TestHidden(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		expected int
	}{
		{name: "display none with gambling", html: `<div style="display: none">Slot Gacor Maxwin</div>`, expected: 1},
		{name: "visibility hidden", html: `<span style="visibility:hidden">togel online</span>`, expected: 1},
		{name: "offscreen", html: `<div style="position:absolute; left:-9999px">judi online</div>`, expected: 1},
		{name: "zero height overflow", html: `<div style="overflow:hidden;height:0px">sbobet</div>`, expected: 1},
		{name: "text indent", html: `<p style="text-indent:-10000px">rtp live</p>`, expected: 1},
		{name: "font size zero", html: `<p style="font-size:0">casino online</p>`, expected: 1},
		{name: "opacity zero", html: `<p style="opacity:0">poker online</p>`, expected: 1},
		{name: "opacity partial", html: `<p style="opacity:0.5">poker online</p>`, expected: 0},
		{name: "hidden without gambling", html: `<div style="display:none">menu navigasi</div>`, expected: 0},
		{name: "visible gambling", html: `<div style="color:red">slot gacor</div>`, expected: 0},
		{name: "hidden empty", html: `<div style="display:none"></div>`, expected: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, Hidden(extractor.Parse(tt.html), patterns.Default()), tt.expected)
		})
	}
}

func TestHidden_Fields(t *testing.T) {
	style := "display:none;" + strings.Repeat("x", 150)
	html := `<section style="` + style + `">Bandar Togel terpercaya</section>`

	findings := Hidden(extractor.Parse(html), patterns.Default())

	require.Len(t, findings, 1)
	assert.Equal(t, "section", findings[0].Tag)
	assert.Len(t, findings[0].Style, 100)
	assert.Equal(t, "Bandar Togel terpercaya", findings[0].TextPreview)
}

func TestMeta(t *testing.T) {
	html := `<html><head>
<title>SLOT GACOR Hari Ini</title>
<meta name="description" content="Situs Judi Online terpercaya">
<meta property="og:title" content="Togel Online resmi">
<meta name="keywords" content="sekolah, pendidikan">
<meta name="author" content="slot gacor">
</head></html>`

	findings := Meta(extractor.Parse(html), patterns.Default())

	assert.Equal(t, []types.MetaFinding{
		{Meta: "description", Content: "situs judi online terpercaya"},
		{Meta: "og:title", Content: "togel online resmi"},
		{Meta: "title", Content: "slot gacor hari ini"},
	}, findings)
}

func TestRun(t *testing.T) {
	doc := extractor.Parse(`<html><head><title>slot gacor</title></head><body>
<div style="display:none">slot gacor</div>
<a href="https://togel.example/">x</a></body></html>`)
	in := Input{Doc: doc, BaseURL: base, Patterns: patterns.Default()}

	var f types.Findings
	for _, k := range Kinds {
		r := Run(k, in)
		assert.Equal(t, k, r.Kind)
		assert.Positive(t, r.Count(), k)
		r.Apply(&f)
	}
	assert.NotEmpty(t, f.GamblingKeywords)
	assert.NotEmpty(t, f.SuspiciousLinks)
	assert.NotEmpty(t, f.HiddenElements)
	assert.NotEmpty(t, f.MetaInjection)

	assert.Zero(t, Run(KindKeyword, Input{}).Count())
}

func TestKind_Issue(t *testing.T) {
	assert.Equal(t, types.IssueGamblingKeywords, KindKeyword.Issue())
	assert.Equal(t, types.IssueSuspiciousLinks, KindLink.Issue())
	assert.Equal(t, types.IssueHiddenElements, KindHidden.Issue())
	assert.Equal(t, types.IssueMetaInjection, KindMeta.Issue())
}
