package detector

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/cnosuke/judolhunter/extractor"
	"github.com/cnosuke/judolhunter/patterns"
	"github.com/cnosuke/judolhunter/types"
)

// concealmentPatterns match inline styles that hide an element from visitors.
var concealmentPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)display\s*:\s*none`),
	regexp.MustCompile(`(?i)visibility\s*:\s*hidden`),
	regexp.MustCompile(`(?i)position\s*:\s*absolute.*(?:left|top)\s*:\s*-\d{4,}`),
	regexp.MustCompile(`(?i)overflow\s*:\s*hidden.*(?:height|width)\s*:\s*[01]px`),
	regexp.MustCompile(`(?i)text-indent\s*:\s*-\d{4,}`),
	regexp.MustCompile(`(?i)font-size\s*:\s*0`),
	regexp.MustCompile(`(?i)opacity\s*:\s*0(?:\.0+)?(?:;|$)`),
}

const (
	maxStyleLen   = 100
	maxPreviewLen = 200
)

// Hidden reports elements whose inline style conceals them and whose text
// carries gambling keywords. Concealment alone is not reported.
func Hidden(doc *extractor.Document, p *patterns.Patterns) []types.HiddenFinding {
	var findings []types.HiddenFinding
	doc.Find("[style]").Each(func(_ int, s *goquery.Selection) {
		style, _ := s.Attr("style")
		if !concealed(style) {
			return
		}
		text := truncate(extractor.SelectionText(s), maxPreviewLen)
		if text == "" || !p.HasGambling(text) {
			return
		}
		findings = append(findings, types.HiddenFinding{
			Tag:         goquery.NodeName(s),
			Style:       truncate(strings.TrimSpace(style), maxStyleLen),
			TextPreview: text,
		})
	})
	return findings
}

func concealed(style string) bool {
	for _, re := range concealmentPatterns {
		if re.MatchString(style) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
