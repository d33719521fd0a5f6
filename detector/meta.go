package detector

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/cnosuke/judolhunter/extractor"
	"github.com/cnosuke/judolhunter/patterns"
	"github.com/cnosuke/judolhunter/types"
)

var watchedMeta = map[string]struct{}{
	"description":    {},
	"keywords":       {},
	"og:description": {},
	"og:title":       {},
}

// Meta reports description, keywords and Open Graph meta tags, and the page
// <title>, whose content carries gambling keywords.
func Meta(doc *extractor.Document, p *patterns.Patterns) []types.MetaFinding {
	var findings []types.MetaFinding
	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		name, _ := s.Attr("name")
		if name == "" {
			name, _ = s.Attr("property")
		}
		name = strings.ToLower(strings.TrimSpace(name))
		if _, ok := watchedMeta[name]; !ok {
			return
		}
		content, _ := s.Attr("content")
		content = strings.ToLower(content)
		if p.HasGambling(content) {
			findings = append(findings, types.MetaFinding{Meta: name, Content: truncate(content, maxPreviewLen)})
		}
	})

	if title := strings.ToLower(doc.Title()); p.HasGambling(title) {
		findings = append(findings, types.MetaFinding{Meta: "title", Content: truncate(title, maxPreviewLen)})
	}
	return findings
}
