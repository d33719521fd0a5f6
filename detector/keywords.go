package detector

import (
	"strings"
	"unicode/utf8"

	"github.com/cnosuke/judolhunter/patterns"
	"github.com/cnosuke/judolhunter/types"
)

// DefaultContextRadius is the number of characters kept on each side of a keyword.
const DefaultContextRadius = 40

// Keywords counts each gambling keyword in text and captures the context
// around its first occurrence. Matching ignores case.
func Keywords(text string, p *patterns.Patterns, radius int) []types.KeywordFinding {
	if text == "" {
		return nil
	}
	if radius <= 0 {
		radius = DefaultContextRadius
	}
	text = strings.ToLower(text)

	var findings []types.KeywordFinding
	for _, kw := range p.Keywords() {
		count := strings.Count(text, kw)
		if count == 0 {
			continue
		}
		findings = append(findings, types.KeywordFinding{
			Keyword: kw,
			Count:   count,
			Context: "..." + snippet(text, strings.Index(text, kw), len(kw), radius) + "...",
		})
	}
	return findings
}

// snippet returns text[idx:idx+n] widened by radius runes on each side.
func snippet(text string, idx, n, radius int) string {
	start := idx
	for i := 0; i < radius && start > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(text[:start])
		start -= size
	}
	end := idx + n
	for i := 0; i < radius && end < len(text); i++ {
		_, size := utf8.DecodeRuneInString(text[end:])
		end += size
	}
	return text[start:end]
}
