package detector

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/cnosuke/judolhunter/extractor"
	"github.com/cnosuke/judolhunter/patterns"
	"github.com/cnosuke/judolhunter/types"
)

// Links flags outbound references to gambling destinations. References on
// the page's own host are ignored, except domains named in anchor text.
// Each URL is reported at most once.
func Links(doc *extractor.Document, baseURL string, p *patterns.Patterns) []types.LinkFinding {
	baseHost := extractor.Host(baseURL)
	seen := map[string]struct{}{}

	var findings []types.LinkFinding
	for _, ref := range extractor.ExtractLinks(doc, baseURL, p) {
		if _, dup := seen[ref.URL]; dup {
			continue
		}
		if ref.Always {
			seen[ref.URL] = struct{}{}
			findings = append(findings, alwaysFinding(ref))
			continue
		}
		if f, ok := checkURL(ref, baseHost, p, seen); ok {
			findings = append(findings, f)
		}
	}
	return findings
}

func alwaysFinding(ref extractor.Reference) types.LinkFinding {
	domain := extractor.Host(ref.URL)
	reason := fmt.Sprintf("External <link rel=%s> (possible gambling redirector)", ref.Note)
	if ref.Source == extractor.SourceAnchorText {
		domain = strings.TrimPrefix(ref.URL, "https://")
		reason = fmt.Sprintf("Gambling domain named in anchor text: '%s'", ref.Note)
	}
	return types.LinkFinding{URL: ref.URL, Domain: domain, Reason: reason, Source: ref.Source}
}

// checkURL matches one absolute reference against the pattern set in order:
// known domain, suspicious path fragment, then the catch-all gambling regex.
func checkURL(ref extractor.Reference, baseHost string, p *patterns.Patterns, seen map[string]struct{}) (types.LinkFinding, bool) {
	if !extractor.IsHTTPURL(ref.URL) {
		return types.LinkFinding{}, false
	}
	u, err := url.Parse(ref.URL)
	if err != nil || u.Host == "" {
		return types.LinkFinding{}, false
	}
	domain := strings.ToLower(u.Host)
	if baseHost != "" && domain == baseHost {
		return types.LinkFinding{}, false
	}
	seen[ref.URL] = struct{}{}

	f := types.LinkFinding{URL: ref.URL, Domain: domain, Source: ref.Source}
	if d, ok := p.KnownDomain(domain); ok {
		f.Reason = fmt.Sprintf("Domain contains '%s'", d)
		return f, true
	}
	full := strings.ToLower(domain + u.Path)
	if pat, ok := p.SuspiciousPath(full); ok {
		f.Reason = fmt.Sprintf("URL contains pattern '%s'", pat)
		return f, true
	}
	if term, ok := p.GamblingTerm(full); ok {
		f.Reason = fmt.Sprintf("URL contains keyword '%s'", term)
		return f, true
	}
	return types.LinkFinding{}, false
}
