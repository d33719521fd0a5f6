package patterns

import (
	"regexp"
	"strings"

	ierrors "github.com/cnosuke/judolhunter/internal/errors"
)

// DefaultGamblingURLRegex matches gambling terms inside a domain+path string.
// It catches domains that are not denylisted yet.
const DefaultGamblingURLRegex = `(?i)slot|togel|judi|casino|poker|gacor|maxwin|toto|mahjong|scatter|bonus.*member|rtp.*slot|freebet`

// DefaultAnchorDomainRegex matches domain-shaped tokens that contain digits and
// end in a TLD commonly used by gambling sites, e.g. "sultan188z.space".
// Legitimate numbered hosts can match too; tune it via the pattern file.
const DefaultAnchorDomainRegex = `(?i)\b([a-zA-Z0-9][\w-]*\d+[\w-]*\.(?:com|net|org|online|site|space|fun|art|link|cc|id|info|cloud|dev))\b`

var (
	defaultGamblingURLRe   = regexp.MustCompile(DefaultGamblingURLRegex)
	defaultAnchorDomainRe  = regexp.MustCompile(DefaultAnchorDomainRegex)
	defaultGamblingWords   = []string{"slot gacor", "slot online", "togel online", "judi online", "casino online", "poker online", "sbobet", "rtp live", "slot maxwin", "bandar togel"}
	defaultSuspiciousPaths = []string{"slot", "togel", "judi", "casino"}
	defaultKnownDomains    = []string{"slotgacor", "togel", "judionline"}
)

// Patterns is the keyword and URL pattern configuration shared by every scan.
// After Compile it is read-only and safe for concurrent use.
type Patterns struct {
	GamblingKeywords      []string `json:"gambling_keywords" yaml:"gambling_keywords"`
	SuspiciousURLPatterns []string `json:"suspicious_url_patterns" yaml:"suspicious_url_patterns"`
	KnownGamblingDomains  []string `json:"known_gambling_domains" yaml:"known_gambling_domains"`
	GamblingURLRegex      string   `json:"gambling_url_regex,omitempty" yaml:"gambling_url_regex"`
	AnchorDomainRegex     string   `json:"anchor_domain_regex,omitempty" yaml:"anchor_domain_regex"`

	keywords     []string
	gamblingURL  *regexp.Regexp
	anchorDomain *regexp.Regexp
}

// Default returns the built-in pattern set.
func Default() *Patterns {
	p := &Patterns{
		GamblingKeywords:      append([]string(nil), defaultGamblingWords...),
		SuspiciousURLPatterns: append([]string(nil), defaultSuspiciousPaths...),
		KnownGamblingDomains:  append([]string(nil), defaultKnownDomains...),
	}
	// The default regexes are known to compile.
	_ = p.Compile()
	return p
}

// New builds and compiles a pattern set from the three pattern lists.
func New(keywords, urlPatterns, domains []string) (*Patterns, error) {
	p := &Patterns{
		GamblingKeywords:      keywords,
		SuspiciousURLPatterns: urlPatterns,
		KnownGamblingDomains:  domains,
	}
	if err := p.Compile(); err != nil {
		return nil, err
	}
	return p, nil
}

// Compile lowercases the lists and compiles the regexes. Empty regex fields
// fall back to the defaults.
func (p *Patterns) Compile() error {
	p.keywords = lowerAll(p.GamblingKeywords)
	p.SuspiciousURLPatterns = lowerAll(p.SuspiciousURLPatterns)
	p.KnownGamblingDomains = lowerAll(p.KnownGamblingDomains)

	p.gamblingURL = defaultGamblingURLRe
	if p.GamblingURLRegex != "" {
		re, err := regexp.Compile(p.GamblingURLRegex)
		if err != nil {
			return ierrors.Wrap(err, "invalid gambling_url_regex")
		}
		p.gamblingURL = re
	}

	p.anchorDomain = defaultAnchorDomainRe
	if p.AnchorDomainRegex != "" {
		re, err := regexp.Compile(p.AnchorDomainRegex)
		if err != nil {
			return ierrors.Wrap(err, "invalid anchor_domain_regex")
		}
		p.anchorDomain = re
	}
	return nil
}

// Keywords returns the lowercase gambling keywords in configured order.
func (p *Patterns) Keywords() []string {
	if p.keywords != nil {
		return p.keywords
	}
	return lowerAll(p.GamblingKeywords)
}

// HasGambling reports whether text contains any gambling keyword, ignoring case.
func (p *Patterns) HasGambling(text string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, kw := range p.Keywords() {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// KnownDomain returns the first known gambling domain fragment contained in domain.
func (p *Patterns) KnownDomain(domain string) (string, bool) {
	for _, d := range p.KnownGamblingDomains {
		if d != "" && strings.Contains(domain, d) {
			return d, true
		}
	}
	return "", false
}

// SuspiciousPath returns the first suspicious URL pattern contained in domainPath.
func (p *Patterns) SuspiciousPath(domainPath string) (string, bool) {
	for _, pat := range p.SuspiciousURLPatterns {
		if pat != "" && strings.Contains(domainPath, pat) {
			return pat, true
		}
	}
	return "", false
}

// GamblingTerm returns the first gambling term the catch-all regex finds in domainPath.
func (p *Patterns) GamblingTerm(domainPath string) (string, bool) {
	re := p.gamblingURL
	if re == nil {
		re = defaultGamblingURLRe
	}
	m := re.FindString(domainPath)
	return m, m != ""
}

// AnchorDomains returns the domain-shaped tokens found in text, lowercased, in order.
func (p *Patterns) AnchorDomains(text string) []string {
	re := p.anchorDomain
	if re == nil {
		re = defaultAnchorDomainRe
	}
	var out []string
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		out = append(out, strings.ToLower(m[1]))
	}
	return out
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
