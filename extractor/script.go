package extractor

import (
	"encoding/base64"
	"regexp"
	"strings"
)

var (
	scriptURLRe = regexp.MustCompile(`https?://[^\s"'<>)\]}\\]+`)
	jsonLDURLRe = regexp.MustCompile(`https?://[^\s"'<>\\]+`)
	atobRe      = regexp.MustCompile(`atob\s*\(\s*["']([A-Za-z0-9+/=]+)["']\s*\)`)
	b64AssignRe = regexp.MustCompile(`=\s*["']([A-Za-z0-9+/=]{20,})["']`)
)

// jsonLDSafeDomains are vocabulary hosts every JSON-LD block references.
var jsonLDSafeDomains = map[string]struct{}{
	"schema.org":     {},
	"www.schema.org": {},
	"w3.org":         {},
	"www.w3.org":     {},
}

const trailingPunct = ".,;:!?"

// ScriptURLs returns the http(s) URL literals in an inline script body.
// Literals of 10 characters or fewer are dropped as noise.
func ScriptURLs(script string) []string {
	var out []string
	for _, u := range scriptURLRe.FindAllString(script, -1) {
		u = strings.TrimRight(u, trailingPunct)
		if len(u) > 10 {
			out = append(out, u)
		}
	}
	return out
}

// ObfuscatedURLs decodes base64 payloads passed to atob(...) or assigned as
// long string literals, and returns the URLs found in the decoded text.
// Payloads that fail to decode are ignored.
func ObfuscatedURLs(script string) []string {
	var out []string
	for _, re := range []*regexp.Regexp{atobRe, b64AssignRe} {
		for _, m := range re.FindAllStringSubmatch(script, -1) {
			decoded, ok := decodeBase64(m[1])
			if !ok {
				continue
			}
			out = append(out, scriptURLRe.FindAllString(decoded, -1)...)
		}
	}
	return out
}

// JSONLDURLs returns the URLs in a JSON-LD body, skipping schema.org and w3.org.
func JSONLDURLs(body string) []string {
	var out []string
	for _, u := range jsonLDURLRe.FindAllString(body, -1) {
		u = strings.TrimRight(u, trailingPunct)
		if _, safe := jsonLDSafeDomains[Host(u)]; safe {
			continue
		}
		out = append(out, u)
	}
	return out
}

func decodeBase64(s string) (string, bool) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return "", false
	}
	// Arbitrary strings can decode to binary; keep only the valid UTF-8 runes.
	return strings.ToValidUTF8(string(b), ""), true
}
