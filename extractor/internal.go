package extractor

import (
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var skippedSchemes = []string{"javascript:", "mailto:", "tel:", "data:", "#"}

// internalLinkAttrs lists the selector/attribute pairs harvested for internal links.
var internalLinkAttrs = []struct {
	selector string
	attr     string
}{
	{"a[href], area[href]", "href"},
	{"script[src], img[src], iframe[src], embed[src], source[src], video[src], audio[src]", "src"},
	{"link[href]", "href"},
	{"form[action]", "action"},
}

// InternalLinks returns the sorted set of absolute URLs in doc that share the
// registrable domain of baseURL. Fragments and query strings are stripped.
func InternalLinks(doc *Document, baseURL string) []string {
	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" {
		return nil
	}
	baseDomain := RegistrableDomain(base.Host)

	set := map[string]struct{}{}
	for _, la := range internalLinkAttrs {
		doc.Find(la.selector).Each(func(_ int, s *goquery.Selection) {
			if u, ok := resolveInternal(base, baseDomain, attr(s, la.attr)); ok {
				set[u] = struct{}{}
			}
		})
	}

	links := make([]string, 0, len(set))
	for u := range set {
		links = append(links, u)
	}
	sort.Strings(links)
	return links
}

func resolveInternal(base *url.URL, baseDomain, raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || IsMalformedScheme(raw) {
		return "", false
	}
	lower := strings.ToLower(raw)
	for _, prefix := range skippedSchemes {
		if strings.HasPrefix(lower, prefix) {
			return "", false
		}
	}

	ref, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}
	if RegistrableDomain(abs.Host) != baseDomain {
		return "", false
	}
	abs.Fragment = ""
	abs.RawFragment = ""
	abs.RawQuery = ""
	abs.ForceQuery = false
	return abs.String(), true
}
