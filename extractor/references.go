package extractor

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/cnosuke/judolhunter/patterns"
)

// Source tags attached to references.
const (
	SourceAnchorText = "<a> anchor text"
	SourceInlineJS   = "<script> inline JS"
	SourceBase64     = "<script> obfuscated (base64)"
	SourceJSONLD     = "<script> JSON-LD"
	SourceMetaRefres = "<meta refresh>"
	SourceScriptSrc  = "<script src>"
	SourceFormAction = "<form action>"
	SourceImgSrc     = "<img src>"
	SourceIframeSrc  = "<iframe src>"
	SourceEmbedSrc   = "<embed src>"
	SourceObjectData = "<object data>"
)

var metaRefreshURLRe = regexp.MustCompile(`(?i)url\s*=\s*['"]?\s*(https?://[^\s'"]+)`)

// Reference is one outbound reference found in a page.
type Reference struct {
	URL    string
	Source string
	// Always marks references reported without pattern matching: external
	// amphtml/canonical links and domains named in anchor text.
	Always bool
	// Note carries source-specific context for the finding reason, e.g. the
	// rel value or the anchor text.
	Note string
}

// ExtractLinks catalogs the outbound references of doc in a fixed precedence:
// amphtml/canonical links, anchors and areas, embedded frames and objects,
// script sources, form actions, meta refresh targets, data-* attributes,
// inline script literals and base64 payloads, JSON-LD URLs, images, and
// finally domains named in the text of same-domain anchors.
func ExtractLinks(doc *Document, baseURL string, p *patterns.Patterns) []Reference {
	baseHost := Host(baseURL)
	var refs []Reference
	add := func(u, source string) {
		u = strings.TrimSpace(u)
		if u != "" {
			refs = append(refs, Reference{URL: u, Source: source})
		}
	}

	// External amphtml/canonical links are known redirector vectors.
	doc.Find("link[href]").Each(func(_ int, s *goquery.Selection) {
		rel := strings.Join(strings.Fields(attr(s, "rel")), " ")
		if rel != "amphtml" && rel != "canonical" {
			return
		}
		href := strings.TrimSpace(attr(s, "href"))
		host := Host(href)
		if baseHost != "" && host != "" && host != baseHost {
			refs = append(refs, Reference{URL: href, Source: "<link rel=" + rel + ">", Always: true, Note: rel})
		}
	})

	doc.Find("a[href], area[href]").Each(func(_ int, s *goquery.Selection) {
		add(attr(s, "href"), "<"+goquery.NodeName(s)+" href>")
	})
	doc.Find("iframe[src]").Each(func(_ int, s *goquery.Selection) { add(attr(s, "src"), SourceIframeSrc) })
	doc.Find("embed[src]").Each(func(_ int, s *goquery.Selection) { add(attr(s, "src"), SourceEmbedSrc) })
	doc.Find("object[data]").Each(func(_ int, s *goquery.Selection) { add(attr(s, "data"), SourceObjectData) })
	doc.Find("script[src]").Each(func(_ int, s *goquery.Selection) { add(attr(s, "src"), SourceScriptSrc) })
	doc.Find("form[action]").Each(func(_ int, s *goquery.Selection) { add(attr(s, "action"), SourceFormAction) })

	doc.Find("meta[http-equiv]").Each(func(_ int, s *goquery.Selection) {
		if !strings.Contains(strings.ToLower(attr(s, "http-equiv")), "refresh") {
			return
		}
		if m := metaRefreshURLRe.FindStringSubmatch(attr(s, "content")); m != nil {
			add(m[1], SourceMetaRefres)
		}
	})

	for _, name := range []string{"data-href", "data-url", "data-src"} {
		doc.Find("[" + name + "]").Each(func(_ int, s *goquery.Selection) {
			add(attr(s, name), "<"+goquery.NodeName(s)+" "+name+">")
		})
	}

	doc.Find("script:not([src])").Each(func(_ int, s *goquery.Selection) {
		if isJSONLD(s) {
			return
		}
		body := scriptBody(s)
		if strings.TrimSpace(body) == "" {
			return
		}
		for _, u := range ScriptURLs(body) {
			add(u, SourceInlineJS)
		}
		for _, u := range ObfuscatedURLs(body) {
			add(u, SourceBase64)
		}
	})

	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		if !isJSONLD(s) {
			return
		}
		for _, u := range JSONLDURLs(scriptBody(s)) {
			add(u, SourceJSONLD)
		}
	})

	doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		if src := strings.TrimSpace(attr(s, "src")); IsHTTPURL(src) {
			add(src, SourceImgSrc)
		}
	})

	refs = append(refs, anchorTextDomains(doc, baseHost, p)...)
	return refs
}

// anchorTextDomains finds domain-shaped tokens in the text of links that point
// back to the page's own host, e.g. <a href="/x">SULTAN188z.space -5k-</a>.
func anchorTextDomains(doc *Document, baseHost string, p *patterns.Patterns) []Reference {
	var refs []Reference
	seen := map[string]struct{}{}
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		// Relative hrefs have no host and always point back to the page's site.
		if host := Host(attr(s, "href")); host != "" && host != baseHost {
			return
		}
		text := SelectionText(s)
		if text == "" {
			return
		}
		for _, domain := range p.AnchorDomains(text) {
			if _, dup := seen[domain]; dup || domain == baseHost {
				continue
			}
			seen[domain] = struct{}{}
			refs = append(refs, Reference{
				URL:    "https://" + domain,
				Source: SourceAnchorText,
				Always: true,
				Note:   truncateRunes(text, 60),
			})
		}
	})
	return refs
}

func attr(s *goquery.Selection, name string) string {
	v, _ := s.Attr(name)
	return v
}

func isJSONLD(s *goquery.Selection) bool {
	return strings.EqualFold(strings.TrimSpace(attr(s, "type")), "application/ld+json")
}

// scriptBody returns the raw text content of a <script> element.
func scriptBody(s *goquery.Selection) string {
	var b strings.Builder
	for _, n := range s.Nodes {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
