package extractor

import (
	"net"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// malformedSchemeRe matches typo'd schemes such as "hhttp://" or "hhttps://".
var malformedSchemeRe = regexp.MustCompile(`(?i)^h+ttps?://`)

var httpSchemeRe = regexp.MustCompile(`(?i)^https?://`)

// IsHTTPURL reports whether s is an absolute http(s) URL. Typo'd schemes
// like "hhttp://" are rejected.
func IsHTTPURL(s string) bool {
	return httpSchemeRe.MatchString(s)
}

// IsMalformedScheme reports whether s starts with a repeated-h scheme such as "hhttps://".
func IsMalformedScheme(s string) bool {
	return malformedSchemeRe.MatchString(s) && !httpSchemeRe.MatchString(s)
}

// Host returns the lowercase host[:port] of rawURL, or "" if it has none.
func Host(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}

// RegistrableDomain returns the eTLD+1 of host. IP addresses and hosts
// without a public suffix are returned unchanged (without port).
func RegistrableDomain(host string) string {
	host = strings.ToLower(host)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.Trim(host, "[]")
	if net.ParseIP(host) != nil {
		return host
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}

// SameSite reports whether two URLs share a registrable domain.
func SameSite(a, b string) bool {
	ha, hb := Host(a), Host(b)
	if ha == "" || hb == "" {
		return false
	}
	return RegistrableDomain(ha) == RegistrableDomain(hb)
}
