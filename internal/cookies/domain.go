package cookies

import (
	"net/url"
	"strings"
)

// NormalizeDomain lower-cases a cookie domain or host and strips the leading
// dot, a trailing dot and a "www." prefix, so ".www.Example.com" and
// "example.com" land on the same site.
func NormalizeDomain(domain string) string {
	d := strings.ToLower(strings.TrimSpace(domain))
	d = strings.TrimPrefix(d, ".")
	d = strings.TrimSuffix(d, ".")
	d = strings.TrimPrefix(d, "www.")
	return d
}

// DomainFromURL returns the normalized host of an http(s) URL, or "" for
// anything else (about:blank, chrome://, data:, malformed input).
func DomainFromURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return ""
	}
	return NormalizeDomain(u.Hostname())
}
