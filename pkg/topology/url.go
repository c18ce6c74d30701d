package topology

import (
	"net/url"
	"strings"
)

// Canonical rewrites a node URL to a canonical form so that http/https
// variants of the same endpoint compare equal: the scheme is forced to
// https, the host is lowercased, and a trailing slash on the path is
// dropped. Unparseable input is returned unchanged (lowercased) so that
// comparison still degrades to string equality instead of failing.
func Canonical(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	u, err := url.Parse(trimmed)
	if err != nil || u.Host == "" {
		return strings.ToLower(strings.TrimSuffix(trimmed, "/"))
	}
	u.Scheme = "https"
	u.Host = strings.ToLower(u.Host)
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u.String()
}

// SameEndpoint reports whether two node URLs identify the same endpoint
// after canonicalization.
func SameEndpoint(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return Canonical(a) == Canonical(b)
}

// DisplayName derives a short human-readable name from a node URL: the
// scheme is stripped and a trailing slash removed. Used as the fallback
// node label when a requested label field has no value.
func DisplayName(rawURL string) string {
	s := strings.TrimSpace(rawURL)
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	return strings.TrimSuffix(s, "/")
}
