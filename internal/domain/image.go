package domain

import (
	"net/url"
	"strings"
)

// NormalizeImagePath returns the form in which an image reference is stored.
//
// Absolute http(s) URLs on one of ownHosts are reduced to their path (and
// query), so assets survive a domain move. Other absolute URLs, and paths
// already under /images/ or /uploads/, are kept as they are. Any other
// value is treated as a file name under /images/.
func NormalizeImagePath(raw string, ownHosts []string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		u, err := url.Parse(raw)
		if err != nil || !isOwnHost(u.Hostname(), ownHosts) {
			return raw
		}
		p := u.EscapedPath()
		if p == "" {
			p = "/"
		}
		if u.RawQuery != "" {
			p += "?" + u.RawQuery
		}
		return p
	}

	if strings.HasPrefix(raw, "/images/") || strings.HasPrefix(raw, "/uploads/") {
		return raw
	}
	return "/images/" + strings.TrimLeft(raw, "/")
}

func isOwnHost(host string, ownHosts []string) bool {
	for _, h := range ownHosts {
		if strings.EqualFold(host, h) {
			return true
		}
	}
	return false
}
