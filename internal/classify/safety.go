package classify

import (
	"net"
	"net/url"
	"strings"
)

// IsSafe rejects URLs that could redirect the fetch step at local
// resources: non-HTTP schemes (file, data, ...), loopback, link-local
// and private-range hosts. Catalog URIs (spotify:...) are treated as
// opaque identifiers, not fetchable locations, and pass.
func IsSafe(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}

	if strings.HasPrefix(strings.ToLower(raw), "spotify:") {
		return true
	}

	// Bare host forms ("youtube.com/watch?v=...") parse without a scheme.
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme == "" {
		u, err = url.Parse("https://" + raw)
		if err != nil {
			return false
		}
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return false
	}

	host := u.Hostname()
	if host == "" {
		return false
	}
	return !isLocalHost(host)
}

// isLocalHost reports whether the host names a loopback, link-local or
// private network location.
func isLocalHost(host string) bool {
	h := strings.ToLower(strings.TrimSuffix(host, "."))
	if h == "localhost" || strings.HasSuffix(h, ".localhost") || strings.HasSuffix(h, ".local") {
		return true
	}

	ip := net.ParseIP(h)
	if ip == nil {
		// Unresolvable names are left to the fetch layer; only literal
		// addresses and known-local names short-circuit here.
		return false
	}

	if ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsUnspecified() {
		return true
	}

	if ip4 := ip.To4(); ip4 != nil {
		// 10.0.0.0/8
		if ip4[0] == 10 {
			return true
		}
		// 172.16.0.0/12
		if ip4[0] == 172 && ip4[1] >= 16 && ip4[1] <= 31 {
			return true
		}
		// 192.168.0.0/16
		if ip4[0] == 192 && ip4[1] == 168 {
			return true
		}
		return false
	}

	// Unique Local Address (ULA): fc00::/7
	return ip[0] >= 0xfc && ip[0] <= 0xfd
}
