package route

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/idna"
)

const defaultHost = "127.0.0.1"

// splitAuthorityPath splits "authority/seg1/seg2" into its authority and
// path portions. The path portion never includes the separating '/'.
func splitAuthorityPath(s string) (authority, path string) {
	idx := strings.IndexByte(s, '/')
	if idx == -1 {
		return s, ""
	}
	return s[:idx], s[idx+1:]
}

// splitAuthority parses "host:port", a bare port, or a bare host into a
// (host, port) pair. defaultPort is used when the authority carries no
// port; pass 0 to require one.
func splitAuthority(authority string, defaultPort int) (host string, port int, err error) {
	if authority == "" {
		return "", 0, fmt.Errorf("empty authority")
	}

	if isAllDigits(authority) {
		p, err := strconv.Atoi(authority)
		if err != nil || p < 1 || p > 65535 {
			return "", 0, fmt.Errorf("invalid port %q", authority)
		}
		return defaultHost, p, nil
	}

	idx := strings.LastIndexByte(authority, ':')
	if idx == -1 {
		if defaultPort == 0 {
			return "", 0, fmt.Errorf("authority %q is missing a port", authority)
		}
		h, err := normalizeHost(authority)
		if err != nil {
			return "", 0, err
		}
		return h, defaultPort, nil
	}

	hostPart, portPart := authority[:idx], authority[idx+1:]
	if hostPart == "" {
		hostPart = defaultHost
	}
	h, err := normalizeHost(hostPart)
	if err != nil {
		return "", 0, err
	}
	p, err := strconv.Atoi(portPart)
	if err != nil || p < 1 || p > 65535 {
		return "", 0, fmt.Errorf("invalid port in authority %q", authority)
	}
	return h, p, nil
}

// normalizeHost converts an internationalized hostname to its ASCII
// (punycode) form, leaving already-ASCII hostnames untouched. idna returns
// an error for some inputs it still considers usable (e.g. bidi
// violations); in that case the original host is kept rather than failing
// the whole route parse over a cosmetic validation rule.
func normalizeHost(host string) (string, error) {
	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return host, nil
	}
	return ascii, nil
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// looksLikeAuthority reports whether token should be parsed as a bare
// "host:port"/port destination authority rather than a filesystem path.
// Destinations with no explicit scheme are ambiguous between an implied
// upstream authority and a file path; a leading "./", "../" or "/" always
// means a path, a purely numeric or "host:port" part before the first '/'
// ("9090", "9090/foo", "host:9090/foo") always means an authority.
func looksLikeAuthority(token string) bool {
	if token == "" {
		return false
	}
	if isAllDigits(token) {
		return true
	}
	if strings.HasPrefix(token, "./") || strings.HasPrefix(token, "../") || strings.HasPrefix(token, "/") {
		return false
	}
	authority, _ := splitAuthorityPath(token)
	if isAllDigits(authority) {
		return true
	}
	idx := strings.LastIndexByte(authority, ':')
	if idx == -1 {
		return false
	}
	return isAllDigits(authority[idx+1:])
}
