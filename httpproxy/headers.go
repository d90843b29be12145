package httpproxy

import (
	"net/http"
	"strings"
)

// hopByHop lists the connection-scoped headers stripped when forwarding a
// request to an HTTP upstream. Upgrade is on the list because protocol
// upgrades are never forwarded (see isUpgrade).
var hopByHop = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Proxy-Connection",
	"TE",
	"Trailers",
	"Transfer-Encoding",
	"Upgrade",
}

// copyHeaders copies src into dst, dropping hop-by-hop headers and any
// header named in src's Connection header (the mechanism a client uses to
// name additional connection-scoped headers beyond the fixed list above).
func copyHeaders(dst, src http.Header) {
	drop := make(map[string]bool, len(hopByHop))
	for _, h := range hopByHop {
		drop[h] = true
	}
	for _, name := range connectionTokens(src) {
		drop[http.CanonicalHeaderKey(name)] = true
	}

	for k, vv := range src {
		if drop[http.CanonicalHeaderKey(k)] {
			continue
		}
		for _, v := range vv {
			dst.Add(k, v)
		}
	}
}

func connectionTokens(h http.Header) []string {
	var tokens []string
	for _, v := range h.Values("Connection") {
		for _, tok := range strings.Split(v, ",") {
			tok = strings.TrimSpace(tok)
			if tok != "" {
				tokens = append(tokens, tok)
			}
		}
	}
	return tokens
}

// setForwardedHeaders appends to X-Forwarded-For and sets
// X-Forwarded-Host/X-Forwarded-Proto. These are not hop-by-hop, so they
// are additive on top of copyHeaders.
func setForwardedHeaders(dst http.Header, r *http.Request) {
	clientIP := r.RemoteAddr
	if idx := strings.LastIndexByte(clientIP, ':'); idx != -1 {
		clientIP = clientIP[:idx]
	}
	if prior := dst.Get("X-Forwarded-For"); prior != "" {
		dst.Set("X-Forwarded-For", prior+", "+clientIP)
	} else {
		dst.Set("X-Forwarded-For", clientIP)
	}
	if dst.Get("X-Forwarded-Host") == "" {
		dst.Set("X-Forwarded-Host", r.Host)
	}
	if dst.Get("X-Forwarded-Proto") == "" {
		if r.TLS != nil {
			dst.Set("X-Forwarded-Proto", "https")
		} else {
			dst.Set("X-Forwarded-Proto", "http")
		}
	}
}

// isUpgrade reports whether r asks for a protocol upgrade (WebSocket and
// friends), which this dispatcher declines: there is no
// half-duplex-to-full-duplex path once the request enters the
// match/resolve/forward pipeline.
func isUpgrade(r *http.Request) bool {
	for _, tok := range connectionTokens(r.Header) {
		if strings.EqualFold(tok, "Upgrade") {
			return true
		}
	}
	return r.Header.Get("Upgrade") != ""
}
