package ratelimit

import (
	"net/http"
	"strings"
)

// UnknownClient is the identifier shared by every request that carries
// neither X-Forwarded-For nor X-Real-IP. All such clients draw from one
// bucket.
const UnknownClient = "unknown"

// ClientIdentifier derives the rate-limit key for r: the first entry of
// X-Forwarded-For, then X-Real-IP, then UnknownClient.
func ClientIdentifier(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	return UnknownClient
}
