package utils

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP extracts the caller's address from a request for audit purposes.
// The first entry of an X-Forwarded-For header wins when present, otherwise
// the direct connection address is used. The value is untrusted and must
// never feed authorization decisions.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
