package observability

import (
	"net"
	"net/http"
	"strings"
)

// Request header helpers used when annotating feed connections. The
// service has no accounts, so the device id header is the only caller
// identity available.

func DeviceIDFromRequest(r *http.Request) string {
	return r.Header.Get("X-Device-Id")
}

func RequestIDFromRequest(r *http.Request) string {
	return r.Header.Get("X-Request-Id")
}

// IPFromRequest prefers the first X-Forwarded-For hop over the raw
// remote address.
func IPFromRequest(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
