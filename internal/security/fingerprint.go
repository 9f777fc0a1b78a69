package security

import (
	"net"
	"net/http"
	"strings"
)

// Fingerprint is the (IP, user agent) pair bound into a token at issuance
// and compared on every request that presents it. Components default to the
// empty string when the request carries nothing usable.
type Fingerprint struct {
	IP        string
	UserAgent string
}

// FingerprintFromRequest derives the client fingerprint. The IP policy must
// be identical on the issuance and validation paths, otherwise legitimate
// tokens spuriously mismatch: prefer the first entry of a non-empty
// X-Forwarded-For header, fall back to the connection's remote address.
func FingerprintFromRequest(r *http.Request) Fingerprint {
	if r == nil {
		return Fingerprint{}
	}
	return Fingerprint{
		IP:        clientIP(r),
		UserAgent: r.Header.Get("User-Agent"),
	}
}

func clientIP(r *http.Request) string {
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); forwarded != "" {
		if idx := strings.IndexByte(forwarded, ','); idx >= 0 {
			forwarded = strings.TrimSpace(forwarded[:idx])
		}
		return forwarded
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
