package security

import (
	"net/http/httptest"
	"testing"
)

func TestFingerprintFromRequestPrefersForwardedFor(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.1:9999"
	r.Header.Set("X-Forwarded-For", "1.2.3.4, 10.0.0.2")
	r.Header.Set("User-Agent", "A")

	fp := FingerprintFromRequest(r)
	if fp.IP != "1.2.3.4" {
		t.Fatalf("ip = %q, want first forwarded entry", fp.IP)
	}
	if fp.UserAgent != "A" {
		t.Fatalf("ua = %q, want A", fp.UserAgent)
	}
}

func TestFingerprintFromRequestFallsBackToRemoteAddr(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.1:9999"
	r.Header.Del("User-Agent")

	fp := FingerprintFromRequest(r)
	if fp.IP != "10.0.0.1" {
		t.Fatalf("ip = %q, want host of remote addr", fp.IP)
	}
	if fp.UserAgent != "" {
		t.Fatalf("ua = %q, want empty", fp.UserAgent)
	}
}

func TestFingerprintFromRequestHandlesUnparseableRemoteAddr(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "unix-socket"

	if fp := FingerprintFromRequest(r); fp.IP != "unix-socket" {
		t.Fatalf("ip = %q, want remote addr verbatim", fp.IP)
	}
}

func TestFingerprintFromRequestNeverErrors(t *testing.T) {
	if fp := FingerprintFromRequest(nil); fp != (Fingerprint{}) {
		t.Fatalf("nil request must yield empty fingerprint, got %+v", fp)
	}

	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = ""
	r.Header.Set("X-Forwarded-For", "   ")
	if fp := FingerprintFromRequest(r); fp.IP != "" {
		t.Fatalf("blank forwarded header and empty remote addr must yield empty ip, got %q", fp.IP)
	}
}
