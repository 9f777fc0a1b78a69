package security

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func testCodec() *TokenCodec {
	return NewTokenCodec(strings.Repeat("s", 32))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	codec := testCodec()
	fp := Fingerprint{IP: "1.2.3.4", UserAgent: "A"}
	issued := time.Now()
	claims := NewSessionClaims("u1", []string{"USER", "ADMIN"}, fp, issued, issued.Add(time.Hour))

	token, err := codec.Encode(claims)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	decoded, err := codec.Decode(token)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Subject != "u1" {
		t.Fatalf("subject = %q, want u1", decoded.Subject)
	}
	if decoded.IP != "1.2.3.4" || decoded.UserAgent != "A" {
		t.Fatalf("fingerprint claims lost: ip=%q ua=%q", decoded.IP, decoded.UserAgent)
	}
	if len(decoded.Authorities) != 2 {
		t.Fatalf("authorities lost: %v", decoded.Authorities)
	}
}

func TestDecodeRejectsExpiredToken(t *testing.T) {
	codec := testCodec()
	issued := time.Now().Add(-2 * time.Hour)
	claims := NewSessionClaims("u1", nil, Fingerprint{}, issued, issued.Add(time.Hour))

	token, err := codec.Encode(claims)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := codec.Decode(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestDecodeRejectsWrongKey(t *testing.T) {
	claims := NewSessionClaims("u1", nil, Fingerprint{}, time.Now(), time.Now().Add(time.Hour))
	token, err := NewTokenCodec(strings.Repeat("a", 32)).Encode(claims)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := NewTokenCodec(strings.Repeat("b", 32)).Decode(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong key, got %v", err)
	}
}

func TestDecodeRejectsWrongSigningMethod(t *testing.T) {
	codec := testCodec()
	claims := NewSessionClaims("u1", nil, Fingerprint{}, time.Now(), time.Now().Add(time.Hour))

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(strings.Repeat("s", 32)))
	if err != nil {
		t.Fatalf("sign with HS512: %v", err)
	}
	if _, err := codec.Decode(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for HS512 token, got %v", err)
	}
}

func TestDecodeRejectsMissingRequiredClaims(t *testing.T) {
	codec := testCodec()

	noSubject := SessionClaims{RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := codec.Encode(noSubject)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := codec.Decode(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken without subject, got %v", err)
	}

	noExpiry := SessionClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"}}
	token, err = codec.Encode(noExpiry)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := codec.Decode(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken without expiry, got %v", err)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	codec := testCodec()
	for _, raw := range []string{"", "garbage", "a.b", "a.b.c.d"} {
		if _, err := codec.Decode(raw); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("Decode(%q): expected ErrInvalidToken, got %v", raw, err)
		}
	}
}
