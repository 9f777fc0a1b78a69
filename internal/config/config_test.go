package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", strings.Repeat("s", 32))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("unexpected default http addr: %q", cfg.HTTPAddr)
	}
	if cfg.TokenValidity != 24*time.Hour {
		t.Fatalf("expected 24h token validity, got %s", cfg.TokenValidity)
	}
	if cfg.DatabaseDriver != "sqlite" {
		t.Fatalf("expected sqlite default driver, got %q", cfg.DatabaseDriver)
	}
}

func TestValidateRejectsShortSecret(t *testing.T) {
	cfg := &Config{JWTSecret: "too-short", TokenValidity: time.Hour, DatabaseDriver: "sqlite"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for short JWT secret")
	}
}

func TestValidateRejectsUnknownDriver(t *testing.T) {
	cfg := &Config{JWTSecret: strings.Repeat("s", 32), TokenValidity: time.Hour, DatabaseDriver: "oracle"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for unsupported driver")
	}
}

func TestLoadErrorClass(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{name: "none", err: nil, want: "none"},
		{name: "validation", err: errors.New("validate config: JWT_SECRET must be at least 32 bytes"), want: "validation"},
		{name: "parse", err: errors.New("parse TOKEN_VALIDITY: invalid duration"), want: "parse"},
		{name: "other", err: errors.New("some other load error"), want: "load"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := loadErrorClass(tc.err); got != tc.want {
				t.Fatalf("loadErrorClass()=%q want %q", got, tc.want)
			}
		})
	}
}

func TestEnvironmentLabel(t *testing.T) {
	if got := environmentLabel("  ProD  "); got != "prod" {
		t.Fatalf("expected prod, got %q", got)
	}
	if got := environmentLabel("   "); got != "unknown" {
		t.Fatalf("expected unknown, got %q", got)
	}
}
