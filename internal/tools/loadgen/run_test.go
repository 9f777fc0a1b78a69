package loadgen

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClassifyStatusClass(t *testing.T) {
	cases := map[int]string{
		200: "2xx",
		302: "3xx",
		404: "4xx",
		429: "4xx",
		500: "5xx",
		100: "other",
	}
	for status, want := range cases {
		if got := classifyStatusClass(status); got != want {
			t.Fatalf("classifyStatusClass(%d)=%q want %q", status, got, want)
		}
	}
}

func TestNormalizeProfile(t *testing.T) {
	if got := normalizeProfile(""); got != "mixed" {
		t.Fatalf("normalizeProfile empty=%q want mixed", got)
	}
	if got := normalizeProfile("  AUTH  "); got != "auth" {
		t.Fatalf("normalizeProfile auth=%q want auth", got)
	}
}

func TestRunRejectsUnknownProfile(t *testing.T) {
	_, err := Run(context.Background(), Config{BaseURL: "http://localhost:0", Profile: "nope"})
	if err == nil {
		t.Fatal("expected error for unknown profile")
	}
}

func TestRunGeneratesTraffic(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	result, err := Run(context.Background(), Config{
		BaseURL:     srv.URL,
		Profile:     "read",
		Duration:    300 * time.Millisecond,
		RPS:         50,
		Concurrency: 4,
		Seed:        1,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.TotalRequests == 0 {
		t.Fatal("expected at least one request")
	}
	if result.Failures != 0 {
		t.Fatalf("expected no failures against a 200 server, got %d", result.Failures)
	}
	if result.StatusClasses["2xx"] != result.TotalRequests {
		t.Fatalf("expected all requests in 2xx, got %v", result.StatusClasses)
	}
}
