// Package loadgen generates synthetic API traffic for manual verification of
// the rate limiters and the observability pipeline.
package loadgen

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

type Config struct {
	BaseURL     string
	Profile     string
	Duration    time.Duration
	RPS         int
	Concurrency int
	Seed        int64

	// OnProgress, when set, receives a snapshot after every completed request.
	OnProgress func(Snapshot)
}

type Snapshot struct {
	Elapsed       time.Duration
	TotalRequests int
	Failures      int
}

type Result struct {
	TotalRequests int
	Failures      int
	StatusClasses map[string]int
}

type target struct {
	method string
	path   string
	body   string
}

var profiles = map[string][]target{
	"auth": {
		{method: http.MethodPost, path: "/api/auth/signIn", body: `{"login":"loadgen","password":"wrong"}`},
		{method: http.MethodGet, path: "/api/auth/existsByUsername/loadgen"},
	},
	"read": {
		{method: http.MethodGet, path: "/health/live"},
		{method: http.MethodGet, path: "/health/ready"},
		{method: http.MethodGet, path: "/api/users/findBy?name=a"},
	},
	"mixed": {
		{method: http.MethodGet, path: "/health/live"},
		{method: http.MethodGet, path: "/api/users/findBy?name=a"},
		{method: http.MethodGet, path: "/api/auth/existsByUsername/loadgen"},
		{method: http.MethodPost, path: "/api/auth/signIn", body: `{"login":"loadgen","password":"wrong"}`},
	},
}

// Run fires requests at the configured rate until the duration elapses or ctx
// is cancelled. Non-2xx/3xx/4xx responses and transport errors count as
// failures; 4xx is expected traffic (bad credentials, rate limits).
func Run(ctx context.Context, cfg Config) (Result, error) {
	profile := normalizeProfile(cfg.Profile)
	targets, ok := profiles[profile]
	if !ok {
		return Result{}, fmt.Errorf("unknown profile %q", cfg.Profile)
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 10
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.Duration <= 0 {
		cfg.Duration = 10 * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	client := &http.Client{Timeout: 5 * time.Second}
	ticks := make(chan target)
	start := time.Now()

	var (
		mu     sync.Mutex
		result = Result{StatusClasses: make(map[string]int)}
	)
	record := func(status int, failed bool) {
		mu.Lock()
		result.TotalRequests++
		if failed {
			result.Failures++
		} else {
			result.StatusClasses[classifyStatusClass(status)]++
		}
		snapshot := Snapshot{Elapsed: time.Since(start), TotalRequests: result.TotalRequests, Failures: result.Failures}
		mu.Unlock()
		if cfg.OnProgress != nil {
			cfg.OnProgress(snapshot)
		}
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(ticks)
		rng := rand.New(rand.NewSource(cfg.Seed))
		interval := time.Second / time.Duration(cfg.RPS)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				select {
				case ticks <- targets[rng.Intn(len(targets))]:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})

	for i := 0; i < cfg.Concurrency; i++ {
		g.Go(func() error {
			for tgt := range ticks {
				req, err := http.NewRequestWithContext(ctx, tgt.method, cfg.BaseURL+tgt.path, strings.NewReader(tgt.body))
				if err != nil {
					record(0, true)
					continue
				}
				if tgt.body != "" {
					req.Header.Set("Content-Type", "application/json")
				}
				resp, err := client.Do(req)
				if err != nil {
					record(0, true)
					continue
				}
				_, _ = io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				record(resp.StatusCode, resp.StatusCode >= 500)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return result, err
	}
	return result, nil
}

func classifyStatusClass(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 300 && status < 400:
		return "3xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500 && status < 600:
		return "5xx"
	default:
		return "other"
	}
}

func normalizeProfile(profile string) string {
	p := strings.ToLower(strings.TrimSpace(profile))
	if p == "" {
		return "mixed"
	}
	return p
}
