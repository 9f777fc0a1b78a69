// Package obscheck drives synthetic traffic at a running instance and checks
// the service stays healthy under it.
package obscheck

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mswierczewski/socialwall/internal/tools/loadgen"
)

type options struct {
	baseURL  string
	profile  string
	duration time.Duration
	rps      int
	ci       bool
}

type report struct {
	OK            bool     `json:"ok"`
	TotalRequests int      `json:"total_requests"`
	Failures      int      `json:"failures"`
	Details       []string `json:"details"`
}

func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{Use: "obscheck", Short: "Generate traffic and verify the service stays healthy"}
	cmd.PersistentFlags().StringVar(&opts.baseURL, "base-url", "http://localhost:8080", "API base URL")
	cmd.PersistentFlags().StringVar(&opts.profile, "profile", "mixed", "traffic profile: mixed, auth, read")
	cmd.PersistentFlags().DurationVar(&opts.duration, "duration", 10*time.Second, "traffic duration")
	cmd.PersistentFlags().IntVar(&opts.rps, "rps", 20, "requests per second")
	cmd.PersistentFlags().BoolVar(&opts.ci, "ci", false, "non-interactive machine-readable output")
	cmd.AddCommand(newRunCommand(opts))
	return cmd
}

func newRunCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the traffic check",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rep, err := run(cmd.Context(), opts)
			if opts.ci {
				_ = json.NewEncoder(os.Stdout).Encode(rep)
			} else {
				for _, d := range rep.Details {
					fmt.Fprintln(cmd.OutOrStdout(), d)
				}
			}
			return err
		},
	}
}

func run(ctx context.Context, opts *options) (report, error) {
	rep := report{}

	if err := checkHealth(ctx, opts.baseURL); err != nil {
		return rep, fmt.Errorf("pre-traffic health check: %w", err)
	}
	rep.Details = append(rep.Details, "pre-traffic health: ok")

	cfg := loadgen.Config{
		BaseURL:     opts.baseURL,
		Profile:     opts.profile,
		Duration:    opts.duration,
		RPS:         opts.rps,
		Concurrency: 6,
		Seed:        42,
	}
	var (
		result loadgen.Result
		err    error
	)
	if opts.ci {
		result, err = loadgen.Run(ctx, cfg)
	} else {
		result, err = loadgen.RunInteractive(ctx, cfg)
	}
	if err != nil {
		return rep, fmt.Errorf("traffic generation: %w", err)
	}
	rep.TotalRequests = result.TotalRequests
	rep.Failures = result.Failures
	rep.Details = append(rep.Details, fmt.Sprintf("traffic generated total=%d failures=%d", result.TotalRequests, result.Failures))

	if err := checkHealth(ctx, opts.baseURL); err != nil {
		return rep, fmt.Errorf("post-traffic health check: %w", err)
	}
	rep.Details = append(rep.Details, "post-traffic health: ok")

	if result.Failures > 0 {
		return rep, fmt.Errorf("%d of %d requests failed", result.Failures, result.TotalRequests)
	}
	rep.OK = true
	return rep, nil
}

func checkHealth(ctx context.Context, baseURL string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health/ready", nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("readiness returned %d", resp.StatusCode)
	}
	return nil
}
