package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mswierczewski/socialwall/internal/app"
	"github.com/mswierczewski/socialwall/internal/config"
	"github.com/mswierczewski/socialwall/internal/observability"
	"github.com/mswierczewski/socialwall/internal/tools/loadgen"
	"github.com/mswierczewski/socialwall/internal/tools/obscheck"
)

func main() {
	root := &cobra.Command{Use: "socialwall", Short: "SocialWall backend"}
	root.AddCommand(newServeCommand(), newMigrateCommand(), newLoadgenCommand(), obscheck.NewRootCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := observability.NewLogger(cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := app.Build(ctx, cfg, logger)
			if err != nil {
				return err
			}
			return a.Run(ctx)
		},
	}
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := observability.NewLogger(cfg)

			a, err := app.Build(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			logger.Info("schema migrated", "driver", cfg.DatabaseDriver)
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if a.Observability != nil {
				_ = a.Observability.Shutdown(shutdownCtx)
			}
			return nil
		},
	}
}

func newLoadgenCommand() *cobra.Command {
	var (
		baseURL     string
		profile     string
		duration    time.Duration
		rps         int
		concurrency int
		seed        int64
		plain       bool
	)
	cmd := &cobra.Command{
		Use:   "loadgen",
		Short: "Generate synthetic traffic against a running instance",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := loadgen.Config{
				BaseURL:     baseURL,
				Profile:     profile,
				Duration:    duration,
				RPS:         rps,
				Concurrency: concurrency,
				Seed:        seed,
			}
			var (
				result loadgen.Result
				err    error
			)
			if plain {
				result, err = loadgen.Run(cmd.Context(), cfg)
			} else {
				result, err = loadgen.RunInteractive(cmd.Context(), cfg)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "total=%d failures=%d classes=%v\n",
				result.TotalRequests, result.Failures, result.StatusClasses)
			return nil
		},
	}
	cmd.Flags().StringVar(&baseURL, "base-url", "http://localhost:8080", "API base URL")
	cmd.Flags().StringVar(&profile, "profile", "mixed", "traffic profile: mixed, auth, read")
	cmd.Flags().DurationVar(&duration, "duration", 10*time.Second, "traffic duration")
	cmd.Flags().IntVar(&rps, "rps", 20, "requests per second")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "worker count")
	cmd.Flags().Int64Var(&seed, "seed", 42, "target selection seed")
	cmd.Flags().BoolVar(&plain, "plain", false, "disable the progress ui")
	return cmd
}
