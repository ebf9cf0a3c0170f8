// Package main is the entry point for the cronox CLI.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"

	"github.com/flemzord/cronox/internal/config"
	"github.com/flemzord/cronox/pkg/app"
	"github.com/flemzord/cronox/pkg/cron"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "cronox",
		Short:         "A cron scheduler for commands, with an admin API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(versionCmd(), runCmd(), checkCmd(), nextCmd(), serviceCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "cronox %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the scheduler in the foreground",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			level, _ := cmd.Flags().GetString("log-level")
			params := app.RunParams{
				ConfigPath: cfgPath,
				Version:    version,
				Commit:     commit,
				Date:       date,
				LogLevel:   level,
			}

			if service.Interactive() {
				return app.Run(context.Background(), params)
			}

			// Started by the service manager.
			svc, err := newService(&program{params: params}, cfgPath)
			if err != nil {
				return err
			}
			return svc.Run()
		},
	}
	cmd.Flags().StringP("config", "c", "", "Path to configuration file")
	cmd.Flags().String("log-level", "", "Override log.level (debug, info, warn, error)")
	return cmd
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <path>",
		Short: "Validate a configuration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, s, err := loadScheduler(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Configuration OK (%d jobs)\n", s.Len())
			for i, e := range s.Entries() {
				fmt.Fprintf(out, "  %-20s %-20s %s\n", e.Name, e.Expression, cfg.Jobs[i].Command)
			}
			return nil
		},
	}
}

func nextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "next <path>",
		Short: "Preview the next fire times of every job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, _ := cmd.Flags().GetInt("count")
			_, s, err := loadScheduler(args[0])
			if err != nil {
				return err
			}
			return printUpcoming(cmd.OutOrStdout(), s, time.Now(), n)
		},
	}
	cmd.Flags().IntP("count", "n", 5, "Number of fire times per job")
	return cmd
}

// loadScheduler loads and validates path, then registers its jobs on a
// scheduler that is never started.
func loadScheduler(path string) (*config.Config, *cron.Scheduler, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, nil, err
	}
	opts, err := config.SchedulerOptions(cfg)
	if err != nil {
		return nil, nil, err
	}
	opts = append(opts, cron.WithLogger(slog.New(slog.DiscardHandler)))

	s := cron.New(opts...)
	if err := config.Apply(cfg, s); err != nil {
		return nil, nil, err
	}
	return cfg, s, nil
}

func printUpcoming(w io.Writer, s *cron.Scheduler, now time.Time, n int) error {
	if n <= 0 {
		return fmt.Errorf("count must be positive, got %d", n)
	}
	now = now.In(s.Location())

	for _, e := range s.Entries() {
		expr, err := cron.ParseExpression(e.Expression)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s (%s)\n", e.Name, e.Expression)
		if e.Immediate {
			fmt.Fprintln(w, "  immediately on start")
		}
		for _, t := range expr.Upcoming(now, n) {
			fmt.Fprintf(w, "  %s\n", t.Format(time.RFC3339))
		}
	}
	return nil
}
