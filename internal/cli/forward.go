package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/joshsymonds/labelfwd/internal/forward"
	"github.com/joshsymonds/labelfwd/internal/metrics"
	"github.com/joshsymonds/labelfwd/internal/schedule"
)

func newForwardCmd(opts *globalOptions) *cobra.Command {
	var (
		every       time.Duration
		lockFile    string
		metricsAddr string
		strict      bool
	)
	cmd := &cobra.Command{
		Use:   "forward",
		Short: "Forward unread labeled mail and mark it read",
		Long: "Forward every unread message under the configured label to the destination " +
			"address, then mark it read. Runs once, or repeatedly with --every.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.load(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Forward.Validate(); err != nil {
				return fmt.Errorf("config: %w", err)
			}
			flags := cmd.Flags()
			if flags.Changed("every") {
				cfg.Schedule.Every.Duration = every
			}
			if flags.Changed("lock-file") {
				cfg.Schedule.LockFile = lockFile
			}
			if flags.Changed("metrics-addr") {
				cfg.Schedule.MetricsAddr = metricsAddr
			}

			ctx := cmd.Context()
			client, err := newClient(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("create gmail client: %w", err)
			}

			reg := prometheus.NewRegistry()
			svc := forward.NewService(client, logger)
			svc.Metrics = metrics.NewForwarding(reg)
			target := targetFrom(cfg)
			out := cmd.OutOrStdout()

			job := func(ctx context.Context) error {
				rep, err := svc.Run(ctx, target)
				if err != nil {
					return fmt.Errorf("run forward: %w", err)
				}
				if err := writeSummary(out, rep); err != nil {
					return fmt.Errorf("write summary: %w", err)
				}
				if strict && rep.Failed() > 0 {
					return fmt.Errorf("%d of %d threads failed", rep.Failed(), rep.Attempted())
				}
				return nil
			}

			runner := schedule.NewRunner(cfg.Schedule.Every.Duration, cfg.Schedule.LockFile, logger)
			if cfg.Schedule.Every.Duration <= 0 {
				_, err := runner.Once(ctx, job)
				return err
			}

			if cfg.Schedule.MetricsAddr != "" {
				go func() {
					if err := metrics.Serve(ctx, cfg.Schedule.MetricsAddr, reg); err != nil {
						logger.Error("metrics endpoint stopped", "error", err)
					}
				}()
			}
			return runner.Loop(ctx, job)
		},
	}
	cmd.Flags().DurationVar(&every, "every", 0, "repeat on this interval instead of running once (e.g. 30m)")
	cmd.Flags().StringVar(&lockFile, "lock-file", "", "lock file that keeps runs from overlapping (empty disables)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics here while --every is active")
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when any thread fails")
	return cmd
}

func writeSummary(w io.Writer, rep forward.Report) error {
	if !rep.LabelFound {
		_, err := fmt.Fprintf(w, "label %q not found; nothing forwarded\n", rep.Label)
		return err
	}
	if _, err := fmt.Fprintf(w, "label %q: %d threads attempted, %d failed, %d messages forwarded\n",
		rep.Label, rep.Attempted(), rep.Failed(), rep.Forwarded); err != nil {
		return err
	}
	for _, t := range rep.Threads {
		if t.Err == nil {
			continue
		}
		if _, err := fmt.Fprintf(w, "  failed %s %q: %v\n", t.ThreadID, t.Subject, t.Err); err != nil {
			return err
		}
	}
	return nil
}
