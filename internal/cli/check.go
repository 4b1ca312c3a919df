package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshsymonds/labelfwd/internal/forward"
	"github.com/joshsymonds/labelfwd/internal/gmailctl"
)

var errSetupFailed = errors.New("setup check failed")

func newCheckCmd(opts *globalOptions) *cobra.Command {
	var (
		gmailctlConfig string
		gmailctlBinary string
	)
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify the label exists and report what a run would forward",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.load(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Forward.Validate(); err != nil {
				return fmt.Errorf("config: %w", err)
			}
			ctx := cmd.Context()
			client, err := newClient(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("create gmail client: %w", err)
			}

			svc := forward.NewService(client, logger)
			if gmailctlConfig != "" {
				svc.Filters = gmailctl.Runner{Binary: gmailctlBinary, ConfigDir: gmailctlConfig}
			}
			rep, err := svc.Check(ctx, targetFrom(cfg))
			if err != nil {
				return fmt.Errorf("check setup: %w", err)
			}
			if err := writeSetup(cmd.OutOrStdout(), rep); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			if !rep.OK() {
				return errSetupFailed
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&gmailctlConfig, "gmailctl-config", "", "gmailctl config dir; lists filters that apply the label")
	cmd.Flags().StringVar(&gmailctlBinary, "gmailctl-binary", "gmailctl", "gmailctl binary to invoke")
	return cmd
}

func writeSetup(w io.Writer, rep forward.SetupReport) error {
	var b strings.Builder
	if !rep.LabelFound {
		fmt.Fprintf(&b, "label %q: not found; create it in Gmail\n", rep.Label)
		_, err := io.WriteString(w, b.String())
		return err
	}
	fmt.Fprintf(&b, "label %q: found\n", rep.Label)
	fmt.Fprintf(&b, "threads: %d total, %d unread\n", rep.TotalThreads, rep.UnreadThreads)
	switch {
	case rep.FiltersErr != nil:
		fmt.Fprintf(&b, "gmailctl filters: unavailable (%v)\n", rep.FiltersErr)
	case rep.Filters != nil:
		if len(rep.Filters) == 0 {
			b.WriteString("gmailctl filters: none apply this label\n")
		} else {
			fmt.Fprintf(&b, "gmailctl filters: %s\n", strings.Join(rep.Filters, ", "))
		}
	}
	fmt.Fprintf(&b, "destination: %s\n", rep.Destination)
	b.WriteString("setup OK\n")
	_, err := io.WriteString(w, b.String())
	return err
}
