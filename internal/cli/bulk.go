package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/flyder-sync-service/internal/domain"
	"github.com/example/flyder-sync-service/internal/usecase"
)

type BulkOptions struct {
	*RootOptions
	From     string
	To       string
	Step     string
	PageSize int
	Pause    time.Duration
}

func NewBulkCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BulkOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "bulk",
		Short: "Sync a long range window by window",
		Long: `Split [from, to] into weekly or monthly windows and sync each one, paging with
limit/offset inside a window. A failed window is reported and the range continues.

Examples:
  flydersync bulk --from 2023-01-01 --to 2023-12-31 --step month
  flydersync bulk --from 2024-01-01 --to 2024-03-31 --step week --page-size 500 --pause 2s`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBulk(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.From, "from", "", "range start (required)")
	cmd.Flags().StringVar(&opts.To, "to", "", "range end, inclusive (required)")
	cmd.Flags().StringVar(&opts.Step, "step", string(usecase.StepMonth), "window size (week|month)")
	cmd.Flags().IntVar(&opts.PageSize, "page-size", 0, "rows per run inside a window (0 = whole window)")
	cmd.Flags().DurationVar(&opts.Pause, "pause", 0, "pause between windows")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func runBulk(opts *BulkOptions, cmd *cobra.Command) error {
	step, err := usecase.ParseStep(opts.Step)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid step", err)
	}
	from, _, err := domain.ParseBound(opts.From)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --from", err)
	}
	to, dateOnly, err := domain.ParseBound(opts.To)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --to", err)
	}
	if dateOnly {
		to = domain.EndOfDay(to)
	}
	if opts.PageSize < 0 {
		return NewExitError(ExitCommandError, "--page-size must not be negative")
	}

	return withServices(cmd, opts.RootOptions, func(ctx context.Context, s *Services) error {
		rng := s.Range
		if cmd.Flags().Changed("page-size") {
			rng.PageSize = opts.PageSize
		}
		if cmd.Flags().Changed("pause") {
			rng.Pause = opts.Pause
		}
		report, err := rng.Execute(ctx, from, to, step)
		if err != nil {
			return runError("bulk sync failed", err)
		}
		out := cmd.OutOrStdout()
		if opts.Format == "json" {
			if err := writeJSON(out, report); err != nil {
				return err
			}
		} else {
			fmt.Fprintf(out, "windows: %d, runs: %d\n", report.Windows, report.Runs)
			writeStats(out, report.Totals)
			for _, f := range report.Failures {
				fmt.Fprintf(out, "FAILED %s .. %s offset %d: %s\n",
					f.Start.Format(time.DateOnly), f.End.Format(time.DateOnly), f.Offset, f.Message)
			}
		}
		if len(report.Failures) > 0 {
			return NewExitError(ExitFailure, fmt.Sprintf("%d of %d windows failed", len(report.Failures), report.Windows))
		}
		return nil
	})
}
