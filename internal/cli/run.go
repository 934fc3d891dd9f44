package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/flyder-sync-service/internal/domain"
)

type RunOptions struct {
	*RootOptions
	Start  string
	End    string
	Limit  int
	Offset int
}

func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Sync one date window",
		Long: `Sync orders created within [start, end] in one run.

Dates are RFC 3339 timestamps or YYYY-MM-DD; a date-only end covers the whole day.
Without --limit the whole window is pulled (or sync.default_limit from config).

Examples:
  flydersync run --start 2024-01-01 --end 2024-01-31
  flydersync run --start 2024-01-01 --end 2024-01-31 --limit 500 --offset 1000`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Start, "start", "", "window start (required)")
	cmd.Flags().StringVar(&opts.End, "end", "", "window end, inclusive (required)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "max rows to fetch (0 = whole window)")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "rows to skip")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")

	return cmd
}

func runSync(opts *RunOptions, cmd *cobra.Command) error {
	req := domain.SyncRequest{StartDate: opts.Start, EndDate: opts.End, Offset: &opts.Offset}
	if cmd.Flags().Changed("limit") {
		req.Limit = &opts.Limit
	}
	// окно проверяется до открытия соединений
	w, err := req.Window()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid window", err)
	}

	return withServices(cmd, opts.RootOptions, func(ctx context.Context, s *Services) error {
		if req.Limit == nil {
			w.Limit = s.DefaultLimit
		}
		stats, err := s.Sync.Execute(ctx, w)
		if err != nil {
			return runError("sync failed", err)
		}
		out := cmd.OutOrStdout()
		if opts.Format == "json" {
			return writeJSON(out, domain.SyncResponse{Success: true, Progress: stats})
		}
		fmt.Fprintf(out, "window %s\n", w)
		writeStats(out, stats)
		return nil
	})
}
