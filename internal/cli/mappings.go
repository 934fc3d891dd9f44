package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/example/flyder-sync-service/internal/domain"
)

func NewMappingsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mappings",
		Short: "Manage Flyder business to Repaart franchise mappings",
	}
	cmd.AddCommand(&cobra.Command{
		Use:           "list",
		Short:         "List all mappings",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, rootOpts, func(ctx context.Context, s *Services) error {
				ms, err := s.List.Execute(ctx)
				if err != nil {
					return WrapExitError(ExitFailure, "list mappings failed", err)
				}
				out := cmd.OutOrStdout()
				if rootOpts.Format == "json" {
					if ms == nil {
						ms = []domain.FranchiseMapping{}
					}
					return writeJSON(out, ms)
				}
				if len(ms) == 0 {
					fmt.Fprintln(out, "No mappings found.")
					return nil
				}
				for _, m := range ms {
					fmt.Fprintf(out, "%d\t%s\n", m.FlyderBusinessID, m.RepaartFranchiseID)
				}
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:           "set <businessId> <franchiseId>",
		Short:         "Create or update one mapping",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid business id", err)
			}
			m := domain.FranchiseMapping{FlyderBusinessID: id, RepaartFranchiseID: args[1]}
			return withServices(cmd, rootOpts, func(ctx context.Context, s *Services) error {
				if err := s.Set.Execute(ctx, m); err != nil {
					return runError("set mapping failed", err)
				}
				if rootOpts.Format == "json" {
					return writeJSON(cmd.OutOrStdout(), m)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "mapped business %d -> %s\n", m.FlyderBusinessID, m.RepaartFranchiseID)
				return nil
			})
		},
	})
	return cmd
}
