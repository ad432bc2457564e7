package main

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"canvass/internal/config"
	"canvass/internal/registry"
	"canvass/internal/store"
)

func newReconcileCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile [<supporter-id>]",
		Short: "Check supporters against the loaded voter registry",
		Long: "Check one supporter, or every active supporter when no id is given, " +
			"against the current voter-registry snapshot and record the outcome.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store, logger *slog.Logger) error {
				reconciler := registry.NewReconciler(st, logger)
				out := cmd.OutOrStdout()

				if len(args) == 1 {
					id, err := strconv.ParseInt(args[0], 10, 64)
					if err != nil {
						return fmt.Errorf("invalid supporter id %q", args[0])
					}
					result, err := reconciler.Reconcile(cmd.Context(), id)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Supporter %d: %s (%s)\n", id, result.Outcome, result.Detail)
					return nil
				}

				supporters, err := st.ListActiveSupporters(cmd.Context())
				if err != nil {
					return err
				}
				counts := make(map[registry.Outcome]int)
				for _, supporter := range supporters {
					if err := cmd.Context().Err(); err != nil {
						return err
					}
					result, err := reconciler.Reconcile(cmd.Context(), supporter.ID)
					if err != nil {
						return fmt.Errorf("supporter %d: %w", supporter.ID, err)
					}
					counts[result.Outcome]++
				}

				rows := make([][]string, 0, len(counts))
				for _, outcome := range []registry.Outcome{
					registry.OutcomeAutoVerified,
					registry.OutcomeReferral,
					registry.OutcomeFlagged,
					registry.OutcomeUnregistered,
					registry.OutcomeSkipped,
				} {
					if counts[outcome] == 0 {
						continue
					}
					rows = append(rows, []string{string(outcome), fmt.Sprintf("%d", counts[outcome])})
				}
				fmt.Fprintln(out, renderTable(
					[]tableColumn{{Header: "Outcome"}, {Header: "Supporters", AlignRight: true}},
					rows,
				))
				return nil
			})
		},
	}
}
