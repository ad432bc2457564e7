package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"canvass/internal/config"
	"canvass/internal/precinct"
	"canvass/internal/store"
)

func newAssignPrecinctsCommand(ctx *commandContext) *cobra.Command {
	var villageName string

	cmd := &cobra.Command{
		Use:   "assign-precincts",
		Short: "Assign active supporters to precincts by surname",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store, logger *slog.Logger) error {
				assigner := precinct.NewAssigner(st, logger)
				out := cmd.OutOrStdout()

				name := strings.TrimSpace(villageName)
				if name == "" {
					assigned, err := assigner.AssignAll(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Assigned or updated %d precinct(s).\n", assigned)
					return nil
				}

				village, err := st.VillageByName(cmd.Context(), name)
				if err != nil {
					if errors.Is(err, store.ErrNotFound) {
						return fmt.Errorf("unknown village %q", name)
					}
					return err
				}
				supporters, err := st.ListActiveSupporters(cmd.Context())
				if err != nil {
					return err
				}
				assigned := 0
				for _, supporter := range supporters {
					if supporter.VillageID == nil || *supporter.VillageID != village.ID {
						continue
					}
					before := supporter.PrecinctID
					assignedPrecinct, err := assigner.Assign(cmd.Context(), supporter)
					if err != nil {
						return fmt.Errorf("supporter %d: %w", supporter.ID, err)
					}
					if assignedPrecinct != nil && (before == nil || *before != assignedPrecinct.ID) {
						assigned++
					}
				}
				fmt.Fprintf(out, "Assigned or updated %d precinct(s) in %s.\n", assigned, village.Name)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&villageName, "village", "", "Limit the sweep to one village")
	return cmd
}
