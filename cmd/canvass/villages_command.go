package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"canvass/internal/config"
	"canvass/internal/store"
)

func newVillagesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "villages",
		Short: "List villages and their precinct coverage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store, logger *slog.Logger) error {
				villages, err := st.ListVillages(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(villages) == 0 {
					fmt.Fprintln(out, "No villages defined.")
					return nil
				}

				rows := make([][]string, 0, len(villages))
				for _, village := range villages {
					precincts, err := st.PrecinctsByVillage(cmd.Context(), village.ID)
					if err != nil {
						return err
					}
					voters := 0
					coverage := make([]string, 0, len(precincts))
					for _, p := range precincts {
						voters += p.RegisteredVoters
						if p.AlphaRange != "" {
							coverage = append(coverage, fmt.Sprintf("%s (%s)", p.Number, p.AlphaRange))
						} else {
							coverage = append(coverage, p.Number)
						}
					}
					rows = append(rows, []string{
						fmt.Sprintf("%d", village.ID),
						village.Name,
						fmt.Sprintf("%d", len(precincts)),
						fmt.Sprintf("%d", voters),
						strings.Join(coverage, ", "),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]tableColumn{
						{Header: "ID", AlignRight: true},
						{Header: "Village"},
						{Header: "Precincts", AlignRight: true},
						{Header: "Registered", AlignRight: true},
						{Header: "Coverage"},
					},
					rows,
				))
				return nil
			})
		},
	}
}
