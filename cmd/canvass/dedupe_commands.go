package main

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"canvass/internal/config"
	"canvass/internal/dedupe"
	"canvass/internal/store"
)

func newScanDuplicatesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scan-duplicates",
		Short: "Sweep all active supporters for potential duplicates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store, logger *slog.Logger) error {
				result, err := dedupe.NewDetector(st, cfg, logger).ScanAll(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Scanned %d supporter(s), flagged %d.\n",
					result.Scanned, result.Flagged)
				return nil
			})
		},
	}
}

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var dismiss bool
	var mergeInto int64

	cmd := &cobra.Command{
		Use:   "resolve <supporter-id>",
		Short: "Resolve a flagged duplicate by dismissing it or merging it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid supporter id %q", args[0])
			}
			if dismiss == cmd.Flags().Changed("merge-into") {
				return fmt.Errorf("pass exactly one of --dismiss or --merge-into")
			}

			return ctx.withStore(func(cfg *config.Config, st *store.Store, logger *slog.Logger) error {
				detector := dedupe.NewDetector(st, cfg, logger)
				out := cmd.OutOrStdout()
				if dismiss {
					if err := detector.Resolve(cmd.Context(), id, dedupe.ActionDismiss, nil); err != nil {
						return err
					}
					fmt.Fprintf(out, "Dismissed duplicate flag on supporter %d.\n", id)
					return nil
				}
				if err := detector.Resolve(cmd.Context(), id, dedupe.ActionMerge, &mergeInto); err != nil {
					return err
				}
				fmt.Fprintf(out, "Merged supporter %d into %d.\n", id, mergeInto)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&dismiss, "dismiss", false, "Clear the duplicate flag; the records are distinct people")
	cmd.Flags().Int64Var(&mergeInto, "merge-into", 0, "Merge this supporter into the given record id")
	return cmd
}
