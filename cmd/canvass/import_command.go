package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"canvass/internal/config"
	"canvass/internal/ingest"
	"canvass/internal/registry"
	"canvass/internal/store"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Import supporter sheets and voter-registry snapshots",
	}
	importCmd.AddCommand(newImportSupportersCommand(ctx))
	importCmd.AddCommand(newImportRegistryCommand(ctx))
	return importCmd
}

func newImportSupportersCommand(ctx *commandContext) *cobra.Command {
	var villageName string
	var sourceName string
	var previewOnly bool

	cmd := &cobra.Command{
		Use:   "supporters <file>",
		Short: "Parse a supporter spreadsheet and store the confirmed rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store, logger *slog.Logger) error {
				sheet, err := ingest.ReadFile(args[0])
				if err != nil {
					return err
				}
				result, err := ingest.NewParser(cfg, logger).Parse(sheet)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				printParsePreview(out, result, cfg.Ingest.PreviewRows)
				if previewOnly {
					return nil
				}

				opts := ingest.CommitOptions{Source: store.Source(sourceName)}
				if name := strings.TrimSpace(villageName); name != "" {
					village, err := st.VillageByName(cmd.Context(), name)
					if err != nil {
						if errors.Is(err, store.ErrNotFound) {
							return fmt.Errorf("unknown village %q", name)
						}
						return err
					}
					opts.DefaultVillageID = &village.ID
				}

				ids, err := ingest.NewCommitter(st, logger).Commit(cmd.Context(), result, opts)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Stored %d supporter(s); %d row(s) skipped.\n",
					len(ids), len(result.Rows)-len(result.CommittableRows()))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&villageName, "village", "", "Village applied to rows without their own village column")
	cmd.Flags().StringVar(&sourceName, "source", string(store.SourceImport), "How these supporters entered the system (staff, scan, signup, import)")
	cmd.Flags().BoolVar(&previewOnly, "preview", false, "Show the detected columns and parsed rows without storing anything")
	return cmd
}

func printParsePreview(out io.Writer, result *ingest.ParseResult, limit int) {
	fields := result.Mapping.Fields()
	mapped := make([]string, len(fields))
	for i, field := range fields {
		mapped[i] = fmt.Sprintf("%s (col %d)", field, result.Mapping[field]+1)
	}
	fmt.Fprintf(out, "Header row %d: %s\n", result.HeaderRow+1, strings.Join(mapped, ", "))

	rows := make([][]string, 0, limit)
	for _, row := range result.Rows {
		if len(rows) == limit {
			break
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", row.Number),
			row.DisplayName,
			row.Phone,
			row.VillageName,
			yesNo(row.Skip),
			strings.Join(row.Issues, " "),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]tableColumn{
			{Header: "Row", AlignRight: true},
			{Header: "Name"},
			{Header: "Phone"},
			{Header: "Village"},
			{Header: "Skip"},
			{Header: "Issues"},
		},
		rows,
	))
	fmt.Fprintf(out, "%d row(s) parsed, %d committable.\n", len(result.Rows), len(result.CommittableRows()))
}

func newImportRegistryCommand(ctx *commandContext) *cobra.Command {
	var snapshotDate string
	var previewOnly bool

	cmd := &cobra.Command{
		Use:   "registry <file>",
		Short: "Load a voter-registry snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store, logger *slog.Logger) error {
				importer := registry.NewImporter(st, cfg, logger)
				out := cmd.OutOrStdout()

				if previewOnly {
					preview, err := importer.Preview(args[0])
					if err != nil {
						return err
					}
					printRegistryPreview(out, preview)
					return nil
				}

				snapshot := strings.TrimSpace(snapshotDate)
				if snapshot == "" {
					snapshot = time.Now().Format("2006-01-02")
				} else if _, err := time.Parse("2006-01-02", snapshot); err != nil {
					return fmt.Errorf("invalid --snapshot-date %q: use YYYY-MM-DD", snapshotDate)
				}

				batch, err := importer.Import(cmd.Context(), args[0], snapshot)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, renderTable(
					[]tableColumn{
						{Header: "Batch"},
						{Header: "Snapshot"},
						{Header: "New", AlignRight: true},
						{Header: "Updated", AlignRight: true},
						{Header: "Ambiguous DOB", AlignRight: true},
						{Header: "Skipped", AlignRight: true},
					},
					[][]string{{
						batch.Token,
						batch.SnapshotDate,
						fmt.Sprintf("%d", batch.NewCount),
						fmt.Sprintf("%d", batch.UpdatedCount),
						fmt.Sprintf("%d", batch.AmbiguousCount),
						fmt.Sprintf("%d", batch.SkippedCount),
					}},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&snapshotDate, "snapshot-date", "", "Snapshot date of the registry file (YYYY-MM-DD, default today)")
	cmd.Flags().BoolVar(&previewOnly, "preview", false, "Show the detected columns and first rows without importing")
	return cmd
}

func printRegistryPreview(out io.Writer, preview *registry.Preview) {
	fields := preview.Mapping.Fields()
	mapped := make([]string, len(fields))
	for i, field := range fields {
		mapped[i] = fmt.Sprintf("%s (col %d)", field, preview.Mapping[field]+1)
	}
	fmt.Fprintf(out, "Header row %d: %s\n", preview.HeaderRow+1, strings.Join(mapped, ", "))

	rows := make([][]string, 0, len(preview.Rows))
	for _, row := range preview.Rows {
		birth := ""
		if row.BirthDate != nil {
			birth = row.BirthDate.Format("2006-01-02")
			if row.BirthDateAmbiguous {
				birth += " (ambiguous)"
			}
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", row.Number),
			strings.TrimSpace(row.FirstName + " " + row.LastName),
			birth,
			row.VillageName,
			row.RegistrationNumber,
			row.SkipReason,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]tableColumn{
			{Header: "Row", AlignRight: true},
			{Header: "Name"},
			{Header: "Birth Date"},
			{Header: "Village"},
			{Header: "Reg No"},
			{Header: "Skip Reason"},
		},
		rows,
	))
	fmt.Fprintf(out, "%d row(s) in file.\n", preview.TotalRows)
}
