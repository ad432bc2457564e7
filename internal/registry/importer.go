package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"canvass/internal/config"
	"canvass/internal/ingest"
	"canvass/internal/logging"
	"canvass/internal/normalize"
	"canvass/internal/store"
)

var (
	// ErrImportInProgress is returned when another registry import or
	// duplicate scan already holds the campaign lock.
	ErrImportInProgress = errors.New("another import or scan is already running")
	// ErrMissingNameColumns is returned when the file's header lacks first
	// and last name columns.
	ErrMissingNameColumns = errors.New("registry file must have first and last name columns")
)

// Importer loads voter-roll snapshots into the registry.
type Importer struct {
	store    *store.Store
	lockPath string
	preview  int
	logger   *slog.Logger
}

// NewImporter wires an Importer to the campaign store.
func NewImporter(st *store.Store, cfg *config.Config, logger *slog.Logger) *Importer {
	return &Importer{
		store:    st,
		lockPath: cfg.LockPath(),
		preview:  cfg.Ingest.PreviewRows,
		logger:   logging.WithComponent(logger, "registry"),
	}
}

// Row is one parsed voter-roll row.
type Row struct {
	Number             int
	FirstName          string
	LastName           string
	BirthDate          *time.Time
	BirthDateAmbiguous bool
	VillageName        string
	RegistrationNumber string
	// SkipReason is non-empty when the row cannot be imported.
	SkipReason string
}

// Preview is the parsed shape of a registry file before any writes: the
// detected header, the column mapping, and the first few parsed rows, so
// staff can confirm the columns landed where they should.
type Preview struct {
	SheetName string
	HeaderRow int
	Mapping   ingest.ColumnMapping
	Rows      []*Row
	TotalRows int
}

// Preview parses a registry file without writing anything.
func (im *Importer) Preview(path string) (*Preview, error) {
	sheet, headerRow, mapping, err := im.parseHeader(path)
	if err != nil {
		return nil, err
	}

	rows := im.parseRows(sheet, headerRow, mapping)
	preview := &Preview{
		SheetName: sheet.Name,
		HeaderRow: headerRow,
		Mapping:   mapping,
		TotalRows: len(rows),
	}
	for _, row := range rows {
		if len(preview.Rows) == im.preview {
			break
		}
		preview.Rows = append(preview.Rows, row)
	}
	return preview, nil
}

// Import loads a registry snapshot in one atomic run. Rows found in the
// previous snapshot are updated in place, new people are inserted, and
// records absent from this snapshot move to removed. The batch record
// tracks counters and the terminal status.
func (im *Importer) Import(ctx context.Context, path, snapshotDate string) (*store.ImportBatch, error) {
	lock := flock.New(im.lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire campaign lock: %w", err)
	}
	if !ok {
		return nil, ErrImportInProgress
	}
	defer lock.Unlock()

	sheet, headerRow, mapping, err := im.parseHeader(path)
	if err != nil {
		return nil, err
	}
	rows := im.parseRows(sheet, headerRow, mapping)

	batch, err := im.store.CreateImportBatch(ctx, filepath.Base(path), snapshotDate)
	if err != nil {
		return nil, err
	}

	var counters store.BatchCounters
	err = im.store.RunRegistryImport(ctx, func(tx *store.RegistryImportTx) error {
		for _, row := range rows {
			if err := ctx.Err(); err != nil {
				return err
			}
			if row.SkipReason != "" {
				counters.Skipped++
				continue
			}
			if row.BirthDateAmbiguous {
				counters.Ambiguous++
			}

			record := &store.RegistryRecord{
				FirstName:          row.FirstName,
				LastName:           row.LastName,
				BirthDate:          row.BirthDate,
				BirthDateAmbiguous: row.BirthDateAmbiguous,
				VillageName:        row.VillageName,
				RegistrationNumber: row.RegistrationNumber,
				SnapshotDate:       snapshotDate,
			}
			existing, err := tx.Find(row.FirstName, row.LastName, row.VillageName, row.BirthDate)
			switch {
			case err == nil:
				if err := tx.Update(existing.ID, record); err != nil {
					return err
				}
				counters.Updated++
			case errors.Is(err, store.ErrNotFound):
				if _, err := tx.Insert(record); err != nil {
					return err
				}
				counters.New++
			default:
				return err
			}
		}
		if _, err := tx.MarkMissingRemoved(snapshotDate); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		if failErr := im.store.FailImportBatch(context.WithoutCancel(ctx), batch.ID, err.Error()); failErr != nil {
			im.logger.Error("mark batch failed", slog.String("error", failErr.Error()))
		}
		return nil, fmt.Errorf("import registry snapshot: %w", err)
	}

	if err := im.store.CompleteImportBatch(ctx, batch.ID, counters); err != nil {
		return nil, err
	}
	im.logger.Info("registry snapshot imported",
		slog.String(logging.FieldBatch, batch.Token),
		slog.String(logging.FieldFile, filepath.Base(path)),
		slog.String("snapshot", snapshotDate),
		slog.Int("new", counters.New),
		slog.Int("updated", counters.Updated),
		slog.Int("ambiguous", counters.Ambiguous),
		slog.Int("skipped", counters.Skipped),
	)
	return im.store.GetImportBatch(ctx, batch.ID)
}

func (im *Importer) parseHeader(path string) (*ingest.Sheet, int, ingest.ColumnMapping, error) {
	sheet, err := ingest.ReadFile(path)
	if err != nil {
		return nil, 0, nil, err
	}
	headerRow, mapping, err := ingest.DetectRegistryHeader(sheet)
	if err != nil {
		return nil, 0, nil, err
	}
	if _, ok := mapping[ingest.FieldFirstName]; !ok {
		return nil, 0, nil, ErrMissingNameColumns
	}
	if _, ok := mapping[ingest.FieldLastName]; !ok {
		return nil, 0, nil, ErrMissingNameColumns
	}
	return sheet, headerRow, mapping, nil
}

func (im *Importer) parseRows(sheet *ingest.Sheet, headerRow int, mapping ingest.ColumnMapping) []*Row {
	var rows []*Row
	for i := headerRow + 1; i < len(sheet.Rows); i++ {
		if sheet.RowIsBlank(i) {
			continue
		}
		row := &Row{Number: i + 1}
		row.FirstName = sheet.Cell(i, mapping[ingest.FieldFirstName])
		row.LastName = sheet.Cell(i, mapping[ingest.FieldLastName])
		if col, ok := mapping[ingest.FieldVillage]; ok {
			row.VillageName = sheet.Cell(i, col)
		}
		if col, ok := mapping[ingest.FieldRegistrationNumber]; ok {
			row.RegistrationNumber = sheet.Cell(i, col)
		}
		if col, ok := mapping[ingest.FieldBirthDate]; ok {
			if raw := sheet.Cell(i, col); raw != "" {
				if date, ambiguous, ok := normalize.ParseDate(raw); ok {
					row.BirthDate = &date
					row.BirthDateAmbiguous = ambiguous
				}
			}
		}

		switch {
		case strings.TrimSpace(row.FirstName) == "" && strings.TrimSpace(row.LastName) == "":
			row.SkipReason = "No name found."
		case strings.TrimSpace(row.VillageName) == "":
			// A registry row without a village cannot be matched later;
			// skipping beats guessing.
			row.SkipReason = "Missing village."
		}
		rows = append(rows, row)
	}
	return rows
}
