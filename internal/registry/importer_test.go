package registry_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"

	"canvass/internal/config"
	"canvass/internal/logging"
	"canvass/internal/registry"
	"canvass/internal/store"
	"canvass/internal/testsupport"
)

func writeRegistryCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "roll.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func newImporterFixture(t *testing.T) (*config.Config, *store.Store, *registry.Importer) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	return cfg, st, registry.NewImporter(st, cfg, logging.NewNop())
}

const rollHeader = "First Name,Last Name,Date of Birth,Municipality,Registration No\n"

func TestImportInsertsNewRecords(t *testing.T) {
	_, st, importer := newImporterFixture(t)
	path := writeRegistryCSV(t, rollHeader+
		"Juan,Cruz,1/15/1985,Yona,R-1001\n"+
		"Maria,Santos,3/4/1990,Dededo,R-1002\n")

	batch, err := importer.Import(context.Background(), path, "2026-08-01")
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if batch.Status != store.BatchCompleted {
		t.Fatalf("batch status = %q", batch.Status)
	}
	if batch.NewCount != 2 || batch.UpdatedCount != 0 {
		t.Fatalf("counters = %+v", batch)
	}
	if batch.AmbiguousCount != 1 {
		t.Fatalf("ambiguous = %d, want 1 (3/4/1990 could be transposed)", batch.AmbiguousCount)
	}

	count, err := st.ActiveRegistryCount(context.Background())
	if err != nil {
		t.Fatalf("ActiveRegistryCount: %v", err)
	}
	if count != 2 {
		t.Fatalf("active records = %d, want 2", count)
	}
}

func TestImportUpdatesExistingAndRemovesMissing(t *testing.T) {
	_, st, importer := newImporterFixture(t)

	first := writeRegistryCSV(t, rollHeader+
		"Juan,Cruz,1/15/1985,Yona,R-1001\n"+
		"Maria,Santos,,Dededo,R-1002\n")
	if _, err := importer.Import(context.Background(), first, "2026-07-01"); err != nil {
		t.Fatalf("first import: %v", err)
	}

	second := writeRegistryCSV(t, rollHeader+
		"Juan,Cruz,1/15/1985,Yona,R-2001\n")
	batch, err := importer.Import(context.Background(), second, "2026-08-01")
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if batch.NewCount != 0 || batch.UpdatedCount != 1 {
		t.Fatalf("counters = new %d updated %d", batch.NewCount, batch.UpdatedCount)
	}

	records, err := st.ActiveRegistryByName(context.Background(), "Juan", "Cruz")
	if err != nil {
		t.Fatalf("ActiveRegistryByName: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	if records[0].RegistrationNumber != "R-2001" {
		t.Fatalf("registration number = %q, want the refreshed value", records[0].RegistrationNumber)
	}
	if records[0].SnapshotDate != "2026-08-01" {
		t.Fatalf("snapshot date = %q", records[0].SnapshotDate)
	}

	// Maria was absent from the newer snapshot: removed, not deleted.
	missing, err := st.ActiveRegistryByName(context.Background(), "Maria", "Santos")
	if err != nil {
		t.Fatalf("ActiveRegistryByName: %v", err)
	}
	if len(missing) != 0 {
		t.Fatal("record absent from the new snapshot should no longer be active")
	}
}

func TestImportSkipsRowsWithoutVillage(t *testing.T) {
	_, st, importer := newImporterFixture(t)
	path := writeRegistryCSV(t, rollHeader+
		"Juan,Cruz,1/15/1985,,R-1001\n"+
		"Maria,Santos,2/20/1990,Dededo,R-1002\n")

	batch, err := importer.Import(context.Background(), path, "2026-08-01")
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if batch.SkippedCount != 1 || batch.NewCount != 1 {
		t.Fatalf("counters = %+v", batch)
	}
	count, _ := st.ActiveRegistryCount(context.Background())
	if count != 1 {
		t.Fatalf("active records = %d, want 1", count)
	}
}

func TestImportRequiresBothNameColumns(t *testing.T) {
	_, _, importer := newImporterFixture(t)
	path := writeRegistryCSV(t, "First Name,Municipality\nJuan,Yona\n")

	_, err := importer.Import(context.Background(), path, "2026-08-01")
	if !errors.Is(err, registry.ErrMissingNameColumns) {
		t.Fatalf("expected ErrMissingNameColumns, got %v", err)
	}
}

func TestImportRefusesToOverlap(t *testing.T) {
	cfg, _, importer := newImporterFixture(t)
	path := writeRegistryCSV(t, rollHeader+"Juan,Cruz,1/15/1985,Yona,R-1001\n")

	held := flock.New(cfg.LockPath())
	locked, err := held.TryLock()
	if err != nil || !locked {
		t.Fatalf("seed lock: locked=%v err=%v", locked, err)
	}
	defer held.Unlock()

	if _, err := importer.Import(context.Background(), path, "2026-08-01"); !errors.Is(err, registry.ErrImportInProgress) {
		t.Fatalf("expected ErrImportInProgress, got %v", err)
	}
}

func TestPreviewWritesNothing(t *testing.T) {
	_, st, importer := newImporterFixture(t)
	path := writeRegistryCSV(t, rollHeader+
		"Juan,Cruz,1/15/1985,Yona,R-1001\n"+
		"Maria,Santos,2/20/1990,Dededo,R-1002\n")

	preview, err := importer.Preview(path)
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if preview.HeaderRow != 0 || preview.TotalRows != 2 {
		t.Fatalf("preview = %+v", preview)
	}
	if len(preview.Rows) != 2 {
		t.Fatalf("preview rows = %d", len(preview.Rows))
	}
	if preview.Rows[0].FirstName != "Juan" || preview.Rows[0].RegistrationNumber != "R-1001" {
		t.Fatalf("first preview row = %+v", preview.Rows[0])
	}

	count, _ := st.ActiveRegistryCount(context.Background())
	if count != 0 {
		t.Fatal("preview must not write registry records")
	}
	batches, _ := st.ListImportBatches(context.Background())
	if len(batches) != 0 {
		t.Fatal("preview must not create a batch")
	}
}
