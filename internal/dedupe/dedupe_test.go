package dedupe_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/gofrs/flock"

	"canvass/internal/dedupe"
	"canvass/internal/logging"
	"canvass/internal/normalize"
	"canvass/internal/store"
	"canvass/internal/testsupport"
)

func newFixture(t *testing.T) (*store.Store, *dedupe.Detector) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	return st, dedupe.NewDetector(st, cfg, logging.NewNop())
}

func createSupporter(t *testing.T, st *store.Store, s *store.Supporter) *store.Supporter {
	t.Helper()
	if s.DisplayName == "" {
		s.DisplayName = normalize.DisplayName(s.FirstName, s.LastName)
	}
	created, err := st.CreateSupporter(context.Background(), s)
	if err != nil {
		t.Fatalf("CreateSupporter: %v", err)
	}
	return created
}

func TestFindDuplicatesPhoneRenormalizesStoredValues(t *testing.T) {
	st, detector := newFixture(t)

	// A historical record whose phone was stored before normalization
	// existed: raw area-code form, no normalized value.
	old := createSupporter(t, st, &store.Supporter{
		FirstName: "Juan", LastName: "Cruz", Phone: "(671) 555-1234",
	})
	newer := createSupporter(t, st, &store.Supporter{
		FirstName: "J", LastName: "Cruz", Phone: "555-1234",
		NormalizedPhone: "5551234",
	})

	candidates, err := detector.FindDuplicates(context.Background(), newer)
	if err != nil {
		t.Fatalf("FindDuplicates: %v", err)
	}
	if len(candidates) != 1 || candidates[0].Supporter.ID != old.ID {
		t.Fatalf("candidates = %+v, want the historical record", candidates)
	}
	if candidates[0].Probes[0] != dedupe.ProbePhone {
		t.Fatalf("probes = %v", candidates[0].Probes)
	}
}

func TestFindDuplicatesPhoneProbeAloneAcrossVillages(t *testing.T) {
	st, detector := newFixture(t)
	yona := testsupport.NewVillage(t, st, "Yona")
	dededo := testsupport.NewVillage(t, st, "Dededo")

	match := createSupporter(t, st, &store.Supporter{
		FirstName: "Juan", LastName: "Cruz", Phone: "671-555-1234",
		NormalizedPhone: normalize.Phone("671-555-1234", normalize.DefaultAreaCode),
		VillageID:       &yona.ID,
	})
	probe := createSupporter(t, st, &store.Supporter{
		FirstName: "Jon", LastName: "Crux", Phone: "+16715551234",
		NormalizedPhone: normalize.Phone("+16715551234", normalize.DefaultAreaCode),
		VillageID:       &dededo.ID,
	})

	candidates, err := detector.FindDuplicates(context.Background(), probe)
	if err != nil {
		t.Fatalf("FindDuplicates: %v", err)
	}
	if len(candidates) != 1 || candidates[0].Supporter.ID != match.ID {
		t.Fatalf("candidates = %+v, want the phone match across villages", candidates)
	}
	if len(candidates[0].Probes) != 1 || candidates[0].Probes[0] != dedupe.ProbePhone {
		t.Fatalf("probes = %v, want phone alone", candidates[0].Probes)
	}
}

func TestFindDuplicatesEmailFoldsCaseAndSpace(t *testing.T) {
	st, detector := newFixture(t)

	match := createSupporter(t, st, &store.Supporter{
		FirstName: "Maria", LastName: "Santos", Email: " Maria.Santos@Example.com ",
	})
	probe := createSupporter(t, st, &store.Supporter{
		FirstName: "M", LastName: "S", Email: "maria.santos@example.com",
	})

	candidates, err := detector.FindDuplicates(context.Background(), probe)
	if err != nil {
		t.Fatalf("FindDuplicates: %v", err)
	}
	if len(candidates) != 1 || candidates[0].Supporter.ID != match.ID {
		t.Fatalf("candidates = %+v", candidates)
	}
}

func TestFindDuplicatesNameCatchesSwappedOrder(t *testing.T) {
	st, detector := newFixture(t)
	village := testsupport.NewVillage(t, st, "Yona")

	swapped := createSupporter(t, st, &store.Supporter{
		FirstName: "Cruz", LastName: "Juan", VillageID: &village.ID,
	})
	probe := createSupporter(t, st, &store.Supporter{
		FirstName: "Juan", LastName: "Cruz", VillageID: &village.ID,
	})

	candidates, err := detector.FindDuplicates(context.Background(), probe)
	if err != nil {
		t.Fatalf("FindDuplicates: %v", err)
	}
	if len(candidates) != 1 || candidates[0].Supporter.ID != swapped.ID {
		t.Fatalf("candidates = %+v", candidates)
	}
	if candidates[0].Probes[0] != dedupe.ProbeName {
		t.Fatalf("probes = %v", candidates[0].Probes)
	}
}

func TestFindDuplicatesUnionsProbesWithoutRepeats(t *testing.T) {
	st, detector := newFixture(t)
	village := testsupport.NewVillage(t, st, "Dededo")

	_ = createSupporter(t, st, &store.Supporter{
		FirstName: "Ana", LastName: "Flores", Phone: "5551234",
		NormalizedPhone: "5551234", Email: "ana@example.com", VillageID: &village.ID,
	})
	probe := createSupporter(t, st, &store.Supporter{
		FirstName: "Ana", LastName: "Flores", Phone: "671-555-1234",
		NormalizedPhone: "5551234", Email: "ANA@example.com", VillageID: &village.ID,
	})

	candidates, err := detector.FindDuplicates(context.Background(), probe)
	if err != nil {
		t.Fatalf("FindDuplicates: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("record matched by three probes must appear once, got %+v", candidates)
	}
	if len(candidates[0].Probes) != 3 {
		t.Fatalf("probes = %v, want all three", candidates[0].Probes)
	}
}

func TestFlagIfDuplicateLinksBothWays(t *testing.T) {
	st, detector := newFixture(t)

	original := createSupporter(t, st, &store.Supporter{
		FirstName: "Juan", LastName: "Cruz", Phone: "5551234", NormalizedPhone: "5551234",
	})
	newcomer := createSupporter(t, st, &store.Supporter{
		FirstName: "Juan", LastName: "Cruz", Phone: "671-555-1234", NormalizedPhone: "5551234",
	})

	flagged, err := detector.FlagIfDuplicate(context.Background(), newcomer.ID)
	if err != nil {
		t.Fatalf("FlagIfDuplicate: %v", err)
	}
	if !flagged {
		t.Fatal("newcomer should be flagged")
	}

	gotNew, _ := st.GetSupporter(context.Background(), newcomer.ID)
	if !gotNew.PotentialDuplicate || gotNew.DuplicateOfID == nil || *gotNew.DuplicateOfID != original.ID {
		t.Fatalf("newcomer flags = %+v", gotNew)
	}
	if !strings.Contains(gotNew.DuplicateNotes, "phone") {
		t.Fatalf("notes = %q, want probe names", gotNew.DuplicateNotes)
	}

	gotOrig, _ := st.GetSupporter(context.Background(), original.ID)
	if !gotOrig.PotentialDuplicate || gotOrig.DuplicateOfID == nil || *gotOrig.DuplicateOfID != newcomer.ID {
		t.Fatalf("original flags = %+v", gotOrig)
	}
	if !strings.Contains(gotOrig.DuplicateNotes, "1 newer record") {
		t.Fatalf("original notes = %q", gotOrig.DuplicateNotes)
	}
}

func TestFlagIfDuplicateLeavesFlaggedRecordsAlone(t *testing.T) {
	st, detector := newFixture(t)

	createSupporter(t, st, &store.Supporter{
		FirstName: "Juan", LastName: "Cruz", NormalizedPhone: "5551234",
	})
	newcomer := createSupporter(t, st, &store.Supporter{
		FirstName: "Juan", LastName: "Cruz", NormalizedPhone: "5551234",
	})

	if _, err := detector.FlagIfDuplicate(context.Background(), newcomer.ID); err != nil {
		t.Fatalf("first flag: %v", err)
	}
	before, _ := st.GetSupporter(context.Background(), newcomer.ID)

	flagged, err := detector.FlagIfDuplicate(context.Background(), newcomer.ID)
	if err != nil {
		t.Fatalf("second flag: %v", err)
	}
	if flagged {
		t.Fatal("re-running must not re-flag")
	}
	after, _ := st.GetSupporter(context.Background(), newcomer.ID)
	if after.DuplicateNotes != before.DuplicateNotes {
		t.Fatal("re-running must not rewrite notes")
	}
}

func TestResolveDismissClearsFlags(t *testing.T) {
	st, detector := newFixture(t)

	createSupporter(t, st, &store.Supporter{FirstName: "A", LastName: "B", NormalizedPhone: "5551234"})
	newcomer := createSupporter(t, st, &store.Supporter{FirstName: "A", LastName: "B", NormalizedPhone: "5551234"})
	if _, err := detector.FlagIfDuplicate(context.Background(), newcomer.ID); err != nil {
		t.Fatalf("flag: %v", err)
	}

	if err := detector.Resolve(context.Background(), newcomer.ID, dedupe.ActionDismiss, nil); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	got, _ := st.GetSupporter(context.Background(), newcomer.ID)
	if got.PotentialDuplicate || got.DuplicateOfID != nil {
		t.Fatalf("flags should be cleared: %+v", got)
	}
	if got.DuplicateReviewedAt == nil {
		t.Fatal("dismiss must stamp the review time")
	}
}

func TestResolveMergeRequiresTarget(t *testing.T) {
	st, detector := newFixture(t)
	s := createSupporter(t, st, &store.Supporter{FirstName: "A", LastName: "B"})

	err := detector.Resolve(context.Background(), s.ID, dedupe.ActionMerge, nil)
	if !errors.Is(err, dedupe.ErrMergeTargetRequired) {
		t.Fatalf("expected ErrMergeTargetRequired, got %v", err)
	}
}

func TestResolveMergeRetiresSource(t *testing.T) {
	st, detector := newFixture(t)

	target := createSupporter(t, st, &store.Supporter{FirstName: "Juan", LastName: "Cruz"})
	source := createSupporter(t, st, &store.Supporter{FirstName: "Juan", LastName: "Cruz", Email: "juan@example.com"})

	if err := detector.Resolve(context.Background(), source.ID, dedupe.ActionMerge, &target.ID); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	gotSource, _ := st.GetSupporter(context.Background(), source.ID)
	if gotSource.Status != store.SupporterDuplicate {
		t.Fatalf("source status = %q", gotSource.Status)
	}
	gotTarget, _ := st.GetSupporter(context.Background(), target.ID)
	if gotTarget.Email != "juan@example.com" {
		t.Fatal("target should adopt the source email it lacked")
	}
}

func TestScanAllIsIdempotent(t *testing.T) {
	st, detector := newFixture(t)

	createSupporter(t, st, &store.Supporter{FirstName: "Juan", LastName: "Cruz", NormalizedPhone: "5551234"})
	createSupporter(t, st, &store.Supporter{FirstName: "Juan", LastName: "Cruz", NormalizedPhone: "5551234"})
	createSupporter(t, st, &store.Supporter{FirstName: "Maria", LastName: "Santos", NormalizedPhone: "5559876"})

	first, err := detector.ScanAll(context.Background())
	if err != nil {
		t.Fatalf("ScanAll: %v", err)
	}
	if first.Flagged == 0 {
		t.Fatal("first sweep should flag the pair")
	}

	second, err := detector.ScanAll(context.Background())
	if err != nil {
		t.Fatalf("ScanAll rerun: %v", err)
	}
	if second.Flagged != 0 {
		t.Fatalf("rerun flagged %d, want 0", second.Flagged)
	}
}

func TestScanAllStopsOnCancelledContext(t *testing.T) {
	_, detector := newFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := detector.ScanAll(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestScanAllRefusesToOverlap(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	detector := dedupe.NewDetector(st, cfg, logging.NewNop())

	held := flock.New(cfg.LockPath())
	locked, err := held.TryLock()
	if err != nil || !locked {
		t.Fatalf("seed lock: locked=%v err=%v", locked, err)
	}
	defer held.Unlock()

	if _, err := detector.ScanAll(context.Background()); !errors.Is(err, dedupe.ErrScanInProgress) {
		t.Fatalf("expected ErrScanInProgress, got %v", err)
	}
}
