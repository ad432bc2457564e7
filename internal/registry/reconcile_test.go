package registry_test

import (
	"context"
	"testing"
	"time"

	"canvass/internal/logging"
	"canvass/internal/normalize"
	"canvass/internal/registry"
	"canvass/internal/store"
	"canvass/internal/testsupport"
)

func date(t *testing.T, value string) *time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		t.Fatalf("parse date %q: %v", value, err)
	}
	return &parsed
}

func seedRegistry(t *testing.T, st *store.Store, records ...*store.RegistryRecord) {
	t.Helper()
	err := st.RunRegistryImport(context.Background(), func(tx *store.RegistryImportTx) error {
		for _, record := range records {
			if record.SnapshotDate == "" {
				record.SnapshotDate = "2026-08-01"
			}
			if _, err := tx.Insert(record); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed registry: %v", err)
	}
}

func seedSupporter(t *testing.T, st *store.Store, s *store.Supporter) *store.Supporter {
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

func TestMatchRanksCandidatesBestFirst(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	village := testsupport.NewVillage(t, st, "Yona")

	seedRegistry(t, st,
		&store.RegistryRecord{FirstName: "Juan", LastName: "Cruz", VillageName: "Dededo"},
		&store.RegistryRecord{FirstName: "Juan", LastName: "Cruz", BirthDate: date(t, "1985-01-15"), VillageName: "Yona"},
		&store.RegistryRecord{FirstName: "Juan", LastName: "Cruz", BirthDate: date(t, "1985-01-15"), VillageName: "Dededo"},
	)
	supporter := seedSupporter(t, st, &store.Supporter{
		FirstName: "Juan", LastName: "Cruz", BirthDate: date(t, "1985-01-15"), VillageID: &village.ID,
	})

	candidates, err := registry.Match(context.Background(), st, supporter)
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if len(candidates) != 3 {
		t.Fatalf("candidates = %d, want 3", len(candidates))
	}
	if candidates[0].Confidence != registry.ConfidenceExact {
		t.Fatalf("best = %q, want exact", candidates[0].Confidence)
	}
	if candidates[1].Confidence != registry.ConfidenceHigh {
		t.Fatalf("second = %q, want high", candidates[1].Confidence)
	}
	if candidates[2].Confidence != registry.ConfidenceLow {
		t.Fatalf("third = %q, want low", candidates[2].Confidence)
	}
}

func TestMatchMediumWhenBirthDateMissing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	village := testsupport.NewVillage(t, st, "Yona")

	seedRegistry(t, st, &store.RegistryRecord{FirstName: "Ana", LastName: "Flores", VillageName: "yona"})
	supporter := seedSupporter(t, st, &store.Supporter{
		FirstName: "Ana", LastName: "Flores", VillageID: &village.ID,
	})

	candidates, err := registry.Match(context.Background(), st, supporter)
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if len(candidates) != 1 || candidates[0].Confidence != registry.ConfidenceMedium {
		t.Fatalf("candidates = %+v, want one medium", candidates)
	}
}

func TestReconcileSkippedWithoutRegistry(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	supporter := seedSupporter(t, st, &store.Supporter{FirstName: "Juan", LastName: "Cruz"})

	reconciler := registry.NewReconciler(st, logging.NewNop())
	result, err := reconciler.Reconcile(context.Background(), supporter.ID)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if result.Outcome != registry.OutcomeSkipped {
		t.Fatalf("outcome = %q", result.Outcome)
	}

	got, _ := st.GetSupporter(context.Background(), supporter.ID)
	if got.RegisteredVoter != nil || got.VerificationStatus != store.VerificationUnverified {
		t.Fatalf("skipped reconcile must not touch the supporter: %+v", got)
	}
}

func TestReconcileUnregistered(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	seedRegistry(t, st, &store.RegistryRecord{FirstName: "Somebody", LastName: "Else", VillageName: "Yona"})
	supporter := seedSupporter(t, st, &store.Supporter{FirstName: "Juan", LastName: "Cruz"})

	reconciler := registry.NewReconciler(st, logging.NewNop())
	result, err := reconciler.Reconcile(context.Background(), supporter.ID)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if result.Outcome != registry.OutcomeUnregistered {
		t.Fatalf("outcome = %q", result.Outcome)
	}

	got, _ := st.GetSupporter(context.Background(), supporter.ID)
	if got.RegisteredVoter == nil || *got.RegisteredVoter {
		t.Fatal("unregistered outcome must set registered_voter=false")
	}
	if got.VerificationStatus != store.VerificationUnverified {
		t.Fatalf("verification status = %q", got.VerificationStatus)
	}
}

func TestReconcileExactAutoVerifies(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	village := testsupport.NewVillage(t, st, "Yona")
	seedRegistry(t, st, &store.RegistryRecord{
		FirstName: "Juan", LastName: "Cruz", BirthDate: date(t, "1985-01-15"), VillageName: "Yona",
	})
	supporter := seedSupporter(t, st, &store.Supporter{
		FirstName: "Juan", LastName: "Cruz", BirthDate: date(t, "1985-01-15"), VillageID: &village.ID,
	})

	reconciler := registry.NewReconciler(st, logging.NewNop())
	result, err := reconciler.Reconcile(context.Background(), supporter.ID)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if result.Outcome != registry.OutcomeAutoVerified {
		t.Fatalf("outcome = %q", result.Outcome)
	}

	got, _ := st.GetSupporter(context.Background(), supporter.ID)
	if got.VerificationStatus != store.VerificationVerified {
		t.Fatalf("verification status = %q", got.VerificationStatus)
	}
	if got.RegisteredVoter == nil || !*got.RegisteredVoter {
		t.Fatal("registered_voter must be true")
	}
	if got.VerifiedAt == nil {
		t.Fatal("verification time must be stamped")
	}
}

func TestReconcileHighDifferentVillageIsReferral(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	declared := testsupport.NewVillage(t, st, "Yona")
	home := testsupport.NewVillage(t, st, "Dededo")
	seedRegistry(t, st, &store.RegistryRecord{
		FirstName: "Juan", LastName: "Cruz", BirthDate: date(t, "1985-01-15"), VillageName: "Dededo",
	})
	supporter := seedSupporter(t, st, &store.Supporter{
		FirstName: "Juan", LastName: "Cruz", BirthDate: date(t, "1985-01-15"), VillageID: &declared.ID,
	})

	reconciler := registry.NewReconciler(st, logging.NewNop())
	result, err := reconciler.Reconcile(context.Background(), supporter.ID)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if result.Outcome != registry.OutcomeReferral {
		t.Fatalf("outcome = %q", result.Outcome)
	}

	got, _ := st.GetSupporter(context.Background(), supporter.ID)
	if got.VerificationStatus != store.VerificationFlagged {
		t.Fatalf("verification status = %q", got.VerificationStatus)
	}
	if got.RegisteredVoter == nil || !*got.RegisteredVoter {
		t.Fatal("referral still means registered")
	}
	if got.ReferredFromVillageID == nil || *got.ReferredFromVillageID != home.ID {
		t.Fatalf("referred_from_village_id = %v, want %d", got.ReferredFromVillageID, home.ID)
	}
}

func TestReconcileHighWithoutDeclaredVillageAutoVerifies(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	seedRegistry(t, st, &store.RegistryRecord{
		FirstName: "Juan", LastName: "Cruz", BirthDate: date(t, "1985-01-15"), VillageName: "Dededo",
	})
	supporter := seedSupporter(t, st, &store.Supporter{
		FirstName: "Juan", LastName: "Cruz", BirthDate: date(t, "1985-01-15"),
	})

	reconciler := registry.NewReconciler(st, logging.NewNop())
	result, err := reconciler.Reconcile(context.Background(), supporter.ID)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if result.Outcome != registry.OutcomeAutoVerified {
		t.Fatalf("outcome = %q", result.Outcome)
	}
}

func TestReconcileWeakMatchesCollapseToFlagged(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	village := testsupport.NewVillage(t, st, "Yona")
	seedRegistry(t, st, &store.RegistryRecord{FirstName: "Ana", LastName: "Flores", VillageName: "Yona"})
	seedRegistry(t, st, &store.RegistryRecord{FirstName: "Ben", LastName: "Taitano", VillageName: "Dededo"})

	medium := seedSupporter(t, st, &store.Supporter{FirstName: "Ana", LastName: "Flores", VillageID: &village.ID})
	low := seedSupporter(t, st, &store.Supporter{FirstName: "Ben", LastName: "Taitano", VillageID: &village.ID})

	reconciler := registry.NewReconciler(st, logging.NewNop())

	mediumResult, err := reconciler.Reconcile(context.Background(), medium.ID)
	if err != nil {
		t.Fatalf("Reconcile medium: %v", err)
	}
	lowResult, err := reconciler.Reconcile(context.Background(), low.ID)
	if err != nil {
		t.Fatalf("Reconcile low: %v", err)
	}

	// Both collapse to the same flagged status; the detail text carries the
	// distinction.
	if mediumResult.Outcome != registry.OutcomeFlagged || lowResult.Outcome != registry.OutcomeFlagged {
		t.Fatalf("outcomes = %q / %q, want flagged twice", mediumResult.Outcome, lowResult.Outcome)
	}
	if mediumResult.Detail == lowResult.Detail {
		t.Fatal("match kinds must keep distinct detail text")
	}
	for _, id := range []int64{medium.ID, low.ID} {
		got, _ := st.GetSupporter(context.Background(), id)
		if got.VerificationStatus != store.VerificationFlagged {
			t.Fatalf("supporter %d status = %q", id, got.VerificationStatus)
		}
		if got.RegisteredVoter == nil || !*got.RegisteredVoter {
			t.Fatalf("supporter %d should be marked registered", id)
		}
	}
}
