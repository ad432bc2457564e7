package testsupport

import (
	"context"
	"testing"

	"canvass/internal/config"
	"canvass/internal/normalize"
	"canvass/internal/store"
)

// MustOpenStore opens a store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// NewVillage creates a village for tests.
func NewVillage(t testing.TB, st *store.Store, name string) *store.Village {
	t.Helper()

	village, err := st.CreateVillage(context.Background(), name)
	if err != nil {
		t.Fatalf("store.CreateVillage: %v", err)
	}
	return village
}

// NewPrecinct creates a precinct for tests.
func NewPrecinct(t testing.TB, st *store.Store, villageID int64, number, alphaRange string) *store.Precinct {
	t.Helper()

	precinct, err := st.CreatePrecinct(context.Background(), &store.Precinct{
		VillageID:  villageID,
		Number:     number,
		AlphaRange: alphaRange,
	})
	if err != nil {
		t.Fatalf("store.CreatePrecinct: %v", err)
	}
	return precinct
}

// NewSupporter creates an active supporter for tests, normalizing the phone
// the same way ingestion would.
func NewSupporter(t testing.TB, st *store.Store, first, last, phone string, villageID *int64) *store.Supporter {
	t.Helper()

	supporter, err := st.CreateSupporter(context.Background(), &store.Supporter{
		FirstName:       first,
		LastName:        last,
		DisplayName:     normalize.DisplayName(first, last),
		Phone:           phone,
		NormalizedPhone: normalize.Phone(phone, normalize.DefaultAreaCode),
		VillageID:       villageID,
	})
	if err != nil {
		t.Fatalf("store.CreateSupporter: %v", err)
	}
	return supporter
}
