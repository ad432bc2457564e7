package registry

import (
	"context"
	"errors"
	"sort"
	"strings"

	"canvass/internal/store"
)

// Confidence ranks how strongly a registry record matches a supporter.
type Confidence string

const (
	ConfidenceExact  Confidence = "exact"
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

var confidenceRank = map[Confidence]int{
	ConfidenceExact:  0,
	ConfidenceHigh:   1,
	ConfidenceMedium: 2,
	ConfidenceLow:    3,
}

// Candidate is one registry record that matches a supporter's name, ranked
// by how much corroborating data agrees.
type Candidate struct {
	Record     *store.RegistryRecord
	Confidence Confidence
}

// Match looks a supporter up in the active registry and ranks every record
// sharing their name, best first. Tiers: exact (name, date of birth, and
// village all agree), high (name and date of birth agree, village differs or
// is absent), medium (name and village agree but a date of birth is missing
// on one side or both), low (name only).
func Match(ctx context.Context, st *store.Store, supporter *store.Supporter) ([]Candidate, error) {
	records, err := st.ActiveRegistryByName(ctx, supporter.FirstName, supporter.LastName)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	villageName := ""
	if supporter.VillageID != nil {
		village, err := st.VillageByID(ctx, *supporter.VillageID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		if village != nil {
			villageName = village.Name
		}
	}

	candidates := make([]Candidate, 0, len(records))
	for _, record := range records {
		candidates = append(candidates, Candidate{
			Record:     record,
			Confidence: classify(supporter, record, villageName),
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return confidenceRank[candidates[i].Confidence] < confidenceRank[candidates[j].Confidence]
	})
	return candidates, nil
}

func classify(supporter *store.Supporter, record *store.RegistryRecord, villageName string) Confidence {
	sameVillage := villageName != "" && foldEqual(villageName, record.VillageName)
	sameBirthDate := supporter.BirthDate != nil && record.BirthDate != nil &&
		supporter.BirthDate.Equal(*record.BirthDate)

	switch {
	case sameBirthDate && sameVillage:
		return ConfidenceExact
	case sameBirthDate:
		return ConfidenceHigh
	case sameVillage && (supporter.BirthDate == nil || record.BirthDate == nil):
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

func foldEqual(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
