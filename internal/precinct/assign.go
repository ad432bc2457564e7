package precinct

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"canvass/internal/logging"
	"canvass/internal/store"
)

// Assigner maps supporters onto precincts by surname.
type Assigner struct {
	store  *store.Store
	logger *slog.Logger
}

// NewAssigner wires an Assigner to the campaign store.
func NewAssigner(st *store.Store, logger *slog.Logger) *Assigner {
	return &Assigner{store: st, logger: logging.WithComponent(logger, "precinct")}
}

// Resolve picks the precinct covering a surname from a village's ordered
// precinct list. A village with a single precinct always wins regardless of
// its alpha range. When no range matches the surname, the last precinct is
// returned: bad range data should still leave the supporter countable
// somewhere rather than unassigned.
func Resolve(precincts []*store.Precinct, surname string) *store.Precinct {
	if len(precincts) == 0 {
		return nil
	}
	if len(precincts) == 1 {
		return precincts[0]
	}

	surname = strings.ToLower(strings.TrimSpace(surname))
	if surname == "" {
		return nil
	}
	for _, p := range precincts {
		if rangeContains(p.AlphaRange, surname) {
			return p
		}
	}
	return precincts[len(precincts)-1]
}

// rangeContains reports whether an alpha range such as "A-L" or "E-Pd" covers
// the surname. Each boundary is compared against the surname prefix of the
// boundary's own length, so "E-Pd" means first letter >= "e" and first two
// letters <= "pd". Surnames shorter than a boundary compare on the letters
// they have.
func rangeContains(alphaRange, surname string) bool {
	start, end, ok := splitRange(alphaRange)
	if !ok {
		return false
	}
	return prefixCompare(surname, start) >= 0 && prefixCompare(surname, end) <= 0
}

func splitRange(alphaRange string) (start, end string, ok bool) {
	parts := strings.SplitN(alphaRange, "-", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	start = strings.ToLower(strings.TrimSpace(parts[0]))
	end = strings.ToLower(strings.TrimSpace(parts[1]))
	if start == "" || end == "" {
		return "", "", false
	}
	return start, end, true
}

func prefixCompare(surname, boundary string) int {
	n := len(boundary)
	if len(surname) < n {
		n = len(surname)
	}
	return strings.Compare(surname[:n], boundary[:n])
}

// Assign resolves and stores the precinct for one supporter. Supporters
// without a village or surname are left untouched.
func (a *Assigner) Assign(ctx context.Context, supporter *store.Supporter) (*store.Precinct, error) {
	if supporter.VillageID == nil || strings.TrimSpace(supporter.LastName) == "" {
		return nil, nil
	}

	precincts, err := a.store.PrecinctsByVillage(ctx, *supporter.VillageID)
	if err != nil {
		return nil, fmt.Errorf("load precincts: %w", err)
	}
	precinct := Resolve(precincts, supporter.LastName)
	if precinct == nil {
		return nil, nil
	}
	if supporter.PrecinctID != nil && *supporter.PrecinctID == precinct.ID {
		return precinct, nil
	}

	if err := a.store.AssignPrecinct(ctx, supporter.ID, precinct.ID); err != nil {
		return nil, err
	}
	a.logger.Info("assigned precinct",
		slog.Int64(logging.FieldSupporterID, supporter.ID),
		slog.String("precinct", precinct.Number),
	)
	return precinct, nil
}

// AssignAll sweeps every active supporter with a village, resolving and
// storing each one's precinct. It returns how many supporters gained or
// changed an assignment.
func (a *Assigner) AssignAll(ctx context.Context) (int, error) {
	supporters, err := a.store.ListActiveSupporters(ctx)
	if err != nil {
		return 0, err
	}

	assigned := 0
	for _, supporter := range supporters {
		if err := ctx.Err(); err != nil {
			return assigned, err
		}
		before := supporter.PrecinctID
		precinct, err := a.Assign(ctx, supporter)
		if err != nil {
			return assigned, fmt.Errorf("supporter %d: %w", supporter.ID, err)
		}
		if precinct != nil && (before == nil || *before != precinct.ID) {
			assigned++
		}
	}
	a.logger.Info("precinct sweep finished",
		slog.Int("supporters", len(supporters)),
		slog.Int("assigned", assigned),
	)
	return assigned, nil
}
