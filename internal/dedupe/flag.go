package dedupe

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"canvass/internal/logging"
)

// FlagIfDuplicate probes for duplicates of the supporter and, when any are
// found, links it to the earliest-created match and flags that original back.
// An already-flagged supporter is left alone so re-runs never rewrite notes.
// Returns true when the supporter was flagged.
func (d *Detector) FlagIfDuplicate(ctx context.Context, supporterID int64) (bool, error) {
	supporter, err := d.store.GetSupporter(ctx, supporterID)
	if err != nil {
		return false, err
	}
	if supporter.PotentialDuplicate {
		return false, nil
	}

	candidates, err := d.FindDuplicates(ctx, supporter)
	if err != nil {
		return false, err
	}
	if len(candidates) == 0 {
		return false, nil
	}

	original := candidates[0].Supporter
	notes := make([]string, 0, len(candidates))
	for _, c := range candidates {
		notes = append(notes, fmt.Sprintf("Matches record #%d on %s.", c.Supporter.ID, joinProbes(c.Probes)))
	}
	if err := d.store.SetDuplicateFlags(ctx, supporter.ID, &original.ID, strings.Join(notes, " ")); err != nil {
		return false, err
	}

	// The pair is flagged both ways so either record surfaces in triage; the
	// older record always owns the duplicate_of link by id order, which keeps
	// the convention acyclic in spirit even though the pointers are mutual.
	if !original.PotentialDuplicate {
		note := fmt.Sprintf("Possible duplicate: %d newer record(s) match this one, starting with #%d.",
			len(candidates), supporter.ID)
		if err := d.store.SetDuplicateFlags(ctx, original.ID, &supporter.ID, note); err != nil {
			return false, err
		}
	}

	d.logger.Info("flagged potential duplicate",
		slog.Int64(logging.FieldSupporterID, supporter.ID),
		slog.Int64("original_id", original.ID),
		slog.Int("candidates", len(candidates)),
	)
	return true, nil
}

func joinProbes(probes []Probe) string {
	names := make([]string, len(probes))
	for i, p := range probes {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}
