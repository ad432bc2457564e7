package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"canvass/internal/logging"
	"canvass/internal/store"
)

// Committer turns confirmed staging rows into stored supporters.
type Committer struct {
	store  *store.Store
	logger *slog.Logger
}

// NewCommitter wires a Committer to the campaign store.
func NewCommitter(st *store.Store, logger *slog.Logger) *Committer {
	return &Committer{store: st, logger: logging.WithComponent(logger, "ingest")}
}

// CommitOptions controls how staged rows become supporters.
type CommitOptions struct {
	// DefaultVillageID applies to every row without its own village column
	// value. May be nil.
	DefaultVillageID *int64
	// Source records how these supporters entered the system.
	Source store.Source
}

// Commit stores every non-skipped row in one atomic operation. When a row
// carries its own village name it is resolved case-insensitively; an unmatched
// name is a row-level error that aborts the whole commit rather than a silent
// default.
func (c *Committer) Commit(ctx context.Context, result *ParseResult, opts CommitOptions) ([]int64, error) {
	rows := result.CommittableRows()
	if len(rows) == 0 {
		return nil, nil
	}

	source := opts.Source
	if source == "" {
		source = store.SourceImport
	}

	villageCache := make(map[string]int64)
	supporters := make([]*store.Supporter, 0, len(rows))
	for _, row := range rows {
		villageID := opts.DefaultVillageID
		if name := strings.TrimSpace(row.VillageName); name != "" {
			id, err := c.resolveVillage(ctx, villageCache, name)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", row.Number, err)
			}
			villageID = &id
		}

		supporters = append(supporters, &store.Supporter{
			FirstName:          row.FirstName,
			LastName:           row.LastName,
			DisplayName:        row.DisplayName,
			Phone:              row.RawPhone,
			NormalizedPhone:    row.Phone,
			Email:              row.Email,
			Address:            row.Address,
			BirthDate:          row.BirthDate,
			BirthDateAmbiguous: row.BirthDateAmbiguous,
			VillageID:          villageID,
			RegisteredVoter:    row.RegisteredVoter,
			Source:             source,
		})
	}

	ids, err := c.store.CreateSupporters(ctx, supporters)
	if err != nil {
		return nil, fmt.Errorf("commit staged rows: %w", err)
	}

	c.logger.Info("committed staged rows",
		slog.String(logging.FieldFile, result.SheetName),
		slog.Int("committed", len(ids)),
		slog.Int("skipped", len(result.Rows)-len(rows)),
	)
	return ids, nil
}

func (c *Committer) resolveVillage(ctx context.Context, cache map[string]int64, name string) (int64, error) {
	key := strings.ToLower(name)
	if id, ok := cache[key]; ok {
		return id, nil
	}
	village, err := c.store.VillageByName(ctx, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, fmt.Errorf("unknown village %q", name)
		}
		return 0, err
	}
	cache[key] = village.ID
	return village.ID, nil
}
