package dedupe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gofrs/flock"
)

// ErrScanInProgress is returned when another maintenance job (a duplicate
// scan or a registry import) already holds the campaign lock.
var ErrScanInProgress = errors.New("another scan or import is already running")

// ScanResult summarizes one batch duplicate sweep.
type ScanResult struct {
	Scanned int
	Flagged int
}

// ScanAll sweeps every active, unflagged supporter and flags the duplicates
// it finds. The sweep is idempotent: already-flagged records are never
// touched, so an interrupted run picks up where it left off on the next
// invocation. Only one scan or registry import may run at a time.
func (d *Detector) ScanAll(ctx context.Context) (*ScanResult, error) {
	lock := flock.New(d.lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire campaign lock: %w", err)
	}
	if !ok {
		return nil, ErrScanInProgress
	}
	defer lock.Unlock()

	ids, err := d.store.ListUnflaggedActiveIDs(ctx)
	if err != nil {
		return nil, err
	}

	result := &ScanResult{}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Scanned++
		flagged, err := d.FlagIfDuplicate(ctx, id)
		if err != nil {
			return result, fmt.Errorf("supporter %d: %w", id, err)
		}
		if flagged {
			result.Flagged++
		}
	}

	d.logger.Info("duplicate scan finished",
		slog.Int("scanned", result.Scanned),
		slog.Int("flagged", result.Flagged),
	)
	return result, nil
}
