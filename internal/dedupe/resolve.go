package dedupe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"canvass/internal/logging"
)

// ErrMergeTargetRequired is returned when a merge resolution omits the record
// to merge into.
var ErrMergeTargetRequired = errors.New("merge requires a target record")

// Action is a staff decision on a flagged duplicate.
type Action string

const (
	ActionDismiss Action = "dismiss"
	ActionMerge   Action = "merge"
)

// Resolve applies a staff decision. Dismiss clears the flags and stamps the
// review time; merge folds the supporter's engagement history and unset
// fields into the target and retires the source record.
func (d *Detector) Resolve(ctx context.Context, supporterID int64, action Action, mergeInto *int64) error {
	switch action {
	case ActionDismiss:
		if err := d.store.ClearDuplicateFlags(ctx, supporterID, "Reviewed and dismissed as a distinct person."); err != nil {
			return err
		}
		d.logger.Info("dismissed duplicate flag", slog.Int64(logging.FieldSupporterID, supporterID))
		return nil
	case ActionMerge:
		if mergeInto == nil {
			return ErrMergeTargetRequired
		}
		if err := d.store.MergeSupporters(ctx, supporterID, *mergeInto); err != nil {
			return err
		}
		d.logger.Info("merged duplicate",
			slog.Int64(logging.FieldSupporterID, supporterID),
			slog.Int64("merged_into", *mergeInto),
		)
		return nil
	default:
		return fmt.Errorf("unknown resolution action %q", action)
	}
}
