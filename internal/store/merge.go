package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// MergeSupporters folds the source supporter into the target inside one
// transaction. Engagement history moves to the target: contact attempts are
// reassigned wholesale; an event RSVP both sides share keeps the target's row
// with attended becoming true if either side attended (attendance never
// regresses from true to false). For the fixed set of mergeable fields (email,
// registered-voter flag, interest flags) the target adopts the source's value
// only when its own is unset; "unset" means NULL or blank, never false, so an
// explicit false on the target survives a true on the source. The source ends
// in the terminal duplicate status and is excluded from all counts.
func (s *Store) MergeSupporters(ctx context.Context, sourceID, targetID int64) error {
	ctx = ensureContext(ctx)
	if sourceID == targetID {
		return errors.New("merge source and target are the same supporter")
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		now := time.Now().UTC().Format(time.RFC3339Nano)

		source, err := getSupporterTx(ctx, tx, sourceID)
		if err != nil {
			return err
		}
		target, err := getSupporterTx(ctx, tx, targetID)
		if err != nil {
			return err
		}

		if err := mergeRSVPs(ctx, tx, sourceID, targetID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE contact_attempts SET supporter_id = ? WHERE supporter_id = ?",
			targetID, sourceID); err != nil {
			return fmt.Errorf("move contact attempts: %w", err)
		}

		sets := []string{"potential_duplicate = 0", "duplicate_of_id = NULL", "duplicate_reviewed_at = ?", "updated_at = ?"}
		args := []any{now, now}
		if strings.TrimSpace(target.Email) == "" && strings.TrimSpace(source.Email) != "" {
			sets = append(sets, "email = ?")
			args = append(args, strings.TrimSpace(source.Email))
		}
		if target.RegisteredVoter == nil && source.RegisteredVoter != nil {
			sets = append(sets, "registered_voter = ?")
			args = append(args, boolToInt(*source.RegisteredVoter))
		}
		if target.WantsToVolunteer == nil && source.WantsToVolunteer != nil {
			sets = append(sets, "wants_to_volunteer = ?")
			args = append(args, boolToInt(*source.WantsToVolunteer))
		}
		if target.WantsYardSign == nil && source.WantsYardSign != nil {
			sets = append(sets, "wants_yard_sign = ?")
			args = append(args, boolToInt(*source.WantsYardSign))
		}
		note := fmt.Sprintf("Merged duplicate record #%d into this record.", sourceID)
		sets = append(sets, "duplicate_notes = ?")
		args = append(args, note)
		args = append(args, targetID)
		if _, err := tx.ExecContext(ctx,
			"UPDATE supporters SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...); err != nil {
			return fmt.Errorf("adopt merged fields: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE supporters
             SET status = ?, potential_duplicate = 0, duplicate_of_id = ?,
                 duplicate_notes = ?, duplicate_reviewed_at = ?, updated_at = ?
             WHERE id = ?`,
			SupporterDuplicate, targetID,
			fmt.Sprintf("Merged into record #%d.", targetID), now, now, sourceID); err != nil {
			return fmt.Errorf("retire merged supporter: %w", err)
		}
		return nil
	})
}

func getSupporterTx(ctx context.Context, tx *sql.Tx, id int64) (*Supporter, error) {
	supporter, err := scanSupporter(tx.QueryRowContext(ctx,
		"SELECT "+supporterColumns+" FROM supporters WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("supporter %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get supporter %d: %w", id, err)
	}
	return supporter, nil
}

func mergeRSVPs(ctx context.Context, tx *sql.Tx, sourceID, targetID int64) error {
	rows, err := tx.QueryContext(ctx,
		"SELECT id, event_name, attended FROM event_rsvps WHERE supporter_id = ?", sourceID)
	if err != nil {
		return fmt.Errorf("load source rsvps: %w", err)
	}
	type rsvp struct {
		id       int64
		event    string
		attended bool
	}
	var sourceRSVPs []rsvp
	for rows.Next() {
		var (
			r        rsvp
			attended int
		)
		if err := rows.Scan(&r.id, &r.event, &attended); err != nil {
			rows.Close()
			return fmt.Errorf("scan source rsvp: %w", err)
		}
		r.attended = attended != 0
		sourceRSVPs = append(sourceRSVPs, r)
	}
	if err := rows.Close(); err != nil {
		return fmt.Errorf("close source rsvps: %w", err)
	}

	for _, r := range sourceRSVPs {
		var targetRSVPID int64
		err := tx.QueryRowContext(ctx,
			"SELECT id FROM event_rsvps WHERE supporter_id = ? AND event_name = ?",
			targetID, r.event).Scan(&targetRSVPID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			if _, err := tx.ExecContext(ctx,
				"UPDATE event_rsvps SET supporter_id = ? WHERE id = ?", targetID, r.id); err != nil {
				return fmt.Errorf("move rsvp: %w", err)
			}
		case err != nil:
			return fmt.Errorf("find target rsvp: %w", err)
		default:
			if r.attended {
				if _, err := tx.ExecContext(ctx,
					"UPDATE event_rsvps SET attended = 1 WHERE id = ?", targetRSVPID); err != nil {
					return fmt.Errorf("merge rsvp attendance: %w", err)
				}
			}
			if _, err := tx.ExecContext(ctx,
				"DELETE FROM event_rsvps WHERE id = ?", r.id); err != nil {
				return fmt.Errorf("drop merged rsvp: %w", err)
			}
		}
	}
	return nil
}
