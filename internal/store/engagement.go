package store

import (
	"context"
	"fmt"
	"time"
)

// AddEventRSVP logs a supporter's reply to an event.
func (s *Store) AddEventRSVP(ctx context.Context, supporterID int64, eventName string, attended bool) (*EventRSVP, error) {
	ctx = ensureContext(ctx)
	now := time.Now().UTC()
	res, err := s.execWithRetry(ctx,
		"INSERT INTO event_rsvps (supporter_id, event_name, attended, created_at) VALUES (?, ?, ?, ?)",
		supporterID, eventName, boolToInt(attended), now.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("insert event rsvp: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return &EventRSVP{ID: id, SupporterID: supporterID, EventName: eventName, Attended: attended, CreatedAt: now}, nil
}

// ListEventRSVPs returns a supporter's RSVPs in insertion order.
func (s *Store) ListEventRSVPs(ctx context.Context, supporterID int64) ([]*EventRSVP, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, supporter_id, event_name, attended, created_at FROM event_rsvps
         WHERE supporter_id = ? ORDER BY id`, supporterID)
	if err != nil {
		return nil, fmt.Errorf("list event rsvps: %w", err)
	}
	defer rows.Close()

	var rsvps []*EventRSVP
	for rows.Next() {
		var (
			rsvp       EventRSVP
			attended   int
			createdRaw string
		)
		if err := rows.Scan(&rsvp.ID, &rsvp.SupporterID, &rsvp.EventName, &attended, &createdRaw); err != nil {
			return nil, fmt.Errorf("scan event rsvp: %w", err)
		}
		rsvp.Attended = attended != 0
		if created, err := parseTimeString(createdRaw); err == nil {
			rsvp.CreatedAt = created
		}
		rsvps = append(rsvps, &rsvp)
	}
	return rsvps, rows.Err()
}

// AddContactAttempt logs one outreach touch against a supporter.
func (s *Store) AddContactAttempt(ctx context.Context, supporterID int64, method, note string) (*ContactAttempt, error) {
	ctx = ensureContext(ctx)
	now := time.Now().UTC()
	res, err := s.execWithRetry(ctx,
		"INSERT INTO contact_attempts (supporter_id, method, note, attempted_at) VALUES (?, ?, ?, ?)",
		supporterID, method, note, now.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("insert contact attempt: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return &ContactAttempt{ID: id, SupporterID: supporterID, Method: method, Note: note, AttemptedAt: now}, nil
}

// ListContactAttempts returns a supporter's outreach touches in insertion order.
func (s *Store) ListContactAttempts(ctx context.Context, supporterID int64) ([]*ContactAttempt, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, supporter_id, method, note, attempted_at FROM contact_attempts
         WHERE supporter_id = ? ORDER BY id`, supporterID)
	if err != nil {
		return nil, fmt.Errorf("list contact attempts: %w", err)
	}
	defer rows.Close()

	var attempts []*ContactAttempt
	for rows.Next() {
		var (
			attempt      ContactAttempt
			attemptedRaw string
		)
		if err := rows.Scan(&attempt.ID, &attempt.SupporterID, &attempt.Method, &attempt.Note, &attemptedRaw); err != nil {
			return nil, fmt.Errorf("scan contact attempt: %w", err)
		}
		if attempted, err := parseTimeString(attemptedRaw); err == nil {
			attempt.AttemptedAt = attempted
		}
		attempts = append(attempts, &attempt)
	}
	return attempts, rows.Err()
}
