package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const supporterColumns = "id, first_name, last_name, display_name, phone, normalized_phone, email, address, " +
	"birth_date, birth_date_ambiguous, village_id, precinct_id, status, verification_status, registered_voter, " +
	"referred_from_village_id, wants_to_volunteer, wants_yard_sign, potential_duplicate, duplicate_of_id, " +
	"duplicate_notes, duplicate_reviewed_at, verified_at, source, created_at, updated_at"

func scanSupporter(scanner interface{ Scan(dest ...any) error }) (*Supporter, error) {
	var (
		id              int64
		firstName       string
		lastName        string
		displayName     string
		phone           string
		normalizedPhone string
		email           string
		address         string
		birthDate       sql.NullString
		birthAmbiguous  sql.NullInt64
		villageID       sql.NullInt64
		precinctID      sql.NullInt64
		statusStr       string
		verification    string
		registeredVoter sql.NullInt64
		referredFrom    sql.NullInt64
		wantsVolunteer  sql.NullInt64
		wantsYardSign   sql.NullInt64
		potentialDup    sql.NullInt64
		duplicateOf     sql.NullInt64
		duplicateNotes  string
		reviewedAt      sql.NullString
		verifiedAt      sql.NullString
		source          string
		createdRaw      string
		updatedRaw      string
	)

	if err := scanner.Scan(
		&id, &firstName, &lastName, &displayName, &phone, &normalizedPhone, &email, &address,
		&birthDate, &birthAmbiguous, &villageID, &precinctID, &statusStr, &verification, &registeredVoter,
		&referredFrom, &wantsVolunteer, &wantsYardSign, &potentialDup, &duplicateOf,
		&duplicateNotes, &reviewedAt, &verifiedAt, &source, &createdRaw, &updatedRaw,
	); err != nil {
		return nil, err
	}

	supporter := &Supporter{
		ID:                    id,
		FirstName:             firstName,
		LastName:              lastName,
		DisplayName:           displayName,
		Phone:                 phone,
		NormalizedPhone:       normalizedPhone,
		Email:                 email,
		Address:               address,
		BirthDate:             dateFromNull(birthDate),
		BirthDateAmbiguous:    birthAmbiguous.Valid && birthAmbiguous.Int64 != 0,
		VillageID:             idFromNull(villageID),
		PrecinctID:            idFromNull(precinctID),
		Status:                SupporterStatus(statusStr),
		VerificationStatus:    VerificationStatus(verification),
		RegisteredVoter:       boolFromNull(registeredVoter),
		ReferredFromVillageID: idFromNull(referredFrom),
		WantsToVolunteer:      boolFromNull(wantsVolunteer),
		WantsYardSign:         boolFromNull(wantsYardSign),
		PotentialDuplicate:    potentialDup.Valid && potentialDup.Int64 != 0,
		DuplicateOfID:         idFromNull(duplicateOf),
		DuplicateNotes:        duplicateNotes,
		DuplicateReviewedAt:   timeFromNull(reviewedAt),
		VerifiedAt:            timeFromNull(verifiedAt),
		Source:                Source(source),
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		supporter.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		supporter.UpdatedAt = updated
	}
	return supporter, nil
}

func insertSupporter(ctx context.Context, q querier, supporter *Supporter) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	status := supporter.Status
	if status == "" {
		status = SupporterActive
	}
	verification := supporter.VerificationStatus
	if verification == "" {
		verification = VerificationUnverified
	}
	source := supporter.Source
	if source == "" {
		source = SourceStaff
	}

	res, err := q.ExecContext(
		ctx,
		`INSERT INTO supporters (
            first_name, last_name, display_name, phone, normalized_phone, email, address,
            birth_date, birth_date_ambiguous, village_id, precinct_id, status, verification_status,
            registered_voter, referred_from_village_id, wants_to_volunteer, wants_yard_sign,
            potential_duplicate, duplicate_of_id, duplicate_notes, source, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		supporter.FirstName,
		supporter.LastName,
		supporter.DisplayName,
		supporter.Phone,
		supporter.NormalizedPhone,
		strings.TrimSpace(supporter.Email),
		supporter.Address,
		nullableDate(supporter.BirthDate),
		boolToInt(supporter.BirthDateAmbiguous),
		nullableID(supporter.VillageID),
		nullableID(supporter.PrecinctID),
		status,
		verification,
		nullableBool(supporter.RegisteredVoter),
		nullableID(supporter.ReferredFromVillageID),
		nullableBool(supporter.WantsToVolunteer),
		nullableBool(supporter.WantsYardSign),
		boolToInt(supporter.PotentialDuplicate),
		nullableID(supporter.DuplicateOfID),
		supporter.DuplicateNotes,
		source,
		now,
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("insert supporter: %w", err)
	}
	return res.LastInsertId()
}

// CreateSupporter stores a new supporter and returns the persisted record.
func (s *Store) CreateSupporter(ctx context.Context, supporter *Supporter) (*Supporter, error) {
	ctx = ensureContext(ctx)
	id, err := insertSupporter(ctx, s.db, supporter)
	if err != nil {
		return nil, err
	}
	return s.GetSupporter(ctx, id)
}

// CreateSupporters stores every supporter in one atomic transaction. Either
// all rows commit or none do.
func (s *Store) CreateSupporters(ctx context.Context, supporters []*Supporter) ([]int64, error) {
	ctx = ensureContext(ctx)
	ids := make([]int64, 0, len(supporters))
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		ids = ids[:0]
		for _, supporter := range supporters {
			id, err := insertSupporter(ctx, tx, supporter)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// GetSupporter fetches one supporter by id.
func (s *Store) GetSupporter(ctx context.Context, id int64) (*Supporter, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, "SELECT "+supporterColumns+" FROM supporters WHERE id = ?", id)
	supporter, err := scanSupporter(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("supporter %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get supporter %d: %w", id, err)
	}
	return supporter, nil
}

func (s *Store) querySupporters(ctx context.Context, query string, args ...any) ([]*Supporter, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query supporters: %w", err)
	}
	defer rows.Close()

	var supporters []*Supporter
	for rows.Next() {
		supporter, err := scanSupporter(rows)
		if err != nil {
			return nil, fmt.Errorf("scan supporter: %w", err)
		}
		supporters = append(supporters, supporter)
	}
	return supporters, rows.Err()
}

// ListActiveSupporters returns active supporters in insertion order.
func (s *Store) ListActiveSupporters(ctx context.Context) ([]*Supporter, error) {
	ctx = ensureContext(ctx)
	return s.querySupporters(ctx,
		"SELECT "+supporterColumns+" FROM supporters WHERE status = ? ORDER BY id", SupporterActive)
}

// ListUnflaggedActiveIDs returns ids of active supporters not yet flagged as
// potential duplicates, in insertion order. The batch duplicate scan iterates
// this set so a restart never redoes completed work.
func (s *Store) ListUnflaggedActiveIDs(ctx context.Context) ([]int64, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		"SELECT id FROM supporters WHERE status = ? AND potential_duplicate = 0 ORDER BY id", SupporterActive)
	if err != nil {
		return nil, fmt.Errorf("list unflagged supporters: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan supporter id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// PhoneCandidate pairs the stored raw and normalized phone for one supporter.
type PhoneCandidate struct {
	ID              int64
	Phone           string
	NormalizedPhone string
}

// ListPhoneCandidates returns phone fields for every active supporter with any
// phone data, excluding the given id. Callers re-normalize stored values since
// historical rows may predate normalization.
func (s *Store) ListPhoneCandidates(ctx context.Context, excludeID int64) ([]PhoneCandidate, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, phone, normalized_phone FROM supporters
         WHERE status = ? AND id != ? AND (phone != '' OR normalized_phone != '')
         ORDER BY id`,
		SupporterActive, excludeID)
	if err != nil {
		return nil, fmt.Errorf("list phone candidates: %w", err)
	}
	defer rows.Close()

	var candidates []PhoneCandidate
	for rows.Next() {
		var c PhoneCandidate
		if err := rows.Scan(&c.ID, &c.Phone, &c.NormalizedPhone); err != nil {
			return nil, fmt.Errorf("scan phone candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// FindSupportersByEmail returns active supporters whose stored email equals
// the given one, compared case-insensitively after trimming.
func (s *Store) FindSupportersByEmail(ctx context.Context, email string, excludeID int64) ([]*Supporter, error) {
	ctx = ensureContext(ctx)
	trimmed := strings.TrimSpace(email)
	if trimmed == "" {
		return nil, nil
	}
	return s.querySupporters(ctx,
		"SELECT "+supporterColumns+" FROM supporters WHERE status = ? AND id != ? AND TRIM(email) = ? COLLATE NOCASE ORDER BY id",
		SupporterActive, excludeID, trimmed)
}

// FindSupportersByName returns active supporters matching (first, last) within
// a village, compared case-insensitively after trimming.
func (s *Store) FindSupportersByName(ctx context.Context, first, last string, villageID int64, excludeID int64) ([]*Supporter, error) {
	ctx = ensureContext(ctx)
	first = strings.TrimSpace(first)
	last = strings.TrimSpace(last)
	if first == "" || last == "" {
		return nil, nil
	}
	return s.querySupporters(ctx,
		`SELECT `+supporterColumns+` FROM supporters
         WHERE status = ? AND id != ? AND TRIM(first_name) = ? COLLATE NOCASE
           AND TRIM(last_name) = ? COLLATE NOCASE AND village_id = ?
         ORDER BY id`,
		SupporterActive, excludeID, first, last, villageID)
}

// SetDuplicateFlags links a supporter to a suspected original. Flag fields are
// written to fixed values so re-applying the same flag is a no-op.
func (s *Store) SetDuplicateFlags(ctx context.Context, id int64, duplicateOfID *int64, notes string) error {
	ctx = ensureContext(ctx)
	res, err := s.execWithRetry(ctx,
		`UPDATE supporters
         SET potential_duplicate = 1, duplicate_of_id = ?, duplicate_notes = ?, updated_at = ?
         WHERE id = ?`,
		nullableID(duplicateOfID), notes, time.Now().UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return fmt.Errorf("set duplicate flags: %w", err)
	}
	return requireRow(res, id)
}

// ClearDuplicateFlags dismisses a duplicate flag, stamping the review time and
// an explanatory note.
func (s *Store) ClearDuplicateFlags(ctx context.Context, id int64, note string) error {
	ctx = ensureContext(ctx)
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(ctx,
		`UPDATE supporters
         SET potential_duplicate = 0, duplicate_of_id = NULL, duplicate_notes = ?,
             duplicate_reviewed_at = ?, updated_at = ?
         WHERE id = ?`,
		note, now, now, id)
	if err != nil {
		return fmt.Errorf("clear duplicate flags: %w", err)
	}
	return requireRow(res, id)
}

// AssignPrecinct writes a precinct assignment.
func (s *Store) AssignPrecinct(ctx context.Context, supporterID, precinctID int64) error {
	ctx = ensureContext(ctx)
	res, err := s.execWithRetry(ctx,
		"UPDATE supporters SET precinct_id = ?, updated_at = ? WHERE id = ?",
		precinctID, time.Now().UTC().Format(time.RFC3339Nano), supporterID)
	if err != nil {
		return fmt.Errorf("assign precinct: %w", err)
	}
	return requireRow(res, supporterID)
}

// VerificationUpdate carries the reconciler's direct field writes. Nil
// pointers leave the stored value untouched.
type VerificationUpdate struct {
	VerificationStatus    VerificationStatus
	RegisteredVoter       *bool
	ReferredFromVillageID *int64
	VerifiedAt            *time.Time
}

// ApplyVerification writes a reconciliation outcome through direct field
// updates, bypassing the usual edit path: this is a system-initiated
// classification, not a user-submitted change.
func (s *Store) ApplyVerification(ctx context.Context, id int64, update VerificationUpdate) error {
	ctx = ensureContext(ctx)
	sets := []string{"updated_at = ?"}
	args := []any{time.Now().UTC().Format(time.RFC3339Nano)}

	if update.VerificationStatus != "" {
		sets = append(sets, "verification_status = ?")
		args = append(args, update.VerificationStatus)
	}
	if update.RegisteredVoter != nil {
		sets = append(sets, "registered_voter = ?")
		args = append(args, boolToInt(*update.RegisteredVoter))
	}
	if update.ReferredFromVillageID != nil {
		sets = append(sets, "referred_from_village_id = ?")
		args = append(args, *update.ReferredFromVillageID)
	}
	if update.VerifiedAt != nil {
		sets = append(sets, "verified_at = ?")
		args = append(args, update.VerifiedAt.UTC().Format(time.RFC3339Nano))
	}
	args = append(args, id)

	res, err := s.execWithRetry(ctx,
		"UPDATE supporters SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("apply verification: %w", err)
	}
	return requireRow(res, id)
}

// UpdateContact rewrites a supporter's contact fields, typically after a staff
// edit, so duplicate detection and reconciliation can re-run on fresh data.
func (s *Store) UpdateContact(ctx context.Context, supporter *Supporter) error {
	ctx = ensureContext(ctx)
	res, err := s.execWithRetry(ctx,
		`UPDATE supporters
         SET first_name = ?, last_name = ?, display_name = ?, phone = ?, normalized_phone = ?,
             email = ?, address = ?, birth_date = ?, birth_date_ambiguous = ?, village_id = ?, updated_at = ?
         WHERE id = ?`,
		supporter.FirstName,
		supporter.LastName,
		supporter.DisplayName,
		supporter.Phone,
		supporter.NormalizedPhone,
		strings.TrimSpace(supporter.Email),
		supporter.Address,
		nullableDate(supporter.BirthDate),
		boolToInt(supporter.BirthDateAmbiguous),
		nullableID(supporter.VillageID),
		time.Now().UTC().Format(time.RFC3339Nano),
		supporter.ID)
	if err != nil {
		return fmt.Errorf("update supporter contact: %w", err)
	}
	return requireRow(res, supporter.ID)
}

func requireRow(res sql.Result, id int64) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("supporter %d: %w", id, ErrNotFound)
	}
	return nil
}
