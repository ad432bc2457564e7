package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// CreateVillage inserts a village, returning the stored record.
func (s *Store) CreateVillage(ctx context.Context, name string) (*Village, error) {
	ctx = ensureContext(ctx)
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("village name required")
	}
	res, err := s.execWithRetry(ctx, "INSERT INTO villages (name) VALUES (?)", name)
	if err != nil {
		return nil, fmt.Errorf("insert village: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return &Village{ID: id, Name: name}, nil
}

// VillageByID fetches one village.
func (s *Store) VillageByID(ctx context.Context, id int64) (*Village, error) {
	ctx = ensureContext(ctx)
	village := &Village{}
	err := s.db.QueryRowContext(ctx, "SELECT id, name FROM villages WHERE id = ?", id).
		Scan(&village.ID, &village.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("village %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get village %d: %w", id, err)
	}
	return village, nil
}

// VillageByName resolves a village by case-insensitive name lookup.
func (s *Store) VillageByName(ctx context.Context, name string) (*Village, error) {
	ctx = ensureContext(ctx)
	name = strings.TrimSpace(name)
	village := &Village{}
	err := s.db.QueryRowContext(ctx, "SELECT id, name FROM villages WHERE name = ?", name).
		Scan(&village.ID, &village.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("village %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get village %q: %w", name, err)
	}
	return village, nil
}

// ListVillages returns every village ordered by name.
func (s *Store) ListVillages(ctx context.Context) ([]*Village, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, "SELECT id, name FROM villages ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list villages: %w", err)
	}
	defer rows.Close()

	var villages []*Village
	for rows.Next() {
		village := &Village{}
		if err := rows.Scan(&village.ID, &village.Name); err != nil {
			return nil, fmt.Errorf("scan village: %w", err)
		}
		villages = append(villages, village)
	}
	return villages, rows.Err()
}

// CreatePrecinct inserts a precinct definition for a village.
func (s *Store) CreatePrecinct(ctx context.Context, precinct *Precinct) (*Precinct, error) {
	ctx = ensureContext(ctx)
	if precinct.VillageID == 0 {
		return nil, errors.New("precinct village required")
	}
	res, err := s.execWithRetry(ctx,
		"INSERT INTO precincts (village_id, number, registered_voters, alpha_range) VALUES (?, ?, ?, ?)",
		precinct.VillageID, precinct.Number, precinct.RegisteredVoters, precinct.AlphaRange)
	if err != nil {
		return nil, fmt.Errorf("insert precinct: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	stored := *precinct
	stored.ID = id
	return &stored, nil
}

// PrecinctsByVillage returns a village's precincts ordered by precinct number.
// Numbers sort naturally: shorter numbers first, then lexically, so "9" comes
// before "10" and "12A" after "12".
func (s *Store) PrecinctsByVillage(ctx context.Context, villageID int64) ([]*Precinct, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, village_id, number, registered_voters, alpha_range FROM precincts
         WHERE village_id = ? ORDER BY LENGTH(number), number`, villageID)
	if err != nil {
		return nil, fmt.Errorf("list precincts: %w", err)
	}
	defer rows.Close()

	var precincts []*Precinct
	for rows.Next() {
		precinct := &Precinct{}
		if err := rows.Scan(&precinct.ID, &precinct.VillageID, &precinct.Number,
			&precinct.RegisteredVoters, &precinct.AlphaRange); err != nil {
			return nil, fmt.Errorf("scan precinct: %w", err)
		}
		precincts = append(precincts, precinct)
	}
	return precincts, rows.Err()
}
