package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const registryColumns = "id, first_name, last_name, birth_date, birth_date_ambiguous, village_name, " +
	"registration_number, snapshot_date, status"

func scanRegistryRecord(scanner interface{ Scan(dest ...any) error }) (*RegistryRecord, error) {
	var (
		record         RegistryRecord
		birthDate      sql.NullString
		birthAmbiguous sql.NullInt64
		statusStr      string
	)
	if err := scanner.Scan(
		&record.ID, &record.FirstName, &record.LastName, &birthDate, &birthAmbiguous,
		&record.VillageName, &record.RegistrationNumber, &record.SnapshotDate, &statusStr,
	); err != nil {
		return nil, err
	}
	record.BirthDate = dateFromNull(birthDate)
	record.BirthDateAmbiguous = birthAmbiguous.Valid && birthAmbiguous.Int64 != 0
	record.Status = RegistryStatus(statusStr)
	return &record, nil
}

// ActiveRegistryCount reports how many registry rows are present in the
// current snapshot. Zero means no registry data is loaded.
func (s *Store) ActiveRegistryCount(ctx context.Context) (int64, error) {
	ctx = ensureContext(ctx)
	var count int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM registry_records WHERE status = ?", RegistryActive).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active registry records: %w", err)
	}
	return count, nil
}

// ActiveRegistryByName returns active registry rows whose name matches
// case-insensitively, in insertion order.
func (s *Store) ActiveRegistryByName(ctx context.Context, first, last string) ([]*RegistryRecord, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+registryColumns+` FROM registry_records
         WHERE status = ? AND TRIM(first_name) = ? COLLATE NOCASE AND TRIM(last_name) = ? COLLATE NOCASE
         ORDER BY id`,
		RegistryActive, strings.TrimSpace(first), strings.TrimSpace(last))
	if err != nil {
		return nil, fmt.Errorf("query registry by name: %w", err)
	}
	defer rows.Close()

	var records []*RegistryRecord
	for rows.Next() {
		record, err := scanRegistryRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registry record: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// RegistryImportTx provides registry writes scoped to one atomic import run.
type RegistryImportTx struct {
	ctx context.Context
	tx  *sql.Tx
}

// RunRegistryImport executes fn inside a single transaction. On any error no
// partial registry writes remain visible.
func (s *Store) RunRegistryImport(ctx context.Context, fn func(*RegistryImportTx) error) error {
	ctx = ensureContext(ctx)
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return fn(&RegistryImportTx{ctx: ctx, tx: tx})
	})
}

// Find looks up an existing registry record by case-insensitive name and
// village, optionally narrowed by exact birth date.
func (r *RegistryImportTx) Find(first, last, villageName string, birthDate *time.Time) (*RegistryRecord, error) {
	query := `SELECT ` + registryColumns + ` FROM registry_records
        WHERE TRIM(first_name) = ? COLLATE NOCASE AND TRIM(last_name) = ? COLLATE NOCASE
          AND TRIM(village_name) = ? COLLATE NOCASE`
	args := []any{strings.TrimSpace(first), strings.TrimSpace(last), strings.TrimSpace(villageName)}
	if birthDate != nil {
		query += " AND birth_date = ?"
		args = append(args, birthDate.Format(dateLayout))
	}
	query += " ORDER BY id LIMIT 1"

	record, err := scanRegistryRecord(r.tx.QueryRowContext(r.ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find registry record: %w", err)
	}
	return record, nil
}

// Insert adds a registry row seen in the current snapshot.
func (r *RegistryImportTx) Insert(record *RegistryRecord) (int64, error) {
	status := record.Status
	if status == "" {
		status = RegistryActive
	}
	res, err := r.tx.ExecContext(r.ctx,
		`INSERT INTO registry_records (
            first_name, last_name, birth_date, birth_date_ambiguous, village_name,
            registration_number, snapshot_date, status
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.FirstName,
		record.LastName,
		nullableDate(record.BirthDate),
		boolToInt(record.BirthDateAmbiguous),
		record.VillageName,
		record.RegistrationNumber,
		record.SnapshotDate,
		status,
	)
	if err != nil {
		return 0, fmt.Errorf("insert registry record: %w", err)
	}
	return res.LastInsertId()
}

// Update refreshes a registry row found in the new snapshot: snapshot date and
// active status always, registration number and birth date only when the new
// values are non-blank.
func (r *RegistryImportTx) Update(id int64, record *RegistryRecord) error {
	sets := []string{"snapshot_date = ?", "status = ?"}
	args := []any{record.SnapshotDate, RegistryActive}
	if strings.TrimSpace(record.RegistrationNumber) != "" {
		sets = append(sets, "registration_number = ?")
		args = append(args, record.RegistrationNumber)
	}
	if record.BirthDate != nil {
		sets = append(sets, "birth_date = ?", "birth_date_ambiguous = ?")
		args = append(args, record.BirthDate.Format(dateLayout), boolToInt(record.BirthDateAmbiguous))
	}
	args = append(args, id)

	if _, err := r.tx.ExecContext(r.ctx,
		"UPDATE registry_records SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...); err != nil {
		return fmt.Errorf("update registry record %d: %w", id, err)
	}
	return nil
}

// MarkMissingRemoved transitions every record not seen in the given snapshot
// to removed, preserving purge-list history.
func (r *RegistryImportTx) MarkMissingRemoved(snapshotDate string) (int64, error) {
	res, err := r.tx.ExecContext(r.ctx,
		"UPDATE registry_records SET status = ? WHERE snapshot_date != ? AND status = ?",
		RegistryRemoved, snapshotDate, RegistryActive)
	if err != nil {
		return 0, fmt.Errorf("mark missing registry records removed: %w", err)
	}
	return res.RowsAffected()
}
