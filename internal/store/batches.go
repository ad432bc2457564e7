package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const batchColumns = "id, token, source_file, snapshot_date, status, new_count, updated_count, " +
	"ambiguous_count, skipped_count, error_message, created_at, completed_at"

func scanBatch(scanner interface{ Scan(dest ...any) error }) (*ImportBatch, error) {
	var (
		batch       ImportBatch
		statusStr   string
		createdRaw  string
		completedAt sql.NullString
	)
	if err := scanner.Scan(
		&batch.ID, &batch.Token, &batch.SourceFile, &batch.SnapshotDate, &statusStr,
		&batch.NewCount, &batch.UpdatedCount, &batch.AmbiguousCount, &batch.SkippedCount,
		&batch.ErrorMessage, &createdRaw, &completedAt,
	); err != nil {
		return nil, err
	}
	batch.Status = BatchStatus(statusStr)
	if created, err := parseTimeString(createdRaw); err == nil {
		batch.CreatedAt = created
	}
	batch.CompletedAt = timeFromNull(completedAt)
	return &batch, nil
}

// CreateImportBatch opens a new registry import run in the processing state.
func (s *Store) CreateImportBatch(ctx context.Context, sourceFile, snapshotDate string) (*ImportBatch, error) {
	ctx = ensureContext(ctx)
	now := time.Now().UTC().Format(time.RFC3339Nano)
	token := uuid.NewString()
	res, err := s.execWithRetry(ctx,
		`INSERT INTO import_batches (token, source_file, snapshot_date, status, created_at)
         VALUES (?, ?, ?, ?, ?)`,
		token, sourceFile, snapshotDate, BatchProcessing, now)
	if err != nil {
		return nil, fmt.Errorf("insert import batch: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetImportBatch(ctx, id)
}

// GetImportBatch fetches one import batch by id.
func (s *Store) GetImportBatch(ctx context.Context, id int64) (*ImportBatch, error) {
	ctx = ensureContext(ctx)
	batch, err := scanBatch(s.db.QueryRowContext(ctx,
		"SELECT "+batchColumns+" FROM import_batches WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("import batch %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get import batch %d: %w", id, err)
	}
	return batch, nil
}

// ListImportBatches returns import runs newest-first.
func (s *Store) ListImportBatches(ctx context.Context) ([]*ImportBatch, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+batchColumns+" FROM import_batches ORDER BY id DESC")
	if err != nil {
		return nil, fmt.Errorf("list import batches: %w", err)
	}
	defer rows.Close()

	var batches []*ImportBatch
	for rows.Next() {
		batch, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan import batch: %w", err)
		}
		batches = append(batches, batch)
	}
	return batches, rows.Err()
}

// BatchCounters carries the per-run totals finalized on completion.
type BatchCounters struct {
	New       int
	Updated   int
	Ambiguous int
	Skipped   int
}

// CompleteImportBatch finalizes a successful run with its counters.
func (s *Store) CompleteImportBatch(ctx context.Context, id int64, counters BatchCounters) error {
	ctx = ensureContext(ctx)
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(ctx,
		`UPDATE import_batches
         SET status = ?, new_count = ?, updated_count = ?, ambiguous_count = ?, skipped_count = ?, completed_at = ?
         WHERE id = ? AND status = ?`,
		BatchCompleted, counters.New, counters.Updated, counters.Ambiguous, counters.Skipped, now,
		id, BatchProcessing)
	if err != nil {
		return fmt.Errorf("complete import batch: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("import batch %d not in processing state: %w", id, ErrNotFound)
	}
	return nil
}

// FailImportBatch finalizes a failed run with the captured error message.
func (s *Store) FailImportBatch(ctx context.Context, id int64, message string) error {
	ctx = ensureContext(ctx)
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(ctx,
		`UPDATE import_batches SET status = ?, error_message = ?, completed_at = ?
         WHERE id = ? AND status = ?`,
		BatchFailed, message, now, id, BatchProcessing)
	if err != nil {
		return fmt.Errorf("fail import batch: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("import batch %d not in processing state: %w", id, ErrNotFound)
	}
	return nil
}
