package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ledgerloom/ledgerloom/internal/common"
	"github.com/ledgerloom/ledgerloom/internal/model"
)

// CreateBatch inserts a new import batch in its analyzing state.
func (s *SQLiteStorage) CreateBatch(ctx context.Context, batch *model.ImportBatch) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateBatch(batch); err != nil {
		return err
	}
	return s.createBatchTx(ctx, s.db, batch)
}

func (s *SQLiteStorage) createBatchTx(ctx context.Context, q queryable, batch *model.ImportBatch) error {
	if batch.CreatedAt.IsZero() {
		batch.CreatedAt = time.Now().UTC()
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO import_batches (
			id, owner, account_id, status, total_count, imported_count,
			duplicate_count, skipped_count, error_count, source_config, log,
			created_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		batch.ID,
		batch.Owner,
		batch.AccountID,
		string(batch.Status),
		batch.TotalCount,
		batch.ImportedCount,
		batch.DuplicateCount,
		batch.SkippedCount,
		batch.ErrorCount,
		batch.SourceConfig,
		strings.Join(batch.Log, "\n"),
		batch.CreatedAt,
		nullTime(batch.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert batch %s: %w", batch.ID, mapConstraintErr(err))
	}
	return nil
}

// GetBatch retrieves an import batch by ID.
func (s *SQLiteStorage) GetBatch(ctx context.Context, id string) (*model.ImportBatch, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return s.getBatchTx(ctx, s.db, id)
}

func (s *SQLiteStorage) getBatchTx(ctx context.Context, q queryable, id string) (*model.ImportBatch, error) {
	var batch model.ImportBatch
	var status, log string
	var completedAt sql.NullTime

	err := q.QueryRowContext(ctx, `
		SELECT id, owner, account_id, status, total_count, imported_count,
		       duplicate_count, skipped_count, error_count, source_config, log,
		       created_at, completed_at
		FROM import_batches WHERE id = ?
	`, id).Scan(
		&batch.ID,
		&batch.Owner,
		&batch.AccountID,
		&status,
		&batch.TotalCount,
		&batch.ImportedCount,
		&batch.DuplicateCount,
		&batch.SkippedCount,
		&batch.ErrorCount,
		&batch.SourceConfig,
		&log,
		&batch.CreatedAt,
		&completedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get batch: %w", err)
	}

	batch.Status = model.BatchStatus(status)
	if log != "" {
		batch.Log = strings.Split(log, "\n")
	}
	if completedAt.Valid {
		ca := completedAt.Time
		batch.CompletedAt = &ca
	}

	return &batch, nil
}

// AppendBatchLog appends one line to a batch's processing log.
func (s *SQLiteStorage) AppendBatchLog(ctx context.Context, id, line string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.appendBatchLogTx(ctx, s.db, id, line)
}

func (s *SQLiteStorage) appendBatchLogTx(ctx context.Context, q queryable, id, line string) error {
	if err := validateString(id, "id"); err != nil {
		return err
	}
	if err := validateString(line, "line"); err != nil {
		return err
	}

	res, err := q.ExecContext(ctx, `
		UPDATE import_batches
		SET log = CASE WHEN log = '' THEN ? ELSE log || char(10) || ? END
		WHERE id = ?
	`, line, line, id)
	if err != nil {
		return fmt.Errorf("failed to append batch log: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check batch log result: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

// FinalizeBatch writes the final counts and marks the batch completed.
func (s *SQLiteStorage) FinalizeBatch(ctx context.Context, batch *model.ImportBatch) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateBatch(batch); err != nil {
		return err
	}
	return s.finalizeBatchTx(ctx, s.db, batch)
}

func (s *SQLiteStorage) finalizeBatchTx(ctx context.Context, q queryable, batch *model.ImportBatch) error {
	now := time.Now().UTC()
	batch.Status = model.BatchCompleted
	batch.CompletedAt = &now

	res, err := q.ExecContext(ctx, `
		UPDATE import_batches
		SET status = ?, total_count = ?, imported_count = ?, duplicate_count = ?,
		    skipped_count = ?, error_count = ?, completed_at = ?
		WHERE id = ?
	`,
		string(batch.Status),
		batch.TotalCount,
		batch.ImportedCount,
		batch.DuplicateCount,
		batch.SkippedCount,
		batch.ErrorCount,
		now,
		batch.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to finalize batch %s: %w", batch.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check finalize result: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}
