package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/ledgerloom/ledgerloom/internal/common"
	"github.com/ledgerloom/ledgerloom/internal/model"
	"github.com/ledgerloom/ledgerloom/internal/service"
)

// Committer applies reviewed import records to the ledger.
type Committer struct {
	store     service.Storage
	retryOpts common.RetryOptions
}

// NewCommitter creates an import commit executor backed by the given store.
func NewCommitter(store service.Storage) *Committer {
	return &Committer{
		store: store,
		retryOpts: common.RetryOptions{
			MaxAttempts: 3,
		},
	}
}

// Commit applies each reviewed record independently: a failure on one
// record is logged into the batch's processing log, counted, and does not
// abort the rest. The batch is finalized completed once every record has
// been attempted, and the returned counts always sum to the record total.
func (c *Committer) Commit(ctx context.Context, batchID string, reviewed []model.ReviewedRecord) (model.CommitSummary, error) {
	batch, err := c.store.GetBatch(ctx, batchID)
	if err != nil {
		return model.CommitSummary{}, fmt.Errorf("failed to load batch: %w", err)
	}

	var summary model.CommitSummary
	for i, rec := range reviewed {
		if err := c.commitRecord(ctx, batch, rec, &summary); err != nil {
			summary.Errors++
			line := fmt.Sprintf("record %d (%s %s): %v",
				i, rec.Record.Date.Format("2006-01-02"), rec.Record.Amount.StringFixed(2), err)
			if logErr := c.store.AppendBatchLog(ctx, batch.ID, line); logErr != nil {
				common.LogError(logErr, "Failed to append batch log", common.Fields{
					"batch_id": batch.ID,
				})
			}
			common.LogError(err, "Import record failed", common.Fields{
				"batch_id": batch.ID,
				"record":   i,
			})
		}
	}

	batch.TotalCount = len(reviewed)
	batch.ImportedCount = summary.Imported
	batch.DuplicateCount = summary.Duplicates
	batch.SkippedCount = summary.Skipped
	batch.ErrorCount = summary.Errors
	if err := c.store.FinalizeBatch(ctx, batch); err != nil {
		return summary, fmt.Errorf("failed to finalize batch: %w", err)
	}

	common.LogInfo("Committed import batch", common.Fields{
		"batch_id":  batch.ID,
		"imported":  summary.Imported,
		"duplicate": summary.Duplicates,
		"skipped":   summary.Skipped,
		"errors":    summary.Errors,
	})

	return summary, nil
}

func (c *Committer) commitRecord(ctx context.Context, batch *model.ImportBatch, rec model.ReviewedRecord, summary *model.CommitSummary) error {
	if err := validateRecord(rec.Record); err != nil {
		return err
	}

	hash := rec.Record.Hash
	if hash == "" {
		hash = rec.Record.GenerateHash()
	}

	switch rec.Action {
	case model.ActionCreate:
		entry := &model.LedgerEntry{
			ID:           uuid.NewString(),
			Owner:        batch.Owner,
			AccountID:    batch.AccountID,
			CategoryID:   rec.CategoryID,
			PayeeID:      rec.PayeeID,
			Amount:       rec.Record.Amount,
			Description:  rec.Record.Description,
			Date:         rec.Record.Date,
			ValueDate:    rec.Record.ValueDate,
			PurchaseDate: rec.Record.PurchaseDate,
			Type:         model.TypeForAmount(rec.Record.Amount),
			Status:       model.StatusPending,
			ImportID:     batch.ID,
			ImportHash:   hash,
			CheckNumber:  rec.Record.CheckNumber,
		}
		if err := c.writeWithRetry(ctx, func() error {
			return c.store.CreateEntry(ctx, entry)
		}); err != nil {
			return err
		}
		summary.Imported++
		return nil

	case model.ActionSkip:
		// Skips of duplicate-verdict records count as duplicates; the
		// rest were explicitly declined by the user.
		if rec.Verdict == model.VerdictDuplicate {
			summary.Duplicates++
		} else {
			summary.Skipped++
		}
		return nil

	case model.ActionMerge:
		if rec.MatchedEntryID == "" {
			return common.NewValidationError("matchedEntryId", "required for merge")
		}
		// Merge stamps provenance only. Reconciliation stays a separate
		// explicit user action and is never flipped here.
		if err := c.writeWithRetry(ctx, func() error {
			return c.store.SetProvenance(ctx, rec.MatchedEntryID, batch.ID, hash)
		}); err != nil {
			return err
		}
		summary.Imported++
		return nil

	default:
		return common.NewValidationError("action", fmt.Sprintf("unknown action %q", rec.Action))
	}
}

// writeWithRetry retries transient store failures but fails fast on
// constraint violations: the loser of a concurrent duplicate insert must
// surface as a per-record error, not retry into the same wall.
func (c *Committer) writeWithRetry(ctx context.Context, op func() error) error {
	return common.WithRetry(ctx, func() error {
		err := op()
		if err == nil {
			return nil
		}
		if errors.Is(err, common.ErrDuplicateEntry) || errors.Is(err, common.ErrNotFound) {
			return &common.RetryableError{Err: err, Retryable: false}
		}
		return err
	}, c.retryOpts)
}

// validateRecord guards against malformed raw records reaching the ledger.
func validateRecord(rec model.RawRecord) error {
	if rec.Date.IsZero() {
		return common.NewValidationError("date", "missing")
	}
	if rec.Amount.IsZero() {
		return common.NewValidationError("amount", "must be non-zero")
	}
	return nil
}
