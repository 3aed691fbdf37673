package importer

import (
	"context"
	"testing"
	"time"

	"github.com/ledgerloom/ledgerloom/internal/model"
	"github.com/ledgerloom/ledgerloom/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func analyzeRecords(t *testing.T, db *testutil.TestDB, records []model.RawRecord) (*model.ImportBatch, []model.ReviewRecord) {
	t.Helper()
	batch, reviews, err := NewAnalyzer(db.Storage).Analyze(
		context.Background(), "test-user", db.Account.ID, "test", records)
	require.NoError(t, err)
	return batch, reviews
}

func defaultActions(reviews []model.ReviewRecord) []model.ReviewedRecord {
	reviewed := make([]model.ReviewedRecord, 0, len(reviews))
	for _, review := range reviews {
		rec := model.ReviewedRecord{
			Record:  review.Record,
			Verdict: review.Verdict,
			Action:  review.Verdict.DefaultAction(),
		}
		if review.Matched != nil {
			rec.MatchedEntryID = review.Matched.ID
		}
		reviewed = append(reviewed, rec)
	}
	return reviewed
}

func fiveRecords() []model.RawRecord {
	return []model.RawRecord{
		testutil.Record(date(10), "-12.50", "Coffee"),
		testutil.Record(date(11), "-80.00", "Groceries"),
		testutil.Record(date(12), "1500.00", "Salary"),
		testutil.Record(date(13), "-9.99", "Streaming"),
		testutil.Record(date(14), "-42.00", "Fuel"),
	}
}

func TestCommit_SameFileTwice(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	// First pass: everything is new and gets imported.
	batch, reviews := analyzeRecords(t, db, fiveRecords())
	for _, review := range reviews {
		assert.Equal(t, model.VerdictNew, review.Verdict)
	}
	summary, err := NewCommitter(db.Storage).Commit(ctx, batch.ID, defaultActions(reviews))
	require.NoError(t, err)
	assert.Equal(t, model.CommitSummary{Imported: 5}, summary)

	// Second pass over the identical file: 5 duplicates, nothing written.
	batch2, reviews2 := analyzeRecords(t, db, fiveRecords())
	for _, review := range reviews2 {
		assert.Equal(t, model.VerdictDuplicate, review.Verdict)
	}
	summary2, err := NewCommitter(db.Storage).Commit(ctx, batch2.ID, defaultActions(reviews2))
	require.NoError(t, err)
	assert.Equal(t, model.CommitSummary{Duplicates: 5}, summary2)
	assert.Equal(t, 5, summary2.Total())

	entries, err := db.Storage.ListEntriesByAccount(ctx, db.Account.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 5)
}

func TestCommit_CreateSetsProvenanceAndPendingStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	rec := testutil.Record(date(10), "-12.50", "Coffee")
	batch, reviews := analyzeRecords(t, db, []model.RawRecord{rec})

	_, err := NewCommitter(db.Storage).Commit(ctx, batch.ID, defaultActions(reviews))
	require.NoError(t, err)

	entries, err := db.Storage.ListEntriesByAccount(ctx, db.Account.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entry := entries[0]
	assert.Equal(t, model.StatusPending, entry.Status)
	assert.Equal(t, model.TypeExpense, entry.Type)
	assert.Equal(t, batch.ID, entry.ImportID)
	assert.Equal(t, rec.Hash, entry.ImportHash)
	assert.True(t, entry.Amount.Equal(decimal.RequireFromString("-12.50")))
}

func TestCommit_CreateCarriesOptionalBankFields(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	rec := testutil.Record(date(20), "-125.00", "CHECK 1042")
	vd := date(22)
	pd := date(19)
	rec.ValueDate = &vd
	rec.PurchaseDate = &pd
	rec.CheckNumber = "1042"

	batch, reviews := analyzeRecords(t, db, []model.RawRecord{rec})
	_, err := NewCommitter(db.Storage).Commit(ctx, batch.ID, defaultActions(reviews))
	require.NoError(t, err)

	entries, err := db.Storage.ListEntriesByAccount(ctx, db.Account.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entry := entries[0]
	assert.Equal(t, "1042", entry.CheckNumber)
	require.NotNil(t, entry.ValueDate)
	assert.True(t, entry.ValueDate.Equal(vd))
	require.NotNil(t, entry.PurchaseDate)
	assert.True(t, entry.PurchaseDate.Equal(pd))
}

func TestCommit_MergePreservesEntryAndReconciliation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	manual := db.SeedEntry(func(e *model.LedgerEntry) {
		e.Date = date(14)
		e.Description = "Rent, as I typed it"
	})

	rec := testutil.Record(date(15), "-50.00", "ACH RENT PAYMENT")
	batch, reviews := analyzeRecords(t, db, []model.RawRecord{rec})
	require.Equal(t, model.VerdictMatch, reviews[0].Verdict)

	summary, err := NewCommitter(db.Storage).Commit(ctx, batch.ID, defaultActions(reviews))
	require.NoError(t, err)
	assert.Equal(t, model.CommitSummary{Imported: 1}, summary)

	got, err := db.Storage.GetEntry(ctx, manual.ID)
	require.NoError(t, err)
	// Provenance recorded, everything the user typed left alone.
	assert.Equal(t, batch.ID, got.ImportID)
	assert.Equal(t, rec.Hash, got.ImportHash)
	assert.Equal(t, "Rent, as I typed it", got.Description)
	assert.True(t, got.Date.Equal(date(14)), "date untouched, got %s", got.Date)
	// Merging does not reconcile; that is a separate explicit action.
	assert.False(t, got.IsReconciled)
	assert.Equal(t, model.StatusCleared, got.Status)

	// No new row was created.
	entries, err := db.Storage.ListEntriesByAccount(ctx, db.Account.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCommit_UserOverridesMatchToCreate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	db.SeedEntry(func(e *model.LedgerEntry) { e.Date = date(14) })

	batch, reviews := analyzeRecords(t, db, []model.RawRecord{
		testutil.Record(date(15), "-50.00", "Payment"),
	})
	require.Equal(t, model.VerdictMatch, reviews[0].Verdict)

	reviewed := defaultActions(reviews)
	reviewed[0].Action = model.ActionCreate

	summary, err := NewCommitter(db.Storage).Commit(ctx, batch.ID, reviewed)
	require.NoError(t, err)
	assert.Equal(t, model.CommitSummary{Imported: 1}, summary)

	entries, err := db.Storage.ListEntriesByAccount(ctx, db.Account.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestCommit_SkipCounts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	// Pre-import one record so it classifies as duplicate.
	first, firstReviews := analyzeRecords(t, db, []model.RawRecord{
		testutil.Record(date(10), "-12.50", "Coffee"),
	})
	_, err := NewCommitter(db.Storage).Commit(ctx, first.ID, defaultActions(firstReviews))
	require.NoError(t, err)

	batch, reviews := analyzeRecords(t, db, []model.RawRecord{
		testutil.Record(date(10), "-12.50", "Coffee"), // duplicate -> skip
		testutil.Record(date(11), "-80.00", "Groceries"),
	})

	reviewed := defaultActions(reviews)
	// User declines the new record too.
	reviewed[1].Action = model.ActionSkip

	summary, err := NewCommitter(db.Storage).Commit(ctx, batch.ID, reviewed)
	require.NoError(t, err)
	assert.Equal(t, model.CommitSummary{Duplicates: 1, Skipped: 1}, summary)
}

func TestCommit_PerRecordErrorsDoNotAbortBatch(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	batch, reviews := analyzeRecords(t, db, []model.RawRecord{
		testutil.Record(date(10), "-12.50", "Coffee"),
		testutil.Record(date(11), "-80.00", "Groceries"),
		testutil.Record(date(12), "-9.99", "Streaming"),
	})

	reviewed := defaultActions(reviews)
	// Malformed record: zero date fails validation.
	reviewed[1].Record.Date = time.Time{}
	// Merge without a target entry is also a per-record error.
	reviewed[2].Action = model.ActionMerge
	reviewed[2].MatchedEntryID = ""

	summary, err := NewCommitter(db.Storage).Commit(ctx, batch.ID, reviewed)
	require.NoError(t, err)
	assert.Equal(t, model.CommitSummary{Imported: 1, Errors: 2}, summary)
	assert.Equal(t, 3, summary.Total())

	// Failures are logged on the batch and the batch still completes.
	got, err := db.Storage.GetBatch(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BatchCompleted, got.Status)
	assert.Equal(t, 2, got.ErrorCount)
	assert.Len(t, got.Log, 2)
	require.NotNil(t, got.CompletedAt)
}

func TestCommit_DuplicateHashRaceIsPerRecordError(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	rec := testutil.Record(date(10), "-12.50", "Coffee")
	batch, reviews := analyzeRecords(t, db, []model.RawRecord{rec})

	// Simulate a concurrent import winning the race after analysis.
	db.SeedEntry(func(e *model.LedgerEntry) { e.ImportHash = rec.Hash })

	summary, err := NewCommitter(db.Storage).Commit(ctx, batch.ID, defaultActions(reviews))
	require.NoError(t, err)
	assert.Equal(t, model.CommitSummary{Errors: 1}, summary)
}

func TestAnalyze_UnknownAccountFails(t *testing.T) {
	db := testutil.SetupTestDB(t)

	_, _, err := NewAnalyzer(db.Storage).Analyze(context.Background(),
		"test-user", "missing-account", "test", fiveRecords())
	assert.Error(t, err)
}
