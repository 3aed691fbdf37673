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

func date(day int) time.Time {
	return time.Date(2026, 1, day, 0, 0, 0, 0, time.UTC)
}

func TestMatcher_RanksByDateDistance(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	far := db.SeedEntry(func(e *model.LedgerEntry) { e.Date = date(1) })
	near := db.SeedEntry(func(e *model.LedgerEntry) { e.Date = date(14) })
	mid := db.SeedEntry(func(e *model.LedgerEntry) { e.Date = date(10) })

	rec := testutil.Record(date(15), "-50.00", "Payment")

	matcher := NewMatcher(db.Storage)
	candidates, err := matcher.FindCandidates(ctx, db.Account.ID, rec)
	require.NoError(t, err)
	require.Len(t, candidates, 3)

	assert.Equal(t, near.ID, candidates[0].Entry.ID)
	assert.Equal(t, 1, candidates[0].DateDistance)
	assert.Equal(t, mid.ID, candidates[1].Entry.ID)
	assert.Equal(t, 5, candidates[1].DateDistance)
	assert.Equal(t, far.ID, candidates[2].Entry.ID)
	assert.Equal(t, 14, candidates[2].DateDistance)

	best, err := matcher.FindBestMatch(ctx, db.Account.ID, rec)
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.Equal(t, near.ID, best.Entry.ID)
}

func TestMatcher_TieBrokenByEntryID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	// Same date distance on both sides of the record date.
	a := db.SeedEntry(func(e *model.LedgerEntry) { e.Date = date(13) })
	b := db.SeedEntry(func(e *model.LedgerEntry) { e.Date = date(17) })

	rec := testutil.Record(date(15), "-50.00", "Payment")

	matcher := NewMatcher(db.Storage)
	candidates, err := matcher.FindCandidates(ctx, db.Account.ID, rec)
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	wantFirst, wantSecond := a.ID, b.ID
	if wantSecond < wantFirst {
		wantFirst, wantSecond = wantSecond, wantFirst
	}
	assert.Equal(t, wantFirst, candidates[0].Entry.ID)
	assert.Equal(t, wantSecond, candidates[1].Entry.ID)
}

func TestMatcher_AmountIsHardFilter(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	// Close in date but off by a cent: never a candidate.
	db.SeedEntry(func(e *model.LedgerEntry) {
		e.Date = date(15)
		e.Amount = decimal.RequireFromString("-49.99")
	})

	matcher := NewMatcher(db.Storage)
	best, err := matcher.FindBestMatch(ctx, db.Account.ID, testutil.Record(date(15), "-50.00", "Payment"))
	require.NoError(t, err)
	assert.Nil(t, best)
}

func TestMatcher_OppositeSignSameAbsoluteAmountQualifies(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	refund := db.SeedEntry(func(e *model.LedgerEntry) {
		e.Date = date(15)
		e.Amount = decimal.RequireFromString("50.00")
		e.Type = model.TypeIncome
	})

	matcher := NewMatcher(db.Storage)
	best, err := matcher.FindBestMatch(ctx, db.Account.ID, testutil.Record(date(15), "-50.00", "Payment"))
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.Equal(t, refund.ID, best.Entry.ID)
}

func TestMatcher_ExcludesReconciledAndVoid(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	at := date(10)
	db.SeedEntry(func(e *model.LedgerEntry) {
		e.Status = model.StatusReconciled
		e.IsReconciled = true
		e.ReconciledAt = &at
	})
	db.SeedEntry(func(e *model.LedgerEntry) { e.Status = model.StatusVoid })

	matcher := NewMatcher(db.Storage)
	best, err := matcher.FindBestMatch(ctx, db.Account.ID, testutil.Record(date(15), "-50.00", "Payment"))
	require.NoError(t, err)
	assert.Nil(t, best)
}

func TestDayDistance(t *testing.T) {
	tests := []struct {
		name string
		a    time.Time
		b    time.Time
		want int
	}{
		{"same day", date(15), date(15), 0},
		{"one day apart", date(14), date(15), 1},
		{"symmetric", date(15), date(14), 1},
		{"time of day ignored", date(15).Add(23 * time.Hour), date(16), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, dayDistance(tt.a, tt.b))
		})
	}
}
