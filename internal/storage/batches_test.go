package storage

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/ledgerloom/ledgerloom/internal/common"
	"github.com/ledgerloom/ledgerloom/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchLifecycle(t *testing.T) {
	store, account := newTestStorage(t)
	ctx := context.Background()

	batch := &model.ImportBatch{
		ID:           uuid.NewString(),
		Owner:        "u1",
		AccountID:    account.ID,
		Status:       model.BatchAnalyzing,
		TotalCount:   5,
		SourceConfig: "csv date=0 desc=1 amount=2",
	}
	require.NoError(t, store.CreateBatch(ctx, batch))

	got, err := store.GetBatch(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BatchAnalyzing, got.Status)
	assert.Equal(t, 5, got.TotalCount)
	assert.Empty(t, got.Log)
	assert.Nil(t, got.CompletedAt)

	require.NoError(t, store.AppendBatchLog(ctx, batch.ID, "record 2: invalid amount"))
	require.NoError(t, store.AppendBatchLog(ctx, batch.ID, "record 4: duplicate hash"))

	got, err = store.GetBatch(ctx, batch.ID)
	require.NoError(t, err)
	require.Len(t, got.Log, 2)
	assert.Equal(t, "record 2: invalid amount", got.Log[0])
	assert.Equal(t, "record 4: duplicate hash", got.Log[1])

	batch.ImportedCount = 2
	batch.DuplicateCount = 1
	batch.SkippedCount = 0
	batch.ErrorCount = 2
	require.NoError(t, store.FinalizeBatch(ctx, batch))

	got, err = store.GetBatch(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BatchCompleted, got.Status)
	assert.Equal(t, 2, got.ImportedCount)
	assert.Equal(t, 2, got.ErrorCount)
	require.NotNil(t, got.CompletedAt)
}

func TestGetBatch_NotFound(t *testing.T) {
	store, _ := newTestStorage(t)

	_, err := store.GetBatch(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestAppendBatchLog_MissingBatch(t *testing.T) {
	store, _ := newTestStorage(t)

	err := store.AppendBatchLog(context.Background(), "missing", "line")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
