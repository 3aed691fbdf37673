package importer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/ledgerloom/ledgerloom/internal/model"
	"github.com/ledgerloom/ledgerloom/internal/service"
)

// Analyzer runs classification over one normalized file and opens the
// import batch that the commit step will later finalize.
type Analyzer struct {
	store      service.Storage
	classifier *Classifier
}

// NewAnalyzer creates an analyzer backed by the given store.
func NewAnalyzer(store service.Storage) *Analyzer {
	return &Analyzer{
		store:      store,
		classifier: NewClassifier(store),
	}
}

// Analyze classifies every record and returns the review rows for the
// mandatory review round trip. The batch is persisted in its analyzing
// state; nothing is written to the ledger yet.
func (a *Analyzer) Analyze(ctx context.Context, owner, accountID, sourceConfig string, records []model.RawRecord) (*model.ImportBatch, []model.ReviewRecord, error) {
	if _, err := a.store.GetAccount(ctx, accountID); err != nil {
		return nil, nil, fmt.Errorf("failed to load target account: %w", err)
	}

	batch := &model.ImportBatch{
		ID:           uuid.NewString(),
		Owner:        owner,
		AccountID:    accountID,
		Status:       model.BatchAnalyzing,
		TotalCount:   len(records),
		SourceConfig: sourceConfig,
	}
	if err := a.store.CreateBatch(ctx, batch); err != nil {
		return nil, nil, fmt.Errorf("failed to create import batch: %w", err)
	}

	reviews := make([]model.ReviewRecord, 0, len(records))
	counts := map[model.Verdict]int{}
	for i := range records {
		rec := records[i]
		if rec.Hash == "" {
			rec.Hash = rec.GenerateHash()
		}

		result, err := a.classifier.Classify(ctx, accountID, rec)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to classify record %d: %w", i, err)
		}

		counts[result.Verdict]++
		reviews = append(reviews, model.ReviewRecord{
			Record:  rec,
			Verdict: result.Verdict,
			Matched: result.Matched,
		})
	}

	slog.Info("Analyzed import file",
		"batch_id", batch.ID,
		"account_id", accountID,
		"total", len(records),
		"new", counts[model.VerdictNew],
		"duplicate", counts[model.VerdictDuplicate],
		"match", counts[model.VerdictMatch])

	return batch, reviews, nil
}
