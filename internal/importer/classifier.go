package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/ledgerloom/ledgerloom/internal/common"
	"github.com/ledgerloom/ledgerloom/internal/model"
	"github.com/ledgerloom/ledgerloom/internal/service"
)

// Classifier combines duplicate detection and candidate matching into a
// three-way verdict per raw record.
type Classifier struct {
	store    service.Storage
	detector *Detector
	matcher  *Matcher
}

// NewClassifier creates an import classifier backed by the given store.
func NewClassifier(store service.Storage) *Classifier {
	return &Classifier{
		store:    store,
		detector: NewDetector(store),
		matcher:  NewMatcher(store),
	}
}

// Classify produces the verdict for one raw record. Duplicate detection
// runs first and wins outright: a record whose hash is already on the
// account is a duplicate even when a plausible manual-entry match exists.
//
// Each record is classified statelessly against the persisted ledger. Two
// records in the same batch may both propose the same candidate; there is
// deliberately no shared "already claimed" set across the batch, so do not
// introduce one without intending to change behavior.
func (c *Classifier) Classify(ctx context.Context, accountID string, rec model.RawRecord) (model.Classification, error) {
	hash := rec.Hash
	if hash == "" {
		hash = rec.GenerateHash()
	}

	dup, err := c.detector.IsDuplicate(ctx, accountID, hash)
	if err != nil {
		return model.Classification{}, fmt.Errorf("duplicate check failed: %w", err)
	}
	if dup {
		// The hash-owning entry rides along for display only.
		matched, err := c.store.GetEntryByHash(ctx, accountID, hash)
		if err != nil && !errors.Is(err, common.ErrNotFound) {
			return model.Classification{}, fmt.Errorf("failed to load duplicate entry: %w", err)
		}
		return model.Classification{Verdict: model.VerdictDuplicate, Matched: matched}, nil
	}

	best, err := c.matcher.FindBestMatch(ctx, accountID, rec)
	if err != nil {
		return model.Classification{}, err
	}
	if best != nil {
		entry := best.Entry
		return model.Classification{Verdict: model.VerdictMatch, Matched: &entry}, nil
	}

	return model.Classification{Verdict: model.VerdictNew}, nil
}
