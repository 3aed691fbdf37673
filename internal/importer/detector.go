// Package importer implements the bank statement import engine: duplicate
// detection, match proposal, classification and reviewed commit.
package importer

import (
	"context"

	"github.com/ledgerloom/ledgerloom/internal/service"
)

// Detector checks raw records against previously imported hashes.
type Detector struct {
	store service.Storage
}

// NewDetector creates a duplicate detector backed by the given store.
func NewDetector(store service.Storage) *Detector {
	return &Detector{store: store}
}

// IsDuplicate reports whether the hash already exists as an import hash on
// the account. It runs before candidate matching and overrides it, and it
// considers reconciled rows: reconciling an entry must not reopen the door
// for its bank movement to be imported again.
func (d *Detector) IsDuplicate(ctx context.Context, accountID, rawHash string) (bool, error) {
	return d.store.HashExists(ctx, accountID, rawHash)
}
