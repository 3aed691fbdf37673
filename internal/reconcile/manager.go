// Package reconcile manages the reconciled flag on ledger entries.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ledgerloom/ledgerloom/internal/model"
	"github.com/ledgerloom/ledgerloom/internal/service"
)

// Manager toggles and batch-applies reconciliation state. It never mutates
// amounts, descriptions or dates, and never touches the opposite leg of a
// transfer: each leg reconciles independently against its own account's
// statement.
type Manager struct {
	store service.Storage
	now   func() time.Time
}

// NewManager creates a reconciliation manager backed by the given store.
func NewManager(store service.Storage) *Manager {
	return &Manager{
		store: store,
		now:   time.Now,
	}
}

// ErrVoidEntry rejects reconciliation of void entries: a void row records
// a movement that never settled, so it cannot be matched to a statement,
// and flipping it would silently destroy its void status.
var ErrVoidEntry = errors.New("entry is void")

// Toggle flips the reconciled flag on one entry. Turning it on sets
// status=reconciled and stamps the current time; turning it off reverts
// status to cleared and clears the timestamp. Toggle is its own inverse.
func (m *Manager) Toggle(ctx context.Context, entryID string) (*model.LedgerEntry, error) {
	entry, err := m.store.GetEntry(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to load entry: %w", err)
	}
	if entry.Status == model.StatusVoid {
		return nil, fmt.Errorf("entry %s: %w", entryID, ErrVoidEntry)
	}

	on := !entry.IsReconciled
	var at *time.Time
	if on {
		t := m.now().UTC()
		at = &t
	}

	if err := m.store.SetReconciliation(ctx, entryID, on, at); err != nil {
		return nil, fmt.Errorf("failed to toggle reconciliation: %w", err)
	}

	entry.IsReconciled = on
	entry.ReconciledAt = at
	if on {
		entry.Status = model.StatusReconciled
	} else {
		entry.Status = model.StatusCleared
	}

	slog.Debug("Toggled reconciliation", "entry_id", entryID, "reconciled", on)
	return entry, nil
}

// BatchReconcile applies the "on" transition to a list of entries inside
// one transaction, stamping the caller-supplied statement date rather than
// the operation time. Returns the number of entries reconciled.
func (m *Manager) BatchReconcile(ctx context.Context, entryIDs []string, reconcileDate time.Time) (int, error) {
	if len(entryIDs) == 0 {
		return 0, nil
	}

	tx, err := m.store.BeginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	at := reconcileDate.UTC()
	count := 0
	for _, id := range entryIDs {
		entry, err := tx.GetEntry(ctx, id)
		if err != nil {
			return 0, fmt.Errorf("failed to load entry %s: %w", id, err)
		}
		if entry.Status == model.StatusVoid {
			return 0, fmt.Errorf("entry %s: %w", id, ErrVoidEntry)
		}
		if err := tx.SetReconciliation(ctx, id, true, &at); err != nil {
			return 0, fmt.Errorf("failed to reconcile entry %s: %w", id, err)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit reconciliation: %w", err)
	}

	slog.Info("Batch reconciled entries", "count", count, "date", at.Format("2006-01-02"))
	return count, nil
}
