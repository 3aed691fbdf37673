// Package transfer maintains the two-row invariant for transfer-typed
// ledger entries: one logical transfer stored as two linked rows with
// opposite-signed equal amounts.
package transfer

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/ledgerloom/ledgerloom/internal/common"
	"github.com/ledgerloom/ledgerloom/internal/model"
	"github.com/ledgerloom/ledgerloom/internal/service"
)

// ConsistencyError reports a transfer transition that could not be applied
// atomically. The unit of work it occurred in has been rolled back and the
// ledger is unchanged.
type ConsistencyError struct {
	Op      string
	EntryID string
	Err     error
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("transfer %s on %s: %v", e.Op, e.EntryID, e.Err)
}

func (e *ConsistencyError) Unwrap() error {
	return e.Err
}

// Manager executes transfer state transitions, each inside a single
// database transaction.
type Manager struct {
	store service.Storage
}

// NewManager creates a transfer ledger manager backed by the given store.
func NewManager(store service.Storage) *Manager {
	return &Manager{store: store}
}

// Link sets a destination account on an unlinked transfer, creating the
// counter-leg with the sign flipped and wiring both linkage fields. It
// returns the new counter-leg.
func (m *Manager) Link(ctx context.Context, entryID, destAccountID string) (*model.LedgerEntry, error) {
	var counter *model.LedgerEntry
	err := m.inTx(ctx, "link", entryID, func(tx service.Tx) error {
		entry, err := loadTransfer(ctx, tx, entryID)
		if err != nil {
			return err
		}

		switch state := entry.TransferState().(type) {
		case model.Linked:
			return fmt.Errorf("entry already linked to %s", state.CounterpartID)
		case model.Unlinked:
		}

		if _, err := tx.GetAccount(ctx, destAccountID); err != nil {
			return fmt.Errorf("%w: %s", common.ErrInvalidAccount, destAccountID)
		}
		if destAccountID == entry.AccountID {
			return fmt.Errorf("%w: transfer cannot target its own account", common.ErrInvalidAccount)
		}

		counter = counterLeg(entry, destAccountID)
		if err := tx.CreateEntry(ctx, counter); err != nil {
			return err
		}

		entry.LinkedEntryID = counter.ID
		return tx.UpdateEntry(ctx, entry)
	})
	if err != nil {
		return nil, err
	}
	return counter, nil
}

// Retarget moves the counter-leg of a linked transfer to a new destination
// account. The old counter-leg is deleted and a fresh one created; the
// originating leg keeps its id. Returns the new counter-leg.
func (m *Manager) Retarget(ctx context.Context, entryID, newAccountID string) (*model.LedgerEntry, error) {
	var counter *model.LedgerEntry
	err := m.inTx(ctx, "retarget", entryID, func(tx service.Tx) error {
		entry, err := loadTransfer(ctx, tx, entryID)
		if err != nil {
			return err
		}

		var oldCounterID string
		switch state := entry.TransferState().(type) {
		case model.Unlinked:
			return fmt.Errorf("entry is not linked")
		case model.Linked:
			oldCounterID = state.CounterpartID
		}

		if _, err := tx.GetAccount(ctx, newAccountID); err != nil {
			return fmt.Errorf("%w: %s", common.ErrInvalidAccount, newAccountID)
		}
		if newAccountID == entry.AccountID {
			return fmt.Errorf("%w: transfer cannot target its own account", common.ErrInvalidAccount)
		}

		if err := tx.DeleteEntry(ctx, oldCounterID); err != nil {
			return fmt.Errorf("failed to delete old counter-leg: %w", err)
		}

		counter = counterLeg(entry, newAccountID)
		if err := tx.CreateEntry(ctx, counter); err != nil {
			return err
		}

		entry.LinkedEntryID = counter.ID
		return tx.UpdateEntry(ctx, entry)
	})
	if err != nil {
		return nil, err
	}
	return counter, nil
}

// Unlink clears the destination account of a linked transfer: the
// counter-leg is deleted and the remaining leg reverts to unlinked.
func (m *Manager) Unlink(ctx context.Context, entryID string) error {
	return m.inTx(ctx, "unlink", entryID, func(tx service.Tx) error {
		entry, err := loadTransfer(ctx, tx, entryID)
		if err != nil {
			return err
		}

		var counterID string
		switch state := entry.TransferState().(type) {
		case model.Unlinked:
			return fmt.Errorf("entry is not linked")
		case model.Linked:
			counterID = state.CounterpartID
		}

		if err := tx.DeleteEntry(ctx, counterID); err != nil {
			return fmt.Errorf("failed to delete counter-leg: %w", err)
		}

		entry.LinkedEntryID = ""
		return tx.UpdateEntry(ctx, entry)
	})
}

// PropagateUpdate persists an edited leg and mirrors the shared fields to
// its counterpart: same description and date, amount with the sign
// inverted so both legs keep equal absolute amounts. Reconciliation state
// is never mirrored; each leg reconciles against its own statement.
func (m *Manager) PropagateUpdate(ctx context.Context, updated *model.LedgerEntry) error {
	if updated == nil {
		return fmt.Errorf("entry cannot be nil")
	}
	return m.inTx(ctx, "update", updated.ID, func(tx service.Tx) error {
		if updated.Type != model.TypeTransfer {
			return common.ErrNotTransfer
		}

		if err := tx.UpdateEntry(ctx, updated); err != nil {
			return err
		}

		switch state := updated.TransferState().(type) {
		case model.Unlinked:
			return nil
		case model.Linked:
			counter, err := tx.GetEntry(ctx, state.CounterpartID)
			if err != nil {
				return fmt.Errorf("failed to load counter-leg: %w", err)
			}
			counter.Description = updated.Description
			counter.Date = updated.Date
			counter.Amount = updated.Amount.Neg()
			return tx.UpdateEntry(ctx, counter)
		}
		return nil
	})
}

// Delete removes a transfer entry. For a linked transfer both legs go in
// one atomic operation.
func (m *Manager) Delete(ctx context.Context, entryID string) error {
	return m.inTx(ctx, "delete", entryID, func(tx service.Tx) error {
		entry, err := loadTransfer(ctx, tx, entryID)
		if err != nil {
			return err
		}

		if state, ok := entry.TransferState().(model.Linked); ok {
			if err := tx.DeleteEntry(ctx, state.CounterpartID); err != nil {
				return fmt.Errorf("failed to delete counter-leg: %w", err)
			}
		}
		return tx.DeleteEntry(ctx, entryID)
	})
}

// inTx runs one transfer transition inside a single unit of work. Any
// failure rolls the whole transition back; no orphaned half-transfer can
// remain.
func (m *Manager) inTx(ctx context.Context, op, entryID string, fn func(tx service.Tx) error) error {
	tx, err := m.store.BeginTx(ctx)
	if err != nil {
		return &ConsistencyError{Op: op, EntryID: entryID, Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return &ConsistencyError{Op: op, EntryID: entryID, Err: err}
	}

	if err := tx.Commit(); err != nil {
		return &ConsistencyError{Op: op, EntryID: entryID, Err: err}
	}
	return nil
}

// loadTransfer fetches an entry and checks it is transfer-typed.
func loadTransfer(ctx context.Context, tx service.Tx, entryID string) (*model.LedgerEntry, error) {
	entry, err := tx.GetEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.Type != model.TypeTransfer {
		return nil, common.ErrNotTransfer
	}
	return entry, nil
}

// counterLeg builds the opposite leg of a transfer: same owner,
// description and date, amount negated, status pending on the destination
// account.
func counterLeg(entry *model.LedgerEntry, accountID string) *model.LedgerEntry {
	return &model.LedgerEntry{
		ID:            uuid.NewString(),
		Owner:         entry.Owner,
		AccountID:     accountID,
		Amount:        entry.Amount.Neg(),
		Description:   entry.Description,
		Date:          entry.Date,
		Type:          model.TypeTransfer,
		Status:        model.StatusPending,
		LinkedEntryID: entry.ID,
	}
}
