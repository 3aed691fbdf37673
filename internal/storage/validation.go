// Package storage provides the data persistence layer for the ledgerloom application.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledgerloom/ledgerloom/internal/model"
)

// Validation errors.
var (
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = errors.New("string parameter cannot be empty")
	ErrNilParameter = errors.New("parameter cannot be nil")
	ErrInvalidEntry = errors.New("invalid ledger entry")
	ErrInvalidBatch = errors.New("invalid import batch")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateEntry validates a single ledger entry.
func validateEntry(entry *model.LedgerEntry) error {
	if entry == nil {
		return fmt.Errorf("%w: entry", ErrNilParameter)
	}
	if entry.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidEntry)
	}
	if entry.AccountID == "" {
		return fmt.Errorf("%w: missing account ID", ErrInvalidEntry)
	}
	if entry.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidEntry)
	}
	switch entry.Type {
	case model.TypeIncome, model.TypeExpense, model.TypeTransfer:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidEntry, entry.Type)
	}
	switch entry.Status {
	case model.StatusPending, model.StatusCleared, model.StatusReconciled, model.StatusVoid:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidEntry, entry.Status)
	}
	if entry.IsReconciled && entry.ReconciledAt == nil {
		return fmt.Errorf("%w: reconciled without timestamp", ErrInvalidEntry)
	}
	return nil
}

// validateBatch validates an import batch.
func validateBatch(batch *model.ImportBatch) error {
	if batch == nil {
		return fmt.Errorf("%w: batch", ErrNilParameter)
	}
	if batch.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidBatch)
	}
	if batch.AccountID == "" {
		return fmt.Errorf("%w: missing account ID", ErrInvalidBatch)
	}
	return nil
}

// validateAccount validates an account.
func validateAccount(account *model.Account) error {
	if account == nil {
		return fmt.Errorf("%w: account", ErrNilParameter)
	}
	if account.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidEntry)
	}
	if account.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidEntry)
	}
	return nil
}
