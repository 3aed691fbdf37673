// Package model defines the domain types shared across the application.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryType describes what kind of movement a ledger entry records.
type EntryType string

// Entry types.
const (
	TypeIncome   EntryType = "income"
	TypeExpense  EntryType = "expense"
	TypeTransfer EntryType = "transfer"
)

// EntryStatus is the lifecycle state of a ledger entry.
type EntryStatus string

// Entry statuses.
const (
	StatusPending    EntryStatus = "pending"
	StatusCleared    EntryStatus = "cleared"
	StatusReconciled EntryStatus = "reconciled"
	StatusVoid       EntryStatus = "void"
)

// LedgerEntry is one row in the transaction ledger.
//
// Amounts are signed fixed-point values with two decimal places: negative
// for money leaving the account, positive for money entering it.
type LedgerEntry struct {
	ID          string
	Owner       string
	AccountID   string
	CategoryID  string
	PayeeID     string
	Amount      decimal.Decimal
	Description string

	// Date is the primary (posted) date. The optional dates cover banks
	// that report them separately: ValueDate is when funds settle,
	// PurchaseDate when the holder initiated the movement, AccountingDate
	// when it was booked.
	Date           time.Time
	ValueDate      *time.Time
	PurchaseDate   *time.Time
	AccountingDate *time.Time

	Type         EntryType
	Status       EntryStatus
	IsReconciled bool
	ReconciledAt *time.Time

	// LinkedEntryID points at the counterpart leg of a linked transfer.
	// Empty for everything else.
	LinkedEntryID string

	// Import provenance. ImportHash is unique per account and immutable
	// once set.
	ImportID   string
	ImportHash string

	CheckNumber string
}

// TransferState is the two-state union describing an entry's transfer
// linkage. Switching on the concrete type makes the transfer transitions
// exhaustive instead of scattering nil checks through the business logic.
type TransferState interface {
	isTransferState()
}

// Unlinked marks a transfer whose counter-account is external or unknown.
type Unlinked struct{}

// Linked marks one leg of a two-row transfer.
type Linked struct {
	CounterpartID string
}

func (Unlinked) isTransferState() {}
func (Linked) isTransferState()   {}

// TransferState returns the linkage state of a transfer-typed entry.
// Callers must only invoke this on entries with Type == TypeTransfer.
func (e *LedgerEntry) TransferState() TransferState {
	if e.LinkedEntryID == "" {
		return Unlinked{}
	}
	return Linked{CounterpartID: e.LinkedEntryID}
}

// TypeForAmount derives the entry type from the sign of an imported amount.
func TypeForAmount(amount decimal.Decimal) EntryType {
	if amount.IsNegative() {
		return TypeExpense
	}
	return TypeIncome
}
