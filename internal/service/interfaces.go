// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/ledgerloom/ledgerloom/internal/model"
	"github.com/shopspring/decimal"
)

// Storage defines the contract for our persistence layer. The import and
// transfer engines depend only on this transactional read/write interface;
// dialect details stay behind it.
type Storage interface {
	// Ledger entry operations
	CreateEntry(ctx context.Context, entry *model.LedgerEntry) error
	GetEntry(ctx context.Context, id string) (*model.LedgerEntry, error)
	UpdateEntry(ctx context.Context, entry *model.LedgerEntry) error
	DeleteEntry(ctx context.Context, id string) error
	ListEntriesByAccount(ctx context.Context, accountID string) ([]model.LedgerEntry, error)

	// Import support. HashExists considers every row on the account,
	// reconciled and void included. FindMatchable applies the candidate
	// eligibility filter: same account, not void, not reconciled, equal
	// absolute amount.
	HashExists(ctx context.Context, accountID, hash string) (bool, error)
	GetEntryByHash(ctx context.Context, accountID, hash string) (*model.LedgerEntry, error)
	FindMatchable(ctx context.Context, accountID string, absAmount decimal.Decimal) ([]model.LedgerEntry, error)
	SetProvenance(ctx context.Context, id, importID, importHash string) error

	// Reconciliation
	SetReconciliation(ctx context.Context, id string, on bool, at *time.Time) error

	// Import batch operations
	CreateBatch(ctx context.Context, batch *model.ImportBatch) error
	GetBatch(ctx context.Context, id string) (*model.ImportBatch, error)
	AppendBatchLog(ctx context.Context, id, line string) error
	FinalizeBatch(ctx context.Context, batch *model.ImportBatch) error

	// Account operations
	CreateAccount(ctx context.Context, account *model.Account) error
	GetAccount(ctx context.Context, id string) (*model.Account, error)
	ListAccounts(ctx context.Context) ([]model.Account, error)

	// Database management
	Migrate(ctx context.Context) error
	BeginTx(ctx context.Context) (Tx, error)
	Close() error
}

// Tx represents a database transaction. It exposes the full Storage
// surface so multi-row operations run against one unit of work.
type Tx interface {
	Commit() error
	Rollback() error
	Storage
}
