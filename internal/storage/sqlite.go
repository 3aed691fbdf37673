package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ledgerloom/ledgerloom/internal/model"
	"github.com/ledgerloom/ledgerloom/internal/service"
	"github.com/shopspring/decimal"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStorage implements the Storage interface using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	// Ensure directory exists
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStorage{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new database transaction.
func (s *SQLiteStorage) BeginTx(ctx context.Context) (service.Tx, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	return &sqliteTx{
		tx:      tx,
		storage: s,
	}, nil
}

// sqliteTx wraps sql.Tx to implement service.Tx.
type sqliteTx struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

// Storage methods delegate to the shared helpers with the transaction.

func (t *sqliteTx) CreateEntry(ctx context.Context, entry *model.LedgerEntry) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateEntry(entry); err != nil {
		return err
	}
	return t.storage.createEntryTx(ctx, t.tx, entry)
}

func (t *sqliteTx) GetEntry(ctx context.Context, id string) (*model.LedgerEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return t.storage.getEntryTx(ctx, t.tx, id)
}

func (t *sqliteTx) UpdateEntry(ctx context.Context, entry *model.LedgerEntry) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateEntry(entry); err != nil {
		return err
	}
	return t.storage.updateEntryTx(ctx, t.tx, entry)
}

func (t *sqliteTx) DeleteEntry(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	return t.storage.deleteEntryTx(ctx, t.tx, id)
}

func (t *sqliteTx) ListEntriesByAccount(ctx context.Context, accountID string) ([]model.LedgerEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(accountID, "accountID"); err != nil {
		return nil, err
	}
	return t.storage.listEntriesByAccountTx(ctx, t.tx, accountID)
}

func (t *sqliteTx) HashExists(ctx context.Context, accountID, hash string) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	return t.storage.hashExistsTx(ctx, t.tx, accountID, hash)
}

func (t *sqliteTx) GetEntryByHash(ctx context.Context, accountID, hash string) (*model.LedgerEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.storage.getEntryByHashTx(ctx, t.tx, accountID, hash)
}

func (t *sqliteTx) FindMatchable(ctx context.Context, accountID string, absAmount decimal.Decimal) ([]model.LedgerEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.storage.findMatchableTx(ctx, t.tx, accountID, absAmount)
}

func (t *sqliteTx) SetProvenance(ctx context.Context, id, importID, importHash string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return t.storage.setProvenanceTx(ctx, t.tx, id, importID, importHash)
}

func (t *sqliteTx) SetReconciliation(ctx context.Context, id string, on bool, at *time.Time) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return t.storage.setReconciliationTx(ctx, t.tx, id, on, at)
}

func (t *sqliteTx) CreateBatch(ctx context.Context, batch *model.ImportBatch) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateBatch(batch); err != nil {
		return err
	}
	return t.storage.createBatchTx(ctx, t.tx, batch)
}

func (t *sqliteTx) GetBatch(ctx context.Context, id string) (*model.ImportBatch, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return t.storage.getBatchTx(ctx, t.tx, id)
}

func (t *sqliteTx) AppendBatchLog(ctx context.Context, id, line string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return t.storage.appendBatchLogTx(ctx, t.tx, id, line)
}

func (t *sqliteTx) FinalizeBatch(ctx context.Context, batch *model.ImportBatch) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateBatch(batch); err != nil {
		return err
	}
	return t.storage.finalizeBatchTx(ctx, t.tx, batch)
}

func (t *sqliteTx) CreateAccount(ctx context.Context, account *model.Account) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAccount(account); err != nil {
		return err
	}
	return t.storage.createAccountTx(ctx, t.tx, account)
}

func (t *sqliteTx) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return t.storage.getAccountTx(ctx, t.tx, id)
}

func (t *sqliteTx) ListAccounts(ctx context.Context) ([]model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.storage.listAccountsTx(ctx, t.tx)
}

func (t *sqliteTx) Migrate(_ context.Context) error {
	// Migrations should not be run within a transaction
	return fmt.Errorf("migrations cannot be run within a transaction")
}

func (t *sqliteTx) BeginTx(_ context.Context) (service.Tx, error) {
	// Nested transactions not supported
	return nil, fmt.Errorf("nested transactions not supported")
}

func (t *sqliteTx) Close() error {
	// Transactions should be committed or rolled back, not closed
	return fmt.Errorf("transactions must be committed or rolled back, not closed")
}
