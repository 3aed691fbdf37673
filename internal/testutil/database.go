// Package testutil provides test utilities shared by the storage and
// engine test suites.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerloom/ledgerloom/internal/model"
	"github.com/ledgerloom/ledgerloom/internal/service"
	"github.com/ledgerloom/ledgerloom/internal/storage"
	"github.com/shopspring/decimal"
)

// TestDB wraps an in-memory store with seeding helpers.
type TestDB struct {
	Storage service.Storage
	Account model.Account
	t       *testing.T
}

// SetupTestDB creates a migrated in-memory SQLite store with one seeded
// account. Cleanup is registered automatically.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	account := model.Account{
		ID:    uuid.NewString(),
		Owner: "test-user",
		Name:  "Checking",
	}
	if err := store.CreateAccount(ctx, &account); err != nil {
		t.Fatalf("failed to seed account: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{
		Storage: store,
		Account: account,
		t:       t,
	}
}

// AddAccount seeds an additional account and returns it.
func (db *TestDB) AddAccount(name string) model.Account {
	db.t.Helper()
	account := model.Account{
		ID:    uuid.NewString(),
		Owner: "test-user",
		Name:  name,
	}
	if err := db.Storage.CreateAccount(context.Background(), &account); err != nil {
		db.t.Fatalf("failed to seed account %q: %v", name, err)
	}
	return account
}

// SeedEntry inserts a ledger entry with sensible defaults, applying any
// customization first.
func (db *TestDB) SeedEntry(customize func(*model.LedgerEntry)) *model.LedgerEntry {
	db.t.Helper()
	entry := &model.LedgerEntry{
		ID:          uuid.NewString(),
		Owner:       "test-user",
		AccountID:   db.Account.ID,
		Amount:      decimal.RequireFromString("-50.00"),
		Description: "Seed entry",
		Date:        time.Date(2026, 1, 14, 0, 0, 0, 0, time.UTC),
		Type:        model.TypeExpense,
		Status:      model.StatusCleared,
	}
	if customize != nil {
		customize(entry)
	}
	if err := db.Storage.CreateEntry(context.Background(), entry); err != nil {
		db.t.Fatalf("failed to seed entry: %v", err)
	}
	return entry
}

// Record builds a raw import record with its hash populated.
func Record(date time.Time, amount, description string) model.RawRecord {
	rec := model.RawRecord{
		Date:        date,
		Amount:      decimal.RequireFromString(amount),
		Description: description,
	}
	rec.Hash = rec.GenerateHash()
	return rec
}
