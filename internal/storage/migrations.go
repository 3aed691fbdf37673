package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
const ExpectedSchemaVersion = 4

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS accounts (
					id TEXT PRIMARY KEY,
					owner TEXT NOT NULL,
					name TEXT NOT NULL,
					currency TEXT NOT NULL DEFAULT 'USD',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS ledger_entries (
					id TEXT PRIMARY KEY,
					owner TEXT NOT NULL,
					account_id TEXT NOT NULL REFERENCES accounts(id),
					category_id TEXT,
					payee_id TEXT,
					amount_cents INTEGER NOT NULL,
					description TEXT NOT NULL,
					date DATETIME NOT NULL,
					entry_type TEXT NOT NULL,
					status TEXT NOT NULL DEFAULT 'pending',
					is_reconciled BOOLEAN NOT NULL DEFAULT 0,
					reconciled_at DATETIME,
					linked_entry_id TEXT,
					import_id TEXT,
					import_hash TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_entries_account_date ON ledger_entries(account_id, date)`,
				`CREATE INDEX idx_entries_account_amount ON ledger_entries(account_id, amount_cents)`,
				// Duplicate suppression rests on this index: a concurrent
				// insert of the same bank movement fails instead of
				// succeeding twice.
				`CREATE UNIQUE INDEX idx_entries_account_import_hash
					ON ledger_entries(account_id, import_hash)
					WHERE import_hash IS NOT NULL`,

				`CREATE TABLE IF NOT EXISTS import_batches (
					id TEXT PRIMARY KEY,
					owner TEXT NOT NULL,
					account_id TEXT NOT NULL REFERENCES accounts(id),
					status TEXT NOT NULL,
					total_count INTEGER NOT NULL DEFAULT 0,
					imported_count INTEGER NOT NULL DEFAULT 0,
					duplicate_count INTEGER NOT NULL DEFAULT 0,
					skipped_count INTEGER NOT NULL DEFAULT 0,
					error_count INTEGER NOT NULL DEFAULT 0,
					source_config TEXT NOT NULL DEFAULT '',
					log TEXT NOT NULL DEFAULT '',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					completed_at DATETIME
				)`,
				`CREATE INDEX idx_batches_account ON import_batches(account_id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Add value date and check number to ledger entries",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`ALTER TABLE ledger_entries ADD COLUMN value_date DATETIME`,
				`ALTER TABLE ledger_entries ADD COLUMN check_number TEXT`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query '%s': %w", query, err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Index transfer linkage for counterpart lookups",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_entries_linked
				ON ledger_entries(linked_entry_id)
				WHERE linked_entry_id IS NOT NULL`)
			return err
		},
	},
	{
		Version:     4,
		Description: "Add purchase and accounting dates to ledger entries",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`ALTER TABLE ledger_entries ADD COLUMN purchase_date DATETIME`,
				`ALTER TABLE ledger_entries ADD COLUMN accounting_date DATETIME`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query '%s': %w", query, err)
				}
			}
			return nil
		},
	},
}

// Migrate applies any pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion); err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	if currentVersion > ExpectedSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than expected %d",
			currentVersion, ExpectedSchemaVersion)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		slog.Info("Applying migration",
			"version", migration.Version,
			"description", migration.Description)

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration transaction: %w", err)
		}

		if err := migration.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}

		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to set schema version %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}
