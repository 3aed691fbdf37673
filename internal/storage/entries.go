package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ledgerloom/ledgerloom/internal/common"
	"github.com/ledgerloom/ledgerloom/internal/model"
	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

const entryColumns = `id, owner, account_id, category_id, payee_id, amount_cents,
	description, date, value_date, purchase_date, accounting_date, entry_type,
	status, is_reconciled, reconciled_at, linked_entry_id, import_id,
	import_hash, check_number`

// centsFromAmount converts a two-decimal amount to integer cents for
// storage. Integer cents make absolute-amount equality an exact comparison.
func centsFromAmount(amount decimal.Decimal) int64 {
	return amount.Round(2).Shift(2).IntPart()
}

// amountFromCents is the inverse of centsFromAmount.
func amountFromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// mapConstraintErr translates SQLite unique-constraint failures into the
// application's duplicate sentinel so callers can treat a concurrent
// duplicate insert as an ordinary per-record error.
func mapConstraintErr(err error) error {
	if err == nil {
		return nil
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return fmt.Errorf("%w: %v", common.ErrDuplicateEntry, err)
	}
	return err
}

// CreateEntry inserts a new ledger entry.
func (s *SQLiteStorage) CreateEntry(ctx context.Context, entry *model.LedgerEntry) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateEntry(entry); err != nil {
		return err
	}
	return s.createEntryTx(ctx, s.db, entry)
}

func (s *SQLiteStorage) createEntryTx(ctx context.Context, q queryable, entry *model.LedgerEntry) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO ledger_entries (
			id, owner, account_id, category_id, payee_id, amount_cents,
			description, date, value_date, purchase_date, accounting_date,
			entry_type, status, is_reconciled, reconciled_at, linked_entry_id,
			import_id, import_hash, check_number
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		entry.ID,
		entry.Owner,
		entry.AccountID,
		nullString(entry.CategoryID),
		nullString(entry.PayeeID),
		centsFromAmount(entry.Amount),
		entry.Description,
		entry.Date,
		nullTime(entry.ValueDate),
		nullTime(entry.PurchaseDate),
		nullTime(entry.AccountingDate),
		string(entry.Type),
		string(entry.Status),
		entry.IsReconciled,
		nullTime(entry.ReconciledAt),
		nullString(entry.LinkedEntryID),
		nullString(entry.ImportID),
		nullString(entry.ImportHash),
		nullString(entry.CheckNumber),
	)
	if err != nil {
		return fmt.Errorf("failed to insert entry %s: %w", entry.ID, mapConstraintErr(err))
	}
	return nil
}

// GetEntry retrieves a single ledger entry by ID.
func (s *SQLiteStorage) GetEntry(ctx context.Context, id string) (*model.LedgerEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return s.getEntryTx(ctx, s.db, id)
}

func (s *SQLiteStorage) getEntryTx(ctx context.Context, q queryable, id string) (*model.LedgerEntry, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM ledger_entries WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}
	return entry, nil
}

// UpdateEntry rewrites the mutable fields of an existing entry. The import
// hash is deliberately not part of the update set; provenance is immutable
// once written (see SetProvenance).
func (s *SQLiteStorage) UpdateEntry(ctx context.Context, entry *model.LedgerEntry) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateEntry(entry); err != nil {
		return err
	}
	return s.updateEntryTx(ctx, s.db, entry)
}

func (s *SQLiteStorage) updateEntryTx(ctx context.Context, q queryable, entry *model.LedgerEntry) error {
	res, err := q.ExecContext(ctx, `
		UPDATE ledger_entries SET
			account_id = ?, category_id = ?, payee_id = ?, amount_cents = ?,
			description = ?, date = ?, value_date = ?, purchase_date = ?,
			accounting_date = ?, entry_type = ?, status = ?, is_reconciled = ?,
			reconciled_at = ?, linked_entry_id = ?, check_number = ?
		WHERE id = ?
	`,
		entry.AccountID,
		nullString(entry.CategoryID),
		nullString(entry.PayeeID),
		centsFromAmount(entry.Amount),
		entry.Description,
		entry.Date,
		nullTime(entry.ValueDate),
		nullTime(entry.PurchaseDate),
		nullTime(entry.AccountingDate),
		string(entry.Type),
		string(entry.Status),
		entry.IsReconciled,
		nullTime(entry.ReconciledAt),
		nullString(entry.LinkedEntryID),
		nullString(entry.CheckNumber),
		entry.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update entry %s: %w", entry.ID, mapConstraintErr(err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

// DeleteEntry removes a single ledger entry by ID.
func (s *SQLiteStorage) DeleteEntry(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	return s.deleteEntryTx(ctx, s.db, id)
}

func (s *SQLiteStorage) deleteEntryTx(ctx context.Context, q queryable, id string) error {
	res, err := q.ExecContext(ctx, `DELETE FROM ledger_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete entry %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

// ListEntriesByAccount returns all entries on an account ordered by date.
func (s *SQLiteStorage) ListEntriesByAccount(ctx context.Context, accountID string) ([]model.LedgerEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(accountID, "accountID"); err != nil {
		return nil, err
	}
	return s.listEntriesByAccountTx(ctx, s.db, accountID)
}

func (s *SQLiteStorage) listEntriesByAccountTx(ctx context.Context, q queryable, accountID string) ([]model.LedgerEntry, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM ledger_entries WHERE account_id = ? ORDER BY date ASC, id ASC`,
		accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanEntries(rows)
}

// HashExists reports whether an import hash is already present on the
// account. Reconciled and void rows count too: duplicate suppression must
// not be defeated by reconciliation state.
func (s *SQLiteStorage) HashExists(ctx context.Context, accountID, hash string) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	return s.hashExistsTx(ctx, s.db, accountID, hash)
}

func (s *SQLiteStorage) hashExistsTx(ctx context.Context, q queryable, accountID, hash string) (bool, error) {
	if err := validateString(accountID, "accountID"); err != nil {
		return false, err
	}
	if err := validateString(hash, "hash"); err != nil {
		return false, err
	}

	var exists bool
	err := q.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM ledger_entries
			WHERE account_id = ? AND import_hash = ?
		)
	`, accountID, hash).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check import hash: %w", err)
	}
	return exists, nil
}

// GetEntryByHash returns the entry carrying an import hash on the account,
// for display alongside a duplicate verdict.
func (s *SQLiteStorage) GetEntryByHash(ctx context.Context, accountID, hash string) (*model.LedgerEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getEntryByHashTx(ctx, s.db, accountID, hash)
}

func (s *SQLiteStorage) getEntryByHashTx(ctx context.Context, q queryable, accountID, hash string) (*model.LedgerEntry, error) {
	if err := validateString(accountID, "accountID"); err != nil {
		return nil, err
	}
	if err := validateString(hash, "hash"); err != nil {
		return nil, err
	}

	row := q.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM ledger_entries WHERE account_id = ? AND import_hash = ?`,
		accountID, hash)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry by hash: %w", err)
	}
	return entry, nil
}

// FindMatchable returns candidate entries for matching an imported record:
// same account, not void, not reconciled, identical absolute amount.
// Ordering by id keeps results deterministic; ranking by date distance is
// the matcher's job.
func (s *SQLiteStorage) FindMatchable(ctx context.Context, accountID string, absAmount decimal.Decimal) ([]model.LedgerEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.findMatchableTx(ctx, s.db, accountID, absAmount)
}

func (s *SQLiteStorage) findMatchableTx(ctx context.Context, q queryable, accountID string, absAmount decimal.Decimal) ([]model.LedgerEntry, error) {
	if err := validateString(accountID, "accountID"); err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, `
		SELECT `+entryColumns+` FROM ledger_entries
		WHERE account_id = ?
		  AND status != ?
		  AND is_reconciled = 0
		  AND ABS(amount_cents) = ?
		ORDER BY id ASC
	`, accountID, string(model.StatusVoid), centsFromAmount(absAmount.Abs()))
	if err != nil {
		return nil, fmt.Errorf("failed to query matchable entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanEntries(rows)
}

// SetProvenance records which import batch a manual entry was merged with.
// The hash column is immutable: writing over existing provenance fails.
func (s *SQLiteStorage) SetProvenance(ctx context.Context, id, importID, importHash string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.setProvenanceTx(ctx, s.db, id, importID, importHash)
}

func (s *SQLiteStorage) setProvenanceTx(ctx context.Context, q queryable, id, importID, importHash string) error {
	if err := validateString(id, "id"); err != nil {
		return err
	}
	if err := validateString(importHash, "importHash"); err != nil {
		return err
	}

	res, err := q.ExecContext(ctx, `
		UPDATE ledger_entries
		SET import_id = ?, import_hash = ?
		WHERE id = ? AND import_hash IS NULL
	`, nullString(importID), importHash, id)
	if err != nil {
		return fmt.Errorf("failed to set provenance on %s: %w", id, mapConstraintErr(err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check provenance result: %w", err)
	}
	if affected == 0 {
		// Either the entry is gone or it already carries provenance.
		if _, getErr := s.getEntryTx(ctx, q, id); getErr != nil {
			return getErr
		}
		return fmt.Errorf("%w: entry %s already has import provenance", common.ErrDuplicateEntry, id)
	}
	return nil
}

// SetReconciliation applies or clears the reconciled flag with its status
// and timestamp coupling. Amounts, dates and descriptions are untouched.
func (s *SQLiteStorage) SetReconciliation(ctx context.Context, id string, on bool, at *time.Time) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.setReconciliationTx(ctx, s.db, id, on, at)
}

func (s *SQLiteStorage) setReconciliationTx(ctx context.Context, q queryable, id string, on bool, at *time.Time) error {
	if err := validateString(id, "id"); err != nil {
		return err
	}

	status := model.StatusCleared
	if on {
		status = model.StatusReconciled
		if at == nil {
			return fmt.Errorf("%w: reconciledAt", ErrNilParameter)
		}
	} else {
		at = nil
	}

	res, err := q.ExecContext(ctx, `
		UPDATE ledger_entries
		SET is_reconciled = ?, status = ?, reconciled_at = ?
		WHERE id = ?
	`, on, string(status), nullTime(at), id)
	if err != nil {
		return fmt.Errorf("failed to set reconciliation on %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check reconciliation result: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*model.LedgerEntry, error) {
	var entry model.LedgerEntry
	var cents int64
	var categoryID, payeeID, linkedID, importID, importHash, checkNumber sql.NullString
	var valueDate, purchaseDate, accountingDate, reconciledAt sql.NullTime
	var entryType, status string

	err := row.Scan(
		&entry.ID,
		&entry.Owner,
		&entry.AccountID,
		&categoryID,
		&payeeID,
		&cents,
		&entry.Description,
		&entry.Date,
		&valueDate,
		&purchaseDate,
		&accountingDate,
		&entryType,
		&status,
		&entry.IsReconciled,
		&reconciledAt,
		&linkedID,
		&importID,
		&importHash,
		&checkNumber,
	)
	if err != nil {
		return nil, err
	}

	entry.Amount = amountFromCents(cents)
	entry.Type = model.EntryType(entryType)
	entry.Status = model.EntryStatus(status)
	entry.CategoryID = categoryID.String
	entry.PayeeID = payeeID.String
	entry.LinkedEntryID = linkedID.String
	entry.ImportID = importID.String
	entry.ImportHash = importHash.String
	entry.CheckNumber = checkNumber.String
	if valueDate.Valid {
		vd := valueDate.Time
		entry.ValueDate = &vd
	}
	if purchaseDate.Valid {
		pd := purchaseDate.Time
		entry.PurchaseDate = &pd
	}
	if accountingDate.Valid {
		ad := accountingDate.Time
		entry.AccountingDate = &ad
	}
	if reconciledAt.Valid {
		ra := reconciledAt.Time
		entry.ReconciledAt = &ra
	}

	return &entry, nil
}

func scanEntries(rows *sql.Rows) ([]model.LedgerEntry, error) {
	var entries []model.LedgerEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// queryable is an interface satisfied by both *sql.DB and *sql.Tx.
type queryable interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}
