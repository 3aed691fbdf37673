package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ledgerloom/ledgerloom/internal/common"
	"github.com/ledgerloom/ledgerloom/internal/model"
)

// CreateAccount inserts a new account.
func (s *SQLiteStorage) CreateAccount(ctx context.Context, account *model.Account) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAccount(account); err != nil {
		return err
	}
	return s.createAccountTx(ctx, s.db, account)
}

func (s *SQLiteStorage) createAccountTx(ctx context.Context, q queryable, account *model.Account) error {
	if account.Currency == "" {
		account.Currency = "USD"
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO accounts (id, owner, name, currency, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, account.ID, account.Owner, account.Name, account.Currency, account.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert account %s: %w", account.ID, mapConstraintErr(err))
	}
	return nil
}

// GetAccount retrieves an account by ID.
func (s *SQLiteStorage) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return s.getAccountTx(ctx, s.db, id)
}

func (s *SQLiteStorage) getAccountTx(ctx context.Context, q queryable, id string) (*model.Account, error) {
	var account model.Account
	err := q.QueryRowContext(ctx, `
		SELECT id, owner, name, currency, created_at FROM accounts WHERE id = ?
	`, id).Scan(&account.ID, &account.Owner, &account.Name, &account.Currency, &account.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

// ListAccounts returns all accounts ordered by name.
func (s *SQLiteStorage) ListAccounts(ctx context.Context) ([]model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.listAccountsTx(ctx, s.db)
}

func (s *SQLiteStorage) listAccountsTx(ctx context.Context, q queryable) ([]model.Account, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, owner, name, currency, created_at FROM accounts ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var accounts []model.Account
	for rows.Next() {
		var account model.Account
		if err := rows.Scan(&account.ID, &account.Owner, &account.Name,
			&account.Currency, &account.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}
