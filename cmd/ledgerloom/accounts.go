package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/ledgerloom/ledgerloom/internal/model"
	"github.com/spf13/cobra"
)

func accountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage ledger accounts",
	}
	cmd.AddCommand(accountsAddCmd())
	cmd.AddCommand(accountsListCmd())
	return cmd
}

func accountsAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			currency, _ := cmd.Flags().GetString("currency")

			store, err := openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}

			who, err := owner()
			if err != nil {
				return err
			}

			account := model.Account{
				ID:       uuid.NewString(),
				Owner:    who,
				Name:     args[0],
				Currency: currency,
			}
			if err := store.CreateAccount(cmd.Context(), &account); err != nil {
				return err
			}

			fmt.Printf("Created account %s (%s)\n", account.Name, account.ID)
			return nil
		},
	}
	cmd.Flags().String("currency", "USD", "account currency code")
	return cmd
}

func accountsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			accounts, err := store.ListAccounts(cmd.Context())
			if err != nil {
				return err
			}

			for _, account := range accounts {
				fmt.Printf("%s  %s  %s\n", account.ID, account.Currency, account.Name)
			}
			return nil
		},
	}
}
