package main

import (
	"fmt"
	"time"

	"github.com/ledgerloom/ledgerloom/internal/reconcile"
	"github.com/spf13/cobra"
)

func reconcileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Manage reconciliation state",
	}
	cmd.AddCommand(reconcileToggleCmd())
	cmd.AddCommand(reconcileBatchCmd())
	return cmd
}

func reconcileToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <entry-id>",
		Short: "Flip the reconciled flag on one entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			manager := reconcile.NewManager(store)
			entry, err := manager.Toggle(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Printf("Entry %s: reconciled=%t status=%s\n",
				entry.ID, entry.IsReconciled, entry.Status)
			return nil
		},
	}
}

func reconcileBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <entry-id>...",
		Short: "Reconcile entries against a bank statement date",
		Long: `Batch marks the listed entries reconciled and stamps them with the
statement date supplied via --date, not the current time.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dateStr, _ := cmd.Flags().GetString("date")
			date, err := time.Parse("2006-01-02", dateStr)
			if err != nil {
				return fmt.Errorf("bad --date %q: %w", dateStr, err)
			}

			store, err := openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			manager := reconcile.NewManager(store)
			count, err := manager.BatchReconcile(cmd.Context(), args, date)
			if err != nil {
				return err
			}

			fmt.Printf("Reconciled %d entries as of %s\n", count, dateStr)
			return nil
		},
	}
	cmd.Flags().String("date", "", "statement date (2006-01-02, required)")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}
