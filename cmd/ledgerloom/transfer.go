package main

import (
	"fmt"

	"github.com/ledgerloom/ledgerloom/internal/transfer"
	"github.com/spf13/cobra"
)

func transferCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Manage linked transfer pairs",
	}
	cmd.AddCommand(transferLinkCmd())
	cmd.AddCommand(transferRetargetCmd())
	cmd.AddCommand(transferUnlinkCmd())
	cmd.AddCommand(transferDeleteCmd())
	return cmd
}

func transferLinkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "link <entry-id> <dest-account-id>",
		Short: "Set a destination account, creating the counter-leg",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			manager := transfer.NewManager(store)
			counter, err := manager.Link(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}

			fmt.Printf("Linked: counter-leg %s on account %s amount %s\n",
				counter.ID, counter.AccountID, counter.Amount.StringFixed(2))
			return nil
		},
	}
}

func transferRetargetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "retarget <entry-id> <new-account-id>",
		Short: "Move the counter-leg to a different account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			manager := transfer.NewManager(store)
			counter, err := manager.Retarget(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}

			fmt.Printf("Retargeted: counter-leg %s now on account %s\n",
				counter.ID, counter.AccountID)
			return nil
		},
	}
}

func transferUnlinkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unlink <entry-id>",
		Short: "Clear the destination account, deleting the counter-leg",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			manager := transfer.NewManager(store)
			if err := manager.Unlink(cmd.Context(), args[0]); err != nil {
				return err
			}

			fmt.Println("Unlinked")
			return nil
		},
	}
}

func transferDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <entry-id>",
		Short: "Delete a transfer (both legs if linked)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			manager := transfer.NewManager(store)
			if err := manager.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}

			fmt.Println("Deleted")
			return nil
		},
	}
}
