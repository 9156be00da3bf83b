package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func accountCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Administer token accounts in the local ledger",
	}
	cmd.AddCommand(accountOpenCommand(), accountMintCommand(), accountBalanceCommand())
	return cmd
}

func accountOpenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "open <owner>",
		Short: "Open the associated token account of an identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(cmd)
			if err != nil {
				return err
			}
			defer ws.Close()

			owner, err := resolveIdentity(ws, args[0])
			if err != nil {
				return err
			}
			acct, err := ws.Engine.OpenAccount(cmd.Context(), owner)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), acct)
			return nil
		},
	}
}

func accountMintCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mint <account> <amount>",
		Short: "Credit tokens to an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(cmd)
			if err != nil {
				return err
			}
			defer ws.Close()

			acct, err := resolveAccount(ws, args[0])
			if err != nil {
				return err
			}
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			return ws.Engine.Mint(cmd.Context(), acct, amount)
		},
	}
}

func accountBalanceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "balance <account>",
		Short: "Print an account balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(cmd)
			if err != nil {
				return err
			}
			defer ws.Close()

			acct, err := resolveAccount(ws, args[0])
			if err != nil {
				return err
			}
			balance, err := ws.Engine.Balance(cmd.Context(), acct)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), balance)
			return nil
		},
	}
}
