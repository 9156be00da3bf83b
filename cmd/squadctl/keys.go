package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bitfsorg/libsquads-go/keys"
	"github.com/bitfsorg/libsquads-go/workspace"
)

func keysCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage the seed and signing identities",
	}
	cmd.AddCommand(keysInitCommand(), keysNewCommand(), keysListCommand())
	return cmd
}

func keysInitCommand() *cobra.Command {
	var (
		mnemonic   string
		passphrase string
		words      int
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the encrypted seed for a new data directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt := fromContext(cmd.Context())

			generated := mnemonic == ""
			if generated {
				bits := keys.Mnemonic12Words
				if words == 24 {
					bits = keys.Mnemonic24Words
				} else if words != 12 {
					return fmt.Errorf("--words must be 12 or 24, got %d", words)
				}
				var err error
				if mnemonic, err = keys.GenerateMnemonic(bits); err != nil {
					return err
				}
			}

			if err := workspace.Init(rt.cfg, mnemonic, passphrase, seedPassword()); err != nil {
				return err
			}
			rt.logger.Info("workspace initialized", "datadir", rt.cfg.DataDir, "network", rt.cfg.Network)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Initialized %s\n", rt.cfg.DataDir)
			if generated {
				fmt.Fprintf(out, "Mnemonic (write it down, it is not stored in plain text):\n\n  %s\n", mnemonic)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&mnemonic, "mnemonic", "", "restore from an existing BIP39 mnemonic")
	cmd.Flags().StringVar(&passphrase, "passphrase", "", "optional BIP39 passphrase")
	cmd.Flags().IntVar(&words, "words", 12, "mnemonic length when generating (12 or 24)")
	return cmd
}

func keysNewCommand() *cobra.Command {
	var oracle bool
	cmd := &cobra.Command{
		Use:   "new <label>",
		Short: "Derive a new member or oracle identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(cmd)
			if err != nil {
				return err
			}
			defer ws.Close()

			role := keys.RoleMember
			if oracle {
				role = keys.RoleOracle
			}
			id, err := ws.NewIdentity(args[0], role)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", id.Label, id.Role, id.Identity)
			return nil
		},
	}
	cmd.Flags().BoolVar(&oracle, "oracle", false, "derive from the oracle account")
	return cmd
}

func keysListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List identities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := openWorkspace(cmd)
			if err != nil {
				return err
			}
			defer ws.Close()

			if len(ws.Keys.Identities) == 0 {
				return errors.New("no identities (run 'squadctl keys new <label>')")
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "LABEL\tROLE\tINDEX\tIDENTITY")
			for _, id := range ws.Keys.Identities {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", id.Label, id.Role, id.Index, id.Identity)
			}
			return tw.Flush()
		},
	}
}
