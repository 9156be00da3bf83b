package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bitfsorg/libsquads-go/auth"
	"github.com/bitfsorg/libsquads-go/squad"
	"github.com/bitfsorg/libsquads-go/workspace"
)

func squadCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "squad",
		Short: "Create squads, stake, score activity and distribute rewards",
	}
	cmd.AddCommand(
		squadCreateCommand(),
		squadJoinCommand(),
		squadStakeCommand(),
		squadUnstakeCommand(),
		squadActivityCommand(),
		squadSetOracleCommand(),
		squadFundCommand(),
		squadDistributeCommand(),
		squadShowCommand(),
		squadListCommand(),
	)
	return cmd
}

// withSquad opens the workspace, resolves args[0] as a squad address and
// runs fn.
func withSquad(cmd *cobra.Command, args []string, fn func(ws *workspace.Workspace, sq squad.Address) error) error {
	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	sq, err := squad.ParseAddress(args[0])
	if err != nil {
		return err
	}
	return fn(ws, sq)
}

func squadCreateCommand() *cobra.Command {
	var (
		as         string
		maxMembers uint8
		oracle     string
	)
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a squad owned by --as",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(cmd)
			if err != nil {
				return err
			}
			defer ws.Close()

			authority, err := ws.Identity(as)
			if err != nil {
				return err
			}
			p := squad.CreateSquadParams{Authority: authority, Name: args[0], MaxMembers: maxMembers}
			if oracle != "" {
				if p.Oracle, err = resolveIdentity(ws, oracle); err != nil {
					return err
				}
			}
			signers, err := ws.Sign("create_squad",
				[][]byte{authority[:], []byte(p.Name), {p.MaxMembers}, p.Oracle[:]}, as)
			if err != nil {
				return err
			}
			addr, err := ws.Engine.CreateSquad(cmd.Context(), p, signers)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), addr)
			return nil
		},
	}
	cmd.Flags().StringVar(&as, "as", "", "authority identity label")
	cmd.Flags().Uint8Var(&maxMembers, "max", squad.MaxMembers, "member capacity (2-8)")
	cmd.Flags().StringVar(&oracle, "oracle", "", "designated oracle (label or identity); defaults to the authority")
	_ = cmd.MarkFlagRequired("as")
	return cmd
}

func squadJoinCommand() *cobra.Command {
	var as string
	cmd := &cobra.Command{
		Use:   "join <squad>",
		Short: "Join a squad as --as",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSquad(cmd, args, func(ws *workspace.Workspace, sq squad.Address) error {
				member, err := ws.Identity(as)
				if err != nil {
					return err
				}
				signers, err := ws.Sign("join", [][]byte{sq[:], member[:]}, as)
				if err != nil {
					return err
				}
				addr, err := ws.Engine.Join(cmd.Context(), sq, member, signers)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), addr)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&as, "as", "", "member identity label")
	_ = cmd.MarkFlagRequired("as")
	return cmd
}

func squadStakeCommand() *cobra.Command {
	var as, source string
	cmd := &cobra.Command{
		Use:   "stake <squad> <amount>",
		Short: "Stake tokens from --source (default: the member's account)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSquad(cmd, args, func(ws *workspace.Workspace, sq squad.Address) error {
				member, err := ws.Identity(as)
				if err != nil {
					return err
				}
				amount, err := parseAmount(args[1])
				if err != nil {
					return err
				}
				src := squad.AssociatedAccount(member)
				if source != "" {
					if src, err = resolveAccount(ws, source); err != nil {
						return err
					}
				}
				signers, err := ws.Sign("stake", [][]byte{sq[:], member[:], src[:], auth.Uint64Field(amount)}, as)
				if err != nil {
					return err
				}
				return ws.Engine.Stake(cmd.Context(), squad.StakeParams{
					Squad: sq, Member: member, Source: src, Amount: amount,
				}, signers)
			})
		},
	}
	cmd.Flags().StringVar(&as, "as", "", "member identity label")
	cmd.Flags().StringVar(&source, "source", "", "token account to debit")
	_ = cmd.MarkFlagRequired("as")
	return cmd
}

func squadUnstakeCommand() *cobra.Command {
	var as, to string
	cmd := &cobra.Command{
		Use:   "unstake <squad> <amount>",
		Short: "Withdraw stake to --to (default: the member's account)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSquad(cmd, args, func(ws *workspace.Workspace, sq squad.Address) error {
				member, err := ws.Identity(as)
				if err != nil {
					return err
				}
				amount, err := parseAmount(args[1])
				if err != nil {
					return err
				}
				dst := squad.AssociatedAccount(member)
				if to != "" {
					if dst, err = resolveAccount(ws, to); err != nil {
						return err
					}
				}
				signers, err := ws.Sign("unstake", [][]byte{sq[:], member[:], dst[:], auth.Uint64Field(amount)}, as)
				if err != nil {
					return err
				}
				return ws.Engine.Unstake(cmd.Context(), squad.UnstakeParams{
					Squad: sq, Member: member, Destination: dst, Amount: amount,
				}, signers)
			})
		},
	}
	cmd.Flags().StringVar(&as, "as", "", "member identity label")
	cmd.Flags().StringVar(&to, "to", "", "token account to credit")
	_ = cmd.MarkFlagRequired("as")
	return cmd
}

func squadActivityCommand() *cobra.Command {
	var as string
	cmd := &cobra.Command{
		Use:   "activity <squad> <member> <score>",
		Short: "Record a member's activity score as the squad oracle",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSquad(cmd, args, func(ws *workspace.Workspace, sq squad.Address) error {
				oracle, err := ws.Identity(as)
				if err != nil {
					return err
				}
				member, err := resolveIdentity(ws, args[1])
				if err != nil {
					return err
				}
				score, err := strconv.ParseUint(args[2], 10, 32)
				if err != nil {
					return fmt.Errorf("invalid score %q: %w", args[2], err)
				}
				signers, err := ws.Sign("update_activity",
					[][]byte{sq[:], member[:], auth.Uint64Field(score)}, as)
				if err != nil {
					return err
				}
				return ws.Engine.UpdateActivity(cmd.Context(), squad.ActivityParams{
					Squad: sq, Member: member, Oracle: oracle, Score: uint32(score),
				}, signers)
			})
		},
	}
	cmd.Flags().StringVar(&as, "as", "", "oracle identity label")
	_ = cmd.MarkFlagRequired("as")
	return cmd
}

func squadSetOracleCommand() *cobra.Command {
	var as string
	cmd := &cobra.Command{
		Use:   "set-oracle <squad> <oracle>",
		Short: "Designate a new activity oracle (authority only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSquad(cmd, args, func(ws *workspace.Workspace, sq squad.Address) error {
				oracle, err := resolveIdentity(ws, args[1])
				if err != nil {
					return err
				}
				signers, err := ws.Sign("set_oracle", [][]byte{sq[:], oracle[:]}, as)
				if err != nil {
					return err
				}
				return ws.Engine.SetOracle(cmd.Context(), sq, oracle, signers)
			})
		},
	}
	cmd.Flags().StringVar(&as, "as", "", "squad authority label")
	_ = cmd.MarkFlagRequired("as")
	return cmd
}

func squadFundCommand() *cobra.Command {
	var as, source string
	cmd := &cobra.Command{
		Use:   "fund <squad> <amount>",
		Short: "Move tokens into the squad's rewards vault",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSquad(cmd, args, func(ws *workspace.Workspace, sq squad.Address) error {
				funder, err := ws.Identity(as)
				if err != nil {
					return err
				}
				amount, err := parseAmount(args[1])
				if err != nil {
					return err
				}
				src := squad.AssociatedAccount(funder)
				if source != "" {
					if src, err = resolveAccount(ws, source); err != nil {
						return err
					}
				}
				signers, err := ws.Sign("fund_rewards", [][]byte{sq[:], src[:], auth.Uint64Field(amount)}, as)
				if err != nil {
					return err
				}
				return ws.Engine.FundRewards(cmd.Context(), sq, funder, src, amount, signers)
			})
		},
	}
	cmd.Flags().StringVar(&as, "as", "", "funder identity label")
	cmd.Flags().StringVar(&source, "source", "", "token account to debit")
	_ = cmd.MarkFlagRequired("as")
	return cmd
}

func squadDistributeCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "distribute <squad>",
		Short: "Split the rewards vault among members by weight",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSquad(cmd, args, func(ws *workspace.Workspace, sq squad.Address) error {
				plan, err := ws.Engine.PayoutPlan(cmd.Context(), sq)
				if err != nil {
					return err
				}
				report, err := ws.Engine.Distribute(cmd.Context(), sq, plan)
				if err != nil {
					return err
				}
				return render(cmd, output, newReportView(report))
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "yaml", "output format: yaml or json")
	return cmd
}

func squadShowCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "show <squad>",
		Short: "Show a squad, its members and their current weights",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSquad(cmd, args, func(ws *workspace.Workspace, sq squad.Address) error {
				view, err := loadSquadView(cmd, ws, sq)
				if err != nil {
					return err
				}
				return render(cmd, output, view)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "yaml", "output format: yaml or json")
	return cmd
}

func squadListCommand() *cobra.Command {
	var (
		output    string
		authority string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List squads, optionally only those created by one authority",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := openWorkspace(cmd)
			if err != nil {
				return err
			}
			defer ws.Close()

			var records []squad.SquadRecord
			if authority == "" {
				records, err = ws.Engine.Squads(cmd.Context())
			} else {
				var id squad.Address
				if id, err = resolveIdentity(ws, authority); err != nil {
					return err
				}
				records, err = ws.Engine.SquadsByAuthority(cmd.Context(), id)
			}
			if err != nil {
				return err
			}
			return render(cmd, output, newSquadSummaries(records))
		},
	}
	cmd.Flags().StringVar(&authority, "authority", "", "only squads created by this label or identity")
	cmd.Flags().StringVarP(&output, "output", "o", "yaml", "output format: yaml or json")
	return cmd
}

func render(cmd *cobra.Command, format string, v any) error {
	out := cmd.OutOrStdout()
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown output format %q", format)
}
