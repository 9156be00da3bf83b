package squad

import (
	"context"
	"fmt"
)

// CreateSquadParams are the inputs of CreateSquad.
type CreateSquadParams struct {
	Authority  Address
	Name       string
	MaxMembers uint8
	Oracle     Address // zero means the authority acts as oracle
}

// StakeParams are the inputs of Stake.
type StakeParams struct {
	Squad  Address
	Member Address // member identity
	Source Address // token account debited, owned by Member
	Amount uint64
}

// UnstakeParams are the inputs of Unstake.
type UnstakeParams struct {
	Squad       Address
	Member      Address // member identity
	Destination Address // token account credited, owned by Member
	Amount      uint64
}

// CreateSquad creates a squad and opens its rewards and stake vaults.
// The authority must have signed.
func (e *Engine) CreateSquad(ctx context.Context, p CreateSquadParams, signers Signers) (Address, error) {
	if err := requireSigner(signers, p.Authority); err != nil {
		return ZeroAddress, err
	}
	if p.MaxMembers < MinMembers || p.MaxMembers > MaxMembers {
		return ZeroAddress, fmt.Errorf("%w: got %d", ErrInvalidSquadSize, p.MaxMembers)
	}
	if len(p.Name) > MaxNameLen {
		return ZeroAddress, fmt.Errorf("%w: %d bytes", ErrNameTooLong, len(p.Name))
	}

	addr := SquadAddress(p.Authority, p.Name)
	oracle := p.Oracle
	if oracle.IsZero() {
		oracle = p.Authority
	}
	sq := &Squad{
		Authority:    p.Authority,
		Name:         p.Name,
		MaxMembers:   p.MaxMembers,
		RewardsVault: RewardsVault(addr),
		AddrTag:      AddrTagV1,
		Oracle:       oracle,
	}

	err := e.update(ctx, "create_squad", func(txn Txn) error {
		if err := txn.CreateSquad(addr, sq); err != nil {
			return err
		}
		if err := txn.OpenAccount(sq.RewardsVault, addr); err != nil {
			return err
		}
		return txn.OpenAccount(StakeVault(addr), addr)
	})
	if err != nil {
		return ZeroAddress, err
	}

	if e.metrics != nil {
		e.metrics.squadsCreated.Inc()
	}
	e.logger.Info("squad created",
		"squad", addr.String(),
		"name", p.Name,
		"max_members", p.MaxMembers,
	)
	return addr, nil
}

// Join adds identity to squad with zero stake. The identity must have signed.
func (e *Engine) Join(ctx context.Context, squad, identity Address, signers Signers) (Address, error) {
	if err := requireSigner(signers, identity); err != nil {
		return ZeroAddress, err
	}

	addr := MemberAddress(squad, identity)
	err := e.update(ctx, "join", func(txn Txn) error {
		sq, err := txn.Squad(squad)
		if err != nil {
			return err
		}
		if sq.MemberCount >= sq.MaxMembers {
			return fmt.Errorf("%w: %d/%d members", ErrSquadFull, sq.MemberCount, sq.MaxMembers)
		}

		now := e.now().Unix()
		m := &Member{
			Squad:                 squad,
			Authority:             identity,
			JoinTimestamp:         now,
			LastActivityTimestamp: now,
			AddrTag:               AddrTagV1,
		}
		if err := txn.CreateMember(addr, m); err != nil {
			return err
		}

		sq.MemberCount++
		return txn.PutSquad(squad, sq)
	})
	if err != nil {
		return ZeroAddress, err
	}

	if e.metrics != nil {
		e.metrics.membersJoined.Inc()
	}
	e.logger.Info("member joined", "squad", squad.String(), "member", identity.String())
	return addr, nil
}

// Stake moves Amount from the member's Source account into the squad's
// stake vault, then credits the member and squad counters.
func (e *Engine) Stake(ctx context.Context, p StakeParams, signers Signers) error {
	if err := requireSigner(signers, p.Member); err != nil {
		return err
	}
	if p.Amount == 0 {
		return ErrInvalidAmount
	}

	err := e.update(ctx, "stake", func(txn Txn) error {
		sq, m, memberAddr, err := loadSquadMember(txn, p.Squad, p.Member)
		if err != nil {
			return err
		}

		if err := txn.Transfer(p.Source, StakeVault(p.Squad), p.Amount, p.Member); err != nil {
			return err
		}

		if m.StakeAmount, err = checkedAddU64(m.StakeAmount, p.Amount); err != nil {
			return fmt.Errorf("member stake: %w", err)
		}
		if sq.TotalStaked, err = checkedAddU64(sq.TotalStaked, p.Amount); err != nil {
			return fmt.Errorf("squad total staked: %w", err)
		}
		if err := txn.PutMember(memberAddr, m); err != nil {
			return err
		}
		return txn.PutSquad(p.Squad, sq)
	})
	if err != nil {
		return err
	}

	if e.metrics != nil {
		e.metrics.stakeDeposited.Add(float64(p.Amount))
	}
	e.logger.Info("stake deposited",
		"squad", p.Squad.String(),
		"member", p.Member.String(),
		"amount", p.Amount,
	)
	return nil
}

// Unstake returns Amount from the squad's stake vault to the member's
// Destination account. The vault transfer is authorised by the squad itself.
func (e *Engine) Unstake(ctx context.Context, p UnstakeParams, signers Signers) error {
	if err := requireSigner(signers, p.Member); err != nil {
		return err
	}
	if p.Amount == 0 {
		return ErrInvalidAmount
	}

	err := e.update(ctx, "unstake", func(txn Txn) error {
		sq, m, memberAddr, err := loadSquadMember(txn, p.Squad, p.Member)
		if err != nil {
			return err
		}
		if p.Amount > m.StakeAmount {
			return fmt.Errorf("%w: staked %d, requested %d", ErrInsufficientStake, m.StakeAmount, p.Amount)
		}

		dst, err := txn.Account(p.Destination)
		if err != nil {
			return err
		}
		if dst.Owner != p.Member {
			return fmt.Errorf("%w: account %s", ErrDestinationMismatch, p.Destination)
		}

		if err := txn.Transfer(StakeVault(p.Squad), p.Destination, p.Amount, p.Squad); err != nil {
			return err
		}

		if m.StakeAmount, err = checkedSubU64(m.StakeAmount, p.Amount); err != nil {
			return fmt.Errorf("member stake: %w", err)
		}
		if sq.TotalStaked, err = checkedSubU64(sq.TotalStaked, p.Amount); err != nil {
			return fmt.Errorf("squad total staked: %w", err)
		}
		if err := txn.PutMember(memberAddr, m); err != nil {
			return err
		}
		return txn.PutSquad(p.Squad, sq)
	})
	if err != nil {
		return err
	}

	if e.metrics != nil {
		e.metrics.stakeWithdrawn.Add(float64(p.Amount))
	}
	e.logger.Info("stake withdrawn",
		"squad", p.Squad.String(),
		"member", p.Member.String(),
		"amount", p.Amount,
	)
	return nil
}

// loadSquadMember loads a squad and identity's member record within it.
func loadSquadMember(txn Txn, squad, identity Address) (*Squad, *Member, Address, error) {
	sq, err := txn.Squad(squad)
	if err != nil {
		return nil, nil, ZeroAddress, err
	}
	addr := MemberAddress(squad, identity)
	m, err := txn.Member(addr)
	if err != nil {
		return nil, nil, ZeroAddress, err
	}
	if m.Squad != squad || m.Authority != identity {
		return nil, nil, ZeroAddress, fmt.Errorf("%w: record %s does not belong to squad %s", ErrMemberNotFound, addr, squad)
	}
	return sq, m, addr, nil
}
