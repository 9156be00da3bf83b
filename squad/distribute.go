package squad

import (
	"context"
	"fmt"
	"math/big"
)

// DistributionReport summarises one reward distribution.
type DistributionReport struct {
	Squad       Address
	Available   uint64   // rewards vault balance before the split
	TotalWeight *big.Int // sum of member weights
	Distributed uint64   // total paid out
	Dust        uint64   // left in the vault by floor division
	Payouts     []PayoutResult
}

// Distribute splits the squad's rewards vault among its members in
// proportion to Weight. payouts must name every member exactly once,
// each paired with a token account owned by that member.
//
// Two passes run over the list: the first sums all weights, the second
// recomputes each weight and pays floor(weight * balance / total). Members
// whose share rounds to zero get nothing and the remainder stays in the vault.
func (e *Engine) Distribute(ctx context.Context, squad Address, payouts []Payout) (*DistributionReport, error) {
	var report *DistributionReport
	err := e.update(ctx, "distribute", func(txn Txn) error {
		sq, err := txn.Squad(squad)
		if err != nil {
			return err
		}
		if sq.MemberCount == 0 {
			return ErrNoMembers
		}
		vault, err := txn.Account(sq.RewardsVault)
		if err != nil {
			return err
		}
		if vault.Amount == 0 {
			return ErrNoRewards
		}

		members, err := validatePayouts(txn, squad, sq, payouts)
		if err != nil {
			return err
		}

		now := e.now().Unix()
		total := new(big.Int)
		for _, m := range members {
			w, err := memberWeight(m, now, sq.MemberCount)
			if err != nil {
				return err
			}
			if total, err = checkedAdd(total, new(big.Int).SetUint64(w)); err != nil {
				return err
			}
		}
		if total.Sign() == 0 {
			return ErrZeroTotalWeight
		}

		report = &DistributionReport{
			Squad:       squad,
			Available:   vault.Amount,
			TotalWeight: total,
			Payouts:     make([]PayoutResult, 0, len(payouts)),
		}
		for i, m := range members {
			w, err := memberWeight(m, now, sq.MemberCount)
			if err != nil {
				return err
			}
			reward, err := mulDiv(w, vault.Amount, total)
			if err != nil {
				return err
			}
			if reward > 0 {
				if err := txn.Transfer(sq.RewardsVault, payouts[i].Destination, reward, squad); err != nil {
					return fmt.Errorf("pay member %s: %w", payouts[i].Member, err)
				}
			}
			report.Distributed += reward
			report.Payouts = append(report.Payouts, PayoutResult{
				Member:      payouts[i].Member,
				Destination: payouts[i].Destination,
				Weight:      w,
				Amount:      reward,
			})
		}
		report.Dust = report.Available - report.Distributed
		return nil
	})
	if err != nil {
		return nil, err
	}

	if e.metrics != nil {
		e.metrics.distributions.Inc()
		e.metrics.rewardsPaid.Add(float64(report.Distributed))
		e.metrics.rewardsDust.WithLabelValues(squad.String()).Set(float64(report.Dust))
	}
	e.logger.Info("rewards distributed",
		"squad", squad.String(),
		"available", report.Available,
		"distributed", report.Distributed,
		"dust", report.Dust,
		"total_weight", report.TotalWeight.String(),
	)
	return report, nil
}

// PayoutPlan builds a payout list covering every member of squad, paying
// each to its associated token account.
func (e *Engine) PayoutPlan(ctx context.Context, squad Address) ([]Payout, error) {
	records, err := e.Members(ctx, squad)
	if err != nil {
		return nil, err
	}
	plan := make([]Payout, 0, len(records))
	for _, r := range records {
		plan = append(plan, Payout{
			Member:      r.Address,
			Destination: AssociatedAccount(r.Member.Authority),
		})
	}
	return plan, nil
}

// validatePayouts checks that payouts covers the squad's membership exactly
// once and that each destination belongs to its member. It returns the
// member records in payout order.
func validatePayouts(txn Txn, squad Address, sq *Squad, payouts []Payout) ([]*Member, error) {
	if len(payouts) != int(sq.MemberCount) {
		return nil, fmt.Errorf("%w: %d entries for %d members", ErrInvalidPayouts, len(payouts), sq.MemberCount)
	}

	seen := make(map[Address]struct{}, len(payouts))
	members := make([]*Member, 0, len(payouts))
	for i, p := range payouts {
		if _, dup := seen[p.Member]; dup {
			return nil, fmt.Errorf("%w: entry %d repeats member %s", ErrInvalidPayouts, i, p.Member)
		}
		seen[p.Member] = struct{}{}

		m, err := txn.Member(p.Member)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", ErrInvalidPayouts, i, err)
		}
		if m.Squad != squad {
			return nil, fmt.Errorf("%w: entry %d: member %s belongs to squad %s", ErrInvalidPayouts, i, p.Member, m.Squad)
		}

		dst, err := txn.Account(p.Destination)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		if dst.Owner != m.Authority {
			return nil, fmt.Errorf("%w: entry %d: account %s", ErrDestinationMismatch, i, p.Destination)
		}
		members = append(members, m)
	}
	return members, nil
}

func memberWeight(m *Member, now int64, squadSize uint8) (uint64, error) {
	return Weight(m.StakeAmount, now-m.JoinTimestamp, squadSize, m.ActivityScore)
}
