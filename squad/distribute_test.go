package squad

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fundRewards mints amount to a throwaway funder and moves it into the
// squad's rewards vault.
func (f *fixture) fundRewards(squad Address, amount uint64) {
	f.t.Helper()
	funder := makeIdentity(0xF0)
	acct := AssociatedAccount(funder)
	if _, err := f.engine.Balance(f.ctx, acct); err != nil {
		acct = f.account(funder, 0)
	}
	require.NoError(f.t, f.engine.Mint(f.ctx, acct, amount))
	require.NoError(f.t, f.engine.FundRewards(f.ctx, squad, funder, acct, amount, NewSignerSet(funder)))
}

// twoMemberSquad builds a squad where A stakes 10_000 units and B 20_000.
func twoMemberSquad(f *fixture) (squad, a, b, acctA, acctB Address) {
	f.t.Helper()
	authority := makeIdentity(0x01)
	squad = f.createSquad(authority, "duo", 2)
	a, b = makeIdentity(0x10), makeIdentity(0x11)
	acctA = f.fundedMember(squad, a, 10_000*StakeUnit)
	acctB = f.fundedMember(squad, b, 20_000*StakeUnit)
	f.stake(squad, a, acctA, 10_000*StakeUnit)
	f.stake(squad, b, acctB, 20_000*StakeUnit)
	return squad, a, b, acctA, acctB
}

func (f *fixture) distribute(squad Address) *DistributionReport {
	f.t.Helper()
	plan, err := f.engine.PayoutPlan(f.ctx, squad)
	require.NoError(f.t, err)
	report, err := f.engine.Distribute(f.ctx, squad, plan)
	require.NoError(f.t, err)
	return report
}

func TestDistribute_ProportionalFloor(t *testing.T) {
	forEachStore(t, func(t *testing.T, f *fixture) {
		squad, _, _, acctA, acctB := twoMemberSquad(f)
		f.fundRewards(squad, 1000)

		report := f.distribute(squad)

		// Weights 50 and 100 split 1000 into 333 and 666.
		assert.Equal(t, uint64(333), f.balance(acctA))
		assert.Equal(t, uint64(666), f.balance(acctB))
		assert.Equal(t, uint64(1), f.balance(RewardsVault(squad)))

		assert.Equal(t, uint64(1000), report.Available)
		assert.Equal(t, uint64(999), report.Distributed)
		assert.Equal(t, uint64(1), report.Dust)
		assert.Equal(t, "150", report.TotalWeight.String())
		require.Len(t, report.Payouts, 2)

		f.requireStakeInvariant(squad)
	})
}

func TestDistribute_ActivityShiftsShares(t *testing.T) {
	forEachStore(t, func(t *testing.T, f *fixture) {
		squad, a, _, acctA, acctB := twoMemberSquad(f)
		require.NoError(t, f.engine.UpdateActivity(f.ctx, ActivityParams{
			Squad: squad, Member: a, Oracle: makeIdentity(0x01), Score: 100,
		}, NewSignerSet(makeIdentity(0x01))))
		f.fundRewards(squad, 1001)

		report := f.distribute(squad)

		// Weights 150 and 100: 600.6 and 400.4 floor to 600 and 400.
		assert.Equal(t, uint64(600), f.balance(acctA))
		assert.Equal(t, uint64(400), f.balance(acctB))
		assert.Equal(t, uint64(1), report.Dust)
		assert.Equal(t, uint64(1), f.balance(RewardsVault(squad)))
	})
}

func TestDistribute_TenureShiftsShares(t *testing.T) {
	f := newFixture(t, NewMemStore())
	authority := makeIdentity(0x01)
	squad := f.createSquad(authority, "duo", 2)
	a, b := makeIdentity(0x10), makeIdentity(0x11)

	acctA := f.fundedMember(squad, a, 10_000*StakeUnit)
	f.stake(squad, a, acctA, 10_000*StakeUnit)
	f.advance(MaxTenureSeconds * time.Second)
	acctB := f.fundedMember(squad, b, 10_000*StakeUnit)
	f.stake(squad, b, acctB, 10_000*StakeUnit)

	f.fundRewards(squad, 300)
	report := f.distribute(squad)

	// A has the full tenure bonus: weights 100 and 50.
	assert.Equal(t, "150", report.TotalWeight.String())
	assert.Equal(t, uint64(200), f.balance(acctA))
	assert.Equal(t, uint64(100), f.balance(acctB))
	assert.Zero(t, report.Dust)
}

func TestDistribute_ConservesRewards(t *testing.T) {
	forEachStore(t, func(t *testing.T, f *fixture) {
		squad := f.createSquad(makeIdentity(0x01), "crew", 8)
		var accts []Address
		for i := byte(0); i < 7; i++ {
			id := makeIdentity(0x40 + i)
			acct := f.fundedMember(squad, id, uint64(i+1)*3_333*StakeUnit)
			f.stake(squad, id, acct, uint64(i+1)*3_333*StakeUnit)
			accts = append(accts, acct)
			f.advance(time.Duration(i) * 24 * time.Hour)
		}
		const funded = 987_654_321
		f.fundRewards(squad, funded)

		report := f.distribute(squad)

		var paid uint64
		for _, acct := range accts {
			paid += f.balance(acct)
		}
		assert.Equal(t, report.Distributed, paid)
		assert.Equal(t, uint64(funded), paid+f.balance(RewardsVault(squad)))
		assert.Less(t, report.Dust, uint64(len(accts)), "floor division loses less than one unit per member")
		f.requireStakeInvariant(squad)
	})
}

func TestDistribute_DustStaysInVault(t *testing.T) {
	f := newFixture(t, NewMemStore())
	squad, _, _, acctA, acctB := twoMemberSquad(f)
	f.fundRewards(squad, 1)

	report := f.distribute(squad)
	assert.Zero(t, report.Distributed)
	assert.Equal(t, uint64(1), report.Dust)
	assert.Zero(t, f.balance(acctA))
	assert.Zero(t, f.balance(acctB))
	assert.Equal(t, uint64(1), f.balance(RewardsVault(squad)))
}

func TestDistribute_Preconditions(t *testing.T) {
	t.Run("no members", func(t *testing.T) {
		f := newFixture(t, NewMemStore())
		squad := f.createSquad(makeIdentity(0x01), "empty", 2)
		f.fundRewards(squad, 100)
		_, err := f.engine.Distribute(f.ctx, squad, nil)
		assert.ErrorIs(t, err, ErrNoMembers)
	})

	t.Run("no rewards", func(t *testing.T) {
		f := newFixture(t, NewMemStore())
		squad, _, _, _, _ := twoMemberSquad(f)
		plan, err := f.engine.PayoutPlan(f.ctx, squad)
		require.NoError(t, err)
		_, err = f.engine.Distribute(f.ctx, squad, plan)
		assert.ErrorIs(t, err, ErrNoRewards)
	})

	t.Run("zero total weight", func(t *testing.T) {
		f := newFixture(t, NewMemStore())
		squad := f.createSquad(makeIdentity(0x01), "idle", 2)
		f.fundedMember(squad, makeIdentity(0x10), 0)
		f.fundedMember(squad, makeIdentity(0x11), 0)
		f.fundRewards(squad, 100)

		plan, err := f.engine.PayoutPlan(f.ctx, squad)
		require.NoError(t, err)
		_, err = f.engine.Distribute(f.ctx, squad, plan)
		assert.ErrorIs(t, err, ErrZeroTotalWeight)
		assert.Equal(t, uint64(100), f.balance(RewardsVault(squad)))
	})

	t.Run("unknown squad", func(t *testing.T) {
		f := newFixture(t, NewMemStore())
		_, err := f.engine.Distribute(f.ctx, makeIdentity(0xEE), nil)
		assert.ErrorIs(t, err, ErrSquadNotFound)
	})
}

// Stakes below one unit weigh nothing whatever their tenure and activity,
// so a squad holding only such stakes cannot distribute.
func TestDistribute_SubUnitStakesHaveZeroWeight(t *testing.T) {
	forEachStore(t, func(t *testing.T, f *fixture) {
		authority := makeIdentity(0x01)
		squad := f.createSquad(authority, "dusty", 2)
		ids := []Address{makeIdentity(0x10), makeIdentity(0x11)}
		accts := make([]Address, len(ids))
		for i, id := range ids {
			accts[i] = f.fundedMember(squad, id, StakeUnit-1)
			f.stake(squad, id, accts[i], StakeUnit-1)
		}
		f.advance(time.Duration(MaxTenureSeconds) * time.Second)
		for _, id := range ids {
			require.NoError(t, f.engine.UpdateActivity(f.ctx, ActivityParams{
				Squad: squad, Member: id, Oracle: authority, Score: 100,
			}, NewSignerSet(authority)))
		}
		f.fundRewards(squad, 500)

		plan, err := f.engine.PayoutPlan(f.ctx, squad)
		require.NoError(t, err)
		_, err = f.engine.Distribute(f.ctx, squad, plan)
		assert.ErrorIs(t, err, ErrZeroTotalWeight)

		assert.Equal(t, uint64(500), f.balance(RewardsVault(squad)))
		for i, id := range ids {
			assert.Zero(t, f.balance(accts[i]))
			assert.Equal(t, uint64(StakeUnit-1), f.member(squad, id).StakeAmount)
		}
		assert.Equal(t, uint64(2*(StakeUnit-1)), f.squad(squad).TotalStaked)
		f.requireStakeInvariant(squad)
	})
}

func TestDistribute_InvalidPayouts(t *testing.T) {
	f := newFixture(t, NewMemStore())
	squad, a, b, acctA, acctB := twoMemberSquad(f)
	f.fundRewards(squad, 1000)

	other := f.createSquad(makeIdentity(0x02), "other", 2)
	outsider := makeIdentity(0x30)
	outsiderAcct := f.fundedMember(other, outsider, 0)

	memberA, memberB := MemberAddress(squad, a), MemberAddress(squad, b)

	tests := []struct {
		name    string
		payouts []Payout
		wantErr error
	}{
		{"short list", []Payout{{memberA, acctA}}, ErrInvalidPayouts},
		{"duplicate member", []Payout{{memberA, acctA}, {memberA, acctA}}, ErrInvalidPayouts},
		{"member of another squad", []Payout{{memberA, acctA}, {MemberAddress(other, outsider), outsiderAcct}}, ErrInvalidPayouts},
		{"unknown member", []Payout{{memberA, acctA}, {makeIdentity(0x77), acctB}}, ErrInvalidPayouts},
		{"destination not owned by member", []Payout{{memberA, acctB}, {memberB, acctB}}, ErrDestinationMismatch},
		{"missing destination", []Payout{{memberA, acctA}, {memberB, makeIdentity(0x78)}}, ErrAccountNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.engine.Distribute(f.ctx, squad, tt.payouts)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, uint64(1000), f.balance(RewardsVault(squad)))
		})
	}

	// Order is free as long as every member appears once.
	_, err := f.engine.Distribute(f.ctx, squad, []Payout{{memberB, acctB}, {memberA, acctA}})
	require.NoError(t, err)
	assert.Equal(t, uint64(333), f.balance(acctA))
	assert.Equal(t, uint64(666), f.balance(acctB))
}

func TestDistribute_RollsBackOnMidwayFailure(t *testing.T) {
	forEachStore(t, func(t *testing.T, f *fixture) {
		squad, a, b, acctA, acctB := twoMemberSquad(f)
		f.fundRewards(squad, 1000)

		// Fill B's destination so its credit overflows after A is paid.
		require.NoError(t, f.engine.Mint(f.ctx, acctB, math.MaxUint64))

		_, err := f.engine.Distribute(f.ctx, squad, []Payout{
			{MemberAddress(squad, a), acctA},
			{MemberAddress(squad, b), acctB},
		})
		require.ErrorIs(t, err, ErrOverflow)

		assert.Zero(t, f.balance(acctA), "earlier payouts must be rolled back")
		assert.Equal(t, uint64(math.MaxUint64), f.balance(acctB))
		assert.Equal(t, uint64(1000), f.balance(RewardsVault(squad)))
	})
}

func TestPayoutPlan(t *testing.T) {
	f := newFixture(t, NewMemStore())
	squad, a, b, acctA, acctB := twoMemberSquad(f)

	plan, err := f.engine.PayoutPlan(f.ctx, squad)
	require.NoError(t, err)
	require.Len(t, plan, 2)

	want := map[Address]Address{
		MemberAddress(squad, a): acctA,
		MemberAddress(squad, b): acctB,
	}
	for _, p := range plan {
		assert.Equal(t, want[p.Member], p.Destination)
	}

	_, err = f.engine.PayoutPlan(f.ctx, makeIdentity(0xEE))
	assert.ErrorIs(t, err, ErrSquadNotFound)
}
